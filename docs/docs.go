// Package docs registers the OpenAPI description served under /docs/.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v1/auth/sign-up": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Register an account",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/utils.Payload"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/utils.Payload"}}
                }
            }
        },
        "/api/v1/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Log in and receive the session cookie",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.Payload"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/utils.Payload"}}
                }
            }
        },
        "/api/v1/auth/logout": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Clear the session cookie",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.Payload"}}
                }
            }
        },
        "/api/v1/shares": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Share"],
                "summary": "List the caller's shares",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.Payload"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/utils.Payload"}}
                }
            },
            "post": {
                "description": "Multipart upload of one or more files. Optional expiry, download limit, access code and password.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["Share"],
                "summary": "Create a share from uploaded files",
                "parameters": [
                    {"type": "file", "description": "Files to share", "name": "files", "in": "formData", "required": true},
                    {"type": "string", "description": "Share title", "name": "title", "in": "formData", "required": true},
                    {"type": "string", "description": "Description", "name": "description", "in": "formData"},
                    {"type": "string", "description": "public or private", "name": "visibility", "in": "formData"},
                    {"type": "string", "description": "Lifetime as a Go duration, e.g. 24h", "name": "expiresIn", "in": "formData"},
                    {"type": "string", "description": "Absolute expiry (RFC3339)", "name": "expiresAt", "in": "formData"},
                    {"type": "integer", "description": "Download limit, 0 for unlimited", "name": "maxDownloads", "in": "formData"},
                    {"type": "string", "description": "Download password", "name": "password", "in": "formData"},
                    {"type": "string", "description": "Explicit access code", "name": "accessCode", "in": "formData"},
                    {"type": "boolean", "description": "Generate an access code", "name": "requireAccessCode", "in": "formData"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/utils.Payload"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/utils.Payload"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/utils.Payload"}}
                }
            }
        },
        "/api/v1/shares/public": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Share"],
                "summary": "List public, unexpired shares",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.Payload"}}
                }
            }
        },
        "/api/v1/shares/{shareId}": {
            "get": {
                "description": "Returns share metadata after the expiry and access code checks. Counts one view.",
                "produces": ["application/json"],
                "tags": ["Share"],
                "summary": "View a share",
                "parameters": [
                    {"type": "string", "description": "Share token", "name": "shareId", "in": "path", "required": true},
                    {"type": "string", "description": "Access code", "name": "accessCode", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.Payload"}},
                    "401": {"description": "Access code required", "schema": {"$ref": "#/definitions/utils.Payload"}},
                    "403": {"description": "Invalid access code", "schema": {"$ref": "#/definitions/utils.Payload"}},
                    "404": {"description": "Share not found", "schema": {"$ref": "#/definitions/utils.Payload"}},
                    "410": {"description": "Share expired", "schema": {"$ref": "#/definitions/utils.Payload"}}
                }
            }
        },
        "/api/v1/shares/{shareId}/download": {
            "post": {
                "description": "Runs every access check, counts one download and returns a temporary URL per file.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Share"],
                "summary": "Issue download links",
                "parameters": [
                    {"type": "string", "description": "Share token", "name": "shareId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.Payload"}},
                    "401": {"description": "Credentials required or wrong password", "schema": {"$ref": "#/definitions/utils.Payload"}},
                    "403": {"description": "Invalid access code", "schema": {"$ref": "#/definitions/utils.Payload"}},
                    "404": {"description": "Share not found", "schema": {"$ref": "#/definitions/utils.Payload"}},
                    "410": {"description": "Expired or download limit reached", "schema": {"$ref": "#/definitions/utils.Payload"}},
                    "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/utils.Payload"}}
                }
            }
        },
        "/api/v1/shares/{shareId}/qr": {
            "get": {
                "produces": ["image/png"],
                "tags": ["Share"],
                "summary": "QR code for the share URL",
                "parameters": [
                    {"type": "string", "description": "Share token", "name": "shareId", "in": "path", "required": true},
                    {"type": "integer", "description": "Edge length in pixels (64-1024)", "name": "size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/utils.Payload"}}
                }
            }
        },
        "/api/v1/shares/{id}": {
            "delete": {
                "produces": ["application/json"],
                "tags": ["Share"],
                "summary": "Delete a share and its stored files",
                "parameters": [
                    {"type": "string", "description": "Share record id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.Payload"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/utils.Payload"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/utils.Payload"}}
                }
            }
        }
    },
    "definitions": {
        "utils.Payload": {
            "type": "object",
            "properties": {
                "data": {},
                "message": {"type": "string"},
                "success": {"type": "boolean"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Sharegate API",
	Description:      "Share uploaded files behind expiring, limited, optionally protected links.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
