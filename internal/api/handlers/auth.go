package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"

	"github.com/rohits-web03/sharegate/internal/api/middleware"
	"github.com/rohits-web03/sharegate/internal/api/services"
	"github.com/rohits-web03/sharegate/internal/config"
	"github.com/rohits-web03/sharegate/internal/models"
	"github.com/rohits-web03/sharegate/internal/repositories"
	"github.com/rohits-web03/sharegate/internal/utils"
)

const sessionTTL = 24 * time.Hour

// UserStore is the account storage used by AuthHandler.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// AuthHandler issues the session JWT that identifies share owners.
type AuthHandler struct {
	users       UserStore
	secret      string
	production  bool
	frontendURL string
	bcryptCost  int
	oauth       *oauth2.Config
	log         zerolog.Logger
}

func NewAuthHandler(users UserStore, cfg *config.Config, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		users:       users,
		secret:      cfg.JWTSecret,
		production:  cfg.IsProduction(),
		frontendURL: cfg.FrontendURL,
		bcryptCost:  cfg.BcryptCost,
		oauth:       services.GoogleOAuthConfig(cfg),
		log:         log,
	}
}

// Claims is the JWT payload. userId is the share owner id.
type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// RegisterUser godoc
// @Summary Register an account
// @Tags Auth
// @Accept json
// @Produce json
// @Success 201 {object} utils.Payload
// @Failure 400 {object} utils.Payload
// @Router /api/v1/auth/sign-up [post]
func (h *AuthHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := utils.DecodeJSON(r.Body, &input); err != nil {
		utils.Fail(w, http.StatusBadRequest, "Invalid input")
		return
	}
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	if input.Email == "" || input.Username == "" || input.Password == "" {
		utils.Fail(w, http.StatusBadRequest, "Invalid input")
		return
	}

	ctx := r.Context()
	if _, err := h.users.FindByUsername(ctx, input.Username); err == nil {
		utils.Fail(w, http.StatusBadRequest, "Username is already taken")
		return
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		h.log.Error().Err(err).Msg("user lookup failed")
		utils.Fail(w, http.StatusInternalServerError, "Database query failed")
		return
	}

	switch _, err := h.users.FindByEmail(ctx, input.Email); {
	case err == nil:
		utils.Fail(w, http.StatusBadRequest, "User already exists with this email")
		return
	case !errors.Is(err, repositories.ErrUserNotFound):
		h.log.Error().Err(err).Msg("user lookup failed")
		utils.Fail(w, http.StatusInternalServerError, "Database query failed")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), h.bcryptCost)
	if err != nil {
		utils.Fail(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}
	user := &models.User{
		Username: input.Username,
		Email:    input.Email,
		Password: string(hashed),
	}
	if err := h.users.Create(ctx, user); err != nil {
		h.log.Error().Err(err).Msg("user insert failed")
		utils.Fail(w, http.StatusInternalServerError, "Database insert failed")
		return
	}

	utils.Success(w, http.StatusCreated, "User registered successfully", nil)
}

// LoginUser godoc
// @Summary Log in and receive the session cookie
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} utils.Payload
// @Failure 401 {object} utils.Payload
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) LoginUser(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := utils.DecodeJSON(r.Body, &input); err != nil || input.Username == "" || input.Password == "" {
		utils.Fail(w, http.StatusBadRequest, "Invalid input")
		return
	}

	user, err := h.users.FindByUsername(r.Context(), input.Username)
	switch {
	case errors.Is(err, repositories.ErrUserNotFound):
		utils.Fail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	case err != nil:
		h.log.Error().Err(err).Msg("user lookup failed")
		utils.Fail(w, http.StatusInternalServerError, "Database error")
		return
	}

	// Google accounts have no password and cannot log in this way.
	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)) != nil {
		utils.Fail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.issueToken(user)
	if err != nil {
		utils.Fail(w, http.StatusInternalServerError, "Failed to create token")
		return
	}
	h.setSessionCookie(w, token, int(sessionTTL.Seconds()))

	utils.Success(w, http.StatusOK, "Login successful", map[string]string{"token": token})
}

// Logout godoc
// @Summary Clear the session cookie
// @Tags Auth
// @Produce json
// @Success 200 {object} utils.Payload
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.setSessionCookie(w, "", -1)
	utils.Success(w, http.StatusOK, "Logged out successfully", nil)
}

func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	flow := r.URL.Query().Get("redirect")
	if flow == "" {
		flow = "login"
	}
	state, err := GenerateState(map[string]string{"flow": flow})
	if err != nil {
		utils.Fail(w, http.StatusInternalServerError, "Failed to generate OAuth state")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/api/v1/auth/google",
		MaxAge:   int(oauthStateTTL.Seconds()),
		Secure:   h.production,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.oauth.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	state := r.FormValue("state")
	if err := VerifyState(r, state); err != nil {
		utils.Fail(w, http.StatusBadRequest, "Invalid OAuth state")
		return
	}
	stateData, err := DecodeState(state)
	if err != nil {
		utils.Fail(w, http.StatusBadRequest, "Invalid OAuth state")
		return
	}
	flow := stateData["flow"]

	ctx := r.Context()
	token, err := h.oauth.Exchange(ctx, r.FormValue("code"))
	if err != nil {
		h.log.Warn().Err(err).Msg("google code exchange failed")
		utils.Fail(w, http.StatusInternalServerError, "Code exchange failed")
		return
	}
	googleUser, err := h.fetchGoogleUser(ctx, token)
	if err != nil {
		h.log.Warn().Err(err).Msg("google user info failed")
		utils.Fail(w, http.StatusInternalServerError, "Failed to get user info")
		return
	}

	user, err := h.users.FindByEmail(ctx, googleUser.Email)
	switch flow {
	case "register":
		if err == nil {
			http.Redirect(w, r, h.frontendURL+"/login?error=user_already_exists", http.StatusTemporaryRedirect)
			return
		} else if !errors.Is(err, repositories.ErrUserNotFound) {
			utils.Fail(w, http.StatusInternalServerError, "Database error")
			return
		}
		user = &models.User{Username: googleUser.Name, Email: googleUser.Email}
		if err := h.users.Create(ctx, user); err != nil {
			h.log.Error().Err(err).Msg("user insert failed")
			utils.Fail(w, http.StatusInternalServerError, "Failed to create user")
			return
		}
	default:
		if errors.Is(err, repositories.ErrUserNotFound) {
			http.Redirect(w, r, h.frontendURL+"/register?error=user_not_found", http.StatusTemporaryRedirect)
			return
		} else if err != nil {
			utils.Fail(w, http.StatusInternalServerError, "Database error")
			return
		}
	}

	jwtToken, err := h.issueToken(user)
	if err != nil {
		utils.Fail(w, http.StatusInternalServerError, "Failed to create JWT")
		return
	}
	h.setSessionCookie(w, jwtToken, int(sessionTTL.Seconds()))

	status := "success_login"
	if flow == "register" {
		status = "success_register"
	}
	http.Redirect(w, r, h.frontendURL+"/share/send?status="+status, http.StatusTemporaryRedirect)
}

type googleUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (h *AuthHandler) fetchGoogleUser(ctx context.Context, token *oauth2.Token) (*googleUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, services.GoogleUserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned %s", resp.Status)
	}
	var u googleUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	if u.Email == "" {
		return nil, errors.New("userinfo has no email")
	}
	return &u, nil
}

func (h *AuthHandler) issueToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.secret))
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, value string, maxAge int) {
	sameSite := http.SameSiteLaxMode
	if h.production {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   h.production,
		HttpOnly: true,
		SameSite: sameSite,
	})
}
