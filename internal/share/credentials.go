package share

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/rohits-web03/sharegate/internal/models"
)

// DefaultBcryptCost is the work factor for share passwords (2^12 rounds).
const DefaultBcryptCost = 12

// accessCodeAlphabet omits I, O, 0 and 1 so codes survive being read aloud.
const accessCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

type BcryptHasher struct {
	Cost int
}

func NewBcryptHasher(cost int) BcryptHasher {
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	return BcryptHasher{Cost: cost}
}

func (h BcryptHasher) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.Cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (h BcryptHasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// CredentialVerifier checks caller-supplied credentials against a record.
type CredentialVerifier struct {
	hasher PasswordHasher
}

func NewCredentialVerifier(hasher PasswordHasher) CredentialVerifier {
	return CredentialVerifier{hasher: hasher}
}

// CheckAccessCode returns "" when the code is acceptable for rec.
func (v CredentialVerifier) CheckAccessCode(rec *models.ShareRecord, supplied string) DenyReason {
	if !rec.HasAccessCode() {
		return ""
	}
	supplied = strings.TrimSpace(supplied)
	if supplied == "" {
		return DenyAccessCodeRequired
	}
	if !AccessCodesEqual(rec.AccessCode, supplied) {
		return DenyAccessCodeInvalid
	}
	return ""
}

// CheckPassword returns "" when the password is acceptable for rec.
func (v CredentialVerifier) CheckPassword(rec *models.ShareRecord, supplied string) DenyReason {
	if !rec.PasswordProtected() {
		return ""
	}
	if supplied == "" {
		return DenyPasswordRequired
	}
	if !v.hasher.Verify(supplied, rec.PasswordHash) {
		return DenyPasswordInvalid
	}
	return ""
}

// AccessCodesEqual compares two codes case-insensitively in constant time.
func AccessCodesEqual(stored, supplied string) bool {
	a := strings.ToUpper(strings.TrimSpace(stored))
	b := strings.ToUpper(strings.TrimSpace(supplied))
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// GenerateAccessCode returns a random code of n characters from accessCodeAlphabet.
func GenerateAccessCode(n int) (string, error) {
	max := big.NewInt(int64(len(accessCodeAlphabet)))
	var sb strings.Builder
	sb.Grow(n)
	for range n {
		i, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate access code: %w", err)
		}
		sb.WriteByte(accessCodeAlphabet[i.Int64()])
	}
	return sb.String(), nil
}

// NormalizeAccessCode upper-cases an owner-supplied code and checks its shape.
func NormalizeAccessCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) < 4 || len(code) > 16 {
		return "", invalid("accessCode", "must be 4 to 16 characters")
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "", invalid("accessCode", "must be alphanumeric")
		}
	}
	return code, nil
}
