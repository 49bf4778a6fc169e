package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ms-backoffice/internal/apperr"
	"ms-backoffice/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 operator tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration, issuer string) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, issuer: issuer, now: time.Now}
}

func (t *Tokens) Issue(op *models.Operator) (string, *Claims, error) {
	now := t.now()
	claims := &Claims{
		Name:  op.Name,
		Email: op.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(op.ID, 10),
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// Parse verifies signature, issuer and expiry.
func (t *Tokens) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, apperr.Unauthorized("invalid token: " + err.Error())
	}
	return claims, nil
}

// ToOperator converts verified claims into the context value.
func (c *Claims) ToOperator() (Operator, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return Operator{}, apperr.Unauthorized("invalid token subject")
	}
	op := Operator{ID: id, Name: c.Name, Email: c.Email, TokenID: c.ID}
	if c.ExpiresAt != nil {
		op.ExpiresAt = c.ExpiresAt.Unix()
	}
	return op, nil
}

// ExtractTokenFromRequest reads "Authorization: Bearer <token>".
func ExtractTokenFromRequest(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header is missing")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("authorization header format must be 'Bearer {token}'")
	}
	return parts[1], nil
}
