package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"taskmanager/internal/core/domain"
	"taskmanager/internal/core/port"
)

const (
	CookieName = "token"
	DefaultTTL = 7 * 24 * time.Hour
)

var ErrInvalidToken = fmt.Errorf("%w: invalid session token", domain.ErrUnauthenticated)

type Claims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

type JWT struct {
	Secret string
	TTL    time.Duration
	Issuer string
	now    func() time.Time
}

func NewJWT(secret string, ttl time.Duration) *JWT {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &JWT{Secret: secret, TTL: ttl, Issuer: "taskmanager", now: time.Now}
}

var _ port.IdentityProvider = (*JWT)(nil)

func (j *JWT) IssueSession(user domain.User) (string, error) {
	if j.Secret == "" {
		return "", fmt.Errorf("%w: signing secret is not configured", domain.ErrIdentityProvider)
	}

	principal := user.Principal()
	now := j.now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: principal.UserID,
		Name:   principal.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.Issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.TTL)),
		},
	})

	signed, err := token.SignedString([]byte(j.Secret))

	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrIdentityProvider, err)
	}

	return signed, nil
}

func (j *JWT) VerifySession(tokenString string) (domain.Principal, error) {
	if tokenString == "" {
		return domain.Principal{}, domain.ErrUnauthenticated
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}

		return []byte(j.Secret), nil
	}, jwt.WithTimeFunc(j.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Principal{}, fmt.Errorf("%w: %w", ErrInvalidToken, jwt.ErrTokenExpired)
		}

		return domain.Principal{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)

	if !ok || !token.Valid || claims.UserID == "" {
		return domain.Principal{}, ErrInvalidToken
	}

	return domain.Principal{UserID: claims.UserID, Name: claims.Name}, nil
}

// TokensFromRequest returns the session cookie and then the
// "Authorization: Bearer" token, skipping whichever is absent.
func TokensFromRequest(r *http.Request) []string {
	var tokens []string

	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		tokens = append(tokens, cookie.Value)
	}

	bearer := r.Header.Get("Authorization")

	if token, ok := strings.CutPrefix(bearer, "Bearer "); ok {
		if token = strings.TrimSpace(token); token != "" {
			tokens = append(tokens, token)
		}
	}

	return tokens
}
