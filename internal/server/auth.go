package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt"

	"github.com/hyperjump/recall/internal/apperr"
	"github.com/hyperjump/recall/internal/config"
)

// AdminKeyHeader carries the admin key that lets a caller act for any user.
const AdminKeyHeader = "X-Admin-Key"

type ctxKey int

const principalKey ctxKey = iota

// principal is the authenticated caller. An admin or unauthenticated caller
// takes the user from the request; otherwise UserID is fixed by the token.
type principal struct {
	UserID      string
	ActAsAnyone bool
}

type authenticator struct {
	disabled bool
	secret   []byte
	adminKey string
}

func newAuthenticator(cfg config.AuthConfig) *authenticator {
	return &authenticator{
		disabled: cfg.Disabled,
		secret:   []byte(cfg.JWTSecret),
		adminKey: cfg.AdminKey,
	}
}

// middleware rejects requests without valid credentials with 401.
func (a *authenticator) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := a.authenticate(r)
		if err != nil {
			respondJSON(w, http.StatusUnauthorized, map[string]string{"error": apperr.PublicMessage(err)})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey, p)))
	})
}

func (a *authenticator) authenticate(r *http.Request) (principal, error) {
	if a.disabled {
		return principal{ActAsAnyone: true}, nil
	}
	if key := r.Header.Get(AdminKeyHeader); key != "" {
		if a.adminKey != "" && subtle.ConstantTimeCompare([]byte(key), []byte(a.adminKey)) == 1 {
			return principal{ActAsAnyone: true}, nil
		}
		return principal{}, apperr.Authf("invalid admin key")
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		return principal{}, apperr.Authf("missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return principal{}, apperr.Authf("malformed authorization header")
	}
	userID, err := a.parseToken(parts[1])
	if err != nil {
		return principal{}, apperr.New(apperr.Auth, "", errors.New("invalid token"))
	}
	return principal{UserID: userID}, nil
}

func (a *authenticator) parseToken(raw string) (string, error) {
	if len(a.secret) == 0 {
		return "", errors.New("no signing secret configured")
	}
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid claims")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", errors.New("token has no subject")
	}
	return sub, nil
}

// resolveUser picks the effective user for a request. Token holders always act
// as themselves; admins and unauthenticated deployments use requested.
func resolveUser(ctx context.Context, requested string) (string, error) {
	p, _ := ctx.Value(principalKey).(principal)
	if !p.ActAsAnyone {
		if p.UserID == "" {
			return "", apperr.Authf("not authenticated")
		}
		return p.UserID, nil
	}
	if requested == "" {
		return "", apperr.Validationf("userId is required")
	}
	return requested, nil
}
