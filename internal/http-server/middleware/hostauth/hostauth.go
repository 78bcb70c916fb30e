// Package hostauth is the thin identity layer in front of host-owned routes.
// It only establishes WHO the host is; ownership of individual resources is
// checked in the service.
package hostauth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"slotly-service/pkg/response"

	"github.com/go-chi/render"
	"github.com/golang-jwt/jwt/v5"
)

type ctxKey string

const ctxHostID ctxKey = "host_id"

const tokenTTL = 30 * 24 * time.Hour

type Auth struct {
	secret []byte
}

func New(secret string) *Auth {
	return &Auth{secret: []byte(secret)}
}

func (a *Auth) Issue(hostID string) (string, error) {
	const op = "hostauth.Issue"

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   hostID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})

	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

func (a *Auth) parse(raw string) (string, error) {
	const op = "hostauth.parse"

	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", fmt.Errorf("%s: missing subject", op)
	}

	return claims.Subject, nil
}

func (a *Auth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		if !strings.HasPrefix(authz, "Bearer ") {
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error(string(response.UNAUTHORIZED), "missing bearer token"))
			return
		}

		hostID, err := a.parse(strings.TrimPrefix(authz, "Bearer "))
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error(string(response.UNAUTHORIZED), "invalid token"))
			return
		}

		ctx := context.WithValue(r.Context(), ctxHostID, hostID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// HostID returns the authenticated host, or "" outside Require.
func HostID(r *http.Request) string {
	v := r.Context().Value(ctxHostID)
	if v == nil {
		return ""
	}
	return v.(string)
}
