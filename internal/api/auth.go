package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	userIDKey  contextKey = "user_id"
	isAdminKey contextKey = "is_admin"
)

var (
	errMissingToken = errors.New("missing bearer token")
	errInvalidToken = errors.New("invalid or expired token")
)

// Claims are the bearer token claims. Subject carries the user id.
type Claims struct {
	Admin bool `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator verifies HS256 bearer tokens.
type Authenticator struct {
	secret []byte
	admins map[int64]bool
}

// NewAuthenticator creates an Authenticator. Users in adminIDs are admins
// whatever their token says.
func NewAuthenticator(secret string, adminIDs []int64) *Authenticator {
	admins := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}
	return &Authenticator{secret: []byte(secret), admins: admins}
}

// Issue signs a token for userID that expires after ttl.
func (a *Authenticator) Issue(userID int64, admin bool, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Admin: admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("can not sign jwt: %w", err)
	}
	return token, nil
}

// Verify parses a token and returns the user id and admin flag.
func (a *Authenticator) Verify(token string) (int64, bool, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, false, fmt.Errorf("%w: %w", errInvalidToken, err)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, false, fmt.Errorf("%w: bad subject %q", errInvalidToken, claims.Subject)
	}
	return userID, claims.Admin || a.admins[userID], nil
}

// bearerToken reads the Authorization header. Browsers cannot set headers
// on websocket requests, so allowQuery also accepts ?token=.
func bearerToken(r *http.Request, allowQuery bool) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if allowQuery {
		return r.URL.Query().Get("token")
	}
	return ""
}

func (a *Authenticator) middleware(allowQuery bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r, allowQuery)
			if token == "" {
				writeError(w, r, errMissingToken)
				return
			}
			userID, admin, err := a.Verify(token)
			if err != nil {
				writeError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			ctx = context.WithValue(ctx, isAdminKey, admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Middleware requires a valid bearer token.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return a.middleware(false)(next)
}

// RequireAdmin rejects authenticated callers without the admin flag.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdmin(r.Context()) {
			writeError(w, r, errForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UserID returns the authenticated user id, or 0.
func UserID(ctx context.Context) int64 {
	id, _ := ctx.Value(userIDKey).(int64)
	return id
}

// IsAdmin reports whether the authenticated caller is an admin.
func IsAdmin(ctx context.Context) bool {
	admin, _ := ctx.Value(isAdminKey).(bool)
	return admin
}
