package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/api/option"

	"github.com/lulus/backend/internal/models"
)

type contextKey string

const (
	UserIDKey      contextKey = "userID"
	UserEmailKey   contextKey = "userEmail"
	DisplayNameKey contextKey = "displayName"
	IsAdminKey     contextKey = "isAdmin"
)

type FirebaseAuthConfig struct {
	ProjectID       string
	CredentialsJSON string
}

// NewFirebaseAuthClient initializes the Firebase Admin SDK for server-side
// ID token verification. Returns nil when no credentials are configured so
// the caller can fall back to local JWT auth.
func NewFirebaseAuthClient(ctx context.Context, cfg FirebaseAuthConfig) (*fbauth.Client, error) {
	if cfg.CredentialsJSON == "" {
		return nil, nil
	}

	app, err := firebase.NewApp(
		ctx,
		&firebase.Config{ProjectID: cfg.ProjectID},
		option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)),
	)
	if err != nil {
		return nil, err
	}
	return app.Auth(ctx)
}

// Auth validates the bearer token (Firebase ID token when a client is
// configured, local HS256 JWT otherwise) and stores the user identity in
// the request context. Requests without a valid token are rejected.
func Auth(authClient *fbauth.Client, jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearer(r)
			if token == "" {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Authorization header required"))
				return
			}

			ctx, ok := authenticate(r.Context(), authClient, jwtSecret, token)
			if !ok {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Invalid or expired token"))
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth works like Auth but lets anonymous requests through with no
// user in the context. Read-only endpoints use this; mutating handlers
// check GetUserID themselves.
func OptionalAuth(authClient *fbauth.Client, jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := extractBearer(r); token != "" {
				if ctx, ok := authenticate(r.Context(), authClient, jwtSecret, token); ok {
					r = r.WithContext(ctx)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin rejects requests whose token does not carry the admin claim.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdmin(r.Context()) {
			writeJSON(w, http.StatusForbidden, models.NewErrorResponse("Admin access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func authenticate(ctx context.Context, authClient *fbauth.Client, jwtSecret, token string) (context.Context, bool) {
	if authClient != nil {
		decoded, err := authClient.VerifyIDToken(ctx, token)
		if err != nil {
			return ctx, false
		}
		ctx = context.WithValue(ctx, UserIDKey, decoded.UID)
		if email, ok := decoded.Claims["email"].(string); ok {
			ctx = context.WithValue(ctx, UserEmailKey, email)
		}
		if name, ok := decoded.Claims["name"].(string); ok {
			ctx = context.WithValue(ctx, DisplayNameKey, name)
		}
		if admin, ok := decoded.Claims["admin"].(bool); ok && admin {
			ctx = context.WithValue(ctx, IsAdminKey, true)
		}
		return ctx, true
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil || !parsed.Valid {
		return ctx, false
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return ctx, false
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return ctx, false
	}

	ctx = context.WithValue(ctx, UserIDKey, userID)
	if email, ok := claims["email"].(string); ok {
		ctx = context.WithValue(ctx, UserEmailKey, email)
	}
	if name, ok := claims["name"].(string); ok {
		ctx = context.WithValue(ctx, DisplayNameKey, name)
	}
	if admin, ok := claims["is_admin"].(bool); ok && admin {
		ctx = context.WithValue(ctx, IsAdminKey, true)
	}
	return ctx, true
}

func extractBearer(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// GetUserID extracts the user id from context; empty means anonymous.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

func GetUserEmail(ctx context.Context) string {
	email, _ := ctx.Value(UserEmailKey).(string)
	return email
}

func GetDisplayName(ctx context.Context) string {
	name, _ := ctx.Value(DisplayNameKey).(string)
	return name
}

func IsAdmin(ctx context.Context) bool {
	admin, _ := ctx.Value(IsAdminKey).(bool)
	return admin
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
