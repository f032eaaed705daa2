package app

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/totaltiming/totaltiming/internal/auth"
	"github.com/totaltiming/totaltiming/internal/config"
	"github.com/totaltiming/totaltiming/pkg/user"
)

const userIdHeader = "X-User-Id"

// UserLoader resolves the authenticated uid to a user.
type UserLoader interface {
	GetUserByUid(ctx context.Context, uid string) (user.User, error)
}

// SetupMiddleware wires the middlewares of the authenticated API router.
func SetupMiddleware(api *mux.Router, deps *Dependencies, cfg config.Application) {
	api.Use(AuthMiddleware(deps.AuthTokenValidator, deps.UserService, cfg.Auth.TrustUserHeader))
}

// CorsMiddleware allows browser requests from the configured origins and answers preflight
// requests. It wraps the whole router since mux only runs middlewares for matched routes.
func CorsMiddleware(allowedOrigins []string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			origin := req.Header.Get("Origin")
			if origin != "" && (slices.Contains(allowedOrigins, origin) || slices.Contains(allowedOrigins, "*")) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Accept, "+userIdHeader)
				w.Header().Add("Vary", "Origin")
			}
			if req.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

// AuthMiddleware puts the authenticated user into the request context. The caller is identified
// by the bearer token subject, or by the X-User-Id header when trustUserHeader is set.
func AuthMiddleware(validator *auth.TokenValidator, users UserLoader, trustUserHeader bool) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := req.Context()

			uid := ""
			if trustUserHeader {
				uid = req.Header.Get(userIdHeader)
			}
			if uid == "" {
				token, err := auth.BearerToken(req.Header.Get("Authorization"))
				if err != nil {
					log.Debugf("unauthenticated request to %s", req.URL.Path)
					http.Error(w, err.Error(), http.StatusUnauthorized)
					return
				}
				uid, err = validator.Validate(token)
				if err != nil {
					if errors.Is(err, auth.ErrNoSecret) {
						log.Errorf("cannot validate token: %v", err)
						http.Error(w, err.Error(), http.StatusInternalServerError)
						return
					}
					log.Debugf("rejected token: %v", err)
					http.Error(w, err.Error(), http.StatusUnauthorized)
					return
				}
			}

			u, err := users.GetUserByUid(ctx, uid)
			if err != nil {
				if errors.Is(err, user.ErrUserNotFound) {
					log.Debugf("user not found: %s", uid)
					http.Error(w, "user not found", http.StatusForbidden)
					return
				}
				log.Errorf("failed to get user: %v", err)
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			log.Tracef("authenticated user %d (%s)", u.Id, u.Role)
			next.ServeHTTP(w, req.WithContext(user.WithUser(ctx, u)))
		})
	}
}

// RequireRole rejects requests whose user has none of the given roles.
func RequireRole(roles ...user.Role) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			current, err := user.CurrentUser(req.Context())
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}
			if !current.HasRole(roles...) {
				log.Debugf("user %d with role %s denied %s", current.Id, current.Role, req.URL.Path)
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}
