package middlewares

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/filmchain/track-shorts/internal/apperror"
	"github.com/filmchain/track-shorts/internal/models"
	"github.com/filmchain/track-shorts/internal/utils"
)

type contextKey string

const UserContextKey contextKey = "user"

// Authenticator resolves a bearer token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

type MiddlewareHandler struct {
	Logger *zap.Logger
	Auth   Authenticator
}

func NewMiddlewareHandler(logger *zap.Logger, auth Authenticator) *MiddlewareHandler {
	return &MiddlewareHandler{
		Logger: logger,
		Auth:   auth,
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// OptionalAuthenticate attaches the user when a valid bearer token is sent.
// Missing or invalid tokens leave the request anonymous.
func (mh *MiddlewareHandler) OptionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		user, err := mh.Auth.Authenticate(r.Context(), token)
		if err != nil {
			mh.Logger.Debug("ignoring invalid bearer token", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (mh *MiddlewareHandler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			w.Header().Set("WWW-Authenticate", "Bearer")
			utils.WriteError(w, http.StatusUnauthorized, apperror.Unauthorized("Not authenticated"))
			return
		}

		user, err := mh.Auth.Authenticate(r.Context(), token)
		if err != nil {
			status := utils.ErrorStatus(err)
			if status == http.StatusInternalServerError {
				mh.Logger.Error("failed to authenticate request", zap.Error(err))
			}
			w.Header().Set("WWW-Authenticate", "Bearer")
			utils.WriteError(w, status, err)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (mh *MiddlewareHandler) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			mh.Logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("origin", r.Header.Get("Origin")),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func (mh *MiddlewareHandler) Security(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

// Cors allows the configured browser origins. With no origins configured
// every origin is allowed without credentials.
func Cors(origins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With"},
		ExposedHeaders:   []string{"Authorization"},
		AllowCredentials: len(origins) > 0,
		MaxAge:           86400,
	}
	if len(origins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return cors.Handler(opts)
}

func GetUserFromContext(r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	return user, ok
}
