package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/filmchain/track-shorts/internal/app"
	"github.com/filmchain/track-shorts/internal/middlewares"
	"github.com/filmchain/track-shorts/internal/utils"
)

func SetupRoutes(app *app.Application) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(httprate.LimitAll(200, time.Minute))
	r.Use(app.MiddlewareHandler.RequestLogger)
	r.Use(app.MiddlewareHandler.Security)
	r.Use(middlewares.Cors(app.Config.Origins()))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, utils.Envelope{"status": "ok"})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Use(httprate.LimitByIP(100, time.Minute))

		r.Post("/signup", app.UserHandler.HandlerSignup)
		r.Post("/login", app.UserHandler.HandlerLogin)
		r.Get("/google/login", app.Oauth.Login)
		r.Get("/google/callback", app.Oauth.Callback)

		r.With(app.MiddlewareHandler.Authenticate).Get("/me", app.UserHandler.HandlerMe)
	})

	r.Route("/shorts", func(r chi.Router) {
		r.With(app.MiddlewareHandler.OptionalAuthenticate).Post("/", app.ShortsHandler.HandlerCreateShort)

		r.Get("/compare", app.ShortsHandler.HandlerCompareHashtags)
		r.Get("/by-hashtag", app.ShortsHandler.HandlerListByHashtag)

		r.Get("/votes", app.VoteHandler.HandlerGetVotes)
		r.Post("/vote", app.VoteHandler.HandlerUpvote)
		r.Delete("/vote", app.VoteHandler.HandlerDownvote)

		r.Route("/{video_id}", func(r chi.Router) {
			r.Get("/", app.ShortsHandler.HandlerGetShort)
			r.Put("/refresh", app.ShortsHandler.HandlerRefreshShort)
			r.Get("/history", app.AnalyticsShortHandler.HandlerGetShortHistory)
		})
	})

	return r
}
