package app

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/filmchain/track-shorts/internal/auth"
	"github.com/filmchain/track-shorts/internal/config"
	"github.com/filmchain/track-shorts/internal/handlers"
	handler_analytics "github.com/filmchain/track-shorts/internal/handlers/analytics"
	"github.com/filmchain/track-shorts/internal/middlewares"
	"github.com/filmchain/track-shorts/internal/services"
	"github.com/filmchain/track-shorts/internal/store"
	"github.com/filmchain/track-shorts/internal/store/analytics"
	"github.com/filmchain/track-shorts/internal/youtube"
	"github.com/filmchain/track-shorts/migrations"
)

type Application struct {
	Config                *config.Config
	Logger                *zap.Logger
	Oauth                 *auth.GoogleOauth
	SessionStore          *sessions.CookieStore
	MiddlewareHandler     *middlewares.MiddlewareHandler
	UserHandler           *handlers.UserHandler
	ShortsHandler         *handlers.ShortsHandler
	VoteHandler           *handlers.VoteHandler
	AnalyticsShortHandler *handler_analytics.AnalyticsShortHandler
	Refresher             *services.Refresher

	db          *sql.DB
	chConn      driver.Conn
	redisClient *redis.Client
}

func NewApplication(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Application, error) {
	app := &Application{
		Config: cfg,
		Logger: logger,
	}

	pgDB, err := store.ConnectPGDB(ctx, cfg.DBURL, cfg.DBRetries, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	app.db = pgDB

	if err := store.MigrateFS(pgDB, migrations.FS, "."); err != nil {
		app.Close()
		return nil, fmt.Errorf("postgres migration failed: %w", err)
	}
	logger.Info("database migrated")

	var snapshotStore analytics.SnapshotStore = analytics.NoopSnapshotStore{}
	if cfg.ClickhouseEnabled() {
		chCfg := store.ClickhouseConfig{
			Addr:     cfg.ClickhouseURL,
			Database: cfg.ClickhouseDatabase,
			Username: cfg.ClickhouseUsername,
			Password: cfg.ClickhousePassword,
		}

		chConn, err := store.ConnectClickhouse(ctx, chCfg, cfg.DBRetries, logger)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
		}
		app.chConn = chConn

		if err := store.MigrateClickhouse(chCfg, migrations.FS, "analytics"); err != nil {
			app.Close()
			return nil, fmt.Errorf("clickhouse migration failed: %w", err)
		}
		snapshotStore = analytics.NewClickhouseSnapshotStore(chConn)
	} else {
		logger.Warn("CLICKHOUSE_URL not set, view history is disabled")
	}

	// a nil interface, not a nil *RedisLocker, keeps the refresher unlocked
	var locker store.Locker
	if cfg.RedisURL != "" {
		redisClient, err := store.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.redisClient = redisClient
		locker = store.NewRedisLocker(redisClient, lockOwner())
	}

	ytClient, err := youtube.NewClient(cfg.YoutubeBaseURL, cfg.YoutubeAPIKey, cfg.YoutubeTimeout)
	if err != nil {
		app.Close()
		return nil, err
	}

	shortStore := store.NewPostgresShortStore(pgDB)
	voteStore := store.NewPostgresVoteStore(pgDB)
	userStore := store.NewPostgresUserStore(pgDB)

	shortsService := services.NewShortsService(shortStore, ytClient, snapshotStore, cfg.RequiredHashtag, logger)
	refresher := services.NewRefresher(shortStore, ytClient, snapshotStore, locker, cfg.RefreshLockTTL, logger)

	secret := cfg.JWTSecret
	if secret == "" {
		logger.Warn("JWT_SECRET not set, using a random secret; tokens will not survive a restart")
		secret = hex.EncodeToString(securecookie.GenerateRandomKey(32))
	}
	tokens, err := auth.NewTokenService(secret)
	if err != nil {
		app.Close()
		return nil, err
	}
	accounts := auth.NewAccounts(userStore, tokens, auth.NewPasswordService(), logger)

	sessionStore := newSessionStore(cfg)
	oauth := auth.NewGoogleOauth(auth.GoogleConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	}, sessionStore, accounts, logger)

	app.Oauth = oauth
	app.SessionStore = sessionStore
	app.MiddlewareHandler = middlewares.NewMiddlewareHandler(logger, accounts)
	app.UserHandler = handlers.NewUserHandler(accounts, logger)
	app.ShortsHandler = handlers.NewShortsHandler(shortsService, refresher, logger)
	app.VoteHandler = handlers.NewVoteHandler(voteStore, logger)
	app.AnalyticsShortHandler = handler_analytics.NewAnalyticsShortHandler(shortsService, logger)
	app.Refresher = refresher

	return app, nil
}

func newSessionStore(cfg *config.Config) *sessions.CookieStore {
	var sessionStore *sessions.CookieStore
	if cfg.SessionKey != "" {
		sessionStore = sessions.NewCookieStore([]byte(cfg.SessionKey))
	} else {
		sessionStore = sessions.NewCookieStore(securecookie.GenerateRandomKey(64), securecookie.GenerateRandomKey(32))
	}

	options := &sessions.Options{
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
	}
	if cfg.IsProduction() {
		options.Secure = true
		options.SameSite = http.SameSiteNoneMode
	} else {
		options.Secure = false
		options.SameSite = http.SameSiteLaxMode
	}
	sessionStore.Options = options

	return sessionStore
}

// lockOwner identifies this process as the holder of the refresh lock.
func lockOwner() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return host + ":" + uuid.NewString()
}

// Close releases every connection the application opened.
func (a *Application) Close() error {
	var errs []error
	if a.redisClient != nil {
		errs = append(errs, a.redisClient.Close())
	}
	if a.chConn != nil {
		errs = append(errs, a.chConn.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
