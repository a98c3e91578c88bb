package kernel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shashiranjanraj/parcelhub/app/repositories"
	"github.com/shashiranjanraj/parcelhub/app/repositories/memory"
	"github.com/shashiranjanraj/parcelhub/app/services"
	"github.com/shashiranjanraj/parcelhub/config"
	"github.com/shashiranjanraj/parcelhub/internal/gateway"
	"github.com/shashiranjanraj/parcelhub/pkg/auth"
	"github.com/shashiranjanraj/parcelhub/pkg/cache"
	"github.com/shashiranjanraj/parcelhub/pkg/database"
	"github.com/shashiranjanraj/parcelhub/pkg/event"
	"github.com/shashiranjanraj/parcelhub/pkg/logger"
	"github.com/shashiranjanraj/parcelhub/pkg/middleware"
	"github.com/shashiranjanraj/parcelhub/pkg/ws"
)

// Store drivers.
const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

// App is a booted application.
type App struct {
	Kernel  *HTTPKernel
	Hub     *ws.Hub
	Limiter *middleware.RateLimiter
	DB      *database.DB // nil on the memory driver

	closers []func(context.Context) error
}

// Close releases the stores in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OpenDB connects to the configured MongoDB database.
func OpenDB(ctx context.Context) (*database.DB, error) {
	return database.Connect(ctx, config.MongoURI(), config.MongoDatabase())
}

// Boot builds the application from configuration. driver overrides
// STORE_DRIVER when non-empty.
func Boot(ctx context.Context, driver string) (*App, error) {
	if driver == "" {
		driver = config.StoreDriver()
	}
	app := &App{}

	var repos repositories.Set
	switch driver {
	case DriverMongo:
		db, err := OpenDB(ctx)
		if err != nil {
			return nil, err
		}
		app.DB = db
		app.closers = append(app.closers, db.Close)
		repos = repositories.NewMongo(db)

		if config.LogToMongo() {
			mh := logger.NewMongoHandler(db.Collection(database.Logs), logger.ParseLevel(config.LogLevel()))
			logger.SetHandler(logger.NewMultiHandler(
				logger.NewHandler(os.Stdout, config.AppEnv(), config.LogLevel()),
				mh,
			))
			app.closers = append(app.closers, func(context.Context) error {
				mh.Close()
				return nil
			})
		}
	case DriverMemory:
		logger.Warn("using in-memory store; data is lost on exit")
		repos = memory.New().Set()
	default:
		return nil, fmt.Errorf("kernel: unknown store driver %q", driver)
	}

	verifier, err := buildVerifier(ctx, app)
	if err != nil {
		_ = app.Close(ctx)
		return nil, err
	}

	if err := middleware.SetTrustedProxies(config.TrustedProxies()); err != nil {
		_ = app.Close(ctx)
		return nil, err
	}

	app.Hub = ws.NewHub()
	app.Limiter = middleware.NewRateLimiter(config.RateLimitRPS(), config.RateLimitBurst())

	svc := services.New(repos, services.Config{
		Gateway:  gateway.New(config.StripeSecretKey()),
		Currency: config.PaymentCurrency(),
		Bus:      event.NewBus(),
		Live:     app.Hub,
	})

	deps := Deps{
		Services:    svc,
		Hub:         app.Hub,
		Verifier:    verifier,
		Limiter:     app.Limiter,
		CORSOrigins: config.CORSAllowedOrigins(),
	}
	if app.DB != nil {
		deps.Store = app.DB
	}
	app.Kernel = NewHTTPKernel(deps)
	return app, nil
}

// buildVerifier picks the identity provider key set when configured, the
// shared secret otherwise, and puts the Redis claims cache in front.
func buildVerifier(ctx context.Context, app *App) (auth.Verifier, error) {
	var v auth.Verifier
	switch {
	case config.AuthKeysURL() != "":
		v = auth.NewKeySetVerifier(config.AuthKeysURL(), config.AuthIssuer(), config.AuthAudience())
	case config.AuthSecret() != "":
		logger.Warn("verifying tokens with the shared secret")
		v = auth.NewSecretVerifier(config.AuthSecret(), config.AuthIssuer(), config.AuthAudience())
	default:
		return nil, errors.New("kernel: AUTH_KEYS_URL or AUTH_SECRET must be set")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	store, err := cache.Connect(pingCtx, config.RedisAddr(), config.RedisPassword(), "parcelhub:")
	if err != nil {
		logger.Warn("claims cache disabled", slog.String("error", err.Error()))
		return v, nil
	}
	app.closers = append(app.closers, func(context.Context) error { return store.Close() })
	return auth.NewCachedVerifier(v, store, config.AuthCacheTTL()), nil
}
