// Package bootstrap builds the process-wide object graph from config: the
// store, cache, storage disk, event bus, live feed and services.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shashiranjanraj/kabadi/app/controllers"
	"github.com/shashiranjanraj/kabadi/app/listeners"
	"github.com/shashiranjanraj/kabadi/app/repositories"
	"github.com/shashiranjanraj/kabadi/app/routes"
	"github.com/shashiranjanraj/kabadi/app/services"
	"github.com/shashiranjanraj/kabadi/config"
	"github.com/shashiranjanraj/kabadi/pkg/auth"
	"github.com/shashiranjanraj/kabadi/pkg/cache"
	"github.com/shashiranjanraj/kabadi/pkg/database"
	"github.com/shashiranjanraj/kabadi/pkg/event"
	"github.com/shashiranjanraj/kabadi/pkg/logger"
	"github.com/shashiranjanraj/kabadi/pkg/storage"
	"github.com/shashiranjanraj/kabadi/pkg/ws"
)

// Deps are the infrastructure handles the services run on.
type Deps struct {
	Store  repositories.Store
	Disk   storage.Disk
	Cache  cache.Cache
	Issuer *auth.Issuer

	CacheTTL       time.Duration
	AllowAdmin     bool
	OwnershipCheck bool
	MaxUploadBytes int64
	FeedOrigins    []string
}

// App is the assembled application.
type App struct {
	Deps

	Mongo *database.Mongo
	Bus   *event.Bus
	Hub   *ws.Hub

	Auth       *services.AuthService
	Items      *services.ItemService
	Orders     *services.OrderService
	Deliveries *services.DeliveryService

	closers []func(ctx context.Context) error
}

// Assemble wires services, listeners and the live feed on top of d.
func Assemble(d Deps) *App {
	if d.Cache == nil {
		d.Cache = cache.Nop{}
	}
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = 10 << 20
	}

	a := &App{
		Deps: d,
		Bus:  event.NewBus(),
		Hub:  ws.NewHub(ws.AllowOrigins(d.FeedOrigins)),
	}
	a.Auth = services.NewAuthService(d.Store, d.Issuer, d.AllowAdmin)
	a.Items = services.NewItemService(d.Store, d.Disk, d.Cache, d.CacheTTL)
	a.Orders = services.NewOrderService(d.Store, a.Bus)
	a.Deliveries = services.NewDeliveryService(d.Store, a.Bus, d.OwnershipCheck)

	listeners.Register(a.Bus, a.Hub, a.Items)
	return a
}

// Open connects the backends named by config and assembles the App. The
// caller must Close it.
func Open(ctx context.Context) (a *App, err error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := config.CheckSecrets(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	var closers []func(context.Context) error
	defer func() {
		if err != nil {
			runClosers(ctx, closers)
		}
	}()

	d := Deps{
		Issuer:         auth.NewIssuer(config.JWTSecret(), config.JWTTTL()),
		CacheTTL:       config.CacheTTL(),
		AllowAdmin:     config.AllowAdminRegistration(),
		OwnershipCheck: config.DeliveryOwnershipCheck(),
		MaxUploadBytes: config.MaxUploadBytes(),
		FeedOrigins:    config.CORSOrigins(),
	}

	var mg *database.Mongo
	switch config.DatabaseDriver() {
	case "memory":
		logger.Warn("bootstrap: using the in-memory store; data is lost on exit")
		d.Store = repositories.NewMemoryStore()
	default:
		mg, err = database.Connect(ctx, config.MongoURI(), config.MongoDatabase())
		if err != nil {
			return nil, err
		}
		closers = append(closers, mg.Close)
		d.Store = repositories.NewMongoStore(mg.DB, config.MongoTransactions())

		if config.LogToMongo() {
			col := mg.Collection(config.LogCollection())
			if err := logger.EnsureLogIndexes(ctx, col); err != nil {
				logger.Warn("bootstrap: log index", "error", err)
			}
			h := logger.NewMongoHandler(col, slog.LevelInfo)
			logger.Use(h)
			// closers run in reverse, so this flushes before the client disconnects
			closers = append(closers, func(context.Context) error {
				h.Close()
				return nil
			})
		}
	}

	d.Cache = cache.Nop{}
	if config.CacheEnabled() {
		rdb, err := cache.Connect(ctx, config.RedisAddr(), config.RedisPassword())
		if err != nil {
			logger.Warn("bootstrap: redis unavailable, listing cache disabled", "error", err)
		} else {
			closers = append(closers, func(context.Context) error { return rdb.Close() })
			d.Cache = cache.NewRedis(rdb, "kabadi:")
		}
	}

	d.Disk, err = storage.Open(ctx)
	if err != nil {
		return nil, err
	}
	if c, ok := d.Disk.(io.Closer); ok {
		closers = append(closers, func(context.Context) error { return c.Close() })
	}

	a = Assemble(d)
	a.Mongo = mg
	a.closers = closers
	logger.Info("bootstrap: ready",
		"store", config.DatabaseDriver(),
		"transactions", d.Store.Transactional(),
		"disk", config.StorageDefault(),
		"cache", config.CacheEnabled(),
	)
	return a, nil
}

// OpenStore connects only the store, for commands that need nothing else.
func OpenStore(ctx context.Context) (repositories.Store, *database.Mongo, error) {
	if err := config.Load(); err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	if config.DatabaseDriver() == "memory" {
		return repositories.NewMemoryStore(), nil, nil
	}
	mg, err := database.Connect(ctx, config.MongoURI(), config.MongoDatabase())
	if err != nil {
		return nil, nil, err
	}
	return repositories.NewMongoStore(mg.DB, config.MongoTransactions()), mg, nil
}

// API returns the controllers for the route table.
func (a *App) API() routes.API {
	return routes.API{
		Issuer:     a.Issuer,
		Auth:       controllers.NewAuthController(a.Auth),
		Items:      controllers.NewItemController(a.Items, a.MaxUploadBytes),
		Orders:     controllers.NewOrderController(a.Orders),
		Deliveries: controllers.NewDeliveryController(a.Deliveries),
		Feed:       a.Hub,
	}
}

// Close releases every backend in reverse order of opening.
func (a *App) Close(ctx context.Context) {
	a.Bus.Wait()
	runClosers(ctx, a.closers)
}

func runClosers(ctx context.Context, closers []func(context.Context) error) {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](ctx); err != nil {
			logger.Warn("bootstrap: close", "error", err)
		}
	}
}
