package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"cheapcart/internal/cart"
	"cheapcart/internal/catalog"
	"cheapcart/internal/config"
	"cheapcart/internal/database"
	"cheapcart/internal/dispatch"
	"cheapcart/internal/geocode"
	"cheapcart/internal/handlers"
	"cheapcart/internal/llm"
	"cheapcart/internal/middleware"
	"cheapcart/internal/relevance"
	"cheapcart/internal/shoppinglist"
	"cheapcart/internal/telemetry"
	"cheapcart/internal/users"
	"cheapcart/internal/wolt"
)

const serviceName = "cheapcart"

func main() {
	config.Load()
	cfg := config.AppEnv
	telemetry.SetupLogging(cfg.LogLevel, cfg.LogPretty)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(serviceName, cfg.TraceStdout)
	if err != nil {
		log.Fatal().Err(err).Msg("tracing setup failed")
	}

	client, err := database.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	db := client.Database(cfg.DBName)
	log.Info().Str("db", db.Name()).Msg("MongoDB connected")

	ensureIndexes(db)

	gen, err := newOracle(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("relevance oracle setup failed")
	}

	httpClient := telemetry.NewHTTPClient(cfg.HTTPTimeout)
	directory := wolt.NewClient(cfg.WoltBaseURL, cfg.WoltCountry, cfg.WoltCurrency, httpClient)
	geocoder := geocode.NewClient(cfg.NominatimURL, httpClient)
	dispatcher := dispatch.New(cfg.MaxConcurrentRequests, cfg.MinTimeBetweenCalls)
	catalogs := catalog.NewCache(catalog.NewMongoRepository(db), cfg.CatalogFreshness)
	builder := cart.NewBuilder(catalogs, relevance.NewResolver(gen), directory, dispatcher)

	var opts []cart.Option
	rdb := newRedis(ctx, cfg)
	if rdb != nil {
		opts = append(opts, cart.WithHotCache(cart.NewRedisCache(rdb)))
	}
	carts := cart.NewService(cart.NewMongoRepository(db), geocoder, directory, catalogs, builder, cfg.CartTTL, opts...)

	lists := shoppinglist.NewService(shoppinglist.NewMongoRepository(db), shoppinglist.NewMongoDishRepository(db))
	userRepo := users.NewMongoRepository(db)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	r.GET("/healthz", handlers.Health(db))
	r.GET("/auth/me", middleware.UserAuth(cfg.JWTSecret), handlers.GetMe(userRepo))
	r.GET("/cart/best", middleware.UserAuth(cfg.JWTSecret), handlers.GetBestCart(carts, lists, userRepo))

	list := r.Group("/shopping-list")
	list.Use(middleware.UserAuth(cfg.JWTSecret))
	{
		list.GET("", handlers.GetShoppingList(lists))
		list.POST("/add", handlers.AddShoppingItem(lists))
		list.PUT("/update-quantity", handlers.UpdateShoppingItemQuantity(lists))
		list.PUT("/replace", handlers.ReplaceShoppingItem(lists))
		list.PUT("/remove", handlers.RemoveShoppingItem(lists))
		list.PUT("/clear", handlers.ClearShoppingList(lists))
		list.POST("/add-dishes", handlers.AddDishesToShoppingList(lists))
		list.PUT("/remove-dish", handlers.RemoveDishFromShoppingList(lists))
	}

	user := r.Group("/user")
	user.Use(middleware.UserAuth(cfg.JWTSecret))
	{
		user.GET("/addresses", handlers.GetUserAddresses(userRepo))
		user.POST("/addresses", handlers.CreateUserAddress(userRepo))
		user.PUT("/addresses/:id", handlers.UpdateUserAddress(userRepo))
		user.DELETE("/addresses/:id", handlers.DeleteUserAddress(userRepo))
	}

	admin := r.Group("/admin/api")
	admin.Use(middleware.AdminAuth(cfg.JWTSecret))
	{
		admin.GET("/me", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": true})
		})
		admin.GET("/stores/:slug/products", handlers.GetStoreProducts(catalogs))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(r, serviceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if closer, ok := gen.(llm.Closer); ok {
		if err := closer.Close(); err != nil {
			log.Warn().Err(err).Msg("oracle close failed")
		}
	}
	if err := client.Disconnect(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("mongo disconnect failed")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("tracer shutdown failed")
	}
}

func ensureIndexes(db *mongo.Database) {
	if err := database.EnsureStoreIndexes(db); err != nil {
		log.Warn().Err(err).Msg("store index warning")
	}
	if err := database.EnsureCartIndexes(db); err != nil {
		log.Warn().Err(err).Msg("cart index warning")
	}
	if err := database.EnsureShoppingListIndexes(db); err != nil {
		log.Warn().Err(err).Msg("shopping list index warning")
	}
}

// newOracle builds the text generator behind product relevance checks.
func newOracle(ctx context.Context, cfg config.Config) (llm.TextGenerator, error) {
	if cfg.OracleProvider == config.ProviderGemini {
		gemini, err := llm.NewGeminiClient(ctx, cfg.GeminiKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return gemini, nil
	}
	oracleClient := telemetry.NewHTTPClient(2 * time.Minute)
	return llm.NewOpenAIClient(cfg.OpenAIBaseURL, cfg.OpenAIKey, cfg.OpenAIModel, oracleClient), nil
}

// newRedis returns nil when no address is configured or the server does not
// answer; carts are then cached in MongoDB only.
func newRedis(ctx context.Context, cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, hot cart cache disabled")
		_ = rdb.Close()
		return nil
	}
	return rdb
}
