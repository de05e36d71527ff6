package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"fridgechef/internal/api"
	"fridgechef/internal/config"
	"fridgechef/internal/kitchen"
	"fridgechef/internal/logger"
	"fridgechef/internal/narration"
	"fridgechef/internal/platform/gemini"
	"fridgechef/internal/platform/localllm"
	"fridgechef/internal/recipe"
)

// provider implements both collaborators.
type provider interface {
	recipe.IngredientExtractor
	recipe.RecipeGenerator
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Errorf("failed to load config: %w", err))
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(fmt.Errorf("failed to initialize logger: %w", err))
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	llm, closeProvider, err := newProvider(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("error creating %s client: %w", cfg.Provider, err)
	}
	defer closeProvider()

	var extractor recipe.IngredientExtractor = llm
	var generator recipe.RecipeGenerator = llm
	if cfg.DatabaseURL != "" {
		store, err := recipe.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("error creating postgres store: %w", err)
		}
		defer store.Close()
		extractor = recipe.NewCachedExtractor(extractor, store, log)
		generator = recipe.NewCachedGenerator(generator, store, log)
		log.Info("result cache enabled")
	}

	var hubOpts []narration.HubOption
	if cfg.AzureSpeech.Key != "" {
		var azureOpts []narration.AzureOption
		if cfg.AzureSpeech.Voice != "" {
			azureOpts = append(azureOpts, narration.WithVoice(cfg.AzureSpeech.Voice))
		}
		synth := narration.NewAzureSynthesizer(cfg.AzureSpeech.Key, cfg.AzureSpeech.Region, log, azureOpts...)
		hubOpts = append(hubOpts, narration.WithSynthesizer(synth))
		log.Info("azure speech enabled", zap.String("voice", synth.Voice()))
	}
	hub := narration.NewHub(ctx, log, hubOpts...)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	machine := kitchen.New(extractor, generator, log,
		kitchen.WithNarrator(hub),
		kitchen.WithMetrics(kitchen.NewMetrics(reg)),
		kitchen.WithCallTimeout(cfg.CallTimeout),
	)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := setupRouter(api.NewHandler(machine, log), hub, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), log, cfg.AllowOrigins)

	srv := &http.Server{Addr: cfg.Addr, Handler: r}
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Addr), zap.String("provider", cfg.Provider))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newProvider(ctx context.Context, cfg *config.Config, log *zap.Logger) (provider, func() error, error) {
	switch cfg.Provider {
	case config.ProviderLocal:
		client, err := localllm.NewClient(cfg.LocalLLM.URL, cfg.LocalLLM.Model, cfg.LocalLLM.Token, log)
		if err != nil {
			return nil, nil, err
		}
		return client, func() error { return nil }, nil
	case config.ProviderGemini:
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, log)
		if err != nil {
			return nil, nil, err
		}
		return client, client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func setupRouter(handler *api.Handler, narrationHandler, metricsHandler http.Handler, log *zap.Logger, origins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logger.GinMiddleware(log))
	r.Use(cors.New(corsConfig(origins)))

	r.GET("/state", handler.State)
	r.POST("/scan", handler.Scan)
	r.POST("/filters/:filter/toggle", handler.ToggleFilter)
	r.POST("/recipes/refetch", handler.Refetch)
	r.POST("/recipes/:id/select", handler.SelectRecipe)
	r.POST("/recipes/:id/shopping-list", handler.AddMissingToShoppingList)

	cooking := r.Group("/cooking")
	cooking.POST("/exit", handler.ExitCooking)
	cooking.POST("/next", handler.NextStep)
	cooking.POST("/previous", handler.PreviousStep)
	cooking.POST("/read-aloud", handler.ReadAloud)

	r.POST("/navigate", handler.Navigate)
	r.POST("/shopping-list/items", handler.AddShoppingItem)
	r.DELETE("/shopping-list/items", handler.RemoveShoppingItem)
	r.DELETE("/shopping-list", handler.ClearShoppingList)

	r.GET("/narration/ws", gin.WrapH(narrationHandler))
	r.GET("/metrics", gin.WrapH(metricsHandler))
	return r
}
