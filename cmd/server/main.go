package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"lisa/internal/auth"
	"lisa/internal/config"
	"lisa/internal/doctypes"
	"lisa/internal/domain/repositories"
	"lisa/internal/domain/services"
	"lisa/internal/drive"
	"lisa/internal/handler"
	"lisa/internal/middleware"
	"lisa/internal/repository/memory"
	"lisa/internal/repository/postgres"
	"lisa/internal/service"
	serviceAuth "lisa/internal/service/auth"
	"lisa/internal/service/generation"
	"lisa/internal/service/ledger"
	serviceLLM "lisa/internal/service/llm"
)

// storage bundles the repositories of one backend
type storage struct {
	groups    repositories.GroupRepository
	projects  repositories.ProjectRepository
	documents repositories.DocumentRepository
	prompts   repositories.PromptRepository
	txManager repositories.TransactionManager
	ping      handler.CheckerFunc
	close     func()
}

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, logCloser, err := config.NewLogger(cfg, os.Stdout)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
		"llm_provider", cfg.LLMProvider,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.close()

	catalog, err := doctypes.NewCatalog()
	if err != nil {
		log.Fatalf("Failed to load document type catalog: %v", err)
	}
	logger.Info("document type catalog loaded", "types", len(catalog.List()))

	// Drive: real gateway when credentials are configured, references only otherwise
	var (
		fetcher    services.SourceFetcher = drive.ReferenceFetcher{}
		publisher  services.ArtifactPublisher
		driveCheck handler.Checker
	)
	if cfg.GoogleCredentialsFile != "" {
		gateway, err := drive.New(ctx, cfg.GoogleCredentialsFile, drive.Options{
			Concurrency: cfg.SourceFetchConcurrency,
		}, logger)
		if err != nil {
			log.Fatalf("Failed to create Drive gateway: %v", err)
		}
		fetcher = gateway
		driveCheck = gateway
		if cfg.DrivePublish {
			publisher = gateway
		}
		logger.Info("google drive configured", "publish", cfg.DrivePublish)
	} else {
		logger.Warn("GOOGLE_CREDENTIALS_FILE not set, sources are passed by reference only")
	}

	// LLM backend
	provider, err := serviceLLM.NewProviderFactory(cfg).Configured()
	if err != nil {
		log.Fatalf("Failed to set up LLM provider: %v", err)
	}
	backend := serviceLLM.NewBackend(provider, cfg.LLMModel, logger)

	// Services
	authorizer := serviceAuth.NewGroupAdminAuthorizer(store.groups)
	docLedger := ledger.New(store.documents, logger)
	resolver := service.NewPromptResolver(store.prompts)

	engine := generation.NewEngine(generation.Dependencies{
		Projects:   store.projects,
		Documents:  store.documents,
		Ledger:     docLedger,
		Catalog:    catalog,
		Resolver:   resolver,
		Locator:    service.NewSourceLocator(store.projects),
		Fetcher:    fetcher,
		Backend:    backend,
		Publisher:  publisher,
		Authorizer: authorizer,
	}, generation.Options{
		Timeout:          cfg.GenerationTimeout,
		ProgressInterval: cfg.ProgressInterval,
		ProgressStep:     cfg.ProgressStep,
		SweepInterval:    cfg.SweepInterval,
		StaleGrace:       cfg.StaleGrace,
		DefaultModel:     cfg.LLMModel,
	}, logger)
	engine.Start(ctx)

	groupService := service.NewGroupService(store.groups, store.txManager, authorizer, logger)
	projectService := service.NewProjectService(store.projects, store.groups, store.txManager, authorizer, logger)
	promptService := service.NewPromptService(store.prompts, store.groups, catalog, authorizer, logger)
	docService := service.NewDocumentService(store.projects, store.documents, docLedger, catalog, authorizer, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, &handler.Handlers{
		Groups:        handler.NewGroupHandler(groupService, logger),
		Projects:      handler.NewProjectHandler(projectService, logger),
		Prompts:       handler.NewPromptHandler(promptService, logger),
		Documents:     handler.NewDocumentHandler(docService, engine, logger),
		Events:        handler.NewEventsHandler(docService, engine, nil, logger),
		DocumentTypes: handler.NewDocumentTypesHandler(catalog),
		Health:        handler.NewHealthHandler(store.ping, driveCheck, logger),
	})

	// Build middleware chain
	// Order: CORS → Recovery → Auth → Routes
	var h http.Handler = mux
	if cfg.JWKSURL != "" {
		verifier, err := auth.NewJWTVerifier(ctx, cfg.JWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer verifier.Close()
		h = middleware.AuthMiddleware(verifier, cfg, logger)(h)
	} else {
		h = middleware.DevSessionMiddleware(cfg.DevUserID, cfg, logger)(h)
	}
	h = middleware.Recovery(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "Last-Event-ID"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled to allow long-lived SSE streams
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// openStorage connects to Postgres when DATABASE_URL is set and falls back
// to the in-memory store otherwise
func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storage, error) {
	if cfg.DatabaseURL == "" {
		if cfg.Environment == "prod" {
			logger.Warn("DATABASE_URL not set in prod, data will not survive a restart")
		} else {
			logger.Info("DATABASE_URL not set, using in-memory store")
		}
		store := memory.NewStore()
		return &storage{
			groups:    memory.NewGroupRepository(store),
			projects:  memory.NewProjectRepository(store),
			documents: memory.NewDocumentRepository(store),
			prompts:   memory.NewPromptRepository(store),
			txManager: memory.NewTransactionManager(),
			ping:      store.Ping,
			close:     func() {},
		}, nil
	}

	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
		pool.Close()
		return nil, err
	}

	stat := pool.Stat()
	logger.Info("database connected",
		"max_conns", stat.MaxConns(),
		"table_prefix", cfg.TablePrefix,
	)

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	return &storage{
		groups:    postgres.NewGroupRepository(repoConfig),
		projects:  postgres.NewProjectRepository(repoConfig),
		documents: postgres.NewDocumentRepository(repoConfig),
		prompts:   postgres.NewPromptRepository(repoConfig),
		txManager: postgres.NewTransactionManager(pool, logger),
		ping:      pool.Ping,
		close:     pool.Close,
	}, nil
}
