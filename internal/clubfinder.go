package internal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clubfinder/clubfinder/internal/calendarauth"
	"github.com/clubfinder/clubfinder/internal/config"
	"github.com/clubfinder/clubfinder/internal/crypto"
	"github.com/clubfinder/clubfinder/internal/identity"
	"github.com/clubfinder/clubfinder/internal/log"
	"github.com/clubfinder/clubfinder/internal/mcptools"
	"github.com/clubfinder/clubfinder/internal/metrics"
	"github.com/clubfinder/clubfinder/internal/search"
	"github.com/clubfinder/clubfinder/internal/server"
	"github.com/clubfinder/clubfinder/internal/storage"
	"github.com/clubfinder/clubfinder/internal/survey"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	shutdownTimeout = 30 * time.Second
	csrfTTL         = time.Hour
	identityTimeout = 10 * time.Second
)

// ClubFinder is the complete application: HTTP routes plus the resources
// they hold open.
type ClubFinder struct {
	config     config.Config
	handler    http.Handler
	httpServer *server.HTTPServer
	mcpServer  *mcptools.Server
	storage    storage.ProfileStore
	db         *sql.DB
}

// NewClubFinder builds the application with all dependencies wired
func NewClubFinder(ctx context.Context, cfg config.Config, version string) (*ClubFinder, error) {
	log.LogInfoWithFields("clubfinder", "Building application", map[string]any{
		"baseURL":  cfg.Server.BaseURL,
		"identity": cfg.Identity.Kind,
		"source":   cfg.Search.Source,
		"storage":  cfg.Storage.Kind,
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewCollector(reg)

	verifier, err := identity.NewVerifier(cfg.Identity, &http.Client{Timeout: identityTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to setup identity: %w", err)
	}

	source, db, err := setupSource(cfg.Search)
	if err != nil {
		return nil, fmt.Errorf("failed to setup search source: %w", err)
	}
	catalogue := search.NewCatalogue(source, cfg.Search.CacheTTL, recorder)
	searchService := search.NewService(catalogue, cfg.Search.DefaultTopN, recorder)

	store, err := setupStorage(ctx, cfg.Storage)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, fmt.Errorf("failed to setup storage: %w", err)
	}

	csrfKey, err := csrfSigningKey(cfg.Storage)
	if err != nil {
		store.Close()
		if db != nil {
			db.Close()
		}
		return nil, err
	}

	warmCatalogue(ctx, catalogue, source.Name())

	resolver := survey.NewStoredProfileResolver(store, verifier)
	mcpServer := mcptools.NewServer(searchService, resolver, version)

	handler := buildHTTPHandler(routes{
		config:   cfg,
		version:  version,
		recorder: recorder,
		metrics:  metrics.Handler(reg),
		calendar: calendarauth.NewHandler(verifier, calendarauth.NewGoogleURLBuilder(cfg.Calendar.RedirectURI), recorder),
		search:   search.NewHandler(searchService, resolver),
		survey:   survey.NewHandler(searchService, store, verifier, crypto.NewCSRFProtection(csrfKey, csrfTTL)),
		profile:  survey.NewProfileHandler(store, verifier),
		mcp:      mcpServer.Handler(),
	})

	return &ClubFinder{
		config:     cfg,
		handler:    handler,
		httpServer: server.NewHTTPServer(handler, cfg.Server.Addr),
		mcpServer:  mcpServer,
		storage:    store,
		db:         db,
	}, nil
}

// Handler returns the fully wrapped router
func (c *ClubFinder) Handler() http.Handler {
	return c.handler
}

// Run serves until SIGINT, SIGTERM or a server error, then shuts down
// gracefully.
func (c *ClubFinder) Run() error {
	log.LogInfoWithFields("clubfinder", "Starting application", map[string]any{
		"addr": c.config.Server.Addr,
	})

	errChan := make(chan error, 1)
	go func() {
		if err := c.httpServer.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var shutdownReason string
	var runErr error
	select {
	case sig := <-sigChan:
		shutdownReason = fmt.Sprintf("signal %v", sig)
		log.LogInfoWithFields("clubfinder", "Received shutdown signal", map[string]any{
			"signal": sig.String(),
		})
	case err := <-errChan:
		shutdownReason = fmt.Sprintf("error: %v", err)
		runErr = err
		log.LogErrorWithFields("clubfinder", "Shutting down due to error", map[string]any{
			"error": err.Error(),
		})
	}

	log.LogInfoWithFields("clubfinder", "Starting graceful shutdown", map[string]any{
		"reason":  shutdownReason,
		"timeout": shutdownTimeout.String(),
	})
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := c.Shutdown(shutdownCtx); err != nil {
		return errors.Join(runErr, err)
	}

	log.LogInfoWithFields("clubfinder", "Application shutdown complete", map[string]any{
		"reason": shutdownReason,
	})
	return runErr
}

// Shutdown stops the HTTP server and releases storage and database handles
func (c *ClubFinder) Shutdown(ctx context.Context) error {
	var errs []error
	if err := c.httpServer.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http server: %w", err))
	}
	if err := c.mcpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("mcp server: %w", err))
	}
	if err := c.storage.Close(); err != nil {
		errs = append(errs, fmt.Errorf("storage: %w", err))
	}
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	return errors.Join(errs...)
}

// setupSource returns the organization source and, for postgres, the
// database handle the caller must close.
func setupSource(cfg config.SearchConfig) (search.Source, *sql.DB, error) {
	switch cfg.Source {
	case config.SearchSourcePostgres:
		db, err := search.OpenPostgres(string(cfg.DatabaseURL))
		if err != nil {
			return nil, nil, err
		}
		log.LogInfoWithFields("search", "Using PostgreSQL organization source", map[string]any{
			"table": cfg.Table,
		})
		return search.NewPostgresSource(db, cfg.Table), db, nil
	default:
		log.LogInfoWithFields("search", "Using CSV organization source", map[string]any{
			"path": cfg.CSVPath,
		})
		return search.NewCSVSource(cfg.CSVPath), nil, nil
	}
}

func setupStorage(ctx context.Context, cfg config.StorageConfig) (storage.ProfileStore, error) {
	if cfg.Kind != config.StorageKindFirestore {
		log.LogInfoWithFields("storage", "Using in-memory storage", map[string]any{})
		return storage.NewMemoryStorage(), nil
	}

	log.LogInfoWithFields("storage", "Using Firestore storage", map[string]any{
		"project":    cfg.GCPProject,
		"database":   cfg.FirestoreDatabase,
		"collection": cfg.FirestoreCollection,
	})
	encryptor, err := crypto.NewEncryptor([]byte(cfg.EncryptionKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create encryptor: %w", err)
	}
	store, err := storage.NewFirestoreStorage(ctx, cfg.GCPProject, cfg.FirestoreDatabase, cfg.FirestoreCollection, encryptor)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore storage: %w", err)
	}

	if count, err := store.CountProfiles(ctx); err != nil {
		log.LogWarnWithFields("storage", "Could not count stored profiles", map[string]any{
			"error": err.Error(),
		})
	} else {
		log.LogInfoWithFields("storage", "Firestore storage ready", map[string]any{
			"profiles": count,
		})
	}
	return store, nil
}

const csrfKeyPurpose = "clubfinder csrf v1"

// csrfSigningKey derives a CSRF key from the storage encryption key when one
// is configured. Without one, tokens are signed with a per-process key and do
// not survive restarts.
func csrfSigningKey(cfg config.StorageConfig) ([]byte, error) {
	if cfg.EncryptionKey != "" {
		return crypto.DeriveKey([]byte(cfg.EncryptionKey), csrfKeyPurpose)
	}
	key, err := crypto.RandomBytes(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSRF key: %w", err)
	}
	return key, nil
}

// warmCatalogue loads the catalogue once so the first search does not pay
// for it. Failures are logged and retried on the first search.
func warmCatalogue(ctx context.Context, catalogue *search.Catalogue, source string) {
	orgs, err := catalogue.Organizations(ctx)
	if err != nil {
		log.LogWarnWithFields("search", "Initial catalogue load failed", map[string]any{
			"source": source,
			"error":  err.Error(),
		})
		return
	}
	log.LogInfoWithFields("search", "Catalogue loaded", map[string]any{
		"source":        source,
		"organizations": len(orgs),
	})
}

type routes struct {
	config   config.Config
	version  string
	recorder metrics.Recorder
	metrics  http.Handler
	calendar http.Handler
	search   http.Handler
	survey   http.Handler
	profile  http.Handler
	mcp      http.Handler
}

func buildHTTPHandler(r routes) http.Handler {
	mux := http.NewServeMux()

	corsMiddleware := server.NewCORSMiddleware(r.config.Server.AllowedOrigins)
	metricsMiddleware := server.NewMetricsMiddleware(r.recorder)

	// Recovery is innermost so the logger and metrics see its 500
	chain := func(h http.Handler, prefix string) http.Handler {
		return server.ChainMiddleware(h,
			server.NewRecoverMiddleware(prefix),
			metricsMiddleware,
			server.NewLoggerMiddleware(prefix),
			corsMiddleware,
		)
	}

	mux.Handle("/health", server.NewHealthHandler())
	mux.Handle("/metrics", r.metrics)
	mux.Handle("/", chain(server.NewIndexHandler(r.version, map[string]string{
		"health":   "/health",
		"survey":   "/survey",
		"search":   "/api/search",
		"profile":  "/api/profile",
		"calendar": "/api/google-calendar/auth",
		"mcp":      mcptools.EndpointPath,
		"metrics":  "/metrics",
	}), "http"))
	mux.Handle("/survey", chain(r.survey, "survey"))
	mux.Handle("/api/search", chain(r.search, "search"))
	mux.Handle("/api/profile", chain(r.profile, "profile"))
	mux.Handle("/api/google-calendar/auth", chain(r.calendar, "calendar"))
	mux.Handle(mcptools.EndpointPath, chain(r.mcp, "mcp"))

	log.LogInfoWithFields("server", "Routes registered", nil)
	return mux
}
