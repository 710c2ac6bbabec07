package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/threadly/threadly/internal/config"
	"github.com/threadly/threadly/internal/dom"
	"github.com/threadly/threadly/internal/dom/htmldom"
	"github.com/threadly/threadly/internal/dom/memdom"
	"github.com/threadly/threadly/internal/dom/roddom"
	"github.com/threadly/threadly/internal/domain"
	"github.com/threadly/threadly/internal/engine"
	"github.com/threadly/threadly/internal/extract"
	"github.com/threadly/threadly/internal/httpserver"
	"github.com/threadly/threadly/internal/httpserver/deps"
	"github.com/threadly/threadly/internal/index"
	"github.com/threadly/threadly/internal/logger"
	"github.com/threadly/threadly/internal/monitor"
	"github.com/threadly/threadly/internal/redis"
	"github.com/threadly/threadly/internal/rules"
	"github.com/threadly/threadly/internal/store"
	redisstore "github.com/threadly/threadly/internal/store/redis"
	"github.com/threadly/threadly/internal/utils"
	"github.com/threadly/threadly/internal/version"
)

type App struct {
	cfg          *config.Config
	logger       logger.Logger
	server       *httpserver.Server
	session      *engine.Session
	writer       *store.Writer
	rulesWatcher *rules.Watcher
	redisClient  *goredis.Client
	browser      *rod.Browser
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Persistence: Redis when configured, in-memory otherwise.
	var (
		st          store.Store
		redisClient *goredis.Client
	)
	if cfg.RedisAddr != "" {
		client, err := redis.New(redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			loggerClient.Errorf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		redisClient = client
		st = redisstore.NewStore(client)
	} else {
		loggerClient.Info("redis not configured, captured messages will not survive restarts")
		st = store.NewMemoryStore()
	}

	writer := store.NewWriter(st, loggerClient)

	// Favorites index hydrates from persisted state before any extraction.
	favorites := index.NewFavoritesIndex()
	hydrateFavorites(favorites, st, loggerClient)

	// Extraction rules: built-in defaults, then the optional override file.
	registry := rules.NewRegistry()
	var (
		loader       *rules.Loader
		rulesWatcher *rules.Watcher
	)
	if cfg.RulesFile != "" {
		loader = rules.NewLoader(cfg.RulesFile)
		if err := loader.LoadInto(registry); err != nil {
			loggerClient.Warn("rules file invalid, keeping built-in rules",
				logger.String("file", cfg.RulesFile),
				logger.Error(err))
		}
		if cfg.WatchRules {
			rulesWatcher = rules.NewWatcher(loader, registry, loggerClient)
		}
	}

	doc, loc, browser, err := newDocument(cfg, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to open page backend: %v", err)
		os.Exit(1)
	}

	session := engine.NewSession(engine.SessionConfig{
		Doc:       doc,
		Loc:       loc,
		Registry:  registry,
		Store:     st,
		Writer:    writer,
		Favorites: favorites,
		Extractor: extract.New(loggerClient),
		Logger:    loggerClient,
		Monitor: monitor.Options{
			RetryDelay:     cfg.RetryDelay,
			MaxRetries:     cfg.MaxRetries,
			DebounceWindow: cfg.DebounceWindow,
		},
		NavPollInterval: cfg.NavPollInterval,
		PrefixLen:       cfg.IdentityPrefixLen,
	})

	d := deps.Deps{
		Logger:       loggerClient,
		StartTime:    time.Now(),
		Version:      version.Version,
		Commit:       version.Commit,
		BuildDate:    version.BuildDate,
		GoVersion:    version.GoVersion,
		AllowedCIDRS: cfg.AllowedCIDRS,
		TrustProxy:   cfg.TrustProxy,
		Session:      session,
		Favorites:    favorites,
		Registry:     registry,
		Loader:       loader,
		RedisClient:  redisClient,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:          cfg,
		logger:       loggerClient,
		server:       server,
		session:      session,
		writer:       writer,
		rulesWatcher: rulesWatcher,
		redisClient:  redisClient,
		browser:      browser,
	}
}

// newDocument opens the configured page backend. The returned browser is nil
// for the html backend.
func newDocument(cfg *config.Config, log logger.Logger) (dom.Document, dom.Location, *rod.Browser, error) {
	switch cfg.Backend {
	case config.BackendHTML:
		if cfg.CaptureFile == "" {
			return nil, nil, nil, fmt.Errorf("THREADLY_CAPTURE_FILE is required with the html backend")
		}
		f, err := os.Open(cfg.CaptureFile)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to open capture file: %w", err)
		}
		defer utils.Close(f)

		doc, err := htmldom.Parse(f)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to parse capture file: %w", err)
		}
		loc, err := memdom.LocationFromURL(cfg.PageURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("THREADLY_PAGE_URL: %w", err)
		}
		log.Info("html capture loaded",
			logger.String("file", cfg.CaptureFile),
			logger.String("host", loc.Host()))
		return doc, loc, nil, nil

	case config.BackendRod:
		if cfg.PageURL == "" {
			return nil, nil, nil, fmt.Errorf("THREADLY_PAGE_URL is required with the rod backend")
		}
		controlURL, err := launcher.New().Headless(cfg.Headless).Launch()
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		browser := rod.New().ControlURL(controlURL)
		if err := browser.Connect(); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to connect to browser: %w", err)
		}
		page, err := browser.Page(proto.TargetCreateTarget{URL: cfg.PageURL})
		if err != nil {
			_ = browser.Close()
			return nil, nil, nil, fmt.Errorf("failed to open page: %w", err)
		}
		log.Info("browser page opened", logger.String("url", cfg.PageURL))

		doc := roddom.Attach(page).WithPollInterval(cfg.DOMPollInterval)
		return doc, roddom.NewPageLocation(page), browser, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown backend %q (want %q or %q)",
			cfg.Backend, config.BackendRod, config.BackendHTML)
	}
}

func hydrateFavorites(favorites *index.FavoritesIndex, st store.Store, log logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var (
		entries     []*domain.FavoriteEntry
		collections []*domain.Collection
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = st.LoadFavorites(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		collections, err = st.LoadCollections(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Warn("failed to load persisted favorites", logger.Error(err))
		return
	}
	favorites.Hydrate(entries, collections)
	log.Info("favorites hydrated",
		logger.Int("favorites", len(entries)),
		logger.Int("collections", len(collections)))
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Threadly v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Threadly %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.rulesWatcher != nil {
		if err := a.rulesWatcher.Start(); err != nil {
			a.logger.Warn("rules watcher failed to start, hot reload disabled",
				logger.Error(err))
			a.rulesWatcher = nil
		} else {
			a.logger.Info("rules watcher started",
				logger.String("file", a.cfg.RulesFile))
		}
	}

	a.session.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.session.Stop()
	if a.rulesWatcher != nil {
		a.rulesWatcher.Stop()
	}

	// Drain pending persistence before the stores go away.
	a.writer.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.browser != nil {
		if err := a.browser.Close(); err != nil {
			a.logger.Warnf("failed to close browser: %v", err)
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ Threadly stopped cleanly")
	return nil
}
