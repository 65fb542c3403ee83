// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/olegiv/ofolio/internal/auth"
	"github.com/olegiv/ofolio/internal/cache"
	"github.com/olegiv/ofolio/internal/config"
	"github.com/olegiv/ofolio/internal/geoip"
	"github.com/olegiv/ofolio/internal/handler/api"
	"github.com/olegiv/ofolio/internal/imaging"
	"github.com/olegiv/ofolio/internal/logging"
	"github.com/olegiv/ofolio/internal/middleware"
	"github.com/olegiv/ofolio/internal/model"
	"github.com/olegiv/ofolio/internal/scheduler"
	"github.com/olegiv/ofolio/internal/service"
	"github.com/olegiv/ofolio/internal/store"
	"github.com/olegiv/ofolio/internal/store/mongostore"
	"github.com/olegiv/ofolio/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")
	hashPassword := flag.Bool("hash-password", false, "Read a password from stdin and print its hash for OFOLIO_ADMIN_PASSWORD_HASH")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "ofolio - portfolio and blog content API\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OFOLIO_JWT_SECRET           Token signing key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OFOLIO_ADMIN_USERNAME       Admin login name (default: admin)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OFOLIO_ADMIN_PASSWORD       Admin password, hashed at startup\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OFOLIO_ADMIN_PASSWORD_HASH  Pre-computed admin password hash (see -hash-password)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OFOLIO_STORE_DRIVER         sqlite|mongo (default: sqlite)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OFOLIO_DB_PATH              SQLite database path (default: ./data/ofolio.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OFOLIO_MONGO_URI            MongoDB connection string (mongo driver)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OFOLIO_UPLOADS_DIR          Uploads root (default: ./uploads)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OFOLIO_IMAGE_FORMAT         webp|jpeg derivative encoding (default: webp)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OFOLIO_SERVER_PORT          Server port (default: 5000)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OFOLIO_ENV                  development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OFOLIO_REDIS_URL            Redis URL for the read cache (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OFOLIO_SMTP_HOST            SMTP relay for contact mail (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OFOLIO_FRONTEND_DIR         Built frontend to serve at / (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "\nFor more information, see: https://github.com/olegiv/ofolio\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	info := version.New(appVersion, appGitCommit, appBuildTime)
	if *showVersion {
		_, _ = fmt.Printf("ofolio %s\n", info)
		os.Exit(0)
	}

	if *hashPassword {
		if err := printPasswordHash(); err != nil {
			_, _ = fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if err := run(info); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

// printPasswordHash reads a password from the first line of stdin and
// prints its argon2id hash.
func printPasswordHash() error {
	_, _ = fmt.Fprint(os.Stderr, "Password: ")
	sc := bufio.NewScanner(os.Stdin)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return fmt.Errorf("reading password: %w", err)
		}
		return errors.New("no password given")
	}
	password := strings.TrimRight(sc.Text(), "\r")
	if password == "" {
		return errors.New("password must not be empty")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, _ = fmt.Println(hash)
	return nil
}

// repositories groups the persistence backends the services run on.
type repositories struct {
	posts    service.PostRepository
	projects service.ProjectRepository
	uploads  service.UploadRepository
	close    func() error
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*repositories, error) {
	if cfg.StoreDriver == config.DriverMongo {
		logger.Info("connecting to mongodb", "database", cfg.MongoDatabase)
		ms, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("connecting to mongodb: %w", err)
		}
		return &repositories{
			posts:    ms.Posts(),
			projects: ms.Projects(),
			uploads:  ms.Uploads(),
			close: func() error {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return ms.Close(ctx)
			},
		}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	logger.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}
	logger.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return &repositories{
		posts:    store.NewPostStore(db),
		projects: store.NewProjectStore(db),
		uploads:  store.NewUploadStore(db),
		close:    db.Close,
	}, nil
}

// adminHash returns the stored admin hash, hashing a plaintext password
// from the environment when no hash is configured.
func adminHash(cfg *config.Config, logger *slog.Logger) (string, error) {
	if cfg.AdminPasswordHash != "" {
		if auth.NeedsRehash(cfg.AdminPasswordHash) {
			logger.Warn("admin password hash uses outdated parameters; regenerate it with -hash-password")
		}
		return cfg.AdminPasswordHash, nil
	}
	logger.Warn("OFOLIO_ADMIN_PASSWORD is set in plaintext; prefer OFOLIO_ADMIN_PASSWORD_HASH")
	return auth.HashPassword(cfg.AdminPassword)
}

func newMailer(cfg *config.Config, logger *slog.Logger) (service.Mailer, error) {
	if !cfg.SMTPEnabled() {
		logger.Warn("SMTP not configured, contact messages will only be logged")
		return service.NewLogMailer(logger), nil
	}
	return service.NewSMTPMailer(service.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
}

func run(info version.Info) error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.IsDevelopment())
	slog.SetDefault(logger)
	logger.Info("starting ofolio", "version", info.Version, "commit", info.GitCommit, "env", cfg.Env)

	ctx := context.Background()

	repos, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := repos.close(); err != nil {
			logger.Error("error closing store", "error", err)
		}
	}()

	c := cache.New(ctx, cache.Config{RedisURL: cfg.RedisURL, DefaultTTL: cfg.CacheTTL}, logger)
	defer func() { _ = c.Close() }()

	geo, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn("geoip database unavailable, country lookup disabled", "error", err)
	}
	defer func() { _ = geo.Close() }()

	hash, err := adminHash(cfg, logger)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}
	authn := auth.NewAuthenticator(cfg.AdminUsername, hash, auth.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL))

	mailer, err := newMailer(cfg, logger)
	if err != nil {
		return fmt.Errorf("configuring mailer: %w", err)
	}

	proc := imaging.NewProcessor(cfg.UploadsDir, uploadsPrefix, model.ImageFormat(cfg.ImageFormat), logger)
	images := service.NewImageCleaner(proc, repos.uploads, logger)
	login := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig(), logger)

	apiHandler := api.NewHandler(api.Deps{
		Posts:    service.NewPostService(repos.posts, images, c, logger),
		Projects: service.NewProjectService(repos.projects, images, c, logger),
		Uploads:  service.NewUploadService(proc, repos.uploads, cfg.MaxUploadSize, logger),
		Contact:  service.NewContactService(mailer, cfg.ContactRecipient(), geo, logger),
		Auth:     authn,
		Login:    login,
		Logger:   logger,
	})

	sched := scheduler.New(logger)
	if err := registerJobs(sched, cfg, login, geo, logger); err != nil {
		return fmt.Errorf("registering jobs: %w", err)
	}
	sched.Start()
	defer sched.Stop()
	for _, j := range sched.List() {
		logger.Info("scheduled job", "name", j.Name, "schedule", j.Schedule, "next_run", j.NextRun)
	}
	// Clear leftovers from a previous run without waiting for the first tick.
	go func() {
		if err := sched.TriggerNow(sweepJob); err != nil {
			logger.Warn("startup sweep failed", "error", err)
		}
	}()

	router := newRouter(cfg, apiHandler, api.Limits{
		API:     middleware.NewRateLimiter("api", cfg.RateLimit, cfg.RateWindow, cfg.RateBurst, logger),
		Contact: middleware.NewRateLimiter("contact", contactLimit, contactWindow, 0, logger),
	}, logger)

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

const sweepJob = "sweep-uploads"

// registerJobs adds the maintenance jobs to the scheduler.
func registerJobs(s *scheduler.Scheduler, cfg *config.Config, login *middleware.LoginProtection, geo *geoip.Lookup, logger *slog.Logger) error {
	sweeper := scheduler.NewSweeper(cfg.UploadsDir, cfg.StaleUploadAge, logger)
	if err := s.Register(sweepJob, "Remove stale raw uploads and staging directories", cfg.SweepSchedule,
		func(ctx context.Context) error {
			_, err := sweeper.Sweep(ctx)
			return err
		}); err != nil {
		return err
	}

	if err := s.Register("prune-logins", "Forget expired login failures and lockouts", "@every 15m",
		func(context.Context) error {
			if n := login.Prune(); n > 0 {
				logger.Debug("pruned login attempts", "removed", n)
			}
			return nil
		}); err != nil {
		return err
	}

	if geo != nil && geo.Enabled() {
		return s.Register("reload-geoip", "Reopen the GeoIP database when it changes on disk", "@daily",
			func(context.Context) error { return geo.Reload() })
	}
	return nil
}
