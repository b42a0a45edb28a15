package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/mclemoreauction/neighbor-letters/internal/api"
	"github.com/mclemoreauction/neighbor-letters/internal/auctionapi"
	"github.com/mclemoreauction/neighbor-letters/internal/auth"
	"github.com/mclemoreauction/neighbor-letters/internal/config"
	"github.com/mclemoreauction/neighbor-letters/internal/csvproc"
	"github.com/mclemoreauction/neighbor-letters/internal/dropbox"
	"github.com/mclemoreauction/neighbor-letters/internal/letters"
	"github.com/mclemoreauction/neighbor-letters/internal/lob"
	"github.com/mclemoreauction/neighbor-letters/internal/pkg/logger"
	"github.com/mclemoreauction/neighbor-letters/internal/qrlabels"
	"github.com/mclemoreauction/neighbor-letters/internal/report"
	"github.com/mclemoreauction/neighbor-letters/internal/repository/postgres"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		logger.Error("failed to load config", "path", configPath, "error", err.Error())
		os.Exit(1)
	}
	if os.Getenv("LOG_LEVEL") == "debug" {
		logger.SetLevel(logger.DEBUG)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := letters.NewFileStore(cfg.Storage.DataDir)
	if err != nil {
		logger.Error("failed to initialize letter storage", "error", err.Error())
		os.Exit(1)
	}

	// Auction metadata, with a Redis read-through cache when available.
	var auctionClient auctionapi.Fetcher = auctionapi.NewClient(cfg.AuctionAPI, nil)
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis unreachable, auction cache disabled", "addr", cfg.Redis.Addr, "error", err.Error())
			rdb.Close()
		} else {
			auctionClient = auctionapi.NewCachedClient(auctionClient, rdb, cfg.AuctionAPI.CacheTTL())
			logger.Info("auction metadata cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.AuctionAPI.CacheTTL().String())
			defer rdb.Close()
		}
		pingCancel()
	}

	lettersSvc := letters.NewService(store, auctionClient)

	lobClient := lob.NewClient(cfg.Lob, nil)
	submitter := lob.NewSubmitter(lobClient, lob.FromAddress{
		Name:  cfg.Lob.FromName,
		Line1: cfg.Lob.FromAddress1,
		City:  cfg.Lob.FromCity,
		State: cfg.Lob.FromState,
		Zip:   cfg.Lob.FromZip,
	})
	submitter.SetVerifier(lobClient)

	// Audit database is optional; without it sends still work but history,
	// scan tracking, and the daily report are off.
	var sendRepo *postgres.SendRepo
	var scanRepo *postgres.ScanRepo
	if cfg.Database.Enabled && cfg.Database.URL != "" {
		db, err := sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			logger.Error("failed to open database", "error", err.Error())
			os.Exit(1)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(3)
		db.SetConnMaxLifetime(5 * time.Minute)
		defer db.Close()

		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		err = db.PingContext(pingCtx)
		pingCancel()
		if err != nil {
			logger.Warn("database unreachable, audit and scan tracking disabled", "error", err.Error())
		} else {
			if err := postgres.EnsureSchema(ctx, db); err != nil {
				logger.Error("failed to ensure database schema", "error", err.Error())
				os.Exit(1)
			}
			sendRepo = postgres.NewSendRepo(db)
			scanRepo = postgres.NewScanRepo(db)
			logger.Info("audit database connected")
		}
	} else {
		logger.Info("audit database not configured")
	}

	var archiver *dropbox.Archiver
	if cfg.Dropbox.Enabled && cfg.Dropbox.AccessToken != "" {
		archiver = dropbox.NewArchiver(dropbox.NewClient(cfg.Dropbox, nil))
		logger.Info("dropbox archiving enabled", "root", cfg.Dropbox.RootPath)
	}

	labels := qrlabels.NewGenerator(cfg.Server.BaseURL, cfg.Storage.DataDir)

	var authManager *auth.Manager
	if cfg.Auth.Enabled && cfg.Auth.GoogleClientID != "" {
		authManager = auth.NewManager(cfg.Auth, cfg.Server.BaseURL)
		authManager.StartSessionJanitor(ctx)
		logger.Info("google oauth enabled", "domain", cfg.Auth.AllowedDomain)
	} else {
		logger.Warn("authentication disabled, API is open")
	}

	if cfg.Report.Enabled {
		if scanRepo == nil {
			logger.Warn("daily report enabled but database is unavailable, report disabled")
		} else {
			reporter := report.NewReporter(scanRepo, report.NewSMTPMailer(cfg.Report))
			go report.NewScheduler(reporter, cfg.Report.SendHourUTC).Run(ctx)
		}
	}

	handlers := api.NewHandlers(
		csvproc.NewProcessor(cfg.Letters.ExcludedTerms),
		lettersSvc,
		store,
		auctionClient,
		submitter,
		nilableSends(sendRepo),
		nilableScans(scanRepo),
		nilableArchive(archiver),
		labels,
	)

	server := api.NewServer(cfg.Server, api.SetupRoutes(handlers, authManager))
	if err := server.Start(ctx); err != nil {
		logger.Error("server error", "error", err.Error())
		os.Exit(1)
	}
}

// A nil *SendRepo stored in a non-nil interface would dodge the handlers'
// nil checks, so convert typed nils to interface nils explicitly.
func nilableSends(r *postgres.SendRepo) api.SendAudit {
	if r == nil {
		return nil
	}
	return r
}

func nilableScans(r *postgres.ScanRepo) api.ScanAudit {
	if r == nil {
		return nil
	}
	return r
}

func nilableArchive(a *dropbox.Archiver) api.Archive {
	if a == nil {
		return nil
	}
	return a
}
