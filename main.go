package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"risk-core/internal/account"
	"risk-core/internal/api"
	"risk-core/internal/events"
	"risk-core/internal/monitor"
	"risk-core/internal/profile"
	"risk-core/pkg/config"
	"risk-core/pkg/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	log.Printf("starting risk-core on port %s (db: %s)", cfg.Port, cfg.DBPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	buildVersion := os.Getenv("APP_VERSION")
	if buildVersion == "" {
		buildVersion = "v1.0-dev"
	}

	// Core services
	bus := events.NewBus()

	database, err := db.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("db init failed: %v", err)
	}
	defer database.Close()
	if err := db.ApplyMigrations(database); err != nil {
		log.Fatalf("db migrations failed: %v", err)
	}

	// Load risk profile presets from YAML and sync to DB.
	if cfg.RiskProfilesPath != "" {
		profiles, err := profile.Load(cfg.RiskProfilesPath)
		if err != nil {
			log.Printf("risk profiles load failed (%s): %v", cfg.RiskProfilesPath, err)
		} else if err := profile.SyncToDB(ctx, database, profiles); err != nil {
			log.Printf("risk profiles sync failed: %v", err)
		} else {
			log.Printf("synced %d risk profiles", len(profiles))
		}
	}

	sysMetrics := monitor.NewSystemMetrics()

	accounts := account.NewMultiUserManager(func(userID string) (*account.Manager, error) {
		return account.New(ctx, userID, database, bus, cfg.DefaultStartingCapital)
	})

	// Alert monitor logs tilt transitions from the bus.
	mon := &monitor.Monitor{
		Bus:     bus,
		AlertFn: func(msg string) { log.Printf("[ALERT] %s", msg) },
	}
	mon.Start(ctx)

	// Evict idle per-user engines; their state is durable in SQLite.
	idleTTL := time.Duration(cfg.AccountIdleTTLMin) * time.Minute
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				accounts.CleanupIdle(idleTTL)
				sysMetrics.SetActiveAccounts(accounts.Count())
			}
		}
	}()

	// API
	server := api.NewServer(bus, database, accounts, sysMetrics, api.Config{
		JWTSecret:      cfg.JWTSecret,
		DefaultCapital: cfg.DefaultStartingCapital,
		Version:        buildVersion,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})
	go func() {
		if err := server.Start(":" + cfg.Port); err != nil {
			log.Fatalf("api server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Println("shutting down")
}
