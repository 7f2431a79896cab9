package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	v1 "certchain/api/v1"
	"certchain/internal/acme"
	"certchain/internal/auth"
	"certchain/internal/bootstrap"
	"certchain/internal/cache"
	"certchain/internal/config"
	"certchain/internal/db"
	"certchain/internal/service"
	"certchain/internal/session"
	"certchain/internal/txpipeline"
	"certchain/internal/ws"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.RequireServer(); err != nil {
		log.Fatalf("Invalid server config: %v", err)
	}
	logger := bootstrap.Logger(cfg.Log, "certchain")
	auth.InitJWT(cfg.JWT.Secret)
	log.Println("✓ Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Initialize MySQL
	if err := db.InitMySQL(cfg.MySQL.DSN); err != nil {
		log.Fatalf("Failed to initialize MySQL: %v", err)
	}
	defer db.Close()

	if cfg.Migrate {
		if err := db.Migrate(db.GetDB()); err != nil {
			log.Fatalf("Failed to migrate: %v", err)
		}
		log.Println("✓ Database migrated")
	}
	if cfg.Operator.Username != "" {
		if err := db.EnsureOperator(db.GetDB(), cfg.Operator.Username, cfg.Operator.Password, auth.RoleAdmin); err != nil {
			log.Fatalf("Failed to seed operator: %v", err)
		}
	}

	// 3. Initialize Redis
	if err := cache.InitRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}
	defer cache.Close()

	// 4. Connect to the chain
	c, err := bootstrap.DialChain(ctx, cfg.Chain)
	if err != nil {
		log.Fatalf("Failed to connect to chain: %v", err)
	}
	defer c.Close()
	log.Printf("✓ %s", c.Network.Message)

	// 5. Wallet session
	w, err := bootstrap.OpenWallet(cfg.Wallet, logger)
	if err != nil {
		log.Fatalf("Failed to open wallet: %v", err)
	}
	if w != nil {
		defer w.Close()
	}

	// 6. Socket.IO, started before the session so wallet events reach clients
	journal := service.NewTxRecordService(db.GetDB(), ws.PublishTxEvent, logger)
	if err := ws.InitServer(journal, logger); err != nil {
		log.Fatalf("Failed to initialize Socket.IO: %v", err)
	}
	defer ws.Close()

	sessions := bootstrap.NewSessions(ctx, c, w, cfg, logger)
	sessions.OnChange(func(status session.WalletStatus) {
		ws.PublishWalletStatus(status)
	})
	if w != nil {
		if _, err := sessions.Connect(ctx); err != nil {
			logger.Warnf("Wallet not connected at startup: %v", err)
		} else {
			log.Println("✓ Wallet connected")
		}
	}

	// 7. Services
	verifier := bootstrap.NewVerifier(c, cache.Client, time.Duration(cfg.Verify.CacheTTLSec)*time.Second, logger)
	if !verifier.Available() {
		logger.Warnf("Certificate verification disabled: %s", c.Network.Message)
	}
	pipeline := txpipeline.New(logger)

	// 8. Initialize Gin router
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()
	r.Any("/socket.io/*any", gin.WrapH(ws.WrapWithAuth(ws.Server)))

	v1.SetupRouter(r, &v1.Deps{
		DB:       db.GetDB(),
		Config:   cfg,
		Network:  c.Network,
		Verifier: verifier,
		Sessions: sessions,
		Pipeline: pipeline,
		Journal:  journal,
		Logger:   logger,
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}

	// 9. Portal TLS
	if cfg.ACME.Enabled {
		worker, err := startACME(cfg, srv, logger)
		if err != nil {
			log.Fatalf("Failed to set up TLS: %v", err)
		}
		defer worker.Stop()
	}

	go func() {
		log.Printf("✓ Server starting on %s", cfg.HTTPAddr)
		var err error
		if srv.TLSConfig != nil {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Shutdown failed: %v", err)
	}
}

// startACME obtains or reuses the portal certificate and keeps it renewed
func startACME(cfg *config.Config, srv *http.Server, logger *logrus.Entry) (*acme.RenewWorker, error) {
	store, err := acme.NewStore(cfg.ACME.CertDir)
	if err != nil {
		return nil, err
	}
	client := acme.NewLegoClient(store, cfg.ACME.Email, cfg.ACME.DirectoryURL, cfg.ACME.HTTPPort)
	manager := acme.NewManager(store, client, cfg.ACME.Domains, logger)
	if err := manager.Ensure(); err != nil {
		return nil, err
	}
	srv.TLSConfig = manager.TLSConfig()

	worker := acme.NewRenewWorker(manager, 0)
	worker.Start()
	log.Printf("✓ TLS ready for %v", cfg.ACME.Domains)
	return worker, nil
}
