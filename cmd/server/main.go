package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"planillas/backend/internal/config"
	"planillas/backend/internal/draftstore"
	"planillas/backend/internal/httpapi"
	"planillas/backend/internal/mailer"
	"planillas/backend/internal/service"
	"planillas/backend/internal/store"
	"planillas/backend/internal/store/memory"
	pgstore "planillas/backend/internal/store/postgres"
)

func main() {
	cfg := config.Load()
	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatalf("invalid security configuration: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres unavailable (%v) and DATABASE_URL is set; refusing to start with in-memory fallback", err)
		} else {
			repo = pg
			closers = append(closers, pg.Close)
			log.Println("repository: postgres")
		}
	} else {
		repo = memory.NewSeeded()
		log.Println("repository: in-memory")
	}

	draftTTL := time.Duration(cfg.DraftTTLDays) * 24 * time.Hour
	var drafts draftstore.Store = draftstore.NewMemoryStore(draftTTL)
	if cfg.RedisAddr != "" {
		redisDrafts := draftstore.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, draftTTL)
		if err := redisDrafts.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), using in-memory draft store", err)
		} else {
			drafts = redisDrafts
			closers = append(closers, redisDrafts.Close)
			log.Println("draft store: redis")
		}
	} else {
		log.Println("draft store: in-memory")
	}

	var mail mailer.Sender = mailer.Noop{}
	if cfg.SMTPHost != "" {
		mail = mailer.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)
		log.Println("mailer: smtp")
	} else {
		log.Println("mailer: noop")
	}

	svc := service.New(repo, drafts, mail, draftTTL)
	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, repo)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("planillas backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	return nil
}
