package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"cusp/api/internal/app"
	"cusp/api/internal/authpw"
	"cusp/api/internal/chat"
	"cusp/api/internal/config"
	"cusp/api/internal/email"
	"cusp/api/internal/search"
	"cusp/api/internal/session"
	"cusp/api/internal/store"
	"cusp/api/internal/upload"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL, store.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	dataStore := store.NewPostgresStore(db)

	pgfts := search.NewPgFTS(db)
	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliKey)
		defer meiliClient.Close()
	}
	searchService := search.NewService(meiliClient, pgfts)
	if meiliClient != nil {
		go searchService.ReindexAllFromPG(ctx)
	}

	redisStore, err := session.NewRedisStore(cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}
	defer redisStore.Close()

	emailSvc := email.NewService(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	})
	var mailer authpw.Mailer
	if emailSvc.IsConfigured() {
		mailer = emailSvc
	} else {
		log.Printf("SMTP not configured, reset codes are returned in API responses")
	}

	pwService := authpw.NewService(dataStore, redisStore, mailer, cfg.OTPTTL)

	var uploads upload.Store
	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		uploads, err = upload.NewMinioStore(ctx, upload.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			PublicURL: cfg.PublicURL,
		})
		if err != nil {
			log.Fatalf("object storage setup failed: %v", err)
		}
		log.Printf("Using MinIO for uploads")
	} else {
		uploads, err = upload.NewDiskStore(cfg.UploadsDir, cfg.PublicURL)
		if err != nil {
			log.Fatalf("uploads dir setup failed: %v", err)
		}
	}

	cipher, err := chat.NewCipher([]byte(cfg.ChatKey), []byte(cfg.ChatIV))
	if err != nil {
		log.Fatalf("chat cipher setup failed: %v", err)
	}

	service := app.NewService(cfg, dataStore, pwService, searchService, uploads, cipher, emailSvc.IsConfigured())
	hub := chat.NewHub(cipher, app.NewChatStore(dataStore), service)

	httpServer := app.NewHTTPServer(service, hub, cfg.UploadsDir, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Cusp API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
