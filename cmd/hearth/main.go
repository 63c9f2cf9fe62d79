package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/rgoodwin/hearth/internal/backup"
	"github.com/rgoodwin/hearth/internal/database"
	"github.com/rgoodwin/hearth/internal/email"
	"github.com/rgoodwin/hearth/internal/logging"
	"github.com/rgoodwin/hearth/internal/notify"
	"github.com/rgoodwin/hearth/internal/server"
)

func main() {
	// A missing .env is fine; the environment may be set directly.
	godotenv.Load()

	logger := logging.Setup(os.Getenv("HEARTH_LOG_LEVEL"))

	port := os.Getenv("HEARTH_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("HEARTH_DB_PATH")
	if dbPath == "" {
		dbPath = "hearth.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	emailClient := email.NewClient(
		os.Getenv("HEARTH_POSTMARK_TOKEN"),
		os.Getenv("HEARTH_EMAIL_FROM"),
	)

	cfg := server.Config{
		VAPIDPublicKey:  os.Getenv("HEARTH_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("HEARTH_VAPID_PRIVATE_KEY"),
		Scheduler: notify.Config{
			DigestHour:  envInt("HEARTH_DIGEST_HOUR", 7),
			CleanupHour: envInt("HEARTH_CLEANUP_HOUR", 3),
		},
	}

	srv := server.New(db, emailClient, cfg, logger)

	backupMgr := backup.NewManager(backup.Config{
		S3: backup.S3Config{
			Endpoint:  os.Getenv("HEARTH_S3_ENDPOINT"),
			Bucket:    os.Getenv("HEARTH_S3_BUCKET"),
			Region:    os.Getenv("HEARTH_S3_REGION"),
			AccessKey: os.Getenv("HEARTH_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("HEARTH_S3_SECRET_KEY"),
		},
		DBPath:     dbPath,
		Passphrase: os.Getenv("HEARTH_BACKUP_PASSPHRASE"),
		Hour:       envInt("HEARTH_BACKUP_HOUR", 2),
	}, db, logger.With("component", "backup"))

	ctx := context.Background()
	srv.Scheduler().Start(ctx)
	defer srv.Scheduler().Stop()
	backupMgr.Start(ctx)
	defer backupMgr.Stop()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("Hearth running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
