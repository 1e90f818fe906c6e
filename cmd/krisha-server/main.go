package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Iros-07/PhoneKrisha/internal/config"
	"github.com/Iros-07/PhoneKrisha/internal/database"
	"github.com/Iros-07/PhoneKrisha/internal/handlers"

	"github.com/spf13/pflag"
)

func main() {
	cfg := config.Load()

	var configPath string
	flags := pflag.NewFlagSet("krisha-server", pflag.ExitOnError)
	flags.StringVar(&configPath, "config", "", "path to YAML config file")
	flags.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "listen address")
	flags.StringVar(&cfg.DatabasePath, "db", cfg.DatabasePath, "path to the sqlite database")
	flags.StringVar(&cfg.PhotosDir, "photos", cfg.PhotosDir, "directory for uploaded photos")
	flags.Parse(os.Args[1:])

	if configPath != "" {
		if err := cfg.LoadFile(configPath); err != nil {
			log.Fatal(err)
		}
	}

	db, err := database.InitDB(cfg.DatabasePath)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.Fatal(err)
	}

	handler := handlers.NewHandler(db, cfg.PhotosDir, cfg.MaxPhotoSize)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: handlers.NewRouter(handler),
	}

	go func() {
		log.Printf("Server running at http://localhost%s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// ================= SHUTDOWN =================
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	server.Shutdown(ctx)
	log.Println("Server stopped")
}
