package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"wishlist/auth"
	"wishlist/config"
	"wishlist/crypto"
	"wishlist/db"
	"wishlist/handlers"
	"wishlist/i18n"
	"wishlist/logger"
	"wishlist/uploads"
	"wishlist/web"
	"wishlist/wishlist"
)

func main() {
	configPath := flag.String("config", "", "optional JSON config file")
	flag.Parse()

	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error loading .env: %v\n", err)
		os.Exit(1)
	}

	if err := config.LoadConfig(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg := config.AppConfig
	log := logger.New(cfg.LogLevel)

	if err := i18n.LoadTranslations(web.FS, "i18n"); err != nil {
		log.WithError(err).Fatal("Error loading translations")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Error opening database")
	}
	defer conn.Close()

	photos, err := uploads.New(cfg.UploadDir, "/uploads")
	if err != nil {
		log.WithError(err).Fatal("Error preparing upload directory")
	}

	auth.InitStore(cfg.SessionKey, cfg.SecureCookies)

	store := db.NewStore(conn)
	lists := wishlist.NewListService(store)
	items := wishlist.NewItemService(store, lists, photos)

	opts := handlers.Options{
		AppName:        cfg.AppName,
		UploadDir:      photos.Dir(),
		MaxUploadBytes: cfg.MaxUploadBytes,
		SignupCaptcha:  cfg.SignupCaptcha,
	}
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		opts.Metrics = handlers.NewMetrics(reg)
	}

	app := handlers.New(auth.NewService(store), lists, items, log, opts).
		App(crypto.DeriveKey(cfg.SessionKey, "csrf"), cfg.SecureCookies)

	addr := fmt.Sprintf("%s:%d", cfg.ListenIP, cfg.ListenPort)
	srv := &http.Server{
		Addr:              addr,
		Handler:           app,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	log.WithField("addr", addr).Infof("Server starting (%s)", cfg.AppName)
	if err := srv.ListenAndServe(); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}
}
