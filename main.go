package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/paulIordache/Architecture-Web/config"
	"github.com/paulIordache/Architecture-Web/core"
	"github.com/paulIordache/Architecture-Web/handlers/api/assets"
	"github.com/paulIordache/Architecture-Web/handlers/api/furniture"
	"github.com/paulIordache/Architecture-Web/handlers/api/projects"
	"github.com/paulIordache/Architecture-Web/handlers/api/rooms"
	"github.com/paulIordache/Architecture-Web/handlers/auth"
	authMiddleware "github.com/paulIordache/Architecture-Web/middleware"
	"github.com/paulIordache/Architecture-Web/stores"
	"github.com/sirupsen/logrus"
)

func setupRouter(store stores.Store, assetStore core.AssetStore, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length", "X-Request-ID", "Origin", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", auth.HandleRegister(store))
		r.Post("/login", auth.HandleLogin(store))

		r.Get("/rooms", rooms.HandleListRooms(store))
		r.Get("/rooms/{id}", rooms.HandleGetRoom(store))
		r.Get("/assets/*", assets.HandleGetAsset(assetStore))

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.AuthJWT)
			r.Route("/projects", func(r chi.Router) {
				r.Get("/", projects.HandleListProjects(store))
				r.Post("/", projects.HandleCreateProject(store))
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", projects.HandleGetProject(store))
					r.Get("/furniture", projects.HandleListPlaced(store))
				})
			})
			r.Route("/furniture", func(r chi.Router) {
				r.Get("/all", furniture.HandleListCatalog(store))
				r.Post("/", furniture.HandleCreatePlaced(store))
				r.Put("/{id}", furniture.HandleUpdatePlaced(store))
				r.Delete("/{id}", furniture.HandleDeletePlaced(store))
			})
			r.Put("/assets/*", assets.HandlePutAsset(assetStore))
		})
	})

	return r
}

func waitForShutdown(srv *http.Server) {
	signalC := make(chan os.Signal, 1)
	signal.Notify(signalC, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	s := <-signalC
	logrus.WithField("signal", s.String()).Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Graceful shutdown failed")
	}
}

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	listenAddress := flag.String("listen", ":8080", "The address to listen on.")
	logLevel := flag.String("loglevel", "info", "The log level (debug, info, warn, error).")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	cfg, err := config.LoadServer()
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	auth.Init(cfg.JWTSecret, cfg.TokenTTL)
	store := stores.GetStore(&cfg)
	assetStore := stores.GetAssetStore(&cfg)

	srv := &http.Server{
		Addr:              *listenAddress,
		Handler:           setupRouter(store, assetStore, cfg.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logrus.WithField("addr", *listenAddress).Info("starting server")
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	logrus.Debug("Server is running in the background")
	waitForShutdown(srv)
}
