package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"playlist-api-go/config"
	"playlist-api-go/logcolors"
	"playlist-api-go/middleware"
	"playlist-api-go/services/notifier"
)

func init() {
	log.SetFormatter(&log.JSONFormatter{})
}

func main() {
	conf := config.Get()
	c := conf.Configuration

	alerts := notifier.NewAlertHandler(notifier.AlertConfig{
		Notifiers: buildNotifiers(conf),
	})
	alerts.Start()

	a, err := newApp(conf)
	if err != nil {
		log.Fatalf("%s Startup failed: %v", logcolors.LogServer, err)
	}
	defer a.shutdown()

	router := mux.NewRouter()
	setupRoutes(router, a)

	limiter := middleware.NewIPRateLimiter(rate.Limit(c.RateLimitPerSecond), c.RateLimitBurstLimit)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{c.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})

	handler := middleware.Logger(middleware.RateLimit(limiter)(corsHandler.Handler(router)))

	log.Infof("%s Listening on port %s", logcolors.LogServer, c.Port)
	notifier.PublishServerStarted(c.Port)

	if err := http.ListenAndServe(":"+c.Port, handler); err != nil {
		notifier.PublishServerStartupFailed("http server", err)
		log.Fatalf("%s Server exited: %v", logcolors.LogServer, err)
	}
}
