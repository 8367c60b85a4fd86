package main

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"playlist-api-go/cache"
	"playlist-api-go/circuitbreaker"
	"playlist-api-go/config"
	"playlist-api-go/logcolors"
	"playlist-api-go/services/ai"
	"playlist-api-go/services/notifier"
	"playlist-api-go/services/spotify"
	"playlist-api-go/session"
)

// app holds the wired components behind the HTTP handlers.
type app struct {
	conf     config.Config
	store    cache.Store
	spotify  *spotify.Client
	breaker  *circuitbreaker.CircuitBreaker
	auth     *spotify.Authenticator
	sessions *session.Store
	ai       *ai.Service
}

func newApp(conf config.Config) (*app, error) {
	c := conf.Configuration

	store := buildCacheStore(conf)
	helper := cache.NewHelper(store, cache.TTLs{
		Search:       time.Duration(c.SearchCacheTTLInSeconds) * time.Second,
		PlaylistList: time.Duration(c.PlaylistListCacheTTLInSeconds) * time.Second,
		Playlist:     time.Duration(c.PlaylistCacheTTLInSeconds) * time.Second,
		Profile:      time.Duration(c.ProfileCacheTTLInSeconds) * time.Second,
	})

	breaker := circuitbreaker.New(circuitbreaker.Config{
		Name:         "search",
		WindowSpan:   time.Duration(c.BreakerWindowSeconds) * time.Second,
		Buckets:      c.BreakerWindowBuckets,
		FailureRatio: float64(c.BreakerFailureRatioPct) / 100,
		MinVolume:    int64(c.BreakerMinVolume),
		Cooldown:     time.Duration(c.BreakerCooldownSecs) * time.Second,
		CallTimeout:  time.Duration(c.BreakerCallTimeoutMs) * time.Millisecond,
	})

	client := spotify.NewClient(spotify.Config{
		Cache:            helper,
		Breaker:          breaker,
		Timeout:          time.Duration(c.UpstreamTimeoutMs) * time.Millisecond,
		MaxRetries:       c.UpstreamMaxRetries,
		MaxBatchSize:     c.BatchSearchMaxSize,
		BatchConcurrency: c.BatchSearchConcurrent,
	})

	sessions, err := session.NewStore(c.SessionDBPath, time.Duration(c.SessionMaxAgeDays)*24*time.Hour)
	if err != nil {
		notifier.PublishServerStartupFailed("session store", err)
		return nil, fmt.Errorf("session store: %v", err)
	}

	return &app{
		conf:     conf,
		store:    store,
		spotify:  client,
		breaker:  breaker,
		auth:     spotify.NewAuthenticator(c.SpotifyClientID, c.SpotifyClientSecret, c.SpotifyRedirectURI),
		sessions: sessions,
		ai:       buildAIService(conf),
	}, nil
}

// buildCacheStore picks the configured backend. Cache failures must
// never take the server down, so a backend that cannot be opened
// degrades to the no-op store instead of aborting startup.
func buildCacheStore(conf config.Config) cache.Store {
	c := conf.Configuration

	switch c.CacheBackend {
	case "redis":
		store, err := cache.NewRedisStore(c.RedisURL)
		if err != nil {
			log.Errorf("%s Redis unavailable, running without cache: %v", logcolors.LogCacheInit, err)
			return cache.NoopStore{}
		}
		return store
	case "bolt":
		store, err := cache.NewBoltStore(c.BoltCachePath, conf.FeatureFlags.CacheCompression)
		if err != nil {
			log.Errorf("%s BoltDB cache unavailable, running without cache: %v", logcolors.LogCacheInit, err)
			return cache.NoopStore{}
		}
		return store
	case "disabled":
		log.Infof("%s Cache disabled by configuration", logcolors.LogCacheInit)
		return cache.NoopStore{}
	default:
		log.Warnf("%s Unknown cache backend %q, running without cache", logcolors.LogCacheInit, c.CacheBackend)
		return cache.NoopStore{}
	}
}

func buildAIService(conf config.Config) *ai.Service {
	c := conf.Configuration

	primary, err := buildAIProvider(conf, c.AIProvider)
	if err != nil {
		log.Warnf("%s Primary provider unavailable: %v", logcolors.LogAI, err)
		return nil
	}

	var fallback ai.Provider
	if c.AIFallbackProvider != "" && c.AIFallbackProvider != c.AIProvider {
		fallback, err = buildAIProvider(conf, c.AIFallbackProvider)
		if err != nil {
			log.Warnf("%s Fallback provider unavailable: %v", logcolors.LogAI, err)
		}
	}

	return ai.NewService(ai.ServiceConfig{
		Primary:  primary,
		Fallback: fallback,
		MaxSongs: c.AIMaxSongs,
	})
}

func buildAIProvider(conf config.Config, name string) (ai.Provider, error) {
	c := conf.Configuration

	cfg := ai.ProviderConfig{
		ReferrerURL: c.FrontendURL,
		AppName:     "playlist-api",
	}
	switch name {
	case "openrouter":
		cfg.APIKey = c.OpenRouterAPIKey
		cfg.Model = c.OpenRouterModel
	case "groq":
		cfg.APIKey = c.GroqAPIKey
		cfg.Model = c.GroqModel
	case "openai":
		cfg.APIKey = c.OpenAIAPIKey
	}

	return ai.NewProvider(name, cfg)
}

// buildNotifiers assembles every notifier that has credentials configured.
func buildNotifiers(conf config.Config) []notifier.Notifier {
	c := conf.Configuration
	var notifiers []notifier.Notifier

	if c.NotifierSMTPHost != "" && c.NotifierToEmail != "" {
		notifiers = append(notifiers, &notifier.EmailNotifier{
			SMTPHost:     c.NotifierSMTPHost,
			SMTPPort:     c.NotifierSMTPPort,
			SMTPUsername: c.NotifierSMTPUsername,
			SMTPPassword: c.NotifierSMTPPassword,
			FromEmail:    c.NotifierFromEmail,
			ToEmail:      c.NotifierToEmail,
		})
	}
	if c.NotifierTelegramBotToken != "" && c.NotifierTelegramChatID != "" {
		notifiers = append(notifiers, &notifier.TelegramNotifier{
			BotToken: c.NotifierTelegramBotToken,
			ChatID:   c.NotifierTelegramChatID,
		})
	}
	if c.NotifierNtfyTopic != "" {
		notifiers = append(notifiers, &notifier.NtfyNotifier{
			Topic:  c.NotifierNtfyTopic,
			Server: c.NotifierNtfyServer,
		})
	}

	return notifiers
}

func (a *app) shutdown() {
	if err := a.store.Close(); err != nil {
		log.Warnf("%s Failed to close cache store: %v", logcolors.LogCacheInit, err)
	}
	if err := a.sessions.Close(); err != nil {
		log.Warnf("%s Failed to close session store: %v", logcolors.LogSession, err)
	}
}
