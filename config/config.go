package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

var conf = mustLoad()

type Config struct {
	Configuration struct {
		Port        string `envconfig:"PORT" default:"8080"`
		FrontendURL string `envconfig:"FRONTEND_URL" default:"http://localhost:5173"`

		// Spotify application credentials
		SpotifyClientID     string `envconfig:"SPOTIFY_CLIENT_ID" default:""`
		SpotifyClientSecret string `envconfig:"SPOTIFY_CLIENT_SECRET" default:""`
		SpotifyRedirectURI  string `envconfig:"SPOTIFY_REDIRECT_URI" default:"http://localhost:8080/auth/callback"`

		// Upstream client behavior
		UpstreamTimeoutMs     int `envconfig:"UPSTREAM_TIMEOUT_MS" default:"5000"`
		UpstreamMaxRetries    int `envconfig:"UPSTREAM_MAX_RETRIES" default:"3"`
		BatchSearchMaxSize    int `envconfig:"BATCH_SEARCH_MAX_SIZE" default:"100"`
		BatchSearchConcurrent int `envconfig:"BATCH_SEARCH_CONCURRENT_LIMIT" default:"50"`

		// Circuit breaker (guards the search operation)
		BreakerWindowSeconds   int `envconfig:"CIRCUIT_BREAKER_WINDOW_SECS" default:"10"`
		BreakerWindowBuckets   int `envconfig:"CIRCUIT_BREAKER_WINDOW_BUCKETS" default:"10"`
		BreakerFailureRatioPct int `envconfig:"CIRCUIT_BREAKER_FAILURE_RATIO_PCT" default:"50"`
		BreakerMinVolume       int `envconfig:"CIRCUIT_BREAKER_MIN_VOLUME" default:"5"`
		BreakerCooldownSecs    int `envconfig:"CIRCUIT_BREAKER_COOLDOWN_SECS" default:"30"`
		BreakerCallTimeoutMs   int `envconfig:"CIRCUIT_BREAKER_CALL_TIMEOUT_MS" default:"3000"`

		// Cache backend: "redis", "bolt" or "disabled"
		CacheBackend  string `envconfig:"CACHE_BACKEND" default:"redis"`
		RedisURL      string `envconfig:"REDIS_URL" default:"redis://localhost:6379"`
		BoltCachePath string `envconfig:"BOLT_CACHE_PATH" default:"/data/cache.db"`

		// Cache TTLs in seconds, per entity kind
		SearchCacheTTLInSeconds       int `envconfig:"SEARCH_CACHE_TTL_IN_SECONDS" default:"3600"`
		PlaylistListCacheTTLInSeconds int `envconfig:"PLAYLIST_LIST_CACHE_TTL_IN_SECONDS" default:"900"`
		PlaylistCacheTTLInSeconds     int `envconfig:"PLAYLIST_CACHE_TTL_IN_SECONDS" default:"900"`
		ProfileCacheTTLInSeconds      int `envconfig:"PROFILE_CACHE_TTL_IN_SECONDS" default:"1800"`

		// Session storage
		SessionDBPath     string `envconfig:"SESSION_DB_PATH" default:"/data/sessions.db"`
		SessionMaxAgeDays int    `envconfig:"SESSION_MAX_AGE_DAYS" default:"30"`

		// Rate limiting
		RateLimitPerSecond  int `envconfig:"RATE_LIMIT_PER_SECOND" default:"10"`
		RateLimitBurstLimit int `envconfig:"RATE_LIMIT_BURST_LIMIT" default:"20"`
		AIRateLimitPerHour  int `envconfig:"AI_RATE_LIMIT_PER_IP_HOURLY" default:"10"`

		// AI playlist generation
		AIProvider         string `envconfig:"AI_PROVIDER" default:"openrouter"`
		AIFallbackProvider string `envconfig:"AI_FALLBACK_PROVIDER" default:""`
		OpenRouterAPIKey   string `envconfig:"OPENROUTER_API_KEY" default:""`
		OpenRouterModel    string `envconfig:"OPENROUTER_MODEL" default:"openai/gpt-3.5-turbo"`
		GroqAPIKey         string `envconfig:"GROQ_API_KEY" default:""`
		GroqModel          string `envconfig:"GROQ_MODEL" default:"llama3-70b-8192"`
		OpenAIAPIKey       string `envconfig:"OPENAI_API_KEY" default:""`
		AIMaxSongs         int    `envconfig:"AI_MAX_SONGS_PER_REQUEST" default:"50"`

		// Notifier settings for breaker alerts
		NotifierSMTPHost         string `envconfig:"NOTIFIER_SMTP_HOST" default:""`
		NotifierSMTPPort         string `envconfig:"NOTIFIER_SMTP_PORT" default:"587"`
		NotifierSMTPUsername     string `envconfig:"NOTIFIER_SMTP_USERNAME" default:""`
		NotifierSMTPPassword     string `envconfig:"NOTIFIER_SMTP_PASSWORD" default:""`
		NotifierFromEmail        string `envconfig:"NOTIFIER_FROM_EMAIL" default:""`
		NotifierToEmail          string `envconfig:"NOTIFIER_TO_EMAIL" default:""`
		NotifierTelegramBotToken string `envconfig:"NOTIFIER_TELEGRAM_BOT_TOKEN" default:""`
		NotifierTelegramChatID   string `envconfig:"NOTIFIER_TELEGRAM_CHAT_ID" default:""`
		NotifierNtfyTopic        string `envconfig:"NOTIFIER_NTFY_TOPIC" default:""`
		NotifierNtfyServer       string `envconfig:"NOTIFIER_NTFY_SERVER" default:"https://ntfy.sh"`
	}

	FeatureFlags struct {
		CacheCompression bool `envconfig:"FF_CACHE_COMPRESSION" default:"false"`
	}
}

// load loads the configuration from the environment.
func load() (Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Warnf("Error loading env config: %v", err)
	}

	cfg := Config{}
	err = envconfig.Process("", &cfg)
	return cfg, err
}

func mustLoad() Config {
	c, err := load()
	if err != nil {
		log.WithError(err).Warnf("Unable to load configuration")
	}

	return c
}

func Get() Config {
	return conf
}
