package logcolors

// ANSI color codes for log prefixes
const (
	Reset  = "\033[0m"
	Green  = "\033[32m"
	Blue   = "\033[34m"
	Purple = "\033[35m"
	Cyan   = "\033[36m"

	// Bright variants for more color variety
	BrightGreen   = "\033[92m"
	BrightBlue    = "\033[94m"
	BrightMagenta = "\033[95m"
	BrightCyan    = "\033[96m"
)

// Cache-related log prefixes
const (
	LogCacheInit   = Blue + "[Cache:Init]" + Reset
	LogCache       = Blue + "[Cache]" + Reset
	LogCacheSearch = Green + "[Cache:Search]" + Reset
	LogCacheOwner  = Cyan + "[Cache:Owner]" + Reset
)

// Upstream client log prefixes
const (
	LogSpotify   = BrightGreen + "[Spotify]" + Reset
	LogSearch    = Green + "[Search]" + Reset
	LogBatch     = BrightCyan + "[Search:Batch]" + Reset
	LogPlaylists = BrightBlue + "[Playlists]" + Reset
	LogToken     = BrightMagenta + "[Token]" + Reset
	LogRetry     = Purple + "[Retry]" + Reset
)

// Rate limiting and auth log prefixes
const (
	LogRateLimit = Purple + "[RateLimit]" + Reset
	LogAuth      = Purple + "[Auth]" + Reset
	LogSession   = Cyan + "[Session]" + Reset
)

// Server/Init log prefixes
const (
	LogServer = Green + "[Server]" + Reset
	LogConfig = Cyan + "[Config]" + Reset
	LogStats  = Blue + "[Stats]" + Reset
)

// AI generation log prefixes
const (
	LogAI = BrightMagenta + "[AI]" + Reset
)

// Notification log prefixes
const (
	LogNotifier = Cyan + "[Notifier]" + Reset
)

// CircuitBreakerPrefix returns a colored circuit breaker prefix with the given name
func CircuitBreakerPrefix(name string) string {
	return Purple + "[CircuitBreaker:" + name + "]" + Reset
}
