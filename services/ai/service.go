package ai

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"playlist-api-go/logcolors"
	"playlist-api-go/retry"

	log "github.com/sirupsen/logrus"
)

// Generation limits, overridable through ServiceConfig.
const (
	defaultMaxSongs       = 50
	defaultMaxDurationMin = 180
	minDurationMin        = 5
)

var ErrInvalidOptions = errors.New("invalid generation options")

// GeneratedPlaylist is the parsed output of a generation call.
type GeneratedPlaylist struct {
	Name     string   `json:"playlistName"`
	Songs    []string `json:"songs"` // "Artist - Title" lines
	Provider string   `json:"provider"`
}

// ServiceConfig wires a generation service from configured providers.
type ServiceConfig struct {
	Primary     Provider
	Fallback    Provider // optional
	MaxSongs    int
	MaxDuration int // minutes
}

// Service turns free-text descriptions into playlists via a primary
// provider with an optional fallback. Each provider attempt retries
// transient failures up to twice.
type Service struct {
	primary     Provider
	fallback    Provider
	retry       retry.Policy
	maxSongs    int
	maxDuration int
}

func NewService(cfg ServiceConfig) *Service {
	if cfg.MaxSongs <= 0 {
		cfg.MaxSongs = defaultMaxSongs
	}
	if cfg.MaxDuration <= 0 {
		cfg.MaxDuration = defaultMaxDurationMin
	}
	return &Service{
		primary:  cfg.Primary,
		fallback: cfg.Fallback,
		retry: retry.Policy{
			Name:       "ai",
			MaxRetries: 2,
			Retryable:  retryableErr,
		},
		maxSongs:    cfg.MaxSongs,
		maxDuration: cfg.MaxDuration,
	}
}

// GeneratePlaylist validates the request, asks the primary provider and
// falls back to the secondary when the primary is exhausted.
func (s *Service) GeneratePlaylist(ctx context.Context, description string, opts Options) (*GeneratedPlaylist, error) {
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidOptions)
	}
	if opts.SongCount == 0 && opts.DurationMinutes == 0 {
		return nil, fmt.Errorf("%w: either song count or duration must be provided", ErrInvalidOptions)
	}
	if opts.SongCount != 0 && (opts.SongCount < 1 || opts.SongCount > s.maxSongs) {
		return nil, fmt.Errorf("%w: song count must be between 1 and %d", ErrInvalidOptions, s.maxSongs)
	}
	if opts.DurationMinutes != 0 && (opts.DurationMinutes < minDurationMin || opts.DurationMinutes > s.maxDuration) {
		return nil, fmt.Errorf("%w: duration must be between %d and %d minutes", ErrInvalidOptions, minDurationMin, s.maxDuration)
	}

	messages := buildMessages(description, opts)

	content, provider, err := s.generate(ctx, messages)
	if err != nil {
		return nil, err
	}

	playlist, err := parsePlaylistResponse(content)
	if err != nil {
		return nil, err
	}
	playlist.Provider = provider

	log.Infof("%s Generated playlist %q with %d songs via %s", logcolors.LogAI, playlist.Name, len(playlist.Songs), provider)
	return playlist, nil
}

func (s *Service) generate(ctx context.Context, messages []Message) (string, string, error) {
	var content string
	err := s.retry.Do(ctx, func() error {
		var genErr error
		content, genErr = s.primary.Generate(ctx, messages)
		return genErr
	})
	if err == nil {
		return content, s.primary.Name(), nil
	}

	if s.fallback == nil || s.fallback.Name() == s.primary.Name() {
		return "", "", err
	}

	log.Warnf("%s Primary provider %s failed, trying fallback %s: %v", logcolors.LogAI, s.primary.Name(), s.fallback.Name(), err)

	fallbackErr := s.retry.Do(ctx, func() error {
		var genErr error
		content, genErr = s.fallback.Generate(ctx, messages)
		return genErr
	})
	if fallbackErr != nil {
		return "", "", fmt.Errorf("all providers failed: primary: %v, fallback: %v", err, fallbackErr)
	}
	return content, s.fallback.Name(), nil
}

var (
	numberingRe = regexp.MustCompile(`^\d+[\.\)]\s*`)
	bulletRe    = regexp.MustCompile(`^[\-\*]\s*`)
)

// parsePlaylistResponse extracts the playlist name (first non-empty
// line, unless it already looks like a song) and the "Artist - Title"
// song lines, dropping any numbering or bullets the model added anyway.
func parsePlaylistResponse(content string) (*GeneratedPlaylist, error) {
	allLines := strings.Split(content, "\n")
	for i := range allLines {
		allLines[i] = strings.TrimSpace(allLines[i])
	}

	name := "My Playlist"
	songStart := 0
	for i, line := range allLines {
		if line == "" {
			continue
		}
		if !strings.Contains(line, " - ") {
			name = line
			songStart = i + 1
		}
		break
	}

	var songs []string
	for _, line := range allLines[songStart:] {
		if line == "" {
			continue
		}
		line = numberingRe.ReplaceAllString(line, "")
		line = bulletRe.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)

		if strings.Contains(line, " - ") && len(strings.Split(line, " - ")) == 2 {
			songs = append(songs, line)
		}
	}

	if len(songs) == 0 {
		return nil, errors.New(`AI response contained no valid songs in "Artist - Title" format`)
	}

	return &GeneratedPlaylist{Name: name, Songs: songs}, nil
}
