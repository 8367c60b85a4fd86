package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// stubProvider returns canned responses in sequence.
type stubProvider struct {
	name      string
	responses []string
	errs      []error
	calls     int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Generate(ctx context.Context, messages []Message) (string, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return "", errors.New("no more responses")
}

const validResponse = `Late Night Vibes

Daft Punk - One More Time
The Chemical Brothers - Block Rockin' Beats`

func TestGeneratePlaylist_ValidationErrors(t *testing.T) {
	svc := NewService(ServiceConfig{Primary: &stubProvider{name: "stub"}})
	ctx := context.Background()

	tests := []struct {
		name        string
		description string
		opts        Options
	}{
		{"empty description", "  ", Options{SongCount: 10}},
		{"no count or duration", "chill songs", Options{}},
		{"song count over limit", "chill songs", Options{SongCount: 51}},
		{"duration under minimum", "chill songs", Options{DurationMinutes: 3}},
		{"duration over limit", "chill songs", Options{DurationMinutes: 500}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GeneratePlaylist(ctx, tt.description, tt.opts)
			if !errors.Is(err, ErrInvalidOptions) {
				t.Errorf("Expected ErrInvalidOptions, got %v", err)
			}
		})
	}
}

func TestGeneratePlaylist_PrimarySuccess(t *testing.T) {
	primary := &stubProvider{name: "openrouter", responses: []string{validResponse}}
	svc := NewService(ServiceConfig{Primary: primary})

	playlist, err := svc.GeneratePlaylist(context.Background(), "electronic night drive", Options{SongCount: 10})
	if err != nil {
		t.Fatalf("Generation failed: %v", err)
	}
	if playlist.Name != "Late Night Vibes" {
		t.Errorf("Expected playlist name from first line, got %q", playlist.Name)
	}
	if len(playlist.Songs) != 2 {
		t.Errorf("Expected 2 songs, got %d", len(playlist.Songs))
	}
	if playlist.Provider != "openrouter" {
		t.Errorf("Expected provider openrouter, got %s", playlist.Provider)
	}
}

func TestGeneratePlaylist_FallbackUsedWhenPrimaryExhausted(t *testing.T) {
	permanent := &apiError{provider: "openrouter", status: 400, message: "bad request"}
	primary := &stubProvider{name: "openrouter", errs: []error{permanent}}
	fallback := &stubProvider{name: "groq", responses: []string{validResponse}}
	svc := NewService(ServiceConfig{Primary: primary, Fallback: fallback})

	playlist, err := svc.GeneratePlaylist(context.Background(), "road trip", Options{SongCount: 5})
	if err != nil {
		t.Fatalf("Expected fallback to succeed, got %v", err)
	}
	if playlist.Provider != "groq" {
		t.Errorf("Expected provider groq, got %s", playlist.Provider)
	}
	if primary.calls != 1 {
		t.Errorf("Expected 1 primary call for permanent failure, got %d", primary.calls)
	}
}

func TestGeneratePlaylist_AllProvidersFail(t *testing.T) {
	permanent := &apiError{provider: "x", status: 401, message: "unauthorized"}
	svc := NewService(ServiceConfig{
		Primary:  &stubProvider{name: "openrouter", errs: []error{permanent}},
		Fallback: &stubProvider{name: "groq", errs: []error{permanent}},
	})

	_, err := svc.GeneratePlaylist(context.Background(), "anything", Options{SongCount: 5})
	if err == nil {
		t.Fatal("Expected error when all providers fail")
	}
	if !strings.Contains(err.Error(), "all providers failed") {
		t.Errorf("Expected combined failure message, got %v", err)
	}
}

func TestGeneratePlaylist_RetriesTransientFailure(t *testing.T) {
	transient := &apiError{provider: "openrouter", status: 429, message: "rate limited"}
	primary := &stubProvider{
		name:      "openrouter",
		errs:      []error{transient, nil},
		responses: []string{"", validResponse},
	}
	svc := NewService(ServiceConfig{Primary: primary})

	playlist, err := svc.GeneratePlaylist(context.Background(), "retry me", Options{SongCount: 5})
	if err != nil {
		t.Fatalf("Expected retry to recover, got %v", err)
	}
	if primary.calls != 2 {
		t.Errorf("Expected 2 calls, got %d", primary.calls)
	}
	if playlist.Name != "Late Night Vibes" {
		t.Errorf("Unexpected playlist name %q", playlist.Name)
	}
}

func TestParsePlaylistResponse(t *testing.T) {
	tests := []struct {
		name          string
		content       string
		expectedName  string
		expectedSongs []string
		wantErr       bool
	}{
		{
			name:          "name plus songs",
			content:       "Chill Mix\n\nAdele - Hello\nColdplay - Yellow",
			expectedName:  "Chill Mix",
			expectedSongs: []string{"Adele - Hello", "Coldplay - Yellow"},
		},
		{
			name:          "first line is already a song",
			content:       "Adele - Hello\nColdplay - Yellow",
			expectedName:  "My Playlist",
			expectedSongs: []string{"Adele - Hello", "Coldplay - Yellow"},
		},
		{
			name:          "numbering and bullets stripped",
			content:       "Mix\n\n1. Adele - Hello\n2) Coldplay - Yellow\n- Oasis - Wonderwall\n* Blur - Song 2",
			expectedName:  "Mix",
			expectedSongs: []string{"Adele - Hello", "Coldplay - Yellow", "Oasis - Wonderwall", "Blur - Song 2"},
		},
		{
			name:          "invalid lines skipped",
			content:       "Mix\n\nAdele - Hello\nthis is commentary\nToo - Many - Dashes",
			expectedName:  "Mix",
			expectedSongs: []string{"Adele - Hello"},
		},
		{
			name:    "no valid songs",
			content: "Just some prose about music with no songs",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			playlist, err := parsePlaylistResponse(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if playlist.Name != tt.expectedName {
				t.Errorf("Expected name %q, got %q", tt.expectedName, playlist.Name)
			}
			if len(playlist.Songs) != len(tt.expectedSongs) {
				t.Fatalf("Expected %d songs, got %d: %v", len(tt.expectedSongs), len(playlist.Songs), playlist.Songs)
			}
			for i, song := range tt.expectedSongs {
				if playlist.Songs[i] != song {
					t.Errorf("Song %d: expected %q, got %q", i, song, playlist.Songs[i])
				}
			}
		})
	}
}

func TestBuildUserPrompt(t *testing.T) {
	byCount := buildUserPrompt("gym hype", Options{SongCount: 20})
	if !strings.Contains(byCount, "exactly 20 songs") {
		t.Errorf("Expected song count in prompt, got %q", byCount)
	}

	byDuration := buildUserPrompt("gym hype", Options{DurationMinutes: 70})
	if !strings.Contains(byDuration, "approximately 70 minutes") {
		t.Errorf("Expected duration in prompt, got %q", byDuration)
	}
	if !strings.Contains(byDuration, "approximately 20 songs") {
		t.Errorf("Expected estimated song count in prompt, got %q", byDuration)
	}
}
