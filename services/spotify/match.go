package spotify

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"playlist-api-go/logcolors"

	log "github.com/sirupsen/logrus"
)

// BestMatch is the top-ranked candidate for a query, annotated with a
// confidence score for UI display.
type BestMatch struct {
	ID         string   `json:"id"`
	URI        string   `json:"uri"`
	Name       string   `json:"name"`
	Artists    []string `json:"artists"`
	Album      string   `json:"album"`
	AlbumImage string   `json:"albumImage,omitempty"`
	Popularity int      `json:"popularity"`
	Confidence int      `json:"confidence"`
	PreviewURL *string  `json:"previewUrl"`
}

// Alternative is a runner-up candidate offered for manual disambiguation.
type Alternative struct {
	ID         string   `json:"id"`
	URI        string   `json:"uri"`
	Name       string   `json:"name"`
	Artists    []string `json:"artists"`
	Album      string   `json:"album"`
	PreviewURL *string  `json:"previewUrl"`
}

// MatchResult is the per-query outcome of a batch search.
type MatchResult struct {
	Query        string        `json:"query"`
	Success      bool          `json:"success"`
	BestMatch    *BestMatch    `json:"bestMatch"`
	Alternatives []Alternative `json:"alternatives"`
	Error        string        `json:"error,omitempty"`
}

// normalizeMatch lowercases, trims, folds hyphen separators to spaces
// and collapses whitespace runs, so "Artist - Title" and "artist title"
// compare equal.
func normalizeMatch(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", " ")
	return strings.Join(strings.Fields(s), " ")
}

// Confidence scores how well a candidate matches a free-text query, from
// 0 to 100. An exact combined track+artist match (in either order)
// short-circuits to 100; otherwise exact title, query word coverage and
// popularity contribute up to 50, 30 and 20 points respectively.
func Confidence(query string, track Track) int {
	q := normalizeMatch(query)
	name := normalizeMatch(track.Name)

	artistNames := make([]string, len(track.Artists))
	for i, a := range track.Artists {
		artistNames[i] = a.Name
	}
	artists := normalizeMatch(strings.Join(artistNames, " "))
	combined := name + " " + artists

	if q == combined || q == artists+" "+name {
		return 100
	}

	score := 0.0
	if name == q {
		score += 50
	}

	words := strings.Fields(q)
	if len(words) > 0 {
		matched := 0
		for _, word := range words {
			if strings.Contains(combined, word) {
				matched++
			}
		}
		score += float64(matched) / float64(len(words)) * 30
	}

	score += float64(track.Popularity) / 100 * 20

	if score > 100 {
		score = 100
	}
	return int(math.Round(score))
}

// filterAlternatives keeps up to two runner-up candidates in upstream
// order. A candidate sharing an artist with the best match must have a
// different title; same-artist same-title rereleases are dropped.
func filterAlternatives(best Track, rest []Track) []Track {
	bestArtists := make(map[string]bool, len(best.Artists))
	for _, a := range best.Artists {
		bestArtists[strings.ToLower(a.Name)] = true
	}
	bestName := strings.ToLower(best.Name)

	var alternatives []Track
	for _, track := range rest {
		sharesArtist := false
		for _, a := range track.Artists {
			if bestArtists[strings.ToLower(a.Name)] {
				sharesArtist = true
				break
			}
		}

		if sharesArtist && strings.ToLower(track.Name) == bestName {
			continue
		}

		alternatives = append(alternatives, track)
		if len(alternatives) == 2 {
			break
		}
	}
	return alternatives
}

// Resolve searches for a query and ranks the outcome into a MatchResult.
// Upstream failures are folded into the result rather than returned, so
// batch callers can treat every query independently.
func (c *Client) Resolve(ctx context.Context, token, query string) MatchResult {
	tracks, err := c.SearchTracks(ctx, token, query)
	if err != nil {
		return MatchResult{
			Query:        query,
			Success:      false,
			Error:        err.Error(),
			Alternatives: []Alternative{},
		}
	}

	if len(tracks) == 0 {
		return MatchResult{
			Query:        query,
			Success:      true,
			Alternatives: []Alternative{},
		}
	}

	best := tracks[0]
	result := MatchResult{
		Query:   query,
		Success: true,
		BestMatch: &BestMatch{
			ID:         best.ID,
			URI:        best.URI,
			Name:       best.Name,
			Artists:    artistNames(best.Artists),
			Album:      best.Album.Name,
			AlbumImage: firstImageURL(best.Album.Images),
			Popularity: best.Popularity,
			Confidence: Confidence(query, best),
			PreviewURL: best.PreviewURL,
		},
		Alternatives: []Alternative{},
	}

	for _, track := range filterAlternatives(best, tracks[1:]) {
		result.Alternatives = append(result.Alternatives, Alternative{
			ID:         track.ID,
			URI:        track.URI,
			Name:       track.Name,
			Artists:    artistNames(track.Artists),
			Album:      track.Album.Name,
			PreviewURL: track.PreviewURL,
		})
	}

	return result
}

// BatchSearch resolves queries concurrently up to the configured batch
// limit, preserving input order in the result slice. One query's
// failure never aborts the rest.
func (c *Client) BatchSearch(ctx context.Context, token string, queries []string) ([]MatchResult, error) {
	if len(queries) > c.maxBatchSize {
		return nil, fmt.Errorf("%w: batch of %d queries exceeds limit of %d", ErrInvalidRequest, len(queries), c.maxBatchSize)
	}

	log.Infof("%s Resolving %d queries", logcolors.LogBatch, len(queries))

	results := make([]MatchResult, len(queries))
	sem := make(chan struct{}, c.batchConcurrency)
	var wg sync.WaitGroup

	for i, query := range queries {
		wg.Add(1)
		go func(i int, query string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[i] = c.Resolve(ctx, token, query)
		}(i, query)
	}
	wg.Wait()

	return results, nil
}

func artistNames(artists []Artist) []string {
	names := make([]string, len(artists))
	for i, a := range artists {
		names[i] = a.Name
	}
	return names
}

func firstImageURL(images []Image) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}
