package ai

import (
	"fmt"
	"math"
)

const systemPrompt = `You are a music expert and playlist curator. Your task is to generate song playlists based on user descriptions.

RULES:
1. First line: Output a catchy, creative playlist name (3-6 words max, capture the vibe)
2. Second line: Leave blank
3. Then output song list, one per line
4. Song format: "Artist - Song Title" (exactly this format)
5. Use real, popular songs that exist on Spotify
6. Match the user's requested style, mood, genre, and era
7. Ensure songs fit together cohesively
8. Prioritize well-known songs that are likely to be found on Spotify
9. Do NOT include:
   - Song explanations or descriptions
   - Numbering (1., 2., etc.)
   - Any additional text or commentary
   - Album names or years
   - Asterisks, bullets, or other formatting
10. If duration is specified, estimate ~3.5 minutes per song average
11. Provide diverse artists (avoid repeating same artist unless requested)
12. Consider the playlist flow and energy progression

OUTPUT FORMAT EXAMPLE:
Late Night Electronic Vibes

Daft Punk - One More Time
The Chemical Brothers - Block Rockin' Beats
Fatboy Slim - Right Here, Right Now
Basement Jaxx - Where's Your Head At`

// Message is one turn of a chat-completion conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options bounds the requested playlist. Exactly one of SongCount or
// DurationMinutes should be set.
type Options struct {
	SongCount       int
	DurationMinutes int
}

// averageSongMinutes is the length assumed when converting a duration
// into a song count.
const averageSongMinutes = 3.5

func buildUserPrompt(description string, opts Options) string {
	var prompt string
	if opts.DurationMinutes > 0 {
		estimated := int(math.Round(float64(opts.DurationMinutes) / averageSongMinutes))
		prompt = fmt.Sprintf("Generate a playlist that lasts approximately %d minutes.\nAssume average song length is 3.5 minutes.\nYou need approximately %d songs.\n\n", opts.DurationMinutes, estimated)
	} else {
		prompt = fmt.Sprintf("Generate a playlist with exactly %d songs.\n\n", opts.SongCount)
	}

	prompt += fmt.Sprintf("Playlist description: %s\n\nRemember: First line is the playlist name, then a blank line, then the song list in \"Artist - Title\" format.", description)
	return prompt
}

func buildMessages(description string, opts Options) []Message {
	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: buildUserPrompt(description, opts)},
	}
}
