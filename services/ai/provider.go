package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"playlist-api-go/logcolors"

	log "github.com/sirupsen/logrus"
)

const (
	openRouterURL = "https://openrouter.ai/api/v1/chat/completions"
	groqURL       = "https://api.groq.com/openai/v1/chat/completions"
	openAIURL     = "https://api.openai.com/v1/chat/completions"

	defaultOpenRouterModel = "openai/gpt-3.5-turbo"
	defaultGroqModel       = "llama-3.1-8b-instant"
	defaultOpenAIModel     = "gpt-3.5-turbo"

	generateTimeout = 30 * time.Second
)

// Provider generates text from a chat-style message list. The closed
// set of implementations is selected by configuration at startup.
type Provider interface {
	Name() string
	Generate(ctx context.Context, messages []Message) (string, error)
}

// apiError carries the upstream status so the retry policy can tell
// transient failures from permanent ones.
type apiError struct {
	provider string
	status   int
	message  string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.provider, e.status, e.message)
}

// retryableErr reports whether another attempt is worthwhile: network
// failures, rate limits and 5xx responses.
func retryableErr(err error) bool {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return apiErr.status == http.StatusTooManyRequests || apiErr.status >= 500
	}
	// Transport-level failure with no response
	return true
}

// chatProvider speaks the OpenAI-compatible chat-completions protocol
// shared by all supported providers.
type chatProvider struct {
	name       string
	url        string
	apiKey     string
	model      string
	headers    map[string]string
	httpClient *http.Client
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	TopP        float64   `json:"top_p"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (p *chatProvider) Name() string { return p.name }

func (p *chatProvider) Generate(ctx context.Context, messages []Message) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("%s API key not configured", p.name)
	}

	log.Infof("%s Calling %s API (model: %s)", logcolors.LogAI, p.name, p.model)

	body, err := json.Marshal(chatRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: 0.8,
		MaxTokens:   1500,
		TopP:        0.9,
	})
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range p.headers {
		req.Header.Set(k, v)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil && resp.StatusCode == http.StatusOK {
		return "", fmt.Errorf("%s returned malformed response: %v", p.name, err)
	}

	if resp.StatusCode != http.StatusOK {
		message := http.StatusText(resp.StatusCode)
		if parsed.Error != nil && parsed.Error.Message != "" {
			message = parsed.Error.Message
		}
		log.Errorf("%s %s API error: status %d: %s", logcolors.LogAI, p.name, resp.StatusCode, message)
		return "", &apiError{provider: p.name, status: resp.StatusCode, message: message}
	}

	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty response from %s API", p.name)
	}
	return parsed.Choices[0].Message.Content, nil
}

// ProviderConfig carries the credentials and model for one provider.
type ProviderConfig struct {
	APIKey string
	Model  string

	// ReferrerURL and AppName are sent to OpenRouter for ranking
	// attribution; other providers ignore them.
	ReferrerURL string
	AppName     string
}

func NewOpenRouter(cfg ProviderConfig) Provider {
	model := cfg.Model
	if model == "" {
		model = defaultOpenRouterModel
	}
	headers := map[string]string{}
	if cfg.ReferrerURL != "" {
		headers["HTTP-Referer"] = cfg.ReferrerURL
	}
	if cfg.AppName != "" {
		headers["X-Title"] = cfg.AppName
	}
	return &chatProvider{
		name:       "openrouter",
		url:        openRouterURL,
		apiKey:     cfg.APIKey,
		model:      model,
		headers:    headers,
		httpClient: &http.Client{},
	}
}

func NewGroq(cfg ProviderConfig) Provider {
	model := cfg.Model
	if model == "" {
		model = defaultGroqModel
	}
	return &chatProvider{
		name:       "groq",
		url:        groqURL,
		apiKey:     cfg.APIKey,
		model:      model,
		httpClient: &http.Client{},
	}
}

func NewOpenAI(cfg ProviderConfig) Provider {
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &chatProvider{
		name:       "openai",
		url:        openAIURL,
		apiKey:     cfg.APIKey,
		model:      model,
		httpClient: &http.Client{},
	}
}

// NewProvider selects from the closed provider set by name.
func NewProvider(name string, cfg ProviderConfig) (Provider, error) {
	switch name {
	case "openrouter":
		return NewOpenRouter(cfg), nil
	case "groq":
		return NewGroq(cfg), nil
	case "openai":
		return NewOpenAI(cfg), nil
	default:
		return nil, fmt.Errorf("unknown AI provider: %s", name)
	}
}
