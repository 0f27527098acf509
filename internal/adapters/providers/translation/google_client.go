package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTranslateURL = "https://translation.googleapis.com/language/translate/v2"

	// maxSegments is the number of q values the v2 API accepts per request
	maxSegments = 128
)

// GoogleClient calls the Google Cloud Translation v2 REST API.
type GoogleClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewGoogleClient creates a translation client. requestsPerSecond <= 0 disables throttling.
func NewGoogleClient(apiKey, baseURL string, requestsPerSecond float64, httpClient *http.Client) (*GoogleClient, error) {
	if apiKey == "" {
		return nil, errors.New("translation api key is required")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultTranslateURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &GoogleClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, 1),
	}, nil
}

type translateRequest struct {
	Q      []string `json:"q"`
	Target string   `json:"target"`
	Format string   `json:"format"`
}

type translateResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// TranslateBatch translates texts into targetLanguage. The result is aligned with texts.
func (c *GoogleClient) TranslateBatch(ctx context.Context, texts []string, targetLanguage string) ([]string, error) {
	if len(texts) == 0 {
		return []string{}, nil
	}

	out := make([]string, 0, len(texts))
	for start := 0; start < len(texts); start += maxSegments {
		end := start + maxSegments
		if end > len(texts) {
			end = len(texts)
		}
		chunk, err := c.translateChunk(ctx, texts[start:end], targetLanguage)
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}
	return out, nil
}

func (c *GoogleClient) translateChunk(ctx context.Context, texts []string, targetLanguage string) ([]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(translateRequest{Q: texts, Target: targetLanguage, Format: "text"})
	if err != nil {
		return nil, err
	}

	reqURL := c.baseURL + "?" + url.Values{"key": []string{c.apiKey}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build translate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("translate request failed: %w", err)
	}
	defer resp.Body.Close()

	var payload translateResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&payload)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if decodeErr == nil && payload.Error != nil {
			return nil, fmt.Errorf("translate request returned status %d: %s", resp.StatusCode, payload.Error.Message)
		}
		return nil, fmt.Errorf("translate request returned status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode translate response: %w", decodeErr)
	}

	translations := payload.Data.Translations
	if len(translations) != len(texts) {
		return nil, fmt.Errorf("translate response has %d translations for %d texts", len(translations), len(texts))
	}

	out := make([]string, len(translations))
	for i, t := range translations {
		out[i] = t.TranslatedText
	}
	return out, nil
}
