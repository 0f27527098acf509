package geolocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/zatekoja/vaccinefinder/backend/internal/domain/providers"
)

const defaultHTTPTimeout = 8 * time.Second

func newHTTPClient(client *http.Client) *http.Client {
	if client != nil {
		return client
	}
	return &http.Client{Timeout: defaultHTTPTimeout}
}

// getJSON issues a GET request and decodes a JSON body into out
func getJSON(ctx context.Context, client *http.Client, reqURL string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("request returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func hashKey(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// coordinateKey rounds to roughly 10 m so nearby requests share a cache entry
func coordinateKey(prefix string, lat, lng float64) string {
	return prefix + hashKey(fmt.Sprintf("%.4f,%.4f", lat, lng))
}

func cachedRegion(ctx context.Context, cache providers.CacheProvider, key string) (regionPayload, bool) {
	var region regionPayload
	if cache == nil {
		return region, false
	}
	cached, err := cache.Get(ctx, key)
	if err != nil || len(cached) == 0 {
		return region, false
	}
	if err := json.Unmarshal(cached, &region); err != nil {
		return region, false
	}
	return region, true
}

func storeRegion(ctx context.Context, cache providers.CacheProvider, key string, region regionPayload, ttl time.Duration) {
	if cache == nil {
		return
	}
	if payload, err := json.Marshal(region); err == nil {
		_ = cache.Set(ctx, key, payload, int(ttl.Seconds()))
	}
}

type regionPayload struct {
	Province string `json:"province"`
	District string `json:"district"`
}
