package geolocation_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/vaccinefinder/backend/internal/adapters/cache"
	"github.com/zatekoja/vaccinefinder/backend/internal/adapters/providers/geolocation"
	"github.com/zatekoja/vaccinefinder/backend/internal/domain/entities"
)

const jongnoGeocodeBody = `{
  "status": "OK",
  "results": [{
    "formatted_address": "대한민국 서울특별시 종로구 세종대로 209",
    "address_components": [
      {"long_name": "세종대로", "types": ["political", "sublocality", "sublocality_level_4"]},
      {"long_name": "종로구", "types": ["political", "sublocality", "sublocality_level_1"]},
      {"long_name": "서울특별시", "types": ["administrative_area_level_1", "political"]},
      {"long_name": "대한민국", "types": ["country", "political"]}
    ]
  }]
}`

func TestGoogleRegionResolver_ResolveAndCache(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "ko", r.URL.Query().Get("language"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(jongnoGeocodeBody))
	}))
	defer server.Close()

	memory, err := cache.NewMemoryAdapter(16)
	require.NoError(t, err)
	resolver := geolocation.NewGoogleRegionResolverWithOptions("test-key", memory, server.URL, server.Client(), time.Hour)

	ctx := context.Background()
	region, err := resolver.Resolve(ctx, 37.5759, 126.9768)
	require.NoError(t, err)
	assert.Equal(t, entities.Region{Province: "서울특별시", District: "종로구"}, region)

	region, err = resolver.Resolve(ctx, 37.5759, 126.9768)
	require.NoError(t, err)
	assert.Equal(t, "종로구", region.District)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGoogleRegionResolver_ZeroResultsIsEmptyRegion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	}))
	defer server.Close()

	resolver := geolocation.NewGoogleRegionResolverWithOptions("test-key", nil, server.URL, server.Client(), 0)

	region, err := resolver.Resolve(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.True(t, region.IsZero())
}

func TestGoogleRegionResolver_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"denied", http.StatusOK, `{"status":"REQUEST_DENIED","error_message":"bad key"}`, "REQUEST_DENIED - bad key"},
		{"server error", http.StatusInternalServerError, `oops`, "status 500"},
		{"not json", http.StatusOK, `<html></html>`, "decode"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			resolver := geolocation.NewGoogleRegionResolverWithOptions("test-key", nil, server.URL, server.Client(), 0)

			_, err := resolver.Resolve(context.Background(), 37.5, 127.0)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestGoogleRegionResolver_RequiresAPIKey(t *testing.T) {
	resolver := geolocation.NewGoogleRegionResolver("", nil)

	_, err := resolver.Resolve(context.Background(), 37.5, 127.0)
	assert.Error(t, err)
}
