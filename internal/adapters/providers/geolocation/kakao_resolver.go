package geolocation

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/zatekoja/vaccinefinder/backend/internal/domain/entities"
	"github.com/zatekoja/vaccinefinder/backend/internal/domain/providers"
)

const kakaoRegionURL = "https://dapi.kakao.com/v2/local/geo/coord2regioncode.json"

// KakaoRegionResolver resolves coordinates with the Kakao Local
// coord2regioncode API, which answers with Korean administrative names.
type KakaoRegionResolver struct {
	apiKey     string
	httpClient *http.Client
	cache      providers.CacheProvider
	baseURL    string
	cacheTTL   time.Duration
}

// NewKakaoRegionResolver creates a Kakao region resolver. Empty baseURL and
// nil httpClient select the production endpoint and a default client.
func NewKakaoRegionResolver(apiKey string, cache providers.CacheProvider, baseURL string, httpClient *http.Client, cacheTTL time.Duration) *KakaoRegionResolver {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = kakaoRegionURL
	}
	if cacheTTL <= 0 {
		cacheTTL = defaultReverseCacheTTL
	}
	return &KakaoRegionResolver{
		apiKey:     apiKey,
		httpClient: newHTTPClient(httpClient),
		cache:      cache,
		baseURL:    baseURL,
		cacheTTL:   cacheTTL,
	}
}

// Resolve returns region_1depth_name and region_2depth_name of the first document
func (k *KakaoRegionResolver) Resolve(ctx context.Context, lat, lng float64) (entities.Region, error) {
	if k.apiKey == "" {
		return entities.Region{}, fmt.Errorf("kakao api key is required")
	}

	cacheKey := coordinateKey("geo:v3:region:kakao:", lat, lng)
	if cached, ok := cachedRegion(ctx, k.cache, cacheKey); ok {
		return entities.Region{Province: cached.Province, District: cached.District}, nil
	}

	params := url.Values{}
	params.Set("x", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("y", strconv.FormatFloat(lat, 'f', -1, 64))
	header := http.Header{}
	header.Set("Authorization", "KakaoAK "+k.apiKey)

	var payload kakaoRegionResponse
	if err := getJSON(ctx, k.httpClient, k.baseURL+"?"+params.Encode(), header, &payload); err != nil {
		return entities.Region{}, fmt.Errorf("kakao region %w", err)
	}

	if len(payload.Documents) == 0 {
		return entities.Region{}, nil
	}

	doc := payload.Documents[0]
	region := regionPayload{Province: doc.Region1DepthName, District: doc.Region2DepthName}
	storeRegion(ctx, k.cache, cacheKey, region, k.cacheTTL)

	return entities.Region{Province: region.Province, District: region.District}, nil
}

type kakaoRegionResponse struct {
	Documents []kakaoRegionDocument `json:"documents"`
}

type kakaoRegionDocument struct {
	RegionType       string `json:"region_type"`
	Region1DepthName string `json:"region_1depth_name"`
	Region2DepthName string `json:"region_2depth_name"`
}
