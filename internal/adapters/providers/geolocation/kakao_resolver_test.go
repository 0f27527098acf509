package geolocation_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/vaccinefinder/backend/internal/adapters/providers/geolocation"
	"github.com/zatekoja/vaccinefinder/backend/internal/domain/entities"
)

func TestKakaoRegionResolver_Resolve(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "KakaoAK kakao-key", r.Header.Get("Authorization"))
		assert.Equal(t, "127.0473", r.URL.Query().Get("x"))
		assert.Equal(t, "37.5172", r.URL.Query().Get("y"))
		_, _ = w.Write([]byte(`{"documents":[
			{"region_type":"B","region_1depth_name":"서울특별시","region_2depth_name":"강남구"},
			{"region_type":"H","region_1depth_name":"서울특별시","region_2depth_name":"강남구"}
		]}`))
	}))
	defer server.Close()

	resolver := geolocation.NewKakaoRegionResolver("kakao-key", nil, server.URL, server.Client(), 0)

	region, err := resolver.Resolve(context.Background(), 37.5172, 127.0473)
	require.NoError(t, err)
	assert.Equal(t, entities.Region{Province: "서울특별시", District: "강남구"}, region)
}

func TestKakaoRegionResolver_NoDocuments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"documents":[]}`))
	}))
	defer server.Close()

	resolver := geolocation.NewKakaoRegionResolver("kakao-key", nil, server.URL, server.Client(), 0)

	region, err := resolver.Resolve(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.True(t, region.IsZero())
}

func TestKakaoRegionResolver_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	resolver := geolocation.NewKakaoRegionResolver("kakao-key", nil, server.URL, server.Client(), 0)

	_, err := resolver.Resolve(context.Background(), 37.5, 127.0)
	assert.ErrorContains(t, err, "status 401")
}
