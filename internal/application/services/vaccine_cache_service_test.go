package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/vaccinefinder/backend/internal/application/services"
	"github.com/zatekoja/vaccinefinder/backend/internal/domain/entities"
	"github.com/zatekoja/vaccinefinder/backend/internal/domain/providers"
	"github.com/zatekoja/vaccinefinder/backend/internal/matching"
	apperrors "github.com/zatekoja/vaccinefinder/backend/pkg/errors"
)

func newMatcher() *matching.Matcher {
	return matching.NewMatcher(matching.NewNormalizer(matching.DefaultSuffixes), matching.DefaultMaxDistance)
}

func newCache(resolver providers.RegionResolver, registry providers.VaccineProvider, fallback providers.FallbackSource) *services.VaccineCacheService {
	return services.NewVaccineCacheService(resolver, registry, fallback, testCodes, newMatcher(), 1.0, nil)
}

func TestVaccineCacheService_InitiallyEmpty(t *testing.T) {
	cache := newCache(new(MockRegionResolver), new(MockVaccineProvider), nil)

	snap := cache.Snapshot()
	require.NotNil(t, snap)
	assert.True(t, snap.IsEmpty())
	assert.Equal(t, matching.OutcomeNoCandidates, cache.Lookup(context.Background(), "서울병원").Outcome)
}

func TestVaccineCacheService_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("fetched records replace the snapshot", func(t *testing.T) {
		resolver := new(MockRegionResolver)
		registry := new(MockVaccineProvider)
		fallback := new(MockFallbackSource)
		resolver.On("Resolve", mock.Anything, 37.57, 126.98).Return(jongno, nil)
		registry.On("FetchByRegionCode", mock.Anything, jongnoCode).Return([]entities.VaccineSite{
			{CenterName: "서울병원", Vaccines: []string{"화이자"}},
			{CenterName: "종로 의원", Vaccines: []string{"모더나"}},
		}, nil)

		cache := newCache(resolver, registry, fallback)
		result := cache.Refresh(ctx, 37.57, 126.98)

		assert.Equal(t, services.RefreshFetched, result.Outcome)
		assert.Equal(t, jongno, result.Region)
		assert.Equal(t, 2, result.Records)
		assert.True(t, result.Published)
		assert.NoError(t, result.Cause)
		assert.Equal(t, []string{"서울", "종로"}, cache.Snapshot().Keys())
		assert.Equal(t, "fetched", cache.Snapshot().Source())
		fallback.AssertNotCalled(t, "Load", mock.Anything)
	})

	t.Run("mapping absent uses the fallback set", func(t *testing.T) {
		resolver := new(MockRegionResolver)
		registry := new(MockVaccineProvider)
		fallback := new(MockFallbackSource)
		resolver.On("Resolve", mock.Anything, 35.16, 129.16).Return(haeundae, nil)
		fallback.On("Load", mock.Anything).Return(fallbackSites, nil)

		cache := newCache(resolver, registry, fallback)
		result := cache.Refresh(ctx, 35.16, 129.16)

		assert.Equal(t, services.RefreshMappingAbsent, result.Outcome)
		assert.True(t, apperrors.IsType(result.Cause, apperrors.ErrorTypeMappingAbsent))
		assert.Equal(t, []string{"샘플"}, cache.Snapshot().Keys())
		registry.AssertNotCalled(t, "FetchByRegionCode", mock.Anything, mock.Anything)
	})

	t.Run("malformed and unreachable are distinct fallback outcomes", func(t *testing.T) {
		testCases := []struct {
			name    string
			err     error
			outcome services.RefreshOutcome
			errType apperrors.ErrorType
		}{
			{"malformed", fmt.Errorf("%w: received XML", providers.ErrMalformedResponse), services.RefreshFallbackMalformed, apperrors.ErrorTypeProviderFormat},
			{"unreachable", fmt.Errorf("%w: timeout", providers.ErrProviderUnreachable), services.RefreshFallbackUnreachable, apperrors.ErrorTypeProviderUnreachable},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				resolver := new(MockRegionResolver)
				registry := new(MockVaccineProvider)
				fallback := new(MockFallbackSource)
				resolver.On("Resolve", mock.Anything, mock.Anything, mock.Anything).Return(jongno, nil)
				registry.On("FetchByRegionCode", mock.Anything, jongnoCode).Return(nil, tc.err)
				fallback.On("Load", mock.Anything).Return(fallbackSites, nil)

				cache := newCache(resolver, registry, fallback)
				result := cache.Refresh(ctx, 37.57, 126.98)

				assert.Equal(t, tc.outcome, result.Outcome)
				assert.True(t, apperrors.IsType(result.Cause, tc.errType))
				assert.Equal(t, 1, cache.Snapshot().Len())
				assert.Equal(t, string(tc.outcome), cache.Stats().Outcome)
			})
		}
	})

	t.Run("resolver failure is unreachable", func(t *testing.T) {
		resolver := new(MockRegionResolver)
		fallback := new(MockFallbackSource)
		resolver.On("Resolve", mock.Anything, mock.Anything, mock.Anything).Return(entities.Region{}, errors.New("dial tcp: timeout"))
		fallback.On("Load", mock.Anything).Return(fallbackSites, nil)

		cache := newCache(resolver, new(MockVaccineProvider), fallback)
		result := cache.Refresh(ctx, 37.57, 126.98)

		assert.Equal(t, services.RefreshFallbackUnreachable, result.Outcome)
		assert.Equal(t, 1, result.Records)
	})

	t.Run("fallback failure leaves the snapshot empty", func(t *testing.T) {
		resolver := new(MockRegionResolver)
		registry := new(MockVaccineProvider)
		fallback := new(MockFallbackSource)
		resolver.On("Resolve", mock.Anything, mock.Anything, mock.Anything).Return(jongno, nil)
		registry.On("FetchByRegionCode", mock.Anything, jongnoCode).Return(nil, providers.ErrProviderUnreachable)
		fallback.On("Load", mock.Anything).Return(nil, errors.New("sample missing"))

		cache := newCache(resolver, registry, fallback)
		result := cache.Refresh(ctx, 37.57, 126.98)

		assert.Equal(t, services.RefreshFallbackUnavailable, result.Outcome)
		assert.True(t, cache.Snapshot().IsEmpty())
		assert.False(t, cache.Snapshot().RefreshedAt().IsZero())
		assert.ErrorContains(t, result.Cause, "sample missing")
	})

	t.Run("missing fallback source leaves the snapshot empty", func(t *testing.T) {
		resolver := new(MockRegionResolver)
		resolver.On("Resolve", mock.Anything, mock.Anything, mock.Anything).Return(haeundae, nil)

		cache := newCache(resolver, new(MockVaccineProvider), nil)
		result := cache.Refresh(ctx, 35.16, 129.16)

		assert.Equal(t, services.RefreshFallbackUnavailable, result.Outcome)
		assert.True(t, cache.Snapshot().IsEmpty())
	})
}

func TestVaccineCacheService_RefreshLeavesNoStaleEntries(t *testing.T) {
	ctx := context.Background()
	resolver := new(MockRegionResolver)
	registry := new(MockVaccineProvider)
	resolver.On("Resolve", mock.Anything, mock.Anything, mock.Anything).Return(jongno, nil)
	registry.On("FetchByRegionCode", mock.Anything, jongnoCode).Return([]entities.VaccineSite{
		{CenterName: "가나병원", Vaccines: []string{"a"}},
		{CenterName: "다라병원", Vaccines: []string{"b"}},
	}, nil).Once()
	registry.On("FetchByRegionCode", mock.Anything, jongnoCode).Return([]entities.VaccineSite{
		{CenterName: "마바병원", Vaccines: []string{"c"}},
	}, nil).Once()

	cache := newCache(resolver, registry, nil)
	cache.Refresh(ctx, 37.57, 126.98)
	before := cache.Snapshot()
	cache.Refresh(ctx, 37.58, 126.98)

	assert.Equal(t, []string{"마바"}, cache.Snapshot().Keys())
	assert.Equal(t, []string{"가나", "다라"}, before.Keys(), "earlier snapshots stay intact")
}

func TestVaccineCacheService_LookupScenarios(t *testing.T) {
	ctx := context.Background()
	resolver := new(MockRegionResolver)
	registry := new(MockVaccineProvider)
	resolver.On("Resolve", mock.Anything, mock.Anything, mock.Anything).Return(jongno, nil)
	registry.On("FetchByRegionCode", mock.Anything, jongnoCode).Return([]entities.VaccineSite{
		{CenterName: "서울병원", Vaccines: []string{"화이자"}},
	}, nil)

	cache := newCache(resolver, registry, nil)
	cache.Refresh(ctx, 37.57, 126.98)

	result := cache.Lookup(ctx, "서울 병원")
	require.True(t, result.Found())
	assert.Equal(t, []string{"화이자"}, result.Site.Vaccines)

	result = cache.Lookup(ctx, "완전히 다른 이름의 기관")
	assert.Equal(t, matching.OutcomeBeyondCutoff, result.Outcome)
}

func TestVaccineCacheService_RefreshIfMoved(t *testing.T) {
	ctx := context.Background()
	resolver := new(MockRegionResolver)
	registry := new(MockVaccineProvider)
	resolver.On("Resolve", mock.Anything, mock.Anything, mock.Anything).Return(jongno, nil)
	registry.On("FetchByRegionCode", mock.Anything, jongnoCode).Return([]entities.VaccineSite{}, nil)

	cache := newCache(resolver, registry, nil)

	_, ran := cache.RefreshIfMoved(ctx, 37.5665, 126.9780)
	assert.True(t, ran, "nothing loaded yet")

	_, ran = cache.RefreshIfMoved(ctx, 37.5670, 126.9785)
	assert.False(t, ran, "within the refresh distance")

	_, ran = cache.RefreshIfMoved(ctx, 37.4979, 127.0276)
	assert.True(t, ran, "moved across town")
	assert.InDelta(t, 37.4979, cache.Snapshot().Origin().Latitude, 1e-9)

	registry.AssertNumberOfCalls(t, "FetchByRegionCode", 2)
}

// blockingRegistry blocks fetches for one district until released
type blockingRegistry struct {
	calls    atomic.Int32
	blockFor string
	entered  chan struct{}
	release  chan struct{}
}

func (b *blockingRegistry) FetchByRegionCode(ctx context.Context, code entities.RegionCode) ([]entities.VaccineSite, error) {
	b.calls.Add(1)
	if code.DistrictCode == b.blockFor {
		b.entered <- struct{}{}
		<-b.release
	}
	return []entities.VaccineSite{{CenterName: "site-" + code.DistrictCode, Vaccines: []string{"v"}}}, nil
}

func TestVaccineCacheService_ConcurrentRefreshesForSameOriginCollapse(t *testing.T) {
	resolver := new(MockRegionResolver)
	resolver.On("Resolve", mock.Anything, mock.Anything, mock.Anything).Return(jongno, nil)
	registry := &blockingRegistry{blockFor: "11110", entered: make(chan struct{}, 1), release: make(chan struct{})}

	cache := newCache(resolver, registry, nil)

	var wg sync.WaitGroup
	results := make([]services.RefreshResult, 3)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0] = cache.Refresh(context.Background(), 37.57, 126.98)
	}()
	<-registry.entered

	for i := 1; i < 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = cache.Refresh(context.Background(), 37.57, 126.98)
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(registry.release)
	wg.Wait()

	assert.Equal(t, int32(1), registry.calls.Load())
	for _, r := range results {
		assert.Equal(t, services.RefreshFetched, r.Outcome)
	}
}

func TestVaccineCacheService_SlowEarlierRefreshIsDiscarded(t *testing.T) {
	resolver := new(MockRegionResolver)
	resolver.On("Resolve", mock.Anything, 1.0, 1.0).Return(jongno, nil)
	resolver.On("Resolve", mock.Anything, 2.0, 2.0).Return(gangnam, nil)
	registry := &blockingRegistry{blockFor: "11110", entered: make(chan struct{}, 1), release: make(chan struct{})}

	cache := newCache(resolver, registry, nil)

	slow := make(chan services.RefreshResult, 1)
	go func() { slow <- cache.Refresh(context.Background(), 1.0, 1.0) }()
	<-registry.entered

	fast := cache.Refresh(context.Background(), 2.0, 2.0)
	require.True(t, fast.Published)

	close(registry.release)
	slowResult := <-slow

	assert.False(t, slowResult.Published)
	assert.Equal(t, []string{"site11680"}, cache.Snapshot().Keys())
}

// generationRegistry returns a full generation of sites per call, all sharing a prefix
type generationRegistry struct {
	generation atomic.Int32
}

func (g *generationRegistry) FetchByRegionCode(ctx context.Context, code entities.RegionCode) ([]entities.VaccineSite, error) {
	gen := g.generation.Add(1)
	sites := make([]entities.VaccineSite, 20)
	for i := range sites {
		sites[i] = entities.VaccineSite{CenterName: fmt.Sprintf("gen%dx%02d", gen, i), Vaccines: []string{"v"}}
	}
	return sites, nil
}

func TestVaccineCacheService_ReadersNeverSeePartialSnapshots(t *testing.T) {
	resolver := new(MockRegionResolver)
	resolver.On("Resolve", mock.Anything, mock.Anything, mock.Anything).Return(jongno, nil)
	cache := newCache(resolver, &generationRegistry{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	var violations atomic.Int32
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				keys := cache.Snapshot().Keys()
				if len(keys) == 0 {
					continue
				}
				if len(keys) != 20 {
					violations.Add(1)
					continue
				}
				prefix := keys[0][:strings.Index(keys[0], "x")]
				for _, k := range keys {
					if !strings.HasPrefix(k, prefix+"x") {
						violations.Add(1)
						break
					}
				}
			}
		}()
	}

	for i := 0; i < 50; i++ {
		cache.Refresh(context.Background(), 37.57+float64(i)*0.01, 126.98)
	}
	cancel()
	wg.Wait()

	assert.Equal(t, int32(0), violations.Load())
}

func TestVaccineCacheService_StartPeriodicRefresh(t *testing.T) {
	resolver := new(MockRegionResolver)
	resolver.On("Resolve", mock.Anything, mock.Anything, mock.Anything).Return(jongno, nil)
	registry := &generationRegistry{}
	cache := newCache(resolver, registry, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	origin := entities.Location{Latitude: 37.5665, Longitude: 126.9780}
	cache.StartPeriodicRefresh(ctx, 10*time.Millisecond, origin)

	assert.Equal(t, int32(1), registry.generation.Load(), "initial refresh runs synchronously")
	assert.Eventually(t, func() bool { return registry.generation.Load() >= 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, origin, cache.Snapshot().Origin())
}

func TestVaccineCacheService_Stats(t *testing.T) {
	resolver := new(MockRegionResolver)
	resolver.On("Resolve", mock.Anything, mock.Anything, mock.Anything).Return(jongno, nil)
	cache := newCache(resolver, &generationRegistry{}, nil)

	assert.Equal(t, 0, cache.Stats().Records)
	assert.True(t, cache.Stats().RefreshedAt.IsZero())

	cache.Refresh(context.Background(), 37.57, 126.98)

	stats := cache.Stats()
	assert.Equal(t, 20, stats.Records)
	assert.Equal(t, "fetched", stats.Outcome)
	assert.GreaterOrEqual(t, stats.AgeSeconds, 0.0)
}
