package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/zatekoja/vaccinefinder/backend/internal/domain/entities"
	"github.com/zatekoja/vaccinefinder/backend/internal/domain/providers"
	"github.com/zatekoja/vaccinefinder/backend/internal/infrastructure/observability"
	"github.com/zatekoja/vaccinefinder/backend/internal/matching"
	apperrors "github.com/zatekoja/vaccinefinder/backend/pkg/errors"
)

// RefreshOutcome says where the records of a snapshot came from
type RefreshOutcome string

const (
	// RefreshFetched means the registry answered for the resolved region
	RefreshFetched RefreshOutcome = "fetched"

	// RefreshMappingAbsent means the region had no administrative code and the fallback set was used
	RefreshMappingAbsent RefreshOutcome = "mapping_absent"

	// RefreshFallbackMalformed means the registry answered with an unreadable body and the fallback set was used
	RefreshFallbackMalformed RefreshOutcome = "fallback_malformed"

	// RefreshFallbackUnreachable means the region resolver or registry could not be reached and the fallback set was used
	RefreshFallbackUnreachable RefreshOutcome = "fallback_unreachable"

	// RefreshFallbackUnavailable means the fallback set itself could not be loaded; the snapshot is empty
	RefreshFallbackUnavailable RefreshOutcome = "fallback_unavailable"
)

// RefreshResult describes one completed refresh
type RefreshResult struct {
	Outcome   RefreshOutcome  `json:"outcome"`
	Region    entities.Region `json:"region"`
	Records   int             `json:"records"`
	Published bool            `json:"published"`
	Cause     error           `json:"-"`
}

// CacheStats is a summary of the published snapshot
type CacheStats struct {
	Records     int               `json:"records"`
	Outcome     string            `json:"outcome"`
	Origin      entities.Location `json:"origin"`
	RefreshedAt time.Time         `json:"refreshedAt"`
	AgeSeconds  float64           `json:"ageSeconds"`
}

// VaccineCacheService keeps an in-memory snapshot of the vaccination sites
// around the most recently requested location.
//
// Readers load the snapshot through an atomic pointer and never block on a
// refresh. A refresh that started earlier than the published snapshot's
// refresh is discarded when it finishes, so the snapshot never moves back in time.
type VaccineCacheService struct {
	resolver    providers.RegionResolver
	registry    providers.VaccineProvider
	fallback    providers.FallbackSource
	codes       entities.RegionCodeTable
	matcher     *matching.Matcher
	moveRadius  float64
	metrics     *observability.Metrics
	now         func() time.Time
	current     atomic.Pointer[matching.Snapshot]
	group       singleflight.Group
	sequence    atomic.Uint64
	publishMu   sync.Mutex
	publishedAt uint64
}

// NewVaccineCacheService creates the cache with an empty snapshot.
// fallback may be nil, in which case every failed refresh publishes an empty snapshot.
func NewVaccineCacheService(
	resolver providers.RegionResolver,
	registry providers.VaccineProvider,
	fallback providers.FallbackSource,
	codes entities.RegionCodeTable,
	matcher *matching.Matcher,
	refreshDistanceKM float64,
	metrics *observability.Metrics,
) *VaccineCacheService {
	s := &VaccineCacheService{
		resolver:   resolver,
		registry:   registry,
		fallback:   fallback,
		codes:      codes,
		matcher:    matcher,
		moveRadius: refreshDistanceKM,
		metrics:    metrics,
		now:        time.Now,
	}
	s.current.Store(matching.EmptySnapshot())
	return s
}

// Snapshot returns the currently published snapshot. It is never nil.
func (s *VaccineCacheService) Snapshot() *matching.Snapshot {
	return s.current.Load()
}

// Lookup matches a facility name against the current snapshot
func (s *VaccineCacheService) Lookup(ctx context.Context, name string) matching.MatchResult {
	result := s.matcher.Lookup(name, s.Snapshot())
	observability.RecordMatch(ctx, s.metrics, string(result.Outcome))
	return result
}

// Matcher returns the matcher used for lookups
func (s *VaccineCacheService) Matcher() *matching.Matcher {
	return s.matcher
}

// Refresh rebuilds the snapshot around the given coordinates. It never fails:
// every problem is reported through the returned outcome and logs. Concurrent
// refreshes for the same coordinates share one execution.
func (s *VaccineCacheService) Refresh(ctx context.Context, lat, lng float64) RefreshResult {
	key := fmt.Sprintf("%.4f,%.4f", lat, lng)
	// the shared execution must not be cancelled by whichever caller arrived first
	detached := context.WithoutCancel(ctx)

	value, _, _ := s.group.Do(key, func() (interface{}, error) {
		return s.refresh(detached, lat, lng), nil
	})
	return value.(RefreshResult)
}

// RefreshIfMoved refreshes when the coordinates are farther than the configured
// distance from the current snapshot's origin, or when nothing has been loaded yet.
// It reports whether a refresh ran.
func (s *VaccineCacheService) RefreshIfMoved(ctx context.Context, lat, lng float64) (RefreshResult, bool) {
	snap := s.Snapshot()
	if !snap.RefreshedAt().IsZero() {
		distance := snap.Origin().DistanceKM(entities.Location{Latitude: lat, Longitude: lng})
		if distance <= s.moveRadius {
			return RefreshResult{}, false
		}
	}
	return s.Refresh(ctx, lat, lng), true
}

func (s *VaccineCacheService) refresh(ctx context.Context, lat, lng float64) RefreshResult {
	ctx, span := observability.StartSpan(ctx, "VaccineCacheService.Refresh")
	defer span.End()

	seq := s.sequence.Add(1)
	origin := entities.Location{Latitude: lat, Longitude: lng}
	logger := observability.LoggerFromContext(ctx)

	sites, result := s.load(ctx, lat, lng)
	observability.RecordError(span, result.Cause)

	snap := matching.NewSnapshot(s.matcher.Normalizer(), sites, origin, string(result.Outcome), s.now())
	result.Records = snap.Len()
	result.Published = s.publish(seq, snap)

	event := logger.Info()
	if result.Outcome != RefreshFetched {
		event = logger.Warn()
	}
	event.
		Str("outcome", string(result.Outcome)).
		Str("province", result.Region.Province).
		Str("district", result.Region.District).
		Int("records", result.Records).
		Bool("published", result.Published).
		AnErr("cause", result.Cause).
		Msg("vaccine cache refreshed")

	observability.RecordRefresh(ctx, s.metrics, string(result.Outcome), s.Snapshot().Len())
	return result
}

// load resolves, maps and fetches, substituting the fallback set on failure
func (s *VaccineCacheService) load(ctx context.Context, lat, lng float64) ([]entities.VaccineSite, RefreshResult) {
	region, err := s.resolver.Resolve(ctx, lat, lng)
	if err != nil {
		cause := apperrors.NewProviderUnreachableError("region resolver", err)
		return s.useFallback(ctx, RefreshResult{Outcome: RefreshFallbackUnreachable, Cause: cause})
	}

	code, ok := s.codes.Lookup(region)
	if !ok {
		cause := apperrors.NewMappingAbsentError(fmt.Sprintf("no administrative code for %q %q", region.Province, region.District))
		return s.useFallback(ctx, RefreshResult{Outcome: RefreshMappingAbsent, Region: region, Cause: cause})
	}

	sites, err := s.registry.FetchByRegionCode(ctx, code)
	switch {
	case err == nil:
		return sites, RefreshResult{Outcome: RefreshFetched, Region: region}
	case errors.Is(err, providers.ErrMalformedResponse):
		cause := apperrors.NewProviderFormatError("vaccine registry", err)
		return s.useFallback(ctx, RefreshResult{Outcome: RefreshFallbackMalformed, Region: region, Cause: cause})
	default:
		cause := apperrors.NewProviderUnreachableError("vaccine registry", err)
		return s.useFallback(ctx, RefreshResult{Outcome: RefreshFallbackUnreachable, Region: region, Cause: cause})
	}
}

func (s *VaccineCacheService) useFallback(ctx context.Context, result RefreshResult) ([]entities.VaccineSite, RefreshResult) {
	if s.fallback == nil {
		result.Outcome = RefreshFallbackUnavailable
		return nil, result
	}
	sites, err := s.fallback.Load(ctx)
	if err != nil {
		result.Outcome = RefreshFallbackUnavailable
		result.Cause = errors.Join(result.Cause, err)
		return nil, result
	}
	return sites, result
}

// publish swaps in snap unless a refresh that started later has already been published
func (s *VaccineCacheService) publish(seq uint64, snap *matching.Snapshot) bool {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()
	if seq < s.publishedAt {
		return false
	}
	s.publishedAt = seq
	s.current.Store(snap)
	return true
}

// Stats summarises the current snapshot
func (s *VaccineCacheService) Stats() CacheStats {
	snap := s.Snapshot()
	stats := CacheStats{
		Records:     snap.Len(),
		Outcome:     snap.Source(),
		Origin:      snap.Origin(),
		RefreshedAt: snap.RefreshedAt(),
	}
	if !stats.RefreshedAt.IsZero() {
		stats.AgeSeconds = s.now().Sub(stats.RefreshedAt).Seconds()
	}
	return stats
}

// StartPeriodicRefresh refreshes around origin immediately and then on every
// tick around the current snapshot's origin, until ctx is cancelled.
// A non-positive interval performs only the initial refresh.
func (s *VaccineCacheService) StartPeriodicRefresh(ctx context.Context, interval time.Duration, origin entities.Location) {
	logger := observability.GetLogger()

	s.Refresh(ctx, origin.Latitude, origin.Longitude)

	if interval <= 0 {
		logger.Info().Msg("periodic vaccine cache refresh disabled")
		return
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.Info().Msg("stopping periodic vaccine cache refresh")
				return
			case <-ticker.C:
				at := s.Snapshot().Origin()
				s.Refresh(ctx, at.Latitude, at.Longitude)
			}
		}
	}()
	logger.Info().Dur("interval", interval).Msg("started periodic vaccine cache refresh")
}
