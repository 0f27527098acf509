package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/zatekoja/vaccinefinder/backend/internal/domain/entities"
	"github.com/zatekoja/vaccinefinder/backend/internal/domain/providers"
	"github.com/zatekoja/vaccinefinder/backend/internal/infrastructure/observability"
	"github.com/zatekoja/vaccinefinder/backend/internal/matching"
)

// DefaultFallbackMessage is attached to facilities without matched vaccine data
const DefaultFallbackMessage = "병원에 문의해주세요"

// EnrichmentConfig holds the tunables of the enrichment pipeline
type EnrichmentConfig struct {
	FallbackMessage string

	// ResultLimit caps the number of returned facilities after enrichment. Zero keeps all.
	ResultLimit int

	// Concurrency bounds how many facilities are enriched at once.
	Concurrency int
}

// EnrichmentService attaches vaccine lists to facilities and optionally translates them
type EnrichmentService struct {
	matcher    *matching.Matcher
	aliases    matching.AliasTable
	translator providers.Translator
	cfg        EnrichmentConfig
	metrics    *observability.Metrics
}

// NewEnrichmentService creates a new enrichment service. A nil translator disables translation.
func NewEnrichmentService(
	matcher *matching.Matcher,
	aliases matching.AliasTable,
	translator providers.Translator,
	cfg EnrichmentConfig,
	metrics *observability.Metrics,
) *EnrichmentService {
	if cfg.FallbackMessage == "" {
		cfg.FallbackMessage = DefaultFallbackMessage
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.ResultLimit < 0 {
		cfg.ResultLimit = 0
	}
	return &EnrichmentService{
		matcher:    matcher,
		aliases:    aliases,
		translator: translator,
		cfg:        cfg,
		metrics:    metrics,
	}
}

// Enrich returns copies of facilities with Vaccines filled in from snap, in the
// input order. When targetLanguage is set every text field and vaccine entry is
// translated independently; a field whose translation fails keeps its original text.
// Truncation to the configured limit happens after enrichment. Input records are not modified.
// Every non-nil facility is returned unless truncated; nil entries carry no
// facility and are dropped with a warning, so the result may be shorter than
// the input even without a limit.
func (s *EnrichmentService) Enrich(ctx context.Context, facilities []*entities.Facility, snap *matching.Snapshot, targetLanguage string) []*entities.Facility {
	ctx, span := observability.StartSpan(ctx, "EnrichmentService.Enrich")
	defer span.End()

	out := make([]*entities.Facility, len(facilities))
	translate := s.translator != nil && targetLanguage != ""

	fallback := s.cfg.FallbackMessage
	if translate {
		fallback = s.translator.Translate(ctx, fallback, targetLanguage)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, facility := range facilities {
		if facility == nil {
			observability.LoggerFromContext(ctx).Warn().
				Int("index", i).
				Msg("skipping nil facility")
			continue
		}
		g.Go(func() error {
			out[i] = s.enrichOne(gctx, facility, snap, fallback, targetLanguage, translate)
			return nil
		})
	}
	_ = g.Wait()

	enriched := out[:0]
	for _, f := range out {
		if f != nil {
			enriched = append(enriched, f)
		}
	}

	if s.cfg.ResultLimit > 0 && len(enriched) > s.cfg.ResultLimit {
		enriched = enriched[:s.cfg.ResultLimit]
	}
	return enriched
}

// Match resolves name through the alias table and finds its closest vaccine site in snap
func (s *EnrichmentService) Match(ctx context.Context, name string, snap *matching.Snapshot) matching.MatchResult {
	query := s.aliases.Resolve(name)
	result := s.matcher.Lookup(query, snap)
	observability.RecordMatch(ctx, s.metrics, string(result.Outcome))

	observability.LoggerFromContext(ctx).Debug().
		Str("facility", name).
		Str("query", query).
		Str("outcome", string(result.Outcome)).
		Str("key", result.Key).
		Int("distance", result.Distance).
		Msg("facility matched against vaccine cache")

	return result
}

func (s *EnrichmentService) enrichOne(ctx context.Context, facility *entities.Facility, snap *matching.Snapshot, fallback, targetLanguage string, translate bool) *entities.Facility {
	record := facility.Clone()

	result := s.Match(ctx, record.Name, snap)

	if result.Found() && result.Site.HasVaccines() {
		record.Vaccines = append([]string(nil), result.Site.Vaccines...)
		if translate {
			for i, v := range record.Vaccines {
				record.Vaccines[i] = s.translator.Translate(ctx, v, targetLanguage)
			}
		}
	} else {
		record.Vaccines = []string{fallback}
	}

	if translate {
		record.Name = s.translator.Translate(ctx, record.Name, targetLanguage)
		record.Address = s.translator.Translate(ctx, record.Address, targetLanguage)
		record.Phone = s.translator.Translate(ctx, record.Phone, targetLanguage)
		record.Schedule = s.translator.Translate(ctx, record.Schedule, targetLanguage)
	}

	return record
}
