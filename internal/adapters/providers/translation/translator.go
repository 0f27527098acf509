package translation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/graph-gophers/dataloader/v7"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/zatekoja/vaccinefinder/backend/internal/domain/providers"
	"github.com/zatekoja/vaccinefinder/backend/internal/infrastructure/observability"
)

const (
	defaultMemoSize  = 4096
	defaultBatchWait = 5 * time.Millisecond
	defaultBatchTTL  = 10 * time.Second
	cacheKeyPrefix   = "tr:v1:"
)

type textKey struct {
	Text   string
	Target string
}

// Options configures a Translator
type Options struct {
	// MemoSize bounds the in-process memo. Zero selects a default.
	MemoSize int

	// Cache is an optional shared cache (Redis) consulted after the memo.
	Cache    providers.CacheProvider
	CacheTTL time.Duration

	// BatchWait is how long concurrent lookups are collected into one remote call.
	BatchWait time.Duration

	// BatchTimeout bounds one remote batch call. Zero selects a default.
	BatchTimeout time.Duration

	Metrics *observability.Metrics
}

// Translator turns a BatchTranslator into a providers.Translator. Concurrent
// calls are coalesced into batched remote requests, results are memoised, and
// any failure yields the original text.
type Translator struct {
	loader   *dataloader.Loader[textKey, string]
	memo     *lru.Cache[textKey, string]
	cache    providers.CacheProvider
	cacheTTL time.Duration
	metrics  *observability.Metrics
}

// NewTranslator creates a Translator on top of remote
func NewTranslator(remote providers.BatchTranslator, opts Options) (*Translator, error) {
	if remote == nil {
		return nil, errors.New("remote translator is required")
	}
	memoSize := opts.MemoSize
	if memoSize <= 0 {
		memoSize = defaultMemoSize
	}
	memo, err := lru.New[textKey, string](memoSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create translation memo: %w", err)
	}
	wait := opts.BatchWait
	if wait <= 0 {
		wait = defaultBatchWait
	}

	timeout := opts.BatchTimeout
	if timeout <= 0 {
		timeout = defaultBatchTTL
	}

	loader := dataloader.NewBatchedLoader(
		batchFunc(remote, timeout),
		dataloader.WithWait[textKey, string](wait),
		dataloader.WithBatchCapacity[textKey, string](maxSegments),
		dataloader.WithCache[textKey, string](&dataloader.NoCache[textKey, string]{}),
	)

	return &Translator{
		loader:   loader,
		memo:     memo,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		metrics:  opts.Metrics,
	}, nil
}

// Translate returns text in targetLanguage, or text unchanged when it is blank,
// no target is given, or translation fails.
func (t *Translator) Translate(ctx context.Context, text, targetLanguage string) string {
	if strings.TrimSpace(text) == "" || strings.TrimSpace(targetLanguage) == "" {
		return text
	}

	key := textKey{Text: text, Target: targetLanguage}
	if translated, ok := t.memo.Get(key); ok {
		return translated
	}

	if t.cache != nil {
		if cached, err := t.cache.Get(ctx, cacheKey(key)); err == nil {
			translated := string(cached)
			t.memo.Add(key, translated)
			return translated
		}
	}

	translated, err := t.load(ctx, key)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Str("outcome", "translation_failed").
			Str("target_lang", targetLanguage).
			Msg("translation failed, keeping original text")
		observability.RecordTranslationFailure(ctx, t.metrics, targetLanguage)
		return text
	}

	t.memo.Add(key, translated)
	if t.cache != nil {
		_ = t.cache.Set(ctx, cacheKey(key), []byte(translated), int(t.cacheTTL.Seconds()))
	}
	return translated
}

type loadResult struct {
	text string
	err  error
}

// load waits for the batched result or the caller's own cancellation. The
// batch runs detached from ctx because it is shared with other callers.
func (t *Translator) load(ctx context.Context, key textKey) (string, error) {
	thunk := t.loader.Load(context.WithoutCancel(ctx), key)

	done := make(chan loadResult, 1)
	go func() {
		text, err := thunk()
		done <- loadResult{text: text, err: err}
	}()

	select {
	case r := <-done:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// batchFunc groups keys by target language and issues one remote call per language
func batchFunc(remote providers.BatchTranslator, timeout time.Duration) dataloader.BatchFunc[textKey, string] {
	return func(ctx context.Context, keys []textKey) []*dataloader.Result[string] {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		results := make([]*dataloader.Result[string], len(keys))

		byTarget := make(map[string][]int)
		var order []string
		for i, key := range keys {
			if _, seen := byTarget[key.Target]; !seen {
				order = append(order, key.Target)
			}
			byTarget[key.Target] = append(byTarget[key.Target], i)
		}

		for _, target := range order {
			indexes := byTarget[target]
			texts := make([]string, len(indexes))
			for j, idx := range indexes {
				texts[j] = keys[idx].Text
			}

			translated, err := translateAligned(ctx, remote, texts, target)
			if err != nil && len(texts) > 1 {
				// one bad text must not cost the rest of the batch their translation
				for j, idx := range indexes {
					single, singleErr := translateAligned(ctx, remote, texts[j:j+1], target)
					if singleErr != nil {
						results[idx] = &dataloader.Result[string]{Error: singleErr}
					} else {
						results[idx] = &dataloader.Result[string]{Data: single[0]}
					}
				}
				continue
			}

			for j, idx := range indexes {
				if err != nil {
					results[idx] = &dataloader.Result[string]{Error: err}
				} else {
					results[idx] = &dataloader.Result[string]{Data: translated[j]}
				}
			}
		}
		return results
	}
}

func translateAligned(ctx context.Context, remote providers.BatchTranslator, texts []string, target string) ([]string, error) {
	translated, err := remote.TranslateBatch(ctx, texts, target)
	if err != nil {
		return nil, err
	}
	if len(translated) != len(texts) {
		return nil, fmt.Errorf("translator returned %d results for %d texts", len(translated), len(texts))
	}
	return translated, nil
}

func cacheKey(key textKey) string {
	sum := sha256.Sum256([]byte(key.Text))
	return cacheKeyPrefix + key.Target + ":" + hex.EncodeToString(sum[:])
}

// Noop is a providers.Translator that always returns the input unchanged
type Noop struct{}

// Translate returns text unchanged
func (Noop) Translate(_ context.Context, text, _ string) string {
	return text
}
