package providers

import "context"

// Translator translates short texts. Implementations never fail: on any error, or
// for blank input, the original text is returned unchanged.
type Translator interface {
	Translate(ctx context.Context, text, targetLanguage string) string
}

// BatchTranslator is the raw remote capability behind a Translator. The returned
// slice is aligned with texts.
type BatchTranslator interface {
	TranslateBatch(ctx context.Context, texts []string, targetLanguage string) ([]string, error)
}
