package handler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pricofy/doc-translation-worker/internal/chunker"
	"github.com/pricofy/doc-translation-worker/internal/config"
	"github.com/pricofy/doc-translation-worker/internal/domain"
)

// translateAll translates items and returns the results in item order.
//
// Under the fail-fast policy the first failure aborts the batch and no
// results are returned. Under the partial policy failed items are skipped and
// counted.
func (h *Handler) translateAll(ctx context.Context, items []domain.TranslationItem) ([]domain.TranslationResult, int, error) {
	results := make([]domain.TranslationResult, len(items))
	done := make([]bool, len(items))

	if h.cfg.Translation.Concurrency <= 1 {
		for i, item := range items {
			res, err := h.translateItem(ctx, i, item)
			if err != nil {
				if h.partial() {
					continue
				}
				return nil, 0, err
			}
			results[i], done[i] = res, true
		}
	} else if err := h.translateWaves(ctx, items, results, done); err != nil {
		return nil, 0, err
	}

	out := make([]domain.TranslationResult, 0, len(items))
	for i := range items {
		if done[i] {
			out = append(out, results[i])
		}
	}
	return out, len(items) - len(out), nil
}

// translateWaves translates items concurrently, one token-bounded wave at a
// time. Each goroutine writes only its own index, so order is preserved.
// The wave's context is cancelled on the first failure.
func (h *Handler) translateWaves(ctx context.Context, items []domain.TranslationItem, results []domain.TranslationResult, done []bool) error {
	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = item.Text
	}

	for _, span := range chunker.SpansByTokens(texts, h.cfg.Translation.WaveTokens) {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(h.cfg.Translation.Concurrency)

		for i := span.Start; i < span.End; i++ {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				res, err := h.translateItem(gctx, i, items[i])
				if err != nil {
					if h.partial() {
						return nil
					}
					return err
				}
				results[i], done[i] = res, true
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) translateItem(ctx context.Context, i int, item domain.TranslationItem) (domain.TranslationResult, error) {
	translated, err := h.translator.Translate(ctx, item.Text, item.SourceLanguage, item.TargetLanguage)
	if err != nil {
		err = fmt.Errorf("item %d (%s→%s): %w", i, item.SourceLanguage, item.TargetLanguage, err)
		if h.partial() {
			zerolog.Ctx(ctx).Warn().Err(err).Int("index", i).Msg("Translation failed, skipping item")
		}
		return domain.TranslationResult{}, err
	}

	return domain.TranslationResult{
		OriginalText:   item.Text,
		TranslatedText: translated,
		SourceLanguage: item.SourceLanguage,
		TargetLanguage: item.TargetLanguage,
	}, nil
}

func (h *Handler) partial() bool {
	return h.cfg.Translation.FailurePolicy == config.Partial
}
