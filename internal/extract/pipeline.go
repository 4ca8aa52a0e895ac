package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/postmeta/internal/core/domain"
	apperrors "github.com/lueurxax/postmeta/internal/core/errors"
	"github.com/lueurxax/postmeta/internal/core/links"
	"github.com/lueurxax/postmeta/internal/platform/observability"
)

// Options tune the orchestrator.
type Options struct {
	Limits          domain.Limits
	VKDefaultDomain string
	VKBatchMaxCount int
}

// Pipeline picks an extraction strategy per URL and normalizes the result.
type Pipeline struct {
	extractor *Extractor
	opts      Options
	logger    *zerolog.Logger
}

func New(extractor *Extractor, opts Options, logger *zerolog.Logger) *Pipeline {
	opts.Limits = opts.Limits.WithDefaults()

	if opts.VKBatchMaxCount <= 0 {
		opts.VKBatchMaxCount = DefaultBatchMaxCount
	}

	return &Pipeline{
		extractor: extractor,
		opts:      opts,
		logger:    logger,
	}
}

// Run extracts a normalized post for rawURL.
func (p *Pipeline) Run(ctx context.Context, rawURL string) (*domain.ExtractedPost, error) {
	u, err := links.ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}

	target := u.String()
	source := links.Classify(target)
	start := time.Now()

	post, err := p.dispatch(ctx, source, target)

	observability.ExtractionDuration.WithLabelValues(string(source)).Observe(time.Since(start).Seconds())

	if err != nil {
		observability.ExtractionsTotal.WithLabelValues(string(source), observability.StatusError).Inc()
		p.logger.Error().Err(err).Str(logKeyURL, target).Str(logKeySource, string(source)).Msg("extraction failed")

		return nil, fmt.Errorf("%w: %w", apperrors.ErrExtractionFailed, err)
	}

	post = domain.Normalize(post, p.opts.Limits)

	observability.ExtractionsTotal.WithLabelValues(string(source), observability.StatusSuccess).Inc()
	observability.MediaItemsCollected.Observe(float64(len(post.MediaList)))

	p.logger.Info().
		Str(logKeyURL, target).
		Str(logKeySource, string(post.Source)).
		Int(logKeyMedia, len(post.MediaList)).
		Dur(logKeyDuration, time.Since(start)).
		Msg("extracted post metadata")

	return post, nil
}

func (p *Pipeline) dispatch(ctx context.Context, source domain.Source, target string) (*domain.ExtractedPost, error) {
	switch source {
	case domain.SourceVK:
		post, err := p.extractor.ExtractVK(ctx, target)
		if err != nil {
			return nil, err
		}

		if post != nil {
			return post, nil
		}

		observability.ExtractionsTotal.WithLabelValues(string(source), observability.StatusFallback).Inc()
		p.logger.Info().Str(logKeyURL, target).Msg("vk extraction yielded nothing, using generic extractor")

		return p.extractor.ExtractGeneric(ctx, target)
	case domain.SourceTelegram:
		return p.extractor.ExtractTelegram(ctx, target)
	default:
		return p.extractor.ExtractGeneric(ctx, target)
	}
}
