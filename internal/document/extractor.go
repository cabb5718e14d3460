package document

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/nikhilbhutani/wordcount/pkg/textextract"
)

type TextExtractor interface {
	Extract(ctx context.Context, data io.ReaderAt, size int64, fileType string) (*textextract.ExtractedText, error)
	SupportedTypes() []string
}

type extractor struct {
	logger *zap.Logger
}

func NewTextExtractor(logger *zap.Logger) TextExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &extractor{logger: logger.With(zap.String("component", "document"))}
}

func (e *extractor) Extract(ctx context.Context, data io.ReaderAt, size int64, fileType string) (*textextract.ExtractedText, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := textextract.Extract(data, size, fileType)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}

	e.logger.Debug("text extracted",
		zap.String("kind", string(result.Kind)),
		zap.Int("pages", result.Pages),
		zap.Int("bytes", len(result.Content)),
	)
	return result, nil
}

func (e *extractor) SupportedTypes() []string {
	return textextract.SupportedTypes()
}
