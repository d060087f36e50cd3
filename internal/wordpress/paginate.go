package wordpress

import (
	"context"
	"fmt"
)

// PageFetcher retrieves a single page of questions.
type PageFetcher interface {
	FetchPage(ctx context.Context, questionType string, page, pageSize int) ([]Question, error)
}

// Paginate fetches pages starting at page 1 and accumulates their records.
// A page shorter than pageSize ends the walk; maxPages > 0 caps the number of
// pages requested. Any fetch error aborts the walk and is returned together
// with the records gathered so far.
func Paginate(ctx context.Context, f PageFetcher, questionType string, pageSize, maxPages int) ([]Question, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", pageSize)
	}

	var all []Question
	for page := 1; maxPages <= 0 || page <= maxPages; page++ {
		questions, err := f.FetchPage(ctx, questionType, page, pageSize)
		if err != nil {
			return all, fmt.Errorf("fetch page %d of %s: %w", page, questionType, err)
		}
		all = append(all, questions...)
		if len(questions) < pageSize {
			break
		}
	}
	return all, nil
}
