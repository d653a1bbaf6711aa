package testhelpers

import (
	"context"
	"iter"
	"sync"

	"github.com/jonesrussell/north-cloud/headlines/internal/domain"
)

// StaticFetcher returns Body, or Err when set, and counts calls.
type StaticFetcher struct {
	mu    sync.Mutex
	Body  []byte
	Err   error
	Calls int
}

func (f *StaticFetcher) Fetch(_ context.Context, _ string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Body, nil
}

// StaticExtractor yields Candidates regardless of input.
type StaticExtractor struct {
	Candidates []domain.Candidate
}

func (x StaticExtractor) Extract(_ []byte) iter.Seq[domain.Candidate] {
	return func(yield func(domain.Candidate) bool) {
		for _, c := range x.Candidates {
			if !yield(c) {
				return
			}
		}
	}
}
