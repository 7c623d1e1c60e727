package testsupport

import (
	"context"
	"fmt"
	"sync"

	"winelens/internal/search"
)

// StubSearcher is a scripted search.Searcher.
type StubSearcher struct {
	// Hits answers Search by exact query.
	Hits map[string][]search.Hit
	// Batch answers BatchSearch by exact query.
	Batch map[string]search.Hit
	// Err, when set, fails every call.
	Err error
	// Block makes every call wait for its context to end.
	Block bool

	mu         sync.Mutex
	queries    []string
	batchCalls [][]string
}

var _ search.Searcher = (*StubSearcher)(nil)

func (s *StubSearcher) Search(ctx context.Context, query string, _ search.Filters) ([]search.Hit, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Hits[query], nil
}

func (s *StubSearcher) BatchSearch(ctx context.Context, queries []string) (map[string]search.Hit, error) {
	s.mu.Lock()
	s.batchCalls = append(s.batchCalls, append([]string(nil), queries...))
	s.mu.Unlock()
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}
	out := make(map[string]search.Hit)
	for _, q := range queries {
		if hit, ok := s.Batch[q]; ok {
			out[q] = hit
		}
	}
	return out, nil
}

func (s *StubSearcher) wait(ctx context.Context) error {
	if !s.Block {
		return nil
	}
	<-ctx.Done()
	return fmt.Errorf("stub search: %w", ctx.Err())
}

// Queries returns the single-search queries received so far.
func (s *StubSearcher) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

// BatchCalls returns the query groups received by BatchSearch.
func (s *StubSearcher) BatchCalls() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.batchCalls))
	copy(out, s.batchCalls)
	return out
}
