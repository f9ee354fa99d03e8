package repositories

import (
	"context"
	"sync"

	"github.com/turtacn/pubconcept/internal/application/replacement"
	"github.com/turtacn/pubconcept/pkg/errors"
)

// ArticleSink stores replaced articles, one row per article, numbering them
// in arrival order within each run.
type ArticleSink struct {
	repo   *ArticleRepository
	input  string
	mu     sync.Mutex
	seq    map[string]int
	closed bool
}

// NewArticleSink returns a sink over repo. input is recorded on each run.
func NewArticleSink(repo *ArticleRepository, input string) *ArticleSink {
	return &ArticleSink{repo: repo, input: input, seq: make(map[string]int)}
}

func (s *ArticleSink) Name() string { return "postgres" }

func (s *ArticleSink) Write(ctx context.Context, a replacement.ReplacedArticle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New(errors.ErrCodeSinkClosed, "postgres sink is closed")
	}

	seq, seen := s.seq[a.RunID]
	if !seen {
		if err := s.repo.CreateRun(ctx, a.RunID, s.input); err != nil {
			return err
		}
	}
	seq++
	if err := s.repo.Insert(ctx, StoredArticle{
		RunID: a.RunID,
		Seq:   seq,
		PMID:  a.PMID,
		Year:  a.Year,
		Text:  a.Text,
		Spans: a.Spans,
	}); err != nil {
		return err
	}
	s.seq[a.RunID] = seq
	return nil
}

// Close marks the sink closed. The pool is owned by the caller.
func (s *ArticleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var _ replacement.Sink = (*ArticleSink)(nil)

//Personal.AI order the ending
