package kafka

import (
	"context"

	"github.com/turtacn/pubconcept/internal/application/replacement"
)

// publisher is the part of Producer the sink uses.
type publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// ArticleSink publishes one article.replaced event per article, keyed by
// PMID so that every version of an article lands on the same partition.
type ArticleSink struct {
	producer publisher
}

// NewArticleSink returns a sink over p. Closing the sink closes p.
func NewArticleSink(p publisher) *ArticleSink {
	return &ArticleSink{producer: p}
}

func (s *ArticleSink) Name() string { return "kafka" }

func (s *ArticleSink) Write(ctx context.Context, a replacement.ReplacedArticle) error {
	env, err := NewEventEnvelope(EventArticleReplaced, ArticleReplacedPayload{
		RunID: a.RunID,
		PMID:  a.PMID,
		Year:  a.Year,
		Text:  a.Text,
		Spans: a.Spans,
	})
	if err != nil {
		return err
	}
	msg, err := env.ToMessage(a.PMID)
	if err != nil {
		return err
	}
	return s.producer.Publish(ctx, msg)
}

func (s *ArticleSink) Close() error { return s.producer.Close() }

var _ replacement.Sink = (*ArticleSink)(nil)

//Personal.AI order the ending
