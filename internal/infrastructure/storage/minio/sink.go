package minio

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/pubconcept/internal/application/replacement"
	"github.com/turtacn/pubconcept/pkg/errors"
)

// ArticleSink stores each replaced article as its own object:
//
//	<prefix><run_id>/<seq>-<pmid>.txt
//
// seq is the article's zero-padded position in the run, so listing a run's
// prefix returns articles in reader order. Year and span count travel as
// user metadata.
type ArticleSink struct {
	client *Client
	bucket string
	prefix string

	mu     sync.Mutex
	seq    map[string]int
	closed bool
}

// NewArticleSink writes under the client's bucket and cfg.OutputPrefix.
func NewArticleSink(c *Client) *ArticleSink {
	return &ArticleSink{
		client: c,
		bucket: c.config.Bucket,
		prefix: c.config.OutputPrefix,
		seq:    make(map[string]int),
	}
}

func (s *ArticleSink) Name() string { return "minio" }

// ObjectKey returns the key an article at position seq of runID is stored at.
func (s *ArticleSink) ObjectKey(runID string, seq int, pmid string) string {
	return s.prefix + path.Join(runID, fmt.Sprintf("%08d-%s.txt", seq, pmid))
}

func (s *ArticleSink) Write(ctx context.Context, a replacement.ReplacedArticle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New(errors.ErrCodeSinkClosed, "minio sink is closed")
	}

	seq := s.seq[a.RunID]
	key := s.ObjectKey(a.RunID, seq, a.PMID)
	meta := map[string]string{
		"pmid":  a.PMID,
		"spans": strconv.Itoa(a.Spans),
	}
	if a.Year != "" {
		meta["year"] = a.Year
	}

	_, err := s.client.api.PutObject(ctx, s.bucket, key, strings.NewReader(a.Text), int64(len(a.Text)), minio.PutObjectOptions{
		ContentType:  "text/plain; charset=utf-8",
		UserMetadata: meta,
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSinkWriteFailed, "failed to put object").WithDetail(key)
	}
	s.seq[a.RunID] = seq + 1
	return nil
}

func (s *ArticleSink) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

var _ replacement.Sink = (*ArticleSink)(nil)

//Personal.AI order the ending
