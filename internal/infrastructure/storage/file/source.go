// Package file opens offset inputs from local paths, stdin or object storage
// and writes replaced articles as tab-separated text.
package file

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/klauspost/pgzip"

	"github.com/turtacn/pubconcept/internal/application/replacement"
	"github.com/turtacn/pubconcept/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/pubconcept/pkg/errors"
)

// StdinURI selects standard input.
const StdinURI = "-"

// ObjectOpener opens remote objects by URI.
type ObjectOpener interface {
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
}

// Router implements replacement.Source. URIs with the object scheme go to
// the object opener, "-" reads stdin, anything else is a local path. Names
// ending in ".gz" are decompressed with parallel gzip.
type Router struct {
	objects ObjectOpener
	scheme  string
	stdin   io.Reader
	logger  logging.Logger
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithObjectStore routes URIs starting with scheme to o.
func WithObjectStore(scheme string, o ObjectOpener) RouterOption {
	return func(r *Router) {
		r.scheme = scheme
		r.objects = o
	}
}

// WithStdin replaces os.Stdin.
func WithStdin(in io.Reader) RouterOption {
	return func(r *Router) { r.stdin = in }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) RouterOption {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRouter builds a Router.
func NewRouter(opts ...RouterOption) *Router {
	r := &Router{stdin: os.Stdin, logger: logging.NewNopLogger()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Open implements replacement.Source.
func (r *Router) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	var (
		rc  io.ReadCloser
		err error
	)
	switch {
	case uri == "":
		return nil, errors.InvalidParam("input is required")
	case uri == StdinURI:
		rc = io.NopCloser(r.stdin)
	case r.scheme != "" && strings.HasPrefix(uri, r.scheme):
		if r.objects == nil {
			return nil, errors.New(errors.ErrCodeSourceUnavailable, "object storage is not configured").WithDetail(uri)
		}
		rc, err = r.objects.Open(ctx, uri)
	default:
		rc, err = openLocal(uri)
	}
	if err != nil {
		return nil, err
	}

	if !strings.HasSuffix(uri, ".gz") {
		return rc, nil
	}
	zr, err := pgzip.NewReader(rc)
	if err != nil {
		rc.Close()
		return nil, errors.Wrap(err, errors.ErrCodeSourceDecode, "failed to open gzip stream").WithDetail(uri)
	}
	r.logger.Debug("Decompressing input", logging.String("input", uri))
	return &gzipReadCloser{Reader: zr, under: rc}, nil
}

func openLocal(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(err, errors.ErrCodeNotFound, "input file not found").WithDetail(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeSourceUnavailable, "failed to open input").WithDetail(path)
	}
	return f, nil
}

type gzipReadCloser struct {
	*pgzip.Reader
	under io.Closer
}

func (g *gzipReadCloser) Close() error {
	zerr := g.Reader.Close()
	if err := g.under.Close(); err != nil {
		return err
	}
	return zerr
}

var _ replacement.Source = (*Router)(nil)

//Personal.AI order the ending
