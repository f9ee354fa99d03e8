package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/turtacn/pubconcept/internal/application/replacement"
	"github.com/turtacn/pubconcept/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/pubconcept/pkg/errors"
)

// DefaultMaxBodySize caps a replace request body.
const DefaultMaxBodySize int64 = 64 << 20

// Replacer runs the pipeline over an in-memory offset body.
type Replacer interface {
	ReplaceText(ctx context.Context, body string, expected int) ([]replacement.ReplacedArticle, *replacement.RunSummary, error)
}

// ReplaceHandler serves POST /api/v1/replace.
type ReplaceHandler struct {
	replacer    Replacer
	maxBodySize int64
	logger      logging.Logger
}

// NewReplaceHandler creates a ReplaceHandler. maxBodySize <= 0 selects
// DefaultMaxBodySize.
func NewReplaceHandler(r Replacer, maxBodySize int64, logger logging.Logger) *ReplaceHandler {
	if maxBodySize <= 0 {
		maxBodySize = DefaultMaxBodySize
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ReplaceHandler{replacer: r, maxBodySize: maxBodySize, logger: logger}
}

// ReplaceResponse is the body of a successful replace call.
type ReplaceResponse struct {
	Articles []replacement.ReplacedArticle `json:"articles"`
	Summary  *replacement.RunSummary       `json:"summary"`
}

// Replace reads an offset-format body and returns the replaced articles.
// The optional "expected" query parameter is the number of records the
// caller asked the export service for; a mismatch fails the call.
func (h *ReplaceHandler) Replace(w http.ResponseWriter, r *http.Request) {
	expected := -1
	if v := r.URL.Query().Get("expected"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeAppError(w, errors.InvalidParam("expected must be a non-negative integer").WithDetail(v), nil)
			return
		}
		expected = n
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeAppError(w, errors.Wrap(err, errors.ErrCodePayloadTooLarge, "request body too large").
				WithDetail(fmt.Sprintf("limit is %d bytes", tooLarge.Limit)), nil)
			return
		}
		writeAppError(w, errors.Wrap(err, errors.ErrCodeBadRequest, "failed to read request body"), nil)
		return
	}

	articles, summary, err := h.replacer.ReplaceText(r.Context(), string(body), expected)
	if err != nil {
		h.logger.Warn("replace request failed", logging.Err(err), logging.Int("bytes", len(body)))
		writeAppError(w, err, map[string]interface{}{"summary": summary})
		return
	}
	if articles == nil {
		articles = []replacement.ReplacedArticle{}
	}
	writeJSON(w, http.StatusOK, ReplaceResponse{Articles: articles, Summary: summary})
}

//Personal.AI order the ending
