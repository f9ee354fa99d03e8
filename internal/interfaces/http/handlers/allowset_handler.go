package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/pubconcept/internal/application/allowset"
	"github.com/turtacn/pubconcept/internal/domain/concept"
	"github.com/turtacn/pubconcept/pkg/errors"
)

// DescriptorService resolves MeSH descriptors into allow-sets.
type DescriptorService interface {
	Check(ctx context.Context, ui string) (*concept.Descriptor, error)
	FromDescriptors(ctx context.Context, roots, categories []string) (*concept.AllowSet, error)
}

// AllowSetHandler serves descriptor lookups and allow-set expansion.
type AllowSetHandler struct {
	svc DescriptorService
}

func NewAllowSetHandler(svc DescriptorService) *AllowSetHandler {
	return &AllowSetHandler{svc: svc}
}

// ExpandRequest is the body of POST /api/v1/allowset.
type ExpandRequest struct {
	Roots      []string `json:"roots"`
	Categories []string `json:"categories,omitempty"`
}

// ExpandResponse lists the allow-set pairs in sorted order.
type ExpandResponse struct {
	Count int            `json:"count"`
	Pairs []concept.Pair `json:"pairs"`
}

// GetDescriptor handles GET /api/v1/descriptors/{ui}.
func (h *AllowSetHandler) GetDescriptor(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Check(r.Context(), chi.URLParam(r, "ui"))
	if err != nil {
		writeAppError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Expand handles POST /api/v1/allowset. "Accept: text/tab-separated-values"
// returns the allow-set file format instead of JSON.
func (h *AllowSetHandler) Expand(w http.ResponseWriter, r *http.Request) {
	var req ExpandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAppError(w, errors.Wrap(err, errors.ErrCodeBadRequest, "invalid request body"), nil)
		return
	}

	set, err := h.svc.FromDescriptors(r.Context(), req.Roots, req.Categories)
	if err != nil {
		writeAppError(w, err, nil)
		return
	}

	if r.Header.Get("Accept") == "text/tab-separated-values" {
		w.Header().Set("Content-Type", "text/tab-separated-values")
		w.WriteHeader(http.StatusOK)
		_ = allowset.WriteTSV(w, set)
		return
	}
	pairs := set.Pairs()
	writeJSON(w, http.StatusOK, ExpandResponse{Count: len(pairs), Pairs: pairs})
}

//Personal.AI order the ending
