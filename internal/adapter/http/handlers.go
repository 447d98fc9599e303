package http

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/fire-hotspot-etl/internal/dashboard"
	"github.com/couchcryptid/fire-hotspot-etl/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

// Sort orders accepted by the detections endpoint.
const (
	SortAcquired   = "acquired"
	SortBrightness = "brightness"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// selection is the filter shared by every data endpoint. region may repeat;
// no region means all regions.
type selection struct {
	Regions []string `validate:"max=32,dive,required,max=64"`
	Limit   int      `validate:"min=0,max=100000"`
	Sort    string   `validate:"omitempty,oneof=acquired brightness"`
}

type handler struct {
	source     DetectionSource
	classifier *domain.RegionClassifier
	logger     *slog.Logger
}

type regionsResponse struct {
	Table   []domain.RegionDefinition `json:"table"`
	Present []string                  `json:"present"`
}

type detectionsResponse struct {
	Count      int                `json:"count"`
	UpdatedAt  *time.Time         `json:"updated_at,omitempty"`
	Detections []domain.Detection `json:"detections"`
}

type summaryResponse struct {
	domain.Summary
	Selected  []string   `json:"selected"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func (h *handler) regions(w http.ResponseWriter, r *http.Request) {
	all := h.source.Detections(r.Context())
	h.writeJSON(w, http.StatusOK, regionsResponse{
		Table:   h.classifier.Regions(),
		Present: domain.RegionNames(all),
	})
}

func (h *handler) detections(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.parseSelection(w, r)
	if !ok {
		return
	}
	selected := h.selected(r, sel)

	// The snapshot is already in acquisition order.
	if sel.Sort == SortBrightness {
		slices.SortStableFunc(selected, func(a, b domain.Detection) int {
			return cmp.Compare(b.Brightness, a.Brightness)
		})
	}
	if sel.Limit > 0 && len(selected) > sel.Limit {
		selected = selected[:sel.Limit]
	}

	h.writeJSON(w, http.StatusOK, detectionsResponse{
		Count:      len(selected),
		UpdatedAt:  h.updatedAt(),
		Detections: selected,
	})
}

func (h *handler) geojson(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.parseSelection(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	h.encode(w, http.StatusOK, dashboard.BuildFeatureCollection(h.selected(r, sel)))
}

func (h *handler) summary(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.parseSelection(w, r)
	if !ok {
		return
	}
	selected := sel.Regions
	if selected == nil {
		selected = []string{}
	}
	h.writeJSON(w, http.StatusOK, summaryResponse{
		Summary:   h.classifier.Summarize(h.selected(r, sel)),
		Selected:  selected,
		UpdatedAt: h.updatedAt(),
	})
}

func (h *handler) viewport(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.parseSelection(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, domain.EstimateViewport(domain.PointsOf(h.selected(r, sel))))
}

func (h *handler) deck(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.parseSelection(w, r)
	if !ok {
		return
	}
	selected := h.selected(r, sel)
	vp := domain.EstimateViewport(domain.PointsOf(selected))
	h.writeJSON(w, http.StatusOK, dashboard.BuildDeck(selected, vp))
}

// selected returns the region-filtered snapshot, never nil.
func (h *handler) selected(r *http.Request, sel selection) []domain.Detection {
	out := domain.FilterByRegions(h.source.Detections(r.Context()), sel.Regions)
	if out == nil {
		return []domain.Detection{}
	}
	return out
}

func (h *handler) updatedAt() *time.Time {
	t := h.source.LastUpdated()
	if t.IsZero() {
		return nil
	}
	return &t
}

// parseSelection reads and validates the query string, writing a 400 on failure.
func (h *handler) parseSelection(w http.ResponseWriter, r *http.Request) (selection, bool) {
	q := r.URL.Query()
	var sel selection

	for _, v := range q["region"] {
		if v = strings.TrimSpace(v); v != "" {
			sel.Regions = append(sel.Regions, v)
		}
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw))
			return selection{}, false
		}
		sel.Limit = n
	}
	sel.Sort = q.Get("sort")

	if err := validate.Struct(sel); err != nil {
		h.writeError(w, http.StatusBadRequest, validationMessage(err))
		return selection{}, false
	}
	return sel, true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		if fe.Param() != "" {
			msgs[i] = fmt.Sprintf("%s: failed %s=%s", strings.ToLower(fe.Field()), fe.Tag(), fe.Param())
		} else {
			msgs[i] = fmt.Sprintf("%s: failed %s", strings.ToLower(fe.Field()), fe.Tag())
		}
	}
	return strings.Join(msgs, "; ")
}

func (h *handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	h.encode(w, status, v)
}

// encode marshals v before the status line is written; a value that cannot
// be encoded is answered with 500.
func (h *handler) encode(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("encode response failed", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to encode response"}` + "\n"))
		return
	}
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		h.logger.Debug("write response failed", "error", err)
	}
}
