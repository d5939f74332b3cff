package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/okian/huntboard/internal/domain/model"
	"github.com/okian/huntboard/internal/domain/timefmt"
	"github.com/okian/huntboard/pkg/errs"
)

// IdempotencyHeader carries the client's key for POST /entries.
const IdempotencyHeader = "Idempotency-Key"

// maxBodyBytes caps admin request bodies.
const maxBodyBytes = 1 << 16

// EntriesHandler serves the admin entry commands.
type EntriesHandler struct {
	deps Dependencies
}

// NewEntriesHandler creates a new entries handler.
func NewEntriesHandler(deps Dependencies) *EntriesHandler {
	return &EntriesHandler{deps: deps}
}

// entryRequest accepts either time_taken or the hours/minutes/seconds form.
type entryRequest struct {
	TeamName   string     `json:"team_name"`
	Year       model.Year `json:"year"`
	Department string     `json:"department"`
	TimeTaken  *int       `json:"time_taken,omitempty"`
	Hours      *int       `json:"hours,omitempty"`
	Minutes    *int       `json:"minutes,omitempty"`
	Seconds    *int       `json:"seconds,omitempty"`
}

func (e entryRequest) toNewEntry() (model.NewEntry, error) {
	const op = "api.entry_request"
	out := model.NewEntry{
		TeamName:   strings.TrimSpace(e.TeamName),
		Year:       e.Year,
		Department: e.Department,
	}
	parts := e.Hours != nil || e.Minutes != nil || e.Seconds != nil
	switch {
	case e.TimeTaken != nil && parts:
		return out, errs.WrapKind(op, ErrBadRequest, errBothForms)
	case e.TimeTaken != nil:
		out.TimeTaken = *e.TimeTaken
	case parts:
		h, m, s := deref(e.Hours), deref(e.Minutes), deref(e.Seconds)
		if h < 0 || h > model.MaxTimeTaken/3600 || m < 0 || m > 59 || s < 0 || s > 59 {
			return out, errs.WrapKind(op, ErrBadRequest, errPartsRange)
		}
		out.TimeTaken = timefmt.FromParts(h, m, s)
	default:
		return out, errs.WrapKind(op, ErrBadRequest, errNoTime)
	}
	return out, out.Validate()
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// HandleList handles GET /entries and returns the snapshot in stored order.
func (h *EntriesHandler) HandleList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Entries())
}

// HandleCreate handles POST /entries.
func (h *EntriesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_entry"
	var req entryRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", errs.WrapKind(op, ErrBadRequest, err))
		return
	}
	entry, err := req.toNewEntry()
	if err != nil {
		writeFailure(w, err)
		return
	}

	dup, err := h.deps.Submit(r.Context(), strings.TrimSpace(r.Header.Get(IdempotencyHeader)), entry)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if dup {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}

// HandleDelete handles DELETE /entries/{id}.
func (h *EntriesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_entry"
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		writeFailure(w, errs.NewKind(op, ErrMissingID))
		return
	}
	if err := h.deps.Remove(r.Context(), id); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}

type reloadResponse struct {
	Status  string `json:"status"`
	Entries int    `json:"entries"`
}

// HandleReload handles POST /reload, a synchronous full reload.
func (h *EntriesHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	n, err := h.deps.Reload(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reloadResponse{Status: "reloaded", Entries: n})
}
