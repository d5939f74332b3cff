package api

import (
	"net/http"

	"github.com/okian/huntboard/internal/domain/model"
	"github.com/okian/huntboard/internal/domain/rules"
)

// MetaHandler serves the static lookups a submission form needs.
type MetaHandler struct{}

// NewMetaHandler creates a new meta handler.
func NewMetaHandler() *MetaHandler {
	return &MetaHandler{}
}

type metaResponse struct {
	Departments []string     `json:"departments"`
	Years       []model.Year `json:"years"`
}

// HandleMeta handles GET /meta. The department list leads with the "All" filter.
func (h *MetaHandler) HandleMeta(w http.ResponseWriter, _ *http.Request) {
	depts := make([]string, 0, len(model.Departments)+1)
	depts = append(depts, model.DepartmentAll)
	depts = append(depts, model.Departments...)
	writeJSON(w, http.StatusOK, metaResponse{Departments: depts, Years: model.Years})
}

// HandleRules handles GET /rules.
func (h *MetaHandler) HandleRules(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rules.Get())
}
