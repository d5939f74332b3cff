package api

import (
	"net/http"
	"strings"

	"github.com/okian/huntboard/internal/domain/model"
	"github.com/okian/huntboard/internal/domain/projection"
	"github.com/okian/huntboard/pkg/errs"
)

// LeaderboardDependencies defines the interface for leaderboard reads.
type LeaderboardDependencies interface {
	Board(query, dept string) (projection.Board, bool)
}

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps LeaderboardDependencies
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps}
}

type boardResponse struct {
	projection.Board
	Loading bool `json:"loading"`
}

// HandleGetLeaderboard handles GET /leaderboard?q=&department= requests.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	q := r.URL.Query()
	dept := strings.TrimSpace(q.Get("department"))
	if dept != "" && dept != model.DepartmentAll && !model.ValidDepartment(dept) {
		writeError(w, http.StatusBadRequest, "unknown_department", errs.NewKind(op, ErrBadRequest))
		return
	}
	board, loading := h.deps.Board(q.Get("q"), dept)
	writeJSON(w, http.StatusOK, boardResponse{Board: board, Loading: loading})
}
