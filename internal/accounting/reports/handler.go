package reports

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/flashledger/flashledger/internal/platform/httpx"
	"github.com/flashledger/flashledger/internal/shared"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// ProfitAndLoss handles GET /reports/pl?start=YYYY-MM-DD&end=YYYY-MM-DD&branches=1,2.
// Branch-restricted actors are forced to their own branch regardless of the
// branches parameter.
func (h *Handler) ProfitAndLoss(w http.ResponseWriter, r *http.Request) {
	filters, problem := parseFilters(r)
	if problem != "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", problem)
		return
	}

	actor := shared.ActorFromContext(r.Context())
	if actor.BranchRestricted() {
		if actor.BranchID == nil {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "actor has no branch scope")
			return
		}
		filters.BranchIDs = []int64{*actor.BranchID}
	}

	pl, err := h.service.ProfitAndLoss(r.Context(), filters)
	if err != nil {
		h.logger.Error("build pl report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pl)
}

func parseFilters(r *http.Request) (Filters, string) {
	q := r.URL.Query()

	start, err := time.Parse("2006-01-02", q.Get("start"))
	if err != nil {
		return Filters{}, "start must be a YYYY-MM-DD date"
	}
	end, err := time.Parse("2006-01-02", q.Get("end"))
	if err != nil {
		return Filters{}, "end must be a YYYY-MM-DD date"
	}
	if end.Before(start) {
		return Filters{}, "end must not precede start"
	}

	filters := Filters{Start: start, End: end}
	if raw := strings.TrimSpace(q.Get("branches")); raw != "" {
		seen := make(map[int64]bool)
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil || id <= 0 {
				return Filters{}, "branches must be a comma-separated list of ids"
			}
			if !seen[id] {
				seen[id] = true
				filters.BranchIDs = append(filters.BranchIDs, id)
			}
		}
	}
	return filters, ""
}
