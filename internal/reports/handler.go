package reports

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/wolfman30/vetchart/pkg/logging"
)

// FarmSource is satisfied by Repository.
type FarmSource interface {
	Farms(ctx context.Context, today time.Time) ([]FarmReport, error)
}

type Handler struct {
	repo   FarmSource
	loc    *time.Location
	now    func() time.Time
	logger *logging.Logger
}

func NewHandler(repo FarmSource, loc *time.Location, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{repo: repo, loc: loc, now: time.Now, logger: logger}
}

// FarmsResponse is the body of GET /admin/reports/farms.
type FarmsResponse struct {
	AsOf  string       `json:"as_of"`
	Total int          `json:"total"`
	Farms []FarmReport `json:"farms"`
}

// GetFarms handles GET /admin/reports/farms
func (h *Handler) GetFarms(w http.ResponseWriter, r *http.Request) {
	today := h.now().In(h.loc)
	farms, err := h.repo.Farms(r.Context(), today)
	if err != nil {
		h.logger.Error("failed to build farm report", "error", err)
		http.Error(w, "failed to build report", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(FarmsResponse{
		AsOf:  today.Format("2006-01-02"),
		Total: len(farms),
		Farms: farms,
	})
}
