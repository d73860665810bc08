package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/vetchart/pkg/logging"
)

// FarmLister lists the farms registered animals belong to.
type FarmLister interface {
	Farms(ctx context.Context) ([]string, error)
}

type Handler struct {
	svc    *Service
	farms  FarmLister
	logger *logging.Logger
}

func NewHandler(svc *Service, farms FarmLister, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, farms: farms, logger: logger}
}

// GetPreferences handles GET /api/preferences
func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Get())
}

type updateRequest struct {
	CustomFarms    *[]string `json:"custom_farms"`
	SelectedDoctor *string   `json:"selected_doctor"`
}

// UpdatePreferences handles PUT /api/preferences. Omitted fields keep their
// current value.
func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	next := h.svc.Get()
	if req.CustomFarms != nil {
		next.CustomFarms = *req.CustomFarms
	}
	if req.SelectedDoctor != nil {
		next.SelectedDoctor = *req.SelectedDoctor
	}
	saved, err := h.svc.Replace(r.Context(), next)
	if err != nil {
		h.logger.Error("failed to save preferences", "error", err)
		http.Error(w, "failed to save preferences", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// ListFarms handles GET /api/farms
func (h *Handler) ListFarms(w http.ResponseWriter, r *http.Request) {
	var fromAnimals []string
	if h.farms != nil {
		list, err := h.farms.Farms(r.Context())
		if err != nil {
			h.logger.Error("failed to list animal farms", "error", err)
			http.Error(w, "failed to list farms", http.StatusInternalServerError)
			return
		}
		fromAnimals = list
	}
	writeJSON(w, http.StatusOK, h.svc.Farms(fromAnimals))
}

type addFarmRequest struct {
	Name string `json:"name"`
}

// AddFarm handles POST /api/farms
func (h *Handler) AddFarm(w http.ResponseWriter, r *http.Request) {
	var req addFarmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	saved, err := h.svc.AddFarm(r.Context(), req.Name)
	switch {
	case errors.Is(err, ErrEmptyFarm):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		h.logger.Error("failed to save farm", "error", err, "farm", req.Name)
		http.Error(w, "failed to save farm", http.StatusInternalServerError)
		return
	}
	h.logger.Info("custom farm added", "farm", req.Name)
	writeJSON(w, http.StatusCreated, saved)
}

// RemoveFarm handles DELETE /api/farms/{name}. Farms that only come from
// registered animals stay listed.
func (h *Handler) RemoveFarm(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	saved, err := h.svc.RemoveFarm(r.Context(), name)
	if err != nil {
		h.logger.Error("failed to remove farm", "error", err, "farm", name)
		http.Error(w, "failed to remove farm", http.StatusInternalServerError)
		return
	}
	h.logger.Info("custom farm removed", "farm", name)
	writeJSON(w, http.StatusOK, saved)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
