package animals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/wolfman30/vetchart/pkg/logging"
)

const maxCreateBody = 32 << 20

// Uploader stores thumbnail images and returns their public URL.
type Uploader interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

// Handler handles HTTP requests for animals
type Handler struct {
	repo     Repository
	uploader Uploader
	onChange func(context.Context)
	logger   *logging.Logger
}

// NewHandler creates a new animals handler. uploader may be nil, in which case
// thumbnails are rejected.
func NewHandler(repo Repository, uploader Uploader, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:     repo,
		uploader: uploader,
		logger:   logger,
	}
}

// OnChange registers a hook run after an animal is created.
func (h *Handler) OnChange(fn func(context.Context)) {
	h.onChange = fn
}

// ListAnimals handles GET /api/animals
func (h *Handler) ListAnimals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := Filter{
		Query:           q.Get("query"),
		MicrochipNumber: q.Get("microchip_number"),
		FarmID:          q.Get("farm_id"),
		Breed:           q.Get("breed"),
		Sex:             q.Get("sex"),
	}
	list, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list animals", "error", err)
		http.Error(w, "failed to list animals", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []*Animal{}
	}
	writeJSON(w, http.StatusOK, list)
}

// CreateAnimal handles POST /api/animals. Accepts JSON or a multipart form
// with an optional "file" or "thumbnail" image part.
func (h *Handler) CreateAnimal(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeCreate(r)
	if err != nil {
		h.logger.Warn("invalid animal request", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	animal, err := h.repo.Create(r.Context(), req)
	switch {
	case errors.Is(err, ErrAlreadyExists):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, ErrMissingMicrochip), errors.Is(err, ErrInvalidName), errors.Is(err, ErrInvalidAge):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		h.logger.Error("failed to create animal", "error", err)
		http.Error(w, "failed to create animal", http.StatusInternalServerError)
		return
	}

	h.logger.Info("animal created", "id", animal.ID, "farm_id", animal.FarmID)
	if h.onChange != nil {
		h.onChange(r.Context())
	}
	writeJSON(w, http.StatusCreated, animal)
}

func (h *Handler) decodeCreate(r *http.Request) (*CreateAnimalRequest, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxCreateBody)
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		var req CreateAnimalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, fmt.Errorf("invalid request body")
		}
		return &req, nil
	}

	if err := r.ParseMultipartForm(maxCreateBody); err != nil {
		return nil, fmt.Errorf("invalid multipart form")
	}
	req := &CreateAnimalRequest{
		MicrochipNumber: r.FormValue("microchip_number"),
		Name:            r.FormValue("name"),
		FarmID:          r.FormValue("farm_id"),
		Owner:           r.FormValue("owner"),
		Sex:             r.FormValue("sex"),
		Breed:           r.FormValue("breed"),
	}
	if ageStr := strings.TrimSpace(r.FormValue("age")); ageStr != "" {
		age, err := strconv.Atoi(ageStr)
		if err != nil {
			return nil, fmt.Errorf("age must be an integer")
		}
		req.Age = &age
	}

	for _, field := range []string{"file", "thumbnail"} {
		file, header, err := r.FormFile(field)
		if err != nil {
			continue
		}
		defer file.Close()
		if h.uploader == nil {
			return nil, fmt.Errorf("thumbnail uploads are not configured")
		}
		name := fmt.Sprintf("animal_%s_%s", strings.TrimSpace(req.MicrochipNumber), header.Filename)
		url, err := h.uploader.Save(r.Context(), name, header.Header.Get("Content-Type"), file)
		if err != nil {
			h.logger.Error("failed to store thumbnail", "error", err)
			return nil, fmt.Errorf("failed to store thumbnail")
		}
		req.ThumbnailURL = url
		break
	}
	return req, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
