package storage

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/vetchart/pkg/logging"
)

const maxImageUpload = 32 << 20

type Handler struct {
	store  Store
	logger *logging.Logger
}

func NewHandler(store Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

type uploadResponse struct {
	URLs []string `json:"urls"`
}

// UploadImages handles POST /api/uploads/images. Every file part named
// "images" or "file" is stored.
func (h *Handler) UploadImages(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageUpload)
	if err := r.ParseMultipartForm(maxImageUpload); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	var parts []*multipart.FileHeader
	for _, field := range []string{"images", "file"} {
		parts = append(parts, r.MultipartForm.File[field]...)
	}
	if len(parts) == 0 {
		http.Error(w, "no files uploaded", http.StatusBadRequest)
		return
	}

	urls := make([]string, 0, len(parts))
	for _, fh := range parts {
		ct := fh.Header.Get("Content-Type")
		if ct != "" && !strings.HasPrefix(ct, "image/") {
			http.Error(w, "only image uploads are accepted", http.StatusUnsupportedMediaType)
			return
		}
		f, err := fh.Open()
		if err != nil {
			http.Error(w, "failed to read upload", http.StatusBadRequest)
			return
		}
		url, err := h.store.Save(r.Context(), fh.Filename, ct, f)
		f.Close()
		if err != nil {
			h.logger.Error("failed to store upload", "error", err, "filename", fh.Filename)
			http.Error(w, "failed to store upload", http.StatusInternalServerError)
			return
		}
		urls = append(urls, url)
	}
	h.logger.Info("images uploaded", "count", len(urls))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(uploadResponse{URLs: urls})
}

// ServeUpload handles GET /uploads/{name}
func (h *Handler) ServeUpload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	body, contentType, err := h.store.Open(r.Context(), name)
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidName):
		http.NotFound(w, r)
		return
	case err != nil:
		h.logger.Error("failed to open upload", "error", err, "name", name)
		http.Error(w, "failed to read upload", http.StatusInternalServerError)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, body)
}
