package records

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/vetchart/internal/animals"
	"github.com/wolfman30/vetchart/pkg/logging"
)

const (
	maxFormBytes  = 64 << 20
	maxAudioBytes = 25 << 20
)

// AnimalLookup resolves the animal a record belongs to.
type AnimalLookup interface {
	Get(ctx context.Context, id string) (*animals.Animal, error)
}

// Uploader stores media and returns its public URL.
type Uploader interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

// AutoCharter turns recorded audio into SOAP notes.
type AutoCharter interface {
	SoapFromAudio(ctx context.Context, audio []byte, mimeType, lang string) (Soap, string, error)
}

// Handler handles HTTP requests for clinical records
type Handler struct {
	repo     Repository
	animals  AnimalLookup
	uploader Uploader
	charter  AutoCharter
	onChange func(context.Context)
	logger   *logging.Logger
}

// NewHandler creates a records handler. uploader and charter may be nil.
func NewHandler(repo Repository, lookup AnimalLookup, uploader Uploader, charter AutoCharter, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:     repo,
		animals:  lookup,
		uploader: uploader,
		charter:  charter,
		logger:   logger,
	}
}

// OnScheduleChange registers a hook run when a mutation may change
// appointments. It runs before the response is written.
func (h *Handler) OnScheduleChange(fn func(context.Context)) {
	h.onChange = fn
}

func (h *Handler) scheduleChanged(ctx context.Context) {
	if h.onChange != nil {
		h.onChange(ctx)
	}
}

// CreateRecordResponse is returned by POST /api/records.
type CreateRecordResponse struct {
	Record          *Record `json:"record"`
	RecordID        string  `json:"record_id"`
	TranscribedText string  `json:"transcribed_text,omitempty"`
	AutoTranscribe  bool    `json:"auto_transcribe"`
	Status          string  `json:"status"`
}

// ChartResponse is an animal with its full history.
type ChartResponse struct {
	Animal  *animals.Animal `json:"animal"`
	Records []*Record       `json:"records"`
	Summary string          `json:"summary"`
}

// GetAnimalChart handles GET /api/animals/{id}
func (h *Handler) GetAnimalChart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	animal, err := h.animals.Get(r.Context(), id)
	if errors.Is(err, animals.ErrNotFound) {
		http.Error(w, "animal not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to load animal", "error", err, "id", id)
		http.Error(w, "failed to load animal", http.StatusInternalServerError)
		return
	}
	list, err := h.repo.ListByAnimal(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to load records", "error", err, "animal_id", id)
		http.Error(w, "failed to load records", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []*Record{}
	}
	writeJSON(w, http.StatusOK, ChartResponse{Animal: animal, Records: list, Summary: Summary(list)})
}

// ListAnimalRecords handles GET /api/animals/{id}/records
func (h *Handler) ListAnimalRecords(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.ListByAnimal(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Error("failed to list records", "error", err)
		http.Error(w, "failed to list records", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []*Record{}
	}
	writeJSON(w, http.StatusOK, list)
}

// CreateRecord handles POST /api/records. Accepts JSON or a multipart form
// with image files under "images" and an optional "audio" file.
func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var (
		rec  *Record
		resp CreateRecordResponse
		err  error
	)
	if isMultipart(r) {
		rec, resp, err = h.decodeCreateForm(r)
	} else {
		rec = &Record{}
		if derr := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormBytes)).Decode(rec); derr != nil {
			err = fmt.Errorf("invalid request body")
		}
	}
	if err != nil {
		h.logger.Warn("invalid record request", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rec.AnimalID = strings.TrimSpace(rec.AnimalID)
	if rec.AnimalID == "" {
		http.Error(w, ErrMissingAnimal.Error(), http.StatusBadRequest)
		return
	}
	if _, err := h.animals.Get(r.Context(), rec.AnimalID); err != nil {
		if errors.Is(err, animals.ErrNotFound) {
			http.Error(w, "animal not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load animal", "error", err)
		http.Error(w, "failed to load animal", http.StatusInternalServerError)
		return
	}

	created, err := h.repo.Create(r.Context(), rec)
	if err != nil {
		if isValidationErr(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to create record", "error", err)
		http.Error(w, "failed to create record", http.StatusInternalServerError)
		return
	}

	h.logger.Info("record created", "id", created.ID, "animal_id", created.AnimalID, "next_visit_date", created.NextVisitDate)
	if created.HasNextVisit() {
		h.scheduleChanged(r.Context())
	}
	resp.Record = created
	resp.RecordID = created.ID
	resp.Status = "success"
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) decodeCreateForm(r *http.Request) (*Record, CreateRecordResponse, error) {
	var resp CreateRecordResponse
	if err := r.ParseMultipartForm(maxFormBytes); err != nil {
		return nil, resp, fmt.Errorf("invalid multipart form")
	}
	rec := &Record{
		AnimalID:       r.FormValue("animalId"),
		NextVisitDate:  strings.TrimSpace(r.FormValue("next_visit_date")),
		NextVisitTime:  strings.TrimSpace(r.FormValue("next_visit_time")),
		Doctor:         r.FormValue("doctor"),
		VisitDate:      strings.TrimSpace(r.FormValue("visit_date")),
		ExternalCaseID: r.FormValue("external_case_id"),
		ExternalRefURL: r.FormValue("external_ref_url"),
	}

	switch {
	case r.FormValue("soap_json") != "":
		if err := json.Unmarshal([]byte(r.FormValue("soap_json")), &rec.Soap); err != nil {
			return nil, resp, fmt.Errorf("soap_json is invalid: %v", err)
		}
	default:
		rec.Soap = Soap{
			S: r.FormValue("soap_s"),
			O: r.FormValue("soap_o"),
			A: r.FormValue("soap_a"),
			P: r.FormValue("soap_p"),
		}
	}
	if raw := r.FormValue("medications_json"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &rec.Medications); err != nil {
			return nil, resp, fmt.Errorf("medications_json is invalid: %v", err)
		}
	}
	if raw := strings.TrimSpace(r.FormValue("nosai_points")); raw != "" {
		points, err := strconv.Atoi(raw)
		if err != nil {
			return nil, resp, fmt.Errorf("nosai_points must be an integer")
		}
		rec.NosaiPoints = &points
	}

	images, err := h.saveFiles(r.Context(), r.MultipartForm.File["images"], "rec")
	if err != nil {
		return nil, resp, err
	}
	rec.Images = images

	if headers := r.MultipartForm.File["audio"]; len(headers) > 0 {
		if headers[0].Size > maxAudioBytes {
			return nil, resp, fmt.Errorf("audio file must be 25MB or smaller")
		}
		data, err := readPart(headers[0])
		if err != nil {
			return nil, resp, err
		}
		urls, err := h.saveFiles(r.Context(), headers[:1], "audio")
		if err != nil {
			return nil, resp, err
		}
		rec.AudioURL = urls[0]

		resp.AutoTranscribe, _ = strconv.ParseBool(r.FormValue("auto_transcribe"))
		if resp.AutoTranscribe && h.charter != nil && rec.Soap.Empty() {
			soap, transcript, err := h.charter.SoapFromAudio(r.Context(), data, headers[0].Header.Get("Content-Type"), r.FormValue("lang"))
			if err != nil {
				h.logger.Warn("auto transcription failed", "error", err)
			} else {
				rec.Soap = soap
				resp.TranscribedText = transcript
			}
		}
	}
	return rec, resp, nil
}

func (h *Handler) saveFiles(ctx context.Context, headers []*multipart.FileHeader, prefix string) ([]string, error) {
	urls := []string{}
	for _, fh := range headers {
		if fh == nil || fh.Filename == "" {
			continue
		}
		if h.uploader == nil {
			return nil, fmt.Errorf("uploads are not configured")
		}
		data, err := readPart(fh)
		if err != nil {
			return nil, err
		}
		name := fmt.Sprintf("%s_%s", prefix, fh.Filename)
		url, err := h.uploader.Save(ctx, name, fh.Header.Get("Content-Type"), bytes.NewReader(data))
		if err != nil {
			h.logger.Error("failed to store upload", "error", err, "name", fh.Filename)
			return nil, fmt.Errorf("failed to store %s", fh.Filename)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s", fh.Filename)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s", fh.Filename)
	}
	return data, nil
}

// UpdateRecord handles PUT /api/records/{id}
func (h *Handler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	req, err := decodeUpdate(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rec, err := h.repo.Get(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to load record", "error", err, "id", id)
		http.Error(w, "failed to load record", http.StatusInternalServerError)
		return
	}

	changed := req.Apply(rec)
	updated, err := h.repo.Update(r.Context(), rec)
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, "record not found", http.StatusNotFound)
		return
	case err != nil && isValidationErr(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		h.logger.Error("failed to update record", "error", err, "id", id)
		http.Error(w, "failed to update record", http.StatusInternalServerError)
		return
	}

	if changed {
		h.scheduleChanged(r.Context())
	}
	writeJSON(w, http.StatusOK, updated)
}

func decodeUpdate(w http.ResponseWriter, r *http.Request) (*UpdateRecordRequest, error) {
	req := &UpdateRecordRequest{}
	if !isMultipart(r) {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormBytes)).Decode(req); err != nil {
			return nil, fmt.Errorf("invalid request body")
		}
		return req, nil
	}
	if err := r.ParseMultipartForm(maxFormBytes); err != nil {
		return nil, fmt.Errorf("invalid multipart form")
	}
	form := r.MultipartForm.Value
	str := func(key string) *string {
		if v, ok := form[key]; ok && len(v) > 0 {
			s := v[0]
			return &s
		}
		return nil
	}
	if raw := str("soap_json"); raw != nil {
		var soap Soap
		if err := json.Unmarshal([]byte(*raw), &soap); err != nil {
			return nil, fmt.Errorf("soap_json is invalid")
		}
		req.Soap = &soap
	}
	if raw := str("medications_json"); raw != nil {
		var meds []Medication
		if err := json.Unmarshal([]byte(*raw), &meds); err != nil {
			return nil, fmt.Errorf("medications_json is invalid")
		}
		req.Medications = &meds
	}
	if raw := str("nosai_points"); raw != nil {
		points, err := strconv.Atoi(strings.TrimSpace(*raw))
		if err != nil {
			return nil, fmt.Errorf("nosai_points must be an integer")
		}
		req.NosaiPoints = &points
	}
	req.NextVisitDate = str("next_visit_date")
	req.NextVisitTime = str("next_visit_time")
	req.Doctor = str("doctor")
	req.ExternalCaseID = str("external_case_id")
	req.ExternalRefURL = str("external_ref_url")
	return req, nil
}

// DeleteRecord handles DELETE /api/records/{id}
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := h.repo.Get(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to load record", "error", err, "id", id)
		http.Error(w, "failed to delete record", http.StatusInternalServerError)
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil && !errors.Is(err, ErrNotFound) {
		h.logger.Error("failed to delete record", "error", err, "id", id)
		http.Error(w, "failed to delete record", http.StatusInternalServerError)
		return
	}
	if rec.HasNextVisit() {
		h.scheduleChanged(r.Context())
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

func isValidationErr(err error) bool {
	return errors.Is(err, ErrMissingAnimal) ||
		errors.Is(err, ErrInvalidNosaiPoints) ||
		errors.Is(err, ErrInvalidMedication)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
