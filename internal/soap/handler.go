package soap

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/wolfman30/vetchart/internal/records"
	"github.com/wolfman30/vetchart/pkg/logging"
)

const maxAudioBytes = 25 << 20

// Charter is the generation surface the HTTP handlers need.
type Charter interface {
	FromText(ctx context.Context, text string) (records.Soap, error)
	Transcribe(ctx context.Context, audio []byte, mimeType, lang string) (string, error)
	TranslateSoap(ctx context.Context, note records.Soap, target string) (records.Soap, error)
	Translate(ctx context.Context, text, target string) (string, error)
}

// Handler serves the AI charting endpoints. A nil charter means no API key is
// configured.
type Handler struct {
	charter Charter
	logger  *logging.Logger
}

func NewHandler(charter Charter, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{charter: charter, logger: logger}
}

type soapResponse struct {
	SoapNotes    records.Soap `json:"soap_notes"`
	OriginalText string       `json:"original_text"`
}

type transcribeResponse struct {
	Transcription string `json:"transcription"`
	Filename      string `json:"filename"`
	FileSize      int    `json:"file_size"`
}

type translateResponse struct {
	Translated string `json:"translated"`
	TargetLang string `json:"target_lang"`
	Machine    bool   `json:"machine_translated"`
}

func (h *Handler) available(w http.ResponseWriter) bool {
	if h.charter == nil {
		http.Error(w, "AI charting is not configured", http.StatusServiceUnavailable)
		return false
	}
	return true
}

// Transcribe handles POST /api/transcribe with an "audio" file part.
func (h *Handler) Transcribe(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	if err := parseForm(w, r); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	audio, filename, mimeType, err := readAudio(r)
	switch {
	case errors.Is(err, http.ErrMissingFile):
		http.Error(w, "audio file is required", http.StatusBadRequest)
		return
	case errors.Is(err, errAudioTooLarge):
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	case err != nil:
		http.Error(w, "failed to read audio", http.StatusBadRequest)
		return
	}

	text, err := h.charter.Transcribe(r.Context(), audio, AudioMIME(filename, mimeType), r.FormValue("lang"))
	if err != nil {
		h.logger.Error("transcription failed", "error", err, "filename", filename)
		http.Error(w, "transcription failed", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, transcribeResponse{Transcription: text, Filename: filename, FileSize: len(audio)})
}

// GenerateSoap handles POST /api/generateSoap. The note is generated from
// transcribed_text, or from the "audio" part when no text is given, and is
// translated into target_lang when set.
func (h *Handler) GenerateSoap(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	if err := parseForm(w, r); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	text := strings.TrimSpace(r.FormValue("transcribed_text"))
	if text == "" {
		audio, filename, mimeType, err := readAudio(r)
		switch {
		case errors.Is(err, http.ErrMissingFile):
			http.Error(w, "text or audio is required", http.StatusBadRequest)
			return
		case errors.Is(err, errAudioTooLarge):
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		case err != nil:
			http.Error(w, "failed to read audio", http.StatusBadRequest)
			return
		}
		text, err = h.charter.Transcribe(r.Context(), audio, AudioMIME(filename, mimeType), r.FormValue("lang"))
		if err != nil {
			h.logger.Error("transcription failed", "error", err)
			http.Error(w, "transcription failed", http.StatusBadGateway)
			return
		}
	}

	note, ok := h.generate(r.Context(), w, text)
	if !ok {
		return
	}
	if target := strings.TrimSpace(r.FormValue("target_lang")); target != "" {
		translated, err := h.charter.TranslateSoap(r.Context(), note, target)
		if err != nil {
			h.logger.Warn("soap translation failed, returning untranslated note", "error", err, "target_lang", target)
		} else {
			note = translated
		}
	}
	writeJSON(w, http.StatusOK, soapResponse{SoapNotes: note, OriginalText: text})
}

type textRequest struct {
	Text            string `json:"text"`
	TranscribedText string `json:"transcribed_text"`
	TargetLang      string `json:"target_lang"`
}

// GenerateSoapFromText handles POST /api/generateSoapFromText. Accepts a form
// or a JSON body with "text" or "transcribed_text".
func (h *Handler) GenerateSoapFromText(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	req, err := decodeTextRequest(w, r)
	if err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	text := strings.TrimSpace(req.TranscribedText)
	if text == "" {
		text = strings.TrimSpace(req.Text)
	}
	if text == "" {
		http.Error(w, ErrEmptyText.Error(), http.StatusBadRequest)
		return
	}
	note, ok := h.generate(r.Context(), w, text)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, soapResponse{SoapNotes: note, OriginalText: text})
}

// Translate handles POST /api/translate. Without a configured model the text
// is echoed back untranslated.
func (h *Handler) Translate(w http.ResponseWriter, r *http.Request) {
	req, err := decodeTextRequest(w, r)
	if err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		http.Error(w, ErrEmptyText.Error(), http.StatusBadRequest)
		return
	}
	target := strings.TrimSpace(req.TargetLang)
	if target == "" {
		target = "en"
	}
	if h.charter == nil {
		writeJSON(w, http.StatusOK, translateResponse{Translated: req.Text, TargetLang: target})
		return
	}
	out, err := h.charter.Translate(r.Context(), req.Text, target)
	if err != nil {
		h.logger.Error("translation failed", "error", err, "target_lang", target)
		http.Error(w, "translation failed", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, translateResponse{Translated: out, TargetLang: target, Machine: true})
}

func (h *Handler) generate(ctx context.Context, w http.ResponseWriter, text string) (records.Soap, bool) {
	note, err := h.charter.FromText(ctx, text)
	switch {
	case errors.Is(err, ErrEmptyText):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return records.Soap{}, false
	case err != nil:
		h.logger.Error("soap generation failed", "error", err)
		http.Error(w, "soap generation failed", http.StatusBadGateway)
		return records.Soap{}, false
	}
	return note, true
}

var errAudioTooLarge = errors.New("audio must be 25MB or smaller")

func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxAudioBytes+1<<20)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(maxAudioBytes)
	}
	return r.ParseForm()
}

func readAudio(r *http.Request) ([]byte, string, string, error) {
	f, fh, err := r.FormFile("audio")
	if err != nil {
		return nil, "", "", err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxAudioBytes+1))
	if err != nil {
		return nil, "", "", err
	}
	if len(data) > maxAudioBytes {
		return nil, "", "", errAudioTooLarge
	}
	return data, fh.Filename, fh.Header.Get("Content-Type"), nil
}

func decodeTextRequest(w http.ResponseWriter, r *http.Request) (textRequest, error) {
	var req textRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req)
		return req, err
	}
	if err := parseForm(w, r); err != nil {
		return req, err
	}
	req.Text = r.FormValue("text")
	req.TranscribedText = r.FormValue("transcribed_text")
	req.TargetLang = r.FormValue("target_lang")
	return req, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
