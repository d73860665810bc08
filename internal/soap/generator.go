package soap

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"github.com/wolfman30/vetchart/internal/records"
	"github.com/wolfman30/vetchart/pkg/logging"
)

const soapPrompt = `You are an experienced large-animal veterinarian.
Write a clinical note in SOAP format from the visit information below.

S (Subjective): the owner's complaint and history.
O (Objective): findings from inspection, palpation, auscultation and tests.
A (Assessment): the diagnosis or problems drawn from S and O.
P (Plan): treatment, prescriptions and instructions for the next visit.

Write the note in the same language as the visit information.

--- visit information ---
%s
---

Answer with a JSON object only, with exactly the keys "s", "o", "a" and "p".`

const transcribePrompt = `Transcribe this veterinary visit recording verbatim.
Language hint: %s. Answer with the transcript text only.`

const translatePrompt = `Translate the following text into the language with code %q.
Keep veterinary terminology precise. Answer with the translation only.

%s`

// Generator produces SOAP notes, transcripts and translations.
type Generator struct {
	model  Model
	logger *logging.Logger
}

func NewGenerator(model Model, logger *logging.Logger) *Generator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Generator{model: model, logger: logger}
}

// FromText turns free visit text into a SOAP note.
func (g *Generator) FromText(ctx context.Context, text string) (records.Soap, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return records.Soap{}, ErrEmptyText
	}
	out, err := g.model.Generate(ctx, true, genai.Text(fmt.Sprintf(soapPrompt, text)))
	if err != nil {
		return records.Soap{}, err
	}
	note, err := ParseSoap(out)
	if err != nil {
		g.logger.Warn("soap: unparsable model output", "error", err, "output_len", len(out))
		return records.Soap{}, err
	}
	return note, nil
}

// Transcribe converts recorded audio to text. lang is a BCP 47 hint such as
// "ja-JP"; empty means Japanese.
func (g *Generator) Transcribe(ctx context.Context, audio []byte, mimeType, lang string) (string, error) {
	if len(audio) == 0 {
		return "", ErrEmptyAudio
	}
	if strings.TrimSpace(lang) == "" {
		lang = "ja-JP"
	}
	out, err := g.model.Generate(ctx, false,
		genai.Blob{MIMEType: AudioMIME("", mimeType), Data: audio},
		genai.Text(fmt.Sprintf(transcribePrompt, lang)),
	)
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", ErrNoCandidates
	}
	return out, nil
}

// SoapFromAudio transcribes audio and charts the transcript.
func (g *Generator) SoapFromAudio(ctx context.Context, audio []byte, mimeType, lang string) (records.Soap, string, error) {
	transcript, err := g.Transcribe(ctx, audio, mimeType, lang)
	if err != nil {
		return records.Soap{}, "", err
	}
	note, err := g.FromText(ctx, transcript)
	if err != nil {
		return records.Soap{}, transcript, err
	}
	return note, transcript, nil
}

// Translate returns text translated into target, a language code.
func (g *Generator) Translate(ctx context.Context, text, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	if strings.TrimSpace(target) == "" {
		target = "en"
	}
	return g.model.Generate(ctx, false, genai.Text(fmt.Sprintf(translatePrompt, target, text)))
}

// TranslateSoap translates every non-empty section of note.
func (g *Generator) TranslateSoap(ctx context.Context, note records.Soap, target string) (records.Soap, error) {
	sections := []*string{&note.S, &note.O, &note.A, &note.P}
	for _, s := range sections {
		if strings.TrimSpace(*s) == "" {
			continue
		}
		translated, err := g.Translate(ctx, *s, target)
		if err != nil {
			return records.Soap{}, err
		}
		*s = translated
	}
	return note, nil
}

var audioTypes = map[string]string{
	".wav":  "audio/wav",
	".flac": "audio/flac",
	".mp3":  "audio/mp3",
	".ogg":  "audio/ogg",
	".webm": "audio/webm",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
}

// AudioMIME picks the MIME type sent with audio. A declared audio type wins
// with its parameters removed; otherwise the filename extension decides.
func AudioMIME(filename, declared string) string {
	if mt, _, err := mime.ParseMediaType(declared); err == nil && strings.HasPrefix(mt, "audio/") {
		return mt
	}
	if t, ok := audioTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return t
	}
	return "audio/wav"
}
