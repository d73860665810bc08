package soap

import "errors"

var (
	ErrEmptyText      = errors.New("soap: text is required")
	ErrEmptyAudio     = errors.New("soap: audio is required")
	ErrNoCandidates   = errors.New("soap: model returned no content")
	ErrUnparsableSoap = errors.New("soap: model output is not a SOAP object")
)
