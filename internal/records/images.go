package records

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// imageRef is one accepted encoding of an image reference.
type imageRef interface {
	url() string
}

// imageURL is a bare URL string.
type imageURL string

// imageObject is an object carrying the URL under "url".
type imageObject struct {
	URL string `json:"url"`
}

func (u imageURL) url() string    { return strings.TrimSpace(string(u)) }
func (o imageObject) url() string { return strings.TrimSpace(o.URL) }

// decodeImageRefs decodes a single reference or an array of references.
func decodeImageRefs(raw json.RawMessage) ([]imageRef, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	switch raw[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("records: decode images: %w", err)
		}
		var refs []imageRef
		for _, item := range items {
			sub, err := decodeImageRefs(item)
			if err != nil {
				return nil, err
			}
			refs = append(refs, sub...)
		}
		return refs, nil
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("records: decode image url: %w", err)
		}
		return []imageRef{imageURL(s)}, nil
	case '{':
		var o imageObject
		if err := json.Unmarshal(raw, &o); err != nil {
			return nil, fmt.Errorf("records: decode image object: %w", err)
		}
		return []imageRef{o}, nil
	default:
		return nil, nil
	}
}

// CollectImages merges image references from several raw fields, dropping
// blanks and duplicates while keeping first-seen order.
func CollectImages(fields ...json.RawMessage) ([]string, error) {
	seen := map[string]struct{}{}
	out := []string{}
	for _, field := range fields {
		refs, err := decodeImageRefs(field)
		if err != nil {
			return nil, err
		}
		for _, ref := range refs {
			u := ref.url()
			if u == "" {
				continue
			}
			if _, ok := seen[u]; ok {
				continue
			}
			seen[u] = struct{}{}
			out = append(out, u)
		}
	}
	return out, nil
}
