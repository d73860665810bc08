package soap

import (
	"encoding/json"
	"strings"

	"github.com/wolfman30/vetchart/internal/records"
)

// ParseSoap extracts a SOAP note from model output. The output may be wrapped
// in a markdown code fence or surrounded by prose; the first JSON object is
// used. Keys may be the single letters or the spelled-out section names.
func ParseSoap(out string) (records.Soap, error) {
	start := strings.Index(out, "{")
	end := strings.LastIndex(out, "}")
	if start < 0 || end <= start {
		return records.Soap{}, ErrUnparsableSoap
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(out[start:end+1]), &fields); err != nil {
		return records.Soap{}, ErrUnparsableSoap
	}
	lower := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		lower[strings.ToLower(strings.TrimSpace(k))] = v
	}

	pick := func(keys ...string) string {
		for _, k := range keys {
			if v, ok := lower[k]; ok {
				return fieldText(v)
			}
		}
		return ""
	}
	note := records.Soap{
		S: pick("s", "subjective"),
		O: pick("o", "objective"),
		A: pick("a", "assessment"),
		P: pick("p", "plan"),
	}
	if note.Empty() {
		return records.Soap{}, ErrUnparsableSoap
	}
	return note, nil
}

// fieldText renders a section value. Models sometimes answer with a list of
// bullet strings instead of one string.
func fieldText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.TrimSpace(strings.Join(list, "\n"))
	}
	if string(raw) == "null" {
		return ""
	}
	return strings.TrimSpace(string(raw))
}
