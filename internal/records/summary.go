package records

import (
	"fmt"
	"strings"
)

const noRecordsSummary = "No previous records for this animal."

// Summary concatenates the SOAP notes of each record, one line per visit.
func Summary(list []*Record) string {
	if len(list) == 0 {
		return noRecordsSummary
	}
	lines := make([]string, 0, len(list))
	for _, r := range list {
		lines = append(lines, fmt.Sprintf("%s: S(%s), O(%s), A(%s), P(%s)",
			r.VisitDate, orNA(r.Soap.S), orNA(r.Soap.O), orNA(r.Soap.A), orNA(r.Soap.P)))
	}
	return strings.Join(lines, "\n")
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "n/a"
	}
	return s
}
