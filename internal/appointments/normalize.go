package appointments

import (
	"regexp"
	"strings"
	"time"
)

var (
	clockPattern = regexp.MustCompile(`^\d{2}:\d{2}$`)
	urlPattern   = regexp.MustCompile(`(?i)^https?://`)
)

// storagePrefixes mark values that are file locations rather than times.
var storagePrefixes = []string{"/uploads/", "uploads/", "gs://", "s3://"}

// Normalize converts one raw record into an Appointment. It reports false when
// the record has no usable date and must be left out of the index.
func Normalize(r Raw) (Appointment, bool) {
	switch v := r.(type) {
	case APIRecord:
		return normalizeAPIRecord(v)
	case *APIRecord:
		if v == nil {
			return Appointment{}, false
		}
		return normalizeAPIRecord(*v)
	case VisitEntry:
		return normalizeVisitEntry(v)
	case *VisitEntry:
		if v == nil {
			return Appointment{}, false
		}
		return normalizeVisitEntry(*v)
	default:
		return Appointment{}, false
	}
}

func normalizeAPIRecord(rec APIRecord) (Appointment, bool) {
	date, clock, ok := resolve(rec.Date, rec.Time)
	if !ok {
		return Appointment{}, false
	}
	return Appointment{
		ID:              rec.ID,
		MicrochipNumber: rec.MicrochipNumber,
		AnimalName:      rec.AnimalName,
		FarmID:          rec.FarmID,
		Date:            date,
		Time:            clock,
		Summary:         rec.Summary,
		Doctor:          rec.Doctor,
		Status:          rec.Status,
		NextVisitDate:   rec.NextVisitDate,
	}, true
}

// Visit entries have no separate time in older histories, so the time comes
// from splitting next_visit_date first and the stored next_visit_time second.
func normalizeVisitEntry(v VisitEntry) (Appointment, bool) {
	date, clock, ok := resolve(v.NextVisitDate, v.NextVisitTime)
	if !ok {
		return Appointment{}, false
	}
	return Appointment{
		ID:              v.ID(),
		MicrochipNumber: v.MicrochipNumber,
		AnimalName:      v.AnimalName,
		FarmID:          v.FarmID,
		Date:            date,
		Time:            clock,
		Summary:         v.Summary,
		Doctor:          v.Doctor,
		Status:          statusScheduled,
		NextVisitDate:   v.NextVisitDate,
	}, true
}

func resolve(rawDate, rawTime string) (string, string, bool) {
	rawDate = strings.TrimSpace(rawDate)
	if rawDate == "" {
		return "", "", false
	}
	date, clock := SplitDateTime(rawDate)
	if date == "" {
		return "", "", false
	}
	if clock == "" {
		clock = cleanTime(rawTime)
	}
	return date, clock, true
}

// SplitDateTime splits a combined timestamp at the first "T" or space. The
// time is the first five characters after the separator when they form HH:MM,
// otherwise empty. Values without a separator are returned unchanged.
func SplitDateTime(s string) (date, clock string) {
	k := strings.IndexAny(s, "T ")
	if k <= 0 {
		return s, ""
	}
	rest := s[k+1:]
	if len(rest) > 5 {
		rest = rest[:5]
	}
	if clockPattern.MatchString(rest) {
		return s[:k], rest
	}
	return s[:k], ""
}

// cleanTime returns t when it is an HH:MM value. URLs and storage paths are
// rejected before the pattern check.
func cleanTime(t string) string {
	if t == "" || urlPattern.MatchString(t) {
		return ""
	}
	for _, p := range storagePrefixes {
		if strings.HasPrefix(t, p) {
			return ""
		}
	}
	if !clockPattern.MatchString(t) {
		return ""
	}
	return t
}

// ValidDate reports whether date is a real calendar day in YYYY-MM-DD form.
func ValidDate(date string) bool {
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}
