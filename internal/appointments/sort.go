package appointments

import (
	"cmp"
	"math"
	"regexp"
	"slices"
	"strconv"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var minutesPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// unscheduled sorts after every timed entry.
const unscheduled = math.MaxInt

// Minutes converts an H:MM or HH:MM time into minutes since midnight.
func Minutes(t string) (int, bool) {
	m := minutesPattern.FindStringSubmatch(t)
	if m == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	return h*60 + mins, true
}

func sortKey(t string) int {
	if m, ok := Minutes(t); ok {
		return m
	}
	return unscheduled
}

// Animal names are mostly Japanese, so names collate the way a Japanese
// locale orders them.
func newNameCollator() *collate.Collator {
	return collate.New(language.Japanese)
}

func compareDay(c *collate.Collator, a, b Appointment) int {
	if n := cmp.Compare(sortKey(a.Time), sortKey(b.Time)); n != 0 {
		return n
	}
	return c.CompareString(a.AnimalName, b.AnimalName)
}

// SortDay orders appointments of a single day by time, untimed entries last,
// then by animal name. Entries equal on both keys keep their input order.
func SortDay(apps []Appointment) {
	c := newNameCollator()
	slices.SortStableFunc(apps, func(a, b Appointment) int {
		return compareDay(c, a, b)
	})
}

// SortChronological orders appointments across days: by date, then with the
// SortDay rules inside each date.
func SortChronological(apps []Appointment) {
	c := newNameCollator()
	slices.SortStableFunc(apps, func(a, b Appointment) int {
		if n := cmp.Compare(a.Date, b.Date); n != 0 {
			return n
		}
		return compareDay(c, a, b)
	})
}

// Group builds an Index from normalized appointments. Every bucket is sorted
// with SortDay. The result is never nil.
func Group(apps []Appointment) Index {
	ix := make(Index)
	for _, a := range apps {
		if a.Date == "" {
			continue
		}
		ix[a.Date] = append(ix[a.Date], a)
	}
	for _, bucket := range ix {
		SortDay(bucket)
	}
	return ix
}
