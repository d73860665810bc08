package appointments

import "fmt"

// Slot is one selectable time on a given date.
type Slot struct {
	Time   string `json:"time"`
	Booked bool   `json:"booked"`
}

// TimeOptions lists HH:MM values from startHour to endHour every interval
// minutes. The last hour stops at :45.
func TimeOptions(startHour, endHour, interval int) []string {
	if interval <= 0 {
		interval = 15
	}
	var out []string
	for h := startHour; h <= endHour; h++ {
		for m := 0; m < 60; m += interval {
			if h == endHour && m > 45 {
				break
			}
			out = append(out, fmt.Sprintf("%02d:%02d", h, m))
		}
	}
	return out
}

// Slots marks which time options on date are already taken in ix.
func Slots(ix Index, date string, options []string) []Slot {
	booked := ix.BookedTimes(date)
	slots := make([]Slot, 0, len(options))
	for _, t := range options {
		slots = append(slots, Slot{Time: t, Booked: booked[t]})
	}
	return slots
}
