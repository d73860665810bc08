package appointments

import (
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
)

const visitLength = 30 * time.Minute

// ExportICS renders the index as an iCalendar feed. Timed appointments become
// 30 minute events in loc; untimed ones become all-day events. Appointments
// whose date is not a real calendar day are skipped.
func ExportICS(ix Index, loc *time.Location, stamp time.Time) string {
	if loc == nil {
		loc = time.UTC
	}
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//vetchart//appointments//EN")

	for _, a := range ix.Flatten() {
		day, err := time.ParseInLocation("2006-01-02", a.Date, loc)
		if err != nil {
			continue
		}
		event := cal.AddEvent(eventUID(a))
		event.SetDtStampTime(stamp)
		if mins, ok := Minutes(a.Time); ok {
			start := day.Add(time.Duration(mins) * time.Minute)
			event.SetStartAt(start)
			event.SetEndAt(start.Add(visitLength))
		} else {
			event.SetAllDayStartAt(day)
			event.SetAllDayEndAt(day.AddDate(0, 0, 1))
		}
		event.SetSummary(eventSummary(a))
		if desc := eventDescription(a); desc != "" {
			event.SetDescription(desc)
		}
		if a.FarmID != "" {
			event.SetLocation(a.FarmID)
		}
	}
	return cal.Serialize()
}

func eventUID(a Appointment) string {
	id := a.ID
	if id == "" {
		id = a.MicrochipNumber + "-" + a.Date + "-" + strings.ReplaceAll(a.Time, ":", "")
	}
	return id + "@vetchart"
}

func eventSummary(a Appointment) string {
	name := a.AnimalName
	if name == "" {
		name = a.MicrochipNumber
	}
	if a.FarmID != "" {
		return name + " (" + a.FarmID + ")"
	}
	return name
}

func eventDescription(a Appointment) string {
	var parts []string
	if a.Summary != "" {
		parts = append(parts, a.Summary)
	}
	if a.Doctor != "" {
		parts = append(parts, "Doctor: "+a.Doctor)
	}
	return strings.Join(parts, "\n")
}
