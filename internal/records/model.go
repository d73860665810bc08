package records

import (
	"encoding/json"
	"strings"
	"time"
)

// Soap is a Subjective/Objective/Assessment/Plan clinical note.
type Soap struct {
	S string `json:"s"`
	O string `json:"o"`
	A string `json:"a"`
	P string `json:"p"`
}

// Empty reports whether every section is blank.
func (s Soap) Empty() bool {
	return strings.TrimSpace(s.S+s.O+s.A+s.P) == ""
}

// Medication is one administered drug.
type Medication struct {
	Name  string `json:"name"`
	Dose  string `json:"dose,omitempty"`
	Route string `json:"route,omitempty"`
}

// Record is one clinical visit of an animal.
type Record struct {
	ID                string       `json:"id"`
	AnimalID          string       `json:"animalId"`
	Soap              Soap         `json:"soap"`
	Images            []string     `json:"images"`
	AudioURL          string       `json:"audioUrl,omitempty"`
	Medications       []Medication `json:"medications"`
	VisitDate         string       `json:"visit_date"`
	MedicationHistory []string     `json:"medication_history"`
	NextVisitDate     string       `json:"next_visit_date,omitempty"`
	NextVisitTime     string       `json:"next_visit_time,omitempty"`
	Doctor            string       `json:"doctor,omitempty"`
	NosaiPoints       *int         `json:"nosai_points,omitempty"`
	ExternalCaseID    string       `json:"external_case_id,omitempty"`
	ExternalRefURL    string       `json:"external_ref_url,omitempty"`
	CreatedAt         time.Time    `json:"createdAt"`
}

// HasNextVisit reports whether the record schedules a follow-up.
func (r *Record) HasNextVisit() bool {
	return strings.TrimSpace(r.NextVisitDate) != ""
}

// appointmentKey covers the fields shown on the appointment a record
// schedules. Records without a next visit have none.
func (r *Record) appointmentKey() string {
	if !r.HasNextVisit() {
		return ""
	}
	return strings.Join([]string{r.NextVisitDate, r.NextVisitTime, r.Doctor, r.Soap.A}, "\x00")
}

// Validate checks a record before it is stored and fills defaults.
func (r *Record) Validate(now time.Time) error {
	r.AnimalID = strings.TrimSpace(r.AnimalID)
	if r.AnimalID == "" {
		return ErrMissingAnimal
	}
	if r.NosaiPoints != nil && *r.NosaiPoints < 0 {
		return ErrInvalidNosaiPoints
	}
	for _, m := range r.Medications {
		if strings.TrimSpace(m.Name) == "" {
			return ErrInvalidMedication
		}
	}
	if r.VisitDate == "" {
		r.VisitDate = now.Format("2006-01-02")
	}
	if r.Images == nil {
		r.Images = []string{}
	}
	if r.Medications == nil {
		r.Medications = []Medication{}
	}
	if r.MedicationHistory == nil {
		r.MedicationHistory = []string{}
	}
	return nil
}

// UnmarshalJSON accepts image references under any of the field names older
// clients used and in any of the supported encodings.
func (r *Record) UnmarshalJSON(data []byte) error {
	type recordAlias Record
	aux := struct {
		*recordAlias
		Images      json.RawMessage `json:"images"`
		Image       json.RawMessage `json:"image"`
		Photo       json.RawMessage `json:"photo"`
		Photos      json.RawMessage `json:"photos"`
		Attachments json.RawMessage `json:"attachments"`
	}{recordAlias: (*recordAlias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	images, err := CollectImages(aux.Images, aux.Image, aux.Photo, aux.Photos, aux.Attachments)
	if err != nil {
		return err
	}
	r.Images = images
	return nil
}

// UpdateRecordRequest is a partial update. Nil fields are left unchanged.
type UpdateRecordRequest struct {
	Soap           *Soap         `json:"soap"`
	Images         *[]string     `json:"images"`
	Medications    *[]Medication `json:"medications"`
	NextVisitDate  *string       `json:"next_visit_date"`
	NextVisitTime  *string       `json:"next_visit_time"`
	Doctor         *string       `json:"doctor"`
	NosaiPoints    *int          `json:"nosai_points"`
	ExternalCaseID *string       `json:"external_case_id"`
	ExternalRefURL *string       `json:"external_ref_url"`
}

// Apply copies the set fields onto rec and reports whether the appointment
// the record schedules changed: its date, time, doctor or assessment.
func (u *UpdateRecordRequest) Apply(rec *Record) bool {
	before := rec.appointmentKey()
	if u.Soap != nil {
		rec.Soap = *u.Soap
	}
	if u.Images != nil {
		rec.Images = *u.Images
	}
	if u.Medications != nil {
		rec.Medications = *u.Medications
	}
	if u.NextVisitDate != nil {
		rec.NextVisitDate = strings.TrimSpace(*u.NextVisitDate)
	}
	if u.NextVisitTime != nil {
		rec.NextVisitTime = strings.TrimSpace(*u.NextVisitTime)
	}
	if u.Doctor != nil {
		rec.Doctor = *u.Doctor
	}
	if u.NosaiPoints != nil {
		v := *u.NosaiPoints
		rec.NosaiPoints = &v
	}
	if u.ExternalCaseID != nil {
		rec.ExternalCaseID = *u.ExternalCaseID
	}
	if u.ExternalRefURL != nil {
		rec.ExternalRefURL = *u.ExternalRefURL
	}
	return before != rec.appointmentKey()
}
