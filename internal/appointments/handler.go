package appointments

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/wolfman30/vetchart/pkg/logging"
)

// Handler serves the appointment index to the calendar, day list and
// booking form.
type Handler struct {
	refresher *Refresher
	loc       *time.Location
	now       func() time.Time
	logger    *logging.Logger
}

func NewHandler(refresher *Refresher, loc *time.Location, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{refresher: refresher, loc: loc, now: time.Now, logger: logger}
}

// IndexResponse is the full index plus where it came from.
type IndexResponse struct {
	Source       Origin    `json:"source"`
	GeneratedAt  time.Time `json:"generated_at"`
	Count        int       `json:"count"`
	Dropped      int       `json:"dropped"`
	Appointments Index     `json:"appointments"`
}

func newIndexResponse(res Result) IndexResponse {
	return IndexResponse{
		Source:       res.Origin,
		GeneratedAt:  res.GeneratedAt,
		Count:        res.Index.Count(),
		Dropped:      res.Dropped,
		Appointments: res.Index,
	}
}

// ListAppointments handles GET /api/appointments. With ?date= it returns that
// day in day order, otherwise every appointment chronologically.
func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	ix := h.refresher.Holder().Current().Index
	var list []Appointment
	if date := r.URL.Query().Get("date"); date != "" {
		list = ix.Day(date)
	} else {
		list = ix.Flatten()
	}
	if list == nil {
		list = []Appointment{}
	}
	writeJSON(w, http.StatusOK, list)
}

// GetIndex handles GET /api/appointments/index
func (h *Handler) GetIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newIndexResponse(h.refresher.Holder().Current()))
}

// Refresh handles POST /api/appointments/refresh
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	res := h.refresher.RefreshNow(r.Context())
	h.logger.Info("appointments refreshed on request", "source", res.Origin, "count", res.Index.Count())
	writeJSON(w, http.StatusOK, newIndexResponse(res))
}

// GetSlots handles GET /api/appointments/slots?date=YYYY-MM-DD&start=&end=&interval=
func (h *Handler) GetSlots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date := q.Get("date")
	if date == "" {
		http.Error(w, "date is required", http.StatusBadRequest)
		return
	}
	start, err := intParam(q.Get("start"), 0, 0, 23)
	if err != nil {
		http.Error(w, "start must be an hour between 0 and 23", http.StatusBadRequest)
		return
	}
	end, err := intParam(q.Get("end"), 23, start, 23)
	if err != nil {
		http.Error(w, "end must be an hour between start and 23", http.StatusBadRequest)
		return
	}
	interval, err := intParam(q.Get("interval"), 15, 1, 60)
	if err != nil {
		http.Error(w, "interval must be between 1 and 60 minutes", http.StatusBadRequest)
		return
	}
	ix := h.refresher.Holder().Current().Index
	writeJSON(w, http.StatusOK, Slots(ix, date, TimeOptions(start, end, interval)))
}

// GetCalendar handles GET /api/appointments/calendar.ics
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	ix := h.refresher.Holder().Current().Index
	body := ExportICS(ix, h.loc, h.now().UTC())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="appointments.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func intParam(raw string, def, lo, hi int) (int, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if v < lo || v > hi {
		return 0, strconv.ErrRange
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
