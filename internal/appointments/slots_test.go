package appointments

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimeOptions(t *testing.T) {
	opts := TimeOptions(8, 9, 15)
	assert.Equal(t, []string{"08:00", "08:15", "08:30", "08:45", "09:00", "09:15", "09:30", "09:45"}, opts)

	assert.Equal(t, []string{"10:00", "10:30"}, TimeOptions(10, 10, 30))
	assert.Len(t, TimeOptions(0, 23, 0), 96)
	assert.Empty(t, TimeOptions(12, 11, 15))
}

func TestSlotsMarksBookedTimes(t *testing.T) {
	ix := Index{"2025-08-31": {{Time: "08:15"}, {Time: ""}}}
	slots := Slots(ix, "2025-08-31", []string{"08:00", "08:15"})
	assert.Equal(t, []Slot{{Time: "08:00"}, {Time: "08:15", Booked: true}}, slots)

	free := Slots(ix, "2025-09-01", []string{"08:15"})
	assert.False(t, free[0].Booked)
}
