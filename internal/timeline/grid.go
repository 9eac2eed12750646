package timeline

import "time"

// Default rendering window for the day timeline, 05:00 through 23:00
// inclusive (19 slots).
const (
	DefaultStartHour = 5
	DefaultEndHour   = 23
)

// TimeSlot is one fixed hour of the day grid. Slots group sessions
// categorically; they carry no rendering geometry of their own.
type TimeSlot struct {
	HourIndex int       `json:"hour_index"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

// DayGrid produces the ordered sequence of one-hour slots for the given
// calendar day, covering startHour..endHour inclusive. The time-of-day
// portion of day is ignored. startHour > endHour yields an empty grid.
func DayGrid(day time.Time, startHour, endHour int) []TimeSlot {
	if startHour > endHour {
		return nil
	}
	base := StartOfDay(day)
	slots := make([]TimeSlot, 0, endHour-startHour+1)
	for hour := startHour; hour <= endHour; hour++ {
		start := base.Add(time.Duration(hour) * time.Hour)
		slots = append(slots, TimeSlot{
			HourIndex: hour,
			Start:     start,
			End:       start.Add(time.Hour),
		})
	}
	return slots
}
