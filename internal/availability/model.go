package availability

type SlotStatus string

const (
	StatusAvailable SlotStatus = "available"
	StatusBooked    SlotStatus = "booked"
)

// Slot is one weekly time window. It has no id of its own: within a day it
// is identified by its (startTime, endTime) pair.
type Slot struct {
	StartTime string     `json:"startTime"`
	EndTime   string     `json:"endTime"`
	Status    SlotStatus `json:"status"`
}

// WeekGrid maps an English weekday name (Monday..Sunday) to that day's
// ordered slot list.
type WeekGrid map[string][]Slot

// Clone returns a deep copy so callers can hand grids out of the store
// without exposing its internal slices.
func (g WeekGrid) Clone() WeekGrid {
	out := make(WeekGrid, len(g))
	for day, slots := range g {
		cp := make([]Slot, len(slots))
		copy(cp, slots)
		out[day] = cp
	}
	return out
}
