package booking

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// DayOfWeek derives the English weekday name from a YYYY-MM-DD date. The
// result is both the lookup key into the weekly grid and the value cached
// on the booking row.
func DayOfWeek(date string) (string, error) {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return "", fmt.Errorf("%w: date must be in YYYY-MM-DD format", ErrInvalidInput)
	}
	return t.Weekday().String(), nil
}
