package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strconv"
	"strings"
)

var (
	weekdays = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	months   = []string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}
)

type Hall struct {
	Name  string `json:"name"`
	Seats int    `json:"seats"`
}

// ShowtimeKey identifies one seat pool. Requests that carry identical fields
// compete for the same seats.
type ShowtimeKey struct {
	Movie    string `json:"movieName"`
	Location string `json:"location"`
	Timing   string `json:"timing"`
	Hall     Hall   `json:"hallName"`
	Day      string `json:"day"`
	Date     string `json:"date"`
	Month    string `json:"month"`
}

// Hash returns a stable digest of the key, used for cache keys and broadcast topics.
func (k ShowtimeKey) Hash() string {
	parts := []string{k.Movie, k.Location, k.Timing, k.Hall.Name, strconv.Itoa(k.Hall.Seats), k.Day, k.Date, k.Month}
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))

	return hex.EncodeToString(sum[:16])
}

func (k ShowtimeKey) Validate() error {
	switch {
	case strings.TrimSpace(k.Movie) == "":
		return ValidationErrorf("movie name is required")
	case strings.TrimSpace(k.Location) == "":
		return ValidationErrorf("location is required")
	case strings.TrimSpace(k.Timing) == "":
		return ValidationErrorf("timing is required")
	case strings.TrimSpace(k.Hall.Name) == "":
		return ValidationErrorf("hall name is required")
	case k.Hall.Seats < 1:
		return ValidationErrorf("hall capacity must be greater than zero")
	case !IsWeekday(k.Day):
		return ValidationErrorf("day %q is not a valid weekday", k.Day)
	case !IsDayOfMonth(k.Date):
		return ValidationErrorf("date %q must be a two digit day of month", k.Date)
	case !IsMonth(k.Month):
		return ValidationErrorf("month %q is not a valid month", k.Month)
	}

	return nil
}

func IsWeekday(s string) bool {
	return slices.Contains(weekdays, s)
}

func IsMonth(s string) bool {
	return slices.Contains(months, s)
}

func IsDayOfMonth(s string) bool {
	if len(s) != 2 {
		return false
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return false
	}

	return n >= 1 && n <= 31
}

// ValidateSeats checks a seat selection against the hall capacity and returns
// the selection sorted ascending.
func ValidateSeats(seats []int, capacity, maxSeats int) ([]int, error) {
	if len(seats) == 0 {
		return nil, ValidationErrorf("at least one seat must be selected")
	}

	if maxSeats > 0 && len(seats) > maxSeats {
		return nil, ValidationErrorf("at most %d seats can be booked at once", maxSeats)
	}

	sorted := slices.Clone(seats)
	slices.Sort(sorted)

	for i, n := range sorted {
		if n < 1 || n > capacity {
			return nil, ValidationErrorf("seat %d is outside hall capacity %d", n, capacity)
		}

		if i > 0 && sorted[i-1] == n {
			return nil, ValidationErrorf("seat %d is selected more than once", n)
		}
	}

	return sorted, nil
}
