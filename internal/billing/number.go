package billing

import (
	"fmt"
	"time"
)

// NumberPrefix starts every invoice number.
const NumberPrefix = "INV"

// FormatNumber renders INV-<year>-<seq>, seq zero-padded to four digits.
func FormatNumber(year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%04d", NumberPrefix, year, seq)
}

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

// SystemClock is the wall clock.
func SystemClock() time.Time { return time.Now() }
