package core

import "fmt"

// Frequency is the cadence of a fixed recurring series.
type Frequency string

const (
	Daily      Frequency = "DAILY"
	Weekly     Frequency = "WEEKLY"
	Biweekly   Frequency = "BIWEEKLY"
	Monthly    Frequency = "MONTHLY"
	Semiannual Frequency = "SEMIANNUAL"
	Annual     Frequency = "ANNUAL"
)

// Frequencies lists every supported frequency.
var Frequencies = []Frequency{Daily, Weekly, Biweekly, Monthly, Semiannual, Annual}

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Biweekly, Monthly, Semiannual, Annual:
		return true
	}
	return false
}

// Next returns the occurrence date that follows d. It is total over the
// declared frequencies; an unknown value is a programming error and panics.
// Calendar-month steps clamp the day of month to the shorter month.
func (f Frequency) Next(d Date) Date {
	switch f {
	case Daily:
		return d.AddDays(1)
	case Weekly:
		return d.AddDays(7)
	case Biweekly:
		return d.AddDays(15)
	case Monthly:
		return d.AddMonths(1)
	case Semiannual:
		return d.AddMonths(6)
	case Annual:
		return d.AddMonths(12)
	}
	panic(fmt.Sprintf("unknown frequency %q", string(f)))
}
