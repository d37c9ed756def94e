package ledger

import (
	"fmt"
	"time"
)

type PeriodStatus string

const (
	PeriodOpen   PeriodStatus = "open"
	PeriodClosed PeriodStatus = "closed"
)

type FiscalPeriod struct {
	CompanyID string       `json:"company_id"`
	Year      int          `json:"year"`
	Month     int          `json:"month"`
	Name      string       `json:"name"`
	StartDate time.Time    `json:"start_date"`
	EndDate   time.Time    `json:"end_date"`
	Status    PeriodStatus `json:"status"`
	ClosedAt  *time.Time   `json:"closed_at,omitempty"`
}

// PeriodOf derives the fiscal period of a date. Fiscal periods are
// calendar months.
func PeriodOf(date time.Time) (year, month int) {
	return date.Year(), int(date.Month())
}

// PeriodIndex orders periods as a single comparable integer.
func PeriodIndex(year, month int) int {
	return year*100 + month
}

// PrevPeriod returns the period immediately before (year, month).
func PrevPeriod(year, month int) (int, int) {
	if month == 1 {
		return year - 1, 12
	}
	return year, month - 1
}

// NewPeriod builds an open calendar-month period.
func NewPeriod(companyID string, year, month int) FiscalPeriod {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return FiscalPeriod{
		CompanyID: companyID,
		Year:      year,
		Month:     month,
		Name:      fmt.Sprintf("%04d-%02d", year, month),
		StartDate: start,
		EndDate:   start.AddDate(0, 1, -1),
		Status:    PeriodOpen,
	}
}
