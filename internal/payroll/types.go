package payroll

import (
	"fmt"
	"math"
	"time"
)

// TaxRate is the flat tax applied to basic pay.
const TaxRate = 0.10

// Record is one employee's payroll for a (month, year) pay period. The
// compound key (employee, month, year) is unique; a cycle run never
// re-creates an existing record.
type Record struct {
	ID         string     `json:"id"`
	EmployeeID string     `json:"employeeId"`
	Month      int        `json:"month"`
	Year       int        `json:"year"`
	Basic      int64      `json:"basic"`
	Allowance  int64      `json:"allowance"`
	Deductions int64      `json:"deductions"`
	Tax        int64      `json:"tax"`
	NetPay     int64      `json:"netPay"`
	PaidOn     *time.Time `json:"paidOn,omitempty"`
	PayslipURL string     `json:"payslipUrl,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Paid reports whether the record has been paid out and is thus immutable.
func (r Record) Paid() bool { return r.PaidOn != nil }

// Tax computes the rounded flat tax on basic pay.
func Tax(basic int64) int64 {
	return int64(math.Round(float64(basic) * TaxRate))
}

// Net computes net pay from its components.
func Net(basic, allowance, deductions, tax int64) int64 {
	return basic + allowance - deductions - tax
}

// PayslipURL builds the payslip document reference for a record.
func PayslipURL(employeeID string, month, year int) string {
	return fmt.Sprintf("/payslip/%s_%d_%d.pdf", employeeID, month, year)
}

// Update carries optional mutations; nil fields are left untouched. Setting
// PaidOn marks the record paid and freezes it.
type Update struct {
	Basic      *int64
	Allowance  *int64
	Deductions *int64
	Tax        *int64
	PaidOn     *time.Time
}

// Filter narrows payroll listings. Zero fields are ignored.
type Filter struct {
	EmployeeID string
	Month      int
	Year       int
}

// CycleError is one employee's failure inside a batch run.
type CycleError struct {
	EmployeeID string `json:"employeeId"`
	Reason     string `json:"reason"`
}

// CycleSummary aggregates a batch run.
type CycleSummary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// CycleResult is the partial-failure response of a payroll cycle run.
type CycleResult struct {
	Created []Record     `json:"created"`
	Errors  []CycleError `json:"errors,omitempty"`
	Summary CycleSummary `json:"summary"`
}
