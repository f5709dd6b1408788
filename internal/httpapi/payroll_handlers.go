package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"peopleops.org/internal/audit"
	"peopleops.org/internal/obs"
	"peopleops.org/internal/payroll"
)

type runCycleRequest struct {
	Employees []string `json:"employees"`
	Month     int      `json:"month"`
	Year      int      `json:"year"`
}

type payrollUpdateRequest struct {
	Basic      *int64  `json:"basic"`
	Allowance  *int64  `json:"allowance"`
	Deductions *int64  `json:"deductions"`
	Tax        *int64  `json:"tax"`
	PaidOn     *string `json:"paidOn"`
}

func (a *API) handleRunCycle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}

	var req runCycleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := a.payrolls.RunCycle(r.Context(), actor, req.Employees, req.Month, req.Year)
	if err != nil && !errors.Is(err, payroll.ErrCycleFailed) {
		handlePayrollError(w, r, err)
		return
	}

	obs.CountPayroll("success", result.Summary.Successful)
	obs.CountPayroll("failure", result.Summary.Failed)
	_ = audit.LogEvent(r.Context(), "payroll.cycle.run", map[string]any{
		"month":      req.Month,
		"year":       req.Year,
		"total":      result.Summary.Total,
		"successful": result.Summary.Successful,
		"failed":     result.Summary.Failed,
	})

	if errors.Is(err, payroll.ErrCycleFailed) {
		writeJSON(w, http.StatusBadRequest, envelope{
			Success:   false,
			Message:   "payroll cycle failed for all employees",
			Data:      result,
			Errors:    result.Errors,
			RequestID: RequestIDFromContext(r.Context()),
		})
		return
	}

	code := http.StatusCreated
	message := "payroll cycle complete"
	if result.Summary.Failed > 0 {
		code = http.StatusMultiStatus
		message = "payroll cycle completed with errors"
	}
	writeJSON(w, code, envelope{
		Success:   true,
		Message:   message,
		Data:      result,
		Errors:    result.Errors,
		RequestID: RequestIDFromContext(r.Context()),
	})
}

func (a *API) handlePayrollCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}
	page, limit, err := parsePage(r, payroll.MaxPageSize)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	month, year, err := periodQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	f := payroll.Filter{
		EmployeeID: strings.TrimSpace(r.URL.Query().Get("employeeId")),
		Month:      month,
		Year:       year,
	}

	items, total, err := a.payrolls.List(r.Context(), actor, f, page, limit)
	if err != nil {
		handlePayrollError(w, r, err)
		return
	}
	respondPaginated(w, r, "payroll records", items, page, limit, total)
}

func (a *API) handlePayrollResource(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/payroll/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getPayroll(w, r, id)
	case http.MethodPut:
		a.updatePayroll(w, r, id)
	case http.MethodDelete:
		a.deletePayroll(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) getPayroll(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}
	rec, err := a.payrolls.Get(r.Context(), actor, id)
	if err != nil {
		handlePayrollError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "payroll record", rec)
}

func (a *API) updatePayroll(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}
	var req payrollUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	upd := payroll.Update{
		Basic:      req.Basic,
		Allowance:  req.Allowance,
		Deductions: req.Deductions,
		Tax:        req.Tax,
	}
	if req.PaidOn != nil {
		paidOn, err := parseDate(*req.PaidOn)
		if err != nil || paidOn.IsZero() {
			writeError(w, r, http.StatusBadRequest, "paidOn must use the YYYY-MM-DD format")
			return
		}
		upd.PaidOn = &paidOn
	}

	rec, err := a.payrolls.UpdateRecord(r.Context(), actor, id, upd)
	if err != nil {
		handlePayrollError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "payroll.record.update", map[string]any{
		"payroll_id": rec.ID,
		"paid":       rec.Paid(),
	})
	respond(w, r, http.StatusOK, "payroll record updated", rec)
}

func (a *API) deletePayroll(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}
	if err := a.payrolls.DeleteRecord(r.Context(), actor, id); err != nil {
		handlePayrollError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "payroll.record.delete", map[string]any{
		"payroll_id": id,
	})
	respond(w, r, http.StatusOK, "payroll record deleted", nil)
}

func (a *API) handlePayslip(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	employeeID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/payroll/payslip/"), "/")
	if employeeID == "" || strings.Contains(employeeID, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}
	month, year, err := periodQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if month == 0 || year == 0 {
		writeError(w, r, http.StatusBadRequest, "month and year query parameters are required")
		return
	}

	rec, err := a.payrolls.Payslip(r.Context(), actor, employeeID, month, year)
	if err != nil {
		handlePayrollError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "payslip", rec)
}

func periodQuery(r *http.Request) (month, year int, err error) {
	if raw := strings.TrimSpace(r.URL.Query().Get("month")); raw != "" {
		month, err = strconv.Atoi(raw)
		if err != nil {
			return 0, 0, errors.New("month must be an integer")
		}
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("year")); raw != "" {
		year, err = strconv.Atoi(raw)
		if err != nil {
			return 0, 0, errors.New("year must be an integer")
		}
	}
	return month, year, nil
}

func handlePayrollError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, payroll.ErrInvalidMonth),
		errors.Is(err, payroll.ErrInvalidYear),
		errors.Is(err, payroll.ErrEmptyBatch),
		errors.Is(err, payroll.ErrAlreadyPaid),
		errors.Is(err, payroll.ErrDuplicatePeriod),
		errors.Is(err, payroll.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, payroll.ErrUnauthorized):
		writeError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, payroll.ErrNotFound), errors.Is(err, payroll.ErrNoProfile):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
