package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"peopleops.org/internal/attendance"
	"peopleops.org/internal/audit"
)

type attendanceTodayResponse struct {
	Record attendance.Record `json:"record"`
	Status attendance.Status `json:"status"`
}

func (a *API) handleClockIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}
	if actor.EmployeeID == "" {
		handleAttendanceError(w, r, attendance.ErrNoProfile)
		return
	}

	rec, err := a.attendance.ClockIn(r.Context(), actor.EmployeeID)
	if err != nil {
		handleAttendanceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "attendance.clock_in", map[string]any{
		"record_id": rec.ID,
	})
	respond(w, r, http.StatusCreated, "clocked in", rec)
}

func (a *API) handleClockOut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}
	if actor.EmployeeID == "" {
		handleAttendanceError(w, r, attendance.ErrNoProfile)
		return
	}

	rec, err := a.attendance.ClockOut(r.Context(), actor.EmployeeID)
	if err != nil {
		handleAttendanceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "attendance.clock_out", map[string]any{
		"record_id": rec.ID,
	})
	respond(w, r, http.StatusOK, "clocked out", rec)
}

func (a *API) handleAttendanceToday(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}

	rec, status, err := a.attendance.Today(r.Context(), actor.EmployeeID)
	if err != nil {
		handleAttendanceError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "today's attendance", attendanceTodayResponse{
		Record: rec,
		Status: status,
	})
}

func (a *API) handleAttendanceSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}

	from, to, page, limit, err := attendanceQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	recs, total, err := a.attendance.Summary(r.Context(), actor, from, to, page, limit)
	if err != nil {
		handleAttendanceError(w, r, err)
		return
	}
	respondPaginated(w, r, "attendance summary", recs, page, limit, total)
}

func (a *API) handleAllEmployeesSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}

	from, to, page, limit, err := attendanceQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	f := attendance.Filter{
		EmployeeID: strings.TrimSpace(r.URL.Query().Get("employeeId")),
		Department: strings.TrimSpace(r.URL.Query().Get("department")),
		From:       from,
		To:         to,
	}

	recs, total, err := a.attendance.AllEmployeesSummary(r.Context(), actor, f, page, limit)
	if err != nil {
		handleAttendanceError(w, r, err)
		return
	}
	respondPaginated(w, r, "all employees attendance", recs, page, limit, total)
}

func (a *API) handleEmployeeAttendance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/attendance/employee/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}

	from, to, page, limit, err := attendanceQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	recs, total, err := a.attendance.EmployeeSummary(r.Context(), actor, id, from, to, page, limit)
	if err != nil {
		handleAttendanceError(w, r, err)
		return
	}
	respondPaginated(w, r, "employee attendance", recs, page, limit, total)
}

func attendanceQuery(r *http.Request) (from, to time.Time, page, limit int, err error) {
	from, err = parseDate(r.URL.Query().Get("startDate"))
	if err != nil {
		return
	}
	to, err = parseDate(r.URL.Query().Get("endDate"))
	if err != nil {
		return
	}
	page, limit, err = parsePage(r, attendance.MaxPageSize)
	return
}

func handleAttendanceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, attendance.ErrAlreadyClockedIn),
		errors.Is(err, attendance.ErrNoClockInFound),
		errors.Is(err, attendance.ErrMustClockInFirst),
		errors.Is(err, attendance.ErrAlreadyClockedOut),
		errors.Is(err, attendance.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, attendance.ErrAccessDenied):
		writeError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, attendance.ErrNoProfile),
		errors.Is(err, attendance.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
