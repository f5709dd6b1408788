package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"peopleops.org/internal/attendance"
	"peopleops.org/internal/auth"
	"peopleops.org/internal/employee"
	"peopleops.org/internal/leave"
	"peopleops.org/internal/obs"
	"peopleops.org/internal/payroll"
	"peopleops.org/internal/performance"
)

// ReadyProbe is a readiness check, typically a DB ping.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer. It owns the mux and maps engine errors onto the
// response envelope; all business rules live in the services.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	auth        *auth.Service
	employees   *employee.Service
	attendance  *attendance.Service
	leaves      *leave.Service
	payrolls    *payroll.Service
	performance *performance.Service
}

// Config carries the service graph wired by cmd/api.
type Config struct {
	ReadyProbe ReadyProbe
	Version    string

	Auth        *auth.Service
	Employees   *employee.Service
	Attendance  *attendance.Service
	Leaves      *leave.Service
	Payrolls    *payroll.Service
	Performance *performance.Service
}

func New(cfg Config) *API {
	a := &API{
		mux:         http.NewServeMux(),
		readyProbe:  cfg.ReadyProbe,
		version:     cfg.Version,
		auth:        cfg.Auth,
		employees:   cfg.Employees,
		attendance:  cfg.Attendance,
		leaves:      cfg.Leaves,
		payrolls:    cfg.Payrolls,
		performance: cfg.Performance,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// auth
	a.mux.HandleFunc("/auth/register", a.handleRegister)
	a.mux.HandleFunc("/auth/login", a.handleLogin)

	// employees
	a.mux.HandleFunc("/employees", a.handleEmployeesCollection)
	a.mux.HandleFunc("/employees/me", a.handleEmployeeSelf)
	a.mux.HandleFunc("/employees/", a.handleEmployeeResource)

	// attendance
	a.mux.HandleFunc("/attendance/clock-in", a.handleClockIn)
	a.mux.HandleFunc("/attendance/clock-out", a.handleClockOut)
	a.mux.HandleFunc("/attendance/today", a.handleAttendanceToday)
	a.mux.HandleFunc("/attendance/summary", a.handleAttendanceSummary)
	a.mux.HandleFunc("/attendance/all-employees-summary", a.handleAllEmployeesSummary)
	a.mux.HandleFunc("/attendance/employee/", a.handleEmployeeAttendance)

	// leave
	a.mux.HandleFunc("/leave", a.handleLeaveCollection)
	a.mux.HandleFunc("/leave/all", a.handleLeaveAll)
	a.mux.HandleFunc("/leave/request", a.handleLeaveRequest)
	a.mux.HandleFunc("/leave/approve/", a.handleLeaveDecision)
	a.mux.HandleFunc("/leave/cancel/", a.handleLeaveCancel)
	a.mux.HandleFunc("/leave/", a.handleLeaveResource)

	// payroll
	a.mux.HandleFunc("/payroll", a.handlePayrollCollection)
	a.mux.HandleFunc("/payroll/run-cycle", a.handleRunCycle)
	a.mux.HandleFunc("/payroll/payslip/", a.handlePayslip)
	a.mux.HandleFunc("/payroll/", a.handlePayrollResource)

	// performance goals
	a.mux.HandleFunc("/performance/goals", a.handleSetGoals)
	a.mux.HandleFunc("/performance/goals/", a.handleEmployeeGoals)
	a.mux.HandleFunc("/performance/goal/status/", a.handleGoalStatus)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "resource not found")
	})

	return a
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "peopleops-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "peopleops-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}
