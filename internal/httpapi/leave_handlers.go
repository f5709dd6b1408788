package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"peopleops.org/internal/audit"
	"peopleops.org/internal/leave"
)

type leaveRequestBody struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Reason    string `json:"reason"`
}

type leaveDecisionBody struct {
	Status          string `json:"status"`
	RejectionReason string `json:"rejectionReason"`
}

func (a *API) handleLeaveRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}

	var req leaveRequestBody
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil || start.IsZero() {
		writeError(w, r, http.StatusBadRequest, "startDate is required in YYYY-MM-DD format")
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil || end.IsZero() {
		writeError(w, r, http.StatusBadRequest, "endDate is required in YYYY-MM-DD format")
		return
	}

	l, err := a.leaves.Request(r.Context(), actor, start, end, req.Reason)
	if err != nil {
		handleLeaveError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "leave.request", map[string]any{
		"leave_id": l.ID,
	})
	respond(w, r, http.StatusCreated, "leave requested", l)
}

func (a *API) handleLeaveDecision(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/leave/approve/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}

	var req leaveDecisionBody
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	var decision leave.Status
	switch req.Status {
	case string(leave.StatusApproved):
		decision = leave.StatusApproved
	case string(leave.StatusRejected):
		decision = leave.StatusRejected
	default:
		writeError(w, r, http.StatusBadRequest, "status must be Approved or Rejected")
		return
	}

	l, err := a.leaves.Decide(r.Context(), actor, id, decision, req.RejectionReason)
	if err != nil {
		handleLeaveError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "leave.decide", map[string]any{
		"leave_id": l.ID,
		"status":   string(l.Status),
	})
	respond(w, r, http.StatusOK, "leave "+strings.ToLower(string(l.Status)), l)
}

func (a *API) handleLeaveCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/leave/cancel/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}

	if err := a.leaves.Cancel(r.Context(), actor, id); err != nil {
		handleLeaveError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "leave.cancel", map[string]any{
		"leave_id": id,
	})
	respond(w, r, http.StatusOK, "leave cancelled", nil)
}

// handleLeaveCollection serves the caller's own requests.
func (a *API) handleLeaveCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}
	page, limit, err := parsePage(r, leave.MaxPageSize)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	f := leave.Filter{
		EmployeeID: actor.EmployeeID,
		Status:     leave.Status(strings.TrimSpace(r.URL.Query().Get("status"))),
	}

	items, total, err := a.leaves.List(r.Context(), actor, f, page, limit)
	if err != nil {
		handleLeaveError(w, r, err)
		return
	}
	respondPaginated(w, r, "leave requests", items, page, limit, total)
}

// handleLeaveAll is the approver-side view across employees.
func (a *API) handleLeaveAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}
	page, limit, err := parsePage(r, leave.MaxPageSize)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	f := leave.Filter{
		EmployeeID: strings.TrimSpace(r.URL.Query().Get("employeeId")),
		Status:     leave.Status(strings.TrimSpace(r.URL.Query().Get("status"))),
	}

	items, total, err := a.leaves.List(r.Context(), actor, f, page, limit)
	if err != nil {
		handleLeaveError(w, r, err)
		return
	}
	respondPaginated(w, r, "all leave requests", items, page, limit, total)
}

func (a *API) handleLeaveResource(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/leave/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}

	l, err := a.leaves.Get(r.Context(), actor, id)
	if err != nil {
		handleLeaveError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "leave request", l)
}

func handleLeaveError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, leave.ErrInvalidRange),
		errors.Is(err, leave.ErrPastStartDate),
		errors.Is(err, leave.ErrOverlappingRequest),
		errors.Is(err, leave.ErrNotPending),
		errors.Is(err, leave.ErrPastRequest),
		errors.Is(err, leave.ErrRejectionReasonRequired),
		errors.Is(err, leave.ErrNotCancellable),
		errors.Is(err, leave.ErrAlreadyStarted),
		errors.Is(err, leave.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, leave.ErrAccessDenied):
		writeError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, leave.ErrNotFound), errors.Is(err, leave.ErrNoProfile):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
