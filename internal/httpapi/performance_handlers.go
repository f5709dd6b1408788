package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"peopleops.org/internal/audit"
	"peopleops.org/internal/performance"
)

type goalBody struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	TargetDate  string `json:"targetDate"`
	Status      string `json:"status,omitempty"`
}

type setGoalsRequest struct {
	EmployeeID string     `json:"employeeId"`
	Goals      []goalBody `json:"goals"`
}

type goalStatusBody struct {
	Status string `json:"status"`
}

func (a *API) handleSetGoals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}

	var req setGoalsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	inputs := make([]performance.GoalInput, 0, len(req.Goals))
	for _, g := range req.Goals {
		target, err := parseDate(g.TargetDate)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "targetDate is required in YYYY-MM-DD format")
			return
		}
		inputs = append(inputs, performance.GoalInput{
			Title:       g.Title,
			Description: g.Description,
			TargetDate:  target,
			Status:      g.Status,
		})
	}

	goals, err := a.performance.SetGoals(r.Context(), actor, req.EmployeeID, inputs)
	if err != nil {
		handlePerformanceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "performance.goals.set", map[string]any{
		"employee_id": req.EmployeeID,
		"count":       len(req.Goals),
	})
	respond(w, r, http.StatusCreated, "goals set", goals)
}

// handleEmployeeGoals serves GET /performance/goals/{employeeId}.
func (a *API) handleEmployeeGoals(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/performance/goals/"), "/")
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

	goals, err := a.performance.Goals(r.Context(), actor, id)
	if err != nil {
		handlePerformanceError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "performance goals", goals)
}

// handleGoalStatus serves PUT /performance/goal/status/{employeeId}/{goalId}.
func (a *API) handleGoalStatus(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/performance/goal/status/"), "/")
	employeeID, goalID, found := strings.Cut(rest, "/")
	if !found || employeeID == "" || goalID == "" || strings.Contains(goalID, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}

	var req goalStatusBody
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	g, err := a.performance.UpdateStatus(r.Context(), actor, employeeID, goalID, req.Status)
	if err != nil {
		handlePerformanceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "performance.goal.status", map[string]any{
		"employee_id": employeeID,
		"goal_id":     goalID,
		"status":      string(g.Status),
	})
	respond(w, r, http.StatusOK, "goal status updated", g)
}

func handlePerformanceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, performance.ErrEmptyGoals),
		errors.Is(err, performance.ErrTitleTooShort),
		errors.Is(err, performance.ErrDescriptionTooShort),
		errors.Is(err, performance.ErrTargetDateNotFuture),
		errors.Is(err, performance.ErrInvalidStatus),
		errors.Is(err, performance.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, performance.ErrAccessDenied):
		writeError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, performance.ErrNotFound),
		errors.Is(err, performance.ErrEmployeeNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
