package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"peopleops.org/internal/audit"
	"peopleops.org/internal/employee"
)

type createEmployeeRequest struct {
	UserID      string           `json:"userId"`
	FirstName   string           `json:"firstName"`
	LastName    string           `json:"lastName"`
	Department  string           `json:"department"`
	Title       string           `json:"title"`
	JoiningDate string           `json:"joiningDate"`
	Salary      *employee.Salary `json:"salary"`
}

type updateEmployeeRequest struct {
	FirstName  *string             `json:"firstName"`
	LastName   *string             `json:"lastName"`
	Department *string             `json:"department"`
	Title      *string             `json:"title"`
	Salary     *employee.Salary    `json:"salary"`
	Documents  []employee.Document `json:"documents"`
}

func (a *API) handleEmployeesCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createEmployee(w, r)
	case http.MethodGet:
		a.listEmployees(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) createEmployee(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}
	var req createEmployeeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	joining, err := parseDate(req.JoiningDate)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	in := employee.CreateInput{
		UserID:      req.UserID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Department:  req.Department,
		Title:       req.Title,
		JoiningDate: joining,
	}
	if req.Salary != nil {
		in.Salary = *req.Salary
	}

	e, err := a.employees.Create(r.Context(), actor, in)
	if err != nil {
		handleEmployeeError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "employee.create", map[string]any{
		"employee_id": e.ID,
		"department":  e.Department,
	})
	w.Header().Set("Location", "/employees/"+e.ID)
	respond(w, r, http.StatusCreated, "employee created", e)
}

func (a *API) listEmployees(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}
	page, limit, err := parsePage(r, employee.MaxPageSize)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	f := employee.Filter{
		Department: strings.TrimSpace(r.URL.Query().Get("department")),
	}

	items, total, err := a.employees.List(r.Context(), actor, f, page, limit)
	if err != nil {
		handleEmployeeError(w, r, err)
		return
	}
	respondPaginated(w, r, "employees", items, page, limit, total)
}

func (a *API) handleEmployeeSelf(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}

	e, err := a.employees.Self(r.Context(), actor)
	if err != nil {
		handleEmployeeError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "employee profile", e)
}

func (a *API) handleEmployeeResource(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/employees/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getEmployee(w, r, id)
	case http.MethodPut:
		a.updateEmployee(w, r, id)
	case http.MethodDelete:
		a.deleteEmployee(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) getEmployee(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}
	e, err := a.employees.Get(r.Context(), actor, id)
	if err != nil {
		handleEmployeeError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "employee profile", e)
}

func (a *API) updateEmployee(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}
	var req updateEmployeeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	upd := employee.Update{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Department: req.Department,
		Title:      req.Title,
		Salary:     req.Salary,
		Documents:  req.Documents,
	}

	e, err := a.employees.UpdateProfile(r.Context(), actor, id, upd)
	if err != nil {
		handleEmployeeError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "employee.update", map[string]any{
		"employee_id": e.ID,
	})
	respond(w, r, http.StatusOK, "employee updated", e)
}

func (a *API) deleteEmployee(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}
	if err := a.employees.Delete(r.Context(), actor, id); err != nil {
		handleEmployeeError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "employee.delete", map[string]any{
		"employee_id": id,
	})
	respond(w, r, http.StatusOK, "employee deleted", nil)
}

func handleEmployeeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, employee.ErrInvalidInput), errors.Is(err, employee.ErrAlreadyExists):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, employee.ErrAccessDenied):
		writeError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, employee.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
