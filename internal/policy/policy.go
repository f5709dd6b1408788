package policy

import (
	"errors"
	"fmt"
	"strings"
)

// Role is the closed set of roles known to the service.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleHR       Role = "hr"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

var ErrUnknownRole = errors.New("unknown role")

// ParseRole normalizes and validates a role string.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.TrimSpace(strings.ToLower(raw))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleHR:
		return RoleHR, nil
	case RoleManager:
		return RoleManager, nil
	case RoleEmployee:
		return RoleEmployee, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, raw)
}

// Action identifies what the actor wants to do with a record.
type Action string

const (
	ActionRead   Action = "read"
	ActionMutate Action = "mutate"
)

// Actor is the resolved identity of the requester.
type Actor struct {
	UserID     string
	EmployeeID string
	Role       Role
	IsAdmin    bool
}

func (a Actor) privileged() bool {
	return a.IsAdmin || a.Role == RoleAdmin || a.Role == RoleHR
}

// DepartmentRule decides whether an actor may read records belonging to a
// department. The default grants manager reads everywhere; deployments that
// want department scoping inject a stricter rule.
type DepartmentRule func(actor Actor, department string) bool

// AllowAllDepartments is the default DepartmentRule.
func AllowAllDepartments(Actor, string) bool { return true }

// Evaluator centralizes the record-access precedence rules. All engines
// consult it before touching the store.
type Evaluator struct {
	departmentRule DepartmentRule
}

func NewEvaluator(rule DepartmentRule) *Evaluator {
	if rule == nil {
		rule = AllowAllDepartments
	}
	return &Evaluator{departmentRule: rule}
}

// Allows reports whether the actor may perform action on a record owned by
// ownerEmployeeID. Precedence: admin/hr full access, manager read access,
// employee self-service only.
func (e *Evaluator) Allows(actor Actor, action Action, ownerEmployeeID string) bool {
	if actor.privileged() {
		return true
	}
	if actor.Role == RoleManager && action == ActionRead {
		return true
	}
	return actor.EmployeeID != "" && actor.EmployeeID == ownerEmployeeID
}

// AllowsInDepartment is Allows with the injectable department rule applied on
// top for non-self reads.
func (e *Evaluator) AllowsInDepartment(actor Actor, action Action, ownerEmployeeID, department string) bool {
	if !e.Allows(actor, action, ownerEmployeeID) {
		return false
	}
	if actor.privileged() || actor.EmployeeID == ownerEmployeeID {
		return true
	}
	return e.departmentRule(actor, department)
}

// CanAccessDepartment applies the injectable department rule to a
// department-wide query filter.
func (e *Evaluator) CanAccessDepartment(actor Actor, department string) bool {
	if actor.privileged() {
		return true
	}
	return e.departmentRule(actor, department)
}

// CanViewSalary is the stricter compensation-visibility predicate: only
// admin, hr or the record's own employee see salary figures.
func (e *Evaluator) CanViewSalary(actor Actor, ownerEmployeeID string) bool {
	if actor.privileged() {
		return true
	}
	return actor.EmployeeID != "" && actor.EmployeeID == ownerEmployeeID
}

// CanManageEmployees gates profile creation and updates.
func (e *Evaluator) CanManageEmployees(actor Actor) bool {
	return actor.privileged()
}

// CanRunPayroll gates the payroll cycle and payroll mutations.
func (e *Evaluator) CanRunPayroll(actor Actor) bool {
	return actor.privileged()
}

// CanDeletePayroll is admin-only.
func (e *Evaluator) CanDeletePayroll(actor Actor) bool {
	return actor.IsAdmin || actor.Role == RoleAdmin
}

// CanManageGoals gates performance-goal creation: managers and above.
func (e *Evaluator) CanManageGoals(actor Actor) bool {
	return actor.privileged() || actor.Role == RoleManager
}

// CanUpdateGoalStatus lets managers and above move anyone's goals, and
// employees move their own.
func (e *Evaluator) CanUpdateGoalStatus(actor Actor, ownerEmployeeID string) bool {
	if e.CanManageGoals(actor) {
		return true
	}
	return actor.EmployeeID != "" && actor.EmployeeID == ownerEmployeeID
}

// CanDecideLeave gates leave approval/rejection.
func (e *Evaluator) CanDecideLeave(actor Actor) bool {
	return actor.privileged() || actor.Role == RoleManager
}

// ScopeEmployeeFilter forces non-privileged callers onto their own employee id
// before a query is built. Privileged callers keep whatever filter they asked
// for (empty means all employees).
func (e *Evaluator) ScopeEmployeeFilter(actor Actor, requested string) string {
	if actor.privileged() || actor.Role == RoleManager {
		return strings.TrimSpace(requested)
	}
	return actor.EmployeeID
}
