package employee

import "time"

// Salary holds the base compensation components in minor currency units.
type Salary struct {
	Base       int64 `json:"base"`
	Allowance  int64 `json:"allowance"`
	Deductions int64 `json:"deductions"`
}

// Document is a stored reference to an uploaded file. Upload mechanics live
// outside this service; only the name/url pair is kept.
type Document struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Employee is the HR profile. UserID references the login account as a plain
// foreign key resolved on demand.
type Employee struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Department  string     `json:"department"`
	Title       string     `json:"title"`
	JoiningDate time.Time  `json:"joiningDate"`
	Documents   []Document `json:"documents,omitempty"`
	Salary      *Salary    `json:"salary,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Update carries optional profile mutations; nil fields are left untouched.
type Update struct {
	FirstName  *string
	LastName   *string
	Department *string
	Title      *string
	Salary     *Salary
	Documents  []Document
}

// Filter narrows employee listings.
type Filter struct {
	Department string
}
