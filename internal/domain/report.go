package domain

import (
	"time"

	"github.com/google/uuid"
)

// ContactReport is an issue report submitted through the contact form.
// Phone is nil when the user left it blank.
// ID is generated once by NewContactReport and survives persistence.
type ContactReport struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Surname     string    `json:"surname"`
	Email       string    `json:"email"`
	Phone       *string   `json:"phone,omitempty"`
	ReportDate  time.Time `json:"reportDate"`
	Description string    `json:"description"`
}

// NewContactReport builds a report with a freshly generated id.
func NewContactReport(name, surname, email string, phone *string, reportDate time.Time, description string) ContactReport {
	return ContactReport{
		ID:          uuid.New(),
		Name:        name,
		Surname:     surname,
		Email:       email,
		Phone:       phone,
		ReportDate:  reportDate,
		Description: description,
	}
}

// FullName joins name and surname with a single space. No trimming happens,
// so two empty parts yield " ".
func (r ContactReport) FullName() string {
	return r.Name + " " + r.Surname
}
