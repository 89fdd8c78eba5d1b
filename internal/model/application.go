package model

import "time"

// ApplicationStatus is the NGO's decision on an application.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

// Application is one volunteer's application to one opportunity. The pair
// (OpportunityID, VolunteerID) is unique. HoursWorked may only be set while
// Status is approved.
type Application struct {
	ID            string            `json:"id"            db:"id"`
	OpportunityID string            `json:"opportunityId" db:"opportunity_id"`
	VolunteerID   string            `json:"volunteerId"   db:"volunteer_id"`
	Status        ApplicationStatus `json:"status"        db:"status"`
	HoursWorked   int               `json:"hoursWorked"   db:"hours_worked"`
	CreatedAt     time.Time         `json:"createdAt"     db:"created_at"`
	UpdatedAt     time.Time         `json:"updatedAt"     db:"updated_at"`

	// joined
	OpportunityTitle string `json:"opportunityTitle,omitempty" db:"opportunity_title"`
	NGOID            string `json:"ngoId,omitempty"            db:"ngo_id"`
	Username         string `json:"username,omitempty"         db:"username"`
	Email            string `json:"email,omitempty"            db:"email"`
}

// Applicant is the NGO's view of an application: who applied and what
// their volunteer profile says.
type Applicant struct {
	ApplicationID string            `json:"applicationId" db:"application_id"`
	VolunteerID   string            `json:"id"            db:"volunteer_id"`
	Username      string            `json:"username"      db:"username"`
	Email         string            `json:"email"         db:"email"`
	Skills        string            `json:"skills"        db:"skills"`
	Availability  string            `json:"availability"  db:"availability"`
	Resume        string            `json:"resume"        db:"resume_pdf"`
	Status        ApplicationStatus `json:"status"        db:"status"`
	HoursWorked   int               `json:"hoursWorked"   db:"hours_worked"`
}

// HoursReport summarizes the hours logged against one opportunity.
// TotalHours counts approved applications only.
type HoursReport struct {
	OpportunityID string        `json:"opportunityId"`
	TotalHours    int           `json:"totalHours"`
	Applications  []Application `json:"applications"`
}
