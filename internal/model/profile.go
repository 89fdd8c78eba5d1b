package model

import "time"

// NGOStatus is where an NGO sits in the admin approval workflow.
type NGOStatus string

const (
	NGOPending  NGOStatus = "pending"
	NGOApproved NGOStatus = "approved"
	NGORejected NGOStatus = "rejected"
)

// NGOProfile is the organization record owned by a user with RoleNGO.
// Only approved NGOs have their events and opportunities listed publicly.
//
// Username and Email are filled from the owning user when the row is
// loaded through a join; they are not columns of ngo_profiles.
type NGOProfile struct {
	ID          string    `json:"id"          db:"id"`
	UserID      string    `json:"userId"      db:"user_id"`
	Name        string    `json:"name"        db:"name"`
	Description string    `json:"description" db:"description"`
	Status      NGOStatus `json:"status"      db:"status"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"`

	Username string `json:"username,omitempty" db:"username"`
	Email    string `json:"email,omitempty"    db:"email"`
}

// VolunteerProfile is the profile owned by a user with RoleVolunteer.
//
// TotalHours is derived: the sum of HoursWorked over the volunteer's
// approved applications. The repository recomputes it whenever an input
// to that sum changes, so it is never written directly.
type VolunteerProfile struct {
	ID           string    `json:"id"           db:"id"`
	UserID       string    `json:"userId"       db:"user_id"`
	Skills       string    `json:"skills"       db:"skills"`
	Availability string    `json:"availability" db:"availability"`
	TotalHours   int       `json:"totalHours"   db:"total_hours"`
	ResumePDF    string    `json:"resumePDF"    db:"resume_pdf"`
	CreatedAt    time.Time `json:"createdAt"    db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt"    db:"updated_at"`

	Username string `json:"username,omitempty" db:"username"`
	Email    string `json:"email,omitempty"    db:"email"`
}
