package model

import "time"

// Event is a dated happening posted by an NGO that volunteers RSVP to.
//
// NGOName and NGOStatus come from the joined ngo_profiles row. NGOStatus is
// used for feed visibility and is not serialized.
type Event struct {
	ID          string    `json:"id"          db:"id"`
	NGOID       string    `json:"ngoId"       db:"ngo_id"`
	Title       string    `json:"title"       db:"title"`
	Description string    `json:"description" db:"description"`
	Location    string    `json:"location"    db:"location"`
	Date        time.Time `json:"date"        db:"date"`
	PosterImage string    `json:"posterImage" db:"poster_image"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"`

	NGOName   string    `json:"ngoName,omitempty" db:"ngo_name"`
	NGOStatus NGOStatus `json:"-"                 db:"ngo_status"`
}

// AttendeeStatus is the state of an RSVP.
type AttendeeStatus string

const (
	Attending    AttendeeStatus = "attending"
	NotAttending AttendeeStatus = "not attending"
)

// EventAttendee is one volunteer's RSVP to one event. The pair
// (EventID, VolunteerID) is unique.
type EventAttendee struct {
	ID          string         `json:"id"          db:"id"`
	EventID     string         `json:"eventId"     db:"event_id"`
	VolunteerID string         `json:"volunteerId" db:"volunteer_id"`
	Status      AttendeeStatus `json:"status"      db:"status"`
	CreatedAt   time.Time      `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time      `json:"updatedAt"   db:"updated_at"`

	// joined
	Username   string `json:"username,omitempty"   db:"username"`
	Email      string `json:"email,omitempty"      db:"email"`
	EventTitle string `json:"eventTitle,omitempty" db:"event_title"`
}
