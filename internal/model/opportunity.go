package model

import "time"

// Opportunity is a volunteering posting that volunteers apply to.
type Opportunity struct {
	ID           string    `json:"id"           db:"id"`
	NGOID        string    `json:"ngoId"        db:"ngo_id"`
	Title        string    `json:"title"        db:"title"`
	Description  string    `json:"description"  db:"description"`
	Location     string    `json:"location"     db:"location"`
	Date         time.Time `json:"date"         db:"date"`
	Requirements string    `json:"requirements" db:"requirements"`
	Image        string    `json:"image"        db:"image"`
	CreatedAt    time.Time `json:"createdAt"    db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt"    db:"updated_at"`

	NGOName   string    `json:"ngoName,omitempty" db:"ngo_name"`
	NGOStatus NGOStatus `json:"-"                 db:"ngo_status"`
}
