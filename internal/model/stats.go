package model

// PlatformStats is the admin dashboard summary.
type PlatformStats struct {
	Users         map[Role]int              `json:"users"`
	TotalUsers    int                       `json:"totalUsers"`
	NGOs          map[NGOStatus]int         `json:"ngos"`
	Events        int                       `json:"events"`
	RSVPs         int                       `json:"rsvps"`
	Opportunities int                       `json:"opportunities"`
	Applications  map[ApplicationStatus]int `json:"applications"`
	TotalHours    int                       `json:"totalHours"`
}
