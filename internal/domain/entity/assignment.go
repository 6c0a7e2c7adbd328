package entity

import "time"

// Assignment represents a consultant's scheduled travel for a client project
type Assignment struct {
	ID            int64      `json:"id"`
	ProjectID     int64      `json:"project_id"`
	ConsultantID  int64      `json:"consultant_id"`
	Origin        string     `json:"origin"`
	Destination   string     `json:"destination"`
	DepartureDate time.Time  `json:"departure_date"`
	ReturnDate    *time.Time `json:"return_date,omitempty"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Assignment status constants
const (
	AssignmentStatusPending   = "pending"
	AssignmentStatusConfirmed = "confirmed"
	AssignmentStatusCompleted = "completed"
	AssignmentStatusCancelled = "cancelled"
)
