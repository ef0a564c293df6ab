package models

import "time"

// Course represents a course section that occupies rooms and a teacher.
type Course struct {
	ID                     string    `db:"id" json:"id"`
	Code                   string    `db:"code" json:"code"`
	Name                   string    `db:"name" json:"name"`
	Subject                string    `db:"subject" json:"subject"`
	Enrollment             int       `db:"enrollment" json:"enrollment"`
	MaxStudents            int       `db:"max_students" json:"max_students"`
	RequiresLab            bool      `db:"requires_lab" json:"requires_lab"`
	RequiredEquipment      *string   `db:"required_equipment" json:"required_equipment,omitempty"`
	UsesMultipleRooms      bool      `db:"uses_multiple_rooms" json:"uses_multiple_rooms"`
	MaxRoomDistanceMinutes int       `db:"max_room_distance_minutes" json:"max_room_distance_minutes"`
	Active                 bool      `db:"active" json:"active"`
	CreatedAt              time.Time `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time `db:"updated_at" json:"updated_at"`
}

// DistanceBound returns the proximity limit in minutes for multi-room
// placement. Courses that never set one get a five minute default.
func (c *Course) DistanceBound() int {
	if c == nil || c.MaxRoomDistanceMinutes <= 0 {
		return 5
	}
	return c.MaxRoomDistanceMinutes
}
