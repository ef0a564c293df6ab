package models

import "time"

// Room types recognised by the conflict analyzer.
const (
	RoomTypeClassroom  = "CLASSROOM"
	RoomTypeScienceLab = "SCIENCE_LAB"
	RoomTypeComputer   = "COMPUTER_LAB"
	RoomTypeGym        = "GYM"
	RoomTypeAuditorium = "AUDITORIUM"
	RoomTypeCafeteria  = "CAFETERIA"
)

// TravelMinutes estimates walking time between two rooms. Rooms in the same
// building cost one minute plus one per floor crossed; a building change
// costs a flat eight minutes.
func TravelMinutes(a, b *Room) int {
	if a == nil || b == nil || a.ID == b.ID {
		return 0
	}
	if a.Building != b.Building {
		return 8
	}
	delta := a.Floor - b.Floor
	if delta < 0 {
		delta = -delta
	}
	return 1 + delta
}

// Room represents a physical space with bounded capacity.
type Room struct {
	ID            string    `db:"id" json:"id"`
	RoomNumber    string    `db:"room_number" json:"room_number"`
	Building      string    `db:"building" json:"building"`
	Floor         int       `db:"floor" json:"floor"`
	Capacity      int       `db:"capacity" json:"capacity"`
	RoomType      string    `db:"room_type" json:"room_type"`
	HasProjector  bool      `db:"has_projector" json:"has_projector"`
	HasComputers  bool      `db:"has_computers" json:"has_computers"`
	HasSmartboard bool      `db:"has_smartboard" json:"has_smartboard"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
