package models

import "time"

// Override types, derived from which slot fields actually changed.
const (
	OverrideTypeTeacher     = "TEACHER"
	OverrideTypeRoom        = "ROOM"
	OverrideTypeTeacherRoom = "TEACHER_ROOM"
)

// ScheduleOverride is one audit row for a manual slot change. Old and new
// values are captured for both fields even when only one changed, so history
// rows are self-contained. Seq disambiguates rows sharing a timestamp.
type ScheduleOverride struct {
	ID           string    `db:"id" json:"id"`
	SlotID       string    `db:"slot_id" json:"slot_id"`
	OverrideType string    `db:"override_type" json:"override_type"`
	OldTeacherID string    `db:"old_teacher_id" json:"old_teacher_id"`
	NewTeacherID string    `db:"new_teacher_id" json:"new_teacher_id"`
	OldRoomID    string    `db:"old_room_id" json:"old_room_id"`
	NewRoomID    string    `db:"new_room_id" json:"new_room_id"`
	Reason       *string   `db:"reason" json:"reason,omitempty"`
	ChangedBy    string    `db:"changed_by" json:"changed_by"`
	ChangedAt    time.Time `db:"changed_at" json:"changed_at"`
	Seq          int64     `db:"seq" json:"seq"`
}

// TeacherChanged reports whether the row records a teacher swap.
func (o *ScheduleOverride) TeacherChanged() bool {
	return o != nil && o.OldTeacherID != o.NewTeacherID
}

// RoomChanged reports whether the row records a room move.
func (o *ScheduleOverride) RoomChanged() bool {
	return o != nil && o.OldRoomID != o.NewRoomID
}

// DeriveOverrideType classifies a change by which fields differ. Returns an
// empty string when nothing changed.
func DeriveOverrideType(oldTeacher, newTeacher, oldRoom, newRoom string) string {
	teacherChanged := oldTeacher != newTeacher
	roomChanged := oldRoom != newRoom
	switch {
	case teacherChanged && roomChanged:
		return OverrideTypeTeacherRoom
	case teacherChanged:
		return OverrideTypeTeacher
	case roomChanged:
		return OverrideTypeRoom
	}
	return ""
}
