package dto

// OverrideSlotRequest applies a manual teacher/room change to a slot.
type OverrideSlotRequest struct {
	NewTeacherID string  `json:"newTeacherId" validate:"required"`
	NewRoomID    string  `json:"newRoomId" validate:"required"`
	Reason       *string `json:"reason,omitempty"`
}

// PinSlotRequest marks a slot as off-limits for automated changes.
type PinSlotRequest struct {
	Pinned bool `json:"pinned"`
}
