package dto

// AssignRoomRequest defines the payload for binding a course to a room.
type AssignRoomRequest struct {
	CourseID       string  `json:"courseId" validate:"required"`
	RoomID         string  `json:"roomId" validate:"required"`
	AssignmentType string  `json:"assignmentType" validate:"required"`
	UsagePattern   string  `json:"usagePattern" validate:"required"`
	Priority       int     `json:"priority" validate:"gte=0"`
	Notes          *string `json:"notes,omitempty"`
	ReplacePrimary bool    `json:"replacePrimary"`
}

// AssignmentListFilter scopes assignment listings.
type AssignmentListFilter struct {
	CourseID string
	RoomID   string
}
