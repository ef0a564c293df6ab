package dto

// RoomRecommendationQuery narrows room candidates for a course. Day and
// Period pin the request to one meeting time; when a ScheduleID accompanies
// them, rooms already occupied at that time are excluded.
type RoomRecommendationQuery struct {
	CourseID   string `json:"courseId"`
	ScheduleID string `json:"scheduleId,omitempty"`
	Day        string `json:"day,omitempty"`
	Period     int    `json:"period,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

// RoomRecommendation is one scored room candidate for a course.
type RoomRecommendation struct {
	RoomID     string   `json:"roomId"`
	RoomNumber string   `json:"roomNumber"`
	Building   string   `json:"building"`
	Capacity   int      `json:"capacity"`
	Score      float64  `json:"score"`
	Reasons    []string `json:"reasons,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
}

// TeacherRecommendation is one scored teacher candidate for a slot.
type TeacherRecommendation struct {
	TeacherID   string   `json:"teacherId"`
	TeacherName string   `json:"teacherName"`
	Department  string   `json:"department"`
	Score       float64  `json:"score"`
	Reasons     []string `json:"reasons,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
}

// OptimalAssignment pairs a course with its best available room.
type OptimalAssignment struct {
	CourseID   string  `json:"courseId"`
	CourseCode string  `json:"courseCode"`
	RoomID     string  `json:"roomId"`
	RoomNumber string  `json:"roomNumber"`
	Score      float64 `json:"score"`
}
