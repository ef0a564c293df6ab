package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Meridian Scheduler API",
        "description": "Resource assignment and conflict resolution engine for school timetables",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Assignments", "description": "Course to room assignments"},
        {"name": "Lunch", "description": "Lunch wave balancing"},
        {"name": "Overrides", "description": "Manual overrides and audit trail"},
        {"name": "Conflicts", "description": "Conflict analysis and resolutions"},
        {"name": "Analytics", "description": "Workload and burnout analytics"},
        {"name": "Recommendations", "description": "Room and teacher suggestions"},
        {"name": "Exports", "description": "Report exports"}
    ],
    "paths": {
        "/assignments": {
            "get": {
                "tags": ["Assignments"],
                "summary": "List active assignments",
                "parameters": [
                    {"name": "courseId", "in": "query", "type": "string"},
                    {"name": "roomId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Assignments"],
                "summary": "Assign a room to a course",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignRoomRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate primary or capacity exceeded"}
                }
            }
        },
        "/assignments/{id}": {
            "delete": {
                "tags": ["Assignments"],
                "summary": "Deactivate an assignment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/lunch/assignments": {
            "post": {
                "tags": ["Lunch"],
                "summary": "Run a placement strategy over a schedule's waves",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignLunchRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/lunch/students": {
            "put": {
                "tags": ["Lunch"],
                "summary": "Move a student to a specific wave",
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Target wave is full"}
                }
            }
        },
        "/schedules/{scheduleId}/lunch/rebalance": {
            "post": {
                "tags": ["Lunch"],
                "summary": "Even out wave occupancy",
                "parameters": [
                    {"name": "scheduleId", "in": "path", "required": true, "type": "string"},
                    {"name": "maxMoves", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/{scheduleId}/conflicts": {
            "get": {
                "tags": ["Conflicts"],
                "summary": "Analyze a schedule for conflicts",
                "parameters": [
                    {"name": "scheduleId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/{scheduleId}/conflicts/{conflictId}/resolutions": {
            "get": {
                "tags": ["Conflicts"],
                "summary": "Suggest ranked resolutions for one conflict",
                "parameters": [
                    {"name": "scheduleId", "in": "path", "required": true, "type": "string"},
                    {"name": "conflictId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/slots/{slotId}/overrides": {
            "get": {
                "tags": ["Overrides"],
                "summary": "List the override audit trail for a slot",
                "parameters": [
                    {"name": "slotId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Overrides"],
                "summary": "Apply a manual teacher/room override",
                "parameters": [
                    {"name": "slotId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "401": {"description": "Actor identity required"},
                    "422": {"description": "No change detected or invalid resource"}
                }
            }
        },
        "/recommendations/rooms": {
            "get": {
                "tags": ["Recommendations"],
                "summary": "Rank candidate rooms for a course",
                "parameters": [
                    {"name": "courseId", "in": "query", "required": true, "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/{scheduleId}/burnout": {
            "get": {
                "tags": ["Analytics"],
                "summary": "List teachers at or above a burnout threshold",
                "parameters": [
                    {"name": "scheduleId", "in": "path", "required": true, "type": "string"},
                    {"name": "threshold", "in": "query", "type": "number"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "AssignRoomRequest": {
            "type": "object",
            "required": ["courseId", "roomId", "assignmentType", "usagePattern"],
            "properties": {
                "courseId": {"type": "string"},
                "roomId": {"type": "string"},
                "assignmentType": {"type": "string", "enum": ["PRIMARY", "SECONDARY", "OVERFLOW", "BREAKOUT", "ROTATING"]},
                "usagePattern": {"type": "string", "enum": ["ALWAYS", "ODD_DAYS", "EVEN_DAYS", "ALTERNATING_DAYS", "FIRST_HALF", "SECOND_HALF", "WEEKLY_ROTATION"]},
                "priority": {"type": "integer"},
                "notes": {"type": "string"},
                "replacePrimary": {"type": "boolean"}
            }
        },
        "AssignLunchRequest": {
            "type": "object",
            "required": ["scheduleId", "method"],
            "properties": {
                "scheduleId": {"type": "string"},
                "method": {"type": "string", "enum": ["ALPHABETICAL", "BALANCED"]}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"type": "object"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
