package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Lesson Planner API",
        "description": "Generates lesson schedules over a teaching calendar and shifts lessons around special events.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Planner", "description": "Lesson schedule generation and special events"},
        {"name": "Observability", "description": "Health and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Observability"],
                "summary": "Health check",
                "security": [],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Observability"],
                "summary": "Readiness check",
                "security": [],
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/planner/stats": {
            "get": {
                "tags": ["Observability"],
                "summary": "Planner cache and queue counters",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/{id}/generate": {
            "post": {
                "tags": ["Planner"],
                "summary": "Generate lesson schedule events",
                "description": "Lays lessons out over every teaching day of the schedule and replaces the current events.",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Generated", "schema": {"$ref": "#/definitions/GenerateScheduleResult"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Schedule not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Configuration issues", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/{id}/events": {
            "get": {
                "tags": ["Planner"],
                "summary": "List schedule events",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "type": "string", "format": "date"},
                    {"name": "period", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/ScheduleEvent"}}},
                    "404": {"description": "Schedule not generated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Planner"],
                "summary": "Insert a special event",
                "description": "Lessons displaced by the event move to the next free slot of the same period.",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SpecialEventRequest"}}
                ],
                "responses": {
                    "201": {"description": "Inserted", "schema": {"$ref": "#/definitions/SpecialEventResult"}},
                    "400": {"description": "Date outside the calendar", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Slot already holds a special event", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/{id}/events/{eventId}": {
            "delete": {
                "tags": ["Planner"],
                "summary": "Remove a special event",
                "description": "Later lessons of the period move back into the freed slot. Removing one event of a special day removes the whole day.",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "eventId", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Removed", "schema": {"$ref": "#/definitions/SpecialEventResult"}},
                    "404": {"description": "Event not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/{id}/occupancy": {
            "get": {
                "tags": ["Planner"],
                "summary": "Occupied periods of a date",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "date", "in": "query", "required": true, "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/OccupancyResult"}}
                }
            }
        },
        "/schedules/{id}/save": {
            "post": {
                "tags": ["Planner"],
                "summary": "Persist schedule events",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Saved", "schema": {"$ref": "#/definitions/SaveScheduleResult"}}
                }
            }
        },
        "/schedules/{id}/export": {
            "get": {
                "tags": ["Planner"],
                "summary": "Export schedule calendar",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Calendar file", "schema": {"type": "file"}}
                }
            }
        }
    },
    "definitions": {
        "ScheduleEvent": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "scheduleId": {"type": "string"},
                "courseId": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "period": {"type": "integer"},
                "lessonId": {"type": "string"},
                "eventType": {"type": "string"},
                "eventCategory": {"type": "string", "enum": ["SpecialPeriod", "SpecialDay"]},
                "comment": {"type": "string"}
            }
        },
        "SpecialEventRequest": {
            "type": "object",
            "properties": {
                "date": {"type": "string", "format": "date"},
                "period": {"type": "integer"},
                "eventType": {"type": "string"},
                "eventCategory": {"type": "string", "enum": ["SpecialPeriod", "SpecialDay"]},
                "comment": {"type": "string"}
            },
            "required": ["date", "eventType", "eventCategory"]
        },
        "ShiftSummary": {
            "type": "object",
            "properties": {
                "direction": {"type": "string", "enum": ["forward", "backward"]},
                "period": {"type": "integer"},
                "moved": {"type": "array", "items": {"$ref": "#/definitions/ScheduleEvent"}},
                "removed": {"type": "array", "items": {"type": "integer"}},
                "overflowed": {"type": "array", "items": {"$ref": "#/definitions/ScheduleEvent"}},
                "stranded": {"type": "array", "items": {"type": "integer"}}
            }
        },
        "SpecialEventResult": {
            "type": "object",
            "properties": {
                "version": {"type": "integer"},
                "inserted": {"type": "array", "items": {"$ref": "#/definitions/ScheduleEvent"}},
                "removed": {"type": "array", "items": {"$ref": "#/definitions/ScheduleEvent"}},
                "shifts": {"type": "array", "items": {"$ref": "#/definitions/ShiftSummary"}}
            }
        },
        "ScheduleIssue": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "period": {"type": "integer"}
            }
        },
        "GenerateScheduleResult": {
            "type": "object",
            "properties": {
                "scheduleId": {"type": "string"},
                "version": {"type": "integer"},
                "events": {"type": "integer"},
                "lessonsPlaced": {"type": "integer"},
                "errorEvents": {"type": "integer"},
                "teachingDays": {"type": "integer"},
                "issues": {"type": "array", "items": {"$ref": "#/definitions/ScheduleIssue"}}
            }
        },
        "OccupancyResult": {
            "type": "object",
            "properties": {
                "date": {"type": "string", "format": "date"},
                "periods": {"type": "array", "items": {"type": "integer"}},
                "blocked": {"type": "array", "items": {"type": "integer"}}
            }
        },
        "SaveScheduleResult": {
            "type": "object",
            "properties": {
                "scheduleId": {"type": "string"},
                "version": {"type": "integer"},
                "storedVersion": {"type": "integer"},
                "persisted": {"type": "boolean"},
                "eventsInserted": {"type": "integer"},
                "eventsUpdated": {"type": "integer"},
                "eventsDeleted": {"type": "integer"}
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
