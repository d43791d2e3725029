package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "CampusKit Calendar API",
        "description": "Academic calendar, holiday and reporting service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Holidays", "description": "Holiday management and lookups"},
        {"name": "Events", "description": "Academic event management and conflict checks"},
        {"name": "Reports", "description": "Monthly and term calendar reports"}
    ],
    "paths": {
        "/holidays": {
            "get": {
                "tags": ["Holidays"],
                "summary": "List holidays",
                "parameters": [
                    {"name": "startDate", "in": "query", "type": "string"},
                    {"name": "endDate", "in": "query", "type": "string"},
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "campusId", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Holidays"],
                "summary": "Create holiday",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateHolidayRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/holidays/{id}": {
            "get": {
                "tags": ["Holidays"],
                "summary": "Get holiday",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "patch": {
                "tags": ["Holidays"],
                "summary": "Update holiday",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateHolidayRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Holidays"],
                "summary": "Delete holiday",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/holidays/check": {
            "get": {
                "tags": ["Holidays"],
                "summary": "Check whether a date is a holiday",
                "parameters": [
                    {"name": "date", "in": "query", "required": true, "type": "string"},
                    {"name": "campusId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/holidays/range": {
            "get": {
                "tags": ["Holidays"],
                "summary": "List holidays in a date range",
                "parameters": [
                    {"name": "start", "in": "query", "required": true, "type": "string"},
                    {"name": "end", "in": "query", "required": true, "type": "string"},
                    {"name": "campusId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/events": {
            "get": {
                "tags": ["Events"],
                "summary": "List academic events",
                "parameters": [
                    {"name": "startDate", "in": "query", "type": "string"},
                    {"name": "endDate", "in": "query", "type": "string"},
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "academicCycleId", "in": "query", "type": "string"},
                    {"name": "campusId", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Events"],
                "summary": "Create academic event",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateEventRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/events/{id}": {
            "get": {
                "tags": ["Events"],
                "summary": "Get academic event",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "patch": {
                "tags": ["Events"],
                "summary": "Update academic event",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateEventRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Events"],
                "summary": "Delete academic event",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/events/range": {
            "get": {
                "tags": ["Events"],
                "summary": "List academic events in a date range",
                "parameters": [
                    {"name": "start", "in": "query", "required": true, "type": "string"},
                    {"name": "end", "in": "query", "required": true, "type": "string"},
                    {"name": "campusId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/events/check-conflicts": {
            "post": {
                "tags": ["Events"],
                "summary": "Probe for scheduling conflicts",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CheckConflictsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/calendar/monthly": {
            "get": {
                "tags": ["Reports"],
                "summary": "Generate monthly calendar report",
                "parameters": [
                    {"name": "date", "in": "query", "required": true, "type": "string"},
                    {"name": "campusId", "in": "query", "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/calendar/terms/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Generate term calendar report",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "campusId", "in": "query", "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Holiday": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "description": {"type": "string"},
                "start_date": {"type": "string"},
                "end_date": {"type": "string"},
                "type": {"type": "string"},
                "affects_all": {"type": "boolean"},
                "campus_ids": {"type": "array", "items": {"type": "string"}},
                "status": {"type": "string"},
                "created_by": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "CalendarEvent": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "description": {"type": "string"},
                "start_date": {"type": "string"},
                "end_date": {"type": "string"},
                "type": {"type": "string"},
                "academic_cycle_id": {"type": "string"},
                "campus_ids": {"type": "array", "items": {"type": "string"}},
                "class_ids": {"type": "array", "items": {"type": "string"}},
                "status": {"type": "string"},
                "created_by": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "CreateHolidayRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "start_date": {"type": "string"},
                "end_date": {"type": "string"},
                "type": {"type": "string"},
                "affects_all": {"type": "boolean"},
                "campus_ids": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["name", "start_date", "end_date", "type"]
        },
        "UpdateHolidayRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "start_date": {"type": "string"},
                "end_date": {"type": "string"},
                "type": {"type": "string"},
                "affects_all": {"type": "boolean"},
                "campus_ids": {"type": "array", "items": {"type": "string"}}
            }
        },
        "CreateEventRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "start_date": {"type": "string"},
                "end_date": {"type": "string"},
                "type": {"type": "string"},
                "academic_cycle_id": {"type": "string"},
                "campus_ids": {"type": "array", "items": {"type": "string"}},
                "class_ids": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["name", "start_date", "end_date", "type", "academic_cycle_id"]
        },
        "UpdateEventRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "start_date": {"type": "string"},
                "end_date": {"type": "string"},
                "type": {"type": "string"},
                "campus_ids": {"type": "array", "items": {"type": "string"}},
                "class_ids": {"type": "array", "items": {"type": "string"}}
            }
        },
        "CheckConflictsRequest": {
            "type": "object",
            "properties": {
                "start_date": {"type": "string"},
                "end_date": {"type": "string"},
                "type": {"type": "string"},
                "academic_cycle_id": {"type": "string"},
                "campus_ids": {"type": "array", "items": {"type": "string"}},
                "exclude_id": {"type": "string"}
            },
            "required": ["start_date", "end_date", "type", "academic_cycle_id"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"},
                "total_pages": {"type": "integer"}
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
                "pagination": {"$ref": "#/definitions/Pagination"},
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
