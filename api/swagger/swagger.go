package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Classroom Occupancy API",
        "description": "Campus classroom availability board backed by camera occupancy detection",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Google sign-in, admin login, JWT sessions"},
        {"name": "Classrooms", "description": "Classroom directory"},
        {"name": "Sessions", "description": "Weekly timetable management"},
        {"name": "Occupancy", "description": "Live counts and the status board"},
        {"name": "Favorites", "description": "Per-user pins and search history"},
        {"name": "Reports", "description": "Asynchronous CSV/PDF exports"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is down"}
                }
            }
        },
        "/api/v1/auth/login": {
            "get": {
                "tags": ["Auth"],
                "summary": "Start Google sign-in",
                "responses": {
                    "200": {"description": "Authorization URL and one-shot state"}
                }
            }
        },
        "/api/v1/auth/callback": {
            "get": {
                "tags": ["Auth"],
                "summary": "Google OAuth callback",
                "parameters": [
                    {"name": "code", "in": "query", "type": "string", "required": true},
                    {"name": "state", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Token pair", "schema": {"$ref": "#/definitions/TokenResponse"}},
                    "401": {"description": "Unknown or replayed state"}
                }
            }
        },
        "/api/v1/auth/admin/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Password login for admin accounts",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AdminLoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Token pair", "schema": {"$ref": "#/definitions/TokenResponse"}},
                    "401": {"description": "Bad credentials"}
                }
            }
        },
        "/api/v1/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Rotate a refresh token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshRequest"}}
                ],
                "responses": {
                    "200": {"description": "New token pair", "schema": {"$ref": "#/definitions/TokenResponse"}}
                }
            }
        },
        "/api/v1/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current user profile",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/classrooms": {
            "get": {
                "tags": ["Classrooms"],
                "summary": "List classrooms",
                "parameters": [
                    {"name": "faculty", "in": "query", "type": "string"},
                    {"name": "building_id", "in": "query", "type": "string"},
                    {"name": "floor", "in": "query", "type": "integer"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Classrooms"],
                "summary": "Create classroom (admin)",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateClassroomRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/classrooms/{id}": {
            "get": {
                "tags": ["Classrooms"],
                "summary": "Get classroom",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Classrooms"],
                "summary": "Update classroom (admin)",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateClassroomRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Classrooms"],
                "summary": "Delete classroom (admin)",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/api/v1/buildings": {
            "get": {
                "tags": ["Classrooms"],
                "summary": "List buildings with classroom counts",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/sessions/active": {
            "get": {
                "tags": ["Sessions"],
                "summary": "Sessions in progress at an instant",
                "parameters": [
                    {"name": "at", "in": "query", "type": "string", "description": "RFC3339 instant, defaults to now"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/sessions": {
            "get": {
                "tags": ["Sessions"],
                "summary": "List class sessions",
                "parameters": [
                    {"name": "classroom_id", "in": "query", "type": "string"},
                    {"name": "day_of_week", "in": "query", "type": "integer"},
                    {"name": "period", "in": "query", "type": "integer"},
                    {"name": "semester", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Sessions"],
                "summary": "Create class session (admin)",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Slot already taken"}
                }
            }
        },
        "/api/v1/sessions/bulk": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Create many sessions in one transaction (admin)",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkCreateSessionsRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/occupancy/status": {
            "get": {
                "tags": ["Occupancy"],
                "summary": "Status board for all classrooms",
                "parameters": [
                    {"name": "faculty", "in": "query", "type": "string"},
                    {"name": "building_id", "in": "query", "type": "string"},
                    {"name": "floor", "in": "query", "type": "integer"},
                    {"name": "available_only", "in": "query", "type": "boolean"},
                    {"name": "at", "in": "query", "type": "string", "description": "RFC3339 instant pinning current mode"},
                    {"name": "date", "in": "query", "type": "string", "description": "YYYY-MM-DD, future mode"},
                    {"name": "period", "in": "query", "type": "integer", "description": "1-7, future mode"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "date without period or vice versa"}
                }
            }
        },
        "/api/v1/classrooms/{id}/status": {
            "get": {
                "tags": ["Occupancy"],
                "summary": "Status for one classroom",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "date", "in": "query", "type": "string"},
                    {"name": "period", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/classrooms/{id}/occupancy": {
            "get": {
                "tags": ["Occupancy"],
                "summary": "Latest occupancy snapshot",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Occupancy"],
                "summary": "Ingest a camera reading",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateOccupancyRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/classrooms/{id}/occupancy/history": {
            "get": {
                "tags": ["Occupancy"],
                "summary": "Occupancy history, newest first",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/favorites": {
            "get": {
                "tags": ["Favorites"],
                "summary": "List favorite classrooms",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Favorites"],
                "summary": "Pin a classroom",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateFavoriteRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/reports": {
            "get": {
                "tags": ["Reports"],
                "summary": "List recent report jobs",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Reports"],
                "summary": "Queue a report export",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateReportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/reports/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Get one report job",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/reports/download/{token}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a finished report via signed token",
                "parameters": [
                    {"name": "token", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "File stream"},
                    "401": {"description": "Expired or invalid token"}
                }
            }
        }
    },
    "definitions": {
        "AdminLoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "RefreshRequest": {
            "type": "object",
            "properties": {
                "refresh_token": {"type": "string"}
            },
            "required": ["refresh_token"]
        },
        "TokenResponse": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "refresh_token": {"type": "string"},
                "token_type": {"type": "string"},
                "expires_in": {"type": "integer"},
                "user": {"type": "object"}
            }
        },
        "CreateClassroomRequest": {
            "type": "object",
            "properties": {
                "room_number": {"type": "string"},
                "building_id": {"type": "string"},
                "faculty": {"type": "string"},
                "floor": {"type": "integer"},
                "capacity": {"type": "integer"},
                "has_projector": {"type": "boolean"},
                "has_wifi": {"type": "boolean"},
                "has_power_outlets": {"type": "boolean"}
            },
            "required": ["room_number", "building_id", "faculty", "capacity"]
        },
        "UpdateClassroomRequest": {
            "type": "object",
            "properties": {
                "room_number": {"type": "string"},
                "building_id": {"type": "string"},
                "faculty": {"type": "string"},
                "floor": {"type": "integer"},
                "capacity": {"type": "integer"},
                "has_projector": {"type": "boolean"},
                "has_wifi": {"type": "boolean"},
                "has_power_outlets": {"type": "boolean"}
            }
        },
        "CreateSessionRequest": {
            "type": "object",
            "properties": {
                "classroom_id": {"type": "string"},
                "day_of_week": {"type": "integer", "description": "0=Monday .. 6=Sunday"},
                "period": {"type": "integer", "description": "1-7"},
                "start_time": {"type": "string", "description": "HH:MM, defaults to the period window"},
                "end_time": {"type": "string"},
                "class_name": {"type": "string"},
                "course_code": {"type": "string"},
                "instructor": {"type": "string"},
                "semester": {"type": "string"}
            },
            "required": ["classroom_id", "day_of_week", "period", "class_name"]
        },
        "BulkCreateSessionsRequest": {
            "type": "object",
            "properties": {
                "sessions": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/CreateSessionRequest"}
                }
            },
            "required": ["sessions"]
        },
        "UpdateOccupancyRequest": {
            "type": "object",
            "properties": {
                "current_count": {"type": "integer"},
                "detection_confidence": {"type": "number"},
                "camera_id": {"type": "string"}
            },
            "required": ["current_count"]
        },
        "CreateFavoriteRequest": {
            "type": "object",
            "properties": {
                "classroom_id": {"type": "string"}
            },
            "required": ["classroom_id"]
        },
        "CreateReportRequest": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["utilization", "history"]},
                "format": {"type": "string", "enum": ["csv", "pdf"]},
                "classroom_id": {"type": "string"},
                "faculty": {"type": "string"},
                "from": {"type": "string", "description": "YYYY-MM-DD"},
                "to": {"type": "string", "description": "YYYY-MM-DD"}
            },
            "required": ["type", "format"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
