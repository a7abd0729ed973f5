package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Hostel Gatepass API",
        "description": "Outing pass management for hostel students, wardens and gate guards",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Auth", "description": "Login, refresh and session management"},
        {"name": "Passes", "description": "Outing pass application and lifecycle"},
        {"name": "Scans", "description": "Gate exit/entry QR scanning"},
        {"name": "Gate", "description": "Application window and capacity control"},
        {"name": "Dashboard", "description": "Warden overview"},
        {"name": "Exports", "description": "Register exports and pass slips"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate and obtain tokens",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Rotate the refresh token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "Revoke the current session",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/auth/change-password": {
            "post": {
                "tags": ["Auth"],
                "summary": "Change the current user's password",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChangePasswordRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current user profile",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/passes": {
            "get": {
                "tags": ["Passes"],
                "summary": "List passes",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "student_id", "in": "query", "type": "string"},
                    {"name": "out_date", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Passes"],
                "summary": "Apply for an outing pass",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreatePassRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Application window closed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/passes/{id}": {
            "get": {
                "tags": ["Passes"],
                "summary": "Get a pass by code",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/passes/{id}/status": {
            "put": {
                "tags": ["Passes"],
                "summary": "Set pass status, promoting the waitlist when a slot frees up",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetPassStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unknown status", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/passes/{id}/qr": {
            "get": {
                "tags": ["Exports"],
                "summary": "Get the signed QR payload for a pass",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/passes/{id}/slip": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download the printable pass slip (PDF)",
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "PDF slip"}
                }
            }
        },
        "/scans/exit": {
            "post": {
                "tags": ["Scans"],
                "summary": "Record an exit scan at the gate",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScanRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid transition", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/scans/entry": {
            "post": {
                "tags": ["Scans"],
                "summary": "Record an entry scan at the gate",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScanRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid transition", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/gate": {
            "get": {
                "tags": ["Gate"],
                "summary": "Gate status with the current admitted count",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/gate/window": {
            "put": {
                "tags": ["Gate"],
                "summary": "Open or close the application window",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetWindowRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/gate/capacity": {
            "put": {
                "tags": ["Gate"],
                "summary": "Set daily capacity, promoting waitlisted passes if it grows",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetCapacityRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Negative capacity", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Warden overview of today's passes and waitlist",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/register": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download the gate register for a date (CSV)",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv"],
                "parameters": [
                    {"name": "date", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "CSV register"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["username", "password"]
        },
        "RefreshTokenRequest": {
            "type": "object",
            "properties": {
                "refresh_token": {"type": "string"}
            },
            "required": ["refresh_token"]
        },
        "ChangePasswordRequest": {
            "type": "object",
            "properties": {
                "old_password": {"type": "string"},
                "new_password": {"type": "string"}
            },
            "required": ["old_password", "new_password"]
        },
        "CreatePassRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"},
                "out_date": {"type": "string", "example": "2026-09-05"},
                "out_time": {"type": "string", "example": "17:30"}
            },
            "required": ["reason", "out_date"]
        },
        "SetPassStatusRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["PENDING", "APPROVED", "WAITLISTED", "REJECTED", "CANCELLED", "OUT", "RETURNED", "EXPIRED"]}
            },
            "required": ["status"]
        },
        "ScanRequest": {
            "type": "object",
            "properties": {
                "qr_data": {"type": "string"}
            },
            "required": ["qr_data"]
        },
        "SetWindowRequest": {
            "type": "object",
            "properties": {
                "open": {"type": "boolean"}
            },
            "required": ["open"]
        },
        "SetCapacityRequest": {
            "type": "object",
            "properties": {
                "capacity": {"type": "integer"}
            },
            "required": ["capacity"]
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
