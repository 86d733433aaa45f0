// Package docs registers the OpenAPI document of the collector with swag.
// Regenerate with: swag init -g cmd/collector/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/analytics/track": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["analytics"],
                "summary": "Ingest a telemetry event",
                "parameters": [
                    {"description": "Telemetry event", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.trackEventRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/handler.acceptedResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/analytics/summary": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["analytics"],
                "summary": "Aggregate event summary",
                "parameters": [
                    {"type": "string", "description": "RFC 3339 timestamp or YYYY-MM-DD", "name": "startDate", "in": "query"},
                    {"type": "string", "description": "RFC 3339 timestamp or YYYY-MM-DD (inclusive day)", "name": "endDate", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Summary"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/analytics/popular-pages": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["analytics"],
                "summary": "Most viewed pages",
                "parameters": [
                    {"type": "integer", "description": "Number of pages (default 10, max 100)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.PageCount"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/analytics/user-journey": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["analytics"],
                "summary": "Events of one visit or one user",
                "parameters": [
                    {"type": "string", "description": "Session identifier", "name": "sessionId", "in": "query"},
                    {"type": "string", "description": "User identifier", "name": "userId", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.TelemetryEvent"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login",
                "parameters": [
                    {"description": "Login credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.authResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/auth/register": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register a new user",
                "parameters": [
                    {"description": "User registration details", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.registerRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.authResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.PageCount": {
            "type": "object",
            "properties": {"path": {"type": "string"}, "views": {"type": "integer"}}
        },
        "domain.Summary": {
            "type": "object",
            "properties": {
                "totalEvents": {"type": "integer"},
                "pageViews": {"type": "integer"},
                "uniqueSessions": {"type": "integer"},
                "uniqueVisitors": {"type": "integer"},
                "eventsByType": {"type": "object", "additionalProperties": {"type": "integer"}},
                "topPages": {"type": "array", "items": {"$ref": "#/definitions/domain.PageCount"}},
                "startDate": {"type": "string"},
                "endDate": {"type": "string"}
            }
        },
        "domain.TelemetryEvent": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "type": {"type": "string"},
                "path": {"type": "string"},
                "referrer": {"type": "string"},
                "userAgent": {"type": "string"},
                "sessionId": {"type": "string"},
                "timestamp": {"type": "string"},
                "metadata": {"type": "object", "additionalProperties": true}
            }
        },
        "domain.User": {
            "type": "object",
            "properties": {"id": {"type": "string"}, "username": {"type": "string"}, "role": {"type": "string"}}
        },
        "handler.acceptedResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "handler.authResponse": {
            "type": "object",
            "properties": {"token": {"type": "string"}, "user": {"$ref": "#/definitions/domain.User"}}
        },
        "handler.errorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "handler.loginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {"username": {"type": "string"}, "password": {"type": "string"}}
        },
        "handler.registerRequest": {
            "type": "object",
            "required": ["username", "password", "role"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"},
                "role": {"type": "string", "enum": ["admin", "client", "subscriber"]}
            }
        },
        "handler.trackEventRequest": {
            "type": "object",
            "required": ["type", "sessionId"],
            "properties": {
                "type": {"type": "string"},
                "path": {"type": "string"},
                "referrer": {"type": "string"},
                "userAgent": {"type": "string"},
                "sessionId": {"type": "string"},
                "timestamp": {"type": "string"},
                "metadata": {"type": "object", "additionalProperties": true}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Tekvoro Analytics Collector",
	Description:      "Ingests website telemetry and serves the admin analytics views.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
