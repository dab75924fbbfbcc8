// Package docs holds the Swagger description of the guestbook API.
// Regenerate with: swag init -g main.go
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
        "/get-feedback": {
            "get": {
                "description": "Returns every feedback entry in submission order.",
                "produces": ["application/json"],
                "tags": ["feedback"],
                "summary": "List feedback",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/types.Feedback"}}
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {"$ref": "#/definitions/types.ErrorResponse"}
                    }
                }
            }
        },
        "/get-visitors": {
            "get": {
                "description": "Returns every visitor, oldest first.",
                "produces": ["application/json"],
                "tags": ["visitors"],
                "summary": "List visitors",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/types.VisitorView"}}
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {"$ref": "#/definitions/types.ErrorResponse"}
                    }
                }
            }
        },
        "/health": {
            "get": {
                "description": "Reports store, Redis and replication status.",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Service health",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.HealthCheck"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.HealthCheck"}}
                }
            }
        },
        "/save-visitor": {
            "post": {
                "description": "Records a visitor name. The same name is accepted once per duplicate window.",
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["visitors"],
                "summary": "Sign the guestbook",
                "parameters": [
                    {
                        "description": "Visitor payload",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/types.VisitorCreate"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.SaveVisitorResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/submit-feedback": {
            "post": {
                "description": "Records a feedback message.",
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["feedback"],
                "summary": "Submit feedback",
                "parameters": [
                    {
                        "description": "Feedback payload",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/types.FeedbackCreate"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "400"},
                "details": {"type": "string", "example": "name must be between 1 and 50 characters"},
                "message": {"type": "string", "example": "Invalid name"},
                "type": {"type": "string", "example": "VALIDATION_ERROR"}
            }
        },
        "types.Feedback": {
            "type": "object",
            "properties": {
                "feedback": {"type": "string", "example": "Lovely page!"},
                "timestamp": {"type": "string", "example": "2024-05-01T12:00:00.000Z"}
            }
        },
        "types.FeedbackCreate": {
            "type": "object",
            "properties": {
                "feedback": {"type": "string"}
            }
        },
        "types.HealthCheck": {
            "type": "object",
            "properties": {
                "components": {
                    "type": "object",
                    "additionalProperties": {"$ref": "#/definitions/types.HealthComponent"}
                },
                "replication": {"type": "string"},
                "status": {"type": "string"},
                "timestamp": {"type": "string"},
                "uptime": {"type": "string"},
                "version": {"type": "string"}
            }
        },
        "types.HealthComponent": {
            "type": "object",
            "properties": {
                "details": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "types.SaveVisitorResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "Visitor data saved successfully!"},
                "totalVisitors": {"type": "integer", "example": 42}
            }
        },
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "Feedback submitted successfully!"}
            }
        },
        "types.VisitorCreate": {
            "type": "object",
            "properties": {
                "name": {"type": "string"}
            }
        },
        "types.VisitorView": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "example": "Ada"},
                "timestamp": {"type": "string", "example": "2024-05-01T12:00:00.000Z"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Hello I Was Here Guestbook API",
	Description:      "Visitor guestbook and feedback endpoints.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
