// Package docs holds the OpenAPI document served at /swagger/*. Regenerate it
// with `swag init -g cmd/server/main.go` after changing handler annotations.
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
        "/api/save-contact": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["contacts"],
                "summary": "Submit the contact form",
                "parameters": [
                    {"description": "Contact form", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.saveContactRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.saveContactResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/api/contacts": {
            "get": {
                "produces": ["application/json"],
                "tags": ["contacts"],
                "summary": "List every stored contact",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Contact"}}}
                }
            }
        },
        "/api/contacts/delete-all": {
            "delete": {
                "security": [{"SessionToken": []}],
                "produces": ["application/json"],
                "tags": ["contacts"],
                "summary": "Delete every contact",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.deleteAllResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/api/contacts/{id}": {
            "delete": {
                "security": [{"SessionToken": []}],
                "produces": ["application/json"],
                "tags": ["contacts"],
                "summary": "Delete one contact",
                "parameters": [
                    {"type": "integer", "description": "Contact id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.deleteContactResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/api/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login",
                "parameters": [
                    {"description": "Login credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.loginResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/api/logout": {
            "post": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Logout",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.messageResponse"}}
                }
            }
        },
        "/api/change-password": {
            "post": {
                "security": [{"SessionToken": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Change the admin password",
                "parameters": [
                    {"description": "Current and new password", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.changePasswordRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.messageResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/api/auth-check": {
            "get": {
                "security": [{"SessionToken": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Check the session",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.authCheckResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/api/profile": {
            "get": {
                "produces": ["application/json"],
                "tags": ["profile"],
                "summary": "Get the profile document",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.profileResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/download-contacts": {
            "get": {
                "security": [{"SessionToken": []}],
                "produces": ["application/json"],
                "tags": ["contacts"],
                "summary": "Download the raw contacts file",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/admin/contacts/download-txt": {
            "get": {
                "security": [{"SessionToken": []}],
                "produces": ["text/plain"],
                "tags": ["contacts"],
                "summary": "Download contacts as plain text",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "string"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.livenessResponse"}}
                }
            }
        },
        "/health/ready": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.readinessResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.readinessResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.Contact": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "message": {"type": "string"},
                "timestamp": {"type": "string"},
                "ip": {"type": "string"},
                "userAgent": {"type": "string"}
            }
        },
        "domain.FieldError": {
            "type": "object",
            "properties": {
                "field": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "handler.saveContactRequest": {
            "type": "object",
            "required": ["email", "message", "name"],
            "properties": {
                "name": {"type": "string", "maxLength": 100},
                "email": {"type": "string", "maxLength": 100},
                "message": {"type": "string", "maxLength": 1000},
                "timestamp": {"type": "string"}
            }
        },
        "handler.saveContactResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "id": {"type": "integer"},
                "emailSent": {"type": "boolean"}
            }
        },
        "handler.deleteContactResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "remaining": {"type": "integer"}
            }
        },
        "handler.deleteAllResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "deleted": {"type": "integer"}
            }
        },
        "handler.loginRequest": {
            "type": "object",
            "required": ["password", "username"],
            "properties": {
                "username": {"type": "string", "maxLength": 50},
                "password": {"type": "string"}
            }
        },
        "handler.loginResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "token": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "handler.changePasswordRequest": {
            "type": "object",
            "required": ["currentPassword", "newPassword"],
            "properties": {
                "currentPassword": {"type": "string"},
                "newPassword": {"type": "string", "minLength": 6, "maxLength": 100}
            }
        },
        "handler.authCheckResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "authenticated": {"type": "boolean"},
                "username": {"type": "string"},
                "expiresAt": {"type": "string"}
            }
        },
        "handler.profileResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "source": {"type": "string"},
                "data": {"type": "object"}
            }
        },
        "handler.messageResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"}
            }
        },
        "handler.errorResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "error": {"type": "string"},
                "errors": {"type": "array", "items": {"$ref": "#/definitions/domain.FieldError"}}
            }
        },
        "handler.livenessResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "uptime": {"type": "number"}
            }
        },
        "handler.readinessResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "dependencies": {"type": "object"}
            }
        }
    },
    "securityDefinitions": {
        "SessionToken": {
            "type": "apiKey",
            "name": "X-Session-Token",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Portfolio API",
	Description:      "Contact form, admin session and profile endpoints of the portfolio site.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
