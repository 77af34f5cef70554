package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Results API",
        "description": "Development server for the results client. Successful bodies are bare JSON; errors use {\"error\":{code,message,status}}.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http"],
    "securityDefinitions": {
        "AccessToken": {"type": "apiKey", "in": "header", "name": "X-Access-Token"}
    },
    "tags": [
        {"name": "Authentication", "description": "Login and registration"},
        {"name": "Results", "description": "Results per session"},
        {"name": "Crawler", "description": "Crawler settings and refresh"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "description": "Rejected credentials still answer 200 with status 1 (invalid) or 2 (too many attempts).",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/LoginResponse"}},
                    "400": {"description": "Malformed body", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/auth/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Create account",
                "description": "Status 3 when the email is taken, 4 when the information is invalid.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/LoginResponse"}},
                    "400": {"description": "Malformed body", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/results/{session}": {
            "get": {
                "tags": ["Results"],
                "summary": "Results of a session",
                "security": [{"AccessToken": []}],
                "parameters": [
                    {"name": "session", "in": "path", "required": true, "type": "string", "description": "Year followed by term: 1 winter, 2 summer, 3 autumn"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Results"}},
                    "400": {"description": "Invalid session", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/crawler/refresh": {
            "post": {
                "tags": ["Crawler"],
                "summary": "Queue a crawl",
                "security": [{"AccessToken": []}],
                "responses": {
                    "200": {"description": "Queued", "schema": {"type": "object"}},
                    "503": {"description": "Crawler not running", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/crawler/config": {
            "get": {
                "tags": ["Crawler"],
                "summary": "Crawler config",
                "security": [{"AccessToken": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/CrawlerConfig"}},
                    "404": {"description": "No config", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            },
            "post": {
                "tags": ["Crawler"],
                "summary": "Replace crawler config",
                "security": [{"AccessToken": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CrawlerConfig"}}
                ],
                "responses": {
                    "200": {"description": "Saved", "schema": {"type": "object"}},
                    "400": {"description": "Invalid config", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/crawler/class": {
            "get": {
                "tags": ["Crawler"],
                "summary": "Tracked classes",
                "security": [{"AccessToken": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/CrawlerClass"}}}
                }
            },
            "post": {
                "tags": ["Crawler"],
                "summary": "Track a class",
                "security": [{"AccessToken": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CrawlerClass"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/CrawlerClass"}},
                    "400": {"description": "Invalid class", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/crawler/class/{id}": {
            "put": {
                "tags": ["Crawler"],
                "summary": "Replace a tracked class",
                "security": [{"AccessToken": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CrawlerClass"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/CrawlerClass"}},
                    "404": {"description": "Unknown class", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Crawler"],
                "summary": "Stop tracking a class",
                "security": [{"AccessToken": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Unknown class", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "RegisterRequest": {
            "type": "object",
            "required": ["email", "password", "firstName", "lastName"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string", "minLength": 6},
                "firstName": {"type": "string"},
                "lastName": {"type": "string"}
            }
        },
        "User": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "firstName": {"type": "string"},
                "lastName": {"type": "string"}
            }
        },
        "LoginResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "integer", "enum": [0, 1, 2, 3, 4]},
                "authToken": {"type": "string"},
                "user": {"$ref": "#/definitions/User"}
            }
        },
        "ResultInfo": {
            "type": "object",
            "properties": {
                "result": {"type": "string"},
                "average": {"type": "string"},
                "standardDev": {"type": "string"}
            }
        },
        "Result": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "normal": {"$ref": "#/definitions/ResultInfo"},
                "weighted": {"$ref": "#/definitions/ResultInfo"}
            }
        },
        "ClassResult": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "group": {"type": "string"},
                "year": {"type": "string"},
                "results": {"type": "array", "items": {"$ref": "#/definitions/Result"}},
                "total": {"$ref": "#/definitions/ResultInfo"},
                "final": {"type": "string"}
            }
        },
        "Results": {
            "type": "object",
            "properties": {
                "lastUpdate": {"type": "string", "format": "date-time"},
                "classes": {"type": "array", "items": {"$ref": "#/definitions/ClassResult"}}
            }
        },
        "CrawlerConfig": {
            "type": "object",
            "properties": {
                "status": {"type": "boolean"},
                "code": {"type": "string"},
                "nip": {"type": "string"},
                "notificationEmail": {"type": "string"}
            }
        },
        "CrawlerClass": {
            "type": "object",
            "required": ["name", "group", "year"],
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "group": {"type": "string"},
                "year": {"type": "string"}
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
        "ErrorEnvelope": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/APIError"}
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
