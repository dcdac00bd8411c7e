// Package docs registers the OpenAPI document served at /swagger.
// Regenerate with: swag init -g cmd/api/main.go -o internal/docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "termsOfService": "http://swagger.io/terms/",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/register": {"post": {"tags": ["auth"], "summary": "Register a new user"}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Login user"}},
        "/auth/refresh": {"post": {"tags": ["auth"], "summary": "Refresh tokens"}},
        "/profile": {"get": {"security": [{"BearerAuth": []}], "tags": ["user"], "summary": "Get user profile"}},
        "/payments": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["payments"], "summary": "List payments"},
            "post": {"security": [{"BearerAuth": []}], "tags": ["payments"], "summary": "Create a payment"}
        },
        "/payments/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["payments"], "summary": "Get a payment"},
            "put": {"security": [{"BearerAuth": []}], "tags": ["payments"], "summary": "Update a payment"},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["payments"], "summary": "Delete a payment"}
        },
        "/payments/{id}/confirm": {"post": {"security": [{"BearerAuth": []}], "tags": ["payments"], "summary": "Confirm a payment"}},
        "/payments/summary": {"get": {"security": [{"BearerAuth": []}], "tags": ["payments"], "summary": "Month summary"}},
        "/payments/dashboard": {"get": {"security": [{"BearerAuth": []}], "tags": ["payments"], "summary": "Dashboard"}},
        "/payments/due-today": {"get": {"security": [{"BearerAuth": []}], "tags": ["payments"], "summary": "Payments due today"}},
        "/payments/import": {"post": {"security": [{"BearerAuth": []}], "tags": ["payments"], "summary": "Import payments"}},
        "/payments/export": {"get": {"security": [{"BearerAuth": []}], "tags": ["payments"], "summary": "Export payments"}},
        "/payments/import/xlsx": {"post": {"security": [{"BearerAuth": []}], "tags": ["payments"], "summary": "Import payments from a spreadsheet"}},
        "/payments/export/xlsx": {"get": {"security": [{"BearerAuth": []}], "tags": ["payments"], "summary": "Export payments as a spreadsheet"}},
        "/analysis": {"post": {"security": [{"BearerAuth": []}], "tags": ["analysis"], "summary": "Analyze debt"}},
        "/sync/push": {"post": {"security": [{"BearerAuth": []}], "tags": ["sync"], "summary": "Push to cloud"}},
        "/sync/pull": {"post": {"security": [{"BearerAuth": []}], "tags": ["sync"], "summary": "Pull from cloud"}},
        "/pipeline/due-today": {"get": {"tags": ["pipeline"], "summary": "Payments due today for all users"}}
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Paytrack API",
	Description:      "Paytrack tracks bills, loans, credit cards and subscriptions, moves due dates off weekends and schedules the next occurrence when a payment is confirmed.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
