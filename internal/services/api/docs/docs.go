// Package docs holds the OpenAPI description served at /api/docs/doc.json.
// Regenerate with swag when handler annotations change.
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
  "openapi": "3.0.3",
  "info": {
    "title": "{{.Title}}",
    "description": "{{escape .Description}}",
    "version": "{{.Version}}"
  },
  "servers": [{"url": "{{.BasePath}}"}],
  "paths": {
    "/requests": {
      "post": {
        "tags": ["requests"],
        "summary": "Create a data subject access request",
        "responses": {"201": {"description": "Created"}}
      }
    },
    "/requests/stats": {
      "get": {
        "tags": ["requests"],
        "summary": "Status counts per creditor",
        "responses": {"200": {"description": "OK"}}
      }
    },
    "/requests/{id}": {
      "get": {
        "tags": ["requests"],
        "summary": "Fetch a request with its message history",
        "parameters": [
          {"name": "id", "in": "path", "required": true, "schema": {"type": "string"}}
        ],
        "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
      }
    },
    "/requests/{id}/violations": {
      "post": {
        "tags": ["violations"],
        "summary": "Attach a violation record to a request",
        "responses": {"201": {"description": "Created"}}
      },
      "get": {
        "tags": ["violations"],
        "summary": "List violation records with the aggregate score",
        "responses": {"200": {"description": "OK"}}
      }
    },
    "/webhooks/inbound": {
      "post": {
        "tags": ["inbound"],
        "summary": "Receive an inbound email event from the provider",
        "responses": {"200": {"description": "OK"}}
      }
    },
    "/inbound/unmatched": {
      "get": {
        "tags": ["inbound"],
        "summary": "List inbound events that could not be correlated",
        "responses": {"200": {"description": "OK"}}
      }
    }
  }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Papertrail API",
	Description:      "Correspondence and evidence engine for data subject access requests",
	InfoInstanceName: "api",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
