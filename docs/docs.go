// Package docs registers the OpenAPI description served under /docs/.
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
        "/api/v1/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Log in and receive a session token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.Payload"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/utils.Payload"}}
                }
            }
        },
        "/api/v1/auth/sign-up": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Register a new account",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/utils.Payload"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/utils.Payload"}}
                }
            }
        },
        "/api/v1/meals": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Meals"],
                "summary": "List the caller's meals",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.Payload"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/utils.Payload"}}
                }
            },
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["Meals"],
                "summary": "Create a meal with its photo",
                "parameters": [
                    {"type": "string", "description": "Meal name", "name": "name", "in": "formData", "required": true},
                    {"type": "integer", "description": "Rating", "name": "rating", "in": "formData", "required": true},
                    {"type": "file", "description": "Photo", "name": "photo", "in": "formData", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/utils.Payload"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/utils.Payload"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/utils.Payload"}}
                }
            }
        },
        "/api/v1/meals/{id}": {
            "put": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["Meals"],
                "summary": "Update a meal, optionally replacing its photo",
                "parameters": [
                    {"type": "string", "description": "Meal id", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Meal name", "name": "name", "in": "formData"},
                    {"type": "integer", "description": "Rating", "name": "rating", "in": "formData"},
                    {"type": "file", "description": "New photo", "name": "photo", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.Payload"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/utils.Payload"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["Meals"],
                "summary": "Delete a meal. Its photos are kept.",
                "parameters": [
                    {"type": "string", "description": "Meal id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.Payload"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/utils.Payload"}}
                }
            }
        },
        "/api/v1/meals/{id}/photo": {
            "get": {
                "tags": ["Meals"],
                "summary": "Redirect to a temporary download URL of the meal photo",
                "parameters": [
                    {"type": "string", "description": "Meal id", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "full (default) or thumb", "name": "size", "in": "query"}
                ],
                "responses": {
                    "307": {"description": "Temporary Redirect"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/utils.Payload"}}
                }
            }
        }
    },
    "definitions": {
        "utils.Payload": {
            "type": "object",
            "properties": {
                "data": {},
                "message": {"type": "string"},
                "success": {"type": "boolean"}
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
	Title:            "RecipeRater API",
	Description:      "Meal ratings with photos stored in R2.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
