// Package docs registers the swagger specification of the books api.
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
        "/book": {
            "get": {
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "List all books",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/main.BooksResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/main.APIError"}}
                }
            },
            "post": {
                "consumes": ["application/x-www-form-urlencoded", "application/json"],
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "Add a new book",
                "parameters": [
                    {"type": "string", "name": "title", "in": "formData", "required": true},
                    {"type": "integer", "name": "years", "in": "formData", "required": true},
                    {"type": "integer", "name": "pages", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/main.BookResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/main.APIError"}}
                }
            }
        },
        "/book/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "Fetch one book",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/main.BookResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/main.APIError"}}
                }
            },
            "put": {
                "consumes": ["application/x-www-form-urlencoded", "application/json"],
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "Update one book",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "string", "name": "title", "in": "formData", "required": true},
                    {"type": "integer", "name": "years", "in": "formData", "required": true},
                    {"type": "integer", "name": "pages", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/main.BookResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/main.APIError"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "Delete one book",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/main.BookResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/main.APIError"}}
                }
            }
        }
    },
    "definitions": {
        "main.Book": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "years": {"type": "integer"},
                "pages": {"type": "integer"}
            }
        },
        "main.BooksResponse": {
            "type": "object",
            "properties": {
                "books": {"type": "array", "items": {"$ref": "#/definitions/main.Book"}}
            }
        },
        "main.BookResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "book": {"$ref": "#/definitions/main.Book"}
            }
        },
        "main.APIError": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "details": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Books store api",
	Description:      "CRUD api for books records persisted into a json document.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
