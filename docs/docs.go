// Package docs holds the OpenAPI description served at /swagger.
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
        "/api/initiate-stk": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "Initiate an STK push",
                "parameters": [
                    {"description": "Phone number and plan", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.InitiateSTKRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/handlers.InitiateSTKResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/common.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/common.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/common.ErrorResponse"}}
                }
            }
        },
        "/api/stk-callback": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "M-Pesa STK callback",
                "parameters": [
                    {"description": "Callback envelope", "name": "request", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.CallbackAck"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/common.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/common.ErrorResponse"}}
                }
            }
        },
        "/api/check-stk-status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "Poll an STK push status",
                "parameters": [
                    {"type": "string", "description": "Checkout request id", "name": "checkout_request_id", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.TransactionStatusResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/common.ErrorResponse"}}
                }
            }
        },
        "/api/stk-transaction-details": {
            "get": {
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "STK transaction details",
                "parameters": [
                    {"type": "string", "description": "Checkout request id", "name": "checkout_request_id", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.TransactionDetails"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/common.ErrorResponse"}}
                }
            }
        },
        "/api/check-subscription": {
            "get": {
                "produces": ["application/json"],
                "tags": ["subscriptions"],
                "summary": "Check whether a phone has active access",
                "parameters": [
                    {"type": "string", "description": "Phone number", "name": "phone_number", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.SubscriptionStatus"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/common.ErrorResponse"}}
                }
            }
        },
        "/api/plans": {
            "get": {
                "produces": ["application/json"],
                "tags": ["plans"],
                "summary": "List plans",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Plan"}}}
                }
            }
        },
        "/api/admin/plans": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Create a plan",
                "parameters": [
                    {"description": "Plan", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.CreatePlanRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Plan"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/common.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/common.ErrorResponse"}}
                }
            }
        },
        "/api/admin/reaper/run": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Time out stale pending transactions now",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "integer"}}}
                }
            }
        }
    },
    "definitions": {
        "common.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "object",
                    "properties": {
                        "code": {"type": "string"},
                        "message": {"type": "string"},
                        "details": {"type": "object", "additionalProperties": {"type": "string"}}
                    }
                }
            }
        },
        "handlers.InitiateSTKRequest": {
            "type": "object",
            "required": ["phone_number", "plan_id"],
            "properties": {
                "phone_number": {"type": "string", "example": "0712345678"},
                "plan_id": {"type": "string", "format": "uuid"}
            }
        },
        "handlers.InitiateSTKResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "checkout_request_id": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "handlers.TransactionStatusResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["pending", "success", "cancelled", "failed", "timeout"]},
                "reason": {"type": "string"}
            }
        },
        "models.CallbackAck": {
            "type": "object",
            "properties": {
                "ResultCode": {"type": "integer"},
                "ResultDesc": {"type": "string"},
                "CheckoutRequestID": {"type": "string"},
                "SavedStatus": {"type": "string"}
            }
        },
        "models.Plan": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "format": "uuid"},
                "name": {"type": "string"},
                "validity": {"type": "string", "example": "1 Day"},
                "amount": {"type": "string", "example": "50"},
                "created_at": {"type": "string", "format": "date-time"}
            }
        },
        "services.CreatePlanRequest": {
            "type": "object",
            "required": ["name", "validity", "amount"],
            "properties": {
                "name": {"type": "string"},
                "validity": {"type": "string", "example": "2 Hours"},
                "amount": {"type": "string", "example": "20.00"}
            }
        },
        "services.SubscriptionStatus": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["connected", "not connected"]},
                "plan": {"type": "string"},
                "expires": {"type": "string", "format": "date-time"}
            }
        },
        "services.TransactionDetails": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "amount": {"type": "string"},
                "plan": {"type": "string"},
                "timestamp": {"type": "string", "format": "date-time"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Hotspot Pay API",
	Description:      "M-Pesa STK push payments and hotspot access subscriptions.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
