// Package docs holds the OpenAPI description served at /swagger/.
//
// Regenerate with: swag init -g cmd/fitcheck/main.go -o docs
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
        "/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["meta"],
                "summary": "Service index",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.indexResponse"}}
                }
            }
        },
        "/api/v1/coach/advice": {
            "post": {
                "description": "Builds a coaching prompt from the exercise position and motion interpretation, asks the completion backend for advice, and returns it with a URL that streams the advice as speech.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["coach"],
                "summary": "Generate coaching advice",
                "parameters": [
                    {
                        "description": "Coaching request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/message.CoachingRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/message.AdviceResponse"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/apperr.Envelope"}},
                    "502": {"description": "Completion backend failed", "schema": {"$ref": "#/definitions/apperr.Envelope"}}
                }
            }
        },
        "/api/v1/prompt/": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["prompt"],
                "summary": "Complete a prompt",
                "parameters": [
                    {
                        "description": "Prompt",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/message.PromptRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "Completion text", "schema": {"type": "string"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/apperr.Envelope"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/apperr.Envelope"}}
                }
            }
        },
        "/api/v1/prompt/3.5": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["prompt"],
                "summary": "Complete a prompt (text-only backend)",
                "parameters": [
                    {
                        "description": "Prompt",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/message.PromptRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "Completion text", "schema": {"type": "string"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/apperr.Envelope"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/apperr.Envelope"}}
                }
            }
        },
        "/api/v1/prompt/file/": {
            "post": {
                "description": "Uploaded files are sent to the completion backend as data URIs ahead of the prompt text.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["prompt"],
                "summary": "Complete a prompt with files",
                "parameters": [
                    {"type": "string", "description": "User prompt", "name": "prompt", "in": "formData"},
                    {"type": "string", "description": "System prompt", "name": "systemPrompt", "in": "formData"},
                    {"type": "file", "description": "Images", "name": "files", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "Completion text", "schema": {"type": "string"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/apperr.Envelope"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/apperr.Envelope"}}
                }
            }
        },
        "/api/v1/speech/simple": {
            "get": {
                "produces": ["audio/mpeg"],
                "tags": ["speech"],
                "summary": "Stream plain text as speech",
                "parameters": [
                    {"type": "string", "description": "Text to speak", "name": "text", "in": "query", "required": true},
                    {"type": "string", "default": "en-US-AvaMultilingualNeural", "description": "Voice name", "name": "voiceName", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/apperr.Envelope"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/apperr.Envelope"}}
                }
            }
        },
        "/api/v1/speech/ssml": {
            "get": {
                "description": "Synthesizes the text with the given voice, style and rate and streams the audio in chunks.\nErrors before the first chunk are returned as JSON; later failures abort the connection.",
                "produces": ["audio/mpeg"],
                "tags": ["speech"],
                "summary": "Stream advice as speech",
                "parameters": [
                    {"type": "string", "description": "Text to speak", "name": "text", "in": "query", "required": true},
                    {"type": "string", "default": "en-US-AvaMultilingualNeural", "description": "Voice name", "name": "voiceName", "in": "query"},
                    {"type": "number", "default": 1, "description": "Speaking rate multiplier", "name": "rate", "in": "query"},
                    {"type": "string", "default": "en-US", "description": "BCP-47 language", "name": "language", "in": "query"},
                    {"type": "string", "description": "Expressive style", "name": "style", "in": "query"},
                    {"type": "integer", "description": "Chunk size in bytes", "name": "streamChunkSize", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/apperr.Envelope"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/apperr.Envelope"}}
                }
            }
        },
        "/api/v1/speech/voices": {
            "get": {
                "produces": ["application/json"],
                "tags": ["speech"],
                "summary": "List voices and styles",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.voicesResponse"}}
                }
            }
        },
        "/api/v1/speech/ws": {
            "get": {
                "description": "Same parameters as /api/v1/speech/ssml. Each chunk is a binary frame; a failure after the\nupgrade sends the error envelope as a text frame before closing.",
                "tags": ["speech"],
                "summary": "Stream speech over WebSocket",
                "parameters": [
                    {"type": "string", "description": "Text to speak", "name": "text", "in": "query", "required": true},
                    {"type": "string", "description": "Voice name", "name": "voiceName", "in": "query"},
                    {"type": "number", "description": "Speaking rate multiplier", "name": "rate", "in": "query"},
                    {"type": "string", "description": "BCP-47 language", "name": "language", "in": "query"},
                    {"type": "string", "description": "Expressive style", "name": "style", "in": "query"},
                    {"type": "integer", "description": "Chunk size in bytes", "name": "streamChunkSize", "in": "query"}
                ],
                "responses": {
                    "101": {"description": "Switching Protocols"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/apperr.Envelope"}}
                }
            }
        }
    },
    "definitions": {
        "apperr.Envelope": {
            "type": "object",
            "properties": {
                "kind": {"type": "string", "enum": ["validation", "upstream", "synthesis", "internal"]},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "field": {"type": "string"},
                "requestId": {"type": "string"},
                "reason": {"type": "string"},
                "code": {"type": "string"},
                "details": {"type": "string"},
                "upstream": {"type": "object"},
                "request": {"$ref": "#/definitions/apperr.RequestSnapshot"}
            }
        },
        "apperr.RequestSnapshot": {
            "type": "object",
            "properties": {
                "method": {"type": "string"},
                "url": {"type": "string"},
                "headers": {"type": "object", "additionalProperties": {"type": "array", "items": {"type": "string"}}},
                "params": {"type": "object", "additionalProperties": {"type": "array", "items": {"type": "string"}}},
                "body": {"type": "string"}
            }
        },
        "catalog.Voice": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "gender": {"type": "string", "enum": ["male", "female", "neutral"]}
            }
        },
        "http.indexResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "time": {"type": "string"},
                "version": {"type": "string"}
            }
        },
        "http.voicesResponse": {
            "type": "object",
            "properties": {
                "voices": {"type": "array", "items": {"$ref": "#/definitions/catalog.Voice"}},
                "styles": {"type": "array", "items": {"type": "string"}}
            }
        },
        "message.AdviceResponse": {
            "type": "object",
            "properties": {
                "rate": {"type": "number"},
                "mood": {"type": "string"},
                "advice": {"type": "string"},
                "url": {"type": "string"}
            }
        },
        "message.CoachingRequest": {
            "type": "object",
            "properties": {
                "position": {"type": "string", "example": "Overhead press: the weight is pressed overhead from shoulder level."},
                "interpretation": {"type": "string", "example": "Left arm: low. Right arm: OK."},
                "gender": {"type": "string", "enum": ["male", "female"]},
                "persona": {"type": "string", "example": "cheerful"},
                "language": {"type": "string", "example": "th-TH"},
                "voiceName": {"type": "string"},
                "streamChunkSize": {"type": "integer"}
            }
        },
        "message.PromptRequest": {
            "type": "object",
            "properties": {
                "prompt": {"type": "string"},
                "systemPrompt": {"type": "string"}
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
	Title:            "FitCheck Coaching Voice API",
	Description:      "Exercise coaching advice generation and streaming speech synthesis.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
