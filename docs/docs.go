// Package docs registers the OpenAPI document served under /swagger.
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
        "/analyses": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Analyses"],
                "summary": "Submit a shot for analysis",
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/analysis.SubmitAnalysisRequest"}}
                ],
                "responses": {
                    "202": {"description": "Analysis queued", "schema": {"$ref": "#/definitions/analysis.AnalysisResponse"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/common.ErrorResponse"}}
                }
            }
        },
        "/analyses/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Analyses"],
                "summary": "Get an analysis",
                "parameters": [
                    {"type": "string", "description": "Analysis ID (UUID)", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/analysis.AnalysisResponse"}},
                    "404": {"description": "Analysis not found", "schema": {"$ref": "#/definitions/common.ErrorResponse"}}
                }
            }
        },
        "/analyses/{id}/reanalyze": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Analyses"],
                "summary": "Reanalyze",
                "parameters": [
                    {"type": "string", "description": "Analysis ID (UUID)", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "request", "schema": {"$ref": "#/definitions/analysis.ReanalyzeRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/analysis.AnalysisResponse"}},
                    "409": {"description": "Analysis cannot be reanalyzed now", "schema": {"$ref": "#/definitions/common.ErrorResponse"}}
                }
            }
        },
        "/analyses/{id}/cancel": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Analyses"],
                "summary": "Cancel a run",
                "parameters": [
                    {"type": "string", "description": "Analysis ID (UUID)", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/common.SuccessResponse"}},
                    "409": {"description": "Analysis is not running", "schema": {"$ref": "#/definitions/common.ErrorResponse"}}
                }
            }
        },
        "/analyses/{id}/checklist": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Analyses"],
                "summary": "Submit a manual checklist",
                "parameters": [
                    {"type": "string", "description": "Analysis ID (UUID)", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/analysis.SubmitChecklistRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/analysis.AnalysisResponse"}},
                    "400": {"description": "Invalid checklist", "schema": {"$ref": "#/definitions/common.ErrorResponse"}},
                    "409": {"description": "Analysis not bounded yet", "schema": {"$ref": "#/definitions/common.ErrorResponse"}}
                }
            }
        },
        "/admin/recompute": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Recompute scores",
                "parameters": [
                    {"in": "body", "name": "request", "schema": {"$ref": "#/definitions/admin.RecomputeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/admin.RecomputeResponse"}},
                    "409": {"description": "A recompute is already running", "schema": {"$ref": "#/definitions/common.ErrorResponse"}},
                    "500": {"description": "Aborted on a page write; data holds the committed progress", "schema": {"$ref": "#/definitions/common.ErrorResponse"}}
                }
            }
        },
        "/admin/weights/{shot_type}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Get a weight profile",
                "parameters": [
                    {"type": "string", "description": "general, libre, media or tres", "name": "shot_type", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/admin.WeightProfileResponse"}},
                    "400": {"description": "Unknown shot type", "schema": {"$ref": "#/definitions/common.ErrorResponse"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Replace a weight profile",
                "parameters": [
                    {"type": "string", "description": "general, libre, media or tres", "name": "shot_type", "in": "path", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/admin.UpdateWeightsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/admin.WeightProfileResponse"}},
                    "400": {"description": "Invalid weight profile", "schema": {"$ref": "#/definitions/common.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "admin.RecomputeRequest": {
            "type": "object",
            "properties": {
                "shot_type": {"type": "string"},
                "start_after": {"type": "string"}
            }
        },
        "admin.RecomputeResponse": {
            "type": "object",
            "properties": {
                "updated_count": {"type": "integer"},
                "skipped_count": {"type": "integer"},
                "pages": {"type": "integer"},
                "last_id": {"type": "string"},
                "profile_refs": {"type": "object", "additionalProperties": {"type": "string"}},
                "error": {"type": "string"}
            }
        },
        "admin.UpdateWeightsRequest": {
            "type": "object",
            "required": ["weights"],
            "properties": {
                "weights": {"type": "object", "additionalProperties": {"type": "number"}}
            }
        },
        "admin.WeightProfileResponse": {
            "type": "object",
            "properties": {
                "shot_type": {"type": "string"},
                "version": {"type": "integer"},
                "ref": {"type": "string"},
                "weights": {"type": "object", "additionalProperties": {"type": "number"}},
                "total": {"type": "number"},
                "updated_at": {"type": "string"}
            }
        },
        "analysis.SubmitAnalysisRequest": {
            "type": "object",
            "required": ["videos"],
            "properties": {
                "shot_label": {"type": "string"},
                "shot_type": {"type": "string"},
                "primary_angle": {"type": "string"},
                "videos": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "analysis.ReanalyzeRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"}
            }
        },
        "analysis.SubmitChecklistRequest": {
            "type": "object",
            "required": ["categories"],
            "properties": {
                "categories": {"type": "array", "items": {"$ref": "#/definitions/analysis.ChecklistCategoryRequest"}}
            }
        },
        "analysis.ChecklistCategoryRequest": {
            "type": "object",
            "required": ["name", "items"],
            "properties": {
                "name": {"type": "string"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/analysis.ChecklistItemRequest"}}
            }
        },
        "analysis.ChecklistItemRequest": {
            "type": "object",
            "required": ["id"],
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "rating": {"type": "number"},
                "na": {"type": "boolean"},
                "comment": {"type": "string"}
            }
        },
        "analysis.AnalysisResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "shot_type": {"type": "string"},
                "shot_label": {"type": "string"},
                "primary_angle": {"type": "string"},
                "status": {"type": "string"},
                "status_reason": {"type": "string"},
                "processing": {"type": "boolean"},
                "angles": {"type": "array", "items": {"type": "object"}},
                "validation": {"type": "object"},
                "boundary": {"type": "object"},
                "checklist": {"type": "array", "items": {"type": "object"}},
                "checklist_source": {"type": "string"},
                "score": {"type": "number"},
                "score_unresolvable": {"type": "boolean"},
                "weight_profile_ref": {"type": "string"},
                "breakdown": {"type": "object"},
                "warnings": {"type": "array", "items": {"type": "string"}},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "common.SuccessResponse": {
            "type": "object",
            "properties": {
                "code": {},
                "message": {"type": "string"},
                "data": {}
            }
        },
        "common.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {},
                "message": {"type": "string"},
                "info": {"type": "string"},
                "details": {"type": "object", "additionalProperties": {"type": "string"}},
                "data": {}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/v1",
	Schemes:          []string{},
	Title:            "Shot Analyzer API",
	Description:      "Basketball shot technique analysis: content validation, keyframes, motion boundary, checklist and weighted score.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
