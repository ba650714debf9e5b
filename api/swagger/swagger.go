package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Admissions API",
        "description": "Inquiry intake, case identity allocation and spreadsheet mirror sync",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"},
        "SharedSecret": {"type": "apiKey", "name": "Authorization", "in": "header", "description": "Bearer <shared secret>"}
    },
    "tags": [
        {"name": "Inquiries", "description": "Admission inquiry intake and counselor workflow"},
        {"name": "Intake Channels", "description": "Paper form OCR and third-party webhooks"},
        {"name": "Sync", "description": "Spreadsheet mirror delivery"}
    ],
    "paths": {
        "/inquiries": {
            "get": {
                "tags": ["Inquiries"],
                "summary": "List inquiries",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "description": "Comma separated statuses"},
                    {"name": "source", "in": "query", "type": "string"},
                    {"name": "assignedTo", "in": "query", "type": "string"},
                    {"name": "synced", "in": "query", "type": "boolean"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "tenantId", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Inquiries"],
                "summary": "Submit a web form inquiry",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateInquiryRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/CreateInquiryResponse"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Identifier space exhausted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inquiries/export": {
            "get": {
                "tags": ["Inquiries"],
                "summary": "Export inquiries as CSV or PDF",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "status", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File attachment"}
                }
            }
        },
        "/inquiries/{caseId}": {
            "get": {
                "tags": ["Inquiries"],
                "summary": "Get inquiry by case id",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "caseId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Inquiry"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "patch": {
                "tags": ["Inquiries"],
                "summary": "Update counselor fields",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "caseId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateCounselorFieldsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Inquiry"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inquiries/{caseId}/activity": {
            "get": {
                "tags": ["Inquiries"],
                "summary": "Activity log for an inquiry",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "caseId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/ActivityLogEntry"}}}
                }
            }
        },
        "/inquiries/paper-form": {
            "post": {
                "tags": ["Intake Channels"],
                "summary": "Upload a photographed paper inquiry form",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "image", "in": "formData", "required": true, "type": "file"},
                    {"name": "studentName", "in": "formData", "type": "string"},
                    {"name": "parentName", "in": "formData", "type": "string"},
                    {"name": "phone", "in": "formData", "type": "string"},
                    {"name": "status", "in": "formData", "type": "string"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/PaperFormResult"}},
                    "413": {"description": "Image too large"},
                    "502": {"description": "OCR capability failed"}
                }
            }
        },
        "/webhooks/inquiries": {
            "post": {
                "tags": ["Intake Channels"],
                "summary": "Receive an inquiry from a form provider",
                "security": [{"SharedSecret": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/WebhookInquiryRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/CreateInquiryResponse"}},
                    "401": {"description": "Bad secret"}
                }
            }
        },
        "/sync/retry": {
            "post": {
                "tags": ["Sync"],
                "summary": "Redeliver unsynced inquiries",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SweepResult"}}
                }
            }
        },
        "/cron/sync-retry": {
            "post": {
                "tags": ["Sync"],
                "summary": "Scheduled sweep trigger",
                "security": [{"SharedSecret": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SweepResult"}}
                }
            }
        },
        "/sync/status": {
            "get": {
                "tags": ["Sync"],
                "summary": "Read the mirror delivery toggle",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SyncStatusResponse"}}
                }
            },
            "put": {
                "tags": ["Sync"],
                "summary": "Set the mirror delivery toggle",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SyncStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SyncStatusResponse"}},
                    "503": {"description": "Runtime flag store unavailable"}
                }
            }
        }
    },
    "definitions": {
        "CreateInquiryRequest": {
            "type": "object",
            "properties": {
                "tenantId": {"type": "string"},
                "studentName": {"type": "string"},
                "parentName": {"type": "string"},
                "phone": {"type": "string"},
                "secondaryPhone": {"type": "string"},
                "email": {"type": "string"},
                "currentClass": {"type": "string"},
                "currentSchool": {"type": "string"},
                "board": {"type": "string"},
                "occupation": {"type": "string"},
                "surveyAnswers": {"type": "array", "items": {"type": "string"}},
                "source": {"type": "string"},
                "status": {"type": "string"},
                "priority": {"type": "string"},
                "assignedTo": {"type": "string"},
                "notes": {"type": "string"},
                "howHeard": {"type": "string"},
                "inquiryDate": {"type": "string", "description": "YYYY-MM-DD or RFC 3339; ignored on anonymous submissions", "example": "2024-01-05"}
            },
            "required": ["studentName", "parentName", "phone"]
        },
        "CreateInquiryResponse": {
            "type": "object",
            "properties": {
                "caseId": {"type": "string"}
            }
        },
        "UpdateCounselorFieldsRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "assignedTo": {"type": "string"},
                "unassign": {"type": "boolean"},
                "followUpDate": {"type": "string", "format": "date"},
                "comment": {"type": "string"},
                "priority": {"type": "string"}
            }
        },
        "WebhookInquiryRequest": {
            "type": "object",
            "properties": {
                "studentName": {"type": "string"},
                "parentName": {"type": "string"},
                "phone": {"type": "string"},
                "email": {"type": "string"},
                "currentClass": {"type": "string"},
                "currentSchool": {"type": "string"},
                "board": {"type": "string"},
                "source": {"type": "string"},
                "howHeard": {"type": "string"},
                "message": {"type": "string"},
                "surveyAnswers": {"type": "array", "items": {"type": "string"}},
                "tenantId": {"type": "string"}
            }
        },
        "Inquiry": {
            "type": "object",
            "properties": {
                "caseId": {"type": "string"},
                "tenantId": {"type": "string"},
                "studentName": {"type": "string"},
                "parentName": {"type": "string"},
                "phone": {"type": "string"},
                "source": {"type": "string"},
                "status": {"type": "string", "enum": ["New", "Open", "FollowUp", "Converted", "Closed"]},
                "caseStatus": {"type": "string"},
                "assignedTo": {"type": "string"},
                "priority": {"type": "string"},
                "followUpDate": {"type": "string", "format": "date-time"},
                "isSyncedToSheet": {"type": "boolean"},
                "syncAttempts": {"type": "integer"},
                "inquiryDate": {"type": "string", "format": "date-time"}
            }
        },
        "ActivityLogEntry": {
            "type": "object",
            "properties": {
                "seq": {"type": "integer"},
                "caseId": {"type": "string"},
                "action": {"type": "string"},
                "actor": {"type": "string"},
                "previousValue": {"type": "string"},
                "newValue": {"type": "string"},
                "comment": {"type": "string"},
                "createdAt": {"type": "string", "format": "date-time"}
            }
        },
        "PaperFormResult": {
            "type": "object",
            "properties": {
                "caseId": {"type": "string"},
                "confidence": {"type": "number"},
                "extracted": {"type": "object"}
            }
        },
        "SweepResult": {
            "type": "object",
            "properties": {
                "attempted": {"type": "integer"},
                "succeeded": {"type": "integer"}
            }
        },
        "SyncStatusRequest": {
            "type": "object",
            "properties": {
                "enabled": {"type": "boolean"}
            },
            "required": ["enabled"]
        },
        "SyncStatusResponse": {
            "type": "object",
            "properties": {
                "enabled": {"type": "boolean"},
                "source": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
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
