package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Class Record API",
        "description": "Role-based academic records and grade computation service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Sessions and credentials"},
        {"name": "Users", "description": "Account administration"},
        {"name": "Students", "description": "Student roster"},
        {"name": "Catalog", "description": "Courses and subjects"},
        {"name": "Teaching Loads", "description": "Teacher assignments and class sections"},
        {"name": "Enrollments", "description": "Class section rosters"},
        {"name": "Grading", "description": "Composition and base grade settings"},
        {"name": "Activities", "description": "Scored assessment items"},
        {"name": "Scores", "description": "Score recording"},
        {"name": "Grades", "description": "Computed term and semester grades"},
        {"name": "Reports", "description": "Asynchronous exports"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate with email and password",
                "responses": {
                    "200": {"description": "Token pair"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Rotate a refresh token",
                "responses": {
                    "200": {"description": "New token pair"}
                }
            }
        },
        "/sections/{id}/composition": {
            "get": {
                "tags": ["Grading"],
                "summary": "Grading composition for a class section",
                "responses": {
                    "200": {"description": "Composition with configured flag"}
                }
            },
            "put": {
                "tags": ["Grading"],
                "summary": "Replace the weighting scheme; weights must total 100",
                "responses": {
                    "200": {"description": "Saved composition"},
                    "400": {"description": "Weights do not total 100"}
                }
            }
        },
        "/sections/{id}/grades/term": {
            "get": {
                "tags": ["Grades"],
                "summary": "Computed term grades for a class section",
                "responses": {
                    "200": {"description": "Per-student weighted grades"},
                    "404": {"description": "Composition not configured"}
                }
            }
        },
        "/sections/{id}/grades/semester": {
            "get": {
                "tags": ["Grades"],
                "summary": "Computed semester grades for a class section",
                "responses": {
                    "200": {"description": "Blended semester grades"}
                }
            }
        },
        "/activities/{id}/scores": {
            "get": {
                "tags": ["Scores"],
                "summary": "Score sheet over the full roster",
                "responses": {
                    "200": {"description": "Roster with scores"}
                }
            },
            "put": {
                "tags": ["Scores"],
                "summary": "Record one score",
                "responses": {
                    "200": {"description": "Recorded score"},
                    "400": {"description": "Score exceeds number of items"}
                }
            }
        },
        "/reports/generate": {
            "post": {
                "tags": ["Reports"],
                "summary": "Queue a report export",
                "responses": {
                    "202": {"description": "Job accepted"}
                }
            }
        },
        "/export/{token}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a finished report via signed token",
                "responses": {
                    "200": {"description": "File stream"},
                    "404": {"description": "Unknown or expired token"}
                }
            }
        },
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"}
            }
        },
        "Envelope": {
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
