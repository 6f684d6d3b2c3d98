package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the publishing API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>govpub API - Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Minimal OpenAPI document describing the publishing workflow API.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": {
    "title": "govpub",
    "version": "v0.1.0"
  },
  "paths": {
    "/api/v1/documents": {
      "post": {
        "summary": "Create a document and its first draft",
        "responses": {
          "201": {
            "description": "document and draft"
          },
          "422": {
            "description": "invalid content"
          }
        },
        "requestBody": {
          "content": {
            "application/json": {
              "schema": {
                "type": "object",
                "properties": {
                  "contentType": {
                    "type": "string"
                  },
                  "slug": {
                    "type": "string"
                  },
                  "title": {
                    "type": "string"
                  },
                  "summary": {
                    "type": "string"
                  },
                  "body": {
                    "type": "string"
                  },
                  "statisticsAnnouncementId": {
                    "type": "string"
                  }
                }
              }
            }
          }
        }
      }
    },
    "/api/v1/documents/{id}": {
      "get": {
        "summary": "Get a document with all editions",
        "responses": {
          "200": {
            "description": "document"
          },
          "404": {
            "description": "not found"
          }
        }
      }
    },
    "/api/v1/documents/{id}/editions": {
      "post": {
        "summary": "Start a new draft from the latest edition",
        "responses": {
          "201": {
            "description": "new draft"
          },
          "422": {
            "description": "an edition is already in progress"
          }
        }
      }
    },
    "/api/v1/editions/{id}": {
      "get": {
        "summary": "Get an edition",
        "responses": {
          "200": {
            "description": "edition"
          },
          "404": {
            "description": "not found"
          }
        }
      },
      "patch": {
        "summary": "Edit a draft",
        "responses": {
          "200": {
            "description": "edition"
          },
          "422": {
            "description": "edition is not editable"
          }
        },
        "requestBody": {
          "content": {
            "application/json": {
              "schema": {
                "type": "object",
                "properties": {
                  "title": {
                    "type": "string"
                  },
                  "summary": {
                    "type": "string"
                  },
                  "body": {
                    "type": "string"
                  },
                  "changeNote": {
                    "type": "string"
                  },
                  "minorChange": {
                    "type": "boolean"
                  },
                  "scheduledPublication": {
                    "type": "string"
                  }
                }
              }
            }
          }
        }
      },
      "delete": {
        "summary": "Soft-delete an edition",
        "responses": {
          "200": {
            "description": "new state and warnings"
          },
          "403": {
            "description": "missing capability"
          },
          "404": {
            "description": "edition not found"
          },
          "409": {
            "description": "concurrent change"
          },
          "422": {
            "description": "guard violation with reasons"
          }
        }
      }
    },
    "/api/v1/editions/{id}/submit": {
      "post": {
        "summary": "Submit a draft for review",
        "responses": {
          "200": {
            "description": "new state and warnings"
          },
          "403": {
            "description": "missing capability"
          },
          "404": {
            "description": "edition not found"
          },
          "409": {
            "description": "concurrent change"
          },
          "422": {
            "description": "guard violation with reasons"
          }
        }
      }
    },
    "/api/v1/editions/{id}/publish": {
      "post": {
        "summary": "Publish now or schedule",
        "responses": {
          "200": {
            "description": "new state and warnings"
          },
          "403": {
            "description": "missing capability"
          },
          "404": {
            "description": "edition not found"
          },
          "409": {
            "description": "concurrent change"
          },
          "422": {
            "description": "guard violation with reasons"
          }
        },
        "requestBody": {
          "content": {
            "application/json": {
              "schema": {
                "type": "object",
                "properties": {
                  "mode": {
                    "type": "string"
                  },
                  "scheduledPublication": {
                    "type": "string"
                  }
                }
              }
            }
          }
        }
      }
    },
    "/api/v1/editions/{id}/unschedule": {
      "post": {
        "summary": "Cancel a scheduled publication",
        "responses": {
          "200": {
            "description": "new state and warnings"
          },
          "403": {
            "description": "missing capability"
          },
          "404": {
            "description": "edition not found"
          },
          "409": {
            "description": "concurrent change"
          },
          "422": {
            "description": "guard violation with reasons"
          }
        }
      }
    },
    "/api/v1/editions/{id}/reject": {
      "post": {
        "summary": "Reject a submitted edition",
        "responses": {
          "200": {
            "description": "new state and warnings"
          },
          "403": {
            "description": "missing capability"
          },
          "404": {
            "description": "edition not found"
          },
          "409": {
            "description": "concurrent change"
          },
          "422": {
            "description": "guard violation with reasons"
          }
        },
        "requestBody": {
          "content": {
            "application/json": {
              "schema": {
                "type": "object",
                "properties": {
                  "reason": {
                    "type": "string"
                  }
                }
              }
            }
          }
        }
      }
    },
    "/api/v1/editions/{id}/unpublish": {
      "post": {
        "summary": "Unpublish a live edition",
        "responses": {
          "200": {
            "description": "new state and warnings"
          },
          "403": {
            "description": "missing capability"
          },
          "404": {
            "description": "edition not found"
          },
          "409": {
            "description": "concurrent change"
          },
          "422": {
            "description": "guard violation with reasons"
          }
        },
        "requestBody": {
          "content": {
            "application/json": {
              "schema": {
                "type": "object",
                "properties": {
                  "reason": {
                    "type": "string"
                  },
                  "explanation": {
                    "type": "string"
                  },
                  "alternativeUrl": {
                    "type": "string"
                  }
                }
              }
            }
          }
        }
      }
    },
    "/api/v1/editions/{id}/restore": {
      "post": {
        "summary": "Restore a soft-deleted edition",
        "responses": {
          "200": {
            "description": "new state and warnings"
          },
          "403": {
            "description": "missing capability"
          },
          "404": {
            "description": "edition not found"
          },
          "409": {
            "description": "concurrent change"
          },
          "422": {
            "description": "guard violation with reasons"
          }
        }
      }
    },
    "/api/v1/reminders": {
      "post": {
        "summary": "Create a reminder subject",
        "responses": {
          "201": {
            "description": "reminder"
          },
          "422": {
            "description": "invalid reminder"
          }
        },
        "requestBody": {
          "content": {
            "application/json": {
              "schema": {
                "type": "object",
                "properties": {
                  "documentId": {
                    "type": "string"
                  },
                  "title": {
                    "type": "string"
                  },
                  "kind": {
                    "type": "string"
                  },
                  "deadline": {
                    "type": "string"
                  },
                  "authorIds": {
                    "type": "array"
                  },
                  "emailAddress": {
                    "type": "string"
                  }
                }
              }
            }
          }
        }
      }
    },
    "/api/v1/reminders/{id}": {
      "get": {
        "summary": "Get a reminder subject",
        "responses": {
          "200": {
            "description": "reminder"
          },
          "404": {
            "description": "not found"
          }
        }
      }
    },
    "/api/v1/reminders/{id}/deadline": {
      "patch": {
        "summary": "Move a deadline and re-arm the reminder",
        "responses": {
          "200": {
            "description": "reminder"
          },
          "422": {
            "description": "review date in the past"
          }
        },
        "requestBody": {
          "content": {
            "application/json": {
              "schema": {
                "type": "object",
                "properties": {
                  "deadline": {
                    "type": "string"
                  }
                }
              }
            }
          }
        }
      }
    },
    "/api/v1/reminders/{id}/response-published": {
      "post": {
        "summary": "Stop consultation reminders",
        "responses": {
          "200": {
            "description": "reminder"
          }
        }
      }
    },
    "/api/v1/tasks/scheduled-publications": {
      "post": {
        "summary": "Publish every due scheduled edition",
        "responses": {
          "200": {
            "description": "run report"
          },
          "403": {
            "description": "missing capability"
          }
        }
      }
    },
    "/api/v1/tasks/deadline-reminders": {
      "post": {
        "summary": "Send due deadline reminders",
        "responses": {
          "200": {
            "description": "run report"
          },
          "403": {
            "description": "missing capability"
          }
        }
      }
    },
    "/api/v1/me": {
      "get": {
        "summary": "Get user info",
        "responses": {
          "200": {
            "description": "user or actor"
          }
        }
      }
    },
    "/health": {
      "get": {
        "summary": "Liveness check",
        "responses": {
          "200": {
            "description": "healthy"
          }
        }
      }
    },
    "/ready": {
      "get": {
        "summary": "Readiness check",
        "responses": {
          "200": {
            "description": "ready"
          },
          "503": {
            "description": "not ready"
          }
        }
      }
    },
    "/metrics": {
      "get": {
        "summary": "Prometheus metrics",
        "responses": {
          "200": {
            "description": "metrics"
          }
        }
      }
    }
  }
}`
