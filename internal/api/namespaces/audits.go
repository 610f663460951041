package namespaces

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/config-registry/config-registry/internal/db/models"
	"github.com/config-registry/config-registry/internal/db/repositories"
)

const (
	defaultPerPage = 50
	maxPerPage     = 200
)

// AuditReader reads back the audit trail
type AuditReader interface {
	ListAuditLogs(ctx context.Context, filters repositories.AuditFilters, limit, offset int) ([]*models.AuditLog, int, error)
	GetAuditLog(ctx context.Context, id string) (*models.AuditLog, error)
}

// AuditHandlers serves /api/v1/audits
type AuditHandlers struct {
	audits AuditReader
}

// NewAuditHandlers creates audit handlers backed by audits
func NewAuditHandlers(audits AuditReader) *AuditHandlers {
	return &AuditHandlers{audits: audits}
}

// Register mounts the audit routes on rg
func (h *AuditHandlers) Register(rg *gin.RouterGroup) {
	rg.GET("/audits", h.List)
	rg.GET("/audits/:id", h.Get)
}

// List returns audit records newest first
// GET /api/v1/audits?entity_type=&entity_id=&operation=&operator=&start_date=&end_date=&page=&per_page=
func (h *AuditHandlers) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(defaultPerPage)))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > maxPerPage {
		perPage = defaultPerPage
	}

	filters, msg := parseAuditFilters(c)
	if msg != "" {
		badRequest(c, msg)
		return
	}

	logs, total, err := h.audits.ListAuditLogs(c.Request.Context(), filters, perPage, (page-1)*perPage)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"audits": logs,
		"pagination": gin.H{
			"page":     page,
			"per_page": perPage,
			"total":    total,
		},
	})
}

// Get returns one audit record
// GET /api/v1/audits/:id
func (h *AuditHandlers) Get(c *gin.Context) {
	log, err := h.audits.GetAuditLog(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if log == nil {
		notFound(c, "audit record not found")
		return
	}

	c.JSON(http.StatusOK, log)
}

// parseAuditFilters returns a non-empty message when a filter value is malformed
func parseAuditFilters(c *gin.Context) (repositories.AuditFilters, string) {
	var f repositories.AuditFilters

	if v := c.Query("entity_type"); v != "" {
		f.EntityType = &v
	}
	if v := c.Query("entity_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, "entity_id must be an integer"
		}
		f.EntityID = &id
	}
	if v := c.Query("operation"); v != "" {
		op := models.AuditOperation(v)
		if !op.Valid() {
			return f, "operation must be one of INSERT, UPDATE, DELETE"
		}
		f.Operation = &op
	}
	if v := c.Query("operator"); v != "" {
		f.Operator = &v
	}
	if v := c.Query("start_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, "start_date must be RFC3339"
		}
		f.StartDate = &t
	}
	if v := c.Query("end_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, "end_date must be RFC3339"
		}
		f.EndDate = &t
	}

	return f, ""
}
