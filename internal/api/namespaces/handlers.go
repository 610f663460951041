// Package namespaces implements the admin HTTP handlers for namespace lifecycle operations
// and the audit trail they produce.
package namespaces

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/config-registry/config-registry/internal/db/models"
)

// Service is the namespace lifecycle surface used by the handlers
type Service interface {
	IsNamespaceUnique(ctx context.Context, appID, clusterName, namespaceName string) (bool, error)
	FindByID(ctx context.Context, id int64) (*models.Namespace, error)
	FindOne(ctx context.Context, appID, clusterName, namespaceName string) (*models.Namespace, error)
	FindNamespaces(ctx context.Context, appID, clusterName string) ([]*models.Namespace, error)
	Save(ctx context.Context, ns *models.Namespace) (*models.Namespace, error)
	Update(ctx context.Context, ns *models.Namespace) (*models.Namespace, error)
	DeleteNamespace(ctx context.Context, ns *models.Namespace, operator string) (*models.Namespace, error)
	DeleteByAppIDAndClusterName(ctx context.Context, appID, clusterName, operator string) error
	CreatePrivateNamespaces(ctx context.Context, appID, clusterName, createdBy string) error
}

// Handlers serves the /api/v1/apps/:appId/clusters/:clusterName/namespaces tree
type Handlers struct {
	svc Service
}

// NewHandlers creates namespace handlers backed by svc
func NewHandlers(svc Service) *Handlers {
	return &Handlers{svc: svc}
}

// SaveNamespaceRequest is the body of a create call
type SaveNamespaceRequest struct {
	NamespaceName string `json:"namespace_name" binding:"required"`
	Operator      string `json:"operator" binding:"required"`
}

// UpdateNamespaceRequest is the body of an update call
type UpdateNamespaceRequest struct {
	Operator string `json:"operator" binding:"required"`
}

// CreatePrivateRequest is the body of a private namespace provisioning call
type CreatePrivateRequest struct {
	Operator string `json:"operator" binding:"required"`
}

// Register mounts the namespace routes on rg
func (h *Handlers) Register(rg *gin.RouterGroup) {
	scoped := rg.Group("/apps/:appId/clusters/:clusterName/namespaces")
	{
		scoped.GET("", h.List)
		scoped.POST("", h.Save)
		scoped.DELETE("", h.DeleteAll)
		scoped.POST("/private", h.CreatePrivate)
		scoped.GET("/:namespaceName", h.Get)
		scoped.PUT("/:namespaceName", h.Update)
		scoped.DELETE("/:namespaceName", h.Delete)
		scoped.GET("/:namespaceName/unique", h.Unique)
	}

	rg.GET("/namespaces/:id", h.GetByID)
}

// List returns the live namespaces of an app cluster, oldest first
// GET /api/v1/apps/:appId/clusters/:clusterName/namespaces
func (h *Handlers) List(c *gin.Context) {
	list, err := h.svc.FindNamespaces(c.Request.Context(), c.Param("appId"), c.Param("clusterName"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"namespaces": list})
}

// Save creates a namespace under the path's app and cluster
// POST /api/v1/apps/:appId/clusters/:clusterName/namespaces
func (h *Handlers) Save(c *gin.Context) {
	var req SaveNamespaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}

	created, err := h.svc.Save(c.Request.Context(), &models.Namespace{
		AppID:          c.Param("appId"),
		ClusterName:    c.Param("clusterName"),
		NamespaceName:  req.NamespaceName,
		CreatedBy:      req.Operator,
		LastModifiedBy: req.Operator,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// Get returns one live namespace by composite key
// GET /api/v1/apps/:appId/clusters/:clusterName/namespaces/:namespaceName
func (h *Handlers) Get(c *gin.Context) {
	ns, err := h.svc.FindOne(c.Request.Context(), c.Param("appId"), c.Param("clusterName"), c.Param("namespaceName"))
	if err != nil {
		respondError(c, err)
		return
	}
	if ns == nil {
		notFound(c, "namespace not found")
		return
	}

	c.JSON(http.StatusOK, ns)
}

// GetByID returns one live namespace by id
// GET /api/v1/namespaces/:id
func (h *Handlers) GetByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "id must be a positive integer")
		return
	}

	ns, err := h.svc.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if ns == nil {
		notFound(c, "namespace not found")
		return
	}

	c.JSON(http.StatusOK, ns)
}

// Unique reports whether the composite key is free among live namespaces
// GET /api/v1/apps/:appId/clusters/:clusterName/namespaces/:namespaceName/unique
func (h *Handlers) Unique(c *gin.Context) {
	unique, err := h.svc.IsNamespaceUnique(c.Request.Context(), c.Param("appId"), c.Param("clusterName"), c.Param("namespaceName"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unique": unique})
}

// Update records a modification of a live namespace by the given operator
// PUT /api/v1/apps/:appId/clusters/:clusterName/namespaces/:namespaceName
func (h *Handlers) Update(c *gin.Context) {
	var req UpdateNamespaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}

	updated, err := h.svc.Update(c.Request.Context(), &models.Namespace{
		AppID:          c.Param("appId"),
		ClusterName:    c.Param("clusterName"),
		NamespaceName:  c.Param("namespaceName"),
		LastModifiedBy: req.Operator,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// Delete cascades a soft delete through one namespace
// DELETE /api/v1/apps/:appId/clusters/:clusterName/namespaces/:namespaceName?operator=
func (h *Handlers) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	ns, err := h.svc.FindOne(ctx, c.Param("appId"), c.Param("clusterName"), c.Param("namespaceName"))
	if err != nil {
		respondError(c, err)
		return
	}
	if ns == nil {
		notFound(c, "namespace not found")
		return
	}

	deleted, err := h.svc.DeleteNamespace(ctx, ns, c.Query("operator"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, deleted)
}

// DeleteAll cascades a soft delete through every namespace of an app cluster
// DELETE /api/v1/apps/:appId/clusters/:clusterName/namespaces?operator=
func (h *Handlers) DeleteAll(c *gin.Context) {
	if err := h.svc.DeleteByAppIDAndClusterName(c.Request.Context(), c.Param("appId"), c.Param("clusterName"), c.Query("operator")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CreatePrivate provisions one namespace per private template of the app
// POST /api/v1/apps/:appId/clusters/:clusterName/namespaces/private
func (h *Handlers) CreatePrivate(c *gin.Context) {
	var req CreatePrivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	appID, cluster := c.Param("appId"), c.Param("clusterName")

	if err := h.svc.CreatePrivateNamespaces(ctx, appID, cluster, req.Operator); err != nil {
		respondError(c, err)
		return
	}

	list, err := h.svc.FindNamespaces(ctx, appID, cluster)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"namespaces": list})
}
