package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"callops/internal/agents"
)

// AgentHandlers exposes agent CRUD. Keep these thin: parse/validate input,
// call internal services, return JSON.
type AgentHandlers struct {
	Agents *agents.Service
}

func (h AgentHandlers) List(c *gin.Context) {
	q, err := parseListQuery(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	list, err := h.Agents.List(c.Request.Context(), q)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	total, err := h.Agents.Count(c.Request.Context(), q.Filters)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "count failed"})
		return
	}
	c.JSON(http.StatusOK, listResponse{Data: list, Meta: listMeta{Page: q.Page, Limit: q.Limit, Total: total}})
}

func (h AgentHandlers) Get(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a, err := h.Agents.Get(c.Request.Context(), id)
	if err != nil {
		abortAgentErr(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h AgentHandlers) Create(c *gin.Context) {
	var a agents.Agent
	if err := c.ShouldBindJSON(&a); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	created, err := h.Agents.Create(c.Request.Context(), a)
	if err != nil {
		abortAgentErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h AgentHandlers) CreateBulk(c *gin.Context) {
	var as []agents.Agent
	if err := c.ShouldBindJSON(&as); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if len(as) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "at least one agent required"})
		return
	}
	created, err := h.Agents.CreateMany(c.Request.Context(), as)
	if err != nil {
		abortAgentErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h AgentHandlers) Update(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var p agents.Patch
	if err := c.ShouldBindJSON(&p); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	updated, err := h.Agents.Update(c.Request.Context(), id, p)
	if err != nil {
		abortAgentErr(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h AgentHandlers) Delete(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Agents.Delete(c.Request.Context(), id); err != nil {
		abortAgentErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func abortAgentErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, agents.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "agent not found"})
	case errors.Is(err, agents.ErrInvalidAgent):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
