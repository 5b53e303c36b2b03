package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"callops/internal/sysconfig"
)

// SysConfigHandlers exposes the runtime settings store. Settings are
// addressed by key on write (upsert) and by numeric id on read/delete.
type SysConfigHandlers struct {
	Config *sysconfig.Service
}

func (h SysConfigHandlers) List(c *gin.Context) {
	q, err := parseListQuery(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	list, err := h.Config.List(c.Request.Context(), q)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	total, err := h.Config.Count(c.Request.Context(), q.Filters)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "count failed"})
		return
	}
	c.JSON(http.StatusOK, listResponse{Data: list, Meta: listMeta{Page: q.Page, Limit: q.Limit, Total: total}})
}

func (h SysConfigHandlers) Get(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s, err := h.Config.Get(c.Request.Context(), id)
	if err != nil {
		abortSysConfigErr(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

type upsertSettingRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Upsert writes a setting by key, creating or replacing it.
func (h SysConfigHandlers) Upsert(c *gin.Context) {
	var req upsertSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Key) == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "key required"})
		return
	}
	s, err := h.Config.UpsertByKey(c.Request.Context(), strings.TrimSpace(req.Key), req.Value)
	if err != nil {
		abortSysConfigErr(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h SysConfigHandlers) Delete(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Config.Delete(c.Request.Context(), id); err != nil {
		abortSysConfigErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func abortSysConfigErr(c *gin.Context, err error) {
	if errors.Is(err, sysconfig.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "setting not found"})
		return
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
