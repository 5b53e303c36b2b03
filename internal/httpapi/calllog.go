package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"callops/internal/calllog"
	"callops/internal/sysconfig"
	"callops/internal/telephony"
	"callops/pkg/logger"
)

// CallLogHandlers exposes call-log CRUD plus the telephony-facing endpoints:
// outbound dialing, the TwiML answer document and the provider status
// callback.
type CallLogHandlers struct {
	CallLogs *calllog.Service
}

func (h CallLogHandlers) List(c *gin.Context) {
	q, err := parseListQuery(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	list, err := h.CallLogs.List(c.Request.Context(), q)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	total, err := h.CallLogs.Count(c.Request.Context(), q.Filters)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "count failed"})
		return
	}
	c.JSON(http.StatusOK, listResponse{Data: list, Meta: listMeta{Page: q.Page, Limit: q.Limit, Total: total}})
}

func (h CallLogHandlers) Get(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cl, err := h.CallLogs.Get(c.Request.Context(), id)
	if err != nil {
		abortCallLogErr(c, err)
		return
	}
	c.JSON(http.StatusOK, cl)
}

func (h CallLogHandlers) Create(c *gin.Context) {
	var cl calllog.CallLog
	if err := c.ShouldBindJSON(&cl); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	created, err := h.CallLogs.Create(c.Request.Context(), cl)
	if err != nil {
		abortCallLogErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h CallLogHandlers) CreateBulk(c *gin.Context) {
	var cls []calllog.CallLog
	if err := c.ShouldBindJSON(&cls); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if len(cls) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "at least one call log required"})
		return
	}
	created, err := h.CallLogs.CreateMany(c.Request.Context(), cls)
	if err != nil {
		abortCallLogErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h CallLogHandlers) Update(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var p calllog.Patch
	if err := c.ShouldBindJSON(&p); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	updated, err := h.CallLogs.Update(c.Request.Context(), id, p)
	if err != nil {
		abortCallLogErr(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h CallLogHandlers) Delete(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.CallLogs.Delete(c.Request.Context(), id); err != nil {
		abortCallLogErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Dial originates the outbound call for a call log.
func (h CallLogHandlers) Dial(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sid, err := h.CallLogs.StartOutboundCall(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, calllog.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call log not found"})
			return
		}
		if errors.Is(err, sysconfig.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		logger.FromGin(c).Error("outbound call failed", "call_log_id", id, "err", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "call origination failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"call_sid": sid})
}

type importRequest struct {
	AgentID  int64  `json:"agent"`
	SheetURL string `json:"sheet_url"`
}

// Import pulls {name, number} rows from a published sheet and creates
// pending call logs for an agent.
func (h CallLogHandlers) Import(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.SheetURL == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "sheet_url required"})
		return
	}
	created, err := h.CallLogs.ImportFromSheet(c.Request.Context(), req.AgentID, req.SheetURL)
	if err != nil {
		if errors.Is(err, calllog.ErrEmptySheet) || errors.Is(err, calllog.ErrInvalidCallLog) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.FromGin(c).Error("sheet import failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "sheet fetch failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"imported": len(created), "data": created})
}

// OutboundCallHandler is the provider's answer webhook: it returns the TwiML
// that connects the answered call to the media-stream endpoint.
func (h CallLogHandlers) OutboundCallHandler(c *gin.Context) {
	twiml, err := h.CallLogs.StreamTwiML(c.Request.Context())
	if err != nil {
		logger.FromGin(c).Error("answer document failed", "err", err)
		c.String(http.StatusInternalServerError, "stream endpoint unavailable")
		return
	}
	c.Data(http.StatusOK, "text/xml", []byte(twiml))
}

// StatusCallback receives the provider's call status updates as form posts.
// It always answers 204: the provider retries on errors and there is nothing
// useful it could do with ours.
func (h CallLogHandlers) StatusCallback(c *gin.Context) {
	form, err := telephony.ParseStatusCallback(c.Request)
	if err != nil {
		logger.FromGin(c).Warn("bad status callback", "err", err)
		c.Status(http.StatusNoContent)
		return
	}
	if err := h.CallLogs.RecordCallStatus(c.Request.Context(), form); err != nil {
		logger.FromGin(c).Warn("status callback not applied", "call_sid", form.CallSid, "err", err)
	}
	c.Status(http.StatusNoContent)
}

func abortCallLogErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, calllog.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call log not found"})
	case errors.Is(err, calllog.ErrInvalidCallLog):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
