package main

import (
	"github.com/gin-gonic/gin"

	"callops/internal/agents"
	"callops/internal/calllog"
	"callops/internal/httpapi"
	"callops/internal/relay"
	"callops/internal/sysconfig"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, agentSvc *agents.Service, callSvc *calllog.Service, cfgSvc *sysconfig.Service, gateway *relay.Gateway, health httpapi.HealthHandlers) {
	r.GET("/healthz", health.Live)
	r.GET("/readyz", health.Ready)

	// The provider dials back here once an outbound call is answered.
	r.GET("/media-stream", gateway.Handle)

	api := r.Group("/api")

	ah := httpapi.AgentHandlers{Agents: agentSvc}
	api.GET("/agents", ah.List)
	api.POST("/agents", ah.Create)
	api.POST("/agents/bulk", ah.CreateBulk)
	api.GET("/agents/:id", ah.Get)
	api.PUT("/agents/:id", ah.Update)
	api.DELETE("/agents/:id", ah.Delete)

	ch := httpapi.CallLogHandlers{CallLogs: callSvc}
	api.GET("/call-logs", ch.List)
	api.POST("/call-logs", ch.Create)
	api.POST("/call-logs/bulk", ch.CreateBulk)
	api.POST("/call-logs/import", ch.Import)
	api.POST("/call-logs/dial/:id", ch.Dial)
	// Provider webhooks (public).
	// NOTE: These should be protected by Twilio signature validation in production.
	api.POST("/call-logs/outbound-call-handler", ch.OutboundCallHandler)
	api.POST("/call-logs/status-callback", ch.StatusCallback)
	api.GET("/call-logs/:id", ch.Get)
	api.PUT("/call-logs/:id", ch.Update)
	api.DELETE("/call-logs/:id", ch.Delete)

	sh := httpapi.SysConfigHandlers{Config: cfgSvc}
	api.GET("/system-config", sh.List)
	api.PUT("/system-config", sh.Upsert)
	api.GET("/system-config/:id", sh.Get)
	api.DELETE("/system-config/:id", sh.Delete)
}
