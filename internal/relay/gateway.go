package relay

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"callops/pkg/logger"
	"callops/pkg/utils"
)

const sessionCapKey = "relay:sessions"

// Gateway accepts provider media-stream websockets and runs one Session per
// connection. An optional redis-backed cap bounds concurrent sessions across
// API processes.
type Gateway struct {
	creds   Credentials
	records CallRecords
	prompts AgentPrompts
	dialer  UpstreamDialer
	cfg     SessionConfig

	rdb         *redis.Client
	maxSessions int

	upgrader websocket.Upgrader
}

func NewGateway(creds Credentials, records CallRecords, prompts AgentPrompts, dialer UpstreamDialer, cfg SessionConfig, rdb *redis.Client, maxSessions int) *Gateway {
	return &Gateway{
		creds:       creds,
		records:     records,
		prompts:     prompts,
		dialer:      dialer,
		cfg:         cfg,
		rdb:         rdb,
		maxSessions: maxSessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The provider does not send an Origin header.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handle is the GET /media-stream endpoint. It blocks for the lifetime of
// the call.
func (g *Gateway) Handle(c *gin.Context) {
	log := logger.FromGin(c)

	if g.rdb != nil && g.maxSessions > 0 {
		ok, err := utils.AcquireConcurrencyCap(c.Request.Context(), g.rdb, sessionCapKey, g.maxSessions, time.Hour)
		if err != nil {
			// Redis trouble should not take calls down with it.
			log.Warn("session cap check failed, allowing", "err", err)
		} else if !ok {
			log.Warn("session cap reached, rejecting stream")
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		} else {
			defer func() {
				// The request context is gone by the time the call ends.
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := utils.ReleaseConcurrencyCap(ctx, g.rdb, sessionCapKey); err != nil {
					log.Warn("session cap release failed", "err", err)
				}
			}()
		}
	}

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("websocket upgrade failed", "err", err)
		return
	}

	sess := NewSession(conn, g.dialer, g.creds, g.records, g.prompts, g.cfg, log)
	if err := sess.Run(c.Request.Context()); err != nil {
		log.Error("session ended with error", "err", err)
	}
}
