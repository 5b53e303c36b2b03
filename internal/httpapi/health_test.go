package httpapi

import (
	"database/sql"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func healthRouter(t *testing.T, h HealthHandlers) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/healthz", h.Live)
	r.GET("/readyz", h.Ready)
	return r
}

func TestHealthLiveAlwaysOK(t *testing.T) {
	r := healthRouter(t, HealthHandlers{})

	w := doJSON(t, r, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestHealthReadyReportsDatabaseOutage(t *testing.T) {
	// Port 1 is never a postgres listener; the ping fails fast.
	db, err := sql.Open("pgx", "host=127.0.0.1 port=1 user=callops dbname=callops sslmode=disable connect_timeout=1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	r := healthRouter(t, HealthHandlers{DB: db})

	w := doJSON(t, r, http.MethodGet, "/readyz", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d (%s)", w.Code, w.Body.String())
	}
}
