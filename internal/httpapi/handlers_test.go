package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"callops/internal/agents"
	"callops/internal/calllog"
	"callops/internal/sysconfig"
)

func testRouter(t *testing.T) (*gin.Engine, *agents.Service, *calllog.Service, *sysconfig.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	agentSvc := agents.NewService(agents.NewMemoryRepo())
	cfgSvc := sysconfig.NewService(sysconfig.NewMemoryRepo(), sysconfig.NewMemoryCache())
	callSvc := calllog.NewService(calllog.NewMemoryRepo(), cfgSvc, nil)

	r := gin.New()
	api := r.Group("/api")

	ah := AgentHandlers{Agents: agentSvc}
	api.GET("/agents", ah.List)
	api.POST("/agents", ah.Create)
	api.POST("/agents/bulk", ah.CreateBulk)
	api.GET("/agents/:id", ah.Get)
	api.PUT("/agents/:id", ah.Update)
	api.DELETE("/agents/:id", ah.Delete)

	ch := CallLogHandlers{CallLogs: callSvc}
	api.GET("/call-logs", ch.List)
	api.POST("/call-logs", ch.Create)
	api.POST("/call-logs/bulk", ch.CreateBulk)
	api.POST("/call-logs/status-callback", ch.StatusCallback)
	api.GET("/call-logs/:id", ch.Get)
	api.PUT("/call-logs/:id", ch.Update)
	api.DELETE("/call-logs/:id", ch.Delete)

	sh := SysConfigHandlers{Config: cfgSvc}
	api.GET("/system-config", sh.List)
	api.PUT("/system-config", sh.Upsert)
	api.GET("/system-config/:id", sh.Get)
	api.DELETE("/system-config/:id", sh.Delete)

	return r, agentSvc, callSvc, cfgSvc
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAgentCRUD(t *testing.T) {
	r, _, _, _ := testRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/agents", `{"name":"Closer","prompt":"Be polite."}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	var created agents.Agent
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("create: bad body: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("create: missing id: %+v", created)
	}

	w = doJSON(t, r, http.MethodGet, "/api/agents/1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPut, "/api/agents/1", `{"name":"Renamed"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var updated agents.Agent
	_ = json.Unmarshal(w.Body.Bytes(), &updated)
	if updated.Name != "Renamed" || updated.Prompt != "Be polite." {
		t.Fatalf("update: unexpected agent: %+v", updated)
	}

	w = doJSON(t, r, http.MethodDelete, "/api/agents/1", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", w.Code)
	}
	w = doJSON(t, r, http.MethodGet, "/api/agents/1", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", w.Code)
	}
}

func TestAgentCreateRejectsBlankName(t *testing.T) {
	r, _, _, _ := testRouter(t)
	w := doJSON(t, r, http.MethodPost, "/api/agents", `{"name":"  "}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestListMetaAndFilters(t *testing.T) {
	r, _, _, _ := testRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/agents/bulk",
		`[{"name":"A"},{"name":"B"},{"name":"C"}]`)
	if w.Code != http.StatusCreated {
		t.Fatalf("bulk: expected 201, got %d (%s)", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/agents?page=1&limit=2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	var res struct {
		Data []agents.Agent `json:"data"`
		Meta listMeta       `json:"meta"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("list: bad body: %v", err)
	}
	if len(res.Data) != 2 || res.Meta.Total != 3 || res.Meta.Page != 1 || res.Meta.Limit != 2 {
		t.Fatalf("list: unexpected page: data=%d meta=%+v", len(res.Data), res.Meta)
	}

	where := url.QueryEscape(`[{"key":"name","operator":"=","value":"B"}]`)
	w = doJSON(t, r, http.MethodGet, "/api/agents?where="+where, "")
	if w.Code != http.StatusOK {
		t.Fatalf("filtered list: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("filtered list: bad body: %v", err)
	}
	if len(res.Data) != 1 || res.Data[0].Name != "B" || res.Meta.Total != 1 {
		t.Fatalf("filtered list: unexpected result: %+v", res)
	}
}

func TestCallLogValidationAndStatusCallback(t *testing.T) {
	r, _, _, _ := testRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/call-logs", `{"name":"Jane"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing fields, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/call-logs",
		`{"name":"Jane","number":"+15550000002","agent":1}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	var created calllog.CallLog
	_ = json.Unmarshal(w.Body.Bytes(), &created)

	sid := "CA1"
	doJSON(t, r, http.MethodPut, "/api/call-logs/1", `{"call_sid":"`+sid+`"}`)

	form := url.Values{"CallSid": {sid}, "CallStatus": {"completed"}, "CallDuration": {"30"}}
	req := httptest.NewRequest(http.MethodPost, "/api/call-logs/status-callback",
		strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status callback: expected 204, got %d", rec.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/call-logs/1", "")
	var got calllog.CallLog
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.Duration != "30" {
		t.Fatalf("expected duration recorded, got %+v", got)
	}
}

func TestSystemConfigUpsert(t *testing.T) {
	r, _, _, _ := testRouter(t)

	w := doJSON(t, r, http.MethodPut, "/api/system-config",
		`{"key":"server_url","value":"https://one.example.com"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("upsert: expected 200, got %d (%s)", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPut, "/api/system-config",
		`{"key":"server_url","value":"https://two.example.com"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("second upsert: expected 200, got %d", w.Code)
	}
	var s sysconfig.Setting
	_ = json.Unmarshal(w.Body.Bytes(), &s)
	if s.Value != "https://two.example.com" {
		t.Fatalf("upsert did not replace value: %+v", s)
	}

	w = doJSON(t, r, http.MethodPut, "/api/system-config", `{"key":"  "}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("blank key: expected 400, got %d", w.Code)
	}
}
