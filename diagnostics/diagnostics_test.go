package diagnostics

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/objectgraph/di"
	"github.com/kbukum/objectgraph/errors"
	"github.com/kbukum/objectgraph/logger"
	"github.com/kbukum/objectgraph/version"
)

type greeter interface{ Greet() string }

type english struct{}

func (english) Greet() string { return "hello" }

type german struct{}

func (german) Greet() string { return "hallo" }

type clock struct{}

func newRouter(t *testing.T) (*gin.Engine, *di.Container) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	c, err := di.NewContainer(di.WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	for _, inst := range []*di.Instance{
		di.Value[greeter](english{}).Named("en").Describe("english greeter"),
		di.Value[greeter](german{}).Named("de"),
		di.Construct(func(di.InstanceCreator) (*clock, error) { return &clock{}, nil }).Singleton(),
	} {
		if err := c.Add(inst); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	router := gin.New()
	Register(router, c)
	return router, c
}

func get(router *gin.Engine, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	router.ServeHTTP(w, req)
	return w
}

type registrationsBody struct {
	Data []di.Registration `json:"data"`
	Meta *Meta             `json:"meta"`
}

func TestRegistrations(t *testing.T) {
	router, _ := newRouter(t)

	w := get(router, "/di/registrations")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body registrationsBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data) != 3 || body.Meta == nil || body.Meta.Total != 3 {
		t.Fatalf("expected 3 registrations, got %+v", body)
	}
	first := body.Data[0]
	if first.Contract != "diagnostics.greeter" || first.Name != "en" || !first.Default {
		t.Errorf("unexpected first registration %+v", first)
	}
	if first.Description != "english greeter" {
		t.Errorf("expected description, got %q", first.Description)
	}
	if body.Data[1].Default {
		t.Error("expected only the first added instance to be the default")
	}
}

func TestRegistrations_FilterByContract(t *testing.T) {
	router, _ := newRouter(t)

	tests := []struct {
		name     string
		contract string
		want     int
	}{
		{"greeters", "diagnostics.greeter", 2},
		{"clock", "*diagnostics.clock", 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := get(router, "/di/registrations?contract="+tc.contract)
			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}
			var body registrationsBody
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(body.Data) != tc.want {
				t.Errorf("expected %d registrations, got %d", tc.want, len(body.Data))
			}
			for _, r := range body.Data {
				if r.Contract != tc.contract {
					t.Errorf("unexpected contract %q", r.Contract)
				}
			}
		})
	}
}

func TestRegistrations_UnknownContract(t *testing.T) {
	router, _ := newRouter(t)

	w := get(router, "/di/registrations?contract=nope")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	var body errors.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != errors.ErrCodeNotFound {
		t.Errorf("expected NOT_FOUND, got %s", body.Error.Code)
	}
	if body.Error.Details["id"] != "nope" {
		t.Errorf("expected the contract in details, got %v", body.Error.Details)
	}
}

func TestCount(t *testing.T) {
	router, c := newRouter(t)

	if _, err := di.Get[*clock](context.Background(), c); err != nil {
		t.Fatalf("Get: %v", err)
	}

	w := get(router, "/di/registrations/count")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Data CountResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := CountResponse{Registrations: 3, Contracts: 2, Singletons: 1}
	if body.Data != want {
		t.Errorf("expected %+v, got %+v", want, body.Data)
	}
}

func TestInterceptors(t *testing.T) {
	router, c := newRouter(t)
	if err := c.Intercept(di.TypeOf[greeter](), di.Identity); err != nil {
		t.Fatalf("Intercept: %v", err)
	}

	w := get(router, "/di/interceptors")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Data []di.InterceptorRule `json:"data"`
		Meta *Meta                `json:"meta"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Meta == nil || body.Meta.Total != 1 {
		t.Fatalf("expected one rule, got %+v", body.Meta)
	}
	if body.Data[0].Kind != "interface" {
		t.Errorf("expected an interface rule, got %q", body.Data[0].Kind)
	}
}

func TestRespondWithError_ForeignError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondWithError(c, context.Canceled)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), string(errors.ErrCodeInternal)) {
		t.Errorf("expected INTERNAL code in body, got %s", w.Body.String())
	}
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf)

	router := gin.New()
	router.Use(RequestLogger(log))
	router.GET("/ok", func(c *gin.Context) { RespondOK(c, "fine") })
	router.GET("/missing", func(c *gin.Context) { RespondWithError(c, errors.NotFound("thing", "x")) })

	get(router, "/ok?verbose=1")
	get(router, "/missing")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %s", len(lines), buf.String())
	}

	tests := []struct {
		line   string
		level  string
		path   string
		status float64
	}{
		{lines[0], "debug", "/ok?verbose=1", 200},
		{lines[1], "warn", "/missing", 404},
	}
	for _, tc := range tests {
		var entry map[string]any
		if err := json.Unmarshal([]byte(tc.line), &entry); err != nil {
			t.Fatalf("decode %q: %v", tc.line, err)
		}
		if entry["level"] != tc.level || entry["path"] != tc.path || entry["status"] != tc.status {
			t.Errorf("unexpected entry %v", entry)
		}
	}
}

func TestInfo(t *testing.T) {
	router, _ := newRouter(t)

	w := get(router, "/di/info")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Data InfoResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.Build.Version != version.Version {
		t.Errorf("expected version %q, got %q", version.Version, body.Data.Build.Version)
	}
	if body.Data.Uptime == "" {
		t.Error("expected an uptime")
	}
}
