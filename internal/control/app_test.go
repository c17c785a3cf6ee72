package control

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vietddude/airport-gateway/internal/core/config"
)

const directoryBody = `{"code":"EGLL","iata":"LHR","airportName":"London Heathrow","cityName":"London","countryName":"United Kingdom","lat":51.47,"lng":-0.45,"elevationFt":83}`

func testConfig(t *testing.T, baseURL string, cacheDisabled bool) *config.AppConfig {
	t.Helper()

	raw := `
server:
  port: 38471
cache:
  disabled: ` + strconv.FormatBool(cacheDisabled) + `
providers:
  - name: directory
    schema: airportdirectory
    priority: 1
    base_url: ` + baseURL + `
`
	cfg, err := config.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return cfg
}

func TestNewApp_ServesLookups(t *testing.T) {
	var hits atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/api/airports/EGLL" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(directoryBody))
	}))
	defer upstream.Close()

	app, err := NewApp(testConfig(t, upstream.URL, false))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}

	if len(app.Strategies()) != 1 {
		t.Fatalf("Expected 1 strategy, got %d", len(app.Strategies()))
	}

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/airports/egll", nil)
		rec := httptest.NewRecorder()
		app.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var body map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("Invalid JSON: %v", err)
		}
		if body["city"] != "London" {
			t.Errorf("Expected city London, got %v", body["city"])
		}
	}

	// Second request is served from cache.
	if got := hits.Load(); got != 1 {
		t.Errorf("Expected 1 upstream hit, got %d", got)
	}
}

func TestNewApp_CacheDisabled(t *testing.T) {
	var hits atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(directoryBody))
	}))
	defer upstream.Close()

	app, err := NewApp(testConfig(t, upstream.URL, true))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := app.Service().Get(context.Background(), "EGLL"); err != nil {
			t.Fatalf("Get failed: %v", err)
		}
	}

	if got := hits.Load(); got != 3 {
		t.Errorf("Expected 3 upstream hits, got %d", got)
	}
}

func TestApp_StartStop(t *testing.T) {
	app, err := NewApp(testConfig(t, "http://127.0.0.1:1", false))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}

	errs := app.Start(context.Background())
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := app.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	select {
	case err, ok := <-errs:
		if ok && err != nil {
			t.Fatalf("Server failed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Server did not stop")
	}
}
