package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/psaab/birdlg/pkg/bird"
	"github.com/psaab/birdlg/pkg/lg"
	"github.com/psaab/birdlg/pkg/logging"
)

type call struct {
	endpoint string
	command  string
}

type fakeBackend struct {
	mu       sync.Mutex
	calls    []call
	out      string
	err      error
	rows     []lg.ProtocolRow
	rowsErr  error
	deadline bool
}

func (f *fakeBackend) Query(ctx context.Context, endpoint, command string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{endpoint, command})
	_, f.deadline = ctx.Deadline()
	switch endpoint {
	case lg.EndpointBird, lg.EndpointTraceroute, lg.EndpointTraceroute6:
	default:
		return "", fmt.Errorf("%w: %q", bird.ErrUnknownEndpoint, endpoint)
	}
	if f.err != nil {
		return "", f.err
	}
	return f.out, nil
}

func (f *fakeBackend) Protocols(context.Context) ([]lg.ProtocolRow, error) {
	return f.rows, f.rowsErr
}

func newTestServer(be Backend) *Server {
	return NewServer(Config{
		Backend:  be,
		QueryLog: logging.NewQueryLog(16),
		Timeout:  time.Second,
		Metrics:  true,
	})
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeQuery(t *testing.T, w *httptest.ResponseRecorder) QueryResponse {
	t.Helper()
	var resp QueryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return resp
}

func TestQueryEndpoints(t *testing.T) {
	tests := []struct {
		path     string
		body     string
		endpoint string
		command  string
	}{
		{"/bird", `{"command":"show protocols","endpoint":"/bird"}`, "/bird", "show protocols"},
		{"/traceroute", `{"command":"192.0.2.1","endpoint":"/traceroute"}`, "/traceroute", "192.0.2.1"},
		{"/traceroute6", `{"command":"2001:db8::1","endpoint":"/traceroute6"}`, "/traceroute6", "2001:db8::1"},
		// The path decides, not the body.
		{"/bird", `{"command":"show route","endpoint":"/traceroute"}`, "/bird", "show route"},
		// The generic proxy path dispatches on the body.
		{"/api/lgproxy", `{"command":"show route for 1.1.1.0/24 all","endpoint":"/bird"}`, "/bird", "show route for 1.1.1.0/24 all"},
		{"/api/lgproxy", `{"command":"192.0.2.1","endpoint":"/traceroute"}`, "/traceroute", "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.path+" "+tt.command, func(t *testing.T) {
			be := &fakeBackend{out: "BIRD output"}
			s := newTestServer(be)

			w := post(t, s.Handler(), tt.path, tt.body)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, body %q", w.Code, w.Body.String())
			}
			if resp := decodeQuery(t, w); resp.Result != "BIRD output" || resp.Error != "" {
				t.Errorf("resp = %+v", resp)
			}
			if len(be.calls) != 1 || be.calls[0] != (call{tt.endpoint, tt.command}) {
				t.Errorf("calls = %+v", be.calls)
			}
			if !be.deadline {
				t.Error("backend called without a deadline")
			}
		})
	}
}

func TestQueryResultKeyAlwaysPresent(t *testing.T) {
	s := newTestServer(&fakeBackend{out: ""})
	w := post(t, s.Handler(), "/bird", `{"command":"show protocols"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"result":""`) {
		t.Errorf("body = %q", w.Body.String())
	}
	if strings.Contains(w.Body.String(), `"error"`) {
		t.Errorf("error key on success: %q", w.Body.String())
	}
}

func TestQueryBackendError(t *testing.T) {
	s := newTestServer(&fakeBackend{err: errors.New("birdc: connection refused")})
	w := post(t, s.Handler(), "/bird", `{"command":"show protocols"}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
	resp := decodeQuery(t, w)
	if resp.Result != "" || !strings.Contains(resp.Error, "connection refused") {
		t.Errorf("resp = %+v", resp)
	}
}

func TestQueryRejected(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
		err  error
	}{
		{"unknown endpoint", "/api/lgproxy", `{"command":"x","endpoint":"/etc/passwd"}`, nil},
		{"invalid target", "/traceroute", `{"command":"-f"}`, fmt.Errorf("%w: %q", bird.ErrInvalidTarget, "-f")},
		{"bad json", "/bird", `{"command":`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(&fakeBackend{err: tt.err})
			w := post(t, s.Handler(), tt.path, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %q)", w.Code, w.Body.String())
			}
			if resp := decodeQuery(t, w); resp.Error == "" {
				t.Errorf("missing error: %+v", resp)
			}
		})
	}
}

func TestQueryMethodNotAllowed(t *testing.T) {
	s := newTestServer(&fakeBackend{})
	req := httptest.NewRequest("GET", "/bird", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /bird status = %d, want 405", w.Code)
	}
}

func TestQueriesAreLogged(t *testing.T) {
	be := &fakeBackend{out: "ok"}
	s := newTestServer(be)
	post(t, s.Handler(), "/bird", `{"command":"show protocols"}`)
	be.err = errors.New("timeout")
	post(t, s.Handler(), "/traceroute", `{"command":"192.0.2.1"}`)

	req := httptest.NewRequest("GET", "/api/v1/queries?limit=10", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Success bool                  `json:"success"`
		Data    []logging.QueryRecord `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || len(resp.Data) != 2 {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Data[0].Endpoint != "/traceroute" || resp.Data[0].Error != "timeout" {
		t.Errorf("newest = %+v", resp.Data[0])
	}
	if resp.Data[1].Command != "show protocols" || resp.Data[1].Bytes != 2 {
		t.Errorf("oldest = %+v", resp.Data[1])
	}
}

func TestQueriesBadLimit(t *testing.T) {
	s := newTestServer(&fakeBackend{})
	for _, q := range []string{"limit=0", "limit=abc", "limit=-3"} {
		req := httptest.NewRequest("GET", "/api/v1/queries?"+q, nil)
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, w.Code)
		}
	}
}

func TestProtocolsHandler(t *testing.T) {
	rows := []lg.ProtocolRow{
		{Name: "bgp1", Protocol: "BGP", Table: "---", State: "up", Since: "2024-01-01", Info: "Established"},
		{Name: "static1", Protocol: "Static", Table: "master4", State: "up", Since: "2024-01-01"},
	}
	s := newTestServer(&fakeBackend{rows: rows})

	req := httptest.NewRequest("GET", "/api/v1/protocols", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Success bool              `json:"success"`
		Data    ProtocolsResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.Count != 2 || resp.Data.Protocols[0].Info != "Established" {
		t.Errorf("resp = %+v", resp)
	}

	s = newTestServer(&fakeBackend{rowsErr: errors.New("no socket")})
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/protocols", nil))
	if w.Code != http.StatusBadGateway {
		t.Errorf("error status = %d, want 502", w.Code)
	}
}

func TestHealthAndStatus(t *testing.T) {
	s := newTestServer(&fakeBackend{out: "x"})
	post(t, s.Handler(), "/bird", `{"command":"show protocols"}`)

	for _, path := range []string{"/health", "/api/v1/status"} {
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, w.Code)
		}
		if ct := w.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("%s Content-Type = %q", path, ct)
		}
		body, _ := io.ReadAll(w.Body)
		if !strings.Contains(string(body), `"success":true`) {
			t.Errorf("%s body = %q", path, body)
		}
		if path == "/api/v1/status" && !strings.Contains(string(body), `"queries_logged":1`) {
			t.Errorf("status body = %q", body)
		}
	}
}
