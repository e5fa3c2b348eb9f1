package lgproxy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/psaab/birdlg/pkg/lg"
)

func TestQuery(t *testing.T) {
	var gotPath string
	var gotBody Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"result":"BIRD output"}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", time.Second)
	out, err := c.Query(context.Background(), lg.Build(lg.CmdShowRouteFor, "1.1.1.0/24"))
	if err != nil {
		t.Fatal(err)
	}
	if out != "BIRD output" {
		t.Errorf("out = %q", out)
	}
	if gotPath != "/bird" {
		t.Errorf("path = %q, want /bird", gotPath)
	}
	want := Request{Command: "show route for 1.1.1.0/24", Endpoint: "/bird"}
	if gotBody != want {
		t.Errorf("body = %+v, want %+v", gotBody, want)
	}
}

func TestQuery_TracerouteEndpoint(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"result":"1  192.0.2.1  0.321 ms"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	if _, err := c.Query(context.Background(), lg.Build(lg.CmdTraceroute6, "2001:db8::1")); err != nil {
		t.Fatal(err)
	}
	if gotPath != "/traceroute6" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestQuery_MissingResultIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	out, err := New(srv.URL, time.Second).Query(context.Background(), lg.Build(lg.CmdShowProtocols, ""))
	if err != nil {
		t.Fatalf("missing result should not be an error: %v", err)
	}
	if out != "" {
		t.Errorf("out = %q, want empty", out)
	}
}

func TestQuery_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"non-json", http.StatusOK, "<html>oops</html>"},
		{"error field", http.StatusOK, `{"result":"","error":"birdc: connection refused"}`},
		{"http status", http.StatusBadGateway, `{"result":"partial"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			if _, err := New(srv.URL, time.Second).Query(context.Background(), lg.Build(lg.CmdShowProtocols, "")); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestQuery_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	if _, err := New(url, time.Second).Query(context.Background(), lg.Build(lg.CmdShowProtocols, "")); err == nil {
		t.Error("expected error for closed server")
	}
}

func TestQuery_BirdErrorTextIsOutput(t *testing.T) {
	// birdc reports command errors on stdout; the proxy passes them in result.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":"syntax error, unexpected CF_SYM_UNDEFINED"}`))
	}))
	defer srv.Close()

	out, err := New(srv.URL, time.Second).Query(context.Background(), lg.Build(lg.CmdShowRouteFor, "bogus"))
	if err != nil {
		t.Fatalf("error text in result should not fail the query: %v", err)
	}
	if out != "syntax error, unexpected CF_SYM_UNDEFINED" {
		t.Errorf("out = %q", out)
	}
}
