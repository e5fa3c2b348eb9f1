package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/psaab/birdlg/pkg/logging"
)

func TestSetSSEHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	setSSEHeaders(w)

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Cache-Control = %q, want no-cache", cc)
	}
}

func TestWriteSSEEvent(t *testing.T) {
	w := httptest.NewRecorder()
	writeSSEEvent(w, "42", "query", `{"key":"value"}`)

	body := w.Body.String()
	if !strings.Contains(body, "id: 42\n") {
		t.Errorf("missing id line in %q", body)
	}
	if !strings.Contains(body, "event: query\n") {
		t.Errorf("missing event line in %q", body)
	}
	if !strings.Contains(body, "data: {\"key\":\"value\"}\n") {
		t.Errorf("missing data line in %q", body)
	}
	if !strings.HasSuffix(body, "\n\n") {
		t.Errorf("SSE event should end with double newline")
	}
}

func TestWriteSSEEventNoEventType(t *testing.T) {
	w := httptest.NewRecorder()
	writeSSEEvent(w, "1", "", "hello")

	if body := w.Body.String(); strings.Contains(body, "event:") {
		t.Errorf("should not have event line when empty, got %q", body)
	}
}

func runStream(t *testing.T, s *Server, target string, feed func()) string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest("GET", target, nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		s.queryStreamHandler(w, req)
		close(done)
	}()

	// Wait for the subscription to be set up.
	time.Sleep(50 * time.Millisecond)
	feed()
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}
	return w.Body.String()
}

func TestQueryStreamHandler(t *testing.T) {
	ql := logging.NewQueryLog(16)
	s := &Server{queryLog: ql}

	body := runStream(t, s, "/api/v1/queries/stream", func() {
		ql.Add(logging.QueryRecord{Endpoint: "/bird", Command: "show protocols"})
		ql.Add(logging.QueryRecord{Endpoint: "/traceroute", Command: "192.0.2.1", Error: "exit status 1"})
	})

	if !strings.Contains(body, "event: query\n") {
		t.Errorf("missing query event in %q", body)
	}
	if !strings.Contains(body, "event: query_error\n") {
		t.Errorf("missing query_error event in %q", body)
	}

	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var rec logging.QueryRecord
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &rec); err != nil {
			t.Fatalf("unmarshal record: %v", err)
		}
		if rec.Seq != 1 || rec.Command != "show protocols" {
			t.Errorf("first record = %+v", rec)
		}
		break
	}
}

func TestQueryStreamEndpointFilter(t *testing.T) {
	ql := logging.NewQueryLog(16)
	s := &Server{queryLog: ql}

	body := runStream(t, s, "/api/v1/queries/stream?endpoint=/traceroute6", func() {
		ql.Add(logging.QueryRecord{Endpoint: "/bird", Command: "show protocols"})
		ql.Add(logging.QueryRecord{Endpoint: "/traceroute6", Command: "2001:db8::1"})
	})

	if strings.Contains(body, "show protocols") {
		t.Errorf("/bird query should be filtered out, got %q", body)
	}
	if !strings.Contains(body, "2001:db8::1") {
		t.Errorf("/traceroute6 query should pass filter, got %q", body)
	}
}
