package poll

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func newTestServer(t *testing.T) (*Client, func() []string) {
	t.Helper()
	var (
		mu      sync.Mutex
		queries []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries = append(queries, r.URL.RawQuery)
		mu.Unlock()
		q := r.URL.Query()
		switch {
		case q.Has("diff"):
			_, _ = io.WriteString(w, "diff\n<table></table>")
		case q.Has("linkermap"):
			http.NotFound(w, r)
		case q.Has("info"):
			_, _ = io.WriteString(w, "start func_80001234\n")
		case q.Has("set"):
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	return c, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), queries...)
	}
}

func TestClientContent(t *testing.T) {
	c, queries := newTestServer(t)
	ctx := context.Background()

	body, err := c.Content(ctx, true)
	if err != nil {
		t.Fatalf("Content() error: %v", err)
	}
	if body != "diff\n<table></table>" {
		t.Errorf("Content() = %q", body)
	}
	if _, err := c.Content(ctx, false); err != nil {
		t.Fatalf("Content() error: %v", err)
	}

	got := queries()
	want := []string{"diff&nowait", "diff"}
	if len(got) != len(want) {
		t.Fatalf("queries = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("query %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestClientLinkerMapNotFound(t *testing.T) {
	c, _ := newTestServer(t)

	_, err := c.LinkerMap(context.Background())
	if !errors.Is(err, ErrNoLinkerMap) {
		t.Errorf("LinkerMap() error = %v, want ErrNoLinkerMap", err)
	}
}

func TestClientInfoAndSetStart(t *testing.T) {
	c, queries := newTestServer(t)
	ctx := context.Background()

	info, err := c.Info(ctx)
	if err != nil {
		t.Fatalf("Info() error: %v", err)
	}
	if info != "start func_80001234\n" {
		t.Errorf("Info() = %q", info)
	}

	if err := c.SetStart(ctx, "func a&b"); err != nil {
		t.Fatalf("SetStart() error: %v", err)
	}
	got := queries()
	last := got[len(got)-1]
	if last != "set&start=func+a%26b" {
		t.Errorf("SetStart query = %q", last)
	}
}

func TestClientTransportErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	c, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}

	_, err = c.Content(context.Background(), false)
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("error = %v, want *TransportError", err)
	}
	if te.Status != http.StatusBadGateway {
		t.Errorf("Status = %d", te.Status)
	}

	srv.Close()
	_, err = c.Content(context.Background(), false)
	if !errors.As(err, &te) {
		t.Fatalf("error = %v, want *TransportError", err)
	}
	if te.Status != 0 || te.Err == nil {
		t.Errorf("expected network failure, got %+v", te)
	}
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		raw     string
		wantURL string
		wantErr bool
	}{
		{"http://localhost:8000", "http://localhost:8000/?diff", false},
		{"http://localhost:8000/sub/?x=1#frag", "http://localhost:8000/sub/?diff", false},
		{"localhost:8000", "", true},
		{"ftp://host/", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			c, err := NewClient(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewClient() error: %v", err)
			}
			if got := c.URL("diff"); got != tt.wantURL {
				t.Errorf("URL() = %q, want %q", got, tt.wantURL)
			}
		})
	}
}
