package fetcher

import (
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchDecodesHALDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got == "" {
			t.Errorf("expected an Accept header")
		}
		if got := r.Header.Get("User-Agent"); got != "chain-crawler-test" {
			t.Errorf("user agent = %q", got)
		}
		w.Header().Set("Content-Type", "application/hal+json")
		w.Write([]byte(`{"name": "dev1", "_links": {"self": {"href": "/devices/1"}}}`))
	}))
	defer srv.Close()

	f, err := NewHTTPFetcher(Options{UserAgent: "chain-crawler-test"})
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}

	doc, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if doc["name"] != "dev1" {
		t.Fatalf("doc = %v, want decoded resource body", doc)
	}
	if _, ok := doc["_links"].(map[string]any); !ok {
		t.Fatalf("doc link section missing: %v", doc)
	}
}

func TestFetchDecodesGzipBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write([]byte(`{"ok": true}`))
		gz.Close()
	}))
	defer srv.Close()

	f, err := NewHTTPFetcher(Options{UserAgent: "chain-crawler-test"})
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	doc, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if doc["ok"] != true {
		t.Fatalf("doc = %v, want decoded gzip body", doc)
	}
}

func TestFetchRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f, err := NewHTTPFetcher(Options{UserAgent: "chain-crawler-test"})
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected an error for a 404 response")
	}
}

func TestFetchRejectsOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 2048))
	}))
	defer srv.Close()

	f, err := NewHTTPFetcher(Options{UserAgent: "chain-crawler-test", MaxBodyBytes: 1024})
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected an error for a body over the limit")
	}
}
