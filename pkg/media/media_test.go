package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/joey603/surveypro/pkg/core/flow"
)

func TestHTTPDeleterDeletes(t *testing.T) {
	var method atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method.Store(r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := NewHTTPDeleter(srv.Client())
	err := d.Delete(context.Background(), flow.MediaRef{ID: "m1", URL: srv.URL + "/assets/m1"})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if method.Load() != http.MethodDelete {
		t.Errorf("method = %v, want DELETE", method.Load())
	}
}

func TestHTTPDeleterRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := NewHTTPDeleter(srv.Client())
	err := d.Delete(context.Background(), flow.MediaRef{ID: "m1", URL: srv.URL})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2 (one retry)", calls.Load())
	}
}

func TestHTTPDeleterNotFoundIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	d := NewHTTPDeleter(srv.Client())
	if err := d.Delete(context.Background(), flow.MediaRef{ID: "m1", URL: srv.URL}); err != nil {
		t.Fatalf("Delete on missing asset: %v", err)
	}
}

func TestHTTPDeleterClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	d := NewHTTPDeleter(srv.Client())
	if err := d.Delete(context.Background(), flow.MediaRef{ID: "m1", URL: srv.URL}); err == nil {
		t.Fatal("Delete swallowed a 403")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (no retry on 4xx)", calls.Load())
	}
}

func TestHTTPDeleterMissingURL(t *testing.T) {
	d := NewHTTPDeleter(nil)
	if err := d.Delete(context.Background(), flow.MediaRef{ID: "m1"}); err == nil {
		t.Fatal("Delete accepted a ref with no url")
	}
}
