package repository

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLookupDecodesPoolEntry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/member_numbers" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("member_number"); got != "eq.42" {
			t.Errorf("member_number filter = %q, want eq.42", got)
		}
		if r.Header.Get("apikey") == "" || r.Header.Get("Authorization") == "" {
			t.Error("auth headers missing")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"member_number":42,"is_available":false,"assigned_to":"u-9"}]`))
	}))
	defer srv.Close()

	repo := NewPoolRepo(NewClient(srv.URL, "anon-key"))
	entry, err := repo.Lookup(context.Background(), 42)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if entry.Number != 42 || entry.IsAvailable {
		t.Errorf("entry = %+v, want taken number 42", entry)
	}
	if entry.AssignedTo == nil || *entry.AssignedTo != "u-9" {
		t.Errorf("assigned_to = %v, want u-9", entry.AssignedTo)
	}
}

func TestLookupEmptyResultIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	repo := NewPoolRepo(NewClient(srv.URL, "anon-key"))
	if _, err := repo.Lookup(context.Background(), 7); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestLookupBackendFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "db unavailable", http.StatusInternalServerError)
	}))
	defer srv.Close()

	repo := NewPoolRepo(NewClient(srv.URL, "anon-key"))
	if _, err := repo.Lookup(context.Background(), 7); !errors.Is(err, ErrTransient) {
		t.Errorf("err = %v, want ErrTransient", err)
	}
}

func TestLookupConnectionFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // nothing listens anymore

	repo := NewPoolRepo(NewClient(srv.URL, "anon-key"))
	if _, err := repo.Lookup(context.Background(), 7); !errors.Is(err, ErrTransient) {
		t.Errorf("err = %v, want ErrTransient", err)
	}
}

func TestCountAvailableCallsRPC(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/rpc/get_available_spots_count" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`9817`))
	}))
	defer srv.Close()

	repo := NewPoolRepo(NewClient(srv.URL, "anon-key"))
	count, err := repo.CountAvailable(context.Background())
	if err != nil {
		t.Fatalf("CountAvailable: %v", err)
	}
	if count != 9817 {
		t.Errorf("count = %d, want 9817", count)
	}
}
