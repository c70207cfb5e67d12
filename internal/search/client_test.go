package search_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jonesrussell/storefront-admin/internal/config"
	"github.com/jonesrussell/storefront-admin/internal/domain"
	"github.com/jonesrussell/storefront-admin/internal/logger"
	"github.com/jonesrussell/storefront-admin/internal/search"
)

// fakeES serves the minimal Elasticsearch surface the client touches:
// HEAD / for ping and HEAD /{index} for the existence check.
func fakeES(t *testing.T, indexStatus int) *httptest.Server {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		if r.URL.Path == "/" {
			w.WriteHeader(http.StatusOK)
			return
		}
		if strings.Trim(r.URL.Path, "/") == "products" {
			w.WriteHeader(indexStatus)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newClient(t *testing.T, url string) *search.Client {
	t.Helper()

	client, err := search.NewClient(&config.SearchConfig{
		Addresses: []string{url},
		IndexName: "products",
	}, logger.NewNop())
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestVerify_IndexPresent(t *testing.T) {
	ts := fakeES(t, http.StatusOK)
	client := newClient(t, ts.URL)

	result := client.Verify(context.Background())
	if !result.OK {
		t.Fatalf("Verify() not OK, error code %s", result.ErrorCode)
	}
	if !strings.Contains(result.Details, "products") {
		t.Errorf("Details = %q, want index name mentioned", result.Details)
	}
}

func TestVerify_IndexMissing(t *testing.T) {
	ts := fakeES(t, http.StatusNotFound)
	client := newClient(t, ts.URL)

	result := client.Verify(context.Background())
	if result.OK {
		t.Fatal("Verify() OK with missing index, want failure")
	}
	if result.ErrorCode != domain.ErrIndexMissing {
		t.Errorf("ErrorCode = %s, want index_missing (reachable but index absent)", result.ErrorCode)
	}
}

func TestVerify_Unreachable(t *testing.T) {
	// A closed server: connection refused, which must classify as
	// unreachable rather than index_missing.
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := ts.URL
	ts.Close()

	client := newClient(t, url)
	result := client.Verify(context.Background())
	if result.OK {
		t.Fatal("Verify() OK against closed server, want failure")
	}
	if result.ErrorCode != domain.ErrUnreachable {
		t.Errorf("ErrorCode = %s, want unreachable", result.ErrorCode)
	}
}
