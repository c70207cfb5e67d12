package cdn_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/jonesrussell/storefront-admin/internal/cdn"
	"github.com/jonesrussell/storefront-admin/internal/config"
	"github.com/jonesrussell/storefront-admin/internal/domain"
	"github.com/jonesrussell/storefront-admin/internal/logger"
)

type purgeRequest struct {
	Files           []string `json:"files"`
	PurgeEverything bool     `json:"purge_everything"`
}

// purgeServer records incoming purge requests and serves scripted responses.
type purgeServer struct {
	mu       sync.Mutex
	requests []purgeRequest
	statuses []int // response status per call; repeats last entry when exhausted
	rayIDs   []string
}

func (s *purgeServer) handler(t *testing.T) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		var req purgeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode purge body: %v", err)
		}

		s.mu.Lock()
		call := len(s.requests)
		s.requests = append(s.requests, req)
		status := http.StatusOK
		if len(s.statuses) > 0 {
			if call < len(s.statuses) {
				status = s.statuses[call]
			} else {
				status = s.statuses[len(s.statuses)-1]
			}
		}
		s.mu.Unlock()

		w.Header().Set("CF-Ray", fmt.Sprintf("ray-%d", call+1))
		w.WriteHeader(status)
		fmt.Fprint(w, `{"success":true}`)
	}
}

func newTestClient(t *testing.T, srv *purgeServer) (*cdn.Client, *httptest.Server) {
	t.Helper()

	ts := httptest.NewServer(srv.handler(t))
	t.Cleanup(ts.Close)

	cfg := &config.PurgeConfig{
		ZoneID:   "zone-1",
		APIToken: "token-1",
		SiteURL:  "https://shop.example.com",
		BaseURL:  ts.URL,
	}
	return cdn.NewClient(cfg, cdn.NewBatchStore(), logger.NewNop()), ts
}

func makeURLs(n int) []string {
	urls := make([]string, n)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://shop.example.com/products/p%d", i)
	}
	return urls
}

func TestPurgeFiles_ChunksUnderCap(t *testing.T) {
	srv := &purgeServer{}
	client, _ := newTestClient(t, srv)

	results := client.PurgeFiles(context.Background(), makeURLs(5000), false)

	if len(results) != 3 {
		t.Fatalf("results = %d chunks, want 3", len(results))
	}
	if len(srv.requests) != 3 {
		t.Fatalf("server saw %d requests, want 3", len(srv.requests))
	}

	wantSizes := []int{2000, 2000, 1000}
	for i, req := range srv.requests {
		if len(req.Files) != wantSizes[i] {
			t.Errorf("chunk %d size = %d, want %d", i, len(req.Files), wantSizes[i])
		}
	}
	for i, r := range results {
		if !r.OK {
			t.Errorf("chunk %d OK = false, want true", i)
		}
		if r.Attempts != 1 {
			t.Errorf("chunk %d attempts = %d, want 1", i, r.Attempts)
		}
	}

	combined := domain.CombinePurgeResults(results)
	if !combined.OK || combined.Attempts != 3 || len(combined.RayIDs) != 3 {
		t.Errorf("combined = %+v, want OK with 3 attempts and 3 ray IDs", combined)
	}
}

func TestPurgeFiles_RetriesOn5xx(t *testing.T) {
	srv := &purgeServer{statuses: []int{http.StatusBadGateway, http.StatusOK}}
	client, _ := newTestClient(t, srv)

	results := client.PurgeFiles(context.Background(), makeURLs(3), false)
	if len(results) != 1 {
		t.Fatalf("results = %d chunks, want 1", len(results))
	}

	r := results[0]
	if !r.OK {
		t.Errorf("OK = false after retry success, want true")
	}
	if r.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", r.Attempts)
	}
	if len(r.RayIDs) != 2 || r.RayIDs[0] != "ray-1" || r.RayIDs[1] != "ray-2" {
		t.Errorf("ray IDs = %v, want one per attempt in order", r.RayIDs)
	}
	if r.Status != http.StatusOK {
		t.Errorf("status = %d, want 200", r.Status)
	}
}

func TestPurgeFiles_ExhaustsRetriesOn5xx(t *testing.T) {
	srv := &purgeServer{statuses: []int{http.StatusInternalServerError}}
	client, _ := newTestClient(t, srv)

	results := client.PurgeFiles(context.Background(), makeURLs(1), false)
	r := results[0]
	if r.OK {
		t.Error("OK = true, want false when every attempt fails")
	}
	if r.Attempts != 2 {
		t.Errorf("attempts = %d, want 2 (bounded retry)", r.Attempts)
	}
	if r.Err == nil {
		t.Error("Err = nil, want error")
	}
}

func TestPurgeFiles_NoRetryOn4xx(t *testing.T) {
	srv := &purgeServer{statuses: []int{http.StatusForbidden}}
	client, _ := newTestClient(t, srv)

	results := client.PurgeFiles(context.Background(), makeURLs(1), false)
	r := results[0]
	if r.OK {
		t.Error("OK = true, want false")
	}
	if r.Attempts != 1 {
		t.Errorf("attempts = %d, want 1 (4xx is not retried)", r.Attempts)
	}
	if r.Status != http.StatusForbidden {
		t.Errorf("status = %d, want 403", r.Status)
	}
}

func TestPurgeEverything(t *testing.T) {
	srv := &purgeServer{}
	client, _ := newTestClient(t, srv)

	result := client.PurgeEverything(context.Background())
	if !result.OK {
		t.Fatalf("PurgeEverything() not OK: %v", result.Err)
	}
	if result.Mode != domain.PurgeModeEverything {
		t.Errorf("mode = %s, want everything", result.Mode)
	}
	if len(srv.requests) != 1 || !srv.requests[0].PurgeEverything {
		t.Errorf("server request = %+v, want purge_everything=true", srv.requests)
	}
	if len(srv.requests[0].Files) != 0 {
		t.Error("purge_everything request must not carry a file list")
	}
}

func TestReplay_NoPreviousBatch(t *testing.T) {
	srv := &purgeServer{}
	client, _ := newTestClient(t, srv)

	_, err := client.Replay(context.Background())
	var coded *domain.CodedError
	if !errors.As(err, &coded) || coded.Code != domain.ErrNoPreviousBatch {
		t.Fatalf("Replay() error = %v, want no_previous_batch", err)
	}
	if len(srv.requests) != 0 {
		t.Error("Replay() with empty store must not issue requests")
	}
}

func TestReplay_UsesRecordedBatch(t *testing.T) {
	srv := &purgeServer{}
	client, _ := newTestClient(t, srv)

	batch := []string{
		"https://shop.example.com/sitemap.xml",
		"https://shop.example.com/products/widget",
	}
	client.RecordBatch(batch)

	results, err := client.Replay(context.Background())
	if err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	if len(results) != 1 || !results[0].OK {
		t.Fatalf("Replay() results = %+v, want one OK chunk", results)
	}
	if len(srv.requests) != 1 {
		t.Fatalf("server saw %d requests, want 1", len(srv.requests))
	}
	if got := srv.requests[0].Files; len(got) != 2 || got[0] != batch[0] || got[1] != batch[1] {
		t.Errorf("replayed files = %v, want recorded batch", got)
	}
}
