package scorer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/heartmarshall/memorycare-backend/internal/config"
	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(url string, timeout time.Duration) *Client {
	return NewClient(config.ScorerConfig{BaseURL: url, APIKey: "secret", Timeout: timeout}, newTestLogger())
}

func sampleGroundTruth() domain.GroundTruth {
	return domain.GroundTruth{
		Description: "Mi hermana Ana en la playa de Valencia",
		Keywords:    []string{"ana", "playa", "valencia"},
	}
}

func TestClient_Score_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != scorePath {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		var req scoreRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Text != "Ana en la playa" || len(req.GroundTruth.Keywords) != 3 {
			t.Errorf("unexpected request: %+v", req)
		}
		if req.GroundTruth.GuideQuestions == nil {
			t.Error("guide_questions must be sent as an empty list, not null")
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"rates": {"omission": 0.33, "commission": 0, "exactness": 0.67, "coherence": 0.9, "fluency": 0.8, "total": 0.7},
			"hits": ["ana", "playa"],
			"omitted_keywords": ["valencia"],
			"conclusion": "Recuerda a la persona y el lugar."
		}`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL, time.Second).Score(context.Background(), "Ana en la playa", sampleGroundTruth())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Rates.Total != 0.7 || got.Rates.Exactness != 0.67 {
		t.Errorf("Rates = %+v", got.Rates)
	}
	if len(got.Hits) != 2 || got.OmittedKeywords[0] != "valencia" {
		t.Errorf("lists = %+v", got)
	}
	if got.OmittedDetails == nil || got.AddedElements == nil {
		t.Error("missing lists must be empty, not nil")
	}
}

func TestClient_Score_ServerErrorIsUpstreamAndNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"model warming up"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, time.Second).Score(context.Background(), "texto", sampleGroundTruth())
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("error = %v, want ErrUpstream", err)
	}
	var upErr *domain.UpstreamError
	if !errors.As(err, &upErr) || upErr.Service != "scorer" {
		t.Errorf("error = %#v, want UpstreamError from scorer", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, want exactly 1", n)
	}
}

func TestClient_Score_RejectsOutOfRangeRates(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"rates": {"omission": 1.5, "commission": 0, "exactness": 0, "coherence": 0, "fluency": 0, "total": 0}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, time.Second).Score(context.Background(), "texto", sampleGroundTruth())
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("error = %v, want ErrUpstream", err)
	}
}

func TestClient_Score_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestClient(srv.URL, 5*time.Second).Score(ctx, "texto", sampleGroundTruth())
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("error = %v, want ErrUpstream", err)
	}
}

func TestClient_Conclude(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{
			name:   "success",
			status: http.StatusOK,
			body:   `{"technical":"Recall 0.80, omission 0.20.","plain":"Recordó casi todo."}`,
		},
		{
			name:    "empty text",
			status:  http.StatusOK,
			body:    `{"technical":"","plain":""}`,
			wantErr: true,
		},
		{
			name:    "bad gateway",
			status:  http.StatusBadGateway,
			body:    `{"error":"down"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != concludePath {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			got, err := newTestClient(srv.URL, time.Second).Conclude(context.Background(), domain.Rates{Exactness: 0.8, Omission: 0.2, Total: 0.8})
			if tt.wantErr {
				if !errors.Is(err, domain.ErrUpstream) {
					t.Fatalf("error = %v, want ErrUpstream", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Plain != "Recordó casi todo." {
				t.Errorf("Plain = %q", got.Plain)
			}
		})
	}
}
