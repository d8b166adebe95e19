package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gzhole/promptshield/internal/audit"
	"github.com/gzhole/promptshield/internal/hook"
	"github.com/gzhole/promptshield/internal/policy"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSink struct {
	mu      sync.Mutex
	records []audit.Record
}

func (s *countingSink) Write(_ context.Context, rec audit.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *countingSink) Close() error { return nil }

func newTestServer() (*Server, *countingSink) {
	sink := &countingSink{}
	filter := hook.NewFilter(policy.MustDefaultEngine(), sink, zerolog.Nop())
	return New(filter, zerolog.Nop()), sink
}

func post(t *testing.T, s *Server, body string) (*http.Response, ClassifyResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/classify", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.App().Test(req)
	require.NoError(t, err)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var parsed ClassifyResponse
	require.NoError(t, json.Unmarshal(data, &parsed))
	return resp, parsed
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer()

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestClassify_Blocked(t *testing.T) {
	s, sink := newTestServer()

	resp, body := post(t, s, `{"prompt": "union select password from users"}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, body.Blocked)
	assert.Equal(t, "BLOCK", body.Decision)
	assert.Equal(t, "BLOCKED", body.Action)
	assert.Equal(t, []string{"SQL_INJECTION"}, body.Risks)
	assert.Contains(t, body.Error, "SQL_INJECTION")
	assert.Len(t, sink.records, 1)
}

func TestClassify_Advisory(t *testing.T) {
	s, _ := newTestServer()

	_, body := post(t, s, `{"prompt": "what does HIPAA require?"}`)

	assert.False(t, body.Blocked)
	assert.Equal(t, "ALLOW", body.Decision)
	assert.Equal(t, []string{}, body.Risks)
	assert.Equal(t, []string{"DATA_PRIVACY"}, body.Compliance)
	assert.NotEmpty(t, body.Warning)
	assert.NotEmpty(t, body.ComplianceNote)
}

func TestClassify_MalformedFailsOpen(t *testing.T) {
	s, sink := newTestServer()

	resp, body := post(t, s, `{"prompt": `)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, body.Blocked)
	assert.Equal(t, "ALLOW", body.Decision)
	assert.Contains(t, body.Error, "Security filter error")
	assert.Len(t, sink.records, 1)
}

func TestClassify_ConcurrentRequests(t *testing.T) {
	s, sink := newTestServer()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/v1/classify", strings.NewReader(`{"prompt": "rm -rf /"}`))
			resp, err := s.App().Test(req)
			if assert.NoError(t, err) {
				assert.Equal(t, http.StatusOK, resp.StatusCode)
			}
		}()
	}
	wg.Wait()

	assert.Len(t, sink.records, 20)
}
