package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crosscontext/crosscontext-backend/internal/connectors"
	"github.com/crosscontext/crosscontext-backend/internal/domain/access"
	"github.com/crosscontext/crosscontext-backend/internal/domain/classification"
	"github.com/crosscontext/crosscontext-backend/internal/domain/redaction"
	"github.com/crosscontext/crosscontext-backend/internal/infrastructure/auditstore"
	"github.com/crosscontext/crosscontext-backend/internal/metrics"
	consentsvc "github.com/crosscontext/crosscontext-backend/internal/service/consent"
	"github.com/crosscontext/crosscontext-backend/internal/service/mediation"
)

func testRules() classification.RuleSet {
	return classification.RuleSet{
		HomeDomain: "agency.gov.sg",
		Restricted: classification.TierRules{
			Keywords:        []string{"disciplinary", "investigation", "medical"},
			ContentPatterns: []string{`\b[STFG]\d{7}[A-Z]\b`},
			DomainGlobs:     []string{"*.external-contractor.com"},
			PathPrefixes:    []string{"/hr/casework"},
		},
		Confidential: classification.TierRules{
			Keywords:     []string{"budget", "procurement", "tender"},
			DomainGlobs:  []string{"vendor.com"},
			PathPrefixes: []string{"/finance"},
		},
	}
}

type apiFixture struct {
	ts       *httptest.Server
	consents *consentsvc.Coordinator
}

func newAPIFixture(t *testing.T, consentTimeout time.Duration) *apiFixture {
	t.Helper()

	classifier, err := classification.NewClassifier(testRules())
	require.NoError(t, err)
	controller, err := access.NewController(access.DefaultPermissionTable())
	require.NoError(t, err)
	store, err := auditstore.NewStore(filepath.Join(t.TempDir(), "audit.jsonl"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	coord := consentsvc.NewCoordinator(zap.NewNop(), consentTimeout)
	m := metrics.New()
	svc := mediation.NewService(zap.NewNop(), classifier, redaction.NewRedactor(), controller,
		coord, store, m, []string{"calendar_event", "stakeholder"})
	for st, conn := range connectors.All() {
		svc.RegisterSource(st, conn)
	}

	handlers := NewHandlers(zap.NewNop(), svc, coord, store, "test")
	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux)
	mux.Handle("GET /metrics", m.Handler())

	ts := httptest.NewServer(Chain(mux, RecoveryMiddleware(zap.NewNop()), LoggingMiddleware(zap.NewNop())))
	t.Cleanup(ts.Close)
	return &apiFixture{ts: ts, consents: coord}
}

func (f *apiFixture) postJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(f.ts.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealthz(t *testing.T) {
	f := newAPIFixture(t, time.Minute)

	resp, err := http.Get(f.ts.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "healthy", body["status"])
}

func TestFetch_PublicRecordsReleasedWithoutConsent(t *testing.T) {
	f := newAPIFixture(t, time.Minute)

	resp := f.postJSON(t, "/api/v1/briefing/policies", map[string]any{
		"caller_id": "officer_001",
		"clearance": "officer",
		"query":     "smart nation",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)

	assert.Equal(t, false, body["requires_consent"])
	records := body["records"].([]any)
	require.NotEmpty(t, records)
	first := records[0].(map[string]any)
	assert.Equal(t, true, first["access_granted"])
	assert.NotEmpty(t, first["sanitized_content"])
	assert.NotEmpty(t, body["audit_log_id"])
}

func TestFetch_UnknownSourceIs404(t *testing.T) {
	f := newAPIFixture(t, time.Minute)

	resp := f.postJSON(t, "/api/v1/briefing/pagers", map[string]any{
		"caller_id": "officer_001",
		"clearance": "officer",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestFetch_MalformedBodyIs400(t *testing.T) {
	f := newAPIFixture(t, time.Minute)

	resp, err := http.Post(f.ts.URL+"/api/v1/briefing/emails", "application/json",
		bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestFetch_UnknownClearanceIs400(t *testing.T) {
	f := newAPIFixture(t, time.Minute)

	resp := f.postJSON(t, "/api/v1/briefing/emails", map[string]any{
		"caller_id": "officer_001",
		"clearance": "intern",
		"query":     "anything",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

// A restricted fetch blocks on consent; granting through the API releases it.
func TestFetch_ConsentGrantFlow(t *testing.T) {
	f := newAPIFixture(t, time.Minute)

	type result struct {
		status int
		body   map[string]any
	}
	done := make(chan result, 1)
	go func() {
		resp := f.postJSON(t, "/api/v1/briefing/emails", map[string]any{
			"caller_id": "officer_001",
			"clearance": "director",
			"query":     "medical",
		})
		done <- result{resp.StatusCode, decodeBody(t, resp)}
	}()

	// Wait for the pending consent request to appear, then approve it.
	var consentID string
	require.Eventually(t, func() bool {
		resp, err := http.Get(f.ts.URL + "/api/v1/consents/pending")
		if err != nil {
			return false
		}
		body := decodeBody(t, resp)
		pending, _ := body["pending"].([]any)
		if len(pending) != 1 {
			return false
		}
		consentID = pending[0].(map[string]any)["id"].(string)
		return true
	}, 2*time.Second, 10*time.Millisecond)

	resp := f.postJSON(t, fmt.Sprintf("/api/v1/consents/%s/grant", consentID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	select {
	case res := <-done:
		require.Equal(t, http.StatusOK, res.status)
		assert.Equal(t, true, res.body["requires_consent"])
		assert.Equal(t, "granted", res.body["consent_state"])
		records := res.body["records"].([]any)
		require.NotEmpty(t, records)
		first := records[0].(map[string]any)
		assert.Equal(t, true, first["access_granted"])
	case <-time.After(3 * time.Second):
		t.Fatal("briefing request did not complete after consent grant")
	}
}

func TestConsent_DenyUnknownIDIs404(t *testing.T) {
	f := newAPIFixture(t, time.Minute)

	resp := f.postJSON(t, "/api/v1/consents/00000000-0000-0000-0000-000000000001/deny", map[string]any{
		"reason": "no",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestConsent_InvalidIDIs400(t *testing.T) {
	f := newAPIFixture(t, time.Minute)

	resp := f.postJSON(t, "/api/v1/consents/not-a-uuid/grant", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestConsent_GetByIDReturnsPendingRequest(t *testing.T) {
	f := newAPIFixture(t, time.Minute)

	req, err := f.consents.Open("fetch_emails", "op-1", []string{"fetch_emails"},
		[]classification.Level{classification.Restricted})
	require.NoError(t, err)
	require.True(t, req.RequiresConsent)

	resp, err := http.Get(f.ts.URL + "/api/v1/consents/" + req.ID.String())
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, req.ID.String(), body["id"])
	assert.Equal(t, "pending", body["state"])
	assert.Equal(t, "RESTRICTED", body["highest_classification"])
}

func TestConsent_GetUnknownIDIs404(t *testing.T) {
	f := newAPIFixture(t, time.Minute)

	resp, err := http.Get(f.ts.URL + "/api/v1/consents/00000000-0000-0000-0000-000000000001")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestAuditScan_ReturnsEntriesOldestFirst(t *testing.T) {
	f := newAPIFixture(t, time.Minute)

	for _, query := range []string{"smart nation", "town hall"} {
		resp := f.postJSON(t, "/api/v1/briefing/documents", map[string]any{
			"caller_id": "officer_001",
			"clearance": "officer",
			"query":     query,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	resp, err := http.Get(f.ts.URL + "/api/v1/audit?limit=10")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, float64(2), body["count"])
}

func TestAuditScan_InvalidLimitIs400(t *testing.T) {
	f := newAPIFixture(t, time.Minute)

	resp, err := http.Get(f.ts.URL + "/api/v1/audit?limit=-3")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestPlan_ExecutesStepsUnderOneCorrelation(t *testing.T) {
	f := newAPIFixture(t, time.Minute)

	resp := f.postJSON(t, "/api/v1/briefing/plan", map[string]any{
		"caller_id": "officer_001",
		"clearance": "officer",
		"operation": "morning briefing",
		"steps": []map[string]string{
			{"source": "policies", "query": "smart nation"},
			{"source": "documents", "query": "town hall"},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)

	steps := body["steps"].([]any)
	require.Len(t, steps, 2)
	correlation := body["correlation_id"].(string)
	for _, raw := range steps {
		step := raw.(map[string]any)
		assert.Equal(t, correlation, step["correlation_id"])
	}
}

func TestMetricsEndpointServes(t *testing.T) {
	f := newAPIFixture(t, time.Minute)

	resp, err := http.Get(f.ts.URL + "/metrics")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
