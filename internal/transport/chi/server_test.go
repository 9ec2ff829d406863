package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chirouter "github.com/go-chi/chi/v5"

	"github.com/kirei-app/kirei/internal/domain"
	"github.com/kirei-app/kirei/internal/health"
	"github.com/kirei-app/kirei/internal/store"
)

// --- Mocks ---

type mockRecords struct {
	records []domain.Record

	filterRegion   string
	filterCategory string
	filterRating   float64
	topN           int
}

func (m *mockRecords) Filter(region, category string, minRating float64) []domain.Record {
	m.filterRegion, m.filterCategory, m.filterRating = region, category, minRating
	return m.records
}

func (m *mockRecords) TopRated(n int) []domain.Record {
	m.topN = n
	if n > len(m.records) {
		n = len(m.records)
	}
	return m.records[:n]
}

func (m *mockRecords) Statistics() store.Stats {
	return store.Stats{Total: len(m.records), AverageRating: 4.5}
}

type mockChat struct {
	reply         string
	results       []domain.Record
	turns         []domain.Turn
	lastMessage   string
	lastQuery     string
	lastHistoryID string
}

func (m *mockChat) Chat(_ context.Context, message, sessionID string) (string, string) {
	m.lastMessage = message
	if sessionID == "" {
		sessionID = "minted-session"
	}
	return sessionID, m.reply
}

func (m *mockChat) Search(_ context.Context, query, sessionID string) (string, []domain.Record) {
	m.lastQuery = query
	if sessionID == "" {
		sessionID = "minted-session"
	}
	return sessionID, m.results
}

func (m *mockChat) History(sessionID string) []domain.Turn {
	m.lastHistoryID = sessionID
	return m.turns
}

type mockHealth struct {
	report health.Report
}

func (m *mockHealth) Check(_ context.Context) health.Report { return m.report }

type mockReindexer struct {
	err    error
	called bool
}

func (m *mockReindexer) Rebuild(_ context.Context) error {
	m.called = true
	return m.err
}

// --- Helpers ---

func testRecords() []domain.Record {
	return []domain.Record{
		{ID: "t1", Name: "Shibuya Salon", Region: "tokyo", Category: "salon", Rating: 4.5},
		{ID: "t2", Name: "Namba Nails", Region: "osaka", Category: "nail", Rating: 4.8},
	}
}

func newTestServer(t *testing.T, records RecordSource, chat ChatService, healthSvc HealthService, reindexer Reindexer) *httptest.Server {
	t.Helper()
	srv := NewServer(records, chat, healthSvc, reindexer, nil)
	r := chirouter.NewRouter()
	srv.Register(r)
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// --- Tests ---

func TestRoot(t *testing.T) {
	ts := newTestServer(t, &mockRecords{}, &mockChat{}, &mockHealth{}, nil)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var body struct {
		Name      string   `json:"name"`
		Endpoints []string `json:"endpoints"`
	}
	decodeBody(t, resp, &body)

	if body.Name != "kirei" {
		t.Errorf("unexpected name: %q", body.Name)
	}
	if len(body.Endpoints) == 0 {
		t.Error("expected endpoint listing")
	}
}

func TestHealth_OK(t *testing.T) {
	h := &mockHealth{report: health.Report{
		Status: health.Healthy,
		Checks: map[string]health.CheckResult{"database": health.CheckOK},
	}}
	ts := newTestServer(t, &mockRecords{}, &mockChat{}, h, nil)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestHealth_Degraded503(t *testing.T) {
	h := &mockHealth{report: health.Report{
		Status: health.Degraded,
		Checks: map[string]health.CheckResult{"backend": health.CheckError},
	}}
	ts := newTestServer(t, &mockRecords{}, &mockChat{}, h, nil)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
}

func TestChat(t *testing.T) {
	chat := &mockChat{reply: "Here are some salons."}
	ts := newTestServer(t, &mockRecords{}, chat, &mockHealth{}, nil)

	resp, err := http.Post(ts.URL+"/api/chat", "application/json",
		strings.NewReader(`{"message":"find a salon"}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var body chatResponse
	decodeBody(t, resp, &body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body.SessionID != "minted-session" {
		t.Errorf("expected minted session id, got %q", body.SessionID)
	}
	if body.Reply != "Here are some salons." {
		t.Errorf("unexpected reply: %q", body.Reply)
	}
	if chat.lastMessage != "find a salon" {
		t.Errorf("message not forwarded: %q", chat.lastMessage)
	}
}

func TestChat_EmptyMessage400(t *testing.T) {
	ts := newTestServer(t, &mockRecords{}, &mockChat{}, &mockHealth{}, nil)

	resp, err := http.Post(ts.URL+"/api/chat", "application/json",
		strings.NewReader(`{"message":"   "}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var body struct {
		Code string `json:"code"`
	}
	decodeBody(t, resp, &body)

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
	if body.Code != "invalid_query" {
		t.Errorf("expected invalid_query code, got %q", body.Code)
	}
}

func TestChat_MalformedBody400(t *testing.T) {
	ts := newTestServer(t, &mockRecords{}, &mockChat{}, &mockHealth{}, nil)

	resp, err := http.Post(ts.URL+"/api/chat", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestHistory(t *testing.T) {
	chat := &mockChat{turns: []domain.Turn{
		{Role: domain.RoleUser, Content: "hello"},
		{Role: domain.RoleAssistant, Content: "hi there"},
	}}
	ts := newTestServer(t, &mockRecords{}, chat, &mockHealth{}, nil)

	resp, err := http.Get(ts.URL + "/api/history?session_id=s1")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var body struct {
		SessionID string        `json:"session_id"`
		Total     int           `json:"total"`
		Turns     []domain.Turn `json:"turns"`
	}
	decodeBody(t, resp, &body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if chat.lastHistoryID != "s1" {
		t.Errorf("session id not forwarded: %q", chat.lastHistoryID)
	}
	if body.Total != 2 || len(body.Turns) != 2 {
		t.Errorf("unexpected body: total=%d turns=%d", body.Total, len(body.Turns))
	}
	if body.Turns[1].Role != domain.RoleAssistant {
		t.Errorf("unexpected second turn: %+v", body.Turns[1])
	}
}

func TestHistory_MissingSession400(t *testing.T) {
	ts := newTestServer(t, &mockRecords{}, &mockChat{}, &mockHealth{}, nil)

	resp, err := http.Get(ts.URL + "/api/history")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var body struct {
		Code string `json:"code"`
	}
	decodeBody(t, resp, &body)

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
	if body.Code != "invalid_query" {
		t.Errorf("expected invalid_query code, got %q", body.Code)
	}
}

func TestHistory_EmptySessionIsArray(t *testing.T) {
	ts := newTestServer(t, &mockRecords{}, &mockChat{}, &mockHealth{}, nil)

	resp, err := http.Get(ts.URL + "/api/history?session_id=fresh")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var body struct {
		Turns json.RawMessage `json:"turns"`
	}
	decodeBody(t, resp, &body)

	if strings.TrimSpace(string(body.Turns)) != "[]" {
		t.Errorf("expected empty JSON array, got %s", body.Turns)
	}
}

func TestListRecords_ForwardsFilters(t *testing.T) {
	records := &mockRecords{records: testRecords()}
	ts := newTestServer(t, records, &mockChat{}, &mockHealth{}, nil)

	resp, err := http.Get(ts.URL + "/api/records?region=tokyo&category=salon&min_rating=4.0")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var body struct {
		Total int             `json:"total"`
		Items []domain.Record `json:"items"`
	}
	decodeBody(t, resp, &body)

	if records.filterRegion != "tokyo" || records.filterCategory != "salon" || records.filterRating != 4.0 {
		t.Errorf("filters not forwarded: %q %q %v",
			records.filterRegion, records.filterCategory, records.filterRating)
	}
	if body.Total != 2 || len(body.Items) != 2 {
		t.Errorf("unexpected body: total=%d items=%d", body.Total, len(body.Items))
	}
}

func TestListRecords_BadRating400(t *testing.T) {
	ts := newTestServer(t, &mockRecords{}, &mockChat{}, &mockHealth{}, nil)

	resp, err := http.Get(ts.URL + "/api/records?min_rating=eleven")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestSearchRecords(t *testing.T) {
	chat := &mockChat{results: testRecords()}
	ts := newTestServer(t, &mockRecords{}, chat, &mockHealth{}, nil)

	resp, err := http.Get(ts.URL + "/api/records/search?q=hair+salon")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var body struct {
		SessionID string          `json:"session_id"`
		Total     int             `json:"total"`
		Items     []domain.Record `json:"items"`
	}
	decodeBody(t, resp, &body)

	if chat.lastQuery != "hair salon" {
		t.Errorf("query not forwarded: %q", chat.lastQuery)
	}
	if body.Total != 2 {
		t.Errorf("expected 2 results, got %d", body.Total)
	}
	if body.SessionID == "" {
		t.Error("expected session id in response")
	}
}

func TestSearchRecords_MissingQuery400(t *testing.T) {
	ts := newTestServer(t, &mockRecords{}, &mockChat{}, &mockHealth{}, nil)

	resp, err := http.Get(ts.URL + "/api/records/search")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var body struct {
		Code string `json:"code"`
	}
	decodeBody(t, resp, &body)

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
	if body.Code != "invalid_query" {
		t.Errorf("expected invalid_query code, got %q", body.Code)
	}
}

func TestSearchRecords_EmptyResultIsArray(t *testing.T) {
	ts := newTestServer(t, &mockRecords{}, &mockChat{}, &mockHealth{}, nil)

	resp, err := http.Get(ts.URL + "/api/records/search?q=nothing")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var body struct {
		Items json.RawMessage `json:"items"`
	}
	decodeBody(t, resp, &body)

	if strings.TrimSpace(string(body.Items)) != "[]" {
		t.Errorf("expected empty JSON array, got %s", body.Items)
	}
}

func TestTopRecords_DefaultCount(t *testing.T) {
	records := &mockRecords{records: testRecords()}
	ts := newTestServer(t, records, &mockChat{}, &mockHealth{}, nil)

	resp, err := http.Get(ts.URL + "/api/records/top")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if records.topN != defaultTopCount {
		t.Errorf("expected default n=%d, got %d", defaultTopCount, records.topN)
	}
}

func TestTopRecords_BadCount400(t *testing.T) {
	ts := newTestServer(t, &mockRecords{}, &mockChat{}, &mockHealth{}, nil)

	resp, err := http.Get(ts.URL + "/api/records/top?n=0")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestStats(t *testing.T) {
	records := &mockRecords{records: testRecords()}
	ts := newTestServer(t, records, &mockChat{}, &mockHealth{}, nil)

	resp, err := http.Get(ts.URL + "/api/stats")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var stats store.Stats
	decodeBody(t, resp, &stats)

	if stats.Total != 2 {
		t.Errorf("expected total 2, got %d", stats.Total)
	}
	if stats.AverageRating != 4.5 {
		t.Errorf("expected average 4.5, got %v", stats.AverageRating)
	}
}

func TestReindex(t *testing.T) {
	reindexer := &mockReindexer{}
	ts := newTestServer(t, &mockRecords{}, &mockChat{}, &mockHealth{}, reindexer)

	resp, err := http.Post(ts.URL+"/api/reindex", "application/json", http.NoBody)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if !reindexer.called {
		t.Error("expected Rebuild to be called")
	}
}

func TestReindex_NotConfigured503(t *testing.T) {
	ts := newTestServer(t, &mockRecords{}, &mockChat{}, &mockHealth{}, nil)

	resp, err := http.Post(ts.URL+"/api/reindex", "application/json", http.NoBody)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
}

func TestReindex_BackendErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"unavailable", domain.ErrBackendUnavailable, http.StatusServiceUnavailable},
		{"call failed", domain.ErrBackendCallFailed, http.StatusBadGateway},
		{"internal", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reindexer := &mockReindexer{err: tc.err}
			ts := newTestServer(t, &mockRecords{}, &mockChat{}, &mockHealth{}, reindexer)

			resp, err := http.Post(ts.URL+"/api/reindex", "application/json", http.NoBody)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			resp.Body.Close()

			if resp.StatusCode != tc.want {
				t.Errorf("expected %d, got %d", tc.want, resp.StatusCode)
			}
		})
	}
}
