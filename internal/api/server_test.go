package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/pitwall/internal/appstate"
	"github.com/verte-zerg/pitwall/internal/engineer"
	"github.com/verte-zerg/pitwall/internal/model"
	"github.com/verte-zerg/pitwall/internal/setup"
	"github.com/verte-zerg/pitwall/internal/store"
)

type testServer struct {
	handler http.Handler
	state   *appstate.State
	store   *store.Store
}

func newTestServer(t *testing.T, eng Engineer) *testServer {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if cerr := st.Close(); cerr != nil {
			t.Errorf("close store: %v", cerr)
		}
	})
	state := appstate.New(st, appstate.WithNotFound(func(err error) bool {
		return errors.Is(err, store.ErrNotFound)
	}))
	rec, err := setup.NewDefault()
	if err != nil {
		t.Fatalf("recommender: %v", err)
	}
	if eng == nil {
		eng, err = engineer.NewDefault()
		if err != nil {
			t.Fatalf("engineer: %v", err)
		}
	}
	srv := NewServer(rec, eng, state, st, zerolog.Nop())
	return &testServer{handler: srv.Routes(), state: state, store: st}
}

func (ts *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	var out map[string]any
	if strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return rec, out
}

func TestIndex(t *testing.T) {
	ts := newTestServer(t, nil)
	rec, body := ts.do(t, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK || body["status"] != "OK" {
		t.Fatalf("unexpected index response %d %v", rec.Code, body)
	}
	endpoints, ok := body["endpoints"].(map[string]any)
	if !ok || endpoints["recommendations"] != "POST /result" {
		t.Fatalf("unexpected endpoints %v", body["endpoints"])
	}
}

func TestTracks(t *testing.T) {
	ts := newTestServer(t, nil)
	rec, _ := ts.do(t, http.MethodGet, "/tracks", "")
	var tracks []string
	if err := json.Unmarshal(rec.Body.Bytes(), &tracks); err != nil {
		t.Fatalf("decode tracks: %v", err)
	}
	if len(tracks) != 28 || tracks[0] != "Bahrain" || tracks[27] != "Suzuka" {
		t.Fatalf("unexpected tracks %v", tracks)
	}
}

func TestResultRecordsHistory(t *testing.T) {
	ts := newTestServer(t, nil)
	rec, body := ts.do(t, http.MethodPost, "/result", `{"trackName":"Monza","weather":"Dry"}`)
	if rec.Code != http.StatusOK || body["success"] != true {
		t.Fatalf("unexpected response %d %v", rec.Code, body)
	}
	if body["trackName"] != "Monza" || body["historyId"] == "" {
		t.Fatalf("missing fields in %v", body)
	}
	details, ok := body["setupDetails"].(map[string]any)
	if !ok || details["downforce"] == "" {
		t.Fatalf("missing setup details in %v", body)
	}
	history := ts.state.History(0)
	if len(history) != 1 || history[0].ID != body["historyId"] {
		t.Fatalf("expected history entry for %v, got %+v", body["historyId"], history)
	}
}

func TestResultRequiresFields(t *testing.T) {
	ts := newTestServer(t, nil)
	rec, body := ts.do(t, http.MethodPost, "/result", `{"trackName":"Monza"}`)
	want := map[string]any{"success": false, "error": "Track name and weather are required"}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if diff := cmp.Diff(want, body); diff != "" {
		t.Fatalf("unexpected body (-want +got):\n%s", diff)
	}
}

func TestInvalidJSON(t *testing.T) {
	ts := newTestServer(t, nil)
	rec, body := ts.do(t, http.MethodPost, "/ask-engineer", `{"message":`)
	if rec.Code != http.StatusBadRequest || body["success"] != false {
		t.Fatalf("expected 400 JSON error, got %d %v", rec.Code, body)
	}
}

func TestAskEngineer(t *testing.T) {
	ts := newTestServer(t, nil)
	rec, body := ts.do(t, http.MethodPost, "/ask-engineer", `{"message":"What tire pressure should I run?"}`)
	if rec.Code != http.StatusOK || body["success"] != true {
		t.Fatalf("unexpected response %d %v", rec.Code, body)
	}
	if reply, _ := body["reply"].(string); !strings.Contains(reply, "Tire Pressure Guide") {
		t.Fatalf("unexpected reply %q", reply)
	}

	rec, body = ts.do(t, http.MethodPost, "/ask-engineer", `{"message":""}`)
	if rec.Code != http.StatusBadRequest || body["error"] != "Message is required" {
		t.Fatalf("expected missing message error, got %d %v", rec.Code, body)
	}
}

func TestHistoryListAndDelete(t *testing.T) {
	ts := newTestServer(t, nil)
	ctx := context.Background()
	var ids []string
	for _, track := range []string{"Monaco", "Spa", "Suzuka"} {
		entry, err := ts.state.RecordSetup(ctx, track, "Dry")
		if err != nil {
			t.Fatalf("record: %v", err)
		}
		ids = append(ids, entry.ID)
		time.Sleep(time.Millisecond)
	}

	rec, body := ts.do(t, http.MethodGet, "/history?limit=2", "")
	history, _ := body["history"].([]any)
	if rec.Code != http.StatusOK || len(history) != 2 {
		t.Fatalf("expected two entries, got %d %v", rec.Code, body)
	}
	first, _ := history[0].(map[string]any)
	if first["trackName"] != "Suzuka" {
		t.Fatalf("expected newest first, got %v", first)
	}

	rec, _ = ts.do(t, http.MethodGet, "/history?limit=abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rec.Code)
	}

	rec, body = ts.do(t, http.MethodDelete, "/history/"+ids[0], "")
	if rec.Code != http.StatusOK || body["success"] != true {
		t.Fatalf("unexpected delete response %d %v", rec.Code, body)
	}
	rec, body = ts.do(t, http.MethodDelete, "/history/"+ids[0], "")
	if rec.Code != http.StatusNotFound || body["error"] != "History entry not found" {
		t.Fatalf("expected 404, got %d %v", rec.Code, body)
	}
}

func TestFlags(t *testing.T) {
	ts := newTestServer(t, nil)
	rec, body := ts.do(t, http.MethodGet, "/flags/"+appstate.FlagAIRecommender, "")
	if rec.Code != http.StatusOK || body["enabled"] != false {
		t.Fatalf("expected disabled flag, got %d %v", rec.Code, body)
	}
	rec, body = ts.do(t, http.MethodPut, "/flags/"+appstate.FlagAIRecommender, `{"enabled":true}`)
	if rec.Code != http.StatusOK || body["enabled"] != true {
		t.Fatalf("expected enabled flag, got %d %v", rec.Code, body)
	}
	flags, err := ts.store.ListFlags(context.Background())
	if err != nil {
		t.Fatalf("list flags: %v", err)
	}
	if !flags[appstate.FlagAIRecommender] {
		t.Fatalf("expected flag to be persisted")
	}
	rec, _ = ts.do(t, http.MethodPut, "/flags/"+appstate.FlagAIRecommender, `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without enabled, got %d", rec.Code)
	}
}

func TestAnalysisSetsFlag(t *testing.T) {
	ts := newTestServer(t, nil)
	rec, body := ts.do(t, http.MethodGet, "/analysis?track=Monaco&weather=Rainy", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d %v", rec.Code, body)
	}
	if text, _ := body["analysis"].(string); !strings.HasPrefix(text, "AI Analysis for Monaco (Rainy Conditions): ") {
		t.Fatalf("unexpected analysis %q", text)
	}
	if !ts.state.Flag(appstate.FlagAIRecommender) {
		t.Fatalf("expected analysis to unlock the AI recommender")
	}

	rec, _ = ts.do(t, http.MethodGet, "/analysis?track=Monaco&weather=Snow", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown weather, got %d", rec.Code)
	}
	rec, _ = ts.do(t, http.MethodGet, "/analysis?weather=Dry", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without track, got %d", rec.Code)
	}
}

func TestPitRunsBestFirst(t *testing.T) {
	ts := newTestServer(t, nil)
	ctx := context.Background()
	base := time.Date(2025, 4, 6, 12, 0, 0, 0, time.UTC)
	for i, score := range []int{150, 420, 300} {
		run := model.PitRun{
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			EndedAt:   base.Add(time.Duration(i)*time.Minute + 30*time.Second),
			Score:     score, Attempts: 6, Hits: 4, Accuracy: 67, Medal: "Rookie",
		}
		if _, err := ts.store.InsertRun(ctx, run); err != nil {
			t.Fatalf("insert run: %v", err)
		}
	}
	rec, body := ts.do(t, http.MethodGet, "/pit/runs?limit=2", "")
	runs, _ := body["runs"].([]any)
	if rec.Code != http.StatusOK || len(runs) != 2 {
		t.Fatalf("expected two runs, got %d %v", rec.Code, body)
	}
	best, _ := runs[0].(map[string]any)
	if best["score"] != float64(420) {
		t.Fatalf("expected best run first, got %v", best)
	}
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t, nil)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/nope"},
		{http.MethodPatch, "/tracks"},
	} {
		rec, body := ts.do(t, tc.method, tc.path, "")
		if rec.Code != http.StatusNotFound || body["error"] != "Endpoint not found" {
			t.Fatalf("%s %s: expected 404 JSON, got %d %v", tc.method, tc.path, rec.Code, body)
		}
	}
}

type panicEngineer struct{}

func (panicEngineer) Reply(string) string { panic("radio failure") }

func TestPanicBecomesJSON500(t *testing.T) {
	ts := newTestServer(t, panicEngineer{})
	rec, body := ts.do(t, http.MethodPost, "/ask-engineer", `{"message":"hello"}`)
	want := map[string]any{"success": false, "error": "Internal server error"}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if diff := cmp.Diff(want, body); diff != "" {
		t.Fatalf("unexpected body (-want +got):\n%s", diff)
	}
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/result", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected allow origin *, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, http.MethodPost) {
		t.Fatalf("unexpected allow methods %q", got)
	}
}
