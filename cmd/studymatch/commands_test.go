package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/kalambet/studymatch/internal/api"
	"github.com/kalambet/studymatch/internal/config"
	"github.com/kalambet/studymatch/internal/matchmaker"
	"github.com/kalambet/studymatch/internal/profile"
	"github.com/kalambet/studymatch/internal/storage"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
	Auth   string
}

type testServer struct {
	server   *httptest.Server
	mu       sync.Mutex
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.mu.Lock()
		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Body:   body.String(),
			Auth:   r.Header.Get("Authorization"),
		})
		ts.mu.Unlock()

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"error":{"message":"not found","type":"not_found"}}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client() *apiClient {
	return &apiClient{
		baseURL:    ts.server.URL,
		token:      "test-token",
		httpClient: ts.server.Client(),
	}
}

// newLiveServer serves the real router over an in-memory store.
func newLiveServer(t *testing.T) (*apiClient, *storage.Store) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	dir := profile.NewDirectory(store)
	matcher, err := matchmaker.New(dir, store, nil, matchmaker.DefaultOptions())
	if err != nil {
		t.Fatalf("matchmaker.New: %v", err)
	}
	srv := httptest.NewServer(api.NewRouter(api.AppDeps{
		Store:     store,
		Directory: dir,
		Matcher:   matcher,
		Token:     "live-token",
	}))
	t.Cleanup(srv.Close)

	return &apiClient{baseURL: srv.URL, token: "live-token", httpClient: srv.Client()}, store
}

// captureOutput redirects command output for the duration of the test.
func captureOutput(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	origOut, origErr, origColor := stdout, stderr, noColor
	stdout, stderr, noColor = &out, &errOut, true
	t.Cleanup(func() { stdout, stderr, noColor = origOut, origErr, origColor })
	return &out, &errOut
}

// useClient makes commands talk to c instead of the configured server.
func useClient(t *testing.T, c *apiClient) {
	t.Helper()
	orig := newAPIClient
	newAPIClient = func() (*apiClient, error) { return c, nil }
	t.Cleanup(func() { newAPIClient = orig })
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	defer rootCmd.SetArgs(nil)
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

var ctx = context.Background()

func TestAPIClient_SendsTokenAndBody(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /students": `{"id":"s-123","name":"Ada"}`,
	})

	created, err := addStudent(ctx, ts.client(), map[string]any{
		"name":     "Ada",
		"email":    "ada@example.com",
		"subjects": []string{"Math"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID != "s-123" {
		t.Errorf("id = %q, want s-123", created.ID)
	}

	if len(ts.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(ts.requests))
	}
	r := ts.requests[0]
	if r.Method != "POST" || r.Path != "/students" {
		t.Errorf("request = %s %s, want POST /students", r.Method, r.Path)
	}
	if r.Auth != "Bearer test-token" {
		t.Errorf("auth = %q, want Bearer test-token", r.Auth)
	}
	var body map[string]any
	if err := json.Unmarshal([]byte(r.Body), &body); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if body["email"] != "ada@example.com" {
		t.Errorf("body.email = %v", body["email"])
	}
}

func TestDecodeJSON_ErrorEnvelope(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := ts.client().get(ctx, "/students/missing")
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}
	err = decodeJSON(resp, &struct{}{})
	apiErr, ok := err.(*apiError)
	if !ok {
		t.Fatalf("expected *apiError, got %T (%v)", err, err)
	}
	if apiErr.Status != 404 || apiErr.Type != "not_found" || apiErr.Message != "not found" {
		t.Errorf("unexpected apiError %+v", apiErr)
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error = %q, want it to contain 404", err.Error())
	}
}

func TestStudentAdd_MissingFlags(t *testing.T) {
	captureOutput(t)

	err := execute(t, "student", "add", "--name", "Ada")
	if err == nil {
		t.Fatal("expected error for missing email")
	}
	if !strings.Contains(err.Error(), "required") {
		t.Errorf("error = %q, want it to mention 'required'", err.Error())
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"  ", nil},
		{"Math", []string{"Math"}},
		{"Math, Physics ,,", []string{"Math", "Physics"}},
	}
	for _, tt := range tests {
		got := splitList(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("splitList(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("splitList(%q) = %v, want %v", tt.in, got, tt.want)
			}
		}
	}
}

func TestSeedThenMatch(t *testing.T) {
	out, _ := captureOutput(t)
	client, store := newLiveServer(t)
	useClient(t, client)

	if err := execute(t, "seed"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	students, err := store.ListStudents(0, 0)
	if err != nil {
		t.Fatalf("ListStudents: %v", err)
	}
	if len(students) != 5 {
		t.Fatalf("expected 5 seeded students, got %d", len(students))
	}
	resources, err := store.ListResources(0)
	if err != nil {
		t.Fatalf("ListResources: %v", err)
	}
	if len(resources) != 5 {
		t.Fatalf("expected 5 seeded resources, got %d", len(resources))
	}

	var ada string
	for _, st := range students {
		if st.Email == "ada@example.com" {
			ada = st.ID
		}
	}
	if err := execute(t, "match", ada); err != nil {
		t.Fatalf("match: %v", err)
	}
	if !strings.Contains(out.String(), "1. ") {
		t.Fatalf("expected at least one ranked partner, got:\n%s", out.String())
	}

	out.Reset()
	if err := execute(t, "recommend", ada); err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if !strings.Contains(out.String(), "Calculus Study Circle") {
		t.Errorf("expected calculus group in recommendations, got:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "Intro to Calculus") {
		t.Errorf("expected calculus resource in recommendations, got:\n%s", out.String())
	}
}

func TestSeed_SkipsExisting(t *testing.T) {
	_, errOut := captureOutput(t)
	client, _ := newLiveServer(t)

	data := seedData{Students: []map[string]any{
		{"name": "Ada", "email": "ada@example.com"},
	}}
	if err := runSeed(ctx, client, data); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if err := runSeed(ctx, client, data); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if !strings.Contains(errOut.String(), "0 created, 1 skipped, 0 failed") {
		t.Errorf("expected second run to skip, got:\n%s", errOut.String())
	}
}

func TestSeed_InvalidRecordFails(t *testing.T) {
	captureOutput(t)
	client, _ := newLiveServer(t)

	err := runSeed(ctx, client, seedData{Resources: []map[string]any{
		{"title": "No URL", "type": "Video"},
	}})
	if err == nil || !strings.Contains(err.Error(), "1 seed records failed") {
		t.Fatalf("expected failure count error, got %v", err)
	}
}

func TestParseSeed(t *testing.T) {
	data, err := parseSeed(defaultSeed)
	if err != nil {
		t.Fatalf("default seed: %v", err)
	}
	if len(data.Students) == 0 || len(data.Groups) == 0 || len(data.Resources) == 0 {
		t.Errorf("default seed should cover every collection: %d/%d/%d", len(data.Students), len(data.Groups), len(data.Resources))
	}

	if _, err := parseSeed([]byte(`{}`)); err == nil {
		t.Error("expected error for empty seed")
	}
	if _, err := parseSeed([]byte(`{`)); err == nil {
		t.Error("expected error for malformed seed")
	}
}

func TestGroupJoinLeave(t *testing.T) {
	_, errOut := captureOutput(t)
	client, store := newLiveServer(t)
	useClient(t, client)

	if err := store.SaveStudent(storage.Student{ID: "s1", Name: "A", Email: "a@example.com"}); err != nil {
		t.Fatalf("SaveStudent: %v", err)
	}
	if err := store.SaveGroup(storage.StudyGroup{ID: "g1", Title: "Algebra", Subject: "Math"}); err != nil {
		t.Fatalf("SaveGroup: %v", err)
	}

	if err := execute(t, "group", "join", "g1", "s1"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if !strings.Contains(errOut.String(), "s1 joined group g1") {
		t.Errorf("unexpected output:\n%s", errOut.String())
	}
	if err := execute(t, "group", "join", "g1", "s1"); err == nil {
		t.Fatal("expected conflict on second join")
	}
	if err := execute(t, "group", "leave", "g1", "s1"); err != nil {
		t.Fatalf("leave: %v", err)
	}
}

func TestMatcherOptions(t *testing.T) {
	cfg := config.Config{
		Matching:  config.MatchingConfig{TopN: 4, MinScore: 0.3, Normalize: "casefold"},
		Recommend: config.RecommendConfig{GroupLimit: 2, GroupMinScore: 0.25, ResourceLimit: 6, ResourceMinScore: 0.05},
	}
	opts := matcherOptions(cfg)

	if opts.Partners.TopN != 4 || opts.Partners.MinScore != 0.3 || opts.Partners.Normalize != "casefold" {
		t.Errorf("partners = %+v", opts.Partners)
	}
	if opts.Groups.TopN != 2 || opts.Groups.MinScore != 0.25 {
		t.Errorf("groups = %+v", opts.Groups)
	}
	if opts.Resources.TopN != 6 || opts.Resources.MinScore != 0.05 {
		t.Errorf("resources = %+v", opts.Resources)
	}
	if err := opts.Validate(); err != nil {
		t.Errorf("options should validate: %v", err)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]string{
		"debug": "DEBUG",
		"warn":  "WARN",
		"error": "ERROR",
		"bogus": "INFO",
	}
	for in, want := range tests {
		if got := parseLogLevel(in).String(); got != want {
			t.Errorf("parseLogLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestScoreBar(t *testing.T) {
	noColor = true
	t.Cleanup(func() { noColor = false })

	got := scoreBar(0.45)
	if !strings.HasSuffix(got, " 0.45") {
		t.Errorf("scoreBar(0.45) = %q", got)
	}
	if strings.Count(got, "█") != 5 {
		t.Errorf("scoreBar(0.45) = %q, want 5 filled cells", got)
	}
	if strings.Count(scoreBar(2), "█") != 10 {
		t.Error("scores above 1 should clamp to a full bar")
	}
}

func TestCountLabel(t *testing.T) {
	tests := []struct {
		count, limit int
		want         string
	}{
		{5, 100, "5"},
		{0, 100, "0"},
		{100, 100, "100+"},
		{150, 100, "150+"},
	}
	for _, tt := range tests {
		got := countLabel(tt.count, tt.limit)
		if got != tt.want {
			t.Errorf("countLabel(%d, %d) = %q, want %q", tt.count, tt.limit, got, tt.want)
		}
	}
}

func TestConfigShowAll(t *testing.T) {
	cfg := config.Config{}
	cfg.Server.Port = 4100

	found := false
	for _, k := range config.ShowAll(cfg) {
		if k.Key == "server.port" && k.Value == "4100" {
			found = true
		}
	}
	if !found {
		t.Error("expected to find server.port=4100 in ShowAll output")
	}
}

func TestRequestSendApprove(t *testing.T) {
	out, errOut := captureOutput(t)
	client, store := newLiveServer(t)
	useClient(t, client)

	for _, st := range []storage.Student{
		{ID: "s1", Name: "Ada", Email: "ada@example.com"},
		{ID: "s2", Name: "Bo", Email: "bo@example.com"},
	} {
		if err := store.SaveStudent(st); err != nil {
			t.Fatalf("SaveStudent: %v", err)
		}
	}

	if err := execute(t, "request", "send", "s1", "s2"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.Contains(errOut.String(), "to Bo") {
		t.Errorf("unexpected output:\n%s", errOut.String())
	}
	if err := execute(t, "request", "send", "s1", "s2"); err == nil {
		t.Fatal("expected conflict on duplicate request")
	}

	if err := execute(t, "request", "list", "s2"); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out.String(), "from Ada") {
		t.Errorf("expected pending request from Ada:\n%s", out.String())
	}

	pending, err := store.PendingPartnerRequests("s2")
	if err != nil || len(pending) != 1 {
		t.Fatalf("PendingPartnerRequests = %v, %v", pending, err)
	}
	if err := execute(t, "request", "approve", pending[0].ID, "s1"); err == nil {
		t.Fatal("sender must not be able to approve")
	}
	if err := execute(t, "request", "approve", pending[0].ID, "s2"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if !strings.Contains(errOut.String(), "Request from Ada approved") {
		t.Errorf("unexpected output:\n%s", errOut.String())
	}
}

func TestGroupRateAndAvailability(t *testing.T) {
	out, errOut := captureOutput(t)
	client, store := newLiveServer(t)
	useClient(t, client)

	for _, st := range []storage.Student{
		{ID: "s1", Name: "Ada", Email: "ada@example.com", PreferredStudyTimes: []string{"Monday 18:00-20:00"}},
		{ID: "s2", Name: "Bo", Email: "bo@example.com", PreferredStudyTimes: []string{"Monday 19:00-21:00"}},
	} {
		if err := store.SaveStudent(st); err != nil {
			t.Fatalf("SaveStudent: %v", err)
		}
	}
	if err := store.SaveGroup(storage.StudyGroup{ID: "g1", Title: "Algebra", Subject: "Math"}); err != nil {
		t.Fatalf("SaveGroup: %v", err)
	}
	for _, id := range []string{"s1", "s2"} {
		if err := store.JoinGroup("g1", id); err != nil {
			t.Fatalf("JoinGroup: %v", err)
		}
	}

	if err := execute(t, "group", "rate", "g1", "s1", "4", "--comments", "good pace"); err != nil {
		t.Fatalf("rate: %v", err)
	}
	if !strings.Contains(errOut.String(), "s1 rated group g1 4/5") {
		t.Errorf("unexpected output:\n%s", errOut.String())
	}
	if err := execute(t, "group", "rate", "g1", "s1", "9"); err == nil {
		t.Fatal("expected error for rating out of range")
	}

	if err := execute(t, "group", "availability", "g1"); err != nil {
		t.Fatalf("availability: %v", err)
	}
	if !strings.Contains(out.String(), "Monday    19:00-20:00  Ada, Bo") {
		t.Errorf("unexpected availability output:\n%s", out.String())
	}
}

func TestQueueLabel(t *testing.T) {
	got := queueLabel(map[string]int{storage.QueueDead: 1, storage.QueueQueued: 2})
	if got != "2 queued, 1 dead" {
		t.Errorf("queueLabel = %q", got)
	}
}

func TestConfigSetUnset(t *testing.T) {
	if runtime.GOOS == "darwin" {
		t.Skip("writes the user defaults database on macOS")
	}
	captureOutput(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("STUDYMATCH_MATCHING_TOP_N", "")

	if err := execute(t, "config", "set", "matching.top_n", "9"); err != nil {
		t.Fatalf("set: %v", err)
	}
	cfg, err := config.Load()
	if err != nil || cfg.Matching.TopN != 9 {
		t.Fatalf("after set: TopN = %d, err = %v", cfg.Matching.TopN, err)
	}

	if err := execute(t, "config", "unset", "matching.top_n"); err != nil {
		t.Fatalf("unset: %v", err)
	}
	cfg, err = config.Load()
	if err != nil || cfg.Matching.TopN != 3 {
		t.Fatalf("after unset: TopN = %d, err = %v", cfg.Matching.TopN, err)
	}

	if err := execute(t, "config", "unset", "no.such.key"); err == nil {
		t.Fatal("expected error for unknown key")
	}
}
