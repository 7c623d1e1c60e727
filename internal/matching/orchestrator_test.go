package matching

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"winelens/internal/matchindex"
	"winelens/internal/search"
	"winelens/internal/services"
	"winelens/internal/testsupport"
	"winelens/internal/wine"
)

func newIndex(t *testing.T) *matchindex.Index {
	t.Helper()
	ix := matchindex.New("", nil)
	ix.Upsert(testsupport.SampleRecords()...)
	return ix
}

func TestMatchWineExactTier(t *testing.T) {
	orch := New(newIndex(t), nil, DefaultPolicy(), nil)

	got := orch.MatchWine(context.Background(), "Ch. Margaux 2015 $185")
	if got == nil {
		t.Fatal("expected a match")
	}
	if got.Tier != wine.TierExact || got.Record.ID != "margaux-2015" {
		t.Fatalf("unexpected result: tier=%s record=%s", got.Tier, got.Record.ID)
	}
	if math.Abs(got.Confidence-0.98) > 1e-9 {
		t.Fatalf("confidence = %v", got.Confidence)
	}
	if got.MatchedVintage == nil || *got.MatchedVintage != 2015 {
		t.Fatalf("matched vintage = %v", got.MatchedVintage)
	}
}

func TestMatchWineFuzzyLocalTier(t *testing.T) {
	orch := New(newIndex(t), nil, DefaultPolicy(), nil)

	got := orch.MatchWine(context.Background(), "Chateau Mragaux 2015")
	if got == nil {
		t.Fatal("expected a fuzzy match")
	}
	if got.Tier != wine.TierFuzzyLocal || got.Record.ID != "margaux-2015" {
		t.Fatalf("unexpected result: tier=%s record=%s", got.Tier, got.Record.ID)
	}
	if got.Confidence < 0.7 {
		t.Fatalf("confidence = %v", got.Confidence)
	}
}

func TestMatchWineRejectsOtherVintageLocally(t *testing.T) {
	orch := New(newIndex(t), nil, DefaultPolicy(), nil)

	if got := orch.MatchWine(context.Background(), "Chateau Margaux 2009 $200"); got != nil {
		t.Fatalf("2009 row matched the 2015 record: tier=%s record=%s vintage=%v",
			got.Tier, got.Record.ID, got.MatchedVintage)
	}
}

func TestMatchWineOtherVintageFallsThroughToRemote(t *testing.T) {
	margaux09 := wine.Record{ID: "margaux-2009", Producer: "Château Margaux", Name: "Château Margaux", Vintage: intPtr(2009)}
	stub := &testsupport.StubSearcher{Hits: map[string][]search.Hit{
		"Chateau Margaux": {{Record: margaux09, Confidence: 0.93}},
	}}
	orch := New(newIndex(t), stub, DefaultPolicy(), nil)

	got := orch.MatchWine(context.Background(), "Chateau Margaux 2009 $200")
	if got == nil || got.Record.ID != "margaux-2009" || got.Tier != wine.TierFuzzyRemote {
		t.Fatalf("unexpected result %+v", got)
	}
	if got.MatchedVintage == nil || *got.MatchedVintage != 2009 {
		t.Fatalf("matched vintage = %v", got.MatchedVintage)
	}
}

func TestMatchWineNonVintageRecordReportsParsedVintage(t *testing.T) {
	orch := New(newIndex(t), nil, DefaultPolicy(), nil)

	got := orch.MatchWine(context.Background(), "Krug Grande Cuvee 2008")
	if got == nil || got.Record.ID != "krug-gc" || got.Tier != wine.TierFuzzyLocal {
		t.Fatalf("unexpected result %+v", got)
	}
	if got.MatchedVintage == nil || *got.MatchedVintage != 2008 {
		t.Fatalf("matched vintage = %v", got.MatchedVintage)
	}
}

func TestMatchWineListRowsResolveExactly(t *testing.T) {
	orch := New(newIndex(t), nil, DefaultPolicy(), nil)

	tests := []struct {
		text string
		id   string
	}{
		{"Krug Grande Cuvee NV $300", "krug-gc"},
		{"Opus One 2018 420", "opus-one-2018"},
		{"Ch. Margaux 2015 185", "margaux-2015"},
	}
	for _, tc := range tests {
		got := orch.MatchWine(context.Background(), tc.text)
		if got == nil || got.Record.ID != tc.id || got.Tier != wine.TierExact {
			t.Errorf("%q = %+v, want exact %s", tc.text, got, tc.id)
		}
	}
}

func TestMatchWineNonVintageMarkerSkipsVintageRecords(t *testing.T) {
	orch := New(newIndex(t), nil, DefaultPolicy(), nil)

	if got := orch.MatchWine(context.Background(), "Opus One NV"); got != nil {
		t.Fatalf("NV row matched a vintage record: %+v", got.Record)
	}
}

func TestMatchWineMultiLineCandidateWithRegion(t *testing.T) {
	orch := New(newIndex(t), nil, DefaultPolicy(), nil)

	tests := []struct {
		text string
		id   string
	}{
		{"Ridge Monte Bello Santa Cruz Mountains 2016", "ridge-mb-2016"},
		{"Opus One Napa Valley 2018 $420", "opus-one-2018"},
	}
	for _, tc := range tests {
		got := orch.MatchWine(context.Background(), tc.text)
		if got == nil || got.Record.ID != tc.id {
			t.Errorf("%q = %+v, want %s", tc.text, got, tc.id)
			continue
		}
		if got.Tier != wine.TierFuzzyLocal || got.Confidence < 0.7 {
			t.Errorf("%q: tier=%s confidence=%v", tc.text, got.Tier, got.Confidence)
		}
	}
}

func TestMatchWineRemoteWritesThrough(t *testing.T) {
	ix := newIndex(t)
	eagle := wine.Record{ID: "se-cab", Producer: "Screaming Eagle", Name: "Cabernet", Region: "Napa Valley"}
	stub := &testsupport.StubSearcher{Hits: map[string][]search.Hit{
		"Screaming Eagle Cabernet": {{Record: eagle, Confidence: 0.9}},
	}}
	orch := New(ix, stub, DefaultPolicy(), nil)

	first := orch.MatchWine(context.Background(), "Screaming Eagle Cabernet")
	if first == nil || first.Tier != wine.TierFuzzyRemote || first.Record.ID != "se-cab" {
		t.Fatalf("first lookup = %+v", first)
	}
	second := orch.MatchWine(context.Background(), "Screaming Eagle Cabernet")
	if second == nil || second.Tier != wine.TierExact {
		t.Fatalf("second lookup should resolve locally, got %+v", second)
	}
	if n := len(stub.Queries()); n != 1 {
		t.Fatalf("expected one remote query, got %d", n)
	}
}

func TestMatchWineRemoteBelowThreshold(t *testing.T) {
	ix := newIndex(t)
	stub := &testsupport.StubSearcher{Hits: map[string][]search.Hit{
		"Mystery Red": {{Record: wine.Record{ID: "m1", Producer: "Mystery", Name: "Red"}, Confidence: 0.6}},
	}}
	orch := New(ix, stub, DefaultPolicy(), nil)

	if got := orch.MatchWine(context.Background(), "Mystery Red"); got != nil {
		t.Fatalf("expected no match, got %+v", got)
	}
	if _, ok := ix.Get("m1"); ok {
		t.Fatal("rejected hit must not be cached")
	}
}

func TestMatchWineRemoteErrorDegradesAndLogs(t *testing.T) {
	logger, buf := testsupport.CaptureLogger(t)
	stub := &testsupport.StubSearcher{Err: services.Wrap(services.ErrTransient, "search", "search", "boom", errors.New("connection refused"))}
	orch := New(newIndex(t), stub, DefaultPolicy(), logger)

	if got := orch.MatchWine(context.Background(), "Unknown Bottling"); got != nil {
		t.Fatalf("expected no match, got %+v", got)
	}
	if !buf.Contains("remote_search_failed") {
		t.Fatalf("expected warning to be logged, got %q", buf.String())
	}
}

func TestMatchWineSupersededIsSilent(t *testing.T) {
	logger, buf := testsupport.CaptureLogger(t)
	stub := &testsupport.StubSearcher{Block: true}
	orch := New(newIndex(t), stub, DefaultPolicy(), logger)

	ctx, cancel := context.WithCancelCause(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel(services.ErrSuperseded)
	}()

	if got := orch.MatchWine(ctx, "Unknown Bottling"); got != nil {
		t.Fatalf("expected absent result, got %+v", got)
	}
	if out := buf.String(); out != "" {
		t.Fatalf("superseded cancellation produced log output: %q", out)
	}
}

func TestBatchMatchMixesTiers(t *testing.T) {
	ix := newIndex(t)
	sassicaia := wine.Record{ID: "sass-19", Producer: "Tenuta San Guido", Name: "Sassicaia", Vintage: intPtr(2019)}
	stub := &testsupport.StubSearcher{Batch: map[string]search.Hit{
		"Sassicaia 2019": {Record: sassicaia, Confidence: 0.67},
	}}
	orch := New(ix, stub, DefaultPolicy(), nil)

	texts := []string{"Ch. Margaux 2015 $185", "Sassicaia 2019", "Unknown Thing 2001", "Sassicaia 2019"}
	got := orch.BatchMatch(context.Background(), texts)
	if len(got) != 3 {
		t.Fatalf("expected 3 distinct keys, got %d", len(got))
	}
	if r := got["Ch. Margaux 2015 $185"]; r == nil || r.Tier != wine.TierExact {
		t.Fatalf("margaux = %+v", r)
	}
	if r := got["Sassicaia 2019"]; r == nil || r.Tier != wine.TierFuzzyRemote || r.Record.ID != "sass-19" {
		t.Fatalf("sassicaia = %+v", r)
	}
	if r, ok := got["Unknown Thing 2001"]; !ok || r != nil {
		t.Fatalf("unknown should map to nil, got %+v (present=%v)", r, ok)
	}
	calls := stub.BatchCalls()
	if len(calls) != 1 || len(calls[0]) != 2 {
		t.Fatalf("unexpected batch calls: %v", calls)
	}
	if _, ok := ix.Get("sass-19"); !ok {
		t.Fatal("accepted batch hit not written through")
	}
}

func TestBatchMatchRejectsBelowDiscountedThreshold(t *testing.T) {
	stub := &testsupport.StubSearcher{Batch: map[string]search.Hit{
		"Obscure Cuvée": {Record: wine.Record{ID: "o1", Producer: "Obscure", Name: "Cuvée"}, Confidence: 0.6},
	}}
	orch := New(newIndex(t), stub, DefaultPolicy(), nil)
	got := orch.BatchMatch(context.Background(), []string{"Obscure Cuvée"})
	if got["Obscure Cuvée"] != nil {
		t.Fatalf("expected rejection, got %+v", got["Obscure Cuvée"])
	}
}

func TestMatchRemoteBatchGroupsByBatchSize(t *testing.T) {
	stub := &testsupport.StubSearcher{}
	policy := DefaultPolicy()
	policy.BatchSize = 2
	orch := New(newIndex(t), stub, policy, nil)

	pending := []Parsed{Parse("Alpha Red"), Parse("Bravo White"), Parse("Charlie Rosé"), Parse("Delta Brut"), Parse("Echo Port")}
	got := orch.MatchRemoteBatch(context.Background(), pending)
	if len(got) != len(pending) {
		t.Fatalf("expected every candidate keyed, got %d", len(got))
	}
	if calls := stub.BatchCalls(); len(calls) != 3 {
		t.Fatalf("expected 3 batch calls, got %d", len(calls))
	}
}

func TestNilSearcherSkipsRemoteTiers(t *testing.T) {
	orch := New(newIndex(t), nil, DefaultPolicy(), nil)
	if orch.RemoteEnabled() {
		t.Fatal("remote should be disabled")
	}
	if got := orch.MatchWine(context.Background(), "Unknown Bottling"); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
	got := orch.BatchMatch(context.Background(), []string{"Unknown Bottling"})
	if r, ok := got["Unknown Bottling"]; !ok || r != nil {
		t.Fatalf("unexpected batch result %+v", got)
	}
}

func TestPolicyFromConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	p := PolicyFromConfig(cfg)
	if p.AcceptanceThreshold != 0.7 || p.ExactConfidence != 0.98 || p.BatchSize != 20 {
		t.Fatalf("unexpected policy %+v", p)
	}
	if math.Abs(p.BatchThreshold()-0.65) > 1e-9 {
		t.Fatalf("batch threshold = %v", p.BatchThreshold())
	}
	if p.RemoteTimeout != 5*time.Second {
		t.Fatalf("remote timeout = %v", p.RemoteTimeout)
	}
}

func intPtr(v int) *int { return &v }
