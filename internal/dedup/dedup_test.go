package dedup

import (
	"math"
	"testing"

	"github.com/Yashvanth1222/SiteScraper/internal/types"
)

func record(url, title string) *types.Item {
	it := types.NewItem(url)
	if url == "" {
		it.Set(types.FieldURL, "")
	}
	it.Set(types.FieldTitle, title)
	return it
}

func titles(items []*types.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Title()
	}
	return out
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"abc", "abc", 1.0},
		{"abc", "xyz", 0.0},
		{"", "", 1.0},
		{"abc", "", 0.0},
		{"abcd", "bcde", 0.75},
		{"nba best bets for february 17", "nba best bets for february 18", 56.0 / 58.0},
		{"nba picks", "mlb standings", 6.0 / 22.0},
	}

	for _, tt := range tests {
		got := Similarity(tt.a, tt.b)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
		if back := Similarity(tt.b, tt.a); math.Abs(back-got) > 1e-9 {
			t.Errorf("Similarity not symmetric for %q/%q: %v vs %v", tt.a, tt.b, got, back)
		}
	}
}

func TestSimilarityRunes(t *testing.T) {
	if got := Similarity("café", "cafe"); math.Abs(got-0.75) > 1e-9 {
		t.Errorf("expected rune-wise ratio 0.75, got %v", got)
	}
}

func TestDeduplicateByURL(t *testing.T) {
	in := []*types.Item{record("a.com/1", "X"), record("a.com/1", "Y")}
	out := Deduplicate(in)
	if len(out) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out))
	}
	if out[0] != in[0] {
		t.Error("first record should be kept")
	}
}

func TestDeduplicateByTitle(t *testing.T) {
	in := []*types.Item{
		record("a.com/1", "NBA Best Bets for February 17"),
		record("b.com/2", "NBA Best Bets for February 18"),
	}
	out := Deduplicate(in)
	if len(out) != 1 || out[0].Title() != "NBA Best Bets for February 17" {
		t.Fatalf("expected only the first title, got %v", titles(out))
	}
}

func TestDeduplicateTitleCaseInsensitive(t *testing.T) {
	in := []*types.Item{record("", "Lakers vs Celtics Preview"), record("", "LAKERS VS CELTICS PREVIEW")}
	if out := Deduplicate(in); len(out) != 1 {
		t.Fatalf("expected case-folded titles to match, got %v", titles(out))
	}
}

func TestDeduplicateNonMatch(t *testing.T) {
	in := []*types.Item{record("a.com/1", "NBA Analysis"), record("b.com/2", "MLB Standings Report")}
	if out := Deduplicate(in); len(out) != 2 {
		t.Fatalf("expected both kept, got %v", titles(out))
	}
}

func TestDeduplicateProcessorExample(t *testing.T) {
	in := []*types.Item{
		record("https://x.com/1", "Lakers Best Bets Tonight"),
		record("https://x.com/2", "Knicks Player Props Breakdown"),
		record("https://x.com/1", "Totally Different Headline"),
	}
	out := Deduplicate(in)
	if len(out) != 2 {
		t.Fatalf("expected 2, got %d", len(out))
	}
	if out[0] != in[0] || out[1] != in[1] {
		t.Error("accepted records must keep input order")
	}
}

func TestDeduplicateEmpty(t *testing.T) {
	out := Deduplicate(nil)
	if out == nil || len(out) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", out)
	}
}

func TestRecordsWithoutSignalsPassThrough(t *testing.T) {
	in := []*types.Item{record("", ""), record("", ""), record("", "")}
	if out := Deduplicate(in); len(out) != 3 {
		t.Fatalf("records with no url or title must all pass, got %d", len(out))
	}
}

func TestComparesOnlyAgainstAccepted(t *testing.T) {
	// The second record is dropped by URL; the third shares only the dropped
	// record's title, so it must survive.
	in := []*types.Item{
		record("u1", "Alpha"),
		record("u1", "Weekend Hockey Forecast"),
		record("u3", "Weekend Hockey Forecast"),
	}
	out := Deduplicate(in)
	if len(out) != 2 || out[1] != in[2] {
		t.Fatalf("expected [Alpha, third], got %v", titles(out))
	}
}

func TestDeduplicateIdempotent(t *testing.T) {
	in := []*types.Item{
		record("a", "NFL Week 5 Odds"),
		record("b", "NFL Week 5 Odds!"),
		record("c", "NHL Playoff Predictions"),
		record("a", "Other"),
	}
	once := Deduplicate(in)
	twice := Deduplicate(once)
	if len(once) != len(twice) {
		t.Fatalf("second pass changed length: %d -> %d", len(once), len(twice))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Fatalf("second pass changed element %d", i)
		}
	}
}

func TestWithThreshold(t *testing.T) {
	in := []*types.Item{record("", "abcd"), record("", "bcde")}

	if out := New().Deduplicate(in); len(out) != 2 {
		t.Errorf("default threshold should keep both, got %d", len(out))
	}
	if out := New(WithThreshold(0.75)).Deduplicate(in); len(out) != 1 {
		t.Errorf("threshold 0.75 is inclusive, expected 1, got %d", len(out))
	}
	if d := New(WithThreshold(1.5)); d.Threshold() != Threshold {
		t.Errorf("out-of-range threshold should be ignored, got %v", d.Threshold())
	}
}

func TestPartition(t *testing.T) {
	in := []*types.Item{record("a", "One"), record("a", "Two"), record("b", "Three")}
	kept, dropped := New().Partition(in)
	if len(kept) != 2 || len(dropped) != 1 || dropped[0] != in[1] {
		t.Fatalf("unexpected partition kept=%v dropped=%v", titles(kept), titles(dropped))
	}
}

func TestMiddleware(t *testing.T) {
	m := NewMiddleware(nil)
	if m.Name() != "dedup" {
		t.Errorf("unexpected name %q", m.Name())
	}

	first, _ := m.Process(record("a.com/1", "X"))
	if first == nil {
		t.Fatal("first record should pass")
	}
	dup, err := m.Process(record("a.com/1", "Y"))
	if err != nil || dup != nil {
		t.Fatalf("duplicate should be dropped, got %v, %v", dup, err)
	}

	m.Reset()
	again, _ := m.Process(record("a.com/1", "Y"))
	if again == nil {
		t.Error("record should pass after Reset")
	}
}

func BenchmarkSimilarity(b *testing.B) {
	x := "nba best bets for february 17: lakers vs celtics"
	y := "nba best bets for february 18: knicks vs heat"
	for i := 0; i < b.N; i++ {
		Similarity(x, y)
	}
}
