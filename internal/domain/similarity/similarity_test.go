package similarity

import (
	"math"
	"testing"
)

func almost(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCosine_Identical(t *testing.T) {
	v := []float32{1, 2, 3}
	if got := Cosine(v, v); !almost(got, 1) {
		t.Fatalf("expected 1, got %f", got)
	}
}

func TestCosine_Orthogonal(t *testing.T) {
	if got := Cosine([]float32{1, 0, 0}, []float32{0, 1, 0}); got != 0 {
		t.Fatalf("expected 0, got %f", got)
	}
}

func TestCosine_ZeroAndEmpty(t *testing.T) {
	if got := Cosine([]float32{1, 2}, []float32{0, 0}); got != 0 {
		t.Fatalf("expected 0 for zero vector, got %f", got)
	}
	if got := Cosine(nil, []float32{1}); got != 0 {
		t.Fatalf("expected 0 for empty input, got %f", got)
	}
}

func TestCosine_OppositeClampsToZero(t *testing.T) {
	if got := Cosine([]float32{1, 1}, []float32{-1, -1}); got != 0 {
		t.Fatalf("expected clamp to 0, got %f", got)
	}
}

func TestCosine_SharedPrefix(t *testing.T) {
	got := Cosine([]float32{1, 0, 5}, []float32{1, 0})
	if !almost(got, 1) {
		t.Fatalf("expected prefix comparison to give 1, got %f", got)
	}
}

func TestCosine_NonFinite(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))
	got := Cosine([]float32{1, nan, inf}, []float32{1, 1, 1})
	if math.IsNaN(got) || got < 0 || got > 1 {
		t.Fatalf("expected finite score in [0,1], got %f", got)
	}
	if !almost(got, 1/math.Sqrt(3)) {
		t.Fatalf("expected non-finite components treated as 0, got %f", got)
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Hello,  World! foo-bar ", "hello world foo-bar"},
		{"pg_dump\tand\nPSQL", "pgdump and psql"},
		{"ISO 8601", "iso 8601"},
		{"!!!", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeText(tt.in); got != tt.want {
			t.Errorf("NormalizeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStem(t *testing.T) {
	tests := map[string]string{
		"queries": "query",
		"indexes": "index",
		"keys":    "key",
		"has":     "has",
		"sql":     "sql",
	}
	for in, want := range tests {
		if got := Stem(in); got != want {
			t.Errorf("Stem(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("Object-Relational databases")
	want := []string{"object", "relational", "databas"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"kitten", "sitting", 3},
		{"", "abc", 3},
		{"abc", "", 3},
		{"same", "same", 0},
		{"flaw", "lawn", 2},
	}
	for _, tt := range tests {
		if got := Levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("Levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestLevenshteinRatio(t *testing.T) {
	if got := LevenshteinRatio("berkley", "Berkeley"); !almost(got, 0.875) {
		t.Fatalf("expected 0.875, got %f", got)
	}
	if got := LevenshteinRatio("", ""); got != 1 {
		t.Fatalf("expected 1 for two empty strings, got %f", got)
	}
}

func TestTokenize_DropsEmptyStems(t *testing.T) {
	got := Tokenize("que es postgress")
	want := []string{"que", "postgres"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestAcronym_SkipsEmptyStems(t *testing.T) {
	if got := Acronym("es"); got != "" {
		t.Fatalf("expected empty acronym, got %q", got)
	}
	if got := Acronym("que es postgress"); got != "qp" {
		t.Fatalf("expected %q, got %q", "qp", got)
	}
}

func TestFuzzyStringMatch_Identity(t *testing.T) {
	for _, s := range []string{"primary key", "VACUUM", "object-relational"} {
		if got := FuzzyStringMatch(s, s); !almost(got, 1) {
			t.Errorf("FuzzyStringMatch(%q, %q) = %f, want 1", s, s, got)
		}
	}
}

func TestFuzzyStringMatch_Empty(t *testing.T) {
	if got := FuzzyStringMatch("", "index"); got != 0 {
		t.Fatalf("expected 0, got %f", got)
	}
	if got := FuzzyStringMatch("index", "?!"); got != 0 {
		t.Fatalf("expected 0 for punctuation-only input, got %f", got)
	}
}

func TestFuzzyStringMatch_Range(t *testing.T) {
	pairs := [][2]string{
		{"es", "x"},
		{"es", "PostgreSQL"},
		{"que es", "PostgreSQL"},
		{"primery key", "primary key"},
		{"full text search", "fts"},
		{"transacton", "transaction"},
		{"abc", "xyz"},
	}
	for _, p := range pairs {
		got := FuzzyStringMatch(p[0], p[1])
		if got < 0 || got > 1 {
			t.Errorf("FuzzyStringMatch(%q, %q) = %f, out of range", p[0], p[1], got)
		}
	}
}

func TestAcronymScore(t *testing.T) {
	if got := acronymScore("full text search", "fts"); got != acronymLiteralScore {
		t.Fatalf("expected literal acronym score, got %f", got)
	}
	if got := acronymScore("write ahead log", "write-ahead logs"); got != acronymBothScore {
		t.Fatalf("expected shared acronym score, got %f", got)
	}
	if got := acronymScore("index", "vacuum"); got != 0 {
		t.Fatalf("expected 0, got %f", got)
	}
}

func TestSubstringScore(t *testing.T) {
	if got := substringScore("key", "primary key"); !almost(got, 3.0/11.0) {
		t.Fatalf("expected 3/11, got %f", got)
	}
	if got := substringScore("abc", "xyz"); got != 0 {
		t.Fatalf("expected 0, got %f", got)
	}
}

func TestFindBestMatch_PicksHighest(t *testing.T) {
	m := FindBestMatch("transacton", []string{"index", "transaction", "vacuum"})
	if m.Candidate != "transaction" {
		t.Fatalf("expected transaction, got %q (%f)", m.Candidate, m.Score)
	}
}

func TestFindBestMatchWith_TieKeepsFirst(t *testing.T) {
	constant := func(string, string) float64 { return 0.5 }
	m := FindBestMatchWith(constant, "q", []string{"first", "second"})
	if m.Candidate != "first" || m.Score != 0.5 {
		t.Fatalf("expected first candidate on tie, got %+v", m)
	}
}

func TestFindBestMatch_NoPositiveScore(t *testing.T) {
	m := FindBestMatch("", []string{"index"})
	if m.Candidate != "" || m.Score != 0 {
		t.Fatalf("expected zero match, got %+v", m)
	}
	if m := FindBestMatch("index", nil); m != (Match{}) {
		t.Fatalf("expected zero match for no candidates, got %+v", m)
	}
}

func TestKeywordScore(t *testing.T) {
	got := KeywordScore("vacuum table", "VACUUM reclaims storage in a table")
	if !almost(got, 2/math.Sqrt(6)) {
		t.Fatalf("expected 2/sqrt(6), got %f", got)
	}
	if got := KeywordScore("vacuum", ""); got != 0 {
		t.Fatalf("expected 0 for empty text, got %f", got)
	}
}

func TestKeywordMatch(t *testing.T) {
	score, matches := KeywordMatch("PostgreSQL supports MVCC", []string{"mvcc", "oracle", "  "})
	if !almost(score, 0.5) {
		t.Fatalf("expected 0.5, got %f", score)
	}
	if len(matches) != 1 || matches[0] != "mvcc" {
		t.Fatalf("expected [mvcc], got %v", matches)
	}
}

func TestIsNumeric(t *testing.T) {
	if !IsNumeric("8601") || IsNumeric("sql92") || IsNumeric("") {
		t.Fatal("unexpected IsNumeric result")
	}
}
