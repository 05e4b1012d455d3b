package classify

import (
	"math"
	"reflect"
	"testing"
)

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }
func near(a, b float64) bool  { return math.Abs(a-b) < 1e-9 }

func TestTokensDefaultPattern(t *testing.T) {
	v, err := newVectorizer(vectorizerParams{Vocabulary: map[string]int{"go": 0}, IDF: []float64{1}})
	if err != nil {
		t.Fatalf("newVectorizer: %v", err)
	}
	got := v.Tokens("C++ and Go-lang, R; Día_1 x")
	want := []string{"and", "go", "lang", "día_1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tokens = %v, want %v", got, want)
	}
}

func TestTokensStopWordsAndCase(t *testing.T) {
	v, err := newVectorizer(vectorizerParams{
		Vocabulary: map[string]int{"go": 0},
		IDF:        []float64{1},
		Lowercase:  boolPtr(false),
		StopWords:  []string{"and"},
	})
	if err != nil {
		t.Fatalf("newVectorizer: %v", err)
	}
	got := v.Tokens("Go and go AND")
	want := []string{"Go", "go", "AND"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tokens = %v, want %v", got, want)
	}
}

func TestTransformBigramsL2(t *testing.T) {
	v, err := newVectorizer(vectorizerParams{
		Vocabulary: map[string]int{"data": 0, "science": 1, "data science": 2},
		IDF:        []float64{1, 2, 3},
		NgramRange: []int{1, 2},
	})
	if err != nil {
		t.Fatalf("newVectorizer: %v", err)
	}
	vec := v.Transform("Data Science")
	norm := math.Sqrt(14)
	for idx, want := range []float64{1 / norm, 2 / norm, 3 / norm} {
		if !near(vec[idx], want) {
			t.Fatalf("vec[%d] = %v, want %v", idx, vec[idx], want)
		}
	}
}

func TestTransformSublinearNoNorm(t *testing.T) {
	v, err := newVectorizer(vectorizerParams{
		Vocabulary:  map[string]int{"go": 0, "sql": 1},
		SublinearTF: true,
		UseIDF:      boolPtr(false),
		Norm:        strPtr(""),
	})
	if err != nil {
		t.Fatalf("newVectorizer: %v", err)
	}
	vec := v.Transform("go go go sql rust")
	if !near(vec[0], 1+math.Log(3)) || !near(vec[1], 1) {
		t.Fatalf("unexpected vector %v", vec)
	}
	if len(vec) != 2 {
		t.Fatalf("out-of-vocabulary term leaked into %v", vec)
	}
}

func TestTransformL1(t *testing.T) {
	v, err := newVectorizer(vectorizerParams{
		Vocabulary: map[string]int{"go": 0, "sql": 1},
		IDF:        []float64{1, 1},
		Norm:       strPtr("l1"),
	})
	if err != nil {
		t.Fatalf("newVectorizer: %v", err)
	}
	vec := v.Transform("go go go sql")
	if !near(vec[0], 0.75) || !near(vec[1], 0.25) {
		t.Fatalf("unexpected vector %v", vec)
	}
}

func TestTransformEmptyText(t *testing.T) {
	v, err := newVectorizer(vectorizerParams{Vocabulary: map[string]int{"go": 0}, IDF: []float64{1}})
	if err != nil {
		t.Fatalf("newVectorizer: %v", err)
	}
	if vec := v.Transform("   "); len(vec) != 0 {
		t.Fatalf("expected empty vector, got %v", vec)
	}
}

func TestCustomTokenPatternWithGroup(t *testing.T) {
	v, err := newVectorizer(vectorizerParams{
		Vocabulary:   map[string]int{"go": 0},
		IDF:          []float64{1},
		TokenPattern: `#(\w+)`,
	})
	if err != nil {
		t.Fatalf("newVectorizer: %v", err)
	}
	got := v.Tokens("#go and #sql")
	if !reflect.DeepEqual(got, []string{"go", "sql"}) {
		t.Fatalf("Tokens = %v", got)
	}
}

func TestNewVectorizerRejects(t *testing.T) {
	tests := []struct {
		name string
		p    vectorizerParams
	}{
		{name: "empty vocabulary", p: vectorizerParams{}},
		{name: "bad norm", p: vectorizerParams{Vocabulary: map[string]int{"a": 0}, IDF: []float64{1}, Norm: strPtr("max")}},
		{name: "bad ngram", p: vectorizerParams{Vocabulary: map[string]int{"a": 0}, IDF: []float64{1}, NgramRange: []int{2, 1}}},
		{name: "bad regex", p: vectorizerParams{Vocabulary: map[string]int{"a": 0}, IDF: []float64{1}, TokenPattern: "("}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if _, err := newVectorizer(tt.p); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
