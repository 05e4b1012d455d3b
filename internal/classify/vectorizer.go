package classify

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"
)

const defaultTokenPattern = `(?u)\b\w\w+\b`

// unicodeWordRun matches the same tokens as the default pattern under Unicode
// word semantics: maximal runs of two or more letters, digits or underscores.
var unicodeWordRun = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// vectorizerParams is the JSON export of a fitted TF-IDF vectorizer.
type vectorizerParams struct {
	Vocabulary   map[string]int `json:"vocabulary"`
	IDF          []float64      `json:"idf"`
	Lowercase    *bool          `json:"lowercase"`
	TokenPattern string         `json:"token_pattern"`
	NgramRange   []int          `json:"ngram_range"`
	StopWords    []string       `json:"stop_words"`
	SublinearTF  bool           `json:"sublinear_tf"`
	Norm         *string        `json:"norm"`
	UseIDF       *bool          `json:"use_idf"`
}

// Vectorizer turns text into a normalized TF-IDF vector over a fixed vocabulary.
type Vectorizer struct {
	vocabulary  map[string]int
	idf         []float64
	lowercase   bool
	token       *regexp.Regexp
	minN, maxN  int
	stopWords   map[string]struct{}
	sublinearTF bool
	norm        string
	useIDF      bool
	features    int
}

// Vector is a sparse feature vector keyed by vocabulary index.
type Vector map[int]float64

// LoadVectorizer reads a vectorizer JSON export from path.
func LoadVectorizer(path string) (*Vectorizer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vectorizer: %w", err)
	}
	var p vectorizerParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: vectorizer %s: %v", ErrInvalidModel, path, err)
	}
	return newVectorizer(p)
}

func newVectorizer(p vectorizerParams) (*Vectorizer, error) {
	if len(p.Vocabulary) == 0 {
		return nil, fmt.Errorf("%w: empty vocabulary", ErrInvalidModel)
	}
	v := &Vectorizer{
		vocabulary:  p.Vocabulary,
		idf:         p.IDF,
		lowercase:   true,
		minN:        1,
		maxN:        1,
		stopWords:   make(map[string]struct{}, len(p.StopWords)),
		sublinearTF: p.SublinearTF,
		norm:        "l2",
		useIDF:      true,
	}
	if p.Lowercase != nil {
		v.lowercase = *p.Lowercase
	}
	if p.Norm != nil {
		v.norm = strings.ToLower(*p.Norm)
	}
	if p.UseIDF != nil {
		v.useIDF = *p.UseIDF
	}
	switch v.norm {
	case "l1", "l2", "", "none":
	default:
		return nil, fmt.Errorf("%w: unsupported norm %q", ErrInvalidModel, v.norm)
	}

	for term, idx := range p.Vocabulary {
		if idx < 0 {
			return nil, fmt.Errorf("%w: negative index for term %q", ErrInvalidModel, term)
		}
		if idx+1 > v.features {
			v.features = idx + 1
		}
	}
	if v.useIDF && len(v.idf) < v.features {
		return nil, fmt.Errorf("%w: idf has %d weights for %d features", ErrInvalidModel, len(v.idf), v.features)
	}

	if len(p.NgramRange) > 0 {
		if len(p.NgramRange) != 2 || p.NgramRange[0] < 1 || p.NgramRange[1] < p.NgramRange[0] {
			return nil, fmt.Errorf("%w: ngram_range %v", ErrInvalidModel, p.NgramRange)
		}
		v.minN, v.maxN = p.NgramRange[0], p.NgramRange[1]
	}

	token, err := compileTokenPattern(p.TokenPattern)
	if err != nil {
		return nil, err
	}
	v.token = token

	for _, w := range p.StopWords {
		v.stopWords[w] = struct{}{}
	}
	return v, nil
}

// compileTokenPattern adapts an exported token regex to RE2. The default pattern is
// replaced with its Unicode-aware equivalent; other patterns drop the (?u) flag,
// which RE2 does not accept.
func compileTokenPattern(pattern string) (*regexp.Regexp, error) {
	if pattern == "" || pattern == defaultTokenPattern {
		return unicodeWordRun, nil
	}
	re, err := regexp.Compile(strings.ReplaceAll(pattern, "(?u)", ""))
	if err != nil {
		return nil, fmt.Errorf("%w: token_pattern %q: %v", ErrInvalidModel, pattern, err)
	}
	if re.NumSubexp() > 1 {
		return nil, fmt.Errorf("%w: token_pattern %q has more than one group", ErrInvalidModel, pattern)
	}
	return re, nil
}

// Features is the dimension of vectors produced by Transform.
func (v *Vectorizer) Features() int {
	return v.features
}

// Tokens splits text the way the fitted analyzer did, before n-gram expansion.
func (v *Vectorizer) Tokens(text string) []string {
	if v.lowercase {
		text = strings.ToLower(text)
	}
	var tokens []string
	if v.token.NumSubexp() == 1 {
		for _, m := range v.token.FindAllStringSubmatch(text, -1) {
			tokens = append(tokens, m[1])
		}
	} else {
		tokens = v.token.FindAllString(text, -1)
	}
	if len(v.stopWords) == 0 {
		return tokens
	}
	kept := tokens[:0]
	for _, t := range tokens {
		if _, stop := v.stopWords[t]; !stop {
			kept = append(kept, t)
		}
	}
	return kept
}

func (v *Vectorizer) terms(tokens []string) []string {
	if v.minN == 1 && v.maxN == 1 {
		return tokens
	}
	var out []string
	if v.minN == 1 {
		out = append(out, tokens...)
	}
	lo := v.minN
	if lo < 2 {
		lo = 2
	}
	for n := lo; n <= v.maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

// Transform returns the TF-IDF vector for text. Terms outside the vocabulary are ignored.
func (v *Vectorizer) Transform(text string) Vector {
	vec := Vector{}
	for _, term := range v.terms(v.Tokens(text)) {
		if idx, ok := v.vocabulary[term]; ok {
			vec[idx]++
		}
	}
	for idx, tf := range vec {
		if v.sublinearTF {
			tf = 1 + math.Log(tf)
		}
		if v.useIDF {
			tf *= v.idf[idx]
		}
		vec[idx] = tf
	}
	v.normalize(vec)
	return vec
}

func (v *Vectorizer) normalize(vec Vector) {
	var total float64
	switch v.norm {
	case "l2":
		for _, x := range vec {
			total += x * x
		}
		total = math.Sqrt(total)
	case "l1":
		for _, x := range vec {
			total += math.Abs(x)
		}
	default:
		return
	}
	if total == 0 {
		return
	}
	for idx := range vec {
		vec[idx] /= total
	}
}
