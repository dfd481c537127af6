// Package normalize rewrites misspelled query terms to canonical vocabulary
// spellings.
package normalize

import (
	"context"
	"sort"
	"strings"
	"sync/atomic"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain/similarity"
	"github.com/kailas-cloud/docqa/internal/domain/vocabulary"
	"github.com/kailas-cloud/docqa/internal/logger"
	"github.com/kailas-cloud/docqa/internal/metrics"
)

// Defaults.
const (
	DefaultThreshold      = 0.8
	DefaultMaxCorrections = 3

	maxNgram    = 3
	minTokenLen = 3
)

// Scorer names accepted by ScorerByName.
const (
	ScorerLevenshtein = "levenshtein"
	ScorerFuzzy       = "fuzzy"
)

// ScorerByName maps a configured scorer name to its function. Unknown names
// fall back to the Levenshtein ratio.
func ScorerByName(name string) similarity.Scorer {
	if name == ScorerFuzzy {
		return similarity.FuzzyStringMatch
	}
	return similarity.LevenshteinRatio
}

// Config tunes the normalizer.
type Config struct {
	Enabled        bool
	Threshold      float64
	MaxCorrections int
	Scorer         similarity.Scorer
}

// DefaultConfig returns an enabled normalizer with the Levenshtein ratio scorer.
func DefaultConfig() Config {
	return Config{
		Enabled:        true,
		Threshold:      DefaultThreshold,
		MaxCorrections: DefaultMaxCorrections,
		Scorer:         similarity.LevenshteinRatio,
	}
}

// Correction records one rewritten token or phrase.
type Correction struct {
	Original  string  `json:"original"`
	Corrected string  `json:"corrected"`
	Score     float64 `json:"score"`
}

// Result is the normalized query plus the corrections applied to it.
type Result struct {
	Query       string
	Corrections []Correction
}

// Changed reports whether any correction was applied.
func (r Result) Changed() bool {
	return len(r.Corrections) > 0
}

// Service corrects queries against a vocabulary snapshot. The snapshot can
// be replaced at runtime with SwapVocabulary; in-flight calls keep the
// snapshot they started with.
type Service struct {
	cfg    Config
	vocab  atomic.Pointer[vocabulary.Vocabulary]
	logger *zap.Logger
}

// New creates a normalizer. Zero-valued tuning fields take their defaults.
func New(vocab *vocabulary.Vocabulary, cfg Config, log *zap.Logger) *Service {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.MaxCorrections <= 0 {
		cfg.MaxCorrections = DefaultMaxCorrections
	}
	if cfg.Scorer == nil {
		cfg.Scorer = similarity.LevenshteinRatio
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{cfg: cfg, logger: log}
	s.vocab.Store(vocab)
	return s
}

// SwapVocabulary atomically installs a new vocabulary snapshot.
func (s *Service) SwapVocabulary(v *vocabulary.Vocabulary) {
	if v != nil {
		s.vocab.Store(v)
	}
}

// Vocabulary returns the current snapshot.
func (s *Service) Vocabulary() *vocabulary.Vocabulary {
	return s.vocab.Load()
}

// word is a byte span [start, end) of a query word.
type word struct {
	start, end int
}

type replacement struct {
	start, end int
	text       string
}

// Normalize rewrites misspelled words and phrases of query to their
// canonical vocabulary form.
//
// Candidates are visited by start position, left to right, and at each
// position the longest n-gram is tried first. A candidate shorter than three
// characters, purely numeric, or already spelled like a vocabulary entry is
// never rewritten. When a candidate's best match reaches the threshold every
// case-insensitive whole-word occurrence of it is replaced and those words
// are locked against further rewrites. At most MaxCorrections distinct
// candidates are rewritten.
func (s *Service) Normalize(ctx context.Context, query string) Result {
	vocab := s.vocab.Load()
	if !s.cfg.Enabled || vocab == nil || strings.TrimSpace(query) == "" {
		return Result{Query: query}
	}

	words := splitWords(query)
	locked := make([]bool, len(words))
	forms := vocab.Forms()
	maxN := min(maxNgram, max(1, vocab.MaxWords()))

	var (
		corrections  []Correction
		replacements []replacement
	)

scan:
	for i := range words {
		for n := min(maxN, len(words)-i); n >= 1; n-- {
			if len(corrections) >= s.cfg.MaxCorrections {
				break scan
			}
			if anyLocked(locked, i, n) || !joinable(query, words, i, n) {
				continue
			}
			candidate := query[words[i].start:words[i+n-1].end]
			if utf8.RuneCountInString(candidate) < minTokenLen || similarity.IsNumeric(candidate) {
				continue
			}
			if vocab.Known(candidate) {
				lock(locked, i, n)
				break
			}

			best := similarity.FindBestMatchWith(s.cfg.Scorer, candidate, forms)
			if best.Score < s.cfg.Threshold {
				continue
			}
			canonical, _ := vocab.Resolve(best.Candidate)

			for _, at := range occurrences(query, words, locked, i, n) {
				lock(locked, at, n)
				replacements = append(replacements, replacement{
					start: words[at].start,
					end:   words[at+n-1].end,
					text:  canonical,
				})
			}
			corrections = append(corrections, Correction{
				Original:  candidate,
				Corrected: canonical,
				Score:     best.Score,
			})
			break
		}
	}

	if len(replacements) == 0 {
		return Result{Query: query}
	}

	out := splice(query, replacements)
	s.report(ctx, query, out, corrections)
	return Result{Query: out, Corrections: corrections}
}

func (s *Service) report(ctx context.Context, original, corrected string, corrections []Correction) {
	log := logger.OrFallback(ctx, s.logger)
	for _, c := range corrections {
		log.Debug("Query term corrected",
			zap.String("original", c.Original),
			zap.String("corrected", c.Corrected),
			zap.Float64("score", c.Score),
		)
	}
	metrics.NormalizerCorrectionsTotal.Add(float64(len(corrections)))
	log.Info("Query normalized",
		zap.String("original", original),
		zap.String("normalized", corrected),
		zap.Int("corrections", len(corrections)),
	)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-'
}

// splitWords returns the spans of maximal runs of word runes.
func splitWords(s string) []word {
	var words []word
	start := -1
	for i, r := range s {
		switch {
		case isWordRune(r) && start < 0:
			start = i
		case !isWordRune(r) && start >= 0:
			words = append(words, word{start: start, end: i})
			start = -1
		}
	}
	if start >= 0 {
		words = append(words, word{start: start, end: len(s)})
	}
	return words
}

// joinable reports whether words i..i+n-1 are separated by whitespace only,
// so they read as one phrase.
func joinable(s string, words []word, i, n int) bool {
	for k := i; k < i+n-1; k++ {
		if strings.TrimSpace(s[words[k].end:words[k+1].start]) != "" {
			return false
		}
	}
	return true
}

func anyLocked(locked []bool, i, n int) bool {
	for k := i; k < i+n; k++ {
		if locked[k] {
			return true
		}
	}
	return false
}

func lock(locked []bool, i, n int) {
	for k := i; k < i+n; k++ {
		locked[k] = true
	}
}

// occurrences lists the start indexes of every unlocked run of n words that
// equals the run at i, word by word and ignoring case.
func occurrences(s string, words []word, locked []bool, i, n int) []int {
	var out []int
	for at := 0; at+n <= len(words); at++ {
		if anyLocked(locked, at, n) || !joinable(s, words, at, n) {
			continue
		}
		same := true
		for k := 0; k < n; k++ {
			a := s[words[i+k].start:words[i+k].end]
			b := s[words[at+k].start:words[at+k].end]
			if !strings.EqualFold(a, b) {
				same = false
				break
			}
		}
		if same {
			out = append(out, at)
		}
	}
	return out
}

func splice(s string, reps []replacement) string {
	sort.Slice(reps, func(a, b int) bool { return reps[a].start < reps[b].start })
	var b strings.Builder
	b.Grow(len(s))
	prev := 0
	for _, r := range reps {
		b.WriteString(s[prev:r.start])
		b.WriteString(r.text)
		prev = r.end
	}
	b.WriteString(s[prev:])
	return b.String()
}
