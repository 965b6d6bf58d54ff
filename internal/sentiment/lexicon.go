package sentiment

import (
	"context"
	"regexp"
	"slices"
	"strings"
	"sync"
)

var (
	positiveTerms = []string{
		"beat", "bull", "breakout", "gain", "growth", "jump", "outperform", "profit",
		"rally", "record", "recover", "recovery", "rise", "rising", "soar", "strong", "surge", "upgrade", "upside",
	}
	negativeTerms = []string{
		"bear", "crash", "cut", "decline", "destroy", "downgrade", "drop", "fall", "fear",
		"inflation", "lawsuit", "loss", "miss", "plunge", "recession", "slump", "weak",
	}
)

// LexiconModel scores text by counting financial keyword stems. It needs no
// network access.
type LexiconModel struct {
	mu       sync.Mutex
	tokenize *regexp.Regexp
}

func NewLexiconModel() *LexiconModel {
	return &LexiconModel{}
}

func (m *LexiconModel) Name() string { return "lexicon:v1" }

func (m *LexiconModel) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokenize == nil {
		m.tokenize = regexp.MustCompile(`[a-z]+`)
	}
	return nil
}

func (m *LexiconModel) Predict(ctx context.Context, texts []string) ([]Prediction, error) {
	if err := m.Load(ctx); err != nil {
		return nil, err
	}
	out := make([]Prediction, len(texts))
	for i, text := range texts {
		out[i] = m.score(text)
	}
	return out, nil
}

func (m *LexiconModel) score(text string) Prediction {
	words := m.tokenize.FindAllString(strings.ToLower(text), -1)
	pos := countStems(words, positiveTerms)
	neg := countStems(words, negativeTerms)

	diff := pos - neg
	if diff < 0 {
		diff = -diff
	}
	confidence := clamp(0.5+0.15*float64(diff), 0.5, 0.95)

	switch {
	case pos > neg:
		return Prediction{Label: "positive", Score: confidence}
	case neg > pos:
		return Prediction{Label: "negative", Score: confidence}
	default:
		return Prediction{Label: "neutral", Score: confidence}
	}
}

// inflections are the endings a word may add to a stem and still count.
var inflections = []string{
	"", "s", "es", "ed", "ing", "er", "ers", "est", "en", "ish", "ly", "ful", "ary", "ness", "able",
}

func countStems(words, stems []string) int {
	count := 0
	for _, w := range words {
		for _, stem := range stems {
			if matchesStem(w, stem) {
				count++
				break
			}
		}
	}
	return count
}

// matchesStem reports whether word is stem plus a known inflection. It also
// accepts a dropped final e (plunging), a doubled final consonant (cutting)
// and a final y turned into i (rallies).
func matchesStem(word, stem string) bool {
	if !strings.HasPrefix(word, stem[:len(stem)-1]) {
		return false
	}
	bases := []string{stem}
	last := stem[len(stem)-1]
	switch last {
	case 'e':
		bases = append(bases, stem[:len(stem)-1])
	case 'y':
		bases = append(bases, stem[:len(stem)-1]+"i")
	case 'a', 'i', 'o', 'u':
	default:
		bases = append(bases, stem+string(last))
	}
	for _, base := range bases {
		rest, ok := strings.CutPrefix(word, base)
		if ok && slices.Contains(inflections, rest) {
			return true
		}
	}
	return false
}
