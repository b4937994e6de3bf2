package services

import (
	"bytes"
	_ "embed"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// embeddedLexicon uses the pattern en-sentiment.xml layout, so the full
// pattern lexicon can be loaded in its place with LoadAnalyzer.
//
//go:embed lexicon/en-sentiment.xml
var embeddedLexicon []byte

// assessment is a lexicon entry: polarity in [-1, 1], subjectivity in [0, 1].
type assessment struct {
	polarity     float64
	subjectivity float64
}

var negations = map[string]struct{}{
	"not":     {},
	"no":      {},
	"never":   {},
	"without": {},
	"isn't":   {},
	"wasn't":  {},
	"doesn't": {},
	"don't":   {},
	"didn't":  {},
	"won't":   {},
	"isnt":    {},
	"doesnt":  {},
}

// negationFactor is applied to the polarity of a negated opinion word.
const negationFactor = -0.5

// Analyzer scores text against a word lexicon.
type Analyzer struct {
	words        map[string]assessment
	intensifiers map[string]float64
}

type lexiconFile struct {
	Words []lexiconWord `xml:"word"`
}

type lexiconWord struct {
	Form         string  `xml:"form,attr"`
	POS          string  `xml:"pos,attr"`
	Polarity     float64 `xml:"polarity,attr"`
	Subjectivity float64 `xml:"subjectivity,attr"`
	Intensity    float64 `xml:"intensity,attr"`
}

// senses accumulates every entry of one form so they can be averaged.
type senses struct {
	polarity, subjectivity float64
	n                      int
	adjective              bool
}

func (s *senses) add(w lexiconWord, adjective bool) {
	// adjective senses replace any other part of speech seen so far
	if adjective && !s.adjective {
		*s = senses{adjective: true}
	} else if !adjective && s.adjective {
		return
	}
	s.polarity += w.Polarity
	s.subjectivity += w.Subjectivity
	s.n++
}

// NewAnalyzer reads a lexicon in the pattern en-sentiment.xml format.
// A form listed several times gets the average of its adjective senses,
// or of all its senses when none is an adjective. Adverbs with an
// intensity other than 1 become intensifiers.
func NewAnalyzer(r io.Reader) (*Analyzer, error) {
	var file lexiconFile
	if err := xml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("sentiment: decode lexicon: %w", err)
	}

	bySense := make(map[string]*senses)
	intensity := make(map[string][]float64)
	for _, w := range file.Words {
		form := strings.ToLower(strings.TrimSpace(w.Form))
		if form == "" {
			continue
		}
		if w.POS == "RB" && w.Intensity != 0 && w.Intensity != 1 {
			intensity[form] = append(intensity[form], w.Intensity)
			continue
		}
		s, ok := bySense[form]
		if !ok {
			s = &senses{}
			bySense[form] = s
		}
		s.add(w, w.POS == "JJ")
	}

	a := &Analyzer{
		words:        make(map[string]assessment, len(bySense)),
		intensifiers: make(map[string]float64, len(intensity)),
	}
	for form, s := range bySense {
		if _, isModifier := intensity[form]; isModifier {
			continue
		}
		a.words[form] = assessment{
			polarity:     s.polarity / float64(s.n),
			subjectivity: s.subjectivity / float64(s.n),
		}
	}
	for form, vals := range intensity {
		sum := 0.0
		for _, v := range vals {
			sum += v
		}
		a.intensifiers[form] = sum / float64(len(vals))
	}
	if len(a.words) == 0 {
		return nil, fmt.Errorf("sentiment: lexicon has no words")
	}
	return a, nil
}

// LoadAnalyzer reads a lexicon file from disk.
func LoadAnalyzer(path string) (*Analyzer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sentiment: %w", err)
	}
	defer f.Close()
	return NewAnalyzer(f)
}

var defaultAnalyzer = sync.OnceValue(func() *Analyzer {
	a, err := NewAnalyzer(bytes.NewReader(embeddedLexicon))
	if err != nil {
		panic(err)
	}
	return a
})

// DefaultAnalyzer returns the analyzer built from the bundled lexicon.
func DefaultAnalyzer() *Analyzer {
	return defaultAnalyzer()
}

// Size is the number of opinion words the analyzer knows.
func (a *Analyzer) Size() int {
	return len(a.words)
}

// Analyze scores text with the bundled lexicon.
func Analyze(text string) (polarity, subjectivity float64) {
	return DefaultAnalyzer().Analyze(text)
}

// Analyze returns the averaged polarity and subjectivity of the opinion
// words in text. A negation ("not good") flips and halves the next word's
// polarity; an intensifier ("very good") scales both values. Text without
// opinion words is neutral and objective: (0, 0).
func (a *Analyzer) Analyze(text string) (polarity, subjectivity float64) {
	var (
		sumP, sumS float64
		matched    int
		negated    bool
		scale      = 1.0
	)

	for _, tok := range tokenize(text) {
		if _, ok := negations[tok]; ok {
			negated = true
			continue
		}
		if m, ok := a.intensifiers[tok]; ok {
			scale *= m
			continue
		}
		w, ok := a.words[tok]
		if !ok {
			negated, scale = false, 1.0
			continue
		}

		p := clamp(w.polarity*scale, -1, 1)
		s := clamp(w.subjectivity*scale, 0, 1)
		if negated {
			p *= negationFactor
		}
		sumP += p
		sumS += s
		matched++
		negated, scale = false, 1.0
	}

	if matched == 0 {
		return 0, 0
	}
	return clamp(sumP/float64(matched), -1, 1), clamp(sumS/float64(matched), 0, 1)
}

// tokenize lower-cases text after NFKC folding and splits it into words.
// Apostrophes stay inside words so contractions match the negation list.
func tokenize(text string) []string {
	folded := strings.ToLower(norm.NFKC.String(text))
	folded = strings.ReplaceAll(folded, "’", "'")
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
