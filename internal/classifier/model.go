package classifier

import (
	"math"
	"regexp"
	"strings"
)

// two or more word characters, same as the vectorizer the artifact was exported from
var tokenRe = regexp.MustCompile(`\b\w\w+\b`)

type Model struct {
	a *Artifact
}

func NewModel(a *Artifact) (*Model, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if a.Vectorizer.NgramMax == 0 {
		a.Vectorizer.NgramMax = 1
	}
	return &Model{a: a}, nil
}

func Load(path string) (*Model, error) {
	a, err := LoadArtifact(path)
	if err != nil {
		return nil, err
	}
	return NewModel(a)
}

func (m *Model) Classes() []string {
	return append([]string(nil), m.a.Classes...)
}

// Predict normalizes text and classifies it.
func (m *Model) Predict(text string) (string, []float64) {
	return m.Classify(Normalize(text))
}

// Classify returns the most probable label and the per-class probabilities
// in the order of Classes.
func (m *Model) Classify(normalized string) (string, []float64) {
	x := m.vectorize(normalized)

	coef, icp := m.a.Model.Coef, m.a.Model.Intercept
	scores := make([]float64, len(coef))
	for i, row := range coef {
		s := icp[i]
		for j, v := range x {
			s += row[j] * v
		}
		scores[i] = s
	}

	var probs []float64
	if len(scores) == 1 {
		p := sigmoid(scores[0])
		probs = []float64{1 - p, p}
	} else {
		probs = softmax(scores)
	}

	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return m.a.Classes[best], probs
}

// vectorize returns a sparse tf-idf vector keyed by feature index.
func (m *Model) vectorize(text string) map[int]float64 {
	v := m.a.Vectorizer

	raw := tokenRe.FindAllString(strings.ToLower(text), -1)
	tokens := make([]string, len(raw))
	for i, t := range raw {
		tokens[i] = lemma(t, v.Vocabulary)
	}

	counts := make(map[int]float64)
	for n := 1; n <= v.NgramMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			term := strings.Join(tokens[i:i+n], " ")
			if idx, ok := v.Vocabulary[term]; ok {
				counts[idx]++
			}
		}
	}

	var norm float64
	for idx, tf := range counts {
		if v.SublinearTF {
			tf = 1 + math.Log(tf)
		}
		w := tf * v.IDF[idx]
		counts[idx] = w
		norm += w * w
	}
	if v.Norm == "l2" && norm > 0 {
		norm = math.Sqrt(norm)
		for idx := range counts {
			counts[idx] /= norm
		}
	}
	return counts
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func softmax(z []float64) []float64 {
	maxZ := math.Inf(-1)
	for _, v := range z {
		maxZ = math.Max(maxZ, v)
	}
	out := make([]float64, len(z))
	var sum float64
	for i, v := range z {
		out[i] = math.Exp(v - maxZ)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
