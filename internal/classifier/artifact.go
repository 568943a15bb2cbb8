package classifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Artifact is the exported form of a trained TF-IDF + linear model pipeline.
type Artifact struct {
	Vectorizer Vectorizer  `json:"vectorizer" msgpack:"vectorizer"`
	Model      LinearModel `json:"model" msgpack:"model"`
	Classes    []string    `json:"classes" msgpack:"classes"`
}

type Vectorizer struct {
	Vocabulary  map[string]int `json:"vocabulary" msgpack:"vocabulary"`
	IDF         []float64      `json:"idf" msgpack:"idf"`
	SublinearTF bool           `json:"sublinear_tf" msgpack:"sublinear_tf"`
	NgramMax    int            `json:"ngram_max" msgpack:"ngram_max"`
	Norm        string         `json:"norm" msgpack:"norm"`
}

type LinearModel struct {
	Coef      [][]float64 `json:"coef" msgpack:"coef"`
	Intercept []float64   `json:"intercept" msgpack:"intercept"`
}

// LoadArtifact reads path as msgpack (.msgpack, .mp) or JSON.
func LoadArtifact(path string) (*Artifact, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var a Artifact
	switch strings.ToLower(filepath.Ext(path)) {
	case ".msgpack", ".mp":
		err = msgpack.NewDecoder(bytes.NewReader(b)).Decode(&a)
	default:
		err = json.Unmarshal(b, &a)
	}
	if err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", path, err)
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("artifact %s: %w", path, err)
	}
	return &a, nil
}

// Validate checks that the pieces agree on dimensions.
func (a *Artifact) Validate() error {
	v, m := a.Vectorizer, a.Model
	features := len(v.IDF)
	if features == 0 || len(v.Vocabulary) == 0 {
		return fmt.Errorf("empty vocabulary")
	}
	for term, idx := range v.Vocabulary {
		if idx < 0 || idx >= features {
			return fmt.Errorf("term %q index %d out of range", term, idx)
		}
	}
	if v.NgramMax < 0 || v.NgramMax > 2 {
		return fmt.Errorf("unsupported ngram_max %d", v.NgramMax)
	}
	if v.Norm != "" && v.Norm != "l2" {
		return fmt.Errorf("unsupported norm %q", v.Norm)
	}

	if len(m.Coef) == 0 || len(m.Coef) != len(m.Intercept) {
		return fmt.Errorf("coef rows %d, intercepts %d", len(m.Coef), len(m.Intercept))
	}
	for i, row := range m.Coef {
		if len(row) != features {
			return fmt.Errorf("coef row %d has %d weights, want %d", i, len(row), features)
		}
	}

	wantClasses := len(m.Coef)
	if wantClasses == 1 {
		wantClasses = 2
	}
	if len(a.Classes) != wantClasses {
		return fmt.Errorf("got %d classes, want %d", len(a.Classes), wantClasses)
	}
	return nil
}

func (a *Artifact) Save(path string) error {
	var (
		b   []byte
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".msgpack", ".mp":
		b, err = msgpack.Marshal(a)
	default:
		b, err = json.Marshal(a)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
