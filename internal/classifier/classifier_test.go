package classifier

import (
	"math"
	"path/filepath"
	"testing"
)

// two classes, three features: "sad" pushes towards Depression, "happy" towards Normal.
func testArtifact() *Artifact {
	return &Artifact{
		Vectorizer: Vectorizer{
			Vocabulary:  map[string]int{"sad": 0, "happy": 1, "feeling": 2},
			IDF:         []float64{1.5, 1.5, 1.0},
			SublinearTF: true,
			NgramMax:    1,
			Norm:        "l2",
		},
		Model: LinearModel{
			Coef: [][]float64{
				{3, -3, 0},
				{-3, 3, 0},
			},
			Intercept: []float64{0, 0},
		},
		Classes: []string{"Depression", "Normal"},
	}
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"I am SO sad!!! :(":            "sad",
		"It's 3am and I can't sleep":   "sleep",
		"feelings of   worthlessness.": "feelings worthlessness",
		"":                             "",
		"1234 !!":                      "",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLemma(t *testing.T) {
	vocab := map[string]int{"feeling": 0, "anxiety": 1, "crash": 2, "box": 3}
	cases := map[string]string{
		"feelings":  "feeling",
		"anxieties": "anxiety",
		"crashes":   "crash",
		"boxes":     "box",
		"unknowns":  "unknowns",
		"feeling":   "feeling",
		"s":         "s",
	}
	for in, want := range cases {
		if got := lemma(in, vocab); got != want {
			t.Errorf("lemma(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClassify_Softmax(t *testing.T) {
	m, err := NewModel(testArtifact())
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}

	label, probs := m.Predict("I feel so sad today")
	if label != "Depression" {
		t.Fatalf("label = %q, want Depression (probs %v)", label, probs)
	}
	if len(probs) != 2 || math.Abs(probs[0]+probs[1]-1) > 1e-9 || probs[0] <= probs[1] {
		t.Fatalf("bad probabilities %v", probs)
	}

	label, _ = m.Predict("Happy feelings all around")
	if label != "Normal" {
		t.Fatalf("label = %q, want Normal", label)
	}

	// no known terms: intercepts only, equal scores
	_, probs = m.Classify("")
	if math.Abs(probs[0]-0.5) > 1e-9 {
		t.Fatalf("empty input probs = %v", probs)
	}
}

func TestClassify_BinarySigmoid(t *testing.T) {
	a := testArtifact()
	a.Model = LinearModel{Coef: [][]float64{{-3, 3, 0}}, Intercept: []float64{0}}
	m, err := NewModel(a)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}

	label, probs := m.Classify("happy")
	if label != "Normal" || len(probs) != 2 || probs[1] <= 0.5 {
		t.Fatalf("got %q %v", label, probs)
	}
}

func TestArtifact_Validate(t *testing.T) {
	bad := testArtifact()
	bad.Classes = []string{"only"}
	if err := bad.Validate(); err == nil {
		t.Fatal("class count mismatch accepted")
	}

	bad = testArtifact()
	bad.Vectorizer.Vocabulary["oops"] = 9
	if err := bad.Validate(); err == nil {
		t.Fatal("out of range vocabulary index accepted")
	}

	bad = testArtifact()
	bad.Model.Coef[1] = []float64{1}
	if err := bad.Validate(); err == nil {
		t.Fatal("short coef row accepted")
	}
}

func TestLoad_JSONAndMsgpack(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"model.json", "model.msgpack"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := testArtifact().Save(path); err != nil {
				t.Fatalf("save: %v", err)
			}
			m, err := Load(path)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if label, _ := m.Predict("sad sad sad"); label != "Depression" {
				t.Fatalf("label = %q", label)
			}
			if got := m.Classes(); len(got) != 2 || got[1] != "Normal" {
				t.Fatalf("classes = %v", got)
			}
		})
	}

	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatal("missing file accepted")
	}
}
