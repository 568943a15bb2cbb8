package classifier

import (
	"regexp"
	"strings"
)

var nonLetters = regexp.MustCompile(`[^a-zA-Z]`)

// Normalize keeps ASCII letters only, lower-cases and drops English stopwords.
func Normalize(text string) string {
	text = strings.ToLower(nonLetters.ReplaceAllString(text, " "))
	fields := strings.Fields(text)
	out := fields[:0]
	for _, w := range fields {
		if _, stop := stopwords[w]; stop {
			continue
		}
		out = append(out, w)
	}
	return strings.Join(out, " ")
}

// plural detachment rules tried in order, WordNet style
var detachments = [...]struct{ suffix, repl string }{
	{"ies", "y"},
	{"ches", "ch"},
	{"shes", "sh"},
	{"ses", "s"},
	{"xes", "x"},
	{"zes", "z"},
	{"s", ""},
}

// lemma maps a noun to its base form when that form is known to vocab.
func lemma(w string, vocab map[string]int) string {
	if _, ok := vocab[w]; ok {
		return w
	}
	for _, d := range detachments {
		if !strings.HasSuffix(w, d.suffix) || len(w) <= len(d.suffix) {
			continue
		}
		cand := w[:len(w)-len(d.suffix)] + d.repl
		if _, ok := vocab[cand]; ok {
			return cand
		}
	}
	return w
}

var stopwords = toSet(
	"i", "me", "my", "myself", "we", "our", "ours", "ourselves", "you", "you're", "you've",
	"you'll", "you'd", "your", "yours", "yourself", "yourselves", "he", "him", "his",
	"himself", "she", "she's", "her", "hers", "herself", "it", "it's", "its", "itself",
	"they", "them", "their", "theirs", "themselves", "what", "which", "who", "whom",
	"this", "that", "that'll", "these", "those", "am", "is", "are", "was", "were", "be",
	"been", "being", "have", "has", "had", "having", "do", "does", "did", "doing", "a",
	"an", "the", "and", "but", "if", "or", "because", "as", "until", "while", "of", "at",
	"by", "for", "with", "about", "against", "between", "into", "through", "during",
	"before", "after", "above", "below", "to", "from", "up", "down", "in", "out", "on",
	"off", "over", "under", "again", "further", "then", "once", "here", "there", "when",
	"where", "why", "how", "all", "any", "both", "each", "few", "more", "most", "other",
	"some", "such", "no", "nor", "not", "only", "own", "same", "so", "than", "too", "very",
	"s", "t", "can", "will", "just", "don", "don't", "should", "should've", "now", "d",
	"ll", "m", "o", "re", "ve", "y", "ain", "aren", "aren't", "couldn", "couldn't",
	"didn", "didn't", "doesn", "doesn't", "hadn", "hadn't", "hasn", "hasn't", "haven",
	"haven't", "isn", "isn't", "ma", "mightn", "mightn't", "mustn", "mustn't", "needn",
	"needn't", "shan", "shan't", "shouldn", "shouldn't", "wasn", "wasn't", "weren",
	"weren't", "won", "won't", "wouldn", "wouldn't",
)

func toSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
