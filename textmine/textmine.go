// Package textmine turns tokenized descriptions into word-frequency tables
// for word clouds.
package textmine

import (
	"sort"
	"strings"

	"github.com/spektr-org/inkdash/inmates"
)

// MaxWords caps a frequency table.
const MaxWords = 3000

// MinWordLength drops single-letter tokens.
const MinWordLength = 2

// TattooStopwords are body-location and filler words that dominate tattoo
// descriptions without describing the tattoo.
var TattooStopwords = []string{
	"hand", "arm", "forearm", "chest", "upper", "right", "left", "and",
	"back", "leg", "foot", "cheek", "finger", "neck", "behind", "head",
	"on", "ear", "r", "l", "forehead", "side", "of", "face", "lt", "rt",
	"eye",
}

// WordCount is one row of a frequency table.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// TattooWords concatenates the tokens of every tattoo at location, or of
// every tattoo when location is empty.
func TattooWords(tattoos []inmates.TattooRecord, location string) []string {
	var words []string
	for _, t := range tattoos {
		if location != "" && t.Location != location {
			continue
		}
		words = append(words, t.Tokens...)
	}
	return words
}

// ChargeWords concatenates the charge tokens of every inmate.
func ChargeWords(summaries []inmates.InmateSummary) []string {
	var words []string
	for _, s := range summaries {
		words = append(words, s.ChargeTokens...)
	}
	return words
}

// Frequencies counts case-folded words, skipping stopwords and words
// shorter than MinWordLength. Output is ordered by count descending, then
// word ascending, and holds at most max rows (max <= 0 means no cap).
func Frequencies(words, stopwords []string, max int) []WordCount {
	stop := make(map[string]bool, len(stopwords))
	for _, w := range stopwords {
		stop[strings.ToLower(w)] = true
	}

	counts := make(map[string]int)
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if len([]rune(w)) < MinWordLength || stop[w] {
			continue
		}
		counts[w]++
	}

	out := make([]WordCount, 0, len(counts))
	for w, c := range counts {
		out = append(out, WordCount{Word: w, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})

	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

// TattooFrequencies is the word-cloud table for one tattoo location.
func TattooFrequencies(tattoos []inmates.TattooRecord, location string) []WordCount {
	return Frequencies(TattooWords(tattoos, location), TattooStopwords, MaxWords)
}

// ChargeFrequencies is the word-cloud table of all charge descriptions.
// Filler words are kept: charge clouds use no stopword list.
func ChargeFrequencies(summaries []inmates.InmateSummary) []WordCount {
	return Frequencies(ChargeWords(summaries), nil, MaxWords)
}
