// Package search ranks a static site index by keyword overlap.
package search

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/codr1/plantfloor/assets"
)

const (
	DefaultLimit = 10
	MaxLimit     = 50
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {},
	"do": {}, "for": {}, "from": {}, "how": {}, "i": {}, "in": {}, "is": {}, "it": {},
	"me": {}, "my": {}, "of": {}, "on": {}, "or": {}, "our": {}, "the": {}, "to": {},
	"we": {}, "what": {}, "with": {}, "you": {}, "your": {},
}

type Entry struct {
	Title    string   `yaml:"title" json:"title"`
	URL      string   `yaml:"url" json:"url"`
	Summary  string   `yaml:"summary" json:"summary"`
	Keywords []string `yaml:"keywords" json:"-"`
}

type Result struct {
	Entry
	Score int `json:"score"`
}

type indexedEntry struct {
	entry       Entry
	titleTokens map[string]struct{}
	bodyTokens  map[string]struct{}
}

// Index holds tokenized entries.
type Index struct {
	entries []indexedEntry
}

type indexFile struct {
	Entries []Entry `yaml:"entries"`
}

// Load reads the embedded search index.
func Load() (*Index, error) {
	file, err := assets.ContentFS.Open(assets.SearchPath)
	if err != nil {
		return nil, fmt.Errorf("open embedded search file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

func Parse(r io.Reader) (*Index, error) {
	var parsed indexFile
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parse search file: %w", err)
	}
	for i, entry := range parsed.Entries {
		if strings.TrimSpace(entry.Title) == "" || strings.TrimSpace(entry.URL) == "" {
			return nil, fmt.Errorf("search entry %d needs a title and url", i+1)
		}
	}
	return New(parsed.Entries), nil
}

func New(entries []Entry) *Index {
	index := &Index{entries: make([]indexedEntry, 0, len(entries))}
	for _, entry := range entries {
		body := tokenSet(entry.Summary + " " + strings.Join(entry.Keywords, " "))
		index.entries = append(index.entries, indexedEntry{
			entry:       entry,
			titleTokens: tokenSet(entry.Title),
			bodyTokens:  body,
		})
	}
	return index
}

// Search scores every entry by the distinct query tokens it contains. A token
// found in the title counts twice. Entries scoring zero are dropped and the rest
// are ordered by score, then title. limit is clamped to [1, MaxLimit] with
// DefaultLimit for non-positive values.
func (idx *Index) Search(query string, limit int) []Result {
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	terms := tokenSet(query)
	results := []Result{}
	if len(terms) == 0 {
		return results
	}

	for _, candidate := range idx.entries {
		score := 0
		for term := range terms {
			if _, ok := candidate.titleTokens[term]; ok {
				score += 2
				continue
			}
			if _, ok := candidate.bodyTokens[term]; ok {
				score++
			}
		}
		if score > 0 {
			results = append(results, Result{Entry: candidate.entry, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Title < results[j].Title
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// Tokenize lowercases text, splits it on anything that is not a letter or a
// digit and drops stop words.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := fields[:0]
	for _, field := range fields {
		if _, stop := stopWords[field]; stop {
			continue
		}
		tokens = append(tokens, field)
	}
	return tokens
}

func tokenSet(text string) map[string]struct{} {
	tokens := Tokenize(text)
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}
