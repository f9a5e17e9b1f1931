// Package recommend ranks catalog tools against a task description using a
// deterministic weighted keyword scorer.
package recommend

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/wasmforge-dev/wasmforge/domain/entities"
)

// Per-field weights for query token overlap, plus the two bonuses.
const (
	nameWeight        = 3.0
	descriptionWeight = 2.0
	schemaWeight      = 1.0
	phraseBonus       = 2.0
	fuzzyBonus        = 0.5
	fuzzyMinLength    = 4
)

// DefaultLimit is the number of recommendations returned.
const DefaultLimit = 5

// stopWords are query tokens that carry no signal on their own.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "but": true, "by": true, "can": true, "could": true,
	"do": true, "does": true, "for": true, "from": true, "how": true,
	"i": true, "in": true, "is": true, "it": true, "me": true, "my": true,
	"of": true, "on": true, "or": true, "our": true, "please": true,
	"should": true, "that": true, "the": true, "this": true, "to": true,
	"want": true, "we": true, "what": true, "when": true, "where": true,
	"will": true, "with": true, "would": true, "you": true, "your": true,
}

// Recommendation is one scored catalog entry.
type Recommendation struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
	Score       float64         `json:"score"`
}

// Scorer ranks tools against task text. Scoring is pure: identical task
// and catalog yield identical output.
type Scorer struct {
	limit int
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithLimit caps the number of recommendations returned.
func WithLimit(n int) Option {
	return func(s *Scorer) {
		if n > 0 {
			s.limit = n
		}
	}
}

// NewScorer creates a Scorer with the given options.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{limit: DefaultLimit}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Recommend scores every tool against the task and renders the best
// matches, descending by score with ties broken by ascending name, as a
// pretty-printed JSON array. Tools that score zero are omitted.
func (s *Scorer) Recommend(task string, tools []entities.ToolDescriptor) (string, error) {
	query := queryTokens(task)
	phrase := strings.ToLower(strings.TrimSpace(task))

	recs := make([]Recommendation, 0, len(tools))
	for _, tool := range tools {
		score := scoreTool(tool, query, phrase)
		if score <= 0 {
			continue
		}
		recs = append(recs, Recommendation{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
			Score:       score,
		})
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].Name < recs[j].Name
	})
	if len(recs) > s.limit {
		recs = recs[:s.limit]
	}

	out, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to render recommendations: %w", err)
	}
	return string(out), nil
}

// scoreTool sums the per-field weights of every query token found in the
// tool's name, description and schema property names, adds the fuzzy bonus
// for near-miss tokens, and the phrase bonus when the whole task appears
// in the name or description.
func scoreTool(tool entities.ToolDescriptor, query []string, phrase string) float64 {
	name := tokenSet(tool.Name)
	description := tokenSet(tool.Description)
	properties := tokenSet(strings.Join(schemaProperties(tool.InputSchema), " "))

	var score float64
	for _, token := range query {
		exact := false
		if name[token] {
			score += nameWeight
			exact = true
		}
		if description[token] {
			score += descriptionWeight
			exact = true
		}
		if properties[token] {
			score += schemaWeight
			exact = true
		}
		if !exact && len(token) >= fuzzyMinLength && nearMiss(token, name, description, properties) {
			score += fuzzyBonus
		}
	}

	if phrase != "" &&
		(strings.Contains(strings.ToLower(tool.Name), phrase) ||
			strings.Contains(strings.ToLower(tool.Description), phrase)) {
		score += phraseBonus
	}
	return score
}

// queryTokens tokenizes the task, drops stop words and deduplicates.
func queryTokens(task string) []string {
	seen := make(map[string]bool)
	var tokens []string
	for _, token := range tokenize(task) {
		if stopWords[token] || seen[token] {
			continue
		}
		seen[token] = true
		tokens = append(tokens, token)
	}
	return tokens
}

// tokenize splits text into lowercase alphanumeric runs.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func tokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, token := range tokenize(text) {
		set[token] = true
	}
	return set
}

// schemaProperties lists the property names of a tool's argument schema.
func schemaProperties(doc json.RawMessage) []string {
	var schema struct {
		Properties map[string]json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(doc, &schema); err != nil {
		return nil
	}
	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// nearMiss reports whether any candidate token is one edit away from the
// query token.
func nearMiss(token string, sets ...map[string]bool) bool {
	for _, set := range sets {
		for candidate := range set {
			if withinOneEdit(token, candidate) {
				return true
			}
		}
	}
	return false
}

// withinOneEdit reports whether two tokens differ by at most one
// insertion, deletion or substitution.
func withinOneEdit(a, b string) bool {
	if a == b {
		return true
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	if len(rb)-len(ra) > 1 {
		return false
	}
	for i := range ra {
		if ra[i] != rb[i] {
			if len(ra) == len(rb) {
				return string(ra[i+1:]) == string(rb[i+1:])
			}
			return string(ra[i:]) == string(rb[i+1:])
		}
	}
	return true
}
