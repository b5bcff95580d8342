package categorization

import (
	"regexp"
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// ruleMatch is a matching rule together with the data used to rank it.
type ruleMatch struct {
	rule   *Rule
	index  int
	length int
}

// betterRule orders matching rules: match-type specificity, then declared
// confidence, then match length, then priority, then declaration order.
func betterRule(a, b ruleMatch) bool {
	if sa, sb := a.rule.MatchType.specificity(), b.rule.MatchType.specificity(); sa != sb {
		return sa > sb
	}
	if ca, cb := ruleConfidence(a.rule), ruleConfidence(b.rule); ca != cb {
		return ca > cb
	}
	if a.length != b.length {
		return a.length > b.length
	}
	if a.rule.Priority != b.rule.Priority {
		return a.rule.Priority > b.rule.Priority
	}
	return a.index < b.index
}

// bestRuleMatch reduces candidates to the winner under betterRule.
func bestRuleMatch(matches []ruleMatch) (ruleMatch, bool) {
	if len(matches) == 0 {
		return ruleMatch{}, false
	}
	best := matches[0]
	for _, m := range matches[1:] {
		if betterRule(m, best) {
			best = m
		}
	}
	return best, true
}

func ruleConfidence(r *Rule) float64 {
	if r.Confidence <= 0 {
		return defaultRuleConfidence
	}
	return min(r.Confidence, 1)
}

type regexRule struct {
	index int
	re    *regexp.Regexp
}

// ruleSet evaluates household rules. Literal patterns share one Aho-Corasick
// automaton so a description is scanned once regardless of the rule count.
type ruleSet struct {
	rules    []Rule
	matcher  *ahocorasick.Matcher
	patterns []string
	// byPattern holds the rule indices sharing each literal pattern.
	byPattern [][]int
	regexes   []regexRule
	// invalid counts rules skipped for a bad regex or unknown match type.
	invalid int
}

func newRuleSet(rules []Rule) *ruleSet {
	rs := &ruleSet{rules: rules}
	patternToIndex := make(map[string]int)

	for i, r := range rules {
		if r.Priority == 0 || r.Category.IsOther() || strings.TrimSpace(r.Pattern) == "" {
			continue
		}
		switch r.MatchType {
		case MatchEquals, MatchStartsWith, MatchContains:
			p := strings.ToUpper(strings.TrimSpace(r.Pattern))
			idx, ok := patternToIndex[p]
			if !ok {
				idx = len(rs.patterns)
				patternToIndex[p] = idx
				rs.patterns = append(rs.patterns, p)
				rs.byPattern = append(rs.byPattern, nil)
			}
			rs.byPattern[idx] = append(rs.byPattern[idx], i)
		case MatchRegex:
			re, err := regexp.Compile("(?i)" + r.Pattern)
			if err != nil {
				rs.invalid++
				continue
			}
			rs.regexes = append(rs.regexes, regexRule{index: i, re: re})
		default:
			rs.invalid++
		}
	}

	if len(rs.patterns) > 0 {
		bytePatterns := make([][]byte, len(rs.patterns))
		for i, p := range rs.patterns {
			bytePatterns[i] = []byte(p)
		}
		rs.matcher = ahocorasick.NewMatcher(bytePatterns)
	}
	return rs
}

// match returns every rule matching description.
func (rs *ruleSet) match(description string) []ruleMatch {
	var out []ruleMatch
	upper := strings.ToUpper(strings.TrimSpace(description))

	if rs.matcher != nil {
		for _, pi := range rs.matcher.Match([]byte(upper)) {
			pattern := rs.patterns[pi]
			for _, ri := range rs.byPattern[pi] {
				r := &rs.rules[ri]
				if literalMatch(r.MatchType, upper, pattern) {
					out = append(out, ruleMatch{rule: r, index: ri, length: len(pattern)})
				}
			}
		}
	}

	for _, rr := range rs.regexes {
		if loc := rr.re.FindStringIndex(description); loc != nil {
			out = append(out, ruleMatch{rule: &rs.rules[rr.index], index: rr.index, length: loc[1] - loc[0]})
		}
	}
	return out
}

func literalMatch(t MatchType, upper, pattern string) bool {
	switch t {
	case MatchEquals:
		return upper == pattern
	case MatchStartsWith:
		return strings.HasPrefix(upper, pattern)
	case MatchContains:
		return strings.Contains(upper, pattern)
	}
	return false
}
