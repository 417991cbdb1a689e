package skills

import (
	"regexp"
	"strings"

	"github.com/agentcore/core/internal/core/types"
)

const (
	matchThreshold   = 0.3
	executeThreshold = 0.7
	maxMatches       = 3
)

// score implements 0.5*keyword_overlap + 0.3*(name/description substring) + 0.2*success_rate.
func score(intent string, sk *types.Skill) float64 {
	intentLower := strings.ToLower(intent)

	keywordHits := 0
	for _, kw := range sk.Pattern.IntentKeywords {
		if strings.Contains(intentLower, strings.ToLower(kw)) {
			keywordHits++
		}
	}
	keywordOverlap := 0.0
	if len(sk.Pattern.IntentKeywords) > 0 {
		keywordOverlap = float64(keywordHits) / float64(len(sk.Pattern.IntentKeywords))
	}

	substringScore := 0.0
	if strings.Contains(intentLower, strings.ToLower(sk.Name)) ||
		strings.Contains(intentLower, strings.ToLower(sk.Description)) {
		substringScore = 1.0
	}

	return 0.5*keywordOverlap + 0.3*substringScore + 0.2*sk.SuccessRate
}

// Match pairs a Skill with the score it earned against a given intent.
type Match struct {
	Skill *types.Skill
	Score float64
}

// findMatching scores every skill against intent and returns the top
// matches with score above matchThreshold, highest first.
func findMatching(intent string, candidates []*types.Skill) []Match {
	var matches []Match
	for _, sk := range candidates {
		sc := score(intent, sk)
		if sc > matchThreshold {
			matches = append(matches, Match{Skill: sk, Score: sc})
		}
	}
	// simple insertion sort: candidate sets are small (predefined + learned)
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matches[j].Score > matches[j-1].Score; j-- {
			matches[j], matches[j-1] = matches[j-1], matches[j]
		}
	}
	if len(matches) > maxMatches {
		matches = matches[:maxMatches]
	}
	return matches
}

var (
	openLaunchRe = regexp.MustCompile(`(?i)\b(?:open|launch)\s+([a-zA-Z0-9 _-]+)`)
	urlRe        = regexp.MustCompile(`(?i)\b([a-zA-Z0-9-]+\.[a-zA-Z]{2,}(?:/\S*)?)`)
	searchForRe  = regexp.MustCompile(`(?i)search for\s+(.+)$`)
)

// extractParams pulls the small rule-set of parameters a skill's action
// templates reference: app name after "open/launch", a URL by
// dot-and-prefix heuristic, and a query after "search for".
func extractParams(request string) map[string]string {
	params := make(map[string]string)

	if m := openLaunchRe.FindStringSubmatch(request); m != nil {
		params["app_name"] = strings.TrimSpace(m[1])
	}
	if m := urlRe.FindStringSubmatch(request); m != nil {
		url := m[1]
		if !strings.HasPrefix(url, "http") {
			url = "https://" + url
		}
		params["url"] = url
	}
	if m := searchForRe.FindStringSubmatch(request); m != nil {
		params["query"] = strings.TrimSpace(m[1])
	}
	return params
}
