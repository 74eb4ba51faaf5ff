package keyword

import (
	"strings"

	"github.com/gdprscan/gdprscan/internal/model"
)

// Score computes the heuristic relevance of a single link against the
// profile. Each phrase at priority index i carries weight N-i (N = phrase
// count). If all of a phrase's words occur in the anchor text the link earns
// twice the weight; if all occur in the href it earns the weight once; both
// can apply. The sum over all phrases is the link score.
func (p Profile) Score(link model.CandidateLink) int {
	n := len(p)
	href := strings.ToLower(link.Href)
	anchor := strings.ToLower(link.AnchorText)

	score := 0
	for i, phrase := range p {
		weight := n - i
		words := strings.Fields(strings.ToLower(phrase))
		if len(words) == 0 {
			continue
		}
		if containsAll(anchor, words) {
			score += 2 * weight
		}
		if containsAll(href, words) {
			score += weight
		}
	}
	return score
}

// Best returns the highest-scoring link. Ties are broken by shorter href.
// The second return value is false when the set is empty or every link
// scores zero.
//
// Best is a pure function: identical (links, profile) inputs always yield
// the identical winner. It performs no I/O and never consults the
// classifier, which is what makes it a safe fallback when the classifier
// proposes a URL outside the candidate set.
func (p Profile) Best(links []model.CandidateLink) (model.CandidateLink, bool) {
	var winner model.CandidateLink
	bestScore := 0

	for _, link := range links {
		score := p.Score(link)
		if score == 0 {
			continue
		}
		switch {
		case score > bestScore:
			winner = link
			bestScore = score
		case score == bestScore && len(link.Href) < len(winner.Href):
			winner = link
		}
	}

	return winner, bestScore > 0
}

// containsAll reports whether every word occurs in s as a substring.
func containsAll(s string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(s, w) {
			return false
		}
	}
	return true
}
