package enhance

import (
	"regexp"

	"github.com/tickerlens/tickerlens/engine/domain"
)

// categoryPatterns pairs a category with its title patterns. Evaluation is
// in slice order and the first group with any matching pattern wins, so
// overlaps (a Q&A "explained" stream is educational, not interview) resolve
// by group precedence, never by pattern specificity. Do not reorder.
var categoryPatterns = []struct {
	category domain.Category
	patterns []*regexp.Regexp
}{
	{domain.CategoryDailyUpdate, compileAll(
		`market\s*(update|outlook|recap|review)`,
		`daily\s*(update|recap|market)`,
		`(monday|tuesday|wednesday|thursday|friday)\s*(update|market|recap)`,
		`(am|pm)\s*(update|market|outlook)`,
		`open\s*interest`,
		`gamma\s*(update|levels)`,
		`0dte|zero\s*dte`,
	)},
	{domain.CategoryEducational, compileAll(
		`(what|how|why|when)\s+(is|are|does|do)`,
		`explained|explaining|explains`,
		`introduction\s+to`,
		`tutorial|guide|basics`,
		`learn|learning|lesson`,
		`101|beginner|fundamental`,
		`understanding|understand`,
	)},
	{domain.CategoryInterview, compileAll(
		`interview|conversation|chat\s+with`,
		`q\s*&\s*a|q\s*and\s*a`,
		`ask\s+me\s+anything|ama`,
		`guest|featuring|with\s+\w+\s+\w+`,
		`discussion|discussing`,
	)},
	{domain.CategorySpecialEvent, compileAll(
		`fomc|fed\s*(meeting|decision)`,
		`earnings|opex|options\s*expiration`,
		`special\s*(event|report|update)`,
		`breaking|alert|urgent`,
		`year\s*(end|review)|annual`,
		`holiday|christmas|thanksgiving`,
	)},
}

// technicalKeywords drive quality scoring. Matching is case-insensitive
// substring; each keyword counts at most once per transcript.
var technicalKeywords = []string{
	"gamma", "delta", "theta", "vega", "implied volatility", "iv",
	"options chain", "strike price", "expiration", "hedging",
	"dealer positioning", "market maker", "volatility surface",
	"put/call ratio", "open interest", "volume", "skew",
	"vix", "vwap", "standard deviation", "probability",
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

// InferCategory matches a title against the ordered pattern table and
// returns the first matching category, or uncategorized.
func InferCategory(title string) domain.Category {
	if title == "" {
		return domain.CategoryUncategorized
	}
	for _, group := range categoryPatterns {
		for _, re := range group.patterns {
			if re.MatchString(title) {
				return group.category
			}
		}
	}
	return domain.CategoryUncategorized
}
