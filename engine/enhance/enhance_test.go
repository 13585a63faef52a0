package enhance

import (
	"reflect"
	"strings"
	"testing"

	"github.com/tickerlens/tickerlens/engine/domain"
)

func TestInferCategory(t *testing.T) {
	cases := []struct {
		title string
		want  domain.Category
	}{
		{"Market Update: SPX Levels for Monday", domain.CategoryDailyUpdate},
		{"Daily Recap - Volatility Crush", domain.CategoryDailyUpdate},
		{"0DTE Flows Explained by the Numbers", domain.CategoryDailyUpdate}, // daily beats educational
		{"Gamma Levels for the Week", domain.CategoryDailyUpdate},
		{"What is Implied Volatility?", domain.CategoryEducational},
		{"Options 101: The Greeks", domain.CategoryEducational},
		{"Understanding Dealer Positioning", domain.CategoryEducational},
		{"Interview with a Market Maker", domain.CategoryInterview},
		{"Q&A: Your Options Questions", domain.CategoryInterview},
		{"FOMC Day Live Coverage", domain.CategorySpecialEvent},
		{"NVDA Earnings Preview", domain.CategorySpecialEvent},
		{"Random Stream Title", domain.CategoryUncategorized},
		{"", domain.CategoryUncategorized},
	}
	for _, c := range cases {
		if got := InferCategory(c.title); got != c.want {
			t.Errorf("InferCategory(%q) = %q, want %q", c.title, got, c.want)
		}
	}
}

func TestInferCategoryPrecedence(t *testing.T) {
	// Matches both daily_update ("market update") and educational
	// ("explained"); group order decides.
	title := "Market Update Explained"
	if got := InferCategory(title); got != domain.CategoryDailyUpdate {
		t.Errorf("InferCategory(%q) = %q, want daily_update by precedence", title, got)
	}
}

func TestScoreQuality(t *testing.T) {
	// 10 minutes of content. Keyword list entries appear verbatim so the
	// substring match counts them.
	dense := strings.Repeat("word ", 1200) +
		"gamma delta theta vega implied volatility skew vix"
	quality, wpm, tech := ScoreQuality(dense, 600)
	if quality != domain.QualityHigh {
		t.Errorf("quality = %q, want high (wpm=%d tech=%d)", quality, wpm, tech)
	}
	if wpm < 120 {
		t.Errorf("wpm = %d, want >= 120", wpm)
	}
	if tech < 5 {
		t.Errorf("tech = %d, want >= 5", tech)
	}
}

func TestScoreQualityTiers(t *testing.T) {
	cases := []struct {
		name     string
		words    int
		keywords string
		duration int
		want     domain.Quality
	}{
		{"medium", 1000, "gamma vix", 600, domain.QualityMedium},
		{"low density no keywords", 500, "", 600, domain.QualityLow},
		{"below low", 200, "gamma delta theta vega vix skew", 600, domain.QualityNone},
		{"high wpm few keywords is low", 1500, "gamma", 600, domain.QualityLow},
	}
	for _, c := range cases {
		content := strings.Repeat("word ", c.words) + c.keywords
		if got, wpm, tech := ScoreQuality(content, c.duration); got != c.want {
			t.Errorf("%s: quality = %q (wpm=%d tech=%d), want %q", c.name, got, wpm, tech, c.want)
		}
	}
}

func TestScoreQualityMissingInputs(t *testing.T) {
	for _, c := range []struct {
		name     string
		content  string
		duration int
	}{
		{"empty content", "", 600},
		{"zero duration", "gamma delta vix", 0},
		{"negative duration", "gamma delta vix", -5},
	} {
		quality, wpm, tech := ScoreQuality(c.content, c.duration)
		if quality != domain.QualityNone || wpm != 0 || tech != 0 {
			t.Errorf("%s: got (%q, %d, %d), want (none, 0, 0)", c.name, quality, wpm, tech)
		}
	}
}

func TestScoreQualityCountsKeywordsOnce(t *testing.T) {
	content := strings.Repeat("gamma gamma gamma ", 100)
	_, _, tech := ScoreQuality(content, 60)
	// "gamma" plus the "iv" substring inside itself do not apply; only
	// distinct list entries found in the text count.
	if tech != 1 {
		t.Errorf("tech = %d, want 1 distinct keyword", tech)
	}
}

func TestNormalizeDate(t *testing.T) {
	cases := []struct{ in, want string }{
		{"2024-03-05T14:30:00Z", "2024-03-05"},
		{"2024-03-05T14:30:00+02:00", "2024-03-05"},
		{"2024-03-05T14:30:00", "2024-03-05"},
		{"2024-03-05", "2024-03-05"},
		{"March 5, 2024", "March 5, 2024"}, // unparseable passes through
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizeDate(c.in); got != c.want {
			t.Errorf("NormalizeDate(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestEnhanceIsIdempotent(t *testing.T) {
	meta := domain.VideoMetadata{
		VideoID:     "v1",
		Title:       "What is Gamma Exposure?",
		PublishedAt: "2024-03-05T14:30:00Z",
	}
	content := strings.Repeat("word ", 900) + "gamma delta vix"

	once := Enhance(meta, content, 600)
	twice := Enhance(once, content, 600)

	if once.Category != domain.CategoryEducational {
		t.Errorf("category = %q", once.Category)
	}
	if once.PublishedDate != "2024-03-05" {
		t.Errorf("published date = %q", once.PublishedDate)
	}
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Enhance not idempotent:\n once: %+v\ntwice: %+v", once, twice)
	}
}
