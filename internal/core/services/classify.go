package services

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// CategoryOther is assigned when no category keyword matches.
const CategoryOther = "other"

// filenameBonus is added per keyword found in the filename.
const filenameBonus = 5

type category struct {
	name     string
	keywords []string
}

// categories are scored in this order; earlier entries win ties.
var categories = []category{
	{"invoice", []string{"invoice", "bill", "payment due", "invoice number", "invoice date"}},
	{"contract", []string{"agreement", "contract", "parties", "terms and conditions", "whereas"}},
	{"shipping", []string{"bill of lading", "vessel", "cargo", "shipment", "container", "port"}},
	{"inspection", []string{"inspection", "inspection report", "quality", "certificate", "compliance"}},
	{"purchase_order", []string{"purchase order", "po number", "delivery date", "quantity ordered"}},
	{"report", []string{"report", "analysis", "findings", "executive summary", "conclusion"}},
	{"financial", []string{"balance", "statement", "transaction", "account", "credit", "debit"}},
	{"correspondence", []string{"dear", "sincerely", "regards", "letter", "memo", "email"}},
}

// Categories returns the category names in scoring order, followed by CategoryOther.
func Categories() []string {
	names := make([]string, 0, len(categories)+1)
	for _, c := range categories {
		names = append(names, c.name)
	}
	return append(names, CategoryOther)
}

// Categorize scores every category by keyword occurrences in the text plus
// a bonus for keywords in the filename. The strictly highest positive score
// wins; CategoryOther is returned when nothing scores.
func Categorize(text, filename string) string {
	content := strings.ToLower(text)
	name := strings.ToLower(filename)

	best, bestScore := CategoryOther, 0
	for _, c := range categories {
		score := 0
		for _, kw := range c.keywords {
			score += strings.Count(content, kw)
			if strings.Contains(name, kw) {
				score += filenameBonus
			}
		}
		if score > bestScore {
			best, bestScore = c.name, score
		}
	}
	return best
}

// Confidence rates how much usable signal processing found, in [0,1].
func Confidence(text string, entityCount int) float64 {
	score := 0.0
	if text != "" {
		score += 0.3
		chars := utf8.RuneCountInString(text)
		if chars > 100 {
			score += 0.2
		}
		if chars > 1000 {
			score += 0.1
		}
	}

	if entityCount > 0 {
		score += 0.2
	}
	if entityCount > 5 {
		score += 0.1
	}
	if entityCount > 10 {
		score += 0.1
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

const (
	summarySentences    = 3
	summaryMinSentence  = 20
	summaryFallbackText = "Document content appears to be structured data or very brief text."
)

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

// Summarize joins the first few substantial sentences of text.
func Summarize(text string) string {
	var picked []string
	for _, s := range sentenceSplit.Split(text, -1) {
		s = strings.TrimSpace(s)
		if len(s) <= summaryMinSentence {
			continue
		}
		picked = append(picked, s)
		if len(picked) == summarySentences {
			break
		}
	}
	if len(picked) == 0 {
		return summaryFallbackText
	}

	summary := strings.Join(picked, ". ")
	if !strings.HasSuffix(summary, ".") {
		summary += "."
	}
	return summary
}
