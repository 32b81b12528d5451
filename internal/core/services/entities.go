package services

import (
	"regexp"
	"strings"
)

// maxEntitiesPerKind caps each entity list.
const maxEntitiesPerKind = 10

// Entities holds values found by best-effort pattern matching.
type Entities struct {
	Amounts    []string `json:"amounts"`
	Dates      []string `json:"dates"`
	Companies  []string `json:"companies"`
	Products   []string `json:"products"`
	References []string `json:"references"`
	Emails     []string `json:"emails"`
	Phones     []string `json:"phones"`
}

// Count returns the total number of entities found.
func (e Entities) Count() int {
	return len(e.Amounts) + len(e.Dates) + len(e.Companies) + len(e.Products) +
		len(e.References) + len(e.Emails) + len(e.Phones)
}

// Map returns the entities as a metadata value.
func (e Entities) Map() map[string]any {
	return map[string]any{
		"amounts":    e.Amounts,
		"dates":      e.Dates,
		"companies":  e.Companies,
		"products":   e.Products,
		"references": e.References,
		"emails":     e.Emails,
		"phones":     e.Phones,
	}
}

var (
	amountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\$[\d,]+\.?\d*`),
		regexp.MustCompile(`€[\d,]+\.?\d*`),
		regexp.MustCompile(`£[\d,]+\.?\d*`),
		regexp.MustCompile(`(?i)USD\s*[\d,]+\.?\d*`),
		regexp.MustCompile(`(?i)EUR\s*[\d,]+\.?\d*`),
		regexp.MustCompile(`(?i)[\d,]+\.\d{2}\s*USD`),
	}
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`),
		regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
		regexp.MustCompile(`(?i)\b\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{4}\b`),
	}
	companyPattern    = regexp.MustCompile(`\b[A-Z][a-zA-Z ]+(?:Ltd|Inc|Corp|LLC|AG|plc|GmbH)\b`)
	referencePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:INV|PO|CONTRACT)[-\s]*\d+\b`),
		regexp.MustCompile(`\b[A-Z]{2,4}[-\s]*\d{4,}\b`),
	}
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePattern = regexp.MustCompile(`\b\d{3}-\d{3}-\d{4}\b|\(\d{3}\)\s*\d{3}-\d{4}`)

	productKeywords = []string{
		"copper", "aluminum", "zinc", "lead", "nickel", "tin",
		"concentrate", "cathode", "wire rod", "ingot", "billet",
	}
)

// ExtractEntities finds amounts, dates, companies, products, reference
// numbers, emails and phone numbers in text. Each list is de-duplicated in
// order of first appearance and capped.
func ExtractEntities(text string) Entities {
	var e Entities
	if text == "" {
		return e
	}

	e.Amounts = matchAll(text, amountPatterns...)
	e.Dates = matchAll(text, datePatterns...)
	e.Companies = matchAll(text, companyPattern)
	e.References = matchAll(text, referencePatterns...)
	e.Emails = matchAll(text, emailPattern)
	e.Phones = matchAll(text, phonePattern)

	lower := strings.ToLower(text)
	var products []string
	for _, kw := range productKeywords {
		if strings.Contains(lower, kw) {
			products = append(products, titleCase(kw))
		}
	}
	e.Products = capUnique(products)

	return e
}

func matchAll(text string, patterns ...*regexp.Regexp) []string {
	var found []string
	for _, p := range patterns {
		for _, m := range p.FindAllString(text, -1) {
			found = append(found, strings.TrimSpace(m))
		}
	}
	return capUnique(found)
}

func capUnique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
		if len(out) == maxEntitiesPerKind {
			break
		}
	}
	return out
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
