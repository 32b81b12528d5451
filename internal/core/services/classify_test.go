package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		filename string
		want     string
	}{
		{
			name:     "invoice keywords",
			text:     "Invoice number 42. Payment due within 30 days. Please pay this invoice.",
			filename: "doc.txt",
			want:     "invoice",
		},
		{
			name:     "contract keywords",
			text:     "This agreement is made between the parties. Whereas the contract applies.",
			filename: "doc.txt",
			want:     "contract",
		},
		{
			name:     "filename bonus outweighs body",
			text:     "The balance of the account is shown below.",
			filename: "inspection_2024.txt",
			want:     "inspection",
		},
		{
			name:     "no keywords",
			text:     "Lorem ipsum dolor sit amet.",
			filename: "notes.txt",
			want:     CategoryOther,
		},
		{
			name:     "empty text",
			text:     "",
			filename: "",
			want:     CategoryOther,
		},
		{
			name:     "tie goes to earlier category",
			text:     "invoice agreement",
			filename: "x.txt",
			want:     "invoice",
		},
		{
			name:     "case insensitive",
			text:     "BILL OF LADING for VESSEL with CARGO",
			filename: "X.TXT",
			want:     "shipping",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.text, tt.filename))
		})
	}
}

func TestCategories(t *testing.T) {
	cats := Categories()

	assert.Len(t, cats, 9)
	assert.Equal(t, "invoice", cats[0])
	assert.Equal(t, CategoryOther, cats[len(cats)-1])
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		entities int
		want     float64
	}{
		{"empty", "", 0, 0},
		{"short text", "hello", 0, 0.3},
		{"medium text", strings.Repeat("a", 101), 0, 0.5},
		{"long text", strings.Repeat("a", 1001), 0, 0.6},
		{"long text with entities", strings.Repeat("a", 1001), 3, 0.8},
		{"many entities", strings.Repeat("a", 1001), 11, 1.0},
		{"entities without text", "", 6, 0.3},
		{"multibyte counts characters", strings.Repeat("ж", 60), 0, 0.3},
		{"multibyte medium text", strings.Repeat("ж", 101), 0, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Confidence(tt.text, tt.entities), 1e-9)
		})
	}
}

func TestConfidence_Bounded(t *testing.T) {
	for _, n := range []int{0, 1, 6, 11, 1000} {
		c := Confidence(strings.Repeat("x", 5000), n)
		assert.GreaterOrEqual(t, c, 0.0)
		assert.LessOrEqual(t, c, 1.0)
	}
}

func TestSummarize(t *testing.T) {
	t.Run("takes first three long sentences", func(t *testing.T) {
		text := "Short one. This sentence is long enough to count. " +
			"Here is another sentence that qualifies! Is this the third long sentence? " +
			"This fourth long sentence is never included."

		got := Summarize(text)

		assert.Equal(t, "This sentence is long enough to count. "+
			"Here is another sentence that qualifies. "+
			"Is this the third long sentence.", got)
	})

	t.Run("fallback for brief text", func(t *testing.T) {
		assert.Equal(t, summaryFallbackText, Summarize("a,b,c\n1,2,3"))
	})

	t.Run("empty text", func(t *testing.T) {
		assert.Equal(t, summaryFallbackText, Summarize(""))
	})
}
