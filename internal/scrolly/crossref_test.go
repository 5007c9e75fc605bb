package scrolly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDescription(t *testing.T) {
	tests := []struct {
		in   string
		want []Segment
	}{
		{"", nil},
		{"plain text", []Segment{{Text: "plain text"}}},
		{"[[.env]]", []Segment{{Text: ".env", Ref: true}}},
		{
			"Works with labels or [[.env]] files",
			[]Segment{{Text: "Works with labels or "}, {Text: ".env", Ref: true}, {Text: " files"}},
		},
		{
			"[[a]][[b]] end",
			[]Segment{{Text: "a", Ref: true}, {Text: "b", Ref: true}, {Text: " end"}},
		},
		{"broken [[ref", []Segment{{Text: "broken [[ref"}}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDescription(tt.in))
		})
	}
}

func TestParagraphs(t *testing.T) {
	got := Paragraphs("First.\n\nSecond\nline.\n\n\n  \n\nThird.")
	assert.Equal(t, []string{"First.", "Second\nline.", "Third."}, got)
	assert.Nil(t, Paragraphs("  "))
}

func TestCheckRefs(t *testing.T) {
	ok, err := NewCatalog("ok", []Step{{
		Description: "see [[.env]]",
		Tabs:        []Tab{tab("compose.yaml", "x"), tab(".env", "y")},
	}})
	require.NoError(t, err)
	assert.NoError(t, CheckRefs(ok))

	bad, err := NewCatalog("bad", []Step{
		{Description: "see [[.env]]", Tabs: []Tab{tab("compose.yaml", "x")}},
		{Description: "and [[other]]", Tabs: []Tab{tab("compose.yaml", "x")}},
	})
	require.NoError(t, err)
	err = CheckRefs(bad)
	assert.ErrorIs(t, err, ErrDanglingRef)
	assert.Contains(t, err.Error(), `"other"`)
}
