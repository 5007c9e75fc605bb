package scrolly

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tab(name, code string) Tab { return Tab{Name: name, Code: code} }

func TestNewCatalog(t *testing.T) {
	tests := []struct {
		name    string
		steps   []Step
		wantErr error
	}{
		{
			name:    "no steps",
			wantErr: ErrEmptyCatalog,
		},
		{
			name:    "step without tabs",
			steps:   []Step{{Title: "a"}},
			wantErr: ErrNoTabs,
		},
		{
			name:    "empty tab name",
			steps:   []Step{{Title: "a", Tabs: []Tab{tab("  ", "x")}}},
			wantErr: ErrEmptyTabName,
		},
		{
			name:    "duplicate tab",
			steps:   []Step{{Title: "a", Tabs: []Tab{tab("compose.yaml", "x"), tab("compose.yaml", "y")}}},
			wantErr: ErrDuplicateTab,
		},
		{
			name:  "valid",
			steps: []Step{{Title: "a", Tabs: []Tab{tab("compose.yaml", "x"), tab(".env", "y")}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCatalog("test", tt.steps)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, c)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.steps), c.Len())
		})
	}
}

func TestCatalog_Immutable(t *testing.T) {
	steps := []Step{{Title: "a", Tabs: []Tab{tab("compose.yaml", "x")}}}
	c, err := NewCatalog("test", steps)
	require.NoError(t, err)

	steps[0].Title = "changed"
	steps[0].Tabs[0].Code = "changed"

	got, ok := c.Step(0)
	require.True(t, ok)
	assert.Equal(t, "a", got.Title)
	assert.Equal(t, "x", got.Tabs[0].Code)

	all := c.Steps()
	all[0].Title = "changed again"
	got, _ = c.Step(0)
	assert.Equal(t, "a", got.Title)
}

func TestCatalog_Step(t *testing.T) {
	c := mustCatalog(t, 3)

	_, ok := c.Step(-1)
	assert.False(t, ok)
	_, ok = c.Step(3)
	assert.False(t, ok)
	s, ok := c.Step(2)
	assert.True(t, ok)
	assert.Equal(t, "step 2", s.Title)

	assert.True(t, c.Valid(0))
	assert.False(t, c.Valid(3))
}

func TestParseCatalog(t *testing.T) {
	src := `name: demo
steps:
  - title: First
    description: |-
      Hello.

      See [[.env]].
    tabs:
      - name: compose.yaml
        code: |-
          services:
            api:
              image: x
      - name: .env
        code: KEY=value
`
	c, err := ParseCatalog(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, "demo", c.Name())

	step, _ := c.Step(0)
	assert.Equal(t, []string{"compose.yaml", ".env"}, step.TabNames())
	assert.True(t, step.HasTab(".env"))
	assert.False(t, step.HasTab("config.yaml"))
	assert.Equal(t, "services:\n  api:\n    image: x", step.Tabs[0].Code)
}

func TestParseCatalog_Errors(t *testing.T) {
	_, err := ParseCatalog(strings.NewReader("name: x\nsteps:\n  - title: a\n    colour: red\n"))
	assert.Error(t, err, "unknown fields are rejected")

	_, err = ParseCatalog(strings.NewReader("name: x\nsteps: []\n"))
	assert.ErrorIs(t, err, ErrEmptyCatalog)
}

func mustCatalog(t testing.TB, n int) *Catalog {
	t.Helper()
	steps := make([]Step, n)
	for i := range steps {
		steps[i] = Step{
			Title: "step " + string(rune('0'+i)),
			Tabs:  []Tab{tab("compose.yaml", "services:\n  api:\n    image: v"+string(rune('0'+i)))},
		}
	}
	c, err := NewCatalog("test", steps)
	require.NoError(t, err)
	return c
}
