package scrolly

import (
	"fmt"
	"strings"
	"time"

	"github.com/manuschillerdev/doklab-site/internal/highlight"
)

// DefaultMaxTransition bounds the total length of a token transition.
const DefaultMaxTransition = 900 * time.Millisecond

// Normalized phases of a transition, as fractions of the maximum duration.
const (
	moveDuration  = 0.5
	enterDelay    = 0.5
	enterDuration = 0.5
)

// TokenBox is a measured token.
type TokenBox struct {
	ID   string
	Text string
	Rect Rect
}

// Move translates a persisting token from its old position.
type Move struct {
	ID     string
	DX, DY float64
}

// TransitionPlan describes how tokens get from the old code to the new code.
type TransitionPlan struct {
	Moves  []Move
	Enters []string
}

// Animation is a keyframe animation for a single element.
type Animation struct {
	ID        string
	Keyframes []Keyframe
	Timing    Timing
}

// MeasureTokens measures every non-blank token of code rendered under prefix.
func MeasureTokens(s Surface, prefix string, code *highlight.Code) ([]TokenBox, error) {
	if code == nil {
		return nil, nil
	}
	var boxes []TokenBox
	for i, line := range code.Lines {
		for j, tok := range line.Tokens {
			if strings.TrimSpace(tok.Text) == "" {
				continue
			}
			id := highlight.TokenID(prefix, i, j)
			r, err := s.Measure(id)
			if err != nil {
				return nil, fmt.Errorf("measure %s: %w", id, err)
			}
			boxes = append(boxes, TokenBox{ID: id, Text: tok.Text, Rect: r})
		}
	}
	return boxes, nil
}

// PlanTransitions matches tokens of prev and next by the longest common
// subsequence of their text. Matched tokens move from their old position,
// unmatched new tokens fade in.
func PlanTransitions(prev, next []TokenBox) TransitionPlan {
	n, m := len(prev), len(next)
	lcs := make([][]int, n+1)
	for i := range lcs {
		lcs[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if prev[i].Text == next[j].Text {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else {
				lcs[i][j] = max(lcs[i+1][j], lcs[i][j+1])
			}
		}
	}

	var plan TransitionPlan
	i, j := 0, 0
	for j < m {
		switch {
		case i < n && prev[i].Text == next[j].Text:
			plan.Moves = append(plan.Moves, Move{
				ID: next[j].ID,
				DX: prev[i].Rect.Left - next[j].Rect.Left,
				DY: prev[i].Rect.Top - next[j].Rect.Top,
			})
			i++
			j++
		case i < n && lcs[i+1][j] >= lcs[i][j+1]:
			i++
		default:
			plan.Enters = append(plan.Enters, next[j].ID)
			j++
		}
	}
	return plan
}

// Animations converts the plan into per-element animations. Moves without
// distance are skipped.
func (p TransitionPlan) Animations(maxDuration time.Duration) []Animation {
	if maxDuration <= 0 {
		maxDuration = DefaultMaxTransition
	}
	scale := func(f float64) time.Duration {
		return time.Duration(f * float64(maxDuration))
	}

	out := make([]Animation, 0, len(p.Moves)+len(p.Enters))
	for _, mv := range p.Moves {
		if mv.DX == 0 && mv.DY == 0 {
			continue
		}
		out = append(out, Animation{
			ID: mv.ID,
			Keyframes: []Keyframe{
				{"translate": fmt.Sprintf("%gpx %gpx", mv.DX, mv.DY)},
				{"translate": "0px 0px"},
			},
			Timing: Timing{Duration: scale(moveDuration), Easing: "ease-in-out"},
		})
	}
	for _, id := range p.Enters {
		out = append(out, Animation{
			ID:        id,
			Keyframes: []Keyframe{{"opacity": 0}, {"opacity": 1}},
			Timing:    Timing{Duration: scale(enterDuration), Delay: scale(enterDelay), Easing: "ease-out"},
		})
	}
	return out
}
