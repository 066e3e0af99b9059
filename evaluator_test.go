package ngl

import (
	"math"
	"testing"
)

func TestEasingEvaluator_Evaluate(t *testing.T) {
	kfs := []Keyframe{
		{Time: 1, Value: 10},
		{Time: 3, Value: 20},
		{Time: 5, Value: 0, Easing: "quadratic_in"},
		{Time: 6, Value: 4, Easing: "unknown"},
	}
	tests := []struct {
		t    float64
		want float64
	}{
		{0, 10}, // before the first keyframe
		{1, 10}, // on a keyframe
		{2, 15}, // linear
		{3, 20},
		{4, 15}, // quadratic: 20 - 20*0.25
		{5.5, 2}, // unknown names are linear
		{6, 4},
		{100, 4}, // after the last keyframe
	}
	var e EasingEvaluator
	for _, tt := range tests {
		if got := e.Evaluate(kfs, tt.t); math.Abs(got-tt.want) > 1e-5 {
			t.Errorf("Evaluate(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestEasingEvaluator_SingleKeyframe(t *testing.T) {
	var e EasingEvaluator
	kfs := []Keyframe{{Time: 2, Value: 7}}
	for _, tm := range []float64{0, 2, 9} {
		if got := e.Evaluate(kfs, tm); got != 7 {
			t.Errorf("Evaluate(%v) = %v, want 7", tm, got)
		}
	}
	if got := e.Evaluate(nil, 1); got != 0 {
		t.Errorf("Evaluate(nil) = %v, want 0", got)
	}
}

func TestEasingEvaluator_Curves(t *testing.T) {
	// Every curve starts at the first value and ends at the second.
	for name := range easings {
		kfs := []Keyframe{{Time: 0, Value: 1}, {Time: 1, Value: 3, Easing: name}}
		e := EasingEvaluator{}
		if got := e.Evaluate(kfs, 1e-9); math.Abs(got-1) > 1e-2 {
			t.Errorf("%s: start = %v, want 1", name, got)
		}
		if got := e.Evaluate(kfs, 1-1e-7); math.Abs(got-3) > 1e-2 {
			t.Errorf("%s: end = %v, want 3", name, got)
		}
	}
}

type constEvaluator float64

func (c constEvaluator) Evaluate([]Keyframe, float64) float64 { return float64(c) }

func TestWithEvaluator(t *testing.T) {
	ctx := newTestContext(t, WithEvaluator(constEvaluator(42)))
	anim := AnimatedFloat(Keyframe{Time: 0, Value: 0}, Keyframe{Time: 1, Value: 1})
	mustSetScene(t, ctx, anim)
	mustDraw(t, ctx, 0.5)

	if got, _ := floatValue(anim); got != 42 {
		t.Errorf("value = %v, want 42", got)
	}
}
