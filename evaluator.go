package ngl

import (
	"sort"

	"github.com/tanema/gween/ease"
)

// Keyframe is a value reached at a time. Easing names the curve used to
// interpolate from the previous keyframe to this one.
type Keyframe struct {
	Time   float64
	Value  float64
	Easing string
}

// Evaluator computes the value of an animation at time t. Keyframes are
// sorted by time and there is at least one.
type Evaluator interface {
	Evaluate(kfs []Keyframe, t float64) float64
}

// easings maps easing names to curves. Unknown names are linear.
var easings = map[string]ease.TweenFunc{
	"linear":           ease.Linear,
	"quadratic_in":     ease.InQuad,
	"quadratic_out":    ease.OutQuad,
	"quadratic_in_out": ease.InOutQuad,
	"cubic_in":         ease.InCubic,
	"cubic_out":        ease.OutCubic,
	"cubic_in_out":     ease.InOutCubic,
	"quartic_in":       ease.InQuart,
	"quartic_out":      ease.OutQuart,
	"quartic_in_out":   ease.InOutQuart,
	"sinus_in":         ease.InSine,
	"sinus_out":        ease.OutSine,
	"sinus_in_out":     ease.InOutSine,
	"exp_in":           ease.InExpo,
	"exp_out":          ease.OutExpo,
	"exp_in_out":       ease.InOutExpo,
	"circular_in":      ease.InCirc,
	"circular_out":     ease.OutCirc,
	"circular_in_out":  ease.InOutCirc,
	"elastic_in":       ease.InElastic,
	"elastic_out":      ease.OutElastic,
	"back_in":          ease.InBack,
	"back_out":         ease.OutBack,
	"bounce_in":        ease.InBounce,
	"bounce_out":       ease.OutBounce,
}

// EasingEvaluator interpolates keyframes with named easing curves. Before
// the first keyframe and after the last one the value holds.
type EasingEvaluator struct{}

// Evaluate implements Evaluator.
func (EasingEvaluator) Evaluate(kfs []Keyframe, t float64) float64 {
	if len(kfs) == 0 {
		return 0
	}
	if t <= kfs[0].Time {
		return kfs[0].Value
	}
	last := kfs[len(kfs)-1]
	if t >= last.Time {
		return last.Value
	}

	// First keyframe strictly after t; 0 < i < len(kfs).
	i := sort.Search(len(kfs), func(i int) bool { return kfs[i].Time > t })
	k0, k1 := kfs[i-1], kfs[i]
	d := k1.Time - k0.Time
	if d <= 0 {
		return k1.Value
	}
	fn, ok := easings[k1.Easing]
	if !ok {
		fn = ease.Linear
	}
	return float64(fn(float32(t-k0.Time), float32(k0.Value), float32(k1.Value-k0.Value), float32(d)))
}
