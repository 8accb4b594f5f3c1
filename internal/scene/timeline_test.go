package scene

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type box struct{ v float64 }

func TestEasing(t *testing.T) {
	assert.Equal(t, 0.0, EaseCubicInOut(0))
	assert.Equal(t, 0.5, EaseCubicInOut(0.5))
	assert.Equal(t, 1.0, EaseCubicInOut(1))
	assert.Less(t, EaseCubicInOut(0.25), 0.25)
	assert.Greater(t, EaseCubicInOut(0.75), 0.75)
	assert.Equal(t, 0.3, EaseLinear(0.3))
	assert.Equal(t, 5.0, Lerp(0, 10, 0.5))
}

func TestTimeline_StepProgress(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tl := NewTimeline(clock)
	b := &box{}

	var outcome []Outcome
	tl.Animate(b, PropAppearance, 100*time.Millisecond, func(f float64) { b.v = Lerp(0, 10, f) }).
		Ease(EaseLinear).
		OnEnd(func(o Outcome) { outcome = append(outcome, o) })

	assert.Equal(t, 1, tl.Step())
	assert.Zero(t, b.v)

	clock.Advance(25 * time.Millisecond)
	tl.Step()
	assert.InDelta(t, 2.5, b.v, 1e-9)
	assert.True(t, tl.Active(b, PropAppearance))

	clock.Advance(time.Second)
	assert.Zero(t, tl.Step())
	assert.Equal(t, 10.0, b.v)
	assert.Equal(t, []Outcome{Completed}, outcome)
	assert.False(t, tl.Active(b, PropAppearance))
}

func TestTimeline_SameSlotInterrupts(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tl := NewTimeline(clock)
	b := &box{}

	var first, second []Outcome
	tl.Animate(b, PropGroupOpacity, time.Second, func(f float64) { b.v = Lerp(1, 0, f) }).
		Ease(EaseLinear).
		OnEnd(func(o Outcome) { first = append(first, o) })

	clock.Advance(500 * time.Millisecond)
	tl.Step()
	require.InDelta(t, 0.5, b.v, 1e-9)

	from := b.v
	tl.Animate(b, PropGroupOpacity, time.Second, func(f float64) { b.v = Lerp(from, 1, f) }).
		Ease(EaseLinear).
		OnEnd(func(o Outcome) { second = append(second, o) })
	assert.Equal(t, []Outcome{Interrupted}, first)
	assert.Equal(t, 1, tl.Len())

	clock.Advance(2 * time.Second)
	tl.Step()
	assert.Equal(t, 1.0, b.v)
	assert.Equal(t, []Outcome{Interrupted}, first, "interrupted transitions end once")
	assert.Equal(t, []Outcome{Completed}, second)
}

func TestTimeline_DistinctPropertiesRunTogether(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tl := NewTimeline(clock)
	b := &box{}

	tl.Animate(b, PropAppearance, time.Second, func(float64) {})
	tl.Animate(b, PropTransform, time.Second, func(float64) {})
	tl.Animate(&box{}, PropAppearance, time.Second, func(float64) {})
	assert.Equal(t, 3, tl.Len())

	assert.True(t, tl.Interrupt(b, PropTransform))
	assert.False(t, tl.Interrupt(b, PropTransform))
	assert.Equal(t, 2, tl.Len())
}

func TestTimeline_ZeroDurationCompletesOnNextStep(t *testing.T) {
	tl := NewTimeline(clockwork.NewFakeClock())
	b := &box{}
	tl.Animate(b, PropAppearance, 0, func(f float64) { b.v = f })

	assert.Zero(t, tl.Step())
	assert.Equal(t, 1.0, b.v)
}

func TestTimeline_FinishRunsChainedTransitions(t *testing.T) {
	tl := NewTimeline(clockwork.NewFakeClock())
	b := &box{}

	tl.Animate(b, PropAppearance, time.Second, func(f float64) { b.v = f }).
		OnEnd(func(o Outcome) {
			if o == Completed {
				tl.Animate(b, PropAppearance, time.Second, func(f float64) { b.v = 1 + f })
			}
		})

	tl.Finish()
	assert.Zero(t, tl.Len())
	assert.Equal(t, 2.0, b.v)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "completed", Completed.String())
	assert.Equal(t, "interrupted", Interrupted.String())
}
