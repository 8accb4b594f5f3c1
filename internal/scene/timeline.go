package scene

import (
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
)

// Property names an animated aspect of an owner. An owner runs at most one
// transition per property; starting another interrupts the running one.
type Property string

const (
	// PropAppearance animates an element's radius and opacity (enter/exit).
	PropAppearance Property = "appearance"
	// PropTransform animates an element's view transform.
	PropTransform Property = "transform"
	// PropGroupOpacity animates a group's opacity (visibility fades).
	PropGroupOpacity Property = "group-opacity"
)

// Outcome tells an end callback how a transition finished.
type Outcome int

const (
	Completed Outcome = iota
	Interrupted
)

func (o Outcome) String() string {
	if o == Interrupted {
		return "interrupted"
	}
	return "completed"
}

// Ease maps linear progress in [0,1] to eased progress.
type Ease func(t float64) float64

// EaseLinear is the identity easing.
func EaseLinear(t float64) float64 { return t }

// EaseCubicInOut is symmetric cubic easing, the default for transitions.
func EaseCubicInOut(t float64) float64 {
	t *= 2
	if t <= 1 {
		return t * t * t / 2
	}
	t -= 2
	return (t*t*t + 2) / 2
}

// Lerp interpolates linearly between a and b.
func Lerp(a, b, t float64) float64 { return a + (b-a)*t }

// Transition is a running animation of one property of one owner.
type Transition struct {
	owner    any
	prop     Property
	start    time.Time
	duration time.Duration
	ease     Ease
	step     func(t float64)
	onEnd    []func(Outcome)
	seq      uint64
}

// Ease sets the easing function.
func (tr *Transition) Ease(e Ease) *Transition {
	tr.ease = e
	return tr
}

// OnEnd registers a callback run once when the transition completes or is interrupted.
func (tr *Transition) OnEnd(fn func(Outcome)) *Transition {
	tr.onEnd = append(tr.onEnd, fn)
	return tr
}

func (tr *Transition) end(o Outcome) {
	for _, fn := range tr.onEnd {
		fn(o)
	}
}

type slot struct {
	owner any
	prop  Property
}

// Timeline drives transitions off a clock. It is not safe for concurrent use;
// the map's event loop owns it and calls Step once per frame.
type Timeline struct {
	clock  clockwork.Clock
	active map[slot]*Transition
	seq    uint64
}

// NewTimeline creates a timeline reading time from clock.
func NewTimeline(clock clockwork.Clock) *Timeline {
	return &Timeline{
		clock:  clock,
		active: make(map[slot]*Transition),
	}
}

// Animate starts a transition of prop on owner lasting d. step receives eased
// progress in [0,1] on every frame, and is called with 1 exactly once at the
// end. Any transition already running for the same owner and property is
// interrupted first.
func (tl *Timeline) Animate(owner any, prop Property, d time.Duration, step func(t float64)) *Transition {
	tl.Interrupt(owner, prop)

	tl.seq++
	tr := &Transition{
		owner:    owner,
		prop:     prop,
		start:    tl.clock.Now(),
		duration: d,
		ease:     EaseCubicInOut,
		step:     step,
		seq:      tl.seq,
	}
	tl.active[slot{owner, prop}] = tr
	return tr
}

// Interrupt stops the transition of prop on owner, leaving the owner at its
// current mid-transition values. It reports whether one was running.
func (tl *Timeline) Interrupt(owner any, prop Property) bool {
	s := slot{owner, prop}
	tr, ok := tl.active[s]
	if !ok {
		return false
	}
	delete(tl.active, s)
	tr.end(Interrupted)
	return true
}

// Active reports whether prop on owner is transitioning.
func (tl *Timeline) Active(owner any, prop Property) bool {
	_, ok := tl.active[slot{owner, prop}]
	return ok
}

// Len returns the number of running transitions.
func (tl *Timeline) Len() int { return len(tl.active) }

// Step advances every running transition to the clock's current time and
// returns how many are still running. End callbacks may start new
// transitions; those first advance on the next Step.
func (tl *Timeline) Step() int {
	now := tl.clock.Now()
	for _, tr := range tl.running() {
		s := slot{tr.owner, tr.prop}
		if tl.active[s] != tr {
			continue // interrupted by an earlier callback in this frame
		}

		t := 1.0
		if tr.duration > 0 {
			t = float64(now.Sub(tr.start)) / float64(tr.duration)
		}
		if t < 0 {
			t = 0
		}
		if t >= 1 {
			tr.step(1)
			delete(tl.active, s)
			tr.end(Completed)
			continue
		}
		tr.step(tr.ease(t))
	}
	return len(tl.active)
}

// Finish jumps every transition to its end, including transitions started by
// end callbacks along the way.
func (tl *Timeline) Finish() {
	for rounds := 0; len(tl.active) > 0 && rounds < 64; rounds++ {
		for _, tr := range tl.running() {
			s := slot{tr.owner, tr.prop}
			if tl.active[s] != tr {
				continue
			}
			tr.step(1)
			delete(tl.active, s)
			tr.end(Completed)
		}
	}
}

func (tl *Timeline) running() []*Transition {
	out := make([]*Transition, 0, len(tl.active))
	for _, tr := range tl.active {
		out = append(out, tr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}
