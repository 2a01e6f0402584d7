// Package timeline lays scenes and transitions end to end and answers,
// for any global frame, which scene or pair of scenes is on screen.
package timeline

import (
	"errors"
	"fmt"
	"image"
	"sort"

	"github.com/ivlev/promo2video/internal/renderer"
	"github.com/ivlev/promo2video/internal/transition"
)

var (
	// ErrFrameOutOfRange is returned for frames outside [0, TotalFrames).
	ErrFrameOutOfRange = errors.New("timeline: frame out of range")
	// ErrInvalidTimeline wraps every structural problem found by Build.
	ErrInvalidTimeline = errors.New("timeline: invalid timeline")
	// ErrFrameSize is returned when a scene renders a frame of the wrong
	// size.
	ErrFrameSize = errors.New("timeline: frame size mismatch")
)

// Scene is the part of a scene the timeline needs.
type Scene interface {
	ID() string
	DurationInFrames() int
	// Size is the width and height of every rendered frame.
	Size() (width, height int)
	Render(localFrame int) (*image.RGBA, error)
}

// Entry is a SceneEntry or a TransitionEntry.
type Entry interface {
	isEntry()
}

type SceneEntry struct {
	Scene Scene
}

type TransitionEntry struct {
	Transition *transition.Transition
}

func (SceneEntry) isEntry()      {}
func (TransitionEntry) isEntry() {}

// Metadata describes the rendered video. Build fills TotalFrames.
type Metadata struct {
	FrameRate   float64
	Width       int
	Height      int
	TotalFrames int
}

// Artifact is an extra file the exporter should write while rendering,
// such as a thumbnail at a given frame.
type Artifact struct {
	Kind     string
	Filename string
	Frame    int
}

// Span is where one scene sits on the global timeline. End is exclusive.
// OverlapIn and OverlapOut are the transition windows shared with the
// previous and next scenes.
type Span struct {
	Index      int
	ID         string
	Start      int
	End        int
	OverlapIn  int
	OverlapOut int
	// TransitionIn names the presentation blending into this scene, if any.
	TransitionIn string
}

// Composition is an immutable, validated timeline.
type Composition struct {
	meta        Metadata
	scenes      []Scene
	spans       []Span
	transitions []*transition.Transition // transitions[i] sits between scene i and i+1; nil for a cut
	artifacts   []Artifact
}

// Build validates the entries and computes every scene's offset in one
// pass: each scene starts where the previous one ends minus the overlap
// of the transition between them.
func Build(meta Metadata, entries ...Entry) (*Composition, error) {
	if meta.FrameRate <= 0 {
		return nil, fmt.Errorf("%w: frame rate must be positive, got %g", ErrInvalidTimeline, meta.FrameRate)
	}
	if meta.Width <= 0 || meta.Height <= 0 {
		return nil, fmt.Errorf("%w: invalid size %dx%d", ErrInvalidTimeline, meta.Width, meta.Height)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no entries", ErrInvalidTimeline)
	}

	c := &Composition{meta: meta}
	var pending *transition.Transition
	for i, e := range entries {
		switch e := e.(type) {
		case SceneEntry:
			if e.Scene == nil {
				return nil, fmt.Errorf("%w: entry %d has no scene", ErrInvalidTimeline, i)
			}
			if e.Scene.DurationInFrames() <= 0 {
				return nil, fmt.Errorf("%w: scene %q has duration %d", ErrInvalidTimeline, e.Scene.ID(), e.Scene.DurationInFrames())
			}
			if w, h := e.Scene.Size(); w != meta.Width || h != meta.Height {
				return nil, fmt.Errorf("%w: scene %q is %dx%d, the composition is %dx%d",
					ErrInvalidTimeline, e.Scene.ID(), w, h, meta.Width, meta.Height)
			}
			if len(c.scenes) > 0 {
				c.transitions = append(c.transitions, pending)
			}
			c.scenes = append(c.scenes, e.Scene)
			pending = nil
		case TransitionEntry:
			if e.Transition == nil {
				return nil, fmt.Errorf("%w: entry %d has no transition", ErrInvalidTimeline, i)
			}
			if err := e.Transition.Validate(); err != nil {
				return nil, fmt.Errorf("%w: entry %d: %v", ErrInvalidTimeline, i, err)
			}
			if len(c.scenes) == 0 {
				return nil, fmt.Errorf("%w: timeline starts with a transition", ErrInvalidTimeline)
			}
			if pending != nil {
				return nil, fmt.Errorf("%w: two transitions in a row at entry %d", ErrInvalidTimeline, i)
			}
			pending = e.Transition
		default:
			return nil, fmt.Errorf("%w: entry %d has unknown type %T", ErrInvalidTimeline, i, e)
		}
	}
	if pending != nil {
		return nil, fmt.Errorf("%w: timeline ends with a transition", ErrInvalidTimeline)
	}

	position := 0
	for i, s := range c.scenes {
		span := Span{Index: i, ID: s.ID(), Start: position}
		if i > 0 {
			span.OverlapIn = c.overlap(i - 1)
			if t := c.transitions[i-1]; t != nil {
				span.TransitionIn = t.Presentation
			}
		}
		if i < len(c.transitions) {
			span.OverlapOut = c.overlap(i)
		}
		d := s.DurationInFrames()
		if span.OverlapIn > d || span.OverlapOut > d {
			return nil, fmt.Errorf("%w: transition longer than scene %q (%d frames)", ErrInvalidTimeline, s.ID(), d)
		}
		if span.OverlapIn+span.OverlapOut > d {
			return nil, fmt.Errorf("%w: transitions around scene %q overlap each other (%d+%d > %d)",
				ErrInvalidTimeline, s.ID(), span.OverlapIn, span.OverlapOut, d)
		}
		span.End = position + d
		c.spans = append(c.spans, span)
		position += d - span.OverlapOut
	}
	c.meta.TotalFrames = c.spans[len(c.spans)-1].End
	return c, nil
}

func (c *Composition) overlap(i int) int {
	if t := c.transitions[i]; t != nil {
		return t.Overlap
	}
	return 0
}

// WithArtifacts returns a copy of the composition carrying artifacts.
// Every artifact frame must be inside the timeline.
func (c *Composition) WithArtifacts(artifacts ...Artifact) (*Composition, error) {
	for _, a := range artifacts {
		if a.Frame < 0 || a.Frame >= c.meta.TotalFrames {
			return nil, fmt.Errorf("%w: artifact %q at frame %d", ErrFrameOutOfRange, a.Filename, a.Frame)
		}
		if a.Filename == "" {
			return nil, fmt.Errorf("%w: artifact without a filename", ErrInvalidTimeline)
		}
	}
	cp := *c
	cp.artifacts = append(append([]Artifact(nil), c.artifacts...), artifacts...)
	return &cp, nil
}

func (c *Composition) Metadata() Metadata { return c.meta }

// Spans is the offset table, one row per scene.
func (c *Composition) Spans() []Span {
	return append([]Span(nil), c.spans...)
}

// Artifacts lists the artifacts requested at frame.
func (c *Composition) Artifacts(frame int) []Artifact {
	var out []Artifact
	for _, a := range c.artifacts {
		if a.Frame == frame {
			out = append(out, a)
		}
	}
	return out
}

// Placement is a scene and the local frame it shows.
type Placement struct {
	Scene      Scene
	Index      int
	LocalFrame int
}

// Resolution is what is on screen at a global frame. Inside a transition
// window Incoming and Transition are set and Primary is the outgoing
// scene.
type Resolution struct {
	Frame         int
	Primary       Placement
	Incoming      *Placement
	Transition    *transition.Transition
	FrameInWindow int
}

// InTransition reports whether two scenes are blended.
func (r Resolution) InTransition() bool { return r.Incoming != nil }

// Resolve finds the scene or scenes active at frame.
func (c *Composition) Resolve(frame int) (Resolution, error) {
	if frame < 0 || frame >= c.meta.TotalFrames {
		return Resolution{}, fmt.Errorf("%w: %d not in [0, %d)", ErrFrameOutOfRange, frame, c.meta.TotalFrames)
	}
	// Last scene starting at or before frame.
	i := sort.Search(len(c.spans), func(k int) bool { return c.spans[k].Start > frame }) - 1
	span := c.spans[i]
	res := Resolution{
		Frame:   frame,
		Primary: Placement{Scene: c.scenes[i], Index: i, LocalFrame: frame - span.Start},
	}
	if i > 0 && frame < span.Start+span.OverlapIn {
		prev := c.spans[i-1]
		incoming := res.Primary
		res.Primary = Placement{Scene: c.scenes[i-1], Index: i - 1, LocalFrame: frame - prev.Start}
		res.Incoming = &incoming
		res.Transition = c.transitions[i-1]
		res.FrameInWindow = frame - span.Start
	}
	return res, nil
}

// RenderAt renders one global frame into a pooled frame owned by the
// caller.
func (c *Composition) RenderAt(frame int) (*image.RGBA, error) {
	res, err := c.Resolve(frame)
	if err != nil {
		return nil, err
	}
	out, err := c.renderScene(res.Primary)
	if err != nil {
		return nil, err
	}
	if !res.InTransition() {
		return out, nil
	}
	defer renderer.Release(out)

	in, err := c.renderScene(*res.Incoming)
	if err != nil {
		return nil, err
	}
	defer renderer.Release(in)
	return res.Transition.Render(out, in, res.FrameInWindow), nil
}

// renderScene renders a placement and rejects frames that disagree with
// the composition size.
func (c *Composition) renderScene(p Placement) (*image.RGBA, error) {
	img, err := p.Scene.Render(p.LocalFrame)
	if err != nil {
		return nil, fmt.Errorf("render scene %q: %w", p.Scene.ID(), err)
	}
	if b := img.Bounds(); b.Dx() != c.meta.Width || b.Dy() != c.meta.Height {
		renderer.Release(img)
		return nil, fmt.Errorf("%w: scene %q rendered %dx%d, want %dx%d",
			ErrFrameSize, p.Scene.ID(), b.Dx(), b.Dy(), c.meta.Width, c.meta.Height)
	}
	return img, nil
}
