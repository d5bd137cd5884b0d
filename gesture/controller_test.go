package gesture

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/paulIordache/Architecture-Web/core"
	"github.com/paulIordache/Architecture-Web/geometry"
	"github.com/paulIordache/Architecture-Web/navigation"
	"github.com/paulIordache/Architecture-Web/placement"
)

// mockCapturer records capture calls and can fail on release.
type mockCapturer struct {
	captured   map[int]bool
	releaseErr error
	releases   int
}

func newMockCapturer() *mockCapturer {
	return &mockCapturer{captured: make(map[int]bool)}
}

func (m *mockCapturer) SetPointerCapture(id int) error {
	m.captured[id] = true
	return nil
}

func (m *mockCapturer) ReleasePointerCapture(id int) error {
	m.releases++
	delete(m.captured, id)
	return m.releaseErr
}

// topDown looks straight down from y=10 with a 90° fov, so NDC (x, y) lands
// near (x*(10-h), h, -y*(10-h)) on the plane at height h.
func topDown() geometry.Camera {
	return geometry.Camera{
		Position: core.Vec3{Y: 10},
		Up:       core.Vec3{Z: -1},
		FovY:     90,
		Aspect:   1,
	}
}

type harness struct {
	store    *placement.Store
	nav      *navigation.Arbiter
	capturer *mockCapturer
	selects  []core.ID
	begins   []core.ID
	commits  []Commit
}

func newHarness(t *testing.T, objs ...core.PlacedObject) *harness {
	t.Helper()
	h := &harness{
		store:    placement.NewStore(),
		nav:      navigation.NewArbiter(),
		capturer: newMockCapturer(),
	}
	for _, o := range objs {
		if err := h.store.Add(o); err != nil {
			t.Fatalf("Add() failed: %v", err)
		}
	}
	return h
}

func (h *harness) controller(id core.ID, opts Options) *Controller {
	return New(id, Config{
		Store:     h.store,
		Navigator: h.nav,
		Camera:    topDown,
		Capturer:  h.capturer,
		Options:   opts,
		Handlers: Handlers{
			OnSelect:            func(id core.ID) { h.selects = append(h.selects, id) },
			OnDragBegin:         func(id core.ID) { h.begins = append(h.begins, id) },
			OnPositionCommitted: func(c Commit) { h.commits = append(h.commits, c) },
		},
	})
}

func ev(pointer int, x, y float64, at time.Time) *PointerEvent {
	return &PointerEvent{PointerID: pointer, NDC: geometry.Vec2{X: x, Y: y}, Time: at}
}

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func TestPointerDown_ArmsAndDisablesNavigation(t *testing.T) {
	h := newHarness(t, core.PlacedObject{ID: 1})
	c := h.controller(1, Options{Selectable: true})

	down := ev(1, 0, 0, t0)
	c.PointerDown(down)

	if c.State() != Armed {
		t.Errorf("State() = %v, want armed", c.State())
	}
	if !down.Stopped() {
		t.Error("PointerDown() did not stop propagation")
	}
	if h.nav.Enabled() {
		t.Error("navigation still enabled during gesture")
	}
	if !h.capturer.captured[1] {
		t.Error("pointer 1 not captured")
	}
	if sess := h.store.ActiveDrag(); sess == nil || sess.ObjectID != 1 {
		t.Errorf("ActiveDrag() = %+v, want session for object 1", sess)
	}
}

func TestPointerUp_QuickStillPressIsClick(t *testing.T) {
	h := newHarness(t, core.PlacedObject{ID: 1})
	c := h.controller(1, Options{Selectable: true})

	c.PointerDown(ev(1, 0, 0, t0))
	c.PointerUp(ev(1, 0, 0, t0.Add(150*time.Millisecond)))

	if len(h.selects) != 1 || h.selects[0] != 1 {
		t.Errorf("selects = %v, want [1]", h.selects)
	}
	if len(h.commits) != 0 {
		t.Errorf("commits = %v, want none for a click", h.commits)
	}
	if !h.nav.Enabled() {
		t.Error("navigation not re-enabled after click")
	}
	if c.State() != Idle {
		t.Errorf("State() = %v, want idle", c.State())
	}
}

func TestPointerUp_ClickAlwaysBeatsMoveWhenStill(t *testing.T) {
	for _, ms := range []int{0, 1, 50, 199} {
		h := newHarness(t, core.PlacedObject{ID: 1, X: 0.3, Y: 0.2, Z: -0.4})
		c := h.controller(1, Options{Selectable: true})

		c.PointerDown(ev(1, 0.5, 0.5, t0))
		c.PointerUp(ev(1, -0.5, 0.1, t0.Add(time.Duration(ms)*time.Millisecond)))

		if len(h.commits) != 0 || len(h.selects) != 1 {
			t.Errorf("after %dms: commits=%d selects=%d, want 0 and 1", ms, len(h.commits), len(h.selects))
		}
	}
}

func TestPointerUp_SlowStillPressIsMove(t *testing.T) {
	h := newHarness(t, core.PlacedObject{ID: 1})
	c := h.controller(1, Options{Selectable: true})

	c.PointerDown(ev(1, 0, 0, t0))
	c.PointerUp(ev(1, 0, 0, t0.Add(400*time.Millisecond)))

	if len(h.selects) != 0 {
		t.Errorf("selects = %v, want none", h.selects)
	}
	if len(h.commits) != 1 {
		t.Fatalf("commits = %d, want 1", len(h.commits))
	}
	if h.commits[0].Final != h.commits[0].Start {
		t.Errorf("commit final = %+v, want unchanged start %+v", h.commits[0].Final, h.commits[0].Start)
	}
}

func TestPointerUp_QuickMovedPressIsMove(t *testing.T) {
	h := newHarness(t, core.PlacedObject{ID: 1})
	c := h.controller(1, Options{Selectable: true})

	c.PointerDown(ev(1, 0, 0, t0))
	c.PointerMove(ev(1, 0.2, 0, t0.Add(20*time.Millisecond)))
	c.PointerUp(ev(1, 0.2, 0, t0.Add(50*time.Millisecond)))

	if len(h.selects) != 0 {
		t.Errorf("selects = %v, want none after a moved press", h.selects)
	}
	if len(h.commits) != 1 {
		t.Fatalf("commits = %d, want 1", len(h.commits))
	}
}

func TestPointerUp_NotSelectable(t *testing.T) {
	h := newHarness(t, core.PlacedObject{ID: 1})
	c := h.controller(1, Options{})

	c.PointerDown(ev(1, 0, 0, t0))
	c.PointerUp(ev(1, 0, 0, t0.Add(10*time.Millisecond)))

	if len(h.selects) != 0 || len(h.commits) != 0 {
		t.Errorf("selects=%v commits=%v, want neither", h.selects, h.commits)
	}
}

func TestPointerMove_KeepsHeight(t *testing.T) {
	h := newHarness(t, core.PlacedObject{ID: 1, Y: 0.5, Rotation: 1})
	c := h.controller(1, Options{})

	c.PointerDown(ev(1, 0, 0, t0))
	moves := []geometry.Vec2{{X: 0.1, Y: 0.1}, {X: -0.4, Y: 0.3}, {X: 0.25, Y: -0.6}}
	for i, m := range moves {
		c.PointerMove(ev(1, m.X, m.Y, t0.Add(time.Duration(i+1)*100*time.Millisecond)))
	}
	c.PointerUp(ev(1, 0.25, -0.6, t0.Add(time.Second)))

	got, _ := h.store.Get(1)
	if got.Y != 0.5 {
		t.Errorf("stored Y = %v, want 0.5", got.Y)
	}
	if math.Abs(got.X-0.25*9.5) > 1e-9 || math.Abs(got.Z-0.6*9.5) > 1e-9 {
		t.Errorf("stored position = (%v, %v), want (%v, %v)", got.X, got.Z, 0.25*9.5, 0.6*9.5)
	}
	if got.Rotation != 1 {
		t.Errorf("stored rotation = %v, want 1", got.Rotation)
	}
	if len(h.commits) != 1 || h.commits[0].Final.Position.Y != 0.5 {
		t.Errorf("commits = %+v, want one with Y 0.5", h.commits)
	}
}

func TestPointerMove_FiresDragBeginOnce(t *testing.T) {
	h := newHarness(t, core.PlacedObject{ID: 1})
	c := h.controller(1, Options{})

	c.PointerDown(ev(1, 0, 0, t0))
	c.PointerMove(ev(1, 0.1, 0, t0))
	c.PointerMove(ev(1, 0.2, 0, t0))

	if c.State() != Dragging {
		t.Errorf("State() = %v, want dragging", c.State())
	}
	if len(h.begins) != 1 {
		t.Errorf("OnDragBegin fired %d times, want 1", len(h.begins))
	}
}

func TestPointerMove_DragBeginPrecedesFirstMove(t *testing.T) {
	h := newHarness(t, core.PlacedObject{ID: 1, X: 0.5})
	var seen []core.Vec3
	c := New(1, Config{
		Store:  h.store,
		Camera: topDown,
		Handlers: Handlers{
			OnDragBegin: func(id core.ID) {
				obj, _ := h.store.Get(id)
				seen = append(seen, obj.Position())
			},
		},
	})

	c.PointerDown(ev(1, 0, 0, t0))
	c.PointerMove(ev(1, 0.3, 0, t0))

	if len(seen) != 1 || seen[0] != (core.Vec3{X: 0.5}) {
		t.Errorf("OnDragBegin saw %+v, want the untouched start position", seen)
	}
	if got, _ := h.store.Get(1); got.X == 0.5 {
		t.Error("PointerMove() did not move the object")
	}
}

func TestPointerMove_NoIntersectionIsAbsorbed(t *testing.T) {
	h := newHarness(t, core.PlacedObject{ID: 1})
	c := New(1, Config{
		Store:     h.store,
		Navigator: h.nav,
		Camera: func() geometry.Camera {
			return geometry.Camera{Position: core.Vec3{Y: 1}, Target: core.Vec3{Y: 1, Z: -1}, Up: core.Vec3{Y: 1}, FovY: 50, Aspect: 1}
		},
	})

	c.PointerDown(ev(1, 0, 0, t0))
	c.PointerMove(ev(1, 0, 0.5, t0))

	if c.State() != Armed {
		t.Errorf("State() = %v, want armed after a miss", c.State())
	}
	if got, _ := h.store.Get(1); got.Position() != (core.Vec3{}) {
		t.Errorf("position = %+v, want unchanged", got.Position())
	}
}

func TestPointerMove_IgnoresOtherPointer(t *testing.T) {
	h := newHarness(t, core.PlacedObject{ID: 1})
	c := h.controller(1, Options{})

	c.PointerDown(ev(1, 0, 0, t0))
	other := ev(2, 0.5, 0.5, t0)
	c.PointerMove(other)

	if other.Stopped() {
		t.Error("foreign pointer event was consumed")
	}
	if got, _ := h.store.Get(1); got.Position() != (core.Vec3{}) {
		t.Errorf("position = %+v, want unchanged", got.Position())
	}
}

func TestPointerDown_SecondPointerIgnored(t *testing.T) {
	h := newHarness(t, core.PlacedObject{ID: 1}, core.PlacedObject{ID: 2})
	a := h.controller(1, Options{})
	b := h.controller(2, Options{})

	a.PointerDown(ev(1, 0, 0, t0))
	second := ev(2, 0, 0, t0)
	b.PointerDown(second)

	if b.State() != Idle {
		t.Errorf("second controller State() = %v, want idle", b.State())
	}
	if second.Stopped() {
		t.Error("ignored pointer-down should not stop propagation")
	}
	if sess := h.store.ActiveDrag(); sess.ObjectID != 1 {
		t.Errorf("ActiveDrag() owner = %d, want 1", sess.ObjectID)
	}
}

func TestPointerMissed_CommitsActiveDrag(t *testing.T) {
	h := newHarness(t, core.PlacedObject{ID: 1})
	h.capturer.releaseErr = errors.New("capture already released")
	c := h.controller(1, Options{})

	c.PointerDown(ev(1, 0, 0, t0))
	c.PointerMove(ev(1, 0.3, 0, t0.Add(50*time.Millisecond)))
	c.PointerMissed(1)

	if len(h.commits) != 1 {
		t.Fatalf("commits = %d, want 1", len(h.commits))
	}
	got, _ := h.store.Get(1)
	if h.commits[0].Final != got.Transform() {
		t.Errorf("commit final = %+v, want last position %+v", h.commits[0].Final, got.Transform())
	}
	if !h.nav.Enabled() {
		t.Error("navigation not re-enabled after missed pointer")
	}
	if h.capturer.releases != 1 {
		t.Errorf("ReleasePointerCapture called %d times, want 1", h.capturer.releases)
	}
	if h.store.ActiveDrag() != nil {
		t.Error("drag session still active")
	}
}

func TestPointerMissed_ArmedResets(t *testing.T) {
	h := newHarness(t, core.PlacedObject{ID: 1})
	c := h.controller(1, Options{Selectable: true})

	c.PointerDown(ev(1, 0, 0, t0))
	c.PointerMissed(1)

	if len(h.commits) != 0 || len(h.selects) != 0 {
		t.Errorf("commits=%v selects=%v, want neither", h.commits, h.selects)
	}
	if c.State() != Idle || !h.nav.Enabled() {
		t.Errorf("State()=%v nav=%v, want idle and enabled", c.State(), h.nav.Enabled())
	}
}

func TestPointerUp_ObjectRemovedMidDrag(t *testing.T) {
	h := newHarness(t, core.PlacedObject{ID: 1})
	c := h.controller(1, Options{})

	c.PointerDown(ev(1, 0, 0, t0))
	c.PointerMove(ev(1, 0.3, 0, t0))
	h.store.Remove(1)
	c.PointerMove(ev(1, 0.4, 0, t0))
	c.PointerUp(ev(1, 0.4, 0, t0.Add(time.Second)))

	if len(h.commits) != 0 {
		t.Errorf("commits = %v, want none for a removed object", h.commits)
	}
	if !h.nav.Enabled() {
		t.Error("navigation not re-enabled")
	}
}

func TestDetach_ReleasesWithoutCommit(t *testing.T) {
	h := newHarness(t, core.PlacedObject{ID: 1})
	c := h.controller(1, Options{})

	c.PointerDown(ev(1, 0, 0, t0))
	c.PointerMove(ev(1, 0.3, 0, t0))
	c.Detach()

	if len(h.commits) != 0 {
		t.Errorf("commits = %v, want none", h.commits)
	}
	if !h.nav.Enabled() || h.store.ActiveDrag() != nil {
		t.Error("Detach() did not release navigation and drag session")
	}
}

func TestRotate(t *testing.T) {
	h := newHarness(t, core.PlacedObject{ID: 1, X: 1, Rotation: 3})
	c := h.controller(1, Options{Rotatable: true})

	if !c.Rotate(1) {
		t.Fatal("Rotate() returned false")
	}

	got, _ := h.store.Get(1)
	want := geometry.NormalizeAngle(4)
	if got.Rotation != want {
		t.Errorf("rotation = %v, want %v", got.Rotation, want)
	}
	if len(h.commits) != 1 || h.commits[0].Start.Rotation != 3 || h.commits[0].Final.Rotation != want {
		t.Errorf("commits = %+v", h.commits)
	}
	if len(h.begins) != 1 {
		t.Errorf("OnDragBegin fired %d times, want 1 before the rotation", len(h.begins))
	}
	if h.commits[0].Final.Position != (core.Vec3{X: 1}) {
		t.Errorf("Rotate() moved the object: %+v", h.commits[0].Final.Position)
	}
}

func TestRotate_Disabled(t *testing.T) {
	h := newHarness(t, core.PlacedObject{ID: 1})
	c := h.controller(1, Options{})

	if c.Rotate(1) {
		t.Error("Rotate() succeeded without rotation support")
	}
}

func TestNew_Defaults(t *testing.T) {
	c := New(1, Config{Store: placement.NewStore()})

	if c.Options().ClickWindow != DefaultClickWindow {
		t.Errorf("ClickWindow = %v, want %v", c.Options().ClickWindow, DefaultClickWindow)
	}
	if c.Options().Scale != 1 {
		t.Errorf("Scale = %v, want 1", c.Options().Scale)
	}
}
