// Package gesture turns raw pointer events on a single placed object into
// select, drag and commit notifications.
//
// A Controller moves through Idle, Armed (pointer down) and Dragging (first
// successful projection). On release the gesture is classified as a click
// when it was short and the object did not move, and as a move otherwise.
package gesture

import (
	"fmt"
	"sync"
	"time"

	"github.com/paulIordache/Architecture-Web/core"
	"github.com/paulIordache/Architecture-Web/geometry"
	"github.com/paulIordache/Architecture-Web/placement"
	"github.com/sirupsen/logrus"
)

// DefaultClickWindow is the longest press still treated as a click.
const DefaultClickWindow = 200 * time.Millisecond

type State int

const (
	Idle State = iota
	Armed
	Dragging
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Dragging:
		return "dragging"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// PointerEvent is a pointer sample in normalized device coordinates.
type PointerEvent struct {
	PointerID int
	NDC       geometry.Vec2
	Time      time.Time

	stopped bool
}

// StopPropagation keeps the event from reaching the scene and orbit controls.
func (e *PointerEvent) StopPropagation() { e.stopped = true }

func (e *PointerEvent) Stopped() bool { return e.stopped }

// Capturer routes all events of a pointer to the capturing object.
type Capturer interface {
	SetPointerCapture(pointerID int) error
	ReleasePointerCapture(pointerID int) error
}

// Store is the subset of the placement store a controller drives.
type Store interface {
	Get(id core.ID) (core.PlacedObject, bool)
	UpdateTransform(id core.ID, pos core.Vec3, rotation float64) bool
	BeginDrag(id core.ID, pointerID int, at time.Time) (*placement.DragSession, error)
	EndDrag(id core.ID) (*placement.DragSession, bool)
}

// Navigator disables camera navigation while held.
type Navigator interface {
	Acquire(holder any)
	Release(holder any)
}

// Commit describes a finished move or rotation.
type Commit struct {
	ID    core.ID
	Start core.Transform
	Final core.Transform
}

type Options struct {
	Selectable  bool
	Rotatable   bool
	Scale       float64
	ClickWindow time.Duration
}

// Handlers are the gesture callbacks. OnDragBegin runs once per drag or
// rotation, before the store sees the first local change.
type Handlers struct {
	OnSelect            func(id core.ID)
	OnDragBegin         func(id core.ID)
	OnPositionCommitted func(c Commit)
}

type Config struct {
	Store     Store
	Navigator Navigator
	Camera    func() geometry.Camera
	Capturer  Capturer
	Options   Options
	Handlers  Handlers
}

type Controller struct {
	id       core.ID
	store    Store
	nav      Navigator
	camera   func() geometry.Camera
	capturer Capturer
	opts     Options
	handlers Handlers

	mu        sync.Mutex
	state     State
	pointerID int
	start     core.Transform
	startedAt time.Time
}

func New(id core.ID, cfg Config) *Controller {
	opts := cfg.Options
	if opts.ClickWindow <= 0 {
		opts.ClickWindow = DefaultClickWindow
	}
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	camera := cfg.Camera
	if camera == nil {
		camera = func() geometry.Camera { return geometry.DefaultCamera(1) }
	}
	return &Controller{
		id:       id,
		store:    cfg.Store,
		nav:      cfg.Navigator,
		camera:   camera,
		capturer: cfg.Capturer,
		opts:     opts,
		handlers: cfg.Handlers,
	}
}

func (c *Controller) ID() core.ID { return c.id }

func (c *Controller) Options() Options { return c.opts }

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) log() *logrus.Entry {
	return logrus.WithField("object_id", c.id)
}

// PointerDown arms the controller. It is ignored while another drag is
// live anywhere in the store.
func (c *Controller) PointerDown(ev *PointerEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Idle {
		c.log().WithField("pointer_id", ev.PointerID).Debug("Pointer down ignored, gesture in progress")
		return
	}
	sess, err := c.store.BeginDrag(c.id, ev.PointerID, ev.Time)
	if err != nil {
		return
	}

	if c.capturer != nil {
		if err := c.capturer.SetPointerCapture(ev.PointerID); err != nil {
			c.log().WithError(err).Debug("Pointer capture failed")
		}
	}
	if c.nav != nil {
		c.nav.Acquire(c)
	}
	ev.StopPropagation()

	c.state = Armed
	c.pointerID = ev.PointerID
	c.start = sess.Start
	c.startedAt = sess.StartedAt
}

// PointerMove projects the pointer onto the plane at the object's starting
// height and moves the object there. Frames without an intersection leave
// the object where it is.
func (c *Controller) PointerMove(ev *PointerEvent) {
	c.mu.Lock()
	if c.state == Idle || ev.PointerID != c.pointerID {
		c.mu.Unlock()
		return
	}
	ev.StopPropagation()

	pt, ok := geometry.Project(ev.NDC, c.camera(), c.start.Position.Y)
	if !ok {
		c.mu.Unlock()
		return
	}

	cur, ok := c.store.Get(c.id)
	if !ok {
		c.mu.Unlock()
		return
	}

	// OnDragBegin must see the object before its first local move.
	if c.state == Armed {
		c.state = Dragging
		if c.handlers.OnDragBegin != nil {
			c.handlers.OnDragBegin(c.id)
		}
	}
	pos := core.Vec3{X: pt.X, Y: c.start.Position.Y, Z: pt.Z}
	c.store.UpdateTransform(c.id, pos, cur.Rotation)
	c.mu.Unlock()
}

// PointerUp finishes the gesture as either a click or a move.
func (c *Controller) PointerUp(ev *PointerEvent) {
	c.mu.Lock()
	if c.state == Idle || ev.PointerID != c.pointerID {
		c.mu.Unlock()
		return
	}
	ev.StopPropagation()

	start, startedAt := c.start, c.startedAt
	c.finishLocked()
	cur, ok := c.store.Get(c.id)
	c.mu.Unlock()

	if !ok {
		c.log().Debug("Object vanished during gesture")
		return
	}

	elapsed := ev.Time.Sub(startedAt)
	if elapsed < c.opts.ClickWindow && cur.Position() == start.Position {
		if c.opts.Selectable && c.handlers.OnSelect != nil {
			c.handlers.OnSelect(c.id)
		}
		return
	}

	c.commit(Commit{ID: c.id, Start: start, Final: cur.Transform()})
}

// PointerMissed handles loss of capture without a matching pointer-up. An
// active drag is committed at its last position.
func (c *Controller) PointerMissed(pointerID int) {
	c.mu.Lock()
	if c.state == Idle || pointerID != c.pointerID {
		c.mu.Unlock()
		return
	}

	dragging := c.state == Dragging
	start := c.start
	c.finishLocked()
	cur, ok := c.store.Get(c.id)
	c.mu.Unlock()

	if dragging && ok {
		c.log().Debug("Pointer capture lost, committing drag")
		c.commit(Commit{ID: c.id, Start: start, Final: cur.Transform()})
	}
}

// Detach abandons any gesture in progress without committing. Used when the
// object leaves the scene.
func (c *Controller) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Idle {
		c.finishLocked()
	}
}

// Rotate turns an idle object by delta radians and commits the change.
func (c *Controller) Rotate(delta float64) bool {
	if !c.opts.Rotatable {
		return false
	}

	c.mu.Lock()
	if c.state != Idle {
		c.mu.Unlock()
		return false
	}
	cur, ok := c.store.Get(c.id)
	if !ok {
		c.mu.Unlock()
		return false
	}
	start := cur.Transform()
	final := core.Transform{Position: start.Position, Rotation: geometry.NormalizeAngle(start.Rotation + delta)}
	if c.handlers.OnDragBegin != nil {
		c.handlers.OnDragBegin(c.id)
	}
	c.store.UpdateTransform(c.id, final.Position, final.Rotation)
	c.mu.Unlock()

	c.commit(Commit{ID: c.id, Start: start, Final: final})
	return true
}

// finishLocked releases capture, navigation and the drag session.
// Capture release errors are expected when the pointer already left.
func (c *Controller) finishLocked() {
	if c.capturer != nil {
		if err := c.capturer.ReleasePointerCapture(c.pointerID); err != nil {
			c.log().WithError(err).Debug("Pointer capture already released")
		}
	}
	if c.nav != nil {
		c.nav.Release(c)
	}
	c.store.EndDrag(c.id)
	c.state = Idle
}

func (c *Controller) commit(cm Commit) {
	c.log().WithFields(logrus.Fields{
		"x":        cm.Final.Position.X,
		"z":        cm.Final.Position.Z,
		"rotation": cm.Final.Rotation,
	}).Debug("Gesture committed")
	if c.handlers.OnPositionCommitted != nil {
		c.handlers.OnPositionCommitted(cm)
	}
}
