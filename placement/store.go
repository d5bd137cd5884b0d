// Package placement holds the client-side collection of placed furniture,
// the current selection and the single active drag session.
//
// Every mutation publishes a new immutable Snapshot. Readers on the render
// path call Snapshot and never observe a partially applied change.
package placement

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/paulIordache/Architecture-Web/core"
	"github.com/paulIordache/Architecture-Web/geometry"
	"github.com/sirupsen/logrus"
)

var (
	ErrDuplicateID   = errors.New("placement: duplicate object id")
	ErrUnknownObject = errors.New("placement: unknown object")
	ErrDragActive    = errors.New("placement: another drag is active")
)

// DragSession is the transient state of one live drag.
type DragSession struct {
	ObjectID  core.ID
	PointerID int
	Start     core.Transform
	StartedAt time.Time
}

// Snapshot is a read-only view of the store. Objects keeps insertion order
// and must not be modified by callers.
type Snapshot struct {
	Objects  []core.PlacedObject
	Selected core.ID
	Drag     *DragSession
	Version  uint64
}

// Get returns the object with the given id.
func (s *Snapshot) Get(id core.ID) (core.PlacedObject, bool) {
	if i := s.index(id); i >= 0 {
		return s.Objects[i], true
	}
	return core.PlacedObject{}, false
}

func (s *Snapshot) index(id core.ID) int {
	for i := range s.Objects {
		if s.Objects[i].ID == id {
			return i
		}
	}
	return -1
}

// clone copies s with a fresh Objects backing array.
func (s *Snapshot) clone() *Snapshot {
	next := *s
	next.Objects = make([]core.PlacedObject, len(s.Objects))
	copy(next.Objects, s.Objects)
	return &next
}

type Store struct {
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]

	subMu  sync.Mutex
	subs   map[int]func(*Snapshot)
	nextID int
}

func NewStore() *Store {
	s := &Store{subs: make(map[int]func(*Snapshot))}
	s.current.Store(&Snapshot{})
	return s
}

// Snapshot returns the latest published state without locking.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// List returns a copy of the placed objects in insertion order.
func (s *Store) List() []core.PlacedObject {
	snap := s.Snapshot()
	out := make([]core.PlacedObject, len(snap.Objects))
	copy(out, snap.Objects)
	return out
}

func (s *Store) Get(id core.ID) (core.PlacedObject, bool) {
	return s.Snapshot().Get(id)
}

func (s *Store) Selected() core.ID {
	return s.Snapshot().Selected
}

// ActiveDrag returns the live drag session, or nil.
func (s *Store) ActiveDrag() *DragSession {
	return s.Snapshot().Drag
}

// Subscribe registers fn to be called with every published snapshot. The
// returned func removes the subscription.
func (s *Store) Subscribe(fn func(*Snapshot)) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// mutate applies fn to a private copy of the current snapshot and publishes
// the result when fn reports a change. Subscribers run after the lock is
// released.
func (s *Store) mutate(fn func(next *Snapshot) bool) bool {
	s.mu.Lock()
	cur := s.current.Load()
	next := cur.clone()
	if !fn(next) {
		s.mu.Unlock()
		return false
	}
	next.Version = cur.Version + 1
	s.current.Store(next)
	s.mu.Unlock()

	s.notify(next)
	return true
}

func (s *Store) notify(snap *Snapshot) {
	s.subMu.Lock()
	fns := make([]func(*Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// Add inserts obj. The id must be server-assigned and not already present.
func (s *Store) Add(obj core.PlacedObject) error {
	if obj.ID == core.NoID {
		return fmt.Errorf("%w: missing id", ErrUnknownObject)
	}
	obj.Rotation = geometry.NormalizeAngle(obj.Rotation)

	var err error
	s.mutate(func(next *Snapshot) bool {
		if next.index(obj.ID) >= 0 {
			err = fmt.Errorf("%w: %d", ErrDuplicateID, obj.ID)
			return false
		}
		next.Objects = append(next.Objects, obj)
		return true
	})
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"object_id":    obj.ID,
		"furniture_id": obj.FurnitureID,
	}).Debug("Placed object added")
	return nil
}

// Remove deletes the object with id. The selection and any drag on the
// object are cleared with it.
func (s *Store) Remove(id core.ID) bool {
	ok := s.mutate(func(next *Snapshot) bool {
		i := next.index(id)
		if i < 0 {
			return false
		}
		next.Objects = append(next.Objects[:i], next.Objects[i+1:]...)
		if next.Selected == id {
			next.Selected = core.NoID
		}
		if next.Drag != nil && next.Drag.ObjectID == id {
			next.Drag = nil
		}
		return true
	})
	if !ok {
		logrus.WithField("object_id", id).Warn("Remove ignored for unknown object")
	}
	return ok
}

// UpdateTransform sets the position and rotation of id. An unknown id is a
// logged no-op so that a drag can outlive a concurrent delete.
func (s *Store) UpdateTransform(id core.ID, pos core.Vec3, rotation float64) bool {
	t := core.Transform{Position: pos, Rotation: geometry.NormalizeAngle(rotation)}

	ok := s.mutate(func(next *Snapshot) bool {
		i := next.index(id)
		if i < 0 {
			return false
		}
		next.Objects[i] = next.Objects[i].WithTransform(t)
		return true
	})
	if !ok {
		logrus.WithField("object_id", id).Warn("Transform update ignored for unknown object")
	}
	return ok
}

// Replace merges an authoritative copy of an existing object. The entry
// keeps its position in the list; a missing embedded catalog entry is kept
// from the local copy.
func (s *Store) Replace(obj core.PlacedObject) bool {
	obj.Rotation = geometry.NormalizeAngle(obj.Rotation)

	ok := s.mutate(func(next *Snapshot) bool {
		i := next.index(obj.ID)
		if i < 0 {
			return false
		}
		if obj.Furniture == (core.Furniture{}) {
			obj.Furniture = next.Objects[i].Furniture
		}
		next.Objects[i] = obj
		return true
	})
	if !ok {
		logrus.WithField("object_id", obj.ID).Warn("Replace ignored for unknown object")
	}
	return ok
}

// Reset replaces the whole collection, e.g. after a project fetch.
// Duplicate ids keep their first occurrence. Selection and drag state that
// refer to objects no longer present are cleared.
func (s *Store) Reset(objs []core.PlacedObject) {
	s.mutate(func(next *Snapshot) bool {
		seen := make(map[core.ID]struct{}, len(objs))
		next.Objects = next.Objects[:0]
		for _, o := range objs {
			if _, dup := seen[o.ID]; dup || o.ID == core.NoID {
				logrus.WithField("object_id", o.ID).Warn("Dropping duplicate or unidentified object on reset")
				continue
			}
			seen[o.ID] = struct{}{}
			o.Rotation = geometry.NormalizeAngle(o.Rotation)
			next.Objects = append(next.Objects, o)
		}
		if _, ok := seen[next.Selected]; !ok {
			next.Selected = core.NoID
		}
		if next.Drag != nil {
			if _, ok := seen[next.Drag.ObjectID]; !ok {
				next.Drag = nil
			}
		}
		return true
	})
}

// Select toggles the selection of id and returns the resulting selection.
func (s *Store) Select(id core.ID) core.ID {
	s.mutate(func(next *Snapshot) bool {
		if next.Selected == id {
			next.Selected = core.NoID
			return true
		}
		if next.index(id) < 0 {
			logrus.WithField("object_id", id).Warn("Select ignored for unknown object")
			return false
		}
		next.Selected = id
		return true
	})
	return s.Selected()
}

// SetSelected selects id unconditionally. core.NoID clears the selection.
func (s *Store) SetSelected(id core.ID) bool {
	return s.mutate(func(next *Snapshot) bool {
		if id != core.NoID && next.index(id) < 0 {
			logrus.WithField("object_id", id).Warn("Selection ignored for unknown object")
			return false
		}
		if next.Selected == id {
			return false
		}
		next.Selected = id
		return true
	})
}

// BeginDrag opens the drag session for id. Only one session may be live;
// overlapping requests fail with ErrDragActive.
func (s *Store) BeginDrag(id core.ID, pointerID int, at time.Time) (*DragSession, error) {
	var (
		sess *DragSession
		err  error
	)
	s.mutate(func(next *Snapshot) bool {
		if next.Drag != nil {
			err = ErrDragActive
			return false
		}
		i := next.index(id)
		if i < 0 {
			err = fmt.Errorf("%w: %d", ErrUnknownObject, id)
			return false
		}
		sess = &DragSession{
			ObjectID:  id,
			PointerID: pointerID,
			Start:     next.Objects[i].Transform(),
			StartedAt: at,
		}
		next.Drag = sess
		return true
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"object_id":  id,
			"pointer_id": pointerID,
		}).WithError(err).Debug("Drag refused")
		return nil, err
	}
	return sess, nil
}

// EndDrag closes the session for id and returns it. ok is false when id
// does not own the live session.
func (s *Store) EndDrag(id core.ID) (sess *DragSession, ok bool) {
	s.mutate(func(next *Snapshot) bool {
		if next.Drag == nil || next.Drag.ObjectID != id {
			return false
		}
		sess, next.Drag = next.Drag, nil
		return true
	})
	return sess, sess != nil
}
