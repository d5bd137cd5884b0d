// Package coordinator keeps the placement store in step with the backend.
//
// Moves, rotations and deletes are applied locally first and persisted in
// the background. Adds wait for the server-assigned id. Each object carries
// a sequence number; a response is applied only if no newer local change to
// the same object happened after its request was issued.
package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/paulIordache/Architecture-Web/core"
	"github.com/paulIordache/Architecture-Web/geometry"
	"github.com/paulIordache/Architecture-Web/gesture"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultTimeout bounds every remote call.
const DefaultTimeout = 10 * time.Second

type Op string

const (
	OpLoad   Op = "load"
	OpAdd    Op = "add"
	OpMove   Op = "move"
	OpRotate Op = "rotate"
	OpDelete Op = "delete"
)

// API is the remote persistence surface.
type API interface {
	GetProject(ctx context.Context, id core.ID) (*core.Project, error)
	ListPlaced(ctx context.Context, projectID core.ID) ([]core.PlacedObject, error)
	Catalog(ctx context.Context) ([]core.Furniture, error)
	CreatePlaced(ctx context.Context, projectID, furnitureID core.ID) (*core.PlacedObject, error)
	UpdatePlaced(ctx context.Context, id core.ID, t core.Transform) (*core.PlacedObject, error)
	DeletePlaced(ctx context.Context, id core.ID) error
}

// Store is the subset of the placement store the coordinator mutates.
type Store interface {
	Get(id core.ID) (core.PlacedObject, bool)
	Add(obj core.PlacedObject) error
	Remove(id core.ID) bool
	Replace(obj core.PlacedObject) bool
	UpdateTransform(id core.ID, pos core.Vec3, rotation float64) bool
	SetSelected(id core.ID) bool
	Reset(objs []core.PlacedObject)
}

// Dispatcher runs completion callbacks, e.g. on a UI event loop.
type Dispatcher interface {
	Dispatch(fn func())
}

type DispatchFunc func(fn func())

func (f DispatchFunc) Dispatch(fn func()) { f(fn) }

// Inline runs callbacks on the goroutine that received the response.
var Inline Dispatcher = DispatchFunc(func(fn func()) { fn() })

// Failure is a remote-call failure surfaced to the user. Retry is set for
// network failures of moves and rotations and re-issues the same change.
type Failure struct {
	ObjectID core.ID
	Op       Op
	Err      *core.Error
	Retry    func()
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s %d: %s", f.Op, f.ObjectID, f.Err)
}

type Options struct {
	Timeout    time.Duration
	Dispatcher Dispatcher
	OnError    func(Failure)
}

type Coordinator struct {
	api   API
	store Store
	opts  Options

	// local orders sequence bumps against the store writes of settling
	// responses. Held before mu, never while calling OnError.
	local sync.Mutex

	mu       sync.Mutex
	seq      map[core.ID]uint64
	inflight map[core.ID]int
	adding   int
	project  *core.Project
	catalog  []core.Furniture

	wg sync.WaitGroup
}

func New(api API, store Store, opts Options) *Coordinator {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Dispatcher == nil {
		opts.Dispatcher = Inline
	}
	return &Coordinator{
		api:      api,
		store:    store,
		opts:     opts,
		seq:      make(map[core.ID]uint64),
		inflight: make(map[core.ID]int),
	}
}

// Handlers returns gesture callbacks wired to this coordinator. onSelect
// handles clicks.
func (c *Coordinator) Handlers(onSelect func(id core.ID)) gesture.Handlers {
	return gesture.Handlers{
		OnSelect:            onSelect,
		OnDragBegin:         c.BeginLocal,
		OnPositionCommitted: c.CommitMove,
	}
}

// Project returns the project loaded by Load.
func (c *Coordinator) Project() *core.Project {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.project
}

// Catalog returns the furniture catalog loaded by Load.
func (c *Coordinator) Catalog() []core.Furniture {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.Furniture, len(c.catalog))
	copy(out, c.catalog)
	return out
}

// Pending reports whether a persistence request for id is in flight.
func (c *Coordinator) Pending(id core.ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight[id] > 0
}

// Adding reports whether an add is waiting for the server.
func (c *Coordinator) Adding() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.adding > 0
}

// Wait blocks until all background requests have completed.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Load fetches the project, then its placed furniture and the catalog
// concurrently, and replaces the store contents.
func (c *Coordinator) Load(ctx context.Context, projectID core.ID) (*core.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	log := logrus.WithField("project_id", projectID)

	project, err := c.api.GetProject(ctx, projectID)
	if err != nil {
		return nil, c.fail(Failure{ObjectID: projectID, Op: OpLoad, Err: core.Classify(err)})
	}

	var (
		objs    []core.PlacedObject
		catalog []core.Furniture
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		objs, err = c.api.ListPlaced(gctx, projectID)
		return err
	})
	g.Go(func() error {
		var err error
		catalog, err = c.api.Catalog(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, c.fail(Failure{ObjectID: projectID, Op: OpLoad, Err: core.Classify(err)})
	}

	c.mu.Lock()
	c.project = project
	c.catalog = catalog
	c.mu.Unlock()

	c.store.Reset(objs)
	log.WithFields(logrus.Fields{
		"objects": len(objs),
		"catalog": len(catalog),
	}).Info("Project loaded")
	return project, nil
}

// Add places item in the project once the server has assigned it an id,
// then selects it. On failure the store is left untouched.
func (c *Coordinator) Add(ctx context.Context, projectID core.ID, item core.Furniture) (*core.PlacedObject, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	c.mu.Lock()
	c.adding++
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.adding--
		c.mu.Unlock()
	}()

	log := logrus.WithFields(logrus.Fields{
		"project_id":   projectID,
		"furniture_id": item.ID,
	})

	obj, err := c.api.CreatePlaced(ctx, projectID, item.ID)
	if err != nil {
		return nil, c.fail(Failure{Op: OpAdd, Err: core.Classify(err)})
	}
	if obj.Furniture == (core.Furniture{}) {
		obj.Furniture = item
	}

	if err := c.store.Add(*obj); err != nil {
		return nil, err
	}
	c.store.SetSelected(obj.ID)

	log.WithField("object_id", obj.ID).Info("Furniture placed")
	return obj, nil
}

// BeginLocal marks a newer local change to id, invalidating the responses
// of requests already in flight for it.
func (c *Coordinator) BeginLocal(id core.ID) {
	c.local.Lock()
	defer c.local.Unlock()
	c.mu.Lock()
	c.seq[id]++
	c.mu.Unlock()
}

// CommitMove persists a finished drag.
func (c *Coordinator) CommitMove(cm gesture.Commit) {
	c.persist(OpMove, cm)
}

// Rotate sets the rotation of id in radians and persists it.
func (c *Coordinator) Rotate(id core.ID, radians float64) error {
	cur, ok := c.store.Get(id)
	if !ok {
		return fmt.Errorf("rotate %d: %w", id, core.ErrNotFound)
	}
	start := cur.Transform()
	final := core.Transform{Position: start.Position, Rotation: geometry.NormalizeAngle(radians)}
	c.BeginLocal(id)
	c.store.UpdateTransform(id, final.Position, final.Rotation)
	c.persist(OpRotate, gesture.Commit{ID: id, Start: start, Final: final})
	return nil
}

// persist sends cm.Final for cm.ID in the background. On failure the object
// returns to cm.Start unless it no longer exists remotely.
func (c *Coordinator) persist(op Op, cm gesture.Commit) {
	seq := c.begin(cm.ID)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), c.opts.Timeout)
		defer cancel()

		obj, err := c.api.UpdatePlaced(ctx, cm.ID, cm.Final)
		c.opts.Dispatcher.Dispatch(func() {
			c.settleUpdate(op, cm, seq, obj, err)
		})
	}()
}

// settleUpdate applies a move or rotate response. The sequence check and
// the store write happen under c.local, so a local change that begins
// meanwhile either supersedes the response or lands after it.
func (c *Coordinator) settleUpdate(op Op, cm gesture.Commit, seq uint64, obj *core.PlacedObject, err error) {
	log := logrus.WithFields(logrus.Fields{
		"object_id": cm.ID,
		"op":        op,
		"seq":       seq,
	})

	c.local.Lock()
	if !c.finish(cm.ID, seq) {
		c.local.Unlock()
		log.Debug("Discarding superseded response")
		return
	}

	if err == nil {
		c.store.Replace(*obj)
		c.local.Unlock()
		log.Info("Placement persisted")
		return
	}

	apiErr := core.Classify(err)
	if apiErr.Code == core.CodeNotFound {
		c.store.Remove(cm.ID)
	} else {
		c.store.UpdateTransform(cm.ID, cm.Start.Position, cm.Start.Rotation)
	}
	c.local.Unlock()

	f := Failure{ObjectID: cm.ID, Op: op, Err: apiErr}
	if apiErr.Code == core.CodeNetwork {
		f.Retry = func() { c.retry(op, cm) }
	}
	c.fail(f)
}

// retry reapplies cm.Final locally and persists it again.
func (c *Coordinator) retry(op Op, cm gesture.Commit) {
	c.BeginLocal(cm.ID)
	if !c.store.UpdateTransform(cm.ID, cm.Final.Position, cm.Final.Rotation) {
		return
	}
	c.persist(op, cm)
}

// Delete removes id locally and then remotely. If the remote delete fails
// for any reason other than the object already being gone, the object is
// restored.
func (c *Coordinator) Delete(id core.ID) error {
	removed, ok := c.store.Get(id)
	if !ok {
		return fmt.Errorf("delete %d: %w", id, core.ErrNotFound)
	}
	c.local.Lock()
	seq := c.begin(id)
	c.store.Remove(id)
	c.local.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), c.opts.Timeout)
		defer cancel()

		err := c.api.DeletePlaced(ctx, id)
		c.opts.Dispatcher.Dispatch(func() {
			c.settleDelete(removed, seq, err)
		})
	}()
	return nil
}

func (c *Coordinator) settleDelete(removed core.PlacedObject, seq uint64, err error) {
	log := logrus.WithField("object_id", removed.ID)

	c.local.Lock()
	current := c.finish(removed.ID, seq)
	if err == nil || core.Classify(err).Code == core.CodeNotFound {
		c.local.Unlock()
		log.Info("Placement deleted")
		return
	}

	apiErr := core.Classify(err)
	if current {
		if addErr := c.store.Add(removed); addErr != nil {
			log.WithError(addErr).Debug("Object already present, not restoring")
		}
	}
	c.local.Unlock()
	c.fail(Failure{ObjectID: removed.ID, Op: OpDelete, Err: apiErr})
}

// begin bumps the sequence for id and counts a request in flight.
func (c *Coordinator) begin(id core.ID) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq[id]++
	c.inflight[id]++
	return c.seq[id]
}

// finish counts a response for id and reports whether seq is still the
// latest local change.
func (c *Coordinator) finish(id core.ID, seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight[id] <= 1 {
		delete(c.inflight, id)
	} else {
		c.inflight[id]--
	}
	return c.seq[id] == seq
}

func (c *Coordinator) fail(f Failure) error {
	logrus.WithFields(logrus.Fields{
		"object_id": f.ObjectID,
		"op":        f.Op,
		"code":      f.Err.Code,
	}).WithError(f.Err).Error("Remote call failed")
	if c.opts.OnError != nil {
		c.opts.OnError(f)
	}
	return f.Err
}
