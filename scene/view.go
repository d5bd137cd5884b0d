// Package scene composes the project view: one gesture controller per placed
// object, pointer routing, and the render list handed to the renderer.
package scene

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/paulIordache/Architecture-Web/core"
	"github.com/paulIordache/Architecture-Web/geometry"
	"github.com/paulIordache/Architecture-Web/gesture"
	"github.com/paulIordache/Architecture-Web/placement"
	"github.com/sirupsen/logrus"
)

// Renderable is whatever the rendering engine produces for a loaded mesh.
type Renderable any

// AssetLoader loads a mesh and its optional texture into a Renderable.
type AssetLoader interface {
	Load(ctx context.Context, meshURL, textureURL string) (Renderable, error)
}

type AssetLoaderFunc func(ctx context.Context, meshURL, textureURL string) (Renderable, error)

func (f AssetLoaderFunc) Load(ctx context.Context, meshURL, textureURL string) (Renderable, error) {
	return f(ctx, meshURL, textureURL)
}

// Persister supplies gesture callbacks and in-flight state for objects.
type Persister interface {
	Handlers(onSelect func(id core.ID)) gesture.Handlers
	Pending(id core.ID) bool
}

type Config struct {
	Store     *placement.Store
	Navigator gesture.Navigator
	Persister Persister
	Camera    func() geometry.Camera
	Capturer  gesture.Capturer
	Options   gesture.Options
	AssetBase string
	Loader    AssetLoader
}

// Item is one entry of the render list.
type Item struct {
	Object     core.PlacedObject
	Selected   bool
	Pending    bool
	Scale      float64
	MeshURL    string
	TextureURL string
	Model      Renderable
	LoadErr    error
}

// asset memoizes one load. Context errors are not kept, so a cancelled
// frame does not poison the URL.
type asset struct {
	mu    sync.Mutex
	done  bool
	model Renderable
	err   error
}

type View struct {
	cfg Config

	mu          sync.Mutex
	controllers map[core.ID]*gesture.Controller
	assets      map[string]*asset

	dirty       atomic.Bool
	unsubscribe func()
}

func NewView(cfg Config) *View {
	v := &View{
		cfg:         cfg,
		controllers: make(map[core.ID]*gesture.Controller),
		assets:      make(map[string]*asset),
	}
	v.dirty.Store(true)
	v.unsubscribe = cfg.Store.Subscribe(func(*placement.Snapshot) {
		v.dirty.Store(true)
	})
	return v
}

// Close detaches every controller and stops tracking the store.
func (v *View) Close() {
	v.unsubscribe()
	v.mu.Lock()
	ctrls := v.controllers
	v.controllers = make(map[core.ID]*gesture.Controller)
	v.mu.Unlock()
	for _, c := range ctrls {
		c.Detach()
	}
}

// Sync creates controllers for new objects and detaches those whose object
// left the store. It is a no-op when nothing changed since the last call.
func (v *View) Sync() {
	if !v.dirty.Swap(false) {
		return
	}
	snap := v.cfg.Store.Snapshot()

	present := make(map[core.ID]struct{}, len(snap.Objects))
	var gone []*gesture.Controller

	v.mu.Lock()
	for _, o := range snap.Objects {
		present[o.ID] = struct{}{}
		if _, ok := v.controllers[o.ID]; !ok {
			v.controllers[o.ID] = v.newController(o.ID)
		}
	}
	for id, c := range v.controllers {
		if _, ok := present[id]; !ok {
			gone = append(gone, c)
			delete(v.controllers, id)
		}
	}
	v.mu.Unlock()

	for _, c := range gone {
		c.Detach()
	}
}

func (v *View) newController(id core.ID) *gesture.Controller {
	var handlers gesture.Handlers
	if v.cfg.Persister != nil {
		handlers = v.cfg.Persister.Handlers(v.toggle)
	} else {
		handlers.OnSelect = v.toggle
	}
	return gesture.New(id, gesture.Config{
		Store:     v.cfg.Store,
		Navigator: v.cfg.Navigator,
		Camera:    v.cfg.Camera,
		Capturer:  v.cfg.Capturer,
		Options:   v.cfg.Options,
		Handlers:  handlers,
	})
}

func (v *View) toggle(id core.ID) {
	v.cfg.Store.Select(id)
}

// Controller returns the controller of id after syncing with the store.
func (v *View) Controller(id core.ID) (*gesture.Controller, bool) {
	v.Sync()
	v.mu.Lock()
	defer v.mu.Unlock()
	c, ok := v.controllers[id]
	return c, ok
}

// PointerDown delivers a pointer-down that hit object id.
func (v *View) PointerDown(id core.ID, ev *gesture.PointerEvent) {
	if c, ok := v.Controller(id); ok {
		c.PointerDown(ev)
	}
}

// PointerMove delivers a move to the object holding the live drag.
func (v *View) PointerMove(ev *gesture.PointerEvent) {
	if c := v.active(); c != nil {
		c.PointerMove(ev)
	}
}

func (v *View) PointerUp(ev *gesture.PointerEvent) {
	if c := v.active(); c != nil {
		c.PointerUp(ev)
	}
}

// PointerMissed reports a pointer lost without a pointer-up.
func (v *View) PointerMissed(pointerID int) {
	if c := v.active(); c != nil {
		c.PointerMissed(pointerID)
	}
}

func (v *View) active() *gesture.Controller {
	sess := v.cfg.Store.ActiveDrag()
	if sess == nil {
		return nil
	}
	c, _ := v.Controller(sess.ObjectID)
	return c
}

// Items returns the render list for the current snapshot. Meshes are loaded
// once per URL pair and reused across frames.
func (v *View) Items(ctx context.Context) []Item {
	v.Sync()
	snap := v.cfg.Store.Snapshot()

	scale := v.cfg.Options.Scale
	if scale <= 0 {
		scale = 1
	}

	items := make([]Item, 0, len(snap.Objects))
	for _, o := range snap.Objects {
		it := Item{
			Object:     o,
			Selected:   o.ID == snap.Selected,
			Scale:      scale,
			MeshURL:    AssetURL(v.cfg.AssetBase, o.Furniture.ObjFilePath),
			TextureURL: AssetURL(v.cfg.AssetBase, o.Furniture.TexturePath),
		}
		if v.cfg.Persister != nil {
			it.Pending = v.cfg.Persister.Pending(o.ID)
		}
		if v.cfg.Loader != nil && it.MeshURL != "" {
			it.Model, it.LoadErr = v.load(ctx, it.MeshURL, it.TextureURL)
		}
		items = append(items, it)
	}
	return items
}

func (v *View) load(ctx context.Context, meshURL, textureURL string) (Renderable, error) {
	key := meshURL + "|" + textureURL

	v.mu.Lock()
	a, ok := v.assets[key]
	if !ok {
		a = &asset{}
		v.assets[key] = a
	}
	v.mu.Unlock()

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.done {
		return a.model, a.err
	}

	model, err := v.cfg.Loader.Load(ctx, meshURL, textureURL)
	log := logrus.WithFields(logrus.Fields{
		"mesh":    meshURL,
		"texture": textureURL,
	})
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		log.WithError(err).Debug("Model load interrupted")
		return nil, err
	}
	if err != nil {
		log.WithError(err).Error("Failed to load model")
	}
	a.done, a.model, a.err = true, model, err
	return model, err
}

// AssetURL resolves a catalog asset path against base. Empty paths stay
// empty and absolute URLs pass through.
func AssetURL(base, path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	p := strings.ReplaceAll(path, "\\", "/")
	p = strings.TrimPrefix(p, "/")
	p = strings.TrimPrefix(p, "objects/")
	return strings.TrimRight(base, "/") + "/" + p
}
