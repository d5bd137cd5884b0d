// Package planner assembles the placement client from its configuration.
package planner

import (
	"github.com/paulIordache/Architecture-Web/apiclient"
	"github.com/paulIordache/Architecture-Web/config"
	"github.com/paulIordache/Architecture-Web/coordinator"
	"github.com/paulIordache/Architecture-Web/geometry"
	"github.com/paulIordache/Architecture-Web/gesture"
	"github.com/paulIordache/Architecture-Web/navigation"
	"github.com/paulIordache/Architecture-Web/placement"
	"github.com/paulIordache/Architecture-Web/scene"
	"github.com/sirupsen/logrus"
)

// Deps are the host-provided pieces the configuration cannot describe.
// All fields are optional.
type Deps struct {
	Session    *apiclient.Session
	Loader     scene.AssetLoader
	Camera     func() geometry.Camera
	Capturer   gesture.Capturer
	Dispatcher coordinator.Dispatcher
	OnError    func(coordinator.Failure)
}

type Planner struct {
	API         *apiclient.Client
	Store       *placement.Store
	Navigation  *navigation.Arbiter
	Coordinator *coordinator.Coordinator
	View        *scene.View
}

func New(cfg config.Client, deps Deps) *Planner {
	session := deps.Session
	if session == nil {
		session = apiclient.NewSession(nil)
	}

	api := apiclient.New(cfg.APIURL, session)
	store := placement.NewStore()
	nav := navigation.NewArbiter()
	coord := coordinator.New(api, store, coordinator.Options{
		Timeout:    cfg.RequestTimeout,
		Dispatcher: deps.Dispatcher,
		OnError:    deps.OnError,
	})
	view := scene.NewView(scene.Config{
		Store:     store,
		Navigator: nav,
		Persister: coord,
		Camera:    deps.Camera,
		Capturer:  deps.Capturer,
		Options: gesture.Options{
			Selectable:  true,
			Rotatable:   true,
			ClickWindow: cfg.ClickWindow,
		},
		AssetBase: cfg.AssetURL,
		Loader:    deps.Loader,
	})

	logrus.WithFields(logrus.Fields{
		"api":     cfg.APIURL,
		"assets":  cfg.AssetURL,
		"timeout": cfg.RequestTimeout,
	}).Debug("Planner client configured")

	return &Planner{
		API:         api,
		Store:       store,
		Navigation:  nav,
		Coordinator: coord,
		View:        view,
	}
}

// Close detaches the view from the store.
func (p *Planner) Close() {
	p.View.Close()
}
