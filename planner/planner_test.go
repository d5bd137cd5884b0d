package planner

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/paulIordache/Architecture-Web/apiclient"
	"github.com/paulIordache/Architecture-Web/config"
	"github.com/paulIordache/Architecture-Web/coordinator"
	"github.com/paulIordache/Architecture-Web/core"
)

func TestNew_AppliesClientConfig(t *testing.T) {
	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		select {
		case <-r.Context().Done():
		case <-done:
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(done) })

	var (
		mu       sync.Mutex
		failures []coordinator.Failure
	)
	cfg := config.Client{
		APIURL:         srv.URL + "/api",
		AssetURL:       "https://cdn.example.com/assets/",
		RequestTimeout: 30 * time.Millisecond,
		ClickWindow:    350 * time.Millisecond,
	}
	p := New(cfg, Deps{
		Session: apiclient.StaticSession("tok"),
		OnError: func(f coordinator.Failure) {
			mu.Lock()
			failures = append(failures, f)
			mu.Unlock()
		},
	})
	t.Cleanup(p.Close)

	p.Store.Reset([]core.PlacedObject{{
		ID:        5,
		ProjectID: 7,
		Furniture: core.Furniture{ID: 1, Name: "Chair", ObjFilePath: "chair.obj"},
	}})

	c, ok := p.View.Controller(5)
	if !ok {
		t.Fatal("no controller for object 5")
	}
	if opts := c.Options(); opts.ClickWindow != 350*time.Millisecond || !opts.Selectable || !opts.Rotatable {
		t.Errorf("controller options = %+v", opts)
	}

	items := p.View.Items(context.Background())
	if len(items) != 1 || items[0].MeshURL != "https://cdn.example.com/assets/chair.obj" {
		t.Errorf("render list = %+v", items)
	}

	if err := p.Coordinator.Rotate(5, 1); err != nil {
		t.Fatalf("Rotate() failed: %v", err)
	}
	p.Coordinator.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(failures) != 1 || failures[0].Err.Code != core.CodeNetwork {
		t.Errorf("failures = %+v, want one network failure from the configured timeout", failures)
	}
}

func TestNew_DefaultSession(t *testing.T) {
	cfg, err := config.LoadClient()
	if err != nil {
		t.Fatal(err)
	}
	p := New(cfg, Deps{})
	defer p.Close()

	if _, err := p.API.Session().Token(); err == nil {
		t.Error("default session should have no credential")
	}
	if !p.Navigation.Enabled() {
		t.Error("navigation should start enabled")
	}
}
