package projects

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/paulIordache/Architecture-Web/core"
	"github.com/paulIordache/Architecture-Web/handlers/auth"
	"github.com/paulIordache/Architecture-Web/middleware"
	"github.com/paulIordache/Architecture-Web/stores/memory"
)

// failingStore wraps a real store and fails list calls on demand.
type failingStore struct {
	Store
	listErr error
}

func (s *failingStore) ListProjects(ctx context.Context, userID core.ID) ([]*core.Project, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.Store.ListProjects(ctx, userID)
}

func newRequest(method, target, body string, userID core.ID, params map[string]string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if userID != core.NoID {
		ctx = context.WithValue(ctx, middleware.ClaimsContextKey, &auth.AppClaims{UserID: userID, Username: "ana"})
	}
	return req.WithContext(ctx)
}

func errorBody(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not JSON: %q", rr.Body.String())
	}
	return body["error"]
}

func TestHandleCreateProject(t *testing.T) {
	store := memory.NewStore()
	h := HandleCreateProject(store)

	rr := httptest.NewRecorder()
	h(rr, newRequest(http.MethodPost, "/projects", `{"name":" Flat ","description":"d","room_layout_id":1}`, 1, nil))
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	var p core.Project
	if err := json.Unmarshal(rr.Body.Bytes(), &p); err != nil {
		t.Fatal(err)
	}
	if p.ID == core.NoID || p.Name != "Flat" || p.UserID != 1 {
		t.Errorf("created project = %+v", p)
	}
}

func TestHandleCreateProject_Validation(t *testing.T) {
	store := memory.NewStore()
	h := HandleCreateProject(store)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"no name", `{"room_layout_id":1}`, http.StatusBadRequest},
		{"no room", `{"name":"x"}`, http.StatusBadRequest},
		{"unknown room", `{"name":"x","room_layout_id":42}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h(rr, newRequest(http.MethodPost, "/projects", tt.body, 1, nil))
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
			if errorBody(t, rr) == "" {
				t.Error("missing error message")
			}
		})
	}
}

func TestHandleListProjects(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	_ = store.CreateProject(ctx, &core.Project{UserID: 1, Name: "mine", RoomLayoutID: 1})
	_ = store.CreateProject(ctx, &core.Project{UserID: 2, Name: "theirs", RoomLayoutID: 1})

	rr := httptest.NewRecorder()
	HandleListProjects(store)(rr, newRequest(http.MethodGet, "/projects", "", 1, nil))
	var got []core.Project
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "mine" {
		t.Errorf("projects = %+v", got)
	}

	rr = httptest.NewRecorder()
	HandleListProjects(store)(rr, newRequest(http.MethodGet, "/projects", "", 3, nil))
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Errorf("empty list body = %q, want []", rr.Body.String())
	}
}

func TestHandleListProjects_StoreError(t *testing.T) {
	store := &failingStore{Store: memory.NewStore(), listErr: errors.New("disk gone")}
	rr := httptest.NewRecorder()
	HandleListProjects(store)(rr, newRequest(http.MethodGet, "/projects", "", 1, nil))
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rr.Code)
	}
}

func TestHandlers_RequireClaims(t *testing.T) {
	store := memory.NewStore()
	for name, h := range map[string]http.HandlerFunc{
		"list":   HandleListProjects(store),
		"get":    HandleGetProject(store),
		"create": HandleCreateProject(store),
		"placed": HandleListPlaced(store),
	} {
		rr := httptest.NewRecorder()
		h(rr, newRequest(http.MethodGet, "/", "", core.NoID, map[string]string{"id": "1"}))
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", name, rr.Code)
		}
	}
}

func TestHandleGetProject(t *testing.T) {
	store := memory.NewStore()
	p := &core.Project{UserID: 1, Name: "mine", RoomLayoutID: 1}
	_ = store.CreateProject(context.Background(), p)
	id := mustJSON(t, p.ID)

	tests := []struct {
		name   string
		user   core.ID
		id     string
		status int
	}{
		{"owner", 1, id, http.StatusOK},
		{"other user", 2, id, http.StatusNotFound},
		{"missing", 1, "999", http.StatusNotFound},
		{"bad id", 1, "abc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			HandleGetProject(store)(rr, newRequest(http.MethodGet, "/projects/"+tt.id, "", tt.user, map[string]string{"id": tt.id}))
			if rr.Code != tt.status {
				t.Errorf("status = %d, want %d", rr.Code, tt.status)
			}
		})
	}
}

func TestHandleListPlaced(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	p := &core.Project{UserID: 1, Name: "mine", RoomLayoutID: 1}
	_ = store.CreateProject(ctx, p)
	_ = store.CreatePlaced(ctx, &core.PlacedObject{ProjectID: p.ID, FurnitureID: 3, X: 1})
	id := mustJSON(t, p.ID)

	rr := httptest.NewRecorder()
	HandleListPlaced(store)(rr, newRequest(http.MethodGet, "/projects/"+id+"/furniture", "", 1, map[string]string{"id": id}))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var got []core.PlacedObject
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Furniture.Name != "Sofa" || got[0].X != 1 {
		t.Errorf("placed = %+v", got)
	}

	rr = httptest.NewRecorder()
	HandleListPlaced(store)(rr, newRequest(http.MethodGet, "/", "", 2, map[string]string{"id": id}))
	if rr.Code != http.StatusNotFound {
		t.Errorf("other user's project status = %d, want 404", rr.Code)
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}
