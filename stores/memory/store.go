package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/paulIordache/Architecture-Web/core"
	"github.com/sirupsen/logrus"
)

// memStore implements every planner store interface in memory.
type memStore struct {
	mu        sync.RWMutex
	users     map[core.ID]*core.User
	projects  map[core.ID]*core.Project
	rooms     map[core.ID]*core.Room
	furniture map[core.ID]*core.Furniture
	placed    map[core.ID]*core.PlacedObject
	lastID    core.ID
}

// NewStore creates a seeded in-memory store.
func NewStore() *memStore {
	s := &memStore{
		users:     make(map[core.ID]*core.User),
		projects:  make(map[core.ID]*core.Project),
		rooms:     make(map[core.ID]*core.Room),
		furniture: make(map[core.ID]*core.Furniture),
		placed:    make(map[core.ID]*core.PlacedObject),
		lastID:    100,
	}
	for _, f := range core.SeedCatalog {
		f := f
		s.furniture[f.ID] = &f
	}
	for _, r := range core.SeedRooms {
		r := r
		s.rooms[r.ID] = &r
	}
	return s
}

func (s *memStore) nextID() core.ID {
	s.lastID++
	return s.lastID
}

func (s *memStore) CreateUser(ctx context.Context, user *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email || u.Username == user.Username {
			return fmt.Errorf("user %s: %w", user.Email, core.ErrConflict)
		}
	}
	now := time.Now()
	user.ID = s.nextID()
	user.CreatedAt, user.UpdatedAt = now, now
	u := *user
	s.users[u.ID] = &u

	logrus.WithField("user_id", u.ID).Info("User created successfully")
	return nil
}

func (s *memStore) FindUserByEmail(ctx context.Context, email string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, core.ErrNotFound)
}

func (s *memStore) ListProjects(ctx context.Context, userID core.ID) ([]*core.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	projects := make([]*core.Project, 0)
	for _, p := range s.projects {
		if p.UserID == userID {
			out := *p
			projects = append(projects, &out)
		}
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].ID < projects[j].ID })
	return projects, nil
}

func (s *memStore) GetProject(ctx context.Context, userID, id core.ID) (*core.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[id]
	if !ok || p.UserID != userID {
		logrus.WithFields(logrus.Fields{
			"project_id": id,
			"user_id":    userID,
		}).Warn("Project with specified ID not found")
		return nil, fmt.Errorf("project %d: %w", id, core.ErrNotFound)
	}
	out := *p
	return &out, nil
}

func (s *memStore) CreateProject(ctx context.Context, project *core.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[project.RoomLayoutID]; !ok {
		return fmt.Errorf("room layout %d: %w", project.RoomLayoutID, core.ErrNotFound)
	}
	project.ID = s.nextID()
	p := *project
	s.projects[p.ID] = &p

	logrus.WithFields(logrus.Fields{
		"project_id": p.ID,
		"user_id":    p.UserID,
	}).Info("Project created successfully")
	return nil
}

func (s *memStore) ListRooms(ctx context.Context) ([]*core.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make([]*core.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out := *r
		rooms = append(rooms, &out)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	return rooms, nil
}

func (s *memStore) GetRoom(ctx context.Context, id core.ID) (*core.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rooms[id]
	if !ok {
		return nil, fmt.Errorf("room %d: %w", id, core.ErrNotFound)
	}
	out := *r
	return &out, nil
}

func (s *memStore) ListFurniture(ctx context.Context) ([]*core.Furniture, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]*core.Furniture, 0, len(s.furniture))
	for _, f := range s.furniture {
		out := *f
		items = append(items, &out)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (s *memStore) GetFurniture(ctx context.Context, id core.ID) (*core.Furniture, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.furniture[id]
	if !ok {
		return nil, fmt.Errorf("furniture %d: %w", id, core.ErrNotFound)
	}
	out := *f
	return &out, nil
}

func (s *memStore) ListPlaced(ctx context.Context, projectID core.ID) ([]*core.PlacedObject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objs := make([]*core.PlacedObject, 0)
	for _, o := range s.placed {
		if o.ProjectID == projectID {
			objs = append(objs, s.withFurniture(o))
		}
	}
	sort.Slice(objs, func(i, j int) bool { return objs[i].ID < objs[j].ID })
	return objs, nil
}

func (s *memStore) GetPlaced(ctx context.Context, id core.ID) (*core.PlacedObject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.placed[id]
	if !ok {
		return nil, fmt.Errorf("placed furniture %d: %w", id, core.ErrNotFound)
	}
	return s.withFurniture(o), nil
}

func (s *memStore) CreatePlaced(ctx context.Context, placed *core.PlacedObject) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[placed.ProjectID]; !ok {
		return fmt.Errorf("project %d: %w", placed.ProjectID, core.ErrNotFound)
	}
	if _, ok := s.furniture[placed.FurnitureID]; !ok {
		return fmt.Errorf("furniture %d: %w", placed.FurnitureID, core.ErrNotFound)
	}
	placed.ID = s.nextID()
	o := *placed
	s.placed[o.ID] = &o
	*placed = *s.withFurniture(&o)

	logrus.WithFields(logrus.Fields{
		"placed_id":    o.ID,
		"project_id":   o.ProjectID,
		"furniture_id": o.FurnitureID,
	}).Info("Placed furniture created successfully")
	return nil
}

func (s *memStore) UpdatePlaced(ctx context.Context, id core.ID, t core.Transform) (*core.PlacedObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.placed[id]
	if !ok {
		return nil, fmt.Errorf("placed furniture %d: %w", id, core.ErrNotFound)
	}
	updated := o.WithTransform(t)
	s.placed[id] = &updated
	return s.withFurniture(&updated), nil
}

func (s *memStore) DeletePlaced(ctx context.Context, id core.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.placed[id]; !ok {
		return fmt.Errorf("placed furniture %d: %w", id, core.ErrNotFound)
	}
	delete(s.placed, id)
	logrus.WithField("placed_id", id).Info("Placed furniture deleted")
	return nil
}

// withFurniture copies o and embeds its catalog entry. Callers hold mu.
func (s *memStore) withFurniture(o *core.PlacedObject) *core.PlacedObject {
	out := *o
	if f, ok := s.furniture[o.FurnitureID]; ok {
		out.Furniture = *f
	}
	return &out
}
