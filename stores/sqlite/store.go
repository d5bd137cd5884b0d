package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/paulIordache/Architecture-Web/core"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

type sqliteStore struct {
	db *sql.DB
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	);`,
	`CREATE TABLE IF NOT EXISTS room_layouts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		obj_file_path TEXT NOT NULL,
		texture_path TEXT,
		thumbnail_path TEXT
	);`,
	`CREATE TABLE IF NOT EXISTS furniture (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		obj_file_path TEXT NOT NULL,
		texture_path TEXT,
		thumbnail_path TEXT
	);`,
	`CREATE TABLE IF NOT EXISTS projects (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id),
		name TEXT NOT NULL,
		description TEXT,
		room_layout_id INTEGER NOT NULL REFERENCES room_layouts(id)
	);`,
	`CREATE TABLE IF NOT EXISTS placed_furniture (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		furniture_id INTEGER NOT NULL REFERENCES furniture(id),
		x REAL NOT NULL DEFAULT 0,
		y REAL NOT NULL DEFAULT 0,
		z REAL NOT NULL DEFAULT 0,
		rotation REAL NOT NULL DEFAULT 0
	);`,
}

// NewStore opens the SQLite database, creates the schema and seeds the
// catalog and room layouts.
func NewStore(dataSourceName string) *sqliteStore {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		log.Fatalf("failed to open sqlite database: %v", err)
	}
	// A single connection keeps :memory: databases coherent.
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err = db.Exec(stmt); err != nil {
			log.Fatalf("failed to create schema: %v", err)
		}
	}
	for _, f := range core.SeedCatalog {
		if _, err = db.Exec(`INSERT OR IGNORE INTO furniture (id, name, obj_file_path, texture_path, thumbnail_path) VALUES (?, ?, ?, ?, ?)`,
			f.ID, f.Name, f.ObjFilePath, f.TexturePath, f.ThumbnailPath); err != nil {
			log.Fatalf("failed to seed furniture: %v", err)
		}
	}
	for _, r := range core.SeedRooms {
		if _, err = db.Exec(`INSERT OR IGNORE INTO room_layouts (id, name, obj_file_path, texture_path, thumbnail_path) VALUES (?, ?, ?, ?, ?)`,
			r.ID, r.Name, r.ObjFilePath, r.TexturePath, r.ThumbnailPath); err != nil {
			log.Fatalf("failed to seed room layouts: %v", err)
		}
	}

	return &sqliteStore{db}
}

// Close releases the database handle.
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (s *sqliteStore) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// UserStore implementation
func (s *sqliteStore) CreateUser(ctx context.Context, user *core.User) error {
	log := logrus.WithField("email", user.Email)
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		user.Username, user.Email, user.PasswordHash, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			log.Warn("User already exists")
			return fmt.Errorf("user %s: %w", user.Email, core.ErrConflict)
		}
		log.WithError(err).Error("Failed to create user")
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = core.ID(id)
	user.CreatedAt, user.UpdatedAt = now, now
	log.WithField("user_id", user.ID).Info("User created successfully")
	return nil
}

func (s *sqliteStore) FindUserByEmail(ctx context.Context, email string) (*core.User, error) {
	var u core.User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, username, email, password_hash, created_at, updated_at FROM users WHERE email = ?", email).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", email, core.ErrNotFound)
		}
		return nil, err
	}
	return &u, nil
}

// ProjectStore implementation
func (s *sqliteStore) ListProjects(ctx context.Context, userID core.ID) ([]*core.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, name, COALESCE(description, ''), room_layout_id FROM projects WHERE user_id = ? ORDER BY id", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := make([]*core.Project, 0)
	for rows.Next() {
		var p core.Project
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.RoomLayoutID); err != nil {
			return nil, err
		}
		projects = append(projects, &p)
	}
	return projects, rows.Err()
}

func (s *sqliteStore) GetProject(ctx context.Context, userID, id core.ID) (*core.Project, error) {
	var p core.Project
	err := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, name, COALESCE(description, ''), room_layout_id FROM projects WHERE id = ? AND user_id = ?", id, userID).
		Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.RoomLayoutID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logrus.WithFields(logrus.Fields{
				"project_id": id,
				"user_id":    userID,
			}).Warn("Project with specified ID not found")
			return nil, fmt.Errorf("project %d: %w", id, core.ErrNotFound)
		}
		return nil, err
	}
	return &p, nil
}

func (s *sqliteStore) CreateProject(ctx context.Context, project *core.Project) error {
	ok, err := s.exists(ctx, "SELECT 1 FROM room_layouts WHERE id = ?", project.RoomLayoutID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("room layout %d: %w", project.RoomLayoutID, core.ErrNotFound)
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO projects (user_id, name, description, room_layout_id) VALUES (?, ?, ?, ?)",
		project.UserID, project.Name, project.Description, project.RoomLayoutID)
	if err != nil {
		logrus.WithError(err).Error("Failed to create project")
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	project.ID = core.ID(id)
	logrus.WithFields(logrus.Fields{
		"project_id": project.ID,
		"user_id":    project.UserID,
	}).Info("Project created successfully")
	return nil
}

// RoomStore implementation
func (s *sqliteStore) ListRooms(ctx context.Context) ([]*core.Room, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, obj_file_path, COALESCE(texture_path, ''), COALESCE(thumbnail_path, '') FROM room_layouts ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rooms := make([]*core.Room, 0)
	for rows.Next() {
		var r core.Room
		if err := rows.Scan(&r.ID, &r.Name, &r.ObjFilePath, &r.TexturePath, &r.ThumbnailPath); err != nil {
			return nil, err
		}
		rooms = append(rooms, &r)
	}
	return rooms, rows.Err()
}

func (s *sqliteStore) GetRoom(ctx context.Context, id core.ID) (*core.Room, error) {
	var r core.Room
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, obj_file_path, COALESCE(texture_path, ''), COALESCE(thumbnail_path, '') FROM room_layouts WHERE id = ?", id).
		Scan(&r.ID, &r.Name, &r.ObjFilePath, &r.TexturePath, &r.ThumbnailPath)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("room %d: %w", id, core.ErrNotFound)
		}
		return nil, err
	}
	return &r, nil
}

// CatalogStore implementation
func (s *sqliteStore) ListFurniture(ctx context.Context) ([]*core.Furniture, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, obj_file_path, COALESCE(texture_path, ''), COALESCE(thumbnail_path, '') FROM furniture ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*core.Furniture, 0)
	for rows.Next() {
		var f core.Furniture
		if err := rows.Scan(&f.ID, &f.Name, &f.ObjFilePath, &f.TexturePath, &f.ThumbnailPath); err != nil {
			return nil, err
		}
		items = append(items, &f)
	}
	return items, rows.Err()
}

func (s *sqliteStore) GetFurniture(ctx context.Context, id core.ID) (*core.Furniture, error) {
	var f core.Furniture
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, obj_file_path, COALESCE(texture_path, ''), COALESCE(thumbnail_path, '') FROM furniture WHERE id = ?", id).
		Scan(&f.ID, &f.Name, &f.ObjFilePath, &f.TexturePath, &f.ThumbnailPath)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("furniture %d: %w", id, core.ErrNotFound)
		}
		return nil, err
	}
	return &f, nil
}

// PlacementStore implementation
const placedSelect = `SELECT p.id, p.project_id, p.furniture_id, p.x, p.y, p.z, p.rotation,
	f.id, f.name, f.obj_file_path, COALESCE(f.texture_path, ''), COALESCE(f.thumbnail_path, '')
	FROM placed_furniture p JOIN furniture f ON f.id = p.furniture_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanPlaced(row scanner) (*core.PlacedObject, error) {
	var o core.PlacedObject
	err := row.Scan(&o.ID, &o.ProjectID, &o.FurnitureID, &o.X, &o.Y, &o.Z, &o.Rotation,
		&o.Furniture.ID, &o.Furniture.Name, &o.Furniture.ObjFilePath, &o.Furniture.TexturePath, &o.Furniture.ThumbnailPath)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *sqliteStore) ListPlaced(ctx context.Context, projectID core.ID) ([]*core.PlacedObject, error) {
	rows, err := s.db.QueryContext(ctx, placedSelect+" WHERE p.project_id = ? ORDER BY p.id", projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	objs := make([]*core.PlacedObject, 0)
	for rows.Next() {
		o, err := scanPlaced(rows)
		if err != nil {
			return nil, err
		}
		objs = append(objs, o)
	}
	return objs, rows.Err()
}

func (s *sqliteStore) GetPlaced(ctx context.Context, id core.ID) (*core.PlacedObject, error) {
	o, err := scanPlaced(s.db.QueryRowContext(ctx, placedSelect+" WHERE p.id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("placed furniture %d: %w", id, core.ErrNotFound)
		}
		return nil, err
	}
	return o, nil
}

func (s *sqliteStore) CreatePlaced(ctx context.Context, placed *core.PlacedObject) error {
	log := logrus.WithFields(logrus.Fields{
		"project_id":   placed.ProjectID,
		"furniture_id": placed.FurnitureID,
	})

	ok, err := s.exists(ctx, "SELECT 1 FROM projects WHERE id = ?", placed.ProjectID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("project %d: %w", placed.ProjectID, core.ErrNotFound)
	}
	if ok, err = s.exists(ctx, "SELECT 1 FROM furniture WHERE id = ?", placed.FurnitureID); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("furniture %d: %w", placed.FurnitureID, core.ErrNotFound)
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO placed_furniture (project_id, furniture_id, x, y, z, rotation) VALUES (?, ?, ?, ?, ?, ?)",
		placed.ProjectID, placed.FurnitureID, placed.X, placed.Y, placed.Z, placed.Rotation)
	if err != nil {
		log.WithError(err).Error("Failed to create placed furniture")
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := s.GetPlaced(ctx, core.ID(id))
	if err != nil {
		return err
	}
	*placed = *stored
	log.WithField("placed_id", placed.ID).Info("Placed furniture created successfully")
	return nil
}

func (s *sqliteStore) UpdatePlaced(ctx context.Context, id core.ID, t core.Transform) (*core.PlacedObject, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE placed_furniture SET x = ?, y = ?, z = ?, rotation = ? WHERE id = ?",
		t.Position.X, t.Position.Y, t.Position.Z, t.Rotation, id)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, fmt.Errorf("placed furniture %d: %w", id, core.ErrNotFound)
	}
	return s.GetPlaced(ctx, id)
}

func (s *sqliteStore) DeletePlaced(ctx context.Context, id core.ID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM placed_furniture WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("placed furniture %d: %w", id, core.ErrNotFound)
	}
	logrus.WithField("placed_id", id).Info("Placed furniture deleted")
	return nil
}
