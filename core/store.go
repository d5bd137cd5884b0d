package core

import (
	"context"
	"io"
	"time"
)

type (
	// UserStore persists accounts for the register/login flow.
	UserStore interface {
		CreateUser(ctx context.Context, user *User) error
		FindUserByEmail(ctx context.Context, email string) (*User, error)
	}

	// ProjectStore persists projects. Reads are scoped to the owning user.
	ProjectStore interface {
		ListProjects(ctx context.Context, userID ID) ([]*Project, error)
		GetProject(ctx context.Context, userID, id ID) (*Project, error)
		CreateProject(ctx context.Context, project *Project) error
	}

	// RoomStore exposes the room layouts a project can be built on.
	RoomStore interface {
		ListRooms(ctx context.Context) ([]*Room, error)
		GetRoom(ctx context.Context, id ID) (*Room, error)
	}

	// CatalogStore exposes the furniture catalog.
	CatalogStore interface {
		ListFurniture(ctx context.Context) ([]*Furniture, error)
		GetFurniture(ctx context.Context, id ID) (*Furniture, error)
	}

	// PlacementStore persists placed furniture. Every returned PlacedObject
	// embeds its catalog entry.
	PlacementStore interface {
		ListPlaced(ctx context.Context, projectID ID) ([]*PlacedObject, error)
		GetPlaced(ctx context.Context, id ID) (*PlacedObject, error)
		CreatePlaced(ctx context.Context, placed *PlacedObject) error
		UpdatePlaced(ctx context.Context, id ID, t Transform) (*PlacedObject, error)
		DeletePlaced(ctx context.Context, id ID) error
	}

	// AssetInfo describes a stored asset blob.
	AssetInfo struct {
		Key         string
		ContentType string
		Size        int64
		ModTime     time.Time
	}

	// AssetStore holds meshes, textures and thumbnails addressed by a
	// slash-separated key.
	AssetStore interface {
		Open(ctx context.Context, key string) (io.ReadCloser, *AssetInfo, error)
		Put(ctx context.Context, key string, r io.Reader) (string, error)
	}
)
