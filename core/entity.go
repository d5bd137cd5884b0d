package core

import "time"

// ID identifies a server-assigned record. Zero means "none".
type ID int64

const NoID ID = 0

type (
	// Vec3 is a world-space point. Y is vertical.
	Vec3 struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
		Z float64 `json:"z"`
	}

	// Transform is the mutable placement state of an object: position plus yaw.
	Transform struct {
		Position Vec3
		Rotation float64
	}

	// Furniture is a catalog entry.
	Furniture struct {
		ID            ID     `json:"id"`
		Name          string `json:"name"`
		ObjFilePath   string `json:"obj_file_path"`
		TexturePath   string `json:"texture_path"`
		ThumbnailPath string `json:"thumbnail_path"`
	}

	// PlacedObject is a furniture instance positioned in a project's room.
	// The wire format flattens the position into x/y/z.
	PlacedObject struct {
		ID          ID        `json:"id"`
		ProjectID   ID        `json:"project_id"`
		FurnitureID ID        `json:"furniture_id"`
		X           float64   `json:"x"`
		Y           float64   `json:"y"`
		Z           float64   `json:"z"`
		Rotation    float64   `json:"rotation"`
		Furniture   Furniture `json:"furniture"`
	}

	Project struct {
		ID           ID     `json:"id"`
		UserID       ID     `json:"user_id"`
		Name         string `json:"name"`
		Description  string `json:"description"`
		RoomLayoutID ID     `json:"room_layout_id"`
	}

	// Room is a room layout mesh that projects are built on.
	Room struct {
		ID            ID     `json:"id"`
		Name          string `json:"name"`
		ObjFilePath   string `json:"obj_file_path"`
		TexturePath   string `json:"texture_path"`
		ThumbnailPath string `json:"thumbnail_path"`
	}

	User struct {
		ID           ID        `json:"id"`
		Username     string    `json:"username"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"-"`
		CreatedAt    time.Time `json:"createdAt"`
		UpdatedAt    time.Time `json:"updatedAt"`
	}
)

// Position returns the object's position as a vector.
func (o PlacedObject) Position() Vec3 {
	return Vec3{X: o.X, Y: o.Y, Z: o.Z}
}

// Transform returns the object's position and rotation.
func (o PlacedObject) Transform() Transform {
	return Transform{Position: o.Position(), Rotation: o.Rotation}
}

// WithTransform returns a copy of o carrying t. The receiver is not modified.
func (o PlacedObject) WithTransform(t Transform) PlacedObject {
	o.X, o.Y, o.Z = t.Position.X, t.Position.Y, t.Position.Z
	o.Rotation = t.Rotation
	return o
}
