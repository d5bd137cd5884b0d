package core

// SeedCatalog is the furniture a fresh backend store starts with.
var SeedCatalog = []Furniture{
	{ID: 1, Name: "Chair", ObjFilePath: "chair.obj", TexturePath: "chair_texture.jpg", ThumbnailPath: "chair_thumbnail.jpg"},
	{ID: 2, Name: "Table", ObjFilePath: "table.obj", TexturePath: "table_texture.jpg", ThumbnailPath: "table_thumbnail.jpg"},
	{ID: 3, Name: "Sofa", ObjFilePath: "objects/sofa.obj", TexturePath: "objects/sofa_texture.jpg", ThumbnailPath: "objects/sofa_thumbnail.jpg"},
}

// SeedRooms are the room layouts a fresh backend store starts with.
var SeedRooms = []Room{
	{ID: 1, Name: "Living Room", ObjFilePath: "room.obj", TexturePath: "room_texture.jpg", ThumbnailPath: "room_thumbnail.jpg"},
}
