package stores

import (
	"github.com/paulIordache/Architecture-Web/config"
	"github.com/paulIordache/Architecture-Web/core"
	"github.com/paulIordache/Architecture-Web/stores/aws"
	"github.com/paulIordache/Architecture-Web/stores/filesystem"
	"github.com/paulIordache/Architecture-Web/stores/memory"
	"github.com/paulIordache/Architecture-Web/stores/sqlite"
	"github.com/sirupsen/logrus"
)

// Store is a union interface that includes all record store types.
type Store interface {
	core.UserStore
	core.ProjectStore
	core.RoomStore
	core.CatalogStore
	core.PlacementStore
}

func GetStore(cfg *config.Server) Store {
	var store Store

	storageField := logrus.Fields{
		"storageType": cfg.StorageType,
	}

	switch cfg.StorageType {
	case "sqlite":
		storageField["dataSourceName"] = cfg.DataSourceName
		store = sqlite.NewStore(cfg.DataSourceName)
	default:
		store = memory.NewStore()
		storageField["storageType"] = "in-memory"
	}
	logrus.WithFields(storageField).Info("Use storage")
	return store
}

func GetAssetStore(cfg *config.Server) core.AssetStore {
	var store core.AssetStore

	storageField := logrus.Fields{
		"assetStorageType": cfg.AssetStorageType,
	}

	switch cfg.AssetStorageType {
	case "s3":
		storageField["bucketName"] = cfg.S3BucketName
		store = aws.NewStore(cfg.S3BucketName)
	default:
		storageField["assetStorageType"] = "filesystem"
		storageField["basePath"] = cfg.LocalStoragePath
		store = filesystem.NewStore(cfg.LocalStoragePath)
	}
	logrus.WithFields(storageField).Info("Use asset storage")
	return store
}
