package config

import (
	"main/utils"
)

// StorageConfig locates the filesystem tree holding attachment and
// avatar files. The database path and pool knobs are read by the
// database layer itself.
type StorageConfig struct {
	Root string
}

type RedisConfig struct {
	URL string
}

func LoadStorageConfig() StorageConfig {
	return StorageConfig{
		Root: utils.GetEnvAsString("STORAGE_ROOT", "data"),
	}
}

func LoadRedisConfig() RedisConfig {
	return RedisConfig{
		URL: utils.GetEnvAsString("REDIS_URL", "redis://localhost:6379/0"),
	}
}
