package config

const (
	delimiter = "."

	ConfigPrefix = "config"

	KeyStorePrefix       = ConfigPrefix + delimiter + "store"
	KeyStoreEffectBuffer = KeyStorePrefix + delimiter + "effect_buffer"

	KeyTrackerPrefix = ConfigPrefix + delimiter + "tracker"
	KeyTrackerShards = KeyTrackerPrefix + delimiter + "shards"

	KeyGamePrefix = ConfigPrefix + delimiter + "game"
	KeyGameFPS    = KeyGamePrefix + delimiter + "fps"

	KeyLogPrefix      = ConfigPrefix + delimiter + "log"
	KeyLogLevel       = KeyLogPrefix + delimiter + "level"
	KeyLogDevelopment = KeyLogPrefix + delimiter + "development"

	KeyStoragePrefix    = ConfigPrefix + delimiter + "storage"
	KeyStorageBackend   = KeyStoragePrefix + delimiter + "backend"
	KeyStoragePath      = KeyStoragePrefix + delimiter + "path"
	KeyStorageBucket    = KeyStoragePrefix + delimiter + "bucket"
	KeyStorageCacheSize = KeyStoragePrefix + delimiter + "cache_size"
)
