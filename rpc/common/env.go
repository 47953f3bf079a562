package common

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of all environment variables read by the bridge,
// e.g. LOGIC_CACHE_PATH or LOGIC_LOG_LEVEL.
const EnvPrefix = "logic"

// Configuration keys, shared by cobra flags and environment variables
const (
	KeyCachePath       = "cache-path"
	KeyCacheCapacityMB = "cache-capacity-mb"
	KeyFlushIntervalMs = "flush-interval-ms"
	KeyMaxConcurrency  = "max-concurrency"
	KeyTrackBuffers    = "track-buffers"
	KeyLogLevel        = "log-level"
)

// InitEnv loads .env files and connects viper to the environment.
func InitEnv() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	defaults := DefaultBridgeConfig()
	viper.SetDefault(KeyCacheCapacityMB, defaults.CacheCapacityMB)
	viper.SetDefault(KeyFlushIntervalMs, defaults.FlushIntervalMs)
	viper.SetDefault(KeyLogLevel, defaults.LogLevel)
}

// BridgeConfigFromViper reads the bridge configuration from viper
func BridgeConfigFromViper() BridgeConfig {
	return BridgeConfig{
		CachePath:       viper.GetString(KeyCachePath),
		CacheCapacityMB: viper.GetInt(KeyCacheCapacityMB),
		FlushIntervalMs: viper.GetInt(KeyFlushIntervalMs),
		MaxConcurrency:  viper.GetInt(KeyMaxConcurrency),
		TrackBuffers:    viper.GetBool(KeyTrackBuffers),
		LogLevel:        viper.GetString(KeyLogLevel),
	}
}

// LoadBridgeConfig loads the environment and returns the bridge
// configuration. Used where no command line exists, e.g. in the shared
// library.
func LoadBridgeConfig() BridgeConfig {
	InitEnv()
	return BridgeConfigFromViper()
}
