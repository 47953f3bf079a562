// Package common provides the configuration structures and logging setup
// shared by the bridge runtime, the C boundary library, the dev host server
// and the command line interface.
//
// Key Components:
//
//   - BridgeConfig: Process wide settings of the bridge (cache location and
//     budget, flush interval, async concurrency limit, buffer tracking, log level).
//     Can be populated from LOGIC_* environment variables via InitEnv and
//     BridgeConfigFromViper.
//
//   - ServerConfig / ClientConfig: Settings for exposing a bridge over a socket
//     to a host running in another process and for connecting to it.
//
//   - Logger: zap backed implementation of dragonboat's logger.ILogger. All
//     packages obtain named loggers via logger.GetLogger and InitLoggers sets
//     their level in one place.
package common
