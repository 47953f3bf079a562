// Package cmd implements the logic command line interface.
//
// Commands:
//
//   - call: send one request envelope to the bridge (in-process or remote)
//     and print the response
//   - cache: get, insert and delete raw entries and show store statistics
//   - serve: expose the bridge over a unix or tcp socket (dev host)
//   - perf: benchmark echo calls through the sync and async paths
//   - stats: print the metrics of a running dev host or of this process
//   - version: print the version
//
// Configuration is read from flags, LOGIC_* environment variables and the
// files .env and .env.local, in this order of precedence.
package cmd
