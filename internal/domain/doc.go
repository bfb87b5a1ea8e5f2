// Package domain contains the core entities of the wiresplit agent.
//
// This package has no dependencies on infrastructure concerns (network,
// file system, logging).
//
// # Entities
//
//   - [Message]: a reassembled frame tagged with its stream and sequence
//   - [Batch]: messages handed to a sink together
//   - [StreamStats]: per-stream counters reported when a stream closes
package domain
