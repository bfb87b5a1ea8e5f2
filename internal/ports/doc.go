// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// # Port Interfaces
//
//   - [Source]: produces byte streams (files, TCP connections, websockets)
//   - [Stream]: one byte stream read chunk by chunk
//   - [Sink]: consumes batches of reassembled messages
//   - [Logger]: structured logging abstraction
//   - [HTTPClient]: HTTP request abstraction for dependency injection
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them.
package ports
