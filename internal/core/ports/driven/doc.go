// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - ChunkStore: durable, owner-isolated chunk persistence
//   - EmbeddingService: text to fixed-dimension vector conversion
//
// The embedding backend is expected to be wrapped in the resilient
// decorator before it reaches core services, so provider outages
// surface as degraded vectors rather than errors.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
