// Package domain defines the core business entities for accord.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An ingested agreement with its preview and vector
//   - VectorRecord / Match: What is written to and read from a vector store
//   - AuthSession / AuthAttempt: The OAuth PKCE session and its pending attempts
//   - Envelope / EnvelopeDocument: Read-only projections of DocuSign data
//   - EmbeddingOutcome: Which embedding path served a vector
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
