// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - EmbeddingService: Turns text into fixed-length vectors
//   - VectorStore: Managed or local similarity index (Pinecone, Weaviate, Badger)
//   - Normaliser / NormaliserRegistry: Extracts text from PDF, DOCX and plain text
//   - ConfigStore: Application configuration file
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Answer generation. Without it, search returns matches only.
//   - IngestLedger: Local record of ingested documents.
//   - TokenExchanger / DocumentPlatform: DocuSign login and import.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
