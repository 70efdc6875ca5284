// Package memory adds retrieval-augmented generation to an agent.
//
// The retrieval agent wraps any core.Agent:
//   - RETRIEVE phase: CreatePrompt runs a similarity search for the user's
//     message and injects the results under the "documents" prompt option
//   - RECORD phase: Send taps the response stream and, once it completes,
//     writes the prompt and the aggregated response back to the store
//
// Backends:
//   - store/chromem: chromem-go embedded vector database
//   - embedder/hash: offline feature-hashing embedder for tests and demos
//   - embedder/openai: OpenAI embeddings API
//   - embedder/cached: ristretto cache in front of any Embedder
package memory
