// Package embedder provides text embedding clients for the semantic layer.
//
// The Client interface covers batch and single-text embedding. Two
// implementations ship: OpenAI (text-embedding-3-small and friends) and a
// local EmbedEverything model. CircuitBreakerClient wraps any Client with
// failure-rate circuit breaking and an alerting hook.
//
// The search engine treats the embedding provider as optional: with no
// client configured the semantic layer scores 0 everywhere and the other
// layers carry the query.
package embedder
