// Package utils provides the vector math shared by the semantic scoring
// layer: cosine similarity over embedding vectors, normalization, and
// heap-based top-K selection of scored items.
package utils
