// Package reembed provides functionality for reembedding existing content
// items with new or updated embedding models.
//
// This package supports batch processing of content items, progress
// tracking, retry logic with exponential backoff, and vector normalization
// to ensure compatibility with cosine similarity. Cluster centroids are
// recomputed after reembedding so suggestion scoring stays consistent.
package reembed
