// Package intake accepts URLs and hands them to the enrichment pipeline.
//
// Save is synchronous only up to persistence: the item is written in
// pending state and a high-priority job is queued, then the call returns
// with the item and a job ID for polling. Duplicate URLs per owner are
// rejected by content-addressed IDs rather than lookups.
package intake
