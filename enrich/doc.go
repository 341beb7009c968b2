// Package enrich turns a saved URL into an enriched content item.
//
// The pipeline runs four stages per job: web extraction, LLM analysis,
// embedding, and cluster suggestion. Extraction failure marks the item
// failed and fails the job; analysis and embedding failures degrade to
// fallback values so the item still completes. Suggestions are cached
// with a short TTL and, for existing clusters, paired with low-priority
// summary refresh jobs.
package enrich
