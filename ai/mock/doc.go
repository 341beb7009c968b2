// Package mock provides test doubles for the ai interfaces.
//
// The mocks are deterministic by default: the embedder derives unit vectors
// from an FNV hash of the input text, the analyzer extracts capitalized
// title words as entities, and the synthesizer lists member titles. Custom
// behavior can be injected per test via the exported function fields.
package mock
