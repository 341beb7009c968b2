// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"net/url"
)

// ValidateContentItem validates a ContentItem according to domain rules.
//
// Validation rules:
//   - OwnerId must be non-zero
//   - URL must be a valid http(s) URL
//
// NOT validated (populated by the enrichment pipeline):
//   - FullText, Embedding, Metadata, ContentType
func ValidateContentItem(item *ContentItem) error {
	if item == nil {
		return fmt.Errorf("%w: item is nil", ErrInvalidContentItem)
	}

	if item.OwnerId == 0 {
		return fmt.Errorf("%w: owner is required", ErrInvalidContentItem)
	}

	if err := ValidateURL(item.URL); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidContentItem, err)
	}

	return nil
}

// ValidateCluster validates a Cluster according to domain rules.
func ValidateCluster(cluster *Cluster) error {
	if cluster == nil {
		return fmt.Errorf("%w: cluster is nil", ErrInvalidCluster)
	}

	if cluster.OwnerId == 0 {
		return fmt.Errorf("%w: owner is required", ErrInvalidCluster)
	}

	if cluster.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCluster, ErrEmptyClusterName)
	}

	return nil
}

// ValidateURL checks that a raw URL parses and uses an http(s) scheme.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", ErrInvalidURL, parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return nil
}

// ValidatePriority validates that a Priority has a valid value.
func ValidatePriority(p Priority) error {
	if p != PriorityHigh && p != PriorityNormal && p != PriorityLow {
		return fmt.Errorf("%w: value %d", ErrInvalidPriority, p)
	}
	return nil
}

// CanTransition reports whether a processing status change is allowed.
// Transitions only move forward; terminal states accept no further moves.
func CanTransition(from, to ProcessingStatus) bool {
	switch from {
	case ContentPending:
		return to == ContentProcessing || to == ContentCompleted || to == ContentFailed
	case ContentProcessing:
		return to == ContentCompleted || to == ContentFailed
	default:
		return false
	}
}
