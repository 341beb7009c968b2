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


package extract

import (
	"context"
	"errors"
)

// ErrExtraction indicates that content could not be fetched or parsed.
// The enrichment pipeline treats this as fatal for the item: no later
// stage runs and the item is marked failed.
var ErrExtraction = errors.New("content extraction failed")

// Result holds what an extractor pulled out of a page. Fields other than
// Title and Body are best effort and may be empty.
type Result struct {
	Title         string
	Body          string
	Author        string
	PublishedDate string
	Domain        string
}

// Extractor fetches a URL and extracts its readable content.
// Implementations must be thread-safe for concurrent use.
type Extractor interface {
	// Extract fetches the URL and returns its extracted content.
	// Failures wrap ErrExtraction.
	Extract(ctx context.Context, url string) (*Result, error)
}
