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


// Package cluster manages topic clusters over saved content.
//
// A cluster groups one owner's related content items through membership
// edges. Every membership change triggers a full recompute of the cluster's
// item count, coherence score (mean pairwise cosine similarity of member
// embeddings), and centroid embedding. Similarity math lives in
// coherence.go and is shared with the enrichment pipeline's suggestion
// stage.
//
// The Summarizer turns cluster-summary queue jobs into synthesized,
// citation-backed summaries via an ai.Synthesizer. Clusters with fewer
// than three members are skipped. Synthesis failures degrade to a fixed
// placeholder summary instead of failing the job.
package cluster
