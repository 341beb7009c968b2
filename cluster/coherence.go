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


package cluster

import "math"

// CosineSimilarity computes the cosine similarity of two vectors, clamped
// to [0, 1]. Degenerate inputs (length mismatch, empty vectors, zero
// magnitude) return 0. The result is never NaN.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}

	similarity := dot / (math.Sqrt(magA) * math.Sqrt(magB))
	if math.IsNaN(similarity) {
		return 0
	}
	if similarity < 0 {
		return 0
	}
	if similarity > 1 {
		return 1
	}
	return similarity
}

// Coherence computes the mean pairwise cosine similarity over a set of
// member embeddings. Fewer than two embedded members yields 0.
func Coherence(vectors [][]float32) float64 {
	embedded := make([][]float32, 0, len(vectors))
	for _, v := range vectors {
		if len(v) > 0 {
			embedded = append(embedded, v)
		}
	}
	if len(embedded) < 2 {
		return 0
	}

	var sum float64
	pairs := 0
	for i := 0; i < len(embedded); i++ {
		for j := i + 1; j < len(embedded); j++ {
			sum += CosineSimilarity(embedded[i], embedded[j])
			pairs++
		}
	}
	return sum / float64(pairs)
}

// Centroid computes the mean of the member embeddings, used as the
// cluster's representative vector. Empty vectors are skipped; vectors whose
// length disagrees with the first embedded member are skipped too. Returns
// nil when nothing is embedded.
func Centroid(vectors [][]float32) []float32 {
	var dim int
	for _, v := range vectors {
		if len(v) > 0 {
			dim = len(v)
			break
		}
	}
	if dim == 0 {
		return nil
	}

	sum := make([]float64, dim)
	count := 0
	for _, v := range vectors {
		if len(v) != dim {
			continue
		}
		for i := range v {
			sum[i] += float64(v[i])
		}
		count++
	}

	centroid := make([]float32, dim)
	for i := range sum {
		centroid[i] = float32(sum[i] / float64(count))
	}
	return centroid
}
