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


package storage

import (
	"encoding/binary"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/poiesic/curator/core"
)

// MarshalID serializes an ID to its fixed 8-byte big-endian representation,
// suitable for use inside ordered index keys.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(id))
	return buf
}

// UnmarshalID deserializes an ID from its fixed 8-byte representation.
func UnmarshalID(data []byte) (core.ID, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("%w: id length %d", ErrSerializationFailed, len(data))
	}
	return core.ID(binary.BigEndian.Uint64(data)), nil
}

// MarshalContentItem serializes a ContentItem to bytes.
func MarshalContentItem(item *core.ContentItem) ([]byte, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("%w: content item %d: %w", ErrSerializationFailed, item.Id, err)
	}
	return data, nil
}

// UnmarshalContentItem deserializes a ContentItem from bytes.
func UnmarshalContentItem(data []byte) (*core.ContentItem, error) {
	var item core.ContentItem
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("%w: content item: %w", ErrSerializationFailed, err)
	}
	return &item, nil
}

// MarshalCluster serializes a Cluster to bytes.
func MarshalCluster(cluster *core.Cluster) ([]byte, error) {
	data, err := json.Marshal(cluster)
	if err != nil {
		return nil, fmt.Errorf("%w: cluster %d: %w", ErrSerializationFailed, cluster.Id, err)
	}
	return data, nil
}

// UnmarshalCluster deserializes a Cluster from bytes.
func UnmarshalCluster(data []byte) (*core.Cluster, error) {
	var cluster core.Cluster
	if err := json.Unmarshal(data, &cluster); err != nil {
		return nil, fmt.Errorf("%w: cluster: %w", ErrSerializationFailed, err)
	}
	return &cluster, nil
}

// MarshalEdge serializes a MembershipEdge to bytes.
func MarshalEdge(edge *core.MembershipEdge) ([]byte, error) {
	data, err := json.Marshal(edge)
	if err != nil {
		return nil, fmt.Errorf("%w: edge: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalEdge deserializes a MembershipEdge from bytes.
func UnmarshalEdge(data []byte) (*core.MembershipEdge, error) {
	var edge core.MembershipEdge
	if err := json.Unmarshal(data, &edge); err != nil {
		return nil, fmt.Errorf("%w: edge: %w", ErrSerializationFailed, err)
	}
	return &edge, nil
}

// MarshalJob serializes a Job to bytes.
func MarshalJob(job *core.Job) ([]byte, error) {
	data, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("%w: job %d: %w", ErrSerializationFailed, job.Id, err)
	}
	return data, nil
}

// UnmarshalJob deserializes a Job from bytes.
func UnmarshalJob(data []byte) (*core.Job, error) {
	var job core.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("%w: job: %w", ErrSerializationFailed, err)
	}
	return &job, nil
}

// MarshalJobStatus serializes a JobStatusRecord to bytes.
func MarshalJobStatus(record *core.JobStatusRecord) ([]byte, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("%w: job status %d: %w", ErrSerializationFailed, record.JobId, err)
	}
	return data, nil
}

// UnmarshalJobStatus deserializes a JobStatusRecord from bytes.
func UnmarshalJobStatus(data []byte) (*core.JobStatusRecord, error) {
	var record core.JobStatusRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: job status: %w", ErrSerializationFailed, err)
	}
	return &record, nil
}

// MarshalSuggestions serializes a suggestion list to bytes.
func MarshalSuggestions(suggestions []core.Suggestion) ([]byte, error) {
	data, err := json.Marshal(suggestions)
	if err != nil {
		return nil, fmt.Errorf("%w: suggestions: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalSuggestions deserializes a suggestion list from bytes.
func UnmarshalSuggestions(data []byte) ([]core.Suggestion, error) {
	var suggestions []core.Suggestion
	if err := json.Unmarshal(data, &suggestions); err != nil {
		return nil, fmt.Errorf("%w: suggestions: %w", ErrSerializationFailed, err)
	}
	return suggestions, nil
}
