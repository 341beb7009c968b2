package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/curator/core"
)

// Key prefixes for different data types
const (
	jobPrefix          = "job"
	jobStatusPrefix    = "jobstat"
	jobIDSeq           = "jobseq"
	contentPrefix      = "con"
	contentOwnerPrefix = "cono"
	clusterPrefix      = "clu"
	clusterOwnerPrefix = "cluo"
	clusterIDSeq       = "cluseq"
	edgeClusterPrefix  = "edg"
	edgeContentPrefix  = "edgc"
	suggestionPrefix   = "sugg"
)

// makeJobQueuePrefix generates the common prefix of all jobs on a queue.
// Iterating this prefix yields jobs in priority-then-FIFO order.
func makeJobQueuePrefix(queue string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", jobPrefix, queue))
}

// makeJobPriorityPrefix generates the prefix of one priority class on a queue.
func makeJobPriorityPrefix(queue string, priority core.Priority) []byte {
	prefix := makeJobQueuePrefix(queue)
	return append(prefix, byte('0'+priority))
}

// makeJobKey generates a key for a queued job.
// Format: job:queue:<priority byte><sequence>
// The priority byte is '0'+priority and the sequence is big-endian, so
// lexicographic key order is exactly dequeue order.
func makeJobKey(queue string, priority core.Priority, seq uint64) []byte {
	prefix := makeJobPriorityPrefix(queue, priority)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}

// makeJobStatusKey generates a key for a job's terminal status record.
func makeJobStatusKey(jobID core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", jobStatusPrefix, jobID))
}

// makeContentKey generates a key for a content item by ID.
func makeContentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", contentPrefix, id))
}

// makeContentOwnerKey generates a composite key for the owner index.
// Format: prefix:ownerID:createdAt:contentID, all fixed-width big-endian so
// a reverse scan walks an owner's items newest first.
func makeContentOwnerKey(ownerID core.ID, createdAt time.Time, contentID core.ID) []byte {
	prefix := contentOwnerPrefix + ":"
	buf := make([]byte, len(prefix)+24)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(ownerID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(createdAt.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(contentID))
	return buf
}

// makePartialContentOwnerKey generates the prefix of one owner's index entries.
func makePartialContentOwnerKey(ownerID core.ID) []byte {
	prefix := contentOwnerPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(ownerID))
	return buf
}

// makeClusterKey generates a key for a cluster by ID.
func makeClusterKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", clusterPrefix, id))
}

// makeClusterOwnerKey generates a composite key for the cluster owner index.
// Format: prefix:ownerID:clusterID
func makeClusterOwnerKey(ownerID, clusterID core.ID) []byte {
	prefix := clusterOwnerPrefix + ":"
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(ownerID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(clusterID))
	return buf
}

// makePartialClusterOwnerKey generates the prefix of one owner's clusters.
func makePartialClusterOwnerKey(ownerID core.ID) []byte {
	prefix := clusterOwnerPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(ownerID))
	return buf
}

// makeEdgeClusterKey generates the cluster-side key of a membership edge.
// Format: prefix:clusterID:contentID
func makeEdgeClusterKey(clusterID, contentID core.ID) []byte {
	prefix := edgeClusterPrefix + ":"
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(clusterID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(contentID))
	return buf
}

// makePartialEdgeClusterKey generates the prefix of one cluster's edges.
func makePartialEdgeClusterKey(clusterID core.ID) []byte {
	prefix := edgeClusterPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(clusterID))
	return buf
}

// makeEdgeContentKey generates the content-side key of a membership edge.
// Format: prefix:contentID:clusterID
func makeEdgeContentKey(contentID, clusterID core.ID) []byte {
	prefix := edgeContentPrefix + ":"
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(contentID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(clusterID))
	return buf
}

// makePartialEdgeContentKey generates the prefix of one content item's edges.
func makePartialEdgeContentKey(contentID core.ID) []byte {
	prefix := edgeContentPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(contentID))
	return buf
}

// makeSuggestionKey generates a key for a content item's cached suggestions.
func makeSuggestionKey(contentID core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", suggestionPrefix, contentID))
}
