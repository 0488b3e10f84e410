package badger

import (
	"encoding/binary"

	"github.com/poiesic/jobvec/core"
)

// Key prefixes for different data types
const (
	jobDocPrefix     = "jobdoc:"
	jobIDIndexPrefix = "jobid:"
	jobPendingPrefix = "jobpend:"
	jobDocIDSeq      = "jobdocseq"
)

// makeFixedKey appends id in BigEndian order so lexicographic key order
// matches numeric ID order.
func makeFixedKey(prefix string, id core.ID) []byte {
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeJobDocKey generates the primary key for a document.
// Format: prefix:id
func makeJobDocKey(id core.ID) []byte {
	return makeFixedKey(jobDocPrefix, id)
}

// makeJobPendingKey generates the key marking a document as under-embedded.
// Format: prefix:id
func makeJobPendingKey(id core.ID) []byte {
	return makeFixedKey(jobPendingPrefix, id)
}

// makeJobIDIndexKey generates the job_id index key.
// Format: prefix:job_id
func makeJobIDIndexKey(jobID string) []byte {
	buf := make([]byte, len(jobIDIndexPrefix)+len(jobID))
	offset := copy(buf, jobIDIndexPrefix)
	copy(buf[offset:], jobID)
	return buf
}

// idFromFixedKey extracts the ID from a key built by makeFixedKey.
func idFromFixedKey(prefix string, key []byte) (core.ID, bool) {
	if len(key) != len(prefix)+8 {
		return 0, false
	}
	return core.ID(binary.BigEndian.Uint64(key[len(prefix):])), true
}
