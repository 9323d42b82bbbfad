package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/ruleforge/core"
)

// Key prefixes for different data types
const (
	documentPrefix     = "docrec"
	documentHashPrefix = "dochash"
	documentIDSeq      = "docrecseq"
	runPrefix          = "runrec"
	summaryCurPrefix   = "sumcur"
	summaryHistPrefix  = "sumhist"
	ruleSetCurPrefix   = "rulcur"
	ruleSetHistPrefix  = "rulhist"
	blobPrefix         = "blob"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeDocumentHashKey generates a key for the content-hash dedup index.
func makeDocumentHashKey(hash string) []byte {
	return []byte(documentHashPrefix + ":" + hash)
}

// makeRunKey generates a composite key for a pipeline run.
// Format: prefix:docID:sequence:stage:attempt, all fixed width so a prefix
// scan yields runs in (sequence, stage, attempt) order.
func makeRunKey(id core.ID, sequence int, stage core.Stage, attempt int) []byte {
	prefix := runPrefix + ":"
	buf := make([]byte, len(prefix)+8+8+1+8)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(sequence))
	offset += 8
	buf[offset] = byte(stage)
	offset++
	binary.BigEndian.PutUint64(buf[offset:], uint64(attempt))
	return buf
}

// makeRunScanPrefix generates the scan prefix covering every run of a document.
func makeRunScanPrefix(id core.ID) []byte {
	prefix := runPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeSummaryKey generates the key for a document's current summary.
func makeSummaryKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", summaryCurPrefix, id))
}

// makeRuleSetKey generates the key for a document's current rule set.
func makeRuleSetKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", ruleSetCurPrefix, id))
}

// makeHistoryKey generates a composite key for a retained artifact.
// Format: prefix:docID:sequence, fixed width for ordered prefix scans.
func makeHistoryKey(prefix string, id core.ID, sequence int) []byte {
	p := prefix + ":"
	buf := make([]byte, len(p)+8+8)
	offset := copy(buf, p)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(sequence))
	return buf
}

// makeHistoryScanPrefix generates the scan prefix for a document's artifact history.
func makeHistoryScanPrefix(prefix string, id core.ID) []byte {
	p := prefix + ":"
	buf := make([]byte, len(p)+8)
	offset := copy(buf, p)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeBlobKey generates the storage key for a content-addressed blob.
func makeBlobKey(contentKey string) []byte {
	return []byte(blobPrefix + ":" + contentKey)
}
