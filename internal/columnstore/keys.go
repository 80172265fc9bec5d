package columnstore

import (
	"encoding/binary"
	"errors"
)

// Keyspace helpers.
//
// Layout (byte-wise, lexicographically sortable):
//   - t/{table}/p/{len_be4}{partition}/e/{ts_be8}{id}
//   - t/{table}/i/{id} -> {ts_be8}{id}   (IDs already stored)
//
// partition is the canonical JSON of the partition predicate. Within one
// partition rows cluster by created_at nanos, then record ID, so a reverse
// prefix scan yields newest first.

var (
	tablePrefix  = []byte("t/")
	partitionSeg = []byte("/p/")
	entrySeg     = []byte("/e/")
	idSeg        = []byte("/i/")
)

// seekTail sorts after every clustering key of a partition.
var seekTail = []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

func appendBE4(dst []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(dst, b[:]...)
}

func appendBE8(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(dst, b[:]...)
}

// keyPartitionPrefix builds the scan prefix of one partition.
func keyPartitionPrefix(table string, partition []byte) []byte {
	k := make([]byte, 0, len(table)+len(partition)+16)
	k = append(k, tablePrefix...)
	k = append(k, table...)
	k = append(k, partitionSeg...)
	k = appendBE4(k, uint32(len(partition)))
	k = append(k, partition...)
	k = append(k, entrySeg...)
	return k
}

// keyRecordID marks id as stored in table.
func keyRecordID(table, id string) []byte {
	k := make([]byte, 0, len(table)+len(id)+5)
	k = append(k, tablePrefix...)
	k = append(k, table...)
	k = append(k, idSeg...)
	k = append(k, id...)
	return k
}

// clusteringKey is the in-partition suffix: created_at nanos then id.
func clusteringKey(nanos uint64, id string) []byte {
	k := make([]byte, 0, 8+len(id))
	k = appendBE8(k, nanos)
	k = append(k, id...)
	return k
}

// keyEntry builds the full row key.
func keyEntry(table string, partition []byte, nanos uint64, id string) []byte {
	return append(keyPartitionPrefix(table, partition), clusteringKey(nanos, id)...)
}

// splitClustering decodes a clustering key.
func splitClustering(ck []byte) (nanos uint64, id string, err error) {
	if len(ck) < 8 {
		return 0, "", errors.New("clustering key too short")
	}
	return binary.BigEndian.Uint64(ck[:8]), string(ck[8:]), nil
}
