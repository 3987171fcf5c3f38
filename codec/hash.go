package codec

import (
	"github.com/minio/highwayhash"
)

var key = []byte("0123456789ABCDEF0123456789ABCDEF")

// blockHash hashes a base block for match indexing.
func blockHash(data []byte) uint64 {
	return highwayhash.Sum64(data, key)
}
