package artifact

import (
	"fmt"

	"github.com/minio/highwayhash"
)

var hashKey = []byte("liveui-artifact-hash-key-0123456")

// Hash is a 64-bit content hash of a source file.
type Hash uint64

// HashSource hashes source bytes.
func HashSource(data []byte) (Hash, error) {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		return 0, err
	}
	if _, err := h.Write(data); err != nil {
		return 0, err
	}
	return Hash(h.Sum64()), nil
}

func (h Hash) String() string {
	return fmt.Sprintf("%016x", uint64(h))
}
