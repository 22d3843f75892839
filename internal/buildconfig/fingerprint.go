package buildconfig

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/minio/crc64nvme"
	"github.com/mr-tron/base58"
)

// Fingerprint returns a short stable identifier for a configuration tree.
// Trees that export to the same JSON share a fingerprint.
func Fingerprint(cfg Config) (string, error) {
	exported, err := Export(cfg)
	if err != nil {
		return "", err
	}

	// encoding/json sorts map keys
	canonical, err := json.Marshal(exported)
	if err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}

	h := crc64nvme.New()
	h.Write(canonical)

	var sum [8]byte
	binary.BigEndian.PutUint64(sum[:], h.Sum64())

	return base58.Encode(sum[:]), nil
}
