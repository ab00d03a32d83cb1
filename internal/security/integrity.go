// Package security fingerprints served snapshots so clients can tell which
// published data a response was derived from.
package security

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/yourorg/locker-metrics/internal/model"
)

// Fingerprint identifies the content of one snapshot.
type Fingerprint struct {
	Keccak256 string `json:"keccak256"`
	SHA256    string `json:"sha256"`
	Week      int    `json:"week"`
	UpdatedAt int64  `json:"updated_at"`
}

// Digest hashes the canonical JSON encoding of snap. Map keys are emitted in
// sorted order, so equal snapshots always produce equal digests.
func Digest(snap *model.Snapshot) (Fingerprint, error) {
	if snap == nil {
		return Fingerprint{}, fmt.Errorf("nil snapshot")
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	sum := sha256.Sum256(payload)
	return Fingerprint{
		Keccak256: crypto.Keccak256Hash(payload).Hex(),
		SHA256:    hex.EncodeToString(sum[:]),
		Week:      snap.Week,
		UpdatedAt: snap.UpdatedAt,
	}, nil
}

// Verify reports whether snap hashes to the given keccak256 digest.
func Verify(snap *model.Snapshot, keccak string) (bool, error) {
	fp, err := Digest(snap)
	if err != nil {
		return false, err
	}
	if !strings.HasPrefix(keccak, "0x") || len(keccak) != 2+2*common.HashLength {
		return false, fmt.Errorf("malformed digest %q", keccak)
	}
	return common.HexToHash(keccak) == common.HexToHash(fp.Keccak256), nil
}

// ETag renders fp as a strong HTTP entity tag.
func (fp Fingerprint) ETag() string {
	return `"` + strings.TrimPrefix(fp.Keccak256, "0x") + `"`
}
