package replacement

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// SignatureHasher maps a program counter to a SHiP signature. The engine keeps
// only the low 14 bits of the result.
type SignatureHasher interface {
	Signature(pc uint64) uint32
}

// MaskHasher uses the low 14 bits of the PC as the signature.
type MaskHasher struct{}

// Signature returns pc & 0x3FFF.
func (MaskHasher) Signature(pc uint64) uint32 {
	return uint32(pc) & SignatureMask
}

// XXHashSigner hashes all 64 bits of the PC before truncating, which spreads
// PCs that share their low bits.
type XXHashSigner struct{}

// Signature returns the low 14 bits of the xxhash of the PC.
func (XXHashSigner) Signature(pc uint64) uint32 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], pc)

	return uint32(xxhash.Sum64(buf[:])) & SignatureMask
}

// ParseSignatureHasher accepts "mask" or "xxhash".
func ParseSignatureHasher(name string) (SignatureHasher, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "mask":
		return MaskHasher{}, nil
	case "xxhash":
		return XXHashSigner{}, nil
	default:
		return nil, fmt.Errorf("unknown signature hasher %q", name)
	}
}
