package replacement

// LineState is the replacement metadata kept for one set/way slot. Every
// discipline reads and writes its own subset of the fields, so the active
// policy can be swapped mid-run without converting state.
type LineState struct {
	// LRUStackPosition orders the ways of a set; 0 is the most recently used.
	LRUStackPosition int

	// RRPV is the re-reference prediction value in [0, 3].
	RRPV uint8

	// Outcome records whether the line was hit since it was inserted.
	Outcome bool

	// Signature is the SHCT index recorded when the line was inserted.
	Signature uint32
}

// SignatureMask keeps the bits of a signature that index the SHCT.
const SignatureMask = shctSize - 1

const (
	rrpvNear    uint8 = 0
	rrpvLong    uint8 = 2
	rrpvDistant uint8 = 3

	signatureBits        = 14
	shctSize             = 1 << signatureBits
	shctCounterMax uint8 = 8

	pselMax  uint32 = 1023
	pselInit uint32 = 511
	pselMid  uint32 = 511

	// One in bimodalThrottle bimodal insertions goes to the near position.
	bimodalThrottle = 32
)
