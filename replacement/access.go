package replacement

import (
	"fmt"
	"strconv"
	"strings"
)

// Bypass is returned by SelectVictim when the missing line should not be
// installed in the cache at all. It is a decision, not an error.
const Bypass = -1

// AccessType classifies a cache access. The engine only passes it through to
// hooks; no built-in discipline depends on it.
type AccessType int

// Access types, in harness code order.
const (
	IFetch AccessType = iota
	Load
	Store
	Prefetch
	Writeback
	numAccessTypes
)

var accessTypeNames = [...]string{
	IFetch:    "ifetch",
	Load:      "load",
	Store:     "store",
	Prefetch:  "prefetch",
	Writeback: "writeback",
}

// NumAccessTypes is the number of declared access types.
const NumAccessTypes = int(numAccessTypes)

func (t AccessType) String() string {
	if t < 0 || t >= numAccessTypes {
		return "access(" + strconv.Itoa(int(t)) + ")"
	}

	return accessTypeNames[t]
}

// ParseAccessType accepts an access type name or its numeric code.
func ParseAccessType(s string) (AccessType, error) {
	name := strings.ToLower(strings.TrimSpace(s))

	for i, n := range accessTypeNames {
		if n == name {
			return AccessType(i), nil
		}
	}

	code, err := strconv.Atoi(name)
	if err == nil && code >= 0 && code < NumAccessTypes {
		return AccessType(code), nil
	}

	return 0, fmt.Errorf("unknown access type %q", s)
}

// LineInfo is the harness-owned view of a cache line. The engine never
// modifies it.
type LineInfo struct {
	Tag     uint64
	IsValid bool
	IsDirty bool
}

// Access carries the per-call inputs the harness hands to the engine. The
// thread ID is informational; no discipline partitions state by thread.
type Access struct {
	ThreadID int
	SetIndex int
	PC       uint64
	Address  uint64
	Type     AccessType
}
