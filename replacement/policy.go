package replacement

import (
	"fmt"
	"strconv"
	"strings"
)

// Policy selects the replacement discipline an Engine runs. The numeric codes
// match the policy codes used by championship-style harnesses.
type Policy int

// Supported policy codes.
const (
	LRU Policy = iota
	Random
	SRRIP
	BIP
	DIP
	BRRIP
	DRRIP
	SHiPPC
	PLRU
)

var policyNames = [...]string{
	LRU:    "lru",
	Random: "random",
	SRRIP:  "srrip",
	BIP:    "bip",
	DIP:    "dip",
	BRRIP:  "brrip",
	DRRIP:  "drrip",
	SHiPPC: "ship-pc",
	PLRU:   "plru",
}

var policyAliases = map[string]Policy{
	"ship":       SHiPPC,
	"shippc":     SHiPPC,
	"ship_pc":    SHiPPC,
	"pseudo-lru": PLRU,
	"rand":       Random,
}

func (p Policy) String() string {
	if p < 0 || int(p) >= len(policyNames) {
		return "policy(" + strconv.Itoa(int(p)) + ")"
	}

	return policyNames[p]
}

// Implemented tells if the engine has a victim-selection and update algorithm
// for the policy. DIP has a code but no algorithm.
func (p Policy) Implemented() bool {
	return p >= LRU && p <= PLRU && p != DIP
}

// Policies lists every declared policy code in numeric order.
func Policies() []Policy {
	policies := make([]Policy, len(policyNames))
	for i := range policyNames {
		policies[i] = Policy(i)
	}

	return policies
}

// ParsePolicy accepts a policy name (case-insensitive), a known alias, or a
// numeric policy code.
func ParsePolicy(s string) (Policy, error) {
	name := strings.ToLower(strings.TrimSpace(s))

	for i, n := range policyNames {
		if n == name {
			return Policy(i), nil
		}
	}

	if p, ok := policyAliases[name]; ok {
		return p, nil
	}

	code, err := strconv.Atoi(name)
	if err == nil && code >= 0 && code < len(policyNames) {
		return Policy(code), nil
	}

	return 0, fmt.Errorf("unknown replacement policy %q", s)
}
