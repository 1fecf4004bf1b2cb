package replacement

import (
	"fmt"
	"io"
	"strings"
)

// Stats counts what the engine has done since it was built.
type Stats struct {
	VictimSelections uint64
	Bypasses         uint64
	Hits             uint64
	Misses           uint64
	AgingRounds      uint64
	PSELIncrements   uint64
	PSELDecrements   uint64
	SHCTIncrements   uint64
	SHCTDecrements   uint64
}

// Stats returns a copy of the counters.
func (e *Engine) Stats() Stats {
	return e.stats
}

const statsRule = "=========================================================="

// PrintStats writes the replacement statistics banner followed by the
// counters.
func (e *Engine) PrintStats(w io.Writer) error {
	var sb strings.Builder

	sb.WriteString(statsRule + "\n")
	sb.WriteString("=========== Replacement Policy Statistics ================\n")
	sb.WriteString(statsRule + "\n")

	rows := []struct {
		name  string
		value any
	}{
		{"Engine", e.name},
		{"Policy", e.policy},
		{"Sets", e.numSets},
		{"Ways", e.assoc},
		{"References", e.timer},
		{"VictimSelections", e.stats.VictimSelections},
		{"Bypasses", e.stats.Bypasses},
		{"Hits", e.stats.Hits},
		{"Misses", e.stats.Misses},
		{"AgingRounds", e.stats.AgingRounds},
		{"PSEL", e.psel},
		{"PSELIncrements", e.stats.PSELIncrements},
		{"PSELDecrements", e.stats.PSELDecrements},
		{"SHCTIncrements", e.stats.SHCTIncrements},
		{"SHCTDecrements", e.stats.SHCTDecrements},
	}

	for _, r := range rows {
		fmt.Fprintf(&sb, "%-18s %v\n", r.name, r.value)
	}

	_, err := io.WriteString(w, sb.String())

	return err
}
