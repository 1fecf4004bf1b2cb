// Package tracefile reads and writes memory access traces, one access per
// line, optionally compressed.
//
// A line holds four whitespace separated fields:
//
//	<thread id> <pc> <address> <access type>
//
// The pc and address are hexadecimal with an optional 0x prefix. The access
// type is a name such as "load" or its numeric code. Empty lines and lines
// starting with '#' are skipped.
package tracefile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sarchlab/crcrepl/replacement"
)

// Record is one memory access.
type Record struct {
	ThreadID int
	PC       uint64
	Address  uint64
	Type     replacement.AccessType
}

func (r Record) String() string {
	return fmt.Sprintf("%d %#x %#x %s", r.ThreadID, r.PC, r.Address, r.Type)
}

// ParseError reports a malformed trace line.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("trace line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseRecord parses a single trace line.
func ParseRecord(line string) (Record, error) {
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return Record{}, fmt.Errorf("expected 4 fields, got %d", len(fields))
	}

	tid, err := strconv.Atoi(fields[0])
	if err != nil {
		return Record{}, fmt.Errorf("thread id: %w", err)
	}

	pc, err := parseHex(fields[1])
	if err != nil {
		return Record{}, fmt.Errorf("pc: %w", err)
	}

	addr, err := parseHex(fields[2])
	if err != nil {
		return Record{}, fmt.Errorf("address: %w", err)
	}

	t, err := replacement.ParseAccessType(fields[3])
	if err != nil {
		return Record{}, err
	}

	return Record{ThreadID: tid, PC: pc, Address: addr, Type: t}, nil
}

func parseHex(s string) (uint64, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")

	return strconv.ParseUint(s, 16, 64)
}
