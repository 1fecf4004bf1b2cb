package tracing

import (
	"github.com/rs/xid"
	"github.com/sarchlab/crcrepl/datarecording"
	"github.com/sarchlab/crcrepl/hooking"
	"github.com/sarchlab/crcrepl/replacement"
)

const (
	decisionTable = "victim_decisions"
	updateTable   = "state_updates"
)

// DecisionEntry is one row of the victim_decisions table.
type DecisionEntry struct {
	ID         string
	Engine     string
	Reference  uint64
	ThreadID   int
	SetIndex   int
	Way        int
	Policy     string
	PC         uint64
	Address    uint64
	AccessType string
}

// UpdateEntry is one row of the state_updates table.
type UpdateEntry struct {
	ID               string
	Engine           string
	Reference        uint64
	SetIndex         int
	Way              int
	Hit              bool
	Policy           string
	PC               uint64
	LRUStackPosition int
	RRPV             int
	Outcome          bool
	Signature        int
}

// referenceCounter is implemented by engines that count references.
type referenceCounter interface {
	Name() string
	Timer() uint64
}

// DBTracer is a hook that writes engine decisions into a data recorder.
type DBTracer struct {
	recorder datarecording.DataRecorder

	startRef, endRef uint64
}

// NewDBTracer creates a DBTracer and the tables it writes to.
func NewDBTracer(recorder datarecording.DataRecorder) *DBTracer {
	t := &DBTracer{recorder: recorder}

	recorder.CreateTable(decisionTable, DecisionEntry{})
	recorder.CreateTable(updateTable, UpdateEntry{})

	return t
}

// SetReferenceRange limits recording to references in [start, end). An end of
// 0 means no upper bound.
func (t *DBTracer) SetReferenceRange(start, end uint64) {
	t.startRef = start
	t.endRef = end
}

// Func records the decision or update carried by the hook context.
func (t *DBTracer) Func(ctx hooking.HookCtx) {
	name, ref := t.identify(ctx.Domain)
	if !t.inRange(ref) {
		return
	}

	switch ctx.Pos {
	case replacement.HookPosVictimSelected:
		d := ctx.Item.(replacement.Decision)
		t.recorder.InsertData(decisionTable, DecisionEntry{
			ID:         xid.New().String(),
			Engine:     name,
			Reference:  ref,
			ThreadID:   d.Access.ThreadID,
			SetIndex:   d.Access.SetIndex,
			Way:        d.Way,
			Policy:     d.Policy.String(),
			PC:         d.Access.PC,
			Address:    d.Access.Address,
			AccessType: d.Access.Type.String(),
		})
	case replacement.HookPosStateUpdated:
		u := ctx.Item.(replacement.Update)
		t.recorder.InsertData(updateTable, UpdateEntry{
			ID:               xid.New().String(),
			Engine:           name,
			Reference:        ref,
			SetIndex:         u.Access.SetIndex,
			Way:              u.Way,
			Hit:              u.Hit,
			Policy:           u.Policy.String(),
			PC:               u.Access.PC,
			LRUStackPosition: u.State.LRUStackPosition,
			RRPV:             int(u.State.RRPV),
			Outcome:          u.State.Outcome,
			Signature:        int(u.State.Signature),
		})
	}
}

func (t *DBTracer) identify(domain hooking.Hookable) (string, uint64) {
	rc, ok := domain.(referenceCounter)
	if !ok {
		return "", 0
	}

	return rc.Name(), rc.Timer()
}

func (t *DBTracer) inRange(ref uint64) bool {
	if ref < t.startRef {
		return false
	}

	return t.endRef == 0 || ref < t.endRef
}

// Terminate flushes the recorder.
func (t *DBTracer) Terminate() {
	t.recorder.Flush()
}
