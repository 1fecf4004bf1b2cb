// Package hooking lets observers attach to the decision points of a
// replacement engine without the engine knowing who is listening.
package hooking

import "fmt"

// HookPos names a decision point that observers can attach to.
type HookPos struct {
	Name string
}

func (p *HookPos) String() string {
	return p.Name
}

// HookCtx carries what happened at a decision point. Item is the decision
// itself and Detail is optional extra data whose type depends on Pos.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   interface{}
	Detail interface{}
}

// Hookable is implemented by anything that reports to hooks.
type Hookable interface {
	AcceptHook(hook Hook)
	RemoveHook(hook Hook)
	NumHooks() int
	Hooks() []Hook
}

// Hook observes decision points.
type Hook interface {
	Func(ctx HookCtx)
}

// HookFunc adapts a plain function to the Hook interface.
type HookFunc func(ctx HookCtx)

// Func calls f(ctx).
func (f HookFunc) Func(ctx HookCtx) {
	f(ctx)
}

// HookableBase keeps the hook list for types that embed it.
type HookableBase struct {
	hookList []Hook
}

// NumHooks returns how many hooks are attached.
func (h *HookableBase) NumHooks() int {
	return len(h.hookList)
}

// Hooks returns the attached hooks in the order they run.
func (h *HookableBase) Hooks() []Hook {
	return h.hookList
}

// AcceptHook attaches a hook. Attaching the same hook twice panics, except
// for HookFunc values, which cannot be compared.
func (h *HookableBase) AcceptHook(hook Hook) {
	if _, isFunc := hook.(HookFunc); !isFunc && h.indexOf(hook) >= 0 {
		panic(fmt.Sprintf("duplicated hook %v", hook))
	}

	h.hookList = append(h.hookList, hook)
}

// RemoveHook detaches a hook. Unknown hooks and HookFunc values are ignored.
func (h *HookableBase) RemoveHook(hook Hook) {
	if _, isFunc := hook.(HookFunc); isFunc {
		return
	}

	i := h.indexOf(hook)
	if i < 0 {
		return
	}

	h.hookList = append(h.hookList[:i:i], h.hookList[i+1:]...)
}

func (h *HookableBase) indexOf(hook Hook) int {
	for i, registered := range h.hookList {
		if _, isFunc := registered.(HookFunc); isFunc {
			continue
		}

		if registered == hook {
			return i
		}
	}

	return -1
}

// InvokeHook runs every attached hook with ctx.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hookList {
		hook.Func(ctx)
	}
}
