//go:build js && wasm

package events

import (
	"syscall/js"

	"github.com/vcrobe/spashell/runtime"
)

// AttrsOf reads attributes from a DOM element.
func AttrsOf(el js.Value) AttrFunc {
	return func(name string) (string, bool) {
		if !el.Call("hasAttribute", name).Bool() {
			return "", false
		}
		return el.Call("getAttribute", name).String(), true
	}
}

// AdaptClick wraps handler as a click listener. The listener reads the link
// from the element it is attached to, not the innermost target.
func AdaptClick(handler runtime.ClickHandler) js.Func {
	return js.FuncOf(func(this js.Value, args []js.Value) any {
		ev := args[0]
		el := ev.Get("currentTarget")
		Dispatch(handler, LinkFrom(AttrsOf(el)), func() { ev.Call("preventDefault") })
		return nil
	})
}

// AdaptSubmit wraps handler as a submit listener. handler runs on its own
// goroutine because it may block on HTTP, which must not happen inside a
// JS callback.
func AdaptSubmit(handler func()) js.Func {
	return js.FuncOf(func(this js.Value, args []js.Value) any {
		ev := args[0]
		Submit(func() { go handler() }, func() { ev.Call("preventDefault") })
		return nil
	})
}
