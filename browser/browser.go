//go:build js && wasm

package browser

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"syscall/js"

	"github.com/vcrobe/spashell/events"
	"github.com/vcrobe/spashell/runtime"
)

// Compile-time assertions to ensure the adapters implement the runtime interfaces.
var (
	_ runtime.Document = (*Document)(nil)
	_ runtime.History  = (*History)(nil)
	_ runtime.Viewport = (*Viewport)(nil)
	_ runtime.Storage  = (*Storage)(nil)
)

// Listener ids stored on elements so a rebind can find the old listener.
const (
	clickProp  = "__spashellClick"
	submitProp = "__spashellSubmit"
)

// Env returns the primitives of the current page. HTTP goes through the
// standard client, which uses fetch on js/wasm.
func Env() runtime.Env {
	return runtime.Env{
		Document: NewDocument(),
		History:  History{},
		Viewport: &Viewport{},
		Storage:  Storage{},
		HTTP:     http.DefaultClient,
	}
}

// catch turns a JavaScript exception raised by fn into an error.
func catch(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if jsErr, ok := r.(js.Error); ok {
				err = jsErr
				return
			}
			panic(r)
		}
	}()
	fn()
	return nil
}

// Document is the live DOM of the page.
type Document struct {
	doc js.Value

	mu        sync.Mutex
	listeners *listenerSet[js.Value, js.Func]
}

func NewDocument() *Document {
	return &Document{
		doc:       js.Global().Get("document"),
		listeners: newListenerSet[js.Value, js.Func](),
	}
}

func (d *Document) query(selector string) (js.Value, error) {
	var el js.Value
	if err := catch(func() { el = d.doc.Call("querySelector", selector) }); err != nil {
		return js.Null(), fmt.Errorf("selector %s: %w", selector, err)
	}
	if el.IsNull() {
		return js.Null(), runtime.NoElement(selector)
	}
	return el, nil
}

func isRawText(el js.Value) bool {
	switch strings.ToUpper(el.Get("tagName").String()) {
	case "STYLE", "SCRIPT", "TITLE", "TEXTAREA":
		return true
	}
	return false
}

func (d *Document) SetInnerHTML(selector, markup string) error {
	el, err := d.query(selector)
	if err != nil {
		return err
	}
	if isRawText(el) {
		el.Set("textContent", markup)
		return nil
	}
	el.Set("innerHTML", markup)
	return nil
}

func (d *Document) InnerHTML(selector string) (string, error) {
	el, err := d.query(selector)
	if err != nil {
		return "", err
	}
	return el.Get("innerHTML").String(), nil
}

func (d *Document) SetAttribute(selector, name, value string) error {
	el, err := d.query(selector)
	if err != nil {
		return err
	}
	return catch(func() { el.Call("setAttribute", name, value) })
}

func (d *Document) Attribute(selector, name string) (string, bool, error) {
	el, err := d.query(selector)
	if err != nil {
		return "", false, err
	}
	v, ok := events.AttrsOf(el)(name)
	return v, ok, nil
}

func (d *Document) AddClass(selector, class string) error {
	el, err := d.query(selector)
	if err != nil {
		return err
	}
	el.Get("classList").Call("add", class)
	return nil
}

func (d *Document) RemoveClass(selector, class string) error {
	el, err := d.query(selector)
	if err != nil {
		return err
	}
	el.Get("classList").Call("remove", class)
	return nil
}

func (d *Document) HasClass(selector, class string) (bool, error) {
	el, err := d.query(selector)
	if err != nil {
		return false, err
	}
	return el.Get("classList").Call("contains", class).Bool(), nil
}

func (d *Document) Value(selector string) (string, error) {
	el, err := d.query(selector)
	if err != nil {
		return "", err
	}
	return el.Get("value").String(), nil
}

func (d *Document) SetValue(selector, value string) error {
	el, err := d.query(selector)
	if err != nil {
		return err
	}
	el.Set("value", value)
	return nil
}

func (d *Document) SetHidden(selector string, hidden bool) error {
	el, err := d.query(selector)
	if err != nil {
		return err
	}
	el.Set("hidden", hidden)
	return nil
}

func (d *Document) Exists(selector string) bool {
	_, err := d.query(selector)
	return err == nil
}

// bind attaches fn to els, detaching whatever listener each element carried
// before. Listeners left without a connected element are released.
func (d *Document) bind(els []js.Value, event, prop string, fn js.Func) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.listeners.add(fn, els)
	for _, el := range els {
		if prev := el.Get(prop); prev.Type() == js.TypeNumber {
			if old, ok := d.listeners.lookup(prev.Int()); ok {
				el.Call("removeEventListener", event, old)
			}
		}
		el.Set(prop, id)
		el.Call("addEventListener", event, fn)
	}
	d.listeners.sweep(func(el js.Value, id int) bool {
		if !el.Get("isConnected").Bool() {
			return false
		}
		for _, p := range []string{clickProp, submitProp} {
			if v := el.Get(p); v.Type() == js.TypeNumber && v.Int() == id {
				return true
			}
		}
		return false
	}, func(fn js.Func) { fn.Release() })
}

// Listeners returns how many listener funcs are held.
func (d *Document) Listeners() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.listeners.len()
}

func (d *Document) BindClicks(selector string, handler runtime.ClickHandler) (int, error) {
	var nodes js.Value
	if err := catch(func() { nodes = d.doc.Call("querySelectorAll", selector) }); err != nil {
		return 0, fmt.Errorf("selector %s: %w", selector, err)
	}
	n := nodes.Length()
	if n == 0 {
		return 0, nil
	}
	els := make([]js.Value, n)
	for i := range els {
		els[i] = nodes.Index(i)
	}
	d.bind(els, "click", clickProp, events.AdaptClick(handler))
	return n, nil
}

func (d *Document) BindSubmit(selector string, handler func()) error {
	el, err := d.query(selector)
	if err != nil {
		return err
	}
	d.bind([]js.Value{el}, "submit", submitProp, events.AdaptSubmit(handler))
	return nil
}

// History rewrites the address bar.
type History struct{}

func (History) ReplaceState(url string) error {
	return catch(func() {
		js.Global().Get("history").Call("replaceState", "", "", url)
	})
}

// Location is the path of the current address without the leading slash.
func (History) Location() string {
	path := js.Global().Get("location").Get("pathname").String()
	return strings.TrimPrefix(path, "/")
}

// Viewport reports the width of the document element.
type Viewport struct{}

func (*Viewport) Width() int {
	return js.Global().Get("document").Get("documentElement").Get("clientWidth").Int()
}

func (v *Viewport) OnResize(fn func(width int)) func() {
	listener := js.FuncOf(func(this js.Value, args []js.Value) any {
		fn(v.Width())
		return nil
	})
	window := js.Global()
	window.Call("addEventListener", "resize", listener)

	var once sync.Once
	return func() {
		once.Do(func() {
			window.Call("removeEventListener", "resize", listener)
			listener.Release()
		})
	}
}

// Storage is window.localStorage.
type Storage struct{}

func (Storage) local() js.Value { return js.Global().Get("localStorage") }

func (s Storage) Get(key string) (string, bool, error) {
	var v js.Value
	if err := catch(func() { v = s.local().Call("getItem", key) }); err != nil {
		return "", false, fmt.Errorf("localStorage get %s: %w", key, err)
	}
	if v.IsNull() {
		return "", false, nil
	}
	return v.String(), true, nil
}

func (s Storage) Set(key, value string) error {
	if err := catch(func() { s.local().Call("setItem", key, value) }); err != nil {
		return fmt.Errorf("localStorage set %s: %w", key, err)
	}
	return nil
}

func (s Storage) Remove(key string) error {
	if err := catch(func() { s.local().Call("removeItem", key) }); err != nil {
		return fmt.Errorf("localStorage remove %s: %w", key, err)
	}
	return nil
}
