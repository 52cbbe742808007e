// Package browser implements the runtime environment on js/wasm with
// syscall/js: the live DOM, window.history, the window width and
// localStorage. The native build of the shell uses package headless instead.
package browser
