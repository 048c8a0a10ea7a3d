//go:build js && wasm

package main

import "syscall/js"

// platformPrefersDark queries prefers-color-scheme.
func platformPrefersDark() bool {
	mq := js.Global().Call("matchMedia", "(prefers-color-scheme: dark)")
	if mq.IsUndefined() || mq.IsNull() {
		return true
	}
	return mq.Get("matches").Bool()
}

// platformEngine reports the browser engine from navigator.userAgent.
func platformEngine() string {
	nav := js.Global().Get("navigator")
	if nav.IsUndefined() {
		return ""
	}
	return classifyEngine(nav.Get("userAgent").String())
}
