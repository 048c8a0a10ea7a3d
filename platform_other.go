//go:build !(js && wasm)

package main

import "os"

func platformPrefersDark() bool { return darkFromEnv(os.Getenv) }

// platformEngine is empty outside the browser.
func platformEngine() string { return "" }
