package main

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"ripplegrid/internal/grid"
	"ripplegrid/internal/ripple"
)

// themeRefresh bounds how often auto detection re-queries the platform.
const themeRefresh = time.Second

// autoTheme caches a platform color scheme query.
type autoTheme struct {
	mu      sync.Mutex
	detect  func() bool
	now     func() time.Time
	checked time.Time
	dark    bool
}

func (a *autoTheme) IsDarkMode() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	now := a.now()
	if a.checked.IsZero() || now.Sub(a.checked) >= themeRefresh {
		a.dark = a.detect()
		a.checked = now
	}
	return a.dark
}

type fixedTheme bool

func (f fixedTheme) IsDarkMode() bool { return bool(f) }

// newTheme parses the -theme flag value.
func newTheme(mode string) (ripple.ThemeProvider, error) {
	switch strings.ToLower(mode) {
	case "dark":
		return fixedTheme(true), nil
	case "light":
		return fixedTheme(false), nil
	case "auto", "":
		return &autoTheme{detect: platformPrefersDark, now: time.Now}, nil
	}
	return nil, fmt.Errorf("unknown theme %q", mode)
}

// darkFromEnv reads terminal and desktop hints. COLORFGBG ends with the
// background palette index; GTK_THEME carries a ":dark" variant suffix.
// Without hints the scheme is dark.
func darkFromEnv(getenv func(string) string) bool {
	if fgbg := getenv("COLORFGBG"); fgbg != "" {
		parts := strings.Split(fgbg, ";")
		if bg, err := strconv.Atoi(parts[len(parts)-1]); err == nil {
			return bg <= 6 || bg == 8
		}
	}
	if gtk := strings.ToLower(getenv("GTK_THEME")); gtk != "" {
		return strings.Contains(gtk, "dark")
	}
	return true
}

// classifyEngine names the browser engine for a user agent. Only Safari's
// WebKit is singled out; Chromium browsers also advertise AppleWebKit.
func classifyEngine(userAgent string) string {
	if !strings.Contains(userAgent, "AppleWebKit") {
		return ""
	}
	for _, other := range []string{"Chrome/", "Chromium/", "CriOS/", "Edg/", "Android"} {
		if strings.Contains(userAgent, other) {
			return ""
		}
	}
	return grid.EngineWebKit
}
