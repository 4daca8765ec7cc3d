// Package clipboard reads the OS text buffer the target application copies
// into. The primary backend is golang.design/x/clipboard; when it is
// unavailable (headless session, missing X dependency) reads fall back to
// robotgo's clipboard bridge. A read never fails: total failure yields "".
package clipboard

import (
	"log"
	"time"

	"github.com/go-vgo/robotgo"
	xclipboard "golang.design/x/clipboard"
)

// Accessor owns the clipboard handle for the session. Construct one with New
// and pass it down; there is exactly one UI session so one accessor.
type Accessor struct {
	retryDelay time.Duration

	readRaw  func() string
	clearRaw func()
}

// New initializes the primary clipboard backend. Initialization failure is
// not fatal; the accessor degrades to the robotgo fallback.
func New(retryDelay time.Duration) *Accessor {
	primaryOK := false
	if err := xclipboard.Init(); err != nil {
		log.Printf("clipboard: primary backend unavailable, using fallback: %v", err)
	} else {
		primaryOK = true
	}

	return &Accessor{
		retryDelay: retryDelay,
		readRaw:    func() string { return systemRead(primaryOK) },
		clearRaw:   func() { systemClear(primaryOK) },
	}
}

func systemRead(primaryOK bool) string {
	if primaryOK {
		if data := xclipboard.Read(xclipboard.FmtText); len(data) > 0 {
			return string(data)
		}
	}

	text, err := robotgo.ReadAll()
	if err != nil {
		log.Printf("clipboard: fallback read failed: %v", err)
		return ""
	}
	return text
}

func systemClear(primaryOK bool) {
	if primaryOK {
		xclipboard.Write(xclipboard.FmtText, nil)
		return
	}
	if err := robotgo.WriteAll(""); err != nil {
		log.Printf("clipboard: fallback clear failed: %v", err)
	}
}

// Read returns the current clipboard text, or "" if both mechanisms fail.
func (a *Accessor) Read() string {
	return a.readRaw()
}

// Clear empties the clipboard so a subsequent read cannot observe stale
// content from a previous copy action.
func (a *Accessor) Clear() {
	a.clearRaw()
}

// ReadWithRetry re-reads until non-empty or attempts are exhausted. The UI
// populates the buffer asynchronously after a copy action, so the first read
// racing an in-flight copy is expected and retryable.
func (a *Accessor) ReadWithRetry(maxAttempts int) string {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if content := a.Read(); content != "" {
			return content
		}
		if attempt < maxAttempts {
			log.Printf("clipboard: empty, retrying (%d/%d)", attempt, maxAttempts)
			time.Sleep(a.retryDelay)
		}
	}
	log.Printf("clipboard: still empty after %d attempts", maxAttempts)
	return ""
}
