package sandbox

import (
	"time"
)

// Config defines sandbox configuration
type Config struct {
	Timeout          time.Duration // Per-evaluation timeout, zero disables it
	MaxCallStackSize int           // goja call stack limit
	EnableConsole    bool          // Capture console.log/warn/error
	EnableDOM        bool          // Expose document
	URL              string        // location.href
	UserAgent        string        // navigator.userAgent
	SanitizeMarkup   bool          // Strip active content from markup before parsing
}

// DefaultMarkup is the document shell used when no markup is supplied.
const DefaultMarkup = "<div></div>"

// LogEntry represents console output
type LogEntry struct {
	Level   string    // log, info, warn, error, debug
	Message string    // Log message
	Time    time.Time // Timestamp
}

// DOMChange represents a DOM modification
type DOMChange struct {
	Type     string // set_attribute, set_text
	Selector string // Tag and id of the element
	Property string // Property name
	Value    string // New value
}

// DefaultConfig returns the configuration used by the bootstrap when none is given.
func DefaultConfig() Config {
	return Config{
		Timeout:          5 * time.Second,
		MaxCallStackSize: 1024,
		EnableConsole:    true,
		EnableDOM:        true,
		URL:              "about:blank",
		UserAgent:        "Mozilla/5.0 (pagespec) AppleWebKit/537.36 (KHTML, like Gecko)",
	}
}
