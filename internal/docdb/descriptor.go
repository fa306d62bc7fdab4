// ABOUTME: Connection descriptor parsing for the document engine
// ABOUTME: Accepts a bare path, :memory:, or a semicolon separated key=value list

package docdb

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// MemoryFilename is the in-memory database marker.
const MemoryFilename = ":memory:"

// Supported SQLite drivers.
const (
	DriverModernc = "sqlite"  // modernc.org/sqlite
	DriverCgo     = "sqlite3" // github.com/mattn/go-sqlite3
)

const defaultBusyTimeout = 5 * time.Second

// Descriptor is a parsed connection descriptor.
type Descriptor struct {
	Filename    string
	Driver      string
	BusyTimeout time.Duration
}

// InMemory reports whether the descriptor targets an in-memory database.
func (d Descriptor) InMemory() bool {
	return d.Filename == MemoryFilename
}

// ParseDescriptor parses a connection descriptor.
func ParseDescriptor(s string) (Descriptor, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Descriptor{}, ErrEmptyDescriptor
	}

	d := Descriptor{
		Driver:      DriverModernc,
		BusyTimeout: defaultBusyTimeout,
	}

	if !strings.Contains(s, "=") {
		d.Filename = s
		return d, nil
	}

	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return Descriptor{}, fmt.Errorf("malformed descriptor entry %q", part)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "filename", "file", "path":
			d.Filename = value
		case "driver":
			switch value {
			case DriverModernc, DriverCgo:
				d.Driver = value
			default:
				return Descriptor{}, fmt.Errorf("unknown driver %q (want %q or %q)", value, DriverModernc, DriverCgo)
			}
		case "busytimeout", "timeout":
			timeout, err := parseTimeout(value)
			if err != nil {
				return Descriptor{}, fmt.Errorf("parsing busy timeout %q: %w", value, err)
			}
			d.BusyTimeout = timeout
		default:
			return Descriptor{}, fmt.Errorf("unknown descriptor key %q", key)
		}
	}

	if d.Filename == "" {
		return Descriptor{}, fmt.Errorf("descriptor %q has no filename", s)
	}
	return d, nil
}

// parseTimeout accepts a Go duration or a bare number of milliseconds.
func parseTimeout(s string) (time.Duration, error) {
	if ms, err := strconv.Atoi(s); err == nil {
		if ms < 0 {
			return 0, fmt.Errorf("negative timeout")
		}
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative timeout")
	}
	return d, nil
}
