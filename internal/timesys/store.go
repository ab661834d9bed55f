package timesys

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
)

// store holds the process-wide time constants. Written once, then read
// lock-free by every conversion.
type store struct {
	constants atomic.Pointer[Constants]
	mu        sync.Mutex // serializes initialisation
}

var global store

// Load installs c as the process-wide table. Loading the same data again is
// a no-op; loading different data returns ErrAlreadyLoaded.
func Load(c *Constants) error {
	if c == nil {
		return fmt.Errorf("nil table: %w", ErrConstantsFile)
	}

	global.mu.Lock()
	defer global.mu.Unlock()

	if cur := global.constants.Load(); cur != nil {
		if cur.Equal(c) {
			return nil
		}
		return ErrAlreadyLoaded
	}
	global.constants.Store(c)
	return nil
}

// LoadFile parses the file at path and installs it as the process-wide table.
func LoadFile(path string) (*Constants, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening time constants %s: %v: %w", path, err, ErrConstantsFile)
	}
	defer f.Close()

	c, err := ParseConstants(f)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	if err := Load(c); err != nil {
		return nil, err
	}
	return Current(), nil
}

// Loaded reports whether the process-wide table is installed.
func Loaded() bool {
	return global.constants.Load() != nil
}

// Current returns the process-wide table, or nil if none has been loaded.
func Current() *Constants {
	return global.constants.Load()
}
