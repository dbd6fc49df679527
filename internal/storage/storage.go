// Package storage remembers which version of each record the watcher has
// already announced, so unchanged records are skipped and updated ones are
// published again.
package storage

import (
	"fmt"
	"strings"
	"time"
)

// Store maps a record key to the last published version.
type Store interface {
	// Version returns the stored version of key. found is false for unknown
	// or expired keys.
	Version(key string) (version string, found bool, err error)
	// Put records version as the latest published state of key.
	Put(key, version string) error
	Close() error
}

// Options controls retention. Zero values fall back to the defaults below.
type Options struct {
	RecordTTL       time.Duration
	CleanupInterval time.Duration
}

const (
	defaultRecordTTL       = 30 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

func (o Options) withDefaults() Options {
	if o.RecordTTL <= 0 {
		o.RecordTTL = defaultRecordTTL
	}
	if o.CleanupInterval <= 0 {
		o.CleanupInterval = defaultCleanupInterval
	}
	return o
}

// NewStore opens the backend named by typ: "bbolt" or "none".
func NewStore(typ, path string, opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(typ)) {
	case "", "none", "disabled":
		return memoryless{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts.withDefaults(), time.Now)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

// RecordKey scopes a record ID to the feed that produced it.
func RecordKey(feedID, recordID string) string {
	return feedID + "/" + recordID
}

// memoryless never remembers anything; every record is always new.
type memoryless struct{}

func (memoryless) Version(string) (string, bool, error) { return "", false, nil }
func (memoryless) Put(string, string) error             { return nil }
func (memoryless) Close() error                         { return nil }
