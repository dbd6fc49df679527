package feeds

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Package feeds contains declarative watch feeds (YAML/JSON) and the
// fetchers that turn them into incidents API calls.

// Supported feed types.
const (
	TypeIncidents  = "incidents"
	TypeBehaviors  = "behaviors"
	TypeCrowdScore = "crowdscore"
)

const (
	defaultLimit          = 100
	defaultMaxPages       = 5
	defaultRequestDelayMs = 250
)

// Feed describes one thing to watch on the incidents API.
type Feed struct {
	ID             string         `json:"id" yaml:"id"`
	Name           string         `json:"name" yaml:"name"`
	Type           string         `json:"type" yaml:"type"`
	Filter         string         `json:"filter" yaml:"filter"`
	Sort           string         `json:"sort" yaml:"sort"`
	Limit          int            `json:"limit" yaml:"limit"`
	MaxPages       int            `json:"max_pages" yaml:"max_pages"`
	RequestDelayMs int            `json:"request_delay_ms" yaml:"request_delay_ms"`
	Enrich         bool           `json:"enrich" yaml:"enrich"`
	Tag            string         `json:"tag" yaml:"tag"`
	Config         map[string]any `json:"config" yaml:"config"`
}

type registryFile struct {
	Feeds []Feed `json:"feeds" yaml:"feeds"`
}

// Registry holds the feeds loaded from a config file.
type Registry struct {
	mu    sync.RWMutex
	feeds []Feed
	idx   map[string]Feed
}

// LoadRegistry loads feeds from a YAML or JSON file.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("feeds file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feeds file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read feeds file: %w", err)
	}

	parsed, err := parseRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(parsed.Feeds) == 0 {
		return nil, errors.New("feeds file contains no feeds entries")
	}

	reg := &Registry{
		feeds: make([]Feed, len(parsed.Feeds)),
		idx:   make(map[string]Feed, len(parsed.Feeds)),
	}
	for i := range parsed.Feeds {
		f := sanitizeFeed(parsed.Feeds[i])
		if err := validateFeed(f); err != nil {
			return nil, fmt.Errorf("feed[%d]: %w", i, err)
		}
		if _, exists := reg.idx[f.ID]; exists {
			return nil, fmt.Errorf("duplicate feed id %q", f.ID)
		}
		reg.feeds[i] = f
		reg.idx[f.ID] = f
	}
	return reg, nil
}

// All returns a copy of the loaded feeds.
func (r *Registry) All() []Feed {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Feed, len(r.feeds))
	copy(out, r.feeds)
	return out
}

// ByID returns the feed with the given id, if loaded.
func (r *Registry) ByID(id string) (Feed, bool) {
	if r == nil {
		return Feed{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.idx[strings.TrimSpace(id)]
	return f, ok
}

func parseRegistry(data []byte, ext string) (registryFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		if reg, err := unmarshalRegistry(d.name, data, d.fn); err == nil {
			return reg, nil
		}
	}

	return registryFile{}, errors.New("feeds file format not recognized (expected YAML or JSON)")
}

type unmarshalFn func([]byte, any) error

func unmarshalRegistry(name string, data []byte, fn unmarshalFn) (registryFile, error) {
	var reg registryFile
	if err := fn(data, &reg); err != nil {
		return registryFile{}, fmt.Errorf("decode %s feeds: %w", name, err)
	}
	return reg, nil
}

func sanitizeFeed(f Feed) Feed {
	f.ID = strings.TrimSpace(f.ID)
	f.Name = strings.TrimSpace(f.Name)
	f.Type = strings.ToLower(strings.TrimSpace(f.Type))
	f.Filter = strings.TrimSpace(f.Filter)
	f.Sort = strings.TrimSpace(f.Sort)
	f.Tag = strings.TrimSpace(f.Tag)

	if f.Name == "" {
		f.Name = f.ID
	}
	if f.Config == nil {
		f.Config = map[string]any{}
	}
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.MaxPages <= 0 {
		f.MaxPages = defaultMaxPages
	}
	if f.RequestDelayMs <= 0 {
		f.RequestDelayMs = defaultRequestDelayMs
	}
	return f
}

func validateFeed(f Feed) error {
	if f.ID == "" {
		return errors.New("id is required")
	}
	switch f.Type {
	case TypeIncidents, TypeBehaviors, TypeCrowdScore:
	case "":
		return fmt.Errorf("type is required for feed %q", f.ID)
	default:
		return fmt.Errorf("unsupported type %q for feed %q", f.Type, f.ID)
	}
	if f.Enrich && f.Type != TypeIncidents {
		return fmt.Errorf("enrich is only supported on incidents feeds (feed %q)", f.ID)
	}
	if f.Tag != "" && f.Type != TypeIncidents {
		return fmt.Errorf("tag is only supported on incidents feeds (feed %q)", f.ID)
	}
	return nil
}

// RequestDelay returns the throttle between consecutive API calls for the feed.
func (f Feed) RequestDelay() time.Duration {
	if f.RequestDelayMs <= 0 {
		return time.Duration(defaultRequestDelayMs) * time.Millisecond
	}
	return time.Duration(f.RequestDelayMs) * time.Millisecond
}
