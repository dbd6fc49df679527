package publishers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/samvad-hq/falcon-incidents/internal/domain"
)

// Supported publisher types.
const (
	TypeSQS    = "sqs"
	TypeSNS    = "sns"
	TypePubSub = "pubsub"
	TypeHTTP   = "http"
)

const (
	httpDefaultMethod         = "POST"
	httpDefaultTimeoutSeconds = 5
)

var recordKinds = []string{domain.KindIncident, domain.KindBehavior, domain.KindCrowdScore}

// PublisherConfig is one sink entry of the publishers file. Exactly the block
// matching Type is used. Kinds, when set, limits the sink to those record kinds.
type PublisherConfig struct {
	ID      string               `json:"id" yaml:"id"`
	Type    string               `json:"type" yaml:"type"`
	Enabled *bool                `json:"enabled" yaml:"enabled"`
	Kinds   []string             `json:"kinds" yaml:"kinds"`
	SQS     *SQSPublisherConfig  `json:"sqs" yaml:"sqs"`
	SNS     *SNSPublisherConfig  `json:"sns" yaml:"sns"`
	PubSub  *GCPQueueConfig      `json:"pubsub" yaml:"pubsub"`
	HTTP    *HTTPPublisherConfig `json:"http" yaml:"http"`
}

// SQSPublisherConfig targets an SQS queue; a ".fifo" URL enables FIFO fields.
type SQSPublisherConfig struct {
	QueueURL  string `json:"uri" yaml:"uri"`
	AWSConfig `yaml:",inline"`
}

// SNSPublisherConfig targets an SNS topic; a ".fifo" ARN enables FIFO fields.
type SNSPublisherConfig struct {
	TopicARN  string `json:"topic_arn" yaml:"topic_arn"`
	AWSConfig `yaml:",inline"`
}

// HTTPPublisherConfig targets a webhook.
type HTTPPublisherConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// sinkConfig is the type-specific block of a PublisherConfig.
type sinkConfig interface {
	normalize()
	validate() error
}

func (c *SQSPublisherConfig) normalize() {
	c.QueueURL = strings.TrimSpace(c.QueueURL)
	c.AWSConfig.normalize()
}

func (c *SQSPublisherConfig) validate() error {
	return errors.Join(required("uri", c.QueueURL), required("region", c.Region))
}

func (c *SNSPublisherConfig) normalize() {
	c.TopicARN = strings.TrimSpace(c.TopicARN)
	c.AWSConfig.normalize()
}

func (c *SNSPublisherConfig) validate() error {
	return errors.Join(required("topic_arn", c.TopicARN), required("region", c.Region))
}

func (c *GCPQueueConfig) normalize() {
	for _, f := range []*string{&c.ProjectID, &c.Topic, &c.Endpoint, &c.CredentialsFile} {
		*f = strings.TrimSpace(*f)
	}
}

func (c *GCPQueueConfig) validate() error {
	return errors.Join(required("project_id", c.ProjectID), required("topic", c.Topic))
}

func (c *HTTPPublisherConfig) normalize() {
	c.URL = strings.TrimSpace(c.URL)
	c.Method = strings.ToUpper(strings.TrimSpace(c.Method))
	if c.Method == "" {
		c.Method = httpDefaultMethod
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = httpDefaultTimeoutSeconds
	}
	headers := make(map[string]string, len(c.Headers))
	for k, v := range c.Headers {
		if k, v = strings.TrimSpace(k), strings.TrimSpace(v); k != "" && v != "" {
			headers[k] = v
		}
	}
	c.Headers = headers
}

func (c *HTTPPublisherConfig) validate() error {
	return required("url", c.URL)
}

func (c *AWSConfig) normalize() {
	for _, f := range []*string{&c.Region, &c.Endpoint, &c.AccessKeyID, &c.SecretAccessKey} {
		*f = strings.TrimSpace(*f)
	}
}

func required(field, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

// sink returns the block for cfg.Type. known is false for unsupported types;
// sink is nil when the block is missing.
func (cfg *PublisherConfig) sink() (s sinkConfig, known bool) {
	switch cfg.Type {
	case TypeSQS:
		if cfg.SQS != nil {
			s = cfg.SQS
		}
	case TypeSNS:
		if cfg.SNS != nil {
			s = cfg.SNS
		}
	case TypePubSub:
		if cfg.PubSub != nil {
			s = cfg.PubSub
		}
	case TypeHTTP:
		if cfg.HTTP != nil {
			s = cfg.HTTP
		}
	default:
		return nil, false
	}
	return s, true
}

func (cfg *PublisherConfig) normalize() {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))
	kinds := cfg.Kinds[:0:0]
	for _, k := range cfg.Kinds {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" && !slices.Contains(kinds, k) {
			kinds = append(kinds, k)
		}
	}
	cfg.Kinds = kinds
	if s, _ := cfg.sink(); s != nil {
		s.normalize()
	}
}

func (cfg *PublisherConfig) validate() error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}
	s, known := cfg.sink()
	if !known {
		return fmt.Errorf("publisher %q: unsupported type %q", cfg.ID, cfg.Type)
	}
	if s == nil {
		return fmt.Errorf("publisher %q: %s block is required", cfg.ID, cfg.Type)
	}
	if err := s.validate(); err != nil {
		return fmt.Errorf("publisher %q: %s: %w", cfg.ID, cfg.Type, err)
	}
	for _, k := range cfg.Kinds {
		if !slices.Contains(recordKinds, k) {
			return fmt.Errorf("publisher %q: unknown record kind %q (want one of %s)", cfg.ID, k, strings.Join(recordKinds, ", "))
		}
	}
	return nil
}

// EnabledValue reports the enabled flag, which defaults to true.
func (cfg PublisherConfig) EnabledValue() bool {
	return cfg.Enabled == nil || *cfg.Enabled
}

// ConfigRegistry holds the validated entries of a publishers file.
type ConfigRegistry struct {
	publishers []PublisherConfig
}

type configFile struct {
	Publishers []PublisherConfig `json:"publishers" yaml:"publishers"`
}

var configDecoders = map[string]func([]byte, any) error{
	".yaml": yaml.Unmarshal,
	".yml":  yaml.Unmarshal,
	".json": json.Unmarshal,
}

// LoadRegistry reads, normalizes and validates a YAML or JSON publishers file.
func LoadRegistry(path string) (*ConfigRegistry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}

	var file configFile
	if err := decodeConfig(raw, filepath.Ext(path), &file); err != nil {
		return nil, fmt.Errorf("decode publishers file: %w", err)
	}
	if len(file.Publishers) == 0 {
		return nil, errors.New("publishers file contains no publishers entries")
	}

	seen := make(map[string]bool, len(file.Publishers))
	for i := range file.Publishers {
		cfg := &file.Publishers[i]
		cfg.normalize()
		if err := cfg.validate(); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if seen[cfg.ID] {
			return nil, fmt.Errorf("duplicate publisher id %q", cfg.ID)
		}
		seen[cfg.ID] = true
	}
	return &ConfigRegistry{publishers: file.Publishers}, nil
}

// decodeConfig picks the decoder by extension; unknown extensions try YAML,
// which also accepts JSON.
func decodeConfig(raw []byte, ext string, out any) error {
	decode, ok := configDecoders[strings.ToLower(ext)]
	if !ok {
		decode = yaml.Unmarshal
	}
	return decode(raw, out)
}

// ByID returns the entry with the given id.
func (r *ConfigRegistry) ByID(id string) (PublisherConfig, bool) {
	if r == nil {
		return PublisherConfig{}, false
	}
	i := slices.IndexFunc(r.publishers, func(c PublisherConfig) bool { return c.ID == id })
	if i < 0 {
		return PublisherConfig{}, false
	}
	return r.publishers[i], true
}

// All returns a copy of every entry in file order.
func (r *ConfigRegistry) All() []PublisherConfig {
	if r == nil {
		return nil
	}
	return slices.Clone(r.publishers)
}

// Enabled returns the entries whose enabled flag is not false.
func (r *ConfigRegistry) Enabled() []PublisherConfig {
	if r == nil {
		return nil
	}
	out := make([]PublisherConfig, 0, len(r.publishers))
	for _, cfg := range r.publishers {
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out
}
