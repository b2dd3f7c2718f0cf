package application

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-ballot/internal/domain"
	"github.com/ahrav/go-ballot/internal/ports"
)

// ConfigLoader parses, validates and caches election configurations.
// Identical documents, after normalization, share one cached config and
// concurrent loads of the same document are collapsed into one.
type ConfigLoader struct {
	validator *validator.Validate

	// cache maps the SHA-256 of the normalized config to the validated
	// config. Cached configs MUST NOT be mutated; use Clone.
	cache   map[string]*ElectionConfig
	cacheMu sync.RWMutex

	sf singleflight.Group
}

// NewConfigLoader creates a loader with the election validators
// registered.
func NewConfigLoader() (*ConfigLoader, error) {
	v := validator.New()
	if err := registerCustomValidators(v); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}
	return &ConfigLoader{
		validator: v,
		cache:     make(map[string]*ElectionConfig),
	}, nil
}

// LoadFromFile reads and validates the configuration at path.
// WARNING: The returned config is shared with the cache. Callers MUST NOT
// mutate it.
func (cl *ConfigLoader) LoadFromFile(ctx context.Context, path string) (*ElectionConfig, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ports.NewConfigError(path, fmt.Errorf("%w: %w", ports.ErrConfigNotFound, err))
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return cl.load(ctx, data)
}

// LoadFromReader reads and validates a configuration from r.
// WARNING: The returned config is shared with the cache. Callers MUST NOT
// mutate it.
func (cl *ConfigLoader) LoadFromReader(ctx context.Context, r io.Reader) (*ElectionConfig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	return cl.load(ctx, data)
}

func (cl *ConfigLoader) load(ctx context.Context, data []byte) (*ElectionConfig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	config, err := parseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	hash, err := configHash(config)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate hash: %w", err)
	}

	v, err, _ := cl.sf.Do(hash, func() (any, error) {
		if cached, ok := cl.cached(hash); ok {
			return cached, nil
		}
		if err := cl.Validate(config); err != nil {
			return nil, err
		}
		cl.store(hash, config)
		return config, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ElectionConfig), nil
}

// Validate runs struct and semantic validation. Struct failures are
// reported as a domain.ValidationError listing every failing field.
func (cl *ConfigLoader) Validate(config *ElectionConfig) error {
	if err := cl.validator.Struct(config); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return structValidationError(fieldErrs)
		}
		return fmt.Errorf("struct validation failed: %w", err)
	}
	if err := validateSemantics(config); err != nil {
		return fmt.Errorf("semantic validation failed: %w", err)
	}
	return nil
}

func structValidationError(fieldErrs validator.ValidationErrors) error {
	verr := domain.NewValidationError("config")
	for _, fe := range fieldErrs {
		verr.AddError(fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return verr
}

// parseYAML decodes data onto the defaults in strict mode so typos in keys
// are rejected rather than ignored.
func parseYAML(data []byte) (*ElectionConfig, error) {
	config := newConfigDefaults()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(config); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("YAML decode failed: empty document")
		}
		return nil, fmt.Errorf("YAML decode failed: %w", err)
	}
	return config, nil
}

// configHash hashes the re-encoded config so formatting and key order do
// not affect cache hits.
func configHash(config *ElectionConfig) (string, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(config); err != nil {
		return "", fmt.Errorf("failed to encode config for hashing: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return "", fmt.Errorf("failed to encode config for hashing: %w", err)
	}
	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:]), nil
}

func (cl *ConfigLoader) cached(hash string) (*ElectionConfig, bool) {
	cl.cacheMu.RLock()
	defer cl.cacheMu.RUnlock()
	config, ok := cl.cache[hash]
	return config, ok
}

func (cl *ConfigLoader) store(hash string, config *ElectionConfig) {
	cl.cacheMu.Lock()
	defer cl.cacheMu.Unlock()
	cl.cache[hash] = config
}

// ClearCache drops every cached configuration.
func (cl *ConfigLoader) ClearCache() {
	cl.cacheMu.Lock()
	defer cl.cacheMu.Unlock()
	cl.cache = make(map[string]*ElectionConfig)
}

// Clone returns a copy of c that can be modified without affecting the
// cache.
func (c *ElectionConfig) Clone() *ElectionConfig {
	out := *c
	out.Metadata.Tags = append([]string(nil), c.Metadata.Tags...)
	if c.Metadata.Labels != nil {
		out.Metadata.Labels = make(map[string]string, len(c.Metadata.Labels))
		for k, v := range c.Metadata.Labels {
			out.Metadata.Labels[k] = v
		}
	}
	out.Input.Sheets = append([]string(nil), c.Input.Sheets...)
	out.Contexts.Categories = append([]string(nil), c.Contexts.Categories...)
	out.Resolver.Candidates = append([]string(nil), c.Resolver.Candidates...)
	return &out
}
