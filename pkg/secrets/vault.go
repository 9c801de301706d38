// Package secrets loads credentials from a Vault KV engine into the process
// environment before configuration is read.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/storeguard/pkg/retry"
)

// DefaultPath is read when VAULT_PATH is unset
const DefaultPath = "storeguard/admin"

// VaultConfig describes where the secrets live
type VaultConfig struct {
	Enabled   bool
	Addr      string
	Token     string
	Namespace string
	Mount     string
	Path      string
	KVVersion int
	Timeout   time.Duration
	// Overwrite lets Vault values replace variables already set
	Overwrite bool
}

// Result summarizes an export
type Result struct {
	Path    string
	Loaded  int
	Skipped int
}

// ConfigFromEnv reads the VAULT_* variables
func ConfigFromEnv() VaultConfig {
	cfg := VaultConfig{
		Enabled:   strings.EqualFold(os.Getenv("VAULT_ENABLED"), "true"),
		Addr:      os.Getenv("VAULT_ADDR"),
		Token:     os.Getenv("VAULT_TOKEN"),
		Namespace: os.Getenv("VAULT_NAMESPACE"),
		Mount:     envOr("VAULT_MOUNT", "secret"),
		Path:      envOr("VAULT_PATH", DefaultPath),
		KVVersion: 2,
		Timeout:   5 * time.Second,
		Overwrite: strings.EqualFold(os.Getenv("VAULT_OVERWRITE"), "true"),
	}
	if v, err := strconv.Atoi(os.Getenv("VAULT_KV_VERSION")); err == nil {
		cfg.KVVersion = v
	}
	if v, err := strconv.Atoi(os.Getenv("VAULT_TIMEOUT_MS")); err == nil && v > 0 {
		cfg.Timeout = time.Duration(v) * time.Millisecond
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Validate reports missing settings of an enabled config
func (c VaultConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	var missing []string
	if c.Addr == "" {
		missing = append(missing, "VAULT_ADDR")
	}
	if c.Token == "" {
		missing = append(missing, "VAULT_TOKEN")
	}
	if c.Mount == "" || c.Path == "" {
		missing = append(missing, "VAULT_MOUNT/VAULT_PATH")
	}
	if c.KVVersion != 1 && c.KVVersion != 2 {
		return fmt.Errorf("VAULT_KV_VERSION must be 1 or 2, got %d", c.KVVersion)
	}
	if len(missing) > 0 {
		return fmt.Errorf("vault configuration incomplete: %s", strings.Join(missing, ", "))
	}
	return nil
}

// URL is the read endpoint of the secret
func (c VaultConfig) URL() string {
	addr := strings.TrimRight(c.Addr, "/")
	mount := strings.Trim(c.Mount, "/")
	path := strings.TrimLeft(c.Path, "/")
	if c.KVVersion == 1 {
		return fmt.Sprintf("%s/v1/%s/%s", addr, mount, path)
	}
	return fmt.Sprintf("%s/v1/%s/data/%s", addr, mount, path)
}

// errPermanent marks failures a retry cannot fix
type errPermanent struct{ err error }

func (e errPermanent) Error() string { return e.err.Error() }
func (e errPermanent) Unwrap() error { return e.err }

// Client reads one KV secret
type Client struct {
	cfg   VaultConfig
	http  *http.Client
	retry retry.Config
}

// NewClient creates a Vault client. httpClient may be nil.
func NewClient(cfg VaultConfig, httpClient *http.Client) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, http: httpClient, retry: retry.QuickConfig()}, nil
}

// Fetch returns the secret's key/value pairs as strings. Server errors are
// retried; a 4xx answer is returned at once.
func (c *Client) Fetch(ctx context.Context) (map[string]string, error) {
	var out map[string]string
	var permanent error
	err := retry.DoWithLog(ctx, c.retry, "Vault",
		func() error {
			data, err := c.fetchOnce(ctx)
			var perm errPermanent
			if errors.As(err, &perm) {
				permanent = perm.err
				return nil
			}
			out = data
			return err
		},
		func(attempt int, err error, nextDelay time.Duration) {
			log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("Vault read failed")
		},
	)
	if err != nil {
		return nil, err
	}
	if permanent != nil {
		return nil, permanent
	}
	return out, nil
}

func (c *Client) fetchOnce(ctx context.Context) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL(), nil)
	if err != nil {
		return nil, errPermanent{err}
	}
	req.Header.Set("X-Vault-Token", c.cfg.Token)
	if c.cfg.Namespace != "" {
		req.Header.Set("X-Vault-Namespace", c.cfg.Namespace)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, errPermanent{fmt.Errorf("vault read %s: %s", c.cfg.Path, resp.Status)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("vault read %s: %s %s", c.cfg.Path, resp.Status, strings.TrimSpace(string(body)))
	}

	var payload struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errPermanent{fmt.Errorf("decode vault response: %w", err)}
	}

	fields := payload.Data
	if c.cfg.KVVersion == 2 {
		inner, ok := fields["data"]
		if !ok {
			return nil, errPermanent{errors.New("vault response missing data for KV v2")}
		}
		fields = nil
		if err := json.Unmarshal(inner, &fields); err != nil {
			return nil, errPermanent{fmt.Errorf("decode vault data: %w", err)}
		}
	}
	if fields == nil {
		return nil, errPermanent{errors.New("vault response has no data")}
	}

	out := make(map[string]string, len(fields))
	for k, raw := range fields {
		out[k] = stringify(raw)
	}
	return out, nil
}

// stringify renders strings unquoted and any other JSON value as its text
func stringify(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if string(raw) == "null" {
		return ""
	}
	return string(raw)
}

// Export copies the secret into the environment. Variables that are already
// set win unless Overwrite is on. A disabled config is a no-op.
func Export(ctx context.Context, cfg VaultConfig) (*Result, error) {
	if !cfg.Enabled {
		return &Result{Path: cfg.Path}, nil
	}
	client, err := NewClient(cfg, nil)
	if err != nil {
		return nil, err
	}
	return client.Export(ctx)
}

// Export fetches the secret and sets each key as an environment variable
func (c *Client) Export(ctx context.Context) (*Result, error) {
	data, err := c.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{Path: c.cfg.Path}
	for key, value := range data {
		if !c.cfg.Overwrite && os.Getenv(key) != "" {
			result.Skipped++
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return result, fmt.Errorf("set %s: %w", key, err)
		}
		result.Loaded++
	}
	return result, nil
}
