package secrets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/storeguard/pkg/retry"
)

func fastRetry() retry.Config {
	return retry.Config{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 1}
}

func vaultServer(t *testing.T, status int, body string, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		assert.Equal(t, "root-token", r.Header.Get("X-Vault-Token"))
		assert.Equal(t, "/v1/secret/data/storeguard/admin", r.URL.Path)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, addr string, overwrite bool) *Client {
	t.Helper()
	c, err := NewClient(VaultConfig{
		Enabled: true, Addr: addr, Token: "root-token", Mount: "secret",
		Path: DefaultPath, KVVersion: 2, Timeout: time.Second, Overwrite: overwrite,
	}, nil)
	require.NoError(t, err)
	c.retry = fastRetry()
	return c
}

func TestVaultConfig_URL(t *testing.T) {
	cfg := VaultConfig{Addr: "http://vault:8200/", Mount: "/secret/", Path: "/storeguard/admin", KVVersion: 2}
	assert.Equal(t, "http://vault:8200/v1/secret/data/storeguard/admin", cfg.URL())

	cfg.KVVersion = 1
	assert.Equal(t, "http://vault:8200/v1/secret/storeguard/admin", cfg.URL())
}

func TestVaultConfig_Validate(t *testing.T) {
	assert.NoError(t, VaultConfig{}.Validate(), "disabled config is always valid")

	err := VaultConfig{Enabled: true, Mount: "secret", Path: "p", KVVersion: 2}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VAULT_ADDR")
	assert.Contains(t, err.Error(), "VAULT_TOKEN")

	err = VaultConfig{Enabled: true, Addr: "a", Token: "t", Mount: "m", Path: "p", KVVersion: 3}.Validate()
	assert.Error(t, err)
}

func TestClient_ExportRespectsExistingVariables(t *testing.T) {
	server := vaultServer(t, http.StatusOK,
		`{"data":{"data":{"SG_TEST_DB_PASSWORD":"s3cret","SG_TEST_SMTP_PORT":2525,"SG_TEST_PRESET":"from-vault"}}}`, nil)

	t.Setenv("SG_TEST_PRESET", "from-env")
	t.Setenv("SG_TEST_DB_PASSWORD", "")
	t.Setenv("SG_TEST_SMTP_PORT", "")

	result, err := newTestClient(t, server.URL, false).Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Loaded)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, "s3cret", os.Getenv("SG_TEST_DB_PASSWORD"))
	assert.Equal(t, "2525", os.Getenv("SG_TEST_SMTP_PORT"))
	assert.Equal(t, "from-env", os.Getenv("SG_TEST_PRESET"))
}

func TestClient_ExportOverwrite(t *testing.T) {
	server := vaultServer(t, http.StatusOK, `{"data":{"data":{"SG_TEST_PRESET":"from-vault"}}}`, nil)
	t.Setenv("SG_TEST_PRESET", "from-env")

	_, err := newTestClient(t, server.URL, true).Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from-vault", os.Getenv("SG_TEST_PRESET"))
}

func TestClient_FetchDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := vaultServer(t, http.StatusForbidden, `{"errors":["permission denied"]}`, &calls)

	_, err := newTestClient(t, server.URL, false).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.EqualValues(t, 1, calls.Load())
}

func TestClient_FetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := vaultServer(t, http.StatusServiceUnavailable, `sealed`, &calls)

	_, err := newTestClient(t, server.URL, false).Fetch(context.Background())
	require.Error(t, err)
	assert.EqualValues(t, 3, calls.Load())
}

func TestExport_DisabledIsNoop(t *testing.T) {
	result, err := Export(context.Background(), VaultConfig{Path: DefaultPath})
	require.NoError(t, err)
	assert.Zero(t, result.Loaded)
}
