//go:build integration

package testutil

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/okaravasi/sonic-mgmt/pkg/remote"
)

// Integration tests reach real infrastructure through these variables.
const (
	EnvRedisAddr   = "SAIQUAL_TEST_REDIS_ADDR"
	EnvDUTHost     = "SAIQUAL_TEST_DUT_HOST"
	EnvDUTUser     = "SAIQUAL_TEST_DUT_USER"
	EnvDUTPassword = "SAIQUAL_TEST_DUT_PASSWORD"
	EnvDUTPort     = "SAIQUAL_TEST_DUT_SSH_PORT"
	EnvRegistry    = "SAIQUAL_TEST_REGISTRY"
)

// Context returns a context with a reasonable timeout for tests.
// The cancel function is registered via t.Cleanup.
func Context(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// MustEnv returns the value of an environment variable or fails the test.
func MustEnv(t *testing.T, key string) string {
	t.Helper()
	v := os.Getenv(key)
	if v == "" {
		t.Fatalf("required environment variable %s not set", key)
	}
	return v
}

// DUTConfig returns the SSH settings of the lab DUT, skipping the test when
// none is configured.
func DUTConfig(t *testing.T) remote.SSHConfig {
	t.Helper()
	host := os.Getenv(EnvDUTHost)
	if host == "" {
		t.Skipf("no DUT: set %s, %s and %s", EnvDUTHost, EnvDUTUser, EnvDUTPassword)
	}
	cfg := remote.SSHConfig{
		Host:     host,
		User:     MustEnv(t, EnvDUTUser),
		Password: os.Getenv(EnvDUTPassword),
	}
	if p := os.Getenv(EnvDUTPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			t.Fatalf("%s: %v", EnvDUTPort, err)
		}
		cfg.Port = port
	}
	return cfg
}

// DialDUT connects to the lab DUT and closes the connection on cleanup.
func DialDUT(t *testing.T) *remote.SSHExecutor {
	t.Helper()
	e, err := remote.DialSSH(DUTConfig(t))
	if err != nil {
		t.Fatalf("dialing DUT: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}
