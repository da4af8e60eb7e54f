// internal/vault/vault.go
//
// Vault client wrapper for Waypost.
//
// Context
// -------
//   - Wraps the HashiCorp Vault Go SDK behind one small method, Resolve,
//     used by the config loader to replace `vault:` references.
//   - Adds per-reference caching and a background token-renewal loop so a
//     long-lived process keeps its lease.
//
// Public workflow
// ---------------
//  1. cli, err := vault.New(ctx, log)              // during boot.
//  2. val, err := cli.Resolve(ctx, "kv/waypost#admin_hash")
//
// Environment expectations
// ------------------------
// • VAULT_ADDR   – scheme and host of the Vault server.
// • VAULT_TOKEN  – initial token (falls back to ~/.vault-token).
package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"
)

// cacheTTL bounds how long a resolved secret is reused.  Reload() re-runs
// resolution, so a shorter TTL only matters for explicit config reloads.
const cacheTTL = 5 * time.Minute

// Client is safe for concurrent use.  Zero value is invalid; construct with
// New.
type Client struct {
	api   *vault.Client
	logFn func(string, ...any)

	mu    sync.Mutex
	cache map[string]cached
}

type cached struct {
	val string
	exp time.Time
}

// New constructs a Vault client and starts a background token-renewal loop
// tied to ctx.
func New(ctx context.Context, logFn func(string, ...any)) (*Client, error) {
	if logFn == nil {
		logFn = func(string, ...any) {}
	}

	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env cfg: %w", err)
	}
	if cfg.Address == "" {
		return nil, errors.New("vault: VAULT_ADDR is not set")
	}

	apiCli, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}
	if tok := os.Getenv("VAULT_TOKEN"); tok != "" {
		apiCli.SetToken(tok)
	}

	c := &Client{
		api:   apiCli,
		logFn: logFn,
		cache: make(map[string]cached),
	}
	go c.renewLoop(ctx)
	return c, nil
}

// Resolve fetches one KV-v2 value.  The reference format is
// `mount/secret/path#key`; results are cached for cacheTTL.
func (c *Client) Resolve(ctx context.Context, ref string) (string, error) {
	secretPath, key, ok := strings.Cut(ref, "#")
	if !ok || secretPath == "" || key == "" {
		return "", fmt.Errorf("vault: malformed reference %q (want path#key)", ref)
	}

	c.mu.Lock()
	if cv, hit := c.cache[ref]; hit && time.Now().Before(cv.exp) {
		c.mu.Unlock()
		return cv.val, nil
	}
	c.mu.Unlock()

	mount, rel := splitMount(secretPath)
	sec, err := c.api.KVv2(mount).Get(ctx, rel)
	if err != nil {
		return "", fmt.Errorf("vault get %s: %w", secretPath, err)
	}

	raw, ok := sec.Data[key]
	if !ok {
		return "", fmt.Errorf("vault: key %q not found in secret %q", key, secretPath)
	}
	sval, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("vault: value at %s#%s is not a string", secretPath, key)
	}

	c.mu.Lock()
	c.cache[ref] = cached{val: sval, exp: time.Now().Add(cacheTTL)}
	c.mu.Unlock()
	return sval, nil
}

//
// Background token renewal
//

// renewLoop probes RenewSelf on a coarse interval.  Failures are logged and
// retried; a non-renewable token simply parks the loop on a long sleep.
func (c *Client) renewLoop(ctx context.Context) {
	for {
		sec, err := c.api.Auth().Token().RenewSelf(0)
		switch {
		case err != nil:
			c.logFn("vault: token renew failed: %v", err)
			if !sleep(ctx, 30*time.Second) {
				return
			}
		case sec == nil || sec.Auth == nil || !sec.Auth.Renewable:
			c.logFn("vault: token is not renewable, sleeping 1h")
			if !sleep(ctx, time.Hour) {
				return
			}
		default:
			// Renew again at half the granted lease.
			lease := time.Duration(sec.Auth.LeaseDuration) * time.Second
			if lease < time.Minute {
				lease = time.Minute
			}
			if !sleep(ctx, lease/2) {
				return
			}
		}
	}
}

//
// Helpers
//

func splitMount(p string) (mount, rel string) {
	mount, rel, _ = strings.Cut(p, "/")
	return
}

// sleep waits d or until ctx is done; reports false on cancellation.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
