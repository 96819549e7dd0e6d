package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	maxRateLimit   = 200
	minRateLimit   = 0
	maxHTTPRetries = 10
	minHTTPRetries = 0
	minRPCTimeout  = 100 * time.Millisecond
	maxRPCTimeout  = 10 * time.Minute
	defaultNetwork = "arbitrum"
	defaultOutDir  = "assets/stip"
	defaultAppName = "Rodeo"
	defaultTimeout = 30 * time.Second
	defaultBackoff = 100 * time.Millisecond
	defaultRetries = 2
)

// ErrUnknownNetwork is returned when NETWORK names a chain we have no entry for.
var ErrUnknownNetwork = errors.New("unknown network")

// Network describes a supported chain.
type Network struct {
	Name       string
	ChainID    int64
	DefaultRPC string
	Explorer   string
}

var networks = map[string]Network{
	"arbitrum": {
		Name:       "arbitrum",
		ChainID:    42161,
		DefaultRPC: "https://arb1.arbitrum.io/rpc",
		Explorer:   "https://arbiscan.io",
	},
	"arbitrum-sepolia": {
		Name:       "arbitrum-sepolia",
		ChainID:    421614,
		DefaultRPC: "https://sepolia-rollup.arbitrum.io/rpc",
		Explorer:   "https://sepolia.arbiscan.io",
	},
	"mainnet": {
		Name:     "mainnet",
		ChainID:  1,
		Explorer: "https://etherscan.io",
	},
}

// LookupNetwork resolves a network by name (case-insensitive).
func LookupNetwork(name string) (Network, error) {
	n, ok := networks[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Network{}, fmt.Errorf("%w: %q", ErrUnknownNetwork, name)
	}
	return n, nil
}

// ChainConfig is the explicit wallet/RPC configuration handed to clients at
// construction time.
type ChainConfig struct {
	ProjectID string
	AppName   string
	Network   string
	RPCURL    string
}

// Resolve returns the network entry and the effective RPC endpoint, falling
// back to the network's public endpoint when RPCURL is unset.
func (c ChainConfig) Resolve() (Network, string, error) {
	n, err := LookupNetwork(c.Network)
	if err != nil {
		return Network{}, "", err
	}
	rpc := strings.TrimSpace(c.RPCURL)
	if rpc == "" {
		rpc = n.DefaultRPC
	}
	if rpc == "" {
		return n, "", fmt.Errorf("no RPC endpoint configured for %s (set RPC_URL)", n.Name)
	}
	return n, rpc, nil
}

// Config holds 12-factor environment configuration used across binaries.
type Config struct {
	Chain           ChainConfig
	DistributionDir string
	RateLimit       int
	HTTPRetries     int
	HTTPBackoffBase time.Duration
	Timeout         time.Duration
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseIntEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if i, err := strconv.Atoi(v); err == nil {
		return i
	}
	return def
}

func parseDurEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return def
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampDuration(v, min, max time.Duration) time.Duration {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// LoadDotEnv reads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// RedactURL hides credentials and API keys embedded in RPC URLs so they can
// be logged. Userinfo passwords become "***"; so do query values and the last
// path segment when it looks like a key (providers such as Alchemy/Infura put
// the key there).
func RedactURL(s string) string {
	if s == "" {
		return s
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return s
	}
	if u.User != nil {
		if name := u.User.Username(); name != "" {
			u.User = url.UserPassword(name, "***")
		} else {
			u.User = url.User("***")
		}
	}
	if u.RawQuery != "" {
		q := u.Query()
		for k := range q {
			q.Set(k, "***")
		}
		u.RawQuery = q.Encode()
	}
	if p := strings.TrimRight(u.Path, "/"); p != "" {
		i := strings.LastIndex(p, "/")
		if last := p[i+1:]; len(last) >= 16 {
			u.Path = p[:i+1] + "***"
			u.RawPath = ""
		}
	}
	return u.String()
}

// Load reads environment variables and returns a Config with defaults applied.
func Load() Config {
	return Config{
		Chain: ChainConfig{
			ProjectID: env("WC_PROJECT_ID", ""),
			AppName:   env("APP_NAME", defaultAppName),
			Network:   env("NETWORK", defaultNetwork),
			RPCURL:    env("RPC_URL", ""),
		},
		DistributionDir: env("DISTRIBUTION_DIR", defaultOutDir),
		RateLimit:       clampInt(parseIntEnv("RATE_LIMIT", 0), minRateLimit, maxRateLimit),
		HTTPRetries:     clampInt(parseIntEnv("HTTP_RETRIES", defaultRetries), minHTTPRetries, maxHTTPRetries),
		HTTPBackoffBase: parseDurEnv("HTTP_BACKOFF_BASE", defaultBackoff),
		Timeout:         clampDuration(parseDurEnv("RPC_TIMEOUT", defaultTimeout), minRPCTimeout, maxRPCTimeout),
	}
}
