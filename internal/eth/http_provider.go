package eth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/AIAleph/rodeo_rewards/internal/logging"
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// httpProvider is a minimal JSON-RPC client for Ethereum endpoints.
// It intentionally leaves rate limiting to wrappers (RLProvider).
type httpProvider struct {
	endpoint    string
	providerLbl string
	hc          httpDoer
	maxRetries  int
	backoffBase time.Duration
	userAgent   string
}

// NewHTTPProvider constructs a JSON-RPC provider using the given http.Client (or a default one if nil).
func NewHTTPProvider(endpoint string, client *http.Client) (Provider, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("empty endpoint")
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &httpProvider{
		endpoint:    endpoint,
		providerLbl: deriveProviderLabel(endpoint),
		hc:          client,
		maxRetries:  2,
		backoffBase: 100 * time.Millisecond,
	}, nil
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      int64       `json:"id"`
}

// RPCError is a JSON-RPC error object. Reverts carry the revert data in Data.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	if len(e.Data) > 0 {
		return fmt.Sprintf("rpc %d: %s (data %s)", e.Code, e.Message, string(e.Data))
	}
	return fmt.Sprintf("rpc %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
	ID      int64           `json:"id"`
}

func deriveProviderLabel(endpoint string) string {
	if endpoint == "" {
		return ""
	}
	if u, err := url.Parse(endpoint); err == nil {
		u.User = nil
		if u.Host != "" {
			return u.Host
		}
		if u.Scheme == "" {
			return endpoint
		}
		return u.String()
	}
	return endpoint
}

func (p *httpProvider) call(ctx context.Context, method string, params interface{}, out interface{}) error {
	reqBody, _ := json.Marshal(rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: 1})
	start := time.Now()
	var lastErr error
	attempts := p.maxRetries + 1
	attempt := 0
	defer func() {
		logger := logging.Logger()
		if logger == nil || lastErr == nil {
			return
		}
		logger.Warn("rpc_call_failed",
			"component", "eth.http_provider",
			"provider", p.providerLbl,
			"method", method,
			"attempts", attempt+1,
			"elapsed_ms", time.Since(start).Milliseconds(),
			"error", lastErr.Error(),
		)
	}()
	for ; attempt < attempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(reqBody))
		if err != nil {
			lastErr = err
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if p.userAgent != "" {
			req.Header.Set("User-Agent", p.userAgent)
		}
		resp, err := p.hc.Do(req)
		if err != nil {
			lastErr = err
		} else {
			retriable := true
			func() {
				defer func() {
					_ = resp.Body.Close()
				}()
				if resp.StatusCode/100 != 2 {
					b, _ := io.ReadAll(resp.Body)
					lastErr = fmt.Errorf("http %d: %s", resp.StatusCode, string(b))
					retriable = resp.StatusCode == 429 || resp.StatusCode >= 500
					return
				}
				var rr rpcResponse
				if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
					lastErr = err
					return
				}
				if rr.Error != nil {
					// JSON-RPC errors (including reverts) are answers, not transport failures.
					lastErr = rr.Error
					retriable = false
					return
				}
				lastErr = nil
				if out != nil {
					lastErr = json.Unmarshal(rr.Result, out)
					retriable = false
				}
			}()
			if lastErr == nil || !retriable {
				return lastErr
			}
		}
		// Backoff before next attempt
		if attempt < attempts-1 {
			d := p.backoffBase * (1 << attempt)
			t := time.NewTimer(d)
			select {
			case <-ctx.Done():
				t.Stop()
				lastErr = ctx.Err()
				return lastErr
			case <-t.C:
			}
		}
	}
	if attempt == attempts {
		attempt--
	}
	return lastErr
}

// hexToUint64 parses an Ethereum hex quantity (e.g., "0x2a") into uint64.
func hexToUint64(s string) (uint64, error) {
	v, err := hexutil.DecodeUint64(s)
	if err != nil {
		return 0, fmt.Errorf("invalid hex quantity %q: %w", s, err)
	}
	return v, nil
}

func callParams(msg CallMsg) map[string]interface{} {
	m := map[string]interface{}{
		"to":   msg.To.Hex(),
		"data": hexutil.Encode(msg.Data),
	}
	if msg.From != (common.Address{}) {
		m["from"] = msg.From.Hex()
	}
	if msg.Value != nil && msg.Value.Sign() > 0 {
		m["value"] = hexutil.EncodeBig(msg.Value)
	}
	return m
}

func (p *httpProvider) quantity(ctx context.Context, method string, params []interface{}) (uint64, error) {
	var res string
	if err := p.call(ctx, method, params, &res); err != nil {
		return 0, err
	}
	return hexToUint64(res)
}

func (p *httpProvider) ChainID(ctx context.Context) (uint64, error) {
	return p.quantity(ctx, "eth_chainId", []interface{}{})
}

func (p *httpProvider) BlockNumber(ctx context.Context) (uint64, error) {
	return p.quantity(ctx, "eth_blockNumber", []interface{}{})
}

func (p *httpProvider) Call(ctx context.Context, msg CallMsg, block string) ([]byte, error) {
	if block == "" {
		block = "latest"
	}
	var res string
	if err := p.call(ctx, "eth_call", []interface{}{callParams(msg), block}, &res); err != nil {
		return nil, err
	}
	out, err := hexutil.Decode(res)
	if err != nil {
		return nil, fmt.Errorf("eth_call result %q: %w", res, err)
	}
	return out, nil
}

func (p *httpProvider) EstimateGas(ctx context.Context, msg CallMsg) (uint64, error) {
	return p.quantity(ctx, "eth_estimateGas", []interface{}{callParams(msg)})
}

// IsRevert reports whether err is a JSON-RPC execution revert.
func IsRevert(err error) bool {
	var rerr *RPCError
	if !errors.As(err, &rerr) {
		return false
	}
	return rerr.Code == 3 || strings.Contains(rerr.Message, "revert")
}
