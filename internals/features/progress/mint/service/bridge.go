package service

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/crypto/sha3"
	"golang.org/x/time/rate"
)

const DefaultMintTimeout = 30 * time.Second

var walletRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

var ErrInvalidWallet = errors.New("wallet address must be 0x followed by 40 hex characters")

// ValidWallet: format saja, checksum tidak diwajibkan.
func ValidWallet(addr string) bool {
	return walletRe.MatchString(addr)
}

// ChecksumAddress mengembalikan bentuk EIP-55 (mixed-case) dari alamat valid.
func ChecksumAddress(addr string) (string, error) {
	if !ValidWallet(addr) {
		return "", ErrInvalidWallet
	}
	lower := strings.ToLower(addr[2:])

	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write([]byte(lower))
	digest := hex.EncodeToString(h.Sum(nil))

	out := make([]byte, 0, 42)
	out = append(out, '0', 'x')
	for i := 0; i < len(lower); i++ {
		ch := lower[i]
		if ch >= 'a' && ch <= 'f' && digest[i] >= '8' {
			ch -= 'a' - 'A'
		}
		out = append(out, ch)
	}
	return string(out), nil
}

/* ===================== contract ===================== */

type MintResult struct {
	Success bool   `json:"success"`
	Skipped bool   `json:"skipped,omitempty"`
	TxHash  string `json:"tx_hash,omitempty"`
	Error   string `json:"error,omitempty"`
}

type Balance struct {
	Address          string `json:"address"`
	BalanceRaw       string `json:"balance_raw"`
	BalanceFormatted string `json:"balance_formatted"`
}

// Bridge tidak pernah panic / mengembalikan error dari MintForXP; kegagalan ada di MintResult.
type Bridge interface {
	MintForXP(ctx context.Context, requestID, wallet string, amount int) MintResult
	Balance(ctx context.Context, wallet string) (*Balance, error)
	Health(ctx context.Context) error
}

type Options struct {
	Enabled       bool
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond float64
}

/* ===================== HTTP client ===================== */

type HTTPBridge struct {
	enabled bool
	baseURL string
	timeout time.Duration
	client  *http.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

func NewHTTPBridge(opts Options, log *zap.Logger) *HTTPBridge {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultMintTimeout
	}
	limit := rate.Inf
	burst := 1
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
		burst = int(opts.RatePerSecond) + 1
	}
	return &HTTPBridge{
		enabled: opts.Enabled,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		timeout: opts.Timeout,
		client:  &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(limit, burst),
		log:     log.Named("mint"),
	}
}

func (b *HTTPBridge) Enabled() bool { return b.enabled }

// requestID = id outbox; dikirim sebagai idempotency key supaya retry tidak mint dua kali.
func (b *HTTPBridge) MintForXP(ctx context.Context, requestID, wallet string, amount int) (res MintResult) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("[MINT] panic ditangkap", zap.Any("panic", r))
			res = MintResult{Success: false, Error: fmt.Sprintf("mint client panic: %v", r)}
		}
	}()

	if !b.enabled {
		return MintResult{Success: true, Skipped: true}
	}
	if !ValidWallet(wallet) {
		return MintResult{Error: ErrInvalidWallet.Error()}
	}
	if amount <= 0 {
		return MintResult{Error: "amount must be a positive integer"}
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	if err := b.limiter.Wait(ctx); err != nil {
		return MintResult{Error: b.classify(err)}
	}

	payload, err := sonic.Marshal(map[string]any{"userAddress": wallet, "amount": amount, "requestId": requestID})
	if err != nil {
		return MintResult{Error: "encode request: " + err.Error()}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/earn-credits", bytes.NewReader(payload))
	if err != nil {
		return MintResult{Error: "build request: " + err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	if requestID != "" {
		req.Header.Set("Idempotency-Key", requestID)
	}

	body, status, err := b.do(req)
	if err != nil {
		return MintResult{Error: b.classify(err)}
	}
	if status < 200 || status > 299 {
		return MintResult{Error: fmt.Sprintf("mint service returned status %d: %s", status, snippet(body))}
	}

	parsed := gjson.ParseBytes(body)
	if ok := parsed.Get("success"); ok.Exists() && !ok.Bool() {
		msg := firstNonEmpty(parsed.Get("error").String(), parsed.Get("message").String(), "mint service reported failure")
		return MintResult{Error: msg}
	}
	return MintResult{Success: true, TxHash: parsed.Get("txHash").String()}
}

func (b *HTTPBridge) Balance(ctx context.Context, wallet string) (*Balance, error) {
	if !ValidWallet(wallet) {
		return nil, ErrInvalidWallet
	}
	if !b.enabled {
		return nil, errors.New("token mint integration disabled")
	}
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, errors.New(b.classify(err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/balance/"+wallet, nil)
	if err != nil {
		return nil, err
	}
	body, status, err := b.do(req)
	if err != nil {
		return nil, errors.New(b.classify(err))
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("mint service returned status %d: %s", status, snippet(body))
	}
	parsed := gjson.ParseBytes(body)
	return &Balance{
		Address:          wallet,
		BalanceRaw:       parsed.Get("balanceRaw").String(),
		BalanceFormatted: parsed.Get("balanceFormatted").String(),
	}, nil
}

func (b *HTTPBridge) Health(ctx context.Context) error {
	if !b.enabled {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/test", nil)
	if err != nil {
		return err
	}
	body, status, err := b.do(req)
	if err != nil {
		return errors.New(b.classify(err))
	}
	if status < 200 || status > 299 {
		return fmt.Errorf("mint service returned status %d: %s", status, snippet(body))
	}
	return nil
}

func (b *HTTPBridge) do(req *http.Request) ([]byte, int, error) {
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

// classify memetakan error transport ke pesan yang stabil untuk log / outbox.
func (b *HTTPBridge) classify(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("mint request timed out after %s", b.timeout)
	case errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Sprintf("mint request timed out after %s", b.timeout)
	case errors.Is(err, context.Canceled):
		return "mint request canceled"
	default:
		return "mint service unreachable: " + err.Error()
	}
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
