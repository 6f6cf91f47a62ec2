package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const goodWallet = "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"

func TestValidWallet(t *testing.T) {
	assert.True(t, ValidWallet(goodWallet))
	assert.True(t, ValidWallet("0x"+strings.Repeat("A", 40)))

	assert.False(t, ValidWallet("0x"+strings.Repeat("a", 39)), "39 hex chars")
	assert.False(t, ValidWallet("0x"+strings.Repeat("a", 41)), "41 hex chars")
	assert.False(t, ValidWallet(strings.Repeat("a", 42)), "missing 0x")
	assert.False(t, ValidWallet("0x"+strings.Repeat("g", 40)), "non-hex")
	assert.False(t, ValidWallet(""))
}

func TestChecksumAddress(t *testing.T) {
	got, err := ChecksumAddress(goodWallet)
	require.NoError(t, err)
	assert.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", got)

	again, err := ChecksumAddress(strings.ToUpper(goodWallet[:2]) + strings.ToUpper(goodWallet[2:]))
	require.Error(t, err, "0X prefix is not accepted")
	assert.Empty(t, again)

	_, err = ChecksumAddress("0x123")
	assert.ErrorIs(t, err, ErrInvalidWallet)
}

func newTestBridge(t *testing.T, h http.HandlerFunc, timeout time.Duration) (*HTTPBridge, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	b := NewHTTPBridge(Options{Enabled: true, BaseURL: srv.URL + "/", Timeout: timeout, RatePerSecond: 100}, zap.NewNop())
	return b, &hits
}

func TestMintForXP_Success(t *testing.T) {
	b, hits := newTestBridge(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/earn-credits", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		assert.Equal(t, goodWallet, gjson.GetBytes(raw, "userAddress").String())
		assert.EqualValues(t, 120, gjson.GetBytes(raw, "amount").Int())
		assert.Equal(t, "req-1", gjson.GetBytes(raw, "requestId").String())
		assert.Equal(t, "req-1", r.Header.Get("Idempotency-Key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"txHash":"0xabc"}`))
	}, time.Second)

	res := b.MintForXP(context.Background(), "req-1", goodWallet, 120)
	assert.True(t, res.Success)
	assert.Equal(t, "0xabc", res.TxHash)
	assert.EqualValues(t, 1, atomic.LoadInt32(hits))
}

func TestMintForXP_ValidationNeverCallsNetwork(t *testing.T) {
	b, hits := newTestBridge(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, time.Second)

	res := b.MintForXP(context.Background(), "req-1", "0xnothex", 10)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "wallet")

	res = b.MintForXP(context.Background(), "req-1", goodWallet, 0)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "positive")

	assert.EqualValues(t, 0, atomic.LoadInt32(hits))
}

func TestMintForXP_Disabled(t *testing.T) {
	b := NewHTTPBridge(Options{Enabled: false}, zap.NewNop())
	res := b.MintForXP(context.Background(), "req-1", "garbage", -1)
	assert.True(t, res.Success)
	assert.True(t, res.Skipped)
}

func TestMintForXP_FailureClassification(t *testing.T) {
	b, _ := newTestBridge(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`upstream down`))
	}, time.Second)
	res := b.MintForXP(context.Background(), "req-1", goodWallet, 5)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "status 502")

	b, _ = newTestBridge(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"insufficient minter allowance"}`))
	}, time.Second)
	res = b.MintForXP(context.Background(), "req-1", goodWallet, 5)
	assert.False(t, res.Success)
	assert.Equal(t, "insufficient minter allowance", res.Error)

	b, _ = newTestBridge(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, 50*time.Millisecond)
	res = b.MintForXP(context.Background(), "req-1", goodWallet, 5)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "timed out")

	unreachable := NewHTTPBridge(Options{Enabled: true, BaseURL: "http://127.0.0.1:1", Timeout: time.Second}, zap.NewNop())
	res = unreachable.MintForXP(context.Background(), "req-1", goodWallet, 5)
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}

func TestBalanceAndHealth(t *testing.T) {
	b, _ := newTestBridge(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/balance/" + goodWallet:
			_, _ = w.Write([]byte(`{"balanceRaw":"1500000000000000000","balanceFormatted":"1.5"}`))
		case "/test":
			_, _ = w.Write([]byte(`{"ok":true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}, time.Second)

	bal, err := b.Balance(context.Background(), goodWallet)
	require.NoError(t, err)
	assert.Equal(t, "1.5", bal.BalanceFormatted)
	assert.Equal(t, "1500000000000000000", bal.BalanceRaw)

	assert.NoError(t, b.Health(context.Background()))

	_, err = b.Balance(context.Background(), "0x1")
	assert.ErrorIs(t, err, ErrInvalidWallet)
}
