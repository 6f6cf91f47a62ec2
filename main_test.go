package main

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecoguard_backend/internals/configs"
)

func clientIP(t *testing.T, cfg *configs.Config) string {
	t.Helper()
	app := fiber.New(newFiberConfig(cfg))
	app.Get("/ip", func(c *fiber.Ctx) error { return c.SendString(c.IP()) })

	req := httptest.NewRequest("GET", "/ip", nil)
	req.Header.Set(fiber.HeaderXForwardedFor, "203.0.113.7")
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestFiberConfig_IgnoresForwardedForWithoutTrustedProxies(t *testing.T) {
	cfg := &configs.Config{MaxPhotoBytes: 1 << 20}
	fc := newFiberConfig(cfg)
	assert.Empty(t, fc.ProxyHeader)
	assert.NotEqual(t, "203.0.113.7", clientIP(t, cfg))
}

func TestFiberConfig_UntrustedPeerCannotSpoofIP(t *testing.T) {
	cfg := &configs.Config{MaxPhotoBytes: 1 << 20, TrustedProxies: "10.0.0.0/8"}
	assert.NotEqual(t, "203.0.113.7", clientIP(t, cfg))
}

func TestFiberConfig_TrustedProxyForwardsClientIP(t *testing.T) {
	// app.Test memakai peer 0.0.0.0
	cfg := &configs.Config{MaxPhotoBytes: 1 << 20, TrustedProxies: "0.0.0.0"}
	fc := newFiberConfig(cfg)
	assert.Equal(t, fiber.HeaderXForwardedFor, fc.ProxyHeader)
	assert.Equal(t, "203.0.113.7", clientIP(t, cfg))
}
