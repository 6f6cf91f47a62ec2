package configs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{NGORadiusKm: 1, CommunityRadiusKm: 0.2, Timezone: "UTC"}
}

func TestTrustedProxyList(t *testing.T) {
	c := validConfig()
	assert.Empty(t, c.TrustedProxyList())

	c.TrustedProxies = " 10.0.0.0/8, 192.168.1.5 ,,"
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.5"}, c.TrustedProxyList())
	require.NoError(t, c.Validate())
}

func TestValidate_RejectsBadTrustedProxy(t *testing.T) {
	c := validConfig()
	c.TrustedProxies = "10.0.0.0/8,load-balancer"
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load-balancer")
}

func TestValidate_MintNeedsBaseURL(t *testing.T) {
	c := validConfig()
	c.MintEnabled = true
	require.Error(t, c.Validate())

	c.MintBaseURL = "http://mint.local"
	require.NoError(t, c.Validate())
}
