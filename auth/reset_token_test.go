package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-storefront/auth"
)

func TestResetTokenManager_Issue(t *testing.T) {
	clk := newClock()
	m := auth.NewResetTokenManager(10 * time.Minute).WithClock(clk.Now)

	token, err := m.Issue()
	require.NoError(t, err)

	assert.Len(t, token.Plain, 40)
	assert.Equal(t, auth.HashResetToken(token.Plain), token.Hash)
	assert.NotEqual(t, token.Plain, token.Hash)
	assert.Equal(t, clk.Now().Add(10*time.Minute), token.ExpiresAt)

	other, err := m.Issue()
	require.NoError(t, err)
	assert.NotEqual(t, token.Plain, other.Plain)
}

func TestResetTokenManager_Redeem(t *testing.T) {
	clk := newClock()
	m := auth.NewResetTokenManager(10 * time.Minute).WithClock(clk.Now)

	token, err := m.Issue()
	require.NoError(t, err)

	tests := []struct {
		name      string
		presented string
		hash      string
		now       time.Time
		want      bool
	}{
		{"valid", token.Plain, token.Hash, clk.Now(), true},
		{"just before expiry", token.Plain, token.Hash, token.ExpiresAt.Add(-time.Nanosecond), true},
		{"at expiry", token.Plain, token.Hash, token.ExpiresAt, false},
		{"after expiry", token.Plain, token.Hash, token.ExpiresAt.Add(time.Second), false},
		{"wrong token", "deadbeef", token.Hash, clk.Now(), false},
		{"empty token", "", token.Hash, clk.Now(), false},
		{"no stored hash", token.Plain, "", clk.Now(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Redeem(tt.presented, tt.hash, token.ExpiresAt, tt.now))
		})
	}
}

func TestResetTokenManager_DefaultTTL(t *testing.T) {
	m := auth.NewResetTokenManager(0)
	assert.Equal(t, auth.DefaultResetTokenTTL, m.TTL())
}
