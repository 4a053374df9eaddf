package pgbind_test

import (
	"testing"

	"github.com/pgbind/pgbind"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionFromNumber(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{90605, "9.6.5"},
		{80423, "8.4.23"},
		{100001, "10.0.1"},
		{160003, "16.0.3"},
		{170000, "17.0.0"},
	}

	for _, tt := range tests {
		v, err := pgbind.VersionFromNumber(tt.n)
		require.NoError(t, err)
		assert.Equalf(t, tt.want, v.String(), "%d", tt.n)
	}

	_, err := pgbind.VersionFromNumber(0)
	assert.Error(t, err)
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		s    string
		want string
	}{
		{"9.6.5", "9.6.5"},
		{"10.1", "10.0.1"},
		{"16.2 (Debian 16.2-1)", "16.0.2"},
		{"9.4", "9.4.0"},
	}

	for _, tt := range tests {
		v, err := pgbind.ParseVersion(tt.s)
		require.NoError(t, err)
		assert.Equalf(t, tt.want, v.String(), "%q", tt.s)
	}

	_, err := pgbind.ParseVersion("x")
	assert.Error(t, err)

	assert.True(t, pgbind.MustParseVersion("10.1").LessThan(pgbind.MustParseVersion("9.6.5")) == false)
	assert.Panics(t, func() { pgbind.MustParseVersion("") })
}

func TestLegacyAndModernVersionsCompare(t *testing.T) {
	legacy, err := pgbind.VersionFromNumber(90605)
	require.NoError(t, err)
	modern, err := pgbind.ParseVersion("10.1")
	require.NoError(t, err)

	assert.True(t, legacy.LessThan(modern))
	assert.Equal(t, uint64(10), modern.Major())
	assert.Equal(t, uint64(1), modern.Patch())
}
