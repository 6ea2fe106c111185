package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClockTime(t *testing.T) {
	hour, minute, err := parseClockTime("03:00")
	require.NoError(t, err)
	assert.Equal(t, 3, hour)
	assert.Equal(t, 0, minute)

	hour, minute, err = parseClockTime("23:59")
	require.NoError(t, err)
	assert.Equal(t, 23, hour)
	assert.Equal(t, 59, minute)

	for _, bad := range []string{"", "3", "24:00", "12:60", "aa:bb", "12:00:00"} {
		_, _, err := parseClockTime(bad)
		assert.Error(t, err, "expected %q to be rejected", bad)
	}
}
