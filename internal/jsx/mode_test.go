package jsx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{
		"":               React,
		"react":          React,
		" React ":        React,
		"react-native":   ReactNative,
		"REACT-NATIVE\n": ReactNative,
	} {
		got, err := ParseMode(in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, want, got, "input %q", in)
	}

	_, err := ParseMode("vue")
	assert.Error(t, err)
}

func TestMode_TextRoundTrip(t *testing.T) {
	var m Mode
	require.NoError(t, m.UnmarshalText([]byte("react-native")))
	assert.Equal(t, ReactNative, m)
	b, err := m.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "react-native", string(b))

	assert.Error(t, m.UnmarshalText([]byte("svelte")))
	assert.Equal(t, ReactNative, m, "failed unmarshal must not clobber")
}
