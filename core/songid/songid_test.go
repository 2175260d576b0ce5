package songid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AginMusic/model"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		source model.Source
		rawID  string
	}{
		{model.SourceNetease, "1901371647"},
		{model.SourceFangpi, "42"},
		{model.SourceMigu, "3-周杰伦 晴天"},
		{model.SourceQQ, "003OUlho2HcRHC"},
		{model.SourceKuwo, "a-b-c"},
	}

	for _, tc := range cases {
		uid := Encode(tc.source, tc.rawID)
		id, err := Decode(uid)
		require.NoError(t, err, uid)
		assert.Equal(t, tc.source, id.Source)
		assert.Equal(t, tc.rawID, id.RawID)
		assert.Equal(t, uid, id.String())
	}
}

func TestDecodeSplitsOnFirstDash(t *testing.T) {
	id, err := Decode("migu-2-hello-world")
	require.NoError(t, err)
	assert.Equal(t, model.SourceMigu, id.Source)
	assert.Equal(t, "2-hello-world", id.RawID)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	for _, uid := range []string{"", "-1", "netease-", "spotify-1", "12345", "netease"} {
		_, err := Decode(uid)
		assert.ErrorIs(t, err, ErrInvalidID, uid)
	}
}

func TestDecodeWithFallback(t *testing.T) {
	id, err := DecodeWithFallback("12345")
	require.NoError(t, err)
	assert.Equal(t, model.SourceFangpi, id.Source)
	assert.Equal(t, "12345", id.RawID)

	id, err = DecodeWithFallback("netease-99")
	require.NoError(t, err)
	assert.Equal(t, model.SourceNetease, id.Source)

	_, err = DecodeWithFallback("abc")
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = DecodeWithFallback("12a")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestParseMiguRawID(t *testing.T) {
	n, kw, err := ParseMiguRawID("3-晴天 周杰伦")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "晴天 周杰伦", kw)

	n, kw, err = ParseMiguRawID("7")
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.Empty(t, kw)

	n, kw, err = ParseMiguRawID("1-a-b")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "a-b", kw)

	for _, raw := range []string{"", "x-kw", "0-kw", "-1-kw"} {
		_, _, err := ParseMiguRawID(raw)
		assert.ErrorIs(t, err, ErrInvalidID, raw)
	}
}
