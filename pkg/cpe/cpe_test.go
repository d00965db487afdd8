package cpe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURIRoundTrip(t *testing.T) {
	s := "cpe:2.3:a:apache:http_server:2.4.41:*:*:*:*:*:*:*"
	n, err := ParseURI(s)
	require.NoError(t, err)
	assert.Equal(t, PartApplication, n.Part)
	assert.True(t, n.Vendor.IsValue())
	assert.Equal(t, "apache", n.Vendor.Value)
	assert.True(t, n.Update.IsAny())
	assert.Equal(t, s, n.Display())
}

func TestParseURINAAttribute(t *testing.T) {
	n, err := ParseURI("cpe:2.3:a:vendor:product:1.0:-:*:*:*:*:*:*")
	require.NoError(t, err)
	assert.True(t, n.Update.IsNA())
}

func TestParseURIMissingPrefix(t *testing.T) {
	_, err := ParseURI("a:vendor:product:1.0:*:*:*:*:*:*:*")
	require.ErrorIs(t, err, ErrInvalidPrefix)
}

func TestParseURIWrongFieldCount(t *testing.T) {
	_, err := ParseURI("cpe:2.3:a:vendor:product:1.0")
	require.Error(t, err)
}

func TestParseWFN(t *testing.T) {
	n, err := ParseWFN("wfn:[part=a,vendor=apache,product=http_server,version=2.4.41,update=NA,edition=NA,language=NA,sw_edition=NA,target_sw=NA,target_hw=NA,other=NA]")
	require.NoError(t, err)
	assert.Equal(t, PartApplication, n.Part)
	assert.Equal(t, "apache", n.Vendor.Value)
}

func TestParseWFNMissingKey(t *testing.T) {
	_, err := ParseWFN("wfn:[part=a,vendor=apache]")
	require.ErrorIs(t, err, ErrInvalidWfn)
}

func TestParseWFNDuplicateKey(t *testing.T) {
	_, err := ParseWFN("wfn:[part=a,part=o,vendor=apache,product=x,version=x,update=x,edition=x,language=x,sw_edition=x,target_sw=x,target_hw=x,other=x]")
	require.Error(t, err)
}

func TestWildcardEncodingDecode(t *testing.T) {
	n, err := ParseURI("cpe:2.3:a:vendor:prod%01ver%02suffix:1.0:*:*:*:*:*:*:*")
	require.NoError(t, err)
	assert.Equal(t, "prod?ver*suffix", n.Product.Value)
}

func TestBackslashEscapeStripping(t *testing.T) {
	decoded, err := decodeValue(`my\\vendor`)
	require.NoError(t, err)
	assert.Equal(t, `my\vendor`, decoded)

	decoded2, err := decodeValue(`foo\:bar`)
	require.NoError(t, err)
	assert.Equal(t, "foo:bar", decoded2)
}
