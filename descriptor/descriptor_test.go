package descriptor

import (
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"
)

// BIP32 test vector 1 master public key.
const testXPub = "xpub661MyMwAqRbcFtXgS5sYJABqqG9YLmC4Q1Rdap9gSE8NqtwybGhePY2gZ29ESFjqJoCu1Rupje8YtGqsefD265TMg7usUDFdp6W1EGMcet8"

const testPubKey = "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"

func TestParseSyntaxErrors(t *testing.T) {
	params := &chaincfg.MainNetParams
	for _, desc := range []string{
		"",
		"pkh",
		"pkh(",
		"nonsense(00)",
		"raw(zz)",
		"addr(notanaddress)",
		"pk(deadbeef)",
		"pkh(xpub-garbage/0/*)",
	} {
		_, err := Parse(desc, params)
		require.Errorf(t, err, "descriptor %q", desc)
	}
}

func TestRawDescriptor(t *testing.T) {
	d, err := Parse("raw(76a914000000000000000000000000000000000000000088ac)",
		&chaincfg.MainNetParams)
	require.NoError(t, err)
	require.False(t, d.IsRange())

	scripts, err := d.Expand(0)
	require.NoError(t, err)
	require.Len(t, scripts, 1)
	require.Len(t, scripts[0], 25)

	// Non-ranged descriptors expand identically for any index.
	again, err := d.Expand(7)
	require.NoError(t, err)
	require.Equal(t, scripts, again)
}

func TestAddrDescriptor(t *testing.T) {
	d, err := Parse("addr(1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa)", &chaincfg.MainNetParams)
	require.NoError(t, err)
	require.False(t, d.IsRange())

	scripts, err := d.Expand(0)
	require.NoError(t, err)
	require.Len(t, scripts, 1)
	// Standard pay-to-pubkey-hash script.
	require.Equal(t, byte(0x76), scripts[0][0])
	require.Len(t, scripts[0], 25)
}

func TestFixedKeyForms(t *testing.T) {
	params := &chaincfg.MainNetParams

	pk, err := Parse("pk("+testPubKey+")", params)
	require.NoError(t, err)
	require.False(t, pk.IsRange())
	scripts, err := pk.Expand(0)
	require.NoError(t, err)
	require.Len(t, scripts, 1)
	keyBytes, _ := hex.DecodeString(testPubKey)
	// 33-byte key push plus OP_CHECKSIG.
	require.Len(t, scripts[0], len(keyBytes)+2)

	pkh, err := Parse("pkh("+testPubKey+")", params)
	require.NoError(t, err)
	scripts, err = pkh.Expand(0)
	require.NoError(t, err)
	require.Len(t, scripts[0], 25)

	combo, err := Parse("combo("+testPubKey+")", params)
	require.NoError(t, err)
	scripts, err = combo.Expand(0)
	require.NoError(t, err)
	require.Len(t, scripts, 2)
	require.NotEqual(t, scripts[0], scripts[1])
}

func TestRangedDescriptor(t *testing.T) {
	d, err := Parse("pkh("+testXPub+"/0/*)", &chaincfg.MainNetParams)
	require.NoError(t, err)
	require.True(t, d.IsRange())

	first, err := d.Expand(0)
	require.NoError(t, err)
	second, err := d.Expand(1)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	require.NotEqual(t, first[0], second[0])

	// Expansion is deterministic per index.
	firstAgain, err := d.Expand(0)
	require.NoError(t, err)
	require.Equal(t, first, firstAgain)
}

func TestFixedPathDescriptor(t *testing.T) {
	d, err := Parse("pkh("+testXPub+"/0/3)", &chaincfg.MainNetParams)
	require.NoError(t, err)
	require.False(t, d.IsRange())

	scripts, err := d.Expand(0)
	require.NoError(t, err)
	require.Len(t, scripts[0], 25)
}

func TestHardenedDerivationNeedsPrivateKey(t *testing.T) {
	_, err := Parse("pkh("+testXPub+"/0'/*)", &chaincfg.MainNetParams)
	require.ErrorIs(t, err, ErrDerivation)

	_, err = Parse("pkh("+testXPub+"/0/*h)", &chaincfg.MainNetParams)
	require.ErrorIs(t, err, ErrDerivation)
}
