// Package descriptor parses output-descriptor strings and expands them into
// concrete locking scripts. A descriptor is a function form around either a
// fixed key, an address, a raw script, or an extended-key path ending in /*
// which makes the descriptor rangeable over a derivation index.
package descriptor

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/pkg/errors"
)

// ErrDerivation reports an unrecoverable key derivation failure, as opposed
// to invalid descriptor syntax.
var ErrDerivation = errors.New("cannot derive script")

// keySource produces a serialized public key for a derivation index. Fixed
// keys ignore the index.
type keySource struct {
	fixed  []byte
	xkey   *hdkeychain.ExtendedKey
	ranged bool
}

func (ks *keySource) pubKey(index uint32) ([]byte, error) {
	if ks.xkey == nil {
		return ks.fixed, nil
	}
	child := ks.xkey
	if ks.ranged {
		derived, err := child.Derive(index)
		if err != nil {
			return nil, errors.Wrapf(ErrDerivation, "child %d: %v", index, err)
		}
		child = derived
	}
	pub, err := child.ECPubKey()
	if err != nil {
		return nil, errors.Wrapf(ErrDerivation, "child %d: %v", index, err)
	}
	return pub.SerializeCompressed(), nil
}

// Descriptor is a parsed output descriptor.
type Descriptor struct {
	raw    string
	form   string
	key    *keySource
	script []byte // raw() and addr() forms
	params *chaincfg.Params
}

// String returns the descriptor text that was parsed.
func (d *Descriptor) String() string { return d.raw }

// IsRange reports whether the descriptor expands differently per derivation
// index.
func (d *Descriptor) IsRange() bool {
	return d.key != nil && d.key.ranged
}

// Expand produces the concrete locking scripts for one derivation index.
// Non-ranged descriptors ignore the index.
func (d *Descriptor) Expand(index uint32) ([][]byte, error) {
	switch d.form {
	case "raw", "addr":
		return [][]byte{d.script}, nil
	}

	pub, err := d.key.pubKey(index)
	if err != nil {
		return nil, err
	}
	switch d.form {
	case "pk":
		script, err := p2pkScript(pub)
		if err != nil {
			return nil, err
		}
		return [][]byte{script}, nil
	case "pkh":
		script, err := p2pkhScript(pub, d.params)
		if err != nil {
			return nil, err
		}
		return [][]byte{script}, nil
	case "combo":
		pk, err := p2pkScript(pub)
		if err != nil {
			return nil, err
		}
		pkh, err := p2pkhScript(pub, d.params)
		if err != nil {
			return nil, err
		}
		return [][]byte{pk, pkh}, nil
	}
	return nil, errors.Errorf("unhandled descriptor form %q", d.form)
}

func p2pkScript(pub []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddData(pub).
		AddOp(txscript.OP_CHECKSIG).
		Script()
}

func p2pkhScript(pub []byte, params *chaincfg.Params) ([]byte, error) {
	addr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(pub), params)
	if err != nil {
		return nil, err
	}
	return txscript.PayToAddrScript(addr)
}

// Parse parses a descriptor string. Syntax errors are reported as plain
// errors; derivation problems surface later from Expand as ErrDerivation.
func Parse(desc string, params *chaincfg.Params) (*Descriptor, error) {
	open := strings.IndexByte(desc, '(')
	if open < 0 || !strings.HasSuffix(desc, ")") {
		return nil, errors.Errorf("invalid descriptor %q: expected form(...)", desc)
	}
	form := desc[:open]
	inner := desc[open+1 : len(desc)-1]

	d := &Descriptor{raw: desc, form: form, params: params}
	switch form {
	case "raw":
		script, err := hex.DecodeString(inner)
		if err != nil {
			return nil, errors.Errorf("invalid descriptor %q: malformed script hex", desc)
		}
		d.script = script
	case "addr":
		addr, err := btcutil.DecodeAddress(inner, params)
		if err != nil {
			return nil, errors.Errorf("invalid descriptor %q: %v", desc, err)
		}
		script, err := txscript.PayToAddrScript(addr)
		if err != nil {
			return nil, err
		}
		d.script = script
	case "pk", "pkh", "combo":
		key, err := parseKeyExpr(inner)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid descriptor %q", desc)
		}
		d.key = key
	default:
		return nil, errors.Errorf("invalid descriptor %q: unknown form %q", desc, form)
	}
	return d, nil
}

// parseKeyExpr parses either a hex-encoded public key or an extended public
// key optionally followed by /-separated derivation steps and a trailing /*
// marking the descriptor as ranged.
func parseKeyExpr(expr string) (*keySource, error) {
	if !strings.Contains(expr, "/") && !strings.HasPrefix(expr, "xpub") &&
		!strings.HasPrefix(expr, "tpub") {
		raw, err := hex.DecodeString(expr)
		if err != nil {
			return nil, errors.New("malformed public key hex")
		}
		if _, err := btcec.ParsePubKey(raw); err != nil {
			return nil, errors.Errorf("invalid public key: %v", err)
		}
		return &keySource{fixed: raw}, nil
	}

	parts := strings.Split(expr, "/")
	xkey, err := hdkeychain.NewKeyFromString(parts[0])
	if err != nil {
		return nil, errors.Errorf("invalid extended key: %v", err)
	}

	ranged := false
	for i, part := range parts[1:] {
		last := i == len(parts)-2
		if last && (part == "*" || part == "*'" || part == "*h") {
			if part != "*" && !xkey.IsPrivate() {
				return nil, errors.Wrap(ErrDerivation,
					"hardened derivation requires a private key")
			}
			ranged = true
			break
		}
		hardened := strings.HasSuffix(part, "'") || strings.HasSuffix(part, "h")
		if hardened {
			if !xkey.IsPrivate() {
				return nil, errors.Wrap(ErrDerivation,
					"hardened derivation requires a private key")
			}
			part = part[:len(part)-1]
		}
		step, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return nil, errors.Errorf("invalid derivation step %q", part)
		}
		index := uint32(step)
		if hardened {
			index += hdkeychain.HardenedKeyStart
		}
		xkey, err = xkey.Derive(index)
		if err != nil {
			return nil, errors.Wrapf(ErrDerivation, "step %q: %v", part, err)
		}
	}
	return &keySource{xkey: xkey, ranged: ranged}, nil
}
