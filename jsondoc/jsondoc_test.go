package jsondoc

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/require"
)

func TestNumberValidation(t *testing.T) {
	valid := []string{"0", "-1", "12.5", "0.00000001", "1e8", "2.5E-3", "-0.5"}
	for _, text := range valid {
		v, err := NewNumber(text)
		require.NoErrorf(t, err, "text %q", text)
		got, err := v.NumText()
		require.NoError(t, err)
		require.Equal(t, text, got)
	}

	invalid := []string{"", "-", "01", ".5", "1.", "1e", "1e+", "+1", "1.2.3", "abc"}
	for _, text := range invalid {
		_, err := NewNumber(text)
		require.Errorf(t, err, "text %q", text)
	}
}

func TestAmountRendering(t *testing.T) {
	tests := []struct {
		amt  btcutil.Amount
		want string
	}{
		{0, "0.00000000"},
		{1, "0.00000001"},
		{7500, "0.00007500"},
		{btcutil.SatoshiPerBitcoin, "1.00000000"},
		{-150000000, "-1.50000000"},
		{2100000000000000, "21000000.00000000"},
	}
	for _, test := range tests {
		got, err := NewAmount(test.amt).NumText()
		require.NoError(t, err)
		require.Equal(t, test.want, got)
	}
}

func TestObjectOrderAndLookup(t *testing.T) {
	obj := NewObject()
	obj.PushKV("height", NewInt(100))
	obj.PushKV("hash", NewString("00ff"))
	obj.PushKV("active", NewBool(true))

	require.Equal(t, []string{"height", "hash", "active"}, obj.Keys())

	marshaled, err := obj.MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, `{"height":100,"hash":"00ff","active":true}`, string(marshaled))

	// Non-throwing and strict lookups agree for a present key.
	loose := obj.Key("hash")
	strict, err := obj.StrictKey("hash")
	require.NoError(t, err)
	require.True(t, loose.Equal(strict))

	// A missing key yields the null sentinel from one family and an error
	// naming the key from the other.
	require.True(t, obj.Key("missing").IsNull())
	_, err = obj.StrictKey("missing")
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing")
}

func TestStrictAccessorMismatch(t *testing.T) {
	v := NewString("not a number")
	_, err := v.Int()
	require.Error(t, err)
	require.Contains(t, err.Error(), "string")

	_, err = v.Bool()
	require.Error(t, err)

	_, err = NewInt(3).Str()
	require.Error(t, err)

	_, err = NewArray().StrictKey("k")
	require.Error(t, err)
}

func TestArrayAccess(t *testing.T) {
	arr := NewArray()
	arr.Append(NewInt(1))
	arr.Append(NewInt(2))

	require.Equal(t, 2, arr.Len())
	require.True(t, arr.At(5).IsNull())
	require.True(t, arr.At(-1).IsNull())

	one, err := arr.At(0).Int()
	require.NoError(t, err)
	require.Equal(t, int64(1), one)
}

func TestEquality(t *testing.T) {
	a := NewObject()
	a.PushKV("n", NewInt(1))
	inner := NewArray()
	inner.Append(NewNull())
	inner.Append(NewBool(false))
	a.PushKV("arr", inner)

	b := NewObject()
	b.PushKV("n", NewInt(1))
	innerB := NewArray()
	innerB.Append(NewNull())
	innerB.Append(NewBool(false))
	b.PushKV("arr", innerB)

	require.True(t, a.Equal(b))

	// Entry order is part of object identity.
	c := NewObject()
	c.PushKV("arr", innerB)
	c.PushKV("n", NewInt(1))
	require.False(t, a.Equal(c))

	// Numbers compare by textual form.
	n1, err := NewNumber("1.0")
	require.NoError(t, err)
	require.False(t, n1.Equal(NewInt(1)))

	require.True(t, NewNull().Equal(NewNull()))
	require.False(t, NewNull().Equal(NewBool(false)))
}

func TestIntRejectsFraction(t *testing.T) {
	v, err := NewNumber("0.5")
	require.NoError(t, err)
	_, err = v.Int()
	require.Error(t, err)
}
