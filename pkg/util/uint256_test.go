package util

import (
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/nspcc-dev/sigma-go/pkg/io"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUint256DecodeString(t *testing.T) {
	hexStr := "f037308fa0ab18155bccfc08485468c112409ea5064595699e98c545f245f32d"
	val, err := Uint256DecodeStringBE(hexStr)
	require.NoError(t, err)
	assert.Equal(t, hexStr, val.String())

	val, err = Uint256DecodeStringBE("0x" + hexStr)
	require.NoError(t, err)
	assert.Equal(t, hexStr, val.StringBE())

	_, err = Uint256DecodeStringBE(hexStr[1:])
	require.Error(t, err)

	_, err = Uint256DecodeStringBE("zz" + hexStr[2:])
	require.Error(t, err)
}

func TestUint256DecodeBytes(t *testing.T) {
	hexStr := "f037308fa0ab18155bccfc08485468c112409ea5064595699e98c545f245f32d"
	b, err := hex.DecodeString(hexStr)
	require.NoError(t, err)

	val, err := Uint256DecodeBytesBE(b)
	require.NoError(t, err)
	assert.Equal(t, b, val.BytesBE())

	_, err = Uint256DecodeBytesBE(b[1:])
	require.Error(t, err)
}

func TestUint256Compare(t *testing.T) {
	a := Uint256{1}
	b := Uint256{2}
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a))
	assert.True(t, a.Equals(Uint256{1}))
	assert.True(t, Uint256{}.IsZero())
	assert.False(t, a.IsZero())
}

func TestUint256JSON(t *testing.T) {
	u := Uint256{0xde, 0xad, 0xbe, 0xef}
	data, err := json.Marshal(u)
	require.NoError(t, err)
	require.Equal(t, `"0x`+u.String()+`"`, string(data))

	var actual Uint256
	require.NoError(t, json.Unmarshal(data, &actual))
	require.Equal(t, u, actual)

	require.Error(t, json.Unmarshal([]byte(`"0x01"`), &actual))
	require.Error(t, json.Unmarshal([]byte(`123`), &actual))
}

func TestUint256Serializable(t *testing.T) {
	u := Uint256{1, 2, 3}
	w := io.NewBufBinWriter()
	u.EncodeBinary(w.BinWriter)
	require.NoError(t, w.Err)

	var actual Uint256
	r := io.NewBinReaderFromBuf(w.Bytes())
	actual.DecodeBinary(r)
	require.NoError(t, r.Err)
	require.Equal(t, u, actual)
}
