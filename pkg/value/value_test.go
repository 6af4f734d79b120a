package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmny-dyro/anfvm/pkg/langtype"
	"github.com/hmny-dyro/anfvm/pkg/value"
)

func TestBytesRoundtripInt(t *testing.T) {
	original := value.Int{Value: -1234}
	encoded, err := value.Bytes(original)
	require.NoError(t, err)
	assert.Len(t, encoded, 4)

	decoded, err := value.FromBytes(encoded, langtype.NewInt())
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestBytesRoundtripBool(t *testing.T) {
	for _, b := range []bool{true, false} {
		encoded, err := value.Bytes(value.Bool{Value: b})
		require.NoError(t, err)
		decoded, err := value.FromBytes(encoded, langtype.NewBool())
		require.NoError(t, err)
		assert.Equal(t, value.Bool{Value: b}, decoded)
	}
}

func TestBytesRoundtripTuple(t *testing.T) {
	tupleType := langtype.NewTuple(langtype.NewInt(), langtype.NewBool())
	original := value.Tuple{Elements: []value.Value{value.Int{Value: 7}, value.Bool{Value: true}}}

	encoded, err := value.Bytes(original)
	require.NoError(t, err)
	assert.Len(t, encoded, tupleType.Size())

	decoded, err := value.FromBytes(encoded, tupleType)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestBytesRoundtripMutPtr(t *testing.T) {
	original := value.MutPtr{Location: value.HeapLoc(16), Pointee: langtype.NewInt(), SizeBytes: 4}
	encoded, err := value.Bytes(original)
	require.NoError(t, err)
	assert.Len(t, encoded, 9)

	decoded, err := value.FromBytes(encoded, langtype.NewMutPtr(langtype.NewInt()))
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestBytesRejectsUnencodableTypes(t *testing.T) {
	_, err := value.Bytes(value.String{Value: "nope"})
	assert.Error(t, err)

	_, err = value.Bytes(value.PrimRef{Name: "print"})
	assert.Error(t, err)
}

func TestFromBytesRejectsWrongLength(t *testing.T) {
	_, err := value.FromBytes([]byte{1, 2, 3}, langtype.NewInt())
	assert.Error(t, err)
}
