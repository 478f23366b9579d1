package payload

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/degree-registry/internal/types"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	for i := 0; i < 100; i++ {
		id := uuid.NewString()
		got, err := Decode(Encode(id))
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
}

func TestEncode_Deterministic(t *testing.T) {
	id := uuid.NewString()
	assert.Equal(t, Encode(id), Encode(id))
	assert.NotEqual(t, Encode(id), Encode(uuid.NewString()))
}

func TestEncode_Format(t *testing.T) {
	id := "3f2b8c1e-0000-4000-8000-000000000001"
	p := Encode(id)

	require.True(t, strings.HasPrefix(p, id+"."))
	assert.Len(t, strings.TrimPrefix(p, id+"."), checksumLen)
	assert.True(t, IsPayload(p))
	assert.False(t, IsPayload(id))
}

func TestDecode_Malformed(t *testing.T) {
	id := uuid.NewString()
	good := Encode(id)
	sum := good[len(good)-checksumLen:]

	flipped := []byte(sum)
	if flipped[0] == '0' {
		flipped[0] = '1'
	} else {
		flipped[0] = '0'
	}

	tests := []struct {
		name  string
		input string
	}{
		{"no separator", id},
		{"empty id", "." + sum},
		{"short checksum", id + ".abc"},
		{"flipped checksum", id + "." + string(flipped)},
		{"tampered id", "x" + good},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrMalformed)
			assert.NotErrorIs(t, err, types.ErrNotFound)
		})
	}
}

func TestDecode_TrimsWhitespace(t *testing.T) {
	id := uuid.NewString()
	got, err := Decode("  " + Encode(id) + "\n")
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestQRCode_PNG(t *testing.T) {
	png, err := QRCode(Encode(uuid.NewString()), 128)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}
