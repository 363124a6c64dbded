package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	data, err := Encode(Status, "true")
	require.NoError(t, err)

	g, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, Status, g.Command)
	assert.Equal(t, "true", g.Value)
}

func TestDecodeStart(t *testing.T) {
	s, err := DecodeStart(`{"vp":"vp64","proj":"p1","args":"--debug-bus-mode","gdb_arch":""}`)
	require.NoError(t, err)
	assert.Equal(t, "vp64", s.VP)
	assert.Equal(t, "p1", s.Proj)
	assert.Equal(t, "--debug-bus-mode", s.Args)
}

func TestDecodeMalformed(t *testing.T) {
	_, err := Decode([]byte("not json"))
	assert.Error(t, err)
}
