package trace

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine_Transaction(t *testing.T) {
	tx, err := ParseLine("R;cpu0;2;1000;42;4;deadbeef\n")
	require.NoError(t, err)
	assert.Equal(t, Read, tx.Action)
	assert.Equal(t, "cpu0", tx.Initiator)
	assert.EqualValues(t, 2, tx.Target)
	assert.Equal(t, "1000", tx.Address)
	assert.EqualValues(t, 42, tx.SimTime)
	assert.EqualValues(t, 4, tx.DataLength)
	assert.Equal(t, "deadbeef", tx.Data)
}

func TestParseLine_DataOptional(t *testing.T) {
	tx, err := ParseLine("W;cpu1;0;ff;7;0")
	require.NoError(t, err)
	assert.Equal(t, Write, tx.Action)
	assert.Equal(t, "", tx.Data)
}

func TestParseLine_RejectsLayoutMarker(t *testing.T) {
	_, err := ParseLine("I;debug;foo;bar")
	assert.Error(t, err)
}

func TestParseLine_RejectsShortLine(t *testing.T) {
	_, err := ParseLine("R;cpu0;2;1000;42")
	assert.Error(t, err)
}

func TestParseLine_RejectsUnknownAction(t *testing.T) {
	_, err := ParseLine("X;cpu0;2;1000;42;4;ab")
	assert.Error(t, err)
}

// TestMarshalBinary_RoundTrip is property P1: parse then encode produces a
// 28-byte frame with the documented field layout, last initiator byte at
// offset 9.
func TestMarshalBinary_RoundTrip(t *testing.T) {
	tx, err := ParseLine("W;initiatorX;5;1a2b3c;123456;8;cafebabe")
	require.NoError(t, err)

	buf := tx.MarshalBinary()
	require.Len(t, buf, BinSize)

	assert.Equal(t, tx.SimTime, binary.LittleEndian.Uint64(buf[0:8]))
	assert.Equal(t, byte(Write), buf[8])
	assert.Equal(t, byte('X'), buf[9])
	assert.EqualValues(t, 5, buf[10])
	assert.Equal(t, uint64(0x1a2b3c), binary.LittleEndian.Uint64(buf[11:19]))
	assert.EqualValues(t, 8, buf[19])
	assert.Equal(t, uint64(0xcafebabe), binary.LittleEndian.Uint64(buf[20:28]))
}

func TestMarshalBinary_PanicsOnEmptyInitiator(t *testing.T) {
	tx := &Transaction{Initiator: "", Address: "0", Data: "0"}
	assert.Panics(t, func() { tx.MarshalBinary() })
}

func TestMarshalBinary_PanicsOnOversizeAddress(t *testing.T) {
	tx := &Transaction{Initiator: "a", Address: "ffffffffffffffffff", Data: "0"}
	assert.Panics(t, func() { tx.MarshalBinary() })
}
