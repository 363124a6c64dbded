// Package trace implements the bus-trace wire codec: parsing newline-delimited
// VP trace records (C1) and the append-only layout they describe.
package trace

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// BinSize is the fixed length of a Transaction's binary frame.
const BinSize = 28

// Action distinguishes a bus read from a bus write.
type Action uint8

const (
	Read Action = iota
	Write
)

func (a Action) String() string {
	if a == Write {
		return "Write"
	}
	return "Read"
}

func parseAction(s string) (Action, bool) {
	switch s {
	case "R":
		return Read, true
	case "W":
		return Write, true
	default:
		return 0, false
	}
}

// Transaction is one observed bus operation. It is immutable once constructed;
// only ParseLine produces values, so MarshalBinary may assume every field is
// within the width the wire format allows.
type Transaction struct {
	SimTime    uint64
	Action     Action
	Initiator  string
	Target     uint8
	Address    string // hex, no 0x prefix
	DataLength uint8
	Data       string // hex, no 0x prefix
}

// ParseLine parses one semicolon-separated trace line:
//
//	action;initiator;target;address;sim_time;data_length[;data]
//
// Lines whose action field starts with "I" are reserved for layout records and
// are rejected here so the caller can fall back to layout parsing.
func ParseLine(line string) (*Transaction, error) {
	line = strings.TrimRight(line, "\r\n")
	fields := strings.Split(line, ";")
	if len(fields) < 6 {
		return nil, fmt.Errorf("trace: expected at least 6 fields, got %d", len(fields))
	}
	if strings.HasPrefix(fields[0], "I") {
		return nil, fmt.Errorf("trace: reserved layout marker %q", fields[0])
	}
	if len(fields) == 6 {
		fields = append(fields, "")
	}

	action, ok := parseAction(fields[0])
	if !ok {
		return nil, fmt.Errorf("trace: unknown action %q", fields[0])
	}

	target, err := strconv.ParseUint(fields[2], 10, 8)
	if err != nil {
		return nil, fmt.Errorf("trace: invalid target: %w", err)
	}

	simTime, err := strconv.ParseUint(fields[4], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("trace: invalid sim_time: %w", err)
	}

	dataLength, err := strconv.ParseUint(fields[5], 10, 8)
	if err != nil {
		return nil, fmt.Errorf("trace: invalid data_length: %w", err)
	}

	if _, err := parseHex(fields[3]); err != nil {
		return nil, fmt.Errorf("trace: invalid address: %w", err)
	}
	if _, err := parseHex(fields[6]); err != nil {
		return nil, fmt.Errorf("trace: invalid data: %w", err)
	}

	return &Transaction{
		SimTime:    simTime,
		Action:     action,
		Initiator:  fields[1],
		Target:     uint8(target),
		Address:    fields[3],
		DataLength: uint8(dataLength),
		Data:       fields[6],
	}, nil
}

// parseHex decodes an unprefixed hex field as a u64; an empty field (the
// default for an omitted data field) decodes as zero.
func parseHex(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseUint(s, 16, 64)
}

// MarshalBinary encodes the transaction into its fixed 28-byte little-endian
// frame. An empty Address or Data encodes as zero. ParseLine only produces
// values whose Address and Data are empty or valid 64-bit hex, so an
// Initiator that is empty, or an Address/Data that is not 64-bit hex, is a
// caller bug and this panics rather than returning an error.
func (t *Transaction) MarshalBinary() [BinSize]byte {
	if t.Initiator == "" {
		panic("trace: initiator must not be empty")
	}

	address, err := parseHex(t.Address)
	if err != nil {
		panic(fmt.Sprintf("trace: address %q exceeds 64 bits: %v", t.Address, err))
	}
	data, err := parseHex(t.Data)
	if err != nil {
		panic(fmt.Sprintf("trace: data %q exceeds 64 bits: %v", t.Data, err))
	}

	var buf [BinSize]byte
	binary.LittleEndian.PutUint64(buf[0:8], t.SimTime)
	buf[8] = byte(t.Action)
	buf[9] = t.Initiator[len(t.Initiator)-1]
	buf[10] = t.Target
	binary.LittleEndian.PutUint64(buf[11:19], address)
	buf[19] = t.DataLength
	binary.LittleEndian.PutUint64(buf[20:28], data)
	return buf
}
