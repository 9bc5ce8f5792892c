package checkpoint

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/dd0wney/cluso-contingency/pkg/network"
)

// encodePayload serialises a snapshot body.
// Format: [numEdges:4][order:2][count:4] then per entry [idx:4]*order [delta:8]
func encodePayload(s *Snapshot) ([]byte, error) {
	if len(s.Contingencies) != len(s.Deltas) {
		return nil, fmt.Errorf("snapshot has %d contingencies but %d deltas", len(s.Contingencies), len(s.Deltas))
	}
	if s.Key.Order < 0 || s.Key.Order > math.MaxUint16 {
		return nil, fmt.Errorf("order %d out of range", s.Key.Order)
	}

	var buf bytes.Buffer
	buf.Grow(10 + len(s.Deltas)*(8+4*s.Key.Order))

	binary.Write(&buf, binary.BigEndian, uint32(s.NumEdges))
	binary.Write(&buf, binary.BigEndian, uint16(s.Key.Order))
	binary.Write(&buf, binary.BigEndian, uint32(len(s.Deltas)))

	for i, c := range s.Contingencies {
		if len(c) != s.Key.Order {
			return nil, fmt.Errorf("contingency %v has order %d, want %d", c, len(c), s.Key.Order)
		}
		for _, idx := range c {
			binary.Write(&buf, binary.BigEndian, uint32(idx))
		}
		binary.Write(&buf, binary.BigEndian, math.Float64bits(s.Deltas[i]))
	}
	return buf.Bytes(), nil
}

// decodePayload is the inverse of encodePayload.
func decodePayload(data []byte, s *Snapshot) error {
	r := bytes.NewReader(data)

	var numEdges, count uint32
	var order uint16
	if err := binary.Read(r, binary.BigEndian, &numEdges); err != nil {
		return fmt.Errorf("read edge count: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &order); err != nil {
		return fmt.Errorf("read order: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return fmt.Errorf("read entry count: %w", err)
	}

	entrySize := int64(order)*4 + 8
	if int64(count)*entrySize != int64(r.Len()) {
		return fmt.Errorf("payload holds %d bytes, want %d entries of %d", r.Len(), count, entrySize)
	}

	s.NumEdges = int(numEdges)
	s.Contingencies = make([]network.Contingency, count)
	s.Deltas = make([]float64, count)
	for i := range s.Contingencies {
		c := make(network.Contingency, order)
		for j := range c {
			var idx uint32
			binary.Read(r, binary.BigEndian, &idx)
			c[j] = int(idx)
		}
		var bits uint64
		binary.Read(r, binary.BigEndian, &bits)
		s.Contingencies[i] = c
		s.Deltas[i] = math.Float64frombits(bits)
	}
	if int(order) != s.Key.Order {
		return fmt.Errorf("payload order %d, key order %d", order, s.Key.Order)
	}
	return nil
}
