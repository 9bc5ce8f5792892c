package network

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const graph6Header = ">>graph6<<"

// FromGraph6 parses one graph per non-empty line in graph6 format. Graphs are
// named "<name>_<i>" and their nodes "0".."n-1".
func FromGraph6(r io.Reader, name string, opts ...Option) ([]*Network, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var networks []*Network
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), graph6Header))
		if line == "" {
			continue
		}
		b, err := decodeGraph6([]byte(line))
		if err != nil {
			return nil, &ParseError{Source: name, Line: lineNo, Text: line, Reason: err.Error()}
		}
		networks = append(networks, b.build(fmt.Sprintf("%s_%d", name, len(networks)), opts))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read graph6 %s: %w", name, err)
	}
	return networks, nil
}

// LoadGraph6 reads a graph6 file.
func LoadGraph6(path string, opts ...Option) ([]*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open graph6: %w", err)
	}
	defer f.Close()

	return FromGraph6(f, NameFromPath(path), opts...)
}

func decodeGraph6(data []byte) (*builder, error) {
	for _, c := range data {
		if c < 63 || c > 126 {
			return nil, fmt.Errorf("byte %q outside graph6 range", c)
		}
	}

	n, rest, err := graph6Order(data)
	if err != nil {
		return nil, err
	}

	pairs := n * (n - 1) / 2
	if want := (pairs + 5) / 6; len(rest) != want {
		return nil, fmt.Errorf("expected %d data bytes for %d nodes, got %d", want, n, len(rest))
	}

	b := newBuilder()
	for i := 0; i < n; i++ {
		b.addNode(strconv.Itoa(i))
	}

	// Upper triangle, column by column, six bits per byte, most significant first
	bit := 0
	for j := 1; j < n; j++ {
		for i := 0; i < j; i++ {
			v := rest[bit/6] - 63
			if v&(1<<(5-bit%6)) != 0 {
				b.addEdge(strconv.Itoa(i), strconv.Itoa(j))
			}
			bit++
		}
	}
	return b, nil
}

func graph6Order(data []byte) (int, []byte, error) {
	if len(data) == 0 {
		return 0, nil, fmt.Errorf("empty graph6 record")
	}
	if data[0] != 126 {
		return int(data[0] - 63), data[1:], nil
	}
	if len(data) >= 2 && data[1] == 126 {
		if len(data) < 8 {
			return 0, nil, fmt.Errorf("truncated graph6 size")
		}
		return graph6Bits(data[2:8]), data[8:], nil
	}
	if len(data) < 4 {
		return 0, nil, fmt.Errorf("truncated graph6 size")
	}
	return graph6Bits(data[1:4]), data[4:], nil
}

func graph6Bits(data []byte) int {
	n := 0
	for _, c := range data {
		n = n<<6 | int(c-63)
	}
	return n
}
