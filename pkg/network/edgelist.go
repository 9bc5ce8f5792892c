package network

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const maxLineBytes = 1 << 20

type edgelistConfig struct {
	delimiter string
	comment   string
	options   []Option
}

// EdgelistOption configures edge-list parsing.
type EdgelistOption func(*edgelistConfig)

// WithDelimiter splits lines on delim instead of runs of whitespace.
func WithDelimiter(delim string) EdgelistOption {
	return func(c *edgelistConfig) {
		c.delimiter = delim
	}
}

// WithComment sets the comment marker; text after it is ignored. Empty
// disables comment handling.
func WithComment(marker string) EdgelistOption {
	return func(c *edgelistConfig) {
		c.comment = marker
	}
}

// WithNetworkOptions forwards options to the constructed Network.
func WithNetworkOptions(opts ...Option) EdgelistOption {
	return func(c *edgelistConfig) {
		c.options = append(c.options, opts...)
	}
}

// FromEdgelist parses one edge per line: two endpoint tokens, optionally
// followed by data that is ignored. Blank and comment-only lines are
// skipped. A line that does not yield two endpoints fails with a
// *ParseError wrapping ErrMalformedInput.
func FromEdgelist(r io.Reader, name string, opts ...EdgelistOption) (*Network, error) {
	cfg := edgelistConfig{comment: "#"}
	for _, opt := range opts {
		opt(&cfg)
	}

	b := newBuilder()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if cfg.comment != "" {
			if i := strings.Index(line, cfg.comment); i >= 0 {
				line = line[:i]
			}
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		u, v, ok := splitEndpoints(line, cfg.delimiter)
		if !ok {
			return nil, &ParseError{Source: name, Line: lineNo, Text: line, Reason: "expected two endpoints"}
		}
		b.addEdge(u, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read edge list %s: %w", name, err)
	}

	return b.build(name, cfg.options), nil
}

func splitEndpoints(line, delim string) (string, string, bool) {
	var tokens []string
	if delim == "" {
		tokens = strings.Fields(line)
	} else {
		tokens = strings.Split(line, delim)
	}
	if len(tokens) < 2 {
		return "", "", false
	}
	u := strings.TrimSpace(tokens[0])
	v := strings.TrimSpace(tokens[1])
	if u == "" || v == "" {
		return "", "", false
	}
	return u, v, true
}

// LoadEdgelist reads an edge-list file. The network is named after the file,
// without directory or extension.
func LoadEdgelist(path string, opts ...EdgelistOption) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open edge list: %w", err)
	}
	defer f.Close()

	return FromEdgelist(f, NameFromPath(path), opts...)
}

// NameFromPath derives a network name from a file path: "data/ieee39.txt"
// becomes "ieee39".
func NameFromPath(path string) string {
	base := filepath.Base(filepath.Clean(path))
	if i := strings.Index(base, "."); i > 0 {
		return base[:i]
	}
	return base
}
