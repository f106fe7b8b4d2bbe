package provider

import (
	"bufio"
	"io"
	"strings"
)

const maxSSELineSize = 1024 * 1024

// sseEvent is one server-sent event
type sseEvent struct {
	Type string
	Data string
}

// sseReader parses server-sent events. Only the event and data fields are
// kept; comments and other fields are skipped.
type sseReader struct {
	scanner *bufio.Scanner
}

func newSSEReader(r io.Reader) *sseReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxSSELineSize)
	return &sseReader{scanner: s}
}

// Next returns the next event, or io.EOF once the stream ends
func (r *sseReader) Next() (*sseEvent, error) {
	var ev sseEvent
	var data []string
	seen := false

	for r.scanner.Scan() {
		line := r.scanner.Text()
		if line == "" {
			if seen {
				ev.Data = strings.Join(data, "\n")
				return &ev, nil
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			ev.Type = value
			seen = true
		case "data":
			data = append(data, value)
			seen = true
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	if seen {
		ev.Data = strings.Join(data, "\n")
		return &ev, nil
	}
	return nil, io.EOF
}
