package julsdk

import (
	"bufio"
	"io"
	"strings"
)

// sseFrame is one Server-Sent Events frame.
type sseFrame struct {
	ID    string
	Event string
	Data  string
}

// sseScanner splits an event stream into frames. Frames are delimited by
// blank lines, multiple data lines are joined with "\n", and comment lines
// (":" prefix, used for keepalives) and unknown fields are dropped.
type sseScanner struct {
	reader  *bufio.Reader
	current sseFrame
	err     error
}

func newSSEScanner(r io.Reader) *sseScanner {
	return &sseScanner{reader: bufio.NewReaderSize(r, 64*1024)}
}

// Next advances to the next frame that carries data. It returns false on
// EOF or a read error; Err tells them apart.
func (s *sseScanner) Next() bool {
	if s.err != nil {
		return false
	}
	s.current = sseFrame{}

	var (
		dataLines []string
		hasData   bool
		id, event string
	)
	emit := func() {
		s.current = sseFrame{ID: id, Event: event, Data: strings.Join(dataLines, "\n")}
	}

	for {
		line, err := s.reader.ReadString('\n')
		if err != nil && line == "" {
			s.err = err
			if err == io.EOF && hasData {
				emit()
				return true
			}
			return false
		}
		line = strings.TrimRight(line, "\r\n")

		if line == "" {
			if hasData {
				emit()
				return true
			}
			id, event = "", ""
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, ok := strings.Cut(line, ":")
		if !ok {
			field, value = line, ""
		} else {
			value = strings.TrimPrefix(value, " ")
		}
		switch field {
		case "data":
			dataLines = append(dataLines, value)
			hasData = true
		case "event":
			event = value
		case "id":
			id = value
		}
	}
}

func (s *sseScanner) Frame() sseFrame {
	return s.current
}

// Err returns the error that stopped the scanner, or nil on a clean EOF.
func (s *sseScanner) Err() error {
	if s.err == io.EOF {
		return nil
	}
	return s.err
}
