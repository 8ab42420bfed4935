package logstream

import (
	"bytes"
	"unicode/utf8"

	"github.com/logship/logshipd/internal/token"
)

// decodeAndSend transforms the byte slice b into unicode, accumulating into
// partial and calling sink.Emit at each newline. Adapted from the teacher's
// driver/log/tailer/logstream/decode.go.
func decodeAndSend(sink Sink, path, identity string, generation int64, offsetBase int64, n int, b []byte, partial *bytes.Buffer) int64 {
	var (
		r     rune
		width int
	)
	consumed := int64(0)
	for i := 0; i < len(b) && i < n; i += width {
		r, width = utf8.DecodeRune(b[i:])
		consumed += int64(width)
		switch {
		case r == '\r':
			// Lines end with \n; every \r is dropped, so \r\n line endings
			// frame the same way as \n.
		case r == '\n':
			sendLine(sink, path, identity, generation, offsetBase+consumed, partial)
		default:
			if r == utf8.RuneError && width == 1 {
				// Malformed UTF-8: keep the raw byte so callers that are not
				// in JSON mode still see it. In JSON mode the line goes to the
				// JSON parser unchanged; encoding/json replaces invalid bytes
				// inside strings with U+FFFD rather than rejecting the line.
				partial.WriteByte(b[i])
				continue
			}
			partial.WriteRune(r)
		}
	}
	return consumed
}

func sendLine(sink Sink, path, identity string, generation int64, offset int64, partial *bytes.Buffer) {
	logLines.Add(identity, 1)
	sink.Emit(partial.String(), token.File{Path: path, Identity: identity, Offset: offset, Generation: generation})
	partial.Reset()
}
