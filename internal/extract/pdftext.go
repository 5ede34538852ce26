package extract

import (
	"bytes"
	"strings"
)

// contentStreamText pulls the literal strings shown by Tj, TJ, ' and "
// operators out of an uncompressed page content stream. Text positioning
// operators become spaces.
func contentStreamText(stream []byte) string {
	var sb strings.Builder
	for _, line := range bytes.Split(stream, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		switch {
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			for _, s := range literalStrings(line) {
				sb.WriteString(s)
			}
		case bytes.HasSuffix(line, []byte("'")), bytes.HasSuffix(line, []byte(`"`)):
			for _, s := range literalStrings(line) {
				sb.WriteByte('\n')
				sb.WriteString(s)
			}
		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")),
			bytes.HasSuffix(line, []byte("T*")), bytes.HasSuffix(line, []byte("ET")):
			sb.WriteByte(' ')
		}
	}
	return strings.TrimSpace(sb.String())
}

// literalStrings returns the decoded (...) strings on one operator line,
// honouring nested parentheses and backslash escapes.
func literalStrings(line []byte) []string {
	var out []string
	var cur []byte
	depth := 0
	for i := 0; i < len(line); i++ {
		c := line[i]
		if depth == 0 {
			if c == '(' {
				depth = 1
				cur = cur[:0]
			}
			continue
		}
		switch c {
		case '\\':
			if i+1 >= len(line) {
				continue
			}
			i++
			switch e := line[i]; e {
			case 'n':
				cur = append(cur, '\n')
			case 'r':
				cur = append(cur, '\r')
			case 't':
				cur = append(cur, '\t')
			case 'b', 'f':
			case '0', '1', '2', '3', '4', '5', '6', '7':
				v := int(e - '0')
				for k := 0; k < 2 && i+1 < len(line) && line[i+1] >= '0' && line[i+1] <= '7'; k++ {
					i++
					v = v*8 + int(line[i]-'0')
				}
				cur = append(cur, byte(v))
			default:
				cur = append(cur, e)
			}
		case '(':
			depth++
			cur = append(cur, c)
		case ')':
			depth--
			if depth == 0 {
				out = append(out, string(cur))
				continue
			}
			cur = append(cur, c)
		default:
			cur = append(cur, c)
		}
	}
	return out
}
