package vtodo

import (
	"strings"
	"unicode/utf8"
)

// maxLineOctets is the folding limit for content lines, excluding CRLF.
const maxLineOctets = 75

// logicalLine is one unfolded content line together with the physical lines
// it was read from, so unknown content can be written back verbatim.
type logicalLine struct {
	text string
	raw  []string
}

// splitLines splits a record into physical lines. Both CRLF and bare LF are
// accepted; a trailing line terminator does not produce an empty line.
func splitLines(record string) []string {
	record = strings.ReplaceAll(record, "\r\n", "\n")
	record = strings.TrimSuffix(record, "\n")
	if record == "" {
		return nil
	}
	return strings.Split(record, "\n")
}

// unfold joins continuation lines (lines starting with a space or a tab) onto
// the line before them.
func unfold(physical []string) []logicalLine {
	out := make([]logicalLine, 0, len(physical))
	for _, line := range physical {
		if len(out) > 0 && line != "" && (line[0] == ' ' || line[0] == '\t') {
			last := &out[len(out)-1]
			last.text += line[1:]
			last.raw = append(last.raw, line)
			continue
		}
		out = append(out, logicalLine{text: line, raw: []string{line}})
	}
	return out
}

// parseContentLine splits "NAME;PARAM=x:value" into its upper-cased name, the
// raw parameter section (including the leading ';', possibly empty) and the
// value. Colons inside quoted parameter values do not end the parameters.
func parseContentLine(line string) (name, params, value string, ok bool) {
	nameEnd := strings.IndexAny(line, ";:")
	if nameEnd <= 0 {
		return "", "", "", false
	}
	name = strings.ToUpper(strings.TrimSpace(line[:nameEnd]))

	inQuotes := false
	for i := nameEnd; i < len(line); i++ {
		switch line[i] {
		case '"':
			inQuotes = !inQuotes
		case ':':
			if !inQuotes {
				return name, line[nameEnd:i], line[i+1:], true
			}
		}
	}
	return "", "", "", false
}

// fold breaks a content line into physical lines of at most maxLineOctets
// octets without splitting a UTF-8 sequence.
func fold(line string) []string {
	if len(line) <= maxLineOctets {
		return []string{line}
	}
	var out []string
	for len(line) > maxLineOctets {
		cut := maxLineOctets
		for cut > 1 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		out = append(out, line[:cut])
		// the leading space of a continuation counts towards its length
		line = " " + line[cut:]
	}
	return append(out, line)
}

var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	";", `\;`,
	",", `\,`,
	"\r\n", `\n`,
	"\n", `\n`,
)

// escapeText escapes a TEXT property value.
func escapeText(s string) string {
	return textEscaper.Replace(s)
}

var listEscaper = strings.NewReplacer(
	`\`, `\\`,
	";", `\;`,
	"\r\n", `\n`,
	"\n", `\n`,
)

// escapeList escapes a comma-separated TEXT list, keeping the separators.
func escapeList(s string) string {
	return listEscaper.Replace(s)
}

// unescapeText reverses escapeText and escapeList.
func unescapeText(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n', 'N':
			b.WriteByte('\n')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
