package markdown

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// IncompleteLinkURL is the placeholder href given to a link whose target
// has not finished streaming. Renderers use it to show the link text
// without making it clickable.
const IncompleteLinkURL = "streamdown:incomplete-link"

// ParseIncompleteMarkdown closes trailing markdown delimiters that were
// left open by stream truncation. It is purely additive: complete input
// passes through unchanged, and ambiguous input is left alone rather
// than mis-completed. The only non-append transform is dropping a
// trailing incomplete image, which has no useful partial rendering.
func ParseIncompleteMarkdown(text string) string {
	if text == "" {
		return text
	}

	result, sentinel := repairIncompleteLinks(text)
	if sentinel {
		// The placeholder link was just synthesized; emphasis completion
		// must not touch it.
		return result
	}

	result = completeTripleAsterisk(result)
	result = completeDoubleMarker(result, "**")
	result = completeDoubleMarker(result, "__")
	result = completeSingleAsterisk(result)
	result = completeSingleUnderscore(result)
	result = completeInlineCode(result)
	result = completeStrikethrough(result)
	return result
}

// repairIncompleteLinks handles a trailing unterminated link or image.
// The second return value reports that the sentinel URL was appended,
// which short-circuits all later completion passes.
func repairIncompleteLinks(text string) (string, bool) {
	mask := codeMask(text)

	// An unterminated "](url" tail: the last "](" with no closing paren
	// anywhere after it.
	if idx := strings.LastIndex(text, "]("); idx >= 0 && !strings.ContainsRune(text[idx:], ')') && !mask[idx] {
		if open := matchingOpenBracket(text, idx); open >= 0 {
			if open > 0 && text[open-1] == '!' {
				// Images cannot render a partial state; drop it.
				return text[:open-1], false
			}
			return text[:idx+2] + IncompleteLinkURL + ")", true
		}
	}

	// An open "[" (or "![") whose link text never closed.
	if open := lastUnmatchedBracket(text, mask); open >= 0 {
		if open > 0 && text[open-1] == '!' {
			return text[:open-1], false
		}
		return text + "](" + IncompleteLinkURL + ")", true
	}

	return text, false
}

// matchingOpenBracket scans backwards from the "]" at close, balancing
// nested brackets, and returns the index of the matching "[" or -1.
func matchingOpenBracket(text string, close int) int {
	depth := 1
	for i := close - 1; i >= 0; i-- {
		switch text[i] {
		case ']':
			depth++
		case '[':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// lastUnmatchedBracket returns the innermost still-open "[" outside
// code regions, or -1 when every bracket is balanced.
func lastUnmatchedBracket(text string, mask []bool) int {
	var stack []int
	for i := 0; i < len(text); i++ {
		if mask[i] {
			continue
		}
		switch text[i] {
		case '[':
			stack = append(stack, i)
		case ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	if len(stack) == 0 {
		return -1
	}
	return stack[len(stack)-1]
}

func completeTripleAsterisk(text string) string {
	mask := codeMask(text)
	count, last := countMarker(text, "***", mask)
	if count%2 == 0 {
		return text
	}
	if !hasContentAfter(text, last+3) {
		return text
	}
	// A bare run of four or more asterisks is a thematic break or noise,
	// not an opening marker.
	trimmed := strings.TrimSpace(text)
	if len(trimmed) >= 4 && strings.Count(trimmed, "*") == len(trimmed) {
		return text
	}
	return text + "***"
}

// completeDoubleMarker closes an odd "**" or "__" marker.
func completeDoubleMarker(text, marker string) string {
	mask := codeMask(text)
	count, last := countMarker(text, marker, mask)
	if count%2 == 0 {
		return text
	}
	after := text[last+len(marker):]
	if !hasContentAfter(text, last+len(marker)) {
		return text
	}
	// "- **" alone on a list-item line followed by more lines is
	// ambiguous: the author may still be inside the bold run, or may have
	// abandoned it. Leave it open.
	if opensEmptyListItem(text, last, marker) && strings.Contains(after, "\n") {
		if nl := strings.IndexByte(after, '\n'); nl >= 0 && strings.TrimSpace(after[:nl]) == "" {
			return text
		}
	}
	return text + marker
}

// opensEmptyListItem reports whether the marker at idx is preceded on
// its line only by a list marker, e.g. "- **".
func opensEmptyListItem(text string, idx int, marker string) bool {
	lineStart := strings.LastIndexByte(text[:idx], '\n') + 1
	line := strings.TrimSpace(text[lineStart:idx])
	switch line {
	case "-", "*", "+":
		return true
	}
	// Ordered list markers: digits followed by "." or ")".
	if len(line) >= 2 && (line[len(line)-1] == '.' || line[len(line)-1] == ')') {
		digits := line[:len(line)-1]
		for i := 0; i < len(digits); i++ {
			if digits[i] < '0' || digits[i] > '9' {
				return false
			}
		}
		return len(digits) > 0
	}
	return false
}

func completeSingleAsterisk(text string) string {
	mask := codeMask(text)
	count := 0
	last := -1
	for i := 0; i < len(text); i++ {
		if text[i] != '*' || mask[i] {
			continue
		}
		runStart := i
		for i+1 < len(text) && text[i+1] == '*' {
			i++
		}
		if i != runStart {
			continue // part of ** or ***
		}
		if isWordInternal(text, runStart, runStart+1) {
			continue
		}
		if isListMarkerAsterisk(text, runStart) {
			continue
		}
		count++
		last = runStart
	}
	if count%2 == 0 || last < 0 {
		return text
	}
	if !hasContentAfter(text, last+1) {
		return text
	}
	return text + "*"
}

func completeSingleUnderscore(text string) string {
	code := codeMask(text)
	math := mathMask(text)
	count := 0
	last := -1
	for i := 0; i < len(text); i++ {
		if text[i] != '_' || code[i] || math[i] {
			continue
		}
		runStart := i
		for i+1 < len(text) && text[i+1] == '_' {
			i++
		}
		if i != runStart {
			continue // part of __
		}
		if isWordInternal(text, runStart, runStart+1) {
			continue
		}
		count++
		last = runStart
	}
	if count%2 == 0 || last < 0 {
		return text
	}
	if !hasContentAfter(text, last+1) {
		return text
	}
	// Close before trailing newlines so the emphasis stays on its line.
	end := len(text)
	for end > 0 && text[end-1] == '\n' {
		end--
	}
	return text[:end] + "_" + text[end:]
}

func completeInlineCode(text string) string {
	// Same-line ```code`` span: the closing run is two backticks short of
	// done; finish it.
	if first := strings.Index(text, "```"); first >= 0 && !strings.Contains(text[first:], "\n") {
		if strings.HasSuffix(text, "``") && !strings.HasSuffix(text, "```") {
			return text + "`"
		}
	}

	triples := strings.Count(text, "```")
	if triples%2 == 1 {
		// Inside an open fenced block; the fence closes itself when the
		// stream does, and single backticks inside it mean nothing.
		return text
	}
	if triples > 0 {
		if first := strings.Index(text, "```"); strings.Contains(text[first:], "\n") {
			// Complete fenced blocks; leave them alone.
			return text
		}
	}

	// Count lone backticks (runs of exactly one).
	count := 0
	last := -1
	for i := 0; i < len(text); i++ {
		if text[i] != '`' {
			continue
		}
		runStart := i
		for i+1 < len(text) && text[i+1] == '`' {
			i++
		}
		if i != runStart {
			continue
		}
		count++
		last = runStart
	}
	if count%2 == 0 || last < 0 {
		return text
	}
	if !hasContentAfter(text, last+1) {
		return text
	}
	return text + "`"
}

func completeStrikethrough(text string) string {
	mask := codeMask(text)
	count, last := countMarker(text, "~~", mask)
	if count%2 == 0 {
		return text
	}
	if !hasContentAfter(text, last+2) {
		return text
	}
	return text + "~~"
}

// countMarker counts non-overlapping occurrences of marker outside code
// regions and returns the count and the index of the last occurrence.
func countMarker(text, marker string, mask []bool) (int, int) {
	count := 0
	last := -1
	for i := 0; i < len(text); {
		idx := strings.Index(text[i:], marker)
		if idx < 0 {
			break
		}
		pos := i + idx
		if !mask[pos] {
			count++
			last = pos
		}
		i = pos + len(marker)
	}
	return count, last
}

// hasContentAfter reports whether anything after pos is more than
// whitespace and stray marker characters. Markers with nothing real
// after them must stay open: the author has not finished the run.
func hasContentAfter(text string, pos int) bool {
	if pos >= len(text) {
		return false
	}
	for _, r := range text[pos:] {
		if unicode.IsSpace(r) {
			continue
		}
		switch r {
		case '*', '_', '~', '`':
			continue
		}
		return true
	}
	return false
}

// isWordInternal reports whether the span [start,end) is flanked by word
// characters on both sides, e.g. the underscore in snake_case. ASCII is
// checked directly; anything else falls back to the unicode tables so
// CJK and other letters count as word characters too.
func isWordInternal(text string, start, end int) bool {
	if start == 0 || end >= len(text) {
		return false
	}
	prev, _ := utf8.DecodeLastRuneInString(text[:start])
	next, _ := utf8.DecodeRuneInString(text[end:])
	return isWordChar(prev) && isWordChar(next)
}

func isWordChar(r rune) bool {
	if r < utf8.RuneSelf {
		return r == '_' ||
			('0' <= r && r <= '9') ||
			('a' <= r && r <= 'z') ||
			('A' <= r && r <= 'Z')
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// isListMarkerAsterisk reports whether the asterisk at idx is a bullet
// marker: first non-space character on its line, followed by a space or
// the end of input.
func isListMarkerAsterisk(text string, idx int) bool {
	for i := idx - 1; i >= 0; i-- {
		switch text[i] {
		case ' ', '\t':
			continue
		case '\n':
			i = -1
		default:
			return false
		}
		break
	}
	if idx+1 >= len(text) {
		return true
	}
	return text[idx+1] == ' ' || text[idx+1] == '\t'
}

// codeMask marks every byte inside a fenced code block or an inline
// code span, so delimiter counting can skip code verbatim content.
func codeMask(text string) []bool {
	mask := make([]bool, len(text))
	inFence := false
	inSpan := false
	lineStart := true
	i := 0
	for i < len(text) {
		if lineStart && !inSpan {
			j := i
			for j < len(text) && (text[j] == ' ' || text[j] == '\t') {
				j++
			}
			if strings.HasPrefix(text[j:], "```") {
				stop := len(text)
				if nl := strings.IndexByte(text[i:], '\n'); nl >= 0 {
					stop = i + nl + 1
				}
				for k := i; k < stop; k++ {
					mask[k] = true
				}
				inFence = !inFence
				i = stop
				lineStart = true
				continue
			}
		}
		c := text[i]
		if inFence {
			mask[i] = true
			lineStart = c == '\n'
			i++
			continue
		}
		if c == '`' {
			for i < len(text) && text[i] == '`' {
				mask[i] = true
				i++
			}
			inSpan = !inSpan
			lineStart = false
			continue
		}
		if inSpan {
			mask[i] = true
		}
		lineStart = c == '\n'
		i++
	}
	return mask
}

// mathMask marks bytes inside $...$ or $$...$$ spans. Dollar parity is
// tracked directly; backslash-escaped dollars do not toggle.
func mathMask(text string) []bool {
	mask := make([]bool, len(text))
	inMath := false
	i := 0
	for i < len(text) {
		c := text[i]
		if c == '\\' && i+1 < len(text) && text[i+1] == '$' {
			i += 2
			continue
		}
		if c == '$' {
			if i+1 < len(text) && text[i+1] == '$' {
				mask[i], mask[i+1] = true, true
				inMath = !inMath
				i += 2
				continue
			}
			mask[i] = true
			inMath = !inMath
			i++
			continue
		}
		if inMath {
			mask[i] = true
		}
		i++
	}
	return mask
}
