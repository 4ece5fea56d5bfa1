package markdown

import (
	"strings"

	"golang.org/x/net/html"
)

// Split divides markdown into independently renderable blocks. Blocks
// are grouped, never rewritten: concatenating the result reproduces the
// input exactly. Content containing footnotes is returned as a single
// block so cross-references stay within one parse unit, and blocks held
// open by an unclosed HTML tag or an unclosed $$ math fence are merged
// into the block that opened them.
func Split(markdown string) []string {
	if markdown == "" {
		return nil
	}
	if hasFootnote(markdown) {
		return []string{markdown}
	}
	blocks := lexBlocks(markdown)
	blocks = mergeOpenHTML(blocks)
	blocks = mergeMathBlocks(blocks)
	return blocks
}

// hasFootnote reports whether the text contains a footnote reference
// ([^label]) or definition ([^label]:). Either forces single-block
// output: splitting would orphan one side of the cross-reference.
func hasFootnote(text string) bool {
	for i := 0; i+2 < len(text); i++ {
		if text[i] != '[' || text[i+1] != '^' {
			continue
		}
		j := i + 2
		for j < len(text) && text[j] != ']' && text[j] != '\n' {
			j++
		}
		if j < len(text) && text[j] == ']' && j > i+2 {
			return true
		}
	}
	return false
}

type lexState int

const (
	lexReady lexState = iota
	lexParagraph
	lexFence
	lexTable
	lexList
	lexQuote
	lexHTML
)

// blockLexer accumulates raw lines into top-level blocks. Inter-block
// blank lines attach to the preceding block (leading blanks to the
// first) so that no characters are added, removed, or reordered.
type blockLexer struct {
	blocks []string
	cur    strings.Builder
	state  lexState

	fenceChar   rune
	fenceLen    int
	fenceIndent int

	listIndent int
}

func lexBlocks(text string) []string {
	lx := &blockLexer{}
	for start := 0; start < len(text); {
		var line string
		if nl := strings.IndexByte(text[start:], '\n'); nl >= 0 {
			line = text[start : start+nl+1]
			start += nl + 1
		} else {
			line = text[start:]
			start = len(text)
		}
		lx.feed(line)
	}
	lx.flushCur()
	return lx.blocks
}

func (lx *blockLexer) feed(raw string) {
	content := strings.TrimSuffix(raw, "\n")
	content = strings.TrimSuffix(content, "\r")

	switch lx.state {
	case lexReady:
		lx.ready(content, raw)
	case lexParagraph:
		lx.paragraph(content, raw)
	case lexFence:
		lx.fence(content, raw)
	case lexTable:
		lx.table(content, raw)
	case lexList:
		lx.list(content, raw)
	case lexQuote:
		lx.quote(content, raw)
	case lexHTML:
		lx.htmlBlock(content, raw)
	}
}

func (lx *blockLexer) flushCur() {
	if lx.cur.Len() > 0 {
		lx.blocks = append(lx.blocks, lx.cur.String())
		lx.cur.Reset()
	}
	lx.state = lexReady
}

func (lx *blockLexer) ready(content, raw string) {
	if isBlankLine(content) {
		// Trailing blanks belong to the block that just closed; leading
		// blanks wait for the first block.
		if len(lx.blocks) > 0 && lx.cur.Len() == 0 {
			lx.blocks[len(lx.blocks)-1] += raw
		} else {
			lx.cur.WriteString(raw)
		}
		return
	}

	switch detectBlock(content) {
	case blockFence:
		lx.state = lexFence
		lx.fenceChar, lx.fenceLen, lx.fenceIndent = parseFence(content)
		lx.cur.WriteString(raw)
	case blockHeading, blockThematicBreak:
		// Complete on a single line.
		lx.cur.WriteString(raw)
		lx.flushCur()
	case blockHTML:
		lx.state = lexHTML
		lx.cur.WriteString(raw)
	case blockTable:
		lx.state = lexTable
		lx.cur.WriteString(raw)
	case blockList:
		lx.state = lexList
		lx.listIndent = countLeadingSpaces(content)
		lx.cur.WriteString(raw)
	case blockQuote:
		lx.state = lexQuote
		lx.cur.WriteString(raw)
	default:
		lx.state = lexParagraph
		lx.cur.WriteString(raw)
	}
}

func (lx *blockLexer) paragraph(content, raw string) {
	if isBlankLine(content) {
		lx.cur.WriteString(raw)
		lx.flushCur()
		return
	}

	// Setext underline converts the paragraph into a heading. Checked
	// before thematic break: "---" is ambiguous between the two.
	if isSetextUnderline(content) {
		lx.cur.WriteString(raw)
		lx.flushCur()
		return
	}

	switch detectBlock(content) {
	case blockFence, blockHeading, blockThematicBreak, blockTable, blockList, blockQuote, blockHTML:
		lx.flushCur()
		lx.ready(content, raw)
		return
	}

	lx.cur.WriteString(raw)
}

func (lx *blockLexer) fence(content, raw string) {
	lx.cur.WriteString(raw)
	if isClosingFence(content, lx.fenceChar, lx.fenceLen, lx.fenceIndent) {
		lx.flushCur()
	}
}

func (lx *blockLexer) table(content, raw string) {
	if isTableLine(content) {
		lx.cur.WriteString(raw)
		return
	}
	lx.flushCur()
	lx.ready(content, raw)
}

func (lx *blockLexer) list(content, raw string) {
	// Blank lines may separate loose list items.
	if isBlankLine(content) {
		lx.cur.WriteString(raw)
		return
	}

	trimmed := strings.TrimLeft(content, " \t")
	if isListMarker(trimmed) {
		lx.cur.WriteString(raw)
		return
	}

	if bt := detectBlock(content); bt != blockParagraph {
		lx.flushCur()
		lx.ready(content, raw)
		return
	}

	// Continuation text must be indented past the list's base indent.
	if countLeadingSpaces(content) > lx.listIndent {
		lx.cur.WriteString(raw)
		return
	}

	lx.flushCur()
	lx.ready(content, raw)
}

func (lx *blockLexer) quote(content, raw string) {
	if isBlankLine(content) {
		lx.cur.WriteString(raw)
		lx.flushCur()
		return
	}
	trimmed := strings.TrimLeft(content, " \t")
	if len(trimmed) > 0 && trimmed[0] == '>' {
		lx.cur.WriteString(raw)
		return
	}
	lx.flushCur()
	lx.ready(content, raw)
}

func (lx *blockLexer) htmlBlock(content, raw string) {
	lx.cur.WriteString(raw)
	if isBlankLine(content) {
		lx.flushCur()
	}
}

type blockType int

const (
	blockParagraph blockType = iota
	blockFence
	blockHeading
	blockThematicBreak
	blockTable
	blockList
	blockQuote
	blockHTML
)

// detectBlock determines what kind of block a line starts.
func detectBlock(line string) blockType {
	trimmed := strings.TrimLeft(line, " \t")
	if len(trimmed) == 0 {
		return blockParagraph
	}

	if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
		return blockFence
	}

	if trimmed[0] == '#' {
		if isATXHeading(trimmed) {
			return blockHeading
		}
	}

	if isThematicBreak(trimmed) {
		return blockThematicBreak
	}

	if trimmed[0] == '>' {
		return blockQuote
	}

	if len(trimmed) > 1 && trimmed[0] == '<' {
		c := trimmed[1]
		if c == '/' || c == '!' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') {
			return blockHTML
		}
	}

	if isListMarker(trimmed) {
		return blockList
	}

	if isTableLine(trimmed) {
		return blockTable
	}

	return blockParagraph
}

func isATXHeading(trimmed string) bool {
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level == 0 || level > 6 {
		return false
	}
	return level == len(trimmed) || trimmed[level] == ' ' || trimmed[level] == '\t'
}

func isBlankLine(line string) bool {
	return strings.TrimSpace(line) == ""
}

func isListMarker(trimmed string) bool {
	if len(trimmed) == 0 {
		return false
	}
	if trimmed[0] == '-' || trimmed[0] == '*' || trimmed[0] == '+' {
		return len(trimmed) > 1 && (trimmed[1] == ' ' || trimmed[1] == '\t')
	}
	i := 0
	for i < len(trimmed) && i < 9 && trimmed[i] >= '0' && trimmed[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(trimmed) {
		return false
	}
	if trimmed[i] != '.' && trimmed[i] != ')' {
		return false
	}
	return i+1 == len(trimmed) || trimmed[i+1] == ' ' || trimmed[i+1] == '\t'
}

func isThematicBreak(trimmed string) bool {
	if len(trimmed) < 3 {
		return false
	}
	char := trimmed[0]
	if char != '-' && char != '*' && char != '_' {
		return false
	}
	count := 0
	for i := 0; i < len(trimmed); i++ {
		switch trimmed[i] {
		case char:
			count++
		case ' ', '\t':
		default:
			return false
		}
	}
	return count >= 3
}

func isTableLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed != "" && strings.Contains(trimmed, "|")
}

func isSetextUnderline(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	char := trimmed[0]
	if char != '=' && char != '-' {
		return false
	}
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] != char {
			return false
		}
	}
	return true
}

func parseFence(line string) (char rune, length, indent int) {
	indent = countLeadingSpaces(line)
	trimmed := strings.TrimLeft(line, " \t")
	if len(trimmed) == 0 {
		return 0, 0, 0
	}
	char = rune(trimmed[0])
	for _, c := range trimmed {
		if c != char {
			break
		}
		length++
	}
	return char, length, indent
}

func isClosingFence(line string, openChar rune, openLen, openIndent int) bool {
	indent := countLeadingSpaces(line)
	if indent > 3 && indent > openIndent+3 {
		return false
	}
	trimmed := strings.TrimLeft(line, " \t")
	if len(trimmed) == 0 || rune(trimmed[0]) != openChar {
		return false
	}
	fenceLen := 0
	for _, c := range trimmed {
		if c == openChar {
			fenceLen++
			continue
		}
		if c == ' ' || c == '\t' {
			break
		}
		return false
	}
	return fenceLen >= openLen
}

// countLeadingSpaces counts leading indentation; tabs count as one.
func countLeadingSpaces(line string) int {
	count := 0
	for _, c := range line {
		if c != ' ' && c != '\t' {
			break
		}
		count++
	}
	return count
}

// voidElements never take a closing tag and must not open the merge
// stack.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// mergeOpenHTML merges blocks into the block that opened an HTML tag
// until that tag closes. A tag opens the stack only when its closing
// counterpart is absent from the same raw block.
func mergeOpenHTML(blocks []string) []string {
	var out []string
	var stack []string
	openIdx := -1

	for _, b := range blocks {
		if len(stack) > 0 {
			out[openIdx] += b
			stack = scanTags(stack, b)
			if len(stack) == 0 {
				openIdx = -1
			}
			continue
		}
		if isHTMLBlockStart(b) {
			if open := scanTags(nil, b); len(open) > 0 {
				out = append(out, b)
				stack = open
				openIdx = len(out) - 1
				continue
			}
		}
		out = append(out, b)
	}
	return out
}

func isHTMLBlockStart(block string) bool {
	trimmed := strings.TrimLeft(block, " \t\n")
	if len(trimmed) < 2 || trimmed[0] != '<' {
		return false
	}
	c := trimmed[1]
	return c == '/' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// scanTags feeds a block through the HTML tokenizer, pushing tags it
// opens and popping closers that match the top of the stack.
func scanTags(stack []string, block string) []string {
	z := html.NewTokenizer(strings.NewReader(block))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return stack
		case html.StartTagToken:
			name, _ := z.TagName()
			if tag := string(name); !voidElements[tag] {
				stack = append(stack, tag)
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if tag := string(name); len(stack) > 0 && stack[len(stack)-1] == tag {
				stack = stack[:len(stack)-1]
			}
		}
	}
}

// mergeMathBlocks joins a block that opened a $$ math fence with the
// block that closes it. The patterns are deliberately narrow; see the
// design notes for why this stays heuristic.
func mergeMathBlocks(blocks []string) []string {
	var out []string
	for _, b := range blocks {
		if len(out) > 0 && mathFenceOpen(out[len(out)-1]) {
			t := strings.TrimSpace(b)
			if t == "$$" {
				out[len(out)-1] += b
				continue
			}
			if strings.HasSuffix(t, "$$") && !strings.HasPrefix(t, "$$") && strings.Count(b, "$$") == 1 {
				out[len(out)-1] += b
				continue
			}
		}
		out = append(out, b)
	}
	return out
}

// mathFenceOpen reports whether a block starts with $$ and leaves it
// unclosed (odd number of $$ markers).
func mathFenceOpen(block string) bool {
	return strings.HasPrefix(strings.TrimLeft(block, " \t\n"), "$$") &&
		strings.Count(block, "$$")%2 == 1
}
