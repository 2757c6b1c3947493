package lockfile

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// lineIndex maps byte offsets and JSON object keys of one document to
// lines. It is built in a single pass the first time an entry-level error
// needs a position, so error reporting stays linear in document size.
type lineIndex struct {
	newlines []int          // offsets of '\n', ascending
	keys     map[string]int // first offset of each object key, as written
}

func newLineIndex(content string) *lineIndex {
	ix := &lineIndex{keys: make(map[string]int)}
	for i := 0; i < len(content); i++ {
		switch content[i] {
		case '\n':
			ix.newlines = append(ix.newlines, i)
		case '"':
			end := closingQuote(content, i+1)
			if end < 0 {
				return ix
			}
			if isKey(content, end+1) {
				if _, seen := ix.keys[content[i+1:end]]; !seen {
					ix.keys[content[i+1:end]] = i
				}
			}
			i = end
		}
	}
	return ix
}

// line returns the 1-based line holding offset.
func (ix *lineIndex) line(offset int) int {
	return sort.SearchInts(ix.newlines, offset) + 1
}

// keyLine returns the line of the first object key equal to key, or 0.
func (ix *lineIndex) keyLine(key string) int {
	off, ok := ix.keys[key]
	if !ok {
		return 0
	}
	return ix.line(off)
}

// closingQuote returns the offset of the quote ending a string that starts
// at from, or -1 for an unterminated string.
func closingQuote(s string, from int) int {
	for i := from; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}

// isKey reports whether the next non-space byte at or after i is a colon.
func isKey(s string, i int) bool {
	for ; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\r', '\n':
			continue
		case ':':
			return true
		default:
			return false
		}
	}
	return false
}

// position converts a byte offset into a 1-based line and column. Columns
// count runes.
func position(content string, offset int64) (line, column int) {
	if offset < 0 {
		return 0, 0
	}
	if offset > int64(len(content)) {
		offset = int64(len(content))
	}
	head := content[:offset]
	start := strings.LastIndexByte(head, '\n') + 1
	return strings.Count(head, "\n") + 1, utf8.RuneCountInString(head[start:]) + 1
}
