package shell

import (
	"strconv"
	"strings"
)

// PidVariable is replaced in every word by the shell's process ID.
const PidVariable = "$$"

func isDelimiter(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// Tokenize splits line, starting at byte offset start, into whitespace
// delimited words and expands every occurrence of $$ in them to pid.
//
// Runs of whitespace collapse into a single boundary. An empty remainder
// yields an empty (non-nil) slice.
func Tokenize(line string, start int, pid int) []string {
	if start < 0 {
		start = 0
	}
	if start > len(line) {
		start = len(line)
	}

	pidStr := strconv.Itoa(pid)
	words := strings.FieldsFunc(line[start:], isDelimiter)
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		tokens = append(tokens, Expand(word, pidStr))
	}
	return tokens
}

// Expand replaces each $$ in word with pid, scanning left to right.
func Expand(word, pid string) string {
	return strings.ReplaceAll(word, PidVariable, pid)
}

// CommandWord returns the first word on the line and the byte offset just
// past it. If the line holds no words, name is empty.
func CommandWord(line string) (name string, end int) {
	start := strings.IndexFunc(line, func(r rune) bool { return !isDelimiter(r) })
	if start < 0 {
		return "", len(line)
	}
	length := strings.IndexFunc(line[start:], isDelimiter)
	if length < 0 {
		return line[start:], len(line)
	}
	return line[start : start+length], start + length
}
