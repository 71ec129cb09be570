package service

import (
	"strings"
	"unicode/utf8"

	"github.com/dockopt/dockopt-backend/internal/optimizer/domain"
)

// BuildChatPrompt renders the single prompt sent for a chat question. It
// embeds both Dockerfiles, the client history and the question.
func BuildChatPrompt(raw, optimized string, history []domain.ChatTurn, question string) string {
	lines := make([]string, 0, len(history))
	for _, turn := range history {
		lines = append(lines, string(turn.Role)+": "+turn.Content)
	}

	var b strings.Builder
	b.WriteString("You are a Dockerfile optimization assistant.\n")
	b.WriteString("Raw Dockerfile:\n" + raw + "\n\n")
	b.WriteString("Optimized Dockerfile:\n" + optimized + "\n\n")
	b.WriteString("Conversation history:\n" + strings.Join(lines, "\n") + "\n\n")
	b.WriteString("User question:\n" + question)
	return b.String()
}

// splitLines splits text at line boundaries without producing a trailing
// empty line. Besides \n, \r and \r\n it breaks on \v, \f, the file, group
// and record separators, NEL and the Unicode line and paragraph separators.
func splitLines(text string) []string {
	lines := []string{}
	start := 0
	for i, r := range text {
		if i < start {
			continue
		}
		if !isLineBreak(r) {
			continue
		}
		lines = append(lines, text[start:i])
		start = i + utf8.RuneLen(r)
		if r == '\r' && start < len(text) && text[start] == '\n' {
			start++
		}
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}
