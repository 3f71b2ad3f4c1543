package parser

import (
	"os"
	"strings"

	"github.com/ankimd/ankimd/internal/cardid"
	"github.com/ankimd/ankimd/internal/domain"
)

const (
	fenceTag        = "```anki"
	fenceClose      = "```"
	separatorMarker = "?"
)

// ParseFile reads a document from disk and extracts all cards, using
// sourceFile as the logical document name recorded on each card.
func ParseFile(path, sourceFile string) ([]domain.Card, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data), sourceFile), nil
}

// Parse extracts all cards from a document's raw text. Each fenced block
// tagged "anki" is split into question/answer units; malformed units are
// skipped, never reported. Position on each card is the byte offset of the
// originating block within text.
func Parse(text, sourceFile string) []domain.Card {
	var cards []domain.Card

	lines := strings.SplitAfter(text, "\n")
	offset := 0
	blockStart := -1
	var block []string

	flush := func() {
		for _, sub := range splitBlock(strings.Join(block, "")) {
			front, back, ok := parseCard(sub)
			if !ok {
				continue
			}
			cards = append(cards, domain.Card{
				ID:         cardid.New(front, back, sourceFile),
				Front:      front,
				Back:       back,
				SourceFile: sourceFile,
				Position:   blockStart,
			})
		}
		blockStart = -1
		block = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case blockStart < 0 && trimmed == fenceTag:
			blockStart = offset
		case blockStart >= 0 && trimmed == fenceClose:
			// First closing fence terminates the block; nested fences
			// are not handled.
			flush()
		case blockStart >= 0:
			block = append(block, line)
		}
		offset += len(line)
	}
	// An unterminated block at EOF is not a block and yields nothing.

	return cards
}

// splitBlock divides a block's inner text into per-card sub-blocks. Multiple
// cards in one block are separated by the last blank line preceding each
// subsequent separator line. Splitting on blank lines alone would break
// cards whose answer contains blank lines, so a blank line only becomes a
// boundary once another separator shows up after it.
func splitBlock(block string) []string {
	lines := strings.Split(strings.TrimRight(block, "\n"), "\n")

	var subs []string
	var cur []string
	sawSeparator := false
	lastBlank := -1 // index in cur of the latest blank line after the separator

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == separatorMarker && sawSeparator && lastBlank >= 0 {
			subs = append(subs, strings.Join(cur[:lastBlank], "\n"))
			cur = append([]string(nil), cur[lastBlank+1:]...)
			lastBlank = -1
		}
		cur = append(cur, line)
		switch {
		case trimmed == separatorMarker:
			sawSeparator = true
		case trimmed == "" && sawSeparator:
			lastBlank = len(cur) - 1
		}
	}
	subs = append(subs, strings.Join(cur, "\n"))
	return subs
}

// parseCard splits a sub-block on its separator line. A sub-block is a card
// iff the split yields exactly two non-empty parts.
func parseCard(sub string) (front, back string, ok bool) {
	var parts []string
	var cur []string
	for _, line := range strings.Split(sub, "\n") {
		if strings.TrimSpace(line) == separatorMarker {
			parts = append(parts, strings.Join(cur, "\n"))
			cur = nil
			continue
		}
		cur = append(cur, line)
	}
	parts = append(parts, strings.Join(cur, "\n"))

	if len(parts) != 2 {
		return "", "", false
	}
	front = strings.TrimSpace(parts[0])
	back = strings.TrimSpace(parts[1])
	if front == "" || back == "" {
		return "", "", false
	}
	return front, back, true
}
