// Package parser turns free-text item breakdown cells from POS exports into
// structured line items. Each sales channel exports a different grammar; the
// three parsers here are lenient by design and never fail on malformed input.
package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// Modifier is a priced or unpriced addition to an item.
type Modifier struct {
	Qty  int
	Name string
}

// Item is one sold line item with its modifiers.
type Item struct {
	Qty       int
	Name      string
	Modifiers []Modifier
}

var (
	qtyXToken     = regexp.MustCompile(`\d+\s*x\s`)
	qtyXItem      = regexp.MustCompile(`^(\d+)\s*x\s*(.*)$`)
	leadingQty    = regexp.MustCompile(`^(\d+)\s+(.*)$`)
	plainQty      = regexp.MustCompile(`^(\d+)\s*[x*]?\s+(.*)$`)
	noteMarker    = regexp.MustCompile(`(?i)\bnotes?:`)
	trailingParen = regexp.MustCompile(`\s*\([^()]*\)\s*$`)
)

// Parse sniffs the grammar and dispatches. Empty or whitespace-only input
// yields an empty list.
func Parse(input string) []Item {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil
	}
	switch {
	case qtyXToken.MatchString(trimmed):
		return ParseQtyX(trimmed)
	case strings.Contains(trimmed, "[") || leadingQty.MatchString(trimmed):
		return ParseBracketed(trimmed)
	default:
		return ParsePlain(trimmed)
	}
}

// ParseBracketed handles the legacy format:
//
//	"2 Burger [1 Cheese, 1 Bacon], 1 Fries"
//
// Top-level items are separated by commas outside brackets; modifiers live
// inside a single bracket group per item.
func ParseBracketed(input string) []Item {
	var items []Item
	for _, segment := range splitOutsideBrackets(input) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		var mods []Modifier
		if open := strings.Index(segment, "["); open >= 0 {
			inner := segment[open+1:]
			if close := strings.Index(inner, "]"); close >= 0 {
				inner = inner[:close]
			}
			for _, raw := range strings.Split(inner, ",") {
				raw = strings.TrimSpace(raw)
				if raw == "" {
					continue
				}
				qty, name := extractQty(raw, leadingQty)
				if name != "" {
					mods = append(mods, Modifier{Qty: qty, Name: name})
				}
			}
			segment = strings.TrimSpace(segment[:open])
		}
		qty, name := extractQty(segment, leadingQty)
		items = append(items, Item{Qty: qty, Name: name, Modifiers: mods})
	}
	return items
}

// ParseQtyX handles the "NxName(Modifier)" format:
//
//	"1x Burger (Cheese), 2x Fries"
//
// Items are delimited by the next "<digits>x" token rather than by commas, so
// commas inside a name only split when no nested commas exist. Every
// parenthesized group becomes an implicit qty-1 modifier.
func ParseQtyX(input string) []Item {
	starts := qtyXToken.FindAllStringIndex(input, -1)
	if len(starts) == 0 {
		return ParsePlain(input)
	}
	var items []Item
	for i, loc := range starts {
		end := len(input)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		segment := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(input[loc[0]:end]), ","))
		m := qtyXItem.FindStringSubmatch(segment)
		if m == nil {
			continue
		}
		qty, err := strconv.Atoi(m[1])
		if err != nil || qty <= 0 {
			qty = 1
		}
		rest := m[2]
		var mods []Modifier
		for {
			open := strings.Index(rest, "(")
			if open < 0 {
				break
			}
			inner := rest[open+1:]
			close := strings.Index(inner, ")")
			if close < 0 {
				rest = rest[:open]
				modName := strings.TrimSpace(inner)
				if modName != "" {
					mods = append(mods, Modifier{Qty: 1, Name: modName})
				}
				break
			}
			modName := strings.TrimSpace(inner[:close])
			if modName != "" {
				mods = append(mods, Modifier{Qty: 1, Name: modName})
			}
			rest = rest[:open] + inner[close+1:]
		}
		name := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest), ","))
		items = append(items, Item{Qty: qty, Name: name, Modifiers: mods})
	}
	return items
}

// ParsePlain handles bare comma or newline separated lists. Trailing
// "Note:"/"Notes:" comments and trailing parenthetical groups are discarded
// before quantity extraction.
func ParsePlain(input string) []Item {
	var items []Item
	for _, segment := range strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == '\n'
	}) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		if loc := noteMarker.FindStringIndex(segment); loc != nil {
			segment = strings.TrimSpace(segment[:loc[0]])
		}
		for {
			stripped := trailingParen.ReplaceAllString(segment, "")
			if stripped == segment {
				break
			}
			segment = strings.TrimSpace(stripped)
		}
		qty, name := extractQty(segment, plainQty)
		items = append(items, Item{Qty: qty, Name: name})
	}
	return items
}

// splitOutsideBrackets splits on commas that are not enclosed in [...].
func splitOutsideBrackets(input string) []string {
	var segments []string
	depth := 0
	last := 0
	for i, r := range input {
		switch r {
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				segments = append(segments, input[last:i])
				last = i + 1
			}
		}
	}
	segments = append(segments, input[last:])
	return segments
}

// extractQty pulls a leading quantity off the segment, defaulting to 1 when
// the prefix is absent or malformed.
func extractQty(segment string, re *regexp.Regexp) (int, string) {
	m := re.FindStringSubmatch(segment)
	if m == nil {
		return 1, strings.TrimSpace(segment)
	}
	qty, err := strconv.Atoi(m[1])
	if err != nil || qty <= 0 {
		return 1, strings.TrimSpace(m[2])
	}
	return qty, strings.TrimSpace(m[2])
}
