package captioning

import "strings"

// CleanCaptions splits the raw model output into individual captions.
//
// When a single caption was requested the whole output is the caption.
// Otherwise the output is split on newlines, blank lines are dropped, and
// enumerator prefixes the model may have added ("1. ", "2) ", "- ") are
// stripped. Fewer lines than requested is tolerated; extra lines beyond the
// requested count are discarded. If no usable line survives, the raw output
// is returned as one caption so a successful call never yields zero
// captions.
func CleanCaptions(raw string, count int) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if count <= 1 {
		return []string{raw}
	}

	var cleaned []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		cleaned = append(cleaned, stripEnumerator(line))
	}

	if len(cleaned) == 0 {
		return []string{raw}
	}
	if len(cleaned) > count {
		cleaned = cleaned[:count]
	}
	return cleaned
}

// stripEnumerator removes a leading list marker like "1. ", "12) " or "- ".
func stripEnumerator(line string) string {
	if rest, ok := strings.CutPrefix(line, "- "); ok {
		return strings.TrimSpace(rest)
	}

	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(line) {
		return line
	}
	switch line[i] {
	case '.', ')':
		return strings.TrimSpace(line[i+1:])
	case ' ':
		return strings.TrimSpace(line[i:])
	}
	return line
}
