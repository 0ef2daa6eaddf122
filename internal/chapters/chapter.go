package chapters

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/brogergvhs/cuudl/internal/providers"
)

type Chapter struct {
	providers.Chapter
}

func Wrap(all []providers.Chapter) []Chapter {
	out := make([]Chapter, len(all))
	for i, c := range all {
		out[i] = Chapter{Chapter: c}
	}
	return out
}

var reUnderscore = regexp.MustCompile(`_+`)

func sanitize(s string) string {
	s = strings.ToLower(s)

	s = strings.NewReplacer(
		"•", "_",
		"-", "_",
		"—", "_",
		"–", "_",
		"/", "_",
		"\\", "_",
		".", "_",
		":", "_",
		" ", "_",
		"(", "",
		")", "",
	).Replace(s)

	clean := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			clean = append(clean, r)
		}
	}

	return strings.Trim(reUnderscore.ReplaceAllString(string(clean), "_"), "_")
}

// baseName pads the integer part of the label so files sort naturally.
func (c Chapter) baseName() string {
	lbl := c.Label
	if whole, frac, ok := strings.Cut(lbl, "."); ok {
		lbl = padNumber(whole) + "_" + frac
	} else {
		lbl = padNumber(lbl)
	}
	lbl = "ch" + sanitize(lbl)

	title := sanitize(c.Title)
	if title != "" && title != sanitize(c.Label) {
		return lbl + "_" + title
	}
	return lbl
}

func padNumber(s string) string {
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err == nil && fmt.Sprint(n) == s {
		return fmt.Sprintf("%04d", n)
	}
	return s
}

func (c Chapter) FolderName() string {
	return c.baseName() + "_tmp"
}

func (c Chapter) OutputCBZ() string {
	return c.baseName() + ".cbz"
}

func (c Chapter) OutputCBZPath(out string) string {
	return filepath.Join(out, c.OutputCBZ())
}
