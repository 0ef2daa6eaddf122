package chapters

import (
	"strconv"
	"strings"
)

// Filter selects by chapter (label first, then 1-based index), by range
// "a-b" of indices or by a comma separated index list, in that order of
// precedence. With no selector every chapter is returned.
func Filter(all []Chapter, chapter string, rng string, list string) []Chapter {
	if chapter != "" {
		byLabel := FilterChaptersByLabel(all, chapter)
		if len(byLabel) > 0 {
			return byLabel
		}
		if idx, err := atoi(chapter); err == nil {
			if idx > 0 && idx <= len(all) {
				return []Chapter{all[idx-1]}
			}
		}
		return []Chapter{}
	}
	if rng != "" {
		return FilterChapterRange(all, rng)
	}
	if list != "" {
		return FilterChapterList(all, list)
	}
	return all
}

// Exclude drops the chapters of selected that a range or list over all
// would pick.
func Exclude(all, selected []Chapter, rng, list string) []Chapter {
	if rng == "" && list == "" {
		return selected
	}

	drop := map[int64]bool{}
	if rng != "" {
		for _, c := range FilterChapterRange(all, rng) {
			drop[c.ID] = true
		}
	}
	if list != "" {
		for _, c := range FilterChapterList(all, list) {
			drop[c.ID] = true
		}
	}

	out := []Chapter{}
	for _, c := range selected {
		if !drop[c.ID] {
			out = append(out, c)
		}
	}
	return out
}

func FilterChaptersByLabel(all []Chapter, label string) []Chapter {
	var out []Chapter
	for _, ch := range all {
		if ch.Label == label {
			out = append(out, ch)
		}
	}
	return out
}

func FilterChapterRange(all []Chapter, rng string) []Chapter {
	start, end, ok := strings.Cut(rng, "-")
	if !ok {
		return nil
	}
	s, err1 := atoi(start)
	e, err2 := atoi(end)
	if err1 != nil || err2 != nil {
		return nil
	}
	if s <= 0 || e <= 0 || s > e || e > len(all) {
		return nil
	}
	return all[s-1 : e]
}

func FilterChapterList(all []Chapter, list string) []Chapter {
	out := []Chapter{}
	for n := range strings.SplitSeq(list, ",") {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		idx, err := atoi(n)
		if err != nil {
			continue
		}
		if idx > 0 && idx <= len(all) {
			out = append(out, all[idx-1])
		}
	}
	return out
}

func atoi(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
