package chapters

import (
	"testing"

	"github.com/brogergvhs/cuudl/internal/providers"
)

func sample() []Chapter {
	return Wrap([]providers.Chapter{
		{ID: 1, Label: "1", Title: "Prologue"},
		{ID: 2, Label: "2"},
		{ID: 3, Label: "2.5", Title: "Extra"},
		{ID: 4, Label: "3"},
		{ID: 5, Label: "4"},
	})
}

func ids(cs []Chapter) []int64 {
	out := make([]int64, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

func equal(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name             string
		chapter, rng, ls string
		want             []int64
	}{
		{"all", "", "", "", []int64{1, 2, 3, 4, 5}},
		{"by label", "2.5", "", "", []int64{3}},
		{"label wins over index", "3", "", "", []int64{4}},
		{"by index", "5", "", "", []int64{5}},
		{"unknown chapter", "99", "", "", []int64{}},
		{"range", "", "2-4", "", []int64{2, 3, 4}},
		{"bad range", "", "4-2", "", nil},
		{"range past end", "", "1-9", "", nil},
		{"list", "", "", "1, 3,x,9", []int64{1, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Filter(sample(), tt.chapter, tt.rng, tt.ls))
			if !equal(got, tt.want) {
				t.Errorf("Filter = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExclude(t *testing.T) {
	all := sample()

	got := ids(Exclude(all, all, "1-2", "5"))
	if want := []int64{3, 4}; !equal(got, want) {
		t.Errorf("Exclude = %v, want %v", got, want)
	}

	if got := Exclude(all, all[:2], "", ""); len(got) != 2 {
		t.Errorf("Exclude without selectors changed selection: %v", ids(got))
	}
}

func TestOutputNames(t *testing.T) {
	tests := []struct {
		ch   Chapter
		want string
	}{
		{Chapter{providers.Chapter{Label: "1", Title: "Prologue"}}, "ch0001_prologue.cbz"},
		{Chapter{providers.Chapter{Label: "12"}}, "ch0012.cbz"},
		{Chapter{providers.Chapter{Label: "2.5", Title: "Extra: Side/Story"}}, "ch0002_5_extra_side_story.cbz"},
		{Chapter{providers.Chapter{Label: "7", Title: "7"}}, "ch0007.cbz"},
	}

	for _, tt := range tests {
		if got := tt.ch.OutputCBZ(); got != tt.want {
			t.Errorf("OutputCBZ(%q, %q) = %q, want %q", tt.ch.Label, tt.ch.Title, got, tt.want)
		}
	}

	if got := (Chapter{providers.Chapter{Label: "3"}}).FolderName(); got != "ch0003_tmp" {
		t.Errorf("FolderName = %q", got)
	}
}
