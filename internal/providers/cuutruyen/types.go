package cuutruyen

import (
	"bytes"
	"encoding/json"
	"strconv"
)

type envelope[T any] struct {
	Data *T `json:"data"`
}

type mangaItem struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	CoverURL       string    `json:"cover_url"`
	CoverMobileURL string    `json:"cover_mobile_url"`
	AuthorName     string    `json:"author_name"`
	Artist         string    `json:"artist"`
	Status         string    `json:"status"`
	IsNSFW         bool      `json:"is_nsfw"`
	Description    string    `json:"description"`
	OfficialURL    string    `json:"official_url"`
	OtherNames     []string  `json:"other_names"`
	Tags           []tagItem `json:"tags"`
}

type chapterItem struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Number    flexNumber `json:"number"`
	CreatedAt string     `json:"created_at"`
	GroupName string     `json:"group_name"`
}

type chapterData struct {
	ID    int64      `json:"id"`
	Pages []pageItem `json:"pages"`
}

type pageItem struct {
	ID       int64  `json:"id"`
	Order    int    `json:"order"`
	ImageURL string `json:"image_url"`
	DRMData  string `json:"drm_data"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

type tagItem struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// flexNumber accepts 12, 12.5, "12.5" and "" (as 0).
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(bytes.TrimSpace(b), `"`)
	if len(b) == 0 || string(b) == "null" {
		*n = 0
		return nil
	}

	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		*n = 0
		return nil
	}

	*n = flexNumber(f)
	return nil
}

var _ json.Unmarshaler = (*flexNumber)(nil)
