package providers

import (
	"context"
	"time"
)

// State is the publication state of a manga; empty when unknown.
type State string

const (
	StateOngoing  State = "ongoing"
	StateFinished State = "finished"
)

type Manga struct {
	ID            int64
	URL           string
	PublicURL     string
	Title         string
	AltTitles     []string
	CoverURL      string
	LargeCoverURL string
	Author        string
	Artist        string
	State         State
	NSFW          bool
	Description   string
	Tags          []Tag
	Chapters      []Chapter
}

type Chapter struct {
	ID         int64
	URL        string
	Title      string
	Number     float64
	Label      string
	Scanlator  string
	UploadDate time.Time
}

// Page is one image of a chapter. DRMData is empty when the image bytes
// themselves carry the cipher and trailer.
type Page struct {
	ID       int64
	Order    int
	ImageURL string
	DRMData  string
	Width    int
	Height   int
}

type Tag struct {
	Key   string
	Title string
}

type Source interface {
	List(ctx context.Context, page int, query string) ([]Manga, error)
	Details(ctx context.Context, id int64) (*Manga, error)
	Pages(ctx context.Context, chapterID int64) ([]Page, error)
	Tags(ctx context.Context) ([]Tag, error)
}
