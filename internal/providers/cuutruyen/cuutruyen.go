// Package cuutruyen reads the CuuTruyen v2 JSON API.
package cuutruyen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/brogergvhs/cuudl/internal/providers"
	"github.com/brogergvhs/cuudl/internal/ui"
	"github.com/brogergvhs/cuudl/internal/util"
)

const (
	DefaultDomain = "cuutruyen.net"
	PageSize      = 20

	dateLayout = "2006-01-02T15:04:05Z"
)

// Mirrors are the other hosts serving the same catalog.
var Mirrors = []string{"nettrom.com", "hetcuutruyen.net", "cuutruyent9sv7.xyz"}

var ErrInvalidResponse = errors.New("invalid response")

var reMangaURL = regexp.MustCompile(`/mangas?/(\d+)`)

type Source struct {
	client *http.Client
	base   string
	log    *ui.Logger

	tagsMu sync.Mutex
	tags   []providers.Tag
}

var _ providers.Source = (*Source)(nil)

// New returns a Source for domain. A domain with a scheme is used as the
// base URL verbatim.
func New(c *http.Client, domain string, log *ui.Logger) *Source {
	if log == nil {
		log = ui.Discard()
	}

	return &Source{client: c, base: BaseURL(domain), log: log}
}

// BaseURL turns a configured domain into the site root without a trailing
// slash.
func BaseURL(domain string) string {
	if domain == "" {
		domain = DefaultDomain
	}

	base := strings.TrimRight(domain, "/")
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	return base
}

func (s *Source) BaseURL() string {
	return s.base
}

// ParseRef accepts a numeric manga id or a manga URL.
func ParseRef(ref string) (int64, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil && id > 0 {
		return id, nil
	}

	if m := reMangaURL.FindStringSubmatch(ref); m != nil {
		return strconv.ParseInt(m[1], 10, 64)
	}

	return 0, fmt.Errorf("cannot find a manga id in %q", ref)
}

func getJSON[T any](ctx context.Context, s *Source, path string) (*T, error) {
	target := s.base + path

	req, err := http.NewRequestWithContext(ctx, "GET", target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Referer", s.base+"/")

	resp, err := util.DoWithRetry(s.client, req, 3, 500*time.Millisecond)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: HTTP %d", target, resp.StatusCode)
	}

	var env envelope[T]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidResponse, target, err)
	}
	if env.Data == nil {
		return nil, fmt.Errorf("%w: %s: missing data", ErrInvalidResponse, target)
	}

	s.log.Debugf("GET %s ok", target)
	return env.Data, nil
}

func (s *Source) List(ctx context.Context, page int, query string) ([]providers.Manga, error) {
	if page < 1 {
		page = 1
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(PageSize))

	path := "/api/v2/mangas/recently_updated?"
	if query = strings.TrimSpace(query); query != "" {
		q.Set("q", query)
		path = "/api/v2/mangas/search?"
	}

	items, err := getJSON[[]mangaItem](ctx, s, path+q.Encode())
	if err != nil {
		return nil, err
	}

	out := make([]providers.Manga, 0, len(*items))
	for _, it := range *items {
		out = append(out, s.toManga(it))
	}

	return out, nil
}

// Details fetches the manga and its chapter list concurrently.
func (s *Source) Details(ctx context.Context, id int64) (*providers.Manga, error) {
	var (
		info     *mangaItem
		chapters *[]chapterItem
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		info, err = getJSON[mangaItem](gctx, s, fmt.Sprintf("/api/v2/mangas/%d", id))
		return err
	})
	g.Go(func() error {
		var err error
		chapters, err = getJSON[[]chapterItem](gctx, s, fmt.Sprintf("/api/v2/mangas/%d/chapters", id))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	m := s.toManga(*info)
	if info.OfficialURL != "" {
		m.PublicURL = info.OfficialURL
	}
	for _, t := range info.Tags {
		m.Tags = append(m.Tags, providers.Tag{Key: t.Slug, Title: t.Name})
	}

	m.Chapters = make([]providers.Chapter, 0, len(*chapters))
	for _, c := range *chapters {
		m.Chapters = append(m.Chapters, s.toChapter(c))
	}
	// newest first on the wire
	slices.Reverse(m.Chapters)

	return &m, nil
}

func (s *Source) Pages(ctx context.Context, chapterID int64) ([]providers.Page, error) {
	data, err := getJSON[chapterData](ctx, s, fmt.Sprintf("/api/v2/chapters/%d", chapterID))
	if err != nil {
		return nil, err
	}

	out := make([]providers.Page, 0, len(data.Pages))
	for _, p := range data.Pages {
		out = append(out, providers.Page{
			ID:       p.ID,
			Order:    p.Order,
			ImageURL: p.ImageURL,
			DRMData:  p.DRMData,
			Width:    p.Width,
			Height:   p.Height,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

// Tags is cached after the first successful fetch.
func (s *Source) Tags(ctx context.Context) ([]providers.Tag, error) {
	s.tagsMu.Lock()
	defer s.tagsMu.Unlock()

	if s.tags != nil {
		return s.tags, nil
	}

	items, err := getJSON[[]tagItem](ctx, s, "/api/v2/tags")
	if err != nil {
		return nil, err
	}

	tags := make([]providers.Tag, 0, len(*items))
	for _, t := range *items {
		tags = append(tags, providers.Tag{Key: t.Slug, Title: t.Name})
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Title < tags[j].Title })

	s.tags = tags
	return tags, nil
}

func (s *Source) toManga(it mangaItem) providers.Manga {
	return providers.Manga{
		ID:            it.ID,
		URL:           fmt.Sprintf("/api/v2/mangas/%d", it.ID),
		PublicURL:     fmt.Sprintf("%s/manga/%d", s.base, it.ID),
		Title:         it.Name,
		AltTitles:     it.OtherNames,
		CoverURL:      it.CoverURL,
		LargeCoverURL: it.CoverMobileURL,
		Author:        it.AuthorName,
		Artist:        it.Artist,
		State:         toState(it.Status),
		NSFW:          it.IsNSFW,
		Description:   htmlToText(it.Description),
	}
}

func (s *Source) toChapter(c chapterItem) providers.Chapter {
	uploaded, err := time.Parse(dateLayout, c.CreatedAt)
	if err != nil && c.CreatedAt != "" {
		s.log.Debugf("chapter %d: bad created_at %q", c.ID, c.CreatedAt)
	}

	return providers.Chapter{
		ID:         c.ID,
		URL:        fmt.Sprintf("/api/v2/chapters/%d", c.ID),
		Title:      strings.TrimSpace(c.Name),
		Number:     float64(c.Number),
		Label:      strconv.FormatFloat(float64(c.Number), 'f', -1, 64),
		Scanlator:  c.GroupName,
		UploadDate: uploaded,
	}
}

func toState(status string) providers.State {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "ongoing":
		return providers.StateOngoing
	case "completed":
		return providers.StateFinished
	}
	return ""
}

func htmlToText(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		p.AppendHtml("\n")
	})

	return strings.TrimSpace(doc.Text())
}
