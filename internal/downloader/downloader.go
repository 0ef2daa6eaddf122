package downloader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/brogergvhs/cuudl/internal/drm"
	"github.com/brogergvhs/cuudl/internal/providers"
	"github.com/brogergvhs/cuudl/internal/ui"
)

var ErrNoPages = errors.New("no page could be recovered")

type Progress interface {
	Update(done, total int, bytes int64)
	MarkDone()
}

type Downloader struct {
	client   *http.Client
	pipeline *drm.Pipeline
	log      *ui.Logger
}

func New(c *http.Client, p *drm.Pipeline, log *ui.Logger) *Downloader {
	if log == nil {
		log = ui.Discard()
	}

	return &Downloader{
		client:   c,
		pipeline: p,
		log:      log,
	}
}

type chapterState struct {
	mu         sync.Mutex
	doneImages int
	total      int
	doneBytes  int64
	dropped    int
}

// DownloadPages fetches and recovers every page with at most maxParallel
// workers and writes them into folder. A page that fails is logged and left
// out; the returned paths keep page order. ErrNoPages is returned when
// nothing survives. Page logs go through log (usually scoped to the
// chapter), or the Downloader's logger when log is nil.
func (d *Downloader) DownloadPages(
	ctx context.Context,
	pages []providers.Page,
	folder string,
	referer string,
	maxParallel int,
	ph Progress,
	log *ui.Logger,
) ([]string, int64, error) {
	if log == nil {
		log = d.log
	}

	if err := os.MkdirAll(folder, 0755); err != nil {
		return nil, 0, err
	}

	total := len(pages)
	if maxParallel < 1 {
		maxParallel = 1
	}
	if maxParallel > total && total > 0 {
		maxParallel = total
	}

	cs := &chapterState{total: total}
	ph.Update(0, total, 0)

	slots := make([]string, total)

	jobs := make(chan int)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for i := range jobs {
			plog := log.With("page", i+1)

			var last int64
			progress := func(done int64) {
				delta := done - last
				if delta <= 0 {
					return
				}

				last = done
				cs.mu.Lock()
				cs.doneBytes += delta
				ph.Update(cs.doneImages, cs.total, cs.doneBytes)
				cs.mu.Unlock()
			}

			path, err := d.processPage(ctx, pages[i], i, folder, referer, progress, plog)

			cs.mu.Lock()
			if err != nil {
				cs.dropped++
				plog.Warnf("page dropped: %v", err)
			} else {
				slots[i] = path
			}
			cs.doneImages++
			ph.Update(cs.doneImages, cs.total, cs.doneBytes)
			cs.mu.Unlock()
		}
	}

	wg.Add(maxParallel)
	for w := 0; w < maxParallel; w++ {
		go worker()
	}

	canceled := false
feed:
	for i := range pages {
		select {
		case <-ctx.Done():
			canceled = true
			break feed
		case jobs <- i:
		}
	}

	close(jobs)
	wg.Wait()
	ph.MarkDone()

	files := make([]string, 0, total)
	for _, p := range slots {
		if p != "" {
			files = append(files, p)
		}
	}

	if canceled {
		return files, cs.doneBytes, ctx.Err()
	}
	if len(files) == 0 && total > 0 {
		return nil, cs.doneBytes, ErrNoPages
	}
	if cs.dropped > 0 {
		log.Warnf("%d/%d pages dropped", cs.dropped, total)
	}

	return files, cs.doneBytes, nil
}

func (d *Downloader) processPage(
	ctx context.Context,
	page providers.Page,
	index int,
	folder, referer string,
	progress func(done int64),
	log *ui.Logger,
) (string, error) {
	raw, err := d.fetchWithRetry(ctx, page.ImageURL, referer, progress)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", page.ImageURL, err)
	}

	res, err := d.pipeline.Process(drm.Input{
		Image:   raw,
		DRMData: page.DRMData,
		Width:   page.Width,
		Height:  page.Height,
	})
	if err != nil {
		return "", err
	}

	for _, f := range res.Fallbacks {
		log.With("stage", string(f.Kind)).Debugf("fallback: %s", f)
	}

	path := filepath.Join(folder, fmt.Sprintf("page_%03d%s", index+1, ExtFor(res.ContentType)))
	if err := os.WriteFile(path, res.Data, 0644); err != nil {
		return "", err
	}

	return path, nil
}

// ExtFor maps a content type to a file extension, JPEG by default.
func ExtFor(contentType string) string {
	mt, _, _ := mime.ParseMediaType(contentType)
	switch mt {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}

func (d *Downloader) fetchWithRetry(
	ctx context.Context,
	url string,
	referer string,
	progress func(done int64),
) ([]byte, error) {
	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		var b []byte
		b, err = d.fetch(ctx, url, referer, progress)
		if err == nil {
			return b, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * 200 * time.Millisecond):
		}
	}

	return nil, err
}

func (d *Downloader) fetch(
	ctx context.Context,
	u, referer string,
	progress func(done int64),
) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, err
	}

	if referer != "" {
		req.Header.Set("Referer", referer)
	}
	req.Header.Set("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")
	req.Header.Set("Accept-Language", "vi-VN,vi;q=0.9,en-US;q=0.8")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if mt, _, _ := mime.ParseMediaType(ct); strings.HasPrefix(mt, "text/") {
			return nil, fmt.Errorf("unexpected MIME: %s", ct)
		}
	}

	var buf bytes.Buffer
	if resp.ContentLength > 0 {
		buf.Grow(int(resp.ContentLength))
	}

	if _, err := copyWithProgress(&buf, resp.Body, progress); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
