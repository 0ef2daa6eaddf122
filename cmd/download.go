package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/brogergvhs/cuudl/internal/chapters"
	"github.com/brogergvhs/cuudl/internal/config"
	"github.com/brogergvhs/cuudl/internal/downloader"
	"github.com/brogergvhs/cuudl/internal/providers"
	"github.com/brogergvhs/cuudl/internal/providers/cuutruyen"
	"github.com/brogergvhs/cuudl/internal/ui"
	"github.com/brogergvhs/cuudl/internal/util"

	"github.com/spf13/cobra"
)

var (
	// selection
	flagManga        string
	flagChapter      string
	flagRange        string
	flagList         string
	flagExcludeRange string
	flagExcludeList  string

	// runtime
	flagOutput         string
	flagImageWorkers   int
	flagChapterWorkers int
	flagKeepFolders    bool
	flagDryRun         bool

	// descrambling
	flagIntegration    string
	flagStrictGeometry bool

	// headers/auth
	flagCookie           string
	flagCookieFile       string
	flagUserAgent        string
	flagBypassCloudflare bool
)

func init() {
	downloadCmd := &cobra.Command{
		Use:   "download [manga id or url]",
		Short: "Download chapters, descramble their pages and produce CBZ files. Uses the defaults from the selected config, overwritten by CLI flags",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runDownload,
	}

	// selection
	downloadCmd.Flags().StringVar(&flagManga, "manga", "", "manga id or URL")
	downloadCmd.Flags().StringVar(&flagChapter, "chapter", "", "download single chapter by label or index (e.g. 28.5 or 5)")
	downloadCmd.Flags().StringVar(&flagRange, "range", "", "download range of chapters by index (e.g. 5-12)")
	downloadCmd.Flags().StringVar(&flagList, "list", "", "download specific chapter indices (e.g. 1,3,5)")
	downloadCmd.Flags().StringVar(&flagExcludeRange, "exclude-range", "", "skip a range of chapter indices")
	downloadCmd.Flags().StringVar(&flagExcludeList, "exclude-list", "", "skip specific chapter indices")

	// runtime
	downloadCmd.Flags().StringVar(&flagOutput, "output", "", "output folder for CBZ files")
	downloadCmd.Flags().IntVar(&flagImageWorkers, "image-workers", 5, "parallel image downloads per chapter")
	downloadCmd.Flags().IntVar(&flagChapterWorkers, "chapter-workers", 2, "parallel chapter downloads")
	downloadCmd.Flags().BoolVar(&flagKeepFolders, "keep-folders", false, "keep temporary folders")
	downloadCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "show what would be downloaded, don't download")

	// descrambling
	downloadCmd.Flags().StringVar(&flagIntegration, "integration", "", "where the cipher is removed: page or transport")
	downloadCmd.Flags().BoolVar(&flagStrictGeometry, "strict-geometry", false, "drop pages whose segments overflow the declared height")

	// headers/auth
	downloadCmd.Flags().StringVar(&flagCookie, "cookie", "", "cookie string, e.g. \"key=value; other=123\"")
	downloadCmd.Flags().StringVar(&flagCookieFile, "cookie-file", "", "path to a text file with cookies (one header line)")
	downloadCmd.Flags().StringVar(&flagUserAgent, "user-agent", "", "override User-Agent")
	downloadCmd.Flags().BoolVar(&flagBypassCloudflare, "bypass-cloudflare", false, "use a browser-like TLS fingerprint")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	manga := flagManga
	if len(args) == 1 {
		manga = args[0]
	}

	s, usedPath, err := newSession(config.Options{
		Output:              flagOutput,
		KeepFolders:         flagKeepFolders,
		Integration:         flagIntegration,
		StrictGeometry:      flagStrictGeometry,
		DefaultManga:        manga,
		DefaultRange:        flagRange,
		DefaultList:         flagList,
		DefaultExcludeRange: flagExcludeRange,
		DefaultExcludeList:  flagExcludeList,
		Cookie:              flagCookie,
		CookieFile:          flagCookieFile,
		UserAgent:           flagUserAgent,
		BypassCloudflare:    flagBypassCloudflare,
	})
	if err != nil {
		return err
	}
	cfg, log := s.cfg, s.log

	if cmd.Flags().Changed("image-workers") {
		cfg.ImageWorkers = flagImageWorkers
	}
	if cmd.Flags().Changed("chapter-workers") {
		cfg.ChapterWorkers = flagChapterWorkers
	}

	if usedPath != "" {
		fmt.Printf("Config file: %s\n", usedPath)
	}

	fmt.Println("Full config:")
	cfg.Print()
	fmt.Println()

	if cfg.DefaultManga == "" {
		return fmt.Errorf("missing manga id (argument or --manga) and no default_manga in config")
	}
	id, err := cuutruyen.ParseRef(cfg.DefaultManga)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Output, 0755); err != nil {
		return fmt.Errorf("cannot create output folder: %w", err)
	}

	ctx, cancel := util.InterruptContext(commandContext(cmd), cfg.Output)
	defer cancel()

	m, err := s.source.Details(ctx, id)
	if err != nil {
		return err
	}

	all := chapters.Wrap(m.Chapters)
	if flagChapter == "" && cfg.DefaultRange == "" && cfg.DefaultList == "" {
		fmt.Printf("Found %d chapters of %q.\n\n", len(all), m.Title)
	}

	selected := chapters.Filter(all, flagChapter, cfg.DefaultRange, cfg.DefaultList)
	if flagChapter != "" && len(selected) == 0 {
		return fmt.Errorf("chapter '%s' not found", flagChapter)
	}
	selected = chapters.Exclude(all, selected, cfg.DefaultExcludeRange, cfg.DefaultExcludeList)

	if len(selected) == 0 {
		return fmt.Errorf("no chapters selected")
	}

	if flagDryRun {
		fmt.Printf("Dry-run: %d chapters selected.\n\n", len(selected))
		for i, ch := range selected {
			fmt.Printf("%3d) %s  [%s]\n    %s\n", i+1, ch.Title, ch.Label, ch.OutputCBZPath(cfg.Output))
		}
		return nil
	}

	pm := ui.NewProgressManager()

	stats := &ui.Stats{}
	dl := downloader.New(s.client, s.pipeline(), log)
	start := time.Now()

	sem := make(chan struct{}, max(1, cfg.ChapterWorkers))
	var wg sync.WaitGroup

	for _, ch := range selected {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			clog := log.With("chapter", ch.Label)
			files, bytes, err := downloadChapter(ctx, s, dl, m, ch, pm, clog)
			if err != nil {
				clog.Errorf("chapter failed: %v", err)
				stats.FailedChapter.Add(1)
				return
			}

			stats.TotalChapters.Add(1)
			stats.TotalImages.Add(int64(len(files.kept)))
			stats.DroppedImages.Add(int64(files.total - len(files.kept)))
			stats.TotalBytes.Add(bytes)
		}()
	}
	wg.Wait()
	pm.Close()

	fmt.Println()
	fmt.Println("Download Summary:")
	fmt.Printf("Chapters: %d\n", stats.TotalChapters.Load())
	if n := stats.FailedChapter.Load(); n > 0 {
		fmt.Printf("Failed:   %d\n", n)
	}
	fmt.Printf("Images:   %d\n", stats.TotalImages.Load())
	if n := stats.DroppedImages.Load(); n > 0 {
		fmt.Printf("Dropped:  %d\n", n)
	}
	fmt.Printf("Data:     %s\n", util.Human(stats.TotalBytes.Load()))
	fmt.Printf("Time:     %s\n", time.Since(start).Round(time.Second))

	if stats.TotalChapters.Load() == 0 {
		return errors.New("no chapter could be downloaded")
	}

	fmt.Println("\nAll done.")
	return nil
}

type chapterFiles struct {
	kept  []string
	total int
}

func downloadChapter(
	ctx context.Context,
	s *session,
	dl *downloader.Downloader,
	m *providers.Manga,
	ch chapters.Chapter,
	pm *ui.ProgressManager,
	log *ui.Logger,
) (chapterFiles, int64, error) {
	handle := pm.Register("Ch." + ch.Label)

	pages, err := s.source.Pages(ctx, ch.ID)
	if err != nil || len(pages) == 0 {
		handle.Fail()
		if err == nil {
			err = downloader.ErrNoPages
		}
		return chapterFiles{}, 0, err
	}
	handle.SetTotal(len(pages))

	tmpFolder := filepath.Join(s.cfg.Output, ch.FolderName())
	cbzOut := ch.OutputCBZPath(s.cfg.Output)

	files, bytes, err := dl.DownloadPages(ctx, pages, tmpFolder, s.source.BaseURL()+"/", max(1, s.cfg.ImageWorkers), handle, log)
	if err != nil {
		_ = os.RemoveAll(tmpFolder)
		return chapterFiles{}, bytes, err
	}

	info := &util.ComicInfo{
		Title:      ch.Title,
		Series:     m.Title,
		Number:     ch.Label,
		Writer:     m.Author,
		Translator: ch.Scanlator,
		Web:        m.PublicURL,
		Language:   "vi",
	}
	if err := util.CreateCBZ(files, cbzOut, info); err != nil {
		_ = os.RemoveAll(tmpFolder)
		return chapterFiles{}, bytes, err
	}

	if !s.cfg.KeepFolders {
		util.CleanupFolder(tmpFolder)
	}

	return chapterFiles{kept: files, total: len(pages)}, bytes, nil
}
