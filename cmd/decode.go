package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/brogergvhs/cuudl/internal/config"
	"github.com/brogergvhs/cuudl/internal/downloader"
	"github.com/brogergvhs/cuudl/internal/drm"
	"github.com/brogergvhs/cuudl/internal/ui"

	"github.com/spf13/cobra"
)

var (
	flagDecodeOut    string
	flagDecodeWidth  int
	flagDecodeHeight int
	flagDecodeDRM    string
	flagDecodeStrict bool
)

func init() {
	decodeCmd := &cobra.Command{
		Use:   "decode <file>",
		Short: "Descramble a page that was saved to disk",
		Long: "Runs the page pipeline on a local file. Pass the page's drm_data with --drm " +
			"(or --drm @file to read it from a file); without it the file itself is deciphered.",
		Args: cobra.ExactArgs(1),
		RunE: runDecode,
	}

	decodeCmd.Flags().StringVarP(&flagDecodeOut, "out", "o", "", "output path (default: next to the input)")
	decodeCmd.Flags().IntVar(&flagDecodeWidth, "width", 0, "declared page width (default: image width)")
	decodeCmd.Flags().IntVar(&flagDecodeHeight, "height", 0, "declared page height (default: image height)")
	decodeCmd.Flags().StringVar(&flagDecodeDRM, "drm", "", "base64 drm_data, or @path to read it from a file")
	decodeCmd.Flags().BoolVar(&flagDecodeStrict, "strict-geometry", false, "fail when segments overflow the declared height")

	rootCmd.AddCommand(decodeCmd)
}

func runDecode(_ *cobra.Command, args []string) error {
	cfg, _, err := config.LoadMerged(config.Options{
		IgnoreConfig:   flagIgnoreConfig,
		Debug:          flagDebug,
		StrictGeometry: flagDecodeStrict,
	})
	if err != nil {
		return err
	}
	log := ui.NewLogger(cfg.Debug)

	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	drmData := flagDecodeDRM
	if path, ok := strings.CutPrefix(drmData, "@"); ok {
		b, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read drm data: %w", err)
		}
		drmData = string(b)
	}

	p := drm.NewPipeline(drm.Options{
		Key:            cfg.CipherKey,
		Marker:         cfg.Marker,
		StrictGeometry: cfg.StrictGeometry,
		JPEGQuality:    cfg.JPEGQuality,
	})

	res, err := p.Process(drm.Input{
		Image:   data,
		DRMData: drmData,
		Width:   flagDecodeWidth,
		Height:  flagDecodeHeight,
	})
	if err != nil {
		var pe *drm.PageError
		if errors.As(err, &pe) {
			return fmt.Errorf("page cannot be recovered (%s): %w", pe.Kind, pe.Err)
		}
		return err
	}

	for _, f := range res.Fallbacks {
		log.With("stage", string(f.Kind)).Warnf("fallback: %s", f)
	}

	out := flagDecodeOut
	if out == "" {
		base := strings.TrimSuffix(args[0], filepath.Ext(args[0]))
		out = base + ".decoded" + downloader.ExtFor(res.ContentType)
	}

	if err := os.WriteFile(out, res.Data, 0644); err != nil {
		return err
	}

	if res.Descrambled {
		fmt.Printf("Descrambled %d segments into %s\n", len(res.Segments), out)
	} else {
		fmt.Printf("No scrambling found, wrote %s\n", out)
	}
	return nil
}
