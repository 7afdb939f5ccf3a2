package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"image_to_pdf/internal/converter"
	"image_to_pdf/internal/pdfinfo"
)

var (
	convertOutput  string
	convertQuality string
	convertTitle   string
	convertAuthor  string
	convertDate    string
	convertVerify  bool
	convertNoBar   bool
	convertEdits   pageEdits
)

var convertCmd = &cobra.Command{
	Use:   "convert [files or directories...]",
	Short: "Convert images into a PDF",
	Long: `Convert images into a PDF. Files are used in the order given; a directory
contributes its supported images sorted by name.

Pages can be rearranged by file name before converting:
  --drop name       leave the image out
  --move name:page  put the image on page number page
  --up name         swap the image with the one before it
  --down name       swap the image with the one after it
Edits run in that order: all drops, then moves, then ups, then downs.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "output PDF file (default: derived from the title)")
	convertCmd.Flags().StringVarP(&convertQuality, "quality", "q", "", "quality: low, medium, high")
	convertCmd.Flags().StringVar(&convertTitle, "title", "", "document title")
	convertCmd.Flags().StringVar(&convertAuthor, "author", "", "document author")
	convertCmd.Flags().StringVar(&convertDate, "date", "", "creation date (RFC 3339, default: now)")
	convertCmd.Flags().BoolVar(&convertVerify, "verify", false, "read the PDF back and check its pages")
	convertCmd.Flags().BoolVar(&convertNoBar, "no-progress", false, "disable the progress bar")
	convertCmd.Flags().StringArrayVar(&convertEdits.drop, "drop", nil, "leave out the named image (repeatable)")
	convertCmd.Flags().StringArrayVar(&convertEdits.move, "move", nil, "move an image to a page, as name:page (repeatable)")
	convertCmd.Flags().StringArrayVar(&convertEdits.up, "up", nil, "move the named image one page earlier (repeatable)")
	convertCmd.Flags().StringArrayVar(&convertEdits.down, "down", nil, "move the named image one page later (repeatable)")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	paths, err := collectImagePaths(args)
	if err != nil {
		return err
	}

	assembler := converter.NewAssembler()
	assembler.Creator = cfg.Conversion.Creator
	session := converter.NewSession(assembler, cfg.Upload.MaxFileSize)

	quality := cfg.Quality()
	if convertQuality != "" {
		quality = converter.ParseQuality(convertQuality)
	}
	session.SetQuality(quality)

	meta := converter.DocumentMetadata{Title: cfg.Conversion.Title, Author: cfg.Conversion.Author}
	if convertTitle != "" {
		meta.Title = convertTitle
	}
	if convertAuthor != "" {
		meta.Author = convertAuthor
	}
	if convertDate != "" {
		t, err := time.Parse(time.RFC3339, convertDate)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
		meta.CreationDate = t
	}
	session.SetMetadata(meta)

	rejected := addFiles(session, paths)
	if session.Len() == 0 {
		return fmt.Errorf("%w: %d file(s) rejected", converter.ErrNoImages, rejected)
	}

	if !convertEdits.empty() {
		if err := applyEdits(session, convertEdits); err != nil {
			return err
		}
		if session.Len() == 0 {
			return fmt.Errorf("%w: every image was dropped", converter.ErrNoImages)
		}
	}

	est := session.Estimate()
	logger.Info("Converting images", "count", session.Len(), "rejected", rejected,
		"title", session.Metadata().Title, "quality", session.Quality(),
		"original", converter.FormatSize(est.OriginalBytes), "estimated", converter.FormatSize(est.EstimatedBytes))

	var onProgress converter.ProgressFunc
	if !convertNoBar {
		bar := newProgressBar(cmd.ErrOrStderr(), "Converting")
		defer bar.Finish()
		onProgress = bar.Set
	}

	result, err := session.Convert(onProgress)
	if err != nil {
		return err
	}

	if convertVerify {
		if err := verify(result); err != nil {
			return err
		}
	}

	output := convertOutput
	if output == "" {
		output = converter.OutputFilename(result.Metadata.Title)
	}
	if err := os.WriteFile(output, result.PDF, 0o644); err != nil {
		return fmt.Errorf("could not write %s: %w", output, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✅ Created '%s' (%d pages, %s)\n", output, result.PageCount, converter.FormatSize(result.Size()))
	return nil
}

// collectImagePaths expands directories into their supported image files, sorted by name.
func collectImagePaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("could not read directory %s: %w", arg, err)
		}
		var names []string
		for _, e := range entries {
			if !e.IsDir() && converter.ContentTypeFromFilename(e.Name()) != "" {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
		for _, name := range names {
			paths = append(paths, filepath.Join(arg, name))
		}
	}
	if len(paths) == 0 {
		return nil, converter.ErrNoImages
	}
	return paths, nil
}

// addFiles reads each path into the session and returns how many were rejected.
func addFiles(session *converter.Session, paths []string) int {
	rejected := 0
	for _, path := range paths {
		name := filepath.Base(path)
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("Could not read file, skipping", "file", path, "error", err)
			rejected++
			continue
		}
		if _, err := session.Add(name, converter.ContentTypeFromFilename(name), data); err != nil {
			var vErr *converter.ValidationError
			if errors.As(err, &vErr) {
				logger.Warn("Rejected file", "file", path, "reason", vErr.Reason)
			} else {
				logger.Warn("Could not add file", "file", path, "error", err)
			}
			rejected++
		}
	}
	return rejected
}

func verify(result *converter.ConversionResult) error {
	info, err := pdfinfo.Inspect(result.PDF)
	if err != nil {
		return err
	}
	if info.PageCount != result.PageCount {
		return fmt.Errorf("verification failed: expected %d pages, found %d", result.PageCount, info.PageCount)
	}
	logger.Info("Verified PDF", "pages", info.PageCount)
	return nil
}
