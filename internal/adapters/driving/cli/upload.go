package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/accord/internal/core/domain"
	"github.com/custodia-labs/accord/internal/core/ports/driving"
	"github.com/custodia-labs/accord/internal/logger"
)

// watchSettle is how long a file must be quiet before it is ingested.
const watchSettle = 500 * time.Millisecond

var (
	uploadSkipUnchanged bool
	uploadWatchDir      string
)

var uploadCmd = &cobra.Command{
	Use:   "upload [files...]",
	Short: "Ingest local agreement files",
	Long: `Extracts the text of each file (PDF, DOCX or plain text), embeds it and
stores it in the vector store. A failing file does not stop the others.

With --watch, files created or written in the directory are ingested as
they appear until the command is interrupted.`,
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().BoolVar(&uploadSkipUnchanged, "skip-unchanged", false, "skip files already ingested with the same content")
	uploadCmd.Flags().StringVar(&uploadWatchDir, "watch", "", "watch a directory and ingest new or changed files")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && uploadWatchDir == "" {
		return fmt.Errorf("%w: no files given", domain.ErrInvalidInput)
	}

	rt, err := runtimeOrErr()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	svc, err := rt.Ingest(ctx, uploadSkipUnchanged)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var report domain.IngestReport
	for _, path := range args {
		if ctx.Err() != nil {
			report.Items = append(report.Items, domain.IngestItem{Name: path, Err: ctx.Err()})
			continue
		}
		item := uploadFile(ctx, svc, path)
		printItem(out, item)
		report.Items = append(report.Items, item)
	}
	if len(args) > 0 {
		printSummary(out, report)
	}

	if uploadWatchDir != "" {
		if err := watchDirectory(ctx, out, svc, uploadWatchDir); err != nil {
			return err
		}
	}

	if failed := report.Failed(); len(failed) > 0 {
		return fmt.Errorf("%d of %d files failed", len(failed), len(report.Items))
	}
	return nil
}

func uploadFile(ctx context.Context, svc driving.IngestService, path string) domain.IngestItem {
	content, err := os.ReadFile(path)
	if err != nil {
		return domain.IngestItem{Name: path, Err: fmt.Errorf("read file: %w", err)}
	}
	return svc.IngestFile(ctx, domain.FileInput{Name: path, Content: content})
}

func printItem(w io.Writer, item domain.IngestItem) {
	p := newPainter(w)
	switch {
	case item.Err != nil:
		fmt.Fprintf(w, "%s %s: %v\n", p.paint(failStyle, "error"), item.Name, item.Err)
	case item.Skipped:
		fmt.Fprintf(w, "%s %s (unchanged)\n", p.paint(dimStyle, "skip "), item.Name)
	default:
		fmt.Fprintf(w, "%s %s -> %s", p.paint(okStyle, "ok   "), item.Name, item.Key)
		if item.Path == domain.EmbeddingFallback {
			fmt.Fprint(w, " (fallback embedding)")
		}
		fmt.Fprintln(w)
	}
}

func printSummary(w io.Writer, report domain.IngestReport) {
	fmt.Fprintf(w, "\n%d of %d succeeded", report.Succeeded(), len(report.Items))
	if failed := len(report.Failed()); failed > 0 {
		fmt.Fprintf(w, ", %d failed", failed)
	}
	fmt.Fprintln(w)
}

// watchDirectory ingests files created or written in dir until ctx ends.
func watchDirectory(ctx context.Context, out io.Writer, svc driving.IngestService, dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", dir)

	watchLoop(ctx, watcher.Events, watcher.Errors, watchSettle, func(path string) {
		item := uploadFile(ctx, svc, path)
		if errors.Is(item.Err, domain.ErrUnsupportedType) {
			logger.Debug("watch: ignoring %s: %v", path, item.Err)
			return
		}
		printItem(out, item)
	})
	return nil
}

// watchLoop calls handle once per path after the path has been quiet for
// settle. Paths are handled one at a time in the order they settle.
func watchLoop(
	ctx context.Context,
	events <-chan fsnotify.Event,
	errs <-chan error,
	settle time.Duration,
	handle func(path string),
) {
	pending := make(map[string]time.Time)
	var order []string

	ticker := time.NewTicker(settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if strings.HasPrefix(filepath.Base(ev.Name), ".") {
				continue
			}
			if _, seen := pending[ev.Name]; !seen {
				order = append(order, ev.Name)
			}
			pending[ev.Name] = time.Now()

		case err, ok := <-errs:
			if !ok {
				return
			}
			logger.Warn("watch: %v", err)

		case now := <-ticker.C:
			remaining := order[:0]
			for _, path := range order {
				if now.Sub(pending[path]) < settle {
					remaining = append(remaining, path)
					continue
				}
				delete(pending, path)
				if info, err := os.Stat(path); err != nil || info.IsDir() {
					continue
				}
				handle(path)
			}
			order = remaining
		}
	}
}
