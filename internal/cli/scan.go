package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/IrushiGunawardana/dotnet-ai-docgen/internal/indexer"
	"github.com/IrushiGunawardana/dotnet-ai-docgen/internal/watcher"
)

var (
	familyFlag  string
	ignoreFlag  []string
	outputFlag  string
	formatFlag  string
	noCacheFlag bool
	watchFlag   bool
	quietFlag   bool
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan [root]",
	Short: "Build the structural index of a project",
	Long: `Scan discovers the source files of one project family under root (default
the current directory), extracts their structure and writes the aggregated
index.

Families:
  dotnet   .cs .cshtml .razor (plus .sln/.csproj manifests)
  angular  .ts .html .css .scss
  html     .html .htm .css .js

Examples:
  # Index the current .NET solution into .docgen/index.json
  docgen scan

  # Index an Angular app as YAML on stdout
  docgen scan ./web --family angular --output - --format yaml

  # Keep the index up to date while editing
  docgen scan --watch
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	addFamilyFlags(scanCmd)
	scanCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "output file, - for stdout (default from config)")
	scanCmd.Flags().StringVar(&formatFlag, "format", "", "output format: json or yaml (default from config or extension)")
	scanCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "watch for changes and rebuild the index")
	scanCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "disable progress bars and non-error output")
}

// addFamilyFlags registers the flags shared by every command that scans.
func addFamilyFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&familyFlag, "family", "f", "", "project family: dotnet, angular or html (default from config)")
	cmd.Flags().StringSliceVar(&ignoreFlag, "ignore", nil, "additional directory patterns to ignore")
	cmd.Flags().BoolVar(&noCacheFlag, "no-cache", false, "always rescan instead of reusing a cached index")
}

func rootArg(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return "."
}

// signalContext cancels on Ctrl+C or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	stderr := cmd.ErrOrStderr()
	var progress indexer.ProgressReporter = &indexer.NoOpProgressReporter{}
	if !quietFlag {
		progress = NewCLIProgressReporter(stderr, false)
	}

	s, err := openSession(sessionParams{
		Root:     rootArg(args),
		Family:   familyFlag,
		Ignore:   ignoreFlag,
		NoCache:  noCacheFlag,
		Logger:   newLogger(stderr, verbose),
		Progress: progress,
	})
	if err != nil {
		return err
	}
	defer s.Close()

	summaryOut := cmd.OutOrStdout()
	if quietFlag {
		summaryOut = io.Discard
	}

	out := streams{stdout: cmd.OutOrStdout(), stderr: stderr, summary: summaryOut}
	if err := scanAndWrite(ctx, s, out); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("scan cancelled")
		}
		return err
	}
	if !watchFlag {
		return nil
	}
	return watchAndRescan(ctx, s, out)
}

// streams are the writers of one scan command. summary is io.Discard in
// quiet mode.
type streams struct {
	stdout, stderr, summary io.Writer
}

// scanAndWrite runs one scan, writes the index and prints the summary. When
// the index goes to stdout the summary goes to stderr instead.
func scanAndWrite(ctx context.Context, s *session, out streams) error {
	res, err := s.scan(ctx)
	if err != nil {
		return err
	}

	summaryOut := out.summary
	path := s.outputPath(outputFlag)
	format := s.outputFormat(formatFlag, path)
	destination := path
	if path == "-" {
		data, err := indexer.Marshal(res.Index, format)
		if err != nil {
			return err
		}
		if _, err := out.stdout.Write(data); err != nil {
			return fmt.Errorf("failed to write index: %w", err)
		}
		destination = "stdout"
		if summaryOut == out.stdout {
			summaryOut = out.stderr
		}
	} else if err := indexer.WriteIndex(path, res.Index, format); err != nil {
		return err
	}

	printSummary(summaryOut, res, destination, verbose)
	return nil
}

// watchAndRescan rebuilds the index whenever tracked files change, until ctx
// is cancelled. The watcher is paused while a scan runs so changes made
// during the scan trigger exactly one follow-up.
func watchAndRescan(ctx context.Context, s *session, out streams) error {
	w, err := watcher.NewFileWatcher(s.discovery, watcher.WithLogger(s.logger))
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Stop()

	trigger := make(chan []string, 1)
	if err := w.Start(ctx, func(files []string) {
		select {
		case trigger <- files:
		default:
		}
	}); err != nil {
		return err
	}
	s.logger.Info("watching for changes", "root", s.root, "family", s.req.Family)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("watch mode stopped")
			return nil
		case files := <-trigger:
			w.Pause()
			s.logger.Info("change detected, rescanning", "files", len(files))
			err := scanAndWrite(ctx, s, out)
			switch {
			case ctx.Err() != nil:
				return nil
			case errors.Is(err, indexer.ErrNoFiles):
				s.logger.Warn("no usable files after change", "error", err)
			case err != nil:
				s.logger.Error("rescan failed", "error", err)
			}
			w.Resume()
		}
	}
}
