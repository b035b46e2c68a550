package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/IrushiGunawardana/dotnet-ai-docgen/internal/cache"
	"github.com/IrushiGunawardana/dotnet-ai-docgen/internal/config"
	"github.com/IrushiGunawardana/dotnet-ai-docgen/internal/indexer"
	"github.com/IrushiGunawardana/dotnet-ai-docgen/internal/indexer/extraction"
)

// sessionParams are the command-line overrides applied on top of the loaded
// configuration.
type sessionParams struct {
	Root     string
	Family   string
	Ignore   []string
	NoCache  bool
	Logger   *slog.Logger
	Progress indexer.ProgressReporter
}

// session owns everything one invocation needs: the resolved config, an
// indexer (whose extraction memo survives watch-mode re-runs) and the
// optional index cache.
type session struct {
	root      string
	cfg       *config.Config
	req       indexer.Request
	ix        *indexer.Indexer
	discovery *indexer.FileDiscovery
	cache     *cache.Cache
	logger    *slog.Logger
}

// scanOutcome is the result of one scan plus whether it came from the cache.
type scanOutcome struct {
	*indexer.Result
	Cached bool
}

func openSession(p sessionParams) (*session, error) {
	root, err := filepath.Abs(p.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	cfg, err := config.LoadConfigFromDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if p.Family != "" {
		cfg.Discovery.Family = p.Family
	}
	family := cfg.Family()
	if !family.Valid() {
		return nil, fmt.Errorf("%w: %q (supported: %v)", indexer.ErrUnknownFamily, family, indexer.Families())
	}

	fns := []indexer.Option{indexer.WithLogger(logger)}
	if p.Progress != nil {
		fns = append(fns, indexer.WithProgress(p.Progress))
	}
	ix, err := indexer.New(cfg.ToIndexerOptions(), fns...)
	if err != nil {
		return nil, fmt.Errorf("failed to create indexer: %w", err)
	}

	s := &session{
		root:   root,
		cfg:    cfg,
		req:    indexer.Request{Root: root, Family: family, IgnoreDirs: p.Ignore},
		ix:     ix,
		logger: logger,
	}
	s.discovery, err = indexer.NewFileDiscovery(root, family, ix.IgnorePatterns(s.req))
	if err != nil {
		ix.Close()
		return nil, err
	}

	if cfg.Cache.Enabled && !p.NoCache {
		dir, err := cfg.CacheDir()
		if err == nil {
			s.cache, err = cache.Open(dir)
		}
		if err != nil {
			// A broken cache never blocks a scan.
			logger.Warn("index cache unavailable", "error", err)
			s.cache = nil
		}
	}
	return s, nil
}

// Close releases the indexer and the cache.
func (s *session) Close() error {
	var err error
	if s.cache != nil {
		err = s.cache.Close()
	}
	s.ix.Close()
	return err
}

// scan returns the cached index when the discovered files are unchanged and
// otherwise runs the pipeline and refreshes the cache.
func (s *session) scan(ctx context.Context) (*scanOutcome, error) {
	fingerprint := ""
	if s.cache != nil {
		fingerprint = s.fingerprint(ctx)
		if fingerprint != "" {
			idx, ok, err := s.cache.Get(ctx, s.root, string(s.req.Family), fingerprint)
			if err != nil {
				s.logger.Warn("cache lookup failed", "error", err)
			}
			if ok {
				s.logger.Debug("index cache hit", "root", s.root, "family", s.req.Family)
				return &scanOutcome{Result: s.cachedResult(idx), Cached: true}, nil
			}
		}
	}

	res, err := s.ix.Run(ctx, s.req)
	if err != nil {
		return nil, err
	}
	if s.cache != nil && fingerprint != "" {
		if err := s.cache.Put(ctx, s.root, string(s.req.Family), fingerprint, res.Index); err != nil {
			s.logger.Warn("failed to update index cache", "error", err)
		}
	}
	return &scanOutcome{Result: res}, nil
}

// fingerprint summarizes the current tree and the extraction limits, or
// returns "" when it cannot be computed and the cache should be bypassed.
func (s *session) fingerprint(ctx context.Context) string {
	disc, err := s.discovery.Discover(ctx)
	if err != nil {
		s.logger.Debug("skipping cache, discovery failed", "error", err)
		return ""
	}
	files := append(append([]string(nil), disc.Files...), disc.ProjectFiles...)
	opts := s.ix.Options()
	fp, err := cache.Fingerprint(s.root, files,
		fmt.Sprintf("max_file_bytes=%d", opts.MaxFileBytes),
		fmt.Sprintf("file_timeout=%s", opts.FileTimeout))
	if err != nil {
		s.logger.Debug("skipping cache, fingerprint failed", "error", err)
		return ""
	}
	return fp
}

func (s *session) cachedResult(idx *extraction.ProjectIndex) *indexer.Result {
	return &indexer.Result{
		Index: idx,
		Report: &indexer.Report{
			RunID:           uuid.NewString(),
			Root:            s.root,
			Family:          s.req.Family,
			StartedAt:       time.Now(),
			FilesDiscovered: idx.Summary.Files,
			FilesScanned:    idx.Summary.Files,
			Skipped:         []indexer.SkippedFile{},
			Warnings:        []extraction.Issue{},
			Totals:          idx.Summary,
		},
	}
}

// outputPath resolves the configured or requested output path against the root.
func (s *session) outputPath(flag string) string {
	p := flag
	if p == "" {
		p = s.cfg.Output.Path
	}
	if p == "-" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.root, p)
}

// outputFormat picks the explicit format, then the configured one, then the
// one implied by the path.
func (s *session) outputFormat(flag, path string) indexer.Format {
	switch {
	case flag != "":
		return indexer.Format(flag)
	case s.cfg.Output.Format != "":
		return indexer.Format(s.cfg.Output.Format)
	default:
		return indexer.FormatForPath(path)
	}
}
