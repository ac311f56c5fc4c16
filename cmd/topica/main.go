package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cognicore/topica/internal/logger"
	"github.com/cognicore/topica/internal/metrics"
	"github.com/cognicore/topica/internal/version"
	"github.com/cognicore/topica/pkg/topica"
	"github.com/cognicore/topica/pkg/topica/assign"
	"github.com/cognicore/topica/pkg/topica/config"
	"github.com/cognicore/topica/pkg/topica/ingest"
	"github.com/cognicore/topica/pkg/topica/stoplist"
	"github.com/cognicore/topica/pkg/topica/store"
	"github.com/cognicore/topica/pkg/topica/store/memstore"
	"github.com/cognicore/topica/pkg/topica/store/sqlite"
	"github.com/cognicore/topica/pkg/topica/sweep"
)

func main() {
	_ = godotenv.Load()

	var (
		configPath = flag.String("config", "", "Config file (optional, defaults apply)")
		inputPath  = flag.String("input", "", "Input CSV or JSONL file (overrides config)")
		start      = flag.Int("start", 0, "First topic count of the sweep")
		limit      = flag.Int("limit", 0, "Sweep upper bound, exclusive")
		step       = flag.Int("step", 0, "Sweep step")
		topics     = flag.Int("topics", 0, "Topic count for dominant-topic assignment (0 = sweep only)")
		seed       = flag.Uint64("seed", 0, "Random seed for reproducible runs")
		outDir     = flag.String("out", "", "Output directory (overrides config)")
		measure    = flag.String("measure", "", "Coherence measure: c_v, u_mass, c_uci, c_npmi")
		logLevel   = flag.String("log-level", "", "Log level: debug, info, warn, error")
		suggest    = flag.Float64("suggest-stopwords", 0, "Write stopword candidates above this document-frequency percent (0 = off)")
		showVer    = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *showVer {
		fmt.Println(version.String())
		return
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatal("Failed to load config: ", err)
		}
		cfg = loaded
	}

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	overrides{
		input:    *inputPath,
		start:    *start,
		limit:    *limit,
		step:     *step,
		seed:     *seed,
		measure:  *measure,
		logLevel: *logLevel,
		outDir:   *outDir,
	}.apply(&cfg, set)
	if env := os.Getenv("TOPICA_ENV"); env != "" {
		cfg.Logging.Env = env
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	zl, err := logger.New(logger.Options{Env: cfg.Logging.Env, Level: cfg.Logging.Level})
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, zl)

	if err := run(ctx, cfg, *topics, *suggest); err != nil {
		zl.Error("run failed", zap.Error(err))
		_ = zl.Sync()
		os.Exit(1)
	}
}

// overrides holds the command-line values that replace config fields.
type overrides struct {
	input    string
	start    int
	limit    int
	step     int
	seed     uint64
	measure  string
	logLevel string
	outDir   string
}

// apply copies every flag named in set onto cfg. Sweep bounds are copied as
// given, zero and negative values included.
func (o overrides) apply(cfg *config.Config, set map[string]bool) {
	if set["input"] && o.input != "" {
		cfg.Input.Path = o.input
		cfg.Input.Format = ""
	}
	if set["start"] {
		cfg.Sweep.Start = o.start
	}
	if set["limit"] {
		cfg.Sweep.Limit = o.limit
	}
	if set["step"] {
		cfg.Sweep.Step = o.step
	}
	if set["seed"] {
		seed := o.seed
		cfg.LDA.Seed = &seed
	}
	if set["measure"] && o.measure != "" {
		cfg.Coherence.Measure = o.measure
	}
	if set["log-level"] && o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if set["out"] && o.outDir != "" {
		moveOutputs(cfg, o.outDir)
	}
}

// moveOutputs relocates every artifact path that still points into the
// configured output directory.
func moveOutputs(cfg *config.Config, dir string) {
	relocate := func(p string) string {
		if p == "" || filepath.Dir(p) != filepath.Clean(cfg.Output.Dir) {
			return p
		}
		return filepath.Join(dir, filepath.Base(p))
	}
	cfg.Sweep.PlotPath = relocate(cfg.Sweep.PlotPath)
	cfg.Sweep.TablePath = relocate(cfg.Sweep.TablePath)
	cfg.Store.Path = relocate(cfg.Store.Path)
	cfg.Output.Dir = dir
}

func run(ctx context.Context, cfg config.Config, topics int, suggestDF float64) error {
	log := logger.FromContext(ctx)
	metrics.Register()

	loader := config.Loader{Config: cfg}
	components, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load components: %w", err)
	}

	records, err := loadRecords(cfg)
	if err != nil {
		return err
	}
	log.Info("records loaded", zap.String("input", cfg.Input.Path), zap.Int("records", len(records)))

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}

	eng := topica.New(topica.Options{
		Store:       st,
		Pipeline:    components.Pipeline,
		LDA:         cfg.LDAConfig(),
		Coherence:   cfg.CoherenceOptions(),
		Keywords:    cfg.Output.Keywords,
		Filter:      cfg.Filter(),
		StripMarkup: cfg.Input.StripMarkup,
		SkipClean:   cfg.Input.SkipClean,
		Run: store.Run{
			Input:   cfg.Input.Path,
			Version: version.String(),
			Config:  cfg.Snapshot(),
		},
	})
	defer eng.Close()

	if _, err := eng.Prepare(ctx, records); err != nil {
		return err
	}

	if suggestDF > 0 {
		if err := writeStopwordCandidates(cfg, eng, components.Stoplist, suggestDF); err != nil {
			return err
		}
	}

	points, sweepErr := eng.Sweep(ctx, cfg.Range())
	if len(points) > 0 {
		for _, p := range points {
			fmt.Printf("Num Topics = %d has Coherence Value of %.4f\n", p.K, p.Coherence)
		}
		if err := writeSweep(cfg, points); err != nil {
			return err
		}
	}
	if sweepErr != nil {
		return fmt.Errorf("sweep: %w", sweepErr)
	}

	if topics > 0 {
		rows, err := eng.Assign(ctx, topics)
		if err != nil {
			return fmt.Errorf("assign: %w", err)
		}
		path := filepath.Join(cfg.Output.Dir, cfg.Output.TopicsFile)
		if err := writeAssignments(path, rows); err != nil {
			return err
		}
		for _, tc := range assign.TopicSummary(rows) {
			fmt.Printf("Topic %d: %d documents\n", tc.Topic, tc.Documents)
		}
		log.Info("assignments written", zap.String("path", path))
	}

	if cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			log.Warn("metrics textfile not written", zap.Error(err))
		}
	}
	if id := eng.RunID(); id != "" {
		log.Info("run recorded", zap.String("run", id), zap.String("store", cfg.Store.Path))
	}
	return nil
}

func loadRecords(cfg config.Config) ([]ingest.Record, error) {
	var (
		records []ingest.Record
		skipped int
		err     error
	)
	switch cfg.Input.Format {
	case "jsonl":
		records, skipped, err = ingest.LoadJSONL(cfg.Input.Path)
	default:
		records, skipped, err = ingest.LoadCSV(cfg.Input.Path, ingest.CSVOptions{
			IDColumn:   cfg.Input.IDColumn,
			TextColumn: cfg.Input.TextColumn,
			DateColumn: cfg.Input.DateColumn,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", cfg.Input.Path, err)
	}
	if skipped > 0 {
		metrics.DocumentsTotal.WithLabelValues("skipped").Add(float64(skipped))
	}
	if cfg.Input.SortByDate {
		ingest.SortByDate(records)
	}
	return records, nil
}

func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.Store.Driver {
	case "none":
		return nil, nil
	case "memory":
		return memstore.New(), nil
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
			return nil, err
		}
		st, err := sqlite.OpenSQLite(ctx, cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		return st, nil
	}
}

func writeSweep(cfg config.Config, points []sweep.Point) error {
	if err := os.MkdirAll(filepath.Dir(cfg.Sweep.TablePath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(cfg.Sweep.TablePath)
	if err != nil {
		return err
	}
	if err := sweep.WriteTable(f, points); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return sweep.Plot(points, cfg.Sweep.PlotPath)
}

func writeStopwordCandidates(cfg config.Config, eng *topica.Engine, stops *stoplist.Manager, dfPercent float64) error {
	th := stoplist.DefaultThresholds()
	th.DFPercent = dfPercent
	cands, err := eng.SuggestStopwords(stops, th)
	if err != nil {
		return fmt.Errorf("suggest stopwords: %w", err)
	}
	terms := make([]string, len(cands))
	for i, c := range cands {
		terms[i] = c.Token
		fmt.Printf("stopword candidate %-20s df=%5.1f%% npmi_max=%.3f\n", c.Token, c.DFPercent, c.NPMIMax)
	}

	path := filepath.Join(cfg.Output.Dir, "stopword_candidates.yaml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := stoplist.WriteTerms(f, terms); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeAssignments(path string, rows []assign.Assignment) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := assign.WriteCSV(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
