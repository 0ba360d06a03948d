package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/atikulmunna/weft"
	"github.com/atikulmunna/weft/internal/aggregator"
	"github.com/atikulmunna/weft/internal/hub"
	"github.com/atikulmunna/weft/internal/parser"
	"github.com/atikulmunna/weft/internal/server"
	"github.com/atikulmunna/weft/internal/tailer"
	"github.com/atikulmunna/weft/internal/watcher"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var watchCmd = &cobra.Command{
	Use:   "watch [paths...]",
	Short: "Watch metric logs and render them as a live table",
	Long: `Watch one or more metric log files (or glob patterns) and render
their records as a live table. Each file is replayed from the beginning so
the table shows the run's full history, then followed for new lines.

Field display rules come from the config file, e.g.:

  key: step
  fields:
    - pattern: step
    - pattern: loss
      goal: lower_is_better
      format: "%.2f"
    - pattern: (.*)_acc
      goal: higher_is_better
      format: "%.4f"
      name: ${1}

Examples:
  weft watch runs/train.log
  weft watch "runs/**/*.log" --serve 8080
  weft watch train.log --parser regex --pattern 'epoch (?P<epoch>\d+): loss=(?P<loss>[\d.]+)'
  weft watch train.log --output json > rows.jsonl`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

// fieldConfig mirrors one entry of the config file's ordered fields list.
type fieldConfig struct {
	Pattern string `mapstructure:"pattern"`
	Goal    string `mapstructure:"goal"`
	Format  string `mapstructure:"format"`
	Name    string `mapstructure:"name"`
	Hide    bool   `mapstructure:"hide"`
}

func runWatch(cmd *cobra.Command, args []string) error {
	// --- Set up context with graceful shutdown ---
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	// --- Initialize watcher ---
	w, err := watcher.New(args)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if w.Count() == 0 {
		return fmt.Errorf("no files matched the given patterns: %v", args)
	}

	fmt.Fprintf(os.Stderr, "weft watching %d file(s):\n", w.Count())
	for _, p := range w.Paths() {
		fmt.Fprintf(os.Stderr, "   • %s\n", p)
	}
	fmt.Fprintln(os.Stderr)

	// --- Initialize checkpoint and tailer ---
	ckpt, err := tailer.NewCheckpoint(filepath.Join(".", ".weft-state.json"))
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}
	t := tailer.New(w, ckpt)

	// --- Choose line parser ---
	lineParser, err := buildParser()
	if err != nil {
		return err
	}

	// --- Build the printer ---
	printer, err := buildPrinter()
	if err != nil {
		return err
	}

	// --- Start pipeline ---
	h := hub.New(t.Lines(), lineParser)
	records := h.Subscribe()

	agg := aggregator.New(h.Subscribe(), h.Dropped, h.Skipped, w.Count)

	go w.Start(ctx)
	go t.Start(ctx)
	go h.Start(ctx)
	go agg.Start(ctx)

	if servePort != "" {
		srv := server.New(h, agg, printer.Snapshot, servePort)
		go func() {
			if err := srv.Start(); err != nil {
				log.Printf("dashboard server stopped: %v", err)
			}
		}()
		fmt.Fprintf(os.Stderr, "dashboard: http://localhost:%s\n\n", servePort)
	}

	// --- Feed the table ---
	for rec := range records {
		if err := printer.Log(rec.Fields); err != nil {
			if errors.Is(err, weft.ErrOrphanUpdate) {
				log.Printf("skipping keyless record from %s before the first row", rec.Source)
				continue
			}
			_ = printer.Finalize()
			return err
		}
	}

	return printer.Finalize()
}

// buildParser constructs the line parser selected by --parser.
func buildParser() (parser.Parser, error) {
	switch strings.ToLower(parserName) {
	case "auto":
		return parser.NewAutoParser(), nil
	case "json":
		return parser.NewJSONParser(), nil
	case "logfmt":
		return parser.NewLogfmtParser(), nil
	case "regex":
		if regexPattern == "" {
			return nil, fmt.Errorf("--parser regex requires --pattern")
		}
		return parser.NewRegexParser(regexPattern)
	default:
		return nil, fmt.Errorf("unknown parser %q (want auto, json, logfmt, or regex)", parserName)
	}
}

// buildPrinter assembles the table printer from flags and the config file.
func buildPrinter() (*weft.Printer, error) {
	specs, err := fieldSpecs()
	if err != nil {
		return nil, err
	}

	var renderer weft.Renderer
	switch strings.ToLower(outputFmt) {
	case "json":
		renderer = weft.NewJSONRenderer(os.Stdout)
	case "live":
		renderer = weft.NewLiveRenderer(os.Stdout)
	default:
		return nil, fmt.Errorf("unknown output mode %q (want live or json)", outputFmt)
	}

	key := keyField
	if viper.IsSet("key") {
		key = viper.GetString("key")
	}

	return weft.NewPrinter(
		weft.WithKey(key),
		weft.WithFields(specs),
		weft.WithRenderer(renderer),
		weft.WithRefreshInterval(time.Duration(refreshMS)*time.Millisecond),
	)
}

// fieldSpecs reads the ordered field descriptor list from the config file.
func fieldSpecs() ([]weft.FieldSpec, error) {
	var configs []fieldConfig
	if err := viper.UnmarshalKey("fields", &configs); err != nil {
		return nil, fmt.Errorf("invalid fields config: %w", err)
	}

	specs := make([]weft.FieldSpec, 0, len(configs))
	for _, fc := range configs {
		goal, err := weft.ParseGoal(fc.Goal)
		if err != nil {
			return nil, err
		}
		specs = append(specs, weft.FieldSpec{
			Pattern: fc.Pattern,
			Goal:    goal,
			Format:  fc.Format,
			Name:    fc.Name,
			Hide:    fc.Hide,
		})
	}
	return specs, nil
}
