package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/xhad/intentprep/internal/types"
	cfgPkg "github.com/xhad/intentprep/pkg/config"
	"github.com/xhad/intentprep/pkg/dataset"
	"github.com/xhad/intentprep/pkg/embedding"
	"github.com/xhad/intentprep/pkg/llm"
	"github.com/xhad/intentprep/pkg/processor"
	"github.com/xhad/intentprep/pkg/store"
	"github.com/xhad/intentprep/server"
)

type Options struct {
	Mode       string
	ConfigPath string
	Input      string
	Output     string
	Labels     string
	Addr       string
}

func main() {
	options := parseFlags()

	config, err := cfgPkg.LoadConfig(options.ConfigPath)
	if err != nil {
		log.Fatal(err)
	}
	if errs := config.Validate(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("config: %v", e)
		}
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, options, config); err != nil {
		log.Fatal(err)
	}
}

func parseFlags() Options {
	var options Options

	flag.StringVar(&options.Mode, "mode", "prepare", "One of prepare, embed, serve")
	flag.StringVar(&options.ConfigPath, "config", "", "Path to config file")
	flag.StringVar(&options.Input, "input", "", "Input CSV (raw documents for prepare, contexts for embed)")
	flag.StringVar(&options.Output, "output", "", "Output CSV for prepared contexts")
	flag.StringVar(&options.Labels, "labels", "", "Soft label vector, one value per line (embed mode)")
	flag.StringVar(&options.Addr, "addr", ":8080", "Listen address for serve mode")
	flag.Parse()

	return options
}

func run(ctx context.Context, options Options, config *cfgPkg.Config) error {
	switch options.Mode {
	case "prepare":
		return runPrepare(ctx, options, config)
	case "embed":
		return runEmbed(ctx, options, config)
	case "serve":
		srv := server.NewWSServer(server.Config{Threads: config.Pipeline.Threads})
		return srv.ListenAndServe(options.Addr)
	default:
		return fmt.Errorf("unknown mode %q", options.Mode)
	}
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("items"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func openStore(ctx context.Context, config *cfgPkg.Config) (types.Store, error) {
	return store.Open(ctx, store.Config{
		Backend:   config.Store.Backend,
		URL:       config.Store.URL,
		Path:      config.Store.Path,
		TableName: config.Store.TableName,
		VectorDim: config.Embedding.Dimension,
	})
}

func runPrepare(ctx context.Context, options Options, config *cfgPkg.Config) error {
	if options.Input == "" || options.Output == "" {
		return fmt.Errorf("prepare needs -input and -output")
	}

	documents, err := dataset.LoadDocuments(options.Input, config.Dataset.ContentIndex)
	if err != nil {
		return err
	}
	color.Green("✓ Loaded %d documents from %s", len(documents), options.Input)

	processingBar := getProgressBar(len(documents), "🔄 Processing documents...")
	startTime := time.Now()

	p := processor.NewWithConfig(processor.ProcessorConfig{
		Threads: config.Pipeline.Threads,
		OnProgress: func(done int) {
			processingBar.Set(done)
			elapsed := time.Since(startTime).Seconds()
			processingBar.Describe(color.BlueString(
				"🔄 Processing documents... (%.1f docs/sec)", float64(done)/elapsed))
		},
	})

	set, summary, err := p.Prepare(ctx, documents)
	if err != nil {
		return fmt.Errorf("failed to process documents: %v", err)
	}
	processingBar.Finish()
	color.Green("\n✓ Split into %d contexts\n", set.Len())

	if err := dataset.SaveContexts(options.Output, set); err != nil {
		return err
	}
	color.Green("✓ Saved contexts to %s", options.Output)

	s, err := openStore(ctx, config)
	if err != nil {
		return err
	}
	if s != nil {
		defer s.Close()
		if err := s.SaveContexts(ctx, set); err != nil {
			return fmt.Errorf("failed to store contexts: %v", err)
		}
		color.Green("✓ Stored contexts in %s backend", config.Store.Backend)
	}

	printSummary(p.Headers(), summary)
	return nil
}

func printSummary(headers []string, summary *processor.Summary) {
	color.Cyan("\n%-22s %10s", "statistic", "total")
	for _, name := range headers {
		fmt.Printf("%-22s %10d\n", name, summary.Totals[name])
	}
	fmt.Printf("%-22s %10d\n", "documents", summary.Documents)

	if len(summary.Domains) > 0 {
		shown := summary.Domains
		if len(shown) > 10 {
			shown = shown[:10]
		}
		color.Cyan("\nLinked domains (%d):", len(summary.Domains))
		for _, domain := range shown {
			fmt.Printf("  %s\n", domain)
		}
	}

	if len(summary.Defects) > 0 {
		color.Yellow("\n%d documents failed normalisation and were emptied:", len(summary.Defects))
		for _, d := range summary.Defects {
			color.Yellow("  #%d: %v", d.Index, d.Err)
		}
	}
}

func runEmbed(ctx context.Context, options Options, config *cfgPkg.Config) error {
	if options.Input == "" {
		return fmt.Errorf("embed needs -input")
	}

	set, err := dataset.LoadContexts(options.Input)
	if err != nil {
		return err
	}
	contexts := processor.RuntimeClean(set.Contexts)
	color.Green("✓ Loaded %d contexts from %s", len(contexts), options.Input)

	var labels []float64
	if options.Labels != "" {
		if labels, err = dataset.LoadVector(options.Labels); err != nil {
			return err
		}
	}

	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:     config.Embedding.Model,
		BaseURL:   config.Embedding.BaseURL,
		Dimension: config.Embedding.Dimension,
		RateLimit: config.Embedding.RateLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize embedder: %v", err)
	}

	probeSpinner := getSpinner("🔍 Checking embedding model...")
	err = embedder.Probe(ctx)
	probeSpinner.Finish()
	fmt.Print("\r")
	if err != nil {
		return err
	}

	var source types.EmbeddingSource = embedder
	s, err := openStore(ctx, config)
	if err != nil {
		return err
	}
	if s != nil {
		defer s.Close()
		source = embedding.NewStoredSource(embedder, s)
	}

	cache, err := embedding.NewCache(source, config.Embedding.Dimension)
	if err != nil {
		return err
	}

	seq, err := embedding.NewSequence(cache, contexts, labels, embedding.SequenceConfig{
		BatchSize:      config.Batching.BatchSize,
		MaxTokens:      config.Batching.MaxTokens,
		Midpoint:       config.Batching.Midpoint,
		UniformWeights: config.Batching.UniformWeights,
	})
	if err != nil {
		return err
	}
	if labels != nil {
		if err := seq.SetTraining(true); err != nil {
			return err
		}
	}

	embeddingBar := getProgressBar(seq.Len(), "🧮 Embedding batches...")
	var positives, samples int
	var weightSum float64
	for i := 0; i < seq.Len(); i++ {
		batch, err := seq.Batch(ctx, i)
		if err != nil {
			return fmt.Errorf("failed to embed batch %d: %v", i, err)
		}
		for j, label := range batch.Labels {
			if label {
				positives++
			}
			weightSum += float64(batch.Weights[j])
		}
		samples += batch.Inputs.Shape[0]
		embeddingBar.Add(1)
	}
	embeddingBar.Finish()
	color.Green("\n✓ Embedded %d documents in %d batches\n", samples, seq.Len())

	stats := map[string]string{
		"distinct tokens": fmt.Sprint(cache.Len()),
		"dimension":       fmt.Sprint(cache.Dimension()),
		"batch size":      fmt.Sprint(config.Batching.BatchSize),
	}
	if labels != nil {
		stats["positive labels"] = fmt.Sprintf("%d / %d", positives, samples)
		if samples > 0 {
			stats["mean weight"] = fmt.Sprintf("%.4f", weightSum/float64(samples))
		}
	}
	printStats(stats)
	return nil
}

func printStats(stats map[string]string) {
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	color.Cyan("\n%-22s %12s", "statistic", "value")
	for _, name := range names {
		fmt.Printf("%-22s %12s\n", name, stats[name])
	}
}
