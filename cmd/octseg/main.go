package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/banshee-data/oct.dataset/internal/annotation"
	"github.com/banshee-data/oct.dataset/internal/archive"
	"github.com/banshee-data/oct.dataset/internal/config"
	"github.com/banshee-data/oct.dataset/internal/dataset"
	"github.com/banshee-data/oct.dataset/internal/export"
	"github.com/banshee-data/oct.dataset/internal/fsutil"
	"github.com/banshee-data/oct.dataset/internal/imaging"
	"github.com/banshee-data/oct.dataset/internal/monitoring"
	"github.com/banshee-data/oct.dataset/internal/version"
)

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case "generate":
		handleGenerate(ctx, args)
	case "generate-training":
		handleGenerateTraining(ctx, args)
	case "generate-test":
		handleGenerateTest(ctx, args)
	case "partition":
		handlePartition(args)
	case "check-order":
		handleCheckOrder(ctx, args)
	case "fractions":
		handleFractions(ctx, args)
	case "trim":
		handleTrim(ctx, args)
	case "export-labelme":
		handleExportLabelme(args)
	case "merge":
		handleMerge(args)
	case "version":
		fmt.Printf("octseg %s\n", version.String())
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`octseg - OCT layer annotation to segmentation dataset converter

Usage: octseg <command> [options]

Commands:
  generate           Build an unsplit dataset archive from one directory
  generate-training  Build train_ and val_ groups from two directories
  generate-test      Build a test_ group from one directory
  partition          Randomly split annotation files into training/validation/test
  check-order        Report mask columns whose classes are out of order
  fractions          Average class fractions over a mask directory
  trim               Trim masks and images to the rows holding layers
  export-labelme     Write layer-annotation JSON from an archive group
  merge              Paste left and right crops back onto a raw scan
  version            Show version information
  help               Show this help message

Common Flags:
  -config <file>     Dataset configuration (JSON or YAML); defaults are built in
  -format <name>     Annotation format: visual, wayne, labelme or mask
  -debug-dir <dir>   Write per-sample debug artifacts (generate commands)

Examples:
  octseg generate -format wayne -input ./annotated -output dataset.db
  octseg generate-training -format labelme -train ./split/training -val ./split/validation -output train.db
  octseg partition -format visual -input ./all -output ./split -seed 7
  octseg fractions -input ./masks -classes 4 -html fractions.html`)
}

// commonFlags registers the flags shared by the dataset commands.
type commonFlags struct {
	config *string
	format *string
}

func addCommon(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		config: fs.String("config", "", "Path to dataset configuration file"),
		format: fs.String("format", "wayne", "Annotation format: visual, wayne, labelme or mask"),
	}
}

func (c commonFlags) load() (*config.Config, annotation.Format) {
	cfg := config.Defaults()
	if *c.config != "" {
		loaded, err := config.Load(*c.config)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = loaded
	}
	format, err := annotation.ParseFormat(*c.format)
	if err != nil {
		log.Fatalf("%v", err)
	}
	return cfg, format
}

func options(cfg *config.Config, debugDir string) dataset.Options {
	opts := dataset.Options{Config: cfg, FS: fsutil.OSFileSystem{}}
	if debugDir != "" {
		w, err := export.NewDebugWriter(opts.FS, debugDir)
		if err != nil {
			log.Fatalf("failed to set up debug output: %v", err)
		}
		opts.Debug = w
	}
	return opts
}

func required(fs *flag.FlagSet, pairs ...string) {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			fmt.Fprintf(os.Stderr, "Error: -%s is required\n", pairs[i])
			fs.Usage()
			os.Exit(1)
		}
	}
}

func summarize(arc *archive.Archive) {
	defer arc.Close()
	groups, err := arc.Groups()
	if err != nil {
		log.Fatalf("failed to list archive groups: %v", err)
	}
	for _, g := range groups {
		name := g.Prefix
		if name == "" {
			name = "(all)"
		}
		fmt.Printf("%s: %d samples of %dx%d\n", name, g.Count, g.Width, g.Height)
	}
	fmt.Println("Wrote", arc.Path())
}

func handleGenerate(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	common := addCommon(fs)
	input := fs.String("input", "", "Directory of annotation files (required)")
	output := fs.String("output", "dataset.db", "Output archive path")
	debugDir := fs.String("debug-dir", "", "Directory for per-sample debug artifacts")
	fs.Parse(args)
	required(fs, "input", *input)

	cfg, format := common.load()
	arc, err := dataset.GenerateDataset(ctx, *input, *output, format, options(cfg, *debugDir))
	if err != nil {
		log.Fatalf("generate failed: %v", err)
	}
	summarize(arc)
}

func handleGenerateTraining(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("generate-training", flag.ExitOnError)
	common := addCommon(fs)
	train := fs.String("train", "", "Directory of training annotation files (required)")
	val := fs.String("val", "", "Directory of validation annotation files (required)")
	output := fs.String("output", "training.db", "Output archive path")
	debugDir := fs.String("debug-dir", "", "Directory for per-sample debug artifacts")
	fs.Parse(args)
	required(fs, "train", *train, "val", *val)

	cfg, format := common.load()
	arc, err := dataset.GenerateTrainingDataset(ctx, *train, *val, *output, format, options(cfg, *debugDir))
	if err != nil {
		log.Fatalf("generate-training failed: %v", err)
	}
	summarize(arc)
}

func handleGenerateTest(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("generate-test", flag.ExitOnError)
	common := addCommon(fs)
	input := fs.String("input", "", "Directory of test annotation files (required)")
	output := fs.String("output", "test.db", "Output archive path")
	debugDir := fs.String("debug-dir", "", "Directory for per-sample debug artifacts")
	fs.Parse(args)
	required(fs, "input", *input)

	cfg, format := common.load()
	arc, err := dataset.GenerateTestDataset(ctx, *input, *output, format, options(cfg, *debugDir))
	if err != nil {
		log.Fatalf("generate-test failed: %v", err)
	}
	summarize(arc)
}

func handlePartition(args []string) {
	fs := flag.NewFlagSet("partition", flag.ExitOnError)
	common := addCommon(fs)
	input := fs.String("input", "", "Directory of annotation files (required)")
	output := fs.String("output", "", "Directory to create the partitions in (required)")
	seed := fs.Uint64("seed", 0, "Random seed for the split")
	fs.Parse(args)
	required(fs, "input", *input, "output", *output)

	cfg, format := common.load()
	split, err := dataset.Partition(fsutil.OSFileSystem{}, *input, *output, format, cfg, *seed)
	if err != nil {
		log.Fatalf("partition failed: %v", err)
	}
	fmt.Printf("training: %d, validation: %d, test: %d\n", len(split.Training), len(split.Validation), len(split.Test))
}

func handleCheckOrder(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("check-order", flag.ExitOnError)
	common := addCommon(fs)
	input := fs.String("input", "", "Directory of dense masks (required)")
	classes := fs.Int("classes", 0, "Expected number of classes (defaults to expected_classes from config)")
	fs.Parse(args)
	required(fs, "input", *input)

	cfg, _ := common.load()
	expected := *classes
	if expected == 0 {
		expected = cfg.GetExpectedClasses()
	}
	reports, err := dataset.CheckOrder(ctx, *input, expected, dataset.Options{Config: cfg})
	if err != nil {
		log.Fatalf("check-order failed: %v", err)
	}
	bad := 0
	for _, r := range reports {
		if len(r.Issues) > 0 {
			bad++
		}
	}
	fmt.Printf("%d of %d masks have out-of-order columns\n", bad, len(reports))
}

func handleFractions(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("fractions", flag.ExitOnError)
	common := addCommon(fs)
	input := fs.String("input", "", "Directory of dense masks (required)")
	classes := fs.Int("classes", 0, "Number of classes (required)")
	html := fs.String("html", "", "Write an HTML bar chart to this path")
	fs.Parse(args)
	required(fs, "input", *input)
	if *classes < 1 {
		log.Fatalf("-classes must be positive")
	}

	cfg, _ := common.load()
	fractions, n, err := dataset.ClassFractions(ctx, *input, *classes, dataset.Options{Config: cfg})
	if err != nil {
		log.Fatalf("fractions failed: %v", err)
	}
	for k, f := range fractions {
		fmt.Printf("class %d: %.4f\n", k, f)
	}

	if *html == "" {
		return
	}
	names := []string{"background"}
	if layers, err := cfg.LayerSetForBoundaries(*classes - 1); err == nil {
		for _, l := range layers {
			names = append(names, "below "+l)
		}
	}
	var buf bytes.Buffer
	if err := export.FractionsReport(&buf, filepath.Base(*input), names, fractions, n); err != nil {
		log.Fatalf("failed to render report: %v", err)
	}
	if err := os.WriteFile(*html, buf.Bytes(), 0644); err != nil {
		log.Fatalf("failed to write report: %v", err)
	}
	fmt.Println("Wrote", *html)
}

func handleTrim(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("trim", flag.ExitOnError)
	common := addCommon(fs)
	input := fs.String("input", "", "Directory of dense masks and images (required)")
	output := fs.String("output", "", "Directory for the trimmed files (required)")
	fs.Parse(args)
	required(fs, "input", *input, "output", *output)

	cfg, _ := common.load()
	win, err := dataset.Trim(ctx, *input, *output, dataset.Options{Config: cfg})
	if err != nil {
		log.Fatalf("trim failed: %v", err)
	}
	fmt.Printf("kept rows [%d, %d), height %d\n", win.Top, win.Bottom, win.Height())
}

func handleExportLabelme(args []string) {
	fs := flag.NewFlagSet("export-labelme", flag.ExitOnError)
	common := addCommon(fs)
	archivePath := fs.String("archive", "", "Dataset archive (required)")
	prefix := fs.String("prefix", archive.PrefixTest, "Archive group prefix")
	output := fs.String("output", "", "Directory for the JSON files (required)")
	fs.Parse(args)
	required(fs, "archive", *archivePath, "output", *output)

	cfg, _ := common.load()
	arc, err := archive.Open(*archivePath)
	if err != nil {
		log.Fatalf("failed to open archive: %v", err)
	}
	defer arc.Close()

	n, err := export.ExportLabelme(arc, *prefix, *output, fsutil.OSFileSystem{}, cfg)
	if err != nil {
		log.Fatalf("export-labelme failed: %v", err)
	}
	fmt.Printf("Wrote %d annotations to %s\n", n, *output)
}

func handleMerge(args []string) {
	fs := flag.NewFlagSet("merge", flag.ExitOnError)
	common := addCommon(fs)
	rawPath := fs.String("raw", "", "Raw scan image (required)")
	leftPath := fs.String("left", "", "Left crop image (required)")
	rightPath := fs.String("right", "", "Right crop image (required)")
	output := fs.String("output", "merged.png", "Output PNG path")
	fs.Parse(args)
	required(fs, "raw", *rawPath, "left", *leftPath, "right", *rightPath)

	cfg, _ := common.load()
	var imgs []image.Image
	for _, p := range []string{*rawPath, *leftPath, *rightPath} {
		data, err := os.ReadFile(p)
		if err != nil {
			log.Fatalf("failed to read %s: %v", p, err)
		}
		img, err := imaging.Decode(data)
		if err != nil {
			log.Fatalf("failed to decode %s: %v", p, err)
		}
		imgs = append(imgs, img)
	}

	merged, err := export.MergeSides(imgs[0], imgs[1], imgs[2], cfg)
	if err != nil {
		log.Fatalf("merge failed: %v", err)
	}
	data, err := imaging.EncodePNG(merged)
	if err != nil {
		log.Fatalf("failed to encode merged image: %v", err)
	}
	if err := os.WriteFile(*output, data, 0644); err != nil {
		log.Fatalf("failed to write %s: %v", *output, err)
	}
	monitoring.Infof("merged %s and %s onto %s", *leftPath, *rightPath, *rawPath)
	fmt.Println("Wrote", *output)
}
