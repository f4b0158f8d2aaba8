// Command metriccalc prints WER, SER and CER for a reference/hypothesis pair.
//
//	metriccalc --ref "Ala ma kota" --hyp "Ala ma kotka"
//	metriccalc --ref-file ref.txt --hyp-file hyp.txt
//	metriccalc --ref-file s3://bucket/ref.txt --hyp-file s3://bucket/hyp.txt
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"transcript-metrics/analyzer"
	"transcript-metrics/utils"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	exitOK    = 0
	exitUsage = 2
)

var errUsage = errors.New("provide either --ref and --hyp, or --ref-file and --hyp-file")

type options struct {
	ref, hyp         string
	refFile, hypFile string
	set              map[string]bool
	cfg              analyzer.Config
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	logger := newLogger(stderr)
	defer logger.Sync()

	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		logger.Error("invalid arguments", zap.Error(err))
		return exitUsage
	}

	ref, hyp, err := readTexts(context.Background(), logger, opts)
	if err != nil {
		logger.Error("cannot read input", zap.Error(err))
		return exitUsage
	}

	report, err := analyzer.Compute(ref, hyp, opts.cfg)
	if err != nil {
		logger.Error("cannot compute metrics", zap.Error(err))
		return exitUsage
	}

	writeReport(stdout, report)
	return exitOK
}

func newLogger(w io.Writer) *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), zapcore.InfoLevel)
	return zap.New(core)
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("metriccalc", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		opts        options
		noLowercase bool
		noNormWS    bool
		split       string
	)
	opts.cfg = analyzer.DefaultConfig()

	fs.StringVar(&opts.ref, "ref", "", "reference text")
	fs.StringVar(&opts.hyp, "hyp", "", "hypothesis text")
	fs.StringVar(&opts.refFile, "ref-file", "", "reference file path or s3://bucket/key")
	fs.StringVar(&opts.hypFile, "hyp-file", "", "hypothesis file path or s3://bucket/key")
	fs.BoolVar(&noLowercase, "no-lowercase", false, "do not lowercase")
	fs.BoolVar(&opts.cfg.StripPunctuation, "strip-punct", false, "strip punctuation before scoring")
	fs.BoolVar(&noNormWS, "no-normalize-ws", false, "do not collapse whitespace")
	fs.StringVar(&split, "sentence-split", string(analyzer.SplitSimple), "sentence split for SER: simple or newline")
	fs.BoolVar(&opts.cfg.CERIncludeSpaces, "cer-include-spaces", false, "count spaces in CER")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	opts.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })

	mode, err := analyzer.ParseSplitMode(split)
	if err != nil {
		return options{}, err
	}
	opts.cfg.SentenceSplit = mode
	opts.cfg.Lowercase = !noLowercase
	opts.cfg.NormalizeWhitespace = !noNormWS

	return opts, nil
}

// readTexts prefers the file pair, then the literal pair
func readTexts(ctx context.Context, logger *zap.Logger, opts options) (string, string, error) {
	switch {
	case opts.refFile != "" && opts.hypFile != "":
		ref, err := readSource(ctx, logger, opts.refFile)
		if err != nil {
			return "", "", err
		}
		hyp, err := readSource(ctx, logger, opts.hypFile)
		if err != nil {
			return "", "", err
		}
		return ref, hyp, nil
	case opts.set["ref"] && opts.set["hyp"]:
		return opts.ref, opts.hyp, nil
	}
	return "", "", errUsage
}

func readSource(ctx context.Context, logger *zap.Logger, path string) (string, error) {
	if !strings.HasPrefix(path, "s3://") {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		return string(data), nil
	}

	bucket, key, err := utils.ParseS3URI(path)
	if err != nil {
		return "", err
	}
	if utils.S3Client == nil {
		for _, k := range []string{"S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY"} {
			if os.Getenv(k) == "" {
				return "", fmt.Errorf("%s is required to read %s", k, path)
			}
		}
		if err := utils.InitS3(logger); err != nil {
			return "", err
		}
	}
	data, err := utils.DownloadS3Object(ctx, bucket, key)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func pct(x float64) string {
	return fmt.Sprintf("%.2f%%", x*100)
}

func writeReport(w io.Writer, r analyzer.Report) {
	spaces := ""
	if r.CERIncludesSpaces {
		spaces = " incl. spaces"
	}
	fmt.Fprintf(w, "WER: %s (edits: %d / words: %d)\n", pct(r.WER.Ratio), r.WER.Errors, r.WER.Total)
	fmt.Fprintf(w, "SER: %s (error sentences: %d / total sentences: %d; split=%s)\n", pct(r.SER.Ratio), r.SER.Errors, r.SER.Total, r.SplitMode)
	fmt.Fprintf(w, "CER: %s (edits: %d / chars: %d%s)\n", pct(r.CER.Ratio), r.CER.Errors, r.CER.Total, spaces)
}
