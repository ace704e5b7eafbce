// Package main provides the xpbench CLI.
//
//	xpbench [run] <workload> <backend>   timing records on stdout
//	xpbench summary [file]               mean and speedup per backend and phase
//
// Logs go to stderr so stdout can be redirected straight into a CSV file.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/nu7hatch/gouuid"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"

	"github.com/born-ml/xpbench/internal/config"
	"github.com/born-ml/xpbench/internal/stats"
	"github.com/born-ml/xpbench/trial"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	app := config.New("xpbench", nil)
	app.Application().UsageWriter(stderr).ErrorWriter(stderr)

	cfg, err := app.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "xpbench: error: %v\n\n", err)
		app.Application().Usage(args)
		return 1
	}

	log, err := newLogger(stderr, cfg.Level())
	if err != nil {
		fmt.Fprintf(stderr, "xpbench: error: %v\n", err)
		return 1
	}

	switch cfg.Command {
	case config.CommandSummary:
		err = summarize(cfg.SummaryFile, stdin, stdout)
	default:
		err = benchmark(cfg, stdout, stderr, log)
	}
	if err != nil {
		log.Errorf("%v", err)
		return 1
	}
	return 0
}

// newLogger returns a stderr logger tagged with a fresh run id.
func newLogger(w io.Writer, level logrus.Level) (*logrus.Entry, error) {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05.100"})

	id, err := uuid.NewV4()
	if err != nil {
		return nil, errors.Wrap(err, "cannot generate run id")
	}
	return logger.WithField("run", id.String()), nil
}

func benchmark(cfg config.Config, stdout, stderr io.Writer, log *logrus.Entry) error {
	opts := trial.Options{
		Workload:    cfg.Workload,
		Backend:     cfg.Backend,
		Repetitions: cfg.Repetitions,
		Workers:     cfg.Workers,
		GPUBatch:    cfg.GPUBatch,
		Config:      cfg.WorkloadConfig(log),
		Sink:        trial.NewCSVSink(stdout),
		Logger:      log,
	}

	if cfg.Progress {
		bar := progressbar.NewOptions(cfg.Repetitions,
			progressbar.OptionSetWriter(stderr),
			progressbar.OptionSetDescription(fmt.Sprintf("%s on %s", cfg.Workload, cfg.Backend)),
			progressbar.OptionShowCount(),
		)
		opts.OnRepetition = func(int) { _ = bar.Add(1) }
		defer func() {
			_ = bar.Finish()
			fmt.Fprintln(stderr)
		}()
	}

	return trial.Execute(opts)
}

func summarize(path string, stdin io.Reader, stdout io.Writer) error {
	in := stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrap(err, "open records")
		}
		defer f.Close()
		in = f
	}

	samples, err := stats.ReadSamples(in)
	if err != nil {
		return err
	}
	return stats.Write(stdout, stats.Summarize(samples))
}
