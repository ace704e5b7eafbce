// Package config registers xpbench's command line on a kingpin application.
// Every flag can also be set through an XPBENCH_<NAME> environment variable;
// an explicit flag wins over the environment.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/born-ml/xpbench/backend"
	"github.com/born-ml/xpbench/internal/dataset"
	"github.com/born-ml/xpbench/workload"
)

// EnvPrefix prefixes the environment variable of every flag.
const EnvPrefix = "XPBENCH"

// StrictEnv selects the strict array API for the spectral workload when it
// is present in the environment, whatever its value.
const StrictEnv = EnvPrefix + "_STRICT_ARRAY_API"

// Commands.
const (
	CommandRun     = "run"
	CommandSummary = "summary"
)

// Config is the parsed command line.
type Config struct {
	Command string

	// run
	Workload     string
	Backend      string
	Repetitions  int
	Samples      int
	Features     int
	SignalLength int
	SignalPolicy string
	Seed         uint64
	NPerSeg      int
	Strict       bool
	Progress     bool
	Workers      int
	GPUBatch     int

	// summary
	SummaryFile string

	LogLevel string
}

// App is the kingpin application with every xpbench flag registered.
type App struct {
	app     *kingpin.Application
	run     *kingpin.CmdClause
	summary *kingpin.CmdClause
	cfg     Config
	lookup  func(string) (string, bool)
}

// EnvName returns the environment variable that overrides flag name.
// For instance "signal-length" is "XPBENCH_SIGNAL_LENGTH".
func EnvName(name string) string {
	return fmt.Sprintf("%s_%s", EnvPrefix, strings.ToUpper(strings.ReplaceAll(name, "-", "_")))
}

// New registers the commands and flags. lookupEnv is used for the
// presence-based strict toggle; nil means os.LookupEnv.
func New(name string, lookupEnv func(string) (string, bool)) *App {
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	a := &App{
		app:    kingpin.New(name, "Times numerical workloads on interchangeable array backends."),
		lookup: lookupEnv,
	}
	a.app.HelpFlag.Short('h')

	a.flag("log-level", "Log level: debug, info, warn, error, fatal, panic.", "info").
		EnumVar(&a.cfg.LogLevel, "debug", "info", "warn", "warning", "error", "fatal", "panic")

	a.run = a.app.Command(CommandRun, "Run one warmup and N timed repetitions, printing <seconds>,<backend>,<phase> lines.").Default()
	a.run.Arg("workload", "Workload: "+strings.Join(workload.Names(), ", ")+".").Required().StringVar(&a.cfg.Workload)
	a.run.Arg("backend", "Backend: "+strings.Join(backend.Names(), ", ")+".").Required().StringVar(&a.cfg.Backend)

	cls := dataset.DefaultClassificationConfig()
	sig := dataset.DefaultSignalConfig()
	a.cmdFlag(a.run, "repetitions", "Number of timed repetitions after the warmup.", "10").IntVar(&a.cfg.Repetitions)
	a.cmdFlag(a.run, "samples", "Classification samples.", fmt.Sprint(cls.Samples)).IntVar(&a.cfg.Samples)
	a.cmdFlag(a.run, "features", "Classification features.", fmt.Sprint(cls.Features)).IntVar(&a.cfg.Features)
	a.cmdFlag(a.run, "signal-length", "Spectral signal length in samples.", fmt.Sprint(sig.Length)).IntVar(&a.cfg.SignalLength)
	a.cmdFlag(a.run, "signal-policy", "Spectral signal: "+strings.Join(dataset.SignalPolicies(), ", ")+".", string(sig.Policy)).
		EnumVar(&a.cfg.SignalPolicy, dataset.SignalPolicies()...)
	a.cmdFlag(a.run, "seed", "Seed of the synthetic data generators.", "0").Uint64Var(&a.cfg.Seed)
	a.cmdFlag(a.run, "nperseg", "Welch segment length.", "8").IntVar(&a.cfg.NPerSeg)
	a.cmdFlag(a.run, "progress", "Draw a progress bar on stderr.", "false").BoolVar(&a.cfg.Progress)
	a.cmdFlag(a.run, "workers", "tensor-CPU kernel goroutines; 0 uses every core.", "0").IntVar(&a.cfg.Workers)
	a.cmdFlag(a.run, "gpu-batch", "tensor-GPU command buffers per submission; 0 submits only at synchronization.", "0").IntVar(&a.cfg.GPUBatch)

	a.summary = a.app.Command(CommandSummary, "Aggregate timing records into mean seconds and speedup against reference-CPU.")
	a.summary.Arg("file", "Records file; stdin when omitted.").StringVar(&a.cfg.SummaryFile)

	return a
}

func (a *App) flag(name, help, def string) *kingpin.FlagClause {
	return a.app.Flag(name, help).Default(def).OverrideDefaultFromEnvar(EnvName(name))
}

func (a *App) cmdFlag(cmd *kingpin.CmdClause, name, help, def string) *kingpin.FlagClause {
	return cmd.Flag(name, help).Default(def).OverrideDefaultFromEnvar(EnvName(name))
}

// Application exposes the kingpin application for usage output.
func (a *App) Application() *kingpin.Application {
	return a.app
}

// Parse parses args (without the program name) and validates the result.
// Unknown workload or backend names are usage errors.
func (a *App) Parse(args []string) (Config, error) {
	cmd, err := a.app.Parse(args)
	if err != nil {
		return Config{}, errors.Wrap(err, "could not parse command line flags")
	}

	cfg := a.cfg
	cfg.Command = cmd
	_, cfg.Strict = a.lookup(StrictEnv)

	if cmd == CommandRun {
		if _, err := workload.Parse(cfg.Workload); err != nil {
			return cfg, err
		}
		if _, err := backend.Parse(cfg.Backend); err != nil {
			return cfg, err
		}
		if cfg.Repetitions < 1 {
			return cfg, errors.Errorf("repetitions must be at least 1, got %d", cfg.Repetitions)
		}
		if cfg.GPUBatch < 0 {
			return cfg, errors.Errorf("gpu-batch must not be negative, got %d", cfg.GPUBatch)
		}
	}
	return cfg, nil
}

// Level returns the configured logrus level.
func (c Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// WorkloadConfig maps the flags onto the workload configuration.
func (c Config) WorkloadConfig(logger logrus.FieldLogger) workload.Config {
	wc := workload.DefaultConfig()
	wc.Classification.Samples = c.Samples
	wc.Classification.Features = c.Features
	wc.Classification.Seed = c.Seed
	wc.Signal.Length = c.SignalLength
	wc.Signal.Policy = dataset.SignalPolicy(c.SignalPolicy)
	wc.Signal.Seed = c.Seed
	wc.NPerSeg = c.NPerSeg
	wc.Strict = c.Strict
	wc.Logger = logger
	return wc
}
