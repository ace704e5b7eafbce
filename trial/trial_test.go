// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package trial_test

import (
	"bytes"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus/hooks/test"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/mock"

	"github.com/born-ml/xpbench/backend"
	"github.com/born-ml/xpbench/trial"
	"github.com/born-ml/xpbench/trial/mocks"
	"github.com/born-ml/xpbench/workload"
)

// scripted is a workload whose phases do nothing except log into events and
// optionally fail at a given invocation (0 is the warmup) and phase.
type scripted struct {
	phases      []string
	events      *[]string
	invocation  int
	failAt      int
	failPhase   string
	invocations int
}

func (s *scripted) Kind() workload.Kind { return workload.Classification }
func (s *scripted) Phases() []string    { return s.phases }

func (s *scripted) Run(m workload.Meter) error {
	defer func() { s.invocation++ }()
	s.invocations++
	for _, phase := range s.phases {
		err := m.Measure(phase, func() error {
			*s.events = append(*s.events, phase)
			if s.invocation == s.failAt && (s.failPhase == "" || s.failPhase == phase) {
				return errors.New("backend exploded")
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// eventSink records emits into the shared event log.
type eventSink struct {
	trial.MemorySink
	events *[]string
}

func (s *eventSink) Emit(r trial.Record) error {
	*s.events = append(*s.events, "emit:"+r.Phase)
	return s.MemorySink.Emit(r)
}

// tickingClock advances by one millisecond on every reading.
func tickingClock() func() time.Time {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Millisecond)
		return now
	}
}

func newBarrier(events *[]string) *mocks.Barrier {
	barrier := &mocks.Barrier{}
	barrier.On("Synchronize").Return(nil).Run(func(mock.Arguments) {
		*events = append(*events, "sync")
	})
	return barrier
}

func TestRunner(t *testing.T) {
	logger, _ := test.NewNullLogger()

	Convey("Given a classification workload on tensor-GPU with a mocked barrier", t, func() {
		var events []string
		barrier := newBarrier(&events)
		sink := &eventSink{events: &events}
		w := &scripted{phases: []string{workload.PhaseFit, workload.PhasePredict}, events: &events, failAt: -1}

		runner, err := trial.NewRunner(trial.Config{
			Backend:     "tensor-GPU",
			Repetitions: 3,
			Barrier:     barrier,
			Sink:        sink,
			Clock:       tickingClock(),
			Logger:      logger,
		})
		So(err, ShouldBeNil)

		Convey("When the trial runs", func() {
			So(runner.Run(w), ShouldBeNil)

			Convey("It emits 3 fit and 3 predict records", func() {
				records := sink.Records()
				So(records, ShouldHaveLength, 6)
				for i, r := range records {
					So(r.Backend, ShouldEqual, "tensor-GPU")
					So(r.Phase, ShouldEqual, w.phases[i%2])
					So(r.Elapsed, ShouldEqual, time.Millisecond)
				}
			})

			Convey("It runs one extra warmup invocation", func() {
				So(w.invocations, ShouldEqual, 4)
			})

			Convey("It synchronizes exactly twice around every phase", func() {
				barrier.AssertNumberOfCalls(t, "Synchronize", 2*2*4)

				warmup := []string{"sync", "fit", "sync", "sync", "predict", "sync"}
				rep := []string{"sync", "fit", "sync", "emit:fit", "sync", "predict", "sync", "emit:predict"}
				want := append([]string(nil), warmup...)
				for range 3 {
					want = append(want, rep...)
				}
				So(events, ShouldResemble, want)
			})
		})

		Convey("When the warmup fails", func() {
			w.failAt = 0
			err := runner.Run(w)

			Convey("It returns the error and emits nothing", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "warmup")
				So(err.Error(), ShouldContainSubstring, "backend exploded")
				So(sink.Records(), ShouldBeEmpty)
				So(w.invocations, ShouldEqual, 1)
			})
		})

		Convey("When repetition 2 fails in its first phase", func() {
			w.failAt = 2
			w.failPhase = workload.PhaseFit
			err := runner.Run(w)

			Convey("Only repetition 1 is recorded", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "repetition 2")
				So(sink.Records(), ShouldHaveLength, 2)
			})
		})

		Convey("When repetition 2 fails in predict", func() {
			w.failAt = 2
			w.failPhase = workload.PhasePredict
			err := runner.Run(w)

			Convey("The phases before the failure point are recorded", func() {
				So(err, ShouldNotBeNil)
				records := sink.Records()
				So(records, ShouldHaveLength, 3)
				So(records[2].Phase, ShouldEqual, workload.PhaseFit)
			})
		})
	})

	Convey("Given a barrier that fails", t, func() {
		barrier := &mocks.Barrier{}
		barrier.On("Synchronize").Return(errors.New("queue lost"))
		var events []string
		sink := &trial.MemorySink{}

		runner, err := trial.NewRunner(trial.Config{
			Backend: "GPU-array", Repetitions: 2, Barrier: barrier, Sink: sink, Logger: logger,
		})
		So(err, ShouldBeNil)

		Convey("The trial aborts before the phase runs", func() {
			w := &scripted{phases: []string{"true"}, events: &events, failAt: -1}
			err := runner.Run(w)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "queue lost")
			So(events, ShouldBeEmpty)
			So(sink.Records(), ShouldBeEmpty)
		})
	})

	Convey("Given a sink that cannot flush", t, func() {
		var events []string
		sink := &mocks.Sink{}
		sink.On("Emit", mock.Anything).Return(nil)
		sink.On("Flush").Return(errors.New("disk full"))

		runner, err := trial.NewRunner(trial.Config{
			Backend: "tensor-CPU", Repetitions: 5, Barrier: newBarrier(&events), Sink: sink, Logger: logger,
		})
		So(err, ShouldBeNil)

		Convey("The first repetition's flush error aborts the trial", func() {
			err := runner.Run(&scripted{phases: []string{"fit"}, events: &events, failAt: -1})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "disk full")
			sink.AssertNumberOfCalls(t, "Emit", 1)
			sink.AssertNumberOfCalls(t, "Flush", 1)
		})
	})
}

func TestNewRunner_Invalid(t *testing.T) {
	Convey("A runner needs at least one repetition, a barrier and a sink", t, func() {
		var events []string
		_, err := trial.NewRunner(trial.Config{Repetitions: 0, Barrier: newBarrier(&events), Sink: &trial.MemorySink{}})
		So(err, ShouldNotBeNil)
		_, err = trial.NewRunner(trial.Config{Repetitions: 1, Sink: &trial.MemorySink{}})
		So(err, ShouldNotBeNil)
		_, err = trial.NewRunner(trial.Config{Repetitions: 1, Barrier: newBarrier(&events)})
		So(err, ShouldNotBeNil)
	})
}

func smallConfig() workload.Config {
	cfg := workload.DefaultConfig()
	cfg.Classification.Samples = 400
	cfg.Classification.Features = 10
	cfg.Signal.Length = 1 << 14
	return cfg
}

func TestExecute(t *testing.T) {
	logger, _ := test.NewNullLogger()

	Convey("Running spectral on reference-CPU for 10 repetitions", t, func() {
		var out bytes.Buffer
		var progress []int
		err := trial.Execute(trial.Options{
			Workload:     "spectral",
			Backend:      "reference-CPU",
			Repetitions:  10,
			Config:       smallConfig(),
			Sink:         trial.NewCSVSink(&out),
			OnRepetition: func(i int) { progress = append(progress, i) },
			Logger:       logger,
		})
		So(err, ShouldBeNil)

		Convey("It prints exactly 10 well-formed lines", func() {
			lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
			So(lines, ShouldHaveLength, 10)
			for _, line := range lines {
				fields := strings.Split(line, ",")
				So(fields, ShouldHaveLength, 3)
				seconds, err := strconv.ParseFloat(fields[0], 64)
				So(err, ShouldBeNil)
				So(seconds, ShouldBeGreaterThan, 0)
				So(fields[1], ShouldEqual, "reference-CPU")
				So(fields[2], ShouldEqual, "false")
			}
			So(progress, ShouldResemble, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
		})
	})

	Convey("Running classification on tensor-CPU for 2 repetitions", t, func() {
		sink := &trial.MemorySink{}
		err := trial.Execute(trial.Options{
			Workload: "classification", Backend: "tensor-CPU", Repetitions: 2,
			Config: smallConfig(), Sink: sink, Logger: logger,
		})
		So(err, ShouldBeNil)
		So(sink.Records(), ShouldHaveLength, 4)
	})

	Convey("Requesting backend quantum", t, func() {
		var out bytes.Buffer
		err := trial.Execute(trial.Options{
			Workload: "spectral", Backend: "quantum", Repetitions: 10,
			Config: smallConfig(), Sink: trial.NewCSVSink(&out), Logger: logger,
		})

		Convey("Fails with ErrUnsupportedBackend and prints nothing", func() {
			So(errors.Is(err, backend.ErrUnsupportedBackend), ShouldBeTrue)
			So(out.Len(), ShouldEqual, 0)
		})
	})

	Convey("Requesting an unknown workload", t, func() {
		var out bytes.Buffer
		err := trial.Execute(trial.Options{
			Workload: "sorting", Backend: "tensor-CPU", Repetitions: 1,
			Config: smallConfig(), Sink: trial.NewCSVSink(&out), Logger: logger,
		})
		So(errors.Is(err, workload.ErrUnsupportedWorkload), ShouldBeTrue)
		So(out.Len(), ShouldEqual, 0)
	})
}

func TestRecordFields(t *testing.T) {
	Convey("A record formats seconds with the shortest representation", t, func() {
		r := trial.Record{Elapsed: 1500 * time.Microsecond, Backend: "tensor-CPU", Phase: "fit"}
		So(r.Fields(), ShouldResemble, []string{"0.0015", "tensor-CPU", "fit"})
	})
}
