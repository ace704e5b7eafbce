// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package trial runs a workload as one untimed warmup followed by N timed
// repetitions and emits one Record per repetition per phase.
//
// # Timing Protocol
//
// Every phase is measured as:
//
//	barrier.Synchronize()
//	start := clock()
//	fn()
//	barrier.Synchronize()
//	elapsed := clock() - start
//
// Both synchronization points are required: on asynchronous backends the
// first keeps queued allocation work out of the sample and the second
// makes sure the phase's own device work has finished.
//
// # Failures
//
// Any error, in the warmup or in a repetition, stops the trial and is
// returned unchanged. Records already written for earlier repetitions stay
// in the sink; nothing is retried.
package trial
