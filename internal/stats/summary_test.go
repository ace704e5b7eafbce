package stats

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const records = `2,reference-CPU,fit
4,reference-CPU,fit
1,tensor-CPU,fit
1,tensor-CPU,fit
0.5,tensor-GPU,predict
1,reference-CPU,predict

0.25,tensor-GPU,predict
`

func TestReadSamples(t *testing.T) {
	samples, err := ReadSamples(strings.NewReader(records))
	require.NoError(t, err)
	require.Len(t, samples, 7)
	assert.Equal(t, Sample{Seconds: 1, Backend: "reference-CPU", Phase: "predict"}, samples[5])
}

func TestReadSamples_CanonicalBackend(t *testing.T) {
	samples, err := ReadSamples(strings.NewReader("1,reference-cpu,fit\n1,GPU-ARRAY,fit\n1,numpy,fit\n"))
	require.NoError(t, err)
	require.Len(t, samples, 3)
	assert.Equal(t, "reference-CPU", samples[0].Backend)
	assert.Equal(t, "GPU-array", samples[1].Backend)
	assert.Equal(t, "numpy", samples[2].Backend)
	assert.Equal(t, Baseline, samples[0].Backend)
}

func TestReadSamples_Malformed(t *testing.T) {
	tests := map[string]string{
		"TooFewFields": "1,tensor-CPU\n",
		"NotANumber":   "fast,tensor-CPU,fit\n",
		"Negative":     "-1,tensor-CPU,fit\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ReadSamples(strings.NewReader(input))
			assert.Error(t, err)
		})
	}
}

func TestSummarize(t *testing.T) {
	samples, err := ReadSamples(strings.NewReader(records))
	require.NoError(t, err)

	groups := Summarize(samples)
	require.Len(t, groups, 4)

	// Sorted by phase, then backend.
	assert.Equal(t, "fit", groups[0].Phase)
	assert.Equal(t, "reference-CPU", groups[0].Backend)
	assert.InDelta(t, 3, groups[0].Mean, 1e-12)
	assert.InDelta(t, 1, groups[0].Speedup, 1e-12)
	assert.InDelta(t, math.Sqrt2, groups[0].StdDev, 1e-12)

	assert.Equal(t, "tensor-CPU", groups[1].Backend)
	assert.Equal(t, 2, groups[1].Runs)
	assert.InDelta(t, 3, groups[1].Speedup, 1e-12)

	assert.Equal(t, "predict", groups[3].Phase)
	assert.Equal(t, "tensor-GPU", groups[3].Backend)
	assert.InDelta(t, 0.375, groups[3].Mean, 1e-12)
	assert.InDelta(t, 1/0.375, groups[3].Speedup, 1e-12)
}

func TestSummarize_NoBaseline(t *testing.T) {
	groups := Summarize([]Sample{{Seconds: 1, Backend: "tensor-CPU", Phase: "true"}})
	require.Len(t, groups, 1)
	assert.True(t, math.IsNaN(groups[0].Speedup))
	assert.Zero(t, groups[0].StdDev)
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []Group{
		{Backend: "reference-CPU", Phase: "false", Runs: 10, Mean: 2, StdDev: 0.5, Speedup: 1},
		{Backend: "tensor-CPU", Phase: "true", Runs: 10, Mean: 0.5, Speedup: math.NaN()},
	}))

	want := "phase,backend,runs,mean_seconds,std_seconds,speedup\n" +
		"false,reference-CPU,10,2,0.5,1.000\n" +
		"true,tensor-CPU,10,0.5,0,\n"
	assert.Equal(t, want, buf.String())
}
