package deviceconfig

import (
	"bufio"
	"bytes"
	"errors"
	"runtime/debug"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medkit/internal/logging"
)

const (
	gonumModule = "gonum.org/v1/gonum"
	gotchModule = "github.com/sugarme/gotch"
	gomlxModule = "github.com/gomlx/gomlx"
)

func testDependencies() Dependencies {
	return Dependencies{
		Numeric:  Dependency{Label: "Gonum version", Module: gonumModule},
		Tensor:   Dependency{Label: "Gotch version", Module: gotchModule},
		Training: Dependency{Label: "GoMLX version", Module: gomlxModule},
	}
}

func buildInfoWith(deps ...*debug.Module) BuildInfoFunc {
	return func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{
			Main: debug.Module{Path: "medkit", Version: "(devel)"},
			Deps: deps,
		}, true
	}
}

func newTestReporter(info BuildInfoFunc) *Reporter {
	var logs bytes.Buffer
	r := NewReporterWithBuildInfo(testDependencies(), info, logging.NewLoggerWithWriter(logging.LevelDebug, logging.FormatJSON, &logs))
	r.toolkit = func() string { return "0.3.0" }
	r.runtime = func() string { return "go1.25.4 linux/amd64 gc" }
	return r
}

func fullBuildInfo() BuildInfoFunc {
	return buildInfoWith(
		&debug.Module{Path: gonumModule, Version: "v0.15.1"},
		&debug.Module{Path: gotchModule, Version: "v0.9.2"},
		&debug.Module{Path: gomlxModule, Version: "v0.19.0"},
	)
}

func TestCollect_OrderAndValues(t *testing.T) {
	values := newTestReporter(fullBuildInfo()).Collect()

	require.Len(t, values, 5)
	assert.Equal(t, []string{
		"MedKit version",
		"Go version",
		"Gonum version",
		"Gotch version",
		"GoMLX version",
	}, values.Labels())

	assert.Equal(t, Values{
		{Label: "MedKit version", Version: "0.3.0"},
		{Label: "Go version", Version: "go1.25.4 linux/amd64 gc"},
		{Label: "Gonum version", Version: "v0.15.1"},
		{Label: "Gotch version", Version: "v0.9.2"},
		{Label: "GoMLX version", Version: "v0.19.0"},
	}, values)

	for _, rec := range values {
		assert.NotEmpty(t, rec.Version, rec.Label)
	}
}

func TestCollect_OptionalModuleAbsent(t *testing.T) {
	r := newTestReporter(buildInfoWith(
		&debug.Module{Path: gonumModule, Version: "v0.15.1"},
		&debug.Module{Path: gotchModule, Version: "v0.9.2"},
	))

	var values Values
	require.NotPanics(t, func() { values = r.Collect() })

	got, ok := values.Get("GoMLX version")
	require.True(t, ok)
	assert.Equal(t, NotInstalled, got)
}

func TestCollect_MandatoryModuleAbsent(t *testing.T) {
	values := newTestReporter(buildInfoWith()).Collect()

	require.Len(t, values, 5)
	numeric, _ := values.Get("Gonum version")
	tensor, _ := values.Get("Gotch version")
	assert.Equal(t, Unknown, numeric)
	assert.Equal(t, Unknown, tensor)
}

func TestCollect_NoBuildInfo(t *testing.T) {
	r := newTestReporter(func() (*debug.BuildInfo, bool) { return nil, false })

	values := r.Collect()
	require.Len(t, values, 5)
	training, _ := values.Get("GoMLX version")
	assert.Equal(t, NotInstalled, training)
}

func TestCollect_RuntimeNewlinesReplaced(t *testing.T) {
	r := newTestReporter(fullBuildInfo())
	r.runtime = func() string { return "go1.25.4\nlinux/amd64\ngc" }

	got, _ := r.Collect().Get(RuntimeLabel)
	assert.Equal(t, "go1.25.4 linux/amd64 gc", got)
}

func TestCollect_DefaultRuntimeVersion(t *testing.T) {
	r := NewReporterWithBuildInfo(testDependencies(), fullBuildInfo(), nil)

	got, _ := r.Collect().Get(RuntimeLabel)
	assert.True(t, strings.HasPrefix(got, "go") || strings.HasPrefix(got, "devel"), got)
	assert.NotContains(t, got, "\n")
}

func TestRender_Format(t *testing.T) {
	values := newTestReporter(fullBuildInfo()).Collect()

	var buf bytes.Buffer
	require.NoError(t, values.Render(&buf))

	assert.Equal(t, "MedKit version: 0.3.0\n"+
		"Go version: go1.25.4 linux/amd64 gc\n"+
		"Gonum version: v0.15.1\n"+
		"Gotch version: v0.9.2\n"+
		"GoMLX version: v0.19.0\n", buf.String())
}

func TestRender_Idempotent(t *testing.T) {
	values := newTestReporter(fullBuildInfo()).Collect()

	var first, second bytes.Buffer
	require.NoError(t, values.Render(&first))
	require.NoError(t, values.Render(&second))

	assert.Equal(t, first.Bytes(), second.Bytes())
	assert.Equal(t, first.String(), values.String())
}

// flushCounter records how many lines reached it through Flush.
type flushCounter struct {
	*bufio.Writer
	sink    *bytes.Buffer
	flushes []string
}

func (f *flushCounter) Flush() error {
	if err := f.Writer.Flush(); err != nil {
		return err
	}
	f.flushes = append(f.flushes, f.sink.String())
	return nil
}

func TestRender_FlushesEveryLine(t *testing.T) {
	sink := &bytes.Buffer{}
	w := &flushCounter{Writer: bufio.NewWriterSize(sink, 4096), sink: sink}

	require.NoError(t, newTestReporter(fullBuildInfo()).PrintConfig(w))

	require.Len(t, w.flushes, 5)
	assert.Equal(t, "MedKit version: 0.3.0\n", w.flushes[0])
	assert.Equal(t, 2, strings.Count(w.flushes[1], "\n"))
	assert.Equal(t, sink.String(), w.flushes[4])
}

type failingWriter struct{ after int }

func (f *failingWriter) Write(p []byte) (int, error) {
	if f.after == 0 {
		return 0, errors.New("disk full")
	}
	f.after--
	return len(p), nil
}

func TestRender_StopsOnWriteError(t *testing.T) {
	err := newTestReporter(fullBuildInfo()).PrintConfig(&failingWriter{after: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Gonum version")
}

func TestResolveModule(t *testing.T) {
	info := &debug.BuildInfo{
		Main: debug.Module{Path: "medkit", Version: "(devel)"},
		Deps: []*debug.Module{
			{Path: gonumModule, Version: "v0.15.1"},
			{Path: "github.com/gomlx", Version: "v9.9.9"},
			{Path: gomlxModule, Version: "v0.19.0"},
			{Path: "example.com/local", Version: "v1.0.0", Replace: &debug.Module{Path: "../local"}},
			{Path: "example.com/fork", Version: "v1.0.0", Replace: &debug.Module{Path: "example.com/fork2", Version: "v1.2.0"}},
			{Path: "example.com/bare"},
		},
	}

	tests := []struct {
		name string
		path string
		want Resolution
	}{
		{"exact module", gonumModule, Present("v0.15.1")},
		{"package inside module", gonumModule + "/mat", Present("v0.15.1")},
		{"longest module wins", gomlxModule + "/ml/train", Present("v0.19.0")},
		{"main module", "medkit/internal/build", Present("(devel)")},
		{"replace without version", "example.com/local", Present("v1.0.0")},
		{"replace with version", "example.com/fork", Present("v1.2.0")},
		{"no version", "example.com/bare", Present(Devel)},
		{"prefix without slash boundary", gonumModule + "x", Absent()},
		{"missing", "github.com/pytorch/ignite", Absent()},
		{"empty path", "", Absent()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveModule(info, tt.path))
		})
	}

	assert.Equal(t, Absent(), ResolveModule(nil, gonumModule))
}

func TestResolution_Or(t *testing.T) {
	assert.Equal(t, "v1.0.0", Present("v1.0.0").Or(NotInstalled))
	assert.Equal(t, NotInstalled, Absent().Or(NotInstalled))
}

func TestTensorVersionTuple(t *testing.T) {
	tuple, err := newTestReporter(fullBuildInfo()).TensorVersionTuple()
	require.NoError(t, err)
	assert.Equal(t, VersionTuple{Major: 0, Minor: 9}, tuple)
}

func TestTensorVersionTuple_Missing(t *testing.T) {
	_, err := newTestReporter(buildInfoWith()).TensorVersionTuple()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModuleNotFound)
}

func TestTensorVersionTuple_Devel(t *testing.T) {
	r := newTestReporter(buildInfoWith(&debug.Module{Path: gotchModule}))

	_, err := r.TensorVersionTuple()
	assert.ErrorIs(t, err, ErrMalformedVersion)
}
