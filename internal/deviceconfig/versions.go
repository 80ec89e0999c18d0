package deviceconfig

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"medkit/internal/build"
	"medkit/internal/logging"
)

// BuildInfoFunc reads the module list linked into the running binary.
// debug.ReadBuildInfo is the production implementation.
type BuildInfoFunc func() (*debug.BuildInfo, bool)

// Reporter assembles the version report
type Reporter struct {
	deps      Dependencies
	buildInfo BuildInfoFunc
	toolkit   func() string
	runtime   func() string
	logger    *logging.Logger
}

// NewReporter creates a reporter reading the running binary's build info
func NewReporter(deps Dependencies, logger *logging.Logger) *Reporter {
	return &Reporter{
		deps:      deps,
		buildInfo: debug.ReadBuildInfo,
		toolkit:   build.Short,
		runtime:   runtimeVersion,
		logger:    logger,
	}
}

// NewReporterWithBuildInfo creates a reporter with a custom build info source (for testing)
func NewReporterWithBuildInfo(deps Dependencies, info BuildInfoFunc, logger *logging.Logger) *Reporter {
	r := NewReporter(deps, logger)
	if info != nil {
		r.buildInfo = info
	}
	return r
}

// runtimeVersion mirrors the multi-part interpreter banner of other
// toolchains: version, platform, compiler.
func runtimeVersion() string {
	return fmt.Sprintf("%s %s/%s %s", runtime.Version(), runtime.GOOS, runtime.GOARCH, runtime.Compiler)
}

// Collect returns the five version records in report order. It never fails:
// a missing training library reads NOT INSTALLED, a missing mandatory
// library reads unknown.
func (r *Reporter) Collect() Values {
	r.logger.Debug("deviceconfig.collect.start", "Collecting dependency versions", nil)

	info, ok := r.buildInfo()
	if !ok {
		r.logger.Warn("deviceconfig.buildinfo.unavailable", "Binary carries no module build info", nil)
		info = nil
	}

	values := Values{
		{Label: ToolkitLabel, Version: r.toolkit()},
		{Label: RuntimeLabel, Version: strings.ReplaceAll(r.runtime(), "\n", " ")},
		{Label: r.deps.Numeric.Label, Version: r.mandatory(info, r.deps.Numeric)},
		{Label: r.deps.Tensor.Label, Version: r.mandatory(info, r.deps.Tensor)},
		{Label: r.deps.Training.Label, Version: ResolveModule(info, r.deps.Training.Module).Or(NotInstalled)},
	}

	r.logger.Debug("deviceconfig.collect.complete", "Dependency versions collected", map[string]interface{}{
		"count": len(values),
	})

	return values
}

func (r *Reporter) mandatory(info *debug.BuildInfo, dep Dependency) string {
	res := ResolveModule(info, dep.Module)
	if !res.Present {
		r.logger.Warn("deviceconfig.module.missing", "Required module not found in build info", map[string]interface{}{
			"label":  dep.Label,
			"module": dep.Module,
		})
	}
	return res.Or(Unknown)
}

// TensorVersionTuple returns the (major, minor) version of the tensor library
func (r *Reporter) TensorVersionTuple() (VersionTuple, error) {
	info, _ := r.buildInfo()

	res := ResolveModule(info, r.deps.Tensor.Module)
	if !res.Present {
		return VersionTuple{}, fmt.Errorf("%w: %s", ErrModuleNotFound, r.deps.Tensor.Module)
	}

	return parseModuleVersionTuple(res.Version)
}

// PrintConfig writes the version report to w, one flushed line per record.
// A nil writer means os.Stdout.
func (r *Reporter) PrintConfig(w io.Writer) error {
	if w == nil {
		w = os.Stdout
	}
	return r.Collect().Render(w)
}

// Render writes "<label>: <version>" lines to w, flushing after each line
// so partial output survives an interrupted process.
func (v Values) Render(w io.Writer) error {
	for _, rec := range v {
		if _, err := fmt.Fprintf(w, "%s: %s\n", rec.Label, rec.Version); err != nil {
			return fmt.Errorf("failed to write %s: %w", rec.Label, err)
		}
		if err := flush(w); err != nil {
			return fmt.Errorf("failed to flush %s: %w", rec.Label, err)
		}
	}
	return nil
}

// String renders the report into a string
func (v Values) String() string {
	var b strings.Builder
	_ = v.Render(&b) // strings.Builder never fails
	return b.String()
}

// flush pushes buffered writers (bufio.Writer and friends) through to their
// sink. *os.File is unbuffered in Go and needs nothing.
func flush(w io.Writer) error {
	if f, ok := w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// ResolveModule finds path in the build info dependency list. path may be a
// module path or a package path inside a module; the longest matching module
// wins. A replaced module reports the replacement version when it has one.
func ResolveModule(info *debug.BuildInfo, path string) Resolution {
	if info == nil || path == "" {
		return Absent()
	}

	var best *debug.Module
	consider := func(m *debug.Module) {
		if m == nil || !modulePathMatches(m.Path, path) {
			return
		}
		if best == nil || len(m.Path) > len(best.Path) {
			best = m
		}
	}

	consider(&info.Main)
	for _, dep := range info.Deps {
		consider(dep)
	}

	if best == nil {
		return Absent()
	}

	version := best.Version
	if best.Replace != nil && best.Replace.Version != "" {
		version = best.Replace.Version
	}
	if version == "" {
		version = Devel
	}

	return Present(version)
}

func modulePathMatches(modulePath, path string) bool {
	if modulePath == "" {
		return false
	}
	return path == modulePath || strings.HasPrefix(path, modulePath+"/")
}
