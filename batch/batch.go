// Package batch translates every module found under the configured source
// directories. A file that fails is reported and the batch keeps going.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"vba2py/config"
	"vba2py/lang"
	"vba2py/runtime"
	"vba2py/translator"
)

// log looks the logger up on use, so a backend configured after package
// initialisation is honoured.
func log() commonlog.Logger {
	return commonlog.GetLogger("vba2py.batch")
}

// Job is one module to translate.
type Job struct {
	// Path is the absolute source path.
	Path string
	// Rel is Path relative to the source directory it was found in.
	Rel string
	// Out is the Python file written for the module.
	Out string
}

// Status summarises the outcome of one job.
type Status int

const (
	StatusOK Status = iota
	StatusWarnings
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusWarnings:
		return "warnings"
	case StatusFailed:
		return "failed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Result is the outcome of one job. Err is set when no output was written.
type Result struct {
	Job
	Status      Status
	Diagnostics []lang.Diagnostic
	Err         error
}

// Count returns the number of diagnostics with the given severity.
func (r Result) Count(sev lang.Severity) int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Severity == sev {
			n++
		}
	}
	return n
}

// FileDiagnostics attaches the source path to each diagnostic.
func (r Result) FileDiagnostics() []FileDiagnostic {
	out := make([]FileDiagnostic, len(r.Diagnostics))
	for i, d := range r.Diagnostics {
		out[i] = FileDiagnostic{Path: r.Path, Diagnostic: d}
	}
	return out
}

// FileDiagnostic is a diagnostic together with the file it belongs to.
type FileDiagnostic struct {
	Path string
	lang.Diagnostic
}

func (d FileDiagnostic) String() string {
	return d.Path + ":" + d.Diagnostic.String()
}

// Discover lists the modules under the configured source directories in a
// stable order. The output directory is never searched.
func Discover(cfg *config.Config) ([]Job, error) {
	outDir := cfg.OutputDir()
	seen := map[string]bool{}
	var jobs []Job
	for _, root := range cfg.SourceDirPaths() {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path == outDir || (path != root && strings.HasPrefix(d.Name(), ".")) {
					return filepath.SkipDir
				}
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			if !cfg.Includes(rel) || seen[path] {
				return nil
			}
			seen[path] = true
			jobs = append(jobs, Job{
				Path: path,
				Rel:  rel,
				Out:  filepath.Join(outDir, strings.TrimSuffix(rel, filepath.Ext(rel))+".py"),
			})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", root, err)
		}
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Path < jobs[j].Path })
	log().Debugf("discovered %d modules", len(jobs))
	return jobs, nil
}

// Run translates jobs concurrently, bounded by the configured worker count.
// Results are in job order. The returned error is only set when ctx is
// cancelled or the runtime module cannot be written.
func Run(ctx context.Context, cfg *config.Config, jobs []Job) ([]Result, error) {
	results := make([]Result, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers())
	for i, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = Result{Job: job, Status: StatusFailed, Err: err}
				return nil
			}
			results[i] = Translate(cfg, job)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return results, err
	}

	if cfg.Output.EmitRuntime && wroteAny(results) {
		path, err := runtime.Write(cfg.OutputDir())
		if err != nil {
			return results, err
		}
		log().Infof("runtime module at %s", path)
	}
	return results, nil
}

func wroteAny(results []Result) bool {
	for _, r := range results {
		if r.Err == nil {
			return true
		}
	}
	return false
}

// Translate reads, translates and writes one module.
func Translate(cfg *config.Config, job Job) Result {
	code, res := check(cfg, job)
	if res.Status == StatusFailed {
		return res
	}
	if err := os.MkdirAll(filepath.Dir(job.Out), 0o755); err != nil {
		return res.fail(err)
	}
	if err := os.WriteFile(job.Out, []byte(code), 0o644); err != nil {
		return res.fail(err)
	}
	log().Infof("%s -> %s (%s)", job.Rel, job.Out, res.Status)
	return res
}

// Check translates one module without writing its output.
func Check(cfg *config.Config, job Job) Result {
	_, res := check(cfg, job)
	return res
}

func check(cfg *config.Config, job Job) (string, Result) {
	res := Result{Job: job}
	data, err := os.ReadFile(job.Path)
	if err != nil {
		return "", res.fail(err)
	}
	text, err := cfg.Prepare(data)
	if err != nil {
		return "", res.fail(err)
	}

	code, diags, err := translator.TranslateSource(text, cfg.TranslatorOptions())
	res.Diagnostics = shiftLines(diags, cfg.Source.HeaderLines)
	if err != nil {
		return "", res.fail(err)
	}
	res.Status = StatusOK
	if len(res.Diagnostics) > 0 {
		res.Status = StatusWarnings
	}
	return code, res
}

func (r Result) fail(err error) Result {
	r.Status = StatusFailed
	r.Err = err
	var syn *lang.SyntaxError
	var cv *translator.ContractViolation
	switch {
	case errors.As(err, &syn), errors.As(err, &cv):
		log().Warningf("%s: %s", r.Rel, err)
	default:
		log().Errorf("%s: %s", r.Rel, err)
	}
	return r
}

// shiftLines maps positions in the parser input back to lines of the file,
// which start after the stripped header.
func shiftLines(diags []lang.Diagnostic, header int) []lang.Diagnostic {
	if header == 0 {
		return diags
	}
	out := make([]lang.Diagnostic, len(diags))
	for i, d := range diags {
		if d.Pos.Line > 0 {
			d.Pos.Line += header
		}
		out[i] = d
	}
	return out
}

// Summary counts results by status.
type Summary struct {
	Files    int
	OK       int
	Warnings int
	Failed   int
}

// Summarize counts results by status.
func Summarize(results []Result) Summary {
	s := Summary{Files: len(results)}
	for _, r := range results {
		switch r.Status {
		case StatusOK:
			s.OK++
		case StatusWarnings:
			s.Warnings++
		case StatusFailed:
			s.Failed++
		}
	}
	return s
}
