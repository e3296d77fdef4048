// Command vba2py translates VBA modules into Python.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/tliron/commonlog"
	"gopkg.in/urfave/cli.v1"

	"vba2py/batch"
	"vba2py/config"
	"vba2py/lang"
	"vba2py/lsp"
	"vba2py/runtime"

	_ "github.com/tliron/commonlog/simple"
)

const version = "0.3.0"

var (
	configFlag = cli.StringFlag{
		Name:  "config, c",
		Usage: "path to a " + config.FileName + " (default: searched upwards from the input)",
	}
	verboseFlag = cli.IntFlag{
		Name:  "verbose, v",
		Usage: "log verbosity (0 quiet, 1 info, 2 debug)",
	}
	logFileFlag = cli.StringFlag{
		Name:  "log",
		Usage: "write logs to `FILE` instead of stderr",
	}
	outputFlag = cli.StringFlag{
		Name:  "output, o",
		Usage: "output `PATH`",
	}

	translateCommand = cli.Command{
		Name:      "translate",
		Usage:     "Translate one module",
		ArgsUsage: "<file.bas>",
		Flags:     []cli.Flag{outputFlag},
		Action:    translateFile,
		Description: `Translates a single module. The output defaults to the input path
with a .py extension; the runtime module is written next to it.`,
	}
	batchCommand = cli.Command{
		Name:      "batch",
		Usage:     "Translate every module of a project",
		ArgsUsage: "[dir]",
		Action:    translateProject,
		Description: `Translates all modules under the configured source directories in
parallel and prints a per-file report.`,
	}
	checkCommand = cli.Command{
		Name:      "check",
		Usage:     "Report diagnostics without writing output",
		ArgsUsage: "<file.bas>...",
		Action:    checkFiles,
	}
	runtimeCommand = cli.Command{
		Name:   "runtime",
		Usage:  "Write or print the Python runtime module",
		Flags:  []cli.Flag{outputFlag},
		Action: writeRuntime,
	}
	lspCommand = cli.Command{
		Name:   "lsp",
		Usage:  "Run the language server on stdio",
		Action: serveLSP,
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "vba2py"
	app.Usage = "translate VBA modules into Python"
	app.Version = version
	app.Flags = []cli.Flag{configFlag, verboseFlag, logFileFlag}
	app.Commands = []cli.Command{
		translateCommand,
		batchCommand,
		checkCommand,
		runtimeCommand,
		lspCommand,
	}
	app.Before = func(ctx *cli.Context) error {
		var path *string
		if p := ctx.GlobalString(logFileFlag.Name); p != "" {
			path = &p
		}
		commonlog.Configure(ctx.GlobalInt("verbose"), path)
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func log() commonlog.Logger {
	return commonlog.GetLogger("vba2py.cli")
}

func loadConfig(ctx *cli.Context, startDir string) (*config.Config, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadOrDefault(ctx.GlobalString("config"), abs)
	if err != nil {
		return nil, err
	}
	log().Debugf("project root %s", cfg.Dir)
	return cfg, nil
}

func translateFile(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.NewExitError("translate requires exactly one input file", 2)
	}
	in, err := filepath.Abs(ctx.Args().First())
	if err != nil {
		return err
	}
	cfg, err := loadConfig(ctx, filepath.Dir(in))
	if err != nil {
		return cli.NewExitError(err, 2)
	}
	out := ctx.String("output")
	if out == "" {
		out = strings.TrimSuffix(in, filepath.Ext(in)) + ".py"
	}

	res := batch.Translate(cfg, batch.Job{Path: in, Rel: filepath.Base(in), Out: out})
	printDiagnostics(color.Output, []batch.Result{res})
	if res.Status == batch.StatusFailed {
		return cli.NewExitError(fmt.Sprintf("%s: %v", res.Rel, res.Err), 1)
	}
	if cfg.Output.EmitRuntime {
		if _, err := runtime.Write(filepath.Dir(out)); err != nil {
			return err
		}
	}
	fmt.Printf("wrote %s\n", out)
	return nil
}

func translateProject(ctx *cli.Context) error {
	dir := "."
	if ctx.NArg() > 0 {
		dir = ctx.Args().First()
	}
	cfg, err := loadConfig(ctx, dir)
	if err != nil {
		return cli.NewExitError(err, 2)
	}
	jobs, err := batch.Discover(cfg)
	if err != nil {
		return cli.NewExitError(err, 2)
	}
	if len(jobs) == 0 {
		fmt.Println("no modules found")
		return nil
	}

	log().Infof("translating %d modules with %d workers", len(jobs), cfg.Workers())
	sigctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	results, runErr := batch.Run(sigctx, cfg, jobs)

	printDiagnostics(color.Output, results)
	batch.WriteReport(os.Stdout, results)
	if runErr != nil {
		return cli.NewExitError(runErr, 1)
	}
	if sum := batch.Summarize(results); sum.Failed > 0 {
		return cli.NewExitError(fmt.Sprintf("%d of %d modules failed", sum.Failed, sum.Files), 1)
	}
	return nil
}

func checkFiles(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return cli.NewExitError("check requires at least one input file", 2)
	}
	var results []batch.Result
	for _, arg := range ctx.Args() {
		in, err := filepath.Abs(arg)
		if err != nil {
			return err
		}
		cfg, err := loadConfig(ctx, filepath.Dir(in))
		if err != nil {
			return cli.NewExitError(err, 2)
		}
		results = append(results, batch.Check(cfg, batch.Job{Path: in, Rel: arg}))
	}

	printDiagnostics(color.Output, results)
	errs := 0
	for _, r := range results {
		errs += r.Count(lang.SeverityError)
		if r.Status == batch.StatusFailed && len(r.Diagnostics) == 0 {
			color.New(color.FgRed).Fprintf(color.Output, "%s: %v\n", r.Rel, r.Err)
			errs++
		}
	}
	if errs > 0 {
		return cli.NewExitError(fmt.Sprintf("%d error(s)", errs), 1)
	}
	return nil
}

func writeRuntime(ctx *cli.Context) error {
	dir := ctx.String("output")
	if dir == "" {
		_, err := os.Stdout.Write(runtime.Source())
		return err
	}
	path, err := runtime.Write(dir)
	if err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func serveLSP(ctx *cli.Context) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(ctx, wd)
	if err != nil {
		return cli.NewExitError(err, 2)
	}
	log().Info("starting language server")
	server, err := lsp.NewServer(cfg, version)
	if err != nil {
		return err
	}
	return server.Run()
}

func printDiagnostics(w io.Writer, results []batch.Result) {
	warn := color.New(color.FgYellow)
	fail := color.New(color.FgRed, color.Bold)
	for _, r := range results {
		for _, d := range r.FileDiagnostics() {
			c := warn
			if d.Severity == lang.SeverityError {
				c = fail
			}
			c.Fprintln(w, d.String())
		}
	}
}
