// Command mapnotes-csv imports and exports project markers as CSV against
// the configured storage, without running the server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"github.com/mohammed-shakir/mapnotes/internal/app"
	"github.com/mohammed-shakir/mapnotes/internal/core/config"
	"github.com/mohammed-shakir/mapnotes/internal/core/model"
	"github.com/mohammed-shakir/mapnotes/internal/logger"
)

const usage = `usage: mapnotes-csv [-config file] <command> [flags]

commands:
  import  [-project key] <file.csv|->   add markers from a CSV file
  export  [-project key] [-o file]      write markers as CSV
  projects                              list projects
`

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("mapnotes-csv", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	configFile := fs.String("config", "", "path to a YAML config file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	_ = godotenv.Load()
	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	// the CLI never publishes change events
	cfg.Events.Driver = "none"

	zl := logger.Build(logger.Config{Level: cfg.LogLevel, Console: true, Service: "mapnotes", Component: "csv"}, stderr)
	log := logger.NewSlog(&zl)

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer func() { _ = a.Close() }()

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "import":
		err = runImport(ctx, a, rest, stdout)
	case "export":
		err = runExport(ctx, a, rest, stdout)
	case "projects":
		err = runProjects(a, stdout)
	default:
		fs.Usage()
		return 2
	}
	if err != nil {
		var uerr usageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(stderr, err)
			return 2
		}
		log.Error(cmd+" failed", "err", err)
		return 1
	}
	return 0
}

type usageError string

func (e usageError) Error() string { return string(e) }

func selectProject(ctx context.Context, a *app.App, key string) error {
	if key == "" || key == model.DefaultProjectKey {
		return nil
	}
	return a.Workspace.SwitchProject(ctx, key)
}

func runImport(ctx context.Context, a *app.App, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	project := fs.String("project", "", "project key (default project if empty)")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	if fs.NArg() != 1 {
		return usageError("import needs exactly one file argument")
	}
	if err := selectProject(ctx, a, *project); err != nil {
		return err
	}

	var in io.Reader = os.Stdin
	if name := fs.Arg(0); name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	res, err := a.Workspace.ImportCSV(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "imported %d markers\n", res.Imported)
	for _, msg := range res.DisplayErrors() {
		fmt.Fprintln(stdout, msg)
	}
	if n := res.HiddenErrors(); n > 0 {
		fmt.Fprintf(stdout, "... and %d more errors\n", n)
	}
	return nil
}

func runExport(ctx context.Context, a *app.App, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	project := fs.String("project", "", "project key (default project if empty)")
	out := fs.String("o", "", "output file (stdout if empty)")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	if err := selectProject(ctx, a, *project); err != nil {
		return err
	}

	data := a.Workspace.ExportCSV()
	if *out == "" {
		_, err := fmt.Fprintln(stdout, data)
		return err
	}
	return os.WriteFile(*out, []byte(data), 0o644)
}

func runProjects(a *app.App, stdout io.Writer) error {
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tNAME\tMARKERS\tSHAPES")
	for _, p := range a.Workspace.Projects() {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", p.Key, p.Name, p.Markers, p.Shapes)
	}
	return tw.Flush()
}

