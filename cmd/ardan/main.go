package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/ardan-lang/ardan/pkg/config"
	"github.com/ardan-lang/ardan/pkg/driver"
	"github.com/ardan-lang/ardan/pkg/module"
	"github.com/ardan-lang/ardan/pkg/repl"
)

// main wires ardan's four CLI modes (spec.md §6 "CLI surface") using
// github.com/urfave/cli/v3, the richer idiomatic alternative the
// wudi-hey example teaches in place of the teacher's hand-rolled `flag`
// parsing (SPEC_FULL.md §A "CLI").
func main() {
	app := &cli.Command{
		Name:  "ardan",
		Usage: "Compile and run ardan scripts",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "interpret", Usage: "parse and directly execute <file>"},
			&cli.BoolFlag{Name: "compile", Usage: "compile a source file to bin.ardar"},
			&cli.BoolFlag{Name: "compile_run", Usage: "compile then load and execute"},
			&cli.BoolFlag{Name: "repl", Usage: "start the interactive REPL"},
			&cli.StringFlag{Name: "e", Usage: "source file for --compile/--compile_run"},
			&cli.StringFlag{Name: "o", Value: "bin.ardar", Usage: "output path for --compile"},
		},
		Action: run,
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	switch {
	case cmd.Bool("repl"):
		return repl.Run()
	case cmd.String("interpret") != "":
		// A genuine tree-walking path is out of core scope (spec.md §6:
		// "tree-walking path; out of core scope, described here only as a
		// supported mode"); --interpret runs the same compile+execute
		// pipeline as --compile_run rather than standing up a second,
		// redundant execution engine.
		return runFile(cmd.String("interpret"))
	case cmd.Bool("compile"):
		return compileFile(sourceFile(cmd), cmd.String("o"))
	case cmd.Bool("compile_run"):
		return compileAndRun(sourceFile(cmd))
	default:
		if path, ok := config.Find("."); ok {
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			return runFile(cfg.Main)
		}
		if args := cmd.Args(); args.Len() > 0 {
			return runFile(args.First())
		}
		return repl.Run()
	}
}

func sourceFile(cmd *cli.Command) string {
	if e := cmd.String("e"); e != "" {
		return e
	}
	if path, ok := config.Find("."); ok {
		if cfg, err := config.Load(path); err == nil {
			return cfg.Main
		}
	}
	if args := cmd.Args(); args.Len() > 0 {
		return args.First()
	}
	return ""
}

func runFile(path string) error {
	sess := driver.NewSession()
	result, err := sess.RunFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, driver.DisplayError(err))
		os.Exit(70)
	}
	_ = result
	return nil
}

func compileFile(path, out string) error {
	if path == "" {
		return fmt.Errorf("no source file given (use --e <file> or an ardan.json)")
	}
	mod, errs := driver.CompileFile(path)
	if len(errs) > 0 {
		fmt.Fprintln(os.Stderr, errs[0])
		os.Exit(65)
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()
	return module.Write(f, mod)
}

func compileAndRun(path string) error {
	if path == "" {
		return fmt.Errorf("no source file given (use --e <file> or an ardan.json)")
	}
	mod, errs := driver.CompileFile(path)
	if len(errs) > 0 {
		fmt.Fprintln(os.Stderr, errs[0])
		os.Exit(65)
	}
	sess := driver.NewSession()
	_, err := sess.RunModule(mod)
	if err != nil {
		fmt.Fprintln(os.Stderr, driver.DisplayError(err))
		os.Exit(70)
	}
	return nil
}
