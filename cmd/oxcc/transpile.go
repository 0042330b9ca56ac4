package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/maxleiko/oxcc"
	"github.com/maxleiko/oxcc/internal/diag"
)

var (
	flagOutDir  string
	flagJobs    int
	flagReprint bool
	flagMinify  bool
)

var transpileCmd = &cobra.Command{
	Use:   "transpile <file|dir>...",
	Short: "Transpile files to JavaScript",
	Long: "Transpiles each file to JavaScript. A single result goes to stdout unless --out-dir is set; " +
		"directories are expanded to the sources they contain and require --out-dir.",
	Args: cobra.MinimumNArgs(1),
	RunE: runTranspile,
}

func init() {
	transpileCmd.Flags().StringVarP(&flagOutDir, "out-dir", "o", "", "write results under this directory instead of stdout")
	transpileCmd.Flags().IntVarP(&flagJobs, "jobs", "j", 0, "number of parallel workers (default: number of CPUs)")
	transpileCmd.Flags().BoolVar(&flagReprint, "reprint", false, "re-print the output with esbuild")
	transpileCmd.Flags().BoolVar(&flagMinify, "minify", false, "minify the output with esbuild (implies --reprint)")
}

// input is one file to transpile. rel is its path below the argument it
// came from, used to lay out --out-dir.
type input struct {
	path string
	rel  string
}

func runTranspile(cmd *cobra.Command, args []string) error {
	start := time.Now()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagReprint {
		cfg.Codegen.Reprint = true
	}
	if flagMinify {
		cfg.Codegen.Minify = true
	}

	inputs, expanded, err := expandInputs(args)
	if err != nil {
		return err
	}
	if expanded && flagOutDir == "" {
		return errors.New("transpiling a directory requires --out-dir")
	}
	if len(inputs) == 0 {
		return errors.New("no source files found")
	}

	logger := newLogger(cmd.ErrOrStderr())
	defer logger.Sync()

	paths := make([]string, len(inputs))
	for i, in := range inputs {
		paths[i] = in.path
	}
	results, err := oxcc.TranspileAll(commandContext(cmd), paths, flagJobs,
		oxcc.WithConfig(cfg), oxcc.WithLogger(logger))
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	for i, r := range results {
		if r.Err != nil {
			reportFailure(stderr, r)
			continue
		}
		if err := writeResult(cmd.OutOrStdout(), inputs[i], r.Output); err != nil {
			return err
		}
		logger.Debug("transpiled", zap.String("path", r.Path), zap.Stringer("type", r.Output.SourceType))
	}

	failed := len(oxcc.Failed(results))
	logger.Debug("done",
		zap.Int("files", len(results)),
		zap.Int("failed", failed),
		zap.Duration("took", time.Since(start).Round(time.Millisecond)),
	)
	if failed > 0 {
		errorHandled = true
		fmt.Fprintf(stderr, "%s %d of %d file(s) failed\n", color.New(color.FgRed, color.Bold).Sprint("Error:"), failed, len(results))
		return fmt.Errorf("%d file(s) failed", failed)
	}
	return nil
}

// expandInputs replaces directory arguments with the sources below them. It
// reports whether any argument was a directory.
func expandInputs(args []string) ([]input, bool, error) {
	var inputs []input
	expanded := false
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			// Missing files are reported by the pipeline with the other failures.
			inputs = append(inputs, input{path: arg, rel: filepath.Base(arg)})
			continue
		}
		expanded = true
		paths, err := oxcc.ListSources(arg)
		if err != nil {
			return nil, false, fmt.Errorf("listing %s: %w", arg, err)
		}
		for _, p := range paths {
			rel, err := filepath.Rel(arg, p)
			if err != nil {
				return nil, false, err
			}
			inputs = append(inputs, input{path: p, rel: rel})
		}
	}
	return inputs, expanded, nil
}

func writeResult(stdout io.Writer, in input, out oxcc.Output) error {
	if flagOutDir == "" {
		_, err := io.WriteString(stdout, out.Code)
		return err
	}
	dst := filepath.Join(flagOutDir, outputName(in.rel))
	if same, err := samePath(dst, in.path); err != nil {
		return err
	} else if same {
		return fmt.Errorf("refusing to overwrite source file %s", in.path)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dst), err)
	}
	if err := os.WriteFile(dst, []byte(out.Code), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", dst, err)
	}
	return nil
}

var outputExts = map[string]string{
	".ts":  ".js",
	".mts": ".mjs",
	".cts": ".cjs",
	".tsx": ".jsx",
	".jsx": ".jsx",
	".js":  ".js",
	".mjs": ".mjs",
	".cjs": ".cjs",
}

// outputName maps a source file name to the name of its JavaScript output.
func outputName(name string) string {
	ext := filepath.Ext(name)
	if to, ok := outputExts[strings.ToLower(ext)]; ok {
		return strings.TrimSuffix(name, ext) + to
	}
	return name
}

func samePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	return absA == absB, nil
}

func reportFailure(w io.Writer, r oxcc.Result) {
	if diags := oxcc.DiagnosticsOf(r.Err); len(diags) > 0 {
		diag.Render(w, r.Path, diags)
		return
	}
	fmt.Fprintf(w, "%s %s\n", color.New(color.FgRed, color.Bold).Sprint("error:"), r.Err)
}
