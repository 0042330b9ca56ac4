package oxcc

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/maxleiko/oxcc/internal/source"
)

// Result is the outcome for one file of a batch.
type Result struct {
	Path   string
	Output Output
	Err    error
}

// TranspileAll transpiles paths using up to jobs workers, each with its own
// Transpiler built from opts. jobs < 1 means one worker per CPU. Results
// are returned in the order of paths; a failed file does not stop the
// others. The returned error is non-nil only if ctx was cancelled.
func TranspileAll(ctx context.Context, paths []string, jobs int, opts ...Option) ([]Result, error) {
	results := make([]Result, len(paths))
	if len(paths) == 0 {
		return results, nil
	}
	if jobs < 1 {
		jobs = runtime.NumCPU()
	}
	jobs = min(jobs, len(paths))

	work := make(chan int, len(paths))
	for i := range paths {
		work <- i
	}
	close(work)

	g, ctx := errgroup.WithContext(ctx)
	for range jobs {
		g.Go(func() error {
			tr := New(opts...)
			defer tr.Close()
			for i := range work {
				if err := ctx.Err(); err != nil {
					return err
				}
				out, err := tr.Transpile(ctx, paths[i])
				results[i] = Result{Path: paths[i], Output: out, Err: err}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// Failed returns the results that carry an error.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}

var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
}

// ListSources returns the transpilable files under root. Inside a git work
// tree it lists tracked and untracked files that are not ignored; otherwise
// it walks the directory, skipping hidden and dependency directories.
// Declaration files are never listed.
func ListSources(root string) ([]string, error) {
	paths, err := gitListSources(root)
	if err == nil {
		return paths, nil
	}
	return walkListSources(root)
}

func gitListSources(root string) ([]string, error) {
	cmd := exec.Command("git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		path := filepath.Join(root, line)
		if transpilable(path) {
			paths = append(paths, path)
		}
	}
	return paths, nil
}

func walkListSources(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if transpilable(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	return paths, nil
}

func transpilable(path string) bool {
	st, err := source.Classify(path)
	return err == nil && !st.Declaration
}
