package deploy

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"

	"github.com/secretfill-dev/secretfill/internal/conf"
	"github.com/secretfill-dev/secretfill/internal/descriptor"
	"github.com/secretfill-dev/secretfill/internal/provider"
)

// Options tunes a deployment run.
type Options struct {
	// Provider carries the global provider settings from flags.
	Provider provider.Config
	// Filter is an optional expression selecting which descriptors run.
	// Variables: name, config, tags. Empty matches everything.
	Filter string
	// Jobs is the number of descriptors processed concurrently. Values
	// below 2 keep the strictly sequential default.
	Jobs int
	// DryRun renders configurations to stdout instead of writing them.
	DryRun bool
}

// Runner loads descriptors, resolves the handler/provider pair for each, and
// executes the pipelines. The policy is fail-fast: starting a container with
// an unconfigured secret is worse than refusing to start.
type Runner struct {
	loader descriptor.Loader
	opts   Options
}

// NewRunner builds a runner on top of a descriptor loader.
func NewRunner(loader descriptor.Loader, opts Options) *Runner {
	return &Runner{loader: loader, opts: opts}
}

// Run executes the full deployment and returns the first error encountered.
func (r *Runner) Run(ctx context.Context) error {
	descs, err := r.loader.Load()
	if err != nil {
		return err
	}

	descs, err = r.filter(descs)
	if err != nil {
		return err
	}

	log.Debug().Int("descriptors", len(descs)).Msg("loaded deployment descriptors")

	// Reject duplicate targets before any file I/O. This also guarantees
	// the parallel path below only ever writes disjoint files.
	seen := make(map[string]bool, len(descs))
	for _, d := range descs {
		path := filepath.Clean(d.Config)
		if seen[path] {
			return &ConflictError{Path: path}
		}
		seen[path] = true
	}

	pipelines := make([]*Pipeline, 0, len(descs))
	for _, d := range descs {
		handler, err := conf.New(d.Type, d.HandlerOptions())
		if err != nil {
			return &DeployError{Config: d.Config, Stage: StageTemplatize, Err: err}
		}

		prov, err := provider.New(d.Provider, r.opts.Provider)
		if err != nil {
			return &DeployError{Config: d.Config, Stage: StageResolve, Err: err}
		}

		p := NewPipeline(d, handler, prov)
		p.WriteConfig = !r.opts.DryRun
		pipelines = append(pipelines, p)
	}

	if r.opts.Jobs > 1 && !r.opts.DryRun {
		return r.runParallel(ctx, pipelines)
	}

	for _, p := range pipelines {
		text, err := p.Deploy()
		if err != nil {
			return err
		}
		if r.opts.DryRun {
			printDryRun(os.Stdout, p.desc.Config, text)
		}
	}

	return nil
}

// printDryRun writes one rendered configuration under a divider header,
// matching the divider the run command prints before the wrapped process.
func printDryRun(w io.Writer, config, text string) {
	divider := fmt.Sprintf("-- [DRY RUN] %s ", config)
	if len(divider) < 80 {
		divider += strings.Repeat("-", 80-len(divider))
	}
	fmt.Fprintln(w, divider)
	fmt.Fprintln(w, text)
}

// runParallel deploys independent descriptors concurrently. Target paths are
// known disjoint at this point; each file write stays atomic on its own.
func (r *Runner) runParallel(ctx context.Context, pipelines []*Pipeline) error {
	p := pool.New().
		WithContext(ctx).
		WithFirstError().
		WithCancelOnError().
		WithMaxGoroutines(r.opts.Jobs)

	for _, pl := range pipelines {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := pl.Deploy()
			return err
		})
	}

	return p.Wait()
}

// filter applies the descriptor selection expression, if any.
func (r *Runner) filter(descs []descriptor.Descriptor) ([]descriptor.Descriptor, error) {
	program, err := compileFilter(r.opts.Filter)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression %q: %w", r.opts.Filter, err)
	}

	matched := make([]descriptor.Descriptor, 0, len(descs))
	for _, d := range descs {
		ok, err := matchFilter(program, d)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate filter for %s: %w", d.Config, err)
		}
		if ok {
			matched = append(matched, d)
			continue
		}
		log.Debug().Str("config", d.Config).Strs("tags", d.Tags).Msg("filtered descriptor")
	}

	return matched, nil
}

// compileFilter compiles an expression string once for reuse.
func compileFilter(code string) (*vm.Program, error) {
	if code == "" {
		code = "true" // default: match everything
	}
	return expr.Compile(code, expr.AsBool())
}

func matchFilter(program *vm.Program, d descriptor.Descriptor) (bool, error) {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}

	out, err := expr.Run(program, map[string]any{
		"name":   d.Name(),
		"config": d.Config,
		"tags":   tags,
	})
	if err != nil {
		return false, err
	}

	matched, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("filter expression must evaluate to a boolean")
	}

	return matched, nil
}
