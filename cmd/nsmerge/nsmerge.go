package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pcj/mobyprogress"
	"github.com/rs/zerolog"

	"github.com/dmbarbour/glas-ns/pkg/collections"
	"github.com/dmbarbour/glas-ns/pkg/dict"
	"github.com/dmbarbour/glas-ns/pkg/eval"
	"github.com/dmbarbour/glas-ns/pkg/nsop"
	"github.com/dmbarbour/glas-ns/pkg/optimize"
)

var (
	outputFile   string
	dictFile     string
	optimizeTree bool
	parallelism  int
	verbose      bool
	filters      collections.StringSlice
)

func main() {
	log.SetPrefix("nsmerge: ")
	log.SetFlags(0) // don't print timestamps

	fs := flag.NewFlagSet("nsmerge", flag.ContinueOnError)
	fs.StringVar(&outputFile, "output_file", "", "the output file to write")
	fs.StringVar(&dictFile, "dict_file", "", "optional initial dictionary to merge into")
	fs.BoolVar(&optimizeTree, "optimize", false, "rewrite the operation tree before evaluating it")
	fs.IntVar(&parallelism, "parallelism", 1, "number of namespace branches to evaluate concurrently")
	fs.BoolVar(&verbose, "verbose", false, "enable trace logging")
	fs.Var(&filters, "filter", "glob pattern selecting output names, with optional +/- prefix; repeatable, last match wins")

	if err := fs.Parse(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
	if outputFile == "" {
		log.Fatal("-output_file is required")
	}
	if len(fs.Args()) == 0 {
		log.Fatal("positional args should be a non-empty list of .nsop.yaml files to merge: args=", os.Args)
	}
	if err := merge(fs.Args()); err != nil {
		log.Fatal(err)
	}
}

func merge(filenames []string) error {
	progress := mobyprogress.NewProgressOutput(os.Stderr)

	logger := zerolog.Nop()
	if verbose {
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	tacit := dict.New()
	if dictFile != "" {
		var err error
		tacit, err = dict.ReadFile(dictFile)
		if err != nil {
			return err
		}
	}

	ops := make([]*nsop.Op, 0, len(filenames))
	for i, filename := range filenames {
		progress.WriteProgress(mobyprogress.Progress{
			ID:      "load",
			Action:  "reading " + filename,
			Current: int64(i),
			Total:   int64(len(filenames)),
		})
		op, err := nsop.ReadFile(filename)
		if err != nil {
			return err
		}
		ops = append(ops, op)
	}
	op := nsop.Mx(ops...)

	if optimizeTree {
		op = optimize.NewOptimizer(optimize.WithLogger(logger)).Optimize(op)
	}

	evaluator := eval.NewEvaluator(
		eval.WithLogger(logger),
		eval.WithMemo(eval.NewMemo()),
		eval.WithParallelism(parallelism),
	)
	result, err := evaluator.Eval(context.Background(), op, tacit)
	if err != nil {
		return err
	}

	if len(filters) > 0 {
		result, err = filterNames(result, filters)
		if err != nil {
			return err
		}
	}

	progress.WriteProgress(mobyprogress.Progress{
		ID:         "merge",
		Message:    fmt.Sprintf("merged %d bindings from %d files", result.Len(), len(filenames)),
		LastUpdate: true,
	})

	return result.WriteFile(outputFile)
}

// filterNames keeps the bindings selected by the patterns. Each pattern
// may carry a +/- prefix to include or exclude matched names; the last
// matching pattern decides.
func filterNames(d *dict.Dict, patterns []string) (*dict.Dict, error) {
	b := dict.NewBuilder()
	for _, binding := range d.Bindings() {
		keep := false
		for _, pattern := range patterns {
			intent := collections.ParseIntent(pattern)
			ok, err := doublestar.Match(intent.Value, binding.Name)
			if err != nil {
				return nil, fmt.Errorf("bad -filter pattern %q: %w", pattern, err)
			}
			if ok {
				keep = intent.Want
			}
		}
		if keep {
			b.AddBinding(binding)
		}
	}
	return b.Build(), nil
}
