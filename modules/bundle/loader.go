package bundle

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/gobwas/glob"
	"github.com/lkarlslund/stixgraph/modules/collection"
	"github.com/lkarlslund/stixgraph/modules/ui"
	"github.com/pkg/errors"
)

const DefaultPattern = "{*.json,*.json.lz4}"

type Options struct {
	// Glob matched against file names when walking directories
	Pattern string
	Strict  bool
	Workers int
}

type FileResult struct {
	Path    string
	Bundle  string
	Loaded  int
	Skipped int
	Err     error
}

// Loader reads bundle files concurrently into one collection
type Loader struct {
	options Options
	match   glob.Glob

	queue   chan string
	done    sync.WaitGroup
	mutex   sync.Mutex
	results []FileResult
	target  *collection.Collection
}

func NewLoader(options Options) (*Loader, error) {
	if options.Pattern == "" {
		options.Pattern = DefaultPattern
	}
	if options.Workers <= 0 {
		options.Workers = runtime.NumCPU()
	}
	match, err := glob.Compile(options.Pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid file pattern %q", options.Pattern)
	}
	return &Loader{
		options: options,
		match:   match,
	}, nil
}

// Load reads every matching file under paths. Files named explicitly are loaded even if
// they do not match the pattern. In strict mode any failing file fails the load.
func (ld *Loader) Load(ctx context.Context, paths ...string) (*collection.Collection, []FileResult, error) {
	ld.target = collection.New()
	ld.results = nil
	ld.queue = make(chan string, 128)

	for i := 0; i < ld.options.Workers; i++ {
		ld.done.Add(1)
		go func() {
			for path := range ld.queue {
				ld.loadFile(path)
			}
			ld.done.Done()
		}()
	}

	err := ld.enqueue(ctx, paths)
	close(ld.queue)
	ld.done.Wait()

	sort.Slice(ld.results, func(i, j int) bool {
		return ld.results[i].Path < ld.results[j].Path
	})

	if err != nil {
		return nil, ld.results, err
	}
	if ld.options.Strict {
		for _, fr := range ld.results {
			if fr.Err != nil {
				return nil, ld.results, fr.Err
			}
		}
	}
	return ld.target, ld.results, nil
}

func (ld *Loader) enqueue(ctx context.Context, paths []string) error {
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			select {
			case ld.queue <- path:
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err = ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() || !ld.match.Match(d.Name()) {
				return nil
			}
			select {
			case ld.queue <- p:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (ld *Loader) loadFile(path string) {
	fr := FileResult{Path: path}
	log := ui.Warn().Str("file", path)
	result, err := DecodeFile(path, ld.options.Strict)
	if err != nil {
		log.Msgf("Problem loading bundle: %v", err)
		fr.Err = err
	} else {
		fr.Bundle = result.ID.String()
		fr.Skipped = len(result.Failed)
		fr.Loaded, err = ld.target.AddAll(result.Objects)
		if err != nil {
			log.Str("bundle", fr.Bundle).Msgf("Problem adding objects: %v", err)
			fr.Skipped += len(result.Objects) - fr.Loaded
			if ld.options.Strict {
				fr.Err = errors.Wrapf(err, "storing objects from %v", path)
			}
		}
		ui.Debug().Str("file", path).Str("bundle", fr.Bundle).Any("skipped", fr.Skipped).Msgf("Loaded %v objects", fr.Loaded)
	}

	ld.mutex.Lock()
	ld.results = append(ld.results, fr)
	ld.mutex.Unlock()
}
