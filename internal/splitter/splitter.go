// Package splitter writes every element of a JSON array to its own file.
//
// A run loads the input document, extracts the target array, resolves an
// output path per element and persists it, and finally records the sorted
// list of produced files in an optional manifest.
//
// Error policy: loading, array extraction and path resolution abort the run.
// Failures while writing an element are reported and the run continues; they
// surface as ErrWrite once every element has been processed.
package splitter

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/natedelduca/json-splitter/internal/config"
	"github.com/natedelduca/json-splitter/internal/console"
	"github.com/natedelduca/json-splitter/internal/output"
	"github.com/natedelduca/json-splitter/internal/pathresolve"
)

var (
	// ErrLoad reports an input document that cannot be read or decoded.
	ErrLoad = errors.New("load input")
	// ErrArray reports a missing array key or a value that is not an array.
	ErrArray = errors.New("extract array")
	// ErrWrite reports element or manifest files that could not be written.
	ErrWrite = errors.New("write output")
)

// Result summarises a run.
type Result struct {
	Written  int
	Failed   int
	Entries  []string
	Manifest string
}

// Splitter runs splits and reports progress through Printer.
type Splitter struct {
	Printer *console.Printer
	Logger  *slog.Logger
}

// New returns a Splitter. A nil logger discards diagnostics.
func New(printer *console.Printer, logger *slog.Logger) *Splitter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Splitter{Printer: printer, Logger: logger}
}

// ManifestEntry formats the manifest reference for an output file.
func ManifestEntry(path string) string {
	return "%file:" + path + "%"
}

// Run performs the split described by cfg, which must already be valid.
func (s *Splitter) Run(cfg config.Config) (Result, error) {
	var res Result

	s.Printer.Print(console.Info, "Loading file", cfg.InputPath)
	doc, err := loadDocument(cfg.InputPath)
	if err != nil {
		s.Printer.Print(console.Error, "Error", err.Error())
		return res, err
	}

	elements, err := extractArray(doc, cfg.ArrayKey)
	if err != nil {
		s.Printer.Print(console.Error, "Error", err.Error())
		return res, err
	}
	s.Logger.Debug("extracted array", "key", cfg.ArrayKey, "elements", len(elements))

	resolver := pathresolve.Resolver{
		Keys:      pathresolve.ParsePath(cfg.JSONPath),
		Separator: cfg.Separator,
		BaseDir:   cfg.OutputDir,
	}

	s.Printer.Print(console.Info, "Saving files", "")
	for i, element := range elements {
		target, err := resolver.Resolve(element, i)
		if err != nil {
			err = fmt.Errorf("element %d: %w", i, err)
			s.Printer.Print(console.Error, "Error", err.Error())
			return res, err
		}

		s.Printer.Print(console.Generic, target.File, "")
		if err := s.writeElement(target, element); err != nil {
			s.Printer.Print(console.Error, "Error", err.Error())
			s.Logger.Debug("element write failed", "index", i, "file", target.File, "error", err)
			res.Failed++
		} else {
			res.Written++
		}
		res.Entries = append(res.Entries, ManifestEntry(target.File))
	}

	var manifestErr error
	if cfg.ManifestPath != "" {
		sorted := slices.Clone(res.Entries)
		slices.Sort(sorted)
		if err := output.WriteLines(cfg.ManifestPath, sorted); err != nil {
			manifestErr = fmt.Errorf("%w: manifest %s: %v", ErrWrite, cfg.ManifestPath, err)
			s.Printer.Print(console.Error, "Error", manifestErr.Error())
		} else {
			res.Manifest = cfg.ManifestPath
			s.Printer.Print(console.Info, "Manifest saved", cfg.ManifestPath)
		}
	}

	s.Printer.Printf("wrote %d of %d files", res.Written, len(elements))

	if res.Failed > 0 {
		return res, errors.Join(fmt.Errorf("%w: %d of %d elements failed", ErrWrite, res.Failed, len(elements)), manifestErr)
	}
	return res, manifestErr
}

func (s *Splitter) writeElement(target pathresolve.Target, element any) error {
	if err := pathresolve.EnsureDir(target.Dir); err != nil {
		return err
	}
	return output.WriteJSON(target.File, output.Value(element))
}

func loadDocument(path string) (any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	defer f.Close()

	doc, err := output.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, path, err)
	}
	return doc, nil
}

// extractArray returns doc[key], or doc itself when key is empty.
func extractArray(doc any, key string) ([]any, error) {
	target := doc
	if key != "" {
		obj, ok := doc.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: document is not an object, cannot look up key %q", ErrArray, key)
		}
		target, ok = obj[key]
		if !ok {
			return nil, fmt.Errorf("%w: key %q not found", ErrArray, key)
		}
	}

	elements, ok := target.([]any)
	if !ok {
		if key == "" {
			return nil, fmt.Errorf("%w: document is not an array; use -a/--array to select one", ErrArray)
		}
		return nil, fmt.Errorf("%w: value at %q is not an array", ErrArray, key)
	}
	return elements, nil
}
