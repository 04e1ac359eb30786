// Package pathresolve derives the output location of an array element from a
// value inside the element.
package pathresolve

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"
)

// KeyDelimiter separates keys in a JSON path given on the command line.
const KeyDelimiter = "/"

// Extension is appended to every output file stem.
const Extension = ".json"

var (
	// ErrLookup reports a JSON path that does not lead to a usable naming value.
	ErrLookup = errors.New("lookup error")
	// ErrUnsafePath reports a naming value that would escape the output directory.
	ErrUnsafePath = errors.New("unsafe output path")
)

// ParsePath splits a "/"-delimited JSON path into keys.
// Example: "meta/name" -> ["meta", "name"]
func ParsePath(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, KeyDelimiter)
}

// Lookup walks v through keys. Objects are indexed by key, arrays by decimal index.
func Lookup(v any, keys []string) (any, error) {
	cur := v
	for i, key := range keys {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[key]
			if !ok {
				return nil, fmt.Errorf("%w: key %q not found at %s", ErrLookup, key, describe(keys[:i]))
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, fmt.Errorf("%w: index %q out of range at %s (len %d)", ErrLookup, key, describe(keys[:i]), len(node))
			}
			cur = node[idx]
		default:
			return nil, fmt.Errorf("%w: cannot index %T with %q at %s", ErrLookup, cur, key, describe(keys[:i]))
		}
	}
	return cur, nil
}

func describe(keys []string) string {
	if len(keys) == 0 {
		return "element root"
	}
	return strings.Join(keys, KeyDelimiter)
}

// Target is the resolved output location of one element.
type Target struct {
	Dir  string
	File string
}

// Resolver computes targets for elements of one array.
type Resolver struct {
	Keys      []string
	Separator string
	BaseDir   string
}

// Resolve names the element at position index. With no keys the element itself
// is the naming value, and non-scalar elements fall back to their index.
func (r Resolver) Resolve(element any, index int) (Target, error) {
	leaf, err := Lookup(element, r.Keys)
	if err != nil {
		return Target{}, err
	}

	name, ok := scalarName(leaf)
	if !ok {
		if len(r.Keys) > 0 {
			return Target{}, fmt.Errorf("%w: value at %s is %s, not a string or number", ErrLookup, describe(r.Keys), kindOf(leaf))
		}
		name = strconv.Itoa(index)
	}

	return r.target(name)
}

func (r Resolver) target(name string) (Target, error) {
	var component, stem string
	if r.Separator != "" && strings.Contains(name, r.Separator) {
		parts := strings.Split(name, r.Separator)
		component = parts[0]
		stem = strings.Join(parts[1:], r.Separator)
	} else {
		stem = name
	}

	if err := checkSafe(component, stem); err != nil {
		return Target{}, err
	}

	dir := joinDir(r.BaseDir, component)
	file := stem + Extension
	if dir != "" {
		file = dir + "/" + file
	}
	return Target{Dir: dir, File: file}, nil
}

func joinDir(base, component string) string {
	switch {
	case base != "" && component != "":
		return base + "/" + component
	case component != "":
		return component
	default:
		return base
	}
}

func checkSafe(component, stem string) error {
	if isAbs(component) {
		return fmt.Errorf("%w: absolute directory %q", ErrUnsafePath, component)
	}
	if isAbs(stem) {
		return fmt.Errorf("%w: absolute file name %q", ErrUnsafePath, stem)
	}
	for _, s := range []string{component, stem} {
		for _, seg := range strings.FieldsFunc(s, func(r rune) bool { return r == '/' || r == '\\' }) {
			if seg == ".." {
				return fmt.Errorf("%w: %q contains a parent directory reference", ErrUnsafePath, s)
			}
		}
	}
	return nil
}

func isAbs(s string) bool {
	return path.IsAbs(s) || strings.HasPrefix(s, `\`)
}

func scalarName(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	default:
		return "", false
	}
}

func kindOf(v any) string {
	switch v.(type) {
	case map[string]any:
		return "an object"
	case []any:
		return "an array"
	case bool:
		return "a boolean"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// EnsureDir creates dir and any missing parents. Existing directories are fine.
func EnsureDir(dir string) error {
	if dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
