package ui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/natedelduca/json-splitter/internal/config"
)

// Selection captures the user's choices from the interactive form.
type Selection struct {
	InputPath    string
	ArrayKey     string
	OutputDir    string
	JSONPath     string
	Separator    string
	ManifestPath string
	WantManifest bool
}

// FromConfig prefills a selection with the persisted values.
func FromConfig(cfg config.Config) Selection {
	return Selection{
		InputPath:    cfg.InputPath,
		ArrayKey:     cfg.ArrayKey,
		OutputDir:    cfg.OutputDir,
		JSONPath:     cfg.JSONPath,
		Separator:    cfg.Separator,
		ManifestPath: cfg.ManifestPath,
		WantManifest: cfg.ManifestPath != "",
	}
}

// Apply writes the selection into cfg, trimming surrounding whitespace.
// The manifest path is dropped when the manifest was declined.
func (s Selection) Apply(cfg config.Config) config.Config {
	cfg.InputPath = strings.TrimSpace(s.InputPath)
	cfg.ArrayKey = strings.TrimSpace(s.ArrayKey)
	cfg.OutputDir = strings.TrimSpace(s.OutputDir)
	cfg.JSONPath = strings.TrimSpace(s.JSONPath)
	cfg.Separator = s.Separator
	cfg.ManifestPath = ""
	if s.WantManifest {
		cfg.ManifestPath = strings.TrimSpace(s.ManifestPath)
	}
	return cfg
}

func requireInput(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("input file path is required")
	}
	return nil
}

// RunSelection displays the Charmbracelet/huh form and returns the user's selection.
func RunSelection(current config.Config) (Selection, error) {
	selection := FromConfig(current)

	optionsForm := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Input JSON file").
				Value(&selection.InputPath).
				Validate(requireInput),
			huh.NewInput().
				Title("Array key (empty when the document is the array)").
				Value(&selection.ArrayKey),
			huh.NewInput().
				Title("Output directory (optional)").
				Value(&selection.OutputDir),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("JSON path to the file name value, keys separated by /").
				Value(&selection.JSONPath),
			huh.NewInput().
				Title("Separator splitting the value into directory and file name").
				CharLimit(1).
				Value(&selection.Separator).
				Validate(config.ValidateSeparator),
			huh.NewConfirm().
				Title("Write a manifest of produced files?").
				Value(&selection.WantManifest),
		),
	)
	if err := optionsForm.Run(); err != nil {
		return Selection{}, err
	}

	if selection.WantManifest {
		manifestForm := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Manifest file path").
					Value(&selection.ManifestPath).
					Validate(func(s string) error {
						if strings.TrimSpace(s) == "" {
							return errors.New("manifest path is required")
						}
						return nil
					}),
			),
		)
		if err := manifestForm.Run(); err != nil {
			return Selection{}, err
		}
	}

	return selection, nil
}
