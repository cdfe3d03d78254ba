// Package loader reads form definitions from JSON or YAML and checks them
// before they reach a session.
package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formengine/pkg/model"
)

// ErrInvalidDefinition wraps definitions carrying error-severity issues.
var ErrInvalidDefinition = errors.New("loader: invalid form definition")

// Option configures a Loader.
type Option func(*Loader)

// WithLogger routes warnings to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Loader parses and validates definitions.
type Loader struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// New constructs a loader with the fieldtype rule registered.
func New(opts ...Option) *Loader {
	v := validator.New()
	if err := v.RegisterValidation("fieldtype", fieldTypeValidator); err != nil {
		panic(fmt.Sprintf("loader: register fieldtype rule: %v", err))
	}
	l := &Loader{validate: v, logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

func fieldTypeValidator(fl validator.FieldLevel) bool {
	return model.FieldType(fl.Field().String()).Valid()
}

var defaultLoader = New()

// Load parses and validates data with the default loader.
func Load(data []byte, source string) (model.FormStructure, Result, error) {
	return defaultLoader.Load(data, source)
}

// LoadFile reads a definition from disk with the default loader.
func LoadFile(path string) (model.FormStructure, Result, error) {
	return defaultLoader.LoadFile(path)
}

// Validate checks a structure with the default loader.
func Validate(structure model.FormStructure) Result {
	return defaultLoader.Validate(structure)
}

// Parse decodes a definition. Documents are either {"attrs": [...]} or a
// bare field list; JSON is tried before YAML.
func (l *Loader) Parse(data []byte, source string) (model.FormStructure, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return model.FormStructure{}, fmt.Errorf("loader: file %s is empty", source)
	}

	var structure model.FormStructure
	if err := json.Unmarshal(data, &structure); err == nil {
		return structure, nil
	}
	if err := json.Unmarshal(data, &structure.Attrs); err == nil {
		return structure, nil
	}

	var yamlErr error
	if yamlErr = yaml.Unmarshal(data, &structure); yamlErr == nil && structure.Attrs != nil {
		return structure, nil
	}
	var attrs []model.FormField
	if err := yaml.Unmarshal(data, &attrs); err == nil {
		return model.FormStructure{Attrs: attrs}, nil
	}
	if yamlErr == nil {
		return structure, nil
	}
	return model.FormStructure{}, fmt.Errorf("loader: parse %s: invalid JSON or YAML: %w", source, yamlErr)
}

// Load parses data and validates the result. Warnings are logged; errors
// fail the load with ErrInvalidDefinition.
func (l *Loader) Load(data []byte, source string) (model.FormStructure, Result, error) {
	structure, err := l.Parse(data, source)
	if err != nil {
		return model.FormStructure{}, Result{}, err
	}
	result := l.Validate(structure)
	for i := range result.Issues {
		result.Issues[i].Source = source
	}
	for _, issue := range result.Warnings() {
		l.logger.Warn("form definition warning", "source", source, "field", issue.Key, "rule", issue.Rule, "message", issue.Message)
	}
	if !result.Valid {
		return structure, result, fmt.Errorf("%w: %s: %s", ErrInvalidDefinition, source, result.Summary())
	}
	return structure, result, nil
}

// LoadFile reads and loads one definition file.
func (l *Loader) LoadFile(path string) (model.FormStructure, Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.FormStructure{}, Result{}, fmt.Errorf("loader: read %s: %w", path, err)
	}
	return l.Load(data, path)
}

// Definition is one file loaded by LoadFS.
type Definition struct {
	Name      string
	Path      string
	Structure model.FormStructure
	Result    Result
}

// LoadFS walks fsys and loads every .json, .yaml and .yml file. Definitions
// are named by their path without extension and returned sorted by name.
func (l *Loader) LoadFS(fsys fs.FS) ([]Definition, error) {
	if fsys == nil {
		return nil, nil
	}
	var defs []Definition
	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !IsDefinitionFile(path) {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("loader: read %s: %w", path, err)
		}
		structure, result, err := l.Load(data, path)
		if err != nil {
			return err
		}
		defs = append(defs, Definition{
			Name:      strings.TrimSuffix(path, filepath.Ext(path)),
			Path:      path,
			Structure: structure,
			Result:    result,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs, nil
}

// IsDefinitionFile reports whether path has a supported extension.
func IsDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
