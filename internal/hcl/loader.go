package hcl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/attrgrid/internal/config"
	"github.com/vk/attrgrid/internal/ctxlog"
	"github.com/vk/attrgrid/internal/schema"
)

// Loader is the HCL implementation of config.Loader.
type Loader struct{}

// NewLoader creates a new HCL loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load implements config.Loader.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	var files []string
	for _, path := range paths {
		resolved, err := resolvePath(ctx, path)
		if err != nil {
			return nil, err
		}
		files = append(files, resolved...)
	}
	if len(files) == 0 {
		logger.Warn("No .hcl files found at the specified paths.", "paths", paths)
	}

	merged := &schema.Root{}
	for _, file := range files {
		root, err := decodeFile(ctx, file)
		if err != nil {
			return nil, err
		}
		mergeRoot(merged, root)
	}

	model, err := l.translate(ctx, merged)
	if err != nil {
		return nil, err
	}
	logger.Debug("Configuration loaded and translated into unified model.",
		"files", len(files),
		"schemas", len(model.Schemas),
		"processes", len(model.Processes),
		"pipelines", len(model.Pipelines))
	return model, nil
}

// resolvePath takes a path and returns the .hcl files it denotes. A file
// must carry the .hcl extension; a directory is scanned recursively.
func resolvePath(ctx context.Context, path string) ([]string, error) {
	logger := ctxlog.FromContext(ctx)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config path not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("error accessing path %s: %w", path, err)
	}

	if info.IsDir() {
		logger.Debug("Path is a directory, scanning for HCL files.", "directory", path)
		var files []string
		err := filepath.Walk(path, func(p string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !fi.IsDir() && filepath.Ext(p) == ".hcl" {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("error scanning directory %s: %w", path, err)
		}
		return files, nil
	}

	if filepath.Ext(path) != ".hcl" {
		return nil, fmt.Errorf("specified file is not an .hcl file: %s", path)
	}
	return []string{path}, nil
}

// decodeFile parses and decodes a single configuration file.
func decodeFile(ctx context.Context, filePath string) (*schema.Root, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Decoding configuration file.", "path", filePath)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filePath)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %s", filePath, diags.Error())
	}

	var root schema.Root
	diags = gohcl.DecodeBody(file.Body, nil, &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %s", filePath, diags.Error())
	}
	return &root, nil
}

// mergeRoot folds one decoded file into the combined configuration.
func mergeRoot(dst, src *schema.Root) {
	if src.Completion != nil {
		dst.Completion = src.Completion
	}
	if src.Defaults != nil {
		dst.Defaults = src.Defaults
	}
	dst.Schemas = append(dst.Schemas, src.Schemas...)
	dst.Processes = append(dst.Processes, src.Processes...)
	dst.Pipelines = append(dst.Pipelines, src.Pipelines...)
}
