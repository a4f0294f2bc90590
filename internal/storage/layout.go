package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"hookci/internal/core"
)

const (
	PipelineFile = "pipeline.yaml"
	SecretsFile  = "secrets.yaml"
)

var ErrInvalidPipelineID = errors.New("invalid pipeline id")

var pipelineID = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// Layout resolves pipeline ids to manifest files under Root:
//
//	<root>/<id>/pipeline.yaml
//	<root>/<id>/secrets.yaml   (optional)
type Layout struct {
	Root string
}

func NewLayout(root string) *Layout {
	return &Layout{Root: root}
}

// ValidatePipelineID rejects ids that could escape the root directory.
func ValidatePipelineID(id string) error {
	if id == "." || id == ".." || !pipelineID.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidPipelineID, id)
	}
	return nil
}

// Locate returns the manifest locators for id. Secrets is empty when the
// pipeline has no secret manifest. The pipeline manifest is not checked for
// existence; loading it reports that.
func (l *Layout) Locate(id string) (core.Locators, error) {
	if err := ValidatePipelineID(id); err != nil {
		return core.Locators{}, err
	}

	dir := filepath.Join(l.Root, id)
	loc := core.Locators{Pipeline: filepath.Join(dir, PipelineFile)}

	secrets := filepath.Join(dir, SecretsFile)
	if _, err := os.Stat(secrets); err == nil {
		loc.Secrets = secrets
	} else if !errors.Is(err, os.ErrNotExist) {
		return core.Locators{}, fmt.Errorf("checking secret manifest: %w", err)
	}
	return loc, nil
}

// List returns the ids of every pipeline directory under Root, sorted.
func (l *Layout) List() ([]string, error) {
	entries, err := os.ReadDir(l.Root)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, e := range entries {
		if !e.IsDir() || ValidatePipelineID(e.Name()) != nil {
			continue
		}
		if _, err := os.Stat(filepath.Join(l.Root, e.Name(), PipelineFile)); err == nil {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}
