package core

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// PipelineManifest is a pipeline declaration: an ordered list of steps and an
// optional hook run after the first failure.
type PipelineManifest struct {
	Kind             string       `yaml:"kind"`
	Name             string       `yaml:"name"`
	WebhookTokenName string       `yaml:"webhookTokenName,omitempty"`
	Steps            []Step       `yaml:"steps"`
	OnFailure        *FailureHook `yaml:"onFailure,omitempty"`
}

// Step is a named list of shell commands run in order.
type Step struct {
	Name     string   `yaml:"name"`
	Commands []string `yaml:"commands"`
}

// FailureHook lists commands run best-effort once a step has failed.
type FailureHook struct {
	Commands []string `yaml:"commands"`
}

func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	if err := requireFields(node, "step", "name", "commands"); err != nil {
		return err
	}
	type plain Step
	return node.Decode((*plain)(s))
}

func (h *FailureHook) UnmarshalYAML(node *yaml.Node) error {
	if err := requireFields(node, "onFailure", "commands"); err != nil {
		return err
	}
	type plain FailureHook
	return node.Decode((*plain)(h))
}

// UnmarshalYAML accepts the snake_case spellings webhook_token and
// on_failure next to the camelCase ones.
func (p *PipelineManifest) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Kind             string       `yaml:"kind"`
		Name             string       `yaml:"name"`
		WebhookTokenName string       `yaml:"webhookTokenName"`
		WebhookToken     string       `yaml:"webhook_token"`
		Steps            []Step       `yaml:"steps"`
		OnFailure        *FailureHook `yaml:"onFailure"`
		OnFailureSnake   *FailureHook `yaml:"on_failure"`
	}
	if err := requireFields(node, "pipeline", "name", "steps"); err != nil {
		return err
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	*p = PipelineManifest{
		Kind:             raw.Kind,
		Name:             raw.Name,
		WebhookTokenName: raw.WebhookTokenName,
		Steps:            raw.Steps,
		OnFailure:        raw.OnFailure,
	}
	if p.WebhookTokenName == "" {
		p.WebhookTokenName = raw.WebhookToken
	}
	if p.OnFailure == nil {
		p.OnFailure = raw.OnFailureSnake
	}
	return nil
}

// Validate reports structural problems the loader tolerates: no steps,
// unnamed steps, steps without commands and blank commands. All problems
// are returned joined.
func (p *PipelineManifest) Validate() error {
	var errs []error
	if len(p.Steps) == 0 {
		errs = append(errs, errors.New("pipeline declares no steps"))
	}
	for i, step := range p.Steps {
		if step.Name == "" {
			errs = append(errs, fmt.Errorf("step %d has no name", i+1))
		}
		if len(step.Commands) == 0 {
			errs = append(errs, fmt.Errorf("step %q has no commands", step.label(i)))
		}
		for j, c := range step.Commands {
			if strings.TrimSpace(c) == "" {
				errs = append(errs, fmt.Errorf("step %q command %d is empty", step.label(i), j+1))
			}
		}
	}
	if p.OnFailure != nil {
		for j, c := range p.OnFailure.Commands {
			if strings.TrimSpace(c) == "" {
				errs = append(errs, fmt.Errorf("onFailure command %d is empty", j+1))
			}
		}
	}
	return errors.Join(errs...)
}

func (s Step) label(i int) string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("#%d", i+1)
}

// Locators addresses the two manifests of one pipeline. Secrets is empty
// when the pipeline has no secret manifest.
type Locators struct {
	Pipeline string
	Secrets  string
}
