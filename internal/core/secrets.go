package core

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

const (
	KindSecret   = "secret"
	KindPipeline = "pipeline"
)

const redacted = "[redacted]"

// Secret holds a plaintext secret value. Every textual rendering of a Secret
// (fmt verbs, slog, JSON) prints a placeholder; Reveal is the only way to
// get at the value, and should only be called when handing the value to a
// spawned process or comparing tokens.
type Secret string

func (s Secret) Reveal() string { return string(s) }

func (s Secret) String() string { return redacted }

func (s Secret) GoString() string { return redacted }

func (s Secret) LogValue() slog.Value { return slog.StringValue(redacted) }

func (s Secret) MarshalJSON() ([]byte, error) { return []byte(`"` + redacted + `"`), nil }

func (s Secret) MarshalYAML() (any, error) { return redacted, nil }

// SecretMap maps secret names to their values. It is built fresh for every
// execution or authentication check and must not outlive it.
type SecretMap map[string]Secret

// Environ renders the map as NAME=value entries for a process environment.
func (m SecretMap) Environ() []string {
	env := make([]string, 0, len(m))
	for _, name := range m.Names() {
		env = append(env, name+"="+m[name].Reveal())
	}
	return env
}

// Names returns the secret names in sorted order.
func (m SecretMap) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SecretManifest is the on-disk secret declaration document.
type SecretManifest struct {
	Kind    string        `yaml:"kind"`
	Name    string        `yaml:"name"`
	Secrets []SecretEntry `yaml:"secrets"`
}

func (m *SecretManifest) UnmarshalYAML(node *yaml.Node) error {
	if err := requireFields(node, "secret manifest", "name", "secrets"); err != nil {
		return err
	}
	type plain SecretManifest
	return node.Decode((*plain)(m))
}

type SecretEntry struct {
	Name  string `yaml:"name"`
	Value Secret `yaml:"value"`
}

// UnmarshalYAML requires both fields. An empty value is allowed, an empty
// name is not: it cannot become an environment variable.
func (e *SecretEntry) UnmarshalYAML(node *yaml.Node) error {
	if err := requireFields(node, "secret", "name", "value"); err != nil {
		return err
	}
	type plain SecretEntry
	if err := node.Decode((*plain)(e)); err != nil {
		return err
	}
	if e.Name == "" {
		return fmt.Errorf("line %d: secret name is empty", node.Line)
	}
	return nil
}

// kindHeader is decoded before the rest of a document so that a document
// with the wrong tag is rejected before any other field is looked at.
type kindHeader struct {
	Kind string `yaml:"kind"`
}

func checkKind(data []byte, want string) error {
	var h kindHeader
	if err := yaml.Unmarshal(data, &h); err != nil {
		return &ParseError{Err: err}
	}
	if h.Kind != want {
		return &InvalidKindError{Expected: want, Actual: h.Kind}
	}
	return nil
}

func parseSecretManifest(data []byte) (*SecretManifest, error) {
	if err := checkKind(data, KindSecret); err != nil {
		return nil, err
	}

	var manifest SecretManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, &ParseError{Err: err}
	}
	return &manifest, nil
}

// ParseSecretMap parses a secret manifest and builds its SecretMap. A
// repeated secret name fails the whole load.
func ParseSecretMap(data []byte) (SecretMap, error) {
	manifest, err := parseSecretManifest(data)
	if err != nil {
		return nil, err
	}

	secrets := make(SecretMap, len(manifest.Secrets))
	for _, entry := range manifest.Secrets {
		if _, ok := secrets[entry.Name]; ok {
			return nil, &DuplicateSecretError{Name: entry.Name}
		}
		secrets[entry.Name] = entry.Value
	}
	return secrets, nil
}

// LoadSecretMap reads the secret manifest at path and builds its SecretMap.
func LoadSecretMap(path string) (SecretMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading secret manifest: %w", err)
	}

	secrets, err := ParseSecretMap(data)
	if err != nil {
		return nil, withLocator(err, path)
	}
	return secrets, nil
}

// SecretManifestName returns the declared name of a secret manifest without
// building its SecretMap.
func SecretManifestName(contents string) (string, error) {
	manifest, err := parseSecretManifest([]byte(contents))
	if err != nil {
		return "", err
	}
	return manifest.Name, nil
}
