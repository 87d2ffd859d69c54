package sandbox

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"gitlab.com/quizcore-2025.net/internal/core/ports/secondary"
	"gitlab.com/quizcore-2025.net/internal/domain"
)

// builtinProfiles is the reference language table. Entries can be replaced
// or extended through a YAML file (SANDBOX_LANGUAGES_FILE).
var builtinProfiles = []domain.LanguageProfile{
	{ID: "python", Image: "python:3.9", FileExt: ".py", FileName: "main.py", RunCommand: "python main.py", Timeout: 10 * time.Second},
	{ID: "javascript", Image: "node:16", FileExt: ".js", FileName: "main.js", RunCommand: "node main.js", Timeout: 10 * time.Second},
	{ID: "cpp", Image: "gcc:latest", FileExt: ".cpp", FileName: "main.cpp", RunCommand: "g++ -o main main.cpp && ./main", Timeout: 15 * time.Second},
	{ID: "c", Image: "gcc:latest", FileExt: ".c", FileName: "main.c", RunCommand: "gcc -o main main.c && ./main", Timeout: 15 * time.Second},
	{ID: "java", Image: "openjdk:11", FileExt: ".java", FileName: "Main.java", RunCommand: "javac Main.java && java Main", Timeout: 15 * time.Second},
}

// Registry is the read-only language lookup table.
type Registry struct {
	profiles map[string]domain.LanguageProfile
}

var _ secondary.LanguageRegistry = (*Registry)(nil)

// NewRegistry builds a registry from the built-in table.
func NewRegistry() *Registry {
	profiles := make(map[string]domain.LanguageProfile, len(builtinProfiles))
	for _, p := range builtinProfiles {
		profiles[p.ID] = p
	}
	return &Registry{profiles: profiles}
}

type languageSpec struct {
	ID        string `yaml:"id"`
	Image     string `yaml:"image"`
	Extension string `yaml:"extension"`
	Filename  string `yaml:"filename"`
	Run       string `yaml:"run"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

type languagesFile struct {
	Languages []languageSpec `yaml:"languages"`
}

// NewRegistryFromFile layers YAML-defined profiles over the built-in table.
func NewRegistryFromFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read languages file: %w", err)
	}

	var file languagesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse languages file: %w", err)
	}

	registry := NewRegistry()
	for _, spec := range file.Languages {
		if spec.ID == "" || spec.Image == "" || spec.Run == "" {
			return nil, fmt.Errorf("language entry %q is missing id, image or run", spec.ID)
		}
		filename := spec.Filename
		if filename == "" {
			filename = "main" + spec.Extension
		}
		timeout := time.Duration(spec.TimeoutMs) * time.Millisecond
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		registry.profiles[spec.ID] = domain.LanguageProfile{
			ID:         spec.ID,
			Image:      spec.Image,
			FileExt:    spec.Extension,
			FileName:   filename,
			RunCommand: spec.Run,
			Timeout:    timeout,
		}
	}
	return registry, nil
}

// Lookup resolves a language id.
func (r *Registry) Lookup(languageID string) (domain.LanguageProfile, error) {
	profile, ok := r.profiles[languageID]
	if !ok {
		return domain.LanguageProfile{}, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, languageID)
	}
	return profile, nil
}

// Languages returns the registered ids, sorted.
func (r *Registry) Languages() []string {
	ids := make([]string, 0, len(r.profiles))
	for id := range r.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
