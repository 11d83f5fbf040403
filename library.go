package orrery

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownAnimation is returned when a name has no library entry.
	ErrUnknownAnimation = errors.New("unknown animation")
	// ErrEmptyLibrary is returned when a library document declares no
	// animations.
	ErrEmptyLibrary = errors.New("animation library is empty")
	// ErrUnknownMaterial is returned by a library material whose name has
	// no loader.
	ErrUnknownMaterial = errors.New("unknown material")
)

// libraryEntry is one animation in a library document. An entry with Chain
// set is a chain; otherwise it is a group.
type libraryEntry struct {
	Duration   float64           `yaml:"duration"`
	Delay      float64           `yaml:"delay"`
	Function   string            `yaml:"function"`
	Properties map[string]string `yaml:"properties"`
	Materials  []string          `yaml:"materials"`

	Chain     []string `yaml:"chain"`
	Execution string   `yaml:"execution"`
}

type libraryDoc struct {
	Animations map[string]libraryEntry `yaml:"animations"`
}

// Library holds named animations declared in YAML. Chains reference other
// entries by name; references resolve on first Get.
type Library struct {
	entries   map[string]libraryEntry
	materials map[string]*LazyMaterial
	loaders   map[string]MaterialLoader
	built     map[string]ExecutableAnimation
}

// LoadAnimationLibrary parses a library document. Material names used by
// groups are looked up in loaders when the animation first runs or is
// preloaded.
func LoadAnimationLibrary(data []byte, loaders map[string]MaterialLoader) (*Library, error) {
	var doc libraryDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse animation library: %w", err)
	}
	if len(doc.Animations) == 0 {
		return nil, ErrEmptyLibrary
	}
	for name, e := range doc.Animations {
		if len(e.Chain) > 0 && (len(e.Properties) > 0 || len(e.Materials) > 0) {
			return nil, fmt.Errorf("animation %q: chain entries cannot declare properties or materials", name)
		}
		if len(e.Chain) > 0 {
			if _, err := parseChainExecution(e.Execution); err != nil {
				return nil, fmt.Errorf("animation %q: %w", name, err)
			}
		}
	}
	return &Library{
		entries:   doc.Animations,
		materials: make(map[string]*LazyMaterial),
		loaders:   loaders,
		built:     make(map[string]ExecutableAnimation),
	}, nil
}

// LoadAnimationLibraryFile reads and parses a library document from path.
func LoadAnimationLibraryFile(path string, loaders map[string]MaterialLoader) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read animation library: %w", err)
	}
	return LoadAnimationLibrary(data, loaders)
}

func parseChainExecution(s string) (ChainExecution, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "serial":
		return ChainSerial, nil
	case "parallel":
		return ChainParallel, nil
	default:
		return ChainSerial, fmt.Errorf("unknown chain execution %q", s)
	}
}

// Names returns the entry names in sorted order.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.entries))
	for name := range l.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Get returns a fresh copy of the named animation.
func (l *Library) Get(name string) (ExecutableAnimation, error) {
	a, err := l.build(name, nil)
	if err != nil {
		return nil, err
	}
	return a.Copy(), nil
}

func (l *Library) build(name string, path []string) (ExecutableAnimation, error) {
	if a, ok := l.built[name]; ok {
		return a, nil
	}
	e, ok := l.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAnimation, name)
	}
	if slices.Contains(path, name) {
		return nil, fmt.Errorf("animation %q: reference cycle %s", name, strings.Join(append(path, name), " -> "))
	}

	var a ExecutableAnimation
	if len(e.Chain) > 0 {
		exec, _ := parseChainExecution(e.Execution)
		chain := NewChain(exec)
		for _, ref := range e.Chain {
			child, err := l.build(ref, append(path, name))
			if err != nil {
				return nil, fmt.Errorf("animation %q: %w", name, err)
			}
			chain.AddAnimation(child)
		}
		a = chain
	} else {
		mats := make([]*LazyMaterial, 0, len(e.Materials))
		for _, m := range e.Materials {
			mats = append(mats, l.material(m))
		}
		a = ParseGroup(e.Duration, e.Delay, e.Function, e.Properties, mats)
	}
	l.built[name] = a
	return a, nil
}

// material returns the shared lazy material for name.
func (l *Library) material(name string) *LazyMaterial {
	if m, ok := l.materials[name]; ok {
		return m
	}
	load, ok := l.loaders[name]
	if !ok {
		load = func() (*Material, error) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMaterial, name)
		}
	}
	m := NewLazyMaterial(name, load)
	l.materials[name] = m
	return m
}
