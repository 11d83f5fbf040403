package orrery

import (
	"fmt"
	"os"

	"github.com/tanema/gween/ease"
	"gopkg.in/yaml.v3"
)

// scriptStep is a single action in a scene script.
type scriptStep struct {
	Action    string    `yaml:"action"`
	Label     string    `yaml:"label,omitempty"`
	Node      string    `yaml:"node,omitempty"`
	Animation string    `yaml:"animation,omitempty"`
	Position  []float64 `yaml:"position,omitempty"`
	Duration  float64   `yaml:"duration,omitempty"`
	Frames    int       `yaml:"frames,omitempty"`
}

type scriptDoc struct {
	Steps []scriptStep `yaml:"steps"`
}

// ScriptRunner sequences animations, portal changes, camera moves and
// screenshots across frames for automated visual testing. Attach to a Scene
// with SetScript. Scripts are YAML; JSON documents parse as well.
type ScriptRunner struct {
	steps     []scriptStep
	library   *Library
	cursor    int
	waitCount int
	done      bool
}

// LoadScript parses a script document. library resolves "animate" steps
// that name a library entry; it may be nil.
func LoadScript(data []byte, library *Library) (*ScriptRunner, error) {
	var doc scriptDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if len(doc.Steps) == 0 {
		return nil, fmt.Errorf("parse script: no steps")
	}
	for i, st := range doc.Steps {
		switch st.Action {
		case "wait", "screenshot", "animate", "pause", "resume", "terminate", "enterPortal":
		case "moveCamera":
			if len(st.Position) != 3 {
				return nil, fmt.Errorf("parse script: step %d: moveCamera needs a 3-element position", i)
			}
		default:
			return nil, fmt.Errorf("parse script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &ScriptRunner{steps: doc.Steps, library: library}, nil
}

// LoadScriptFile reads and parses a script from path.
func LoadScriptFile(path string, library *Library) (*ScriptRunner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return LoadScript(data, library)
}

// SetScript attaches a script runner, stepped at the start of each Update.
func (s *Scene) SetScript(runner *ScriptRunner) {
	s.script = runner
}

// Done reports whether every step has run.
func (r *ScriptRunner) Done() bool {
	return r.done
}

// step advances the script by one frame.
func (r *ScriptRunner) step(s *Scene) {
	if r.done {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		if r.waitCount == 0 && r.cursor >= len(r.steps) {
			r.done = true
		}
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++
	r.run(s, st)

	if r.cursor >= len(r.steps) && r.waitCount == 0 {
		r.done = true
	}
}

func (r *ScriptRunner) run(s *Scene, st scriptStep) {
	switch st.Action {
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	case "screenshot":
		s.Screenshot(st.Label)
	case "moveCamera":
		s.camera.MoveTo(Vec3{st.Position[0], st.Position[1], st.Position[2]}, float32(st.Duration), ease.InOutQuad)
	case "enterPortal":
		n := r.node(s, st)
		if n == nil {
			return
		}
		if !n.IsPortal() {
			logger.Warn("script: not a portal", "node", st.Node)
			return
		}
		s.SetActivePortal(n)
	case "animate":
		n := r.node(s, st)
		if n == nil {
			return
		}
		if r.library != nil {
			if a, err := r.library.Get(st.Animation); err == nil {
				if prev, ok := n.Animation(st.Animation); ok {
					prev.Terminate(false)
				}
				n.AddAnimation(st.Animation, a)
			}
		}
		a, ok := n.Animation(st.Animation)
		if !ok {
			logger.Warn("script: no such animation", "node", st.Node, "animation", st.Animation)
			return
		}
		s.RunAnimation(n, a, nil)
	case "pause", "resume", "terminate":
		n := r.node(s, st)
		if n == nil {
			return
		}
		a, ok := n.Animation(st.Animation)
		if !ok {
			logger.Warn("script: no such animation", "node", st.Node, "animation", st.Animation)
			return
		}
		switch st.Action {
		case "pause":
			a.Pause()
		case "resume":
			a.Resume()
		default:
			a.Terminate(true)
		}
	}
}

func (r *ScriptRunner) node(s *Scene, st scriptStep) *Node {
	n := s.root.FindByName(st.Node)
	if n == nil {
		logger.Warn("script: node not found", "action", st.Action, "node", st.Node)
	}
	return n
}
