// Package playbook provides the immutable response-procedure graphs that
// drive simulated incidents.
//
// Playbook definitions are written in YAML and validated structurally at
// load time, so that a session can never bind to a graph with a dangling
// start node or option target.
//
// # YAML Structure Example
//
//	id: ransomware
//	name: Ransomware Response
//	start: triage-alert
//	nodes:
//	  - id: triage-alert
//	    title: Triage the initial alert
//	    phase: detection
//	    guidance: |
//	      Review the EDR alert and confirm encryption activity.
//	    techniques: [T1486]
//	    options:
//	      - label: Confirm and scope affected hosts
//	        action: pull-edr-telemetry
//	        next: scope-hosts
//	      - label: Dismiss as false positive
//
// An option without a `next` key is terminal or informational: selecting it
// records the action but does not move the session.
package playbook

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/haven-sec/rehearse/internal/types"
)

// yamlPlaybook is the top-level structure of a playbook YAML file. Nodes are
// declared as an ordered list and indexed into the Playbook's node map.
type yamlPlaybook struct {
	ID    string     `yaml:"id"`
	Name  string     `yaml:"name"`
	Start string     `yaml:"start"`
	Nodes []yamlNode `yaml:"nodes"`
}

// yamlNode mirrors Node for YAML decoding.
type yamlNode struct {
	ID         string   `yaml:"id"`
	Title      string   `yaml:"title"`
	Phase      string   `yaml:"phase"`
	Guidance   string   `yaml:"guidance"`
	Reference  string   `yaml:"reference"`
	Techniques []string `yaml:"techniques"`
	Options    []Option `yaml:"options"`
}

// ParsePlaybook parses YAML playbook content and validates it structurally.
// A playbook returned by ParsePlaybook is traversal-safe.
func ParsePlaybook(data []byte) (*Playbook, error) {
	var raw yamlPlaybook
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, types.WrapError(types.PLAYBOOK_LOAD_FAILED, "failed to parse playbook YAML", err)
	}

	pb := &Playbook{
		ID:          raw.ID,
		Name:        raw.Name,
		StartNodeID: raw.Start,
		Nodes:       make(map[string]*Node, len(raw.Nodes)),
	}

	for i, yn := range raw.Nodes {
		if yn.ID == "" {
			return nil, types.NewErrorf(types.PLAYBOOK_LOAD_FAILED,
				"playbook %s: node at index %d has no id", raw.ID, i)
		}
		if _, exists := pb.Nodes[yn.ID]; exists {
			return nil, types.NewErrorf(types.PLAYBOOK_LOAD_FAILED,
				"playbook %s: duplicate node id %q", raw.ID, yn.ID)
		}
		pb.Nodes[yn.ID] = &Node{
			ID:              yn.ID,
			Title:           yn.Title,
			Phase:           types.Phase(yn.Phase),
			Guidance:        strings.TrimSpace(yn.Guidance),
			Options:         yn.Options,
			MITRETechniques: yn.Techniques,
			Reference:       strings.TrimSpace(yn.Reference),
		}
	}

	if err := NewValidator().Validate(pb); err != nil {
		return nil, err
	}
	return pb, nil
}

// LoadPlaybookFile reads and parses a playbook definition from a YAML file.
func LoadPlaybookFile(path string) (*Playbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.WrapError(types.PLAYBOOK_LOAD_FAILED,
			fmt.Sprintf("failed to read playbook file %s", path), err)
	}
	pb, err := ParsePlaybook(data)
	if err != nil {
		return nil, types.WrapError(types.PLAYBOOK_LOAD_FAILED,
			fmt.Sprintf("invalid playbook in %s", path), err)
	}
	return pb, nil
}

// LoadPlaybookDir loads every *.yaml/*.yml file in dir as a playbook.
// Any invalid definition fails the whole load: a process must never start
// with a partially valid playbook set.
func LoadPlaybookDir(dir string) ([]*Playbook, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, types.WrapError(types.PLAYBOOK_LOAD_FAILED,
			fmt.Sprintf("failed to read playbook directory %s", dir), err)
	}

	var playbooks []*Playbook
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		pb, err := LoadPlaybookFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		playbooks = append(playbooks, pb)
	}
	return playbooks, nil
}
