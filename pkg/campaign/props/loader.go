package props

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/campaignkit/pkg/campaign"
)

// Definition is a file-based campaign description: campaign metadata
// plus an event list in client-diff form. It produces the inputs
// campaign.RebuildEvents expects, so a definition file can stand in
// for an authoring client.
type Definition struct {
	Campaign CampaignDef `yaml:"campaign" json:"campaign"`
	Events   []EventDef  `yaml:"events" json:"events"`
	Deleted  []string    `yaml:"deleted" json:"deleted"`
}

// CampaignDef is the campaign metadata block of a definition file.
type CampaignDef struct {
	ID                   string    `yaml:"id" json:"id"`
	Name                 string    `yaml:"name" json:"name"`
	Published            bool      `yaml:"published" json:"published"`
	CreatedAt            time.Time `yaml:"created_at" json:"created_at"`
	TriggerExistingLeads bool      `yaml:"trigger_existing_leads" json:"trigger_existing_leads"`
}

// EventDef is one event entry of a definition file. Key is the
// client-local key other entries reference via Parent; ID references a
// persisted event when editing an existing campaign.
type EventDef struct {
	Key        string         `yaml:"key" json:"key"`
	ID         string         `yaml:"id" json:"id"`
	Type       string         `yaml:"type" json:"type"`
	Name       string         `yaml:"name" json:"name"`
	Parent     string         `yaml:"parent" json:"parent"`
	Properties map[string]any `yaml:"properties" json:"properties"`
}

// FromFile loads a definition from a file, auto-detecting format by
// extension. Supported extensions: .yaml, .yml, .json
func FromFile(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("read definition file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return Definition{}, fmt.Errorf("unsupported definition file extension: %s", ext)
	}
}

// FromYAML parses YAML data into a Definition.
func FromYAML(data []byte) (Definition, error) {
	var d Definition
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Definition{}, fmt.Errorf("parse yaml: %w", err)
	}
	if err := d.validate(); err != nil {
		return Definition{}, err
	}
	return d, nil
}

// FromJSON parses JSON data into a Definition.
func FromJSON(data []byte) (Definition, error) {
	var d Definition
	if err := json.Unmarshal(data, &d); err != nil {
		return Definition{}, fmt.Errorf("parse json: %w", err)
	}
	if err := d.validate(); err != nil {
		return Definition{}, err
	}
	return d, nil
}

// validate checks structural requirements a rebuild relies on.
func (d Definition) validate() error {
	seen := make(map[string]bool, len(d.Events))
	for i, e := range d.Events {
		if e.Key == "" {
			return fmt.Errorf("event %d: key is required", i)
		}
		if seen[e.Key] {
			return fmt.Errorf("event %d: duplicate key %q", i, e.Key)
		}
		seen[e.Key] = true
		if e.Type == "" {
			return fmt.Errorf("event %q: type is required", e.Key)
		}
	}
	return nil
}

// NewCampaign builds the campaign entity described by the definition,
// without events. Apply the events with campaign.RebuildEvents using
// Diff and Order.
func (d Definition) NewCampaign() *campaign.Campaign {
	return &campaign.Campaign{
		ID:                   d.Campaign.ID,
		Name:                 d.Campaign.Name,
		Published:            d.Campaign.Published,
		CreatedAt:            d.Campaign.CreatedAt,
		TriggerExistingLeads: d.Campaign.TriggerExistingLeads,
	}
}

// Diff returns the event entries as a rebuild diff keyed by client
// key.
func (d Definition) Diff() map[string]campaign.EventDiff {
	diff := make(map[string]campaign.EventDiff, len(d.Events))
	for _, e := range d.Events {
		fields := map[string]any{
			"type": e.Type,
			"name": e.Name,
		}
		if len(e.Properties) > 0 {
			fields["properties"] = e.Properties
		}
		diff[e.Key] = campaign.EventDiff{ID: e.ID, Fields: fields}
	}
	return diff
}

// Order returns the event entries as a rebuild order list, preserving
// file order. An empty Parent marks a root.
func (d Definition) Order() []campaign.OrderEntry {
	order := make([]campaign.OrderEntry, 0, len(d.Events))
	for _, e := range d.Events {
		parent := e.Parent
		if parent == "" {
			parent = campaign.RootKey
		}
		order = append(order, campaign.OrderEntry{Child: e.Key, Parent: parent})
	}
	return order
}

// Build constructs the campaign and rebuilds its event tree in one
// step.
func (d Definition) Build() (*campaign.Campaign, error) {
	c := d.NewCampaign()
	if _, _, err := campaign.RebuildEvents(c, d.Diff(), d.Order(), d.Deleted); err != nil {
		return nil, fmt.Errorf("rebuild events: %w", err)
	}
	return c, nil
}
