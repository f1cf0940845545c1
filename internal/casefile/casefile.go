// Package casefile reads and writes network cases in YAML.
//
// Quantities follow the grid package: powers in MW / MVAr, impedances in
// per unit on the case base, voltages in per unit and angles in degrees.
// Every element is in service unless it sets out_of_service.
package casefile

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Case is one network description. A zero BaseMVA selects
// grid.DefaultBase when the case is built.
type Case struct {
	Name         string        `yaml:"name"`
	BaseMVA      float64       `yaml:"base_mva"`
	Buses        []Bus         `yaml:"buses"`
	Slacks       []Slack       `yaml:"slacks"`
	Generators   []Generator   `yaml:"generators,omitempty"`
	Branches     []Branch      `yaml:"branches,omitempty"`
	Transformers []Transformer `yaml:"transformers,omitempty"`
	Shunts       []Shunt       `yaml:"shunts,omitempty"`
	Loads        []LoadRecord  `yaml:"loads,omitempty"`
}

type Bus struct {
	Number int `yaml:"number"`
	Type   int `yaml:"type,omitempty"`
	// Vm defaults to 1 pu when omitted.
	Vm   float64 `yaml:"vm,omitempty"`
	Va   float64 `yaml:"va,omitempty"`
	Area int     `yaml:"area,omitempty"`
	Name string  `yaml:"name,omitempty"`
}

type Slack struct {
	Bus          int     `yaml:"bus"`
	Vset         float64 `yaml:"vset"`
	Angle        float64 `yaml:"angle,omitempty"`
	Pinit        float64 `yaml:"pinit,omitempty"`
	Qinit        float64 `yaml:"qinit,omitempty"`
	OutOfService bool    `yaml:"out_of_service,omitempty"`
}

type Generator struct {
	Bus          int     `yaml:"bus"`
	P            float64 `yaml:"p"`
	Vset         float64 `yaml:"vset"`
	Qmax         float64 `yaml:"qmax"`
	Qmin         float64 `yaml:"qmin"`
	Qinit        float64 `yaml:"qinit,omitempty"`
	OutOfService bool    `yaml:"out_of_service,omitempty"`
}

type Branch struct {
	From         int     `yaml:"from"`
	To           int     `yaml:"to"`
	R            float64 `yaml:"r"`
	X            float64 `yaml:"x"`
	B            float64 `yaml:"b,omitempty"`
	OutOfService bool    `yaml:"out_of_service,omitempty"`
}

type Transformer struct {
	From         int     `yaml:"from"`
	To           int     `yaml:"to"`
	R            float64 `yaml:"r"`
	X            float64 `yaml:"x"`
	Tap          float64 `yaml:"tap,omitempty"`
	Angle        float64 `yaml:"angle,omitempty"`
	OutOfService bool    `yaml:"out_of_service,omitempty"`
}

type Shunt struct {
	Bus          int     `yaml:"bus"`
	G            float64 `yaml:"g,omitempty"`
	B            float64 `yaml:"b,omitempty"`
	OutOfService bool    `yaml:"out_of_service,omitempty"`
}

// LoadRecord is one ZIP load entry of a case.
type LoadRecord struct {
	Bus          int     `yaml:"bus"`
	P            float64 `yaml:"p"`
	Q            float64 `yaml:"q"`
	IP           float64 `yaml:"ip,omitempty"`
	IQ           float64 `yaml:"iq,omitempty"`
	ZP           float64 `yaml:"zp,omitempty"`
	ZQ           float64 `yaml:"zq,omitempty"`
	Area         int     `yaml:"area,omitempty"`
	OutOfService bool    `yaml:"out_of_service,omitempty"`
}

func Load(path string) (*Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a case. Unknown keys are rejected.
func Parse(data []byte) (*Case, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var c Case
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("parse case: %w", err)
	}
	if len(c.Buses) == 0 {
		return nil, fmt.Errorf("parse case: no buses")
	}
	return &c, nil
}

func Save(path string, c *Case) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
