package grid

import (
	"errors"
	"fmt"

	"github.com/san-kum/gridflow/internal/ecf"
)

var (
	ErrUnknownBus       = errors.New("grid: unknown bus")
	ErrDuplicateBus     = errors.New("grid: duplicate bus number")
	ErrAlreadyBound     = errors.New("grid: network already bound")
	ErrNotBound         = errors.New("grid: network not bound")
	ErrGeneratorOnSlack = errors.New("grid: generator on slack bus")
	ErrDuplicateSlack   = errors.New("grid: more than one slack on bus")
	ErrInvalidElement   = errors.New("grid: invalid element parameters")
)

// Network owns every element of a case. Element IDs are indices into the
// per-kind slices.
type Network struct {
	Base         Base
	Buses        []*Bus
	Loads        []*Load
	Generators   []*Generator
	Branches     []*Branch
	Transformers []*Transformer
	Shunts       []*Shunt
	Slacks       []*Slack

	busIndex map[int]int
	nodes    NodeMap
	bound    bool
}

func NewNetwork(base Base) (*Network, error) {
	if err := base.Validate(); err != nil {
		return nil, err
	}
	return &Network{Base: base, busIndex: make(map[int]int)}, nil
}

func (n *Network) checkOpen() error {
	if n.bound {
		return ErrAlreadyBound
	}
	return nil
}

func (n *Network) AddBus(p BusParams) (*Bus, error) {
	if err := n.checkOpen(); err != nil {
		return nil, err
	}
	if _, ok := n.busIndex[p.Number]; ok {
		return nil, fmt.Errorf("%w: %d", ErrDuplicateBus, p.Number)
	}
	b := newBus(len(n.Buses), p)
	n.busIndex[p.Number] = b.id
	n.Buses = append(n.Buses, b)
	return b, nil
}

func (n *Network) AddLoad(p LoadParams) (*Load, error) {
	if err := n.checkOpen(); err != nil {
		return nil, err
	}
	l := newLoad(len(n.Loads), n.Base, p)
	n.Loads = append(n.Loads, l)
	return l, nil
}

func (n *Network) AddGenerator(p GeneratorParams) (*Generator, error) {
	if err := n.checkOpen(); err != nil {
		return nil, err
	}
	if p.Vset <= 0 {
		return nil, fmt.Errorf("%w: generator at bus %d has Vset %g", ErrInvalidElement, p.Bus, p.Vset)
	}
	if p.Qmin > p.Qmax {
		return nil, fmt.Errorf("%w: generator at bus %d has Qmin %g > Qmax %g", ErrInvalidElement, p.Bus, p.Qmin, p.Qmax)
	}
	g := newGenerator(len(n.Generators), n.Base, p)
	n.Generators = append(n.Generators, g)
	return g, nil
}

func (n *Network) AddBranch(p BranchParams) (*Branch, error) {
	if err := n.checkOpen(); err != nil {
		return nil, err
	}
	if p.R == 0 && p.X == 0 {
		return nil, fmt.Errorf("%w: branch %d-%d has zero impedance", ErrInvalidElement, p.From, p.To)
	}
	b := newBranch(len(n.Branches), p)
	n.Branches = append(n.Branches, b)
	return b, nil
}

func (n *Network) AddTransformer(p TransformerParams) (*Transformer, error) {
	if err := n.checkOpen(); err != nil {
		return nil, err
	}
	if p.R == 0 && p.X == 0 {
		return nil, fmt.Errorf("%w: transformer %d-%d has zero impedance", ErrInvalidElement, p.From, p.To)
	}
	if p.Tap < 0 {
		return nil, fmt.Errorf("%w: transformer %d-%d has tap %g", ErrInvalidElement, p.From, p.To, p.Tap)
	}
	t := newTransformer(len(n.Transformers), p)
	n.Transformers = append(n.Transformers, t)
	return t, nil
}

func (n *Network) AddShunt(p ShuntParams) (*Shunt, error) {
	if err := n.checkOpen(); err != nil {
		return nil, err
	}
	s := newShunt(len(n.Shunts), n.Base, p)
	n.Shunts = append(n.Shunts, s)
	return s, nil
}

func (n *Network) AddSlack(p SlackParams) (*Slack, error) {
	if err := n.checkOpen(); err != nil {
		return nil, err
	}
	if p.Vset <= 0 {
		return nil, fmt.Errorf("%w: slack at bus %d has Vset %g", ErrInvalidElement, p.Bus, p.Vset)
	}
	s := newSlack(len(n.Slacks), n.Base, p)
	n.Slacks = append(n.Slacks, s)
	return s, nil
}

// Bus returns the bus with the given case number.
func (n *Network) Bus(number int) (*Bus, bool) {
	idx, ok := n.busIndex[number]
	if !ok {
		return nil, false
	}
	return n.Buses[idx], true
}

func (n *Network) busNodes(number int) (nodes, error) {
	b, ok := n.Bus(number)
	if !ok {
		return nodes{}, fmt.Errorf("%w: %d", ErrUnknownBus, number)
	}
	return b.n, nil
}

// Bind assigns every unknown exactly once: bus voltages first, then one Q
// per generator bus, then slack currents. Out-of-service elements stay
// unbound. Bind may only succeed once.
func (n *Network) Bind() error {
	if n.bound {
		return ErrAlreadyBound
	}
	m := NodeMap{}

	for _, b := range n.Buses {
		b.n = m.pair()
	}

	slackBus := make(map[int]bool)
	for _, s := range n.Slacks {
		if !s.InService() {
			continue
		}
		if slackBus[s.params.Bus] {
			return fmt.Errorf("%w: %d", ErrDuplicateSlack, s.params.Bus)
		}
		slackBus[s.params.Bus] = true
	}

	primary := make(map[int]int)
	for _, g := range n.Generators {
		if !g.InService() {
			continue
		}
		bn, err := n.busNodes(g.params.Bus)
		if err != nil {
			return fmt.Errorf("generator %d: %w", g.id, err)
		}
		if slackBus[g.params.Bus] {
			return fmt.Errorf("generator %d: %w: %d", g.id, ErrGeneratorOnSlack, g.params.Bus)
		}
		g.n = bn
		if q, ok := primary[g.params.Bus]; ok {
			g.q = q
			continue
		}
		g.q = m.Next()
		g.primary = true
		primary[g.params.Bus] = g.q
	}

	for _, s := range n.Slacks {
		if !s.InService() {
			continue
		}
		bn, err := n.busNodes(s.params.Bus)
		if err != nil {
			return fmt.Errorf("slack %d: %w", s.id, err)
		}
		s.n = bn
		s.cur = m.pair()
	}

	for _, l := range n.Loads {
		if !l.InService() {
			continue
		}
		bn, err := n.busNodes(l.params.Bus)
		if err != nil {
			return fmt.Errorf("load %d: %w", l.id, err)
		}
		l.n = bn
	}
	for _, s := range n.Shunts {
		if !s.InService() {
			continue
		}
		bn, err := n.busNodes(s.params.Bus)
		if err != nil {
			return fmt.Errorf("shunt %d: %w", s.id, err)
		}
		s.n = bn
	}
	for _, br := range n.Branches {
		if !br.InService() {
			continue
		}
		var err error
		if br.from, err = n.busNodes(br.params.From); err != nil {
			return fmt.Errorf("branch %d: %w", br.id, err)
		}
		if br.to, err = n.busNodes(br.params.To); err != nil {
			return fmt.Errorf("branch %d: %w", br.id, err)
		}
	}
	for _, t := range n.Transformers {
		if !t.InService() {
			continue
		}
		var err error
		if t.from, err = n.busNodes(t.params.From); err != nil {
			return fmt.Errorf("transformer %d: %w", t.id, err)
		}
		if t.to, err = n.busNodes(t.params.To); err != nil {
			return fmt.Errorf("transformer %d: %w", t.id, err)
		}
	}

	n.nodes = m
	n.bound = true
	return nil
}

func (n *Network) Bound() bool { return n.bound }

// Size is the number of unknowns. Zero before Bind.
func (n *Network) Size() int { return n.nodes.Size() }

// Linear returns the in-service elements stamped once per solve.
func (n *Network) Linear() []Element {
	var out []Element
	for _, b := range n.Branches {
		if b.InService() {
			out = append(out, b)
		}
	}
	for _, t := range n.Transformers {
		if t.InService() {
			out = append(out, t)
		}
	}
	for _, s := range n.Shunts {
		if s.InService() {
			out = append(out, s)
		}
	}
	for _, s := range n.Slacks {
		if s.InService() {
			out = append(out, s)
		}
	}
	return out
}

// Nonlinear returns the in-service elements re-stamped every iteration.
func (n *Network) Nonlinear() []Nonlinear {
	var out []Nonlinear
	for _, g := range n.Generators {
		if g.InService() {
			out = append(out, g)
		}
	}
	for _, l := range n.Loads {
		if l.InService() {
			out = append(out, l)
		}
	}
	return out
}

// BusVoltage returns the complex voltage (pu) of a bus in v.
func (n *Network) BusVoltage(v ecf.Vector, number int) (complex128, error) {
	if !n.bound {
		return 0, ErrNotBound
	}
	b, ok := n.Bus(number)
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownBus, number)
	}
	if b.n.i >= len(v) {
		return 0, fmt.Errorf("%w: bus %d", ecf.ErrIndex, number)
	}
	return complex(v[b.n.r], v[b.n.i]), nil
}
