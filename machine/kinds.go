package machine

import (
	"fmt"

	"beat-factory/debug"
)

// Kind identifies a machine type
type Kind string

const (
	KindMiner    Kind = "miner"
	KindConveyor Kind = "conveyor"
	KindSmelter  Kind = "smelter"
	KindSeller   Kind = "seller"
)

// Kinds lists the placeable kinds in selection order
var Kinds = []Kind{KindMiner, KindConveyor, KindSmelter, KindSeller}

// Market receives the proceeds of every sale
type Market func(r Resource)

// New creates a machine of the given kind. Seller needs a market.
func New(kind Kind, market Market) (Machine, error) {
	switch kind {
	case KindMiner:
		return NewMiner(), nil
	case KindConveyor:
		return NewConveyor(), nil
	case KindSmelter:
		return NewSmelter(), nil
	case KindSeller:
		if market == nil {
			return nil, fmt.Errorf("seller needs a market")
		}
		return NewSeller(market), nil
	default:
		return nil, fmt.Errorf("unknown machine kind %q", kind)
	}
}

// Miner extracts one ore per tick
type Miner struct {
	Base
}

func NewMiner() *Miner {
	return &Miner{Base: NewBase(KindMiner, DefaultCapacity)}
}

func (m *Miner) Produce(up Upstream) { m.mine() }

// Tick mines even when nothing consumes, until the buffer fills
func (m *Miner) Tick(up Upstream) { m.mine() }

func (m *Miner) mine() {
	if !m.push(NewResource(Ore)) {
		debug.LogEvery(16, "graph", "miner %s full", m.id.Short())
	}
}

// Conveyor moves everything it can from its inputs into its own buffer
type Conveyor struct {
	Base
}

func NewConveyor() *Conveyor {
	return &Conveyor{Base: NewBase(KindConveyor, DefaultCapacity)}
}

func (c *Conveyor) Produce(up Upstream) { c.pull(up) }
func (c *Conveyor) Tick(up Upstream)    { c.pull(up) }

func (c *Conveyor) pull(up Upstream) {
	for _, in := range up.Inputs() {
		for _, r := range in.Output().Take(c.out.Free()) {
			c.push(r)
		}
	}
}

// Smelter turns one ore into one ingot per tick
type Smelter struct {
	Base
	smelted int
}

func NewSmelter() *Smelter {
	return &Smelter{Base: NewBase(KindSmelter, DefaultCapacity)}
}

func (s *Smelter) Produce(up Upstream) { s.smelt(up) }
func (s *Smelter) Tick(up Upstream)    { s.smelt(up) }

// Smelted returns the lifetime number of ingots made
func (s *Smelter) Smelted() int { return s.smelted }

func (s *Smelter) smelt(up Upstream) {
	if s.out.Free() == 0 {
		return
	}
	for _, in := range up.Inputs() {
		if ore := in.Output().TakeKind(Ore, 1); len(ore) > 0 {
			s.push(NewResource(Ingot))
			s.smelted++
			return
		}
	}
}

// Seller drains its inputs and sells everything through a market
type Seller struct {
	Base
	market   Market
	sold     int
	earnings int
}

func NewSeller(market Market) *Seller {
	return &Seller{Base: NewBase(KindSeller, 1), market: market}
}

func (s *Seller) Produce(up Upstream) { s.sell(up) }
func (s *Seller) Tick(up Upstream)    { s.sell(up) }

// Sold returns the lifetime number of resources sold
func (s *Seller) Sold() int { return s.sold }

// Earnings returns the lifetime sale value
func (s *Seller) Earnings() int { return s.earnings }

func (s *Seller) sell(up Upstream) {
	for _, in := range up.Inputs() {
		buf := in.Output()
		for _, r := range buf.Take(buf.Len()) {
			s.market(r)
			s.sold++
			s.earnings += r.Price
			s.produced++
		}
	}
}
