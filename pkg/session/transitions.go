package session

import (
	"github.com/aretw0/tiptoe/pkg/domain"
	"github.com/aretw0/tiptoe/pkg/registry"
)

type transitionKey struct {
	phase   Phase
	keyword string
}

type transition struct {
	arity int
	apply func(p *Peer, self registry.Handle, args []string, enqueue func(domain.Command)) Phase
}

// transitions is the phase-indexed protocol table. Control keywords are
// accepted in every phase and are handled outside of it.
var transitions = map[transitionKey]transition{
	{PhaseStart, domain.KeywordHello}: {
		arity: 1,
		apply: func(p *Peer, self registry.Handle, args []string, enqueue func(domain.Command)) Phase {
			p.tag = args[0]
			enqueue(domain.Register{Tag: p.tag, Handle: self})
			return PhaseFirst
		},
	},
	{PhaseFirst, domain.KeywordStepped}: {
		arity: 2,
		apply: func(p *Peer, _ registry.Handle, args []string, enqueue func(domain.Command)) Phase {
			enqueue(domain.Stepped{Step: domain.Step{Tag: p.tag, Ref: args[0]}})
			enqueue(domain.Stepped{Step: domain.Step{Tag: p.tag, Ref: args[1]}})
			return PhaseActive
		},
	},
	{PhaseActive, domain.KeywordStepped}: {
		arity: 2,
		apply: func(p *Peer, _ registry.Handle, args []string, enqueue func(domain.Command)) Phase {
			// The origin is redundant once tracking has started.
			enqueue(domain.Stepped{Step: domain.Step{Tag: p.tag, Ref: args[1]}})
			return PhaseActive
		},
	},
}
