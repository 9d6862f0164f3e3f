package analytics

import (
	"github.com/retail-cockpit/cockpit/internal/access"
	"github.com/retail-cockpit/cockpit/internal/retail"
)

// Input is one dashboard request over a loaded universe.
type Input struct {
	Profile   *retail.Profile
	Data      retail.Dataset
	Filter    retail.DateFilter
	Selection access.Selection
}

// Pipeline narrows a universe by role, then date, then selection and
// summarizes what is left. The order is fixed.
type Pipeline struct {
	resolver *access.Resolver
}

// NewPipeline builds a Pipeline. A nil resolver uses the default identity
// matchers.
func NewPipeline(resolver *access.Resolver) *Pipeline {
	if resolver == nil {
		resolver = access.NewResolver()
	}
	return &Pipeline{resolver: resolver}
}

// Scope applies the three filters without summarizing.
func (p *Pipeline) Scope(in Input) access.Scope {
	scope := p.resolver.Resolve(in.Profile, in.Data, in.Filter)
	scope.Dataset = scope.Dataset.FilterByDate(in.Filter)
	return access.ApplyScope(scope, in.Selection, in.Filter)
}

// Process recomputes every summary from scratch.
func (p *Pipeline) Process(in Input) Result {
	return Summarize(p.Scope(in).Dataset, in.Filter)
}
