// Package population implements the generation container: a rooted tree of
// candidates and named subpopulations. Every membership change produces a
// new Population value; snapshots held elsewhere stay valid.
package population

import (
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sort"

	"github.com/austin-mroz/stk/internal/model"
	"github.com/austin-mroz/stk/internal/workdir"
)

// Population is one node of the tree. It holds zero or more direct
// candidates plus zero or more named child subpopulations.
type Population struct {
	name    string
	members []model.Candidate
	subs    []*Population
}

// New builds a population node from a candidate list and optional
// subpopulations. The inputs are copied.
func New(name string, members []model.Candidate, subs ...*Population) *Population {
	p := &Population{
		name:    name,
		members: make([]model.Candidate, 0, len(members)),
		subs:    make([]*Population, 0, len(subs)),
	}
	for _, c := range members {
		p.members = append(p.members, c.Clone())
	}
	for _, sub := range subs {
		if sub != nil {
			p.subs = append(p.subs, sub)
		}
	}
	return p
}

// Name returns the node label, used for provenance when merging.
func (p *Population) Name() string {
	return p.name
}

// All iterates lazily over the flattened population: direct members first,
// then each subpopulation in order.
func (p *Population) All() iter.Seq[model.Candidate] {
	return func(yield func(model.Candidate) bool) {
		p.walk(yield)
	}
}

func (p *Population) walk(yield func(model.Candidate) bool) bool {
	for _, c := range p.members {
		if !yield(c) {
			return false
		}
	}
	for _, sub := range p.subs {
		if !sub.walk(yield) {
			return false
		}
	}
	return true
}

// Flatten returns all candidates across all descendant nodes, in iteration
// order.
func (p *Population) Flatten() []model.Candidate {
	out := make([]model.Candidate, 0, p.Size())
	for c := range p.All() {
		out = append(out, c)
	}
	return out
}

// Size is the flattened candidate count.
func (p *Population) Size() int {
	n := len(p.members)
	for _, sub := range p.subs {
		n += sub.Size()
	}
	return n
}

// Merge returns a new population whose flattened candidates are the
// concatenation of both inputs, preserved as named subpopulations for
// traceability. No deduplication happens here.
func (p *Population) Merge(other *Population) *Population {
	if other == nil {
		return p
	}
	return &Population{
		name: p.name,
		subs: []*Population{p, other},
	}
}

// AddSubpopulation attaches pop as a named child without flattening,
// returning a new root.
func (p *Population) AddSubpopulation(pop *Population) *Population {
	if pop == nil {
		return p
	}
	out := &Population{
		name:    p.name,
		members: p.members,
		subs:    make([]*Population, 0, len(p.subs)+1),
	}
	out.subs = append(out.subs, p.subs...)
	out.subs = append(out.subs, pop)
	return out
}

// Deduplicate returns a new population keeping, for each distinct identity,
// the first occurrence in flattening order. The tree shape is preserved and
// the operation is idempotent.
func (p *Population) Deduplicate() *Population {
	seen := make(map[string]struct{}, p.Size())
	return p.dedup(seen)
}

func (p *Population) dedup(seen map[string]struct{}) *Population {
	out := &Population{
		name:    p.name,
		members: make([]model.Candidate, 0, len(p.members)),
		subs:    make([]*Population, 0, len(p.subs)),
	}
	for _, c := range p.members {
		if _, dup := seen[c.Identity]; dup {
			continue
		}
		seen[c.Identity] = struct{}{}
		out.members = append(out.members, c)
	}
	for _, sub := range p.subs {
		out.subs = append(out.subs, sub.dedup(seen))
	}
	return out
}

// Sorted returns the flattened candidates in the population total order:
// scaled fitness descending, ties broken by identity.
func (p *Population) Sorted() []model.Candidate {
	out := p.Flatten()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Less(out[j])
	})
	return out
}

// Best returns the top candidate in the total order, if any.
func (p *Population) Best() (model.Candidate, bool) {
	var best model.Candidate
	found := false
	for c := range p.All() {
		if !found || c.Less(best) {
			best = c
			found = true
		}
	}
	return best, found
}

// Map applies fn to every candidate and returns a new population with the
// same tree shape. Stage functions use it to replace fitness state without
// touching shared snapshots.
func (p *Population) Map(fn func(model.Candidate) model.Candidate) *Population {
	out := &Population{
		name:    p.name,
		members: make([]model.Candidate, 0, len(p.members)),
		subs:    make([]*Population, 0, len(p.subs)),
	}
	for _, c := range p.members {
		out.members = append(out.members, fn(c))
	}
	for _, sub := range p.subs {
		out.subs = append(out.subs, sub.Map(fn))
	}
	return out
}

// StructureWriter externalizes one candidate's structural payload. The
// chemistry-aware implementation lives outside the engine; PayloadWriter is
// the built-in stand-in.
type StructureWriter interface {
	WriteStructure(dir string, candidate model.Candidate) error
}

// PayloadWriter writes the raw payload bytes, one file per candidate, named
// by identity so filenames are stable and collision-free.
type PayloadWriter struct {
	Ext string
}

func (w PayloadWriter) WriteStructure(dir string, candidate model.Candidate) error {
	ext := w.Ext
	if ext == "" {
		ext = ".json"
	}
	path := filepath.Join(dir, candidate.Identity+ext)
	if err := workdir.WriteFileAtomic(path, candidate.Payload); err != nil {
		return fmt.Errorf("write structure for %s: %w", candidate.Identity, err)
	}
	return nil
}

// Write externalizes every candidate's structure to dir via writer.
func (p *Population) Write(dir string, writer StructureWriter) error {
	if writer == nil {
		writer = PayloadWriter{}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create structure dir %s: %w", dir, err)
	}
	for c := range p.All() {
		if err := writer.WriteStructure(dir, c); err != nil {
			return err
		}
	}
	return nil
}
