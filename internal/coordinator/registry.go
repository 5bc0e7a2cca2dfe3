package coordinator

import (
	"github.com/3-lines-studio/entrykit/internal/core"
	cmap "github.com/orcaman/concurrent-map/v2"
)

// Registry is the side channel between loader adapters and sealing: it
// maps an absolute module path to the template extracted from it. OnLoad
// callbacks run concurrently, so writes go through a concurrent map.
type Registry struct {
	records cmap.ConcurrentMap[string, core.TemplateRecord]
}

func NewRegistry() *Registry {
	return &Registry{records: cmap.New[core.TemplateRecord]()}
}

func (r *Registry) Report(path string, record core.TemplateRecord) {
	r.records.Set(path, record)
}

// Take removes and returns the record attached to path.
func (r *Registry) Take(path string) (core.TemplateRecord, bool) {
	return r.records.Pop(path)
}

func (r *Registry) Has(path string) bool {
	return r.records.Has(path)
}

func (r *Registry) Len() int {
	return r.records.Count()
}

func (r *Registry) Reset() {
	r.records.Clear()
}
