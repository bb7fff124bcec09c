package shell

import (
	"github.com/sirupsen/logrus"

	"github.com/five82/logbook/internal/filter"
)

// ApplyFilter replaces the displayed rows with c applied to the cached
// baseline. A nil composite is the same as ClearFilter.
func (o *Orchestrator) ApplyFilter(c *filter.Composite) {
	o.guard("apply filter", func() {
		baseline := o.cache.Rows()
		if c == nil {
			o.logs.Filter = nil
			o.logs.Rows = baseline
			return
		}
		o.logs.Rows = c.Filter(baseline)
		o.logs.Filter = c
		o.log.WithFields(logrus.Fields{
			"filter":   c.ID(),
			"baseline": len(baseline),
			"kept":     len(o.logs.Rows),
		}).Debug("filter applied")
	})
}

// ClearFilter restores the unfiltered rows.
func (o *Orchestrator) ClearFilter() {
	o.ApplyFilter(nil)
}
