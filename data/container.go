// Package data holds the most recent template collection for the HTTP server.
// Updates swap whole values atomically, so readers never see a half-applied refresh.
package data

import (
	"sync/atomic"
	"time"

	"github.com/giygas/bpmn-tools/interfaces"
	"github.com/giygas/bpmn-tools/logging"
	"github.com/giygas/bpmn-tools/templates/entities"
)

// Compile-time check to ensure DataContainer implements TemplateStore
var _ interfaces.TemplateStore = (*DataContainer)(nil)

// DataContainer holds the served data with atomic values for zero-downtime updates
type DataContainer struct {
	templates       atomic.Value // []entities.Template
	failures        atomic.Value // []entities.Failure
	lastUpdated     atomic.Value // time.Time
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewDataContainer creates a new DataContainer with empty data
func NewDataContainer() *DataContainer {
	dc := &DataContainer{}
	dc.templates.Store(make([]entities.Template, 0))
	dc.failures.Store(make([]entities.Failure, 0))
	dc.lastUpdated.Store(time.Time{})
	dc.serverStartTime.Store(time.Now())
	return dc
}

// GetTemplates returns the last aggregated collection
func (dc *DataContainer) GetTemplates() []entities.Template {
	if v := dc.templates.Load(); v != nil {
		if templates, ok := v.([]entities.Template); ok {
			return templates
		}
	}

	logging.Warn("Template list is empty or invalid")
	return []entities.Template{}
}

// GetFailures returns the sources that failed during the last update
func (dc *DataContainer) GetFailures() []entities.Failure {
	if v := dc.failures.Load(); v != nil {
		if failures, ok := v.([]entities.Failure); ok {
			return failures
		}
	}
	return []entities.Failure{}
}

func (dc *DataContainer) GetLastUpdated() time.Time {
	if v := dc.lastUpdated.Load(); v != nil {
		if lastUpdated, ok := v.(time.Time); ok {
			return lastUpdated
		}
	}
	return time.Time{}
}

func (dc *DataContainer) IsUpdating() bool {
	return dc.updating.Load()
}

func (dc *DataContainer) GetServerStartTime() time.Time {
	if v := dc.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}
	return time.Time{}
}

// UpdateTemplates replaces the collection with the outcome of a run
func (dc *DataContainer) UpdateTemplates(result *entities.Result) {
	if result == nil {
		return
	}

	templates := result.Templates
	if templates == nil {
		templates = make([]entities.Template, 0)
	}
	failures := result.Failures
	if failures == nil {
		failures = make([]entities.Failure, 0)
	}

	dc.templates.Store(templates)
	dc.failures.Store(failures)
	dc.lastUpdated.Store(time.Now())
}

// BeginUpdate marks an update as running; it returns false if one already is
func (dc *DataContainer) BeginUpdate() bool {
	return dc.updating.CompareAndSwap(false, true)
}

func (dc *DataContainer) EndUpdate() {
	dc.updating.Store(false)
}
