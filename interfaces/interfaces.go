// Package interfaces defines the contracts between fetching, aggregation, storage and scheduling
// so each piece can be swapped out in tests.
package interfaces

import (
	"context"
	"time"

	"github.com/giygas/bpmn-tools/templates/entities"
)

// Fetcher retrieves one JSON document from a source URL.
// Implementations return an error for transport failures, non-2xx statuses and malformed JSON alike.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (entities.Template, error)
}

// Aggregator fetches every source, merges the documents and writes them to path
type Aggregator interface {
	Save(ctx context.Context, path string) (*entities.Result, error)
}

// TemplateStore defines the contract for the in-memory copy of the last aggregation.
// It provides thread-safe access with atomic replacement on update.
type TemplateStore interface {
	GetTemplates() []entities.Template
	GetFailures() []entities.Failure
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time

	UpdateTemplates(result *entities.Result)
	BeginUpdate() bool
	EndUpdate()
}

// Scheduler defines the contract for periodic template refreshes
type Scheduler interface {
	Start(ctx context.Context) error
	Stop()
	NextRun() time.Time
}

// HealthChecker reports the state of the served templates
type HealthChecker interface {
	HealthCheck() (status string, details map[string]any, httpStatus int)
}
