// Package entities holds the values passed between the template fetcher, aggregator and store.
package entities

import (
	"encoding/json"
	"time"
)

// Template is one element template, kept as the raw JSON the source served so
// key order and number precision survive the round trip.
type Template = json.RawMessage

// Failure records a source that contributed nothing to a run
type Failure struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// Result is the outcome of one aggregation run
type Result struct {
	Templates []Template
	Failures  []Failure
	Sources   int // Number of sources attempted
	Started   time.Time
	Duration  time.Duration
}

// Succeeded returns how many sources were fetched and parsed
func (r *Result) Succeeded() int {
	return r.Sources - len(r.Failures)
}
