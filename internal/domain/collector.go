package domain

import "sync"

// FailReason explains why a run is considered failed.
type FailReason string

const (
	FailReasonUnderThreshold        FailReason = "UNDER_THRESHOLD"
	FailReasonTestsFailed           FailReason = "TESTS_FAILED"
	FailReasonInvalidCoverageFormat FailReason = "INVALID_COVERAGE_FORMAT"
	FailReasonReportNotFound        FailReason = "REPORT_NOT_FOUND"
)

// FailureSink receives fail reasons. The caller owns its lifecycle.
type FailureSink interface {
	Add(reason FailReason)
}

// CollectedData is a snapshot of a DataCollector.
type CollectedData[T any] struct {
	Data   []T     `json:"data"`
	Errors []error `json:"-"`
}

// DataCollector gathers items and errors during one run.
// It is safe for concurrent use.
type DataCollector[T any] struct {
	mu     sync.Mutex
	data   []T
	errors []error
}

// NewDataCollector creates an empty collector.
func NewDataCollector[T any]() *DataCollector[T] {
	return &DataCollector[T]{}
}

// Add records an item.
func (c *DataCollector[T]) Add(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = append(c.data, item)
}

// Error records an error.
func (c *DataCollector[T]) Error(err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, err)
}

// Get returns a copy of everything collected so far.
func (c *DataCollector[T]) Get() CollectedData[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CollectedData[T]{
		Data:   append([]T(nil), c.data...),
		Errors: append([]error(nil), c.errors...),
	}
}

// FailReasons collects fail reasons for a single check run.
type FailReasons = DataCollector[FailReason]

// NewFailReasons creates an empty fail reason collector.
func NewFailReasons() *FailReasons {
	return NewDataCollector[FailReason]()
}
