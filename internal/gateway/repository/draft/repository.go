// Package draft stores the combined document of each finished run so it can
// be fetched again by run id.
package draft

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Document is one stored run output.
type Document struct {
	RunID     string    `json:"runId"`
	Office    string    `json:"office"`
	Markdown  string    `json:"markdown"`
	Warned    []string  `json:"warned,omitempty"`
	Complete  bool      `json:"complete"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store persists documents keyed by run id.
type Store interface {
	Put(ctx context.Context, doc Document) error
	Get(ctx context.Context, runID string) (Document, error)
	List(ctx context.Context) ([]string, error)
}

var ErrNotFound = errors.New("draft not found")

func validRunID(runID string) (string, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return "", fmt.Errorf("run_id is required")
	}
	if strings.ContainsAny(runID, "/\\") {
		return "", fmt.Errorf("run_id %q is invalid", runID)
	}
	return runID, nil
}
