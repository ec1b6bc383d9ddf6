package mcp

import (
	"context"

	"github.com/custodia-labs/querra-cli/internal/core/domain"
	"github.com/custodia-labs/querra-cli/internal/core/ports/driving"
)

// mockPipeline implements driving.Pipeline for testing.
type mockPipeline struct {
	response *domain.Response
	summary  *domain.IndexingSummary
	indexErr error
	ready    bool

	lastQuestion string
	lastOpts     domain.QueryOptions
	lastFiles    []string
}

var _ driving.Pipeline = (*mockPipeline)(nil)

func (m *mockPipeline) RunIndexing(
	_ context.Context, filePaths []string, _, _ int,
) (*domain.IndexingSummary, error) {
	m.lastFiles = filePaths
	if m.indexErr != nil {
		return nil, m.indexErr
	}
	if m.summary != nil {
		return m.summary, nil
	}
	return &domain.IndexingSummary{Success: true}, nil
}

func (m *mockPipeline) Query(_ context.Context, question string, opts domain.QueryOptions) *domain.Response {
	m.lastQuestion = question
	m.lastOpts = opts
	if m.response != nil {
		return m.response
	}
	return &domain.Response{Success: true, Answer: "mock answer"}
}

func (m *mockPipeline) Ready() bool {
	return m.ready
}
