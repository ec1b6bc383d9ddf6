package cli

import (
	"context"

	"github.com/custodia-labs/querra-cli/internal/core/domain"
	"github.com/custodia-labs/querra-cli/internal/extractors"
	"github.com/custodia-labs/querra-cli/internal/extractors/plaintext"
)

// mockPipeline implements driving.Pipeline for command tests.
type mockPipeline struct {
	response *domain.Response
	summary  *domain.IndexingSummary
	indexErr error
	ready    bool

	indexedFiles []string
	lastQuestion string
	lastOpts     domain.QueryOptions
}

func (m *mockPipeline) RunIndexing(
	_ context.Context, filePaths []string, _, _ int,
) (*domain.IndexingSummary, error) {
	m.indexedFiles = filePaths
	if m.indexErr != nil {
		return nil, m.indexErr
	}
	if m.summary != nil {
		return m.summary, nil
	}
	return &domain.IndexingSummary{
		Success:      true,
		Message:      "indexed",
		FilesIndexed: len(filePaths),
	}, nil
}

func (m *mockPipeline) Query(_ context.Context, question string, opts domain.QueryOptions) *domain.Response {
	m.lastQuestion = question
	m.lastOpts = opts
	if m.response != nil {
		return m.response
	}
	return &domain.Response{
		Success:    true,
		Answer:     "mock answer",
		Confidence: 0.9,
		Method:     domain.MethodMultiStage,
	}
}

func (m *mockPipeline) Ready() bool {
	return m.ready
}

// setupTestServices wires mock services into the command tree and
// returns the mock plus a cleanup restoring the previous state.
func setupTestServices() (*mockPipeline, func()) {
	prevPipeline := pipelineService
	prevRegistry := extractorRegistry

	mock := &mockPipeline{ready: true}
	SetPipeline(mock)
	SetExtractors(extractors.NewRegistry(plaintext.New()))

	return mock, func() {
		pipelineService = prevPipeline
		extractorRegistry = prevRegistry
	}
}
