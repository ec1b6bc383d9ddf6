package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/querra-cli/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question     string `json:"question" jsonschema:"the question to answer from the indexed documents"`
	MaxDocuments int    `json:"max_documents,omitempty" jsonschema:"maximum number of chunks to consult (1-10, default 5)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Success    bool                    `json:"success"`
	Answer     string                  `json:"answer,omitempty"`
	Confidence float64                 `json:"confidence"`
	Method     string                  `json:"method,omitempty"`
	Sources    []domain.RetrievedChunk `json:"sources,omitempty"`
	Error      string                  `json:"error,omitempty"`
}

// IndexInput is the input schema for the index_documents tool.
type IndexInput struct {
	Files        []string `json:"files" jsonschema:"paths of the files to index"`
	ChunkSize    int      `json:"chunk_size,omitempty" jsonschema:"chunk length in words (default 300)"`
	ChunkOverlap int      `json:"chunk_overlap,omitempty" jsonschema:"words shared between consecutive chunks (default 50)"`
}

// IndexOutput is the output schema for the index_documents tool.
type IndexOutput struct {
	Success       bool                     `json:"success"`
	Message       string                   `json:"message"`
	FilesIndexed  int                      `json:"files_indexed"`
	ChunksCreated int                      `json:"chunks_created"`
	Failures      []domain.IndexingFailure `json:"failures,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the indexed documents using multi-stage retrieval",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "index_documents",
		Description: "Index local text, PDF or DOCX files so they can be queried",
	}, s.handleIndex)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	resp := s.ports.Pipeline.Query(ctx, input.Question, domain.QueryOptions{
		MaxDocuments:      input.MaxDocuments,
		GuardrailsEnabled: true,
	})

	output := AskOutput{
		Success:    resp.Success,
		Answer:     resp.Answer,
		Confidence: resp.Confidence,
		Method:     resp.Method,
		Sources:    resp.RetrievalDetails,
		Error:      resp.Error,
	}

	return nil, output, nil
}

// handleIndex handles the index_documents tool invocation.
func (s *Server) handleIndex(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IndexInput,
) (*mcp.CallToolResult, IndexOutput, error) {
	summary, err := s.ports.Pipeline.RunIndexing(ctx, input.Files, input.ChunkSize, input.ChunkOverlap)
	if err != nil {
		return nil, IndexOutput{}, err
	}

	output := IndexOutput{
		Success:       summary.Success,
		Message:       summary.Message,
		FilesIndexed:  summary.FilesIndexed,
		ChunksCreated: summary.ChunksCreated,
		Failures:      summary.Failures,
	}

	return nil, output, nil
}
