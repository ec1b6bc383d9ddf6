package domain

// RetrievalCandidate is a chunk scored during a query. Candidates are
// ephemeral: created per query and discarded once the response is built.
type RetrievalCandidate struct {
	// Chunk is the candidate chunk.
	Chunk Chunk

	// Stage1Score is the fused hybrid-retrieval score.
	Stage1Score float64

	// Stage2Score is the cross-encoder re-ranking score.
	// Nil until the re-ranker has scored the candidate, and stays nil
	// when ranking degrades to Stage 1 ordering.
	Stage2Score *float64

	// DenseScore and SparseScore are the raw per-index scores that
	// contributed to Stage1Score. Zero when the chunk was absent from
	// that index's result set.
	DenseScore  float64
	SparseScore float64
}

// QueryOptions configures a single query.
type QueryOptions struct {
	// MaxDocuments caps the number of chunks handed to the synthesizer.
	// Valid range is 1..10; zero selects the configured default.
	MaxDocuments int

	// GuardrailsEnabled toggles query and output guardrail checks.
	GuardrailsEnabled bool
}

// RetrievedChunk is one entry of Response.RetrievalDetails: a chunk the
// synthesizer consulted, with both stage scores.
type RetrievedChunk struct {
	ChunkID     string   `json:"chunk_id"`
	DocumentID  string   `json:"document_id"`
	Position    int      `json:"position"`
	Content     string   `json:"content"`
	Stage1Score float64  `json:"stage1_score"`
	Stage2Score *float64 `json:"stage2_score"`
}

// Response is the structured result of a query. It is JSON-serializable
// as a flat key-value structure for the presentation boundary.
//
// Invariant: Success=false implies Answer is empty and Error is populated.
type Response struct {
	Success          bool             `json:"success"`
	Answer           string           `json:"answer,omitempty"`
	Confidence       float64          `json:"confidence"`
	Method           string           `json:"method"`
	ResponseTime     float64          `json:"response_time"`
	RetrievalDetails []RetrievedChunk `json:"retrieval_details,omitempty"`
	Error            string           `json:"error,omitempty"`
}

// Method labels reported in Response.Method.
const (
	// MethodMultiStage is the full pipeline: hybrid Stage 1 plus
	// cross-encoder Stage 2.
	MethodMultiStage = "Multi-Stage Retrieval (Hybrid + Cross-Encoder)"

	// MethodHybridOnly is the degraded pipeline when re-ranking was
	// unavailable and Stage 1 ordering was used directly.
	MethodHybridOnly = "Hybrid Retrieval (Stage 1 only, degraded)"

	// MethodFallback marks responses answered with FallbackAnswer
	// because Stage 1 produced no candidates; re-ranking never ran.
	MethodFallback = "Fallback (No Candidates Retrieved)"

	// MethodNone marks failed responses: no retrieval produced an
	// answer.
	MethodNone = "None"
)

// FallbackAnswer is returned with confidence 0.0 when retrieval produced
// no usable chunks. This is a successful response, not an error.
const FallbackAnswer = "insufficient information"

// IndexingFailure records one file that could not be indexed.
type IndexingFailure struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// IndexingSummary is the result of a RunIndexing call.
type IndexingSummary struct {
	Success       bool              `json:"success"`
	Message       string            `json:"message"`
	FilesIndexed  int               `json:"files_indexed"`
	ChunksCreated int               `json:"chunks_created"`
	Failures      []IndexingFailure `json:"failures,omitempty"`
}
