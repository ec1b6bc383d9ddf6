package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/querra-cli/internal/core/domain"
)

var (
	askFiles        []string
	askDir          string
	askMaxDocs      int
	askNoGuardrails bool
	askJSON         bool
	askChunkSize    int
	askChunkOverlap int
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from indexed documents",
	Long: `Answers a question using multi-stage retrieval: hybrid dense+sparse
search, cross-encoder re-ranking and answer synthesis.

Pass --files or --dir to index documents first; without them the
question runs against whatever the current process already indexed.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringSliceVarP(&askFiles, "files", "f", nil, "files to index before asking")
	askCmd.Flags().StringVarP(&askDir, "dir", "d", "", "index every supported file under this directory first")
	askCmd.Flags().IntVarP(&askMaxDocs, "max-docs", "n", 0, "maximum chunks to consult (1-10, 0 = configured default)")
	askCmd.Flags().BoolVar(&askNoGuardrails, "no-guardrails", false, "disable query and output guardrail checks")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the response as JSON")
	askCmd.Flags().IntVar(&askChunkSize, "chunk-size", 0, "chunk length in words (0 = configured default)")
	askCmd.Flags().IntVar(&askChunkOverlap, "chunk-overlap", 0, "words shared between consecutive chunks")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]

	if pipelineService == nil {
		return errors.New("pipeline not configured")
	}

	files, err := gatherFiles(askFiles, askDir)
	if err != nil {
		return err
	}

	if len(files) > 0 {
		summary, err := pipelineService.RunIndexing(cmd.Context(), files, askChunkSize, askChunkOverlap)
		if err != nil {
			return fmt.Errorf("indexing failed: %w", err)
		}
		if !summary.Success {
			return fmt.Errorf("indexing failed: %s", summary.Message)
		}
	} else if !pipelineService.Ready() {
		return errors.New("nothing indexed yet: pass --files or --dir")
	}

	opts := domain.QueryOptions{
		MaxDocuments:      askMaxDocs,
		GuardrailsEnabled: appSettings.Pipeline.GuardrailsEnabled && !askNoGuardrails,
	}

	resp := pipelineService.Query(cmd.Context(), question, opts)

	if askJSON {
		return printJSON(cmd, resp)
	}
	return printResponse(cmd, resp)
}

func printResponse(cmd *cobra.Command, resp *domain.Response) error {
	if !resp.Success {
		cmd.Printf("Query failed: %s\n", resp.Error)
		return errors.New(resp.Error)
	}

	cmd.Printf("%s\n\n", resp.Answer)
	cmd.Printf("Confidence: %.2f\n", resp.Confidence)
	cmd.Printf("Method:     %s\n", resp.Method)
	cmd.Printf("Time:       %.3fs\n", resp.ResponseTime)

	if len(resp.RetrievalDetails) > 0 {
		cmd.Println("\nSources:")
		for i, row := range resp.RetrievalDetails {
			cmd.Printf("  [%d] %s (stage1 %.3f", i+1, row.ChunkID, row.Stage1Score)
			if row.Stage2Score != nil {
				cmd.Printf(", stage2 %.3f", *row.Stage2Score)
			}
			cmd.Println(")")
		}
	}
	return nil
}
