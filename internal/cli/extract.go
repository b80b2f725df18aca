package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ssolovyev/veritrail/internal/extract"
	"github.com/ssolovyev/veritrail/internal/oracle"
)

var (
	extractEvidence  string
	extractRegistry  string
	extractOracle    string
	extractModel     string
	extractMaxClaims int
	extractTimeout   time.Duration
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract [source-id...]",
	Short: "Extract and register claims from captured sources",
	Long: `Extract proposes candidate claims from the extracted text of captured
sources and registers them. Without arguments every valid source in the
store is processed; invalid and synthesized sources are skipped.

Candidates come from deterministic patterns; with an oracle configured
its proposals are added on top. Either way a candidate is only stored
when its supporting excerpt is found verbatim in the source text.

Example:
  veritrail extract
  veritrail extract S001 S002
  veritrail extract --oracle openai --model gpt-4o-mini`,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVar(&extractEvidence, "evidence", "", "evidence store directory (overrides config)")
	extractCmd.Flags().StringVar(&extractRegistry, "registry", "", "claim registry path (overrides config)")
	extractCmd.Flags().StringVar(&extractOracle, "oracle", "", "oracle provider for claim proposals (openai, anthropic, ollama)")
	extractCmd.Flags().StringVar(&extractModel, "model", "", "oracle model name")
	extractCmd.Flags().IntVar(&extractMaxClaims, "max-claims", extract.DefaultMaxClaims, "max claims registered per source")
	extractCmd.Flags().DurationVar(&extractTimeout, "timeout", 10*time.Minute, "overall extraction timeout")
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), extractTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if extractEvidence != "" {
		cfg.Store.EvidenceDir = extractEvidence
	}
	if extractRegistry != "" {
		cfg.Store.RegistryPath = extractRegistry
	}
	if extractOracle != "" {
		cfg.Oracle.Provider = extractOracle
	}
	if extractModel != "" {
		cfg.Oracle.Model = extractModel
	}

	store, reg, err := openStores(cfg)
	if err != nil {
		return err
	}

	provider, err := buildOracle(cfg)
	if err != nil {
		return err
	}

	extractor := extract.New(store, reg, oracleExtractor(provider), extractMaxClaims)

	var results []*extract.Result
	if len(args) == 0 {
		results, err = extractor.ExtractAll(ctx)
	} else {
		for _, id := range args {
			result, runErr := extractor.ExtractSource(ctx, id)
			if runErr != nil {
				err = runErr
				break
			}
			results = append(results, result)
		}
	}
	if err != nil {
		return err
	}

	added, duplicates, rejected := 0, 0, 0
	for _, r := range results {
		added += len(r.Added)
		duplicates += r.Duplicates
		rejected += len(r.Rejected)

		if verbose {
			fmt.Fprintf(os.Stderr, "%s: +%d claims, %d duplicates, %d rejected\n",
				r.SourceID, len(r.Added), r.Duplicates, len(r.Rejected))
			for _, rej := range r.Rejected {
				fmt.Fprintf(os.Stderr, "  rejected: %s (%s)\n", rej.Text, rej.Reason)
			}
		}
	}

	fmt.Printf("Registered %d claims (%d duplicates, %d rejected) across %d sources; registry holds %d\n",
		added, duplicates, rejected, len(results), reg.Len())
	return nil
}

// oracleExtractor narrows a full provider to the extraction interface,
// keeping a nil provider nil.
func oracleExtractor(provider oracle.Provider) extract.OracleExtractor {
	if provider == nil {
		return nil
	}
	return provider
}
