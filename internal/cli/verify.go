package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ssolovyev/veritrail/internal/model"
	"github.com/ssolovyev/veritrail/internal/pipeline"
)

var (
	verifyEvidence string
	verifyRegistry string
	verifyJSON     string
	verifyMD       string
	verifyTimeout  time.Duration
	verifyFull     bool
	mismatchWarn   bool
	verifyNoFooter bool
	verifyOracle   string
	verifyModel    string
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <document.md>",
	Short: "Verify a document against the evidence store",
	Long: `Verify runs the full stage sequence over a document:
- integrity: cited evidence matches its recorded hashes, no fabrication marks
- binding: every citation resolves, citation URLs agree with the capture
- semantic: each statement matches a registered claim from its cited source
- numeric: claimed numbers agree with the sources within tolerance

The result is a hash-chained verification record. Verification exits
non-zero when the record status is FAILED.

Example:
  veritrail verify report.md
  veritrail verify report.md --json record.json --md record.md
  veritrail verify report.md --oracle ollama --model llama3.1:8b --full`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&verifyEvidence, "evidence", "", "evidence store directory (overrides config)")
	verifyCmd.Flags().StringVar(&verifyRegistry, "registry", "", "claim registry path (overrides config)")
	verifyCmd.Flags().StringVar(&verifyJSON, "json", "", "write the JSON record to this path")
	verifyCmd.Flags().StringVar(&verifyMD, "md", "", "write the Markdown report to this path")
	verifyCmd.Flags().DurationVar(&verifyTimeout, "timeout", 5*time.Minute, "overall verification timeout")
	verifyCmd.Flags().BoolVar(&verifyFull, "full", false, "run every stage even after a failed stage")
	verifyCmd.Flags().BoolVar(&mismatchWarn, "mismatch-warn", false, "treat citation mismatches as warnings instead of failures")
	verifyCmd.Flags().BoolVar(&verifyNoFooter, "no-footer", false, "disable the chain-hash footer in Markdown reports")
	verifyCmd.Flags().StringVar(&verifyOracle, "oracle", "", "semantic oracle provider (openai, anthropic, ollama)")
	verifyCmd.Flags().StringVar(&verifyModel, "model", "", "oracle model name")
}

func runVerify(cmd *cobra.Command, args []string) error {
	documentPath := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), verifyTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyVerifyFlags(cfg)

	documentText, err := os.ReadFile(documentPath)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	store, reg, err := openStores(cfg)
	if err != nil {
		return err
	}

	provider, err := buildOracle(cfg)
	if err != nil {
		return err
	}

	var logw io.Writer = io.Discard
	if verbose {
		logw = os.Stderr
	}

	p := pipeline.New(cfg, store, reg, provider, logw)
	record, err := p.Verify(ctx, filepath.Base(documentPath), string(documentText))
	if err != nil {
		return fmt.Errorf("verification failed to run: %w", err)
	}

	if err := writeRecord(record, cfg); err != nil {
		return err
	}

	fmt.Printf("%s  %s  chain %s\n", record.Status, record.Document, record.ChainHash[:12])
	for _, is := range record.Blocking {
		fmt.Printf("  blocking: %s", is.Code)
		if is.SourceID != "" {
			fmt.Printf(" [%s]", is.SourceID)
		}
		if is.Detail != "" {
			fmt.Printf(": %s", is.Detail)
		}
		fmt.Println()
	}

	if record.Status == model.StatusFailed {
		return fmt.Errorf("verification failed with %d blocking issues", len(record.Blocking))
	}
	return nil
}

func applyVerifyFlags(cfg *model.Config) {
	if verifyEvidence != "" {
		cfg.Store.EvidenceDir = verifyEvidence
	}
	if verifyRegistry != "" {
		cfg.Store.RegistryPath = verifyRegistry
	}
	if verifyOracle != "" {
		cfg.Oracle.Provider = verifyOracle
	}
	if verifyModel != "" {
		cfg.Oracle.Model = verifyModel
	}
	if verifyFull {
		cfg.Pipeline.StopOnFail = false
	}
	if mismatchWarn {
		cfg.Matching.MismatchIsWarning = true
	}
	if verifyNoFooter {
		cfg.Output.IncludeFooter = false
	}
}

// writeRecord renders the requested outputs.
func writeRecord(record *model.Record, cfg *model.Config) error {
	if verifyJSON != "" {
		data, err := pipeline.RenderJSON(record)
		if err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if err := os.WriteFile(verifyJSON, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", verifyJSON, err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Wrote %s\n", verifyJSON)
		}
	}

	if verifyMD != "" {
		md := pipeline.RenderMarkdown(record, cfg.Output.IncludeFooter)
		if err := os.WriteFile(verifyMD, []byte(md), 0644); err != nil {
			return fmt.Errorf("write %s: %w", verifyMD, err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Wrote %s\n", verifyMD)
		}
	}

	return nil
}
