package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ssolovyev/veritrail/internal/evidence"
	"github.com/ssolovyev/veritrail/internal/model"
	"github.com/ssolovyev/veritrail/internal/registry"
)

var (
	claimsEvidence string
	claimsRegistry string
	claimSource    string
	claimText      string
	claimExcerpt   string
	claimKind      string
)

// claimsCmd represents the claims command group
var claimsCmd = &cobra.Command{
	Use:   "claims",
	Short: "Inspect and maintain the claim registry",
}

var claimsListCmd = &cobra.Command{
	Use:   "list [source-id]",
	Short: "List registered claims, optionally for one source",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, reg, err := claimsStores()
		if err != nil {
			return err
		}

		claims := reg.All()
		if len(args) == 1 {
			claims = reg.FindBySource(args[0])
		}

		printClaims(claims)
		return nil
	},
}

var claimsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search claims by content-word overlap",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, reg, err := claimsStores()
		if err != nil {
			return err
		}

		matches := reg.Search(strings.Join(args, " "))
		if len(matches) == 0 {
			fmt.Println("no matching claims")
			return nil
		}

		printClaims(matches)
		return nil
	},
}

var claimsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register one claim manually",
	Long: `Register a claim bound to a source and a verbatim supporting excerpt.
The excerpt must be found in the source's extracted text; fabricated
excerpts are rejected.

Example:
  veritrail claims add --source S001 \
    --text "GDP grew 3.1% in 2025" \
    --excerpt "GDP grew 3.1% in 2025"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, reg, err := claimsStores()
		if err != nil {
			return err
		}

		claim, created, err := reg.Add(model.Claim{
			Text:     claimText,
			Kind:     model.ClaimKind(claimKind),
			SourceID: claimSource,
			Excerpt:  claimExcerpt,
		})
		if err != nil {
			if errors.Is(err, registry.ErrExcerptNotFound) {
				return fmt.Errorf("excerpt not found in %s; claims must quote their source verbatim", claimSource)
			}
			return err
		}

		if !created {
			fmt.Printf("duplicate of %s\n", claim.ID)
			return nil
		}
		fmt.Printf("registered %s (%s)\n", claim.ID, claim.Kind)
		return nil
	},
}

func claimsStores() (*evidence.DirStore, *registry.Registry, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if claimsEvidence != "" {
		cfg.Store.EvidenceDir = claimsEvidence
	}
	if claimsRegistry != "" {
		cfg.Store.RegistryPath = claimsRegistry
	}
	return openStores(cfg)
}

func printClaims(claims []*model.Claim) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSOURCE\tKIND\tTEXT")
	for _, c := range claims {
		text := c.Text
		if len(text) > 80 {
			text = text[:80] + "..."
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, c.SourceID, c.Kind, text)
	}
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(claimsCmd)
	claimsCmd.AddCommand(claimsListCmd)
	claimsCmd.AddCommand(claimsSearchCmd)
	claimsCmd.AddCommand(claimsAddCmd)

	claimsCmd.PersistentFlags().StringVar(&claimsEvidence, "evidence", "", "evidence store directory (overrides config)")
	claimsCmd.PersistentFlags().StringVar(&claimsRegistry, "registry", "", "claim registry path (overrides config)")

	claimsAddCmd.Flags().StringVar(&claimSource, "source", "", "owning source identifier (required)")
	claimsAddCmd.Flags().StringVar(&claimText, "text", "", "claim text (required)")
	claimsAddCmd.Flags().StringVar(&claimExcerpt, "excerpt", "", "verbatim supporting excerpt (required)")
	claimsAddCmd.Flags().StringVar(&claimKind, "kind", "fact", "claim kind (statistic, fact, attribution, event, comparison)")
	_ = claimsAddCmd.MarkFlagRequired("source")
	_ = claimsAddCmd.MarkFlagRequired("text")
	_ = claimsAddCmd.MarkFlagRequired("excerpt")
}
