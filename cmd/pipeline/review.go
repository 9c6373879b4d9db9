package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/cuemby/docpipeline/pkg/phase1"
	"github.com/cuemby/docpipeline/pkg/phase4"
	"github.com/cuemby/docpipeline/pkg/types"
	"github.com/cuemby/docpipeline/pkg/workstore"
	"github.com/spf13/cobra"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Walk the manual-review queue interactively and resolve each item",
	Long: `review lists every item the escalation ladder could not resolve and
prompts a human reviewer for its document kind and field values. Reviewed
items leave the queue the same way an automated phase would: by writing
an artifact.`,
	Args: cobra.NoArgs,
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().String("reviewer", "", "Reviewer name recorded in the escalation trace (defaults to $USER)")
}

func runReview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	reviewer, _ := cmd.Flags().GetString("reviewer")
	if reviewer == "" {
		reviewer = os.Getenv("USER")
	}
	if reviewer == "" {
		reviewer = "unknown"
	}

	store, err := workstore.Open(cfg.WorkStoreRoot)
	if err != nil {
		return configErr(fmt.Errorf("open work store: %w", err))
	}

	queue := phase4.NewQueue(store)
	pending, err := queue.Pending()
	if err != nil {
		return fmt.Errorf("list review queue: %w", err)
	}
	if len(pending) == 0 {
		fmt.Println("Review queue is empty")
		return nil
	}

	resolver := phase4.NewResolver(store, phase1.DefaultOwnerHost())
	scanner := bufio.NewScanner(os.Stdin)

	resolved, skipped := 0, 0
	for i, record := range pending {
		fmt.Printf("\n[%d/%d] item %s (reason: %s)\n", i+1, len(pending), record.ItemID, record.Reason)
		fmt.Println("----")
		fmt.Println(truncateSnippet(record.LastTextSnippet))
		fmt.Println("----")

		kind, fields, skip, err := promptDecision(scanner)
		if err != nil {
			return fmt.Errorf("read reviewer input: %w", err)
		}
		if skip {
			skipped++
			continue
		}

		if err := resolver.Resolve(record, kind, fields, reviewer); err != nil {
			fmt.Printf("✗ failed to resolve %s: %v\n", record.ItemID, err)
			continue
		}
		fmt.Printf("✓ resolved %s as %s\n", record.ItemID, kind)
		resolved++
	}

	fmt.Printf("\nResolved %d, skipped %d, queue remaining %d\n", resolved, skipped, len(pending)-resolved-skipped)
	if resolved < len(pending) {
		return exitErr(2, fmt.Errorf("%d item(s) left unresolved", len(pending)-resolved))
	}
	return nil
}

// promptDecision asks the reviewer for a document kind and its field
// values, one "key=value" line at a time until a blank line ends input.
// An empty kind means the reviewer is skipping this item for now.
func promptDecision(scanner *bufio.Scanner) (types.DocumentKind, map[string]string, bool, error) {
	fmt.Print("doc kind (blank to skip): ")
	if !scanner.Scan() {
		return "", nil, true, scanner.Err()
	}
	kindInput := strings.TrimSpace(scanner.Text())
	if kindInput == "" {
		return "", nil, true, nil
	}

	fields := make(map[string]string)
	fmt.Println("enter fields as key=value, blank line to finish:")
	for {
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			break
		}
		k, v, found := strings.Cut(line, "=")
		if !found {
			fmt.Println("  (ignored, expected key=value)")
			continue
		}
		fields[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}

	return types.DocumentKind(kindInput), fields, false, nil
}

func truncateSnippet(s string) string {
	const max = 500
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
