package cmd

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/esgaming/catalogops/internal/sanitize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var specsNumeric bool

var specsCmd = &cobra.Command{
	Use:   "specs",
	Short: "Specification helpers",
}

var specsValuesCmd = &cobra.Command{
	Use:   "values [label]",
	Short: "List values already stored under a specification label",
	Long: `List the distinct values stored under a label, as suggestions for
consistent data entry. With --numeric, values are reduced to their magnitude
("350mm" and "350 mm" both become 350) and listed in numeric order.`,
	Args: cobra.ExactArgs(1),
	RunE: runSpecsValues,
}

func init() {
	specsValuesCmd.Flags().BoolVar(&specsNumeric, "numeric", false, "Reduce values to their number")
	specsCmd.AddCommand(specsValuesCmd)
}

func runSpecsValues(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	label := args[0]
	values, err := a.catalog.Specifications().DistinctValues(ctx, label)
	if err != nil {
		return fmt.Errorf("failed to list values: %w", err)
	}

	printHeader("VALUES FOR "+label, 40)

	if len(values) == 0 {
		color.Yellow("  No values stored under %q", label)
		fmt.Println()
		return nil
	}

	if specsNumeric {
		values = numericValues(values)
	}

	for _, v := range values {
		fmt.Printf("    %s\n", v)
	}
	fmt.Println()
	return nil
}

// numericValues keeps the magnitude of each value, deduplicated and sorted
// by number. Values without a number are dropped.
func numericValues(values []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range values {
		n := sanitize.NormalizeUnit(v)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, _ := strconv.ParseFloat(out[i], 64)
		b, _ := strconv.ParseFloat(out[j], 64)
		return a < b
	})
	return out
}
