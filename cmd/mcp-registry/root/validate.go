package root

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lujin3/mcp-registry-server/source"
)

var errInvalidCatalog = errors.New("registry has errors")

var validateCmd = &cobra.Command{
	Use:   "validate FILE",
	Short: "Check a registry document for required fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read catalog: %w", err)
		}
		report, err := source.Validate(data, source.FormatFromPath(args[0]))
		if err != nil {
			return err
		}
		printReport(cmd.OutOrStdout(), report)
		if !report.Valid() {
			return errInvalidCatalog
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func printReport(w io.Writer, r *source.Report) {
	fmt.Fprintln(w, "=== MCP Registry Validation ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "metadata: version=%s formatVersion=%s count=%d\n",
		r.Metadata.Version, r.Metadata.FormatVersion, r.Metadata.Count)

	for i, s := range r.Servers {
		fmt.Fprintf(w, "\nServer %d:\n", i+1)
		if len(s.Missing) > 0 {
			fmt.Fprintf(w, "  ✗ Missing: %s\n", strings.Join(s.Missing, ", "))
		} else {
			fmt.Fprintf(w, "  ✓ Name: %s\n", s.Name)
			fmt.Fprintf(w, "  ✓ Version: %s\n", s.Version)
		}
		if s.Package != "" {
			fmt.Fprintf(w, "  ✓ Package: %s\n", s.Package)
		}
		if s.Transport != "" {
			fmt.Fprintf(w, "  ✓ Transport: %s\n", s.Transport)
		}
		if len(s.Remotes) > 0 {
			fmt.Fprintf(w, "  ✓ Remotes: %d\n", len(s.Remotes))
			for _, remote := range s.Remotes {
				fmt.Fprintf(w, "    - %s\n", remote)
			}
		}
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "\nWarnings:")
		for _, msg := range r.Warnings {
			fmt.Fprintf(w, "  ⚠ %s\n", msg)
		}
	}
	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "\nErrors:")
		for _, msg := range r.Errors {
			fmt.Fprintf(w, "  ✗ %s\n", msg)
		}
	}

	fmt.Fprintln(w, "\n=== Result ===")
	if r.Valid() {
		fmt.Fprintln(w, "✓ Registry is VALID and ready for use")
	} else {
		fmt.Fprintln(w, "✗ Registry has ERRORS")
	}
}
