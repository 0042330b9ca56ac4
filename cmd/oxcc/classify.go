package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/maxleiko/oxcc"
)

var flagFormat string

var validFormats = []string{"json", "text"}

var classifyCmd = &cobra.Command{
	Use:   "classify <file>...",
	Short: "Print the source type of each file",
	Long:  "Classifies each file by its extension without reading it.",
	Args:  cobra.MinimumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().StringVar(&flagFormat, "format", "text", "output format: json|text")
}

// Classification is the JSON form of one classified file.
type Classification struct {
	Path        string `json:"path"`
	Language    string `json:"language,omitempty"`
	ModuleKind  string `json:"module_kind,omitempty"`
	Variant     string `json:"variant,omitempty"`
	Declaration bool   `json:"declaration,omitempty"`
	Error       string `json:"error,omitempty"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	results := make([]Classification, len(args))
	unknown := 0
	for i, path := range args {
		results[i] = classify(path)
		if results[i].Error != "" {
			unknown++
		}
	}

	out := cmd.OutOrStdout()
	if flagFormat == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		formatClassificationsText(out, results)
	}

	if unknown > 0 {
		return fmt.Errorf("%d file(s) could not be classified", unknown)
	}
	return nil
}

func classify(path string) Classification {
	st, err := oxcc.Classify(path)
	if err != nil {
		return Classification{Path: path, Error: err.Error()}
	}
	return Classification{
		Path:        path,
		Language:    st.Language.String(),
		ModuleKind:  st.ModuleKind.String(),
		Variant:     st.Variant.String(),
		Declaration: st.Declaration,
	}
}

// formatClassificationsText formats results as aligned columns.
func formatClassificationsText(w io.Writer, results []Classification) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tLANGUAGE\tMODULE\tVARIANT\tDECLARATION")
	for _, r := range results {
		if r.Error != "" {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t-\t(%s)\n", r.Path, r.Error)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", r.Path, r.Language, r.ModuleKind, r.Variant, r.Declaration)
	}
	tw.Flush()
}

func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
