package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/jward/loupe"
	"github.com/jward/loupe/internal/query"
)

// cliSymbol is the flattened symbol shape printed by query commands.
type cliSymbol struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	File string `json:"file"`
	Line int    `json:"line"`
	Col  int    `json:"col"`
}

func cliSymbolFrom(sym loupe.Symbol) cliSymbol {
	return cliSymbol{
		Name: sym.Name,
		Kind: string(sym.Kind),
		File: sym.URI,
		Line: sym.Range.Start.Line,
		Col:  sym.Range.Start.Character,
	}
}

// cliLocation is the flattened location shape printed by query commands.
type cliLocation struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Col  int    `json:"col"`
}

func cliLocationsFrom(locs []loupe.Location) []cliLocation {
	out := make([]cliLocation, 0, len(locs))
	for _, loc := range locs {
		out = append(out, cliLocation{
			File: loc.URI,
			Line: loc.Range.Start.Line,
			Col:  loc.Range.Start.Character,
		})
	}
	return out
}

func (s *querySession) referenceLocations(name string, includeDeclaration bool) []cliLocation {
	locs := query.ReferenceQuery{Index: s.index}.Locations(name, includeDeclaration)
	return cliLocationsFrom(locs)
}

// outputResult marshals a query result to stdout in the selected format.
func outputResult(result any) error {
	if flagFormat == "text" {
		return outputResultText(result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputResultText dispatches to a text formatter based on the result
// type.
func outputResultText(result any) error {
	w := io.Writer(os.Stdout)

	switch v := result.(type) {
	case []cliLocation:
		for _, loc := range v {
			fmt.Fprintf(w, "%s:%d:%d\n", loc.File, loc.Line, loc.Col)
		}
	case []cliSymbol:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tKIND\tFILE\tLINE")
		for _, s := range v {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", s.Name, s.Kind, s.File, s.Line)
		}
		tw.Flush()
	case []string:
		for _, name := range v {
			fmt.Fprintln(w, name)
		}
	case *loupe.Hover:
		if v != nil {
			fmt.Fprintln(w, v.Contents.Value)
		}
	case loupe.CompletionList:
		for _, item := range v.Items {
			fmt.Fprintf(w, "%s\n", item.Label)
		}
	case []loupe.Diagnostic:
		for _, d := range v {
			fmt.Fprintf(w, "%d:%d [%s] %s: %s\n",
				d.Range.Start.Line, d.Range.Start.Character,
				severityName(d.Severity), d.Code, d.Message)
		}
	case loupe.IndexStats:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "Files\t%d\n", v.Files)
		fmt.Fprintf(tw, "Modules\t%d\n", v.Modules)
		fmt.Fprintf(tw, "Symbols\t%d\n", v.Symbols)
		fmt.Fprintf(tw, "References\t%d\n", v.References)
		fmt.Fprintf(tw, "Types\t%d\n", v.Types)
		fmt.Fprintf(tw, "Signatures\t%d\n", v.Signatures)
		fmt.Fprintf(tw, "Exports\t%d\n", v.Exports)
		tw.Flush()
	case nil:
		// No output for empty results.
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

func severityName(sev loupe.DiagnosticSeverity) string {
	switch sev {
	case loupe.SeverityError:
		return "error"
	case loupe.SeverityWarning:
		return "warning"
	case loupe.SeverityInformation:
		return "info"
	default:
		return "hint"
	}
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
