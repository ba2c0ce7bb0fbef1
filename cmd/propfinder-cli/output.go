package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/kailas-cloud/propfinder/internal/domain/property"
	"github.com/kailas-cloud/propfinder/internal/domain/query"
	searchuc "github.com/kailas-cloud/propfinder/internal/usecase/search"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	labelColor  = color.New(color.FgHiBlack)
	valueColor  = color.New(color.FgGreen)
	warnColor   = color.New(color.FgYellow)
	errorColor  = color.New(color.FgRed, color.Bold)
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func printField(w io.Writer, label, value string) {
	if value == "" {
		value = "-"
	}
	fmt.Fprintf(w, "%s %s\n", labelColor.Sprintf("%-10s", label+":"), valueColor.Sprint(value))
}

func describeFilters(f property.Filters) []string {
	var out []string
	switch {
	case f.PriceMin != nil && f.PriceMax != nil:
		out = append(out, fmt.Sprintf("price %s..%s %s", money(*f.PriceMin), money(*f.PriceMax), f.Currency))
	case f.PriceMin != nil:
		out = append(out, fmt.Sprintf("price >= %s %s", money(*f.PriceMin), f.Currency))
	case f.PriceMax != nil:
		out = append(out, fmt.Sprintf("price <= %s %s", money(*f.PriceMax), f.Currency))
	}
	if f.Bedrooms != nil {
		out = append(out, fmt.Sprintf("bedrooms >= %d", *f.Bedrooms))
	}
	if f.Bathrooms != nil {
		out = append(out, fmt.Sprintf("bathrooms >= %d", *f.Bathrooms))
	}
	if f.PropertyType != "" {
		out = append(out, "type "+string(f.PropertyType))
	}
	if f.City != "" {
		out = append(out, "city "+f.City)
	}
	if f.Region != "" {
		out = append(out, "region "+f.Region)
	}
	if len(f.Features) > 0 {
		out = append(out, "features "+strings.Join(f.Features, ","))
	}
	return out
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func printExtraction(w io.Writer, ex query.Extraction, f property.Filters) {
	headerColor.Fprintln(w, "Extraction")
	printField(w, "language", string(ex.Query.Language))
	printField(w, "residual", ex.Residual)
	printField(w, "filters", strings.Join(describeFilters(f), "; "))
	for _, m := range ex.Matches {
		fmt.Fprintf(w, "  %s %q -> %s\n", labelColor.Sprintf("%-14s", m.Stage), m.Text, m.Value)
	}
}

func printResults(w io.Writer, resp *searchuc.Response) {
	headerColor.Fprintf(w, "%d results", len(resp.Results))
	fmt.Fprintf(w, " %s\n", labelColor.Sprintf("(path %s, query %s)", resp.Path, resp.QueryID))
	if resp.FallbackReason != "" {
		warnColor.Fprintf(w, "fallback: %s\n", resp.FallbackReason)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tSCORE\tSOURCE\tPRICE\tBEDS\tTYPE\tCITY\tTITLE")
	for i := range resp.Results {
		r := &resp.Results[i]
		a := r.Attributes()
		fmt.Fprintf(tw, "%d\t%s\t%.3f\t%s\t%s\t%d\t%s\t%s\t%s\n",
			r.Rank(), r.ID(), r.Relevance(), r.Source(), money(a.Price), a.Bedrooms, a.Type, a.City, a.Title)
	}
	_ = tw.Flush()

	if resp.Analysis != "" {
		fmt.Fprintln(w)
		headerColor.Fprintln(w, "Analysis")
		fmt.Fprintln(w, resp.Analysis)
	}
}

type resultJSON struct {
	Rank      int                 `json:"rank"`
	ID        string              `json:"id"`
	Score     float64             `json:"score"`
	Source    string              `json:"source"`
	Attribute property.Attributes `json:"attributes"`
}

type responseJSON struct {
	QueryID        string           `json:"queryId"`
	Path           string           `json:"path"`
	FallbackReason string           `json:"fallbackReason,omitempty"`
	Language       string           `json:"language"`
	Residual       string           `json:"residual"`
	Filters        property.Filters `json:"filters"`
	Results        []resultJSON     `json:"results"`
	Analysis       string           `json:"analysis,omitempty"`
}

func toJSON(resp *searchuc.Response) responseJSON {
	out := responseJSON{
		QueryID:        resp.QueryID,
		Path:           string(resp.Path),
		FallbackReason: string(resp.FallbackReason),
		Language:       string(resp.Language),
		Residual:       resp.Residual,
		Filters:        resp.Filters,
		Results:        make([]resultJSON, len(resp.Results)),
		Analysis:       resp.Analysis,
	}
	for i := range resp.Results {
		r := &resp.Results[i]
		out.Results[i] = resultJSON{
			Rank:      r.Rank(),
			ID:        r.ID(),
			Score:     r.Relevance(),
			Source:    string(r.Source()),
			Attribute: r.Attributes(),
		}
	}
	return out
}
