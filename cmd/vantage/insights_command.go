package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"vantage/internal/analysis"
	"vantage/internal/api"
	"vantage/internal/stream"
)

func newInsightsCommand(ctx *commandContext) *cobra.Command {
	var rawJSON bool

	cmd := &cobra.Command{
		Use:   "insights <category>",
		Short: "Show decay-adjusted analyzer results for a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.Insights(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if rawJSON {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(resp)
			}

			if len(resp.Insights) == 0 {
				fmt.Fprintf(out, "No analysis results for %s yet\n", resp.Category)
				return nil
			}

			fmt.Fprintf(out, "Insights for %s\n\n", resp.Category)
			for i, insight := range resp.Insights {
				if i > 0 {
					fmt.Fprintln(out)
				}
				printInsight(out, insight)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&rawJSON, "json", false, "Emit the raw API response as JSON")
	return cmd
}

func printInsight(out io.Writer, insight api.Insight) {
	fmt.Fprintf(out, "%s  (confidence %d, %s", insight.Analyzer, insight.Confidence, insight.Freshness)
	if insight.ShouldRefresh {
		fmt.Fprint(out, ", refresh due")
	}
	fmt.Fprintf(out, ")\n  analyzed %s over %d items\n", formatTaskTime(insight.AnalyzedAt), insight.ItemCount)

	switch insight.Analyzer {
	case analysis.NameFormatMix:
		printFormatInsight(out, insight.Data)
	case analysis.NameRegional:
		printRegionalInsight(out, insight.Data)
	case analysis.NameDurationBuckets:
		printDurationInsight(out, insight.Data)
	case analysis.NameTitleKeywords:
		printKeywordInsight(out, insight.Data)
	default:
		fmt.Fprintf(out, "  %s\n", string(insight.Data))
	}
}

func printFormatInsight(out io.Writer, data json.RawMessage) {
	var payload analysis.FormatInsight
	if err := json.Unmarshal(data, &payload); err != nil {
		fmt.Fprintf(out, "  (unreadable payload: %v)\n", err)
		return
	}

	formats := make([]stream.Format, 0, len(payload.Counts))
	for format := range payload.Counts {
		formats = append(formats, format)
	}
	sort.Slice(formats, func(i, j int) bool {
		if payload.Counts[formats[i]] != payload.Counts[formats[j]] {
			return payload.Counts[formats[i]] > payload.Counts[formats[j]]
		}
		return formats[i] < formats[j]
	})

	for _, format := range formats {
		marker := " "
		if format == payload.Dominant {
			marker = "*"
		}
		fmt.Fprintf(out, "  %s %-8s %4d  %s\n", marker, format, payload.Counts[format], formatShare(payload.Shares[format]))
	}
	fmt.Fprintf(out, "    live share %s\n", formatShare(payload.LiveShare))
}

func printRegionalInsight(out io.Writer, data json.RawMessage) {
	var payload analysis.RegionalInsight
	if err := json.Unmarshal(data, &payload); err != nil {
		fmt.Fprintf(out, "  (unreadable payload: %v)\n", err)
		return
	}
	for _, lang := range payload.Languages {
		marker := " "
		if lang.DisplayName == payload.Dominant {
			marker = "*"
		}
		fmt.Fprintf(out, "  %s %-16s %4d  %s\n", marker, lang.DisplayName, lang.Count, formatShare(lang.Share))
	}
}

func printDurationInsight(out io.Writer, data json.RawMessage) {
	var payload analysis.DurationInsight
	if err := json.Unmarshal(data, &payload); err != nil {
		fmt.Fprintf(out, "  (unreadable payload: %v)\n", err)
		return
	}
	for _, bucket := range []string{analysis.BucketShort, analysis.BucketMedium, analysis.BucketLong, analysis.BucketExtended} {
		fmt.Fprintf(out, "    %-8s %4d\n", bucket, payload.Buckets[bucket])
	}
	fmt.Fprintf(out, "    average %s, median %s, longest %s\n",
		payload.Average.Round(time.Second),
		payload.Median.Round(time.Second),
		payload.Longest.Round(time.Second))
	if payload.LiveOnly > 0 {
		fmt.Fprintf(out, "    %d live items excluded\n", payload.LiveOnly)
	}
}

func printKeywordInsight(out io.Writer, data json.RawMessage) {
	var payload analysis.KeywordInsight
	if err := json.Unmarshal(data, &payload); err != nil {
		fmt.Fprintf(out, "  (unreadable payload: %v)\n", err)
		return
	}
	for _, keyword := range payload.Keywords {
		fmt.Fprintf(out, "    %-20s %4d\n", keyword.Word, keyword.Count)
	}
	fmt.Fprintf(out, "    %d unique words across %d titles\n", payload.UniqueWords, payload.TitlesSeen)
}
