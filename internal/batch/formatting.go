package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// formatBatchResults formats the batch results in the specified format.
func formatBatchResults(items []ItemResult, format string) (string, error) {
	switch format {
	case "json":
		return formatJSON(items)
	case "csv":
		return formatCSV(items)
	default: // text
		return formatText(items)
	}
}

// jsonItem is the wire form of one batch entry; errors become strings.
type jsonItem struct {
	ItemResult
	Error string `json:"error,omitempty"`
}

// formatJSON formats results as JSON.
func formatJSON(items []ItemResult) (string, error) {
	out := struct {
		Images []jsonItem `json:"images"`
	}{
		Images: make([]jsonItem, len(items)),
	}

	for i, item := range items {
		out.Images[i] = jsonItem{ItemResult: item}
		if item.Err != nil {
			out.Images[i].Error = item.Err.Error()
		}
	}

	bts, err := json.MarshalIndent(out, "", "  ")
	return string(bts), err
}

// formatCSV formats results as CSV, one row per file.
func formatCSV(items []ItemResult) (string, error) {
	var csvData [][]string
	// Header
	csvData = append(csvData, []string{
		"file", "state", "card_id", "card_name", "set", "score", "match_percent", "confidence", "error",
	})

	for _, item := range items {
		row := []string{item.Path, "", "", "", "", "0", "0", "0", ""}
		if item.Err != nil {
			row[8] = item.Err.Error()
			csvData = append(csvData, row)
			continue
		}
		res := item.Result
		row[1] = string(res.State)
		if best := res.BestMatch; best != nil {
			row[2] = best.Card.ID
			row[3] = best.Card.Name
			row[4] = best.Card.SetName
			row[5] = fmt.Sprintf("%.1f", best.Score)
			row[6] = strconv.Itoa(int(best.MatchPercent))
			row[7] = fmt.Sprintf("%.2f", best.Confidence)
		}
		csvData = append(csvData, row)
	}

	var output strings.Builder
	writer := csv.NewWriter(&output)
	for _, row := range csvData {
		if err := writer.Write(row); err != nil {
			return "", err
		}
	}
	writer.Flush()
	return output.String(), nil
}

// formatText formats results as plain text.
func formatText(items []ItemResult) (string, error) {
	var output strings.Builder
	for i, item := range items {
		if i > 0 {
			output.WriteString("\n")
		}
		output.WriteString(fmt.Sprintf("# %s\n", item.Path))
		if item.Err != nil {
			output.WriteString(fmt.Sprintf("error: %v\n", item.Err))
			continue
		}
		res := item.Result
		if res.BestMatch == nil {
			output.WriteString("no match\n")
			continue
		}
		best := res.BestMatch
		output.WriteString(fmt.Sprintf("%s  %s (%s)  %d%% via %s\n",
			best.Card.ID, best.Card.Name, best.Card.SetName, int(best.MatchPercent), best.MatchedBy))
		for _, alt := range res.Matches {
			if alt.Card.ID == best.Card.ID {
				continue
			}
			output.WriteString(fmt.Sprintf("  alt: %s  %s  %d%%\n", alt.Card.ID, alt.Card.Name, int(alt.MatchPercent)))
		}
	}
	return output.String(), nil
}
