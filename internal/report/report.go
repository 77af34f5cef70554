// Package report turns a session's results into exportable documents.
package report

import (
	"fmt"

	"github.com/noah-isme/results-app/internal/models"
	"github.com/noah-isme/results-app/internal/session"
	"github.com/noah-isme/results-app/pkg/export"
)

// Column headers of the results table.
const (
	ColClass           = "Class"
	ColGroup           = "Group"
	ColEvaluation      = "Evaluation"
	ColResult          = "Result"
	ColAverage         = "Average"
	ColStandardDev     = "Std dev"
	ColWeighted        = "Weighted"
	ColWeightedAverage = "Weighted average"
	ColWeightedDev     = "Weighted std dev"
)

// Row labels for the per-class summary lines.
const (
	TotalLabel = "Total"
	FinalLabel = "Final"
)

var headers = []string{
	ColClass, ColGroup, ColEvaluation,
	ColResult, ColAverage, ColStandardDev,
	ColWeighted, ColWeightedAverage, ColWeightedDev,
}

// Dataset flattens results into one row per evaluation, a total row per class
// and a final row when the class has a final grade.
func Dataset(results *models.Results) export.Dataset {
	data := export.Dataset{Headers: append([]string(nil), headers...), Rows: []map[string]string{}}
	if results == nil {
		return data
	}
	if !results.LastUpdate.IsZero() {
		data.Notes = append(data.Notes, "Last update: "+results.LastUpdate.Local().Format("2006-01-02 15:04"))
	}

	for _, class := range results.Classes {
		for _, r := range class.Results {
			data.Rows = append(data.Rows, row(class, r.Name, r.Normal, r.Weighted))
		}
		data.Rows = append(data.Rows, row(class, TotalLabel, models.ResultInfo{}, class.Total))
		if class.HasFinalGrade() {
			data.Rows = append(data.Rows, map[string]string{
				ColClass:      class.Name,
				ColGroup:      class.Group,
				ColEvaluation: FinalLabel,
				ColResult:     class.FinalGrade,
			})
		}
	}
	return data
}

func row(class models.ClassResult, label string, normal, weighted models.ResultInfo) map[string]string {
	return map[string]string{
		ColClass:           class.Name,
		ColGroup:           class.Group,
		ColEvaluation:      label,
		ColResult:          normal.Result,
		ColAverage:         normal.Average,
		ColStandardDev:     normal.StandardDev,
		ColWeighted:        weighted.Result,
		ColWeightedAverage: weighted.Average,
		ColWeightedDev:     weighted.StandardDev,
	}
}

// Title is the document heading for a session.
func Title(id session.ID) string {
	label := session.Format(id)
	if label == "" {
		label = string(id)
	}
	return "Results " + label
}

// FileName is the default export name for a session.
func FileName(id session.ID, format export.Format) string {
	return fmt.Sprintf("results-%s%s", id, format.Extension())
}

// Render encodes results for the given session.
func Render(format export.Format, results *models.Results, id session.ID) ([]byte, error) {
	out, err := export.Render(format, Dataset(results), Title(id))
	if err != nil {
		return nil, fmt.Errorf("render %s report for %s: %w", format, id, err)
	}
	return out, nil
}
