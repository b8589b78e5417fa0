package report

import (
	"encoding/json"
	"io"

	"github.com/Sumatoshi-tech/bslcheck/pkg/diag"
	"github.com/Sumatoshi-tech/bslcheck/pkg/version"
)

const sarifSchema = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	ShortDescription sarifMessage `json:"shortDescription"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	RuleIndex int             `json:"ruleIndex"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn"`
	CharOffset  int `json:"charOffset"`
	CharLength  int `json:"charLength"`
}

// ruleTitles gives each stable code a short SARIF rule description.
var ruleTitles = map[string]string{
	diag.CodeSyntaxError:           "Syntax error",
	diag.CodeUnknownConstruct:      "Unknown construct",
	diag.CodeUnknownMethod:         "Unknown method",
	diag.CodeWrongParamCount:       "Wrong parameter count",
	diag.CodeUnknownProperty:       "Unknown property",
	diag.CodeTypeMismatch:          "Type mismatch",
	diag.CodeUndeclaredVariable:    "Undeclared variable",
	diag.CodeUnusedVariable:        "Unused variable",
	diag.CodeUninitializedVariable: "Possibly uninitialized variable",
	diag.CodeDuplicateParameter:    "Duplicate parameter",
	diag.CodeDuplicateVariable:     "Duplicate variable declaration",
}

func sarifLevel(s diag.Severity) string {
	switch s {
	case diag.SeverityError:
		return "error"
	case diag.SeverityWarning:
		return "warning"
	case diag.SeverityInfo, diag.SeverityHint:
		return "note"
	}

	return "none"
}

// WriteSARIF renders the diagnostics as a single-run SARIF 2.1.0 log.
func WriteSARIF(w io.Writer, diags []diag.Diagnostic) error {
	sorted := sortDiagnostics(diags)

	ruleIndex := map[string]int{}
	rules := []sarifRule{}
	results := make([]sarifResult, 0, len(sorted))

	for _, d := range sorted {
		idx, ok := ruleIndex[d.Code]
		if !ok {
			idx = len(rules)
			ruleIndex[d.Code] = idx
			rules = append(rules, sarifRule{
				ID:               d.Code,
				ShortDescription: sarifMessage{Text: ruleTitles[d.Code]},
			})
		}

		results = append(results, sarifResult{
			RuleID:    d.Code,
			RuleIndex: idx,
			Level:     sarifLevel(d.Severity),
			Message:   sarifMessage{Text: d.Message},
			Locations: []sarifLocation{{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{URI: d.Location.File},
					Region: sarifRegion{
						StartLine:   d.Location.Line + 1,
						StartColumn: d.Location.Column + 1,
						CharOffset:  d.Location.Offset,
						CharLength:  d.Location.Length,
					},
				},
			}},
		})
	}

	log := sarifLog{
		Schema:  sarifSchema,
		Version: "2.1.0",
		Runs: []sarifRun{{
			Tool: sarifTool{Driver: sarifDriver{
				Name:           "bslcheck",
				Version:        version.Version,
				InformationURI: "https://github.com/Sumatoshi-tech/bslcheck",
				Rules:          rules,
			}},
			Results: results,
		}},
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(log)
}

// WriteJSON renders the diagnostics as a plain JSON array for machine
// consumers that do not speak SARIF.
func WriteJSON(w io.Writer, diags []diag.Diagnostic) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(sortDiagnostics(diags))
}
