// Package prerequisites checks that the external command-line tools the
// provisioner shells out to are installed.
package prerequisites

import (
	"fmt"
	"os/exec"
	"strings"
)

// Tool represents a client tool that may be required.
type Tool struct {
	// Name is the binary name to look for in PATH.
	Name string

	// Required indicates if this tool is mandatory.
	Required bool

	// Description explains what the tool is used for.
	Description string

	// InstallURL provides a URL for installation instructions.
	InstallURL string
}

// DeployTools returns the tools a deployment cannot run without.
func DeployTools() []Tool {
	return []Tool{
		{
			Name:        "gcloud",
			Required:    true,
			Description: "Creates Pub/Sub topics, buckets, Cloud Run jobs and Scheduler triggers",
			InstallURL:  "https://cloud.google.com/sdk/docs/install",
		},
		{
			Name:        "bq",
			Required:    true,
			Description: "Creates BigQuery datasets and tables",
			InstallURL:  "https://cloud.google.com/bigquery/docs/bq-command-line-tool",
		},
	}
}

// CheckResult contains the result of checking a single tool.
type CheckResult struct {
	Tool  Tool
	Found bool
	Path  string
}

// CheckResults contains the results of checking multiple tools.
type CheckResults struct {
	Results []CheckResult
	Missing []Tool
}

// MissingError reports required tools that could not be found. A deployment
// cannot start without them.
type MissingError struct {
	Tools []Tool
}

func (e *MissingError) Error() string {
	missing := make([]string, 0, len(e.Tools))
	for _, tool := range e.Tools {
		missing = append(missing, fmt.Sprintf("%s (%s)", tool.Name, tool.InstallURL))
	}
	return fmt.Sprintf("missing required tools: %s", strings.Join(missing, ", "))
}

// HasErrors returns true if any required tools are missing.
func (r *CheckResults) HasErrors() bool {
	for _, tool := range r.Missing {
		if tool.Required {
			return true
		}
	}
	return false
}

// Error returns a *MissingError if any required tools are missing.
func (r *CheckResults) Error() error {
	var missing []Tool
	for _, tool := range r.Missing {
		if tool.Required {
			missing = append(missing, tool)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &MissingError{Tools: missing}
}

// LookPathFunc resolves a binary name to a path.
type LookPathFunc func(name string) (string, error)

// Check verifies that the specified tools are available on PATH.
func Check(tools []Tool) *CheckResults {
	return CheckWith(exec.LookPath, tools)
}

// CheckWith is Check with an explicit lookup function.
func CheckWith(lookPath LookPathFunc, tools []Tool) *CheckResults {
	results := &CheckResults{}

	for _, tool := range tools {
		result := CheckResult{Tool: tool}

		path, err := lookPath(tool.Name)
		if err == nil {
			result.Found = true
			result.Path = path
		} else {
			results.Missing = append(results.Missing, tool)
		}

		results.Results = append(results.Results, result)
	}

	return results
}

// CheckDeploy checks the tools needed by deploy and destroy.
func CheckDeploy() *CheckResults {
	return Check(DeployTools())
}
