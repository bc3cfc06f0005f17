package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/beaver-logs/beaver/internal/config"
	"github.com/beaver-logs/beaver/internal/naming"
	"github.com/beaver-logs/beaver/internal/provisioning"
	"github.com/beaver-logs/beaver/internal/resources"
)

var (
	colorGreen = lipgloss.Color("#22c55e")
	colorRed   = lipgloss.Color("#ef4444")
	colorBlue  = lipgloss.Color("#3b82f6")
	colorDim   = lipgloss.Color("#6b7280")
	colorWhite = lipgloss.Color("#f9fafb")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	okStyle = lipgloss.NewStyle().
		Foreground(colorGreen)

	failStyle = lipgloss.NewStyle().
			Foreground(colorRed)
)

// Slot states shown in the deploy summary.
const (
	stateCreated = "created"
	stateReady   = "ready"
	statePending = "pending"
)

type summaryRow struct {
	label string
	id    string
	state string
}

// renderDeploySummary produces the lipgloss-styled result of a deployment.
// m and cfg are nil when the run failed before they were loaded.
func renderDeploySummary(report *provisioning.Report, m *resources.Model, cfg *config.Config) string {
	var b strings.Builder

	name := "deployment"
	if cfg != nil {
		name = cfg.Name
	}
	b.WriteString("\n")
	b.WriteString(titleStyle.Render(fmt.Sprintf("  beaver deploy: %s", name)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  " + strings.Repeat("═", 30)))
	b.WriteString("\n\n")

	switch {
	case report.Deployed():
		b.WriteString("  Status:   " + okStyle.Render("Deployed") + "\n")
	case report.RolledBack:
		b.WriteString("  Status:   " + failStyle.Render("Failed at "+report.FailedStage+", rolled back") + "\n")
	default:
		b.WriteString("  Status:   " + failStyle.Render("Failed at "+report.FailedStage) + "\n")
	}
	b.WriteString(fmt.Sprintf("  Run:      %s\n", report.RunID))
	b.WriteString(fmt.Sprintf("  Duration: %s\n", report.Duration.Round(time.Millisecond)))

	if m == nil || report.RolledBack {
		return b.String()
	}

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("  Resources"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  " + strings.Repeat("─", 35)))
	b.WriteString("\n")
	for _, row := range summaryRows(report, m) {
		b.WriteString(fmt.Sprintf("    %-10s %-50s %s\n", row.label, row.id, renderState(row.state)))
	}

	if report.Deployed() && cfg != nil {
		if bucket, ok := m.Bucket(); ok {
			b.WriteString("\n")
			b.WriteString(dimStyle.Render(fmt.Sprintf("  Vector config: gs://%s/%s mounted at %s", bucket.BucketName, naming.RoutingObject, naming.MountPath)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func summaryRows(report *provisioning.Report, m *resources.Model) []summaryRow {
	created := make(map[resources.Kind]bool, len(report.Created))
	for _, e := range report.Created {
		created[e.Kind] = true
	}
	state := func(kind resources.Kind, provisioned bool) string {
		switch {
		case !provisioned:
			return statePending
		case created[kind]:
			return stateCreated
		default:
			return stateReady
		}
	}

	var rows []summaryRow
	if t, ok := m.Table(); ok {
		id := t.Dataset().String()
		if t.TableID != "" {
			id = t.Dataset().TableRef(t.TableID)
		}
		rows = append(rows, summaryRow{"table", id, state(resources.KindTable, t.Provisioned)})
	}
	if t, ok := m.Topic(); ok {
		rows = append(rows, summaryRow{"topic", t.TopicID, state(resources.KindTopic, t.Provisioned)})
	}
	if bk, ok := m.Bucket(); ok {
		rows = append(rows, summaryRow{"bucket", bk.BucketName, state(resources.KindBucket, bk.Provisioned)})
	}
	if j, ok := m.Job(); ok {
		rows = append(rows, summaryRow{"job", j.JobName, state(resources.KindJob, j.Provisioned)})
	}
	if s, ok := m.Scheduler(); ok {
		rows = append(rows, summaryRow{"scheduler", s.Name, state(resources.KindScheduler, s.Provisioned)})
	}
	return rows
}

func renderState(state string) string {
	switch state {
	case stateCreated:
		return okStyle.Render(state)
	case statePending:
		return failStyle.Render(state)
	default:
		return dimStyle.Render(state)
	}
}

func renderDestroySummary(name string) string {
	return "\n" + titleStyle.Render(fmt.Sprintf("  beaver destroy: %s", name)) + "\n\n" +
		"  Status:   " + okStyle.Render("Destroyed") + "\n"
}

func renderInitSummary(layout config.Layout, cfg *config.Config, wroteFragment bool) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("  Configuration saved"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("  Config:     %s\n", layout.ConfigFile()))
	b.WriteString(fmt.Sprintf("  Resources:  %s\n", layout.ResourcesFile()))
	if wroteFragment {
		b.WriteString(fmt.Sprintf("  Fragment:   %s (starter)\n", layout.FragmentFile()))
	} else {
		b.WriteString(fmt.Sprintf("  Fragment:   %s (kept)\n", layout.FragmentFile()))
	}

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("  Deployment"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("    Project:  %s\n", cfg.Project))
	b.WriteString(fmt.Sprintf("    Region:   %s\n", cfg.Region))
	b.WriteString(fmt.Sprintf("    Name:     %s\n", cfg.Name))
	b.WriteString(fmt.Sprintf("    Schedule: %s\n", cfg.Schedule))

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("  Next Steps"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("    1. Edit %s\n", layout.FragmentFile()))
	b.WriteString(fmt.Sprintf("    2. beaver deploy %s\n", layout.Root))
	b.WriteString("\n")
	return b.String()
}
