package deploy

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Pipeline stages, reported on failure so the operator can see how far a
// descriptor got.
const (
	StageTemplatize  = "templatize"
	StagePersist     = "persist"
	StageResolve     = "resolve"
	StageInstantiate = "instantiate"
	StageWrite       = "write"
)

// MissingConfigError is returned when the configuration file required for
// templatization does not exist.
type MissingConfigError struct {
	Path string
}

func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("configuration %s not found but required for templatization", e.Path)
}

// MissingTemplateError is returned when templatize is disabled and no
// persisted template exists for the configuration.
type MissingTemplateError struct {
	Path string
}

func (e *MissingTemplateError) Error() string {
	return fmt.Sprintf("template %s not found but required for instantiation", e.Path)
}

// ConflictError is returned when two descriptors target the same
// configuration path. Unordered writes to one path are undefined, so the run
// is rejected before any I/O happens.
type ConflictError struct {
	Path string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("multiple deployment descriptors target configuration %s", e.Path)
}

// DeployError wraps a stage failure with the descriptor it belongs to.
type DeployError struct {
	Config string
	Stage  string
	Err    error
}

func (e *DeployError) Error() string {
	return fmt.Sprintf("deploy %s failed at stage %s: %v", e.Config, e.Stage, e.Err)
}

func (e *DeployError) Unwrap() error {
	return e.Err
}

// Format renders the error as a styled terminal report.
func (e *DeployError) Format() string {
	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	fileStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Underline(true)
	stageStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("3"))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("Deployment Failed") + "\n\n")
	sb.WriteString(fileStyle.Render(e.Config))
	sb.WriteString(stageStyle.Render(fmt.Sprintf("  (stage: %s)", e.Stage)) + "\n\n")
	sb.WriteString(headerStyle.Render("Error: ") + e.Err.Error() + "\n")

	return sb.String()
}
