package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/felixgeelhaar/flowgate/pkg/domain/workflow"
)

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#FAFAFA")).
	Background(lipgloss.Color("#7D56F4")).
	PaddingLeft(1).
	PaddingRight(1)

var baseStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	BorderForeground(lipgloss.Color("240"))

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(16)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	wipStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	hintStyle  = lipgloss.NewStyle().Italic(true)
)

func phaseStyle(p workflow.Phase) lipgloss.Style {
	if p.IsIdle() {
		return okStyle
	}
	return wipStyle
}

func check(ok bool) string {
	if ok {
		return okStyle.Render("yes")
	}
	return errStyle.Render("no")
}
