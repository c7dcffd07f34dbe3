package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/exp/ordered"
	"github.com/lucasb-eyer/go-colorful"
)

type styles struct {
	AppName      lipgloss.Style
	CliArgs      lipgloss.Style
	Comment      lipgloss.Style
	ErrorHeader  lipgloss.Style
	ErrorDetails lipgloss.Style
	ErrPadding   lipgloss.Style
	Flag         lipgloss.Style
	FlagComma    lipgloss.Style
	FlagDesc     lipgloss.Style
	InlineCode   lipgloss.Style
	Link         lipgloss.Style
	Pipe         lipgloss.Style
	Quote        lipgloss.Style
	Spinner      lipgloss.Style
	Provider     lipgloss.Style
	Model        lipgloss.Style
	Active       lipgloss.Style
	Timeago      lipgloss.Style
	Warning      lipgloss.Style
}

func makeStyles(r *lipgloss.Renderer) (s styles) {
	const horizontalEdgePadding = 2
	s.AppName = r.NewStyle().Bold(true)
	s.CliArgs = r.NewStyle().Foreground(lipgloss.Color("#585858"))
	s.Comment = r.NewStyle().Foreground(lipgloss.Color("#757575"))
	s.ErrorHeader = r.NewStyle().Foreground(lipgloss.Color("#F1F1F1")).Background(lipgloss.Color("#FF5F87")).Bold(true).Padding(0, 1).SetString("ERROR")
	s.ErrorDetails = s.Comment
	s.ErrPadding = r.NewStyle().Padding(0, horizontalEdgePadding)
	s.Flag = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00B594", Dark: "#3EEFCF"}).Bold(true)
	s.FlagComma = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#5DD6C0", Dark: "#427C72"}).SetString(",")
	s.FlagDesc = s.Comment
	s.InlineCode = r.NewStyle().Foreground(lipgloss.Color("#FF5F87")).Background(lipgloss.Color("#3A3A3A")).Padding(0, 1)
	s.Link = r.NewStyle().Foreground(lipgloss.Color("#00AF87")).Underline(true)
	s.Quote = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF71D0", Dark: "#FF78D2"})
	s.Pipe = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#8470FF", Dark: "#745CFF"})
	s.Spinner = r.NewStyle().Foreground(lipgloss.Color("212"))
	s.Provider = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#8470FF", Dark: "#745CFF"}).Bold(true)
	s.Model = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00B594", Dark: "#3EEFCF"})
	s.Active = r.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	s.Timeago = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#999", Dark: "#555"})
	s.Warning = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#C69026", Dark: "#F5B942"})
	return s
}

var gradientStops = []string{"#F967DC", "#6B50FF"}

// makeGradientText renders each rune of str with a color blended between
// the gradient stops.
func makeGradientText(baseStyle lipgloss.Style, str string) string {
	runes := []rune(str)
	if len(runes) < 2 { //nolint:mnd
		return baseStyle.Render(str)
	}
	start, _ := colorful.Hex(gradientStops[0])
	end, _ := colorful.Hex(gradientStops[1])

	var sb strings.Builder
	for i, r := range runes {
		t := ordered.Clamp(float64(i)/float64(len(runes)-1), 0, 1)
		c := start.BlendLuv(end, t).Hex()
		sb.WriteString(baseStyle.Foreground(lipgloss.Color(c)).Render(string(r)))
	}
	return sb.String()
}
