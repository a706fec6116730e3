package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme holds the semantic colour palette for the dashboard.
type Theme struct {
	Base    lipgloss.Color
	Border  lipgloss.Color
	Muted   lipgloss.Color
	Text    lipgloss.Color
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color
}

var theme = Theme{
	Base:    lipgloss.Color("#201F26"),
	Border:  lipgloss.Color("#4D4C57"),
	Muted:   lipgloss.Color("#858392"),
	Text:    lipgloss.Color("#DFDBDD"),
	Primary: lipgloss.Color("#6B50FF"),
	Accent:  lipgloss.Color("#FF60FF"),
	Success: lipgloss.Color("#00FFB2"),
	Warning: lipgloss.Color("#FFD300"),
	Error:   lipgloss.Color("#E94090"),
	Info:    lipgloss.Color("#00CED1"),
}

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1)
	titleStyle     = lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(theme.Muted)
	labelStyle     = lipgloss.NewStyle().Foreground(theme.Info)
	valueStyle     = lipgloss.NewStyle().Foreground(theme.Warning)
	activeTabStyle = lipgloss.NewStyle().Foreground(theme.Base).Background(theme.Primary).Bold(true).Padding(0, 1)
	tabStyle       = lipgloss.NewStyle().Foreground(theme.Muted).Padding(0, 1)
	errorStyle     = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(theme.Error).
			Foreground(theme.Error).
			Padding(1, 2)
)

// signStyle colours a change green when non-negative and red otherwise
func signStyle(v float64) lipgloss.Style {
	if v >= 0 {
		return lipgloss.NewStyle().Foreground(theme.Success).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(theme.Error).Bold(true)
}

// gradientText applies a horizontal colour gradient across each line of text.
func gradientText(text string, from, to lipgloss.Color) string {
	fr, fg, fb := hexToRGB(string(from))
	tr, tg, tb := hexToRGB(string(to))

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		runes := []rune(line)
		n := len(runes)
		if n == 0 {
			out = append(out, "")
			continue
		}
		var sb strings.Builder
		for i, r := range runes {
			t := 0.0
			if n > 1 {
				t = float64(i) / float64(n-1)
			}
			cr := uint8(math.Round(float64(fr) + t*float64(int(tr)-int(fr))))
			cg := uint8(math.Round(float64(fg) + t*float64(int(tg)-int(fg))))
			cb := uint8(math.Round(float64(fb) + t*float64(int(tb)-int(fb))))
			c := lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", cr, cg, cb))
			sb.WriteString(lipgloss.NewStyle().Foreground(c).Render(string(r)))
		}
		out = append(out, sb.String())
	}
	return strings.Join(out, "\n")
}

func hexToRGB(hex string) (uint8, uint8, uint8) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 0, 0, 0
	}
	var r, g, b uint8
	fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b)
	return r, g, b
}
