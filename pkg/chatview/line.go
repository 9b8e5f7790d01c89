package chatview

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dmitrymomot/chatrelay/core/chat"
)

var (
	colorMuted  = lipgloss.Color("#6B7280")
	colorMod    = lipgloss.Color("#16A34A")
	colorHost   = lipgloss.Color("#DC2626")
	colorMember = lipgloss.Color("#D97706")
	colorTitle  = lipgloss.Color("#7C3AED")

	sourceStyle = lipgloss.NewStyle().Foreground(colorMuted)
	textStyle   = lipgloss.NewStyle()
	badgeStyle  = lipgloss.NewStyle().Bold(true)
	titleStyle  = lipgloss.NewStyle().Foreground(colorTitle).Bold(true)
	footerStyle = lipgloss.NewStyle().Foreground(colorMuted)
)

// Line renders a message as a single styled terminal line:
//
//	[twitch/mychan] MOD alice: hello
func Line(m chat.Message) string {
	var b strings.Builder

	b.WriteString(sourceStyle.Render("[" + source(m) + "]"))
	b.WriteByte(' ')

	if m.IsBroadcaster {
		b.WriteString(badgeStyle.Foreground(colorHost).Render("HOST"))
		b.WriteByte(' ')
	}
	if m.IsMod {
		b.WriteString(badgeStyle.Foreground(colorMod).Render("MOD"))
		b.WriteByte(' ')
	}
	if m.IsPaidMember {
		b.WriteString(badgeStyle.Foreground(colorMember).Render("MEMBER"))
		b.WriteByte(' ')
	}

	user := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(UserColor(m)))
	b.WriteString(user.Render(Normalize(m.UserName)))
	b.WriteString(": ")
	b.WriteString(textStyle.Render(Normalize(m.Text)))

	return b.String()
}

func source(m chat.Message) string {
	provider := m.ProviderName
	if provider == "" {
		provider = m.ProviderID
	}
	channel := m.ChannelName
	if channel == "" {
		channel = m.ChannelID
	}
	return Normalize(provider + "/" + channel)
}
