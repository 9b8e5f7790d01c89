package chatview

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

const defaultHistory = 500

// batchMsg carries the formatted lines of one batch pulled from the source.
type batchMsg []string

// sourceClosedMsg is sent once the source returns an empty batch.
type sourceClosedMsg struct{}

// ViewerOption configures a Viewer.
type ViewerOption func(*Viewer)

// WithTitle sets the header line.
func WithTitle(title string) ViewerOption {
	return func(v *Viewer) { v.title = title }
}

// WithHistory limits how many lines are kept on screen.
func WithHistory(n int) ViewerOption {
	return func(v *Viewer) {
		if n > 0 {
			v.history = n
		}
	}
}

// Viewer is a bubbletea model showing a live, scrolling chat for one source.
// Batches are pulled through a Reader that renders each message with Line.
// Quitting unsubscribes the source.
type Viewer struct {
	reader   *Reader
	title    string
	history  int
	lines    []string
	received int
	closed   bool

	viewport viewport.Model
	ready    bool
}

// NewViewer creates a viewer over src.
func NewViewer(src Source, opts ...ViewerOption) Viewer {
	v := Viewer{
		reader:   NewReader(src, nil, WithFormatter(Line)),
		title:    "chat",
		history:  defaultHistory,
		viewport: viewport.New(0, 0),
	}
	for _, opt := range opts {
		opt(&v)
	}
	return v
}

// Init starts listening for batches.
func (v Viewer) Init() tea.Cmd {
	return waitForBatch(v.reader)
}

// waitForBatch returns a Cmd that blocks until the next batch arrives.
func waitForBatch(r *Reader) tea.Cmd {
	return func() tea.Msg {
		lines := r.Next(context.Background())
		if lines == nil {
			return sourceClosedMsg{}
		}
		return batchMsg(lines)
	}
}

// Update handles window, keyboard and chat events.
func (v Viewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.viewport.Width = msg.Width
		v.viewport.Height = max(msg.Height-2, 1)
		v.ready = true
		v.refresh(true)

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			v.reader.Stop()
			return v, tea.Quit
		}

	case batchMsg:
		v.append(msg)
		cmds = append(cmds, waitForBatch(v.reader))

	case sourceClosedMsg:
		v.closed = true
	}

	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return v, tea.Batch(cmds...)
}

func (v *Viewer) append(lines []string) {
	follow := v.viewport.AtBottom()
	v.lines = append(v.lines, lines...)
	v.received += len(lines)
	if over := len(v.lines) - v.history; over > 0 {
		v.lines = append(v.lines[:0:0], v.lines[over:]...)
	}
	v.refresh(follow)
}

func (v *Viewer) refresh(follow bool) {
	v.viewport.SetContent(strings.Join(v.lines, "\n"))
	if follow {
		v.viewport.GotoBottom()
	}
}

// View renders the header, the chat and the footer.
func (v Viewer) View() string {
	if !v.ready {
		return "connecting..."
	}

	status := fmt.Sprintf("%d messages", v.received)
	if v.closed {
		status += " (subscription ended)"
	}
	header := titleStyle.Render(v.title) + " " + footerStyle.Render(status)
	footer := footerStyle.Render("↑/↓ scroll • q quit")

	return header + "\n" + v.viewport.View() + "\n" + footer
}

// Lines returns the rendered lines currently kept.
func (v Viewer) Lines() []string {
	return v.lines
}

// RunViewer runs a full-screen viewer until the user quits or ctx is done.
// The source is unsubscribed on return.
func RunViewer(ctx context.Context, src Source, opts ...ViewerOption) error {
	defer src.Unsubscribe()

	p := tea.NewProgram(NewViewer(src, opts...),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
