package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kerbaras/mdex/pkg/services"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true)
	textStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	defaultWide = 60
)

type progressMsg services.DownloadProgress

type doneMsg struct{}

// DownloadModel renders batch download progress fed from the downloader's
// progress channel.
type DownloadModel struct {
	mangaName string
	ch        <-chan services.DownloadProgress
	bar       progress.Model
	current   services.DownloadProgress
	completed []string
	width     int
	done      bool
}

func NewDownloadModel(mangaName string, ch <-chan services.DownloadProgress) DownloadModel {
	return DownloadModel{
		mangaName: mangaName,
		ch:        ch,
		bar:       progress.New(progress.WithDefaultGradient()),
		width:     defaultWide,
	}
}

func waitForProgress(ch <-chan services.DownloadProgress) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return doneMsg{}
		}
		return progressMsg(p)
	}
}

func (m DownloadModel) Init() tea.Cmd {
	return waitForProgress(m.ch)
}

func (m DownloadModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = msg.Width - 8
		return m, nil

	case progressMsg:
		m.current = services.DownloadProgress(msg)
		if m.current.Status == "complete" {
			if n := len(m.completed); n == 0 || m.completed[n-1] != m.current.ChapterNumber {
				m.completed = append(m.completed, m.current.ChapterNumber)
			}
		}
		return m, waitForProgress(m.ch)

	case doneMsg:
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m DownloadModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.mangaName))
	b.WriteString("\n\n")

	p := m.current
	if p.Error != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Chapter %s failed: %v", p.ChapterNumber, p.Error)))
		b.WriteString("\n")
		return b.String()
	}

	if m.done {
		b.WriteString(doneStyle.Render(fmt.Sprintf("Downloaded %d chapters", len(m.completed))))
		b.WriteString("\n")
		return b.String()
	}

	chapterText := fmt.Sprintf("Chapter %s", p.ChapterNumber)
	if p.ChapterTitle != "" {
		chapterText = fmt.Sprintf("%s: %q", chapterText, p.ChapterTitle)
	}
	if p.TotalChapters > 0 {
		chapterText = fmt.Sprintf("%s (%d of %d)", chapterText, p.ChapterIndex+1, p.TotalChapters)
	}
	b.WriteString(textStyle.Render(chapterText))
	b.WriteString("\n")

	if p.TotalPages > 0 {
		b.WriteString(m.bar.ViewAs(float64(p.CurrentPage) / float64(p.TotalPages)))
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(fmt.Sprintf("%d/%d pages", p.CurrentPage, p.TotalPages)))
		b.WriteString("\n")
	} else {
		b.WriteString(mutedStyle.Render("resolving pages..."))
		b.WriteString("\n")
	}

	return b.String()
}

// RunDownloadProgress runs the progress display until the channel closes.
func RunDownloadProgress(mangaName string, ch <-chan services.DownloadProgress) error {
	p := tea.NewProgram(NewDownloadModel(mangaName, ch))
	_, err := p.Run()
	return err
}
