package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nconklindev/freightmap/internal/converter"
	"github.com/nconklindev/freightmap/internal/mapping"
	"github.com/nconklindev/freightmap/internal/types"
	"github.com/nconklindev/freightmap/internal/workbook"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/sirupsen/logrus"
)

// previewRows caps the processed rows shown once a conversion completes.
const previewRows = 5

type state int

const (
	stateFilePicker state = iota
	stateMapping
	stateProcessing
	stateComplete
	stateError
)

type Model struct {
	state        state
	filepicker   filepicker.Model
	processor    *converter.Processor
	logger       logrus.FieldLogger
	selectedFile string
	outputFile   string
	source       *types.Table
	schema       *types.Schema
	offered      []string
	choices      []int
	cursor       int
	result       *types.ConversionResult
	preview      *types.Table
	err          error
	width        int
	height       int
	progress     progress.Model
	progressChan chan float64
	resultChan   chan conversionResultMsg
}

type conversionResultMsg struct {
	result  *types.ConversionResult
	preview *types.Table
	err     error
}

type fileLoadedMsg struct {
	source *types.Table
	schema *types.Schema
	err    error
}

type conversionCompleteMsg struct {
	result  *types.ConversionResult
	preview *types.Table
	err     error
}

type progressMsg float64

type waitForProgressMsg struct{}

// InitialModel starts at the file picker. outputFile overrides the default
// of writing processed_data.xlsx next to the input.
func InitialModel(processor *converter.Processor, outputFile string, logger logrus.FieldLogger) Model {
	fp := filepicker.New()
	fp.AllowedTypes = workbook.SupportedExtensions
	fp.CurrentDirectory, _ = os.Getwd()

	// Set filepicker colors to match theme
	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(lipgloss.Color("#2BB3A3"))
	fp.Styles.Symlink = lipgloss.NewStyle().Foreground(lipgloss.Color("#7FD8BE"))
	fp.Styles.Directory = lipgloss.NewStyle().Foreground(lipgloss.Color("#7FD8BE"))
	fp.Styles.File = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	fp.Styles.Permission = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(lipgloss.Color("#2BB3A3")).Bold(true)
	fp.Styles.FileSize = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	prog := progress.New(progress.WithGradient("#2BB3A3", "#7FD8BE"))

	return Model{
		state:      stateFilePicker,
		filepicker: fp,
		processor:  processor,
		logger:     logger,
		outputFile: outputFile,
		progress:   prog,
	}
}

func (m Model) Init() tea.Cmd {
	return m.filepicker.Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Leave room for title, subtitle, help text and padding
		height := msg.Height - 14
		if height < 5 {
			height = 5
		}
		m.filepicker.SetHeight(height)

		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case stateFilePicker:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			}

		case stateMapping:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "up", "k":
				if m.cursor > 0 {
					m.cursor--
				}
			case "down", "j":
				if m.cursor < len(mapping.KnownFields)-1 {
					m.cursor++
				}
			case "right", "l", " ":
				m.cycle(1)
			case "left", "h":
				m.cycle(-1)
			case "r":
				m.resetChoices()
			case "enter":
				m.state = stateProcessing
				return m.convertFile()
			}

		case stateComplete, stateError:
			switch msg.String() {
			case "ctrl+c", "q", "enter", "esc":
				return m, tea.Quit
			}
		}

	case fileLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.source = msg.source
		m.schema = msg.schema
		m.offered = mapping.Options(m.processor.Direction, m.source.Columns, m.schema.Columns)
		m.resetChoices()
		m.state = stateMapping
		return m, nil

	case conversionCompleteMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.result = msg.result
		m.preview = msg.preview
		m.state = stateComplete
		return m, nil

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case progressMsg:
		if m.state == stateProcessing {
			cmd := m.progress.SetPercent(float64(msg))
			return m, tea.Batch(cmd, waitForProgress(m.progressChan, m.resultChan))
		}
		return m, nil

	case waitForProgressMsg:
		return m, waitForProgress(m.progressChan, m.resultChan)
	}

	if m.state == stateFilePicker {
		var cmd tea.Cmd
		m.filepicker, cmd = m.filepicker.Update(msg)

		if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
			m.selectedFile = path
			return m, m.loadFile(path)
		}

		return m, cmd
	}

	return m, nil
}

// resetChoices selects the default column for every known field.
func (m *Model) resetChoices() {
	built := mapping.Build(m.processor.Direction, m.source.Columns, m.schema.Columns, nil)
	m.choices = make([]int, len(built.Choices))
	for i, c := range built.Choices {
		m.choices[i] = indexOf(m.offered, c.Column)
	}
}

func (m *Model) cycle(step int) {
	n := len(m.offered)
	if n == 0 {
		return
	}
	m.choices[m.cursor] = ((m.choices[m.cursor]+step)%n + n) % n
}

// selections returns the current choices keyed by field key.
func (m Model) selections() map[string]string {
	sel := make(map[string]string, len(m.choices))
	for i, f := range mapping.KnownFields {
		if i < len(m.choices) && m.choices[i] >= 0 {
			sel[f.Key] = m.offered[m.choices[i]]
		}
	}
	return sel
}

func (m Model) loadFile(path string) tea.Cmd {
	processor := m.processor
	return func() tea.Msg {
		src, err := workbook.LoadSourceFile(path)
		if err != nil {
			return fileLoadedMsg{err: err}
		}
		schema, err := processor.Schema()
		return fileLoadedMsg{source: src, schema: schema, err: err}
	}
}

func (m Model) outputPath() string {
	if m.outputFile != "" {
		return m.outputFile
	}
	return filepath.Join(filepath.Dir(m.selectedFile), workbook.OutputFileName)
}

func (m Model) convertFile() (Model, tea.Cmd) {
	m.progressChan = make(chan float64, 100)
	m.resultChan = make(chan conversionResultMsg, 1)

	cmd := tea.Batch(
		func() tea.Msg {
			// Capture everything the goroutine needs
			progressChan := m.progressChan
			resultChan := m.resultChan
			selectedFile := m.selectedFile
			outputFile := m.outputPath()
			selections := m.selections()
			processor := m.processor
			logger := m.logger

			go func() {
				result, preview, err := runConversion(processor, selectedFile, outputFile, selections, progressChan)
				if err != nil {
					logger.WithError(err).WithField("file", selectedFile).Error("conversion failed")
				}

				resultChan <- conversionResultMsg{result: result, preview: preview, err: err}

				close(progressChan)
				close(resultChan)
			}()

			return waitForProgressMsg{}
		},
		waitForProgress(m.progressChan, m.resultChan),
		m.progress.Init(),
	)

	return m, cmd
}

// runConversion writes the processed workbook to outputFile and returns the
// result with the first previewRows rows of the output table.
func runConversion(processor *converter.Processor, inputFile, outputFile string, selections map[string]string, progressChan chan<- float64) (*types.ConversionResult, *types.Table, error) {
	f, err := os.Open(inputFile)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}

	out, err := processor.Process(context.Background(), converter.Request{
		Name:       filepath.Base(inputFile),
		Source:     f,
		Size:       info.Size(),
		Selections: selections,
		Progress:   progressChan,
	})
	if err != nil {
		return nil, nil, err
	}

	if err := os.WriteFile(outputFile, out.Data, 0o644); err != nil {
		return nil, nil, err
	}

	out.Result.InputFile = inputFile
	out.Result.OutputFile = outputFile
	return out.Result, out.Table.Head(previewRows), nil
}

func waitForProgress(progressChan chan float64, resultChan chan conversionResultMsg) tea.Cmd {
	return func() tea.Msg {
		if progressChan == nil {
			return nil
		}

		p, ok := <-progressChan
		if !ok {
			res, ok := <-resultChan
			if ok {
				return conversionCompleteMsg(res)
			}
			return nil
		}

		return progressMsg(p)
	}
}

func (m Model) View() string {
	switch m.state {
	case stateFilePicker:
		return m.viewFilePicker()
	case stateMapping:
		return m.viewMapping()
	case stateProcessing:
		return m.viewProcessing()
	case stateComplete:
		return m.viewComplete()
	case stateError:
		return m.viewError()
	}
	return ""
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("🚚 Freight Data Processor"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render("Select the client workbook (.xls, .xlsx or .csv)"))
	s.WriteString("\n\n")
	s.WriteString(m.filepicker.View())
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("Press q to quit"))

	return s.String()
}

func (m Model) viewMapping() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("🚚 Select the corresponding columns for mapping"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render(fmt.Sprintf("File: %s • %d rows • choosing %s columns",
		filepath.Base(m.selectedFile), len(m.source.Rows), m.processor.Direction)))
	s.WriteString("\n\n")

	if len(m.offered) == 0 {
		s.WriteString(ErrorStyle.Render("No columns to choose from; nothing will be mapped."))
		s.WriteString("\n\n")
	}

	width := 0
	for _, f := range mapping.KnownFields {
		if len(f.Key) > width {
			width = len(f.Key)
		}
	}

	for i, f := range mapping.KnownFields {
		cursor := " "
		if m.cursor == i {
			cursor = ">"
		}

		choice := "(none)"
		if i < len(m.choices) && m.choices[i] >= 0 {
			choice = m.offered[m.choices[i]]
		}

		line := fmt.Sprintf("%s %-*s  ◀ %s ▶", cursor, width, f.Key, choice)
		switch {
		case m.cursor == i:
			line = SelectedStyle.Render(line)
		case choice == mapping.DefaultChoice(m.processor.Direction, f, m.offered):
			line = UnselectedStyle.Render(line)
		default:
			line = ChangedStyle.Render(line + " (changed)")
		}

		s.WriteString(line)
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(fmt.Sprintf("Output: %s\n", m.outputPath()))
	s.WriteString(HelpStyle.Render("↑/↓: navigate • ←/→: change column • r: reset defaults • enter: process • q: quit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewProcessing() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("🚚 Processing files..."))
	s.WriteString("\n\n")
	s.WriteString(m.progress.View())

	return BoxStyle.Render(s.String())
}

func (m Model) viewComplete() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("✓ Processed Data"))
	s.WriteString("\n\n")

	// Truncate paths if they're too long
	maxPathLen := m.width - 20
	if maxPathLen < 30 {
		maxPathLen = 30
	}

	s.WriteString(fmt.Sprintf("Input:  %s\n", truncatePath(m.result.InputFile, maxPathLen)))
	s.WriteString(SuccessStyle.Render(fmt.Sprintf("Output: %s\n", truncatePath(m.result.OutputFile, maxPathLen))))
	s.WriteString("\n")
	mapped := "none"
	if len(m.result.ColumnsMapped) > 0 {
		mapped = strings.Join(m.result.ColumnsMapped, ", ")
	}
	s.WriteString(fmt.Sprintf("Columns mapped: %s\n", mapped))
	s.WriteString(fmt.Sprintf("Rows written: %d\n", m.result.RowsProcessed))

	if m.preview != nil && len(m.preview.Rows) > 0 {
		s.WriteString("\n")
		s.WriteString(SubtitleStyle.Render(fmt.Sprintf("Processed Data: first %d of %d rows",
			len(m.preview.Rows), m.result.RowsProcessed)))
		s.WriteString("\n")
		s.WriteString(m.previewTable())
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("Press enter or q to exit"))

	return BoxStyle.Render(s.String())
}

func (m Model) previewTable() string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(PreviewBorderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return PreviewHeaderStyle
			}
			return PreviewCellStyle
		}).
		Headers(m.preview.Columns...).
		Rows(m.preview.Strings()...)
	// Leave room for the box border and padding.
	if m.width > 8 {
		t = t.Width(m.width - 8)
	}
	return t.String()
}

func (m Model) viewError() string {
	var s strings.Builder

	s.WriteString(ErrorStyle.Render("✗ Error"))
	s.WriteString("\n\n")
	s.WriteString(m.err.Error())
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("Press enter or q to exit"))

	return BoxStyle.Render(s.String())
}

func truncatePath(path string, max int) string {
	if len(path) > max {
		return "..." + path[len(path)-max+3:]
	}
	return path
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
