package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/forest-guardian/ndvi-dashboard/internal/dashboard"
)

type menuOption struct {
	title   string
	handler func()
}

// Menu is the interactive terminal front end over a loaded dashboard.
type Menu struct {
	dashboard *dashboard.Dashboard
	session   *dashboard.Session
	outputDir string
	serve     func() error

	in  *bufio.Reader
	out io.Writer

	done bool
}

// New builds a menu reading stdin. serve starts the web dashboard and may be
// nil when hosting is unavailable.
func New(d *dashboard.Dashboard, outputDir string, serve func() error) *Menu {
	m := &Menu{
		dashboard: d,
		session:   dashboard.NewSession(d),
		outputDir: outputDir,
		serve:     serve,
		in:        bufio.NewReader(os.Stdin),
		out:       os.Stdout,
	}
	m.session.OnSelect(m.onSelect)
	return m
}

// WithIO replaces stdin/stdout, mostly for tests.
func (m *Menu) WithIO(in io.Reader, out io.Writer) *Menu {
	m.in = newReader(in)
	m.out = out
	return m
}

// Session is the selection driven by this menu.
func (m *Menu) Session() *dashboard.Session {
	return m.session
}

func (m *Menu) options() []menuOption {
	return []menuOption{
		{"Show raster summary", m.ShowSummary},
		{"List sample points", m.ListPoints},
		{"Select a sample point", m.SelectPoint},
		{"Export charts and overlay", m.Export},
		{"Start the web dashboard", m.Serve},
		{"Exit the application", func() { fmt.Fprintln(m.out, "Exiting..."); m.done = true }},
	}
}

// Run displays the main menu until the user exits or input ends.
func (m *Menu) Run() {
	menuOptions := m.options()

	for !m.done {
		blue.Fprintln(m.out, "===================")
		for i, opt := range menuOptions {
			blue.Fprintf(m.out, "%d. %s\n", i+1, opt.title)
		}

		choice, err := m.ReadInt("Please enter your choice: ", 1, len(menuOptions))
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			m.PrintError(err.Error())
			continue
		}

		menuOptions[choice-1].handler()
	}
}

func (m *Menu) Serve() {
	if m.serve == nil {
		m.PrintError("web dashboard is not configured")
		return
	}
	if err := m.serve(); err != nil {
		m.PrintError(fmt.Sprintf("web dashboard stopped: %s", err.Error()))
	}
}
