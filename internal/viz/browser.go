package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/nucleosynth/internal/plot"
	"github.com/san-kum/nucleosynth/internal/table"
	"github.com/san-kum/nucleosynth/internal/tracer"
)

// page is one browsable table: a thermo table or a composition table.
type page struct {
	name     string
	scaleKey string // empty: each column is its own scale key
	table    *table.Table
	columns  []string
}

// Browser is a Bubble Tea model that plots one column of a tracer at a time.
type Browser struct {
	title   string
	plotter *plot.Plotter
	pages   []page
	page    int
	column  int
	theme   Theme
}

func NewBrowser(tr *tracer.Tracer, plotter *plot.Plotter, theme Theme) *Browser {
	b := &Browser{title: tr.Title(), plotter: plotter, theme: theme}
	for _, kind := range tr.Kinds() {
		b.addPage(string(kind), "", tr.Table(kind))
	}
	for _, kind := range table.CompKinds {
		if comp := tr.Composition(kind); comp != nil {
			b.addPage(string(kind), string(kind), comp)
		}
	}
	return b
}

func (b *Browser) addPage(name, scaleKey string, t *table.Table) {
	var cols []string
	for _, c := range t.Names() {
		if c != table.Time {
			cols = append(cols, c)
		}
	}
	if len(cols) == 0 {
		return
	}
	b.pages = append(b.pages, page{name: name, scaleKey: scaleKey, table: t, columns: cols})
}

// Selected returns the current table and column names.
func (b *Browser) Selected() (string, string) {
	if len(b.pages) == 0 {
		return "", ""
	}
	p := b.pages[b.page]
	return p.name, p.columns[b.column]
}

func (b *Browser) Init() tea.Cmd { return nil }

func (b *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return b, tea.Quit
		case "right", "l":
			b.move(1)
		case "left", "h":
			b.move(-1)
		case "tab":
			if len(b.pages) > 0 {
				b.page = (b.page + 1) % len(b.pages)
				b.column = 0
			}
		case "shift+tab":
			if len(b.pages) > 0 {
				b.page = (b.page + len(b.pages) - 1) % len(b.pages)
				b.column = 0
			}
		case "t":
			b.theme = b.theme.Next()
		}
	}
	return b, nil
}

func (b *Browser) move(d int) {
	if len(b.pages) == 0 {
		return
	}
	n := len(b.pages[b.page].columns)
	b.column = (b.column + d + n) % n
}

func (b *Browser) View() string {
	st := b.theme.styles()
	var s strings.Builder
	s.WriteString(st.title.Render(b.title))
	s.WriteString("\n")

	if len(b.pages) == 0 {
		s.WriteString(st.warn.Render("no tables to show"))
		s.WriteString("\n" + st.hint.Render("q quit"))
		return s.String()
	}

	tabs := make([]string, len(b.pages))
	for i, p := range b.pages {
		if i == b.page {
			tabs[i] = st.ok.Render("[" + p.name + "]")
		} else {
			tabs[i] = st.subtle.Render(" " + p.name + " ")
		}
	}
	s.WriteString(strings.Join(tabs, " "))
	s.WriteString("\n")

	p := b.pages[b.page]
	column := p.columns[b.column]
	s.WriteString(st.label.Render(fmt.Sprintf("column %d/%d: ", b.column+1, len(p.columns))))
	s.WriteString(st.value.Render(column))
	s.WriteString("\n\n")

	scaleKey := p.scaleKey
	if scaleKey == "" {
		scaleKey = column
	}
	chart, err := b.plotter.Column(p.table, column, scaleKey, "")
	if err != nil {
		s.WriteString(st.warn.Render(err.Error()))
	} else {
		s.WriteString(chart)
	}

	s.WriteString("\n\n")
	s.WriteString(st.hint.Render("←/→ column  tab table  t theme (" + b.theme.Name + ")  q quit"))
	return s.String()
}
