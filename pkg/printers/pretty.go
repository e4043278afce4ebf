// Package printers renders folders and recipes for the terminal.
package printers

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/mattn/go-isatty"

	"tableflip.dev/cookbook/pkg/editor"
	"tableflip.dev/cookbook/pkg/events"
	"tableflip.dev/cookbook/pkg/folder"
	"tableflip.dev/cookbook/pkg/model"
	"tableflip.dev/cookbook/pkg/scale"
)

type PrettyPrint struct {
	Out        io.Writer
	ShowID     bool
	HideImages bool
	// Separator is the decimal separator for amounts.
	Separator rune
	// Plain drops the tree glyphs; set when Out is not a terminal.
	Plain bool
}

// New returns a printer on color.Output, plain when stdout is redirected.
func New(hideImages bool, sep rune) *PrettyPrint {
	fd := os.Stdout.Fd()
	return &PrettyPrint{
		Out:        color.Output,
		HideImages: hideImages,
		Separator:  sep,
		Plain:      !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd),
	}
}

func (pp *PrettyPrint) out() io.Writer {
	if pp.Out == nil {
		return color.Output
	}
	return pp.Out
}

func (pp *PrettyPrint) sep() rune {
	if pp.Separator == 0 {
		return '.'
	}
	return pp.Separator
}

func (pp *PrettyPrint) NewLine() {
	_, _ = fmt.Fprintln(pp.out())
}

func (pp *PrettyPrint) Title(title string) {
	t := color.New(color.Bold, color.Underline)
	_, _ = t.Fprintln(pp.out(), title)
}

func (pp *PrettyPrint) TitleWithCount(title string, count int, noun string) {
	t := color.New(color.Bold, color.Underline)
	c := color.New(color.Faint)
	_, _ = t.Fprint(pp.out(), title)
	if count != 1 {
		noun += "s"
	}
	_, _ = c.Fprintf(pp.out(), " - %d %s\n", count, noun)
}

func (pp *PrettyPrint) none() {
	f := color.New(color.Faint, color.Italic)
	_, _ = f.Fprint(pp.out(), " none\n\n")
}

// Tree prints the folder tree.
func (pp *PrettyPrint) Tree(nodes []*folder.Node) {
	if len(nodes) == 0 {
		pp.none()
		return
	}
	pp.tree(nodes, "")
}

func (pp *PrettyPrint) tree(nodes []*folder.Node, prefix string) {
	y := color.New(color.FgHiYellow, color.Italic, color.Faint)
	for i, n := range nodes {
		last := i == len(nodes)-1
		branch, next := "├── ", "│   "
		if last {
			branch, next = "└── ", "    "
		}
		if pp.Plain {
			branch, next = "  ", "  "
		}
		_, _ = fmt.Fprint(pp.out(), prefix+branch+n.Folder.Name)
		if pp.ShowID {
			_, _ = y.Fprint(pp.out(), "  "+n.Folder.ID.String())
		}
		_, _ = fmt.Fprintln(pp.out())
		pp.tree(n.Children, prefix+next)
	}
}

// Grid prints the contents of one folder.
func (pp *PrettyPrint) Grid(title string, folders []model.Folder, recipes []model.Recipe) {
	pp.TitleWithCount(title, len(folders)+len(recipes), "item")
	if len(folders)+len(recipes) == 0 {
		pp.none()
		return
	}
	faint := color.New(color.Faint)
	tbl := uitable.New()
	tbl.Separator = "  "
	for _, f := range folders {
		row := []any{"▸", color.New(color.Bold).Sprint(f.Name)}
		if !pp.HideImages && f.Cover != nil {
			row = append(row, faint.Sprint("cover"))
		} else {
			row = append(row, "")
		}
		if pp.ShowID {
			row = append(row, faint.Sprint(f.ID.String()))
		}
		tbl.AddRow(row...)
	}
	for _, r := range recipes {
		row := []any{"•", r.Name, pp.images(len(r.Images))}
		if pp.ShowID {
			row = append(row, faint.Sprint(r.ID.String()))
		}
		tbl.AddRow(row...)
	}
	_, _ = fmt.Fprintln(pp.out(), tbl)
	pp.NewLine()
}

func (pp *PrettyPrint) images(n int) string {
	if pp.HideImages || n == 0 {
		return ""
	}
	if n == 1 {
		return color.New(color.Faint).Sprint("1 photo")
	}
	return color.New(color.Faint).Sprintf("%d photos", n)
}

// Recipe prints m with its ingredient amounts multiplied by factor. Stored
// amounts are never changed.
func (pp *PrettyPrint) Recipe(m model.Recipe, factor float64) error {
	sections, err := scale.Recompute(m.IngredientSections, scale.Default, factor)
	if err != nil {
		return err
	}
	w := pp.out()
	bold := color.New(color.Bold)
	faint := color.New(color.Faint)

	pp.Title(m.Name)
	if photos := pp.images(len(m.Images)); photos != "" {
		_, _ = fmt.Fprintln(w, photos)
	}
	if factor != scale.Default {
		_, _ = faint.Fprintf(w, "scaled ×%s\n", editor.FormatAmount(factor, pp.sep()))
	}
	pp.NewLine()

	for _, a := range m.AboutSections {
		_, _ = bold.Fprintln(w, a.Name)
		_, _ = fmt.Fprintln(w, a.Description)
		pp.NewLine()
	}

	if len(sections) > 0 {
		_, _ = bold.Fprintln(w, "Ingredients")
	}
	for _, s := range sections {
		if s.Name != "" {
			_, _ = color.New(color.Underline).Fprintln(w, s.Name)
		}
		tbl := uitable.New()
		tbl.Separator = "  "
		for _, ing := range s.Ingredients {
			mark := "[ ]"
			if ing.Complete {
				mark = "[x]"
			}
			tbl.AddRow(mark, editor.FormatAmount(ing.Amount, pp.sep()), ing.Unit, ing.Name)
		}
		tbl.RightAlign(1)
		_, _ = fmt.Fprintln(w, tbl)
		pp.NewLine()
	}

	if len(m.StepSections) > 0 {
		_, _ = bold.Fprintln(w, "Steps")
	}
	for _, s := range m.StepSections {
		if s.Name != "" {
			_, _ = color.New(color.Underline).Fprintln(w, s.Name)
		}
		for i, st := range s.Steps {
			line := fmt.Sprintf("%2d. %s", i+1, strings.TrimSpace(st.Description))
			if photos := pp.images(len(st.Images)); photos != "" {
				line += "  " + photos
			}
			_, _ = fmt.Fprintln(w, line)
		}
		pp.NewLine()
	}
	return nil
}

// Event prints one engine or watch event.
func (pp *PrettyPrint) Event(msg events.Msg) {
	c := color.New(color.FgCyan)
	switch msg.(type) {
	case events.PersistFailedMsg:
		c = color.New(color.FgRed)
	case events.ExternalChangeMsg:
		c = color.New(color.FgYellow)
	}
	_, _ = c.Fprintf(pp.out(), "%T ", msg)
	_, _ = fmt.Fprintln(pp.out(), msg.Describe())
}
