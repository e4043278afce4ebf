package options

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// FolderOptions selects a folder by id or by path.
type FolderOptions struct {
	Folder string
}

func AddFolderArg(cmd *cobra.Command, o *FolderOptions) {
	cmd.Flags().StringVarP(&o.Folder, "folder", "f", "",
		`Folder id or path, example: --folder="Desserts/Cakes". Defaults to the library root.`)
}

// ConfirmOptions
type ConfirmOptions struct {
	Yes bool
}

func AddConfirmArg(cmd *cobra.Command, o *ConfirmOptions) {
	cmd.Flags().BoolVarP(&o.Yes, "yes", "y", false,
		"Delete without asking.")
}

// Confirm returns the prompt used before destructive changes. Without a
// terminal on stdin and without --yes, nothing is confirmed.
func (o *ConfirmOptions) Confirm() func(string) bool {
	if o.Yes {
		return func(string) bool { return true }
	}
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return func(string) bool { return false }
	}
	return Prompt(os.Stdin, color.Output)
}

// Prompt asks a yes/no question on out and reads the answer from in.
func Prompt(in io.Reader, out io.Writer) func(string) bool {
	r := bufio.NewReader(in)
	return func(q string) bool {
		_, _ = fmt.Fprintf(out, "%s [y/N] ", q)
		line, err := r.ReadString('\n')
		if err != nil && line == "" {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	}
}

// ScaleOptions
type ScaleOptions struct {
	Scale float64
}

func AddScaleArg(cmd *cobra.Command, o *ScaleOptions) {
	cmd.Flags().Float64VarP(&o.Scale, "scale", "s", 1,
		"Serving scale, between 0.25 and 10.")
}
