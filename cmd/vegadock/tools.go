package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/everydev1618/vegadock/tools"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	moduleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	nameStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	paramStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	cellStyle   = lipgloss.NewStyle().PaddingRight(2)
)

// NewToolsCmd creates the command that lists registered tools.
func NewToolsCmd(app *App) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List registered tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := app.setup(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rt.tools.Schema())
			}
			if isTerminal(out) {
				fmt.Fprintln(out, renderToolsStyled(rt.tools.List()))
				return nil
			}
			return renderToolsPlain(out, rt.tools.List())
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print tool schemas as JSON")
	return cmd
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// paramSummary lists parameter names, required ones marked with "*".
func paramSummary(params map[string]tools.ParamDef) string {
	names := make([]string, 0, len(params))
	for name, p := range params {
		if p.Required {
			name += "*"
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func renderToolsPlain(w io.Writer, list []tools.Info) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MODULE\tTOOL\tPARAMS\tDESCRIPTION")
	for _, info := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", info.Module, info.Name, paramSummary(info.Params), info.Description)
	}
	return tw.Flush()
}

func renderToolsStyled(list []tools.Info) string {
	header := []string{"MODULE", "TOOL", "PARAMS", "DESCRIPTION"}
	rows := make([][]string, 0, len(list))
	for _, info := range list {
		rows = append(rows, []string{info.Module, info.Name, paramSummary(info.Params), info.Description})
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	styles := []lipgloss.Style{moduleStyle, nameStyle, paramStyle, lipgloss.NewStyle()}
	line := func(cells []string, style func(i int) lipgloss.Style) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = cellStyle.Width(widths[i] + 2).Render(style(i).Render(cell))
		}
		return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	}

	lines := []string{line(header, func(int) lipgloss.Style { return headerStyle })}
	for _, row := range rows {
		lines = append(lines, line(row, func(i int) lipgloss.Style { return styles[i] }))
	}
	lines = append(lines, moduleStyle.Render(fmt.Sprintf("%d tools", len(rows))))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
