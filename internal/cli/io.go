package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/piwi3910/coursefactory/internal/composer"
	"github.com/piwi3910/coursefactory/internal/export"
	"github.com/piwi3910/coursefactory/internal/importer"
	"github.com/piwi3910/coursefactory/internal/project"
)

// importCommand reads an activity outline from CSV or Excel into a module.
func (c *CLI) importCommand() *cobra.Command {
	var appendBlocks bool

	cmd := &cobra.Command{
		Use:   "import [outline.csv|outline.xlsx] [module.json]",
		Short: "Import activity blocks from a CSV or Excel outline",
		Long: `Import activity blocks from a CSV or Excel outline.

The outline has one block per row with the columns type, title, span, row and
col. A header row is detected by name; without one the columns are read in
that order. The module is created with the config defaults if it does not
exist. Existing blocks are replaced unless --append is given.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runImport(args[0], args[1], appendBlocks)
		},
	}

	cmd.Flags().BoolVarP(&appendBlocks, "append", "a", false, "append to the existing blocks")

	return cmd
}

func (c *CLI) runImport(outline, path string, appendBlocks bool) error {
	result := importer.ImportFile(outline)
	for _, w := range result.Warnings {
		c.Logger.Warn(w, "file", outline)
	}
	for _, e := range result.Errors {
		c.Logger.Error(e, "file", outline)
	}
	if len(result.Activities) == 0 {
		return fmt.Errorf("import %s: no activities imported", outline)
	}

	m, err := project.LoadOrCreateModule(path, c.Config)
	if err != nil {
		return fmt.Errorf("open module %s: %w", path, err)
	}
	view, tab, err := c.tabView(m)
	if err != nil {
		return err
	}
	if !appendBlocks {
		view.Activities = nil
	}

	comp := composer.New(composer.StateFromModule(view), composer.WithLogger(c.Logger), composer.WithConfig(c.Config))
	for _, a := range result.Activities {
		comp.AddActivity(a)
	}

	if err := project.SaveModule(path, mergeTab(m, tab, comp.State().ToModule(m.Name))); err != nil {
		return fmt.Errorf("save module %s: %w", path, err)
	}
	c.Logger.Info("Imported outline", "file", outline, "module", path, "blocks", len(result.Activities), "errors", len(result.Errors))
	return nil
}

// Export formats.
const (
	FormatPDF   = "pdf"
	FormatCards = "cards"
)

func (c *CLI) exportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export [pdf|cards] [module.json]",
		Short: "Export a layout sheet or storyboard cards as PDF",
		Long: `Export a module for review.

  pdf    layout sheet: a wireframe of the page and a block inventory
  cards  storyboard cards: one card per block with a QR code`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(args[0], args[1], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <module>.<format>.pdf)")

	return cmd
}

func (c *CLI) runExport(format, path, output string) error {
	format = strings.ToLower(format)
	if format != FormatPDF && format != FormatCards {
		return fmt.Errorf("unknown export format %q", format)
	}

	m, err := project.LoadModule(path)
	if err != nil {
		return fmt.Errorf("load module %s: %w", path, err)
	}
	m, _, err = c.tabView(m)
	if err != nil {
		return err
	}

	if output == "" {
		base := strings.TrimSuffix(path, filepath.Ext(path))
		suffix := ".layout.pdf"
		if format == FormatCards {
			suffix = ".cards.pdf"
		}
		output = base + suffix
	}

	p := newProgress(c.Logger)
	switch format {
	case FormatPDF:
		err = export.ExportLayoutPDF(output, m)
	case FormatCards:
		err = export.ExportCards(output, m)
	}
	if errors.Is(err, export.ErrNoActivities) {
		return fmt.Errorf("export %s: %w", path, err)
	}
	if err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}
	p.done("Exported "+format, "output", output)
	return nil
}
