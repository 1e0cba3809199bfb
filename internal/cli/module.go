package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/piwi3910/coursefactory/internal/composer"
	"github.com/piwi3910/coursefactory/internal/engine"
	"github.com/piwi3910/coursefactory/internal/model"
	"github.com/piwi3910/coursefactory/internal/project"
)

// newCommand creates a module document from the config defaults or a
// saved template.
func (c *CLI) newCommand() *cobra.Command {
	var (
		template string
		mode     string
		columns  int
	)

	cmd := &cobra.Command{
		Use:   "new [module.json]",
		Short: "Create a module document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runNew(args[0], template, mode, columns)
		},
	}

	cmd.Flags().StringVarP(&template, "template", "t", "", "start from a saved template")
	cmd.Flags().StringVar(&mode, "mode", "", "layout mode: simple, canvas (default from config)")
	cmd.Flags().IntVar(&columns, "columns", 0, "column count (default from config)")

	return cmd
}

func (c *CLI) runNew(path, template, mode string, columns int) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("module %s already exists", path)
	}

	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	m := model.NewModule()
	m.Name = name
	c.Config.ApplyToLayout(&m.ComposerLayout)
	m.ComposerExtraRows = c.Config.DefaultExtraRows

	if template != "" {
		store, err := project.LoadTemplates(c.templatesPath())
		if err != nil {
			return fmt.Errorf("load templates: %w", err)
		}
		t := store.FindByName(template)
		if t == nil {
			return fmt.Errorf("no template named %q", template)
		}
		m = t.ToModule(name)
		m.ComposerExtraRows = c.Config.DefaultExtraRows
	}
	if mode != "" {
		m.ComposerLayout.Mode = model.LayoutMode(mode)
	}
	if columns > 0 {
		m.ComposerLayout.MaxColumns = columns
	}

	m = project.NormalizeModule(m)
	if err := project.SaveModule(path, m); err != nil {
		return fmt.Errorf("save module %s: %w", path, err)
	}
	c.Logger.Info("Created module", "module", path, "mode", m.ComposerLayout.Mode, "columns", m.ComposerLayout.MaxColumns, "blocks", len(m.Activities))

	c.Config.AddRecent(path, recentLimit)
	if err := project.SaveAppConfig(c.ConfigPath, c.Config); err != nil {
		c.Logger.Warn("Could not update recent modules", "err", err)
	}
	return nil
}

func (c *CLI) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [module.json]",
		Short: "Print the module layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := project.LoadModule(args[0])
			if err != nil {
				return fmt.Errorf("load module %s: %w", args[0], err)
			}
			view, tab, err := c.tabView(m)
			if err != nil {
				return err
			}
			if tab != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "tab %s: %s\n", tab, m.Tabs.FindTab(tab).Label)
			}
			renderPage(cmd.OutOrStdout(), view)
			return nil
		},
	}
}

func (c *CLI) normalizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize [module.json]",
		Short: "Clamp spans, positions and selection to valid values",
		Long: `Normalize rewrites a module document with every block placement clamped
to the configured columns. Overlapping canvas blocks are moved down, and grid
cells that collide are re-flowed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			m, err := project.LoadModule(path)
			if err != nil {
				return fmt.Errorf("load module %s: %w", path, err)
			}
			if err := project.SaveModule(path, m); err != nil {
				return fmt.Errorf("save module %s: %w", path, err)
			}
			c.Logger.Info("Normalized module", "module", path, "blocks", len(m.Activities))
			return nil
		},
	}
}

func (c *CLI) addCommand() *cobra.Command {
	var (
		title string
		span  int
	)

	cmd := &cobra.Command{
		Use:   "add [module.json] [type]",
		Short: "Append an activity block",
		Long: fmt.Sprintf(`Append an activity block and select it.

Known types: %s`, strings.Join(typeNames(), ", ")),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, ok := model.ParseActivityType(strings.ToLower(args[1]))
			if !ok {
				return fmt.Errorf("unknown activity type %q", args[1])
			}
			return c.editModule(args[0], func(comp *composer.Composer) error {
				a := model.NewActivity(t)
				if title != "" {
					a.SetHeadline(title)
				}
				if span > 0 {
					a.Layout.ColSpan = span
				}
				i := comp.AddActivity(a)
				c.Logger.Debug("Added block", "block", i+1, "type", t)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "headline of the new block")
	cmd.Flags().IntVar(&span, "span", 0, "column span of the new block")

	return cmd
}

func typeNames() []string {
	names := make([]string, len(model.ActivityTypes))
	for i, t := range model.ActivityTypes {
		names[i] = string(t)
	}
	return names
}

func (c *CLI) deleteCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete [module.json] [block]",
		Short: "Remove an activity block",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.editModule(args[0], func(comp *composer.Composer) error {
				i, err := parseBlock(args[1], len(comp.State().Activities))
				if err != nil {
					return err
				}
				if comp.NeedsConfirmation(i) && !force {
					return fmt.Errorf("block %d has content; use --force to delete it", i+1)
				}
				return comp.Delete(i)
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "delete even if the block has content")

	return cmd
}

func (c *CLI) duplicateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate [module.json] [block]",
		Short: "Insert a copy of a block after it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.editModule(args[0], func(comp *composer.Composer) error {
				i, err := parseBlock(args[1], len(comp.State().Activities))
				if err != nil {
					return err
				}
				return comp.Duplicate(i)
			})
		},
	}
}

func (c *CLI) moveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "move [module.json] [block] [left|right|up|down]",
		Short: "Nudge a block one cell",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, ok := engine.ParseDirection(args[2])
			if !ok {
				return fmt.Errorf("unknown direction %q", args[2])
			}
			return c.editModule(args[0], func(comp *composer.Composer) error {
				i, err := parseBlock(args[1], len(comp.State().Activities))
				if err != nil {
					return err
				}
				return changed(comp.Move(i, dir))
			})
		},
	}
}

func (c *CLI) placeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "place [module.json] [block] [row] [col]",
		Short: "Put a block on an explicit grid cell",
		Long: `Put a block on an explicit 1-based grid cell in simple mode. Blocks that
occupied the target cells are pushed down their own columns.`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			cell, err := parseInts(args[2], args[3])
			if err != nil {
				return err
			}
			return c.editModule(args[0], func(comp *composer.Composer) error {
				i, err := parseBlock(args[1], len(comp.State().Activities))
				if err != nil {
					return err
				}
				if comp.State().Layout.Mode != model.ModeSimple {
					return fmt.Errorf("place: operation requires simple mode")
				}
				return changed(comp.MoveToCell(i, cell[0], cell[1]))
			})
		},
	}
}

func (c *CLI) reorderCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reorder [module.json] [from] [to]",
		Short: "Move a block to another position in the block list",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.editModule(args[0], func(comp *composer.Composer) error {
				n := len(comp.State().Activities)
				from, err := parseBlock(args[1], n)
				if err != nil {
					return err
				}
				to, err := parseBlock(args[2], n)
				if err != nil {
					return err
				}
				return changed(comp.Reorder(from, to))
			})
		},
	}
}

func (c *CLI) resizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resize [module.json] [block] [width] [height]",
		Short: "Change a block's span, or its canvas size",
		Long: `Change a block's size. In simple mode the width is the column span and the
height is ignored. In canvas mode both are grid units; when the height is
omitted the block keeps its current height.`,
		Args: cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := parseInts(args[2:]...)
			if err != nil {
				return err
			}
			return c.editModule(args[0], func(comp *composer.Composer) error {
				s := comp.State()
				i, err := parseBlock(args[1], len(s.Activities))
				if err != nil {
					return err
				}
				h := engine.RectOf(s.Activities[i]).H
				if len(size) == 2 {
					h = size[1]
				}
				return changed(comp.Resize(i, size[0], h))
			})
		},
	}
}

// dragCommand replays a drag gesture through a list of waypoints. The
// whole drag is one edit; waypoints the resolver rejects are skipped.
func (c *CLI) dragCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "drag [module.json] [block] [x,y]...",
		Short: "Drag a canvas block through one or more positions",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			points, err := parsePoints(args[2:])
			if err != nil {
				return err
			}
			return c.editModule(args[0], func(comp *composer.Composer) error {
				i, err := parseBlock(args[1], len(comp.State().Activities))
				if err != nil {
					return err
				}
				if err := comp.BeginGesture(i); err != nil {
					return fmt.Errorf("drag: %w", err)
				}
				for _, p := range points {
					res, err := comp.UpdateDrag(p[0], p[1])
					if err != nil {
						comp.CancelGesture()
						return fmt.Errorf("drag: %w", err)
					}
					c.Logger.Debug("Drag frame", "x", p[0], "y", p[1], "valid", res.Valid, "path", res.Path)
				}
				ok, err := comp.EndGesture()
				if err != nil {
					return fmt.Errorf("drag: %w", err)
				}
				return changed(ok)
			})
		},
	}
}

func parsePoints(args []string) ([][2]int, error) {
	points := make([][2]int, 0, len(args))
	for _, a := range args {
		x, y, ok := strings.Cut(a, ",")
		if !ok {
			return nil, fmt.Errorf("invalid position %q, want x,y", a)
		}
		xy, err := parseInts(strings.TrimSpace(x), strings.TrimSpace(y))
		if err != nil {
			return nil, err
		}
		points = append(points, [2]int{xy[0], xy[1]})
	}
	return points, nil
}

func (c *CLI) selectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "select [module.json] [block]",
		Short: "Set the selected block (0 clears the selection)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.editModule(args[0], func(comp *composer.Composer) error {
				if args[1] == "0" {
					comp.Select(-1)
					return nil
				}
				i, err := parseBlock(args[1], len(comp.State().Activities))
				if err != nil {
					return err
				}
				comp.Select(i)
				return nil
			})
		},
	}
}

func (c *CLI) modeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mode [module.json] [simple|canvas]",
		Short: "Switch between simple-grid and canvas placement",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := model.LayoutMode(strings.ToLower(args[1]))
			if mode != model.ModeSimple && mode != model.ModeCanvas {
				return fmt.Errorf("unknown layout mode %q", args[1])
			}
			return c.editModule(args[0], func(comp *composer.Composer) error {
				return changed(comp.SetMode(mode))
			})
		},
	}
}

func (c *CLI) columnsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "columns [module.json] [count]",
		Short: fmt.Sprintf("Set the column count (%d-%d)", model.MinColumns, model.MaxColumns),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseInts(args[1])
			if err != nil {
				return err
			}
			return c.editModule(args[0], func(comp *composer.Composer) error {
				return changed(comp.SetColumns(n[0]))
			})
		},
	}
}

func (c *CLI) rowsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rows [module.json] [count]",
		Short: "Set the number of empty rows kept below the last block",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseInts(args[1])
			if err != nil {
				return err
			}
			return c.editModule(args[0], func(comp *composer.Composer) error {
				return changed(comp.SetExtraRows(n[0]))
			})
		},
	}
}

func (c *CLI) metricsCommand() *cobra.Command {
	var (
		rowHeight    int
		margin       int
		padding      int
		matchTallest bool
	)

	cmd := &cobra.Command{
		Use:   "metrics [module.json]",
		Short: "Set canvas row height, margin and padding, or simple-grid row matching",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("row-height") && !flags.Changed("margin") && !flags.Changed("padding") && !flags.Changed("match-tallest-row") {
				return errors.New("metrics: nothing to change")
			}
			return c.editModule(args[0], func(comp *composer.Composer) error {
				cfg := comp.State().Layout
				rh, m, p := cfg.RowHeight, cfg.Margin, cfg.ContainerPadding
				if flags.Changed("row-height") {
					rh = rowHeight
				}
				if flags.Changed("margin") {
					m = model.Spacing{X: margin, Y: margin}
				}
				if flags.Changed("padding") {
					p = model.Spacing{X: padding, Y: padding}
				}
				comp.SetCanvasMetrics(rh, m, p)
				if flags.Changed("match-tallest-row") {
					comp.SetMatchTallestRow(matchTallest)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&rowHeight, "row-height", 0, "canvas row height in pixels")
	cmd.Flags().IntVar(&margin, "margin", 0, "canvas gap between blocks in pixels")
	cmd.Flags().IntVar(&padding, "padding", 0, "canvas container padding in pixels")
	cmd.Flags().BoolVar(&matchTallest, "match-tallest-row", false, "stretch simple-grid blocks to the tallest in their row")

	return cmd
}
