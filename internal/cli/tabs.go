package cli

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/piwi3910/coursefactory/internal/model"
	"github.com/piwi3910/coursefactory/internal/project"
)

// tabView narrows m to the activities of the active tab: the one named by
// --tab, otherwise the module's canonical tab. The returned id is empty
// when m has no tabs, in which case m is returned whole.
func (c *CLI) tabView(m model.Module) (model.Module, string, error) {
	if m.Tabs == nil || len(m.Tabs.Tabs) == 0 {
		if c.Tab != "" {
			return m, "", fmt.Errorf("tab %q: module has no tabs: %w", c.Tab, model.ErrUnknownTab)
		}
		return m, "", nil
	}
	id := c.Tab
	if id == "" {
		id = m.Tabs.Canonical
	}
	if m.Tabs.FindTab(id) == nil {
		return m, "", fmt.Errorf("tab %q: %w", id, model.ErrUnknownTab)
	}

	selected := ""
	if i := m.ComposerSelectedIndex; i >= 0 && i < len(m.Activities) {
		selected = m.Activities[i].ID
	}
	view := m
	view.Activities = m.Tabs.View(id, m.Activities)
	view.ComposerSelectedIndex = indexOfID(view.Activities, selected)
	return view, id, nil
}

// mergeTab folds an edited tab view back into m. With no tab, edited is
// the whole module and is returned as is.
func mergeTab(m model.Module, tab string, edited model.Module) model.Module {
	if tab == "" {
		return edited
	}
	selected := ""
	if i := edited.ComposerSelectedIndex; i >= 0 && i < len(edited.Activities) {
		selected = edited.Activities[i].ID
	}
	merged, tabs := m.Tabs.Reconcile(m.Activities, tab, edited.Activities)
	edited.Activities = merged
	edited.Tabs = &tabs
	edited.ComposerSelectedIndex = indexOfID(merged, selected)
	return project.NormalizeModule(edited)
}

func indexOfID(activities []model.Activity, id string) int {
	if id == "" {
		return -1
	}
	for i, a := range activities {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// =============================================================================
// Tabs
// =============================================================================

func (c *CLI) tabCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tab",
		Short: "Split a module into tabs",
		Long: `Split a module into tabs. Each tab is laid out as its own page; editing
commands work on the tab named by --tab, or on the canonical tab.

Block numbers given to tab commands count every block of the module in
document order, as listed by "tab list".`,
	}

	var label string
	create := &cobra.Command{
		Use:   "create [module.json] [id] [block]...",
		Short: "Create or replace a tab holding the given blocks",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, id := args[0], args[1]
			m, err := project.LoadModule(path)
			if err != nil {
				return fmt.Errorf("load module %s: %w", path, err)
			}
			tab := model.Tab{ID: id, Label: label}
			if tab.Label == "" {
				tab.Label = id
			}
			for _, arg := range args[2:] {
				i, err := parseBlock(arg, len(m.Activities))
				if err != nil {
					return err
				}
				tab.ActivityIDs = append(tab.ActivityIDs, m.Activities[i].ID)
			}
			if m.Tabs == nil {
				m.Tabs = &model.TabbedActivitySet{}
			}
			m.Tabs.Assign(tab)
			return c.saveTabs(path, m, "Saved tab", "tab", id, "blocks", len(tab.ActivityIDs))
		},
	}
	create.Flags().StringVarP(&label, "label", "l", "", "tab label (default: the id)")

	list := &cobra.Command{
		Use:   "list [module.json]",
		Short: "List the tabs of a module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := project.LoadModule(args[0])
			if err != nil {
				return fmt.Errorf("load module %s: %w", args[0], err)
			}
			if m.Tabs == nil || len(m.Tabs.Tabs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tabs.")
				return nil
			}
			number := make(map[string]int, len(m.Activities))
			for i, a := range m.Activities {
				number[a.ID] = i + 1
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, " \tID\tLABEL\tBLOCKS")
			for _, t := range m.Tabs.Tabs {
				marker := " "
				if t.ID == m.Tabs.Canonical {
					marker = "*"
				}
				blocks := make([]string, len(t.ActivityIDs))
				for i, aid := range t.ActivityIDs {
					blocks[i] = strconv.Itoa(number[aid])
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", marker, t.ID, t.Label, strings.Join(blocks, " "))
			}
			return tw.Flush()
		},
	}

	remove := &cobra.Command{
		Use:   "delete [module.json] [id]",
		Short: "Delete a tab, keeping its blocks",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, id := args[0], args[1]
			m, err := project.LoadModule(path)
			if err != nil {
				return fmt.Errorf("load module %s: %w", path, err)
			}
			if m.Tabs == nil || !m.Tabs.Remove(id) {
				return fmt.Errorf("tab %q: %w", id, model.ErrUnknownTab)
			}
			if len(m.Tabs.Tabs) == 0 {
				m.Tabs = nil
			}
			return c.saveTabs(path, m, "Deleted tab", "tab", id)
		},
	}

	canonical := &cobra.Command{
		Use:   "canonical [module.json] [id]",
		Short: "Choose the tab that stands in for the whole module",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, id := args[0], args[1]
			m, err := project.LoadModule(path)
			if err != nil {
				return fmt.Errorf("load module %s: %w", path, err)
			}
			if m.Tabs == nil || m.Tabs.FindTab(id) == nil {
				return fmt.Errorf("tab %q: %w", id, model.ErrUnknownTab)
			}
			m.Tabs.Canonical = id
			return c.saveTabs(path, m, "Set canonical tab", "tab", id)
		},
	}

	cmd.AddCommand(create, list, remove, canonical)
	return cmd
}

// saveTabs re-lays the module out for its new tabs and saves it.
func (c *CLI) saveTabs(path string, m model.Module, msg string, keyvals ...any) error {
	if err := project.SaveModule(path, project.NormalizeModule(m)); err != nil {
		return fmt.Errorf("save module %s: %w", path, err)
	}
	c.Logger.Info(msg, append([]any{"module", path}, keyvals...)...)
	return nil
}
