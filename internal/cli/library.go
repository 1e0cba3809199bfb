package cli

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/piwi3910/coursefactory/internal/composer"
	"github.com/piwi3910/coursefactory/internal/model"
	"github.com/piwi3910/coursefactory/internal/project"
)

// =============================================================================
// Templates
// =============================================================================

func (c *CLI) templateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Manage saved module templates",
	}

	var description string
	save := &cobra.Command{
		Use:   "save [module.json] [name]",
		Short: "Save a module's blocks and layout as a template",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := project.LoadModule(args[0])
			if err != nil {
				return fmt.Errorf("load module %s: %w", args[0], err)
			}
			if m, _, err = c.tabView(m); err != nil {
				return err
			}
			store, err := project.LoadTemplates(c.templatesPath())
			if err != nil {
				return fmt.Errorf("load templates: %w", err)
			}
			if old := store.FindByName(args[1]); old != nil {
				store.Remove(old.ID)
				c.Logger.Debug("Replacing template", "name", args[1])
			}
			store.Add(model.NewModuleTemplate(args[1], description, m.Activities, m.ComposerLayout))
			if err := project.SaveTemplates(c.templatesPath(), store); err != nil {
				return fmt.Errorf("save templates: %w", err)
			}
			c.Logger.Info("Saved template", "name", args[1], "blocks", len(m.Activities))
			return nil
		},
	}
	save.Flags().StringVarP(&description, "description", "d", "", "template description")

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := project.LoadTemplates(c.templatesPath())
			if err != nil {
				return fmt.Errorf("load templates: %w", err)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tBLOCKS\tMODE\tCOLUMNS\tDESCRIPTION")
			for _, t := range store.Templates {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%s\n", t.Name, len(t.Activities), t.Layout.Mode, t.Layout.MaxColumns, t.Description)
			}
			return tw.Flush()
		},
	}

	remove := &cobra.Command{
		Use:   "delete [name]",
		Short: "Delete a saved template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := project.LoadTemplates(c.templatesPath())
			if err != nil {
				return fmt.Errorf("load templates: %w", err)
			}
			t := store.FindByName(args[0])
			if t == nil {
				return fmt.Errorf("no template named %q", args[0])
			}
			store.Remove(t.ID)
			if err := project.SaveTemplates(c.templatesPath(), store); err != nil {
				return fmt.Errorf("save templates: %w", err)
			}
			c.Logger.Info("Deleted template", "name", args[0])
			return nil
		},
	}

	insert := &cobra.Command{
		Use:   "insert [module.json] [name]",
		Short: "Append a template's blocks to a module",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := project.LoadTemplates(c.templatesPath())
			if err != nil {
				return fmt.Errorf("load templates: %w", err)
			}
			t := store.FindByName(args[1])
			if t == nil {
				return fmt.Errorf("no template named %q", args[1])
			}
			return c.editModule(args[0], func(comp *composer.Composer) error {
				return changed(comp.AddFromTemplate(*t) >= 0)
			})
		},
	}

	cmd.AddCommand(save, list, remove, insert)
	return cmd
}

// =============================================================================
// Layout profiles
// =============================================================================

func (c *CLI) profileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Capture and re-apply layout profiles keyed by template",
	}

	capture := &cobra.Command{
		Use:   "capture [module.json] [key]",
		Short: "Store the module's arrangement as the profile for key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, key := args[0], args[1]
			var profile model.LayoutProfile
			err := c.editModule(path, func(comp *composer.Composer) error {
				comp.CaptureProfile(key)
				profile = comp.State().TemplateLayoutProfiles[key]
				return nil
			})
			if err != nil {
				return err
			}

			lib, err := project.LoadProfiles(c.profilesPath())
			if err != nil {
				return fmt.Errorf("load profiles: %w", err)
			}
			lib[key] = profile
			if err := project.SaveProfiles(c.profilesPath(), lib); err != nil {
				return fmt.Errorf("save profiles: %w", err)
			}
			c.Logger.Info("Captured profile", "key", key, "entries", len(profile.Entries))
			return nil
		},
	}

	apply := &cobra.Command{
		Use:   "apply [module.json] [key]",
		Short: "Lay the module out with the profile for key",
		Long: `Lay the module out with the profile for key. The module's own profile is
used when it has one, otherwise the one from the profile library.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, key := args[0], args[1]
			m, err := project.LoadModule(path)
			if err != nil {
				return fmt.Errorf("load module %s: %w", path, err)
			}
			if _, ok := m.TemplateLayoutProfiles[key]; !ok {
				lib, err := project.LoadProfiles(c.profilesPath())
				if err != nil {
					return fmt.Errorf("load profiles: %w", err)
				}
				p, ok := lib[key]
				if !ok {
					return fmt.Errorf("profile %q: %w", key, composer.ErrUnknownProfile)
				}
				if m.TemplateLayoutProfiles == nil {
					m.TemplateLayoutProfiles = model.LayoutProfiles{}
				}
				m.TemplateLayoutProfiles[key] = p
				if err := project.SaveModule(path, m); err != nil {
					return fmt.Errorf("save module %s: %w", path, err)
				}
			}
			return c.editModule(path, func(comp *composer.Composer) error {
				return comp.ApplyProfile(key)
			})
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export [key] [file.json]",
		Short: "Write a library profile to a file for sharing",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := project.LoadProfiles(c.profilesPath())
			if err != nil {
				return fmt.Errorf("load profiles: %w", err)
			}
			p, ok := lib[args[0]]
			if !ok {
				return fmt.Errorf("profile %q: %w", args[0], composer.ErrUnknownProfile)
			}
			if err := project.ExportProfile(args[1], args[0], p); err != nil {
				return fmt.Errorf("export profile: %w", err)
			}
			c.Logger.Info("Exported profile", "key", args[0], "file", args[1])
			return nil
		},
	}

	importCmd := &cobra.Command{
		Use:   "import [file.json]",
		Short: "Add a shared profile to the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pf, err := project.ImportProfile(args[0])
			if err != nil {
				return fmt.Errorf("import profile %s: %w", args[0], err)
			}
			lib, err := project.LoadProfiles(c.profilesPath())
			if err != nil {
				return fmt.Errorf("load profiles: %w", err)
			}
			lib[pf.Template] = pf.Profile
			if err := project.SaveProfiles(c.profilesPath(), lib); err != nil {
				return fmt.Errorf("save profiles: %w", err)
			}
			c.Logger.Info("Imported profile", "key", pf.Template)
			return nil
		},
	}

	cmd.AddCommand(capture, apply, exportCmd, importCmd)
	return cmd
}

// =============================================================================
// Config and backup
// =============================================================================

func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or initialise the config file",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(c.Config)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", c.ConfigPath, data)
			return nil
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(c.ConfigPath); err == nil && !force {
				return fmt.Errorf("config %s already exists; use --force to overwrite", c.ConfigPath)
			}
			if err := project.SaveAppConfig(c.ConfigPath, model.DefaultAppConfig()); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			c.Logger.Info("Wrote config", "path", c.ConfigPath)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing config file")

	cmd.AddCommand(show, initCmd)
	return cmd
}

func (c *CLI) backupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export or restore config, templates and profiles",
	}

	exportCmd := &cobra.Command{
		Use:   "export [file.json]",
		Short: "Write config, templates and profiles to one file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := project.LoadTemplates(c.templatesPath())
			if err != nil {
				return fmt.Errorf("load templates: %w", err)
			}
			lib, err := project.LoadProfiles(c.profilesPath())
			if err != nil {
				return fmt.Errorf("load profiles: %w", err)
			}
			if err := project.ExportAllData(args[0], c.Config, store, lib); err != nil {
				return err
			}
			c.Logger.Info("Wrote backup", "file", args[0], "templates", len(store.Templates), "profiles", len(lib))
			return nil
		},
	}

	importCmd := &cobra.Command{
		Use:   "import [file.json]",
		Short: "Restore config, templates and profiles from a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backup, err := project.ImportAllData(args[0])
			if err != nil {
				return err
			}
			errs := []error{
				project.SaveAppConfig(c.ConfigPath, backup.Config),
				project.SaveTemplates(c.templatesPath(), backup.Templates),
				project.SaveProfiles(c.profilesPath(), backup.Profiles),
			}
			if err := errors.Join(errs...); err != nil {
				return fmt.Errorf("restore backup: %w", err)
			}
			c.Config = backup.Config
			c.Logger.Info("Restored backup", "file", args[0], "created", backup.CreatedAt)
			return nil
		},
	}

	cmd.AddCommand(exportCmd, importCmd)
	return cmd
}
