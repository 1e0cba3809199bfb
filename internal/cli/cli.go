// Package cli implements the coursefactory command-line interface.
//
// Every editing command loads a module document, runs one composer
// operation on it and saves the result when the layout changed. Block
// numbers on the command line are 1-based, matching the exported layout
// sheets and storyboard cards.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Without it
// the level comes from the log_level key of the config file.
package cli

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/piwi3910/coursefactory/internal/composer"
	"github.com/piwi3910/coursefactory/internal/model"
	"github.com/piwi3910/coursefactory/internal/project"
)

const (
	// appName is the application name used for display.
	appName = "coursefactory"

	// recentLimit bounds the recent-modules list in the config file.
	recentLimit = 10
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetVersion sets the version information displayed by --version.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// CLI holds shared state for all commands.
type CLI struct {
	Logger     *log.Logger
	ConfigPath string
	Config     model.AppConfig
	Tab        string // --tab; empty selects the module's canonical tab
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:     newLogger(w, level),
		ConfigPath: project.DefaultConfigPath(),
		Config:     model.DefaultAppConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           appName,
		Short:         "CourseFactory lays out course module pages",
		Long:          `CourseFactory arranges the activity blocks of a course module page on a simple column grid or a free-form canvas, and exports the result as review sheets.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(); err != nil {
				return err
			}
			level, err := log.ParseLevel(c.Config.LogLevel)
			if err != nil {
				level = LogInfo
			}
			if verbose {
				level = LogDebug
			}
			c.SetLogLevel(level)
			return nil
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("%s %s\ncommit: %s\nbuilt: %s\n", appName, version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", c.ConfigPath, "config file")
	root.PersistentFlags().StringVar(&c.Tab, "tab", "", "work on one tab of a tabbed module")

	root.AddCommand(c.newCommand())
	root.AddCommand(c.showCommand())
	root.AddCommand(c.normalizeCommand())
	root.AddCommand(c.addCommand())
	root.AddCommand(c.deleteCommand())
	root.AddCommand(c.duplicateCommand())
	root.AddCommand(c.moveCommand())
	root.AddCommand(c.placeCommand())
	root.AddCommand(c.reorderCommand())
	root.AddCommand(c.resizeCommand())
	root.AddCommand(c.dragCommand())
	root.AddCommand(c.selectCommand())
	root.AddCommand(c.modeCommand())
	root.AddCommand(c.columnsCommand())
	root.AddCommand(c.rowsCommand())
	root.AddCommand(c.metricsCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.templateCommand())
	root.AddCommand(c.profileCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.backupCommand())
	root.AddCommand(c.tabCommand())

	return root
}

// =============================================================================
// Paths
// =============================================================================

func (c *CLI) configDir() string {
	return filepath.Dir(c.ConfigPath)
}

func (c *CLI) templatesPath() string {
	return project.TemplatesPath(c.configDir())
}

func (c *CLI) profilesPath() string {
	return project.ProfilesPath(c.configDir())
}

func (c *CLI) loadConfig() error {
	cfg, err := project.LoadAppConfig(c.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", c.ConfigPath, err)
	}
	c.Config = cfg
	return nil
}

// =============================================================================
// Module editing
// =============================================================================

// errUnchanged is returned by edit functions that want to skip saving.
var errUnchanged = errors.New("unchanged")

// editModule loads the module at path, runs fn against a composer over it
// and saves the result when the composer state changed. On a tabbed module
// the composer only sees the active tab.
func (c *CLI) editModule(path string, fn func(comp *composer.Composer) error) error {
	m, err := project.LoadModule(path)
	if err != nil {
		return fmt.Errorf("load module %s: %w", path, err)
	}
	view, tab, err := c.tabView(m)
	if err != nil {
		return err
	}

	comp := composer.New(composer.StateFromModule(view), composer.WithLogger(c.Logger), composer.WithConfig(c.Config))
	before := comp.State().Signature()

	if err := fn(comp); err != nil {
		if errors.Is(err, errUnchanged) {
			c.Logger.Info("Layout unchanged", "module", path)
			return nil
		}
		return err
	}
	if comp.State().Signature() == before {
		c.Logger.Info("Layout unchanged", "module", path)
		return nil
	}
	out := mergeTab(m, tab, comp.State().ToModule(m.Name))
	if err := project.SaveModule(path, out); err != nil {
		return fmt.Errorf("save module %s: %w", path, err)
	}
	c.Logger.Info("Saved module", "module", path, "tab", tab, "blocks", len(comp.State().Activities))
	return nil
}

// changed converts a composer result into errUnchanged when false.
func changed(ok bool) error {
	if !ok {
		return errUnchanged
	}
	return nil
}

// parseBlock converts a 1-based block number into an activity index.
func parseBlock(s string, n int) (int, error) {
	num, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid block number %q", s)
	}
	if num < 1 || num > n {
		return 0, fmt.Errorf("block %d: %w", num, composer.ErrIndexOutOfRange)
	}
	return num - 1, nil
}

// parseInts parses every argument as an integer.
func parseInts(args ...string) ([]int, error) {
	out := make([]int, len(args))
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", a)
		}
		out[i] = n
	}
	return out, nil
}
