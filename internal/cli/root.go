// Package cli is the command line front end: the console server plus
// scriptable versions of every console action.
package cli

import (
	"fmt"
	"io"
	"log/slog"

	"tinyrisks_admin/internal/config"

	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	yes        bool

	newLogger func(env string) *slog.Logger

	cfg *config.Config
	log *slog.Logger
}

// Execute runs the root command. newLogger builds the logger for the
// configured environment.
func Execute(newLogger func(env string) *slog.Logger) error {
	return NewRootCmd(newLogger).Execute()
}

func NewRootCmd(newLogger func(env string) *slog.Logger) *cobra.Command {
	o := &options{newLogger: newLogger}

	root := &cobra.Command{
		Use:           "tinyrisks-admin",
		Short:         "TinyRisks.art admin console and site tools",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.load()
		},
	}

	root.PersistentFlags().StringVar(&o.configPath, "config", "", "config file path (defaults to CONFIG_PATH, then environment only)")
	root.PersistentFlags().BoolVarP(&o.yes, "yes", "y", false, "answer yes to confirmation prompts")

	root.AddCommand(
		newServeCmd(o),
		newGalleryCmd(o),
		newPostsCmd(o),
		newSnippetsCmd(o),
		newBuildCmd(o),
		newLogoutCmd(o),
		newUploadCmd(o),
		newRenderCmd(o),
		newPreviewCmd(o),
		newThemeCmd(o),
		newPromptsCmd(o),
	)

	return root
}

func (o *options) load() error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	o.cfg = cfg

	if o.newLogger != nil {
		o.log = o.newLogger(cfg.Env)
	}
	if o.log == nil {
		o.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return nil
}
