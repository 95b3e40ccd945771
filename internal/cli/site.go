package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"tinyrisks_admin/internal/app"
	"tinyrisks_admin/internal/render"
	storage "tinyrisks_admin/internal/storage/filestorage"

	"github.com/spf13/cobra"
)

func newBuildCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Rebuild the static site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.session(cmd)
			if err != nil {
				return err
			}

			return a.Build(cmd.Context())
		},
	}
}

func newLogoutCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the admin session on the site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.session(cmd)
			if err != nil {
				return err
			}

			target, err := a.Logout(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged out. Sign in again at %s\n", target)
			return nil
		},
	}
}

func newUploadCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "upload FORM FILE",
		Short: "Send one file through a configured upload form",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := resolve([]string{args[1]})
			if err != nil {
				return err
			}

			a, err := o.session(cmd)
			if err != nil {
				return err
			}

			z, err := a.Upload(args[0])
			if err != nil {
				return err
			}

			view := z.Change(files)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", view.Icon, view.FileName, view.FileSummary)

			res, err := z.Submit(cmd.Context(), progressReader(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}

			if res.URL != "" {
				fmt.Fprintln(cmd.OutOrStdout(), res.URL)
			}

			return nil
		},
	}
}

func newRenderCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Compose static pages",
	}

	var (
		from   string
		out    string
		stdout bool
	)

	page := &cobra.Command{
		Use:   "page",
		Short: "Render a page described in YAML into the site output directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(from)
			if err != nil {
				return err
			}
			defer f.Close()

			spec, err := render.LoadPageSpec(f)
			if err != nil {
				return err
			}

			html, err := spec.Render(o.cfg.Site)
			if err != nil {
				return err
			}

			if stdout {
				_, err = cmd.OutOrStdout().Write(html)
				return err
			}

			name := pageName(out, spec.Output, from)

			files, err := storage.NewLocalFileStorage(o.cfg.Site.OutputDir)
			if err != nil {
				return err
			}

			written, err := files.WritePage(cmd.Context(), name, html)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), files.GetFullPath(written))
			return nil
		},
	}
	page.Flags().StringVar(&from, "from", "", "page description (YAML)")
	page.Flags().StringVar(&out, "out", "", "output file name relative to the site directory")
	page.Flags().BoolVar(&stdout, "stdout", false, "write the page to stdout instead")
	_ = page.MarkFlagRequired("from")

	cmd.AddCommand(page)

	return cmd
}

// pageName prefers the flag, then the description, then the YAML file name.
func pageName(flag, spec, from string) string {
	if flag != "" {
		return flag
	}
	if spec != "" {
		return spec
	}

	base := filepath.Base(from)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".html"
}

func newPreviewCmd(o *options) *cobra.Command {
	var (
		terminal bool
		width    int
	)

	cmd := &cobra.Command{
		Use:   "preview [FILE]",
		Short: "Render markdown as the preview pane does; reads stdin without FILE",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				src []byte
				err error
			)
			if len(args) == 1 {
				src, err = os.ReadFile(args[0])
			} else {
				src, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return err
			}

			renderer := app.NewRenderer(o.cfg)

			if terminal {
				out, err := renderer.Terminal(string(src), width)
				if err != nil {
					return err
				}
				_, err = io.WriteString(cmd.OutOrStdout(), out)
				return err
			}

			out, err := renderer.Render(string(src))
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), string(out))
			return err
		},
	}
	cmd.Flags().BoolVar(&terminal, "terminal", false, "render for the terminal instead of HTML")
	cmd.Flags().IntVar(&width, "width", 80, "terminal word wrap width")

	return cmd
}

func newThemeCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Inspect the theme cycle",
	}

	themes := func() []string {
		if len(o.cfg.Site.Themes) == 0 {
			return render.DefaultThemes
		}
		return o.cfg.Site.Themes
	}

	next := &cobra.Command{
		Use:   "next [CURRENT]",
		Short: "Print the theme that follows CURRENT",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			current := ""
			if len(args) == 1 {
				current = args[0]
			}

			fmt.Fprintln(cmd.OutOrStdout(), render.NextTheme(themes(), current))
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Print the themes in cycle order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, t := range themes() {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
			return nil
		},
	}

	cmd.AddCommand(next, list)

	return cmd
}

func newPromptsCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "World-building prompts",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List configured prompts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.session(cmd)
			if err != nil {
				return err
			}

			for _, p := range a.Prompts() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p.ID, p.Title)
			}
			return nil
		},
	}

	copyCmd := &cobra.Command{
		Use:   "copy ID",
		Short: "Copy a prompt's text to the clipboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.session(cmd)
			if err != nil {
				return err
			}

			return a.CopyPrompt(args[0])
		},
	}

	cmd.AddCommand(list, copyCmd)

	return cmd
}
