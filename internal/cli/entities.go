package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"tinyrisks_admin/internal/domain/models"
	"tinyrisks_admin/internal/lib/format"
	"tinyrisks_admin/internal/services/admin"
	"tinyrisks_admin/internal/services/controller"
	storage "tinyrisks_admin/internal/storage/filestorage"

	"github.com/spf13/cobra"
)

// field is a form field exposed as a string flag.
type field struct {
	name  string
	flag  string
	usage string
}

var (
	galleryFields = []field{
		{name: "title", flag: "title", usage: "gallery title"},
		{name: "caption", flag: "caption", usage: "short caption"},
		{name: "description", flag: "description", usage: "markdown description"},
	}
	postFields = []field{
		{name: "title", flag: "title", usage: "post title"},
		{name: "subtitle", flag: "subtitle", usage: "subtitle"},
		{name: "category", flag: "category", usage: "category"},
		{name: "tags", flag: "tags", usage: "comma separated tags"},
		{name: "reading_time", flag: "reading-time", usage: "reading time in minutes"},
		{name: "content", flag: "content", usage: "markdown content"},
	}
	snippetFields = []field{
		{name: "title", flag: "title", usage: "snippet title"},
		{name: "content", flag: "content", usage: "snippet text"},
		{name: "tags", flag: "tags", usage: "comma separated tags"},
	}
)

func addFieldFlags(cmd *cobra.Command, fields []field) {
	for _, f := range fields {
		cmd.Flags().String(f.flag, "", f.usage)
	}
}

// fieldValues reads the field flags. With onlyChanged, untouched flags keep
// whatever base holds.
func fieldValues(cmd *cobra.Command, fields []field, base controller.Values, onlyChanged bool) controller.Values {
	values := base.Clone()
	for _, f := range fields {
		if onlyChanged && !cmd.Flags().Changed(f.flag) {
			continue
		}
		v, _ := cmd.Flags().GetString(f.flag)
		values[f.name] = v
	}

	return values
}

func newGalleryCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "Manage community image galleries",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List galleries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.session(cmd)
			if err != nil {
				return err
			}

			items, empty, err := load(cmd.Context(), a.Gallery)
			if err != nil || empty != "" {
				return printEmpty(cmd.OutOrStdout(), empty, err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tIMAGES\tCREATED")
			for _, g := range items {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", g.ID, g.Title, len(g.Images), format.Date(g.CreatedAt.Time))
			}

			return w.Flush()
		},
	}

	var files []string

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a gallery from image files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := resolve(files)
			if err != nil {
				return err
			}

			a, err := o.session(cmd)
			if err != nil {
				return err
			}

			res, err := a.Submit(cmd.Context(), admin.EntityGallery, fieldValues(cmd, galleryFields, nil, false), selected)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), res.ID)
			return nil
		},
	}
	addFieldFlags(create, galleryFields)
	create.Flags().StringSliceVar(&files, "files", nil, "image files or globs such as 'art/**/*.png'")

	edit := &cobra.Command{
		Use:   "edit ID",
		Short: "Update a gallery; new files replace its images",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := resolve(files)
			if err != nil {
				return err
			}

			a, err := o.session(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := a.Dispatch(ctx, admin.EntityGallery, "edit", models.ID(args[0])); err != nil {
				return err
			}

			values := fieldValues(cmd, galleryFields, a.Gallery.State().Values, true)
			_, err = a.Submit(ctx, admin.EntityGallery, values, selected)
			return err
		},
	}
	addFieldFlags(edit, galleryFields)
	edit.Flags().StringSliceVar(&files, "files", nil, "replacement image files or globs")

	cmd.AddCommand(list, create, edit, deleteCmd(o, admin.EntityGallery))

	return cmd
}

func newPostsCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Manage text posts",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List text posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.session(cmd)
			if err != nil {
				return err
			}

			items, empty, err := load(cmd.Context(), a.Posts)
			if err != nil || empty != "" {
				return printEmpty(cmd.OutOrStdout(), empty, err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tSTATE\tCREATED")
			for _, p := range items {
				state := "draft"
				if p.Published {
					state = "published"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Title, p.Category, state, format.Date(p.CreatedAt.Time))
			}

			return w.Flush()
		},
	}

	var (
		contentFile string
		published   bool
	)

	postValues := func(cmd *cobra.Command, base controller.Values, onlyChanged bool) (controller.Values, error) {
		values := fieldValues(cmd, postFields, base, onlyChanged)
		if contentFile != "" {
			b, err := os.ReadFile(contentFile)
			if err != nil {
				return nil, err
			}
			values["content"] = string(b)
		}
		if !onlyChanged || cmd.Flags().Changed("published") {
			values["published"] = ""
			if published {
				values["published"] = "true"
			}
		}

		return values, nil
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a text post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := postValues(cmd, nil, false)
			if err != nil {
				return err
			}

			a, err := o.session(cmd)
			if err != nil {
				return err
			}

			res, err := a.Submit(cmd.Context(), admin.EntityPosts, values, nil)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), res.ID)
			return nil
		},
	}

	edit := &cobra.Command{
		Use:   "edit ID",
		Short: "Update a text post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.session(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := a.Dispatch(ctx, admin.EntityPosts, "edit", models.ID(args[0])); err != nil {
				return err
			}

			values, err := postValues(cmd, a.Posts.State().Values, true)
			if err != nil {
				return err
			}

			_, err = a.Submit(ctx, admin.EntityPosts, values, nil)
			return err
		},
	}

	for _, c := range []*cobra.Command{create, edit} {
		addFieldFlags(c, postFields)
		c.Flags().StringVar(&contentFile, "content-file", "", "read markdown content from a file")
		c.Flags().BoolVar(&published, "published", false, "publish the post")
	}

	cmd.AddCommand(list, create, edit,
		deleteCmd(o, admin.EntityPosts),
		actionCmd(o, admin.EntityPosts, "publish", "Publish a text post"),
		actionCmd(o, admin.EntityPosts, "unpublish", "Move a text post back to drafts"),
	)

	return cmd
}

func newSnippetsCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snippets",
		Short: "Manage snippets",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List snippets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.session(cmd)
			if err != nil {
				return err
			}

			items, empty, err := load(cmd.Context(), a.Snippets)
			if err != nil || empty != "" {
				return printEmpty(cmd.OutOrStdout(), empty, err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tTAGS\tCREATED")
			for _, s := range items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID, s.Title, format.JoinTags(s.Tags), format.Ago(s.CreatedAt.Time))
			}

			return w.Flush()
		},
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a snippet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.session(cmd)
			if err != nil {
				return err
			}

			res, err := a.Submit(cmd.Context(), admin.EntitySnippets, fieldValues(cmd, snippetFields, nil, false), nil)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), res.ID)
			return nil
		},
	}
	addFieldFlags(create, snippetFields)

	cmd.AddCommand(list, create, deleteCmd(o, admin.EntitySnippets))

	return cmd
}

func deleteCmd(o *options, entity string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete by id after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.session(cmd)
			if err != nil {
				return err
			}

			err = a.Dispatch(cmd.Context(), entity, "delete", models.ID(args[0]))
			if errors.Is(err, controller.ErrDeclined) {
				fmt.Fprintln(cmd.OutOrStdout(), "cancelled")
				return nil
			}

			return err
		},
	}
}

func actionCmd(o *options, entity, action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.session(cmd)
			if err != nil {
				return err
			}

			return a.Dispatch(cmd.Context(), entity, action, models.ID(args[0]))
		},
	}
}

// load fetches a list. The empty message is set when there is nothing to
// show.
func load[T any](ctx context.Context, c *controller.Controller[T]) ([]T, string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	view := c.Load(ctx)
	switch {
	case view.Error != "":
		return nil, "", errors.New(view.Error)
	case view.Empty:
		return nil, view.Message, nil
	}

	return view.Items, "", nil
}

func printEmpty(w io.Writer, msg string, err error) error {
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, msg)
	return err
}

// resolve expands --files patterns. No patterns means no files.
func resolve(patterns []string) ([]models.File, error) {
	if len(patterns) == 0 {
		return nil, nil
	}

	return (&storage.LocalFileStorage{}).Resolve(patterns...)
}
