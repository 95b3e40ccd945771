package cli

import (
	"context"
	"errors"
	"io"

	"tinyrisks_admin/internal/app"
	"tinyrisks_admin/internal/services/admin"
	"tinyrisks_admin/internal/services/controller"
	"tinyrisks_admin/internal/services/notify"

	"github.com/atotto/clipboard"
	"github.com/manifoldco/promptui"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// session builds an admin session whose notifications print to the command's
// output. Nothing is loaded yet.
func (o *options) session(cmd *cobra.Command) (*admin.Admin, error) {
	services, err := app.NewServices(o.log, o.cfg, nil)
	if err != nil {
		return nil, err
	}

	opts := app.Options(o.cfg, app.NewRenderer(o.cfg))
	opts.Sinks = []notify.Sink{notify.NewTerminalSink(cmd.OutOrStdout())}
	opts.Confirmer = o.confirmer(cmd)
	opts.Clipboard = clipboard.WriteAll
	opts.Progress = progressReader(cmd.ErrOrStderr())

	return admin.New(o.log, services, opts), nil
}

func (o *options) confirmer(cmd *cobra.Command) controller.Confirmer {
	if o.yes {
		return controller.Confirmed
	}

	return promptConfirmer{in: io.NopCloser(cmd.InOrStdin()), out: nopWriteCloser{cmd.ErrOrStderr()}}
}

// promptConfirmer asks on the terminal; anything but "y" declines.
type promptConfirmer struct {
	in  io.ReadCloser
	out io.WriteCloser
}

func (p promptConfirmer) Confirm(_ context.Context, prompt string) (bool, error) {
	q := promptui.Prompt{
		Label:     prompt,
		IsConfirm: true,
		Stdin:     p.in,
		Stdout:    p.out,
	}

	_, err := q.Run()
	switch {
	case errors.Is(err, promptui.ErrAbort):
		return false, nil
	case err != nil:
		return false, err
	}

	return true, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// progressReader shows a byte progress bar while a multipart body is sent.
func progressReader(w io.Writer) func(body io.Reader, total int64) io.Reader {
	return func(body io.Reader, total int64) io.Reader {
		bar := progressbar.NewOptions64(total,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription("uploading"),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionClearOnFinish(),
		)

		r := progressbar.NewReader(body, bar)
		return &r
	}
}
