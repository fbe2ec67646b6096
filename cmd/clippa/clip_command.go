package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"clippa/internal/clip"
	"clippa/internal/config"
	"clippa/internal/downloader"
	"clippa/internal/jobs"
	"clippa/internal/media"
	"clippa/internal/notify"
	"clippa/internal/storage"
	"clippa/internal/transcoder"
)

type clipFlags struct {
	url       string
	start     string
	end       string
	subtitles bool
	format    string
	user      string
	dryRun    bool
	json      bool
}

func newClipCommand(ctx *commandContext) *cobra.Command {
	var flags clipFlags

	cmd := &cobra.Command{
		Use:   "clip",
		Short: "Produce one clip in the foreground",
		Long: "Runs the same pipeline the server runs for a single request and waits for it.\n" +
			"With --dry-run the downloader and transcoder invocations are printed instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			req := clip.Request{
				URL:       flags.url,
				StartTime: flags.start,
				EndTime:   flags.end,
				Subtitles: flags.subtitles,
				FormatID:  flags.format,
				UserID:    flags.user,
			}.Normalize()
			if err := req.Validate(); err != nil {
				return err
			}
			if flags.dryRun {
				printPlan(cmd.OutOrStdout(), cfg, req)
				return nil
			}
			return runClip(cmd, ctx, cfg, req, flags.json)
		},
	}

	cmd.Flags().StringVar(&flags.url, "url", "", "Source video URL")
	cmd.Flags().StringVar(&flags.start, "start", "", "Clip start (HH:MM:SS[.mmm])")
	cmd.Flags().StringVar(&flags.end, "end", "", "Clip end (HH:MM:SS[.mmm])")
	cmd.Flags().BoolVar(&flags.subtitles, "subs", false, "Burn the source subtitle track into the clip")
	cmd.Flags().StringVar(&flags.format, "format", "", "Downloader format selector (defaults to config)")
	cmd.Flags().StringVar(&flags.user, "user", "cli", "Owner recorded on the job")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Print tool invocations without running them")
	cmd.Flags().BoolVar(&flags.json, "json", false, "Print the finished job as JSON")
	return cmd
}

// printPlan renders the commands a job would run, using a placeholder id.
func printPlan(out io.Writer, cfg *config.Config, req clip.Request) {
	paths := clip.PathsFor(cfg.Paths.WorkDir, "dry-run", cfg.Extraction.SubtitleLanguage)
	extract := downloader.BuildArgs(downloader.SettingsFromConfig(cfg), downloader.Request{
		URL:        req.URL,
		Start:      req.StartTime,
		End:        req.EndTime,
		FormatID:   req.FormatID,
		Subtitles:  req.Subtitles,
		OutputPath: paths.Raw,
	})
	subtitlePath := ""
	if req.Subtitles {
		subtitlePath = paths.Adjusted
	}
	transcode := transcoder.BuildArgs(paths.Raw, paths.Fast, subtitlePath, transcoder.SettingsFromConfig(cfg))

	fmt.Fprintf(out, "%s %s\n", cfg.Tools.Downloader, quoteArgs(extract))
	fmt.Fprintf(out, "%s %s\n", cfg.Tools.Transcoder, quoteArgs(transcode))
	fmt.Fprintf(out, "object key: %s\n", clip.ObjectKey("dry-run"))
}

func quoteArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		if arg == "" || strings.ContainsAny(arg, " \t'\"[]?*&|;<>()$") {
			quoted[i] = "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
		} else {
			quoted[i] = arg
		}
	}
	return strings.Join(quoted, " ")
}

func runClip(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, req clip.Request, asJSON bool) error {
	logger, err := ctx.commandLogger(cmd, cfg)
	if err != nil {
		return err
	}
	runCtx := cmd.Context()

	objects, err := storage.Open(runCtx, cfg)
	if err != nil {
		return fmt.Errorf("open object storage: %w", err)
	}
	notifier, err := notify.New(cfg)
	if err != nil {
		return fmt.Errorf("open notifier: %w", err)
	}
	defer notifier.Close()

	return ctx.withStore(runCtx, func(store jobs.Store) error {
		runner := media.ExecRunner{}
		pipeline, err := clip.New(clip.OptionsFromConfig(cfg), clip.Deps{
			Store:      store,
			Objects:    objects,
			Notifier:   notifier,
			Extractor:  downloader.New(downloader.SettingsFromConfig(cfg), runner, logger),
			Transcoder: transcoder.New(transcoder.SettingsFromConfig(cfg), runner, logger),
			Logger:     logger,
		})
		if err != nil {
			return err
		}
		id, err := pipeline.Submit(runCtx, req)
		if err != nil {
			return err
		}
		if err := pipeline.Wait(context.WithoutCancel(runCtx)); err != nil {
			return err
		}
		job, err := store.Get(runCtx, id)
		if err != nil {
			return fmt.Errorf("read job %s: %w", id, err)
		}
		if job == nil {
			return fmt.Errorf("job %s disappeared from the store", id)
		}
		if asJSON {
			if err := writeJSON(cmd, job); err != nil {
				return err
			}
		} else {
			printJob(cmd.OutOrStdout(), job)
		}
		if job.Status != jobs.StatusReady {
			return fmt.Errorf("clip %s failed: %s", id, job.ErrorMessage)
		}
		return nil
	})
}
