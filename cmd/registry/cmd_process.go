package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"registry/internal/classify"
	"registry/internal/github"
	"registry/internal/logging"
	"registry/internal/pipeline"
	"registry/internal/submission"
	"registry/internal/types"
)

var (
	processEvent    string
	processTitle    string
	processBodyFile string
	processAuthor   string
	processLabels   []string
	processNumber   int
	processDryRun   bool
)

// processCmd runs one submission end to end
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Parse, validate and apply one submission",
	Long: `Reads a submission, applies it to the database and reports the outcome.

The submission comes from an issues event payload (--event, or
GITHUB_EVENT_PATH), or from a local file (--body-file) with --title,
--author and --label describing the issue.

When a GitHub token and repository are configured the outcome is posted as
a comment, the issue is labeled, and a successful submission is closed.

Exits non-zero when the submission is rejected.

Examples:
  registry process --event "$GITHUB_EVENT_PATH"
  registry process --body-file new.md --author octocat --label create --dry-run`,
	Args: cobra.NoArgs,
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVar(&processEvent, "event", "", "GitHub issues event payload (default: $GITHUB_EVENT_PATH)")
	processCmd.Flags().StringVar(&processTitle, "title", "", "Issue title for a local submission")
	processCmd.Flags().StringVar(&processBodyFile, "body-file", "", "Issue body file for a local submission")
	processCmd.Flags().StringVar(&processAuthor, "author", "", "Submitting GitHub username for a local submission")
	processCmd.Flags().StringSliceVar(&processLabels, "label", nil, "Issue label for a local submission (repeatable)")
	processCmd.Flags().IntVar(&processNumber, "number", 0, "Issue number to report back on for a local submission")
	processCmd.Flags().BoolVar(&processDryRun, "dry-run", false, "Validate only; do not write or report back")
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sub, repository, err := loadSubmission()
	if err != nil {
		return err
	}
	if cfg.GitHub.Repository == "" {
		cfg.GitHub.Repository = repository
	}

	opts := []pipeline.Option{
		pipeline.WithClassifier(classify.New(cfg.Intake.UpdateLabels, cfg.Intake.CreateLabels)),
		pipeline.WithLogger(logger),
		pipeline.WithDryRun(processDryRun),
	}
	sinks, err := githubSinks()
	if err != nil {
		return err
	}
	opts = append(opts, sinks...)

	p := pipeline.New(func() (pipeline.RecordStore, error) {
		s, err := openStore()
		if err != nil {
			return nil, err
		}
		return s, nil
	}, opts...)

	out, err := p.Process(ctx, sub)
	if out.Message != "" {
		fmt.Fprintln(cmd.OutOrStdout(), out.Message)
	}
	if err != nil {
		if errors.Is(err, pipeline.ErrRejected) {
			logger.Info("submission rejected", zap.String("run_id", out.RunID), zap.Int("issue", sub.Number))
		}
		return err
	}
	return nil
}

// loadSubmission reads the event payload, or the local flags when a body
// file is given.
func loadSubmission() (types.Submission, string, error) {
	if processBodyFile != "" {
		data, err := readInput(processBodyFile)
		if err != nil {
			return types.Submission{}, "", err
		}
		body := string(data)
		return types.Submission{
			Number: processNumber,
			Title:  processTitle,
			Body:   &body,
			Author: processAuthor,
			Labels: types.Labels(processLabels...),
		}, "", nil
	}

	path := processEvent
	if path == "" {
		path = cfg.GitHub.EventPath
	}
	if path == "" {
		return types.Submission{}, "", fmt.Errorf("no submission: pass --event, set GITHUB_EVENT_PATH, or pass --body-file")
	}
	ev, err := submission.LoadFile(path)
	if err != nil {
		return types.Submission{}, "", err
	}
	return ev.Submission, ev.Repository, nil
}

// githubSinks builds the reporting options. Without a token or repository
// the run is local and nothing is posted.
func githubSinks() ([]pipeline.Option, error) {
	if processDryRun || cfg.GitHub.Token == "" {
		return nil, nil
	}
	owner, repo, ok := cfg.GitHub.OwnerRepo()
	if !ok {
		logging.For(logger, logging.CategoryBoot).Warn("github token set without a repository; results will not be posted")
		return nil, nil
	}
	client, err := github.New(github.Config{
		APIURL:  cfg.GitHub.APIURL,
		Owner:   owner,
		Repo:    repo,
		Token:   cfg.GitHub.Token,
		Timeout: cfg.GitHub.Timeout,
	}, github.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	opts := []pipeline.Option{
		pipeline.WithNotifier(client),
		pipeline.WithLabeler(client, cfg.GitHub.SuccessLabels, cfg.GitHub.RejectLabels),
	}
	if cfg.GitHub.CloseOnSuccess {
		opts = append(opts, pipeline.WithCloser(client))
	}
	return opts, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// readInput reads path, or stdin for "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
