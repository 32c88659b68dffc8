// Package cli defines the reviewer command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bkyoung/pr-reviewer/internal/config"
)

// ErrVersionRequested indicates the user requested the CLI version and no further work should be done.
var ErrVersionRequested = errors.New("version requested")

// PRRequest identifies the pull request to review. A zero Number means the
// number is taken from the Actions event payload.
type PRRequest struct {
	Number int
}

// LocalRequest describes a local-mode review of the working tree.
type LocalRequest struct {
	BaseRef   string
	OutputDir string
	DryRun    bool
}

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies captures the collaborators for the CLI. RunPR and RunLocal
// receive the configuration with flag overrides already applied, so the
// composition root can build providers for the model that was actually
// requested.
type Dependencies struct {
	Config   config.Config
	RunPR    func(ctx context.Context, cfg config.Config, req PRRequest) error
	RunLocal func(ctx context.Context, cfg config.Config, req LocalRequest) error
	Args     Arguments
	Version  string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "reviewer",
		Short: "LLM pull request reviewer",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	reviewCmd := &cobra.Command{
		Use:   "review",
		Short: "Run a code review",
	}
	reviewCmd.AddCommand(prCommand(deps))
	reviewCmd.AddCommand(localCommand(deps))
	root.AddCommand(reviewCmd)

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.PreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}

// reviewFlags is the flag surface shared by the pr and local commands. The
// defaults come from the loaded configuration, so applying the flags back
// unconditionally preserves config values unless a flag was set.
type reviewFlags struct {
	model            string
	temperature      float64
	frequencyPenalty int
	presencePenalty  int
	reviewPerFile    bool
	commentPerFile   bool
	blocking         bool
	maxTokens        int
}

func (f *reviewFlags) register(cmd *cobra.Command, defaults config.ReviewConfig) {
	flags := cmd.Flags()
	flags.StringVar(&f.model, "model", defaults.Model, "Model to request completions from")
	flags.Float64Var(&f.temperature, "temperature", defaults.Temperature, "Sampling temperature")
	flags.IntVar(&f.frequencyPenalty, "frequency-penalty", defaults.FrequencyPenalty, "Frequency penalty (OpenAI models only)")
	flags.IntVar(&f.presencePenalty, "presence-penalty", defaults.PresencePenalty, "Presence penalty (OpenAI models only)")
	flags.BoolVar(&f.reviewPerFile, "review-per-file", defaults.ReviewPerFile, "Request one completion per changed file")
	flags.BoolVar(&f.commentPerFile, "comment-per-file", defaults.CommentPerFile, "Post inline comments on the changed lines")
	flags.BoolVar(&f.blocking, "blocking", defaults.Blocking, "Fail the run when the review cannot be generated")
	flags.IntVar(&f.maxTokens, "max-tokens", defaults.MaxTokens, "Token budget shared between prompt and response")
}

func (f *reviewFlags) apply(cfg *config.Config) {
	cfg.Review.Model = f.model
	cfg.Review.Temperature = f.temperature
	cfg.Review.FrequencyPenalty = f.frequencyPenalty
	cfg.Review.PresencePenalty = f.presencePenalty
	cfg.Review.ReviewPerFile = f.reviewPerFile
	cfg.Review.CommentPerFile = f.commentPerFile
	cfg.Review.Blocking = f.blocking
	cfg.Review.MaxTokens = f.maxTokens
}

func prCommand(deps Dependencies) *cobra.Command {
	var prNumber int
	flags := &reviewFlags{}

	cmd := &cobra.Command{
		Use:   "pr",
		Short: "Review the pull request from the Actions event payload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := deps.Config
			flags.apply(&cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return deps.RunPR(cmd.Context(), cfg, PRRequest{Number: prNumber})
		},
	}

	flags.register(cmd, deps.Config.Review)
	cmd.Flags().IntVar(&prNumber, "pr", 0, "Pull request number (defaults to the event payload)")
	return cmd
}

func localCommand(deps Dependencies) *cobra.Command {
	var baseRef string
	var outputDir string
	var dryRun bool
	flags := &reviewFlags{}

	cmd := &cobra.Command{
		Use:   "local [base]",
		Short: "Review the working tree against a base ref and write a Markdown report",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				baseRef = args[0]
			}
			cfg := deps.Config
			flags.apply(&cfg)
			if err := cfg.ValidateLocal(); err != nil {
				return err
			}
			return deps.RunLocal(cmd.Context(), cfg, LocalRequest{
				BaseRef:   baseRef,
				OutputDir: outputDir,
				DryRun:    dryRun,
			})
		},
	}

	flags.register(cmd, deps.Config.Review)
	cmd.Flags().StringVar(&baseRef, "base", "main", "Base ref to diff against")
	cmd.Flags().StringVar(&outputDir, "output", deps.Config.Output.Directory, "Directory to write the Markdown report to")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Build the prompt and log its size without calling the provider")
	return cmd
}
