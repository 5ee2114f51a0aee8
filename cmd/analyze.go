package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/ai"
	"github.com/spigell/jobmatch/internal/ai/gemini"
	"github.com/spigell/jobmatch/internal/analysis"
	"github.com/spigell/jobmatch/internal/logger"
	"github.com/spigell/jobmatch/internal/present"
	"github.com/spigell/jobmatch/internal/secrets"
	"github.com/spigell/jobmatch/internal/workflow"
)

const (
	PromptAnotherResume = "Analyze another resume"
	PromptExit          = "Exit"
	PromptClose         = "Close"
	tokenEnv            = envPrefix + "_API_TOKEN"
	geminiKeyEnv        = "GEMINI_API_KEY"
)

var errExit = errors.New("exit requested")

var analyzeCmd = &cobra.Command{
	Use:   "analyze [resume.pdf]",
	Short: "Upload a resume, show the extracted profile and browse matching jobs",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		analyze(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().BoolP("yes", "y", false, "print results and exit without interactive browsing")
	analyzeCmd.Flags().Bool("report", false, "print matches grouped by company as JSON")
	analyzeCmd.Flags().Duration("timeout", 0, "timeout for each call to the analysis service")

	viper.BindPFlag("timeout", analyzeCmd.Flags().Lookup("timeout"))
}

// analyze is the main command for the cli.
func analyze(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the jobmatch", zap.String("version", version), zap.String("api_url", config.APIURL))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	client, err := newClient(config, logger)
	if err != nil {
		logger.Fatal(
			"loading analysis service token",
			zap.Error(err),
			zap.String("hint", "set token-file in the configuration file or "+tokenEnv),
		)
	}

	coach, err := newCoach(ctx, config.AI, config.MaxLogLength, logger)
	if err != nil {
		logger.Warn("skipping ai follow-up questions", zap.Error(err))
	}

	ctrl := workflow.New(client, logger)
	v := newView(cmd.OutOrStdout(), logger, coach, config.AI.QuestionLimit)
	ctrl.Subscribe(v.onState)

	interactive := !flagBool(cmd, "yes")
	report := flagBool(cmd, "report")

	path := ""
	if len(args) > 0 {
		path = args[0]
	}

	for {
		if path == "" {
			if !interactive {
				logger.Fatal(workflow.MsgSelectFile, zap.String("hint", "pass the resume path as an argument"))
			}
			if path, err = askPath(); err != nil {
				logger.Fatal("exiting", zap.Error(err))
			}
		}

		state, err := runCycle(ctx, ctrl, v, path, logger)
		path = ""
		if err != nil {
			if !interactive {
				logger.Fatal("analyzing resume", zap.Error(err))
			}
			logger.Error("analyzing resume", zap.Error(err))
			continue
		}

		if report && state.Matches.Len() > 0 {
			pretty, _ := json.MarshalIndent(present.ReportByCompany(state.Matches), "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(pretty))
		}

		if !interactive {
			if state.Phase == workflow.PhaseError {
				logger.Fatal("analysis failed", zap.String("message", state.Message), zap.Error(state.Cause))
			}
			return
		}

		if err := browse(ctx, ctrl, v, state); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

// runCycle selects the document at path and analyzes it.
func runCycle(ctx context.Context, ctrl *workflow.Controller, v *view, path string, logger *zap.Logger) (workflow.State, error) {
	doc, err := analysis.OpenDocument(path)
	if err != nil {
		return workflow.State{}, err
	}

	if doc.ExceedsSizeHint() {
		logger.Warn("document is larger than the advertised limit",
			zap.String("file", doc.Name),
			zap.Int("size", doc.Size()),
			zap.Int("hint", analysis.SizeHint),
		)
	}

	ctrl.SelectFile(doc)
	v.selection(doc)

	state, err := ctrl.Analyze(ctx)
	switch {
	case errors.Is(err, workflow.ErrNoFileSelected):
		return state, errors.New(workflow.MsgSelectFile)
	case err != nil:
		return state, err
	}

	v.results(state)
	return state, nil
}

// browse lets the user open job details until another resume or exit is chosen.
func browse(ctx context.Context, ctrl *workflow.Controller, v *view, state workflow.State) error {
	items := make([]string, 0, state.Matches.Len()+2)
	for _, job := range state.Matches {
		items = append(items, present.NewCard(job).Label())
	}
	items = append(items, PromptAnotherResume, PromptExit)

	for {
		selectJob := promptui.Select{
			Label: "View details",
			Items: items,
			Size:  10,
		}

		idx, choice, err := selectJob.Run()
		if err != nil {
			return err
		}

		switch choice {
		case PromptAnotherResume:
			return nil
		case PromptExit:
			return errExit
		}

		job, err := ctrl.OpenJob(idx)
		if err != nil {
			return err
		}
		v.detail(ctx, job)

		closeDetail := promptui.Select{Label: "Details", Items: []string{PromptClose}}
		if _, _, err := closeDetail.Run(); err != nil {
			return err
		}
		ctrl.CloseJob()
	}
}

func askPath() (string, error) {
	prompt := promptui.Prompt{
		Label: "Resume PDF",
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return errors.New(workflow.MsgSelectFile)
			}
			return nil
		},
	}

	path, err := prompt.Run()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(path), nil
}

func newClient(config *Config, logger *zap.Logger) (*analysis.Client, error) {
	token, err := secrets.LoadOptional(secrets.Source{
		Name: "analysis service token",
		File: config.TokenFile,
		Env:  tokenEnv,
	})
	if err != nil {
		return nil, err
	}

	client := analysis.New(config.APIURL, token, config.Timeout, logger)
	if config.UserAgent != "" {
		client.UserAgent = config.UserAgent
	}
	if config.MaxLogLength > 0 {
		client.MaxLogLength = config.MaxLogLength
	}

	return client, nil
}

func newCoach(ctx context.Context, cfg *AIConfig, maxLogLength int, baseLogger *zap.Logger) (ai.Coach, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	if cfg.Gemini == nil {
		return nil, fmt.Errorf("gemini configuration is required when ai is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
		Env:  geminiKeyEnv,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or %s)", err, geminiKeyEnv)
	}

	genLogger := logger.WithCommonFields(baseLogger, "gemini", cfg.Gemini.Model).With(
		zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries),
	)

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
	if err != nil {
		return nil, err
	}

	coachLogger := logger.WithCommonFields(baseLogger, "gemini", generator.Model())

	return gemini.NewCoach(generator, maxLogLength, coachLogger), nil
}

func flagBool(cmd *cobra.Command, name string) bool {
	flag := cmd.Flag(name)
	return flag != nil && strings.EqualFold(flag.Value.String(), "true")
}
