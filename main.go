package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"slices"
	"strings"
	"syscall"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/skim/internal/catalog"
	"github.com/charmbracelet/skim/internal/proto"
	"github.com/charmbracelet/skim/internal/summarize"
	"github.com/charmbracelet/x/editor"
	"github.com/joho/godotenv"
	mcobra "github.com/muesli/mango-cobra"
	"github.com/muesli/roff"
	"github.com/spf13/cobra"
)

// Build vars.
var (
	//nolint: gochecknoglobals
	Version   = ""
	CommitSHA = ""
)

func buildVersion() {
	if len(CommitSHA) >= 7 { //nolint:mnd
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Sum != "" {
			Version = info.Main.Version
		} else {
			Version = "unknown (built from source)"
		}
	}
	rootCmd.Version = Version
}

// errReported is returned when the error was already shown to the user.
var errReported = errors.New("error already reported")

var (
	config = defaultConfig()

	rootCmd = &cobra.Command{
		Use:           "skim",
		Short:         "Article summaries on the command line.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	manCmd = &cobra.Command{
		Use:                   "man",
		Short:                 "Generates manpages",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Hidden:                true,
		Args:                  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			manPage, err := mcobra.NewManPage(1, rootCmd)
			if err != nil {
				//nolint:wrapcheck
				return err
			}
			_, err = fmt.Fprint(os.Stdout, manPage.Build(roff.NewDocument()))
			//nolint:wrapcheck
			return err
		},
	}
)

func run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	switch {
	case config.Settings:
		c, err := editor.Cmd("skim", config.SettingsPath)
		if err != nil {
			return skimError{err, "Could not edit your settings file."}
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return skimError{err, fmt.Sprintf(
				"Missing %s.",
				stderrStyles().InlineCode.Render("$EDITOR"),
			)}
		}
		if !config.Quiet {
			fmt.Fprintln(os.Stderr, "Wrote config file to:", config.SettingsPath)
		}
		return nil
	case config.ResetSettings:
		return resetSettings(config)
	case config.ShowHelp:
		return cmd.Usage()
	}

	var modelID string
	if cmd.Flags().Changed("model") {
		modelID = config.Model
	}

	if isManagementCmd() {
		logger := newLogger(config.LogLevel)
		client, err := newHTTPClient(config)
		if err != nil {
			return err
		}
		a, err := newApp(ctx, config, logger, client)
		if err != nil {
			return err
		}
		defer a.close() //nolint:errcheck
		if err := a.start(ctx, modelID); err != nil {
			return err
		}
		return a.manage(ctx)
	}

	input := strings.Join(args, " ")
	if input == "" && isInputTTY() {
		return cmd.Usage()
	}

	a, payload, err := prepare(ctx, config, input)
	if err != nil {
		return err
	}
	defer a.close() //nolint:errcheck
	if err := a.start(ctx, modelID); err != nil {
		return err
	}
	a.session.SetArticle(payload)
	return a.summarize(ctx)
}

func isManagementCmd() bool {
	return config.ListModels ||
		config.SelectModel ||
		config.AddModel != "" ||
		config.DeleteModel != "" ||
		config.SetKey != "" ||
		config.ClearKey != ""
}

func (a *app) manage(ctx context.Context) error {
	switch {
	case config.ListModels:
		a.listModels(os.Stdout)
		return nil
	case config.SelectModel:
		return a.selectModel(ctx)
	case config.AddModel != "":
		return a.addModel(ctx, config.AddModel, config.Thinking)
	case config.DeleteModel != "":
		return a.deleteModel(ctx, config.DeleteModel)
	case config.SetKey != "":
		return a.setKey(ctx, catalog.ProviderID(config.SetKey), os.Stdin)
	default:
		return a.clearKey(ctx, catalog.ProviderID(config.ClearKey))
	}
}

// summarize runs the summarization, offers to retry failures that may
// succeed on a second try, then the chat.
func (a *app) summarize(ctx context.Context) error {
	var (
		gate summarize.Gate
		res  proto.Result
	)
	gate.Do(func() { res = a.session.Summarize(ctx) })

	interactive := isInputTTY() && isErrTTY()
	for !res.OK() {
		model, _ := a.session.Resolve()
		err := resultError(res, model)
		if !interactive || !res.Err.Kind.Retryable() {
			return err
		}
		handleError(err)
		again, cerr := confirm(ctx, "Try again?")
		if cerr != nil || !again {
			return errReported
		}
		var rerr error
		gate.Do(func() {
			res, rerr = a.session.Retry(ctx)
		})
		if rerr != nil {
			return errReported
		}
	}

	if err := a.print(res); err != nil {
		return err
	}

	if config.Chat {
		if !interactive {
			return newUserErrorf("chat needs a terminal")
		}
		if err := a.chat(ctx, &gate); err != nil {
			return err
		}
	}

	if config.Copy {
		return a.copy()
	}
	return nil
}

func (a *app) chat(ctx context.Context, gate *summarize.Gate) error {
	for {
		text, err := askFollowUp(ctx)
		if errors.Is(err, errUserAborted) || (err == nil && text == "") {
			return nil
		}
		if err != nil {
			return err
		}

		var res proto.Result
		gate.Do(func() {
			res, err = a.session.FollowUp(ctx, text)
		})
		if err != nil {
			return skimError{err, "Could not send the message."}
		}
		for !res.OK() {
			model, _ := a.session.Resolve()
			handleError(resultError(res, model))
			if !res.Err.Kind.Retryable() {
				break
			}
			again, cerr := confirm(ctx, "Try again?")
			if cerr != nil || !again {
				break
			}
			gate.Do(func() {
				res, err = a.session.Retry(ctx)
			})
			if err != nil {
				break
			}
		}
		if res.OK() {
			if err := a.print(res); err != nil {
				return err
			}
		}
	}
}

func (a *app) print(res proto.Result) error {
	out, err := formatOutput(res.HTML, config.Raw, isOutputTTY())
	if err != nil {
		return skimError{err, "Could not render the summary."}
	}
	if res.Warning != "" {
		fmt.Fprintln(os.Stderr, stderrStyles().Warning.Render("  "+res.Warning))
	}
	if isOutputTTY() && !config.Raw {
		fmt.Print(out)
		return nil
	}
	fmt.Println(out)
	return nil
}

func (a *app) copy() error {
	chat := a.session.Chat()
	var text string
	if len(chat) > 2 { //nolint:mnd
		text = transcript(chat)
	} else {
		html := a.session.Last().HTML
		text = html
		if !config.Raw {
			md, err := toMarkdown(html)
			if err != nil {
				return skimError{err, "Could not render the summary."}
			}
			text = md
		}
	}
	if err := clipboard.WriteAll(text); err != nil {
		return skimError{err, "Could not copy to the clipboard."}
	}
	if !config.Quiet {
		fmt.Fprintln(os.Stderr, stderrStyles().Comment.Render("  Copied to the clipboard."))
	}
	return nil
}

func initFlags() {
	flags := rootCmd.Flags()
	flags.StringVarP(&config.Model, "model", "m", config.Model, stdoutStyles().FlagDesc.Render(help["model"]))
	flags.StringVarP(&config.Language, "language", "l", config.Language, stdoutStyles().FlagDesc.Render(help["language"]))
	flags.BoolVarP(&config.Chat, "chat", "c", config.Chat, stdoutStyles().FlagDesc.Render(help["chat"]))
	flags.BoolVarP(&config.Raw, "raw", "r", config.Raw, stdoutStyles().FlagDesc.Render(help["raw"]))
	flags.BoolVar(&config.Copy, "copy", config.Copy, stdoutStyles().FlagDesc.Render(help["copy"]))
	flags.BoolVarP(&config.Quiet, "quiet", "q", config.Quiet, stdoutStyles().FlagDesc.Render(help["quiet"]))
	flags.Var(newDurationFlag(config.Timeout, &config.Timeout), "timeout", stdoutStyles().FlagDesc.Render(help["timeout"]))
	flags.Var(newDurationFlag(config.ReasoningTimeout, &config.ReasoningTimeout), "reasoning-timeout", stdoutStyles().FlagDesc.Render(help["reasoning-timeout"]))
	flags.BoolVar(&config.NoCache, "no-cache", config.NoCache, stdoutStyles().FlagDesc.Render(help["no-cache"]))
	flags.StringVar(&config.HTTPProxy, "http-proxy", config.HTTPProxy, stdoutStyles().FlagDesc.Render(help["http-proxy"]))
	flags.BoolVar(&config.ListModels, "list-models", false, stdoutStyles().FlagDesc.Render(help["list-models"]))
	flags.BoolVar(&config.SelectModel, "select-model", false, stdoutStyles().FlagDesc.Render(help["select-model"]))
	flags.StringVar(&config.AddModel, "add-model", "", stdoutStyles().FlagDesc.Render(help["add-model"]))
	flags.Lookup("add-model").NoOptDefVal = "-"
	flags.BoolVar(&config.Thinking, "thinking", false, stdoutStyles().FlagDesc.Render(help["thinking"]))
	flags.StringVar(&config.DeleteModel, "delete-model", "", stdoutStyles().FlagDesc.Render(help["delete-model"]))
	flags.Var(newProviderFlag(&config.SetKey), "set-key", stdoutStyles().FlagDesc.Render(help["set-key"]))
	flags.Var(newProviderFlag(&config.ClearKey), "clear-key", stdoutStyles().FlagDesc.Render(help["clear-key"]))
	flags.BoolVarP(&config.ShowHelp, "help", "h", false, stdoutStyles().FlagDesc.Render(help["help"]))
	flags.BoolVarP(&config.Version, "version", "v", false, stdoutStyles().FlagDesc.Render(help["version"]))
	flags.BoolVar(&config.Settings, "settings", false, stdoutStyles().FlagDesc.Render(help["settings"]))
	flags.BoolVar(&config.ResetSettings, "reset-settings", config.ResetSettings, stdoutStyles().FlagDesc.Render(help["reset-settings"]))
	flags.SortFlags = false

	rootCmd.MarkFlagsMutuallyExclusive(
		"settings",
		"reset-settings",
		"list-models",
		"select-model",
		"add-model",
		"delete-model",
		"set-key",
		"clear-key",
	)

	rootCmd.SetUsageFunc(usageFunc)
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return newFlagParseError(err)
	})
}

func main() {
	_ = godotenv.Load()

	// man pages and completions do not need the settings file.
	if !isCompletionCmd(os.Args) && !isManCmd(os.Args) {
		var err error
		config, err = ensureConfig()
		if err != nil {
			handleError(skimError{err, "Could not load your configuration file."})
			os.Exit(1)
		}
	}

	buildVersion()
	initFlags()
	rootCmd.AddCommand(manCmd)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		switch {
		case errors.Is(err, errUserAborted):
		case errors.Is(err, errReported):
		default:
			handleError(err)
		}
		cancel()
		os.Exit(1)
	}
}

func isCompletionCmd(args []string) bool {
	if len(args) <= 1 {
		return false
	}
	if args[1] == "__complete" {
		return true
	}
	if args[1] != "completion" {
		return false
	}
	if len(args) == 3 && slices.Contains([]string{"-h", "--help", "help"}, args[2]) {
		return true
	}
	if len(args) == 3 {
		return slices.Contains([]string{"bash", "fish", "zsh", "powershell"}, args[2])
	}
	if len(args) == 4 {
		return slices.Contains([]string{"bash", "fish", "zsh", "powershell"}, args[2]) &&
			slices.Contains([]string{"-h", "--help"}, args[3])
	}
	return false
}

func isManCmd(args []string) bool {
	if len(args) == 2 {
		return args[1] == "man"
	}
	if len(args) == 3 && args[1] == "man" {
		return args[2] == "-h" || args[2] == "--help"
	}
	return false
}
