package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v9"
	"github.com/charmbracelet/skim/internal/catalog"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

var help = map[string]string{
	"model":             "Default model (gemini-2.0-flash, gpt-4.1-mini, o4-mini...).",
	"language":          "Language of the summary, as a language code (en, de, pt-BR...). Empty uses the article's language.",
	"raw":               "Print the summary HTML as is.",
	"quiet":             "Quiet mode (hide the spinner while loading).",
	"chat":              "Ask follow-up questions about the article after the summary.",
	"copy":              "Copy the summary (or the chat transcript) to the clipboard.",
	"timeout":           "Timeout for models without extended reasoning.",
	"reasoning-timeout": "Timeout for models that use extended reasoning.",
	"page-cache-ttl":    "How long fetched pages are cached. 0 disables the cache.",
	"no-cache":          "Do not read or write the page cache.",
	"http-proxy":        "HTTP proxy to use for API requests and page fetches.",
	"data-path":         "Where skim keeps its settings store and page cache.",
	"redis-url":         "Keep keys, custom models and the last model in Redis instead of the local store.",
	"log-level":         "Log level (debug, info, warn, error).",
	"providers":         "Endpoints and API key environment variables per provider.",
	"list-models":       "List the available models.",
	"select-model":      "Pick the model to use from now on.",
	"add-model":         "Add a custom model, as PROVIDER:ID. Without a value a form is shown.",
	"thinking":          "Mark the model being added as using extended reasoning.",
	"delete-model":      "Delete a custom model.",
	"set-key":           "Set the API key of a provider (openai, gemini).",
	"clear-key":         "Clear the API key of a provider (openai, gemini).",
	"help":              "Show help and exit.",
	"version":           "Show version and exit.",
	"settings":          "Open settings in your $EDITOR.",
	"reset-settings":    "Backup your old settings file and reset everything to the defaults.",
}

// ProviderConfig configures one provider.
type ProviderConfig struct {
	BaseURL   string `yaml:"base-url"`
	APIKeyEnv string `yaml:"api-key-env"`
}

// Providers holds the provider settings.
type Providers struct {
	OpenAI ProviderConfig `yaml:"openai"`
	Gemini ProviderConfig `yaml:"gemini"`
}

// KeyEnv maps providers to the environment variable holding their key.
func (p Providers) KeyEnv() map[catalog.ProviderID]string {
	return map[catalog.ProviderID]string{
		catalog.OpenAI: p.OpenAI.APIKeyEnv,
		catalog.Gemini: p.Gemini.APIKeyEnv,
	}
}

// Config holds the main configuration and is mapped to the YAML settings file.
type Config struct {
	Model            string        `yaml:"default-model" env:"MODEL"`
	Language         string        `yaml:"language" env:"LANGUAGE"`
	Raw              bool          `yaml:"raw" env:"RAW"`
	Quiet            bool          `yaml:"quiet" env:"QUIET"`
	Timeout          time.Duration `yaml:"timeout" env:"TIMEOUT"`
	ReasoningTimeout time.Duration `yaml:"reasoning-timeout" env:"REASONING_TIMEOUT"`
	PageCacheTTL     time.Duration `yaml:"page-cache-ttl" env:"PAGE_CACHE_TTL"`
	HTTPProxy        string        `yaml:"http-proxy" env:"HTTP_PROXY"`
	DataPath         string        `yaml:"data-path" env:"DATA_PATH"`
	RedisURL         string        `yaml:"redis-url" env:"REDIS_URL"`
	LogLevel         string        `yaml:"log-level" env:"LOG_LEVEL"`
	Providers        Providers     `yaml:"providers"`

	ShowHelp      bool
	Version       bool
	Settings      bool
	SettingsPath  string
	ResetSettings bool
	Chat          bool
	Copy          bool
	NoCache       bool
	ListModels    bool
	SelectModel   bool
	AddModel      string
	Thinking      bool
	DeleteModel   string
	SetKey        string
	ClearKey      string
}

func defaultConfig() Config {
	return Config{
		Model:            catalog.DefaultModelID,
		Timeout:          time.Minute,
		ReasoningTimeout: 5 * time.Minute,
		PageCacheTTL:     time.Hour,
		LogLevel:         "warn",
		Providers: Providers{
			OpenAI: ProviderConfig{BaseURL: catalog.OpenAIEndpoint, APIKeyEnv: "OPENAI_API_KEY"},
			Gemini: ProviderConfig{BaseURL: catalog.GeminiEndpoint, APIKeyEnv: "GEMINI_API_KEY"},
		},
	}
}

func ensureConfig() (Config, error) {
	c := defaultConfig()
	sp, err := xdg.ConfigFile(filepath.Join("skim", "skim.yml"))
	if err != nil {
		return c, skimError{err, "Could not find settings path."}
	}
	c.SettingsPath = sp

	dir := filepath.Dir(sp)
	if dirErr := os.MkdirAll(dir, 0o700); dirErr != nil { //nolint:mnd
		return c, skimError{dirErr, "Could not create settings directory."}
	}

	if dirErr := writeConfigFile(sp); dirErr != nil {
		return c, dirErr
	}
	content, err := os.ReadFile(sp)
	if err != nil {
		return c, skimError{err, "Could not read settings file."}
	}
	if err := yaml.Unmarshal(content, &c); err != nil {
		return c, skimError{err, "Could not parse settings file."}
	}

	if err := env.ParseWithOptions(&c, env.Options{Prefix: "SKIM_"}); err != nil {
		return c, skimError{err, "Could not parse environment into settings file."}
	}

	if c.DataPath == "" {
		c.DataPath = filepath.Join(xdg.DataHome, "skim")
	}
	if err := os.MkdirAll(c.DataPath, 0o700); err != nil { //nolint:mnd
		return c, skimError{err, "Could not create data directory."}
	}

	return c, nil
}

func writeConfigFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return createConfigFile(path)
	} else if err != nil {
		return skimError{err, "Could not stat path."}
	}
	return nil
}

// formatDuration drops the zero units time.Duration.String keeps, 1h0m0s
// becomes 1h.
func formatDuration(d time.Duration) string {
	s := d.String()
	if strings.HasSuffix(s, "m0s") {
		s = strings.TrimSuffix(s, "0s")
	}
	if strings.HasSuffix(s, "h0m") {
		s = strings.TrimSuffix(s, "0m")
	}
	return s
}

func createConfigFile(path string) error {
	tmpl := template.Must(template.New("config").Funcs(template.FuncMap{
		"duration": formatDuration,
	}).Parse(configTemplate))

	f, err := os.Create(path)
	if err != nil {
		return skimError{err, "Could not create configuration file."}
	}
	defer func() { _ = f.Close() }()

	m := struct {
		Config Config
		Help   map[string]string
	}{
		Config: defaultConfig(),
		Help:   help,
	}
	if err := tmpl.Execute(f, m); err != nil {
		return skimError{err, "Could not render template."}
	}
	return nil
}

func resetSettings(cfg Config) error {
	_, err := os.Stat(cfg.SettingsPath)
	if err != nil {
		return skimError{err, "Couldn't read config file."}
	}
	inputFile, err := os.Open(cfg.SettingsPath)
	if err != nil {
		return skimError{err, "Couldn't open config file."}
	}
	defer inputFile.Close() //nolint:errcheck
	outputFile, err := os.Create(cfg.SettingsPath + ".bak")
	if err != nil {
		return skimError{err, "Couldn't backup config file."}
	}
	defer outputFile.Close() //nolint:errcheck
	if _, err := outputFile.ReadFrom(inputFile); err != nil {
		return skimError{err, "Couldn't write config file."}
	}
	// The copy was successful, so now delete the original file
	if err := os.Remove(cfg.SettingsPath); err != nil {
		return skimError{err, "Couldn't remove config file."}
	}
	if err := writeConfigFile(cfg.SettingsPath); err != nil {
		return skimError{err, "Couldn't write new config file."}
	}
	fmt.Fprintln(os.Stderr, "\n  Settings restored to defaults!")
	fmt.Fprintf(os.Stderr,
		"\n  %s %s\n\n",
		stderrStyles().Comment.Render("Your old settings have been saved to:"),
		stderrStyles().Link.Render(cfg.SettingsPath+".bak"),
	)
	return nil
}

func useLine() string {
	appName := filepath.Base(os.Args[0])

	if stdoutRenderer().ColorProfile() == termenv.TrueColor {
		appName = makeGradientText(stdoutStyles().AppName, appName)
	}

	return fmt.Sprintf(
		"%s %s",
		appName,
		stdoutStyles().CliArgs.Render("[OPTIONS] [URL|FILE|-]"),
	)
}

func usageFunc(cmd *cobra.Command) error {
	fmt.Printf("Article summaries on the command line.\n\n")
	fmt.Printf(
		"Usage:\n  %s\n\n",
		useLine(),
	)
	fmt.Println("Options:")
	cmd.Flags().VisitAll(func(f *flag.Flag) {
		if f.Hidden {
			return
		}
		if f.Shorthand == "" {
			fmt.Printf(
				"  %-44s %s\n",
				stdoutStyles().Flag.Render("--"+f.Name),
				stdoutStyles().FlagDesc.Render(f.Usage),
			)
		} else {
			fmt.Printf(
				"  %s%s %-40s %s\n",
				stdoutStyles().Flag.Render("-"+f.Shorthand),
				stdoutStyles().FlagComma,
				stdoutStyles().Flag.Render("--"+f.Name),
				stdoutStyles().FlagDesc.Render(f.Usage),
			)
		}
	})
	desc, example := randomExample()
	fmt.Printf(
		"\nExample:\n  %s\n  %s\n",
		stdoutStyles().Comment.Render("# "+desc),
		cheapHighlighting(stdoutStyles(), example),
	)

	return nil
}
