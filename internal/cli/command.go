package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"codeberg.org/snonux/jembatan/internal"
	"codeberg.org/snonux/jembatan/internal/config"
	"codeberg.org/snonux/jembatan/internal/provider"
)

// Actions are the operations behind the subcommands
type Actions interface {
	Serve(ctx context.Context) error
	ShowSettings() error
	SetProvider(id provider.ID, apiKey string) error
	ListHistory(ctx context.Context, limit int) error
	DeleteHistory(ctx context.Context, id string) error
	ExportHistory(ctx context.Context, file string) error
	ExportAnki(ctx context.Context, file, mediaDir string) error
	ListProviders() error
	ArchiveAudio() error
	AudioCache(clearCache bool) error
}

// ActionsFactory creates the Actions once the configuration is loaded
type ActionsFactory func() (Actions, error)

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "jembatan [text...]",
		Short: "Indonesian-Japanese translator for migrant workers",
		Long: `jembatan translates between Indonesian and Japanese.

Free translation services are tried in turn until one answers. With an
API key, OpenAI, Google or DeepL can be used instead. OpenAI results
include romaji and a JLPT level.

Examples:
  jembatan terima kasih                 # Indonesian to Japanese
  jembatan -d jp_to_id ありがとう        # Japanese to Indonesian
  jembatan -p openai --speak selamat pagi
  jembatan --batch phrases.txt          # Translate a file, YAML output
  jembatan serve                        # Run the HTTP API`,
		Args:    cobra.ArbitraryArgs,
		Version: internal.Version,
	}

	// Set up flags
	setupFlags(rootCmd, flags)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	// Global flags
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.jembatan.yaml)")
	cmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&flags.Lang, "lang", "", "Interface language: id, en, ja or auto for the locale (default: id)")
	cmd.PersistentFlags().StringVar(&flags.User, "user", "", "User ID that history entries belong to")

	// Local flags
	cmd.Flags().StringVarP(&flags.Provider, "provider", "p", "", "Provider: "+strings.Join(provider.AllNames(), ", ")+" (default: from settings)")
	cmd.Flags().StringVarP(&flags.Direction, "direction", "d", flags.Direction, "Direction: id_to_jp or jp_to_id")
	cmd.Flags().StringVarP(&flags.APIKey, "api-key", "k", "", "API key for a paid provider (default: from settings)")
	cmd.Flags().BoolVarP(&flags.Swap, "swap", "s", false, "Translate the result back into the source language")
	cmd.Flags().StringVar(&flags.BatchFile, "batch", "", "Translate texts from file (one per line)")
	cmd.Flags().StringVarP(&flags.Output, "output", "o", flags.Output, "Output format: text, json or yaml")
	cmd.Flags().StringVar(&flags.Timeout, "timeout", "", "Overall timeout of a translation, e.g. 20s")
	cmd.Flags().BoolVar(&flags.Save, "save", false, "Save the translation to the history (needs --user)")
	cmd.Flags().BoolVar(&flags.Speak, "speak", false, "Generate pronunciation audio of the translation")
	cmd.Flags().StringVar(&flags.AudioOutput, "audio-output", "", "Directory for generated audio")
	cmd.Flags().BoolVar(&flags.ListModels, "list-models", false, "List available OpenAI models for the current API key")

	// Bind flags to viper
	bindFlagsToViper(cmd.PersistentFlags())
	bindFlagsToViper(cmd.Flags())
}

// flagKeys maps flag names to viper keys
var flagKeys = map[string]string{
	"provider":     "translation.provider",
	"direction":    "translation.direction",
	"timeout":      "translation.timeout",
	"audio-output": "audio.output_dir",
	"log-level":    "log.level",
	"lang":         "ui.language",
}

func bindFlagsToViper(fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			viper.BindPFlag(key, f)
		}
	})
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".jembatan" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".jembatan")
	}

	// Environment variables, e.g. JEMBATAN_TRANSLATION_PROVIDER
	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GetOpenAIKey retrieves the OpenAI API key from environment or config
func GetOpenAIKey() string {
	// First check environment variable
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}

	// Then check config file
	return viper.GetString("providers.openai.api_key")
}

// AddSubcommands adds the serve, settings, history, providers and audio
// commands
func AddSubcommands(root *cobra.Command, newActions ActionsFactory) {
	run := func(fn func(cmd *cobra.Command, a Actions, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			a, err := newActions()
			if err != nil {
				return err
			}
			return fn(cmd, a, args)
		}
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP translation API",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, a Actions, _ []string) error {
			return a.Serve(cmd.Context())
		}),
	}
	serveCmd.Flags().Int("port", 0, "Listen port (default: server.port)")
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))

	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the stored translation provider",
	}
	settingsCmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the stored provider and API keys",
			Args:  cobra.NoArgs,
			RunE: run(func(_ *cobra.Command, a Actions, _ []string) error {
				return a.ShowSettings()
			}),
		},
		&cobra.Command{
			Use:   "set <provider> [api-key]",
			Short: "Store the provider to use; paid providers need an API key",
			Args:  cobra.RangeArgs(1, 2),
			RunE: run(func(_ *cobra.Command, a Actions, args []string) error {
				id, err := provider.ParseID(args[0])
				if err != nil {
					return err
				}
				key := ""
				if len(args) == 2 {
					key = args[1]
				}
				return a.SetProvider(id, key)
			}),
		},
	)

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Manage saved translations of --user",
	}
	listCmd := &cobra.Command{
		Use:   "list [limit]",
		Short: "List saved translations, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: run(func(cmd *cobra.Command, a Actions, args []string) error {
			limit := 0
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 0 {
					return fmt.Errorf("invalid limit: %s", args[0])
				}
				limit = n
			}
			return a.ListHistory(cmd.Context(), limit)
		}),
	}
	historyCmd.AddCommand(
		listCmd,
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a saved translation",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(cmd *cobra.Command, a Actions, args []string) error {
				return a.DeleteHistory(cmd.Context(), args[0])
			}),
		},
		&cobra.Command{
			Use:   "export <file>",
			Short: "Export saved translations as YAML (- for stdout)",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(cmd *cobra.Command, a Actions, args []string) error {
				return a.ExportHistory(cmd.Context(), args[0])
			}),
		},
	)

	ankiCmd := &cobra.Command{
		Use:   "anki <file>",
		Short: "Export saved translations as an Anki CSV deck",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, a Actions, args []string) error {
			media, _ := cmd.Flags().GetString("media")
			return a.ExportAnki(cmd.Context(), args[0], media)
		}),
	}
	ankiCmd.Flags().String("media", "", "Copy pronunciation audio into this directory (Anki's collection.media)")
	historyCmd.AddCommand(ankiCmd)

	audioCmd := &cobra.Command{
		Use:   "audio",
		Short: "Manage generated pronunciation audio",
	}
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Show the size of the text-to-speech cache",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, a Actions, _ []string) error {
			clearCache, _ := cmd.Flags().GetBool("clear")
			return a.AudioCache(clearCache)
		}),
	}
	cacheCmd.Flags().Bool("clear", false, "Remove all cached audio")
	audioCmd.AddCommand(
		cacheCmd,
		&cobra.Command{
			Use:   "archive",
			Short: "Move the generated audio into a timestamped archive directory",
			Args:  cobra.NoArgs,
			RunE: run(func(_ *cobra.Command, a Actions, _ []string) error {
				return a.ArchiveAudio()
			}),
		},
	)

	providersCmd := &cobra.Command{
		Use:   "providers",
		Short: "List the translation providers",
		Args:  cobra.NoArgs,
		RunE: run(func(_ *cobra.Command, a Actions, _ []string) error {
			return a.ListProviders()
		}),
	}

	root.AddCommand(serveCmd, settingsCmd, historyCmd, providersCmd, audioCmd)
}
