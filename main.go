// Package main provides the entry point for the tingshu CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/tingshu/tts"
	"github.com/dgnsrekt/tingshu/tts/speech"
	"github.com/dgnsrekt/tingshu/ui"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	mouse      bool
	ttsConfig  tts.Config

	rootCmd = &cobra.Command{
		Use:   "tingshu FILE",
		Short: "Listen to TXT novels in the terminal",
		Long: paragraph(
			fmt.Sprintf("\nRead a TXT novel chapter by chapter and %s.", keyword("have it read aloud")),
		),
		Example:          paragraph("tingshu 三体.txt\ntingshu --engine mock --mute 三体.txt\ntingshu --rate 1.3 --voice zh_CN-huayan-medium 三体.txt"),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.ExactArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return []string{"txt"}, cobra.ShellCompDirectiveFilterFileExt
		},
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

// validateOptions reads the speech settings from flags, the environment and
// the config file.
func validateOptions(cmd *cobra.Command) error {
	if cmd.Flags().Changed("config") {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
	}

	mouse = viper.GetBool("mouse")

	cfg, err := tts.LoadConfigFromViper()
	if err != nil {
		return err //nolint:wrapcheck
	}
	ttsConfig = cfg
	return nil
}

func execute(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("unable to get absolute path: %w", err)
	}
	st, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("unable to open file: %w", err)
	}
	if st.IsDir() {
		return fmt.Errorf("%s is a directory", args[0])
	}

	return runTUI(cmd.Context(), path, ttsConfig)
}

func runTUI(ctx context.Context, path string, cfg tts.Config) error {
	// Read environment to get TUI settings
	uiCfg, err := ui.ConfigFromEnv()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}
	uiCfg.Path = path
	uiCfg.EnableMouse = uiCfg.EnableMouse || mouse

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger := log.Default()
	engine := buildEngine(ctx, cfg, true, logger)
	player := buildPlayer(cfg, logger)
	defer closePlayer(player)

	adapter := speech.New(engine, player, speech.WithLogger(logger))
	defer func() {
		if err := adapter.Close(); err != nil {
			log.Warn("unable to shut down speech engine", "error", err)
		}
	}()

	seq := tts.NewSequencer(adapter,
		tts.WithLogger(logger),
		tts.WithSpeechConfig(cfg.Speech()),
	)

	log.Info("opening book", "file", path, "engine", cfg.Engine, "rate", cfg.Rate, "mute", cfg.Mute)

	// Run Bubble Tea program
	if _, err := ui.NewProgram(uiCfg, seq, adapter).Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tts.SetDefaults()
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", configFile, "config file")
	rootCmd.PersistentFlags().StringP("engine", "e", "piper", "speech engine (piper, mock)")
	rootCmd.PersistentFlags().String("voices-dir", "", "directory of piper voice models")
	rootCmd.Flags().Float64P("rate", "r", 1.0, "speech rate (0.5 to 2.0)")
	rootCmd.Flags().String("voice", "", "voice to read with (see 'tingshu voices')")
	rootCmd.Flags().Bool("mute", false, "advance through the book without audio output")
	rootCmd.Flags().BoolVarP(&mouse, "mouse", "m", false, "enable mouse wheel")

	// Config bindings
	_ = viper.BindPFlag("tts.engine", rootCmd.PersistentFlags().Lookup("engine"))
	_ = viper.BindPFlag("tts.piper.voices_dir", rootCmd.PersistentFlags().Lookup("voices-dir"))
	_ = viper.BindPFlag("tts.rate", rootCmd.Flags().Lookup("rate"))
	_ = viper.BindPFlag("tts.voice", rootCmd.Flags().Lookup("voice"))
	_ = viper.BindPFlag("tts.mute", rootCmd.Flags().Lookup("mute"))
	_ = viper.BindPFlag("mouse", rootCmd.Flags().Lookup("mouse"))

	rootCmd.AddCommand(chaptersCmd, voicesCmd, configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "tingshu")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "tingshu")}, dirs...)
	}

	if c := os.Getenv("TINGSHU_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("tingshu")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("tingshu")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", used)
		configFile = used
		return
	}

	configFile = filepath.Join(dirs[0], "tingshu.yml")
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
