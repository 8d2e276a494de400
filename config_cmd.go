package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/dgnsrekt/tingshu/tts"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const defaultConfig = `# mouse support
mouse: false

# Speech configuration
tts:
  # engine: piper or mock (silent, for trying out the reader)
  engine: "piper"
  # play nothing, just advance through the book
  mute: false
  # speech rate (0.5 to 2.0)
  rate: 1.0
  # pitch (ignored by piper)
  pitch: 1.0
  # volume (0.0 to 1.0)
  volume: 1.0
  # voice to read with, empty selects the first zh-CN voice
  # voice: "zh_CN-huayan-medium"

  # Piper TTS engine configuration
  piper:
    binary: "piper"
    # directory of *.onnx models with their .onnx.json configs
    voices_dir: "~/.local/share/piper"
    # audio device sample rate, most piper voices use 22050
    sample_rate: 22050
    # speaker for multi-speaker models, -1 for the model default
    speaker_id: -1
    timeout: "30s"
    # pick up voices added while reading
    watch: true

  # Mock TTS engine configuration
  mock:
    generation_delay: "50ms"
    chars_per_second: 4.5

  # Synthesized audio cache
  cache:
    enabled: true
    # dir: "~/.cache/tingshu/audio"
    memory_size: 67108864
    disk_size: 536870912
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the tingshu config file",
	Long:    paragraph(fmt.Sprintf("\n%s the tingshu config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("tingshu config\ntingshu config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("tingshu", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		if err := checkConfigFile(configFile); err != nil {
			fmt.Println(faintStyle.Render("Warning: " + err.Error()))
		}
		return nil
	},
}

// fileConfig is the layout of the config file.
type fileConfig struct {
	Mouse bool       `yaml:"mouse"`
	TTS   tts.Config `yaml:"tts"`
}

func parseConfig(data []byte) (fileConfig, error) {
	cfg := fileConfig{TTS: tts.DefaultConfig()}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("unable to parse config: %w", err)
	}
	if err := cfg.TTS.Validate(); err != nil {
		return cfg, err //nolint:wrapcheck
	}
	return cfg, nil
}

// checkConfigFile reports problems in an edited config file.
func checkConfigFile(name string) error {
	data, err := os.ReadFile(name)
	if err != nil {
		return fmt.Errorf("unable to read config file: %w", err)
	}
	_, err = parseConfig(data)
	return err
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
