package piper

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dgnsrekt/tingshu/tts"
)

const (
	modelExt  = ".onnx"
	configExt = ".onnx.json"
)

// model is one installed piper voice.
type model struct {
	tts.Voice
	Path        string
	SampleRate  int
	NumSpeakers int
}

// modelConfig is the subset of a piper .onnx.json file we read.
type modelConfig struct {
	Dataset string `json:"dataset"`
	Audio   struct {
		SampleRate int    `json:"sample_rate"`
		Quality    string `json:"quality"`
	} `json:"audio"`
	Language struct {
		Code       string `json:"code"`
		NameNative string `json:"name_native"`
	} `json:"language"`
	NumSpeakers int `json:"num_speakers"`
}

// scanVoices finds every model in dir that has a config file next to it.
// Models are ordered by file name.
func scanVoices(dir string, defaultRate int) ([]model, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read voices dir: %w", err)
	}

	var models []model
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, modelExt) {
			continue
		}

		path := filepath.Join(dir, name)
		m, err := loadModel(path, defaultRate)
		if err != nil {
			continue
		}
		models = append(models, m)
	}

	sort.Slice(models, func(i, j int) bool {
		return models[i].URI < models[j].URI
	})
	return models, nil
}

func loadModel(path string, defaultRate int) (model, error) {
	raw, err := os.ReadFile(path + ".json")
	if err != nil {
		return model{}, err
	}

	var cfg modelConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return model{}, fmt.Errorf("parse %s: %w", path+".json", err)
	}

	uri := strings.TrimSuffix(filepath.Base(path), modelExt)
	name := cfg.Dataset
	if name == "" {
		name = uri
	}
	if cfg.Audio.Quality != "" {
		name += " (" + cfg.Audio.Quality + ")"
	}
	if cfg.Language.NameNative != "" {
		name = cfg.Language.NameNative + " " + name
	}

	rate := cfg.Audio.SampleRate
	if rate == 0 {
		rate = defaultRate
	}

	return model{
		Voice: tts.Voice{
			URI:  uri,
			Name: name,
			Lang: tts.NormalizeLang(cfg.Language.Code),
		},
		Path:        path,
		SampleRate:  rate,
		NumSpeakers: cfg.NumSpeakers,
	}, nil
}

// isVoiceFile reports whether a change to path can alter the voice list.
func isVoiceFile(path string) bool {
	return strings.HasSuffix(path, modelExt) || strings.HasSuffix(path, configExt)
}
