package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/tingshu/internal/cache"
	"github.com/dgnsrekt/tingshu/tts"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var showCacheStats bool

var voicesCmd = &cobra.Command{
	Use:     "voices",
	Short:   "List the voices of the speech engine",
	Long:    paragraph(fmt.Sprintf("\n%s the voices tingshu can read with. Chinese voices come first; the marked voice is used when none is configured.", keyword("List"))),
	Example: paragraph("tingshu voices\ntingshu voices --voices-dir ~/piper-voices\ntingshu voices --cache-stats"),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := tts.LoadConfigFromViper()
		if err != nil {
			return err //nolint:wrapcheck
		}

		if showCacheStats {
			c, err := openCache(cfg.Cache, log.Default())
			if err != nil {
				return fmt.Errorf("unable to open audio cache: %w", err)
			}
			defer func() { _ = c.Close() }()
			writeCacheStats(os.Stdout, c.Stats())
			return nil
		}

		cfg.Cache.Enabled = false
		engine := buildEngine(cmd.Context(), cfg, false, log.Default())
		defer func() { _ = engine.Shutdown() }()

		writeVoices(os.Stdout, tts.SortVoices(engine.Voices()), cfg.Voice)
		return nil
	},
}

func init() {
	voicesCmd.Flags().BoolVar(&showCacheStats, "cache-stats", false, "show audio cache usage instead")
}

// writeVoices prints voices in order, marking the one an utterance would
// use for the configured uri.
func writeVoices(w io.Writer, voices []tts.Voice, uri string) {
	if len(voices) == 0 {
		fmt.Fprintln(w, "No voices installed.")
		return
	}

	chosen := tts.ResolveVoice(voices, uri)
	for _, v := range voices {
		mark := "  "
		if !chosen.IsZero() && v.URI == chosen.URI {
			mark = keyword("• ")
		}
		fmt.Fprintf(w, "%s%-28s %-8s %s\n", mark, v.URI, v.Lang, faintStyle.Render(v.Name))
	}
	if uri != "" && chosen.URI != uri {
		fmt.Fprintf(w, "\nConfigured voice %q is not installed.\n", uri)
	}
}

func writeCacheStats(w io.Writer, s cache.ManagerStats) {
	tier := func(name string, t cache.Stats) {
		fmt.Fprintf(w, "%-7s %s / %s, %d items, %d hits, %d misses, %d evictions\n",
			name,
			humanize.Bytes(uint64(t.Size)),     //nolint:gosec
			humanize.Bytes(uint64(t.Capacity)), //nolint:gosec
			t.Items, t.Hits, t.Misses, t.Evictions)
	}

	tier("memory", s.Memory)
	if s.DiskDir != "" {
		tier("disk", s.Disk)
		fmt.Fprintln(w, faintStyle.Render("        "+s.DiskDir))
	}
	fmt.Fprintf(w, "hit rate %.0f%%, %s promotions\n", s.HitRate()*100, humanize.Comma(s.Promotions))
}
