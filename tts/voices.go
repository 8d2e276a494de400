package tts

import (
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// DefaultLang is the language of the preferred default voice.
const DefaultLang = "zh-CN"

// NormalizeLang converts engine language codes such as "zh_CN" into BCP 47
// form. Codes the parser rejects are returned with underscores replaced.
func NormalizeLang(lang string) string {
	lang = strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if lang == "" {
		return ""
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return lang
	}
	return tag.String()
}

// IsChinese reports whether a voice speaks any Chinese variant.
func IsChinese(v Voice) bool {
	return strings.Contains(strings.ToLower(v.Lang), "zh")
}

// SortVoices returns a copy of voices with Chinese voices first. Order
// within each group is preserved.
func SortVoices(voices []Voice) []Voice {
	sorted := make([]Voice, len(voices))
	copy(sorted, voices)
	sort.SliceStable(sorted, func(i, j int) bool {
		return IsChinese(sorted[i]) && !IsChinese(sorted[j])
	})
	return sorted
}

// ResolveVoice picks the voice for an utterance. A known uri wins, then the
// first voice whose language is exactly zh-CN. When neither exists the zero
// Voice is returned, which selects the engine default.
func ResolveVoice(voices []Voice, uri string) Voice {
	if uri != "" {
		if v, ok := FindVoice(voices, uri); ok {
			return v
		}
	}
	for _, v := range voices {
		if v.Lang == DefaultLang {
			return v
		}
	}
	return Voice{}
}

// FindVoice looks up a voice by URI.
func FindVoice(voices []Voice, uri string) (Voice, bool) {
	for _, v := range voices {
		if v.URI == uri {
			return v, true
		}
	}
	return Voice{}, false
}

// NextVoiceURI cycles through the default voice ("") followed by every
// voice in order.
func NextVoiceURI(voices []Voice, current string) string {
	if len(voices) == 0 {
		return ""
	}
	if current == "" {
		return voices[0].URI
	}
	for i, v := range voices {
		if v.URI == current {
			if i+1 < len(voices) {
				return voices[i+1].URI
			}
			return ""
		}
	}
	return ""
}
