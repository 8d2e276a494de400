package tts

import (
	"reflect"
	"testing"
)

var testVoices = []Voice{
	{URI: "en_US-lessac", Name: "Lessac", Lang: "en-US"},
	{URI: "zh_TW-a", Name: "Taiwan", Lang: "zh-TW"},
	{URI: "de_DE-thorsten", Name: "Thorsten", Lang: "de-DE"},
	{URI: "zh_CN-huayan", Name: "Huayan", Lang: "zh-CN"},
	{URI: "zh_CN-other", Name: "Other", Lang: "zh-CN"},
}

func TestNormalizeLang(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"zh_CN", "zh-CN"},
		{"zh-CN", "zh-CN"},
		{"en_US", "en-US"},
		{" de_DE ", "de-DE"},
		{"", ""},
		{"not_a_valid_tag_!!", "not-a-valid-tag-!!"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeLang(tt.in); got != tt.want {
				t.Errorf("NormalizeLang(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSortVoices(t *testing.T) {
	got := SortVoices(testVoices)

	want := []string{"zh_TW-a", "zh_CN-huayan", "zh_CN-other", "en_US-lessac", "de_DE-thorsten"}
	uris := make([]string, len(got))
	for i, v := range got {
		uris[i] = v.URI
	}
	if !reflect.DeepEqual(uris, want) {
		t.Errorf("order = %v, want %v", uris, want)
	}
	if testVoices[0].URI != "en_US-lessac" {
		t.Error("SortVoices must not modify its input")
	}
}

func TestResolveVoice(t *testing.T) {
	tests := []struct {
		name   string
		voices []Voice
		uri    string
		want   string
	}{
		{"known uri", testVoices, "de_DE-thorsten", "de_DE-thorsten"},
		{"unknown uri falls back to zh-CN", testVoices, "missing", "zh_CN-huayan"},
		{"empty uri picks zh-CN", testVoices, "", "zh_CN-huayan"},
		{"no zh-CN uses engine default", testVoices[:3], "", ""},
		{"no voices", nil, "anything", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveVoice(tt.voices, tt.uri); got.URI != tt.want {
				t.Errorf("ResolveVoice() = %q, want %q", got.URI, tt.want)
			}
		})
	}
}

func TestNextVoiceURI(t *testing.T) {
	voices := testVoices[:2]
	seen := []string{""}
	cur := ""
	for i := 0; i < 3; i++ {
		cur = NextVoiceURI(voices, cur)
		seen = append(seen, cur)
	}
	want := []string{"", "en_US-lessac", "zh_TW-a", ""}
	if !reflect.DeepEqual(seen, want) {
		t.Errorf("cycle = %v, want %v", seen, want)
	}
	if NextVoiceURI(nil, "x") != "" {
		t.Error("no voices should cycle to the default")
	}
}
