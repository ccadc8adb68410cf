package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Pathaan", "pathaan"},
		{"punctuation and spacing collapse", "The Creator (2023)", "thecreator2023"},
		{"dashes collapse the same way", "the-creator-2023", "thecreator2023"},
		{"empty", "", ""},
		{"only punctuation", "!?.,-_ ()[]", ""},
		{"non-latin script drops out", "পাঠান", ""},
		{"non-latin with embedded year", "পাঠান 2023", "2023"},
		{"mixed case", "JAWAN Full HD", "jawanfullhd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Pathaan 2023 Hindi",
		"The Creator (2023)",
		"  spaced   out  ",
		"পাঠান 2023",
		"",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "normalize must be idempotent for %q", in)
	}
}

func TestExtractYear(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   int
		wantOK bool
	}{
		{"trailing year", "Movie Title 2019 Bengali", 2019, true},
		{"no year", "No year here", 0, false},
		{"19xx", "Classic 1975 remaster", 1975, true},
		{"first match wins in text order", "Remake 2023 of the 1960 original", 2023, true},
		{"year inside longer digit run still matches", "runtime 20190 seconds", 2019, true},
		{"18xx is out of range", "Vintage 1899 print", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractYear(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractLanguage(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"hindi", "This is a Hindi movie", "Hindi"},
		{"no tag", "no tag", LanguageUnspecified},
		{"case insensitive", "DUAL AUDIO hindi 720p", "Hindi"},
		{"vocabulary order wins over text order", "English and Bengali dub", "Bengali"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractLanguage(tt.in, nil))
		})
	}
}

func TestExtractLanguageCustomVocab(t *testing.T) {
	vocab := []string{"Tamil", "Telugu"}
	assert.Equal(t, "Tamil", ExtractLanguage("Leo Tamil HDRip", vocab))
	assert.Equal(t, LanguageUnspecified, ExtractLanguage("Hindi movie", vocab))
}
