package models

import "strings"

// ModelOption describes one whisper model preset offered to clients
type ModelOption struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	FileName    string `json:"file_name"`
	Description string `json:"description"`
}

// LanguageOption describes one selectable transcription language
type LanguageOption struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// DefaultModelID is used when a request names an unknown model
const DefaultModelID = "base"

// LanguageAuto requests engine-side language detection
const LanguageAuto = "auto"

var modelCatalog = []ModelOption{
	{
		ID:          "tiny",
		Name:        "Tiny",
		FileName:    "ggml-tiny.bin",
		Description: "Fastest multilingual model, lowest accuracy.",
	},
	{
		ID:          "base",
		Name:        "Base",
		FileName:    "ggml-base.bin",
		Description: "Balanced speed and quality, the default.",
	},
	{
		ID:          "small",
		Name:        "Small",
		FileName:    "ggml-small.bin",
		Description: "Higher quality, slower.",
	},
	{
		ID:          "medium",
		Name:        "Medium",
		FileName:    "ggml-medium.bin",
		Description: "High quality, memory-heavy.",
	},
	{
		ID:          "large-v3",
		Name:        "Large v3",
		FileName:    "ggml-large-v3.bin",
		Description: "Best quality, very memory-heavy.",
	},
}

var languageCatalog = []LanguageOption{
	{Code: LanguageAuto, Name: "Auto-detect"},
	{Code: "en", Name: "English"},
	{Code: "es", Name: "Spanish"},
	{Code: "fr", Name: "French"},
	{Code: "de", Name: "German"},
	{Code: "it", Name: "Italian"},
	{Code: "pt", Name: "Portuguese"},
	{Code: "nl", Name: "Dutch"},
	{Code: "pl", Name: "Polish"},
	{Code: "ru", Name: "Russian"},
	{Code: "uk", Name: "Ukrainian"},
	{Code: "ja", Name: "Japanese"},
	{Code: "ko", Name: "Korean"},
	{Code: "zh", Name: "Chinese"},
}

// Models returns the fixed model allow-list
func Models() []ModelOption {
	out := make([]ModelOption, len(modelCatalog))
	copy(out, modelCatalog)
	return out
}

// Languages returns the fixed language list
func Languages() []LanguageOption {
	out := make([]LanguageOption, len(languageCatalog))
	copy(out, languageCatalog)
	return out
}

// LookupModel returns the catalog entry for id, falling back to the default
func LookupModel(id string) ModelOption {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, m := range modelCatalog {
		if m.ID == id {
			return m
		}
	}
	for _, m := range modelCatalog {
		if m.ID == DefaultModelID {
			return m
		}
	}
	return modelCatalog[0]
}

// NormalizeModel maps an unknown model id to the default
func NormalizeModel(id string) string {
	return LookupModel(id).ID
}

// NormalizeLanguage maps unknown or empty codes to auto-detect
func NormalizeLanguage(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return LanguageAuto
	}
	for _, l := range languageCatalog {
		if l.Code == code {
			return l.Code
		}
	}
	return LanguageAuto
}
