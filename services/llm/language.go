// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// DefaultLanguage is the language the model answers in without a hint.
const DefaultLanguage = "en"

// supportedLanguages is the fixed set of codes the assistant hints for.
var supportedLanguages = map[string]language.Tag{
	"en": language.English,
	"hi": language.MustParse("hi"),
	"te": language.MustParse("te"),
	"ta": language.MustParse("ta"),
	"kn": language.MustParse("kn"),
	"mr": language.MustParse("mr"),
	"bn": language.MustParse("bn"),
	"gu": language.MustParse("gu"),
	"pa": language.MustParse("pa"),
	"ml": language.MustParse("ml"),
}

var englishNamer = display.Languages(language.English)

// NormalizeLanguage lower-cases and trims a language code, mapping the empty
// string to DefaultLanguage.
func NormalizeLanguage(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return DefaultLanguage
	}
	return code
}

// LanguageName returns the English name of a supported code and whether the
// code is in the supported table.
func LanguageName(code string) (string, bool) {
	tag, ok := supportedLanguages[NormalizeLanguage(code)]
	if !ok {
		return "", false
	}
	return englishNamer.Name(tag), true
}

// IsSupportedLanguage reports whether code is in the fixed language table.
func IsSupportedLanguage(code string) bool {
	_, ok := supportedLanguages[NormalizeLanguage(code)]
	return ok
}

// LanguageInstruction returns the line prepended to prompts for non-English
// answers. English returns "".
func LanguageInstruction(code string) string {
	code = NormalizeLanguage(code)
	if code == DefaultLanguage {
		return ""
	}
	name, ok := LanguageName(code)
	if !ok {
		return "Respond in the user's language."
	}
	return "Respond entirely in " + name + "."
}

// WithLanguageHint prepends the language instruction to prompt.
func WithLanguageHint(prompt, code string) string {
	hint := LanguageInstruction(code)
	if hint == "" {
		return prompt
	}
	return hint + "\n\n" + prompt
}
