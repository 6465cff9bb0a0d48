// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package pattern

// presets is the closed, static set of named regex presets addressable
// via "@preset:<name>".
var presets = map[string]string{
	"error_handlers":    `(?:try|catch|except|rescue|recover)\b`,
	"bare_except":       `except\s*:`,
	"todo_comments":     `(?://|#)\s*(?:TODO|FIXME|XXX)\b`,
	"deprecated":        `(?i)\bdeprecated\b`,
	"security_keywords": `(?i)\b(password|secret|token|api_key|credential)\b`,
	"auth_patterns":     `(?i)\b(authenticate|authorize|login|oauth|jwt)\b`,
	"deprecated_apis":   `(?i)@deprecated|\.deprecated\(`,
	"async_patterns":    `\b(?:async|await|goroutine|go func)\b`,
	"magic_numbers":     `\b\d{3,}(?:\.\d+)?\b`,
	"long_lines":        `^.{121,}$`,
	"multiple_returns":  `\breturn\b.*\breturn\b`,
	"config_keys":       `(?i)\b[A-Z][A-Z0-9_]{3,}\s*=`,
	"hardcoded_urls":    `https?://[^\s"'` + "`" + `]+`,
}
