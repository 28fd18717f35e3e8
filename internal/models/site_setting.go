// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"strings"
	"time"
)

// SettingShowPendingFigures lets every viewer see PENDING figures in
// figure listings. Absent means false.
const SettingShowPendingFigures = "SHOW_PENDING_FIGURES"

// SystemSetting represents a single process-wide configuration key-value pair.
type SystemSetting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// KnownSetting reports whether key is a setting the application reads.
func KnownSetting(key string) bool {
	return key == SettingShowPendingFigures
}

// ParseFlag interprets a stored setting as a boolean. Only "true" in any
// case is true; every other value, including empty, is false.
func ParseFlag(value string) bool {
	return strings.EqualFold(strings.TrimSpace(value), "true")
}
