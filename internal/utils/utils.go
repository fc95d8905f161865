// Package utils содержит утилитарные функции, используемые в разных частях приложения
package utils

import (
	"fmt"
	"time"
)

// UnknownClock выводится вместо неизвестной длительности
const UnknownClock = "-:--"

// FormatClock форматирует позицию в формат m:ss. Минуты не ограничены
// часом, отрицательные значения считаются нулем.
func FormatClock(d time.Duration) string {
	total := int(max(d, 0) / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// FormatTrackDuration форматирует длительность трека, 0 означает неизвестную
func FormatTrackDuration(d time.Duration) string {
	if d <= 0 {
		return UnknownClock
	}
	return FormatClock(d)
}

// FormatPercent форматирует долю от 0 до 1 в проценты
func FormatPercent(ratio float64) string {
	ratio = min(max(ratio, 0), 1)
	return fmt.Sprintf("%d%%", int(ratio*100))
}

// TruncateString обрезает строку до указанной длины в символах,
// добавляя "..." если строка длиннее
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:max(maxLen, 0)])
	}
	return string(runes[:maxLen-3]) + "..."
}
