// Пакет report считает простые агрегаты по разобранным записям для
// слоя маршрутов: распределение по уровням и почасовую хронологию.
// Разбиение уровней обязано совпадать с разбиением детектора аномалий.
package report

import (
	"strings"

	"LogAnalyzer/internal/models"
	"LogAnalyzer/internal/timefmt"
)

// Statistics делит записи на ошибки / предупреждения / остальное.
func Statistics(records []models.LogRecord) models.Statistics {
	var s models.Statistics
	for _, r := range records {
		switch strings.ToUpper(r.Level) {
		case "ERROR", "CRITICAL", "FATAL":
			s.ErrorCount++
		case "WARNING", "WARN":
			s.WarningCount++
		default:
			s.InfoCount++
		}
	}
	return s
}

// Timeline группирует записи по часам (то же усечение, что и у детектора
// всплесков ошибок). Записи с нечитаемой меткой времени пропускаются.
func Timeline(records []models.LogRecord) map[string]models.TimelineBucket {
	timeline := make(map[string]models.TimelineBucket)
	for _, r := range records {
		if r.Timestamp == "" {
			continue
		}
		t, ok := timefmt.ParseCanonical(r.Timestamp)
		if !ok {
			continue
		}
		key := timefmt.TruncateHour(t).Format("2006-01-02 15:00:00")

		bucket := timeline[key]
		bucket.Total++
		switch strings.ToUpper(r.Level) {
		case "ERROR", "CRITICAL", "FATAL":
			bucket.Errors++
		case "WARNING", "WARN":
			bucket.Warnings++
		default:
			bucket.Info++
		}
		timeline[key] = bucket
	}
	return timeline
}
