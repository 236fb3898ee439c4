package detector

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"LogAnalyzer/internal/models"
	"LogAnalyzer/internal/timefmt"
)

// Config — пороги всех шести детекторов.
// Значения по умолчанию соответствуют историческому поведению сервиса.
type Config struct {
	SpikeStdDevs     float64 // порог всплеска ошибок в сигмах
	BurstStdDevs     float64 // порог всплеска частоты в сигмах
	BusinessStart    int     // начало рабочих часов, включительно
	BusinessEnd      int     // конец рабочих часов, исключительно
	IPMinRequests    int     // минимум запросов с IP для оценки
	IPErrorRate      float64 // доля ошибок, после которой IP подозрителен
	StatusFraction   float64 // доля запросов, после которой статус аномален
	PatternMinErrors int     // минимум ошибок для поиска повторов
}

func DefaultConfig() Config {
	return Config{
		SpikeStdDevs:     2.0,
		BurstStdDevs:     2.0,
		BusinessStart:    9,
		BusinessEnd:      18,
		IPMinRequests:    100,
		IPErrorRate:      0.5,
		StatusFraction:   0.1,
		PatternMinErrors: 3,
	}
}

// Detector ищет статистические аномалии в разобранных записях.
// Чистая функция над срезом записей: ни один детектор не зависит
// от результатов другого, состояния между вызовами нет.
type Detector struct {
	cfg           Config
	tsPrefixRe    *regexp.Regexp
	levelPrefixRe *regexp.Regexp
}

func New(cfg Config) *Detector {
	return &Detector{
		cfg:           cfg,
		tsPrefixRe:    regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}\s*`),
		levelPrefixRe: regexp.MustCompile(`(?i)^(ERROR|CRITICAL|FATAL)\s*`),
	}
}

// Detect прогоняет все шесть детекторов и склеивает их находки.
// Для пустого входа всегда возвращается пустой срез. Записи,
// которые детектор не может интерпретировать (нечитаемые метки
// времени), молча пропускаются.
func (d *Detector) Detect(records []models.LogRecord) []models.Anomaly {
	if len(records) == 0 {
		return []models.Anomaly{}
	}
	anomalies := []models.Anomaly{}
	anomalies = append(anomalies, d.errorSpikes(records)...)
	anomalies = append(anomalies, d.unusualPatterns(records)...)
	anomalies = append(anomalies, d.frequencyAnomalies(records)...)
	anomalies = append(anomalies, d.timeAnomalies(records)...)
	anomalies = append(anomalies, d.ipAnomalies(records)...)
	anomalies = append(anomalies, d.statusAnomalies(records)...)
	return anomalies
}

// isErrorLevel — единое разбиение уровней; статистика снаружи обязана
// использовать то же самое, иначе цифры разойдутся.
func isErrorLevel(level string) bool {
	switch strings.ToUpper(level) {
	case "ERROR", "CRITICAL", "FATAL":
		return true
	}
	return false
}

// errorSpikes: записи бакетируются по часам; час помечается, если его
// доля ошибок отклоняется от среднего больше чем на SpikeStdDevs сигм.
// Нужно минимум два часовых бакета, иначе разброс не определён.
// Ключ бакета — отформатированная строка: time.Time в роли ключа карты
// сравнивает указатели Location, и один час рассыпался бы на бакеты
// по записи для меток со смещением.
func (d *Detector) errorSpikes(records []models.LogRecord) []models.Anomaly {
	totals := map[string]int{}
	errors := map[string]int{}
	for _, r := range records {
		t, ok := recordTime(r)
		if !ok {
			continue
		}
		hour := timefmt.FormatBucket(timefmt.TruncateHour(t))
		totals[hour]++
		if isErrorLevel(r.Level) {
			errors[hour]++
		}
	}

	hours := sortedKeys(totals)
	rates := make([]float64, 0, len(hours))
	for _, h := range hours {
		rates = append(rates, float64(errors[h])/float64(totals[h]))
	}
	if len(rates) < 2 {
		return nil
	}

	m := mean(rates)
	sd := stdDev(rates)
	if sd == 0 {
		return nil
	}

	var out []models.Anomaly
	for i, h := range hours {
		rate := rates[i]
		if math.Abs(rate-m) <= d.cfg.SpikeStdDevs*sd {
			continue
		}
		severity := models.SeverityMedium
		if rate > m+(d.cfg.SpikeStdDevs+1)*sd {
			severity = models.SeverityHigh
		}
		out = append(out, models.Anomaly{
			Type:        models.AnomalyErrorSpike,
			Severity:    severity,
			Timestamp:   h,
			Description: fmt.Sprintf("Error rate spike: %.2f%% vs normal %.2f%%", rate*100, m*100),
			Details: map[string]any{
				"current_rate": rate,
				"normal_rate":  m,
				"deviation":    math.Abs(rate-m) / sd,
			},
		})
	}
	return out
}

// unusualPatterns ищет повторяющиеся сообщения об ошибках.
// Перед сравнением у сообщения срезается ведущая метка времени и
// ведущее ключевое слово уровня; всё остальное сравнивается дословно —
// сообщения, различающиеся вкраплёнными ID или адресами, считаются
// разными.
func (d *Detector) unusualPatterns(records []models.LogRecord) []models.Anomaly {
	type msgStat struct {
		count int
		seen  int // порядок первого появления, для устойчивой сортировки
	}
	counts := map[string]*msgStat{}
	total := 0
	for _, r := range records {
		if !isErrorLevel(r.Level) {
			continue
		}
		msg := d.tsPrefixRe.ReplaceAllString(r.Message, "")
		msg = d.levelPrefixRe.ReplaceAllString(msg, "")
		msg = strings.TrimSpace(msg)
		if msg == "" {
			continue
		}
		if _, ok := counts[msg]; !ok {
			counts[msg] = &msgStat{seen: total}
		}
		counts[msg].count++
		total++
	}
	if total < d.cfg.PatternMinErrors {
		return nil
	}

	type entry struct {
		msg  string
		stat *msgStat
	}
	entries := make([]entry, 0, len(counts))
	for msg, st := range counts {
		entries = append(entries, entry{msg, st})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].stat.count != entries[j].stat.count {
			return entries[i].stat.count > entries[j].stat.count
		}
		return entries[i].stat.seen < entries[j].stat.seen
	})
	if len(entries) > 5 {
		entries = entries[:5]
	}

	var out []models.Anomaly
	for _, e := range entries {
		if e.stat.count < 3 || float64(e.stat.count) <= float64(total)*0.3 {
			continue
		}
		out = append(out, models.Anomaly{
			Type:        models.AnomalyUnusualPattern,
			Severity:    models.SeverityMedium,
			Description: fmt.Sprintf("Repeated error pattern: %q", truncate(e.msg, 100)),
			Details: map[string]any{
				"message":    e.msg,
				"count":      e.stat.count,
				"percentage": float64(e.stat.count) / float64(total),
			},
		})
	}
	return out
}

// frequencyAnomalies бакетирует записи по минутам и помечает минуты,
// чей объём превышает среднее больше чем на BurstStdDevs сигм.
// Ключи — строки, по той же причине, что и в errorSpikes.
func (d *Detector) frequencyAnomalies(records []models.LogRecord) []models.Anomaly {
	counts := map[string]int{}
	for _, r := range records {
		t, ok := recordTime(r)
		if !ok {
			continue
		}
		counts[timefmt.FormatBucket(timefmt.TruncateMinute(t))]++
	}
	if len(counts) == 0 {
		return nil
	}

	minutes := sortedKeys(counts)
	values := make([]float64, 0, len(minutes))
	for _, m := range minutes {
		values = append(values, float64(counts[m]))
	}
	avg := mean(values)
	sd := stdDev(values)
	if sd == 0 {
		return nil
	}

	var out []models.Anomaly
	for _, minute := range minutes {
		c := float64(counts[minute])
		if c <= avg+d.cfg.BurstStdDevs*sd {
			continue
		}
		out = append(out, models.Anomaly{
			Type:        models.AnomalyFrequencyAnomaly,
			Severity:    models.SeverityMedium,
			Timestamp:   minute,
			Description: fmt.Sprintf("High log volume: %d logs vs normal %.1f", counts[minute], avg),
			Details: map[string]any{
				"current_count": counts[minute],
				"normal_count":  avg,
				"deviation":     (c - avg) / sd,
			},
		})
	}
	return out
}

// timeAnomalies помечает каждую ошибочную запись вне рабочих часов —
// по одной находке на запись, без агрегации.
func (d *Detector) timeAnomalies(records []models.LogRecord) []models.Anomaly {
	var out []models.Anomaly
	for _, r := range records {
		t, ok := recordTime(r)
		if !ok {
			continue
		}
		hour := t.Hour()
		if hour >= d.cfg.BusinessStart && hour < d.cfg.BusinessEnd {
			continue
		}
		if !isErrorLevel(r.Level) {
			continue
		}
		out = append(out, models.Anomaly{
			Type:        models.AnomalyTimeAnomaly,
			Severity:    models.SeverityLow,
			Timestamp:   r.Timestamp,
			Description: fmt.Sprintf("Error outside business hours: %02d:00", hour),
			Details: map[string]any{
				"hour":           hour,
				"business_hours": hourRange(d.cfg.BusinessStart, d.cfg.BusinessEnd),
			},
		})
	}
	return out
}

// ipAnomalies оценивает только apache-записи: IP с большим числом
// запросов и долей ошибочных статусов выше порога считается абьюзивным.
func (d *Detector) ipAnomalies(records []models.LogRecord) []models.Anomaly {
	totals := map[string]int{}
	errors := map[string]int{}
	for _, r := range records {
		if r.Format != models.FormatApache || r.IPAddress == "" {
			continue
		}
		totals[r.IPAddress]++
		if r.StatusCode != nil && *r.StatusCode >= 400 {
			errors[r.IPAddress]++
		}
	}

	ips := make([]string, 0, len(totals))
	for ip := range totals {
		ips = append(ips, ip)
	}
	sort.Strings(ips)

	var out []models.Anomaly
	for _, ip := range ips {
		if totals[ip] <= d.cfg.IPMinRequests {
			continue
		}
		rate := float64(errors[ip]) / float64(totals[ip])
		if rate <= d.cfg.IPErrorRate {
			continue
		}
		out = append(out, models.Anomaly{
			Type:        models.AnomalyIPAnomaly,
			Severity:    models.SeverityHigh,
			Description: fmt.Sprintf("Suspicious IP activity: %s", ip),
			Details: map[string]any{
				"ip_address":     ip,
				"total_requests": totals[ip],
				"error_rate":     rate,
				"error_count":    errors[ip],
			},
		})
	}
	return out
}

// statusAnomalies помечает HTTP-статусы ≥400, на которые приходится
// заметная доля всех apache-запросов. Статусы 5xx серьёзнее 4xx.
func (d *Detector) statusAnomalies(records []models.LogRecord) []models.Anomaly {
	counts := map[int]int{}
	total := 0
	for _, r := range records {
		if r.Format != models.FormatApache || r.StatusCode == nil || *r.StatusCode == 0 {
			continue
		}
		counts[*r.StatusCode]++
		total++
	}
	if total == 0 {
		return nil
	}

	statuses := make([]int, 0, len(counts))
	for s := range counts {
		statuses = append(statuses, s)
	}
	sort.Ints(statuses)

	var out []models.Anomaly
	for _, status := range statuses {
		fraction := float64(counts[status]) / float64(total)
		if status < 400 || fraction <= d.cfg.StatusFraction {
			continue
		}
		severity := models.SeverityMedium
		if status >= 500 {
			severity = models.SeverityHigh
		}
		out = append(out, models.Anomaly{
			Type:        models.AnomalyStatusAnomaly,
			Severity:    severity,
			Description: fmt.Sprintf("High rate of %d status codes: %.1f%%", status, fraction*100),
			Details: map[string]any{
				"status_code":    status,
				"count":          counts[status],
				"percentage":     fraction,
				"total_requests": total,
			},
		})
	}
	return out
}

// hourRange перечисляет рабочие часы: [start, end).
func hourRange(start, end int) []int {
	hours := make([]int, 0, end-start)
	for h := start; h < end; h++ {
		hours = append(hours, h)
	}
	return hours
}

// recordTime возвращает интерпретируемое время записи.
func recordTime(r models.LogRecord) (time.Time, bool) {
	if r.Timestamp == "" {
		return time.Time{}, false
	}
	return timefmt.ParseCanonical(r.Timestamp)
}

// sortedKeys — ключи бакетов по возрастанию; канонический формат
// сортируется лексикографически.
func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
