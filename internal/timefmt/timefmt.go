package timefmt

import (
	"strings"
	"time"
)

// Шаблоны, содержащие год. Порядок важен: первый успешный разбор побеждает.
var layoutsWithYear = []string{
	"02/Jan/2006:15:04:05 -0700", // apache access с зоной
	"02/Jan/2006:15:04:05",       // apache access без зоны
	"Mon Jan _2 15:04:05 2006",   // apache error: Thu Jun 09 06:07:04 2005
	"2006-01-02 15:04:05",        // ISO с пробелом
	"2006-01-02T15:04:05",        // ISO с T
	"2006-01-02T15:04:05Z",       // хвостовой литеральный Z; дробную часть
	// любой длины (1–6 знаков) time.Parse принимает автоматически
}

// Шаблоны без года (syslog и сокращённый apache error).
// При совпадении подставляется текущий календарный год.
var layoutsWithoutYear = []string{
	"Jan _2 15:04:05",
	"Mon Jan _2 15:04:05",
}

// Канонические формы, которые выдаёт Normalize и понимают детекторы.
var canonicalLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Normalize приводит сырую метку времени к каноническому сортируемому виду.
// Если ни один из известных шаблонов не подошёл — возвращает строку как есть:
// испорченная метка не должна приводить к потере записи,
// теряется только точность бакетирования.
func Normalize(raw string) string {
	for _, layout := range layoutsWithYear {
		t, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		return render(t, strings.Contains(layout, "-0700"))
	}
	for _, layout := range layoutsWithoutYear {
		t, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		t = time.Date(time.Now().Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
		return render(t, false)
	}
	return raw
}

// render выдаёт каноническую форму: смещение сохраняется только если
// оно реально присутствовало в исходной метке.
func render(t time.Time, withZone bool) string {
	layout := "2006-01-02T15:04:05"
	if t.Nanosecond() != 0 {
		layout = "2006-01-02T15:04:05.000000"
	}
	if withZone {
		layout += "-07:00"
	}
	return t.Format(layout)
}

// ParseCanonical разбирает нормализованную (или ISO-подобную) метку времени
// для бакетирования. Возвращает false, если метка не распознана —
// вызывающие молча пропускают такие записи.
func ParseCanonical(ts string) (time.Time, bool) {
	for _, layout := range canonicalLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// TruncateHour обнуляет минуты и секунды, сохраняя смещение.
func TruncateHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

// TruncateMinute обнуляет секунды, сохраняя смещение.
func TruncateMinute(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location())
}

// FormatBucket — представление ключа бакета в находках детектора.
func FormatBucket(t time.Time) string {
	return t.Format("2006-01-02T15:04:05")
}
