package models

// Форматы исходных строк лога, которые различает парсер.
const (
	FormatApache      = "apache"
	FormatApacheError = "apache_error"
	FormatSyslog      = "syslog"
	FormatJSON        = "json"
	FormatGeneric     = "generic"
)

// Типы аномалий, которые возвращает детектор.
const (
	AnomalyErrorSpike       = "error_spike"
	AnomalyUnusualPattern   = "unusual_pattern"
	AnomalyFrequencyAnomaly = "frequency_anomaly"
	AnomalyTimeAnomaly      = "time_anomaly"
	AnomalyIPAnomaly        = "ip_anomaly"
	AnomalyStatusAnomaly    = "status_anomaly"
)

// Степени серьёзности аномалий.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// LogRecord — нормализованное представление одной строки лога.
// Поля, не относящиеся к формату записи, остаются незаполненными
// (а не нулевыми), чтобы потребители отличали «ноль» от «неприменимо».
type LogRecord struct {
	LineNumber int    `json:"line_number"`
	Timestamp  string `json:"timestamp,omitempty"`
	Level      string `json:"level"`
	Message    string `json:"message"`
	Service    string `json:"service,omitempty"`
	Format     string `json:"format"`
	RawLine    string `json:"raw_line"`

	// Поля apache/nginx access-лога
	IPAddress    string  `json:"ip_address,omitempty"`
	Method       *string `json:"method,omitempty"`
	URL          *string `json:"url,omitempty"`
	StatusCode   *int    `json:"status_code,omitempty"`
	ResponseSize *int    `json:"response_size,omitempty"`

	// Поле syslog
	Hostname string `json:"hostname,omitempty"`
}

// Anomaly — одна находка детектора.
// Timestamp пуст для агрегатных находок (IP, статус-коды),
// охватывающих весь файл целиком.
type Anomaly struct {
	Type        string         `json:"type"`
	Severity    string         `json:"severity"`
	Description string         `json:"description"`
	Timestamp   string         `json:"timestamp,omitempty"`
	Details     map[string]any `json:"details"`
}

// Statistics — распределение записей по уровням.
type Statistics struct {
	ErrorCount   int `json:"error_count"`
	WarningCount int `json:"warning_count"`
	InfoCount    int `json:"info_count"`
}

// TimelineBucket — счётчики одного часового интервала.
type TimelineBucket struct {
	Total    int `json:"total"`
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Info     int `json:"info"`
}

// AISummary — свободный текстовый итог анализа.
type AISummary struct {
	Summary         string   `json:"summary"`
	Insights        []string `json:"insights"`
	Recommendations []string `json:"recommendations"`
}

// AnalysisResult — полный результат запроса анализа.
// AISummary присутствует только при настроенном генераторе текста.
type AnalysisResult struct {
	TotalEntries int                       `json:"total_entries"`
	Anomalies    []Anomaly                 `json:"anomalies"`
	AISummary    *AISummary                `json:"ai_summary,omitempty"`
	Statistics   Statistics                `json:"statistics"`
	Timeline     map[string]TimelineBucket `json:"timeline,omitempty"`
}

// FileInfo — метаданные загруженного файла.
type FileInfo struct {
	Filename   string `json:"filename"`
	Size       int64  `json:"size"`
	UploadedAt int64  `json:"uploaded_at"`
	Path       string `json:"path,omitempty"`
}

// User — данные аутентифицированного пользователя.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Provider string `json:"provider"`
}
