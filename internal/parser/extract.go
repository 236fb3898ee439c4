package parser

import (
	"encoding/json"
	"strconv"
	"strings"

	"LogAnalyzer/internal/models"
	"LogAnalyzer/internal/timefmt"
)

// parseJSONLine извлекает поля из JSON-объекта.
// Битый JSON внутри строки, похожей на JSON, деградирует до generic.
func (p *Parser) parseJSONLine(line string, lineNumber int) *models.LogRecord {
	var data map[string]any
	if err := json.Unmarshal([]byte(line), &data); err != nil {
		return p.parseGenericLine(line, lineNumber)
	}
	return &models.LogRecord{
		LineNumber: lineNumber,
		Timestamp:  firstString(data, "timestamp", "time", "@timestamp"),
		Level:      orDefault(firstString(data, "level", "severity"), "INFO"),
		Message:    orDefault(firstString(data, "message", "msg"), line),
		Service:    firstString(data, "service", "app"),
		RawLine:    line,
		Format:     models.FormatJSON,
	}
}

// parseApacheLine разбирает combined-формат apache/nginx access-лога.
func (p *Parser) parseApacheLine(line string, lineNumber int) *models.LogRecord {
	m := p.apacheRe.FindStringSubmatch(line)
	ip, ts, request, status, size := m[1], m[2], m[3], m[4], m[5]

	// Строка запроса делится на метод и URL; недостающие части — пустые.
	parts := strings.Fields(request)
	method, url := "", ""
	if len(parts) > 0 {
		method = parts[0]
	}
	if len(parts) > 1 {
		url = parts[1]
	}

	statusCode := 0
	if v, err := strconv.Atoi(status); err == nil {
		statusCode = v
	}
	// Размер "-" означает отсутствие тела и трактуется как 0.
	responseSize := 0
	if v, err := strconv.Atoi(size); err == nil {
		responseSize = v
	}

	return &models.LogRecord{
		LineNumber:   lineNumber,
		Timestamp:    timefmt.Normalize(ts),
		Level:        "INFO",
		Message:      line,
		IPAddress:    ip,
		Method:       &method,
		URL:          &url,
		StatusCode:   &statusCode,
		ResponseSize: &responseSize,
		RawLine:      line,
		Format:       models.FormatApache,
	}
}

// parseApacheErrorLine разбирает apache error-лог: [ts] [level] message.
func (p *Parser) parseApacheErrorLine(line string, lineNumber int) *models.LogRecord {
	m := p.apacheErrorRe.FindStringSubmatch(line)
	return &models.LogRecord{
		LineNumber: lineNumber,
		Timestamp:  timefmt.Normalize(m[1]),
		Level:      strings.ToUpper(m[2]),
		Message:    m[3],
		RawLine:    line,
		Format:     models.FormatApacheError,
	}
}

// parseSyslogLine разбирает syslog-строку; уровень ищется по ключевому
// слову внутри текста сообщения, по умолчанию INFO.
func (p *Parser) parseSyslogLine(line string, lineNumber int) *models.LogRecord {
	m := p.syslogRe.FindStringSubmatch(line)
	ts, hostname, service, message := m[1], m[2], m[3], m[4]

	level := "INFO"
	if lm := p.levelRe.FindString(message); lm != "" {
		level = strings.ToUpper(lm)
	}

	return &models.LogRecord{
		LineNumber: lineNumber,
		Timestamp:  timefmt.Normalize(ts),
		Level:      level,
		Message:    message,
		Service:    service,
		Hostname:   hostname,
		RawLine:    line,
		Format:     models.FormatSyslog,
	}
}

// parseGenericLine — извлекатель последней надежды: метка времени в начале
// строки и уровень где угодно, сообщение — вся строка целиком.
func (p *Parser) parseGenericLine(line string, lineNumber int) *models.LogRecord {
	level := "INFO"
	if lm := p.levelRe.FindString(line); lm != "" {
		level = strings.ToUpper(lm)
	}
	return &models.LogRecord{
		LineNumber: lineNumber,
		Timestamp:  p.timestampRe.FindString(line),
		Level:      level,
		Message:    line,
		RawLine:    line,
		Format:     models.FormatGeneric,
	}
}

// firstString возвращает первое непустое строковое значение по списку ключей.
func firstString(data map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := data[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
