package parser

import (
	"regexp"
	"strings"

	"LogAnalyzer/internal/models"
)

// Parser классифицирует сырые строки лога и извлекает из них поля.
// Классификация идёт по фиксированному списку шаблонов, первый
// совпавший выигрывает: json → apache_error → apache → syslog → generic.
// Parser не хранит состояния и безопасен для параллельного использования.
type Parser struct {
	jsonRe        *regexp.Regexp
	apacheRe      *regexp.Regexp
	apacheErrorRe *regexp.Regexp
	syslogRe      *regexp.Regexp
	timestampRe   *regexp.Regexp
	levelRe       *regexp.Regexp
}

// New создаёт парсер с предкомпилированными шаблонами форматов.
func New() *Parser {
	return &Parser{
		jsonRe:        regexp.MustCompile(`^\{.*\}$`),
		apacheRe:      regexp.MustCompile(`^(\S+) - - \[([^\]]+)\] "([^"]*)" (\d+) (\d+|-)$`),
		apacheErrorRe: regexp.MustCompile(`^\[([^\]]+)\] \[([^\]]+)\] (.*)$`),
		syslogRe:      regexp.MustCompile(`^(\w{3}\s+\d{1,2}\s+\d{2}:\d{2}:\d{2})\s+(\S+)\s+([^:]+):\s*(.*)$`),
		timestampRe:   regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}`),
		levelRe:       regexp.MustCompile(`(?i)(ERROR|WARN|WARNING|INFO|DEBUG|CRITICAL|FATAL)`),
	}
}

// ParseLine разбирает одну строку лога в LogRecord.
// Возвращает nil только для пустых (после обрезки пробелов) строк;
// любая непустая строка даёт ровно одну запись — в худшем случае
// через универсальный generic-извлекатель.
func (p *Parser) ParseLine(raw string, lineNumber int) *models.LogRecord {
	line := strings.TrimSpace(raw)
	if line == "" {
		return nil
	}

	switch {
	case p.jsonRe.MatchString(line):
		return p.parseJSONLine(line, lineNumber)
	case p.apacheErrorRe.MatchString(line):
		return p.parseApacheErrorLine(line, lineNumber)
	case p.apacheRe.MatchString(line):
		return p.parseApacheLine(line, lineNumber)
	case p.syslogRe.MatchString(line):
		return p.parseSyslogLine(line, lineNumber)
	default:
		return p.parseGenericLine(line, lineNumber)
	}
}
