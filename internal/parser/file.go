package parser

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"LogAnalyzer/internal/models"
	"LogAnalyzer/internal/storage"
)

// DefaultMaxLines — жёсткий потолок обрабатываемых строк на один разбор.
// Это единственный механизм защиты памяти от произвольно больших файлов:
// потребление одного разбора ограничено O(maxLines) записей.
const DefaultMaxLines = 10000

// Options — ограничения одного разбора файла.
type Options struct {
	MaxLines   int     // максимум непустых разобранных строк
	SampleRate float64 // вероятность (0–1] взять строку; 1.0 — без сэмплирования
}

func (o Options) normalized() Options {
	if o.MaxLines <= 0 {
		o.MaxLines = DefaultMaxLines
	}
	if o.SampleRate <= 0 || o.SampleRate > 1 {
		o.SampleRate = 1.0
	}
	return o
}

// FileParser превращает файл (локальный или из удалённого хранилища)
// в последовательность LogRecord.
type FileParser struct {
	store  storage.Store
	line   *Parser
	logger *zap.Logger
}

func NewFileParser(store storage.Store, logger *zap.Logger) *FileParser {
	return &FileParser{
		store:  store,
		line:   New(),
		logger: logger,
	}
}

// ParseFile читает файл построчно и разбирает каждую непустую строку.
// Единственная жёсткая ошибка — невозможность открыть или прочитать
// источник; она возвращается вызывающему вместе с путём. Сбой разбора
// отдельной строки никогда не прерывает файл.
func (fp *FileParser) ParseFile(path string, opts Options) ([]models.LogRecord, error) {
	opts = opts.normalized()
	if storage.IsRemote(path) {
		return fp.parseRemote(path, opts)
	}
	return fp.parseLocal(path, opts)
}

// parseLocal обрабатывает локальный файл потоково, минуя удалённое
// хранилище. Сэмплирование — независимое испытание Бернулли на строку.
func (fp *FileParser) parseLocal(path string, opts Options) ([]models.LogRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("parse file %s: %w", path, err)
	}
	defer f.Close()

	records := make([]models.LogRecord, 0)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		if len(records) >= opts.MaxLines {
			break
		}
		lineNum++
		line := strings.ToValidUTF8(scanner.Text(), "�")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if opts.SampleRate < 1.0 && rand.Float64() > opts.SampleRate {
			continue
		}
		if rec := fp.line.ParseLine(line, lineNum); rec != nil {
			records = append(records, *rec)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("parse file %s: %w", path, err)
	}

	fp.logger.Debug("Файл разобран",
		zap.String("path", path),
		zap.Int("records", len(records)),
		zap.Int("lines_seen", lineNum))
	return records, nil
}

// parseRemote материализует содержимое из удалённого хранилища целиком.
// Сэмплирование здесь — предварительный выбор случайного подмножества
// индексов строк; включается только когда файл превышает MaxLines.
func (fp *FileParser) parseRemote(path string, opts Options) ([]models.LogRecord, error) {
	rc, err := fp.store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("parse file %s: %w", path, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("parse file %s: %w", path, err)
	}

	lines := strings.Split(strings.ToValidUTF8(string(data), "�"), "\n")
	if opts.SampleRate < 1.0 && len(lines) > opts.MaxLines {
		picked := rand.Perm(len(lines))[:int(float64(len(lines))*opts.SampleRate)]
		sort.Ints(picked)
		sampled := make([]string, 0, len(picked))
		for _, i := range picked {
			sampled = append(sampled, lines[i])
		}
		lines = sampled
	}

	records := make([]models.LogRecord, 0)
	for i, line := range lines {
		if len(records) >= opts.MaxLines {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if rec := fp.line.ParseLine(line, i+1); rec != nil {
			records = append(records, *rec)
		}
	}

	fp.logger.Debug("Удалённый файл разобран",
		zap.String("path", path),
		zap.Int("records", len(records)))
	return records, nil
}
