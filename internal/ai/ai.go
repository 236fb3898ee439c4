// Пакет ai строит текстовый итог анализа через chat-completions API.
// Интеграция необязательна: без ключа итог не генерируется вовсе,
// при ошибке внешнего сервиса возвращается базовый локальный итог.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"LogAnalyzer/internal/config"
	"LogAnalyzer/internal/models"
)

const (
	apiURL       = "https://api.openai.com/v1/chat/completions"
	systemPrompt = "You are a cybersecurity and system administration expert. " +
		"Analyze the provided log data and provide a concise, professional summary " +
		"with actionable insights and recommendations."
)

// Helper генерирует итоговую сводку по записям и аномалиям.
type Helper struct {
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

func New(cfg config.AIConfig, logger *zap.Logger) *Helper {
	return &Helper{
		apiKey:     cfg.OpenAIAPIKey,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger.Named("ai"),
	}
}

// Enabled сообщает, настроен ли внешний генератор.
func (h *Helper) Enabled() bool {
	return h.apiKey != ""
}

// GenerateSummary возвращает сводку или nil, если генератор отключён.
// Ошибка внешнего сервиса не прерывает анализ: вместо неё отдаётся
// базовый итог, построенный локально.
func (h *Helper) GenerateSummary(ctx context.Context, records []models.LogRecord, anomalies []models.Anomaly) *models.AISummary {
	if !h.Enabled() {
		return nil
	}

	text, err := h.chat(ctx, h.buildContext(records, anomalies))
	if err != nil {
		h.logger.Warn("Сводка от внешнего сервиса не получена", zap.Error(err))
		return h.basicSummary(records, anomalies)
	}
	return &models.AISummary{
		Summary:         text,
		Insights:        extractInsights(text),
		Recommendations: extractRecommendations(text),
	}
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (h *Helper) chat(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: h.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens: 500,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.apiKey)

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat completions: status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("chat completions: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat completions: empty response")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// buildContext сворачивает записи и аномалии в компактный текстовый
// контекст: счётчики уровней, счётчики типов аномалий, топ аномалий
// и несколько примеров сообщений.
func (h *Helper) buildContext(records []models.LogRecord, anomalies []models.Anomaly) string {
	var b strings.Builder

	levels := make(map[string]int)
	for _, r := range records {
		levels[strings.ToUpper(r.Level)]++
	}
	levelNames := make([]string, 0, len(levels))
	for name := range levels {
		levelNames = append(levelNames, name)
	}
	sort.Strings(levelNames)

	fmt.Fprintf(&b, "Log analysis context:\nTotal entries: %d\n", len(records))
	for _, name := range levelNames {
		fmt.Fprintf(&b, "%s: %d\n", name, levels[name])
	}

	fmt.Fprintf(&b, "\nAnomalies detected: %d\n", len(anomalies))
	for i, a := range anomalies {
		if i >= 5 {
			break
		}
		fmt.Fprintf(&b, "- [%s] %s: %s\n", a.Severity, a.Type, a.Description)
	}

	b.WriteString("\nSample log messages:\n")
	for i, r := range records {
		if i >= 5 {
			break
		}
		msg := r.Message
		if len(msg) > 100 {
			msg = msg[:100]
		}
		fmt.Fprintf(&b, "- %s\n", msg)
	}
	return b.String()
}

// basicSummary — локальный итог на случай недоступности внешнего сервиса.
func (h *Helper) basicSummary(records []models.LogRecord, anomalies []models.Anomaly) *models.AISummary {
	insights := make([]string, 0, 2)

	errors := 0
	for _, r := range records {
		switch strings.ToUpper(r.Level) {
		case "ERROR", "CRITICAL", "FATAL":
			errors++
		}
	}
	if errors > 0 {
		insights = append(insights, fmt.Sprintf("Found %d error-level entries", errors))
	}
	high := 0
	for _, a := range anomalies {
		if a.Severity == models.SeverityHigh {
			high++
		}
	}
	if high > 0 {
		insights = append(insights, fmt.Sprintf("%d high-severity anomalies require attention", high))
	}
	if len(insights) == 0 {
		insights = append(insights, "No significant issues detected")
	}

	return &models.AISummary{
		Summary: fmt.Sprintf("Analysis complete. Found %d log entries with %d anomalies.",
			len(records), len(anomalies)),
		Insights: insights,
		Recommendations: []string{
			"Review high-severity anomalies first",
			"Monitor error rates over time",
			"Check system performance metrics",
		},
	}
}

// extractInsights достаёт ключевые наблюдения из свободного текста
// по опорным словам. Грубый, но предсказуемый разбор.
func extractInsights(text string) []string {
	lower := strings.ToLower(text)
	insights := make([]string, 0, 4)
	for _, kw := range [...]struct{ word, insight string }{
		{"error", "System errors detected"},
		{"performance", "Performance issues identified"},
		{"security", "Security concerns raised"},
		{"anomal", "Unusual patterns detected"},
		{"network", "Network activity patterns identified"},
		{"access", "Access patterns analyzed"},
	} {
		if strings.Contains(lower, kw.word) {
			insights = append(insights, kw.insight)
		}
	}
	if len(insights) == 0 {
		insights = append(insights, "No specific insights available")
	}
	return insights
}

func extractRecommendations(text string) []string {
	lower := strings.ToLower(text)
	recs := make([]string, 0, 4)
	for _, kw := range [...]struct{ word, rec string }{
		{"investigate", "Investigate detected anomalies"},
		{"monitor", "Monitor system performance"},
		{"review", "Review system logs regularly"},
		{"update", "Consider system updates"},
		{"security", "Review security configurations"},
		{"backup", "Verify backup systems"},
	} {
		if strings.Contains(lower, kw.word) {
			recs = append(recs, kw.rec)
		}
	}
	if len(recs) == 0 {
		recs = append(recs, "Continue monitoring system health")
	}
	return recs
}
