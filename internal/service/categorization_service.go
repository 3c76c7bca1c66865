package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/folio/backend/internal/model"
	"github.com/folio/backend/pkg/ai"
)

// maxCategorizeInput caps the message text sent to the model.
const maxCategorizeInput = 4000

// Categorizer assigns one taxonomy label to a message. It never fails:
// anything it cannot classify is General.
type Categorizer interface {
	Categorize(ctx context.Context, text string) model.Category
}

// NewCategorizer returns an AI-backed Categorizer, or one that always answers
// General when client is nil.
func NewCategorizer(client ai.Client, logger *slog.Logger) Categorizer {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		return generalCategorizer{}
	}
	return &aiCategorizer{client: client, logger: logger.With("component", "categorizer")}
}

type generalCategorizer struct{}

func (generalCategorizer) Categorize(context.Context, string) model.Category {
	return model.CategoryGeneral
}

type aiCategorizer struct {
	client ai.Client
	logger *slog.Logger
}

func (c *aiCategorizer) Categorize(ctx context.Context, text string) model.Category {
	if strings.TrimSpace(text) == "" {
		return model.CategoryGeneral
	}
	out, err := c.client.Generate(ctx, categorizePrompt(text))
	if err != nil {
		c.logger.WarnContext(ctx, "categorization call failed, using General", "error", err)
		return model.CategoryGeneral
	}
	cat, ok := ParseCategoryResponse(out)
	if !ok {
		c.logger.WarnContext(ctx, "unparseable categorization response, using General", "response", truncate(out, 200))
		return model.CategoryGeneral
	}
	return cat
}

func categorizePrompt(text string) string {
	labels := make([]string, len(model.Categories))
	for i, c := range model.Categories {
		labels[i] = string(c)
	}
	return fmt.Sprintf(
		"Classify the following message sent through a portfolio contact form.\n"+
			"Answer with exactly one of these labels and nothing else: %s.\n\n"+
			"Message:\n%s",
		strings.Join(labels, ", "), truncate(text, maxCategorizeInput))
}

// ParseCategoryResponse extracts a label from a model answer. It accepts an
// exact label (ignoring case, quotes and trailing punctuation) or text that
// mentions exactly one label.
func ParseCategoryResponse(out string) (model.Category, bool) {
	cleaned := strings.TrimFunc(out, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r) || r == '`'
	})
	if cat, ok := model.ParseCategory(cleaned); ok {
		return cat, true
	}

	lower := strings.ToLower(out)
	var found []model.Category
	for _, c := range model.Categories {
		if strings.Contains(lower, strings.ToLower(string(c))) {
			found = append(found, c)
		}
	}
	if len(found) == 1 {
		return found[0], true
	}
	return "", false
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
