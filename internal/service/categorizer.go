package service

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/deadlymenace/x-personal/internal/domain"
	"github.com/deadlymenace/x-personal/internal/errors"
	"github.com/deadlymenace/x-personal/internal/store/sqlite"
)

// categorizerBatchSize is how many bookmarks go into one model call.
const categorizerBatchSize = 25

// suggestSampleSize caps how many uncategorized bookmarks the suggestion
// prompt samples.
const suggestSampleSize = 200

const categorizerModel = anthropic.Model("claude-haiku-4-5")

// classifier is the opaque text-completion contract the categorizer
// builds on. anthropicClassifier implements it; tests fake it.
type classifier interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// anthropicClassifier answers prompts with a single user message.
type anthropicClassifier struct {
	client anthropic.Client
}

// NewAnthropicClassifier wraps an Anthropic client as the categorizer's
// classifier.
func NewAnthropicClassifier(client anthropic.Client) *anthropicClassifier {
	return &anthropicClassifier{client: client}
}

func (a *anthropicClassifier) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     categorizerModel,
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", err
	}
	var out strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	return out.String(), nil
}

// CategorizerService assigns categories to bookmarks with a language
// model. The model is an opaque classifier: it receives bookmark
// summaries and returns IDs or suggestions; everything it returns is
// validated before touching the store.
type CategorizerService struct {
	store      *sqlite.Store
	classifier classifier
	logger     *slog.Logger
}

// NewCategorizerService creates a CategorizerService. A nil classifier
// disables the service; calls return a validation error telling the user
// to configure an API key.
func NewCategorizerService(store *sqlite.Store, cls classifier, logger *slog.Logger) *CategorizerService {
	return &CategorizerService{store: store, classifier: cls, logger: logger}
}

// CategorizeResult summarizes an auto-categorization run.
type CategorizeResult struct {
	Categorized int `json:"categorized"`
	Total       int `json:"total"`
}

// AutoCategorize asks the classifier which uncategorized bookmarks belong
// in the given category, in batches. Returned IDs are validated against
// the batch before applying; a failed batch is logged and skipped so one
// bad response doesn't abort the run.
func (s *CategorizerService) AutoCategorize(ctx context.Context, categoryID int64) (*CategorizeResult, error) {
	if s.classifier == nil {
		return nil, errors.Validation("ANTHROPIC_API_KEY not configured")
	}

	category, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	var others []string
	for _, c := range categories {
		if c.ID != categoryID {
			others = append(others, c.Name)
		}
	}

	uncategorized, err := s.store.ListUncategorized(ctx, 0)
	if err != nil {
		return nil, err
	}
	result := &CategorizeResult{Total: len(uncategorized)}
	if len(uncategorized) == 0 {
		return result, nil
	}

	for start := 0; start < len(uncategorized); start += categorizerBatchSize {
		end := min(start+categorizerBatchSize, len(uncategorized))
		batch := uncategorized[start:end]

		prompt := categorizePrompt(category.Name, others, batch)
		reply, err := s.classifier.Complete(ctx, prompt, 1024)
		if err != nil {
			s.logger.Error("categorization batch failed", "batch_start", start, "error", err)
			continue
		}

		ids := extractIDs(reply)
		inBatch := make(map[string]bool, len(batch))
		for _, b := range batch {
			inBatch[b.ID] = true
		}
		for _, id := range ids {
			if !inBatch[id] {
				continue
			}
			if err := s.store.SetBookmarkCategory(ctx, id, categoryID); err != nil {
				return nil, err
			}
			result.Categorized++
		}
	}

	s.logger.Info("auto-categorize complete", "category", category.Name, "categorized", result.Categorized, "total", result.Total)
	return result, nil
}

// CategorySuggestion is one proposed category.
type CategorySuggestion struct {
	Name              string   `json:"name"`
	Icon              string   `json:"icon"`
	Reason            string   `json:"reason"`
	EstimatedCount    int      `json:"estimatedCount"`
	SampleBookmarkIDs []string `json:"sampleBookmarkIds"`
}

// SuggestCategories asks the classifier to propose categories from a
// sample of uncategorized bookmarks. Suggestions duplicating an existing
// category name are dropped.
func (s *CategorizerService) SuggestCategories(ctx context.Context) ([]CategorySuggestion, error) {
	if s.classifier == nil {
		return nil, errors.Validation("ANTHROPIC_API_KEY not configured")
	}

	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	existing := make(map[string]bool, len(categories))
	var existingNames []string
	for _, c := range categories {
		existing[strings.ToLower(c.Name)] = true
		existingNames = append(existingNames, strings.ToLower(c.Name))
	}

	sample, err := s.store.ListUncategorized(ctx, suggestSampleSize)
	if err != nil {
		return nil, err
	}
	if len(sample) == 0 {
		return []CategorySuggestion{}, nil
	}

	reply, err := s.classifier.Complete(ctx, suggestPrompt(existingNames, sample), 2048)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeRemote, "category suggestion failed")
	}

	raw := extractJSONArray(reply)
	if raw == "" {
		return []CategorySuggestion{}, nil
	}
	var suggestions []CategorySuggestion
	if err := json.Unmarshal([]byte(raw), &suggestions); err != nil {
		s.logger.Warn("unparseable suggestion response", "error", err)
		return []CategorySuggestion{}, nil
	}

	kept := suggestions[:0]
	for _, sg := range suggestions {
		if !existing[strings.ToLower(sg.Name)] {
			kept = append(kept, sg)
		}
	}
	return kept, nil
}

// describeBookmark renders one bookmark line for a prompt.
func describeBookmark(b *domain.Bookmark, textLimit int) string {
	text := b.Text
	if len(text) > textLimit {
		text = text[:textLimit]
	}
	line := fmt.Sprintf("[%s] @%s: %s", b.ID, b.AuthorUsername, text)
	if len(b.Hashtags) > 0 {
		line += " | tags: " + strings.Join(b.Hashtags, ", ")
	}
	if len(b.URLs) > 0 {
		line += " | urls: " + strings.Join(b.URLs, ", ")
	}
	if b.Notes != "" {
		line += " | notes: " + b.Notes
	}
	return line
}

func categorizePrompt(category string, others []string, batch []*domain.Bookmark) string {
	var lines []string
	for _, b := range batch {
		lines = append(lines, describeBookmark(b, 200))
	}
	context := "none"
	if len(others) > 0 {
		context = strings.Join(others, ", ")
	}
	return fmt.Sprintf(`You are categorizing bookmarked posts. Determine which of the following bookmarks belong in the category %q.

Other existing categories for context: %s

Bookmarks (format: [id] @author: text):
%s

Return a JSON array of bookmark IDs that match the category %q. Only include bookmarks that clearly fit. If none match, return an empty array.

Respond with ONLY the JSON array, no other text. Example: ["123", "456"]`,
		category, context, strings.Join(lines, "\n"), category)
}

func suggestPrompt(existingNames []string, sample []*domain.Bookmark) string {
	var lines []string
	for _, b := range sample {
		lines = append(lines, describeBookmark(b, 150))
	}
	existing := "No existing categories yet."
	if len(existingNames) > 0 {
		existing = "Existing categories (do NOT suggest duplicates): " + strings.Join(existingNames, ", ")
	}
	return fmt.Sprintf(`Analyze these bookmarked posts and suggest 3-6 categories to organize them.

%s

Bookmarks:
%s

For each category suggestion, provide:
- name: short category name (2-3 words max)
- icon: a lucide icon name (e.g. "code", "lightbulb", "trending-up", "heart", "briefcase", "globe", "zap", "book-open", "cpu", "palette")
- reason: one sentence explaining what connects these bookmarks
- estimatedCount: approximate number of bookmarks that would fit
- sampleBookmarkIds: 2-3 bookmark IDs from above that would fit

Respond with ONLY a JSON array. Example:
[{"name":"AI & ML","icon":"cpu","reason":"Posts about artificial intelligence","estimatedCount":15,"sampleBookmarkIds":["123","456"]}]`,
		existing, strings.Join(lines, "\n"))
}

var jsonArray = regexp.MustCompile(`\[[\s\S]*\]`)

// extractJSONArray pulls the first JSON array out of a model reply that
// may contain surrounding prose.
func extractJSONArray(reply string) string {
	return jsonArray.FindString(reply)
}

// extractIDs parses a reply expected to be a JSON array of ID strings.
func extractIDs(reply string) []string {
	raw := extractJSONArray(reply)
	if raw == "" {
		return nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil
	}
	return ids
}
