package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/deadlymenace/x-personal/internal/domain"
	"github.com/deadlymenace/x-personal/internal/errors"
)

// CreateRule inserts an auto-tag rule. The referenced tag must exist and
// the (tag, type, pattern) triple must be unique.
func (s *Store) CreateRule(ctx context.Context, tagID int64, ruleType domain.RuleType, pattern string) (*domain.AutoTagRule, error) {
	if !ruleType.Valid() {
		return nil, errors.Validationf("unknown rule type %q", ruleType)
	}
	if pattern == "" {
		return nil, errors.Validation("rule pattern must not be empty")
	}
	if _, err := s.GetTag(ctx, tagID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO auto_tag_rules (tag_id, rule_type, pattern, created_at) VALUES (?, ?, ?, ?)`,
		tagID, string(ruleType), pattern, formatTime(now))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errors.Conflict("an identical rule already exists")
		}
		return nil, fmt.Errorf("create rule: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("rule id: %w", err)
	}
	return &domain.AutoTagRule{
		ID:        id,
		TagID:     tagID,
		Type:      ruleType,
		Pattern:   pattern,
		CreatedAt: now,
	}, nil
}

// ListRules returns all auto-tag rules with the owning tag's name and
// color joined in, newest first.
func (s *Store) ListRules(ctx context.Context) ([]*domain.AutoTagRule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.tag_id, r.rule_type, r.pattern, r.created_at, t.name, t.color
		FROM auto_tag_rules r
		JOIN tags t ON t.id = r.tag_id
		ORDER BY r.created_at DESC, r.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	rules := []*domain.AutoTagRule{}
	for rows.Next() {
		var r domain.AutoTagRule
		var ruleType, createdAt string
		if err := rows.Scan(&r.ID, &r.TagID, &ruleType, &r.Pattern, &createdAt, &r.TagName, &r.TagColor); err != nil {
			return nil, err
		}
		r.Type = domain.RuleType(ruleType)
		if r.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		rules = append(rules, &r)
	}
	return rules, rows.Err()
}

// DeleteRule removes an auto-tag rule. Tags already applied by the rule
// stay attached.
func (s *Store) DeleteRule(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM auto_tag_rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("rule not found")
	}
	return nil
}
