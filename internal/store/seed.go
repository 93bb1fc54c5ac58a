package store

import (
	"context"
	"fmt"
	"os"
	"strings"

	"fjacquet/fintrack/internal/logging"
	"fjacquet/fintrack/internal/models"

	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"
)

// LoadCategoriesFile reads a YAML categories file. Both the
// "categories: [...]" layout and a bare list are accepted.
func LoadCategoriesFile(path string) ([]models.CategoryConfig, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the CLI user
	if err != nil {
		return nil, fmt.Errorf("error reading categories file: %w", err)
	}

	var cfg models.CategoriesConfig
	if err := yaml.Unmarshal(data, &cfg); err == nil && len(cfg.Categories) > 0 {
		return cfg.Categories, nil
	}

	var categories []models.CategoryConfig
	if err := yaml.Unmarshal(data, &categories); err != nil {
		return nil, fmt.Errorf("error parsing categories file: %w", err)
	}
	return categories, nil
}

// LoadRulesFile reads a CSV file with category, pattern and priority columns.
func LoadRulesFile(path string) ([]models.RuleRecord, error) {
	return readCSVFile[models.RuleRecord](path)
}

func readCSVFile[TCSVRow any](path string) ([]TCSVRow, error) {
	file, err := os.Open(path) // #nosec G304 -- path comes from the CLI user
	if err != nil {
		return nil, fmt.Errorf("error opening CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var rows []TCSVRow
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, fmt.Errorf("error parsing CSV file: %w", err)
	}
	return rows, nil
}

// SeedResult counts what a seeding run created.
type SeedResult struct {
	Categories int
	Rules      int
	Skipped    int
}

// Seeder loads system categories and system rules into a Store.
type Seeder struct {
	store  Store
	logger logging.Logger
}

// NewSeeder creates a Seeder.
func NewSeeder(s Store, logger logging.Logger) *Seeder {
	return &Seeder{store: s, logger: logging.OrDefault(logger)}
}

func (sd *Seeder) systemCategories(ctx context.Context) (map[string]models.Category, error) {
	all, err := sd.store.FindCategories(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("error loading system categories: %w", err)
	}
	byName := make(map[string]models.Category, len(all))
	for _, c := range all {
		if c.UserID == nil {
			byName[strings.ToLower(c.Name)] = c
		}
	}
	return byName, nil
}

// SeedCategories creates the missing system categories of cfgs and one
// system rule per category that lists keywords. Running it twice creates
// nothing new.
func (sd *Seeder) SeedCategories(ctx context.Context, cfgs []models.CategoryConfig) (SeedResult, error) {
	var result SeedResult

	existing, err := sd.systemCategories(ctx)
	if err != nil {
		return result, err
	}

	var missing []models.Category
	for _, cfg := range cfgs {
		name := strings.TrimSpace(cfg.Name)
		if name == "" {
			result.Skipped++
			continue
		}
		kind, err := categoryType(cfg.Type)
		if err != nil {
			sd.logger.WithError(err).Warn("Skipping category", logging.F("category", name))
			result.Skipped++
			continue
		}
		if _, ok := existing[strings.ToLower(name)]; ok {
			continue
		}
		c := models.Category{Name: name, Icon: cfg.Icon, Color: cfg.Color, Type: kind, IsSystem: true}
		missing = append(missing, c)
		existing[strings.ToLower(name)] = c
	}

	if len(missing) > 0 {
		if _, err := sd.store.InsertCategories(ctx, missing); err != nil {
			return result, err
		}
		result.Categories = len(missing)
	}

	records := make([]models.RuleRecord, 0, len(cfgs))
	for _, cfg := range cfgs {
		if len(cfg.Keywords) > 0 {
			records = append(records, models.RuleRecord{
				Category: cfg.Name,
				Pattern:  strings.Join(cfg.Keywords, "|"),
				Priority: cfg.Priority,
			})
		}
	}
	rules, err := sd.LoadRules(ctx, records)
	result.Rules = rules.Rules
	result.Skipped += rules.Skipped
	if err != nil {
		return result, err
	}

	sd.logger.Info("Seeded system categories",
		logging.F(logging.FieldCount, result.Categories),
		logging.F("rules", result.Rules))
	return result, nil
}

// LoadRules creates system rules from records. Records naming an unknown
// category are skipped. An identical system rule is not created twice.
func (sd *Seeder) LoadRules(ctx context.Context, records []models.RuleRecord) (SeedResult, error) {
	var result SeedResult
	if len(records) == 0 {
		return result, nil
	}

	categories, err := sd.systemCategories(ctx)
	if err != nil {
		return result, err
	}
	current, err := sd.store.FindCategorizationRules(ctx, "")
	if err != nil {
		return result, fmt.Errorf("error loading system rules: %w", err)
	}
	seen := make(map[string]bool, len(current))
	for _, r := range current {
		seen[r.CategoryID+"\x00"+r.Pattern] = true
	}

	for _, rec := range records {
		cat, ok := categories[strings.ToLower(strings.TrimSpace(rec.Category))]
		pattern := models.JoinPattern(strings.Split(rec.Pattern, "|"))
		if !ok || pattern == "" {
			sd.logger.Warn("Skipping rule",
				logging.F("category", rec.Category),
				logging.F(logging.FieldPattern, rec.Pattern))
			result.Skipped++
			continue
		}
		key := cat.ID + "\x00" + pattern
		if seen[key] {
			continue
		}
		_, err := sd.store.UpsertCategorizationRule(ctx, models.CategorizationRule{
			CategoryID: cat.ID,
			Pattern:    pattern,
			Priority:   clampPriority(rec.Priority),
			IsActive:   true,
		})
		if err != nil {
			return result, err
		}
		seen[key] = true
		result.Rules++
	}
	return result, nil
}

func categoryType(s string) (models.TransactionType, error) {
	if strings.TrimSpace(s) == "" {
		return models.TypeExpense, nil
	}
	t, err := models.ParseTransactionType(s)
	if err != nil {
		return "", err
	}
	if t == models.TypeTransfer {
		return "", fmt.Errorf("categories cannot have type %q", t)
	}
	return t, nil
}

func clampPriority(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
