package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"budget/internal/budget"
	"budget/internal/calendar"
	"budget/internal/core"
	"budget/internal/eval"
	"budget/internal/log"

	_ "modernc.org/sqlite"
)

// ErrNotFound reports that the requested row does not exist.
var ErrNotFound = errors.New("not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveBudget upserts a budget and replaces its rule set.
func (r *SQLiteRepository) SaveBudget(ctx context.Context, b *budget.Budget) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO budgets (id, name, currency, locale) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, currency = excluded.currency, locale = excluded.locale`,
		string(b.ID), b.Name, b.Currency, b.Locale)
	if err != nil {
		return fmt.Errorf("upsert budget %s: %w", b.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM budget_rules WHERE budget_id = ?`, string(b.ID)); err != nil {
		return fmt.Errorf("clear rules of %s: %w", b.ID, err)
	}

	for _, rule := range b.Rules() {
		rec, ok := rule.Recurrence.(calendar.Recurrence)
		if !ok {
			return fmt.Errorf("rule %s: recurrence %T is not storable", rule.ID, rule.Recurrence)
		}
		enabled := 0
		if rule.Enabled {
			enabled = 1
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO budget_rules
				(id, budget_id, rule_type, name, source_account, target_account, category,
				 recurrence, value_cents, currency, formula, enabled)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			string(rule.ID), string(b.ID), string(rule.Type.Symbol()), rule.Name,
			string(rule.Source), string(rule.Target), rule.Category,
			rec.String(), rule.Value.Cents, rule.Value.Currency,
			rule.Formula.String(), enabled)
		if err != nil {
			return fmt.Errorf("insert rule %s: %w", rule.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit budget %s: %w", b.ID, err)
	}

	slog.InfoContext(ctx, "Budget saved",
		log.FieldBudgetID, string(b.ID),
		"name", b.Name,
		"rules", len(b.Rules()))
	return nil
}

// GetBudget loads one budget with its full rule set.
func (r *SQLiteRepository) GetBudget(ctx context.Context, id budget.BudgetID) (*budget.Budget, error) {
	var name, currency, locale string
	err := r.db.QueryRowContext(ctx,
		`SELECT name, currency, locale FROM budgets WHERE id = ?`, string(id)).
		Scan(&name, &currency, &locale)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("budget %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get budget %s: %w", id, err)
	}

	rules, err := r.rulesOf(ctx, id)
	if err != nil {
		return nil, err
	}

	b, err := budget.NewBudget(id, name, rules, currency, locale)
	if err != nil {
		return nil, fmt.Errorf("assemble budget %s: %w", id, err)
	}
	return b, nil
}

// ListBudgetIDs returns the ids of all stored budgets.
func (r *SQLiteRepository) ListBudgetIDs(ctx context.Context) ([]budget.BudgetID, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM budgets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var ids []budget.BudgetID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan budget id: %w", err)
		}
		ids = append(ids, budget.BudgetID(id))
	}
	return ids, rows.Err()
}

// DeleteBudget removes a budget and, via cascade, its rules.
func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id budget.BudgetID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("delete budget %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("budget %s: %w", id, ErrNotFound)
	}
	slog.InfoContext(ctx, "Budget deleted", log.FieldBudgetID, string(id))
	return nil
}

func (r *SQLiteRepository) rulesOf(ctx context.Context, id budget.BudgetID) ([]budget.Rule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, rule_type, name, source_account, target_account, category,
		       recurrence, value_cents, currency, formula, enabled
		FROM budget_rules WHERE budget_id = ? ORDER BY created_at, id`, string(id))
	if err != nil {
		return nil, fmt.Errorf("list rules of %s: %w", id, err)
	}
	defer rows.Close()

	var rules []budget.Rule
	for rows.Next() {
		var (
			ruleID, ruleType, name, source, target, category string
			recurrence, currency, formula                    string
			valueCents                                       int64
			enabled                                          int
		)
		if err := rows.Scan(&ruleID, &ruleType, &name, &source, &target, &category,
			&recurrence, &valueCents, &currency, &formula, &enabled); err != nil {
			return nil, fmt.Errorf("scan rule of %s: %w", id, err)
		}

		rt, err := budget.RuleTypeOf(ruleType[0])
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", ruleID, err)
		}
		rec, err := calendar.ParseRecurrence(recurrence)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", ruleID, err)
		}

		rule, err := budget.NewRule(budget.RuleID(ruleID), rt, name,
			core.AccountNumber(source), core.AccountNumber(target),
			rec, core.Money{Cents: valueCents, Currency: currency})
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", ruleID, err)
		}
		if formula != "" {
			rule = rule.WithFormula(eval.New(formula))
		}
		if category != "" {
			rule = rule.WithCategory(category)
		}
		rule.Enabled = enabled != 0
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// SaveRemain upserts an account balance snapshot; one row per account per day.
func (r *SQLiteRepository) SaveRemain(ctx context.Context, remain budget.Remain) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO remains (account, recorded_on, value_cents, currency) VALUES (?, ?, ?, ?)
		ON CONFLICT(account, recorded_on) DO UPDATE SET
			value_cents = excluded.value_cents, currency = excluded.currency`,
		string(remain.Account), remain.Date.String(), remain.Value.Cents, remain.Value.Currency)
	if err != nil {
		return fmt.Errorf("save remain %s: %w", remain.ID(), err)
	}
	slog.InfoContext(ctx, "Remain saved",
		log.FieldAccount, string(remain.Account),
		"recorded_on", remain.Date.String(),
		log.FieldAmountCents, remain.Value.Cents)
	return nil
}

// ListRemains returns every snapshot recorded on or before the given day.
func (r *SQLiteRepository) ListRemains(ctx context.Context, until core.Date) ([]budget.Remain, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT account, recorded_on, value_cents, currency
		FROM remains WHERE recorded_on <= ? ORDER BY account, recorded_on`, until.String())
	if err != nil {
		return nil, fmt.Errorf("list remains: %w", err)
	}
	defer rows.Close()

	var remains []budget.Remain
	for rows.Next() {
		var (
			account, recordedOn, currency string
			valueCents                    int64
		)
		if err := rows.Scan(&account, &recordedOn, &valueCents, &currency); err != nil {
			return nil, fmt.Errorf("scan remain: %w", err)
		}
		date, err := core.ParseDate(recordedOn)
		if err != nil {
			return nil, fmt.Errorf("remain of %s: %w", account, err)
		}
		remain, err := budget.NewRemain(core.AccountNumber(account), date,
			core.Money{Cents: valueCents, Currency: currency})
		if err != nil {
			return nil, fmt.Errorf("remain of %s: %w", account, err)
		}
		remains = append(remains, remain)
	}
	return remains, rows.Err()
}

// SaveOperation inserts a real bank operation. Duplicate ids are rejected.
func (r *SQLiteRepository) SaveOperation(ctx context.Context, op core.Operation) error {
	if err := op.Validate(); err != nil {
		return fmt.Errorf("operation %s: %w", op.ID, err)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO operations (id, account, recorded_on, amount_cents, currency, op_type, comment)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		op.ID, string(op.Account), op.Recorded.String(),
		op.Amount.Cents, op.Amount.Currency, string(op.Type), op.Comment)
	if err != nil {
		return fmt.Errorf("save operation %s: %w", op.ID, err)
	}
	slog.InfoContext(ctx, "Operation saved",
		"id", op.ID,
		log.FieldAccount, string(op.Account),
		"type", string(op.Type),
		log.FieldAmountCents, op.Amount.Cents)
	return nil
}

// ListOperations returns the operations recorded within [from, to].
func (r *SQLiteRepository) ListOperations(ctx context.Context, from, to core.Date) ([]core.Operation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, account, recorded_on, amount_cents, currency, op_type, comment
		FROM operations WHERE recorded_on >= ? AND recorded_on <= ?
		ORDER BY recorded_on, id`, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	defer rows.Close()

	var ops []core.Operation
	for rows.Next() {
		var (
			id, account, recordedOn, currency, opType, comment string
			amountCents                                        int64
		)
		if err := rows.Scan(&id, &account, &recordedOn, &amountCents, &currency, &opType, &comment); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		recorded, err := core.ParseDate(recordedOn)
		if err != nil {
			return nil, fmt.Errorf("operation %s: %w", id, err)
		}
		ops = append(ops, core.Operation{
			ID:       id,
			Recorded: recorded,
			Amount:   core.Money{Cents: amountCents, Currency: currency},
			Type:     core.OperationType(opType),
			Account:  core.AccountNumber(account),
			Comment:  comment,
		})
	}
	return ops, rows.Err()
}

// SaveHoliday marks a day off; SaveWorkday marks a day on despite falling
// on a weekend.
func (r *SQLiteRepository) SaveHoliday(ctx context.Context, day core.Date) error {
	return r.saveCalendarDay(ctx, day, "holiday")
}

func (r *SQLiteRepository) SaveWorkday(ctx context.Context, day core.Date) error {
	return r.saveCalendarDay(ctx, day, "workday")
}

func (r *SQLiteRepository) saveCalendarDay(ctx context.Context, day core.Date, kind string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO calendar_days (day, kind) VALUES (?, ?)
		ON CONFLICT(day) DO UPDATE SET kind = excluded.kind`, day.String(), kind)
	if err != nil {
		return fmt.Errorf("save %s %s: %w", kind, day, err)
	}
	return nil
}

// LoadCalendar builds a work calendar over [from, to] from the stored
// holiday and shifted-workday overrides.
func (r *SQLiteRepository) LoadCalendar(ctx context.Context, from, to core.Date) (*calendar.WorkCalendar, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT day, kind FROM calendar_days WHERE day >= ? AND day <= ?`,
		from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("load calendar days: %w", err)
	}
	defer rows.Close()

	var holidays []core.Date
	var workdays []core.Date
	for rows.Next() {
		var dayStr, kind string
		if err := rows.Scan(&dayStr, &kind); err != nil {
			return nil, fmt.Errorf("scan calendar day: %w", err)
		}
		day, err := core.ParseDate(dayStr)
		if err != nil {
			return nil, fmt.Errorf("calendar day %q: %w", dayStr, err)
		}
		switch kind {
		case "holiday":
			holidays = append(holidays, day)
		case "workday":
			workdays = append(workdays, day)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load calendar days: %w", err)
	}

	cal, err := calendar.NewWorkCalendar(from, to, holidays...)
	if err != nil {
		return nil, err
	}
	for _, day := range workdays {
		cal.AddWorkday(day)
	}
	return cal, nil
}
