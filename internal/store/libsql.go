package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/flowstack/flowstack/pkg/schema"
)

// LibSQLStore implements the Store interface using libSQL (embedded SQLite fork).
type LibSQLStore struct {
	db *sql.DB
}

// NewLibSQLStore opens a libSQL database at the given path and returns a Store.
// The path should be a file URI, e.g. "file:/path/to/db.db".
func NewLibSQLStore(dbPath string) (*LibSQLStore, error) {
	db, err := sql.Open("libsql", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open libsql: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Apply connection-level PRAGMAs. Some PRAGMAs return rows so we use QueryRow.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA cache_size=-20000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}
	for _, p := range pragmas {
		var result string
		_ = db.QueryRow(p).Scan(&result)
	}

	return &LibSQLStore{db: db}, nil
}

// DB returns the underlying *sql.DB for advanced usage.
func (s *LibSQLStore) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *LibSQLStore) Close() error { return s.db.Close() }

// Migrate runs all pending database migrations.
func (s *LibSQLStore) Migrate(ctx context.Context) error {
	return runMigrations(ctx, s.db)
}

// Vacuum runs VACUUM on the database.
func (s *LibSQLStore) Vacuum(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "VACUUM")
	return err
}

// --- Definitions ---

func (s *LibSQLStore) CreateDefinition(ctx context.Context, def *Definition) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create definition: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO workflow_definitions (id, name, description, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		def.ID, def.Name, nullStr(def.Description), string(def.Status),
		timeOrNow(def.CreatedAt), now,
	)
	if err != nil {
		return err
	}

	for _, n := range def.Nodes {
		config, err := marshalMapOrDefault(n.Config)
		if err != nil {
			return fmt.Errorf("marshal node %q config: %w", n.Key, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO workflow_nodes (id, definition_id, node_key, name, node_type, config, sort_order)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			n.ID, def.ID, n.Key, nullStr(n.Name), string(n.Type), string(config), n.SortOrder,
		)
		if err != nil {
			return err
		}
	}

	for _, e := range def.Edges {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO workflow_edges (id, definition_id, source_key, target_key, condition)
			 VALUES (?, ?, ?, ?, ?)`,
			e.ID, def.ID, e.SourceKey, e.TargetKey, nullStr(e.Condition),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *LibSQLStore) GetDefinition(ctx context.Context, id string) (*Definition, error) {
	def := &Definition{}
	var desc sql.NullString
	var status string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, status, created_at, updated_at
		 FROM workflow_definitions WHERE id = ?`, id,
	).Scan(&def.ID, &def.Name, &desc, &status, &def.CreatedAt, &def.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, storeNotFound("workflow definition", id)
	}
	if err != nil {
		return nil, err
	}
	def.Description = desc.String
	def.Status = schema.WorkflowStatus(status)

	if def.Nodes, err = s.ListNodes(ctx, id); err != nil {
		return nil, err
	}
	if def.Edges, err = s.ListEdges(ctx, id); err != nil {
		return nil, err
	}
	return def, nil
}

func (s *LibSQLStore) ListDefinitions(ctx context.Context, filter DefinitionFilter) ([]*Definition, error) {
	var where []string
	var args []any

	if filter.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*filter.Status))
	}

	query := `SELECT id, name, description, status, created_at, updated_at FROM workflow_definitions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []*Definition
	for rows.Next() {
		def := &Definition{}
		var desc sql.NullString
		var status string
		if err := rows.Scan(&def.ID, &def.Name, &desc, &status, &def.CreatedAt, &def.UpdatedAt); err != nil {
			return nil, err
		}
		def.Description = desc.String
		def.Status = schema.WorkflowStatus(status)
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

func (s *LibSQLStore) UpdateDefinitionStatus(ctx context.Context, id string, status string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE workflow_definitions SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res, "workflow definition", id)
}

func (s *LibSQLStore) DeleteDefinition(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM workflow_definitions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res, "workflow definition", id)
}

// --- Graph ---

func (s *LibSQLStore) ListNodes(ctx context.Context, definitionID string) ([]*Node, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, definition_id, node_key, name, node_type, config, sort_order
		 FROM workflow_nodes WHERE definition_id = ? ORDER BY sort_order, node_key`, definitionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []*Node
	for rows.Next() {
		n := &Node{}
		var name, config sql.NullString
		var nodeType string
		if err := rows.Scan(&n.ID, &n.DefinitionID, &n.Key, &name, &nodeType, &config, &n.SortOrder); err != nil {
			return nil, err
		}
		n.Name = name.String
		n.Type = schema.NodeType(nodeType)
		if config.Valid && config.String != "" {
			if err := json.Unmarshal([]byte(config.String), &n.Config); err != nil {
				return nil, fmt.Errorf("unmarshal node %q config: %w", n.Key, err)
			}
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func (s *LibSQLStore) ListEdges(ctx context.Context, definitionID string) ([]*Edge, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, definition_id, source_key, target_key, condition
		 FROM workflow_edges WHERE definition_id = ? ORDER BY id`, definitionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []*Edge
	for rows.Next() {
		e := &Edge{}
		var cond sql.NullString
		if err := rows.Scan(&e.ID, &e.DefinitionID, &e.SourceKey, &e.TargetKey, &cond); err != nil {
			return nil, err
		}
		e.Condition = cond.String
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// --- Runs ---

func (s *LibSQLStore) CreateRun(ctx context.Context, run *Run) error {
	payload, err := marshalMapOrDefault(run.TriggerPayload)
	if err != nil {
		return fmt.Errorf("marshal trigger_payload: %w", err)
	}
	contextData, err := marshalMapOrDefault(run.ContextData)
	if err != nil {
		return fmt.Errorf("marshal context_data: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO workflow_runs (id, definition_id, status, trigger_payload, context_data, last_error, created_at, started_at, completed_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.DefinitionID, string(run.Status), string(payload), string(contextData),
		nullStr(run.LastError), timeOrNow(run.CreatedAt), nullTime(run.StartedAt),
		nullTime(run.CompletedAt), timeOrNow(run.UpdatedAt),
	)
	return err
}

func (s *LibSQLStore) GetRun(ctx context.Context, id string) (*Run, error) {
	run := &Run{}
	var (
		payloadJSON, contextJSON sql.NullString
		lastError                sql.NullString
		startedAt, completedAt   sql.NullTime
		status                   string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, definition_id, status, trigger_payload, context_data, last_error, created_at, started_at, completed_at, updated_at
		 FROM workflow_runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.DefinitionID, &status, &payloadJSON, &contextJSON, &lastError,
		&run.CreatedAt, &startedAt, &completedAt, &run.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, storeNotFound("run", id)
	}
	if err != nil {
		return nil, err
	}
	run.Status = schema.RunStatus(status)
	run.LastError = lastError.String
	if payloadJSON.Valid && payloadJSON.String != "" {
		_ = json.Unmarshal([]byte(payloadJSON.String), &run.TriggerPayload)
	}
	if contextJSON.Valid && contextJSON.String != "" {
		_ = json.Unmarshal([]byte(contextJSON.String), &run.ContextData)
	}
	if startedAt.Valid {
		run.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	return run, nil
}

func (s *LibSQLStore) UpdateRun(ctx context.Context, id string, update RunUpdate) error {
	var sets []string
	var args []any

	if update.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*update.Status))
	}
	if update.ContextData != nil {
		contextData, err := json.Marshal(update.ContextData)
		if err != nil {
			return fmt.Errorf("marshal context_data: %w", err)
		}
		sets = append(sets, "context_data = ?")
		args = append(args, string(contextData))
	}
	if update.LastError != nil {
		sets = append(sets, "last_error = ?")
		args = append(args, *update.LastError)
	}
	if update.StartedAt != nil {
		sets = append(sets, "started_at = ?")
		args = append(args, *update.StartedAt)
	}
	if update.CompletedAt != nil {
		sets = append(sets, "completed_at = ?")
		args = append(args, *update.CompletedAt)
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	query := fmt.Sprintf("UPDATE workflow_runs SET %s WHERE id = ?", strings.Join(sets, ", "))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return checkRowsAffected(res, "run", id)
}

func (s *LibSQLStore) ListRuns(ctx context.Context, filter RunFilter) ([]*Run, error) {
	var where []string
	var args []any

	if filter.DefinitionID != "" {
		where = append(where, "definition_id = ?")
		args = append(args, filter.DefinitionID)
	}
	if filter.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.Since != nil {
		where = append(where, "created_at >= ?")
		args = append(args, *filter.Since)
	}

	query := `SELECT id, definition_id, status, trigger_payload, context_data, last_error, created_at, started_at, completed_at, updated_at FROM workflow_runs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		var (
			payloadJSON, contextJSON sql.NullString
			lastError                sql.NullString
			startedAt, completedAt   sql.NullTime
			status                   string
		)
		if err := rows.Scan(&run.ID, &run.DefinitionID, &status, &payloadJSON, &contextJSON,
			&lastError, &run.CreatedAt, &startedAt, &completedAt, &run.UpdatedAt); err != nil {
			return nil, err
		}
		run.Status = schema.RunStatus(status)
		run.LastError = lastError.String
		if payloadJSON.Valid && payloadJSON.String != "" {
			_ = json.Unmarshal([]byte(payloadJSON.String), &run.TriggerPayload)
		}
		if contextJSON.Valid && contextJSON.String != "" {
			_ = json.Unmarshal([]byte(contextJSON.String), &run.ContextData)
		}
		if startedAt.Valid {
			run.StartedAt = &startedAt.Time
		}
		if completedAt.Valid {
			run.CompletedAt = &completedAt.Time
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// --- Node runs ---

func (s *LibSQLStore) CreateNodeRun(ctx context.Context, nr *NodeRun) error {
	input, err := marshalMapOrDefault(nr.InputPayload)
	if err != nil {
		return fmt.Errorf("marshal input_payload: %w", err)
	}
	output, err := marshalMapOrDefault(nr.OutputPayload)
	if err != nil {
		return fmt.Errorf("marshal output_payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO node_runs (id, run_id, node_key, node_type, status, input_payload, output_payload, error_message, created_at, started_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nr.ID, nr.RunID, nr.NodeKey, string(nr.NodeType), string(nr.Status),
		string(input), string(output), nullStr(nr.ErrorMessage),
		timeOrNow(nr.CreatedAt), nullTime(nr.StartedAt), nullTime(nr.CompletedAt),
	)
	return err
}

func (s *LibSQLStore) UpdateNodeRun(ctx context.Context, id string, update NodeRunUpdate) error {
	var sets []string
	var args []any

	if update.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*update.Status))
	}
	if update.OutputPayload != nil {
		output, err := json.Marshal(update.OutputPayload)
		if err != nil {
			return fmt.Errorf("marshal output_payload: %w", err)
		}
		sets = append(sets, "output_payload = ?")
		args = append(args, string(output))
	}
	if update.ErrorMessage != nil {
		sets = append(sets, "error_message = ?")
		args = append(args, *update.ErrorMessage)
	}
	if update.StartedAt != nil {
		sets = append(sets, "started_at = ?")
		args = append(args, *update.StartedAt)
	}
	if update.CompletedAt != nil {
		sets = append(sets, "completed_at = ?")
		args = append(args, *update.CompletedAt)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE node_runs SET %s WHERE id = ?", strings.Join(sets, ", "))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return checkRowsAffected(res, "node run", id)
}

func (s *LibSQLStore) ListNodeRuns(ctx context.Context, runID string) ([]*NodeRun, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, node_key, node_type, status, input_payload, output_payload, error_message, created_at, started_at, completed_at
		 FROM node_runs WHERE run_id = ? ORDER BY created_at, id`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodeRuns []*NodeRun
	for rows.Next() {
		nr := &NodeRun{}
		var (
			inputJSON, outputJSON  sql.NullString
			errMsg                 sql.NullString
			startedAt, completedAt sql.NullTime
			nodeType, status       string
		)
		if err := rows.Scan(&nr.ID, &nr.RunID, &nr.NodeKey, &nodeType, &status,
			&inputJSON, &outputJSON, &errMsg, &nr.CreatedAt, &startedAt, &completedAt); err != nil {
			return nil, err
		}
		nr.NodeType = schema.NodeType(nodeType)
		nr.Status = schema.NodeRunStatus(status)
		nr.ErrorMessage = errMsg.String
		if inputJSON.Valid && inputJSON.String != "" {
			_ = json.Unmarshal([]byte(inputJSON.String), &nr.InputPayload)
		}
		if outputJSON.Valid && outputJSON.String != "" {
			_ = json.Unmarshal([]byte(outputJSON.String), &nr.OutputPayload)
		}
		if startedAt.Valid {
			nr.StartedAt = &startedAt.Time
		}
		if completedAt.Valid {
			nr.CompletedAt = &completedAt.Time
		}
		nodeRuns = append(nodeRuns, nr)
	}
	return nodeRuns, rows.Err()
}

// --- Triggers ---

func (s *LibSQLStore) CreateTrigger(ctx context.Context, trig *Trigger) error {
	payload, err := marshalMapOrDefault(trig.Payload)
	if err != nil {
		return fmt.Errorf("marshal trigger payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO workflow_triggers (id, definition_id, cron_expression, payload, enabled, last_run_at, next_run_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		trig.ID, trig.DefinitionID, trig.CronExpression, string(payload), trig.Enabled,
		nullTime(trig.LastRunAt), nullTime(trig.NextRunAt), timeOrNow(trig.CreatedAt),
	)
	return err
}

func (s *LibSQLStore) GetTrigger(ctx context.Context, id string) (*Trigger, error) {
	trig := &Trigger{}
	var payloadJSON sql.NullString
	var lastRun, nextRun sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT id, definition_id, cron_expression, payload, enabled, last_run_at, next_run_at, created_at
		 FROM workflow_triggers WHERE id = ?`, id,
	).Scan(&trig.ID, &trig.DefinitionID, &trig.CronExpression, &payloadJSON, &trig.Enabled,
		&lastRun, &nextRun, &trig.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, storeNotFound("trigger", id)
	}
	if err != nil {
		return nil, err
	}
	if payloadJSON.Valid && payloadJSON.String != "" {
		_ = json.Unmarshal([]byte(payloadJSON.String), &trig.Payload)
	}
	if lastRun.Valid {
		trig.LastRunAt = &lastRun.Time
	}
	if nextRun.Valid {
		trig.NextRunAt = &nextRun.Time
	}
	return trig, nil
}

func (s *LibSQLStore) UpdateTrigger(ctx context.Context, id string, update TriggerUpdate) error {
	var sets []string
	var args []any

	if update.CronExpression != "" {
		sets = append(sets, "cron_expression = ?")
		args = append(args, update.CronExpression)
	}
	if update.Enabled != nil {
		sets = append(sets, "enabled = ?")
		args = append(args, *update.Enabled)
	}
	if update.LastRunAt != nil {
		sets = append(sets, "last_run_at = ?")
		args = append(args, *update.LastRunAt)
	}
	if update.NextRunAt != nil {
		sets = append(sets, "next_run_at = ?")
		args = append(args, *update.NextRunAt)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE workflow_triggers SET %s WHERE id = ?", strings.Join(sets, ", "))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return checkRowsAffected(res, "trigger", id)
}

func (s *LibSQLStore) ListTriggers(ctx context.Context, filter TriggerFilter) ([]*Trigger, error) {
	var where []string
	var args []any

	if filter.DefinitionID != "" {
		where = append(where, "definition_id = ?")
		args = append(args, filter.DefinitionID)
	}
	if filter.Enabled != nil {
		where = append(where, "enabled = ?")
		args = append(args, *filter.Enabled)
	}

	query := `SELECT id, definition_id, cron_expression, payload, enabled, last_run_at, next_run_at, created_at FROM workflow_triggers`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var triggers []*Trigger
	for rows.Next() {
		trig := &Trigger{}
		var payloadJSON sql.NullString
		var lastRun, nextRun sql.NullTime
		if err := rows.Scan(&trig.ID, &trig.DefinitionID, &trig.CronExpression, &payloadJSON,
			&trig.Enabled, &lastRun, &nextRun, &trig.CreatedAt); err != nil {
			return nil, err
		}
		if payloadJSON.Valid && payloadJSON.String != "" {
			_ = json.Unmarshal([]byte(payloadJSON.String), &trig.Payload)
		}
		if lastRun.Valid {
			trig.LastRunAt = &lastRun.Time
		}
		if nextRun.Valid {
			trig.NextRunAt = &nextRun.Time
		}
		triggers = append(triggers, trig)
	}
	return triggers, rows.Err()
}

func (s *LibSQLStore) DeleteTrigger(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM workflow_triggers WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res, "trigger", id)
}

// --- Secrets ---

func (s *LibSQLStore) StoreSecret(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO workflow_secrets (secret_key, value) VALUES (?, ?)
		 ON CONFLICT (secret_key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value,
	)
	return err
}

func (s *LibSQLStore) GetSecret(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM workflow_secrets WHERE secret_key = ?`, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, storeNotFound("secret", key)
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *LibSQLStore) DeleteSecret(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM workflow_secrets WHERE secret_key = ?`, key)
	if err != nil {
		return err
	}
	return checkRowsAffected(res, "secret", key)
}

func (s *LibSQLStore) ListSecrets(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT secret_key FROM workflow_secrets ORDER BY secret_key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// --- Helpers ---

func storeNotFound(resource, id string) *schema.FlowError {
	return schema.NewErrorf(schema.ErrCodeNotFound, "%s %q not found", resource, id)
}

func checkRowsAffected(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storeNotFound(resource, id)
	}
	return nil
}

func timeOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func marshalMapOrDefault(m map[string]any) (json.RawMessage, error) {
	if len(m) == 0 {
		return json.RawMessage("{}"), nil
	}
	return json.Marshal(m)
}

var _ Store = (*LibSQLStore)(nil)
