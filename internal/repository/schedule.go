package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zhipai/zhipai/pkg/model"
)

// Schedule 持久化的排班记录
type Schedule struct {
	ID      uuid.UUID `json:"id"`
	Company string    `json:"company"`
	Method  string    `json:"method"`
	Status  string    `json:"status"`

	// Assignment 最终分配（JSON 存储）
	Assignment model.Assignment `json:"assignment"`

	// Profile 生效的放宽档位（JSON 存储，可为空）
	Profile *model.RelaxationProfile `json:"profile,omitempty"`

	SolveAttempts  int       `json:"solve_attempts"`
	UncoveredCount int       `json:"uncovered_count"`
	DurationMs     int64     `json:"duration_ms"`
	CreatedAt      time.Time `json:"created_at"`
}

// FromResult 把引擎结果装配为持久化记录
func FromResult(company, method string, result *model.ScheduleResult) *Schedule {
	return &Schedule{
		ID:             uuid.New(),
		Company:        company,
		Method:         method,
		Status:         string(result.Status),
		Assignment:     result.Assignment,
		Profile:        result.Profile,
		SolveAttempts:  result.SolveAttempts,
		UncoveredCount: len(result.Uncovered),
		DurationMs:     result.Duration.Milliseconds(),
		CreatedAt:      time.Now(),
	}
}

// ScheduleRepository 排班记录仓储
type ScheduleRepository struct {
	db DB
}

// NewScheduleRepository 创建排班仓储
func NewScheduleRepository(db DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Create 保存排班记录
func (r *ScheduleRepository) Create(ctx context.Context, s *Schedule) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}

	assignment, err := json.Marshal(assignmentPairs(s.Assignment))
	if err != nil {
		return fmt.Errorf("序列化分配失败: %w", err)
	}
	profile, err := json.Marshal(s.Profile)
	if err != nil {
		return fmt.Errorf("序列化放宽档位失败: %w", err)
	}

	query := `
		INSERT INTO schedules (id, company, method, status, assignment, profile,
			solve_attempts, uncovered_count, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = r.db.ExecContext(ctx, query,
		s.ID, s.Company, s.Method, s.Status, assignment, profile,
		s.SolveAttempts, s.UncoveredCount, s.DurationMs, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("保存排班记录失败: %w", err)
	}
	return nil
}

// GetByID 按 ID 查询排班记录
func (r *ScheduleRepository) GetByID(ctx context.Context, id uuid.UUID) (*Schedule, error) {
	query := `
		SELECT id, company, method, status, assignment, profile,
			solve_attempts, uncovered_count, duration_ms, created_at
		FROM schedules WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// Latest 返回某公司最近一次排班记录
func (r *ScheduleRepository) Latest(ctx context.Context, company string) (*Schedule, error) {
	query := `
		SELECT id, company, method, status, assignment, profile,
			solve_attempts, uncovered_count, duration_ms, created_at
		FROM schedules WHERE company = $1
		ORDER BY created_at DESC LIMIT 1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, company))
}

// List 按过滤器查询排班记录
func (r *ScheduleRepository) List(ctx context.Context, filter ListFilter) ([]*Schedule, error) {
	var conds []string
	var args []interface{}
	if filter.Company != "" {
		args = append(args, filter.Company)
		conds = append(conds, fmt.Sprintf("company = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Method != "" {
		args = append(args, filter.Method)
		conds = append(conds, fmt.Sprintf("method = $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}
	dir := "DESC"
	if strings.EqualFold(filter.OrderDir, "asc") {
		dir = "ASC"
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, filter.Offset)

	query := fmt.Sprintf(`
		SELECT id, company, method, status, assignment, profile,
			solve_attempts, uncovered_count, duration_ms, created_at
		FROM schedules %s
		ORDER BY created_at %s LIMIT $%d OFFSET $%d`,
		where, dir, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("查询排班记录失败: %w", err)
	}
	defer rows.Close()

	var schedules []*Schedule
	for rows.Next() {
		s, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}

// Delete 删除排班记录
func (r *ScheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("删除排班记录失败: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func (r *ScheduleRepository) scanOne(row *sql.Row) (*Schedule, error) {
	return r.scanRow(row)
}

func (r *ScheduleRepository) scanRow(row scanner) (*Schedule, error) {
	var s Schedule
	var assignment, profile []byte
	err := row.Scan(&s.ID, &s.Company, &s.Method, &s.Status, &assignment, &profile,
		&s.SolveAttempts, &s.UncoveredCount, &s.DurationMs, &s.CreatedAt)
	if err != nil {
		return nil, err
	}

	var pairs []model.AssignKey
	if len(assignment) > 0 {
		if err := json.Unmarshal(assignment, &pairs); err != nil {
			return nil, fmt.Errorf("解析分配失败: %w", err)
		}
	}
	s.Assignment = model.NewAssignment()
	for _, p := range pairs {
		s.Assignment.Assign(p.EmployeeID, p.ShiftID)
	}

	if len(profile) > 0 && string(profile) != "null" {
		s.Profile = &model.RelaxationProfile{}
		if err := json.Unmarshal(profile, s.Profile); err != nil {
			return nil, fmt.Errorf("解析放宽档位失败: %w", err)
		}
	}
	return &s, nil
}

// assignmentPairs 把分配转为有序键列表（map 键不宜直接入 JSON）
func assignmentPairs(a model.Assignment) []model.AssignKey {
	if a == nil {
		return nil
	}
	return a.Pairs()
}
