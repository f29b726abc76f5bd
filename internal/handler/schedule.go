// Package handler 提供HTTP请求处理器
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/zhipai/zhipai/internal/metrics"
	"github.com/zhipai/zhipai/internal/repository"
	"github.com/zhipai/zhipai/pkg/errors"
	"github.com/zhipai/zhipai/pkg/logger"
	"github.com/zhipai/zhipai/pkg/model"
	"github.com/zhipai/zhipai/pkg/scheduler"
)

// ScheduleHandler 排班处理器
type ScheduleHandler struct {
	engine  *scheduler.Engine
	repo    *repository.ScheduleRepository // 可为 nil（无持久化模式）
	timeout time.Duration
}

// NewScheduleHandler 创建排班处理器
func NewScheduleHandler(engine *scheduler.Engine, repo *repository.ScheduleRepository, timeout time.Duration) *ScheduleHandler {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ScheduleHandler{engine: engine, repo: repo, timeout: timeout}
}

// GenerateRequest 排班生成请求
type GenerateRequest struct {
	Method string      `json:"method"` // basic_greedy/optimized_cp/partial_high_percentage/partial_experience
	Schema SchemaInput `json:"schema"`
}

// SchemaInput 排班 Schema 输入
type SchemaInput struct {
	Company      string                         `json:"company"`
	Days         []string                       `json:"days,omitempty"` // 英文星期名，空为周一到周日
	Employees    []EmployeeInput                `json:"employees"`
	Shifts       []ShiftInput                   `json:"shifts"`
	Declarations []*model.ConstraintDeclaration `json:"declarations,omitempty"`
}

// EmployeeInput 员工输入
type EmployeeInput struct {
	ID           string                       `json:"id"`
	Name         string                       `json:"name"`
	Percentage   int                          `json:"percentage"`
	Roles        []string                     `json:"roles"`
	Experience   int                          `json:"experience"`
	Availability map[string][]TimeWindowInput `json:"availability,omitempty"` // 星期名 -> 窗口
	Flags        []string                     `json:"flags,omitempty"`
	Preferences  map[string]float64           `json:"preferences,omitempty"`
}

// TimeWindowInput 时间窗口输入
type TimeWindowInput struct {
	Start string `json:"start"` // HH:MM
	End   string `json:"end"`   // HH:MM
}

// ShiftInput 班次输入
type ShiftInput struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Day           string         `json:"day"` // 英文星期名
	Date          string         `json:"date,omitempty"`
	StartTime     string         `json:"start_time"` // HH:MM
	EndTime       string         `json:"end_time"`   // HH:MM
	RequiredRoles map[string]int `json:"required_roles"`
	Tags          []string       `json:"tags,omitempty"`
}

// GenerateResponse 排班生成响应
type GenerateResponse struct {
	ScheduleID    string                        `json:"schedule_id,omitempty"`
	Status        string                        `json:"status"`
	Assignments   []AssignmentOutput            `json:"assignments"`
	ByEmployee    map[string][]model.DaySchedule `json:"by_employee,omitempty"`
	Profile       *model.RelaxationProfile      `json:"profile,omitempty"`
	Violations    []model.SoftViolation         `json:"violations,omitempty"`
	Uncovered     []model.UncoveredShift        `json:"uncovered,omitempty"`
	UnsatHard     []string                      `json:"unsat_hard,omitempty"`
	SolveAttempts int                           `json:"solve_attempts"`
	Duration      string                        `json:"duration"`
	Message       string                        `json:"message,omitempty"`
}

// AssignmentOutput 单条分配输出
type AssignmentOutput struct {
	EmployeeID string `json:"employee_id"`
	ShiftID    string `json:"shift_id"`
	Day        string `json:"day"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
}

// Generate 处理排班生成请求
func (h *ScheduleHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, errors.New(errors.CodeInvalidInput, "仅支持 POST"))
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.InvalidInput("body", err.Error()))
		return
	}

	method, err := scheduler.ParseMethod(req.Method)
	if err != nil {
		writeError(w, err)
		return
	}

	schema, err := req.Schema.ToSchema()
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	start := time.Now()
	result, err := h.engine.Generate(ctx, schema, method)
	if err != nil {
		metrics.RecordScheduleGeneration(string(method), "error", time.Since(start))
		writeError(w, err)
		return
	}
	metrics.RecordScheduleGeneration(string(method), string(result.Status), time.Since(start))
	metrics.SetUncoveredShifts(schema.Company, len(result.Uncovered))
	if result.Profile != nil {
		metrics.RecordSolveAttempt(result.Profile.Tier, string(result.Status))
	}
	if result.Status == model.StatusGreedyFallback {
		metrics.RecordGreedyFallback(schema.Company)
	}

	resp := buildGenerateResponse(schema, result)

	if h.repo != nil && result.Assignment != nil {
		record := repository.FromResult(schema.Company, string(method), result)
		if err := h.repo.Create(ctx, record); err != nil {
			logger.WithError(err).Msg("保存排班记录失败")
		} else {
			resp.ScheduleID = record.ID.String()
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// ValidateRequest 排班验证请求
type ValidateRequest struct {
	Schema SchemaInput `json:"schema"`
}

// ValidateResponse 排班验证响应
type ValidateResponse struct {
	Valid  bool                     `json:"valid"`
	Errors []errors.ValidationError `json:"errors,omitempty"`
}

// Validate 处理 Schema 验证请求：一次性返回全部验证问题
func (h *ScheduleHandler) Validate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, errors.New(errors.CodeInvalidInput, "仅支持 POST"))
		return
	}

	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.InvalidInput("body", err.Error()))
		return
	}

	schema, err := req.Schema.ToSchema()
	if err != nil {
		writeError(w, err)
		return
	}

	if ve := schema.Validate(); ve != nil {
		writeJSON(w, http.StatusOK, ValidateResponse{Valid: false, Errors: ve.Errors})
		return
	}
	writeJSON(w, http.StatusOK, ValidateResponse{Valid: true})
}

// GetSchedule 按 ID 查询已保存的排班记录
func (h *ScheduleHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, errors.New(errors.CodeInvalidInput, "仅支持 GET"))
		return
	}
	if h.repo == nil {
		writeError(w, errors.New(errors.CodeNotFound, "未启用持久化"))
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	record, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, errors.Wrap(err, errors.CodeNotFound, "排班记录不存在"))
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// ToSchema 把输入 DTO 转为领域 Schema
// 星期名、时间窗口在此解析；其余合法性交给 Schema.Validate
func (in *SchemaInput) ToSchema() (*model.Schema, error) {
	schema := &model.Schema{Company: in.Company}

	if len(in.Days) == 0 {
		schema.Days = model.DefaultDays()
	} else {
		for _, name := range in.Days {
			day, err := model.ParseWeekday(name)
			if err != nil {
				return nil, errors.InvalidInput("days", err.Error())
			}
			schema.Days = append(schema.Days, day)
		}
	}

	for _, e := range in.Employees {
		emp := &model.Employee{
			ID:          e.ID,
			Name:        e.Name,
			Percentage:  e.Percentage,
			Roles:       e.Roles,
			Experience:  e.Experience,
			Flags:       e.Flags,
			Preferences: e.Preferences,
		}
		if e.Availability != nil {
			emp.Availability = make(map[time.Weekday][]model.TimeWindow)
			for name, windows := range e.Availability {
				day, err := model.ParseWeekday(name)
				if err != nil {
					return nil, errors.InvalidInput("availability", err.Error())
				}
				for _, win := range windows {
					start, err := model.ParseClock(win.Start)
					if err != nil {
						return nil, errors.InvalidInput("availability", err.Error())
					}
					end, err := model.ParseClock(win.End)
					if err != nil {
						return nil, errors.InvalidInput("availability", err.Error())
					}
					emp.Availability[day] = append(emp.Availability[day], model.TimeWindow{Start: start, End: end})
				}
			}
		}
		schema.Employees = append(schema.Employees, emp)
	}

	for _, s := range in.Shifts {
		day, err := model.ParseWeekday(s.Day)
		if err != nil {
			return nil, errors.InvalidInput("shifts", err.Error())
		}
		schema.Shifts = append(schema.Shifts, &model.Shift{
			ID:            s.ID,
			Name:          s.Name,
			Day:           day,
			Date:          s.Date,
			StartTime:     s.StartTime,
			EndTime:       s.EndTime,
			RequiredRoles: s.RequiredRoles,
			Tags:          s.Tags,
		})
	}

	schema.Declarations = in.Declarations
	return schema, nil
}

// buildGenerateResponse 装配响应体
func buildGenerateResponse(schema *model.Schema, result *model.ScheduleResult) *GenerateResponse {
	resp := &GenerateResponse{
		Status:        string(result.Status),
		Assignments:   []AssignmentOutput{},
		Profile:       result.Profile,
		Violations:    result.Violations,
		Uncovered:     result.Uncovered,
		UnsatHard:     result.UnsatHard,
		SolveAttempts: result.SolveAttempts,
		Duration:      result.Duration.String(),
		Message:       result.Message,
	}
	if result.Assignment == nil {
		return resp
	}

	for _, key := range result.Assignment.Pairs() {
		sh := schema.Shift(key.ShiftID)
		out := AssignmentOutput{EmployeeID: key.EmployeeID, ShiftID: key.ShiftID}
		if sh != nil {
			out.Day = model.WeekdayName(sh.Day)
			out.StartTime = sh.StartTime
			out.EndTime = sh.EndTime
		}
		resp.Assignments = append(resp.Assignments, out)
	}
	resp.ByEmployee = result.ByEmployee(schema)
	return resp
}
