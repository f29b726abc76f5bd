package handler

import (
	"encoding/json"
	"net/http"

	"github.com/zhipai/zhipai/internal/metrics"
	"github.com/zhipai/zhipai/pkg/errors"
	"github.com/zhipai/zhipai/pkg/model"
	"github.com/zhipai/zhipai/pkg/stats"
	"github.com/zhipai/zhipai/pkg/validator"
)

// StatsHandler 统计分析处理器
type StatsHandler struct{}

// NewStatsHandler 创建统计处理器
func NewStatsHandler() *StatsHandler {
	return &StatsHandler{}
}

// StatsRequest 统计分析请求：Schema + 既有分配
type StatsRequest struct {
	Schema      SchemaInput       `json:"schema"`
	Assignments []AssignmentInput `json:"assignments"`
}

// AssignmentInput 分配输入
type AssignmentInput struct {
	EmployeeID string `json:"employee_id"`
	ShiftID    string `json:"shift_id"`
}

// parse 解析请求并装配成领域对象
func (req *StatsRequest) parse() (*model.Schema, *model.ScheduleResult, error) {
	schema, err := req.Schema.ToSchema()
	if err != nil {
		return nil, nil, err
	}
	assignment := model.NewAssignment()
	for _, a := range req.Assignments {
		assignment.Assign(a.EmployeeID, a.ShiftID)
	}
	return schema, &model.ScheduleResult{Assignment: assignment}, nil
}

func decodeStatsRequest(w http.ResponseWriter, r *http.Request) (*model.Schema, *model.ScheduleResult, bool) {
	if r.Method != http.MethodPost {
		writeError(w, errors.New(errors.CodeInvalidInput, "仅支持 POST"))
		return nil, nil, false
	}
	var req StatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.InvalidInput("body", err.Error()))
		return nil, nil, false
	}
	schema, result, err := req.parse()
	if err != nil {
		writeError(w, err)
		return nil, nil, false
	}
	return schema, result, true
}

// Fairness 公平性分析
func (h *StatsHandler) Fairness(w http.ResponseWriter, r *http.Request) {
	schema, result, ok := decodeStatsRequest(w, r)
	if !ok {
		return
	}
	m := stats.AnalyzeFairness(schema, result)
	metrics.SetFairnessGini(schema.Company, "workload", m.WorkloadGini)
	metrics.SetFairnessGini(schema.Company, "night_shift", m.NightShiftGini)
	writeJSON(w, http.StatusOK, m)
}

// Coverage 覆盖率分析
func (h *StatsHandler) Coverage(w http.ResponseWriter, r *http.Request) {
	schema, result, ok := decodeStatsRequest(w, r)
	if !ok {
		return
	}
	m := stats.AnalyzeCoverage(schema, result)
	metrics.SetCoverageRate(schema.Company, m.FillRate)
	writeJSON(w, http.StatusOK, m)
}

// ConflictsResponse 冲突检测响应
type ConflictsResponse struct {
	Conflicts []validator.Conflict `json:"conflicts"`
}

// Conflicts 对既有分配做冲突检测
func (h *StatsHandler) Conflicts(w http.ResponseWriter, r *http.Request) {
	schema, result, ok := decodeStatsRequest(w, r)
	if !ok {
		return
	}
	detector := validator.NewConflictDetector(nil)
	writeJSON(w, http.StatusOK, ConflictsResponse{
		Conflicts: detector.DetectAll(schema, result),
	})
}
