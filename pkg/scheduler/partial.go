package scheduler

import (
	"github.com/zhipai/zhipai/pkg/model"
)

// PartialByPercentage 只保留合同百分比不低于阈值的员工
// 原 Schema 不被修改；作用于被缩减池的声明由编码器自然忽略
func PartialByPercentage(schema *model.Schema, minPercentage int) *model.Schema {
	var kept []*model.Employee
	for _, emp := range schema.Employees {
		if emp.Percentage >= minPercentage {
			kept = append(kept, emp)
		}
	}
	return schema.WithEmployees(kept)
}

// PartialByExperience 只保留经验不低于阈值的员工
func PartialByExperience(schema *model.Schema, minExperience int) *model.Schema {
	var kept []*model.Employee
	for _, emp := range schema.Employees {
		if emp.Experience >= minExperience {
			kept = append(kept, emp)
		}
	}
	return schema.WithEmployees(kept)
}
