// Package domain contains the spend breakdown types. Costs are base price
// plus overage at the plan's per-MB rate, rounded to 2 decimals at every
// boundary.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type LineSpend struct {
	LineID         snowflake.ID `json:"line_id"`
	EmployeeName   string       `json:"employee_name"`
	Team           string       `json:"team"`
	CostCenter     string       `json:"cost_center"`
	BaseCostUsd    float64      `json:"base_cost_usd"`
	OverageCostUsd float64      `json:"overage_cost_usd"`
	TotalCostUsd   float64      `json:"total_cost_usd"`
}

type Summary struct {
	Period              string             `json:"period"`
	TotalBaseCostUsd    float64            `json:"total_base_cost_usd"`
	TotalOverageCostUsd float64            `json:"total_overage_cost_usd"`
	TotalCostUsd        float64            `json:"total_cost_usd"`
	ByTeam              map[string]float64 `json:"by_team"`
	ByCostCenter        map[string]float64 `json:"by_cost_center"`
	Lines               []LineSpend        `json:"lines"`
}

type Service interface {
	Summary(ctx context.Context, tenantID snowflake.ID, actorEmail string, asOf time.Time) (Summary, error)
}
