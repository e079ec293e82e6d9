package service

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	accessdomain "github.com/tphona/fleetline/internal/access/domain"
	linedomain "github.com/tphona/fleetline/internal/line/domain"
	plandomain "github.com/tphona/fleetline/internal/plan/domain"
	spenddomain "github.com/tphona/fleetline/internal/spend/domain"
	usagedomain "github.com/tphona/fleetline/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Access accessdomain.Service
	Usage  usagedomain.Service
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	access accessdomain.Service
	usage  usagedomain.Service
}

func NewService(p Params) spenddomain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("spend.service"),
		access: p.Access,
		usage:  p.Usage,
	}
}

func (s *Service) Summary(ctx context.Context, tenantID snowflake.ID, actorEmail string, asOf time.Time) (spenddomain.Summary, error) {
	if _, err := s.access.Authorize(ctx, tenantID, actorEmail); err != nil {
		return spenddomain.Summary{}, err
	}

	// One usage snapshot per call; never re-query raw events here.
	usage, err := s.usage.Summary(ctx, tenantID, actorEmail, asOf)
	if err != nil {
		return spenddomain.Summary{}, err
	}
	usageByLine := make(map[snowflake.ID]usagedomain.LineUsage, len(usage.Lines))
	for _, entry := range usage.Lines {
		usageByLine[entry.LineID] = entry
	}

	var lines []linedomain.Line
	if err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Find(&lines).Error; err != nil {
		return spenddomain.Summary{}, err
	}

	var plans []plandomain.Plan
	if err := s.db.WithContext(ctx).
		Where("tenant_id IS NULL OR tenant_id = ?", tenantID).
		Find(&plans).Error; err != nil {
		return spenddomain.Summary{}, err
	}
	overageRate := make(map[snowflake.ID]float64, len(plans))
	for _, plan := range plans {
		overageRate[plan.ID] = plan.OverageUsdPerMb
	}

	byTeam := map[string]float64{}
	byCostCenter := map[string]float64{}
	spendLines := make([]spenddomain.LineSpend, 0, len(lines))

	for _, line := range lines {
		usageLine, hasUsage := usageByLine[line.ID]

		// Terminated lines stay listed for visibility but carry no base
		// cost.
		baseCost := line.MonthlyPriceUsd
		if line.Status == linedomain.StatusTerminated {
			baseCost = 0
		}

		usedMb := int64(0)
		if hasUsage {
			usedMb = usageLine.UsedMb
		}
		overageMb := usedMb - line.DataAllocatedMb
		if overageMb < 0 {
			overageMb = 0
		}
		overageCost := round2(float64(overageMb) * overageRate[line.PlanID])
		totalCost := round2(baseCost + overageCost)

		entry := spenddomain.LineSpend{
			LineID:         line.ID,
			EmployeeName:   "Unknown employee",
			Team:           "Unknown team",
			CostCenter:     "Unknown cost center",
			BaseCostUsd:    baseCost,
			OverageCostUsd: overageCost,
			TotalCostUsd:   totalCost,
		}
		if hasUsage {
			entry.EmployeeName = usageLine.EmployeeName
			entry.Team = usageLine.Team
			entry.CostCenter = usageLine.CostCenter

			// Each bucket is re-rounded after every addition so repeated
			// small overages accumulate exactly like the reported values.
			byTeam[entry.Team] = round2(byTeam[entry.Team] + totalCost)
			byCostCenter[entry.CostCenter] = round2(byCostCenter[entry.CostCenter] + totalCost)
		}

		spendLines = append(spendLines, entry)
	}

	totalBase := 0.0
	totalOverage := 0.0
	for _, entry := range spendLines {
		totalBase += entry.BaseCostUsd
		totalOverage += entry.OverageCostUsd
	}
	totalBase = round2(totalBase)
	totalOverage = round2(totalOverage)

	sort.SliceStable(spendLines, func(i, j int) bool {
		return spendLines[i].TotalCostUsd > spendLines[j].TotalCostUsd
	})

	return spenddomain.Summary{
		Period:              usage.Period,
		TotalBaseCostUsd:    totalBase,
		TotalOverageCostUsd: totalOverage,
		TotalCostUsd:        round2(totalBase + totalOverage),
		ByTeam:              byTeam,
		ByCostCenter:        byCostCenter,
		Lines:               spendLines,
	}, nil
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
