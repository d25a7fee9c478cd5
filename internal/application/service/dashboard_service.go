package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sangkips/billing-api/internal/domain/entity"
	"github.com/sangkips/billing-api/internal/domain/enum"
	"github.com/sangkips/billing-api/internal/domain/repository"
	"github.com/sangkips/billing-api/pkg/apperror"
	"github.com/sangkips/billing-api/pkg/utils"
	"github.com/shopspring/decimal"
)

// Dashboard windows
const (
	WindowToday = "today"
	WindowWeek  = "week"
	WindowMonth = "month"
)

const recentBillsLimit = 5

// DashboardService provides dashboard statistics
type DashboardService struct {
	billRepo repository.BillRepository
	now      func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(billRepo repository.BillRepository) *DashboardService {
	return &DashboardService{billRepo: billRepo, now: time.Now}
}

// DashboardStats represents dashboard statistics
type DashboardStats struct {
	Window       string          `json:"window"`
	Start        time.Time       `json:"start"`
	End          time.Time       `json:"end"`
	TotalBills   int             `json:"total_bills"`
	TotalSales   int             `json:"total_sales"`
	TotalService int             `json:"total_service"`
	TotalRepair  int             `json:"total_repair"`
	GSTBills     int             `json:"gst_bills"`
	NonGSTBills  int             `json:"non_gst_bills"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	RecentBills  []entity.Bill   `json:"recent_bills"`
}

// WindowBounds resolves a window name relative to now. An empty name means week.
func WindowBounds(window string, now time.Time) (string, time.Time, error) {
	switch window {
	case WindowToday:
		return window, utils.StartOfDay(now), nil
	case WindowWeek, "":
		return WindowWeek, now.AddDate(0, 0, -7), nil
	case WindowMonth:
		return window, now.AddDate(0, 0, -30), nil
	default:
		return "", time.Time{}, apperror.NewFieldError("range",
			fmt.Sprintf("must be one of %s, %s, %s", WindowToday, WindowWeek, WindowMonth))
	}
}

// GetDashboardStats summarizes the bills created within window
func (s *DashboardService) GetDashboardStats(ctx context.Context, window string) (*DashboardStats, error) {
	now := s.now()
	name, start, err := WindowBounds(window, now)
	if err != nil {
		return nil, err
	}

	bills, _, err := s.billRepo.List(ctx, &repository.BillFilterParams{StartDate: &start, EndDate: &now})
	if err != nil {
		return nil, err
	}

	stats := SummarizeBills(bills)
	stats.Window = name
	stats.Start = start
	stats.End = now
	return stats, nil
}

// SummarizeBills reduces a bill list into dashboard counters
func SummarizeBills(bills []entity.Bill) *DashboardStats {
	stats := &DashboardStats{TotalRevenue: decimal.Zero, TotalBills: len(bills)}

	for _, b := range bills {
		switch b.BillCategory {
		case enum.BillCategorySales:
			stats.TotalSales++
		case enum.BillCategoryService:
			stats.TotalService++
		case enum.BillCategoryRepair:
			stats.TotalRepair++
		}
		if b.BillType == enum.BillTypeGST {
			stats.GSTBills++
		} else {
			stats.NonGSTBills++
		}
		stats.TotalRevenue = stats.TotalRevenue.Add(b.Total)
	}

	recent := make([]entity.Bill, len(bills))
	copy(recent, bills)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	if len(recent) > recentBillsLimit {
		recent = recent[:recentBillsLimit]
	}
	stats.RecentBills = recent
	return stats
}
