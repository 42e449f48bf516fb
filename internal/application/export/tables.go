package export

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/smartspace/backend/internal/domain/workspace"
)

// table is the format independent form of a report
type table struct {
	Title   string
	Headers []string
	Rows    [][]any
	Metrics map[string]float64
}

func (s *Service) buildTable(ctx context.Context, companyID string, reportType ReportType, from, to time.Time) (*table, error) {
	switch reportType {
	case ReportOccupancy:
		readings, err := s.readings.Space(ctx, companyID, from, to)
		if err != nil {
			return nil, fmt.Errorf("failed to load space readings: %w", err)
		}
		return occupancyTable(readings), nil
	case ReportEnergy:
		readings, err := s.readings.Energy(ctx, companyID, from, to)
		if err != nil {
			return nil, fmt.Errorf("failed to load energy readings: %w", err)
		}
		return energyTable(readings), nil
	case ReportSpaces:
		spaces, err := s.spaces.FindAll(ctx, companyID, workspace.SpaceFilter{})
		if err != nil {
			return nil, fmt.Errorf("failed to load spaces: %w", err)
		}
		return spacesTable(spaces), nil
	default:
		open, err := s.conflicts.FindOpen(ctx, companyID)
		if err != nil {
			return nil, fmt.Errorf("failed to load open conflicts: %w", err)
		}
		resolved, err := s.conflicts.FindResolvedSince(ctx, companyID, from)
		if err != nil {
			return nil, fmt.Errorf("failed to load resolved conflicts: %w", err)
		}
		return conflictsTable(open, resolved), nil
	}
}

func occupancyTable(readings []*workspace.SpaceReading) *table {
	t := &table{
		Title: "Occupancy Report",
		Headers: []string{
			"Timestamp", "Utilization (%)", "Occupancy", "Capacity",
			"Temperature (C)", "Humidity (%)", "CO2 (ppm)", "Noise (dB)",
		},
		Metrics: map[string]float64{},
	}
	var sumUtil, peak, sumTemp float64
	for _, r := range readings {
		util := r.OverallUtilization * 100
		sumUtil += util
		sumTemp += r.AverageTemperature
		peak = math.Max(peak, util)
		t.Rows = append(t.Rows, []any{
			r.Timestamp, util, r.TotalOccupancy, r.TotalCapacity,
			r.AverageTemperature, r.AverageHumidity, r.AverageCO2, r.AverageNoise,
		})
	}
	if n := float64(len(readings)); n > 0 {
		t.Metrics["avg_utilization"] = round1(sumUtil / n)
		t.Metrics["peak_utilization"] = round1(peak)
		t.Metrics["avg_temperature"] = round1(sumTemp / n)
	}
	return t
}

func energyTable(readings []*workspace.EnergyReading) *table {
	t := &table{
		Title: "Energy Report",
		Headers: []string{
			"Timestamp", "Total (kWh)", "HVAC (kWh)", "Lighting (kWh)", "Equipment (kWh)",
			"Cost", "Efficiency", "Carbon (kg)",
		},
		Metrics: map[string]float64{},
	}
	var total, efficiency, carbon float64
	cost := decimal.Zero
	for _, r := range readings {
		total += r.TotalConsumption
		efficiency += r.EfficiencyScore
		carbon += r.CarbonFootprint
		cost = cost.Add(r.CostPerHour)
		t.Rows = append(t.Rows, []any{
			r.Timestamp, r.TotalConsumption, r.HVACConsumption, r.LightingConsumption,
			r.EquipmentConsumption, r.CostPerHour, r.EfficiencyScore, r.CarbonFootprint,
		})
	}
	if n := float64(len(readings)); n > 0 {
		t.Metrics["total_consumption"] = round1(total)
		t.Metrics["total_cost"] = cost.Round(2).InexactFloat64()
		t.Metrics["avg_efficiency"] = round1(efficiency / n)
		t.Metrics["total_carbon"] = round1(carbon)
	}
	return t
}

func spacesTable(spaces []*workspace.Space) *table {
	t := &table{
		Title: "Space Inventory",
		Headers: []string{
			"ID", "Name", "Type", "Floor", "Capacity", "Occupancy", "Utilization (%)",
			"Temperature (C)", "Humidity (%)", "CO2 (ppm)", "Noise (dB)", "Rating",
		},
		Metrics: map[string]float64{},
	}
	var capacity, occupancy int
	for _, sp := range spaces {
		capacity += sp.Capacity
		occupancy += sp.CurrentOccupancy
		t.Rows = append(t.Rows, []any{
			sp.ID, sp.Name, string(sp.Type), sp.Floor, sp.Capacity, sp.CurrentOccupancy,
			sp.Utilization() * 100, sp.Environment.Temperature, sp.Environment.Humidity,
			sp.Environment.CO2Level, sp.Environment.NoiseLevel, sp.Rating,
		})
	}
	t.Metrics["total_spaces"] = float64(len(spaces))
	t.Metrics["total_capacity"] = float64(capacity)
	if capacity > 0 {
		t.Metrics["overall_utilization"] = round1(float64(occupancy) / float64(capacity) * 100)
	}
	return t
}

func conflictsTable(open, resolved []*workspace.Conflict) *table {
	t := &table{
		Title: "Conflict Report",
		Headers: []string{
			"ID", "Space ID", "Space", "Status", "Highest Severity", "Total Severity",
			"Issues", "Detected At", "Resolved At", "Resolution",
		},
		Metrics: map[string]float64{},
	}
	all := append(append([]*workspace.Conflict{}, open...), resolved...)
	sort.SliceStable(all, func(i, j int) bool { return all[i].DetectedAt.After(all[j].DetectedAt) })

	severity := 0
	for _, c := range all {
		severity += c.TotalSeverity
		issues := make([]string, len(c.Issues))
		for i, issue := range c.Issues {
			issues[i] = issue.Type
		}
		var resolvedAt any = ""
		if c.ResolvedAt != nil {
			resolvedAt = *c.ResolvedAt
		}
		t.Rows = append(t.Rows, []any{
			c.ID.String(), c.SpaceID, c.SpaceName, string(c.Status), string(c.HighestSeverity()),
			c.TotalSeverity, strings.Join(issues, "; "), c.DetectedAt, resolvedAt, c.Resolution,
		})
	}
	t.Metrics["open_conflicts"] = float64(len(open))
	t.Metrics["resolved_conflicts"] = float64(len(resolved))
	t.Metrics["total_severity"] = float64(severity)
	return t
}

// formatCell renders a cell for the text formats
func formatCell(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return fmt.Sprintf("%.2f", val)
	case int:
		return fmt.Sprintf("%d", val)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case decimal.Decimal:
		return val.StringFixed(2)
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
