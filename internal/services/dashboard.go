package services

import (
	"context"
	"fmt"

	"github.com/secflow/secflow/internal/models"
)

// DashboardService fetches the four dashboard tiles.
type DashboardService struct {
	gw Gateway
}

func NewDashboardService(gw Gateway) *DashboardService {
	return &DashboardService{gw: gw}
}

func (s *DashboardService) NetworkHealth(ctx context.Context) (*models.NetworkHealth, error) {
	var health models.NetworkHealth
	env := s.gw.Get(ctx, "/dashboard/network-health")
	if err := decodeEnvelope(env, "network health", &health); err != nil {
		return nil, fmt.Errorf("fetching network health: %w", err)
	}
	return &health, nil
}

func (s *DashboardService) Threats(ctx context.Context) (*models.ThreatCounts, error) {
	var counts models.ThreatCounts
	env := s.gw.Get(ctx, "/dashboard/threats")
	if err := decodeEnvelope(env, "threats", &counts); err != nil {
		return nil, fmt.Errorf("fetching threats: %w", err)
	}
	return &counts, nil
}

func (s *DashboardService) Alerts(ctx context.Context) (*models.AlertsData, error) {
	var alerts models.AlertsData
	env := s.gw.Get(ctx, "/dashboard/alerts")
	if err := decodeEnvelope(env, "alerts", &alerts); err != nil {
		return nil, fmt.Errorf("fetching alerts: %w", err)
	}
	return &alerts, nil
}

func (s *DashboardService) SecurityScore(ctx context.Context) (*models.SecurityScore, error) {
	var score models.SecurityScore
	env := s.gw.Get(ctx, "/dashboard/security-score")
	if err := decodeEnvelope(env, "security score", &score); err != nil {
		return nil, fmt.Errorf("fetching security score: %w", err)
	}
	return &score, nil
}
