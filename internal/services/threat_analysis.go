package services

import (
	"context"
	"fmt"

	"github.com/secflow/secflow/internal/models"
)

type ThreatAnalysisService struct {
	gw Gateway
}

func NewThreatAnalysisService(gw Gateway) *ThreatAnalysisService {
	return &ThreatAnalysisService{gw: gw}
}

// All fetches the aggregate threat snapshot. A payload missing any of
// networkData, devices, securityScore, threatMetrics or networkHealth is a
// *DataError.
func (s *ThreatAnalysisService) All(ctx context.Context) (*models.ThreatAnalysis, error) {
	var data models.ThreatAnalysis
	env := s.gw.Get(ctx, "/threat-analysis")
	if err := decodeEnvelope(env, "threat analysis", &data); err != nil {
		return nil, fmt.Errorf("fetching threat analysis data: %w", err)
	}
	return &data, nil
}
