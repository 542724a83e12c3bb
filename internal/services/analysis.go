package services

import (
	"context"
	"fmt"
	"net/url"

	"github.com/secflow/secflow/internal/models"
)

// AnalysisService relays the APT, phishing and zero-day classifiers. Their
// payloads are opaque here apart from the APT predictions.
type AnalysisService struct {
	gw Gateway
}

func NewAnalysisService(gw Gateway) *AnalysisService {
	return &AnalysisService{gw: gw}
}

func (s *AnalysisService) StartAPTMonitoring(ctx context.Context) models.OpaqueResult {
	env := s.gw.Post(ctx, "/apt/monitoring/start", struct{}{})
	return models.OpaqueResult{StatusCode: env.StatusCode, Data: env.Data}
}

func (s *AnalysisService) StopAPTMonitoring(ctx context.Context) models.OpaqueResult {
	env := s.gw.Post(ctx, "/apt/monitoring/stop", struct{}{})
	return models.OpaqueResult{StatusCode: env.StatusCode, Data: env.Data}
}

func (s *AnalysisService) CapturePackets(ctx context.Context) models.OpaqueResult {
	env := s.gw.Post(ctx, "/apt/capture/packets", struct{}{})
	return models.OpaqueResult{StatusCode: env.StatusCode, Data: env.Data}
}

// APTResults returns the classifier's latest predictions.
func (s *AnalysisService) APTResults(ctx context.Context) (*models.APTResult, error) {
	var result models.APTResult
	env := s.gw.Get(ctx, "/apt/monitoring/all")
	if err := decodeEnvelope(env, "apt analysis", &result); err != nil {
		return nil, fmt.Errorf("fetching apt analysis: %w", err)
	}
	return &result, nil
}

func (s *AnalysisService) Phishing(ctx context.Context, q models.PhishingQuery) (models.OpaqueResult, error) {
	if q.URL == "" && q.Domain == "" && q.HTML == "" {
		return models.OpaqueResult{}, &InputError{Field: "url", Reason: "one of url, domain or html is required"}
	}

	params := url.Values{}
	if q.URL != "" {
		params.Set("url", q.URL)
	}
	if q.Domain != "" {
		params.Set("domain", q.Domain)
	}
	if q.HTML != "" {
		params.Set("html", q.HTML)
	}

	env := s.gw.Get(ctx, "/phishing/scan/all?"+params.Encode())
	return models.OpaqueResult{StatusCode: env.StatusCode, Data: env.Data}, nil
}

func (s *AnalysisService) ZeroDay(ctx context.Context) models.OpaqueResult {
	env := s.gw.Get(ctx, "/zeroDay/scan/all")
	return models.OpaqueResult{StatusCode: env.StatusCode, Data: env.Data}
}
