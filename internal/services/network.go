package services

import (
	"context"
	"fmt"

	"github.com/secflow/secflow/internal/models"
	"github.com/secflow/secflow/internal/utils"
)

// NetworkService wraps device discovery and the vulnerability report.
type NetworkService struct {
	gw Gateway
}

func NewNetworkService(gw Gateway) *NetworkService {
	return &NetworkService{gw: gw}
}

// Scan discovers devices and traffic for the network around ip.
func (s *NetworkService) Scan(ctx context.Context, ip string) (*models.ScanResult, error) {
	if err := requireVar("ip", ip, "required,ip", "must be an IP address"); err != nil {
		return nil, err
	}

	var result models.ScanResult
	env := s.gw.Get(ctx, "/network/scan/"+utils.PathSegment(ip))
	if err := decodeEnvelope(env, "network scan", &result); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", ip, err)
	}
	if result.Devices == nil {
		result.Devices = []models.Device{}
	}
	return &result, nil
}

// Traffic returns the backend's current traffic snapshot.
func (s *NetworkService) Traffic(ctx context.Context) (*models.ScanResult, error) {
	var result models.ScanResult
	env := s.gw.Get(ctx, "/network/traffic")
	if err := decodeEnvelope(env, "traffic analysis", &result); err != nil {
		return nil, fmt.Errorf("fetching traffic analysis: %w", err)
	}
	return &result, nil
}

// SecurityAnalysis fetches the vulnerability and recommendation report for
// an address range such as 192.168.1.0/24.
func (s *NetworkService) SecurityAnalysis(ctx context.Context, ipRange string) (*models.SecurityAnalysis, error) {
	if err := requireVar("ipRange", ipRange, "required,cidr|ip|hostname", "must be a CIDR range, IP address or hostname"); err != nil {
		return nil, err
	}

	var analysis models.SecurityAnalysis
	env := s.gw.Get(ctx, "/network/analysis/"+utils.PathSegment(ipRange))
	if err := decodeEnvelope(env, "security analysis", &analysis); err != nil {
		return nil, fmt.Errorf("analysing %s: %w", ipRange, err)
	}
	return &analysis, nil
}
