package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/secflow/secflow/internal/gateway"
	"github.com/secflow/secflow/internal/models"
	"github.com/secflow/secflow/internal/utils"
)

// ToolsService covers the on-demand security tools. Nothing here is polled;
// each call is triggered by an explicit user action.
type ToolsService struct {
	gw Gateway
}

func NewToolsService(gw Gateway) *ToolsService {
	return &ToolsService{gw: gw}
}

func (s *ToolsService) VulnerabilityScan(ctx context.Context, target string) (*models.VulnerabilityScan, error) {
	target = strings.TrimSpace(target)
	if err := requireVar("target", target, "required,ip|hostname|fqdn|cidr", "must be an IP address or hostname"); err != nil {
		return nil, err
	}

	var scan models.VulnerabilityScan
	env := s.gw.Get(ctx, "/vulnerability/scan/"+utils.PathSegment(target))
	if err := decodeEnvelope(env, "vulnerability scan", &scan); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", target, err)
	}
	if scan.Target == "" {
		scan.Target = target
	}
	return &scan, nil
}

func (s *ToolsService) DarkWeb(ctx context.Context, email string) (*models.DarkWebResult, error) {
	email = strings.TrimSpace(email)
	if err := requireVar("email", email, "required,email", "must be a valid email address"); err != nil {
		return nil, err
	}

	var result models.DarkWebResult
	env := s.gw.Get(ctx, "/advanced-network/dark-web/"+utils.PathSegment(email))
	if err := decodeEnvelope(env, "dark web check", &result); err != nil {
		return nil, fmt.Errorf("checking %s: %w", email, err)
	}
	if result.Email == "" {
		result.Email = email
	}
	if result.Breaches == nil {
		result.Breaches = []models.Breach{}
	}
	return &result, nil
}

func (s *ToolsService) ThreatCheck(ctx context.Context, ip string) (*models.IPReputation, error) {
	ip = strings.TrimSpace(ip)
	if err := requireVar("ip", ip, "required,ip", "must be an IP address"); err != nil {
		return nil, err
	}

	var rep models.IPReputation
	env := s.gw.Get(ctx, "/advanced-network/threat-check/"+utils.PathSegment(ip))
	if err := decodeEnvelope(env, "ip reputation", &rep); err != nil {
		return nil, fmt.Errorf("checking %s: %w", ip, err)
	}
	return &rep, nil
}

// Report downloads the generated PDF for target.
func (s *ToolsService) Report(ctx context.Context, target string) (*gateway.Blob, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, &InputError{Field: "target", Reason: "Please enter a target IP or domain"}
	}

	blob, err := s.gw.GetBlob(ctx, "/advanced-network/report/"+utils.PathSegment(target), "application/pdf")
	if err != nil {
		var statusErr *gateway.StatusError
		if errors.As(err, &statusErr) {
			return nil, &UpstreamError{Endpoint: "report", StatusCode: statusErr.StatusCode, Message: statusErr.Message}
		}
		return nil, fmt.Errorf("generating report for %s: %w", target, err)
	}
	return blob, nil
}
