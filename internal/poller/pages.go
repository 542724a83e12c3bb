package poller

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/secflow/secflow/internal/models"
	"github.com/secflow/secflow/internal/topology"
	"github.com/secflow/secflow/internal/widgets"
)

const (
	PageDashboard         = "dashboard"
	PageThreatAnalysis    = "threat-analysis"
	PageNetworkMonitoring = "network-monitoring"
)

type DashboardSource interface {
	NetworkHealth(ctx context.Context) (*models.NetworkHealth, error)
	Threats(ctx context.Context) (*models.ThreatCounts, error)
	Alerts(ctx context.Context) (*models.AlertsData, error)
	SecurityScore(ctx context.Context) (*models.SecurityScore, error)
}

type ThreatSource interface {
	All(ctx context.Context) (*models.ThreatAnalysis, error)
}

type NetworkSource interface {
	Scan(ctx context.Context, ip string) (*models.ScanResult, error)
}

// PageDef describes a pollable page. Params lists the query parameters an
// instance must be given.
type PageDef struct {
	Name     string
	Interval time.Duration
	Params   []string
	Fetchers func(params map[string]string) []Fetcher
}

// Pages returns the standard page set backed by the given sources.
func Pages(dash DashboardSource, threats ThreatSource, network NetworkSource) []PageDef {
	return []PageDef{
		{
			Name:     PageDashboard,
			Interval: 30 * time.Second,
			Fetchers: func(map[string]string) []Fetcher {
				return []Fetcher{
					{Name: "networkHealth", Fetch: func(ctx context.Context) (any, error) {
						h, err := dash.NetworkHealth(ctx)
						if err != nil {
							return nil, err
						}
						return widgets.BuildNetworkHealth(h), nil
					}},
					{Name: "threatOverview", Fetch: func(ctx context.Context) (any, error) {
						t, err := dash.Threats(ctx)
						if err != nil {
							return nil, err
						}
						return widgets.BuildThreatOverview(t), nil
					}},
					{Name: "recentAlerts", Fetch: func(ctx context.Context) (any, error) {
						a, err := dash.Alerts(ctx)
						if err != nil {
							return nil, err
						}
						return widgets.BuildRecentAlerts(a), nil
					}},
					{Name: "securityScore", Fetch: func(ctx context.Context) (any, error) {
						s, err := dash.SecurityScore(ctx)
						if err != nil {
							return nil, err
						}
						return widgets.BuildSecurityScore(s), nil
					}},
				}
			},
		},
		{
			Name:     PageThreatAnalysis,
			Interval: 5 * time.Second,
			Fetchers: func(map[string]string) []Fetcher {
				return []Fetcher{
					{Name: "threatAnalysis", Fatal: true, Fetch: func(ctx context.Context) (any, error) {
						a, err := threats.All(ctx)
						if err != nil {
							return nil, err
						}
						return widgets.BuildThreatAnalysis(a), nil
					}},
				}
			},
		},
		{
			Name:     PageNetworkMonitoring,
			Interval: 15 * time.Second,
			Params:   []string{"ip"},
			Fetchers: func(params map[string]string) []Fetcher {
				return networkFetchers(network, params["ip"])
			},
		},
	}
}

// networkFetchers split one scan into three slices. The fetchers of one
// tick share a single upstream request.
func networkFetchers(network NetworkSource, ip string) []Fetcher {
	var group singleflight.Group
	scan := func(ctx context.Context) (*models.ScanResult, error) {
		key := ip
		if gen, ok := TickFromContext(ctx); ok {
			key = fmt.Sprintf("%s#%d", ip, gen)
		}
		v, err, _ := group.Do(key, func() (any, error) {
			return network.Scan(ctx, ip)
		})
		if err != nil {
			return nil, err
		}
		return v.(*models.ScanResult), nil
	}

	return []Fetcher{
		{Name: "devices", Fetch: func(ctx context.Context) (any, error) {
			r, err := scan(ctx)
			if err != nil {
				return nil, err
			}
			return widgets.BuildDeviceList(r.Devices), nil
		}},
		{Name: "traffic", Fetch: func(ctx context.Context) (any, error) {
			r, err := scan(ctx)
			if err != nil {
				return nil, err
			}
			var traffic *models.TrafficData
			if r.NetworkData != nil {
				traffic = r.NetworkData.TrafficData
			}
			return widgets.BuildTrafficAnalysis(traffic), nil
		}},
		{Name: "topology", Fetch: func(ctx context.Context) (any, error) {
			r, err := scan(ctx)
			if err != nil {
				return nil, err
			}
			g := topology.BuildGraph(r.Devices, topology.ModeDevices)
			return topology.Settle(g, topology.DefaultConfig()), nil
		}},
	}
}
