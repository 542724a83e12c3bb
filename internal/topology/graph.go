// Package topology turns scanned devices into a force-directed graph and
// runs the layout simulation behind the network topology view.
package topology

import (
	"errors"
	"fmt"
	"strings"

	"github.com/secflow/secflow/internal/models"
)

// ViewMode selects which entity becomes a graph node.
type ViewMode string

const (
	ModeDevices  ViewMode = "devices"
	ModePorts    ViewMode = "ports"
	ModeServices ViewMode = "services"
)

var ErrInvalidMode = errors.New("invalid view mode")

// ParseViewMode accepts devices, ports or services. Empty means devices.
func ParseViewMode(s string) (ViewMode, error) {
	switch ViewMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeDevices:
		return ModeDevices, nil
	case ModePorts:
		return ModePorts, nil
	case ModeServices:
		return ModeServices, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

type NodeType string

const (
	NodeDevice  NodeType = "device"
	NodePort    NodeType = "port"
	NodeService NodeType = "service"
)

// CenterID is the implicit hub every device edge starts from. It is not a
// node and is never simulated.
const CenterID = "center"

const (
	FillOnline  = "#22c55e"
	FillOffline = "#ef4444"
	FillPort    = "#3b82f6"
	FillService = "#8b5cf6"
	FillDefault = "#94a3b8"

	NodeRadius = 20
)

type Node struct {
	ID      string        `json:"id"`
	Type    NodeType      `json:"type"`
	Label   string        `json:"label"`
	Fill    string        `json:"fill"`
	Port    string        `json:"port,omitempty"`
	Service string        `json:"service,omitempty"`
	Device  models.Device `json:"device"`
}

type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

type Graph struct {
	Mode  ViewMode `json:"mode"`
	Nodes []Node   `json:"nodes"`
	Edges []Edge   `json:"edges"`
}

// BuildGraph derives the node set for mode. Only devices mode has edges,
// one from the center to each device.
func BuildGraph(devices []models.Device, mode ViewMode) Graph {
	g := Graph{Mode: mode, Nodes: []Node{}, Edges: []Edge{}}
	seen := make(map[string]bool)
	add := func(n Node) {
		if seen[n.ID] {
			return
		}
		seen[n.ID] = true
		g.Nodes = append(g.Nodes, n)
	}

	for _, d := range devices {
		switch mode {
		case ModeDevices:
			add(Node{ID: d.IP, Type: NodeDevice, Label: d.Name, Fill: nodeFill(NodeDevice, d.Status), Device: d})
		case ModePorts:
			for _, entry := range d.Ports {
				port, _ := models.PortEntry(entry)
				add(Node{
					ID:     d.IP + "-" + port,
					Type:   NodePort,
					Label:  "Port " + port,
					Fill:   FillPort,
					Port:   entry,
					Device: d,
				})
			}
		case ModeServices:
			for _, entry := range d.Ports {
				_, service := models.PortEntry(entry)
				add(Node{
					ID:      d.IP + "-" + service,
					Type:    NodeService,
					Label:   service,
					Fill:    FillService,
					Service: service,
					Device:  d,
				})
			}
		}
	}

	if mode == ModeDevices {
		for _, n := range g.Nodes {
			g.Edges = append(g.Edges, Edge{Source: CenterID, Target: n.ID})
		}
	}
	return g
}

func nodeFill(t NodeType, status string) string {
	switch t {
	case NodeDevice:
		if status == models.StatusOnline {
			return FillOnline
		}
		return FillOffline
	case NodePort:
		return FillPort
	case NodeService:
		return FillService
	}
	return FillDefault
}
