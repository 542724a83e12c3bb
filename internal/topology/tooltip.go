package topology

import "strings"

// TooltipOffset is added to the cursor position.
var TooltipOffset = Point{X: 10, Y: -10}

type TooltipField struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Tooltip struct {
	NodeID   string         `json:"nodeId"`
	Title    string         `json:"title"`
	Fields   []TooltipField `json:"fields"`
	Position Point          `json:"position"`
}

// TooltipFor describes n for a hover at cursor.
func TooltipFor(n Node, cursor Point) Tooltip {
	t := Tooltip{
		NodeID:   n.ID,
		Position: Point{X: cursor.X + TooltipOffset.X, Y: cursor.Y + TooltipOffset.Y},
	}
	d := n.Device
	switch n.Type {
	case NodeDevice:
		t.Title = d.Name
		t.Fields = []TooltipField{
			{"IP", d.IP},
			{"OS", orDefault(d.OS, "Unknown")},
			{"Status", d.Status},
			{"Ports", orDefault(strings.Join(d.Ports, ", "), "None")},
		}
	case NodePort:
		t.Title = "Port: " + n.Port
		t.Fields = []TooltipField{{"Device", d.Name}, {"IP", d.IP}}
	case NodeService:
		t.Title = "Service: " + n.Service
		t.Fields = []TooltipField{{"Device", d.Name}, {"IP", d.IP}}
	}
	return t
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
