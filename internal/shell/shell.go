// Package shell describes the navigation chrome around every page.
package shell

import (
	"strings"

	"github.com/secflow/secflow/internal/preferences"
)

type NavItem struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
	Path string `json:"path"`
}

var (
	mainItems = []NavItem{
		{Name: "Dashboard", Icon: "home", Path: "/"},
		{Name: "Threat Analysis", Icon: "shield", Path: "/threat-analysis"},
		{Name: "Network Monitoring", Icon: "activity", Path: "/network-monitoring"},
		{Name: "Security Tools", Icon: "terminal", Path: "/security-tools"},
		{Name: "Settings", Icon: "settings", Path: "/settings"},
		{Name: "Help & Support", Icon: "help-circle", Path: "/help"},
	}
	footerItems = []NavItem{
		{Name: "Logout", Icon: "logout", Path: "/logout"},
		{Name: "Settings", Icon: "cog", Path: "/settings"},
	}
)

type Header struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

var headers = map[string]Header{
	"/":                   {Title: "Dashboard", Subtitle: "Welcome back to your dashboard"},
	"/threat-analysis":    {Title: "APT & Phishing Detection Analysis", Subtitle: "Monitor network traffic and analyze URLs for threats"},
	"/network-monitoring": {Title: "Network Monitoring", Subtitle: "Monitor your network traffic and connected devices"},
	"/security-tools":     {Title: "Security Tools", Subtitle: "Advanced network security analysis tools"},
	"/settings":           {Title: "Settings", Subtitle: "Get your customization"},
	"/help":               {Title: "Help", Subtitle: "We are here to help you"},
}

type Navigation struct {
	Items  []NavItem `json:"items"`
	Footer []NavItem `json:"footer"`
}

func Nav() Navigation {
	return Navigation{
		Items:  append([]NavItem(nil), mainItems...),
		Footer: append([]NavItem(nil), footerItems...),
	}
}

// Layout is the resolved chrome for one route.
type Layout struct {
	Navigation
	Active       string                  `json:"active"`
	SidebarWidth string                  `json:"sidebarWidth"`
	ShowLabels   bool                    `json:"showLabels"`
	Header       Header                  `json:"header"`
	Preferences  preferences.Preferences `json:"preferences"`
}

// BuildLayout resolves the active item and header for path. Unknown paths
// keep the dashboard header but mark nothing active.
func BuildLayout(path string, prefs preferences.Preferences) Layout {
	path = normalize(path)
	l := Layout{
		Navigation:   Nav(),
		SidebarWidth: "w-20",
		ShowLabels:   prefs.SidebarOpen,
		Preferences:  prefs,
	}
	if prefs.SidebarOpen {
		l.SidebarWidth = "w-64"
	}
	for _, item := range mainItems {
		if item.Path == path {
			l.Active = item.Path
			break
		}
	}
	h, ok := headers[path]
	if !ok {
		h = headers["/"]
	}
	l.Header = h
	return l
}

func normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = "/" + strings.Trim(path, "/")
	return path
}
