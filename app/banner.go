// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package app

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/common-nighthawk/go-figure"
	"golang.org/x/term"

	"rivaas.dev/conduit/router"
)

// colorWriter downsamples colors to the terminal; production strips them.
func (a *App) colorWriter(w io.Writer) *colorprofile.Writer {
	cpw := colorprofile.NewWriter(w, os.Environ())
	if a.settings.environment == EnvironmentProduction {
		cpw.Profile = colorprofile.NoTTY
	}
	return cpw
}

func (a *App) printStartupBanner(addr string) {
	if a.settings.banner == io.Discard {
		return
	}
	w := a.colorWriter(a.settings.banner)

	gradient := []string{"10", "11"}
	if a.settings.environment == EnvironmentDevelopment {
		gradient = []string{"12", "14", "10", "11"}
	}

	var art strings.Builder
	for _, line := range figure.NewFigure(a.settings.serviceName, "", false).Slicify() {
		if strings.TrimSpace(line) == "" {
			art.WriteString("\n")
			continue
		}
		for i, char := range line {
			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(gradient[i%len(gradient)])).
				Bold(true)
			art.WriteString(style.Render(string(char)))
		}
		art.WriteString("\n")
	}

	categoryStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Width(14).
		PaddingLeft(2).
		Align(lipgloss.Left)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	disabledStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	// ":8080" -> "http://0.0.0.0:8080"
	displayAddr := addr
	if strings.HasPrefix(addr, ":") {
		displayAddr = "0.0.0.0" + addr
	}
	displayAddr = "http://" + displayAddr

	line := func(label, value, color string) string {
		return labelStyle.Render(label) + "  " + valueStyle.Foreground(lipgloss.Color(color)).Render(value) + "\n"
	}

	var out strings.Builder
	out.WriteString(categoryStyle.Render("Service") + "\n")
	out.WriteString(line("Version:", a.settings.serviceVersion, "14"))
	out.WriteString(line("Environment:", a.settings.environment, "11"))
	out.WriteString(line("Address:", displayAddr, "10"))
	out.WriteString(line("Router:", fmt.Sprintf("%T", a.router), "13"))

	out.WriteString("\n" + categoryStyle.Render("Observability") + "\n")
	if a.settings.metrics != nil {
		out.WriteString(line("Metrics:", string(a.settings.metrics.Provider()), "13"))
	} else {
		out.WriteString(labelStyle.Render("Metrics:") + "  " + disabledStyle.Render("Disabled") + "\n")
	}
	if a.settings.tracer != nil {
		out.WriteString(line("Tracing:", string(a.settings.tracer.Provider()), "12"))
	} else {
		out.WriteString(labelStyle.Render("Tracing:") + "  " + disabledStyle.Render("Disabled") + "\n")
	}

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprint(w, art.String())
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprint(w, out.String())

	if a.settings.environment == EnvironmentDevelopment && len(a.Routes()) > 0 {
		_, _ = fmt.Fprintln(w)
		a.renderRoutesTable(w, 80)
	}
	_, _ = fmt.Fprintln(w)
}

var methodColors = map[string]string{
	http.MethodGet:     "10",
	http.MethodPost:    "12",
	http.MethodPut:     "11",
	http.MethodDelete:  "9",
	http.MethodPatch:   "13",
	http.MethodHead:    "14",
	http.MethodOptions: "7",
}

func methodsLabel(rt *router.Route, colors bool) string {
	if rt.AllowsAnyMethod() {
		return "*"
	}
	methods := rt.AllowedMethods()
	if !colors {
		return strings.Join(methods, ",")
	}
	styled := make([]string, len(methods))
	for i, m := range methods {
		styled[i] = m
		if c, ok := methodColors[m]; ok {
			styled[i] = lipgloss.NewStyle().Foreground(lipgloss.Color(c)).Bold(true).Render(m)
		}
	}
	return strings.Join(styled, ",")
}

// renderRoutesTable writes the route table, width wide unless the terminal
// is narrower or the content wider.
func (a *App) renderRoutesTable(w io.Writer, width int) {
	routes := a.Routes()
	if len(routes) == 0 {
		return
	}

	colors := a.settings.environment == EnvironmentDevelopment

	rows := make([][]string, 0, len(routes))
	maxMethods, maxPath, maxName := len("Methods"), len("Path"), len("Name")
	for _, rt := range routes {
		maxMethods = max(maxMethods, len(methodsLabel(rt, false)))
		maxPath = max(maxPath, len(rt.Path()))
		maxName = max(maxName, len(rt.Name()))
		rows = append(rows, []string{methodsLabel(rt, colors), rt.Path(), rt.Name()})
	}

	// borders (2) + separators (2) + padding (2 per column)
	minWidth := 2 + 2 + 6 + maxMethods + maxPath + maxName

	termWidth := width
	if f, ok := w.(*os.File); ok {
		if tw, _, err := term.GetSize(int(f.Fd())); err == nil && tw > 0 {
			termWidth = tw
		}
	}
	tableWidth := min(max(minWidth, width), termWidth)
	tableWidth = max(60, tableWidth)

	borderStyle := lipgloss.NewStyle()
	if colors {
		borderStyle = borderStyle.Foreground(lipgloss.Color("240"))
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			style := lipgloss.NewStyle().Align(lipgloss.Left).Padding(0, 1)
			if row == table.HeaderRow && colors {
				style = style.Bold(true).Foreground(lipgloss.Color("230"))
			}
			return style
		}).
		Headers("Methods", "Path", "Name").
		Rows(rows...).
		Width(tableWidth)

	_, _ = fmt.Fprintln(w, t.Render())
}

// PrintRoutes writes the route table to w, or a notice when there are no
// routes.
func (a *App) PrintRoutes(w io.Writer) {
	if len(a.Routes()) == 0 {
		_, _ = fmt.Fprintln(w, "No routes registered")
		return
	}
	a.renderRoutesTable(a.colorWriter(w), 120)
}
