// Package render formats roster, batch and inspect output for the terminal.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/xkilldash9x/notefill/internal/browser/page"
	"github.com/xkilldash9x/notefill/internal/config"
	"github.com/xkilldash9x/notefill/internal/coordinator"
	"github.com/xkilldash9x/notefill/internal/domain"
	"github.com/xkilldash9x/notefill/internal/registry"
)

// Status renders the roster: one row per identity with its endpoint port,
// state badge and attached page.
func Status(entries []registry.Entry, browser config.BrowserConfig) string {
	s := newStyles()
	lines := []string{s.title.Render(fmt.Sprintf("用户: %d", len(entries)))}
	if len(entries) == 0 {
		lines = append(lines, s.empty.Render("No identities configured."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		_, port := browser.Endpoint(e.Index)
		url := "-"
		if e.Session != nil {
			port = e.Session.Port
			url = e.Session.URL()
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", e.Index+1),
			e.Identity.Name,
			fmt.Sprintf("%d", port),
			stateStyle(s, e.State).Render(e.State.Badge()),
			s.faint.Render(url),
		})
	}
	lines = append(lines, table(s, []string{"#", "姓名", "端口", "状态", "页面"}, rows)...)
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Batch summarises a fan-out command.
func Batch(op coordinator.Op, results []coordinator.BatchResult) string {
	s := newStyles()
	var ok, failed, skipped int
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		var outcome string
		switch {
		case r.Skipped:
			skipped++
			outcome = s.faint.Render("跳过")
		case r.Err != nil:
			failed++
			outcome = s.failed.Render(r.Err.Error())
		case r.Fill != nil && !r.Fill.OK():
			ok++
			outcome = s.warning.Render("部分完成")
		default:
			ok++
			outcome = s.ok.Render("成功")
		}
		rows = append(rows, []string{fmt.Sprintf("%d", r.Index+1), r.Identity.Name, outcome})
	}
	lines := []string{s.title.Render(fmt.Sprintf("%s: %d ok, %d failed, %d skipped", op, ok, failed, skipped))}
	lines = append(lines, table(s, []string{"#", "姓名", "结果"}, rows)...)
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Fill renders one fill run's operator log.
func Fill(res *coordinator.FillResult) string {
	s := newStyles()
	lines := []string{s.title.Render(fmt.Sprintf("👤 %s", res.Identity.Name))}
	for _, o := range res.Basic.Outcomes {
		if o.OK {
			lines = append(lines, s.ok.Render(fmt.Sprintf("  ✅ %s: %s", o.Field, o.Value)))
			continue
		}
		lines = append(lines, s.failed.Render(fmt.Sprintf("  ❌ %s: %v", o.Field, o.Err)))
	}
	if res.UsedFallback {
		lines = append(lines, s.warning.Render("  ⚠️ 按字段描述填写"))
	}
	switch {
	case res.Location == nil:
		lines = append(lines, s.warning.Render("  ⚠️ "+res.LocationReason))
	default:
		for _, l := range res.Location.Logs {
			lines = append(lines, "  "+l)
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Inputs renders the inspect dump.
func Inputs(infos []page.InputInfo) string {
	s := newStyles()
	lines := []string{s.title.Render(fmt.Sprintf("inputs: %d", len(infos)))}
	rows := make([][]string, 0, len(infos))
	for _, in := range infos {
		rows = append(rows, []string{fmt.Sprintf("%d", in.Index), in.Type, in.Name, in.Placeholder, in.Value})
	}
	lines = append(lines, table(s, []string{"index", "type", "name", "placeholder", "value"}, rows)...)
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func stateStyle(s styles, st domain.SessionState) lipgloss.Style {
	switch st {
	case domain.StateConnected, domain.StateDone:
		return s.ok
	case domain.StateConnecting, domain.StateFilling:
		return s.warning
	case domain.StateFailed:
		return s.failed
	}
	return s.faint
}

// table pads columns by display width so CJK names line up.
func table(s styles, header []string, rows [][]string) []string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	join := func(cells []string, style *lipgloss.Style) string {
		parts := make([]string, len(cells))
		for i, c := range cells {
			if style != nil {
				c = style.Render(c)
			}
			parts[i] = c + strings.Repeat(" ", widths[i]-lipgloss.Width(c))
		}
		return strings.TrimRight(strings.Join(parts, "  "), " ")
	}

	out := []string{join(header, &s.header)}
	for _, row := range rows {
		out = append(out, join(row, nil))
	}
	return out
}
