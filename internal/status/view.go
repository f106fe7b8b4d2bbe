package status

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

var (
	// Colors and styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14"))

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	subtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// Render renders the status data to a string
func Render(data *Data) string {
	sections := []string{renderHeader(data)}

	if data.HasAnyConfig {
		sections = append(sections, renderTrust(data))
	}
	sections = append(sections, renderConfigHierarchy(data), renderProviders(data), renderSettings(data))

	if len(data.Flags) > 0 {
		sections = append(sections, renderFlags(data))
	}
	if data.Index != nil {
		sections = append(sections, renderIndex(data))
	}

	return strings.Join(sections, "\n\n")
}

func line(key, value string) string {
	return "   " + keyStyle.Render(key+": ") + value + "\n"
}

func renderHeader(data *Data) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("📂 Project: ") + valueStyle.Render(data.ProjectDir) + "\n")
	b.WriteString(titleStyle.Render("📦 Version: ") + valueStyle.Render(data.Version) + "\n")
	b.WriteString(titleStyle.Render("🔑 Trust store: ") + subtleStyle.Render(data.AuthPath))
	return b.String()
}

func renderTrust(data *Data) string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("🔒 Trust:") + "\n")

	if data.Authorized {
		b.WriteString("   " + successStyle.Render("✓ Every project config is trusted"))
	} else {
		b.WriteString("   " + errorStyle.Render("✗ Some project configs are ignored") + "\n")
		b.WriteString("   " + warningStyle.Render(fmt.Sprintf("Run 'fimcache allow %s' to trust them", data.ProjectDir)))
	}

	if data.Trust != nil {
		b.WriteString("\n")
		b.WriteString(strings.TrimSuffix(line("Allowed", valueStyle.Render(humanize.Time(data.Trust.AllowedAt))), "\n"))
		if !data.Trust.EndpointsApproved {
			b.WriteString("\n   " + warningStyle.Render("Endpoints changed since they were approved "+humanize.Time(data.Trust.EndpointsApprovedAt)))
		}
	}

	return b.String()
}

func renderConfigHierarchy(data *Data) string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("📝 Configuration hierarchy:") + "\n")

	hasGlobal := data.GlobalConfig != nil && data.GlobalConfig.Exists
	if len(data.LocalConfigs) == 0 && !hasGlobal {
		b.WriteString("   " + subtleStyle.Render("No configuration files found, using defaults"))
		return b.String()
	}

	idx := 1
	if hasGlobal {
		status := successStyle.Render("✓")
		note := ""
		if !data.GlobalConfig.Loaded {
			status = errorStyle.Render("✗")
			note = subtleStyle.Render(" (ignored)")
		}
		b.WriteString(fmt.Sprintf("   %d. %s %s%s\n",
			idx,
			subtleStyle.Render(data.GlobalConfig.Path+" (global)"),
			status,
			note))
		idx++
	}

	for _, cfg := range data.LocalConfigs {
		status := successStyle.Render("✓")
		statusText := ""
		switch {
		case cfg.Err != nil:
			status = errorStyle.Render("✗")
			statusText = subtleStyle.Render(" (invalid: " + truncateString(cfg.Err.Error(), 60) + ")")
		case !cfg.Authorized:
			status = errorStyle.Render("✗")
			statusText = subtleStyle.Render(" (not authorized)")
		case !cfg.EndpointsApproved:
			status = errorStyle.Render("✗")
			statusText = subtleStyle.Render(" (endpoints changed)")
		case !cfg.Loaded:
			status = errorStyle.Render("✗")
			statusText = subtleStyle.Render(" (overridden)")
		case cfg.LocalOnly:
			statusText = subtleStyle.Render(" (local only)")
		}

		b.WriteString(fmt.Sprintf("   %d. %s %s%s\n",
			idx,
			valueStyle.Render(cfg.Path),
			status,
			statusText))
		idx++
	}

	return strings.TrimSuffix(b.String(), "\n")
}

func renderProviders(data *Data) string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("🤖 Providers:") + "\n")

	if len(data.Providers) == 0 {
		b.WriteString("   " + warningStyle.Render("No provider configured, completions are disabled"))
		return b.String()
	}

	for _, p := range data.Providers {
		status := successStyle.Render("✓")
		note := ""
		if !p.Configured {
			status = errorStyle.Render("✗")
			note = warningStyle.Render(" missing: " + strings.Join(p.Missing, ", "))
		} else if p.Selected {
			note = subtleStyle.Render(" (active)")
		}
		b.WriteString(fmt.Sprintf("   %s %s %s%s\n",
			status,
			valueStyle.Render(p.Name),
			subtleStyle.Render(fmt.Sprintf("[%s] %s @ %s", p.Kind, p.Model, p.Host)),
			note))
	}

	if data.RetrievalHost != "" {
		b.WriteString(line("Retrieval", valueStyle.Render(data.RetrievalHost)))
	}

	return strings.TrimSuffix(b.String(), "\n")
}

func renderSettings(data *Data) string {
	s := data.Settings
	var b strings.Builder
	b.WriteString(sectionStyle.Render("⚙️  Settings:") + "\n")
	b.WriteString(line("Debounce", valueStyle.Render(formatDuration(s.Debounce))))
	b.WriteString(line("Context lines", valueStyle.Render(fmt.Sprintf("%d", s.ContextLines))))
	b.WriteString(line("Declaration budget", valueStyle.Render(humanize.Comma(int64(s.MaxChars))+" chars")))
	b.WriteString(line("History size", valueStyle.Render(fmt.Sprintf("%d", s.HistorySize))))
	b.WriteString(line("Cache", valueStyle.Render(fmt.Sprintf("%s entries, ttl %s, %d candidates max",
		humanize.Comma(int64(s.CacheCapacity)), formatDuration(s.CacheTTL), s.MaxCandidates))))
	b.WriteString(line("Breaker", valueStyle.Render(fmt.Sprintf("cooldown %s x%d max, after %d shown, reject < %s, relax >= %s",
		formatDuration(s.BaseCooldown), s.MaxFactor, s.MinSamples,
		humanize.FtoaWithDigits(s.RejectRatio, 2), humanize.FtoaWithDigits(s.RelaxRatio, 2)))))
	if len(data.Extensions) > 0 {
		b.WriteString(line("Extensions", subtleStyle.Render(strings.Join(data.Extensions, " "))))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func renderFlags(data *Data) string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("🏴 Flags:") + "\n")
	b.WriteString("   " + valueStyle.Render(strings.Join(data.Flags, ", ")))
	return b.String()
}

func renderIndex(data *Data) string {
	ix := data.Index
	var b strings.Builder
	b.WriteString(sectionStyle.Render("🗂  Index:") + "\n")
	b.WriteString(line("Files", valueStyle.Render(humanize.Comma(int64(ix.Files)))))
	b.WriteString(line("Declarations", valueStyle.Render(fmt.Sprintf("%s (%s names)",
		humanize.Comma(int64(ix.Declarations)), humanize.Comma(int64(ix.Names))))))
	b.WriteString(line("Signatures", valueStyle.Render(humanize.Bytes(uint64(ix.Chars)))))
	b.WriteString(line("Took", subtleStyle.Render(formatDuration(ix.Took))))
	return strings.TrimSuffix(b.String(), "\n")
}

func formatDuration(d time.Duration) string {
	if d >= time.Second {
		return d.Round(time.Millisecond).String()
	}
	return fmt.Sprintf("%dms", d.Milliseconds())
}

func truncateString(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen-3] + "..."
	}
	return s
}
