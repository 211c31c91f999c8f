package status

import (
	"fmt"
	"strings"
	"time"
)

// Render formats the status as one line, emitting the configured
// elements in order. Elements without data are dropped rather than
// rendered empty.
func Render(s *Status, elements []string, separator string) string {
	var parts []string

	for _, element := range elements {
		if part, ok := renderElement(s, element); ok {
			parts = append(parts, part)
		}
	}

	if len(parts) == 0 {
		return "no cost data"
	}

	return strings.Join(parts, separator)
}

func renderElement(s *Status, element string) (string, bool) {
	switch element {
	case "model":
		if s.ModelLabel == "" {
			return "", false
		}
		return s.ModelLabel, true

	case "block_cost":
		if s.Block == nil {
			return "no block", true
		}
		return formatCurrency(s.Block.CostUSD), true

	case "time_remaining":
		remaining, ok := s.TimeRemaining()
		if !ok {
			return "", false
		}
		return formatHoursMinutes(remaining) + " left", true

	case "burn_rate":
		if !s.HasRate {
			return "", false
		}
		return formatCurrency(s.Rate.CostPerHour) + "/h", true

	case "context":
		if s.Context == nil {
			return "", false
		}
		return fmt.Sprintf("%s (%d%%)",
			formatNumber(s.Context.Tokens), s.Context.Percentage), true

	case "api_usage_5h":
		if s.Usage == nil {
			return "", false
		}
		return fmt.Sprintf("5h %.0f%%", s.Usage.FiveHourPercent), true

	case "api_usage_7d":
		if s.Usage == nil {
			return "", false
		}
		part := fmt.Sprintf("7d %.0f%%", s.Usage.SevenDayPercent)
		if s.Usage.SevenDayResetsAt != nil {
			if d := s.Usage.SevenDayResetsAt.Sub(s.Now); d > 0 {
				part += " resets " + formatDaysHours(d)
			}
		}
		return part, true

	default:
		return "", false
	}
}

// formatCurrency renders a dollar amount with two decimals.
func formatCurrency(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}

// formatHoursMinutes renders a duration as "4h32m", dropping zero
// components.
func formatHoursMinutes(d time.Duration) string {
	if d <= 0 {
		return "0m"
	}

	hours := int(d.Hours())
	mins := int(d.Minutes()) % 60

	switch {
	case hours > 0 && mins > 0:
		return fmt.Sprintf("%dh%dm", hours, mins)
	case hours > 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dm", mins)
	}
}

// formatDaysHours renders a duration as "2d3h" for weekly windows.
func formatDaysHours(d time.Duration) string {
	if d <= 0 {
		return "0d"
	}

	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24

	switch {
	case days > 0 && hours > 0:
		return fmt.Sprintf("%dd%dh", days, hours)
	case days > 0:
		return fmt.Sprintf("%dd", days)
	default:
		return fmt.Sprintf("%dh", hours)
	}
}

// formatNumber adds thousand separators.
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	s := fmt.Sprintf("%d", n)
	result := ""
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result += ","
		}
		result += string(c)
	}
	return result
}
