// Package embeds provides Discord embed builders for TowerBot.
package embeds

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/towerbot/internal/colors"
	"github.com/towerbot/internal/roles"
)

// Colors for embeds
const (
	ColorSuccess = 0x00FF00 // Green
	ColorError   = 0xFF0000 // Red
	ColorInfo    = 0x3498DB // Blue
	ColorWarning = 0xFFFF00 // Yellow
	ColorGold    = 0xF1C40F
)

// Success creates a success embed.
func Success(message, title string) *discordgo.MessageEmbed {
	if title == "" {
		title = "✅ Done"
	}
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: message,
		Color:       ColorSuccess,
	}
}

// Error creates an error embed.
func Error(message, title string) *discordgo.MessageEmbed {
	if title == "" {
		title = "❌ Error"
	}
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: message,
		Color:       ColorError,
	}
}

// Warning creates a warning embed.
func Warning(message, title string) *discordgo.MessageEmbed {
	if title == "" {
		title = "⚠️ Warning"
	}
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: message,
		Color:       ColorWarning,
	}
}

// Info creates an info embed.
func Info(message, title string) *discordgo.MessageEmbed {
	if title == "" {
		title = "ℹ️ Info"
	}
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: message,
		Color:       ColorInfo,
	}
}

// RoleRules creates an embed listing the configured tournament roles,
// grouped by method.
func RoleRules(rules []roles.Rule, hierarchy roles.Hierarchy) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "Tournament Role Configuration",
		Description: fmt.Sprintf("%d roles configured", len(rules)),
		Color:       ColorGold,
	}

	var champion, placement, wave []string
	for _, rule := range rules {
		switch rule.Method {
		case roles.MethodChampion:
			champion = append(champion, fmt.Sprintf("• **%s** — <@&%s> (placement ≤ %d)", rule.Name, rule.RoleID, rule.Threshold))
		case roles.MethodPlacement:
			league := rule.League
			if league == "" {
				league = hierarchy.Top()
			}
			placement = append(placement, fmt.Sprintf("• **%s** — <@&%s> (%s top %d)", rule.Name, rule.RoleID, league, rule.Threshold))
		case roles.MethodWave:
			wave = append(wave, fmt.Sprintf("• **%s** — <@&%s> (%s wave %d+)", rule.Name, rule.RoleID, rule.League, rule.Threshold))
		}
	}

	if len(champion) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Champion Method: Latest Tournament Winner",
			Value: strings.Join(champion, "\n"),
		})
	}
	if len(placement) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Placement Method: Placement-Based",
			Value: strings.Join(placement, "\n"),
		})
	}
	if len(wave) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Wave Method: Wave-Based",
			Value: strings.Join(wave, "\n"),
		})
	}

	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:  "League Hierarchy (Highest to Lowest)",
		Value: fmt.Sprintf("```%s```", strings.Join(hierarchy, " → ")),
	})

	return embed
}

// EligibleColors creates an embed listing the color roles a user
// currently qualifies for, grouped by category.
func EligibleColors(eligible []colors.Eligible, currentRoleID string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "🎨 Available Color Roles",
		Color: ColorInfo,
	}

	if len(eligible) == 0 {
		embed.Description = "You do not qualify for any color roles yet."
		return embed
	}

	byCategory := make(map[string][]string)
	var order []string
	for _, e := range eligible {
		if _, ok := byCategory[e.Category]; !ok {
			order = append(order, e.Category)
		}
		marker := ""
		if e.RoleID == currentRoleID {
			marker = " (current)"
		}
		byCategory[e.Category] = append(byCategory[e.Category], fmt.Sprintf("• <@&%s>%s", e.RoleID, marker))
	}

	for _, category := range order {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  category,
			Value: strings.Join(byCategory[category], "\n"),
		})
	}
	return embed
}

// UpdateSummary creates an embed summarizing a completed role update run.
func UpdateSummary(runID string, processed, assigned, removed, noData int, duration time.Duration, dryRun bool) *discordgo.MessageEmbed {
	title := "Tournament Roles Updated"
	if dryRun {
		title += " (DRY RUN)"
	}
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: fmt.Sprintf("Completed in %.1fs", duration.Seconds()),
		Color:       ColorSuccess,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Users Processed", Value: fmt.Sprintf("%d", processed), Inline: true},
			{Name: "Roles Assigned", Value: fmt.Sprintf("%d", assigned), Inline: true},
			{Name: "Roles Removed", Value: fmt.Sprintf("%d", removed), Inline: true},
			{Name: "No Player Data", Value: fmt.Sprintf("%d", noData), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Run %s", runID)},
	}
}
