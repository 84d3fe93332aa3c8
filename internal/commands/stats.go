package commands

import (
	"fmt"
	"runtime"
	"time"

	"github.com/kaikybrofc/ayana-bot/internal/metrics"

	"github.com/bwmarrin/discordgo"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// handleStats shows bot and host statistics
func (h *Handler) handleStats(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	// Defer response to allow time for gathering stats
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		return err
	}

	embed := h.buildStatsEmbed(s)
	_, err = s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{embed},
	})
	return err
}

func (h *Handler) buildStatsEmbed(s *discordgo.Session) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:     "📊 Bot Statistics",
		Color:     0x5865F2,
		Timestamp: time.Now().Format(time.RFC3339),
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	embed.Fields = append(embed.Fields,
		&discordgo.MessageEmbedField{
			Name: "Bot",
			Value: fmt.Sprintf("Uptime: %s\nGuilds: %d\nGoroutines: %d\nHeap: %s",
				time.Since(h.started).Round(time.Second),
				len(s.State.Guilds),
				runtime.NumGoroutine(),
				formatBytes(m.HeapAlloc)),
			Inline: false,
		},
	)

	snap := metrics.Global().Snapshot()
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name: "Engine",
		Value: fmt.Sprintf("Messages: %d\nWarns: %d\nEscalations: %d\nAutoMod triggers: %d\nActuator failures: %d",
			snap.MessagesSeen, snap.WarnsRecorded, snap.Escalations,
			snap.AutoModTriggers, snap.ActuatorFailures),
		Inline: false,
	})

	if info, err := host.Info(); err == nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Host",
			Value: fmt.Sprintf("%s (%s/%s)\nUp %s",
				info.Hostname, info.Platform, runtime.GOARCH,
				(time.Duration(info.Uptime) * time.Second).Round(time.Minute)),
			Inline: true,
		})
	}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "CPU",
			Value:  fmt.Sprintf("%.1f%% of %d cores", percents[0], runtime.NumCPU()),
			Inline: true,
		})
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Memory",
			Value: fmt.Sprintf("%s / %s (%.1f%%)",
				formatBytes(vm.Used), formatBytes(vm.Total), vm.UsedPercent),
			Inline: true,
		})
	}

	if du, err := disk.Usage("/"); err == nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Disk",
			Value: fmt.Sprintf("%s / %s (%.1f%%)",
				formatBytes(du.Used), formatBytes(du.Total), du.UsedPercent),
			Inline: true,
		})
	}

	return embed
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
