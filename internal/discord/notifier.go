package discord

import (
	"context"
	"fmt"

	disgo "github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/disgo/webhook"
	"go.uber.org/zap"

	"github.com/fitrelay/strava-discord/internal/models"
)

const (
	webhookUsername = "Strava Webhook"
	avatarURL       = "https://d3nn82uaxijpm6.cloudfront.net/mstile-144x144.png?v=dLlWydWlG8"
	footerIconURL   = "https://d3nn82uaxijpm6.cloudfront.net/apple-touch-icon-144x144.png?v=dLlWydWlG8"
)

// Embed colours per activity type.
// See https://developers.strava.com/docs/reference/#api-models-ActivityType
var activityColours = map[string]int{
	"Run":            0xFC4C02, // orange
	"Ride":           0x66C2FF, // pale blue
	"Hike":           0x008000, // forest green
	"RockClimbing":   0xFF8000, // rock colour?
	"AlpineSki":      0xFEFEFE, // snow
	"BackcountrySki": 0xFEFEFE, // snow
	"NordicSki":      0xFEFEFE, // snow
	"Snowboard":      0xFEFEFE, // snow
}

const defaultColour = 0xFC4C02

// Activity types that show average speed instead of pace.
var useSpeed = map[string]bool{
	"Ride": true,
}

// Notifier delivers formatted activity announcements to a Discord webhook.
type Notifier struct {
	client webhook.Client
	logger *zap.Logger
}

func NewNotifier(webhookURL string, logger *zap.Logger) (*Notifier, error) {
	client, err := webhook.NewWithURL(webhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid discord webhook URL: %w", err)
	}
	return &Notifier{client: client, logger: logger}, nil
}

func (n *Notifier) Announce(ctx context.Context, activity *models.Activity, athlete *models.Athlete) error {
	msg := disgo.NewWebhookMessageCreateBuilder().
		SetContent("*A new activity was posted to Strava*").
		SetUsername(webhookUsername).
		SetAvatarURL(avatarURL).
		SetEmbeds(BuildActivityEmbed(activity, athlete)).
		Build()

	posted, err := n.client.CreateMessage(msg, rest.WithCtx(ctx))
	if err != nil {
		return fmt.Errorf("failed to execute discord webhook: %w", err)
	}

	n.logger.Info("posted activity announcement",
		zap.Int64("activity_id", activity.ID),
		zap.Uint64("message_id", uint64(posted.ID)))
	return nil
}

// BuildActivityEmbed formats the activity summary: distance, moving time,
// pace (or average speed for rides) and elevation gain.
func BuildActivityEmbed(activity *models.Activity, athlete *models.Athlete) disgo.Embed {
	embed := disgo.NewEmbedBuilder().
		SetTitle(activity.Name).
		SetURL(fmt.Sprintf("https://strava.com/activities/%d", activity.ID)).
		SetColor(colourFor(activity.Type)).
		SetTimestamp(activity.StartDate).
		SetAuthor(athlete.FullName(), fmt.Sprintf("https://strava.com/athletes/%d", athlete.ID), athlete.ProfileMedium).
		SetFooter("Powered by Strava", footerIconURL).
		AddField("Distance", fmt.Sprintf("%.2f km", activity.Distance/1000), true).
		AddField("Moving Time", FormatMovingTime(activity.MovingTime), true)

	if useSpeed[activity.Type] {
		embed.AddField("Average Speed", fmt.Sprintf("%.1f km/h", activity.AverageSpeed*3.6), true)
	} else {
		embed.AddField("Pace", FormatPace(activity.MovingTime, activity.Distance)+" /km", true)
	}
	embed.AddField("Elevation", fmt.Sprintf("%.0f m", activity.TotalElevationGain), true)

	return embed.Build()
}

func colourFor(activityType string) int {
	if colour, ok := activityColours[activityType]; ok {
		return colour
	}
	return defaultColour
}

// FormatMovingTime renders seconds as h:mm:ss, or m:ss under an hour.
func FormatMovingTime(seconds int64) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}

// FormatPace renders minutes-per-kilometre as m:ss. Distance is metres.
func FormatPace(movingTime int64, distance float64) string {
	km := distance / 1000
	if km <= 0 || movingTime <= 0 {
		return "-"
	}

	secondsPerKm := float64(movingTime) / km
	minutes := int(secondsPerKm) / 60
	seconds := int(secondsPerKm) % 60
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
