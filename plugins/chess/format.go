package chess

import (
	"fmt"
	"strconv"
	"time"

	"chessbot/internal/match"
	"chessbot/internal/rating"
	"chessbot/pkg/tgui"
)

const whenLayout = "Mon Jan 2, 15:04"

func displayName(username string, id int64) string {
	if username != "" {
		return "@" + username
	}
	return "player " + strconv.FormatInt(id, 10)
}

// mention is plain text on purpose: notices go through the notifier with
// no parse mode, so HTML mentions would show up literally.
func mention(id int64) string {
	return "player " + strconv.FormatInt(id, 10)
}

func windowHint() string {
	return "That time is outside the game windows. Games run Thursday through Monday 07:00-14:00 and Wednesday 07:00-12:00; Tuesdays are off."
}

func proposalCard(e match.Engagement, initiatorName string) tgui.Message {
	kb := tgui.NewInline().
		Row(
			tgui.Btn("✅ Accept", tgui.Data("chess", "act", match.AcceptToken(e.ID))),
			tgui.Btn("❌ Cancel", tgui.Data("chess", "act", match.CancelToken(e.ID))),
		)
	return tgui.New().
		Title("♟️", "Chess challenge").
		Line(initiatorName + " is looking for a game.").
		KV("When", e.ScheduledAt.Format(whenLayout)).
		KV("Status", "open").
		Inline(kb).
		Build()
}

func confirmedCard(e match.Engagement, responderName string) tgui.Message {
	kb := tgui.NewInline().
		Row(
			tgui.Btn("❌ Cancel", tgui.Data("chess", "act", match.CancelToken(e.ID))),
		)
	return tgui.New().
		Title("♟️", "Game on").
		Line(responderName + " accepted the challenge.").
		KV("When", e.ScheduledAt.Format(whenLayout)).
		KV("Status", "confirmed").
		Inline(kb).
		Build()
}

func cancelledCard(e match.Engagement) tgui.Message {
	return tgui.New().
		Title("♟️", "Game cancelled").
		KV("When", e.ScheduledAt.Format(whenLayout)).
		KV("Status", "cancelled").
		Build()
}

func confirmNotice(e match.Engagement) string {
	return fmt.Sprintf("♟️ Game confirmed for %s: %s vs %s",
		e.ScheduledAt.Format(whenLayout), mention(e.Initiator), mention(e.Responder))
}

func cancelNotice(e match.Engagement, actor int64) string {
	if e.State == match.StateConfirmed {
		other := e.Initiator
		if other == actor {
			other = e.Responder
		}
		return fmt.Sprintf("♟️ %s cancelled the game scheduled for %s. %s, you're free again.",
			mention(actor), e.ScheduledAt.Format(whenLayout), mention(other))
	}
	return fmt.Sprintf("♟️ %s withdrew an open challenge.", mention(actor))
}

func expiredText(e match.Engagement) string {
	return fmt.Sprintf("♟️ Nobody picked up the challenge from %s for %s; it has expired.",
		mention(e.Initiator), e.ScheduledAt.Format(whenLayout))
}

func reminderText(e match.Engagement, lead time.Duration) string {
	return fmt.Sprintf("♟️ Reminder: %s vs %s at %s (in %s).",
		mention(e.Initiator), mention(e.Responder), e.ScheduledAt.Format(whenLayout), lead)
}

func reportCard(res rating.Result, outcome rating.Outcome) tgui.Message {
	return tgui.New().
		Title("🏆", "Result recorded").
		KV("Outcome", outcome.String()).
		KV("Reporter", deltaLine(res.Reporter)).
		KV("Opponent", deltaLine(res.Opponent)).
		Build()
}

func deltaLine(d rating.Delta) string {
	return fmt.Sprintf("%d → %d (%s)", d.Before, d.After, rating.Rank(d.After))
}

func eloCard(id int64, r int) tgui.Message {
	return tgui.New().
		Title("♟️", "Rating").
		KV("Player", strconv.FormatInt(id, 10)).
		KV("Elo", strconv.Itoa(r)).
		KV("Tier", rating.Rank(r)).
		Build()
}

func leaderboardCard(entries []rating.Entry) tgui.Message {
	b := tgui.New().Title("🏆", "Leaderboard")
	if len(entries) == 0 {
		return b.Line("No rated games yet. Report one with /report.").Build()
	}
	for i, e := range entries {
		b.Line(fmt.Sprintf("%2d. %d — %d (%s)", i+1, e.ID, e.Rating, rating.Rank(e.Rating)))
	}
	return b.Build()
}
