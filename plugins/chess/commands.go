package chess

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"chessbot/internal/match"
	core "chessbot/internal/plugin"
	"chessbot/internal/rating"
	kit "chessbot/internal/transport"
)

func (p *Plugin) Commands() []core.Command {
	return []core.Command{
		{
			Route:       "cancel",
			Aliases:     []string{"cancel_game"},
			Description: "cancel your proposed or confirmed game",
			Usage:       "/cancel",
			Access:      core.AccessEveryone,
			Handle:      p.cmdCancel,
		},
		{
			Route:       "report",
			Aliases:     []string{"report_result", "rr"},
			Description: "report a game result (win/loss/draw)",
			Usage:       "/report <win|loss|draw>  or  /report <opponent-id> <win|loss|draw>",
			Access:      core.AccessEveryone,
			Handle:      p.cmdReport,
		},
		{
			Route:       "elo",
			Aliases:     []string{"rating"},
			Description: "show a player's rating and tier",
			Usage:       "/elo [user-id]",
			Access:      core.AccessEveryone,
			Handle:      p.cmdElo,
		},
		{
			Route:       "leaderboard",
			Aliases:     []string{"lb", "top"},
			Description: "top rated players",
			Usage:       "/leaderboard",
			Access:      core.AccessEveryone,
			Handle:      p.cmdLeaderboard,
		},
		{
			Route:       "ping",
			Description: "liveness check",
			Usage:       "/ping",
			Access:      core.AccessEveryone,
			Handle: func(ctx context.Context, req *core.Request) error {
				_, _ = req.Adapter.SendText(ctx, req.Chat, "pong 🏓", nil)
				return nil
			},
		},
	}
}

func (p *Plugin) cmdCancel(ctx context.Context, req *core.Request) error {
	e, err := p.matches.CancelFor(req.FromID)
	if errors.Is(err, match.ErrNotFound) {
		_, _ = req.Adapter.SendText(ctx, req.Chat, "You have no active game to cancel.", nil)
		return nil
	}
	if err != nil {
		return err
	}

	p.dropReminder(e.ID)
	if e.Origin.ChatID != 0 {
		card := cancelledCard(e)
		_ = card.Edit(ctx, req.Adapter, e.Origin, kit.ChatTarget{ChatID: e.Origin.ChatID, ThreadID: e.Origin.ThreadID})
	}
	_, _ = req.Adapter.SendText(ctx, req.Chat, "Game cancelled.", nil)
	_ = p.Info(req.Chat.ChatID, cancelNotice(e, req.FromID))
	p.PublishEvent("chess.cancelled", map[string]any{"id": e.ID, "actor": req.FromID})
	return nil
}

func (p *Plugin) cmdReport(ctx context.Context, req *core.Request) error {
	usage := func() error {
		_, _ = req.Adapter.SendText(ctx, req.Chat,
			"Usage: /report <win|loss|draw> (uses your confirmed game), or /report <opponent-id> <win|loss|draw>.", nil)
		return nil
	}

	var opponent int64
	var outcomeArg string
	switch len(req.Args) {
	case 1:
		// Opponent comes from the reporter's confirmed game.
		e, ok := p.matches.Active(req.FromID)
		if !ok || e.State != match.StateConfirmed {
			_, _ = req.Adapter.SendText(ctx, req.Chat,
				"You have no confirmed game. Use /report <opponent-id> <win|loss|draw>.", nil)
			return nil
		}
		opponent = e.Initiator
		if opponent == req.FromID {
			opponent = e.Responder
		}
		outcomeArg = req.Args[0]
	case 2:
		id, err := strconv.ParseInt(req.Args[0], 10, 64)
		if err != nil {
			return usage()
		}
		opponent = id
		outcomeArg = req.Args[1]
	default:
		return usage()
	}

	outcome, err := rating.ParseOutcome(outcomeArg)
	if err != nil {
		return usage()
	}

	res, err := p.ratings.Record(ctx, req.FromID, opponent, outcome)
	if errors.Is(err, rating.ErrSelfReport) {
		_, _ = req.Adapter.SendText(ctx, req.Chat, "You can't report a game against yourself.", nil)
		return nil
	}
	if err != nil {
		return err
	}

	// Retire the confirmed engagement, if this result belongs to one.
	if e, err := p.matches.Complete(req.FromID, opponent); err == nil {
		p.dropReminder(e.ID)
	}

	msg := reportCard(res, outcome)
	_, _ = msg.Send(ctx, req.Adapter, req.Chat)
	p.PublishEvent("chess.reported", map[string]any{
		"reporter": req.FromID,
		"opponent": opponent,
		"outcome":  outcome.String(),
	})
	return nil
}

func (p *Plugin) cmdElo(ctx context.Context, req *core.Request) error {
	id := req.FromID
	if len(req.Args) > 0 {
		v, err := strconv.ParseInt(strings.TrimSpace(req.Args[0]), 10, 64)
		if err != nil {
			_, _ = req.Adapter.SendText(ctx, req.Chat, "Usage: /elo [user-id]", nil)
			return nil
		}
		id = v
	}
	r := p.ratings.Rating(id)
	msg := eloCard(id, r)
	_, _ = msg.Send(ctx, req.Adapter, req.Chat)
	return nil
}

func (p *Plugin) cmdLeaderboard(ctx context.Context, req *core.Request) error {
	entries := p.ratings.Leaderboard(10)
	msg := leaderboardCard(entries)
	_, _ = msg.Send(ctx, req.Adapter, req.Chat)
	return nil
}
