package chess

import (
	"context"
	"strings"

	"chessbot/internal/match"
	core "chessbot/internal/plugin"
	"chessbot/pkg/tgui"
)

// wantsGame is the free-text proposal trigger: the message must mention
// chess and an intent word. Kept deliberately loose; the date/time parser
// does the precise work afterwards.
func wantsGame(text string) bool {
	t := strings.ToLower(text)
	if !strings.Contains(t, "chess") {
		return false
	}
	return strings.Contains(t, "play") || strings.Contains(t, "game")
}

func (p *Plugin) Triggers() []core.TriggerRoute {
	return []core.TriggerRoute{
		{
			Name:        "propose",
			Description: "propose a chess game from a plain message",
			Match:       wantsGame,
			Handle:      p.handlePropose,
		},
	}
}

func (p *Plugin) handlePropose(ctx context.Context, req *core.Request) error {
	text := ""
	var fromName string
	if req.Update.Message != nil {
		text = req.Update.Message.Text
		fromName = req.Update.Message.FromUsername
	}

	e, err := p.matches.Propose(req.FromID, text)
	switch err {
	case nil:
	case match.ErrInvalidTimeWindow:
		_, _ = req.Adapter.SendText(ctx, req.Chat, windowHint(), nil)
		return nil
	case match.ErrDuplicateEngagement:
		msg := tgui.New().
			Title("♟️", "One game at a time").
			Line("You already have an active game. Cancel it first with /cancel.").
			Build()
		_, _ = msg.Send(ctx, req.Adapter, req.Chat)
		return nil
	default:
		return err
	}

	card := proposalCard(e, displayName(fromName, req.FromID))
	ref, err := card.Send(ctx, req.Adapter, req.Chat)
	if err != nil {
		return err
	}
	p.matches.SetOrigin(e.ID, ref)
	p.PublishEvent("chess.proposed", map[string]any{"id": e.ID, "initiator": e.Initiator})
	return nil
}
