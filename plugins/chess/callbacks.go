package chess

import (
	"context"

	"chessbot/internal/match"
	core "chessbot/internal/plugin"
	kit "chessbot/internal/transport"
)

func (p *Plugin) Callbacks() []core.CallbackRoute {
	return []core.CallbackRoute{
		{
			Action:      "act",
			Description: "accept or cancel a proposed game",
			Access:      core.CallbackAccessEveryone,
			Handle:      p.handleAction,
		},
	}
}

func (p *Plugin) handleAction(ctx context.Context, req *core.Request, payload string) error {
	cb := req.Update.Callback
	if cb == nil {
		return nil
	}
	answer := func(text string) {
		_ = req.Adapter.AnswerCallback(ctx, cb.ID, text)
	}

	action, id, err := match.ParseToken(payload)
	if err != nil {
		answer("That button has expired.")
		return nil
	}
	ref := kit.MessageRef{ChatID: cb.ChatID, ThreadID: cb.ThreadID, MessageID: cb.MessageID}

	switch action {
	case match.ActionAccept:
		e, err := p.matches.Accept(id, req.FromID)
		switch err {
		case nil:
		case match.ErrNotFound:
			answer("This game is no longer open.")
			return nil
		case match.ErrSelfAcceptance:
			answer("You can't accept your own game.")
			return nil
		case match.ErrAlreadyConfirmed:
			answer("Someone already accepted this game.")
			return nil
		case match.ErrDuplicateEngagement:
			answer("You already have an active game.")
			return nil
		default:
			return err
		}

		card := confirmedCard(e, displayName(cb.FromUsername, req.FromID))
		_ = card.Edit(ctx, req.Adapter, ref, req.Chat)
		answer("Game on!")

		// State is committed; everything below is best-effort fan-out.
		p.scheduleReminder(e)
		_ = p.Info(req.Chat.ChatID, confirmNotice(e))
		p.PublishEvent("chess.confirmed", map[string]any{"id": e.ID, "initiator": e.Initiator, "responder": e.Responder})
		return nil

	case match.ActionCancel:
		e, err := p.matches.Cancel(id, req.FromID)
		switch err {
		case nil:
		case match.ErrNotFound:
			answer("This game is already gone.")
			return nil
		case match.ErrUnauthorized:
			answer("Only participants can cancel this game.")
			return nil
		default:
			return err
		}

		card := cancelledCard(e)
		_ = card.Edit(ctx, req.Adapter, ref, req.Chat)
		answer("Cancelled.")

		p.dropReminder(e.ID)
		_ = p.Info(req.Chat.ChatID, cancelNotice(e, req.FromID))
		p.PublishEvent("chess.cancelled", map[string]any{"id": e.ID, "actor": req.FromID})
		return nil
	}
	return nil
}
