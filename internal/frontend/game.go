package frontend

import (
	"fmt"

	"github.com/janpfeifer/MathCards/internal/game"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
	"k8s.io/klog/v2"
)

// Game renders the running round: timer, scores, board and hand.
//
// A hand card is picked up with a click and placed with a click on a board
// slot, or with a shift-click on another hand card.
type Game struct {
	app.Compo

	onUpdate func()
}

func (g *Game) OnAppUpdate(ctx app.Context) {
	klog.Infof("Game component: App update available, not reloading not to interrupt the game...")
}

func (g *Game) OnMount(ctx app.Context) {
	klog.V(1).Infof("Game component: OnMount called")
	g.onUpdate = func() {
		ctx.Dispatch(func(ctx app.Context) {})
	}
	State.Listeners["game"] = g.onUpdate
}

func (g *Game) OnDismount() {
	klog.V(1).Infof("Game component: OnDismount called")
	delete(State.Listeners, "game")
}

func (g *Game) OnNav(ctx app.Context) {
	if State.Round == nil && State.Conn == nil {
		// Reloaded the page: there is no round to show.
		ctx.Navigate("/")
	}
}

// handAction is what a click on a hand card does.
type handAction int

const (
	handSelect   handAction = iota // Pick up the clicked card, dropping any other.
	handDeselect                   // Put the selected card back.
	handPlace                      // Place the selected card onto the clicked one.
)

// handClickAction decides what clicking the card with value clicked does, given the
// selected card value (0 if none). Placing onto a hand card needs placeOnto (shift-click),
// so a plain click always changes the selection.
func handClickAction(selected, clicked int, placeOnto bool) handAction {
	switch {
	case selected == clicked:
		return handDeselect
	case selected != 0 && placeOnto:
		return handPlace
	default:
		return handSelect
	}
}

func (g *Game) onCardClick(ctx app.Context, e app.Event, index int, value int) {
	if State.Summary != nil {
		return
	}
	switch handClickAction(State.Selected, value, e.Get("shiftKey").Bool()) {
	case handDeselect:
		State.Selected = 0
	case handPlace:
		State.SendPlace(game.SlotRef{Zone: game.ZoneHand, Index: index})
	default:
		State.Selected = value
	}
}

func (g *Game) onDismissNotice(ctx app.Context, e app.Event) {
	e.PreventDefault()
	State.Notice = ""
}

func (g *Game) onSlotClick(ctx app.Context, index int) {
	if State.Selected == 0 {
		return
	}
	State.SendPlace(game.SlotRef{Zone: game.ZoneBoard, Index: index})
}

func (g *Game) onPlayAgain(ctx app.Context, e app.Event) {
	e.PreventDefault()
	if err := State.StartGame(game.ModeOffline); err != nil {
		ctx.Navigate("/")
	}
}

func (g *Game) onBackToHome(ctx app.Context, e app.Event) {
	e.PreventDefault()
	State.SendHome()
	ctx.Navigate("/")
}

func stateClass(s game.SlotState) string {
	switch s {
	case game.Matched:
		return "card correct"
	case game.RejectedFlash:
		return "card incorrect"
	}
	return "card"
}

func (g *Game) renderBoard(r *game.RoundView) app.UI {
	slots := make([]app.UI, 0, len(r.Board))
	for i, slot := range r.Board {
		slots = append(slots, app.Div().
			Class(stateClass(slot.State)).
			Class("slot").
			Text(slot.Value).
			OnClick(func(ctx app.Context, e app.Event) { g.onSlotClick(ctx, i) }))
	}
	return app.Div().ID("game-board").Class("board").Body(slots...)
}

func (g *Game) renderHand(r *game.RoundView) app.UI {
	cards := make([]app.UI, 0, len(r.Hand))
	for i, card := range r.Hand {
		class := stateClass(card.State)
		if card.Value == State.Selected {
			class += " selected"
		}
		cards = append(cards, app.Div().
			Class(class).
			Text(card.Value).
			OnClick(func(ctx app.Context, e app.Event) { g.onCardClick(ctx, e, i, card.Value) }))
	}
	return app.Div().ID("players-hand").Class("hand").Body(cards...)
}

func (g *Game) renderSummary(s *game.RoundSummary) app.UI {
	return app.Div().Class("popup").Body(
		app.Article().Class("popup-content").Body(
			app.H2().Text("Time's up!"),
			app.P().Text(fmt.Sprintf("Your final score is: %d", s.TotalScore)),
			app.P().Text(s.Winner.Message()),
			app.Footer().Body(
				app.Button().Text("Play Again").OnClick(g.onPlayAgain),
				app.Button().Class("secondary").Text("Back to Home").OnClick(g.onBackToHome),
			),
		),
	)
}

func (g *Game) Render() app.UI {
	if State.Error != "" {
		return app.Main().Class("container").Body(
			&TopBar{},
			app.Article().Body(
				app.H2().Text("Game Error"),
				app.P().Style("color", "red").Text(State.Error),
				app.A().Href("#").OnClick(g.onBackToHome).Text("Return to Home"),
			),
		)
	}

	var content app.UI
	if State.Round == nil {
		content = app.Div().Aria("busy", "true").Text("Dealing cards...")
	} else {
		r := State.Round
		var summaryUI app.UI = app.Text("")
		if State.Summary != nil {
			summaryUI = g.renderSummary(State.Summary)
		}
		var noticeUI app.UI = app.Text("")
		if State.Notice != "" {
			noticeUI = app.Article().Class("notice").Body(
				app.P().Text(State.Notice),
				app.Button().Class("secondary").Text("OK").OnClick(g.onDismissNotice),
			)
		}
		content = app.Div().Class("game").Body(
			noticeUI,
			app.Div().Class("grid").Body(
				app.Div().ID("timer").Text(game.FormatTime(State.Remaining)),
				app.Div().ID("score").Text(fmt.Sprintf("Score: %d", r.TotalScore)),
				app.Div().ID("increment").Text(fmt.Sprintf("Increment: +%d", r.Increment)),
			),
			g.renderBoard(r),
			g.renderHand(r),
			app.Small().Text("Click a card to pick it up, then click a board card to place it. "+
				"Shift-click a card in your hand to place the picked-up card on it."),
			summaryUI,
		)
	}

	return app.Main().Class("container").Body(
		&TopBar{},
		content,
	)
}
