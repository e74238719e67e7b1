package frontend

import (
	"fmt"

	"github.com/janpfeifer/MathCards/internal/game"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
	"k8s.io/klog/v2"
)

// Home is the start page: the player picks the increment and the game mode.
type Home struct {
	app.Compo
}

func (h *Home) OnMount(ctx app.Context) {
	klog.V(1).Infof("Home: OnMount called")
	State.Listeners["home"] = func() {
		ctx.Dispatch(func(ctx app.Context) {})
	}
}

func (h *Home) OnDismount() {
	delete(State.Listeners, "home")
}

func (h *Home) onIncrementChange(ctx app.Context, e app.Event) {
	State.Increment = ctx.JSSrc().Get("value").String()
}

func (h *Home) onPlayOffline(ctx app.Context, e app.Event) {
	e.PreventDefault()
	if err := State.StartGame(game.ModeOffline); err != nil {
		return
	}
	ctx.Navigate("/game")
}

func (h *Home) onPlayOnline(ctx app.Context, e app.Event) {
	e.PreventDefault()
	_ = State.StartGame(game.ModeOnline)
}

func (h *Home) onDismissNotice(ctx app.Context, e app.Event) {
	e.PreventDefault()
	State.Notice = ""
}

func (h *Home) Render() app.UI {
	var noticeUI app.UI = app.Text("")
	if State.Notice != "" {
		noticeUI = app.Article().Class("notice").Body(
			app.P().Text(State.Notice),
			app.Button().Class("secondary").Text("OK").OnClick(h.onDismissNotice),
		)
	}

	var errorUI app.UI = app.Text("")
	if State.Error != "" {
		errorUI = app.Div().Style("color", "red").Style("margin-bottom", "1rem").Text(State.Error)
	}

	return app.Main().Class("container").Body(
		&TopBar{},
		app.Article().Body(
			app.Header().Body(
				app.H2().Text("Math Cards"),
			),
			app.P().Text(fmt.Sprintf(
				"Place each card of your hand on the board card it exceeds by the increment. "+
					"You have %d seconds.", game.RoundDuration)),
			errorUI,
			noticeUI,
			app.Form().OnSubmit(h.onPlayOffline).Body(
				app.Label().For("increment").Text(fmt.Sprintf(
					"Increment (%d, %d, ..., %d)", game.MinIncrement, game.MinIncrement+2, game.MaxIncrement)),
				app.Input().
					Type("number").
					ID("increment").
					Name("increment").
					Attr("min", game.MinIncrement).
					Attr("max", game.MaxIncrement).
					Attr("step", 2).
					Value(State.Increment).
					OnInput(h.onIncrementChange),
				app.Div().Class("grid").Body(
					app.Button().Type("submit").Text("Play Offline"),
					app.Button().Type("button").Class("secondary").Text("Play Online").OnClick(h.onPlayOnline),
				),
			),
		),
	)
}
