package frontend

import (
	"fmt"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// TopBar shows the title and, during a round, the per-player scores.
type TopBar struct {
	app.Compo
}

func (t *TopBar) onTitleClick(ctx app.Context, e app.Event) {
	if State.Round != nil {
		State.SendHome()
	}
	ctx.Navigate("/")
}

func (t *TopBar) Render() app.UI {
	var scores []app.UI
	if State.Round != nil {
		scores = append(scores,
			app.Li().Body(
				app.Span().Text("Player 1: "),
				app.Strong().ID("player1-score").Text(fmt.Sprintf("%d", State.Round.Player1Score)),
			),
			app.Li().Body(
				app.Span().Text("Player 2: "),
				app.Strong().ID("player2-score").Text(fmt.Sprintf("%d", State.Round.Player2Score)),
			),
		)
	}

	return app.Nav().Body(
		app.Ul().Body(
			app.Li().Body(
				app.Strong().Text("MathCards").Style("cursor", "pointer").OnClick(t.onTitleClick),
			),
		),
		app.Ul().Body(scores...),
	)
}
