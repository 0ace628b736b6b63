package rapidgui_test

import (
	"context"
	"fmt"

	"github.com/odvcencio/rapidgui/pkg/rapidgui"
	"github.com/odvcencio/rapidgui/pkg/ui/backend/sim"
)

func ExampleNew() {
	doc := &rapidgui.Document{
		App: map[string]any{"width": 200, "height": 100},
		Components: []rapidgui.Component{
			{Type: "progressbar", Identifier: "progress", Properties: map[string]any{"width": 180}},
		},
	}

	app, err := rapidgui.New(context.Background(), doc, rapidgui.WithBackend(sim.New(200, 100)))
	if err != nil {
		fmt.Println(err)
		return
	}
	defer app.Close()

	bar, _ := app.ProgressBar("progress")
	_ = bar.SetPct(150)
	pct, _ := bar.Pct()
	fmt.Println(app.Identifiers(), pct)
	// Output: [progress] 100
}
