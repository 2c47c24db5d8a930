package particles

import (
	"context"

	"TrafficRain/internal/model"

	"github.com/gdamore/tcell/v2"
)

var messageStyle = tcell.StyleDefault.
	Background(toColor(IdleBackground)).
	Foreground(toColor(Color(model.Other)))

// ShowMessage clears screen to the idle background and centers msg on it.
// Lines wider than the screen are cut.
func ShowMessage(screen tcell.Screen, msg string) {
	screen.Fill(' ', messageStyle)
	cols, rows := screen.Size()
	runes := []rune(msg)
	x := max((cols-len(runes))/2, 0)
	y := rows / 2
	for i, r := range runes {
		if x+i >= cols {
			break
		}
		screen.SetContent(x+i, y, r, nil, messageStyle)
	}
	screen.Show()
}

// RunMessage keeps msg on screen until ctx is done or the user quits with
// Esc, q or Ctrl-C. It is the canvas's stand-in when capture is unavailable.
func RunMessage(ctx context.Context, screen tcell.Screen, msg string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	resized := make(chan struct{}, 1)
	go pollEvents(ctx, screen, cancel, resized)

	ShowMessage(screen, msg)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-resized:
			screen.Sync()
			ShowMessage(screen, msg)
		}
	}
}
