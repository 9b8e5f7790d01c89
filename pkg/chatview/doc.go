// Package chatview renders chat messages for people: an HTML line for rich-text views,
// a styled terminal line, and a full-screen live viewer built on bubbletea.
//
//	sub, _ := broker.Subscribe("", "")
//	r := chatview.NewReader(sub, func(lines []string) {
//		for _, l := range lines {
//			fmt.Println(l)
//		}
//	}, chatview.WithFormatter(chatview.Line))
//	go r.Run(ctx)
//	defer r.Stop()
//
// The terminal Viewer pulls through a Reader formatting with Line. The default
// HTML formatter, HTMLBatch and Run's callback are the hook for GUI hosts that show
// rich text, such as a desktop chat window or an overlay page fed line by line.
//
// User names and message text are normalized (NFC, no control characters) before
// rendering. Users without a color of their own get a stable palette color.
package chatview
