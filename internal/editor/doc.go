// Package editor assembles an editing session from the state store, the
// event bus, the entity store and the history engine.
//
// Selecting a tool updates the derived options panZoomStatus and
// activeDrawTool and emits tool-change on the bus with the tool name:
//
//	ctx, err := editor.New(map[string]any{"gridSize": 10})
//	if err != nil {
//	    return err
//	}
//	defer ctx.Destroy()
//
//	ctx.Bus().On(event.TopicToolChange, func(args ...any) error {
//	    fmt.Println("tool:", args[0])
//	    return nil
//	})
//	_ = ctx.SetTool("rect")
package editor
