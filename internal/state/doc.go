// Package state holds the editor's observable option tree.
//
// The tree is a nested map[string]any seeded from Defaults and addressed
// by dot paths such as "selectOptions.isDragAdoption". All writes go
// through Set, Delete or Reset; readers always receive copies.
//
// Subscribers are notified synchronously after a write:
//
//	unsub := store.Subscribe("panZoomOptions", func(c state.Change) {
//	    fmt.Println(c.ChangedPath, c.Value)
//	})
//	defer unsub()
//
//	store.Set("panZoomOptions.zoomMax", 40) // notifies "panZoomOptions"
package state
