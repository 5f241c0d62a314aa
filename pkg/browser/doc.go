// Package browser implements the host interfaces over the page's DOM when
// compiled for js/wasm.
//
// Mount a description into an element of the page:
//
//	container, err := browser.Container("#app")
//	if err != nil {
//		panic(err)
//	}
//	core.Render(core.CreateElement(todo.App, nil), container)
//	select {}
//
// Every JS node is wrapped once; the wrapper is remembered on the node so
// the engine sees stable identities. Listeners are bridged with js.FuncOf
// and released when removed.
package browser
