// Package kernel implements the mod registry and lifecycle manager.
//
// A mod is Lua source whose chunk returns a descriptor table:
//
//	local api
//
//	return {
//	  id = "hello",
//	  depends = { "base-lib" },
//	  doMenu = true,
//	  main = function(a)
//	    api = a
//	    api.menu.addItem("Say hello", function() api.inform("Hello!", "Hello") end)
//	    api.on("projectCreating", function(e) e.preventDefault() end)
//	  end,
//	  cleanupFuncs = { function() api.showMsg("bye") end },
//	}
//
// Kernel.Load validates the descriptor, checks dependencies, replaces any
// mod already loaded under the same id, and runs main with a capability
// table scoped to the mod. If main fails, every wrap, dispatch target, menu
// hook and API the mod installed during the call is rolled back and the mod
// is not registered. A mod it was replacing stays deleted: its cleanup has
// already run and its autoload entry is gone.
//
// Kernel.Delete runs the mod's cleanup functions in order, then removes the
// mod's interceptions, dispatch targets, menu hooks and autoload entry.
//
// The kernel is not safe for concurrent use. Hosts drive it from a single
// goroutine (see package loop); Lua callbacks re-enter it on that goroutine.
package kernel
