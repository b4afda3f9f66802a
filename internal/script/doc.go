// Package script runs Lua edit scripts against a history stack and a JSON
// document.
//
// Scripts see two modules:
//
//	history.transaction("Rename", function()
//	    doc.set("title", "final")
//	    doc.append("tags", "edited")
//	end)
//	history.undo()
//	local saved = history.savepoint()
//	history.redo()
//	assert(not history.at_savepoint(saved))
//
// history: undo, redo, can_undo, can_redo, clear, position, len, capacity,
// transaction, savepoint, revert_to, at_savepoint.
//
// doc: get, set, delete, append, remove, json.
//
// A doc edit made outside history.transaction is recorded in a transaction
// of its own, named after the edit ("set title"). A Lua error inside
// history.transaction reverts the edits made so far.
//
// Only the base, table, string and math libraries are opened.
package script
