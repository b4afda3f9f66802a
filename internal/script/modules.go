package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/revstack/internal/history"
)

func (s *State) registerHistory() {
	stack := s.editor.Stack()
	mod := s.L.SetFuncs(s.L.NewTable(), map[string]lua.LGFunction{
		"undo": func(L *lua.LState) int {
			s.check(L, stack.Rollback())
			return 0
		},
		"redo": func(L *lua.LState) int {
			s.check(L, stack.Rollforward())
			return 0
		},
		"can_undo": func(L *lua.LState) int {
			L.Push(lua.LBool(stack.CanRollback()))
			return 1
		},
		"can_redo": func(L *lua.LState) int {
			L.Push(lua.LBool(stack.CanRollforward()))
			return 1
		},
		"clear": func(L *lua.LState) int {
			s.check(L, stack.Clear())
			return 0
		},
		"position": func(L *lua.LState) int {
			L.Push(lua.LNumber(stack.Position()))
			return 1
		},
		"len": func(L *lua.LState) int {
			L.Push(lua.LNumber(stack.Len()))
			return 1
		},
		"capacity": func(L *lua.LState) int {
			L.Push(lua.LNumber(stack.Capacity()))
			return 1
		},
		"transaction": s.transaction,
		"savepoint": func(L *lua.LState) int {
			L.Push(lua.LString(stack.CreateSavePoint().String()))
			return 1
		},
		"at_savepoint": func(L *lua.LState) int {
			sp := s.savePoint(L, 1)
			L.Push(lua.LBool(stack.IsAtSavePoint(sp)))
			return 1
		},
		"revert_to": func(L *lua.LState) int {
			s.check(L, stack.RevertTo(s.savePoint(L, 1)))
			return 0
		},
	})
	s.L.SetGlobal("history", mod)
}

// transaction runs fn inside a named transaction. A Lua error reverts the
// edits fn made and abandons the transaction.
func (s *State) transaction(L *lua.LState) int {
	name := L.CheckString(1)
	fn := L.CheckFunction(2)

	err := s.editor.Stack().Do(s.ctx, name, func(*history.Transaction) error {
		return L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true})
	})
	s.check(L, err)
	return 0
}

func (s *State) savePoint(L *lua.LState, n int) history.SavePoint {
	sp, err := history.ParseSavePoint(L.CheckString(n))
	if err != nil {
		L.ArgError(n, err.Error())
	}
	return sp
}

func (s *State) registerDoc() {
	mod := s.L.SetFuncs(s.L.NewTable(), map[string]lua.LGFunction{
		"get": func(L *lua.LState) int {
			r := s.editor.Document().Get(L.CheckString(1))
			L.Push(toLuaValue(L, r.Value()))
			return 1
		},
		"set": func(L *lua.LState) int {
			path, value := L.CheckString(1), toGoValue(L.CheckAny(2))
			s.edit(L, "set "+path, func() error { return s.editor.Set(path, value) })
			return 0
		},
		"delete": func(L *lua.LState) int {
			path := L.CheckString(1)
			s.edit(L, "delete "+path, func() error { return s.editor.Delete(path) })
			return 0
		},
		"append": func(L *lua.LState) int {
			path, value := L.CheckString(1), toGoValue(L.CheckAny(2))
			s.edit(L, "append "+path, func() error { return s.editor.Append(path, value) })
			return 0
		},
		// Lua indexes from 1.
		"remove": func(L *lua.LState) int {
			path, index := L.CheckString(1), L.CheckInt(2)-1
			s.edit(L, "remove "+path, func() error { return s.editor.Remove(path, index) })
			return 0
		},
		"json": func(L *lua.LState) int {
			L.Push(lua.LString(s.editor.Document().String()))
			return 1
		},
	})
	s.L.SetGlobal("doc", mod)
}

// edit applies fn in the open transaction, or in a transaction of its own
// named name when none is open.
func (s *State) edit(L *lua.LState, name string, fn func() error) {
	stack := s.editor.Stack()
	if stack.Depth() > 0 {
		s.check(L, fn())
		return
	}
	s.check(L, stack.Do(s.ctx, name, func(*history.Transaction) error {
		return fn()
	}))
}

// check raises err as a Lua error.
func (s *State) check(L *lua.LState, err error) {
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
}
