package luaplugin

import (
	"math"
	"reflect"
	"strconv"

	lua "github.com/yuin/gopher-lua"
)

func toLua(state *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return val
	case bool:
		return lua.LBool(val)
	case string:
		return lua.LString(val)
	case []byte:
		return lua.LString(val)
	case int:
		return lua.LNumber(val)
	case int8:
		return lua.LNumber(val)
	case int16:
		return lua.LNumber(val)
	case int32:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case uint:
		return lua.LNumber(val)
	case uint8:
		return lua.LNumber(val)
	case uint16:
		return lua.LNumber(val)
	case uint32:
		return lua.LNumber(val)
	case uint64:
		return lua.LNumber(val)
	case float32:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case []any:
		table := state.NewTable()
		for _, item := range val {
			table.Append(toLua(state, item))
		}
		return table
	case map[string]any:
		table := state.NewTable()
		for key, item := range val {
			table.RawSetString(key, toLua(state, item))
		}
		return table
	}
	ud := state.NewUserData()
	ud.Value = v
	return ud
}

// fromLua converts a Lua value back to Go. Numbers take the numeric type of
// hint when it has one, so an int argument doubled in Lua comes back as int.
func fromLua(lv lua.LValue, hint any) any {
	switch val := lv.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(val)
	case lua.LString:
		if _, ok := hint.([]byte); ok {
			return []byte(val)
		}
		return string(val)
	case lua.LNumber:
		return number(float64(val), hint)
	case *lua.LTable:
		return tableToGo(val, make(map[*lua.LTable]bool))
	case *lua.LUserData:
		return val.Value
	}
	return nil
}

func number(f float64, hint any) any {
	if hint != nil {
		t := reflect.TypeOf(hint)
		switch t.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			// Fractions never narrow to an integer kind.
			if f != math.Trunc(f) {
				return f
			}
			return reflect.ValueOf(f).Convert(t).Interface()
		case reflect.Float32, reflect.Float64:
			return reflect.ValueOf(f).Convert(t).Interface()
		}
	}
	if f == math.Trunc(f) && f >= math.MinInt && f <= math.MaxInt {
		return int(f)
	}
	return f
}

func tableToGo(table *lua.LTable, visited map[*lua.LTable]bool) any {
	if visited[table] {
		return nil
	}
	visited[table] = true

	n := table.Len()
	count := 0
	table.ForEach(func(_, _ lua.LValue) {
		count++
	})
	if n > 0 && n == count {
		list := make([]any, n)
		for i := 1; i <= n; i++ {
			list[i-1] = convertNested(table.RawGetInt(i), visited)
		}
		return list
	}

	m := make(map[string]any, count)
	table.ForEach(func(key lua.LValue, value lua.LValue) {
		var name string
		switch k := key.(type) {
		case lua.LString:
			name = string(k)
		case lua.LNumber:
			name = strconv.FormatFloat(float64(k), 'f', -1, 64)
		default:
			name = key.String()
		}
		m[name] = convertNested(value, visited)
	})
	return m
}

func convertNested(lv lua.LValue, visited map[*lua.LTable]bool) any {
	if table, ok := lv.(*lua.LTable); ok {
		return tableToGo(table, visited)
	}
	return fromLua(lv, nil)
}
