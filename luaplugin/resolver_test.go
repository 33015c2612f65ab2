package luaplugin

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/CherkashinEvgeny/goadvice/advice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const billingScript = `
return {
	before = {
		Charge = function(subject, amount, currency)
			return amount * 2, currency
		end,
		Refund = function(subject, amount)
		end,
	},
	around = {
		Charge = function(subject, amount, currency)
			return amount + 1000
		end,
	},
	after = {
		Charge = function(subject, result, amount, currency)
			return result + amount
		end,
		Refund = function(subject, result, amount)
		end,
	},
}
`

type account struct {
	owner string
}

func newBilling(t *testing.T) *Resolver {
	t.Helper()
	r := NewResolver()
	t.Cleanup(r.Close)
	require.NoError(t, r.LoadString("billing", billingScript))
	return r
}

func resolvePlugin(t *testing.T, r *Resolver, id string) *Plugin {
	t.Helper()
	instance, found := r.Resolve(id)
	require.True(t, found)
	plugin, ok := instance.(*Plugin)
	require.True(t, ok)
	return plugin
}

func TestResolver(t *testing.T) {
	t.Run("Resolve returns loaded plugin", func(t *testing.T) {
		r := newBilling(t)

		plugin := resolvePlugin(t, r, "billing")

		assert.Equal(t, "billing", plugin.ID())
		assert.Equal(t, []string{"billing"}, r.IDs())
	})

	t.Run("Resolve misses unknown plugin", func(t *testing.T) {
		r := newBilling(t)

		_, found := r.Resolve("unknown")

		assert.False(t, found)
	})

	t.Run("LoadString rejects scripts not returning a table", func(t *testing.T) {
		r := NewResolver()
		defer r.Close()

		assert.Error(t, r.LoadString("bad", `return 42`))
		assert.Error(t, r.LoadString("bad", `return { before = 1 }`))
		assert.Error(t, r.LoadString("bad", `return { after = { Charge = "x" } }`))
		assert.Error(t, r.LoadString("bad", `return {`))
		assert.Error(t, r.LoadString("bad", `error("boom")`))
		_, found := r.Resolve("bad")
		assert.False(t, found)
	})

	t.Run("sandbox keeps os and io closed", func(t *testing.T) {
		r := NewResolver()
		defer r.Close()

		require.NoError(t, r.LoadString("probe", `return { around = { Probe = function() return os == nil and io == nil and loadstring == nil end } }`))
		plugin := resolvePlugin(t, r, "probe")

		result, err := plugin.AroundCall(context.Background(), advice.JoinPoint{Method: "Probe"}, nil)

		require.NoError(t, err)
		assert.Equal(t, true, result)
	})

	t.Run("LoadFile reads script from disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "billing.lua")
		require.NoError(t, os.WriteFile(path, []byte(billingScript), 0644))
		r := NewResolver()
		defer r.Close()

		require.NoError(t, r.LoadFile("billing", path))

		_, found := r.Resolve("billing")
		assert.True(t, found)
		assert.Error(t, r.LoadFile("missing", filepath.Join(t.TempDir(), "none.lua")))
	})

	t.Run("Close makes plugins unavailable", func(t *testing.T) {
		r := NewResolver()
		require.NoError(t, r.LoadString("billing", billingScript))
		plugin := resolvePlugin(t, r, "billing")

		r.Close()

		_, found := r.Resolve("billing")
		assert.False(t, found)
		_, err := plugin.AroundCall(context.Background(), advice.JoinPoint{Method: "Charge"}, advice.Args{1, "EUR"})
		assert.ErrorIs(t, err, ErrClosed)
		assert.ErrorIs(t, r.LoadString("x", `return {}`), ErrClosed)
	})
}

func TestPlugin(t *testing.T) {
	ctx := context.Background()
	charge := advice.JoinPoint{Target: "Billing", Method: "Charge", Subject: &account{owner: "ann"}}
	refund := advice.JoinPoint{Target: "Billing", Method: "Refund", Subject: &account{owner: "ann"}}

	t.Run("Advises follows the script tables", func(t *testing.T) {
		plugin := resolvePlugin(t, newBilling(t), "billing")

		assert.True(t, plugin.Advises(advice.Before, "Charge"))
		assert.True(t, plugin.Advises(advice.Around, "Charge"))
		assert.False(t, plugin.Advises(advice.Around, "Refund"))
		assert.False(t, plugin.Advises(advice.After, "Unknown"))
	})

	t.Run("BeforeCall replaces arguments keeping their types", func(t *testing.T) {
		plugin := resolvePlugin(t, newBilling(t), "billing")

		args, err := plugin.BeforeCall(ctx, charge, advice.Args{int64(21), "EUR"})

		require.NoError(t, err)
		assert.Equal(t, advice.Args{int64(42), "EUR"}, args)
	})

	t.Run("BeforeCall keeps fractions of integer arguments", func(t *testing.T) {
		r := NewResolver()
		defer r.Close()
		require.NoError(t, r.LoadString("half", `return { before = { Charge = function(subject, x) return x / 2 end } }`))
		plugin := resolvePlugin(t, r, "half")

		halved, err := plugin.BeforeCall(ctx, charge, advice.Args{5})
		require.NoError(t, err)
		assert.Equal(t, advice.Args{2.5}, halved)

		halved, err = plugin.BeforeCall(ctx, charge, advice.Args{4})
		require.NoError(t, err)
		assert.Equal(t, advice.Args{2}, halved)
	})

	t.Run("BeforeCall without return values keeps arguments", func(t *testing.T) {
		plugin := resolvePlugin(t, newBilling(t), "billing")

		args, err := plugin.BeforeCall(ctx, refund, advice.Args{5})

		require.NoError(t, err)
		assert.Nil(t, args)
	})

	t.Run("AroundCall returns first value", func(t *testing.T) {
		plugin := resolvePlugin(t, newBilling(t), "billing")

		result, err := plugin.AroundCall(ctx, charge, advice.Args{1, "EUR"})

		require.NoError(t, err)
		assert.Equal(t, 1001, result)
	})

	t.Run("AfterCall converts result like the previous one", func(t *testing.T) {
		plugin := resolvePlugin(t, newBilling(t), "billing")

		result, err := plugin.AfterCall(ctx, charge, 2.5, advice.Args{1, "EUR"})

		require.NoError(t, err)
		assert.Equal(t, 3.5, result)
	})

	t.Run("AfterCall without return values keeps result", func(t *testing.T) {
		plugin := resolvePlugin(t, newBilling(t), "billing")

		result, err := plugin.AfterCall(ctx, refund, "done", advice.Args{5})

		require.NoError(t, err)
		assert.Equal(t, "done", result)
	})

	t.Run("Lua errors surface as Go errors", func(t *testing.T) {
		r := NewResolver()
		defer r.Close()
		require.NoError(t, r.LoadString("failing", `return { around = { Charge = function() error("card declined") end } }`))
		plugin := resolvePlugin(t, r, "failing")

		_, err := plugin.AroundCall(ctx, charge, nil)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "card declined")
	})

	t.Run("subject travels as userdata", func(t *testing.T) {
		r := NewResolver()
		defer r.Close()
		require.NoError(t, r.LoadString("echo", `return { around = { Charge = function(subject) return subject end } }`))
		plugin := resolvePlugin(t, r, "echo")

		result, err := plugin.AroundCall(ctx, charge, nil)

		require.NoError(t, err)
		assert.Same(t, charge.Subject, result)
	})

	t.Run("tables convert to slices and maps", func(t *testing.T) {
		r := NewResolver()
		defer r.Close()
		require.NoError(t, r.LoadString("tables", `
return { around = { Charge = function(subject, items)
	return { count = #items, items = items }
end } }`))
		plugin := resolvePlugin(t, r, "tables")

		result, err := plugin.AroundCall(ctx, charge, advice.Args{[]any{"a", "b"}})

		require.NoError(t, err)
		assert.Equal(t, map[string]any{"count": 2, "items": []any{"a", "b"}}, result)
	})
}

func TestDispatcherWithLuaPlugin(t *testing.T) {
	r := newBilling(t)
	registry := advice.NewRegistry()
	require.NoError(t, registry.Before("double", "Billing@Charge", advice.Plugin("billing")))
	require.NoError(t, registry.After("add", "Billing@Charge", advice.Plugin("billing")))
	require.NoError(t, registry.Around("refund", "Billing@Refund", advice.Plugin("billing")))
	d := advice.NewDispatcher(registry, advice.WithResolver(r))
	original := advice.Original(func(ctx context.Context, args advice.Args) (any, error) {
		return advice.As[int](args[0]) + 1, nil
	})

	t.Run("before and after plugin functions wrap the call", func(t *testing.T) {
		jp := advice.JoinPoint{Target: "Billing", Method: "Charge", Subject: &account{}}

		result, err := d.Dispatch(context.Background(), jp, advice.Args{5, "EUR"}, original)

		require.NoError(t, err)
		// before doubles 5, the call adds one, after adds the original 5
		assert.Equal(t, 16, result)
	})

	t.Run("plugin without around function falls through", func(t *testing.T) {
		jp := advice.JoinPoint{Target: "Billing", Method: "Refund", Subject: &account{}}

		result, err := d.Dispatch(context.Background(), jp, advice.Args{5}, original)

		require.NoError(t, err)
		assert.Equal(t, 6, result)
	})
}
