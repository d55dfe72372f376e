package attrset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

type change struct {
	kind ChangeKind
	name string
	old  cty.Value
	new  cty.Value
}

func TestOnChange(t *testing.T) {
	t.Run("declaration and assignment kinds", func(t *testing.T) {
		s := New()
		var seen []change
		s.OnChange(func(kind ChangeKind, name string, oldValue, newValue cty.Value) {
			seen = append(seen, change{kind, name, oldValue, newValue})
		})

		require.NoError(t, s.Declare("subject", cty.String, cty.StringVal("s01")))
		require.NoError(t, s.Set("subject", cty.StringVal("s02")))

		require.Len(t, seen, 2)
		assert.Equal(t, AttributeDeclared, seen[0].kind)
		assert.Equal(t, "subject", seen[0].name)
		assert.Equal(t, ValueChanged, seen[1].kind)
		assert.Equal(t, "s01", seen[1].old.AsString())
		assert.Equal(t, "s02", seen[1].new.AsString())
	})

	t.Run("no notification for an unchanged value", func(t *testing.T) {
		s := New()
		require.NoError(t, s.Declare("subject", cty.String, cty.StringVal("s01")))

		count := 0
		s.OnChange(func(ChangeKind, string, cty.Value, cty.Value) { count++ })

		require.NoError(t, s.Set("subject", cty.StringVal("s01")))
		assert.Zero(t, count)
	})

	t.Run("removal stops delivery", func(t *testing.T) {
		s := New()
		require.NoError(t, s.Declare("subject", cty.String, cty.NilVal))

		count := 0
		remove := s.OnChange(func(ChangeKind, string, cty.Value, cty.Value) { count++ })
		require.NoError(t, s.Set("subject", cty.StringVal("a")))
		remove()
		require.NoError(t, s.Set("subject", cty.StringVal("b")))

		assert.Equal(t, 1, count)
	})
}
