package kitchen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShoppingList_Add(t *testing.T) {
	var l ShoppingList

	assert.True(t, l.Add("Milk"))
	assert.False(t, l.Add("milk"), "case-insensitive duplicate")
	assert.False(t, l.Add("MILK"))
	assert.False(t, l.Add("   "), "blank item")
	assert.True(t, l.Add("Eggs"))

	assert.Equal(t, []string{"Milk", "Eggs"}, l.Items())
}

func TestShoppingList_Remove(t *testing.T) {
	var l ShoppingList
	l.Add("Milk")
	l.Add("Eggs")
	l.Add("Butter")

	assert.False(t, l.Remove("milk"), "removal is exact")
	assert.True(t, l.Remove("Eggs"))
	assert.False(t, l.Remove("Eggs"))
	assert.Equal(t, []string{"Milk", "Butter"}, l.Items())
	assert.Equal(t, 2, l.Len())
}

func TestShoppingList_ItemsIsCopy(t *testing.T) {
	var l ShoppingList
	l.Add("Milk")

	items := l.Items()
	items[0] = "Changed"

	assert.Equal(t, []string{"Milk"}, l.Items())
}

func TestShoppingList_Clear(t *testing.T) {
	var l ShoppingList
	l.Add("Milk")
	l.Clear()

	assert.Empty(t, l.Items())
	assert.NotNil(t, l.Items())
	assert.True(t, l.Add("milk"))
}
