package cache

import (
	"testing"

	dom "github.com/serega19851/task-manager/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestKeyEncodesFilterAndWindow(t *testing.T) {
	c := &TaskCache{}

	assert.Equal(t, "tasks:list:all:100:0", c.Key(nil, 100, 0))

	st := dom.StatusInProgress
	assert.Equal(t, "tasks:list:in_progress:10:20", c.Key(&st, 10, 20))
}

func TestKeyDistinguishesPages(t *testing.T) {
	c := &TaskCache{}
	st := dom.StatusCompleted

	keys := map[string]bool{
		c.Key(nil, 100, 0):  true,
		c.Key(nil, 100, 10): true,
		c.Key(nil, 10, 0):   true,
		c.Key(&st, 100, 0):  true,
	}
	assert.Len(t, keys, 4, "every filter/window combination gets its own key")
}
