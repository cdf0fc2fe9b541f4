package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetMissesOnChangedContent(t *testing.T) {
	c := New[int]()
	_, ok := c.Get("a.py", []byte("x"))
	assert.False(t, ok)

	c.Set("a.py", []byte("x"), 1)
	v, ok := c.Get("a.py", []byte("x"))
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("a.py", []byte("y"))
	assert.False(t, ok)
}

func TestRetain(t *testing.T) {
	c := New[string]()
	c.Set("a.py", []byte("a"), "a")
	c.Set("b.py", []byte("b"), "b")
	c.Retain([]string{"b.py", "c.py"})

	assert.Equal(t, 1, c.Len())
	_, ok := c.Get("a.py", []byte("a"))
	assert.False(t, ok)
	v, ok := c.Get("b.py", []byte("b"))
	assert.True(t, ok)
	assert.Equal(t, "b", v)
}

func TestConcurrentAccess(t *testing.T) {
	c := New[int]()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			content := []byte{byte(i)}
			c.Set("f.py", content, i)
			c.Get("f.py", content)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, c.Len())
}
