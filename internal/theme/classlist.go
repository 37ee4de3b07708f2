package theme

import "strings"

// ClassList is an ordered set of class names, usable as a RootScope for a
// rendered <html> element.
type ClassList struct {
	names []string
}

func (c *ClassList) AddClass(name string) {
	if name == "" || c.Has(name) {
		return
	}
	c.names = append(c.names, name)
}

func (c *ClassList) RemoveClass(name string) {
	for i, n := range c.names {
		if n == name {
			c.names = append(c.names[:i], c.names[i+1:]...)
			return
		}
	}
}

func (c *ClassList) Has(name string) bool {
	for _, n := range c.names {
		if n == name {
			return true
		}
	}
	return false
}

// String returns the value of a class attribute.
func (c *ClassList) String() string {
	return strings.Join(c.names, " ")
}
