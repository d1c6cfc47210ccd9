package utilities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"  Go 1.22 Routing!  ", "go-1-22-routing"},
		{"already-a-slug", "already-a-slug"},
		{"UPPER_case and spaces", "upper-case-and-spaces"},
		{"---", ""},
		{"", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Slugify(c.in), "input %q", c.in)
	}
}
