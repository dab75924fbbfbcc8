package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		input []int
		max   int
		want  []int
	}{
		{name: "unbounded", input: []int{1, 2, 3}, max: 0, want: []int{1, 2, 3}},
		{name: "under limit", input: []int{1, 2}, max: 3, want: []int{1, 2}},
		{name: "at limit", input: []int{1, 2, 3}, max: 3, want: []int{1, 2, 3}},
		{name: "over limit keeps newest", input: []int{1, 2, 3, 4, 5}, max: 2, want: []int{4, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.input, tt.max))
		})
	}
}

func TestKind_FileName(t *testing.T) {
	assert.Equal(t, "visitors.json", KindVisitor.FileName())
	assert.Equal(t, "feedback.json", KindFeedback.FileName())
	assert.Equal(t, "notes.json", Kind("notes").FileName())
}
