package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponseStatusTransitions(t *testing.T) {
	r := Response{Status: ResponsePending}
	assert.False(t, r.IsAccepted())
	assert.False(t, r.IsRejected())

	r.Reject()
	assert.True(t, r.IsRejected())
	assert.False(t, r.IsAccepted())

	// Accept wins over a prior reject.
	r.Accept()
	assert.True(t, r.IsAccepted())
	assert.False(t, r.IsRejected())
}
