package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPorts_Validate(t *testing.T) {
	t.Run("valid ports", func(t *testing.T) {
		ports := newTestPorts()

		assert.NoError(t, ports.Validate())
	})

	t.Run("missing retrieval service", func(t *testing.T) {
		ports := newTestPorts()
		ports.Retrieval = nil

		assert.ErrorIs(t, ports.Validate(), ErrMissingRetrievalService)
	})

	t.Run("missing discussion service", func(t *testing.T) {
		ports := newTestPorts()
		ports.Discussion = nil

		assert.ErrorIs(t, ports.Validate(), ErrMissingDiscussionService)
	})
}
