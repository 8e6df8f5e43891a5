package sessions

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codehornets/julep/internal/store"
	"github.com/codehornets/julep/pkg/types"
)

// validation failures must surface before any statement executes, so a nil
// executor is safe here

func TestCreateRejectsAgentAndAgents(t *testing.T) {
	q := New(nil)
	agentID := uuid.New()

	_, err := q.Create(context.Background(), uuid.New(), nil, types.CreateSessionRequest{
		Agent:  &agentID,
		Agents: []uuid.UUID{uuid.New()},
	})

	var de *store.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, http.StatusBadRequest, de.Status)
	assert.Contains(t, de.Message, "only one of")
}

func TestCreateRequiresAnAgent(t *testing.T) {
	q := New(nil)

	_, err := q.Create(context.Background(), uuid.New(), nil, types.CreateSessionRequest{})

	var de *store.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, http.StatusBadRequest, de.Status)
}
