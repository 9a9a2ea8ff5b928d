package queries

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nightsQuery struct{ Nights int }

func (nightsQuery) Key() string { return "test.nights" }

type unknownQuery struct{}

func (unknownQuery) Key() string { return "test.unknown" }

type nightsHandler struct{ rate int64 }

func (h nightsHandler) Handle(_ context.Context, q nightsQuery) (int64, error) {
	return h.rate * int64(q.Nights), nil
}

func TestRegisterAndAsk(t *testing.T) {
	bus := NewInMemoryBus()
	Register[nightsQuery, int64](bus, nightsHandler{rate: 10000})

	got, err := Ask[nightsQuery, int64](context.Background(), bus, nightsQuery{Nights: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(30000), got)

	_, err = Ask[nightsQuery, string](context.Background(), bus, nightsQuery{})
	assert.ErrorIs(t, err, ErrResultType)

	_, err = bus.Ask(context.Background(), unknownQuery{})
	assert.ErrorIs(t, err, ErrHandlerNotFound)

	_, err = Ask[nightsQuery, int64](context.Background(), nil, nightsQuery{})
	assert.ErrorIs(t, err, ErrNilBus)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	bus := NewInMemoryBus()
	Register[nightsQuery, int64](bus, nightsHandler{})
	assert.Panics(t, func() { Register[nightsQuery, int64](bus, nightsHandler{}) })
}
