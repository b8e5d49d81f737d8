package transport_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"jurisearch/internal/search/query"
	"jurisearch/internal/search/transport"
	"jurisearch/internal/search/transport/mocks"
	"jurisearch/pkg/platform/circuit"
	"jurisearch/pkg/platform/sentinel"
)

func TestBreakerClient(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	q := query.MatchAll(1)
	ctx := context.Background()

	t.Run("opens per endpoint and short-circuits", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		next := mocks.NewMockClient(ctrl)
		c := transport.NewBreakerClient(next, logger, circuit.WithFailureThreshold(2), circuit.WithClock(clock))

		down := transport.NewError(transport.CategoryTimeout, "api_publica_stf", "timed out", nil)
		next.EXPECT().Search(gomock.Any(), "api_publica_stf", q).Return(nil, down).Times(2)
		next.EXPECT().Search(gomock.Any(), "api_publica_stj", q).Return(&transport.SearchResponse{}, nil)

		for range 2 {
			_, err := c.Search(ctx, "api_publica_stf", q)
			assert.Equal(t, transport.CategoryTimeout, transport.CategoryOf(err))
		}
		assert.Equal(t, circuit.StateOpen, c.State("api_publica_stf"))

		_, err := c.Search(ctx, "api_publica_stf", q)
		require.Error(t, err)
		assert.Equal(t, transport.CategoryUnavailable, transport.CategoryOf(err))
		assert.True(t, errors.Is(err, sentinel.ErrUnavailable))

		_, err = c.Search(ctx, "api_publica_stj", q)
		assert.NoError(t, err)
		assert.Equal(t, circuit.StateClosed, c.State("api_publica_stj"))
	})

	t.Run("probe after cooldown closes", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		next := mocks.NewMockClient(ctrl)
		c := transport.NewBreakerClient(next, logger,
			circuit.WithFailureThreshold(1), circuit.WithCooldown(time.Minute), circuit.WithClock(clock))

		gomock.InOrder(
			next.EXPECT().Search(gomock.Any(), "api_publica_trf1", q).
				Return(nil, transport.NewError(transport.CategoryUnavailable, "api_publica_trf1", "bad gateway", nil)),
			next.EXPECT().Search(gomock.Any(), "api_publica_trf1", q).Return(&transport.SearchResponse{}, nil),
		)

		_, _ = c.Search(ctx, "api_publica_trf1", q)
		assert.Equal(t, circuit.StateOpen, c.State("api_publica_trf1"))

		now = now.Add(time.Minute)
		_, err := c.Search(ctx, "api_publica_trf1", q)
		assert.NoError(t, err)
		assert.Equal(t, circuit.StateClosed, c.State("api_publica_trf1"))
	})

	t.Run("credential errors do not trip", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		next := mocks.NewMockClient(ctrl)
		c := transport.NewBreakerClient(next, logger, circuit.WithFailureThreshold(1), circuit.WithClock(clock))

		next.EXPECT().Search(gomock.Any(), "api_publica_tse", q).
			Return(nil, transport.NewError(transport.CategoryAuth, "api_publica_tse", "unauthorized", nil)).Times(3)
		for range 3 {
			_, err := c.Search(ctx, "api_publica_tse", q)
			assert.Equal(t, transport.CategoryAuth, transport.CategoryOf(err))
		}
		assert.Equal(t, circuit.StateClosed, c.State("api_publica_tse"))
	})
}
