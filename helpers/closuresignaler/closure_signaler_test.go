package closuresignaler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClosureSignaler(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.False(t, s.IsClosed())

	require.True(t, s.Close(ctx))
	require.False(t, s.Close(ctx))
	require.True(t, s.IsClosed())

	select {
	case <-s.CloseChan():
	default:
		t.Fatal("the channel is expected to be closed")
	}
}
