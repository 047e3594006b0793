package retry

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"

	"github.com/lk2023060901/xmlserial-go/pkg/util/merr"
)

func TestDo(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return merr.WrapErrIoFailed("file", io.ErrUnexpectedEOF)
		}
		return nil
	}, Attempts(5), Sleep(time.Millisecond))
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoReachMax(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return merr.WrapErrIoFailed("file", io.ErrUnexpectedEOF)
	}, Attempts(3), Sleep(time.Millisecond))
	assert.ErrorIs(t, err, merr.ErrIoFailed)
	assert.Equal(t, 3, calls)
}

func TestDoUnrecoverable(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return Unrecoverable(errors.New("boom"))
	}, Attempts(5), Sleep(time.Millisecond))
	assert.Error(t, err)
	assert.False(t, IsRecoverable(err))
	assert.Equal(t, 1, calls)
}

func TestDoRetryErr(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return merr.WrapErrMalformedDocument("bad")
	}, Attempts(5), Sleep(time.Millisecond), RetryErr(merr.IsRetryableErr))
	assert.ErrorIs(t, err, merr.ErrMalformedDocument)
	assert.Equal(t, 1, calls)
}

func TestDoCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Do(ctx, func() error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
