package core

import (
	"context"
	"errors"
	"fmt"
	utils "skland/utils"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialStub(stub *stubDoer) Dialer {
	return func(proxy string) (HttpDoer, error) {
		return stub, nil
	}
}

func TestNewSignTask(t *testing.T) {
	_, err := NewSignTask("", nil, "")
	require.Error(t, err)

	task, err := NewSignTask("ACCOUNT", []string{"arknights"}, "")
	require.NoError(t, err)
	assert.Equal(t, TaskProcessing, task.Status)
	assert.Len(t, task.ID, 36)
}

func TestSignTaskRun(t *testing.T) {
	task, err := NewSignTask("ACCOUNT", []string{"arknights", "endfield"}, "")
	require.NoError(t, err)

	err = task.Run(context.Background(), dialStub(newStub(signRoutes(attendanceOK, attendanceRepeat))))
	require.NoError(t, err)
	task.Finish(err, 1500*time.Millisecond)

	view := task.Snapshot()
	assert.Equal(t, TaskCompleted, view.Status)
	assert.Equal(t, "BXYZ", view.DeviceID)
	assert.Len(t, view.Logs, 3)
	assert.InDelta(t, 1.5, view.ProcessTime, 0.001)
}

func TestSignTaskRunFailures(t *testing.T) {
	task, err := NewSignTask("ACCOUNT", nil, "")
	require.NoError(t, err)

	err = task.Run(context.Background(), dialStub(newStub(signRoutes(attendanceFail, attendanceOK))))
	require.ErrorIs(t, err, ErrAttendanceFailed)

	task.Finish(err, time.Second)
	assert.Equal(t, TaskError, task.Snapshot().Status)
	assert.Equal(t, "attendance failed", task.Snapshot().ErrorReason)

	task, err = NewSignTask("ACCOUNT", nil, "")
	require.NoError(t, err)
	err = task.Run(context.Background(), func(proxy string) (HttpDoer, error) {
		return nil, errors.New("bad proxy url")
	})
	require.ErrorContains(t, err, "bad proxy url")
}

func TestSignTaskRunCancelled(t *testing.T) {
	task, err := NewSignTask("ACCOUNT", nil, "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stub := newStub(signRoutes(attendanceOK, attendanceOK))
	err = task.Run(ctx, dialStub(stub))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, stub.requests)
}

func TestSignTaskRunStopsAfterCancel(t *testing.T) {
	task, err := NewSignTask("ACCOUNT", nil, "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	stub := newStub(signRoutes(attendanceOK, attendanceOK))

	// the device id request goes through, then the run is abandoned
	err = task.Run(ctx, func(proxy string) (HttpDoer, error) {
		return cancelAfter(stub, DevicesInfoURL, cancel), nil
	})
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, "BXYZ", task.Snapshot().DeviceID)
	assert.Empty(t, stub.requestsTo(utils.GrantCodeURL))
	assert.Empty(t, stub.requestsTo(arknightsURL))
}

func TestSignTaskFinishOnce(t *testing.T) {
	task, err := NewSignTask("ACCOUNT", nil, "")
	require.NoError(t, err)

	task.Finish(errors.New("timeout reached"), time.Minute)
	task.Finish(nil, time.Second)

	view := task.Snapshot()
	assert.Equal(t, TaskError, view.Status)
	assert.Equal(t, "timeout reached", view.ErrorReason)
}

func TestErrorReason(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "attendance", err: ErrAttendanceFailed, want: "attendance failed"},
		{name: "rejected", err: fmt.Errorf("failed to get device id: %w", &FingerprintRejectedError{Code: 1902}), want: "device fingerprint rejected (code 1902)"},
		{name: "network", err: &NetworkError{URL: "u", Err: errors.New("eof")}, want: "network error - check proxy"},
		{name: "protocol", err: &ProtocolError{Field: "code"}, want: `unexpected response: protocol error: missing or invalid "code"`},
		{name: "crypto", err: &CryptoError{Op: "aes", Err: errors.New("x")}, want: "internal error"},
		{name: "other", err: errors.New("boom"), want: "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorReason(tt.err))
		})
	}
}
