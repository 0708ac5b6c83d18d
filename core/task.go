package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	TaskProcessing = "processing"
	TaskCompleted  = "completed"
	TaskError      = "error"
)

var ErrAttendanceFailed = errors.New("one or more attendances failed")

// Dialer opens the transport of one account, optionally through a proxy.
type Dialer func(proxy string) (HttpDoer, error)

// SignTask is one account's check-in run, tracked by the task API.
type SignTask struct {
	mu sync.Mutex

	// Manage
	ID     string
	Status string

	// Account
	Token string
	Games []string
	Proxy string

	// Result
	DeviceID    string
	Logs        []string
	ProcessTime float64
	ErrorReason string
}

func NewSignTask(token string, games []string, proxy string) (*SignTask, error) {
	if token == "" {
		return nil, errors.New("token is required")
	}

	return &SignTask{
		ID:     uuid.New().String(),
		Status: TaskProcessing,
		Token:  token,
		Games:  games,
		Proxy:  proxy,
	}, nil
}

// Run fetches a device id, then signs in to every enabled game. It returns
// ErrAttendanceFailed when any binding failed; the reasons are in Logs.
// Once ctx is done every remaining request fails without touching the network.
func (t *SignTask) Run(ctx context.Context, dial Dialer) error {
	client, err := dial(t.Proxy)
	if err != nil {
		return fmt.Errorf("failed to create http client: %w", err)
	}

	session, err := NewSkylandClient(withContext(ctx, client))
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.DeviceID = session.DeviceID
	t.mu.Unlock()

	ok, logs := session.RunSign(t.Token, t.Games)
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	t.Logs = logs
	t.mu.Unlock()

	for _, line := range logs {
		log.WithField("task", t.ID).Info(line)
	}

	if !ok {
		return ErrAttendanceFailed
	}
	return nil
}

// Finish records the outcome once. Later calls are ignored, so a run that
// completes after its timeout does not overwrite the timeout error.
func (t *SignTask) Finish(err error, duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Status != TaskProcessing {
		return
	}

	t.ProcessTime = duration.Seconds()
	if err == nil {
		t.Status = TaskCompleted
		return
	}

	t.Status = TaskError
	t.ErrorReason = ErrorReason(err)
}

// TaskView is a point-in-time copy of a task, safe to read without the lock.
type TaskView struct {
	ID          string
	Status      string
	Games       []string
	DeviceID    string
	Logs        []string
	ProcessTime float64
	ErrorReason string
}

func (t *SignTask) Snapshot() TaskView {
	t.mu.Lock()
	defer t.mu.Unlock()

	return TaskView{
		ID:          t.ID,
		Status:      t.Status,
		Games:       append([]string(nil), t.Games...),
		DeviceID:    t.DeviceID,
		Logs:        append([]string(nil), t.Logs...),
		ProcessTime: t.ProcessTime,
		ErrorReason: t.ErrorReason,
	}
}

// ErrorReason maps an error onto the short reason shown to API clients.
func ErrorReason(err error) string {
	var (
		rejected *FingerprintRejectedError
		network  *NetworkError
		protocol *ProtocolError
		crypto   *CryptoError
	)

	switch {
	case errors.Is(err, ErrAttendanceFailed):
		return "attendance failed"
	case errors.As(err, &rejected):
		return fmt.Sprintf("device fingerprint rejected (code %d)", rejected.Code)
	case errors.As(err, &network):
		return "network error - check proxy"
	case errors.As(err, &protocol):
		return "unexpected response: " + protocol.Error()
	case errors.As(err, &crypto):
		return "internal error"
	default:
		return err.Error()
	}
}
