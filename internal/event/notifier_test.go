package event

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type recordingPublisher struct {
	mu        sync.Mutex
	delivered []Notification
	release   chan struct{}
	err       error
}

func (p *recordingPublisher) Publish(ctx context.Context, n Notification) error {
	if p.release != nil {
		<-p.release
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delivered = append(p.delivered, n)
	return p.err
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.delivered)
}

func TestAsyncNotifierDeliversAfterClose(t *testing.T) {
	pub := &recordingPublisher{}
	n := NewAsyncNotifier(pub, 2, 8, time.Second, testLogger)

	n.Notify(context.Background(), "jane@example.com", KindLoanApproved, LoanDecisionPayload{LoanNumber: 1})
	n.Notify(context.Background(), "jane@example.com", KindLoanRejected, LoanDecisionPayload{LoanNumber: 2})

	require.NoError(t, n.Close(context.Background()))
	assert.Equal(t, 2, pub.count())
	assert.Equal(t, "jane@example.com", pub.delivered[0].Recipient)
	assert.False(t, pub.delivered[0].OccurredAt.IsZero())
}

func TestAsyncNotifierDropsWhenQueueFull(t *testing.T) {
	pub := &recordingPublisher{release: make(chan struct{})}
	n := NewAsyncNotifier(pub, 1, 1, time.Second, testLogger)

	// The worker picks up the first and blocks; the second fills the queue.
	n.Notify(context.Background(), "a", KindPaymentOverdue, nil)
	assert.Eventually(t, func() bool { return len(n.queue) == 0 }, time.Second, time.Millisecond)
	n.Notify(context.Background(), "b", KindPaymentOverdue, nil)
	n.Notify(context.Background(), "c", KindPaymentOverdue, nil)

	close(pub.release)
	require.NoError(t, n.Close(context.Background()))
	assert.Equal(t, 2, pub.count())
}

func TestAsyncNotifierSurvivesPublisherFailure(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	n := NewAsyncNotifier(pub, 1, 4, time.Second, testLogger)

	n.Notify(context.Background(), "a", KindLoanApproved, nil)
	n.Notify(context.Background(), "b", KindLoanApproved, nil)

	require.NoError(t, n.Close(context.Background()))
	assert.Equal(t, 2, pub.count())
}

func TestAsyncNotifierIgnoresNotifyAfterClose(t *testing.T) {
	pub := &recordingPublisher{}
	n := NewAsyncNotifier(pub, 1, 4, time.Second, testLogger)
	require.NoError(t, n.Close(context.Background()))

	assert.NotPanics(t, func() {
		n.Notify(context.Background(), "late", KindLoanApproved, nil)
	})
	require.NoError(t, n.Close(context.Background()))
	assert.Zero(t, pub.count())
}

func TestAsyncNotifierCloseHonoursDeadline(t *testing.T) {
	pub := &recordingPublisher{release: make(chan struct{})}
	defer close(pub.release)
	n := NewAsyncNotifier(pub, 1, 4, time.Second, testLogger)
	n.Notify(context.Background(), "stuck", KindLoanApproved, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, n.Close(ctx), context.DeadlineExceeded)
}

func TestNewAsyncNotifierRequiresPublisher(t *testing.T) {
	assert.Panics(t, func() { NewAsyncNotifier(nil, 1, 1, time.Second, testLogger) })
}

func TestLogPublisher(t *testing.T) {
	assert.NoError(t, NewLogPublisher(testLogger).Publish(context.Background(), Notification{Kind: KindLoanApproved}))
}
