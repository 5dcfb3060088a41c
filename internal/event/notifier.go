package event

import (
	"bank-backoffice/internal/infrastructure/monitoring"
	"context"
	"log/slog"
	"sync"
	"time"
)

type Kind string

const (
	KindLoanApproved   Kind = "loan.approved"
	KindLoanRejected   Kind = "loan.rejected"
	KindPaymentOverdue Kind = "payment.overdue"
)

// Notifier delivers best-effort notifications. Notify never blocks on
// delivery and never reports failure to the caller.
type Notifier interface {
	Notify(ctx context.Context, recipient string, kind Kind, payload any)
}

type Notification struct {
	Recipient  string    `json:"recipient"`
	Kind       Kind      `json:"kind"`
	Payload    any       `json:"payload"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher hands a notification to the delivery channel.
type Publisher interface {
	Publish(ctx context.Context, n Notification) error
}

type LoanDecisionPayload struct {
	LoanNumber     int64  `json:"loanNumber"`
	Amount         string `json:"amount"`
	Months         int    `json:"months"`
	PerInstallment string `json:"perInstallment"`
}

type PaymentOverduePayload struct {
	LoanNumber     int64  `json:"loanNumber"`
	PaymentNumbers []int  `json:"paymentNumbers"`
	AmountDue      string `json:"amountDue"`
	OldestDueDate  string `json:"oldestDueDate"`
}

// AsyncNotifier queues notifications for a fixed pool of workers. A full
// queue drops the notification and logs it.
type AsyncNotifier struct {
	publisher Publisher
	queue     chan Notification
	timeout   time.Duration
	logger    *slog.Logger

	wg        sync.WaitGroup
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

func NewAsyncNotifier(publisher Publisher, workers, queueSize int, timeout time.Duration, logger *slog.Logger) *AsyncNotifier {
	if publisher == nil {
		panic("notification publisher cannot be nil")
	}
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	n := &AsyncNotifier{
		publisher: publisher,
		queue:     make(chan Notification, queueSize),
		timeout:   timeout,
		logger:    logger.With(slog.String("component", "asyncNotifier")),
	}
	n.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go n.worker()
	}
	return n
}

func (n *AsyncNotifier) Notify(ctx context.Context, recipient string, kind Kind, payload any) {
	note := Notification{
		Recipient:  recipient,
		Kind:       kind,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}

	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		n.logger.WarnContext(ctx, "Notifier closed, dropping notification", "kind", kind, "recipient", recipient)
		monitoring.RecordNotification(string(kind), "dropped")
		return
	}

	select {
	case n.queue <- note:
	default:
		n.logger.WarnContext(ctx, "Notification queue full, dropping notification", "kind", kind, "recipient", recipient)
		monitoring.RecordNotification(string(kind), "dropped")
	}
}

func (n *AsyncNotifier) worker() {
	defer n.wg.Done()
	for note := range n.queue {
		n.deliver(note)
	}
}

func (n *AsyncNotifier) deliver(note Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("Notification publisher panicked", "kind", note.Kind, "panic", r)
			monitoring.RecordNotification(string(note.Kind), "error")
		}
	}()

	if err := n.publisher.Publish(ctx, note); err != nil {
		n.logger.ErrorContext(ctx, "Failed to deliver notification", "kind", note.Kind, "recipient", note.Recipient, "error", err)
		monitoring.RecordNotification(string(note.Kind), "error")
		return
	}
	monitoring.RecordNotification(string(note.Kind), "success")
}

// Close stops accepting notifications and waits for queued ones to be
// delivered or for ctx to expire.
func (n *AsyncNotifier) Close(ctx context.Context) error {
	n.closeOnce.Do(func() {
		n.mu.Lock()
		n.closed = true
		close(n.queue)
		n.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
