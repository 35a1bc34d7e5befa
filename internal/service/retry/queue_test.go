package retry

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/fahaniecares/notification-delivery/internal/domain"
	"github.com/fahaniecares/notification-delivery/internal/errs"
	retrypkg "github.com/fahaniecares/notification-delivery/internal/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueueRepo struct {
	mu           sync.Mutex
	nextID       int64
	items        map[int64]*domain.RetryQueueItem
	succeededErr error
}

func newFakeQueueRepo() *fakeQueueRepo {
	return &fakeQueueRepo{items: make(map[int64]*domain.RetryQueueItem)}
}

func (f *fakeQueueRepo) Create(_ context.Context, item domain.RetryQueueItem) (domain.RetryQueueItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	item.ID = f.nextID
	if item.MaxRetries <= 0 {
		item.MaxRetries = domain.DefaultMaxRetries
	}
	item.CreatedAt = time.Now()
	cp := item
	f.items[item.ID] = &cp
	return item, nil
}

func (f *fakeQueueRepo) GetByID(_ context.Context, id int64) (domain.RetryQueueItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[id]
	if !ok {
		return domain.RetryQueueItem{}, errs.ErrQueueItemNotFound
	}
	return *it, nil
}

func (f *fakeQueueRepo) FindDue(_ context.Context, channel *domain.Channel, limit int) ([]domain.RetryQueueItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	var due []domain.RetryQueueItem
	for _, it := range f.items {
		if it.Processed || it.ScheduledAt.After(now) {
			continue
		}
		if channel != nil && it.Channel != *channel {
			continue
		}
		due = append(due, *it)
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].Priority != due[j].Priority {
			return due[i].Priority > due[j].Priority
		}
		return due[i].ScheduledAt.Before(due[j].ScheduledAt)
	})
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (f *fakeQueueRepo) MarkSucceeded(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.succeededErr != nil {
		return f.succeededErr
	}
	it, ok := f.items[id]
	if !ok {
		return errs.ErrQueueItemNotFound
	}
	if it.Processed {
		return errs.ErrQueueItemProcessed
	}
	it.Processed = true
	it.ProcessedAt = time.Now()
	return nil
}

func (f *fakeQueueRepo) MarkFailedTerminal(_ context.Context, id int64, retryCount int, lastError string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[id]
	if !ok {
		return errs.ErrQueueItemNotFound
	}
	if it.Processed {
		return errs.ErrQueueItemProcessed
	}
	it.Processed = true
	it.ProcessedAt = time.Now()
	it.RetryCount = retryCount
	it.LastError = lastError
	return nil
}

func (f *fakeQueueRepo) MarkFailedRescheduled(_ context.Context, id int64, retryCount int, lastError string, scheduledAt int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[id]
	if !ok {
		return errs.ErrQueueItemNotFound
	}
	if it.Processed {
		return errs.ErrQueueItemProcessed
	}
	it.RetryCount = retryCount
	it.LastError = lastError
	it.ScheduledAt = time.UnixMilli(scheduledAt)
	return nil
}

// rewind makes an item due again without waiting out the backoff.
func (f *fakeQueueRepo) rewind(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[id].ScheduledAt = time.Now().Add(-time.Second)
}

type fakeNotificationStore struct {
	mu     sync.Mutex
	nextID uint64
	notifs map[uint64]domain.Notification
}

func newFakeNotificationStore() *fakeNotificationStore {
	return &fakeNotificationStore{notifs: make(map[uint64]domain.Notification)}
}

func (f *fakeNotificationStore) seed(n domain.Notification) domain.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n.ID == 0 {
		f.nextID++
		n.ID = f.nextID
	}
	f.notifs[n.ID] = n
	return n
}

func (f *fakeNotificationStore) get(id uint64) domain.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.notifs[id]
}

func (f *fakeNotificationStore) Create(_ context.Context, n domain.Notification) (domain.Notification, error) {
	return f.seed(n), nil
}

func (f *fakeNotificationStore) GetByID(_ context.Context, id uint64) (domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.notifs[id]
	if !ok {
		return domain.Notification{}, errs.ErrNotificationNotFound
	}
	return n, nil
}

func (f *fakeNotificationStore) GetByIDAndUser(_ context.Context, id uint64, userID int64) (domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.notifs[id]
	if !ok || n.UserID != userID {
		return domain.Notification{}, errs.ErrNotificationNotFound
	}
	return n, nil
}

func (f *fakeNotificationStore) MarkRead(_ context.Context, id uint64, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.notifs[id]
	if !ok || n.UserID != userID {
		return errs.ErrNotificationNotFound
	}
	n.Read = true
	f.notifs[id] = n
	return nil
}

func (f *fakeNotificationStore) List(_ context.Context, _ int64, _ domain.NotificationQuery) ([]domain.Notification, error) {
	return nil, nil
}

func (f *fakeNotificationStore) UnreadCount(_ context.Context, _ int64) (int64, error) {
	return 0, nil
}

func (f *fakeNotificationStore) Delete(_ context.Context, id uint64, _ int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.notifs, id)
	return nil
}

func (f *fakeNotificationStore) UpdateDeliveryState(_ context.Context, n domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.notifs[n.ID]
	if !ok {
		return errs.ErrNotificationNotFound
	}
	stored.ChannelsAttempted = n.ChannelsAttempted
	stored.ChannelsDelivered = n.ChannelsDelivered
	f.notifs[n.ID] = stored
	return nil
}

type fakeLogRepo struct {
	mu      sync.Mutex
	entries []domain.DeliveryLogEntry
}

func (f *fakeLogRepo) Append(_ context.Context, entry domain.DeliveryLogEntry) (domain.DeliveryLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry.ID = int64(len(f.entries) + 1)
	entry.CreatedAt = time.Now()
	f.entries = append(f.entries, entry)
	return entry, nil
}

func (f *fakeLogRepo) ListByNotification(_ context.Context, notificationID uint64) ([]domain.DeliveryLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.DeliveryLogEntry
	for _, e := range f.entries {
		if e.NotificationID == notificationID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeLogRepo) byStatus(status domain.DeliveryStatus) []domain.DeliveryLogEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.DeliveryLogEntry
	for _, e := range f.entries {
		if e.Status == status {
			out = append(out, e)
		}
	}
	return out
}

// scriptedSender fails the first N sends, then succeeds.
type scriptedSender struct {
	mu    sync.Mutex
	fails int
	err   error
	calls int
}

func (s *scriptedSender) Send(_ context.Context, _ domain.Channel, _ domain.Notification) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.fails > 0 {
		s.fails--
		return false, s.err
	}
	return true, nil
}

func testBackoff() retrypkg.Config {
	return retrypkg.Config{
		Type:          "fixed",
		FixedInterval: &retrypkg.FixedIntervalConfig{Interval: 1000},
	}
}

func seededNotification(store *fakeNotificationStore) domain.Notification {
	return store.seed(domain.Notification{
		UserID:    3,
		Recipient: domain.Recipient{ID: 3, Email: "maria@example.com"},
		Type:      domain.TypeComment,
		Title:     "New comment",
		Message:   "Someone replied to your referral.",
		Priority:  domain.PriorityNormal,
	})
}

func TestQueueService_Enqueue(t *testing.T) {
	t.Parallel()

	queueRepo := newFakeQueueRepo()
	notifRepo := newFakeNotificationStore()
	logRepo := &fakeLogRepo{}
	svc := NewQueueService(queueRepo, notifRepo, logRepo, &scriptedSender{}, testBackoff(), 0, 0)

	n := seededNotification(notifRepo)
	item, err := svc.Enqueue(context.Background(), n, domain.ChannelEmail, time.Time{}, domain.PriorityNormal.QueueWeight())
	require.NoError(t, err)

	assert.Equal(t, n.ID, item.NotificationID)
	assert.Equal(t, domain.ChannelEmail, item.Channel)
	assert.Equal(t, domain.DefaultMaxRetries, item.MaxRetries)
	assert.False(t, item.Processed)
	assert.False(t, item.ScheduledAt.IsZero())

	pending := logRepo.byStatus(domain.DeliveryStatusPending)
	require.Len(t, pending, 1)
	assert.Equal(t, n.ID, pending[0].NotificationID)
	assert.Equal(t, domain.ChannelEmail, pending[0].Channel)
}

func TestQueueService_Enqueue_UnknownChannel(t *testing.T) {
	t.Parallel()

	svc := NewQueueService(newFakeQueueRepo(), newFakeNotificationStore(), &fakeLogRepo{}, &scriptedSender{}, testBackoff(), 0, 0)

	_, err := svc.Enqueue(context.Background(), domain.Notification{ID: 1}, "FAX", time.Time{}, 0)
	assert.ErrorIs(t, err, errs.ErrUnknownChannel)
}

func TestQueueService_ProcessQueue_DeliversDueItem(t *testing.T) {
	t.Parallel()

	queueRepo := newFakeQueueRepo()
	notifRepo := newFakeNotificationStore()
	logRepo := &fakeLogRepo{}
	sender := &scriptedSender{}
	svc := NewQueueService(queueRepo, notifRepo, logRepo, sender, testBackoff(), 10, 2)

	n := seededNotification(notifRepo)
	item, err := svc.Enqueue(context.Background(), n, domain.ChannelEmail, time.Now().Add(-time.Second), 10)
	require.NoError(t, err)

	stats, err := svc.ProcessQueue(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, ProcessStats{Selected: 1, Succeeded: 1}, stats)

	got, err := queueRepo.GetByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.True(t, got.Processed)
	assert.False(t, got.ProcessedAt.IsZero())
	assert.Zero(t, got.RetryCount)

	stored := notifRepo.get(n.ID)
	assert.True(t, stored.DeliveredOn(domain.ChannelEmail))

	delivered := logRepo.byStatus(domain.DeliveryStatusDelivered)
	require.Len(t, delivered, 1)
	assert.Equal(t, n.ID, delivered[0].NotificationID)
}

func TestQueueService_ProcessQueue_FailureReschedules(t *testing.T) {
	t.Parallel()

	queueRepo := newFakeQueueRepo()
	notifRepo := newFakeNotificationStore()
	logRepo := &fakeLogRepo{}
	sender := &scriptedSender{fails: 1, err: errors.New("smtp: connection refused")}
	svc := NewQueueService(queueRepo, notifRepo, logRepo, sender, testBackoff(), 10, 2)

	n := seededNotification(notifRepo)
	item, err := svc.Enqueue(context.Background(), n, domain.ChannelEmail, time.Now().Add(-time.Second), 10)
	require.NoError(t, err)

	before := time.Now()
	stats, err := svc.ProcessQueue(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, ProcessStats{Selected: 1, Rescheduled: 1}, stats)

	got, err := queueRepo.GetByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.False(t, got.Processed)
	assert.Equal(t, 1, got.RetryCount)
	assert.Contains(t, got.LastError, "connection refused")
	assert.True(t, got.ScheduledAt.After(before))

	// The attempt is on the record even though delivery failed.
	stored := notifRepo.get(n.ID)
	assert.True(t, stored.AttemptedOn(domain.ChannelEmail))
	assert.False(t, stored.DeliveredOn(domain.ChannelEmail))

	failed := logRepo.byStatus(domain.DeliveryStatusFailed)
	require.Len(t, failed, 1)
	assert.Contains(t, failed[0].Error, "connection refused")
}

func TestQueueService_ProcessQueue_ExhaustsRetryBudget(t *testing.T) {
	t.Parallel()

	queueRepo := newFakeQueueRepo()
	notifRepo := newFakeNotificationStore()
	logRepo := &fakeLogRepo{}
	sender := &scriptedSender{fails: 100, err: errors.New("smtp: connection refused")}
	svc := NewQueueService(queueRepo, notifRepo, logRepo, sender, testBackoff(), 10, 2)

	n := seededNotification(notifRepo)
	item, err := svc.Enqueue(context.Background(), n, domain.ChannelEmail, time.Now().Add(-time.Second), 10)
	require.NoError(t, err)

	var last ProcessStats
	for attempt := 0; attempt < domain.DefaultMaxRetries; attempt++ {
		queueRepo.rewind(item.ID)
		last, err = svc.ProcessQueue(context.Background(), nil)
		require.NoError(t, err)
		require.Equal(t, 1, last.Selected)
	}
	assert.Equal(t, 1, last.Exhausted)

	got, err := queueRepo.GetByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.True(t, got.Processed)
	assert.Equal(t, domain.DefaultMaxRetries, got.RetryCount)
	assert.NotEmpty(t, got.LastError)

	assert.Len(t, logRepo.byStatus(domain.DeliveryStatusFailed), domain.DefaultMaxRetries)

	// A settled item never drains again.
	stats, err := svc.ProcessQueue(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, stats.Selected)
	assert.Equal(t, domain.DefaultMaxRetries, sender.calls)
}

func TestQueueService_ProcessQueue_DeletedNotification(t *testing.T) {
	t.Parallel()

	queueRepo := newFakeQueueRepo()
	logRepo := &fakeLogRepo{}
	sender := &scriptedSender{}
	svc := NewQueueService(queueRepo, newFakeNotificationStore(), logRepo, sender, testBackoff(), 10, 2)

	// Enqueued, then the notification row went away.
	item, err := svc.Enqueue(context.Background(), domain.Notification{ID: 404}, domain.ChannelPush, time.Now().Add(-time.Second), 0)
	require.NoError(t, err)

	stats, err := svc.ProcessQueue(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, ProcessStats{Selected: 1, Exhausted: 1}, stats)

	got, err := queueRepo.GetByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.True(t, got.Processed)
	assert.Equal(t, "notification deleted", got.LastError)
	assert.Zero(t, sender.calls)
}

func TestQueueService_ProcessQueue_SkipsSettledItem(t *testing.T) {
	t.Parallel()

	queueRepo := newFakeQueueRepo()
	queueRepo.succeededErr = errs.ErrQueueItemProcessed
	notifRepo := newFakeNotificationStore()
	logRepo := &fakeLogRepo{}
	svc := NewQueueService(queueRepo, notifRepo, logRepo, &scriptedSender{}, testBackoff(), 10, 2)

	n := seededNotification(notifRepo)
	_, err := svc.Enqueue(context.Background(), n, domain.ChannelEmail, time.Now().Add(-time.Second), 10)
	require.NoError(t, err)

	stats, err := svc.ProcessQueue(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, ProcessStats{Selected: 1, Skipped: 1}, stats)
	assert.Empty(t, logRepo.byStatus(domain.DeliveryStatusDelivered))
}

func TestQueueService_ProcessQueue_Empty(t *testing.T) {
	t.Parallel()

	svc := NewQueueService(newFakeQueueRepo(), newFakeNotificationStore(), &fakeLogRepo{}, &scriptedSender{}, testBackoff(), 10, 2)

	stats, err := svc.ProcessQueue(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, stats.Selected)
}

func TestQueueService_ProcessQueue_ChannelFilter(t *testing.T) {
	t.Parallel()

	queueRepo := newFakeQueueRepo()
	notifRepo := newFakeNotificationStore()
	logRepo := &fakeLogRepo{}
	sender := &scriptedSender{}
	svc := NewQueueService(queueRepo, notifRepo, logRepo, sender, testBackoff(), 10, 2)

	n := seededNotification(notifRepo)
	_, err := svc.Enqueue(context.Background(), n, domain.ChannelEmail, time.Now().Add(-time.Second), 10)
	require.NoError(t, err)
	_, err = svc.Enqueue(context.Background(), n, domain.ChannelSMS, time.Now().Add(-time.Second), 10)
	require.NoError(t, err)

	email := domain.ChannelEmail
	stats, err := svc.ProcessQueue(context.Background(), &email)
	require.NoError(t, err)
	assert.Equal(t, ProcessStats{Selected: 1, Succeeded: 1}, stats)
	assert.Equal(t, 1, sender.calls)
}

type stubQueueService struct {
	stats ProcessStats
	err   error
	calls int
}

func (s *stubQueueService) Enqueue(_ context.Context, _ domain.Notification, _ domain.Channel, _ time.Time, _ int) (domain.RetryQueueItem, error) {
	return domain.RetryQueueItem{}, nil
}

func (s *stubQueueService) ProcessQueue(_ context.Context, _ *domain.Channel) (ProcessStats, error) {
	s.calls++
	return s.stats, s.err
}

func TestDrainTask_DrainOnce(t *testing.T) {
	t.Parallel()

	svc := &stubQueueService{stats: ProcessStats{Selected: 2, Succeeded: 2}}
	task := NewDrainTask(nil, svc, 50, time.Millisecond)

	require.NoError(t, task.drainOnce(context.Background()))
	assert.Equal(t, 1, svc.calls)
}

func TestDrainTask_DrainOnce_PropagatesError(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("selecting due retry items: db gone")
	svc := &stubQueueService{err: wantErr}
	task := NewDrainTask(nil, svc, 50, time.Millisecond)

	err := task.drainOnce(context.Background())
	assert.ErrorIs(t, err, wantErr)
}
