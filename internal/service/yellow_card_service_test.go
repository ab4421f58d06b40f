package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/yellowcard-api/internal/models"
	"github.com/noah-isme/yellowcard-api/internal/repository"
	appErrors "github.com/noah-isme/yellowcard-api/pkg/errors"
)

type mockCounterRepo struct {
	mu         sync.Mutex
	students   map[int64]models.Student
	logs       []models.StudentLog
	staleTimes int
	applyErr   error
	applyCalls int
}

func (m *mockCounterRepo) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (m *mockCounterRepo) ApplyTransition(ctx context.Context, student *models.Student, log *models.StudentLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applyCalls++
	if m.applyErr != nil {
		return m.applyErr
	}
	if m.staleTimes > 0 {
		m.staleTimes--
		return repository.ErrStaleVersion
	}
	current := m.students[student.ID]
	if current.Version != student.Version {
		return repository.ErrStaleVersion
	}
	student.Version++
	m.students[student.ID] = *student
	log.StudentID = student.ID
	m.logs = append(m.logs, *log)
	return nil
}

type mockNotifier struct {
	mu      sync.Mutex
	calls   []string
	result  models.NotificationResult
	release chan struct{}
}

func (m *mockNotifier) Send(ctx context.Context, studentName string, grade int) models.NotificationResult {
	m.mu.Lock()
	m.calls = append(m.calls, studentName)
	m.mu.Unlock()
	if m.release != nil {
		<-m.release
	}
	return m.result
}

func newTestYellowCardService(repo *mockCounterRepo, notifier demeritNotifier, timeout time.Duration) *YellowCardService {
	return NewYellowCardService(repo, notifier, nil, nil, timeout, nil, zap.NewNop())
}

func counterRepoWith(st models.Student) *mockCounterRepo {
	return &mockCounterRepo{students: map[int64]models.Student{st.ID: st}}
}

func TestYellowCardAddPersistsLog(t *testing.T) {
	repo := counterRepoWith(models.Student{ID: 1, FullName: "Ana", Grade: 7})
	notifier := &mockNotifier{}
	svc := newTestYellowCardService(repo, notifier, time.Second)

	res, err := svc.Update(context.Background(), 1, UpdateYellowCardRequest{Action: "add", Reason: "Uniform"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.YellowCards)
	assert.Nil(t, res.EmailResult)
	assert.Empty(t, notifier.calls)
	require.Len(t, repo.logs, 1)
	assert.Equal(t, "+1 YC (Uniform) [Current: 1 YC, 0 D]", repo.logs[0].Description)
	assert.Equal(t, models.LogEventAdded, repo.logs[0].Event)
}

func TestYellowCardEmptyActionMeansAdd(t *testing.T) {
	repo := counterRepoWith(models.Student{ID: 1, FullName: "Ana", Grade: 7})
	svc := newTestYellowCardService(repo, &mockNotifier{}, time.Second)

	res, err := svc.Update(context.Background(), 1, UpdateYellowCardRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.YellowCards)
	assert.Equal(t, "+1 YC (Unknown) [Current: 1 YC, 0 D]", repo.logs[0].Description)
}

func TestYellowCardThirdCardNotifiesAfterCommit(t *testing.T) {
	repo := counterRepoWith(models.Student{ID: 1, FullName: "Ana", Grade: 7, YellowCards: 2})
	notifier := &mockNotifier{result: models.NotificationResult{Success: true, Message: "Email sent successfully"}}
	svc := newTestYellowCardService(repo, notifier, time.Second)

	res, err := svc.Update(context.Background(), 1, UpdateYellowCardRequest{Action: "add", Reason: "Gadget"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.YellowCards)
	assert.Equal(t, 1, res.Demerits)
	require.NotNil(t, res.EmailResult)
	assert.True(t, res.EmailResult.Success)
	assert.Equal(t, []string{"Ana"}, notifier.calls)
	assert.Equal(t, 1, repo.students[1].Demerits)
}

func TestYellowCardNotificationFailureKeepsUpdate(t *testing.T) {
	repo := counterRepoWith(models.Student{ID: 1, FullName: "Ana", Grade: 7, YellowCards: 2, Demerits: 2})
	notifier := &mockNotifier{result: models.NotificationResult{Message: "No email recipients configured for Grade 7"}}
	svc := newTestYellowCardService(repo, notifier, time.Second)

	res, err := svc.Update(context.Background(), 1, UpdateYellowCardRequest{Action: "add", Reason: "Behavior"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.YellowCards)
	assert.Equal(t, 0, res.Demerits)
	require.NotNil(t, res.EmailResult)
	assert.False(t, res.EmailResult.Success)
	assert.Equal(t, models.LogEventAutoReset, repo.logs[0].Event)
	assert.Equal(t, "+1 YC (Behavior) -> Converted to Demerit -> Reset (3 Demerits) [Current: 0 YC, 0 D]", repo.logs[0].Description)
}

func TestYellowCardNotificationTimeout(t *testing.T) {
	repo := counterRepoWith(models.Student{ID: 1, FullName: "Ana", Grade: 7, YellowCards: 2})
	notifier := &mockNotifier{release: make(chan struct{})}
	defer close(notifier.release)
	svc := newTestYellowCardService(repo, notifier, 20*time.Millisecond)

	res, err := svc.Update(context.Background(), 1, UpdateYellowCardRequest{Action: "add", Reason: "EOZ"})
	require.NoError(t, err)
	require.NotNil(t, res.EmailResult)
	assert.False(t, res.EmailResult.Success)
	assert.Contains(t, res.EmailResult.Message, "timed out")
	assert.Equal(t, 1, repo.students[1].Demerits)
}

func TestYellowCardRemoveAtZeroWritesNothing(t *testing.T) {
	repo := counterRepoWith(models.Student{ID: 1, FullName: "Ana", Grade: 7, Demerits: 1, Version: 4})
	svc := newTestYellowCardService(repo, &mockNotifier{}, time.Second)

	res, err := svc.Update(context.Background(), 1, UpdateYellowCardRequest{Action: "remove"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.Version)
	assert.Zero(t, repo.applyCalls)
	assert.Empty(t, repo.logs)
}

func TestYellowCardUnknownAction(t *testing.T) {
	repo := counterRepoWith(models.Student{ID: 1, FullName: "Ana", Grade: 7})
	svc := newTestYellowCardService(repo, &mockNotifier{}, time.Second)

	_, err := svc.Update(context.Background(), 1, UpdateYellowCardRequest{Action: "double"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Zero(t, repo.applyCalls)
}

func TestYellowCardUnknownStudent(t *testing.T) {
	svc := newTestYellowCardService(&mockCounterRepo{students: map[int64]models.Student{}}, &mockNotifier{}, time.Second)

	_, err := svc.Update(context.Background(), 9, UpdateYellowCardRequest{Action: "add"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = svc.Reset(context.Background(), 9)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestYellowCardRetriesStaleVersion(t *testing.T) {
	repo := counterRepoWith(models.Student{ID: 1, FullName: "Ana", Grade: 7})
	repo.staleTimes = 2
	svc := newTestYellowCardService(repo, &mockNotifier{}, time.Second)

	res, err := svc.Update(context.Background(), 1, UpdateYellowCardRequest{Action: "add", Reason: "Uniform"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.YellowCards)
	assert.Equal(t, 3, repo.applyCalls)
	assert.Len(t, repo.logs, 1)
}

func TestYellowCardConflictAfterRetries(t *testing.T) {
	repo := counterRepoWith(models.Student{ID: 1, FullName: "Ana", Grade: 7})
	repo.staleTimes = 10
	svc := newTestYellowCardService(repo, &mockNotifier{}, time.Second)

	_, err := svc.Update(context.Background(), 1, UpdateYellowCardRequest{Action: "add"})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
	assert.Equal(t, 3, repo.applyCalls)
	assert.Empty(t, repo.logs)
}

func TestYellowCardStoreFailureIsDependency(t *testing.T) {
	repo := counterRepoWith(models.Student{ID: 1, FullName: "Ana", Grade: 7})
	repo.applyErr = errors.New("connection reset")
	svc := newTestYellowCardService(repo, &mockNotifier{}, time.Second)

	_, err := svc.Update(context.Background(), 1, UpdateYellowCardRequest{Action: "add"})
	assert.True(t, errors.Is(err, appErrors.ErrDependency))
}

func TestYellowCardReset(t *testing.T) {
	repo := counterRepoWith(models.Student{ID: 1, FullName: "Ana", Grade: 7, YellowCards: 2, Demerits: 2})
	notifier := &mockNotifier{}
	svc := newTestYellowCardService(repo, notifier, time.Second)

	st, err := svc.Reset(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, st.YellowCards)
	assert.Zero(t, st.Demerits)
	require.Len(t, repo.logs, 1)
	assert.Equal(t, "Manual Reset [Current: 0 YC, 0 D]", repo.logs[0].Description)
	assert.Empty(t, notifier.calls)
}

func TestYellowCardConcurrentAddsAllLand(t *testing.T) {
	repo := counterRepoWith(models.Student{ID: 1, FullName: "Ana", Grade: 7})
	svc := newTestYellowCardService(repo, &mockNotifier{}, time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Update(context.Background(), 1, UpdateYellowCardRequest{Action: "add", Reason: "Uniform"})
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, repo.students[1].YellowCards)
	assert.Len(t, repo.logs, 2)
}
