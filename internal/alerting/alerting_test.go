package alerting

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jainesh24/cwi-backend/internal/contracts"
)

type fakeStore struct {
	mu       sync.Mutex
	open     bool
	checkErr error
	inserted []contracts.AlertRecord
	cooldown time.Duration
}

func (f *fakeStore) HasOpenAlertInCooldown(_ context.Context, _ string, _ contracts.Department, _ contracts.WasteCategory, cooldown time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cooldown = cooldown
	return f.open, f.checkErr
}

func (f *fakeStore) InsertAlert(_ context.Context, a contracts.AlertRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserted = append(f.inserted, a)
	f.open = true
	return nil
}

type outcomes struct {
	mu  sync.Mutex
	got []string
}

func (o *outcomes) ObserveAlert(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.got = append(o.got, outcome)
}

func anomalous(score int, msg *string) contracts.WasteEvent {
	return contracts.WasteEvent{
		ID:         "e1",
		TenantID:   "hospital-a",
		Department: contracts.DeptICU,
		Category:   contracts.WasteInfectious,
		Analysis: &contracts.AnalysisResult{
			RiskScore:       score,
			AnomalyDetected: true,
			Assessment:      "High risk detected",
			AlertMessage:    msg,
		},
	}
}

func TestSeverity(t *testing.T) {
	assert.Equal(t, "medium", Severity(65))
	assert.Equal(t, "medium", Severity(74))
	assert.Equal(t, "high", Severity(75))
	assert.Equal(t, "high", Severity(89))
	assert.Equal(t, "critical", Severity(90))
	assert.Equal(t, "critical", Severity(100))
}

func TestHandleCreatesAlertThenCoolsDown(t *testing.T) {
	store := &fakeStore{}
	p := NewProcessor(store, 30*time.Minute, nil, nil)
	msg := "Potential Anomaly in Infectious Waste Generation"

	outcome, err := p.Handle(context.Background(), anomalous(80, &msg))
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)
	require.Len(t, store.inserted, 1)

	a := store.inserted[0]
	assert.Equal(t, msg, a.Title)
	assert.Equal(t, "high", a.Severity)
	assert.Equal(t, contracts.AlertOpen, a.Status)
	assert.Equal(t, "e1", a.WasteEventID)
	assert.Equal(t, 30*time.Minute, store.cooldown)

	outcome, err = p.Handle(context.Background(), anomalous(95, &msg))
	require.NoError(t, err)
	assert.Equal(t, OutcomeCooldown, outcome)
	assert.Len(t, store.inserted, 1)
}

func TestHandleSkipsNonAnomalous(t *testing.T) {
	store := &fakeStore{}
	ev := anomalous(40, nil)
	ev.Analysis.AnomalyDetected = false

	outcome, err := NewProcessor(store, time.Minute, nil, nil).Handle(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome)
	assert.Empty(t, store.inserted)
}

func TestHandleCheckFailure(t *testing.T) {
	store := &fakeStore{checkErr: errors.New("db down")}

	outcome, err := NewProcessor(store, time.Minute, nil, nil).Handle(context.Background(), anomalous(70, nil))
	require.Error(t, err)
	assert.Equal(t, OutcomeFailed, outcome)
}

func TestBuildAlertDefaultTitle(t *testing.T) {
	empty := ""
	a := BuildAlert(anomalous(66, &empty))
	assert.Equal(t, "Anomalous Infectious waste in ICU", a.Title)
	assert.Equal(t, "ICU scored 66/100. High risk detected", a.Description)
	assert.Equal(t, "medium", a.Severity)
}

type sliceReader struct {
	msgs   []kafka.Message
	cancel context.CancelFunc
}

func (r *sliceReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		r.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

func TestRunConsumesUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	body, err := json.Marshal(anomalous(92, nil))
	require.NoError(t, err)

	store := &fakeStore{}
	obs := &outcomes{}
	reader := &sliceReader{cancel: cancel, msgs: []kafka.Message{
		{Value: body},
		{Value: []byte("not json")},
		{Value: body},
	}}

	require.NoError(t, NewProcessor(store, time.Minute, nil, obs).Run(ctx, reader))

	require.Len(t, store.inserted, 1)
	assert.Equal(t, "critical", store.inserted[0].Severity)
	assert.Equal(t, []string{OutcomeCreated, OutcomeFailed, OutcomeCooldown}, obs.got)
}
