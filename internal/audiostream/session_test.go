package audiostream

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Omnipresence/internal/classifier"
	"Omnipresence/pkg/errors"
)

const (
	kindBinary = 2
	kindText   = 1
)

type scriptedClassifier struct {
	labels []classifier.Label
	calls  int
}

func (s *scriptedClassifier) classify(_ context.Context, _ []byte) (classifier.Result, error) {
	label := classifier.Benign
	if s.calls < len(s.labels) {
		label = s.labels[s.calls]
	}
	s.calls++
	return classifier.Result{Label: label, Score: 0.9}, nil
}

type fakeTrigger struct {
	calls int
	err   error
}

func (f *fakeTrigger) Trigger(context.Context, string, string, float64, float64) (uint, error) {
	f.calls++
	return uint(f.calls), f.err
}

type recordingConn struct {
	mu       sync.Mutex
	messages []StatusMessage
}

func (r *recordingConn) WriteStatus(msg StatusMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return nil
}

func (r *recordingConn) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

func runSession(t *testing.T, labels []classifier.Label, trigger *fakeTrigger, frames []frame, wait time.Duration) (*recordingConn, *scriptedClassifier) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.ConfirmWait = wait

	ch := make(chan frame, len(frames))
	for _, f := range frames {
		ch <- f
	}
	close(ch)

	conn := &recordingConn{}
	sc := &scriptedClassifier{labels: labels}
	session := &Session{
		cfg:      cfg,
		classify: sc.classify,
		trigger:  trigger,
		conn:     conn,
		frames:   ch,
		UserID:   "alice",
		Username: "Alice",
	}

	done := make(chan struct{})
	go func() {
		session.Run(context.Background(), kindBinary)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("session did not finish")
	}
	return conn, sc
}

func TestBenignChunkStaysListening(t *testing.T) {
	trigger := &fakeTrigger{}
	conn, _ := runSession(t, []classifier.Label{classifier.Benign, classifier.Benign}, trigger, []frame{
		{kind: kindBinary, data: []byte{1, 2}},
		{kind: kindBinary, data: []byte{3, 4}},
	}, time.Second)

	require.Len(t, conn.messages, 2)
	for _, msg := range conn.messages {
		require.NotNil(t, msg.SosTriggered)
		assert.False(t, *msg.SosTriggered)
	}
	assert.Zero(t, trigger.calls)
}

func TestDistressConfirmedTriggersSos(t *testing.T) {
	trigger := &fakeTrigger{}
	conn, _ := runSession(t, []classifier.Label{classifier.Distress}, trigger, []frame{
		{kind: kindBinary, data: []byte{1, 2}},
		{kind: kindText, data: []byte(`{"action":"trigger_sos"}`)},
	}, time.Second)

	require.Len(t, conn.messages, 2)
	assert.Nil(t, conn.messages[0].SosTriggered) // the prompt
	require.NotNil(t, conn.messages[1].SosTriggered)
	assert.True(t, *conn.messages[1].SosTriggered)
	assert.Equal(t, uint(1), conn.messages[1].AlertID)
	assert.Equal(t, 1, trigger.calls)
}

func TestDistressDeniedTakesNoAction(t *testing.T) {
	trigger := &fakeTrigger{}
	conn, _ := runSession(t, []classifier.Label{classifier.Distress}, trigger, []frame{
		{kind: kindBinary, data: []byte{1, 2}},
		{kind: kindText, data: []byte(`{"action":"dismiss"}`)},
	}, time.Second)

	require.Len(t, conn.messages, 2)
	assert.Nil(t, conn.messages[0].SosTriggered)
	require.NotNil(t, conn.messages[1].SosTriggered)
	assert.False(t, *conn.messages[1].SosTriggered)
	assert.Equal(t, "No action taken.", conn.messages[1].Message)
	assert.Zero(t, trigger.calls)
}

func TestDistressTimeoutCountsAsDenial(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ConfirmWait = 50 * time.Millisecond

	// keep the channel open so the denial comes from the timer, not from
	// the stream closing
	ch := make(chan frame, 1)
	ch <- frame{kind: kindBinary, data: []byte{1, 2}}

	trigger := &fakeTrigger{}
	conn := &recordingConn{}
	sc := &scriptedClassifier{labels: []classifier.Label{classifier.Distress}}
	session := &Session{
		cfg:      cfg,
		classify: sc.classify,
		trigger:  trigger,
		conn:     conn,
		frames:   ch,
		UserID:   "alice",
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		session.Run(ctx, kindBinary)
		close(done)
	}()

	require.Eventually(t, func() bool { return conn.count() == 2 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done

	require.NotNil(t, conn.messages[1].SosTriggered)
	assert.False(t, *conn.messages[1].SosTriggered)
	assert.Zero(t, trigger.calls)
}

func TestEachDistressPromptsFresh(t *testing.T) {
	trigger := &fakeTrigger{}
	confirm := frame{kind: kindText, data: []byte(`{"action":"trigger_sos"}`)}
	conn, _ := runSession(t, []classifier.Label{classifier.Distress, classifier.Distress}, trigger, []frame{
		{kind: kindBinary, data: []byte{1}},
		confirm,
		{kind: kindBinary, data: []byte{2}},
		confirm,
	}, time.Second)

	require.Len(t, conn.messages, 4)
	assert.Equal(t, 2, trigger.calls)
	// each confirmation produced a new alert
	assert.Equal(t, uint(1), conn.messages[1].AlertID)
	assert.Equal(t, uint(2), conn.messages[3].AlertID)
}

func TestTriggerFailureReportedToClient(t *testing.T) {
	trigger := &fakeTrigger{err: errors.WithCode(errors.CodeStoreUnavailable, "db down")}
	conn, _ := runSession(t, []classifier.Label{classifier.Distress}, trigger, []frame{
		{kind: kindBinary, data: []byte{1}},
		{kind: kindText, data: []byte(`{"action":"trigger_sos"}`)},
	}, time.Second)

	require.Len(t, conn.messages, 2)
	require.NotNil(t, conn.messages[1].SosTriggered)
	assert.False(t, *conn.messages[1].SosTriggered)
}

func TestBinaryFramesDuringPromptAreBuffered(t *testing.T) {
	trigger := &fakeTrigger{}
	conn, sc := runSession(t, []classifier.Label{classifier.Distress}, trigger, []frame{
		{kind: kindBinary, data: []byte{1}},
		{kind: kindBinary, data: []byte{2}}, // arrives while the prompt is open
		{kind: kindText, data: []byte(`{"action":"dismiss"}`)},
	}, time.Second)

	require.Len(t, conn.messages, 2)
	assert.Equal(t, 1, sc.calls) // the mid-prompt chunk did not classify
	assert.Zero(t, trigger.calls)
}

func TestIndeterminateReportsSafe(t *testing.T) {
	trigger := &fakeTrigger{}
	conn, _ := runSession(t, []classifier.Label{classifier.Indeterminate}, trigger, []frame{
		{kind: kindBinary, data: []byte{1}},
	}, time.Second)

	require.Len(t, conn.messages, 1)
	require.NotNil(t, conn.messages[0].SosTriggered)
	assert.False(t, *conn.messages[0].SosTriggered)
	assert.Zero(t, trigger.calls)
}

func TestBufferCapKeepsTail(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBufferBytes = 4
	s := &Session{cfg: cfg}

	s.append([]byte{1, 2, 3})
	s.append([]byte{4, 5, 6})
	assert.Equal(t, []byte{3, 4, 5, 6}, s.buffer)
}
