package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type senderMock struct {
	dests []string
	texts []string
	err   error
	fails int // fail this many calls before succeeding
}

func (s *senderMock) Send(_ context.Context, destination, text string) error {
	s.dests = append(s.dests, destination)
	s.texts = append(s.texts, text)
	if s.fails > 0 {
		s.fails--
		return errors.New("smtp down")
	}
	return s.err
}

type repeaterMock struct{}

func (r repeaterMock) Do(ctx context.Context, fun func() error, _ ...error) error {
	var err error
	for i := 0; i < 3; i++ {
		if err = fun(); err == nil {
			return nil
		}
	}
	return err
}

func testService(p Params, s Sender) *Service {
	return &Service{Params: p, sender: s, rptr: repeaterMock{}}
}

func TestNew_Disabled(t *testing.T) {
	assert.Nil(t, New(Params{}), "no host, no recipients")
	assert.Nil(t, New(Params{Host: "smtp", To: []string{"a@b"}}), "no trigger enabled")
	assert.Nil(t, New(Params{OnAssumed: true, To: []string{"a@b"}}), "no host")
}

func TestNew_Defaults(t *testing.T) {
	svc := New(Params{Host: "smtp", To: []string{"a@b"}, OnAssumed: true})
	require.NotNil(t, svc)
	assert.NotEmpty(t, svc.From, "from derived from hostname")
	assert.Equal(t, 10*time.Second, svc.TimeOut)
}

func TestService_NilSafe(t *testing.T) {
	var svc *Service
	assert.False(t, svc.IsOnAssumed())
	assert.False(t, svc.IsOnError())
	assert.NoError(t, svc.SendAssumed(context.Background(), []int{1}))
	assert.NoError(t, svc.SendError(context.Background(), "boom"))
}

func TestService_SendAssumed(t *testing.T) {
	mock := &senderMock{}
	svc := testService(Params{Host: "smtp", From: "me@x", To: []string{"a@b", "c@d"}, OnAssumed: true}, mock)

	require.NoError(t, svc.SendAssumed(context.Background(), []int{7, 9}))
	require.Len(t, mock.dests, 1)
	assert.Contains(t, mock.dests[0], "mailto:a@b,c@d")
	assert.Contains(t, mock.dests[0], "from=me%40x")
	assert.Contains(t, mock.texts[0], "job <b>7</b>")
	assert.Contains(t, mock.texts[0], "job <b>9</b>")
}

func TestService_SendError(t *testing.T) {
	mock := &senderMock{}
	svc := testService(Params{Host: "smtp", From: "me@x", To: []string{"a@b"}, OnError: true}, mock)

	require.NoError(t, svc.SendError(context.Background(), "squeue exploded"))
	require.Len(t, mock.texts, 1)
	assert.Contains(t, mock.texts[0], "squeue exploded")
}

func TestService_SendRetries(t *testing.T) {
	mock := &senderMock{fails: 2}
	svc := testService(Params{Host: "smtp", To: []string{"a@b"}, OnAssumed: true}, mock)

	require.NoError(t, svc.SendAssumed(context.Background(), []int{1}))
	assert.Len(t, mock.dests, 3, "two failures then success")
}

func TestService_SendFailureSurfaces(t *testing.T) {
	mock := &senderMock{err: errors.New("permanent")}
	svc := testService(Params{Host: "smtp", To: []string{"a@b"}, OnError: true}, mock)

	err := svc.SendError(context.Background(), "boom")
	assert.Error(t, err)
}

func TestService_TriggersRespected(t *testing.T) {
	mock := &senderMock{}
	svc := testService(Params{Host: "smtp", To: []string{"a@b"}, OnError: true}, mock)

	require.NoError(t, svc.SendAssumed(context.Background(), []int{1}), "assumed disabled, no send")
	assert.Empty(t, mock.dests)
}
