package mqtt

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/smartspace/backend/internal/domain/shared"
	"github.com/smartspace/backend/internal/domain/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSpaces struct {
	mu      sync.Mutex
	spaces  map[string]*workspace.Space
	saveErr error
	saved   int
}

func newFakeSpaces(t *testing.T) *fakeSpaces {
	t.Helper()
	s, err := workspace.NewSpace("demo_company", "desk_1_01", "Desk 1-01", workspace.SpaceTypeDesk, 1, 4)
	require.NoError(t, err)
	return &fakeSpaces{spaces: map[string]*workspace.Space{"demo_company/desk_1_01": s}}
}

func (f *fakeSpaces) FindByID(_ context.Context, companyID, id string) (*workspace.Space, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.spaces[companyID+"/"+id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return s, nil
}

func (f *fakeSpaces) FindAll(context.Context, string, workspace.SpaceFilter) ([]*workspace.Space, error) {
	return nil, nil
}

func (f *fakeSpaces) Save(_ context.Context, s *workspace.Space) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved++
	f.spaces[s.CompanyID+"/"+s.ID] = s
	return nil
}

func (f *fakeSpaces) Create(ctx context.Context, s *workspace.Space) error {
	if _, err := f.FindByID(ctx, s.CompanyID, s.ID); err == nil {
		return shared.ErrAlreadyExists
	}
	return f.Save(ctx, s)
}

func (f *fakeSpaces) SaveAll(context.Context, []*workspace.Space) error { return nil }

func (f *fakeSpaces) ExistsByID(context.Context, string, string) (bool, error) { return false, nil }

func (f *fakeSpaces) Count(context.Context, string) (int64, error) { return 0, nil }

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func newTestSubscriber(spaces workspace.SpaceRepository) (*Subscriber, *observer.ObservedLogs, *[]string) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := NewSubscriber(nil, spaces, "smartspace", 1, zap.New(core))
	s.now = func() time.Time { return time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC) }
	var results []string
	s.SetObserver(func(r string) { results = append(results, r) })
	return s, logs, &results
}

const topic = "smartspace/demo_company/spaces/desk_1_01/environment"

func TestParseTopic(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		topic   string
		company string
		space   string
		ok      bool
	}{
		{"valid", "smartspace", topic, "demo_company", "desk_1_01", true},
		{"trailing slash prefix", "smartspace/", topic, "demo_company", "desk_1_01", true},
		{"wrong prefix", "other", topic, "", "", false},
		{"wrong leaf", "smartspace", "smartspace/demo_company/spaces/desk_1_01/occupancy", "", "", false},
		{"missing space", "smartspace", "smartspace/demo_company/spaces//environment", "", "", false},
		{"too deep", "smartspace", "smartspace/a/spaces/b/environment/x", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			company, space, ok := ParseTopic(tt.prefix, tt.topic)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.company, company)
			assert.Equal(t, tt.space, space)
		})
	}
	assert.Equal(t, "smartspace/+/spaces/+/environment", TopicFilter("smartspace/"))
}

func TestHandleMessage_AppliesEnvironmentAndOccupancy(t *testing.T) {
	spaces := newFakeSpaces(t)
	s, _, results := newTestSubscriber(spaces)

	payload := `{"temperature":24.5,"humidity":50,"co2_level":820,"noise_level":55,"air_quality":70,"occupancy":9}`
	s.HandleMessage(nil, fakeMessage{topic: topic, payload: []byte(payload)})

	assert.Equal(t, []string{ResultApplied}, *results)
	space := spaces.spaces["demo_company/desk_1_01"]
	assert.Equal(t, 24.5, space.Environment.Temperature)
	assert.Equal(t, 820.0, space.Environment.CO2Level)
	assert.Equal(t, time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC), space.Environment.MeasuredAt)
	// clamped to capacity
	assert.Equal(t, 4, space.CurrentOccupancy)
}

func TestHandleMessage_UsesSensorTimestamp(t *testing.T) {
	spaces := newFakeSpaces(t)
	s, _, results := newTestSubscriber(spaces)

	payload := `{"temperature":21,"humidity":40,"co2_level":500,"noise_level":40,"air_quality":80,"timestamp":"2025-03-04T09:30:00Z"}`
	s.HandleMessage(nil, fakeMessage{topic: topic, payload: []byte(payload)})

	assert.Equal(t, []string{ResultApplied}, *results)
	space := spaces.spaces["demo_company/desk_1_01"]
	assert.Equal(t, time.Date(2025, 3, 4, 9, 30, 0, 0, time.UTC), space.Environment.MeasuredAt)
	assert.Equal(t, 0, space.CurrentOccupancy)
}

func TestHandleMessage_DropsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		payload string
		logMsg  string
	}{
		{"bad topic", "smartspace/demo_company/desk", `{}`, "Dropping message on unexpected topic"},
		{"malformed json", topic, `{"temperature":`, "Dropping malformed sensor payload"},
		{"missing field", topic, `{"temperature":22,"humidity":45,"co2_level":400,"noise_level":45}`, "Dropping invalid sensor payload"},
		{"out of range", topic, `{"temperature":22,"humidity":145,"co2_level":400,"noise_level":45,"air_quality":70}`, "Dropping invalid sensor payload"},
		{"negative occupancy", topic, `{"temperature":22,"humidity":45,"co2_level":400,"noise_level":45,"air_quality":70,"occupancy":-1}`, "Dropping invalid sensor payload"},
		{"unknown space", "smartspace/demo_company/spaces/desk_9_99/environment", `{"temperature":22,"humidity":45,"co2_level":400,"noise_level":45,"air_quality":70}`, "Sensor message for unknown space"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spaces := newFakeSpaces(t)
			s, logs, results := newTestSubscriber(spaces)

			s.HandleMessage(nil, fakeMessage{topic: tt.topic, payload: []byte(tt.payload)})

			assert.Equal(t, []string{ResultRejected}, *results)
			assert.Equal(t, 1, logs.FilterMessage(tt.logMsg).Len())
			assert.Equal(t, 0, spaces.saved)
		})
	}
}

func TestHandleMessage_SaveFailure(t *testing.T) {
	spaces := newFakeSpaces(t)
	spaces.saveErr = errors.New("database is locked")
	s, logs, results := newTestSubscriber(spaces)

	payload := `{"temperature":22,"humidity":45,"co2_level":400,"noise_level":45,"air_quality":70}`
	s.HandleMessage(nil, fakeMessage{topic: topic, payload: []byte(payload)})

	assert.Equal(t, []string{ResultFailed}, *results)
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}
