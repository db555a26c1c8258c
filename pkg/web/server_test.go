package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-blobot/pkg/animation"
	"github.com/teslashibe/go-blobot/pkg/command"
	"github.com/teslashibe/go-blobot/pkg/protocol"
	"github.com/teslashibe/go-blobot/pkg/robot"
	"github.com/teslashibe/go-blobot/pkg/runner"
)

// holdAnimator applies the first frame and then holds the animation until
// its context ends, so the robot stays busy for the whole test.
type holdAnimator struct{}

func (holdAnimator) Animate(ctx context.Context, d time.Duration, apply animation.ApplyFunc) error {
	apply(0)
	<-ctx.Done()
	return ctx.Err()
}

type testEnv struct {
	srv  *Server
	ctrl *robot.Controller
	runs *runner.Runner
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := DefaultConfig()
	cfg.AccessLog = false

	ctrl := robot.New(robot.DefaultConfig(), holdAnimator{})
	env := &testEnv{ctrl: ctrl}
	env.runs = runner.New(runner.DefaultConfig(), ctrl, clock.NewMock(), runner.NotifierFunc(func(r runner.Run) {
		env.srv.NotifyRun(r)
	}))
	env.srv = NewServer(cfg, ctrl, env.runs)
	ctrl.OnEvent(env.srv.HandleEvent)
	t.Cleanup(func() {
		env.runs.Close()
		ctrl.Reset()
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.srv.App().Test(req, 2000)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return v
}

func TestGetState(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodGet, "/api/state", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	state := decode[protocol.StateData](t, body)
	if state.Position != (protocol.Vec3{Y: 0.5}) || state.Busy || len(state.Queue) != 0 {
		t.Errorf("initial state = %+v", state)
	}
}

func TestMoveStartsThenQueues(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodPost, "/api/robot/forward", "")
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d (%s)", resp.StatusCode, body)
	}
	move := decode[MoveResponse](t, body)
	if move.Queued || move.Command != command.Forward(command.DefaultDistance) {
		t.Errorf("first move = %+v", move)
	}

	resp, body = env.do(t, http.MethodPost, "/api/robot/left", `{"value": 90}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d (%s)", resp.StatusCode, body)
	}
	move = decode[MoveResponse](t, body)
	if !move.Queued || move.Command != command.Left(90) {
		t.Errorf("second move = %+v", move)
	}

	_, body = env.do(t, http.MethodGet, "/api/state", "")
	state := decode[protocol.StateData](t, body)
	if !state.Busy {
		t.Error("robot should be busy")
	}
	if state.Active == nil || state.Active.Type != "forward" {
		t.Errorf("Active = %+v", state.Active)
	}
	if len(state.Queue) != 1 || state.Queue[0] != (protocol.CommandData{Type: "turnLeft", Value: 90}) {
		t.Errorf("Queue = %+v", state.Queue)
	}
}

func TestMoveErrors(t *testing.T) {
	env := newTestEnv(t)

	if resp, _ := env.do(t, http.MethodPost, "/api/robot/jump", ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown action status = %d, want 404", resp.StatusCode)
	}
	resp, body := env.do(t, http.MethodPost, "/api/robot/right", "{nope")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad body status = %d, want 400", resp.StatusCode)
	}
	if msg := decode[map[string]string](t, body)["error"]; msg == "" {
		t.Error("error body missing")
	}
}

func TestReset(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/robot/forward", "")
	env.do(t, http.MethodPost, "/api/robot/right", "")

	resp, body := env.do(t, http.MethodPost, "/api/robot/reset", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	state := decode[protocol.StateData](t, body)
	if state.Busy || len(state.Queue) != 0 || state.Position != (protocol.Vec3{Y: 0.5}) || state.Yaw != 0 {
		t.Errorf("state after reset = %+v", state)
	}
}

func TestConfigEndpoint(t *testing.T) {
	env := newTestEnv(t)
	_, body := env.do(t, http.MethodGet, "/api/config", "")
	cfg := decode[ConfigResponse](t, body)
	if cfg.DurationMS != 500 || cfg.FrameRate != 60 {
		t.Errorf("config = %+v", cfg)
	}
	if cfg.Defaults["turnLeft"] != 45 || cfg.Defaults["forward"] != 1 {
		t.Errorf("defaults = %v", cfg.Defaults)
	}
}

func TestDefaultScript(t *testing.T) {
	env := newTestEnv(t)
	_, body := env.do(t, http.MethodGet, "/api/scripts/default", "")
	src := decode[ScriptRequest](t, body).Source
	if !strings.Contains(src, "moveForward(2)") || !strings.Contains(src, "turnRight(90)") {
		t.Errorf("default script = %q", src)
	}
}

func TestStartScriptParseError(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodPost, "/api/scripts", `{"source": "moveForward(1)\nturnLeft("}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	n := decode[protocol.NotificationData](t, body)
	if n.Level != protocol.LevelError || n.Kind != protocol.KindParse {
		t.Errorf("notification = %+v", n)
	}
	if n.Line != 2 || n.Column != 10 {
		t.Errorf("position = %d:%d, want 2:10", n.Line, n.Column)
	}
	if len(env.runs.List()) != 0 {
		t.Error("a rejected script should not create a run")
	}
	if env.ctrl.State().Busy {
		t.Error("a rejected script should not move the robot")
	}
}

func TestScriptLifecycle(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodPost, "/api/scripts", `{"source": "moveForward(1); wait(5000); turnLeft(90)"}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d (%s)", resp.StatusCode, body)
	}
	run := decode[runner.Run](t, body)
	if run.ID == "" {
		t.Fatal("run has no ID")
	}

	resp, body = env.do(t, http.MethodGet, "/api/scripts/"+run.ID, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}

	_, body = env.do(t, http.MethodGet, "/api/scripts", "")
	if runs := decode[[]runner.Run](t, body); len(runs) != 1 || runs[0].ID != run.ID {
		t.Errorf("list = %+v", runs)
	}

	resp, body = env.do(t, http.MethodDelete, "/api/scripts/"+run.ID, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	if got := decode[runner.Run](t, body); got.Status != runner.StatusCanceled {
		t.Errorf("status after cancel = %s", got.Status)
	}

	if resp, _ := env.do(t, http.MethodGet, "/api/scripts/missing", ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing run status = %d, want 404", resp.StatusCode)
	}
}

func TestWebSocketRouteRequiresUpgrade(t *testing.T) {
	env := newTestEnv(t)
	if resp, _ := env.do(t, http.MethodGet, "/ws/state", ""); resp.StatusCode != http.StatusUpgradeRequired {
		t.Errorf("status = %d, want 426", resp.StatusCode)
	}
}

func TestPublishStateSkipsUnchanged(t *testing.T) {
	env := newTestEnv(t)
	env.srv.PublishState(1)
	env.srv.PublishState(2)
	if got := env.srv.StatesPublished(); got != 1 {
		t.Fatalf("published %d states for an idle robot, want 1", got)
	}

	env.ctrl.Submit(command.Right(90))
	env.srv.PublishState(3)
	env.srv.PublishState(4)
	if got := env.srv.StatesPublished(); got != 2 {
		t.Errorf("published %d states, want 2", got)
	}
}

// farRobot reports a pose that has overflowed to infinity.
type farRobot struct{}

func (farRobot) Submit(command.Command) (bool, error) { return false, nil }
func (farRobot) Reset() {}
func (farRobot) Config() robot.Config { return robot.DefaultConfig() }

func (farRobot) Snapshot() (robot.State, []command.Command) {
	return robot.State{
		Position: r3.Vector{X: math.Inf(1), Y: 0.5, Z: math.Inf(-1)},
		Yaw:      math.NaN(),
	}, []command.Command{command.Forward(math.Inf(1))}
}

func TestGetStateWithOverflowedPose(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AccessLog = false
	srv := NewServer(cfg, farRobot{}, nil)

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/api/state", nil), 2000)
	if err != nil {
		t.Fatalf("GET /api/state: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}

	state := decode[protocol.StateData](t, body)
	want := protocol.Vec3{X: math.MaxFloat64, Y: 0.5, Z: -math.MaxFloat64}
	if state.Position != want || state.Yaw != 0 {
		t.Errorf("state = %+v, want clamped position %+v and yaw 0", state, want)
	}
	if len(state.Queue) != 1 || state.Queue[0].Value != math.MaxFloat64 {
		t.Errorf("queue = %+v", state.Queue)
	}
	if welcome := srv.welcomeState(); welcome == nil {
		t.Error("welcome state failed to encode")
	}
}

func TestSameState(t *testing.T) {
	a := protocol.StateData{Position: protocol.Vec3{Z: 1}, Queue: []protocol.CommandData{{Type: "forward", Value: 1}}}
	b := a
	b.Queue = []protocol.CommandData{{Type: "forward", Value: 1}}
	if !sameState(a, b) {
		t.Error("equal states reported different")
	}
	b.Frame = 99
	if !sameState(a, b) {
		t.Error("frame number should not matter")
	}
	b.Active = &protocol.CommandData{Type: "turnLeft", Value: 45}
	if sameState(a, b) {
		t.Error("active command ignored")
	}
	c := a
	c.Yaw = 0.1
	if sameState(a, c) {
		t.Error("yaw ignored")
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	cfg := Config{Port: "http", FrameRate: 0}
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("error = %v, want ErrInvalidConfig", err)
	}
}

// Streams over a real listener.
func TestWebSocketStreams(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, h := range env.srv.Hubs() {
		go h.Run(ctx)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	served := make(chan error, 1)
	go func() { served <- env.srv.Serve(ctx, ln) }()

	base := "ws://" + ln.Addr().String()

	stateWS := dial(t, base+"/ws/state")
	defer stateWS.Close()
	welcome := readMessage(t, stateWS)
	if welcome.Type != protocol.TypeState {
		t.Fatalf("welcome type = %s, want state", welcome.Type)
	}

	eventWS := dial(t, base+"/ws/events")
	defer eventWS.Close()
	waitUntil(t, func() bool { return env.srv.eventHub.ClientCount() == 1 })

	env.ctrl.Submit(command.Forward(2))

	ev := readMessage(t, eventWS)
	if ev.Type != protocol.TypeEvent {
		t.Fatalf("event type = %s", ev.Type)
	}
	data, _ := ev.GetEventData()
	if data.Kind != string(robot.EventStarted) || data.Command == nil || data.Command.Value != 2 {
		t.Errorf("event = %+v", data)
	}

	env.srv.PublishState(7)
	st := readMessage(t, stateWS)
	sd, _ := st.GetStateData()
	if !sd.Busy || sd.Frame != 7 {
		t.Errorf("state frame = %+v", sd)
	}

	cancel()
	select {
	case err := <-served:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(6 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	var ws *websocket.Conn
	var err error
	for i := 0; i < 50; i++ {
		ws, _, err = websocket.DefaultDialer.Dial(url, nil)
		if err == nil {
			return ws
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("dial %s: %v", url, err)
	return nil
}

func readMessage(t *testing.T, ws *websocket.Conn) *protocol.Message {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		t.Fatalf("parse %s: %v", data, err)
	}
	return msg
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
