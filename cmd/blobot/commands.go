package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bep/debounce"
	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/gorilla/websocket"
	"github.com/urfave/cli/v2"

	"github.com/teslashibe/go-blobot/internal/httpc"
	"github.com/teslashibe/go-blobot/internal/log"
	"github.com/teslashibe/go-blobot/pkg/app"
	"github.com/teslashibe/go-blobot/pkg/protocol"
	"github.com/teslashibe/go-blobot/pkg/robot"
	"github.com/teslashibe/go-blobot/pkg/runner"
	"github.com/teslashibe/go-blobot/pkg/script"
	"github.com/teslashibe/go-blobot/pkg/web"
)

const watchDebounce = 150 * time.Millisecond

var (
	errorText = color.New(color.FgRed).SprintFunc()
	okText    = color.New(color.FgGreen).SprintFunc()
)

func appConfig(c *cli.Context) app.Config {
	cfg := app.DefaultConfig()
	cfg.Robot.Duration = c.Duration(flagDuration)
	cfg.Animation.FrameRate = c.Float64(flagFrameRate)
	return cfg
}

func serveAction(c *cli.Context) error {
	cfg := appConfig(c)
	cfg.Web.Port = c.String(flagPort)
	cfg.Web.StaticDir = c.String(flagStatic)

	a, err := app.New(cfg)
	if err != nil {
		return err
	}

	fmt.Println("🤖 blobot")
	fmt.Printf("   API:      http://localhost:%s/api/state\n", cfg.Web.Port)
	fmt.Printf("   Stream:   ws://localhost:%s/ws/state\n", cfg.Web.Port)
	if cfg.Web.StaticDir != "" {
		fmt.Printf("   Renderer: http://localhost:%s/\n", cfg.Web.Port)
	}
	fmt.Println()

	if err := a.Run(c.Context); err != nil {
		return err
	}
	fmt.Println("👋 Goodbye!")
	return nil
}

func readSource(c *cli.Context) (name, src string, err error) {
	name = c.Args().First()
	if name == "" {
		return "", "", cli.Exit("missing FILE argument (use - for stdin)", 2)
	}
	var data []byte
	if name == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return "", "", err
	}
	return name, string(data), nil
}

func checkAction(c *cli.Context) error {
	name, src, err := readSource(c)
	if err != nil {
		return err
	}
	prog, err := script.Parse(src)
	var pe *script.ParseError
	if errors.As(err, &pe) {
		return cli.Exit(errorText(fmt.Sprintf("%s:%d:%d: %s", name, pe.Pos.Line, pe.Pos.Column, pe.Msg)), 1)
	}
	if err != nil {
		return err
	}

	if c.Bool(flagPrint) {
		fmt.Print(prog.String())
		return nil
	}
	fmt.Printf("%s: %s (%d statements, %d steps)\n", name, okText("ok"), len(prog.Body), prog.Steps())
	return nil
}

func runAction(c *cli.Context) error {
	name, src, err := readSource(c)
	if err != nil {
		return err
	}

	cfg := appConfig(c)
	cfg.Headless = true
	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	a.Controller.OnEvent(printEvent)

	ctx, cancel := context.WithCancel(c.Context)
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	run, err := a.Execute(ctx, src)
	var pe *script.ParseError
	if errors.As(err, &pe) {
		return cli.Exit(errorText(fmt.Sprintf("%s:%d:%d: %s", name, pe.Pos.Line, pe.Pos.Column, pe.Msg)), 1)
	}
	if err != nil {
		return err
	}

	st := a.Controller.State()
	fmt.Printf("final  pos=(%.3f, %.3f, %.3f) yaw=%.3f\n", st.Position.X, st.Position.Y, st.Position.Z, st.Yaw)
	log.Debug("run finished", "run", run.ID, "steps", run.Steps, "elapsed", run.Elapsed(a.Loop.Clock().Now()))

	if run.Status == runner.StatusFailed {
		return cli.Exit(errorText(fmt.Sprintf("%s:%d:%d: %s", name, run.Line, run.Column, run.Error)), 1)
	}
	return nil
}

func printEvent(ev robot.Event) {
	switch ev.Kind {
	case robot.EventStarted, robot.EventFinished:
		p := ev.State.Position
		fmt.Printf("%-8s %-18s pos=(%.3f, %.3f, %.3f) yaw=%.3f queued=%d\n",
			ev.Kind, ev.Command.String(), p.X, p.Y, p.Z, ev.State.Yaw, ev.State.Queued)
	case robot.EventQueued:
		fmt.Printf("%-8s %s\n", ev.Kind, ev.Command.String())
	}
}

func endpoint(c *cli.Context, path string) string {
	return strings.TrimRight(c.String(flagURL), "/") + path
}

func submitAction(c *cli.Context) error {
	name, src, err := readSource(c)
	if err != nil {
		return err
	}
	err = submit(c, name, src)
	if !c.Bool(flagWatch) {
		return err
	}
	if name == "-" {
		return cli.Exit("--watch needs a FILE", 2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return watchFile(c, name)
}

func submit(c *cli.Context, name, src string) error {
	var run runner.Run
	err := httpc.PostJSON(c.Context, endpoint(c, "/api/scripts"), web.ScriptRequest{Source: src}, &run)
	var se *httpc.StatusError
	if errors.As(err, &se) && se.Code == 400 {
		var n protocol.NotificationData
		if json.Unmarshal([]byte(se.Body), &n) == nil && n.Line > 0 {
			return cli.Exit(errorText(fmt.Sprintf("%s:%d:%d: %s", name, n.Line, n.Column, n.Message)), 1)
		}
	}
	if err != nil {
		return err
	}
	fmt.Printf("run %s %s\n", run.ID, run.Status)
	return nil
}

// watchFile resubmits name every time it is saved, until interrupted.
func watchFile(c *cli.Context, name string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Editors often replace the file, so watch its directory.
	abs, err := filepath.Abs(name)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	log.Info("watching script", "file", abs)

	debounced := debounce.New(watchDebounce)
	resubmit := func() {
		data, err := os.ReadFile(abs)
		if err != nil {
			log.Warn("read script", "file", abs, "error", err)
			return
		}
		if err := submit(c, name, string(data)); err != nil {
			fmt.Fprintln(os.Stderr, errorText(err.Error()))
		}
	}

	for {
		select {
		case <-c.Context.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			debounced(resubmit)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "error", err)
		}
	}
}

func moveAction(c *cli.Context) error {
	action := c.Args().First()
	if action == "" {
		return cli.Exit("missing ACTION argument", 2)
	}
	if action == "reset" {
		var st protocol.StateData
		if err := httpc.PostJSON(c.Context, endpoint(c, "/api/robot/reset"), nil, &st); err != nil {
			return err
		}
		printState(st)
		return nil
	}

	var req web.MoveRequest
	if c.IsSet(flagValue) {
		v := c.Float64(flagValue)
		req.Value = &v
	}
	var resp web.MoveResponse
	if err := httpc.PostJSON(c.Context, endpoint(c, "/api/robot/"+url.PathEscape(action)), req, &resp); err != nil {
		return err
	}
	verb := "started"
	if resp.Queued {
		verb = "queued"
	}
	fmt.Printf("%s %s\n", verb, resp.Command.String())
	return nil
}

func stateAction(c *cli.Context) error {
	var st protocol.StateData
	if err := httpc.GetJSON(c.Context, endpoint(c, "/api/state"), &st); err != nil {
		return err
	}
	printState(st)
	return nil
}

func printState(st protocol.StateData) {
	active := "-"
	if st.Active != nil {
		active = fmt.Sprintf("%s(%g)", st.Active.Type, st.Active.Value)
	}
	fmt.Printf("frame=%-6d pos=(%.3f, %.3f, %.3f) yaw=%.3f busy=%-5v active=%s queued=%d\n",
		st.Frame, st.Position.X, st.Position.Y, st.Position.Z, st.Yaw, st.Busy, active, len(st.Queue))
}

// wsURL turns the server base URL into the websocket URL of a stream.
func wsURL(base, stream string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/" + stream
	return u.String(), nil
}

func watchAction(c *cli.Context) error {
	stream := c.String(flagStream)
	if stream != "state" && stream != "events" {
		return cli.Exit("--stream must be state or events", 2)
	}
	target, err := wsURL(c.String(flagURL), stream)
	if err != nil {
		return err
	}

	ws, _, err := websocket.DefaultDialer.DialContext(c.Context, target, nil)
	if err != nil {
		return fmt.Errorf("connect %s: %w", target, err)
	}
	defer ws.Close()
	log.Info("watching", "url", target)

	go func() {
		<-c.Context.Done()
		ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		ws.Close()
	}()

	raw := c.Bool(flagRaw)
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if c.Context.Err() != nil {
				return nil
			}
			return err
		}
		if raw {
			fmt.Println(string(data))
			continue
		}
		msg, err := protocol.ParseMessage(data)
		if err != nil {
			log.Warn("bad message", "error", err)
			continue
		}
		printMessage(msg)
	}
}

func printMessage(msg *protocol.Message) {
	switch msg.Type {
	case protocol.TypeState:
		if st, err := msg.GetStateData(); err == nil {
			printState(*st)
		}
	case protocol.TypeEvent:
		if ev, err := msg.GetEventData(); err == nil {
			cmd := ""
			if ev.Command != nil {
				cmd = fmt.Sprintf("%s(%g)", ev.Command.Type, ev.Command.Value)
			}
			fmt.Printf("event  %-8s %s queued=%d\n", ev.Kind, cmd, ev.Queued)
		}
	case protocol.TypeRun:
		if run, err := msg.GetRunData(); err == nil {
			fmt.Printf("run    %s %s steps=%d %s\n", run.ID, run.Status, run.Steps, run.Error)
		}
	case protocol.TypeNotification:
		if n, err := msg.GetNotificationData(); err == nil {
			text := n.Message
			if n.Level == protocol.LevelError {
				text = errorText(text)
			}
			fmt.Printf("%-6s %s\n", n.Level, text)
		}
	default:
		fmt.Printf("%s %s\n", msg.Type, msg.Data)
	}
}
