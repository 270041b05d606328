package node

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/mosaicnetworks/glomers/src/common"
	"github.com/mosaicnetworks/glomers/src/message"
	"github.com/mosaicnetworks/glomers/src/node/state"
	"github.com/mosaicnetworks/glomers/src/peers"
	"github.com/sirupsen/logrus"
)

const tick Injected = 1

type echo struct {
	Echo string `codec:"echo"`
}

func (echo) Type() string { return "echo" }

type echoOk struct {
	Echo string `codec:"echo"`
}

func (echoOk) Type() string { return "echo_ok" }

func echoProtocol() *message.Protocol {
	p := message.NewProtocol("echo")
	message.Register[echo](p)
	message.Register[echoOk](p)
	return p
}

type recordingHandler struct {
	events chan Event
}

func (h *recordingHandler) Step(ev Event, out Output) error {
	select {
	case h.events <- ev:
	default:
	}

	if ne, ok := ev.(NetworkEvent); ok {
		switch p := ne.Msg.Body.Payload.(type) {
		case echo:
			return out.Reply(ne.Msg, echoOk{Echo: p.Echo})
		case echoOk:
		}
	}

	return nil
}

func recordingFactory(h *recordingHandler, every time.Duration) Factory {
	return func(init message.Init, cluster *peers.Cluster, inj Injector, logger *logrus.Entry) (Handler, error) {
		if every > 0 {
			if err := inj.Every(every, tick); err != nil {
				return nil, err
			}
		}
		return h, nil
	}
}

func initLine(id uint64) string {
	return fmt.Sprintf(`{"src":"c0","dest":"n1","body":{"type":"init","msg_id":%d,"node_id":"n1","node_ids":["n1","n2"]}}`, id)
}

func echoLine(id uint64, text string) string {
	return fmt.Sprintf(`{"src":"c1","dest":"n1","body":{"type":"echo","msg_id":%d,"echo":%q}}`, id, text)
}

func decodeOutput(t *testing.T, out []byte) []message.Message {
	c := message.NewCodec(echoProtocol())

	res := []message.Message{}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		m, err := c.Decode(scanner.Bytes())
		if err != nil {
			t.Fatalf("err decoding output %q: %v", scanner.Text(), err)
		}
		res = append(res, m)
	}
	return res
}

func TestRunHandshakeAndReplies(t *testing.T) {
	in := strings.NewReader(strings.Join([]string{
		initLine(1),
		echoLine(2, "hello"),
		echoLine(3, "world"),
	}, "\n"))
	out := new(bytes.Buffer)

	h := &recordingHandler{events: make(chan Event, 16)}
	n := NewNode(TestConfig(t), echoProtocol(), recordingFactory(h, 0), in, out)

	if err := n.Run(); err != nil {
		t.Fatalf("err: %v", err)
	}

	msgs := decodeOutput(t, out.Bytes())
	if len(msgs) != 3 {
		t.Fatalf("expected 3 replies, got %d: %s", len(msgs), out.String())
	}

	if _, ok := msgs[0].Body.Payload.(message.InitOk); !ok {
		t.Fatalf("first reply should be init_ok, got %s", msgs[0].Type())
	}

	for i, want := range []struct {
		inReplyTo uint64
		dest      string
	}{{1, "c0"}, {2, "c1"}, {3, "c1"}} {
		m := msgs[i]
		if m.Src != "n1" || m.Dest != want.dest {
			t.Fatalf("reply %d wrongly addressed: %s -> %s", i, m.Src, m.Dest)
		}
		if m.Body.InReplyTo == nil || *m.Body.InReplyTo != want.inReplyTo {
			t.Fatalf("reply %d should answer %d, got %v", i, want.inReplyTo, m.Body.InReplyTo)
		}
		if m.Body.ID == nil || *m.Body.ID != uint64(i+1) {
			t.Fatalf("reply %d should have msg_id %d, got %v", i, i+1, m.Body.ID)
		}
	}

	if p := msgs[2].Body.Payload.(echoOk); p.Echo != "world" {
		t.Fatalf("wrong echo: %q", p.Echo)
	}

	close(h.events)
	var last Event
	for ev := range h.events {
		last = ev
	}
	if _, ok := last.(EndOfInput); !ok {
		t.Fatalf("the state machine should see EndOfInput last, got %T", last)
	}

	if n.GetState() != state.Shutdown {
		t.Fatalf("node should be shut down, got %s", n.GetState())
	}
}

func TestRunFatalInput(t *testing.T) {
	cases := []struct {
		name  string
		lines []string
		kind  common.ProtocolErrType
	}{
		{"message before init", []string{echoLine(1, "early")}, common.UnexpectedMessage},
		{"empty input", []string{}, common.UnexpectedMessage},
		{"second init", []string{initLine(1), initLine(2)}, common.UnexpectedMessage},
		{"invalid json", []string{initLine(1), `{"src":`}, common.MalformedMessage},
		{"unknown type", []string{initLine(1), `{"src":"c1","dest":"n1","body":{"type":"gossip"}}`}, common.UnknownType},
	}

	for _, tc := range cases {
		h := &recordingHandler{events: make(chan Event, 16)}
		n := NewNode(TestConfig(t), echoProtocol(), recordingFactory(h, 0), strings.NewReader(strings.Join(tc.lines, "\n")), io.Discard)

		err := n.Run()
		if !common.IsProtocol(err, tc.kind) {
			t.Fatalf("%s: expected protocol error, got %v", tc.name, err)
		}
	}
}

func TestRunIgnoresReplyOnlyKinds(t *testing.T) {
	in := strings.NewReader(strings.Join([]string{
		initLine(1),
		`{"src":"n2","dest":"n1","body":{"type":"init_ok","in_reply_to":1}}`,
		`{"src":"n2","dest":"n1","body":{"type":"error","in_reply_to":1,"code":11,"text":"unavailable"}}`,
	}, "\n"))
	out := new(bytes.Buffer)

	h := &recordingHandler{events: make(chan Event, 16)}
	n := NewNode(TestConfig(t), echoProtocol(), recordingFactory(h, 0), in, out)

	if err := n.Run(); err != nil {
		t.Fatalf("err: %v", err)
	}

	if msgs := decodeOutput(t, out.Bytes()); len(msgs) != 1 {
		t.Fatalf("only init_ok should be written, got %d lines", len(msgs))
	}

	// only EndOfInput reaches the state machine
	if len(h.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(h.events))
	}
}

func TestRunInjectedEvents(t *testing.T) {
	inR, inW := io.Pipe()

	h := &recordingHandler{events: make(chan Event, 1024)}
	n := NewNode(TestConfig(t), echoProtocol(), recordingFactory(h, 5*time.Millisecond), inR, io.Discard)

	errCh := make(chan error, 1)
	go func() {
		errCh <- n.Run()
	}()

	if _, err := io.WriteString(inW, initLine(1)+"\n"); err != nil {
		t.Fatalf("err: %v", err)
	}

	ticks := 0
	timeout := time.After(5 * time.Second)
	for ticks < 3 {
		select {
		case ev := <-h.events:
			if ie, ok := ev.(InjectedEvent); ok && ie.Kind == tick {
				ticks++
			}
		case <-timeout:
			t.Fatalf("timeout waiting for ticks, got %d", ticks)
		}
	}

	if n.GetStats()["producers"] != "1" {
		t.Fatalf("expected one running producer, stats: %v", n.GetStats())
	}

	inW.Close()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("err: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timeout waiting for Run to return")
	}

	if n.Routines() != 0 {
		t.Fatalf("ticker should have stopped, %d routines left", n.Routines())
	}

	if err := n.Submit(tick); err != ErrShutdown {
		t.Fatalf("expected ErrShutdown, got %v", err)
	}
}

func TestEveryRejectsNonPositiveInterval(t *testing.T) {
	n := NewNode(TestConfig(t), echoProtocol(), nil, strings.NewReader(""), io.Discard)

	if err := n.Every(0, tick); err == nil {
		t.Fatalf("expected an error")
	}
}

func TestGetStats(t *testing.T) {
	in := strings.NewReader(initLine(1) + "\n" + echoLine(2, "x"))

	h := &recordingHandler{events: make(chan Event, 16)}
	n := NewNode(TestConfig(t), echoProtocol(), recordingFactory(h, 0), in, io.Discard)

	if n.GetStats()["state"] != "Initializing" {
		t.Fatalf("wrong initial state: %v", n.GetStats())
	}

	if err := n.Run(); err != nil {
		t.Fatalf("err: %v", err)
	}

	stats := n.GetStats()
	if stats["id"] != "n1" || stats["messages_sent"] != "2" || stats["messages_received"] != "2" || stats["events_processed"] != "2" {
		t.Fatalf("wrong stats: %v", stats)
	}
}
