package session_test

import (
	"context"
	"testing"

	"blue/config"
	"blue/internal/prompt"
	"blue/internal/session"
	"blue/internal/session/sessiontest"
	"blue/util"
)

func TestSession_SendRecordsCommand(t *testing.T) {
	c := sessiontest.New("Router#")
	sess := session.New(c, prompt.New(""), config.DefaultTimings(), util.NewLogger(0))

	out, err := sess.Send(context.Background(), "show version", config.ServiceSettle, prompt.AtPrompt)
	if err != nil {
		t.Fatal(err)
	}
	if out != "Router#" {
		t.Errorf("out = %q", out)
	}
	cmd, ok := c.Find("show version")
	if !ok {
		t.Fatal("command not sent")
	}
	if cmd.Settle != config.ServiceSettle || cmd.Until == nil || cmd.Secret {
		t.Errorf("unexpected command: %+v", cmd)
	}
}

func TestSession_SendSecret(t *testing.T) {
	c := sessiontest.New("")
	sess := session.New(c, prompt.New(""), config.DefaultTimings(), nil)

	if _, err := sess.SendSecret(context.Background(), "<password>", "hunter2", config.DefaultSettle, nil); err != nil {
		t.Fatal(err)
	}
	cmd, _ := c.Find("hunter2")
	if !cmd.Secret {
		t.Error("secret flag not set")
	}
}

func TestSession_Refresh(t *testing.T) {
	c := sessiontest.New("\r\nRouter#")
	timings := config.DefaultTimings()
	sess := session.New(c, prompt.New(""), timings, nil)

	if _, err := sess.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	sent := c.Sent()
	if len(sent) != 1 || sent[0].Text != "" || sent[0].Settle != timings.Default {
		t.Errorf("unexpected refresh: %+v", sent)
	}
}

func TestSession_Observe(t *testing.T) {
	sess := session.New(sessiontest.New(""), prompt.New("Edge1"), config.DefaultTimings(), nil)

	if got := sess.Observe("\r\nEdge1#"); got != prompt.ExecMode {
		t.Errorf("Observe = %s, want exec", got)
	}
	if sess.State != prompt.ExecMode || sess.Last != "\r\nEdge1#" {
		t.Errorf("State=%s Last=%q", sess.State, sess.Last)
	}
	if got := sess.Observe("Router#"); got != prompt.Unrecognized {
		t.Errorf("factory prompt under a custom hostname = %s, want unrecognized", got)
	}
}
