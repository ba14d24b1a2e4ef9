package sr

import "testing"

func TestValidateCommandEnvelopeUnknownType(t *testing.T) {
	cmd, err := NewCommand("playback.play", nil)
	if err != nil {
		t.Fatalf("new command: %v", err)
	}
	cmd.ID = "id"
	cmd.TS = 1
	cmd.From = "tester"
	if err := ValidateCommandEnvelope(cmd); err == nil {
		t.Fatalf("expected unknown type error")
	}

	cmd.Type = CmdPause
	if err := ValidateCommandEnvelope(cmd); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateCommandEnvelopeMissingFields(t *testing.T) {
	cmd := CommandEnvelope{}
	if err := ValidateCommandEnvelope(cmd); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNewCommandNilBody(t *testing.T) {
	cmd, err := NewCommand(CmdResume, nil)
	if err != nil {
		t.Fatalf("new command: %v", err)
	}
	if string(cmd.Body) != "{}" {
		t.Fatalf("expected empty object body, got %s", cmd.Body)
	}
}

func TestNewEventWithoutBody(t *testing.T) {
	evt, err := NewEvent(EventRemoteConnected, 10, nil)
	if err != nil {
		t.Fatalf("new event: %v", err)
	}
	if evt.Body != nil {
		t.Fatalf("expected no body")
	}
}

func TestTopics(t *testing.T) {
	if got := TopicCommands(BaseTopic, "sr:bridge:phone"); got != "sr/v1/node/sr:bridge:phone/cmd" {
		t.Fatalf("unexpected command topic %s", got)
	}
	if got := TopicEvents(BaseTopic, "sr:bridge:phone"); got != "sr/v1/node/sr:bridge:phone/evt" {
		t.Fatalf("unexpected event topic %s", got)
	}
	if got := TopicReply(BaseTopic, "ctl"); got != "sr/v1/reply/ctl" {
		t.Fatalf("unexpected reply topic %s", got)
	}
}

func TestIsObservableEvent(t *testing.T) {
	if !IsObservableEvent(EventPlayerStateChanged) {
		t.Fatalf("expected playerStateChanged observable")
	}
	if IsObservableEvent("nope") {
		t.Fatalf("unexpected observable event")
	}
}
