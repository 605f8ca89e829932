package voice

import "testing"

func TestTranscript_CommitResetsAccumulators(t *testing.T) {
	var tr transcript
	tr.appendUser("He")
	tr.appendUser("llo")
	tr.appendModel("Hi")

	turn, ok := tr.commit()
	if !ok {
		t.Fatal("commit returned no turn")
	}
	if turn != (Turn{User: "Hello", Model: "Hi"}) {
		t.Errorf("turn = %+v", turn)
	}

	user, model := tr.snapshot()
	if user != "" || model != "" {
		t.Errorf("accumulators not reset: %q %q", user, model)
	}
	if got := len(tr.history()); got != 1 {
		t.Errorf("history length = %d, want 1", got)
	}
}

func TestTranscript_EmptyTurnDropped(t *testing.T) {
	var tr transcript
	if _, ok := tr.commit(); ok {
		t.Error("empty commit recorded a turn")
	}
	if got := len(tr.history()); got != 0 {
		t.Errorf("history length = %d, want 0", got)
	}
}

func TestTranscript_HistoryIsACopy(t *testing.T) {
	var tr transcript
	tr.appendUser("one")
	tr.commit()

	h := tr.history()
	h[0].User = "mutated"
	if tr.history()[0].User != "one" {
		t.Error("history exposed internal slice")
	}
}
