package models

import "testing"

// TestValidTransitionPath verifies the only legal path through the machine
func TestValidTransitionPath(t *testing.T) {
	path := []JobState{JobStateStarted, JobStateQueued, JobStateProcessing, JobStateCompleted}
	for i := 0; i < len(path)-1; i++ {
		if !ValidTransition(path[i], path[i+1]) {
			t.Fatalf("transition %s -> %s should be valid", path[i], path[i+1])
		}
	}
}

// TestFailureReachableFromEveryActiveState checks the failed edge set
func TestFailureReachableFromEveryActiveState(t *testing.T) {
	for _, from := range []JobState{JobStateStarted, JobStateQueued, JobStateProcessing} {
		if !ValidTransition(from, JobStateFailed) {
			t.Fatalf("transition %s -> failed should be valid", from)
		}
	}
}

// TestTerminalStatesAdmitNothing verifies completed and failed are final
func TestTerminalStatesAdmitNothing(t *testing.T) {
	terminal := []JobState{JobStateCompleted, JobStateFailed}
	all := []JobState{JobStateStarted, JobStateQueued, JobStateProcessing, JobStateCompleted, JobStateFailed}

	for _, from := range terminal {
		if !from.IsTerminal() {
			t.Fatalf("%s should be terminal", from)
		}
		for _, to := range all {
			if ValidTransition(from, to) {
				t.Fatalf("transition %s -> %s should be invalid", from, to)
			}
		}
	}
}

// TestNoBackwardTransitions verifies monotonic progress
func TestNoBackwardTransitions(t *testing.T) {
	if ValidTransition(JobStateProcessing, JobStateQueued) {
		t.Fatal("processing -> queued should be invalid")
	}
	if ValidTransition(JobStateQueued, JobStateStarted) {
		t.Fatal("queued -> started should be invalid")
	}
}
