package record

import "testing"

func TestCheckpointDataSubMapCreatesIfAbsent(t *testing.T) {
	cp := CheckpointData{}
	sub := cp.SubMap("step-1")
	sub["lastSeenID"] = "abc"

	if cp["step-1"]["lastSeenID"] != "abc" {
		t.Fatalf("expected SubMap mutation to be visible on the owning checkpoint, got %v", cp)
	}
}

func TestCheckpointDataCloneIsIndependent(t *testing.T) {
	cp := CheckpointData{"step-1": {"cursor": 5}}
	clone := cp.Clone()
	clone.SubMap("step-1")["cursor"] = 999

	if cp["step-1"]["cursor"] != 5 {
		t.Fatalf("expected clone mutation not to leak into original, got %v", cp["step-1"]["cursor"])
	}
}
