package main

import (
	"testing"

	"github.com/tapstand/kiosk/api"
)

func TestReadyAnnouncerAnnouncesOnce(t *testing.T) {
	a := newReadyAnnouncer()

	pending := []api.Order{{ID: "ord-1", Status: api.StatusPending}}
	if got := a.newlyReady(pending); len(got) != 0 {
		t.Errorf("pending order announced: %+v", got)
	}

	completed := []api.Order{
		{ID: "ord-1", Status: api.StatusCompleted},
		{ID: "ord-2", Status: api.StatusInProgress},
	}
	got := a.newlyReady(completed)
	if len(got) != 1 || got[0].ID != "ord-1" {
		t.Fatalf("newlyReady = %+v, want just ord-1", got)
	}

	// The same completed order on later refreshes stays quiet
	for i := 0; i < 3; i++ {
		if got := a.newlyReady(completed); len(got) != 0 {
			t.Errorf("refresh %d re-announced: %+v", i, got)
		}
	}

	// A different order completing still gets its own announcement
	completed[1].Status = api.StatusCompleted
	got = a.newlyReady(completed)
	if len(got) != 1 || got[0].ID != "ord-2" {
		t.Errorf("newlyReady = %+v, want just ord-2", got)
	}
}
