package monitor

import "testing"

type fakeSizer struct{ bytes int64 }

func (f fakeSizer) EstimatedBytes() int64 { return f.bytes }

func TestStorageMonitorGetLimit(t *testing.T) {
	sm := NewStorageMonitor(fakeSizer{}, 1024*1024*1024)
	if got := sm.GetLimit(); got != 1024*1024*1024 {
		t.Errorf("GetLimit() = %d, want %d", got, 1024*1024*1024)
	}
}

func TestStorageMonitorGetUsage(t *testing.T) {
	sm := NewStorageMonitor(fakeSizer{bytes: 4096}, 1024*1024*1024)

	usage, err := sm.GetUsage()
	if err != nil {
		t.Fatalf("GetUsage() error = %v", err)
	}
	if usage != 4096 {
		t.Errorf("GetUsage() = %d, want 4096", usage)
	}
}

func TestStorageMonitorCaching(t *testing.T) {
	sizer := &mutableSizer{bytes: 100}
	sm := NewStorageMonitor(sizer, 1024*1024*1024)

	usage1, err := sm.GetUsage()
	if err != nil {
		t.Fatalf("GetUsage() error = %v", err)
	}

	sizer.bytes = 999999
	usage2, err := sm.GetUsage()
	if err != nil {
		t.Fatalf("GetUsage() error = %v", err)
	}

	if usage1 != usage2 {
		t.Errorf("cached values differ despite cache not expiring: %d != %d", usage1, usage2)
	}
}

type mutableSizer struct{ bytes int64 }

func (m *mutableSizer) EstimatedBytes() int64 { return m.bytes }
