package kernel

import "testing"

func TestQueueInitValidatesParams(t *testing.T) {
	var q Queue
	var buf [16]byte

	cases := []struct {
		name     string
		buf      []byte
		itemSize int
		capacity int
		want     Status
	}{
		{"nil buffer", nil, 4, 4, StatusParam},
		{"zero item size", buf[:], 0, 4, StatusParam},
		{"negative capacity", buf[:], 4, -1, StatusParam},
		{"buffer too small", buf[:], 8, 4, StatusParam},
		{"ok", buf[:], 4, 4, StatusOK},
	}
	for _, c := range cases {
		if got := QueueInit(&q, c.buf, c.itemSize, c.capacity); got != c.want {
			t.Errorf("%s: QueueInit = %v, want %v", c.name, got, c.want)
		}
	}
	if QueueInit(nil, buf[:], 4, 4) != StatusParam {
		t.Errorf("expected StatusParam for nil queue")
	}
}

func TestQueueChecksumDetectsCorruption(t *testing.T) {
	payload := []byte{0x01, 0x02, 0x03, 0x04}
	sum := QueueChecksum(payload)

	if got := QueueChecksum(payload); got != sum {
		t.Fatalf("checksum not stable across calls: %#x != %#x", got, sum)
	}

	corrupted := []byte{0x01, 0x02, 0x03, 0x05}
	if got := QueueChecksum(corrupted); got == sum {
		t.Fatalf("expected a corrupted payload to change the checksum")
	}
}
