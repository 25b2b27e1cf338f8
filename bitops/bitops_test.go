package bitops

import "testing"

func TestReverse(t *testing.T) {
	cases := []struct {
		in, want byte
	}{
		{0b0000_0001, 0b1000_0000},
		{0b1000_0000, 0b0000_0001},
		{0b1100_0000, 0b0000_0011},
		{0b1010_1010, 0b0101_0101},
		{0x00, 0x00},
		{0xff, 0xff},
	}
	for _, c := range cases {
		if got := Reverse(c.in); got != c.want {
			t.Errorf("Reverse(%08b) = %08b, want %08b", c.in, got, c.want)
		}
	}
}

func TestReverseInvolution(t *testing.T) {
	for i := 0; i < 256; i++ {
		b := byte(i)
		if got := Reverse(Reverse(b)); got != b {
			t.Errorf("Reverse(Reverse(%08b)) = %08b, want %08b", b, got, b)
		}
	}
}

func TestSetMSB(t *testing.T) {
	buf := make([]byte, 2)
	SetMSB(buf, 0, true)
	if buf[0] != 0b1000_0000 {
		t.Fatalf("bit 0: got %08b", buf[0])
	}
	SetMSB(buf, 7, true)
	if buf[0] != 0b1000_0001 {
		t.Fatalf("bit 7: got %08b", buf[0])
	}
	SetMSB(buf, 8, true)
	if buf[1] != 0b1000_0000 {
		t.Fatalf("bit 8: got %08b", buf[1])
	}
	if !TestMSB(buf, 0) || !TestMSB(buf, 7) || !TestMSB(buf, 8) {
		t.Fatalf("TestMSB disagrees with SetMSB: %08b %08b", buf[0], buf[1])
	}
	SetMSB(buf, 0, false)
	if TestMSB(buf, 0) {
		t.Fatalf("bit 0 still set after clearing")
	}
}
