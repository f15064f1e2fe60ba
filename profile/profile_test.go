package profile

import (
	"testing"

	"github.com/skyhook-net/rohc/ipheader"
)

func rtpChain() *ipheader.Chain {
	return &ipheader.Chain{
		V4:  &ipheader.IPv4{Protocol: ipheader.ProtoUDP, Src: [4]byte{10, 0, 0, 1}, Dst: [4]byte{10, 0, 0, 2}},
		UDP: &ipheader.UDP{SrcPort: 5000, DstPort: 5004},
		RTP: &ipheader.RTP{SSRC: 1},
	}
}

func TestClassifyRTP(t *testing.T) {
	r := NewRegistry()
	id, key, err := r.Classify(rtpChain())
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if id != RTP {
		t.Errorf("id = %v, want RTP", id)
	}
	if key.DstPort != 5004 {
		t.Errorf("DstPort = %d, want 5004", key.DstPort)
	}
}

func TestClassifyPlainUDP(t *testing.T) {
	r := NewRegistry()
	c := rtpChain()
	c.RTP = nil
	id, _, err := r.Classify(c)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if id != UDP {
		t.Errorf("id = %v, want UDP", id)
	}
}

func TestClassifyESP(t *testing.T) {
	r := NewRegistry()
	c := &ipheader.Chain{
		V6:  &ipheader.IPv6{NextHeader: ipheader.NextESP},
		ESP: &ipheader.ESP{SPI: 0xDEADBEEF, SN: 1},
	}
	id, key, err := r.Classify(c)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if id != ESP {
		t.Errorf("id = %v, want ESP", id)
	}
	if key.SPI != 0xDEADBEEF {
		t.Errorf("SPI = %x, want deadbeef", key.SPI)
	}
}

func TestClassifyNoMatch(t *testing.T) {
	r := NewRegistry()
	_, _, err := r.Classify(&ipheader.Chain{})
	if err != ErrNoMatch {
		t.Errorf("err = %v, want ErrNoMatch", err)
	}
}

func TestRegisterAfterSealPanics(t *testing.T) {
	r := NewRegistry()
	r.Seal()
	defer func() {
		if recover() == nil {
			t.Error("expected panic registering after Seal")
		}
	}()
	r.Register(ipMatcher{})
}
