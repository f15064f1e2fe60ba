package rohcpacket

import (
	"bytes"
	"testing"
)

func TestFeedbackPrefixRoundTripShort(t *testing.T) {
	element := []byte{0x81, 0x12, 0x34}
	framed, err := BuildFeedbackPrefix(element)
	if err != nil {
		t.Fatalf("BuildFeedbackPrefix: %v", err)
	}
	got, consumed, ok, err := IsFeedbackPrefix(framed)
	if err != nil {
		t.Fatalf("IsFeedbackPrefix: %v", err)
	}
	if !ok {
		t.Fatal("expected a feedback prefix to be recognized")
	}
	if consumed != len(framed) {
		t.Errorf("consumed = %d, want %d", consumed, len(framed))
	}
	if !bytes.Equal(got, element) {
		t.Errorf("got %x, want %x", got, element)
	}
}

func TestFeedbackPrefixRoundTripLong(t *testing.T) {
	element := bytes.Repeat([]byte{0x5A}, 12)
	framed, err := BuildFeedbackPrefix(element)
	if err != nil {
		t.Fatalf("BuildFeedbackPrefix: %v", err)
	}
	got, consumed, ok, err := IsFeedbackPrefix(framed)
	if err != nil {
		t.Fatalf("IsFeedbackPrefix: %v", err)
	}
	if !ok {
		t.Fatal("expected a feedback prefix to be recognized")
	}
	if consumed != len(framed) {
		t.Errorf("consumed = %d, want %d", consumed, len(framed))
	}
	if !bytes.Equal(got, element) {
		t.Errorf("got %x, want %x", got, element)
	}
}

func TestFeedbackPrefixRejectsEmptyElement(t *testing.T) {
	if _, err := BuildFeedbackPrefix(nil); err == nil {
		t.Fatal("expected an error for an empty feedback element")
	}
}

func TestIsFeedbackPrefixRejectsOtherDiscriminators(t *testing.T) {
	for _, disc := range []byte{0x00, 0x80, 0xC0, 0xE1, 0xFC, 0xFE} {
		if _, _, ok, err := IsFeedbackPrefix([]byte{disc, 0x00}); ok || err != nil {
			t.Errorf("disc 0x%02x: ok=%v err=%v, want ok=false err=nil", disc, ok, err)
		}
	}
}

func TestIsFeedbackPrefixDetectsTruncatedElement(t *testing.T) {
	// Discriminator claims a 3-byte element but only one byte follows.
	if _, _, _, err := IsFeedbackPrefix([]byte{feedbackDisc | 0x03, 0x01}); err == nil {
		t.Fatal("expected an overrun error")
	}
}

func TestFeedbackDiscDoesNotCollideWithOtherKinds(t *testing.T) {
	collisions := []byte{irDynByte, segByte, addCID, uor2Bits, uo1Bits}
	for _, b := range collisions {
		if b&feedbackMask == feedbackDisc {
			t.Errorf("byte 0x%02x collides with the feedback discriminator range", b)
		}
	}
}
