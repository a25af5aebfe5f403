package block

import "testing"

func TestValueRoundTrip(t *testing.T) {
	v := Value{
		Value:     []byte("hello world"),
		Meta:      0x01,
		UserMeta:  0xaa,
		Version:   123456789,
		ExpiresAt: 42,
	}
	got, err := DecodeValue(EncodeValue(v))
	if err != nil {
		t.Fatalf("DecodeValue: %v", err)
	}
	if got.Meta != v.Meta || got.UserMeta != v.UserMeta || got.Version != v.Version || got.ExpiresAt != v.ExpiresAt {
		t.Fatalf("DecodeValue() = %+v, want %+v", got, v)
	}
	if string(got.Value) != string(v.Value) {
		t.Fatalf("DecodeValue().Value = %q, want %q", got.Value, v.Value)
	}
}

func TestValueEmptyPayload(t *testing.T) {
	got, err := DecodeValue(EncodeValue(Value{}))
	if err != nil {
		t.Fatalf("DecodeValue: %v", err)
	}
	if len(got.Value) != 0 {
		t.Fatalf("DecodeValue().Value = %q, want empty", got.Value)
	}
}

func TestDecodeValueRejectsShortBuffer(t *testing.T) {
	if _, err := DecodeValue([]byte{1, 2, 3}); err == nil {
		t.Fatalf("want error decoding short buffer")
	}
}
